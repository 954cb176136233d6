// Package adapter provides the database adapter contract used by leapclean's
// database sources and destinations.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves with this package in their init functions.
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/leapclean/pkg/core"
)

// Adapter defines the interface that all database adapters must implement.
// It provides methods for connecting to databases, executing SQL, and
// retrieving metadata.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg core.AdapterConfig) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows (e.g., INSERT, CREATE).
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a SQL statement that returns rows.
	// The caller must close the rows and check rows.Err().
	Query(ctx context.Context, sql string, args ...any) (*sql.Rows, error)

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error)

	// Dialect returns the SQL conventions of this database.
	Dialect() *Dialect
}

// Package duckdb provides a DuckDB database adapter for leapclean sources and destinations.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/leapstack-labs/leapclean/pkg/adapter"
	"github.com/leapstack-labs/leapclean/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Dialect holds DuckDB's SQL conventions.
var Dialect = &adapter.Dialect{
	Name:          "duckdb",
	DefaultSchema: "main",
	Placeholder:   adapter.PlaceholderQuestion,
	Types: map[core.ColumnType]string{
		core.TypeNumeric:  "DOUBLE",
		core.TypeText:     "VARCHAR",
		core.TypeDatetime: "TIMESTAMP",
		core.TypeBoolean:  "BOOLEAN",
		core.TypeMixed:    "VARCHAR",
	},
}

// settingName restricts session setting names to plain identifiers.
var settingName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the DuckDB dialect.
func (a *Adapter) Dialect() *adapter.Dialect {
	return Dialect
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" (or an empty path) for an in-memory database.
// Extensions, session settings and secrets from cfg.Params are applied after connecting.
func (a *Adapter) Connect(ctx context.Context, cfg core.AdapterConfig) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	// Settings and loaded extensions are per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	if err := a.applyParams(ctx, params); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}
	return nil
}

func (a *Adapter) applyParams(ctx context.Context, p *Params) error {
	for _, ext := range p.Extensions {
		if !settingName.MatchString(ext) {
			return fmt.Errorf("invalid duckdb extension name %q", ext)
		}
		if err := a.Exec(ctx, "INSTALL "+ext); err != nil {
			return fmt.Errorf("failed to install extension %s: %w", ext, err)
		}
		if err := a.Exec(ctx, "LOAD "+ext); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
		a.Logger.Debug("loaded duckdb extension", slog.String("extension", ext))
	}
	for name, value := range p.Settings {
		if !settingName.MatchString(name) {
			return fmt.Errorf("invalid duckdb setting name %q", name)
		}
		if err := a.Exec(ctx, fmt.Sprintf("SET %s = %s", name, quoteLiteral(value))); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", name, err)
		}
	}
	for _, secret := range p.Secrets {
		if err := a.Exec(ctx, buildCreateSecretSQL(secret)); err != nil {
			return fmt.Errorf("failed to create %s secret: %w", secret.Type, err)
		}
	}
	return nil
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	return a.GetTableMetadataCommon(ctx, table, Dialect)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)

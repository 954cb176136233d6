// Package postgres provides a PostgreSQL database adapter for leapclean sources and destinations.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/leapclean/pkg/adapter"
	"github.com/leapstack-labs/leapclean/pkg/core"
)

// Dialect holds PostgreSQL's SQL conventions.
var Dialect = &adapter.Dialect{
	Name:          "postgres",
	DefaultSchema: "public",
	Placeholder:   adapter.PlaceholderDollar,
	Types: map[core.ColumnType]string{
		core.TypeNumeric:  "DOUBLE PRECISION",
		core.TypeText:     "TEXT",
		core.TypeDatetime: "TIMESTAMPTZ",
		core.TypeBoolean:  "BOOLEAN",
		core.TypeMixed:    "TEXT",
	},
}

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the PostgreSQL dialect.
func (a *Adapter) Dialect() *adapter.Dialect {
	return Dialect
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg core.AdapterConfig) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg core.AdapterConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	if cfg.Schema != "" {
		dsn += fmt.Sprintf(" search_path=%s", cfg.Schema)
	}

	return dsn
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	return a.GetTableMetadataCommon(ctx, table, Dialect)
}

// BulkLoad copies every row of t into an existing table using COPY FROM STDIN.
func (a *Adapter) BulkLoad(ctx context.Context, t *core.Table, schema, name string) (int, error) {
	if a.DB == nil {
		return 0, adapter.ErrNotConnected
	}

	conn, err := a.DB.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	cols := t.Columns()
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	rows := make([][]any, t.NumRows())
	for r := range rows {
		row := make([]any, len(cols))
		for c, col := range cols {
			row[c] = adapter.BindValue(col, col.Values[r])
		}
		rows[r] = row
	}

	var copied int64
	err = conn.Raw(func(driverConn any) error {
		pgxConn := driverConn.(*stdlib.Conn).Conn()
		copied, err = pgxConn.CopyFrom(ctx, pgx.Identifier{schema, name}, names, pgx.CopyFromRows(rows))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to copy rows into %s.%s: %w", schema, name, err)
	}
	a.Logger.Debug("copied rows", slog.String("table", schema+"."+name), slog.Int64("rows", copied))
	return int(copied), nil
}

// Ensure Adapter implements the adapter interfaces
var (
	_ adapter.Adapter    = (*Adapter)(nil)
	_ adapter.BulkLoader = (*Adapter)(nil)
)

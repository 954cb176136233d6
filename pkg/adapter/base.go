package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapclean/pkg/core"
)

// ErrNotConnected is returned by adapter methods called before Connect.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLAdapter implements the database/sql half of Adapter.
// Concrete adapters embed it and set DB in Connect.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

// Close releases the connection. Closing an unconnected adapter is a no-op.
func (b *BaseSQLAdapter) Close() error {
	if b.DB == nil {
		return nil
	}
	if b.Logger != nil {
		b.Logger.Debug("closing database connection", slog.String("adapter", b.Cfg.Type))
	}
	return b.DB.Close()
}

// Exec runs a statement that returns no rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, stmt string, args ...any) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	if _, err := b.DB.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query runs a statement that returns rows. The caller closes them.
func (b *BaseSQLAdapter) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	//nolint:rowserrcheck // the caller iterates and checks rows.Err
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows, nil
}

// IsConnected reports whether Connect has succeeded.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// columnsQuery lists a table's columns from information_schema.
func columnsQuery(d *Dialect) string {
	return "SELECT column_name, data_type, is_nullable, ordinal_position" +
		" FROM information_schema.columns" +
		" WHERE table_schema = " + d.FormatPlaceholder(1) + " AND table_name = " + d.FormatPlaceholder(2) +
		" ORDER BY ordinal_position"
}

// GetTableMetadataCommon describes a table through information_schema.
// Both bundled databases expose it, so adapters delegate here.
func (b *BaseSQLAdapter) GetTableMetadataCommon(ctx context.Context, table string, d *Dialect) (*core.TableMetadata, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	schema, name := ParseQualifiedName(table, d)

	columns, err := b.scanColumns(ctx, d, schema, name)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	meta := &core.TableMetadata{Schema: schema, Name: name, Columns: columns}
	// A failed count leaves RowCount at zero.
	countQuery := "SELECT COUNT(*) FROM " + d.QualifiedName(schema, name) //nolint:gosec // identifiers are quoted
	_ = b.DB.QueryRowContext(ctx, countQuery).Scan(&meta.RowCount)
	return meta, nil
}

func (b *BaseSQLAdapter) scanColumns(ctx context.Context, d *Dialect, schema, name string) ([]core.ColumnMetadata, error) {
	rows, err := b.DB.QueryContext(ctx, columnsQuery(d), schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.ColumnMetadata
	for rows.Next() {
		var (
			col      core.ColumnMetadata
			nullable string
		)
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	return columns, nil
}

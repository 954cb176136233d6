package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/leapclean/pkg/core"
)

// WriteMode controls what WriteTable does with an existing table.
type WriteMode string

// Write modes.
const (
	// WriteReplace drops and recreates the table.
	WriteReplace WriteMode = "replace"
	// WriteAppend creates the table if needed and inserts after existing rows.
	WriteAppend WriteMode = "append"
)

// BulkLoader is implemented by adapters with a faster path than batched INSERTs.
// WriteTable uses it after the target table exists.
type BulkLoader interface {
	BulkLoad(ctx context.Context, t *core.Table, schema, name string) (int, error)
}

// maxParams bounds the bind parameters of one INSERT statement.
const maxParams = 1000

// ReadTable runs query and collects the result set into a table.
// Driver values are normalized to leapclean cell kinds and column types are inferred.
func ReadTable(ctx context.Context, a Adapter, query string, args ...any) (*core.Table, error) {
	rows, err := a.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	values := make([][]any, len(names))
	dest := make([]any, len(names))
	for rows.Next() {
		row := make([]any, len(names))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range row {
			values[i] = append(values[i], normalizeDBValue(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	cols := make([]core.Column, len(names))
	for i, name := range names {
		if values[i] == nil {
			values[i] = []any{}
		}
		cols[i] = core.NewColumn(name, values[i])
	}
	return core.NewTable(cols...)
}

// normalizeDBValue converts a scanned driver value into a cell.
// Nested driver values (lists, structs) become compound cells.
func normalizeDBValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalizeDBValue(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalizeDBValue(item)
		}
		return out
	}
	return core.NormalizeCell(v)
}

// WriteTable stores t as the named table and returns the number of rows written.
// The table name may be schema-qualified.
func WriteTable(ctx context.Context, a Adapter, t *core.Table, table string, mode WriteMode) (int, error) {
	if t.NumCols() == 0 {
		return 0, fmt.Errorf("cannot write table %s without columns", table)
	}
	d := a.Dialect()
	schema, name := ParseQualifiedName(table, d)
	qualified := d.QualifiedName(schema, name)

	switch mode {
	case WriteReplace, "":
		if err := a.Exec(ctx, "DROP TABLE IF EXISTS "+qualified); err != nil {
			return 0, fmt.Errorf("failed to drop table %s: %w", table, err)
		}
		if err := a.Exec(ctx, createTableSQL(d, qualified, t, false)); err != nil {
			return 0, fmt.Errorf("failed to create table %s: %w", table, err)
		}
	case WriteAppend:
		if err := a.Exec(ctx, createTableSQL(d, qualified, t, true)); err != nil {
			return 0, fmt.Errorf("failed to create table %s: %w", table, err)
		}
		// An existing table must accept every column being appended.
		meta, err := a.GetTableMetadata(ctx, table)
		if err != nil {
			return 0, fmt.Errorf("failed to describe table %s: %w", table, err)
		}
		if missing := missingColumns(meta, t.ColumnNames()); len(missing) > 0 {
			return 0, fmt.Errorf("table %s has no column(s) %s", table, strings.Join(missing, ", "))
		}
	default:
		return 0, fmt.Errorf("unknown write mode %q (expected replace or append)", mode)
	}

	if bl, ok := a.(BulkLoader); ok {
		return bl.BulkLoad(ctx, t, schema, name)
	}

	cols := t.Columns()
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = d.QuoteIdentifier(col.Name)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", qualified, strings.Join(quoted, ", "))

	batch := maxParams / len(cols)
	if batch < 1 {
		batch = 1
	}
	written := 0
	for start := 0; start < t.NumRows(); start += batch {
		end := min(start+batch, t.NumRows())

		var (
			tuples []string
			args   []any
		)
		for r := start; r < end; r++ {
			ph := make([]string, len(cols))
			for c, col := range cols {
				args = append(args, BindValue(col, col.Values[r]))
				ph[c] = d.FormatPlaceholder(len(args))
			}
			tuples = append(tuples, "("+strings.Join(ph, ", ")+")")
		}
		if err := a.Exec(ctx, prefix+strings.Join(tuples, ", "), args...); err != nil {
			return written, fmt.Errorf("failed to insert rows into %s: %w", table, err)
		}
		written += end - start
	}
	return written, nil
}

// missingColumns returns the names absent from meta, compared case-insensitively.
func missingColumns(meta *core.TableMetadata, names []string) []string {
	have := make(map[string]bool, len(meta.Columns))
	for _, col := range meta.Columns {
		have[strings.ToLower(col.Name)] = true
	}
	var missing []string
	for _, name := range names {
		if !have[strings.ToLower(name)] {
			missing = append(missing, name)
		}
	}
	return missing
}

func createTableSQL(d *Dialect, qualified string, t *core.Table, ifNotExists bool) string {
	defs := make([]string, 0, t.NumCols())
	for _, col := range t.Columns() {
		defs = append(defs, d.QuoteIdentifier(col.Name)+" "+d.SQLType(col.Type))
	}
	stmt := "CREATE TABLE "
	if ifNotExists {
		stmt += "IF NOT EXISTS "
	}
	return stmt + qualified + " (" + strings.Join(defs, ", ") + ")"
}

// BindValue converts a cell into a driver argument matching the column's SQL type.
func BindValue(col core.Column, v any) any {
	if core.IsMissing(v) {
		return nil
	}
	switch col.Type {
	case core.TypeNumeric:
		if f, ok := core.AsFloat(v); ok {
			return f
		}
	case core.TypeBoolean:
		if b, ok := v.(bool); ok {
			return b
		}
	case core.TypeDatetime:
		if ts, ok := v.(time.Time); ok {
			return ts
		}
	}
	return core.Stringify(v)
}

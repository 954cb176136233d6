package adapter

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapclean/pkg/core"
)

// PlaceholderStyle defines how query parameters are written.
type PlaceholderStyle int

// Placeholder styles.
const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1, $2
)

// Dialect holds the SQL conventions an adapter needs to read and write tables.
type Dialect struct {
	Name          string
	DefaultSchema string // "main" for DuckDB, "public" for Postgres
	Placeholder   PlaceholderStyle
	// Types maps column types to the SQL type used when creating tables.
	Types map[core.ColumnType]string
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default:
		return "?"
	}
}

// QuoteIdentifier quotes an identifier with double quotes, escaping embedded quotes.
func (d *Dialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedName quotes a schema-qualified table name.
// An empty schema yields the bare quoted name.
func (d *Dialect) QualifiedName(schema, name string) string {
	if schema == "" {
		return d.QuoteIdentifier(name)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(name)
}

// SQLType returns the column type used for a leapclean column type.
// Mixed and unknown types are stored as text.
func (d *Dialect) SQLType(t core.ColumnType) string {
	if s, ok := d.Types[t]; ok {
		return s
	}
	return "TEXT"
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses the dialect's default schema if not specified.
func ParseQualifiedName(table string, d *Dialect) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return d.DefaultSchema, table
}

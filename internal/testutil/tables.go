package testutil

import (
	"testing"

	"github.com/leapstack-labs/leapclean/pkg/core"
)

// Col is shorthand for core.NewColumn in table literals.
func Col(name string, values ...any) core.Column {
	return core.NewColumn(name, values)
}

// NewTable builds a table from columns and fails the test on error.
func NewTable(t testing.TB, columns ...core.Column) *core.Table {
	t.Helper()
	tbl, err := core.NewTable(columns...)
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	return tbl
}

// Values returns the cells of the named column and fails the test if it is absent.
func Values(t testing.TB, tbl *core.Table, name string) []any {
	t.Helper()
	col, ok := tbl.Column(name)
	if !ok {
		t.Fatalf("column %q not found in %s", name, tbl)
	}
	return col.Values
}

// ColumnType returns the type of the named column and fails the test if it is absent.
func ColumnType(t testing.TB, tbl *core.Table, name string) core.ColumnType {
	t.Helper()
	col, ok := tbl.Column(name)
	if !ok {
		t.Fatalf("column %q not found in %s", name, tbl)
	}
	return col.Type
}

package core

import (
	"fmt"
	"strings"
)

// =============================================================================
// Column types
// =============================================================================

// ColumnType is the inferred semantic type of a column.
type ColumnType string

// Column type constants.
const (
	// TypeMixed is any column whose cells have not been narrowed to one kind.
	TypeMixed ColumnType = "mixed"
	// TypeNumeric columns hold float64 cells.
	TypeNumeric ColumnType = "numeric"
	// TypeText columns hold string cells.
	TypeText ColumnType = "text"
	// TypeDatetime columns hold time.Time cells.
	TypeDatetime ColumnType = "datetime"
	// TypeBoolean columns hold bool cells.
	TypeBoolean ColumnType = "boolean"
)

// String returns the string representation of the column type.
func (t ColumnType) String() string {
	if t == "" {
		return string(TypeMixed)
	}
	return string(t)
}

// =============================================================================
// Column
// =============================================================================

// Column is a named, typed sequence of cells.
// Values must not be modified once the column is part of a Table.
type Column struct {
	Name   string
	Type   ColumnType
	Values []any
}

// NewColumn creates a column and infers its type from the values.
func NewColumn(name string, values []any) Column {
	return Column{Name: name, Type: InferType(values), Values: values}
}

// Len returns the number of cells in the column.
func (c Column) Len() int {
	return len(c.Values)
}

// MissingCount returns the number of Missing cells.
func (c Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if IsMissing(v) {
			n++
		}
	}
	return n
}

// NonMissing returns the non-missing cells in row order.
func (c Column) NonMissing() []any {
	out := make([]any, 0, len(c.Values))
	for _, v := range c.Values {
		if !IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}

// Floats returns the non-missing cells of a numeric column as float64.
// Cells that cannot be coerced are skipped.
func (c Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if IsMissing(v) {
			continue
		}
		if f, ok := AsFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// clone returns a column with its own copy of the values.
func (c Column) clone() Column {
	values := make([]any, len(c.Values))
	copy(values, c.Values)
	return Column{Name: c.Name, Type: c.Type, Values: values}
}

// =============================================================================
// Table
// =============================================================================

// Table is an ordered collection of equal-length, uniquely named columns.
// Tables are immutable: every transformation returns a new Table.
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// NewTable builds a table from columns.
// It fails if column names repeat or column lengths differ.
func NewTable(columns ...Column) (*Table, error) {
	t := &Table{
		columns: make([]Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := t.index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		if i == 0 {
			t.rows = col.Len()
		} else if col.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), t.rows)
		}
		if col.Type == "" {
			col.Type = InferType(col.Values)
		}
		t.index[col.Name] = len(t.columns)
		t.columns = append(t.columns, col)
	}
	return t, nil
}

// MustTable is like NewTable but panics on error. Intended for tests and literals.
func MustTable(columns ...Column) *Table {
	t, err := NewTable(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromRecords builds a table from row records keyed by column name.
// Columns appear in first-seen order across records, keys within one record sorted.
// Absent keys are Missing.
func FromRecords(records []map[string]any) *Table {
	var names []string
	seen := make(map[string]bool)
	for _, rec := range records {
		keys := sortedKeys(rec)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	cols := make([]Column, len(names))
	for i, name := range names {
		values := make([]any, len(records))
		for r, rec := range records {
			values[r] = rec[name]
		}
		cols[i] = NewColumn(name, values)
	}
	return MustTable(cols...)
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return t.rows
}

// NumCols returns the column count.
func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.columns)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order. The returned cells must not be modified.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for c, col := range t.columns {
		row[c] = col.Values[i]
	}
	return row
}

// Record returns row i keyed by column name.
func (t *Table) Record(i int) map[string]any {
	rec := make(map[string]any, len(t.columns))
	for _, col := range t.columns {
		rec[col.Name] = col.Values[i]
	}
	return rec
}

// WithColumn returns a new table with col appended, or replacing the column of the same name.
func (t *Table) WithColumn(col Column) (*Table, error) {
	if t.NumCols() > 0 && col.Len() != t.rows {
		return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), t.rows)
	}
	cols := t.Columns()
	if i, ok := t.index[col.Name]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return NewTable(cols...)
}

// DropColumns returns a new table without the named columns. Unknown names are ignored.
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	cols := make([]Column, 0, len(t.columns))
	for _, c := range t.columns {
		if !drop[c.Name] {
			cols = append(cols, c)
		}
	}
	return MustTable(cols...)
}

// SelectRows returns a new table holding only the given rows, in the given order.
func (t *Table) SelectRows(rows []int) *Table {
	cols := make([]Column, len(t.columns))
	for i, c := range t.columns {
		values := make([]any, len(rows))
		for j, r := range rows {
			values[j] = c.Values[r]
		}
		cols[i] = Column{Name: c.Name, Type: c.Type, Values: values}
	}
	out := MustTable(cols...)
	if len(cols) == 0 {
		out.rows = len(rows)
	}
	return out
}

// FilterRows returns a new table with the rows for which keep returns true.
func (t *Table) FilterRows(keep func(row int) bool) *Table {
	rows := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return t.SelectRows(rows)
}

// Head returns a new table with at most n leading rows.
func (t *Table) Head(n int) *Table {
	if n > t.rows {
		n = t.rows
	}
	if n < 0 {
		n = 0
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return t.SelectRows(rows)
}

// Clone returns a deep copy of the table's column slices.
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.clone()
	}
	out := MustTable(cols...)
	out.rows = t.rows
	return out
}

// String returns a short description of the table shape.
func (t *Table) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table(%d rows x %d columns", t.NumRows(), t.NumCols())
	for i, c := range t.columns {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", c.Name, c.Type)
	}
	b.WriteString(")")
	return b.String()
}

// LabeledTable pairs a table with the name of the source it came from.
type LabeledTable struct {
	Source string
	Table  *Table
}

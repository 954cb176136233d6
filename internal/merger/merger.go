// Package merger stacks cleaned source tables into one table and standardizes field formats.
package merger

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapclean/pkg/core"
)

// SourceColumn is the name of the column that records each row's source.
const SourceColumn = "data_source"

// Merger unions tables and applies standardization rules.
// A Merger holds no per-call state and is safe for concurrent use.
type Merger struct {
	cfg    core.MergeConfig
	logger *slog.Logger
}

// New creates a Merger. If logger is nil, a discard logger is used.
func New(cfg core.MergeConfig, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Merger{cfg: cfg, logger: logger}
}

// Merge stacks the tables in order and standardizes the result.
// The result's columns are the union of all input columns in first-seen order,
// and cells of columns a source lacks are missing. Rows are never joined or deduplicated.
func (m *Merger) Merge(tables []core.LabeledTable) (*core.Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("merge: %w", core.ErrEmptyInput)
	}
	for _, lt := range tables {
		if lt.Table == nil {
			return nil, fmt.Errorf("merge: source %q has no table", lt.Source)
		}
	}
	if m.cfg.AddSourceColumn {
		tables = AddSourceColumn(tables, m.logger)
	}

	if len(tables) == 1 {
		m.logger.Info("single data source, applying standardization", slog.String("source", tables[0].Source))
		return m.Standardize(tables[0].Table), nil
	}

	m.logger.Info("merging data sources", slog.Int("sources", len(tables)))
	merged, err := stack(tables, m.logger)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	m.logger.Info("merge complete", slog.Int("rows", merged.NumRows()), slog.Int("columns", merged.NumCols()))
	return m.Standardize(merged), nil
}

// stack concatenates tables vertically over the union of their columns.
func stack(tables []core.LabeledTable, log *slog.Logger) (*core.Table, error) {
	var names []string
	seen := make(map[string]bool)
	total := 0
	for _, lt := range tables {
		log.Info("processing source", slog.String("source", lt.Source), slog.Int("rows", lt.Table.NumRows()))
		total += lt.Table.NumRows()
		for _, name := range lt.Table.ColumnNames() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	cols := make([]core.Column, len(names))
	for i, name := range names {
		values := make([]any, 0, total)
		for _, lt := range tables {
			col, ok := lt.Table.Column(name)
			if !ok {
				values = append(values, make([]any, lt.Table.NumRows())...)
				continue
			}
			values = append(values, col.Values...)
		}
		cols[i] = core.Column{Name: name, Type: unionType(tables, name, values), Values: values}
	}
	return core.NewTable(cols...)
}

// unionType keeps a column's type when every source that has it agrees, and re-infers otherwise.
func unionType(tables []core.LabeledTable, name string, values []any) core.ColumnType {
	var typ core.ColumnType
	for _, lt := range tables {
		col, ok := lt.Table.Column(name)
		if !ok {
			continue
		}
		if typ == "" {
			typ = col.Type
		} else if typ != col.Type {
			return core.InferType(values)
		}
	}
	return typ
}

// AddSourceColumn returns copies of the tables with a data_source column naming each table's source.
func AddSourceColumn(tables []core.LabeledTable, logger *slog.Logger) []core.LabeledTable {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	out := make([]core.LabeledTable, len(tables))
	for i, lt := range tables {
		values := make([]any, lt.Table.NumRows())
		for r := range values {
			values[r] = lt.Source
		}
		tbl, err := lt.Table.WithColumn(core.Column{Name: SourceColumn, Type: core.TypeText, Values: values})
		if err != nil {
			// Same length by construction.
			panic(err)
		}
		out[i] = core.LabeledTable{Source: lt.Source, Table: tbl}
		logger.Debug("added source column", slog.String("source", lt.Source))
	}
	return out
}

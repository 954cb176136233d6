package cleaner

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapclean/internal/stats"
	"github.com/leapstack-labs/leapclean/pkg/core"
)

const stepMissing = "missing_values"

// handleMissingValues drops sparse columns, then fills or drops missing cells.
// Numeric columns are handled before non-numeric ones, each group in column order.
func (c *Cleaner) handleMissingValues(t *core.Table, sum *Summary, log *slog.Logger) *core.Table {
	mv := c.cfg.MissingValues

	out := c.dropSparseColumns(t, sum, log)

	var numeric, other []string
	for _, col := range out.Columns() {
		if col.Type == core.TypeNumeric {
			numeric = append(numeric, col.Name)
		} else {
			other = append(other, col.Name)
		}
	}

	for _, name := range numeric {
		col, _ := out.Column(name)
		missing := col.MissingCount()
		if missing == 0 {
			continue
		}
		switch mv.NumericStrategy {
		case core.NumericDrop:
			out = dropMissingRows(out, name, sum)
			log.Debug("dropped rows with missing values", slog.String("column", name), slog.Int("count", missing))
		case core.NumericZero:
			out = fillColumn(out, col, 0.0)
			sum.CellsFilled += missing
			log.Debug("filled missing values", slog.String("column", name), slog.Int("count", missing), slog.Float64("value", 0))
		case core.NumericMean, core.NumericMedian:
			var (
				fill float64
				err  error
			)
			if mv.NumericStrategy == core.NumericMean {
				fill, err = stats.Mean(col.Floats())
			} else {
				fill, err = stats.Median(col.Floats())
			}
			if err != nil {
				skip(sum, log, core.Skip{
					Column: name,
					Step:   stepMissing,
					Kind:   core.SkipColumnComputation,
					Reason: fmt.Sprintf("cannot compute %s: %v", mv.NumericStrategy, err),
				})
				continue
			}
			out = fillColumn(out, col, fill)
			sum.CellsFilled += missing
			log.Debug("filled missing values",
				slog.String("column", name),
				slog.Int("count", missing),
				slog.String("strategy", string(mv.NumericStrategy)),
				slog.String("value", fmt.Sprintf("%.2f", fill)),
			)
		}
	}

	for _, name := range other {
		col, _ := out.Column(name)
		missing := col.MissingCount()
		if missing == 0 {
			continue
		}
		switch mv.CategoricalStrategy {
		case core.CategoricalDrop:
			out = dropMissingRows(out, name, sum)
			log.Debug("dropped rows with missing values", slog.String("column", name), slog.Int("count", missing))
		case core.CategoricalUnknown:
			out = fillColumn(out, col, core.UnknownValue)
			sum.CellsFilled += missing
			log.Debug("filled missing values", slog.String("column", name), slog.Int("count", missing), slog.String("value", core.UnknownValue))
		case core.CategoricalMode:
			var fill any = core.UnknownValue
			if mode, err := stats.Mode(col.Values); err == nil {
				fill = mode.Value
			}
			out = fillColumn(out, col, fill)
			sum.CellsFilled += missing
			log.Debug("filled missing values",
				slog.String("column", name),
				slog.Int("count", missing),
				slog.String("value", core.Stringify(fill)),
			)
		}
	}

	log.Info("handled missing values", slog.Int("filled", sum.CellsFilled), slog.Int("rows_dropped", sum.RowsDroppedMissing))
	return out
}

// dropSparseColumns removes every column whose missing fraction exceeds the threshold.
// A table without rows has no defined fraction and keeps all columns.
func (c *Cleaner) dropSparseColumns(t *core.Table, sum *Summary, log *slog.Logger) *core.Table {
	if t.NumRows() == 0 {
		return t
	}
	threshold := c.cfg.MissingValues.Threshold
	var drop []string
	for _, col := range t.Columns() {
		frac := float64(col.MissingCount()) / float64(t.NumRows())
		if frac > threshold {
			drop = append(drop, col.Name)
		}
	}
	if len(drop) == 0 {
		return t
	}
	sum.ColumnsDropped = append(sum.ColumnsDropped, drop...)
	log.Warn("dropping columns with too many missing values",
		slog.String("threshold", fmt.Sprintf("%.0f%%", threshold*100)),
		slog.Any("columns", drop),
	)
	return t.DropColumns(drop...)
}

// fillColumn replaces every missing cell of col with value and re-infers the column type.
func fillColumn(t *core.Table, col core.Column, value any) *core.Table {
	values := make([]any, col.Len())
	for i, v := range col.Values {
		if core.IsMissing(v) {
			values[i] = value
		} else {
			values[i] = v
		}
	}
	out, err := t.WithColumn(core.NewColumn(col.Name, values))
	if err != nil {
		// Same length by construction.
		panic(err)
	}
	return out
}

// dropMissingRows removes the rows whose cell in the named column is missing.
func dropMissingRows(t *core.Table, name string, sum *Summary) *core.Table {
	col, _ := t.Column(name)
	out := t.FilterRows(func(row int) bool {
		return !core.IsMissing(col.Values[row])
	})
	sum.RowsDroppedMissing += t.NumRows() - out.NumRows()
	return out
}

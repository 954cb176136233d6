package cleaner

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/leapstack-labs/leapclean/internal/stats"
	"github.com/leapstack-labs/leapclean/pkg/core"
)

const stepOutliers = "outliers"

// FlagColumnSuffix is appended to a column name to form its outlier flag column.
const FlagColumnSuffix = "_outlier_flag"

// bounds is the closed interval of non-outlying values.
type bounds struct {
	lower, upper float64
}

// handleOutliers detects outliers in every numeric column and applies the configured action.
func (c *Cleaner) handleOutliers(t *core.Table, sum *Summary, log *slog.Logger) (*core.Table, error) {
	oc := c.cfg.Outliers
	out := t

	var numeric []string
	for _, col := range t.Columns() {
		if col.Type == core.TypeNumeric {
			numeric = append(numeric, col.Name)
		}
	}

	total := 0
	for _, name := range numeric {
		col, _ := out.Column(name)
		isOutlier, b, ok := c.detect(col, sum, log)
		if !ok {
			continue
		}
		count := 0
		for _, o := range isOutlier {
			if o {
				count++
			}
		}
		if count == 0 {
			continue
		}
		total += count

		switch oc.Action {
		case core.OutlierCap:
			values := make([]any, col.Len())
			for i, v := range col.Values {
				values[i] = v
				if !isOutlier[i] {
					continue
				}
				f, _ := core.AsFloat(v)
				values[i] = math.Min(math.Max(f, b.lower), b.upper)
			}
			var err error
			out, err = out.WithColumn(core.Column{Name: name, Type: core.TypeNumeric, Values: values})
			if err != nil {
				return nil, err
			}
			log.Debug("capped outliers",
				slog.String("column", name),
				slog.Int("count", count),
				slog.String("bounds", fmt.Sprintf("[%.2f, %.2f]", b.lower, b.upper)),
			)
		case core.OutlierRemove:
			before := out.NumRows()
			out = out.FilterRows(func(row int) bool { return !isOutlier[row] })
			sum.RowsDroppedOutlier += before - out.NumRows()
			log.Debug("removed outlier rows", slog.String("column", name), slog.Int("count", count))
		case core.OutlierFlag:
			flags := make([]any, len(isOutlier))
			for i, o := range isOutlier {
				flags[i] = o
			}
			var err error
			out, err = out.WithColumn(core.Column{Name: name + FlagColumnSuffix, Type: core.TypeBoolean, Values: flags})
			if err != nil {
				return nil, err
			}
			log.Debug("flagged outliers", slog.String("column", name), slog.Int("count", count))
		}
	}

	sum.OutliersHandled = total
	if total > 0 {
		log.Info("handled outliers",
			slog.Int("count", total),
			slog.String("method", string(oc.Method)),
			slog.String("action", string(oc.Action)),
		)
	} else {
		log.Info("no outliers detected")
	}
	return out, nil
}

// detect marks the outlying cells of col. Missing cells are never outliers.
// ok is false when the column's statistics are undefined and the step was skipped.
func (c *Cleaner) detect(col core.Column, sum *Summary, log *slog.Logger) (isOutlier []bool, b bounds, ok bool) {
	oc := c.cfg.Outliers
	xs := col.Floats()

	switch oc.Method {
	case core.OutlierIQR:
		q1, q3, err := stats.Quartiles(xs)
		if err != nil {
			skip(sum, log, core.Skip{Column: col.Name, Step: stepOutliers, Kind: core.SkipColumnComputation, Reason: "cannot compute quartiles: " + err.Error()})
			return nil, bounds{}, false
		}
		iqr := q3 - q1
		b = bounds{lower: q1 - oc.Threshold*iqr, upper: q3 + oc.Threshold*iqr}
		isOutlier = mark(col, func(v float64) bool { return v < b.lower || v > b.upper })
		return isOutlier, b, true

	case core.OutlierZScore:
		mean, err := stats.Mean(xs)
		if err != nil {
			skip(sum, log, core.Skip{Column: col.Name, Step: stepOutliers, Kind: core.SkipColumnComputation, Reason: "cannot compute mean: " + err.Error()})
			return nil, bounds{}, false
		}
		sd, err := stats.StdDev(xs)
		if err != nil {
			skip(sum, log, core.Skip{Column: col.Name, Step: stepOutliers, Kind: core.SkipColumnComputation, Reason: "cannot compute standard deviation: " + err.Error()})
			return nil, bounds{}, false
		}
		if sd == 0 || math.IsNaN(sd) {
			skip(sum, log, core.Skip{Column: col.Name, Step: stepOutliers, Kind: core.SkipColumnComputation, Reason: "zero standard deviation"})
			return nil, bounds{}, false
		}
		b = bounds{lower: mean - oc.Threshold*sd, upper: mean + oc.Threshold*sd}
		isOutlier = mark(col, func(v float64) bool { return math.Abs(v-mean)/sd > oc.Threshold })
		return isOutlier, b, true
	}
	return nil, bounds{}, false
}

func mark(col core.Column, outlying func(float64) bool) []bool {
	out := make([]bool, col.Len())
	for i, v := range col.Values {
		if core.IsMissing(v) {
			continue
		}
		if f, ok := core.AsFloat(v); ok && outlying(f) {
			out[i] = true
		}
	}
	return out
}

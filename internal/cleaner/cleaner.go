// Package cleaner applies per-source cleaning to raw tables.
//
// Cleaning runs four independently toggled stages in a fixed order:
// deduplication, missing-value handling, outlier handling and type coercion.
// Each stage returns a new table; the input table is never modified.
package cleaner

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapclean/pkg/core"
)

// Cleaner cleans tables according to a validated transform configuration.
// A Cleaner holds no per-call state and is safe for concurrent use.
type Cleaner struct {
	cfg    core.TransformConfig
	logger *slog.Logger
}

// New creates a Cleaner. The configuration is validated once here.
// If logger is nil, a discard logger is used.
func New(cfg core.TransformConfig, logger *slog.Logger) (*Cleaner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cleaner{cfg: cfg, logger: logger}, nil
}

// Conversion records a column whose type was changed by coercion.
type Conversion struct {
	Column string          `json:"column" yaml:"column"`
	From   core.ColumnType `json:"from" yaml:"from"`
	To     core.ColumnType `json:"to" yaml:"to"`
}

// Summary describes what one Clean call did.
type Summary struct {
	Source             string       `json:"source" yaml:"source"`
	RowsIn             int          `json:"rows_in" yaml:"rows_in"`
	RowsOut            int          `json:"rows_out" yaml:"rows_out"`
	DuplicatesRemoved  int          `json:"duplicates_removed" yaml:"duplicates_removed"`
	ColumnsDropped     []string     `json:"columns_dropped,omitempty" yaml:"columns_dropped,omitempty"`
	CellsFilled        int          `json:"cells_filled" yaml:"cells_filled"`
	RowsDroppedMissing int          `json:"rows_dropped_missing" yaml:"rows_dropped_missing"`
	OutliersHandled    int          `json:"outliers_handled" yaml:"outliers_handled"`
	RowsDroppedOutlier int          `json:"rows_dropped_outlier" yaml:"rows_dropped_outlier"`
	Conversions        []Conversion `json:"conversions,omitempty" yaml:"conversions,omitempty"`
	Skips              []core.Skip  `json:"skips,omitempty" yaml:"skips,omitempty"`
}

// RetainedPercent returns the share of input rows that survived cleaning.
func (s Summary) RetainedPercent() float64 {
	if s.RowsIn == 0 {
		return 100
	}
	return float64(s.RowsOut) / float64(s.RowsIn) * 100
}

// Clean applies the enabled cleaning stages to t.
func (c *Cleaner) Clean(t *core.Table, source string) (*core.Table, Summary, error) {
	if t == nil {
		return nil, Summary{}, errors.New("clean: nil table")
	}
	if source == "" {
		source = "unknown"
	}
	log := c.logger.With(slog.String("source", source))
	log.Info("starting data cleaning", slog.Int("rows", t.NumRows()), slog.Int("columns", t.NumCols()))

	sum := Summary{Source: source, RowsIn: t.NumRows()}
	checks := c.cfg.QualityChecks
	out := t

	if checks.RemoveDuplicates {
		out = c.removeDuplicates(out, &sum, log)
	}
	if checks.HandleMissingValues {
		out = c.handleMissingValues(out, &sum, log)
	}
	if checks.DetectOutliers {
		var err error
		out, err = c.handleOutliers(out, &sum, log)
		if err != nil {
			return nil, sum, fmt.Errorf("outlier handling for %s: %w", source, err)
		}
	}
	if checks.ValidateDataTypes && c.cfg.TypeConversions.AutoDetect {
		out = c.coerceTypes(out, &sum, log)
	}

	sum.RowsOut = out.NumRows()
	log.Info("cleaning complete",
		slog.Int("rows_in", sum.RowsIn),
		slog.Int("rows_out", sum.RowsOut),
		slog.Int("removed", sum.RowsIn-sum.RowsOut),
		slog.String("retained", fmt.Sprintf("%.1f%%", sum.RetainedPercent())),
	)
	return out, sum, nil
}

// skip records a recovered per-column condition and logs it at warn level.
func skip(sum *Summary, log *slog.Logger, s core.Skip) {
	sum.Skips = append(sum.Skips, s)
	log.Warn("step skipped",
		slog.String("column", s.Column),
		slog.String("step", s.Step),
		slog.String("kind", string(s.Kind)),
		slog.String("reason", s.Reason),
	)
}

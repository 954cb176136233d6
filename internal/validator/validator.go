// Package validator measures table quality and renders quality reports.
//
// Four dimensions are scored as percentages: completeness, uniqueness,
// validity and consistency. They combine into a weighted quality score.
package validator

import (
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/leapclean/internal/stats"
	"github.com/leapstack-labs/leapclean/pkg/core"
)

// Dimension weights of the aggregate quality score.
const (
	WeightCompleteness = 0.40
	WeightUniqueness   = 0.30
	WeightValidity     = 0.20
	WeightConsistency  = 0.10
)

// validityKeywords select the numeric columns that must not hold negative values.
var validityKeywords = []string{"price", "quantity", "amount"}

// earliestDate is the lower bound for plausible datetime values.
var earliestDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Validator computes quality reports. It holds no per-call state.
type Validator struct {
	cfg    core.ReportingConfig
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock sets the clock used for report timestamps and future-date checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// New creates a Validator. If logger is nil, a discard logger is used.
func New(cfg core.ReportingConfig, logger *slog.Logger, opts ...Option) *Validator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	v := &Validator{cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate measures t and returns its quality report.
func (v *Validator) Validate(t *core.Table, source string) *core.QualityReport {
	if source == "" {
		source = "unknown"
	}
	log := v.logger.With(slog.String("source", source))
	log.Info("starting data validation")

	now := v.now()
	r := &core.QualityReport{
		Source:       source,
		GeneratedAt:  now,
		Shape:        core.Shape{Rows: t.NumRows(), Columns: t.NumCols()},
		Completeness: Completeness(t),
		Uniqueness:   Uniqueness(t),
		Validity:     Validity(t, now),
		Consistency:  Consistency(t),
	}
	r.QualityScore = QualityScore(r.Completeness.Score, r.Uniqueness.Score, r.Validity.Score, r.Consistency.Score)
	r.Status = Status(r.QualityScore)

	log.Info("validation complete",
		slog.Float64("quality_score", r.QualityScore),
		slog.String("status", string(r.Status)),
	)
	return r
}

// QualityScore combines the four dimension percentages into one score rounded to one decimal.
func QualityScore(completeness, uniqueness, validity, consistency float64) float64 {
	score := completeness*WeightCompleteness +
		uniqueness*WeightUniqueness +
		validity*WeightValidity +
		consistency*WeightConsistency
	return stats.Round(score, 1)
}

// Status labels a quality score.
func Status(score float64) core.QualityStatus {
	switch {
	case score >= 90:
		return core.StatusExcellent
	case score >= 75:
		return core.StatusGood
	case score >= 60:
		return core.StatusFair
	default:
		return core.StatusPoor
	}
}

// Completeness measures the share of non-missing cells.
// A table without cells is complete.
func Completeness(t *core.Table) core.CompletenessMetrics {
	m := core.CompletenessMetrics{TotalCells: t.NumRows() * t.NumCols()}
	for _, col := range t.Columns() {
		n := col.MissingCount()
		if n == 0 {
			continue
		}
		m.MissingCells += n
		m.MissingByColumn = append(m.MissingByColumn, core.ColumnCount{Column: col.Name, Count: n})
	}
	if m.TotalCells == 0 {
		m.Score = 100
		return m
	}
	m.Score = stats.Round(float64(m.TotalCells-m.MissingCells)/float64(m.TotalCells)*100, 2)
	return m
}

// Uniqueness measures the share of rows that are not repeats of an earlier row.
func Uniqueness(t *core.Table) core.UniquenessMetrics {
	seen := make(map[string]struct{}, t.NumRows())
	dups := 0
	for i := 0; i < t.NumRows(); i++ {
		key := core.RowKey(t.Row(i))
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	m := core.UniquenessMetrics{
		TotalRows:     t.NumRows(),
		DuplicateRows: dups,
		UniqueRows:    t.NumRows() - dups,
		Score:         100,
	}
	if t.NumRows() > 0 {
		m.Score = stats.Round(float64(m.UniqueRows)/float64(m.TotalRows)*100, 2)
	}
	return m
}

// Validity checks value ranges: no negative prices, quantities or amounts,
// and no datetimes after now or before 1900-01-01.
func Validity(t *core.Table, now time.Time) core.ValidityMetrics {
	var m core.ValidityMetrics
	for _, col := range t.Columns() {
		switch col.Type {
		case core.TypeNumeric:
			if !hasValidityKeyword(col.Name) {
				continue
			}
			negative := 0
			for _, f := range col.Floats() {
				if f < 0 {
					negative++
				}
			}
			if negative > 0 {
				m.Issues = append(m.Issues, core.ValidityIssue{Column: col.Name, Rule: core.RuleNegativeValue, Count: negative})
			}
		case core.TypeDatetime:
			future, ancient := 0, 0
			for _, v := range col.Values {
				ts, ok := v.(time.Time)
				if !ok {
					continue
				}
				if ts.After(now) {
					future++
				}
				if ts.Before(earliestDate) {
					ancient++
				}
			}
			if future > 0 {
				m.Issues = append(m.Issues, core.ValidityIssue{Column: col.Name, Rule: core.RuleFutureDate, Count: future})
			}
			if ancient > 0 {
				m.Issues = append(m.Issues, core.ValidityIssue{Column: col.Name, Rule: core.RuleAncientDate, Count: ancient})
			}
		}
	}
	m.Score = issueScore(len(m.Issues), t.NumCols())
	return m
}

// Consistency flags text columns whose values mix uppercase, lowercase and title case.
func Consistency(t *core.Table) core.ConsistencyMetrics {
	var m core.ConsistencyMetrics
	for _, col := range t.Columns() {
		if col.Type != core.TypeText && col.Type != core.TypeMixed {
			continue
		}
		patterns := casePatterns(col.NonMissing())
		if len(patterns) > 1 {
			m.Issues = append(m.Issues, core.ConsistencyIssue{Column: col.Name, Patterns: patterns})
		}
	}
	m.Score = issueScore(len(m.Issues), t.NumCols())
	return m
}

// issueScore is 100 minus the issue share of columns, floored at 0.
func issueScore(issues, columns int) float64 {
	if columns == 0 {
		return 100
	}
	score := 100 - float64(issues)/float64(columns)*100
	if score < 0 {
		score = 0
	}
	return stats.Round(score, 2)
}

func hasValidityKeyword(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range validityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

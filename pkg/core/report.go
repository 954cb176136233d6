package core

import (
	"fmt"
	"time"
)

// =============================================================================
// Quality report
// =============================================================================

// QualityStatus is the label attached to an aggregate quality score.
type QualityStatus string

// Quality status labels, from best to worst.
const (
	StatusExcellent QualityStatus = "EXCELLENT"
	StatusGood      QualityStatus = "GOOD"
	StatusFair      QualityStatus = "FAIR"
	StatusPoor      QualityStatus = "POOR"
)

// Shape is a table's dimensions.
type Shape struct {
	Rows    int `json:"rows" yaml:"rows"`
	Columns int `json:"columns" yaml:"columns"`
}

// ColumnCount pairs a column name with a count.
type ColumnCount struct {
	Column string `json:"column" yaml:"column"`
	Count  int    `json:"count" yaml:"count"`
}

// CompletenessMetrics measures how many cells hold a value.
type CompletenessMetrics struct {
	Score           float64       `json:"score" yaml:"score"`
	TotalCells      int           `json:"total_cells" yaml:"total_cells"`
	MissingCells    int           `json:"missing_cells" yaml:"missing_cells"`
	MissingByColumn []ColumnCount `json:"missing_by_column,omitempty" yaml:"missing_by_column,omitempty"`
}

// UniquenessMetrics measures how many rows are distinct.
type UniquenessMetrics struct {
	Score         float64 `json:"score" yaml:"score"`
	TotalRows     int     `json:"total_rows" yaml:"total_rows"`
	DuplicateRows int     `json:"duplicate_rows" yaml:"duplicate_rows"`
	UniqueRows    int     `json:"unique_rows" yaml:"unique_rows"`
}

// ValidityRule names a validity check.
type ValidityRule string

// Validity rules.
const (
	RuleNegativeValue ValidityRule = "negative_values"
	RuleFutureDate    ValidityRule = "future_dates"
	RuleAncientDate   ValidityRule = "dates_before_1900"
)

// ValidityIssue is one violated (column, rule) pair.
type ValidityIssue struct {
	Column string       `json:"column" yaml:"column"`
	Rule   ValidityRule `json:"rule" yaml:"rule"`
	Count  int          `json:"count" yaml:"count"`
}

func (i ValidityIssue) String() string {
	switch i.Rule {
	case RuleNegativeValue:
		return fmt.Sprintf("%s: %d negative values", i.Column, i.Count)
	case RuleFutureDate:
		return fmt.Sprintf("%s: %d future dates", i.Column, i.Count)
	case RuleAncientDate:
		return fmt.Sprintf("%s: %d dates before 1900", i.Column, i.Count)
	}
	return fmt.Sprintf("%s: %d %s", i.Column, i.Count, i.Rule)
}

// ValidityMetrics measures rule violations.
type ValidityMetrics struct {
	Score  float64         `json:"score" yaml:"score"`
	Issues []ValidityIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// CasePattern names a letter-case pattern observed in text values.
type CasePattern string

// Case patterns.
const (
	CaseUpper CasePattern = "uppercase"
	CaseLower CasePattern = "lowercase"
	CaseTitle CasePattern = "title"
)

// ConsistencyIssue is a text column that mixes case patterns.
type ConsistencyIssue struct {
	Column   string        `json:"column" yaml:"column"`
	Patterns []CasePattern `json:"patterns" yaml:"patterns"`
}

func (i ConsistencyIssue) String() string {
	return fmt.Sprintf("%s: inconsistent case formatting", i.Column)
}

// ConsistencyMetrics measures formatting consistency.
type ConsistencyMetrics struct {
	Score  float64            `json:"score" yaml:"score"`
	Issues []ConsistencyIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// QualityReport is the outcome of validating one table.
// It is built once and not modified afterwards.
type QualityReport struct {
	Source       string              `json:"source" yaml:"source"`
	GeneratedAt  time.Time           `json:"generated_at" yaml:"generated_at"`
	Shape        Shape               `json:"shape" yaml:"shape"`
	Completeness CompletenessMetrics `json:"completeness" yaml:"completeness"`
	Uniqueness   UniquenessMetrics   `json:"uniqueness" yaml:"uniqueness"`
	Validity     ValidityMetrics     `json:"validity" yaml:"validity"`
	Consistency  ConsistencyMetrics  `json:"consistency" yaml:"consistency"`
	QualityScore float64             `json:"quality_score" yaml:"quality_score"`
	Status       QualityStatus       `json:"status" yaml:"status"`
}

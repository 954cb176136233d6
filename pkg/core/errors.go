package core

import (
	"errors"
	"fmt"
)

// =============================================================================
// Errors
// =============================================================================

// ErrEmptyInput is returned when an operation that needs at least one table gets none.
var ErrEmptyInput = errors.New("no input tables")

// ConfigurationError reports an invalid or contradictory configuration value.
type ConfigurationError struct {
	Key    string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("invalid configuration %s=%v: %s", e.Key, e.Value, e.Reason)
}

// IsConfigurationError reports whether err wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// =============================================================================
// Skips
// =============================================================================

// SkipKind classifies a recoverable per-column failure.
type SkipKind string

// Skip kinds.
const (
	// SkipColumnComputation means a statistic could not be computed for a column.
	SkipColumnComputation SkipKind = "column_computation"
	// SkipConversion means a type conversion was attempted and rejected.
	SkipConversion SkipKind = "conversion"
	// SkipSource means an input source could not be extracted.
	SkipSource SkipKind = "source"
)

// Skip records a step that was skipped for one column (or source) without failing the run.
type Skip struct {
	Column string   `json:"column" yaml:"column"`
	Step   string   `json:"step" yaml:"step"`
	Kind   SkipKind `json:"kind" yaml:"kind"`
	Reason string   `json:"reason" yaml:"reason"`
}

func (s Skip) String() string {
	return fmt.Sprintf("%s skipped for %s (%s): %s", s.Step, s.Column, s.Kind, s.Reason)
}

// Package core defines the shared language of the LeapClean system.
//
// This package contains:
//   - The tabular data model (Table, Column, ColumnType, Missing cells)
//   - Value helpers (missing detection, numeric coercion, row keys, type inference)
//   - Transform configuration types and their validation (TransformConfig)
//   - The error taxonomy (ConfigurationError, ErrEmptyInput, Skip)
//   - Quality report types (QualityReport and its metric blocks)
//   - Service interfaces and records (Store, Run, AdapterConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib and leaf utility libraries.
// All other packages depend on core, not the reverse.
package core

package core

import "strings"

// =============================================================================
// Strategy enums
// =============================================================================

// NumericStrategy selects how missing cells in numeric columns are handled.
type NumericStrategy string

// Numeric strategies.
const (
	NumericMean   NumericStrategy = "mean"
	NumericMedian NumericStrategy = "median"
	NumericZero   NumericStrategy = "zero"
	NumericDrop   NumericStrategy = "drop"
)

// CategoricalStrategy selects how missing cells in non-numeric columns are handled.
type CategoricalStrategy string

// Categorical strategies.
const (
	CategoricalMode    CategoricalStrategy = "mode"
	CategoricalUnknown CategoricalStrategy = "unknown"
	CategoricalDrop    CategoricalStrategy = "drop"
)

// UnknownValue is the fill value used by the unknown strategy and the mode fallback.
const UnknownValue = "Unknown"

// OutlierMethod selects how outliers are detected.
type OutlierMethod string

// Outlier methods.
const (
	OutlierIQR    OutlierMethod = "iqr"
	OutlierZScore OutlierMethod = "zscore"
)

// OutlierAction selects what happens to detected outliers.
type OutlierAction string

// Outlier actions.
const (
	OutlierCap    OutlierAction = "cap"
	OutlierRemove OutlierAction = "remove"
	OutlierFlag   OutlierAction = "flag"
)

// =============================================================================
// Transform configuration
// =============================================================================

// QualityChecks toggles the cleaning stages.
type QualityChecks struct {
	RemoveDuplicates    bool `koanf:"remove_duplicates" yaml:"remove_duplicates"`
	HandleMissingValues bool `koanf:"handle_missing_values" yaml:"handle_missing_values"`
	DetectOutliers      bool `koanf:"detect_outliers" yaml:"detect_outliers"`
	ValidateDataTypes   bool `koanf:"validate_data_types" yaml:"validate_data_types"`
}

// MissingValuesConfig configures missing-value handling.
type MissingValuesConfig struct {
	NumericStrategy     NumericStrategy     `koanf:"numeric_strategy" yaml:"numeric_strategy"`
	CategoricalStrategy CategoricalStrategy `koanf:"categorical_strategy" yaml:"categorical_strategy"`
	// Threshold is the missing fraction above which a column is dropped.
	Threshold float64 `koanf:"threshold" yaml:"threshold"`
}

// OutliersConfig configures outlier handling.
type OutliersConfig struct {
	Method    OutlierMethod `koanf:"method" yaml:"method"`
	Threshold float64       `koanf:"threshold" yaml:"threshold"`
	Action    OutlierAction `koanf:"action" yaml:"action"`
}

// TypeConversionsConfig configures type coercion.
type TypeConversionsConfig struct {
	AutoDetect bool `koanf:"auto_detect" yaml:"auto_detect"`
}

// MergeConfig configures the merge step.
type MergeConfig struct {
	AddSourceColumn bool `koanf:"add_source_column" yaml:"add_source_column"`
}

// ReportingConfig configures quality report rendering.
type ReportingConfig struct {
	Enabled           bool   `koanf:"enabled" yaml:"enabled"`
	OutputPath        string `koanf:"output_path" yaml:"output_path"`
	IncludeStatistics bool   `koanf:"include_statistics" yaml:"include_statistics"`
	IncludeSamples    bool   `koanf:"include_samples" yaml:"include_samples"`
	SampleSize        int    `koanf:"sample_size" yaml:"sample_size"`
}

// TransformConfig holds every option recognized by the transform stage.
// It is read-only once validated.
type TransformConfig struct {
	QualityChecks   QualityChecks         `koanf:"quality_checks" yaml:"quality_checks"`
	MissingValues   MissingValuesConfig   `koanf:"missing_values" yaml:"missing_values"`
	Outliers        OutliersConfig        `koanf:"outliers" yaml:"outliers"`
	TypeConversions TypeConversionsConfig `koanf:"type_conversions" yaml:"type_conversions"`
	Merge           MergeConfig           `koanf:"merge" yaml:"merge"`
	Reporting       ReportingConfig       `koanf:"reporting" yaml:"reporting"`
}

// Default transform values.
const (
	DefaultMissingThreshold = 0.5
	DefaultOutlierThreshold = 1.5
	DefaultReportPath       = "reports/data_quality_report.txt"
	DefaultSampleSize       = 5
)

// DefaultTransformConfig returns the configuration used when nothing is set.
func DefaultTransformConfig() TransformConfig {
	return TransformConfig{
		QualityChecks: QualityChecks{
			RemoveDuplicates:    true,
			HandleMissingValues: true,
			DetectOutliers:      true,
			ValidateDataTypes:   true,
		},
		MissingValues: MissingValuesConfig{
			NumericStrategy:     NumericMean,
			CategoricalStrategy: CategoricalMode,
			Threshold:           DefaultMissingThreshold,
		},
		Outliers: OutliersConfig{
			Method:    OutlierIQR,
			Threshold: DefaultOutlierThreshold,
			Action:    OutlierCap,
		},
		TypeConversions: TypeConversionsConfig{AutoDetect: true},
		Reporting: ReportingConfig{
			Enabled:           true,
			OutputPath:        DefaultReportPath,
			IncludeStatistics: true,
			IncludeSamples:    true,
			SampleSize:        DefaultSampleSize,
		},
	}
}

// Validate checks every enumerated value and range.
// It returns a *ConfigurationError for the first offending key.
func (c *TransformConfig) Validate() error {
	switch c.MissingValues.NumericStrategy {
	case NumericMean, NumericMedian, NumericZero, NumericDrop:
	default:
		return &ConfigurationError{
			Key:    "missing_values.numeric_strategy",
			Value:  c.MissingValues.NumericStrategy,
			Reason: "must be one of " + joinValues(NumericMean, NumericMedian, NumericZero, NumericDrop),
		}
	}
	switch c.MissingValues.CategoricalStrategy {
	case CategoricalMode, CategoricalUnknown, CategoricalDrop:
	default:
		return &ConfigurationError{
			Key:    "missing_values.categorical_strategy",
			Value:  c.MissingValues.CategoricalStrategy,
			Reason: "must be one of " + joinValues(CategoricalMode, CategoricalUnknown, CategoricalDrop),
		}
	}
	if c.MissingValues.Threshold < 0 || c.MissingValues.Threshold > 1 {
		return &ConfigurationError{
			Key:    "missing_values.threshold",
			Value:  c.MissingValues.Threshold,
			Reason: "must be between 0 and 1",
		}
	}
	switch c.Outliers.Method {
	case OutlierIQR, OutlierZScore:
	default:
		return &ConfigurationError{
			Key:    "outliers.method",
			Value:  c.Outliers.Method,
			Reason: "must be one of " + joinValues(OutlierIQR, OutlierZScore),
		}
	}
	switch c.Outliers.Action {
	case OutlierCap, OutlierRemove, OutlierFlag:
	default:
		return &ConfigurationError{
			Key:    "outliers.action",
			Value:  c.Outliers.Action,
			Reason: "must be one of " + joinValues(OutlierCap, OutlierRemove, OutlierFlag),
		}
	}
	if c.Outliers.Threshold <= 0 {
		return &ConfigurationError{
			Key:    "outliers.threshold",
			Value:  c.Outliers.Threshold,
			Reason: "must be greater than 0",
		}
	}
	if c.Outliers.Method == OutlierZScore && c.Outliers.Action == OutlierCap {
		return &ConfigurationError{
			Key:    "outliers.action",
			Value:  c.Outliers.Action,
			Reason: "cap has no defined bounds for the zscore method, use remove or flag",
		}
	}
	if c.Reporting.SampleSize < 0 {
		return &ConfigurationError{
			Key:    "reporting.sample_size",
			Value:  c.Reporting.SampleSize,
			Reason: "must not be negative",
		}
	}
	return nil
}

func joinValues[T ~string](values ...T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

package config

import "github.com/leapstack-labs/leapclean/pkg/core"

// Default configuration values.
const (
	DefaultPipelineName    = "data_pipeline"
	DefaultPipelineVersion = "1.0"
	DefaultEnvironment     = "development"
	DefaultStatePath       = ".leapclean/state.db"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultOutput          = OutputAuto
	DefaultWriteMode       = "replace"
	DefaultObjectFormat    = "csv"
)

// Default returns a Config holding every default value and no sources or destinations.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Name:        DefaultPipelineName,
			Version:     DefaultPipelineVersion,
			Environment: DefaultEnvironment,
		},
		Transform: core.DefaultTransformConfig(),
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		StatePath: DefaultStatePath,
		Output:    DefaultOutput,
	}
}

// defaultValues flattens Default into koanf keys.
func defaultValues() map[string]any {
	d := Default()
	t := d.Transform
	return map[string]any{
		"pipeline.name":        d.Pipeline.Name,
		"pipeline.version":     d.Pipeline.Version,
		"pipeline.environment": d.Pipeline.Environment,

		"transform.quality_checks.remove_duplicates":     t.QualityChecks.RemoveDuplicates,
		"transform.quality_checks.handle_missing_values": t.QualityChecks.HandleMissingValues,
		"transform.quality_checks.validate_data_types":   t.QualityChecks.ValidateDataTypes,
		"transform.quality_checks.detect_outliers":       t.QualityChecks.DetectOutliers,

		"transform.missing_values.numeric_strategy":     string(t.MissingValues.NumericStrategy),
		"transform.missing_values.categorical_strategy": string(t.MissingValues.CategoricalStrategy),
		"transform.missing_values.threshold":            t.MissingValues.Threshold,

		"transform.outliers.method":    string(t.Outliers.Method),
		"transform.outliers.threshold": t.Outliers.Threshold,
		"transform.outliers.action":    string(t.Outliers.Action),

		"transform.type_conversions.auto_detect": t.TypeConversions.AutoDetect,

		"transform.merge.add_source_column": t.Merge.AddSourceColumn,

		"transform.reporting.enabled":            t.Reporting.Enabled,
		"transform.reporting.output_path":        t.Reporting.OutputPath,
		"transform.reporting.include_statistics": t.Reporting.IncludeStatistics,
		"transform.reporting.include_samples":    t.Reporting.IncludeSamples,
		"transform.reporting.sample_size":        t.Reporting.SampleSize,

		"logging.level":  d.Logging.Level,
		"logging.format": d.Logging.Format,
		"state_path":     d.StatePath,
		"verbose":        false,
		"output":         d.Output,
	}
}

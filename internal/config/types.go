// Package config loads and validates leapclean pipeline configuration.
//
// Configuration is layered with koanf: built-in defaults, then the YAML file,
// then LEAPCLEAN_* environment variables, then explicitly set CLI flags.
package config

import (
	"github.com/leapstack-labs/leapclean/pkg/core"
)

// Config holds the complete pipeline configuration.
type Config struct {
	Pipeline     PipelineConfig               `koanf:"pipeline" yaml:"pipeline"`
	Sources      map[string]SourceConfig      `koanf:"sources" yaml:"sources"`
	Transform    core.TransformConfig         `koanf:"transform" yaml:"transform"`
	Destinations map[string]DestinationConfig `koanf:"destinations" yaml:"destinations"`
	Logging      LoggingConfig                `koanf:"logging" yaml:"logging"`
	StatePath    string                       `koanf:"state_path" yaml:"state_path"`
	Verbose      bool                         `koanf:"verbose" yaml:"verbose"`
	Output       string                       `koanf:"output" yaml:"output"`

	// ConfigFile is the file that was loaded, empty when none was found.
	ConfigFile string `koanf:"-" yaml:"-"`
	// ProjectRoot anchors relative paths: the config file's directory, else the working directory.
	ProjectRoot string `koanf:"-" yaml:"-"`
}

// PipelineConfig identifies the pipeline in logs and run history.
type PipelineConfig struct {
	Name        string `koanf:"name" yaml:"name"`
	Version     string `koanf:"version" yaml:"version"`
	Environment string `koanf:"environment" yaml:"environment"`
}

// Source types.
const (
	SourceCSV      = "csv"
	SourceJSON     = "json"
	SourceExcel    = "excel"
	SourceDatabase = "database"
)

// SourceTypes lists the recognized source types.
var SourceTypes = []string{SourceCSV, SourceJSON, SourceExcel, SourceDatabase}

// SourceConfig describes one extraction source.
type SourceConfig struct {
	Type    string `koanf:"type" yaml:"type"`
	Enabled *bool  `koanf:"enabled" yaml:"enabled,omitempty"`
	// Path is the file to read for csv, json and excel sources.
	Path string `koanf:"path" yaml:"path,omitempty"`
	// Query is the SQL executed for database sources.
	Query string `koanf:"query" yaml:"query,omitempty"`
	// Sheet selects the worksheet of an excel source; the first sheet when empty.
	Sheet string `koanf:"sheet" yaml:"sheet,omitempty"`
	// Options holds reader-specific settings such as delimiter or na_values.
	Options map[string]any `koanf:"options" yaml:"options,omitempty"`
	// Target is the database connection of a database source.
	Target *core.AdapterConfig `koanf:"target" yaml:"target,omitempty"`
}

// IsEnabled reports whether the source takes part in runs. Sources are enabled unless disabled explicitly.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Destination types.
const (
	DestinationCSV      = "csv"
	DestinationJSON     = "json"
	DestinationDatabase = "database"
	DestinationS3       = "s3"
)

// DestinationTypes lists the recognized destination types.
var DestinationTypes = []string{DestinationCSV, DestinationJSON, DestinationDatabase, DestinationS3}

// DestinationConfig describes one load destination.
type DestinationConfig struct {
	Type    string `koanf:"type" yaml:"type"`
	Enabled *bool  `koanf:"enabled" yaml:"enabled,omitempty"`
	// Path is the file written by csv and json destinations.
	Path string `koanf:"path" yaml:"path,omitempty"`
	// Table and Mode configure database destinations. Mode is replace or append.
	Table  string              `koanf:"table" yaml:"table,omitempty"`
	Mode   string              `koanf:"mode" yaml:"mode,omitempty"`
	Target *core.AdapterConfig `koanf:"target" yaml:"target,omitempty"`
	// Object storage settings of s3 destinations.
	Bucket          string `koanf:"bucket" yaml:"bucket,omitempty"`
	Prefix          string `koanf:"prefix" yaml:"prefix,omitempty"`
	Format          string `koanf:"format" yaml:"format,omitempty"`
	Endpoint        string `koanf:"endpoint" yaml:"endpoint,omitempty"`
	Region          string `koanf:"region" yaml:"region,omitempty"`
	AccessKeyID     string `koanf:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `koanf:"secret_access_key" yaml:"-"`
	UseSSL          *bool  `koanf:"use_ssl" yaml:"use_ssl,omitempty"`
	// Options holds writer-specific settings such as indent for json.
	Options map[string]any `koanf:"options" yaml:"options,omitempty"`
}

// IsEnabled reports whether the destination takes part in runs.
func (d DestinationConfig) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `koanf:"level" yaml:"level"`   // debug, info, warn, error
	Format string `koanf:"format" yaml:"format"` // text, json
}

// Output modes of the CLI.
const (
	OutputAuto = "auto"
	OutputText = "text"
	OutputJSON = "json"
)

package pipeline

import (
	"time"

	"github.com/leapstack-labs/leapclean/internal/cleaner"
	"github.com/leapstack-labs/leapclean/pkg/core"
)

// SourceResult describes the extraction and cleaning of one source.
type SourceResult struct {
	Name          string           `json:"name" yaml:"name"`
	Type          string           `json:"type" yaml:"type"`
	RowsExtracted int              `json:"rows_extracted" yaml:"rows_extracted"`
	RowsCleaned   int              `json:"rows_cleaned" yaml:"rows_cleaned"`
	Cleaning      *cleaner.Summary `json:"cleaning,omitempty" yaml:"cleaning,omitempty"`
	Error         string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// DestinationResult describes the load into one destination.
type DestinationResult struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	Rows     int    `json:"rows" yaml:"rows"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result is the outcome of one pipeline run.
type Result struct {
	RunID        string              `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Pipeline     string              `json:"pipeline" yaml:"pipeline"`
	Environment  string              `json:"environment" yaml:"environment"`
	Status       core.RunStatus      `json:"status" yaml:"status"`
	Counts       core.RunCounts      `json:"counts" yaml:"counts"`
	Sources      []SourceResult      `json:"sources" yaml:"sources"`
	Destinations []DestinationResult `json:"destinations,omitempty" yaml:"destinations,omitempty"`
	Skips        []core.Skip         `json:"skips,omitempty" yaml:"skips,omitempty"`
	Shape        core.Shape          `json:"shape" yaml:"shape"`
	Report       *core.QualityReport `json:"report,omitempty" yaml:"report,omitempty"`
	ReportPath   string              `json:"report_path,omitempty" yaml:"report_path,omitempty"`
	StartedAt    time.Time           `json:"started_at" yaml:"started_at"`
	Duration     time.Duration       `json:"duration" yaml:"duration"`
	Error        string              `json:"error,omitempty" yaml:"error,omitempty"`

	// Output is the merged, standardized table.
	Output *core.Table `json:"-" yaml:"-"`
}

// FailedSources returns the names of sources that could not be extracted.
func (r *Result) FailedSources() []string {
	var names []string
	for _, s := range r.Sources {
		if s.Error != "" {
			names = append(names, s.Name)
		}
	}
	return names
}

// FailedDestinations returns the names of destinations that could not be loaded.
func (r *Result) FailedDestinations() []string {
	var names []string
	for _, d := range r.Destinations {
		if d.Error != "" {
			names = append(names, d.Name)
		}
	}
	return names
}

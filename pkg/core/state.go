package core

import "time"

// Store defines the interface for run history and report persistence.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Run operations
	CreateRun(pipeline, env string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, counts RunCounts, errMsg string) error
	GetLatestRun(pipeline string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	// Report operations
	SaveReport(runID string, report *QualityReport) (*StoredReport, error)
	ReportsForRun(runID string) ([]*StoredReport, error)
}

// RunStatus represents the status of a pipeline run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunCounts holds the per-step record counts of a run.
type RunCounts struct {
	Extracted   int `json:"extracted" yaml:"extracted"`
	Cleaned     int `json:"cleaned" yaml:"cleaned"`
	Transformed int `json:"transformed" yaml:"transformed"`
	Loaded      int `json:"loaded" yaml:"loaded"`
}

// Run represents a pipeline execution session.
type Run struct {
	ID          string     `json:"id" yaml:"id"`
	Pipeline    string     `json:"pipeline" yaml:"pipeline"`
	Environment string     `json:"environment" yaml:"environment"`
	Status      RunStatus  `json:"status" yaml:"status"`
	Counts      RunCounts  `json:"counts" yaml:"counts"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Duration returns how long the run took, or zero while it is still running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// StoredReport is a persisted quality report summary.
type StoredReport struct {
	ID           string        `json:"id" yaml:"id"`
	RunID        string        `json:"run_id" yaml:"run_id"`
	Source       string        `json:"source" yaml:"source"`
	QualityScore float64       `json:"quality_score" yaml:"quality_score"`
	Status       QualityStatus `json:"status" yaml:"status"`
	Rows         int           `json:"rows" yaml:"rows"`
	Columns      int           `json:"columns" yaml:"columns"`
	Payload      []byte        `json:"-" yaml:"-"`
	CreatedAt    time.Time     `json:"created_at" yaml:"created_at"`
}

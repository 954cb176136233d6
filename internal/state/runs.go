package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapclean/pkg/core"
)

const runColumns = `id, pipeline, environment, status,
	records_extracted, records_cleaned, records_transformed, records_loaded,
	started_at, completed_at, error`

// CreateRun creates a new pipeline run in the running state.
func (s *SQLiteStore) CreateRun(pipeline, env string) (*core.Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	run := &core.Run{
		ID:          generateID(),
		Pipeline:    pipeline,
		Environment: env,
		Status:      core.RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("pipeline", pipeline), slog.String("environment", env))

	_, err := s.db.ExecContext(ctx(),
		`INSERT INTO runs (id, pipeline, environment, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Pipeline, run.Environment, string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	run, err := scanRun(s.db.QueryRowContext(ctx(), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status and record counts.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, counts core.RunCounts, errMsg string) error {
	if s.db == nil {
		return ErrNotOpened
	}

	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.ExecContext(ctx(),
		`UPDATE runs SET status = ?, records_extracted = ?, records_cleaned = ?,
			records_transformed = ?, records_loaded = ?, completed_at = ?, error = ?
		WHERE id = ?`,
		string(status), counts.Extracted, counts.Cleaned, counts.Transformed, counts.Loaded,
		formatTime(time.Now()), errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetLatestRun retrieves the most recent run of a pipeline.
// Returns nil without error when the pipeline has no runs.
func (s *SQLiteStore) GetLatestRun(pipeline string) (*core.Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	run, err := scanRun(s.db.QueryRowContext(ctx(),
		`SELECT `+runColumns+` FROM runs WHERE pipeline = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		pipeline,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs, newest first, up to limit.
// A non-positive limit returns every run.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*core.Run, error) {
	var (
		run         core.Run
		status      string
		startedAt   string
		completedAt sql.NullString
		errMsg      sql.NullString
	)
	if err := row.Scan(
		&run.ID, &run.Pipeline, &run.Environment, &status,
		&run.Counts.Extracted, &run.Counts.Cleaned, &run.Counts.Transformed, &run.Counts.Loaded,
		&startedAt, &completedAt, &errMsg,
	); err != nil {
		return nil, err
	}

	run.Status = core.RunStatus(status)
	ts, err := parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	run.StartedAt = ts
	if completedAt.Valid {
		ts, err := parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid completed_at %q: %w", completedAt.String, err)
		}
		run.CompletedAt = &ts
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return &run, nil
}

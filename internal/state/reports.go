package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapclean/pkg/core"
)

// SaveReport stores a quality report for a run. The full report is kept as JSON payload.
func (s *SQLiteStore) SaveReport(runID string, report *core.QualityReport) (*core.StoredReport, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	stored := &core.StoredReport{
		ID:           generateID(),
		RunID:        runID,
		Source:       report.Source,
		QualityScore: report.QualityScore,
		Status:       report.Status,
		Rows:         report.Shape.Rows,
		Columns:      report.Shape.Columns,
		Payload:      payload,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx(),
		`INSERT INTO quality_reports
			(id, run_id, source, quality_score, status, row_count, column_count, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.RunID, stored.Source, stored.QualityScore, string(stored.Status),
		stored.Rows, stored.Columns, string(payload), formatTime(stored.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	s.logger.Debug("saved quality report",
		slog.String("run_id", runID),
		slog.String("source", stored.Source),
		slog.Float64("quality_score", stored.QualityScore),
	)
	return stored, nil
}

// ReportsForRun returns the reports of a run in the order they were saved.
func (s *SQLiteStore) ReportsForRun(runID string) ([]*core.StoredReport, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT id, run_id, source, quality_score, status, row_count, column_count, payload, created_at
		FROM quality_reports WHERE run_id = ? ORDER BY created_at, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []*core.StoredReport
	for rows.Next() {
		var (
			r         core.StoredReport
			status    string
			payload   string
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.Source, &r.QualityScore, &status,
			&r.Rows, &r.Columns, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		r.Status = core.QualityStatus(status)
		r.Payload = []byte(payload)
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
		}
		reports = append(reports, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// DecodeReport restores the full quality report from a stored payload.
func DecodeReport(r *core.StoredReport) (*core.QualityReport, error) {
	var report core.QualityReport
	if err := json.Unmarshal(r.Payload, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", r.ID, err)
	}
	return &report, nil
}

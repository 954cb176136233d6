package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/leapclean/internal/testutil"
	"github.com/leapstack-labs/leapclean/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"), "failed to open store")
	require.NoError(t, store.InitSchema(), "failed to init schema")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleReport(source string, score float64) *core.QualityReport {
	return &core.QualityReport{
		Source:       source,
		GeneratedAt:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Shape:        core.Shape{Rows: 10, Columns: 3},
		Completeness: core.CompletenessMetrics{Score: 90, TotalCells: 30, MissingCells: 3},
		Uniqueness:   core.UniquenessMetrics{Score: 100},
		Validity:     core.ValidityMetrics{Score: 100},
		Consistency:  core.ConsistencyMetrics{Score: 100},
		QualityScore: score,
		Status:       core.StatusExcellent,
	}
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	assert.NoError(t, store.Close())

	// Closing a store that was never opened is a no-op
	assert.NoError(t, NewSQLiteStore(nil).Close())
}

func TestSQLiteStore_InitSchema(t *testing.T) {
	store := setupTestStore(t)

	for _, table := range []string{"runs", "quality_reports"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s does not exist", table)
		_ = rows.Close()
	}

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Migrating again is a no-op
	assert.NoError(t, store.InitSchema())
}

func TestSQLiteStore_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".leapclean", "state.db")

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.InitSchema())
	run, err := store.CreateRun("sales_etl", "production")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path))
	defer func() { _ = reopened.Close() }()
	require.NoError(t, reopened.InitSchema())

	got, err := reopened.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "sales_etl", got.Pipeline)
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)

	_, err := store.CreateRun("p", "dev")
	assert.ErrorIs(t, err, ErrNotOpened)
	_, err = store.GetRun("x")
	assert.ErrorIs(t, err, ErrNotOpened)
	assert.ErrorIs(t, store.CompleteRun("x", core.RunStatusCompleted, core.RunCounts{}, ""), ErrNotOpened)
	_, err = store.ListRuns(10)
	assert.ErrorIs(t, err, ErrNotOpened)
	_, err = store.SaveReport("x", sampleReport("s", 1))
	assert.ErrorIs(t, err, ErrNotOpened)
	assert.ErrorIs(t, store.InitSchema(), ErrNotOpened)
}

// --- Run lifecycle tests ---

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	tests := []struct {
		name   string
		status core.RunStatus
		counts core.RunCounts
		errMsg string
	}{
		{
			name:   "completed",
			status: core.RunStatusCompleted,
			counts: core.RunCounts{Extracted: 120, Cleaned: 110, Transformed: 110, Loaded: 220},
		},
		{
			name:   "failed",
			status: core.RunStatusFailed,
			counts: core.RunCounts{Extracted: 5},
			errMsg: "merge: no input tables",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)

			run, err := store.CreateRun("sales_etl", "production")
			require.NoError(t, err)
			assert.NotEmpty(t, run.ID)
			assert.Equal(t, core.RunStatusRunning, run.Status)
			assert.Nil(t, run.CompletedAt)

			got, err := store.GetRun(run.ID)
			require.NoError(t, err)
			assert.Equal(t, core.RunStatusRunning, got.Status)
			assert.True(t, run.StartedAt.Equal(got.StartedAt))
			assert.Zero(t, got.Duration())

			require.NoError(t, store.CompleteRun(run.ID, tt.status, tt.counts, tt.errMsg))

			got, err = store.GetRun(run.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.counts, got.Counts)
			assert.Equal(t, tt.errMsg, got.Error)
			require.NotNil(t, got.CompletedAt)
			assert.False(t, got.CompletedAt.Before(got.StartedAt))
			assert.GreaterOrEqual(t, got.Duration(), time.Duration(0))
		})
	}
}

func TestSQLiteStore_RunNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRun("nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")

	err = store.CompleteRun("nonexistent", core.RunStatusCompleted, core.RunCounts{}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")

	latest, err := store.GetLatestRun("nothing")
	assert.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := store.CreateRun("sales_etl", "dev")
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}
	other, err := store.CreateRun("inventory", "dev")
	require.NoError(t, err)

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, other.ID, runs[0].ID, "newest first")
	assert.Equal(t, ids[2], runs[1].ID)

	all, err := store.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	latest, err := store.GetLatestRun("sales_etl")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, ids[2], latest.ID)
}

// --- Report tests ---

func TestSQLiteStore_Reports(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.CreateRun("sales_etl", "dev")
	require.NoError(t, err)

	first, err := store.SaveReport(run.ID, sampleReport("merged", 96.5))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	_, err = store.SaveReport(run.ID, sampleReport("orders", 80))
	require.NoError(t, err)

	reports, err := store.ReportsForRun(run.ID)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, first.ID, reports[0].ID)
	assert.Equal(t, "merged", reports[0].Source)
	assert.Equal(t, 96.5, reports[0].QualityScore)
	assert.Equal(t, core.StatusExcellent, reports[0].Status)
	assert.Equal(t, 10, reports[0].Rows)
	assert.Equal(t, 3, reports[0].Columns)

	decoded, err := DecodeReport(reports[0])
	require.NoError(t, err)
	assert.Equal(t, sampleReport("merged", 96.5), decoded)

	empty, err := store.ReportsForRun("other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteStore_ReportRequiresRun(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.SaveReport("missing-run", sampleReport("merged", 50))
	assert.Error(t, err, "foreign key should reject reports without a run")
}

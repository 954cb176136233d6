package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/leapclean/internal/config"
	"github.com/leapstack-labs/leapclean/internal/sink"
	"github.com/leapstack-labs/leapclean/internal/source"
	"github.com/leapstack-labs/leapclean/internal/state"
	"github.com/leapstack-labs/leapclean/internal/testutil"
	"github.com/leapstack-labs/leapclean/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersCSV = `order_id,customer_name,price,quantity,status
1001,alice smith,$10.00,2,shipped
1001,alice smith,$10.00,2,shipped
1002,bob jones,$5.50,-1,pending
`

const ordersJSON = `[{"order_id": 2001, "customer_name": "CAROL KING", "price": 20, "quantity": 1, "status": "delivered"}]`

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// testConfig builds a two-source, two-destination configuration rooted in a temp dir.
func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Pipeline.Name = "sales_etl"
	cfg.Transform.Reporting.OutputPath = filepath.Join(dir, "reports", "quality.txt")
	cfg.Sources = map[string]config.SourceConfig{
		"web":    {Type: config.SourceCSV, Path: writeFile(t, dir, "orders.csv", ordersCSV)},
		"mobile": {Type: config.SourceJSON, Path: writeFile(t, dir, "orders.json", ordersJSON)},
	}
	cfg.Destinations = map[string]config.DestinationConfig{
		"csv_out":  {Type: config.DestinationCSV, Path: filepath.Join(dir, "out", "clean.csv")},
		"json_out": {Type: config.DestinationJSON, Path: filepath.Join(dir, "out", "clean.json")},
	}
	return cfg, dir
}

func setupStore(t *testing.T) *state.SQLiteStore {
	t.Helper()
	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newPipeline(t *testing.T, cfg *config.Config, store core.Store, dryRun bool) *Pipeline {
	t.Helper()
	p, err := New(Config{
		Pipeline: cfg,
		Store:    store,
		Logger:   testutil.NewTestLogger(t),
		DryRun:   dryRun,
		Now:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return p
}

func TestPipeline_Run(t *testing.T) {
	cfg, _ := testConfig(t)
	store := setupStore(t)
	p := newPipeline(t, cfg, store, false)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, core.RunStatusCompleted, res.Status)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "sales_etl", res.Pipeline)
	assert.Equal(t, core.RunCounts{Extracted: 4, Cleaned: 3, Transformed: 3, Loaded: 6}, res.Counts)
	assert.Equal(t, 3, res.Shape.Rows)
	assert.Empty(t, res.FailedSources())
	assert.Empty(t, res.FailedDestinations())

	// Sources and destinations are reported in name order
	require.Len(t, res.Sources, 2)
	assert.Equal(t, "mobile", res.Sources[0].Name)
	assert.Equal(t, "web", res.Sources[1].Name)
	assert.Equal(t, 3, res.Sources[1].RowsExtracted)
	require.NotNil(t, res.Sources[1].Cleaning)
	assert.Equal(t, 1, res.Sources[1].Cleaning.DuplicatesRemoved)

	require.Len(t, res.Destinations, 2)
	for _, d := range res.Destinations {
		assert.Equal(t, 3, d.Rows, d.Name)
		assert.FileExists(t, d.Location)
	}
	csvOut, err := os.ReadFile(cfg.Destinations["csv_out"].Path)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(csvOut), "\n"))

	require.NotNil(t, res.Report)
	assert.Equal(t, OutputSource, res.Report.Source)
	assert.Equal(t, fixedNow, res.Report.GeneratedAt)
	assert.Equal(t, cfg.Transform.Reporting.OutputPath, res.ReportPath)
	assert.FileExists(t, res.ReportPath)

	run, err := store.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
	assert.Equal(t, res.Counts, run.Counts)
	assert.Empty(t, run.Error)
	require.NotNil(t, run.CompletedAt)

	reports, err := store.ReportsForRun(res.RunID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	decoded, err := state.DecodeReport(reports[0])
	require.NoError(t, err)
	assert.Equal(t, res.Report.QualityScore, decoded.QualityScore)
}

func TestPipeline_FailedSourceIsSkipped(t *testing.T) {
	cfg, dir := testConfig(t)
	cfg.Sources["archive"] = config.SourceConfig{Type: config.SourceCSV, Path: filepath.Join(dir, "missing.csv")}
	store := setupStore(t)

	res, err := newPipeline(t, cfg, store, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, core.RunStatusCompleted, res.Status)
	assert.Equal(t, []string{"archive"}, res.FailedSources())
	assert.Equal(t, 3, res.Counts.Transformed)

	var sourceSkips []core.Skip
	for _, s := range res.Skips {
		if s.Kind == core.SkipSource {
			sourceSkips = append(sourceSkips, s)
		}
	}
	require.Len(t, sourceSkips, 1)
	assert.Equal(t, "archive", sourceSkips[0].Column)
	assert.Equal(t, "extract", sourceSkips[0].Step)
}

func TestPipeline_AllSourcesFail(t *testing.T) {
	cfg, dir := testConfig(t)
	cfg.Sources = map[string]config.SourceConfig{
		"a": {Type: config.SourceCSV, Path: filepath.Join(dir, "nope.csv")},
		"b": {Type: config.SourceJSON, Path: filepath.Join(dir, "nope.json")},
	}
	store := setupStore(t)

	res, err := newPipeline(t, cfg, store, false).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrEmptyInput))
	require.NotNil(t, res)
	assert.Equal(t, core.RunStatusFailed, res.Status)
	assert.ElementsMatch(t, []string{"a", "b"}, res.FailedSources())
	assert.Empty(t, res.Destinations)

	run, err := store.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "no data to transform")

	_, err = os.Stat(cfg.Destinations["csv_out"].Path)
	assert.True(t, os.IsNotExist(err))
}

func TestPipeline_FailedDestinationIsRecorded(t *testing.T) {
	cfg, dir := testConfig(t)
	blocker := writeFile(t, dir, "blocker", "not a directory")
	cfg.Destinations["broken"] = config.DestinationConfig{Type: config.DestinationCSV, Path: filepath.Join(blocker, "out.csv")}
	store := setupStore(t)

	res, err := newPipeline(t, cfg, store, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, core.RunStatusCompleted, res.Status)
	assert.Equal(t, []string{"broken"}, res.FailedDestinations())
	assert.Equal(t, 6, res.Counts.Loaded)

	run, err := store.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
	assert.Equal(t, "1 destination(s) failed: broken", run.Error)
}

func TestPipeline_DryRun(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.Destinations = nil
	store := setupStore(t)

	res, err := newPipeline(t, cfg, store, true).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, core.RunStatusCompleted, res.Status)
	assert.Empty(t, res.RunID)
	assert.Empty(t, res.Destinations)
	assert.Zero(t, res.Counts.Loaded)
	require.NotNil(t, res.Report)

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestPipeline_ReportingDisabled(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.Transform.Reporting.Enabled = false

	res, err := newPipeline(t, cfg, nil, false).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.ReportPath)
	assert.NotNil(t, res.Report)
	assert.NoFileExists(t, cfg.Transform.Reporting.OutputPath)
}

func TestPipeline_Cancelled(t *testing.T) {
	cfg, _ := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline(t, cfg, nil, false).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	cfg, _ := testConfig(t)
	cfg.Destinations = nil
	_, err = New(Config{Pipeline: cfg})
	require.Error(t, err)
	assert.True(t, core.IsConfigurationError(err))

	// Dry runs need no destination
	_, err = New(Config{Pipeline: cfg, DryRun: true})
	assert.NoError(t, err)

	cfg.Sources = nil
	_, err = New(Config{Pipeline: cfg, DryRun: true})
	assert.True(t, core.IsConfigurationError(err))
}

type stubReader struct {
	table *core.Table
	err   error
}

func (r stubReader) Read(context.Context) (*core.Table, error) { return r.table, r.err }

type stubWriter struct{ err error }

func (w stubWriter) Write(_ context.Context, t *core.Table) (sink.Result, error) {
	if w.err != nil {
		return sink.Result{}, w.err
	}
	return sink.Result{Location: "stub", Rows: t.NumRows()}, nil
}

func TestPipeline_MergesInSourceOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Transform.Reporting.Enabled = false
	cfg.Transform.Merge.AddSourceColumn = true
	cfg.Sources = map[string]config.SourceConfig{
		"c": {Type: config.SourceCSV, Path: "c.csv"},
		"a": {Type: config.SourceCSV, Path: "a.csv"},
		"b": {Type: config.SourceCSV, Path: "b.csv"},
	}
	cfg.Destinations = map[string]config.DestinationConfig{
		"out":  {Type: config.DestinationCSV, Path: "out.csv"},
		"fail": {Type: config.DestinationCSV, Path: "fail.csv"},
	}

	p, err := New(Config{Pipeline: cfg, Logger: slog.New(slog.DiscardHandler), Concurrency: 1})
	require.NoError(t, err)
	p.openSource = func(name string, _ config.SourceConfig, _ *slog.Logger) (source.Reader, error) {
		return stubReader{table: core.MustTable(core.NewColumn("name", []any{name}))}, nil
	}
	p.openSink = func(name string, _ config.DestinationConfig, _ *slog.Logger) (sink.Writer, error) {
		if name == "fail" {
			return stubWriter{err: errors.New("disk full")}, nil
		}
		return stubWriter{}, nil
	}

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Counts.Transformed)
	assert.Equal(t, 3, res.Counts.Loaded)
	require.Len(t, res.Destinations, 2)
	assert.Equal(t, "disk full", res.Destinations[0].Error)
	assert.Equal(t, "stub", res.Destinations[1].Location)

	var got []string
	for _, s := range res.Sources {
		got = append(got, s.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

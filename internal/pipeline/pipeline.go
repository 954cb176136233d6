// Package pipeline orchestrates a leapclean run.
//
// A run extracts every enabled source and cleans it (sources run concurrently),
// merges the cleaned tables once all are done, standardizes and validates the
// merged table, writes the quality report and loads the result into every
// enabled destination. Runs and reports are recorded in the state store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/leapclean/internal/cleaner"
	"github.com/leapstack-labs/leapclean/internal/config"
	"github.com/leapstack-labs/leapclean/internal/merger"
	"github.com/leapstack-labs/leapclean/internal/sink"
	"github.com/leapstack-labs/leapclean/internal/source"
	"github.com/leapstack-labs/leapclean/internal/validator"
	"github.com/leapstack-labs/leapclean/pkg/core"
	"golang.org/x/sync/errgroup"
)

// OutputSource labels the merged table in reports.
const OutputSource = "pipeline_output"

// Config holds pipeline configuration.
type Config struct {
	// Pipeline is the loaded, validated configuration.
	Pipeline *config.Config
	// Store records runs and reports. Runs are not recorded when nil.
	Store core.Store
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
	// Concurrency bounds how many sources are extracted at once; 0 means no limit.
	Concurrency int
	// DryRun stops after validation: nothing is loaded and the run is not recorded.
	DryRun bool
	// Now is the validator clock (optional, defaults to time.Now).
	Now func() time.Time
}

// Pipeline runs the configured sources through cleaning, merging and validation.
type Pipeline struct {
	cfg         *config.Config
	store       core.Store
	logger      *slog.Logger
	concurrency int
	dryRun      bool

	cleaner   *cleaner.Cleaner
	merger    *merger.Merger
	validator *validator.Validator

	openSource func(name string, cfg config.SourceConfig, logger *slog.Logger) (source.Reader, error)
	openSink   func(name string, cfg config.DestinationConfig, logger *slog.Logger) (sink.Writer, error)
}

// New creates a pipeline. The configuration must have at least one enabled
// source and, unless DryRun is set, at least one enabled destination.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("pipeline configuration is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if len(cfg.Pipeline.EnabledSources()) == 0 {
		return nil, &core.ConfigurationError{Key: "sources", Reason: "at least one enabled source is required"}
	}
	if !cfg.DryRun {
		if err := cfg.Pipeline.RequireRunnable(); err != nil {
			return nil, err
		}
	}

	cl, err := cleaner.New(cfg.Pipeline.Transform, logger)
	if err != nil {
		return nil, err
	}
	var vopts []validator.Option
	if cfg.Now != nil {
		vopts = append(vopts, validator.WithClock(cfg.Now))
	}

	return &Pipeline{
		cfg:         cfg.Pipeline,
		store:       cfg.Store,
		logger:      logger,
		concurrency: cfg.Concurrency,
		dryRun:      cfg.DryRun,
		cleaner:     cl,
		merger:      merger.New(cfg.Pipeline.Transform.Merge, logger),
		validator:   validator.New(cfg.Pipeline.Transform.Reporting, logger, vopts...),
		openSource:  source.Open,
		openSink:    sink.Open,
	}, nil
}

// Run executes the pipeline once.
// On a fatal error the partial result is returned together with the error
// and the run is recorded as failed.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		Pipeline:    p.cfg.Pipeline.Name,
		Environment: p.cfg.Pipeline.Environment,
		Status:      core.RunStatusRunning,
		StartedAt:   time.Now(),
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record := p.store != nil && !p.dryRun
	if record {
		run, err := p.store.CreateRun(res.Pipeline, res.Environment)
		if err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		res.RunID = run.ID
	}

	log := p.logger.With(slog.String("pipeline", res.Pipeline))
	if res.RunID != "" {
		log = log.With(slog.String("run_id", res.RunID))
	}
	log.Info("pipeline started", slog.String("environment", res.Environment), slog.Bool("dry_run", p.dryRun))

	runErr := p.execute(ctx, res, log)
	res.Duration = time.Since(res.StartedAt)

	var errMsg string
	if runErr != nil {
		res.Status = core.RunStatusFailed
		if errors.Is(runErr, context.Canceled) {
			res.Status = core.RunStatusCancelled
		}
		res.Error = runErr.Error()
		errMsg = res.Error
		log.Error("pipeline failed", slog.String("error", errMsg), slog.Duration("duration", res.Duration))
	} else {
		res.Status = core.RunStatusCompleted
		if failed := res.FailedDestinations(); len(failed) > 0 {
			errMsg = fmt.Sprintf("%d destination(s) failed: %s", len(failed), strings.Join(failed, ", "))
		}
		log.Info("pipeline completed",
			slog.Int("records", res.Counts.Transformed),
			slog.Duration("duration", res.Duration),
		)
	}

	if record {
		if err := p.store.CompleteRun(res.RunID, res.Status, res.Counts, errMsg); err != nil {
			log.Warn("failed to record run completion", slog.String("error", err.Error()))
		}
	}
	return res, runErr
}

func (p *Pipeline) execute(ctx context.Context, res *Result, log *slog.Logger) error {
	// Extract and clean
	done := p.step(log, "extract")
	tables, err := p.extract(ctx, res)
	done(res.Counts.Extracted)
	if err != nil {
		return err
	}

	// Merge, standardize, validate
	done = p.step(log, "transform")
	merged, err := p.merger.Merge(tables)
	if err != nil {
		return err
	}
	res.Output = merged
	res.Counts.Transformed = merged.NumRows()
	res.Shape = core.Shape{Rows: merged.NumRows(), Columns: merged.NumCols()}

	report := p.validator.Validate(merged, OutputSource)
	res.Report = report
	log.Info("data quality score",
		slog.Float64("quality_score", report.QualityScore),
		slog.String("status", string(report.Status)),
	)
	if res.ReportPath, err = p.validator.SaveReport(report, merged); err != nil {
		return err
	}
	if p.store != nil && !p.dryRun {
		if _, err := p.store.SaveReport(res.RunID, report); err != nil {
			log.Warn("failed to record quality report", slog.String("error", err.Error()))
		}
	}
	done(res.Counts.Transformed)

	if p.dryRun {
		log.Info("dry run, skipping load")
		return nil
	}

	// Load
	done = p.step(log, "load")
	p.load(ctx, res, merged)
	done(res.Counts.Loaded)
	return nil
}

// extract reads and cleans every enabled source concurrently.
// A source that cannot be read is logged and skipped; the run fails only if
// no source produced a table. Results keep source name order.
func (p *Pipeline) extract(ctx context.Context, res *Result) ([]core.LabeledTable, error) {
	names := p.cfg.EnabledSources()
	p.logger.Info("extracting sources", slog.Int("count", len(names)), slog.Any("sources", names))

	results := make([]SourceResult, len(names))
	tables := make([]*core.Table, len(names))

	g, gctx := errgroup.WithContext(ctx)
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for i, name := range names {
		g.Go(func() error {
			src := p.cfg.Sources[name]
			results[i] = SourceResult{Name: name, Type: src.Type}
			log := p.logger.With(slog.String("source", name))

			raw, err := p.readSource(gctx, name, src, log)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Error("failed to extract source", slog.String("error", err.Error()))
				results[i].Error = err.Error()
				return nil
			}
			results[i].RowsExtracted = raw.NumRows()

			cleaned, sum, err := p.cleaner.Clean(raw, name)
			if err != nil {
				return fmt.Errorf("failed to clean source %s: %w", name, err)
			}
			results[i].RowsCleaned = cleaned.NumRows()
			results[i].Cleaning = &sum
			tables[i] = cleaned
			return nil
		})
	}
	err := g.Wait()

	res.Sources = results
	var labeled []core.LabeledTable
	for i, r := range results {
		res.Counts.Extracted += r.RowsExtracted
		res.Counts.Cleaned += r.RowsCleaned
		if r.Error != "" {
			res.Skips = append(res.Skips, core.Skip{
				Column: r.Name,
				Step:   "extract",
				Kind:   core.SkipSource,
				Reason: r.Error,
			})
		}
		if r.Cleaning != nil {
			res.Skips = append(res.Skips, r.Cleaning.Skips...)
		}
		if tables[i] != nil {
			labeled = append(labeled, core.LabeledTable{Source: r.Name, Table: tables[i]})
		}
	}
	if err != nil {
		return nil, err
	}
	if len(labeled) == 0 {
		return nil, fmt.Errorf("no data to transform, all %d source(s) failed: %w", len(names), core.ErrEmptyInput)
	}
	return labeled, nil
}

func (p *Pipeline) readSource(ctx context.Context, name string, cfg config.SourceConfig, log *slog.Logger) (*core.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := p.openSource(name, cfg, log)
	if err != nil {
		return nil, err
	}
	return r.Read(ctx)
}

// load writes the final table to every enabled destination concurrently.
// Failures are recorded per destination and never abort the run.
func (p *Pipeline) load(ctx context.Context, res *Result, t *core.Table) {
	names := p.cfg.EnabledDestinations()
	p.logger.Info("loading destinations", slog.Int("count", len(names)), slog.Any("destinations", names))

	results := make([]DestinationResult, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			dst := p.cfg.Destinations[name]
			results[i] = DestinationResult{Name: name, Type: dst.Type}
			log := p.logger.With(slog.String("destination", name))

			w, err := p.openSink(name, dst, log)
			if err == nil {
				var out sink.Result
				out, err = w.Write(ctx, t)
				results[i].Location = out.Location
				results[i].Rows = out.Rows
			}
			if err != nil {
				log.Error("failed to load destination", slog.String("error", err.Error()))
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	res.Destinations = results
	for _, r := range results {
		res.Counts.Loaded += r.Rows
	}
}

// step logs the start of a pipeline step and returns a func that logs its end.
func (p *Pipeline) step(log *slog.Logger, name string) func(records int) {
	start := time.Now()
	log.Info("step started", slog.String("step", name))
	return func(records int) {
		log.Info("step completed",
			slog.String("step", name),
			slog.Int("records", records),
			slog.Duration("duration", time.Since(start)),
		)
	}
}

package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapclean/internal/config"
	"github.com/leapstack-labs/leapclean/pkg/adapter"
	"github.com/leapstack-labs/leapclean/pkg/core"
)

type databaseWriter struct {
	table  string
	mode   adapter.WriteMode
	target core.AdapterConfig
	logger *slog.Logger

	// open connects an adapter for the target. Tests replace it.
	open func(ctx context.Context, cfg core.AdapterConfig, logger *slog.Logger) (adapter.Adapter, error)
}

func newDatabaseWriter(name string, cfg config.DestinationConfig, logger *slog.Logger) (Writer, error) {
	if cfg.Target == nil {
		return nil, &core.ConfigurationError{Key: "destinations." + name + ".target", Reason: "is required for database destinations"}
	}
	mode := adapter.WriteMode(cfg.Mode)
	if mode == "" {
		mode = adapter.WriteReplace
	}
	return &databaseWriter{
		table:  cfg.Table,
		mode:   mode,
		target: *cfg.Target,
		logger: logger,
		open:   adapter.Open,
	}, nil
}

func (w *databaseWriter) Write(ctx context.Context, t *core.Table) (Result, error) {
	w.logger.Info("loading data to database",
		slog.String("adapter", w.target.Type),
		slog.String("table", w.table),
		slog.String("mode", string(w.mode)),
	)

	db, err := w.open(ctx, w.target, w.logger)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = db.Close() }()

	n, err := adapter.WriteTable(ctx, db, t, w.table, w.mode)
	if err != nil {
		return Result{}, fmt.Errorf("failed to write table %s: %w", w.table, err)
	}
	w.logger.Info("database load successful", slog.Int("rows", n), slog.String("table", w.table))
	return Result{Location: w.target.Type + ":" + w.table, Rows: n}, nil
}

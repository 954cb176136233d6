package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapclean/internal/config"
	"github.com/leapstack-labs/leapclean/pkg/adapter"
	"github.com/leapstack-labs/leapclean/pkg/core"
)

type databaseReader struct {
	query  string
	target core.AdapterConfig
	logger *slog.Logger
}

func newDatabaseReader(name string, cfg config.SourceConfig, logger *slog.Logger) (Reader, error) {
	if cfg.Target == nil {
		return nil, &core.ConfigurationError{Key: "sources." + name + ".target", Reason: "is required for database sources"}
	}
	return &databaseReader{query: cfg.Query, target: *cfg.Target, logger: logger}, nil
}

// Read connects, runs the source query and disconnects.
func (r *databaseReader) Read(ctx context.Context) (*core.Table, error) {
	r.logger.Info("starting database extraction", slog.String("adapter", r.target.Type))

	db, err := adapter.Open(ctx, r.target, r.logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	t, err := adapter.ReadTable(ctx, db, r.query)
	if err != nil {
		return nil, fmt.Errorf("source query failed: %w", err)
	}
	r.logger.Info("database extraction successful", slog.Int("rows", t.NumRows()), slog.Int("columns", t.NumCols()))
	return t, nil
}

package sink

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/leapclean/internal/config"
	"github.com/leapstack-labs/leapclean/pkg/core"
)

type csvOptions struct {
	Delimiter string `mapstructure:"delimiter"`
}

type jsonOptions struct {
	// Lines writes one record per line instead of a single array.
	Lines  bool `mapstructure:"lines"`
	Indent int  `mapstructure:"indent"`
}

// fileWriter writes a table to a local file, creating parent directories.
type fileWriter struct {
	path   string
	kind   string
	encode func(w *bufio.Writer, t *core.Table) error
	logger *slog.Logger
}

func newCSVWriter(name string, cfg config.DestinationConfig, logger *slog.Logger) (Writer, error) {
	opts := csvOptions{Delimiter: ","}
	if err := decodeOptions(name, cfg.Options, &opts); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(opts.Delimiter) != 1 {
		return nil, &core.ConfigurationError{
			Key:    "destinations." + name + ".options.delimiter",
			Value:  opts.Delimiter,
			Reason: "must be a single character",
		}
	}
	comma, _ := utf8.DecodeRuneInString(opts.Delimiter)
	return &fileWriter{
		path: cfg.Path,
		kind: "csv",
		encode: func(w *bufio.Writer, t *core.Table) error {
			return encodeCSV(w, t, comma)
		},
		logger: logger,
	}, nil
}

func newJSONWriter(name string, cfg config.DestinationConfig, logger *slog.Logger) (Writer, error) {
	opts := jsonOptions{Indent: 2}
	if err := decodeOptions(name, cfg.Options, &opts); err != nil {
		return nil, err
	}
	indent := strings.Repeat(" ", max(opts.Indent, 0))
	return &fileWriter{
		path: cfg.Path,
		kind: "json",
		encode: func(w *bufio.Writer, t *core.Table) error {
			return encodeJSON(w, t, opts.Lines, indent)
		},
		logger: logger,
	}, nil
}

func (w *fileWriter) Write(_ context.Context, t *core.Table) (Result, error) {
	w.logger.Info("loading data to "+w.kind, slog.String("path", w.path))

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(w.path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create %s: %w", w.path, err)
	}

	bw := bufio.NewWriter(f)
	if err := w.encode(bw, t); err != nil {
		_ = f.Close()
		return Result{}, fmt.Errorf("failed to write %s: %w", w.path, err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return Result{}, fmt.Errorf("failed to write %s: %w", w.path, err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close %s: %w", w.path, err)
	}

	w.logger.Info(w.kind+" export successful",
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", t.NumCols()),
		slog.String("path", w.path),
	)
	return Result{Location: w.path, Rows: t.NumRows()}, nil
}

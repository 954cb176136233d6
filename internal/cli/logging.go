package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapclean/internal/config"
)

// NewLogger builds the process logger writing to w.
// verbose forces debug level regardless of the configured level.
func NewLogger(w io.Writer, cfg config.LoggingConfig, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

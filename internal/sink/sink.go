// Package sink writes the final table to the configured destinations.
package sink

import (
	"context"
	"log/slog"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapclean/internal/config"
	"github.com/leapstack-labs/leapclean/pkg/core"
)

// Result describes one completed write.
type Result struct {
	// Location is the file path, table name or object URL that was written.
	Location string `json:"location" yaml:"location"`
	Rows     int    `json:"rows" yaml:"rows"`
}

// Writer stores one table.
type Writer interface {
	Write(ctx context.Context, t *core.Table) (Result, error)
}

// Factory builds a Writer for a named destination.
type Factory func(name string, cfg config.DestinationConfig, logger *slog.Logger) (Writer, error)

var registry = map[string]Factory{
	config.DestinationCSV:      newCSVWriter,
	config.DestinationJSON:     newJSONWriter,
	config.DestinationDatabase: newDatabaseWriter,
	config.DestinationS3:       newS3Writer,
}

// Open returns the Writer for cfg.Type.
// A nil logger uses a discard logger.
func Open(name string, cfg config.DestinationConfig, logger *slog.Logger) (Writer, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	factory, ok := registry[cfg.Type]
	if !ok {
		return nil, &core.ConfigurationError{
			Key:    "destinations." + name + ".type",
			Value:  cfg.Type,
			Reason: "unknown destination type",
		}
	}
	return factory(name, cfg, logger.With(slog.String("destination", name)))
}

// Write opens the named destination and writes t to it.
func Write(ctx context.Context, name string, cfg config.DestinationConfig, t *core.Table, logger *slog.Logger) (Result, error) {
	w, err := Open(name, cfg, logger)
	if err != nil {
		return Result{}, err
	}
	return w.Write(ctx, t)
}

// decodeOptions decodes a destination's free-form options into out, rejecting unknown keys.
func decodeOptions(name string, options map[string]any, out any) error {
	if len(options) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(options); err != nil {
		return &core.ConfigurationError{
			Key:    "destinations." + name + ".options",
			Reason: err.Error(),
		}
	}
	return nil
}

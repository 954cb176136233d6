// Package source reads raw tables from the configured extraction sources.
//
// Each source type (csv, json, excel, database) has a Reader constructor
// registered under its config type name; Open picks the right one.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapclean/internal/config"
	"github.com/leapstack-labs/leapclean/pkg/core"
)

// Reader produces one raw table.
type Reader interface {
	Read(ctx context.Context) (*core.Table, error)
}

// Factory builds a Reader for a named source.
type Factory func(name string, cfg config.SourceConfig, logger *slog.Logger) (Reader, error)

var registry = map[string]Factory{
	config.SourceCSV:      newCSVReader,
	config.SourceJSON:     newJSONReader,
	config.SourceExcel:    newExcelReader,
	config.SourceDatabase: newDatabaseReader,
}

// Open returns the Reader for cfg.Type.
// A nil logger uses a discard logger.
func Open(name string, cfg config.SourceConfig, logger *slog.Logger) (Reader, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	factory, ok := registry[cfg.Type]
	if !ok {
		return nil, &core.ConfigurationError{
			Key:    "sources." + name + ".type",
			Value:  cfg.Type,
			Reason: "unknown source type",
		}
	}
	return factory(name, cfg, logger.With(slog.String("source", name)))
}

// Read opens the named source and reads its table.
func Read(ctx context.Context, name string, cfg config.SourceConfig, logger *slog.Logger) (*core.Table, error) {
	r, err := Open(name, cfg, logger)
	if err != nil {
		return nil, err
	}
	return r.Read(ctx)
}

// decodeOptions decodes a source's free-form options into out, rejecting unknown keys.
func decodeOptions(name string, options map[string]any, out any) error {
	if len(options) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(options); err != nil {
		return &core.ConfigurationError{
			Key:    "sources." + name + ".options",
			Reason: err.Error(),
		}
	}
	return nil
}

// defaultNAValues are the text tokens read as Missing when no na_values option is set.
var defaultNAValues = []string{"", "NA", "N/A", "n/a", "NaN", "nan", "NULL", "null", "None", "#N/A", "<NA>"}

// naSet builds the lookup of tokens read as Missing.
// Explicit tokens extend the defaults.
func naSet(extra []string) map[string]bool {
	set := make(map[string]bool, len(defaultNAValues)+len(extra))
	for _, v := range defaultNAValues {
		set[v] = true
	}
	for _, v := range extra {
		set[v] = true
	}
	return set
}

// textColumn types a column of raw text cells the way a dataframe reader would:
// NA tokens become Missing, then the column is numeric if every remaining cell
// parses as a number, boolean if every cell is true/false, and text otherwise.
func textColumn(name string, raw []string, na map[string]bool) core.Column {
	values := make([]any, len(raw))
	numeric, boolean := true, true
	present := 0
	for i, s := range raw {
		if na[strings.TrimSpace(s)] {
			continue
		}
		values[i] = s
		present++
		if _, ok := core.ParseNumber(s); !ok {
			numeric = false
		}
		if _, ok := parseBool(s); !ok {
			boolean = false
		}
	}

	switch {
	case present == 0:
	case numeric:
		for i, v := range values {
			if v != nil {
				values[i], _ = core.ParseNumber(v.(string))
			}
		}
	case boolean:
		for i, v := range values {
			if v != nil {
				values[i], _ = parseBool(v.(string))
			}
		}
	}
	return core.NewColumn(name, values)
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// uniqueHeaders renames repeated or empty header cells so column names stay unique.
// Repeats get a ".N" suffix, empty headers become "Unnamed: i".
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		if n := seen[h]; n > 0 {
			name = fmt.Sprintf("%s.%d", h, n)
			for seen[name] > 0 {
				n++
				name = fmt.Sprintf("%s.%d", h, n)
			}
		}
		seen[h]++
		if name != h {
			seen[name]++
		}
		out[i] = name
	}
	return out
}

package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leapclean/internal/config"
	"github.com/leapstack-labs/leapclean/pkg/core"
)

// jsonOptions are the options of a json source.
type jsonOptions struct {
	// RecordsKey selects the array of records inside a top-level object,
	// as in API responses shaped like {"data": [...]}.
	RecordsKey string `mapstructure:"records_key"`
}

type jsonReader struct {
	path       string
	recordsKey string
	logger     *slog.Logger
}

func newJSONReader(name string, cfg config.SourceConfig, logger *slog.Logger) (Reader, error) {
	var opts jsonOptions
	if err := decodeOptions(name, cfg.Options, &opts); err != nil {
		return nil, err
	}
	return &jsonReader{path: cfg.Path, recordsKey: opts.RecordsKey, logger: logger}, nil
}

// Read accepts a JSON array of objects, an object holding such an array under
// records_key, or newline-delimited objects. Nested values are kept as compound cells.
func (r *jsonReader) Read(_ context.Context) (*core.Table, error) {
	r.logger.Info("starting json extraction", slog.String("path", r.path))

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read json file: %w", err)
	}

	records, err := r.decode(data)
	if err != nil {
		return nil, fmt.Errorf("error reading json file %s: %w", r.path, err)
	}
	for _, rec := range records {
		for k, v := range rec {
			rec[k] = core.NormalizeCell(v)
		}
	}

	t := core.FromRecords(records)
	r.logger.Info("json extraction successful", slog.Int("rows", t.NumRows()), slog.Int("columns", t.NumCols()))
	return t, nil
}

func (r *jsonReader) decode(data []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty file")
	}

	if r.recordsKey != "" {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
		inner, ok := doc[r.recordsKey]
		if !ok {
			return nil, fmt.Errorf("key %q not found", r.recordsKey)
		}
		trimmed = inner
	}

	if trimmed[0] == '[' {
		var records []map[string]any
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	// Newline-delimited records
	var records []map[string]any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for {
		var rec map[string]any
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/leapclean/internal/config"
	"github.com/leapstack-labs/leapclean/pkg/core"
	"golang.org/x/text/encoding/charmap"
)

// csvOptions are the options of a csv source.
type csvOptions struct {
	Delimiter string   `mapstructure:"delimiter"`
	NAValues  []string `mapstructure:"na_values"`
	// Encoding is utf-8 or latin-1. Invalid utf-8 input falls back to latin-1.
	Encoding string `mapstructure:"encoding"`
}

type csvReader struct {
	path   string
	comma  rune
	na     map[string]bool
	latin1 bool
	logger *slog.Logger
}

func newCSVReader(name string, cfg config.SourceConfig, logger *slog.Logger) (Reader, error) {
	opts := csvOptions{Delimiter: ",", Encoding: "utf-8"}
	if err := decodeOptions(name, cfg.Options, &opts); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(opts.Delimiter) != 1 {
		return nil, &core.ConfigurationError{
			Key:    "sources." + name + ".options.delimiter",
			Value:  opts.Delimiter,
			Reason: "must be a single character",
		}
	}
	comma, _ := utf8.DecodeRuneInString(opts.Delimiter)

	var latin1 bool
	switch strings.ToLower(opts.Encoding) {
	case "utf-8", "utf8":
	case "latin-1", "latin1", "iso-8859-1":
		latin1 = true
	default:
		return nil, &core.ConfigurationError{
			Key:    "sources." + name + ".options.encoding",
			Value:  opts.Encoding,
			Reason: "must be utf-8 or latin-1",
		}
	}

	return &csvReader{
		path:   cfg.Path,
		comma:  comma,
		na:     naSet(opts.NAValues),
		latin1: latin1,
		logger: logger,
	}, nil
}

func (r *csvReader) Read(ctx context.Context) (*core.Table, error) {
	r.logger.Info("starting csv extraction", slog.String("path", r.path))

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv file: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	if !r.latin1 && !utf8.Valid(data) {
		r.logger.Warn("csv file is not valid utf-8, decoding as latin-1", slog.String("path", r.path))
		r.latin1 = true
	}
	if r.latin1 {
		if data, err = charmap.ISO8859_1.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("failed to decode latin-1: %w", err)
		}
	}

	t, err := r.parse(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error reading csv file %s: %w", r.path, err)
	}
	r.logger.Info("csv extraction successful", slog.Int("rows", t.NumRows()), slog.Int("columns", t.NumCols()))
	return t, nil
}

func (r *csvReader) parse(ctx context.Context, in io.Reader) (*core.Table, error) {
	cr := csv.NewReader(in)
	cr.Comma = r.comma
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("no columns to parse from file")
	}
	if err != nil {
		return nil, err
	}
	names := uniqueHeaders(header)

	raw := make([][]string, len(names))
	for line := 2; ; line++ {
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) > len(names) {
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(names), len(rec))
		}
		for i := range names {
			var cell string
			if i < len(rec) {
				cell = rec[i]
			}
			raw[i] = append(raw[i], cell)
		}
	}

	cols := make([]core.Column, len(names))
	for i, name := range names {
		cols[i] = textColumn(name, raw[i], r.na)
	}
	return core.NewTable(cols...)
}

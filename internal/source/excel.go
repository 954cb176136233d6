package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapclean/internal/config"
	"github.com/leapstack-labs/leapclean/pkg/core"
	"github.com/xuri/excelize/v2"
)

// excelOptions are the options of an excel source.
type excelOptions struct {
	NAValues []string `mapstructure:"na_values"`
	// HeaderRow is the 1-based row holding column names.
	HeaderRow int `mapstructure:"header_row"`
}

type excelReader struct {
	path      string
	sheet     string
	headerRow int
	na        map[string]bool
	logger    *slog.Logger
}

func newExcelReader(name string, cfg config.SourceConfig, logger *slog.Logger) (Reader, error) {
	opts := excelOptions{HeaderRow: 1}
	if err := decodeOptions(name, cfg.Options, &opts); err != nil {
		return nil, err
	}
	if opts.HeaderRow < 1 {
		return nil, &core.ConfigurationError{
			Key:    "sources." + name + ".options.header_row",
			Value:  opts.HeaderRow,
			Reason: "must be at least 1",
		}
	}
	return &excelReader{
		path:      cfg.Path,
		sheet:     cfg.Sheet,
		headerRow: opts.HeaderRow,
		na:        naSet(opts.NAValues),
		logger:    logger,
	}, nil
}

// Read loads one worksheet; the first sheet when none is configured.
// Rows above the header row and fully blank rows are skipped.
func (r *excelReader) Read(_ context.Context) (*core.Table, error) {
	r.logger.Info("starting excel extraction", slog.String("path", r.path), slog.String("sheet", r.sheet))

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", r.path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) < r.headerRow {
		return nil, fmt.Errorf("sheet %q has no header row %d", sheet, r.headerRow)
	}

	names := uniqueHeaders(rows[r.headerRow-1])
	raw := make([][]string, len(names))
	for _, row := range rows[r.headerRow:] {
		if isBlankRow(row) {
			continue
		}
		for i := range names {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			raw[i] = append(raw[i], cell)
		}
	}

	cols := make([]core.Column, len(names))
	for i, name := range names {
		cols[i] = textColumn(name, raw[i], r.na)
	}
	t, err := core.NewTable(cols...)
	if err != nil {
		return nil, err
	}
	r.logger.Info("excel extraction successful",
		slog.String("sheet", sheet),
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", t.NumCols()),
	)
	return t, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

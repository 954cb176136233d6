package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapclean/internal/stats"
	"github.com/leapstack-labs/leapclean/pkg/core"
	"gopkg.in/yaml.v3"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	missingText     = "NaN"
)

var rule = strings.Repeat("=", 80)

// WriteReport renders r as a plain-text document.
// The statistical summary and sample sections describe t and are omitted when t is nil
// or when the reporting configuration turns them off.
func (v *Validator) WriteReport(w io.Writer, r *core.QualityReport, t *core.Table) error {
	var b strings.Builder

	banner(&b, "DATA QUALITY REPORT")
	fmt.Fprintf(&b, "Source: %s\n", r.Source)
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.Format(timestampLayout))
	fmt.Fprintf(&b, "Dataset Shape: %d rows x %d columns\n\n", r.Shape.Rows, r.Shape.Columns)

	fmt.Fprintf(&b, "OVERALL QUALITY SCORE: %s/100 - %s\n", formatScore(r.QualityScore), r.Status)
	b.WriteString(rule + "\n\n")

	comp := r.Completeness
	fmt.Fprintf(&b, "1. COMPLETENESS: %s%%\n", formatScore(comp.Score))
	fmt.Fprintf(&b, "   Total Missing Values: %d\n", comp.MissingCells)
	if len(comp.MissingByColumn) > 0 {
		b.WriteString("   Columns with Missing Values:\n")
		for _, c := range comp.MissingByColumn {
			fmt.Fprintf(&b, "     - %s: %d\n", c.Column, c.Count)
		}
	}
	b.WriteString("\n")

	uniq := r.Uniqueness
	fmt.Fprintf(&b, "2. UNIQUENESS: %s%%\n", formatScore(uniq.Score))
	fmt.Fprintf(&b, "   Duplicate Rows: %d\n", uniq.DuplicateRows)
	fmt.Fprintf(&b, "   Unique Rows: %d\n\n", uniq.UniqueRows)

	val := r.Validity
	fmt.Fprintf(&b, "3. VALIDITY: %s%%\n", formatScore(val.Score))
	if len(val.Issues) > 0 {
		b.WriteString("   Issues Found:\n")
		for _, issue := range val.Issues {
			fmt.Fprintf(&b, "     - %s: %s (%d rows)\n", issue.Column, issue.Rule, issue.Count)
		}
	} else {
		b.WriteString("   No validity issues found\n")
	}
	b.WriteString("\n")

	cons := r.Consistency
	fmt.Fprintf(&b, "4. CONSISTENCY: %s%%\n", formatScore(cons.Score))
	if len(cons.Issues) > 0 {
		b.WriteString("   Issues Found:\n")
		for _, issue := range cons.Issues {
			patterns := make([]string, len(issue.Patterns))
			for i, p := range issue.Patterns {
				patterns[i] = string(p)
			}
			fmt.Fprintf(&b, "     - %s: mixed_case_formats (%s)\n", issue.Column, strings.Join(patterns, ", "))
		}
	} else {
		b.WriteString("   No consistency issues found\n")
	}
	b.WriteString("\n")

	if t != nil && v.cfg.IncludeStatistics {
		banner(&b, "STATISTICAL SUMMARY")
		writeSummary(&b, t)
		b.WriteString("\n")
	}

	if t != nil && v.cfg.IncludeSamples {
		banner(&b, fmt.Sprintf("SAMPLE DATA (First %d rows)", v.cfg.SampleSize))
		writeSample(&b, t.Head(v.cfg.SampleSize))
		b.WriteString("\n")
	}

	b.WriteString(rule + "\nEND OF REPORT\n" + rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// SaveReport writes the text report to the configured output path, creating parent directories.
// It returns the path written, or "" when reporting is disabled.
func (v *Validator) SaveReport(r *core.QualityReport, t *core.Table) (string, error) {
	if !v.cfg.Enabled {
		return "", nil
	}
	path := v.cfg.OutputPath
	if path == "" {
		path = core.DefaultReportPath
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // report path comes from configuration
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	if err := v.WriteReport(f, r, t); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close report file: %w", err)
	}

	v.logger.Info("data quality report saved", slog.String("path", path))
	return path, nil
}

// EncodeJSON writes r as indented JSON.
func EncodeJSON(w io.Writer, r *core.QualityReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// EncodeYAML writes r as YAML.
func EncodeYAML(w io.Writer, r *core.QualityReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

func banner(b *strings.Builder, title string) {
	b.WriteString(rule + "\n" + title + "\n" + rule + "\n\n")
}

// formatScore renders a percentage with at least one decimal place.
func formatScore(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatStat(f float64) string {
	return core.FormatNumber(stats.Round(f, 2))
}

// summaryRows are the statistics of the summary table, one row each.
var summaryRows = []string{"count", "missing", "unique", "top", "freq", "mean", "std", "min", "25%", "50%", "75%", "max"}

// describe computes the summary statistics of one column.
// Numeric columns get moments and quantiles; other columns get distinct-value counts.
func describe(col core.Column) map[string]string {
	nonMissing := col.NonMissing()
	d := map[string]string{
		"count":   strconv.Itoa(len(nonMissing)),
		"missing": strconv.Itoa(col.Len() - len(nonMissing)),
	}

	if col.Type != core.TypeNumeric {
		freqs := stats.Frequencies(nonMissing)
		d["unique"] = strconv.Itoa(len(freqs))
		if len(freqs) > 0 {
			d["top"] = core.Stringify(freqs[0].Value)
			d["freq"] = strconv.Itoa(freqs[0].Count)
		}
		return d
	}

	xs := col.Floats()
	if mean, err := stats.Mean(xs); err == nil {
		d["mean"] = formatStat(mean)
	}
	if sd, err := stats.StdDev(xs); err == nil {
		d["std"] = formatStat(sd)
	}
	if lo, err := stats.Min(xs); err == nil {
		d["min"] = formatStat(lo)
	}
	for _, q := range []struct {
		label string
		p     float64
	}{{"25%", 0.25}, {"50%", 0.5}, {"75%", 0.75}} {
		if val, err := stats.Quantile(xs, q.p); err == nil {
			d[q.label] = formatStat(val)
		}
	}
	if hi, err := stats.Max(xs); err == nil {
		d["max"] = formatStat(hi)
	}
	return d
}

func writeSummary(b *strings.Builder, t *core.Table) {
	if t.NumCols() == 0 {
		b.WriteString("(no columns)\n")
		return
	}
	cols := t.Columns()
	described := make([]map[string]string, len(cols))
	header := table.Row{""}
	for i, col := range cols {
		described[i] = describe(col)
		header = append(header, col.Name)
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(header)
	for _, stat := range summaryRows {
		row := table.Row{stat}
		for _, d := range described {
			val, ok := d[stat]
			if !ok {
				val = missingText
			}
			row = append(row, val)
		}
		tw.AppendRow(row)
	}
	b.WriteString(tw.Render())
	b.WriteString("\n")
}

func writeSample(b *strings.Builder, t *core.Table) {
	if t.NumCols() == 0 || t.NumRows() == 0 {
		b.WriteString("(0 rows)\n")
		return
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)

	header := table.Row{""}
	for _, name := range t.ColumnNames() {
		header = append(header, name)
	}
	tw.AppendHeader(header)

	for i := 0; i < t.NumRows(); i++ {
		row := table.Row{i}
		for _, v := range t.Row(i) {
			if core.IsMissing(v) {
				row = append(row, missingText)
				continue
			}
			row = append(row, core.Stringify(v))
		}
		tw.AppendRow(row)
	}
	b.WriteString(tw.Render())
	b.WriteString("\n")
}

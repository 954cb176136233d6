package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/leapclean/internal/cli/output"
	"github.com/leapstack-labs/leapclean/internal/pipeline"
	"github.com/leapstack-labs/leapclean/pkg/core"
)

// renderResult writes a human-readable summary of a pipeline run.
func renderResult(r *output.Renderer, res *pipeline.Result) {
	styles := r.Styles()

	r.Println("")
	r.Header(fmt.Sprintf("Pipeline %s (%s)", res.Pipeline, res.Environment))
	if res.RunID != "" {
		r.KeyValue("Run", res.RunID)
	}
	r.Println("")

	r.Println(styles.Header2.Render("Sources"))
	for _, s := range res.Sources {
		if s.Error != "" {
			r.StatusLine(false, s.Name, s.Error)
			continue
		}
		detail := fmt.Sprintf("%d rows extracted, %d after cleaning", s.RowsExtracted, s.RowsCleaned)
		if s.Cleaning != nil {
			detail += fmt.Sprintf(" (%.1f%% retained)", s.Cleaning.RetainedPercent())
		}
		r.StatusLine(true, s.Name, detail)
	}
	r.Println("")

	if res.Report != nil {
		r.Println(styles.Header2.Render("Quality"))
		r.KeyValue("Shape", fmt.Sprintf("%d rows x %d columns", res.Shape.Rows, res.Shape.Columns))
		score := styles.ScoreStyle(res.Report.QualityScore).Render(fmt.Sprintf("%.2f/100", res.Report.QualityScore))
		r.KeyValue("Score", fmt.Sprintf("%s (%s)", score, res.Report.Status))
		if res.ReportPath != "" {
			r.KeyValue("Report", res.ReportPath)
		}
		if n := countSkips(res.Skips); n > 0 {
			r.KeyValue("Skipped", fmt.Sprintf("%d column step(s)", n))
		}
		r.Println("")
	}

	if len(res.Destinations) > 0 {
		r.Println(styles.Header2.Render("Destinations"))
		for _, d := range res.Destinations {
			if d.Error != "" {
				r.StatusLine(false, d.Name, d.Error)
				continue
			}
			r.StatusLine(true, d.Name, fmt.Sprintf("%d rows → %s", d.Rows, d.Location))
		}
		r.Println("")
	}

	elapsed := res.Duration.Round(time.Millisecond)
	switch {
	case res.Status == core.RunStatusCompleted && len(res.FailedDestinations()) == 0:
		r.Success(fmt.Sprintf("Completed in %s", elapsed))
	case res.Status == core.RunStatusCompleted:
		r.Warning(fmt.Sprintf("Completed in %s, failed destinations: %s", elapsed, strings.Join(res.FailedDestinations(), ", ")))
	default:
		r.Error(fmt.Sprintf("Run %s after %s", res.Status, elapsed))
	}
}

// countSkips counts skipped column steps, leaving out skipped sources which are listed separately.
func countSkips(skips []core.Skip) int {
	n := 0
	for _, s := range skips {
		if s.Kind != core.SkipSource {
			n++
		}
	}
	return n
}

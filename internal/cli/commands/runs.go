package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapclean/internal/cli/output"
	"github.com/leapstack-labs/leapclean/internal/state"
	"github.com/leapstack-labs/leapclean/pkg/core"
	"github.com/spf13/cobra"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit int
}

// RunDetail is the JSON output of "runs <id>".
type RunDetail struct {
	Run     *core.Run             `json:"run"`
	Reports []*core.QualityReport `json:"reports"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show pipeline run history",
		Long: `List recorded pipeline runs, newest first.

With a run ID, show that run with the quality reports recorded for it.`,
		Example: `  # Last 20 runs
  leapclean runs

  # Every run as JSON
  leapclean runs --limit 0 -o json

  # One run and its quality report
  leapclean runs 2f1c9a4e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to list (0 = all)")

	return cmd
}

func runRuns(cmd *cobra.Command, opts *RunsOptions, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if len(args) == 1 {
		return showRun(r, store, args[0])
	}

	runs, err := store.ListRuns(opts.Limit)
	if err != nil {
		return err
	}
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*core.Run{}
		}
		return r.JSON(runs)
	}
	if len(runs) == 0 {
		r.Println(r.Muted("No runs recorded yet"))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Pipeline", "Env", "Status", "Extracted", "Cleaned", "Loaded", "Started", "Duration"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			shortID(run.ID),
			run.Pipeline,
			run.Environment,
			run.Status,
			run.Counts.Extracted,
			run.Counts.Cleaned,
			run.Counts.Loaded,
			run.StartedAt.Local().Format(time.DateTime),
			formatDuration(run),
		})
	}
	t.Render()
	r.Printf("(%d runs)\n", len(runs))
	return nil
}

func showRun(r *output.Renderer, store *state.SQLiteStore, id string) error {
	run, err := store.GetRun(id)
	if err != nil {
		return err
	}
	stored, err := store.ReportsForRun(id)
	if err != nil {
		return err
	}
	reports := make([]*core.QualityReport, 0, len(stored))
	for _, s := range stored {
		rep, err := state.DecodeReport(s)
		if err != nil {
			return err
		}
		reports = append(reports, rep)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(RunDetail{Run: run, Reports: reports})
	}

	r.Header("Run " + run.ID)
	r.KeyValue("Pipeline", run.Pipeline)
	r.KeyValue("Environment", run.Environment)
	r.KeyValue("Status", run.Status)
	r.KeyValue("Started", run.StartedAt.Local().Format(time.DateTime))
	r.KeyValue("Duration", formatDuration(run))
	r.KeyValue("Records", fmt.Sprintf("%d extracted, %d cleaned, %d transformed, %d loaded",
		run.Counts.Extracted, run.Counts.Cleaned, run.Counts.Transformed, run.Counts.Loaded))
	if run.Error != "" {
		r.KeyValue("Error", run.Error)
	}
	for _, rep := range reports {
		r.Println("")
		r.Println(r.Styles().Header2.Render("Quality report: " + rep.Source))
		score := r.Styles().ScoreStyle(rep.QualityScore).Render(fmt.Sprintf("%.2f/100", rep.QualityScore))
		r.KeyValue("Score", fmt.Sprintf("%s (%s)", score, rep.Status))
		r.KeyValue("Completeness", fmt.Sprintf("%.2f%%", rep.Completeness.Score))
		r.KeyValue("Uniqueness", fmt.Sprintf("%.2f%%", rep.Uniqueness.Score))
		r.KeyValue("Validity", fmt.Sprintf("%.2f%%", rep.Validity.Score))
		r.KeyValue("Consistency", fmt.Sprintf("%.2f%%", rep.Consistency.Score))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(run *core.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.Duration().Round(time.Millisecond).String()
}

package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapclean/internal/cli/output"
	"github.com/leapstack-labs/leapclean/internal/pipeline"
	"github.com/leapstack-labs/leapclean/internal/validator"
	"github.com/spf13/cobra"
)

// Report formats of the validate command.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidateOptions holds options for the validate command.
type ValidateOptions struct {
	Format   string
	MinScore float64
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Clean the sources and print the data quality report",
		Long: `Extract, clean and merge every enabled source, then print the data quality
report of the result. Nothing is loaded and no run is recorded.

The report is also written to transform.reporting.output_path when reporting is enabled.`,
		Example: `  # Print the text report
  leapclean validate

  # Report as YAML
  leapclean validate --format yaml

  # Fail CI when the quality score drops below 80
  leapclean validate --min-score 80`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Report format: text, json, yaml (default: from --output)")
	cmd.Flags().Float64Var(&opts.MinScore, "min-score", 0, "Exit with an error when the quality score is below this value")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{FormatText, FormatJSON, FormatYAML}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	format := opts.Format
	if format == "" {
		format = FormatText
		if r.EffectiveMode() == output.ModeJSON {
			format = FormatJSON
		}
	}
	switch format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unknown report format %q (want text, json or yaml)", format)
	}

	p, err := pipeline.New(pipeline.Config{
		Pipeline: cfg,
		Logger:   cmdCtx.Logger,
		DryRun:   true,
	})
	if err != nil {
		return err
	}
	res, err := p.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	for _, name := range res.FailedSources() {
		r.Warning(fmt.Sprintf("source %s skipped", name))
	}

	w := r.Writer()
	switch format {
	case FormatJSON:
		err = validator.EncodeJSON(w, res.Report)
	case FormatYAML:
		err = validator.EncodeYAML(w, res.Report)
	default:
		err = validator.New(cfg.Transform.Reporting, cmdCtx.Logger).WriteReport(w, res.Report, res.Output)
	}
	if err != nil {
		return err
	}

	if opts.MinScore > 0 && res.Report.QualityScore < opts.MinScore {
		return fmt.Errorf("quality score %.2f is below the minimum %.2f", res.Report.QualityScore, opts.MinScore)
	}
	return nil
}

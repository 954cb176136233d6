package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapclean/internal/cli/output"
	"github.com/leapstack-labs/leapclean/internal/pipeline"
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	DryRun      bool
	Concurrency int
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline",
		Long: `Extract every enabled source, clean and merge the data, validate it,
write the quality report and load the result into every enabled destination.

Sources that cannot be read are skipped and destinations that fail are
reported without stopping the run. Each run is recorded in the state database.`,
		Example: `  # Run with ./leapclean.yaml
  leapclean run

  # Run another config against the production environment
  leapclean run --config pipelines/sales.yaml --env production

  # Extract, clean and validate without loading anything
  leapclean run --dry-run

  # Machine-readable result for CI/CD
  leapclean run -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Stop after validation: load nothing and record no run")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "Maximum number of sources extracted at once (0 = all)")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	pcfg := pipeline.Config{
		Pipeline:    cfg,
		Logger:      cmdCtx.Logger,
		Concurrency: opts.Concurrency,
		DryRun:      opts.DryRun,
	}
	if !opts.DryRun {
		store, err := openStore(cfg, cmdCtx.Logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		pcfg.Store = store
	}

	p, err := pipeline.New(pcfg)
	if err != nil {
		return err
	}

	res, runErr := p.Run(cmd.Context())
	if res != nil {
		if r.EffectiveMode() == output.ModeJSON {
			if err := r.JSON(res); err != nil {
				return err
			}
		} else {
			renderResult(r, res)
		}
	}
	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	return nil
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapclean/internal/cli/output"
	"github.com/leapstack-labs/leapclean/internal/config"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leapclean project",
		Long: `Initialize a new leapclean project with a commented leapclean.yaml.

Use --example to create a working demo project: two messy order feeds
(CSV and JSON) that are cleaned, merged and written to output/.`,
		Example: `  # Initialize in current directory
  leapclean init

  # Initialize a new directory with the demo project, then run it
  leapclean init sales --example
  cd sales && leapclean run

  # Overwrite existing files
  leapclean init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto)

			template := "minimal"
			if example {
				template = "example"
			}
			return runInit(r, dir, template, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&example, "example", false, "Create an example project with sample data")

	return cmd
}

func runInit(r *output.Renderer, dir, template string, force bool) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileName)
	}

	if err := copyTemplate(template, dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}
	for _, sub := range []string{"data", "output", "reports"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", sub, err)
		}
	}

	files, err := listTemplateFiles(template)
	if err != nil {
		return err
	}
	for _, f := range files {
		r.StatusLine(true, f, "")
	}

	r.Println("")
	r.Success("leapclean project initialized!")
	r.Println("")
	r.Println("Next steps:")
	if template == "example" {
		r.Println("  leapclean validate   Clean the sample feeds and print the quality report")
		r.Println("  leapclean run        Clean, merge and load them into output/")
		r.Println("  leapclean runs       Show run history")
		return nil
	}
	r.Println("  1. Put your data files in data/ and list them under sources")
	r.Println("  2. Run 'leapclean validate' to check data quality")
	r.Println("  3. Run 'leapclean run' to clean and load the data")
	return nil
}

package commands

import (
	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file, LEAPCLEAN_*
environment variables and flags have been applied, as YAML.

Secrets such as database passwords and object storage keys are omitted.`,
		Example: `  leapclean config
  LEAPCLEAN_TRANSFORM__OUTLIERS__METHOD=zscore leapclean config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			r := cmdCtx.Renderer
			if cmdCtx.Cfg.ConfigFile != "" {
				r.Println(r.Muted("# " + cmdCtx.Cfg.ConfigFile))
			}
			return r.YAML(cmdCtx.Cfg)
		},
	}
}

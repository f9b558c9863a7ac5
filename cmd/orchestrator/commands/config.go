package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/orchestrator/cmd/orchestrator/handlers"
)

// Config returns the config command.
func Config(global *handlers.GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Config prints the configuration after merging defaults, the config file,
the environment and flags. Credentials are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ShowConfig(withOverrides(cmd, global, nil), cmd.OutOrStdout())
		},
	}

	addConfigFlags(cmd)
	return cmd
}

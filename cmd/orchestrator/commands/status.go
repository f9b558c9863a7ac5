package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/orchestrator/cmd/orchestrator/handlers"
)

// Status returns the status command.
func Status(global *handlers.GlobalOptions) *cobra.Command {
	var opts handlers.StatusOptions

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether provisioned resources exist",
		Long: `Status runs a single readiness check per resource kind and prints the
result. Nothing is created or changed.

Example:
  orchestrator status --kinds queue,cron --strict`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), withOverrides(cmd, global, nil), opts, cmd.OutOrStdout())
		},
	}

	addConfigFlags(cmd)
	cmd.Flags().StringSliceVar(&opts.Kinds, "kinds", nil, "Kinds to check (storage, queue, notification, cron); default all")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Exit non-zero when any kind is not ready")

	return cmd
}

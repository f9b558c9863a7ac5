package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/orchestrator/cmd/orchestrator/handlers"
)

// Setup returns the setup command.
func Setup(global *handlers.GlobalOptions) *cobra.Command {
	var (
		opts     handlers.SetupOptions
		parallel bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision queues, storage, notifications and worker triggers",
		Long: `Setup provisions every resource kind and waits for each to become ready.

Kinds are processed in a fixed order:
  - Storage: the artifact bucket
  - Queue: the job queues and their dead-letter queues
  - Notification: the alerting topic
  - Cron: one periodic trigger per worker, delivered to the worker trigger queue

Setup is idempotent: existing resources are left as they are. Cron is only
attempted once every queue is ready. With --parallel the first three kinds
run concurrently.

Example:
  orchestrator setup -c orchestrator.yaml --alert-endpoint orchestrator-alerts`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var extra map[string]any
			if cmd.Flags().Changed("parallel") {
				extra = map[string]any{"misc.parallel": parallel}
			}
			return handlers.Setup(cmd.Context(), withOverrides(cmd, global, extra), opts, cmd.OutOrStdout())
		},
	}

	addConfigFlags(cmd)
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Provision storage, queues and notifications concurrently")
	cmd.Flags().StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "Write run metrics to this file in Prometheus text format")

	return cmd
}

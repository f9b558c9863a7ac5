package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/orchestrator/cmd/orchestrator/handlers"
)

// Teardown returns the teardown command.
func Teardown(global *handlers.GlobalOptions) *cobra.Command {
	var (
		opts  handlers.TeardownOptions
		scope string
	)

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Remove provisioned resources",
		Long: `Teardown removes provisioned resources, dependents first:
cron triggers, the alerting topic, queues, then the bucket.

Queue teardown has two scopes:
  - instance: delete only the queue named by --queue (default);
              without --queue the queue kind is skipped
  - catalog:  delete every catalog queue

Example:
  orchestrator teardown --kinds queue --scope catalog
  orchestrator teardown --kinds queue --queue worker_trigger

WARNING: Deleting queues and the bucket discards their contents.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var extra map[string]any
			if cmd.Flags().Changed("scope") {
				extra = map[string]any{"queue.teardown_scope": scope}
			}
			return handlers.Teardown(cmd.Context(), withOverrides(cmd, global, extra), opts, cmd.OutOrStdout())
		},
	}

	addConfigFlags(cmd)
	cmd.Flags().StringSliceVar(&opts.Kinds, "kinds", nil, "Kinds to remove (storage, queue, notification, cron); default all")
	cmd.Flags().StringVar(&opts.Queue, "queue", "", "Catalog queue to remove with instance scope, e.g. worker_trigger")
	cmd.Flags().StringVar(&scope, "scope", "", "Queue teardown scope: instance or catalog")

	return cmd
}

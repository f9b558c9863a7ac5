package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/orchestrator/cmd/orchestrator/handlers"
)

// configFlag binds a command-line flag to a configuration key.
type configFlag struct {
	name  string
	key   string
	usage string
	kind  flagKind
}

type flagKind int

const (
	stringFlag flagKind = iota
	intFlag
)

var configFlags = []configFlag{
	{name: "region", key: "provider.aws.region", usage: "AWS region"},
	{name: "endpoint-url", key: "provider.aws.endpoint_url", usage: "Override the AWS endpoint, e.g. for LocalStack"},
	{name: "prefix", key: "queue.prefix", usage: "Resource name prefix"},
	{name: "suffix", key: "queue.suffix", usage: "Queue name suffix"},
	{name: "queue-base-url", key: "queue.queue_base_url", usage: "SQS base queue URL"},
	{name: "bucket", key: "storage.bucket_name", usage: "S3 bucket name"},
	{name: "alert-endpoint", key: "alert.endpoint", usage: "SNS topic ARN or name"},
	{name: "event-bridge-type", key: "cron.event_bridge_type", usage: "Trigger delivery: rule or schedule"},
	{name: "cron-time", key: "cron.cron_time", usage: `Trigger period: seconds or "@every <duration>"`},
	{name: "settle-delay", key: "cron.settle_delay_seconds", usage: "Seconds to wait before attaching triggers", kind: intFlag},
	{name: "poll-interval", key: "misc.poll_interval_seconds", usage: "Seconds between readiness checks", kind: intFlag},
	{name: "timeout", key: "misc.timeout_seconds", usage: "Readiness timeout per kind in seconds", kind: intFlag},
}

// addConfigFlags registers the configuration override flags on cmd.
func addConfigFlags(cmd *cobra.Command) {
	for _, f := range configFlags {
		switch f.kind {
		case intFlag:
			cmd.Flags().Int(f.name, 0, f.usage)
		default:
			cmd.Flags().String(f.name, "", f.usage)
		}
	}
}

// withOverrides returns a copy of opts carrying the configuration flags
// the user set on cmd.
func withOverrides(cmd *cobra.Command, opts *handlers.GlobalOptions, extra map[string]any) handlers.GlobalOptions {
	out := *opts
	out.Overrides = map[string]any{}
	for _, f := range configFlags {
		if flag := cmd.Flags().Lookup(f.name); flag != nil && flag.Changed {
			out.Overrides[f.key] = flag.Value.String()
		}
	}
	for k, v := range extra {
		out.Overrides[k] = v
	}
	return out
}

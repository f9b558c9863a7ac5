// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/orchestrator/cmd/orchestrator/handlers"
)

// Root returns the root command for the orchestrator CLI.
func Root() *cobra.Command {
	opts := &handlers.GlobalOptions{}

	cmd := &cobra.Command{
		Use:           "orchestrator",
		Short:         "Provision the cloud resources the orchestrator depends on",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", handlers.LogFormatAuto, "Log format (auto, json, console)")
	cmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase log verbosity (repeatable)")

	cmd.AddCommand(Setup(opts))
	cmd.AddCommand(Teardown(opts))
	cmd.AddCommand(Status(opts))
	cmd.AddCommand(Config(opts))
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

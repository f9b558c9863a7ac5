// Package main is the entry point for the orchestrator CLI.
//
// orchestrator provisions and gates the cloud infrastructure the proving
// pipeline depends on: queues with their dead-letter queues, the artifact
// bucket, the alerting topic and the periodic worker triggers.
//
// Commands: setup, teardown, status, config.
//
// For detailed usage information, run:
//
//	orchestrator --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/orchestrator/cmd/orchestrator/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

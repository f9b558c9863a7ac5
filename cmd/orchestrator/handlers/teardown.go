package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/imamik/orchestrator/internal/setup"
)

// TeardownOptions are the flags of the teardown command.
type TeardownOptions struct {
	// Kinds limits teardown; empty means every kind.
	Kinds []string
	// Queue is the catalog queue removed by instance-scoped teardown.
	Queue string
}

// Teardown handles the teardown command.
//
// Kinds are removed dependents first: cron, notification, queue, storage.
// Every selected kind is attempted even when an earlier one fails.
func Teardown(ctx context.Context, g GlobalOptions, opts TeardownOptions, out io.Writer) error {
	kinds, err := ParseKinds(opts.Kinds)
	if err != nil {
		return err
	}

	s, err := openSession(ctx, g)
	if err != nil {
		return err
	}
	defer s.close()

	f := newFactory(s.provider, s.cfg)
	s.log.Info("starting teardown", "run_id", f.RunID(), "scope", s.cfg.Queue.TeardownScope)

	report, runErr := f.Teardown(s.ctx, setup.TeardownOptions{Kinds: kinds, Queue: opts.Queue})
	if report != nil {
		fmt.Fprint(out, renderReport(report))
	}
	return wrapRunError("teardown", runErr)
}

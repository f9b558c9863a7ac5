package handlers

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// StatusOptions are the flags of the status command.
type StatusOptions struct {
	Kinds []string
	// Strict fails the command when any kind is not ready.
	Strict bool
}

// Status handles the status command. It checks each kind once and changes
// nothing.
func Status(ctx context.Context, g GlobalOptions, opts StatusOptions, out io.Writer) error {
	kinds, err := ParseKinds(opts.Kinds)
	if err != nil {
		return err
	}

	s, err := openSession(ctx, g)
	if err != nil {
		return err
	}
	defer s.close()

	report, runErr := newFactory(s.provider, s.cfg).Status(s.ctx, kinds)
	if report != nil {
		fmt.Fprint(out, renderReport(report))
	}
	if runErr != nil {
		return wrapRunError("status", runErr)
	}
	if pending := notReady(report); opts.Strict && len(pending) > 0 {
		return fmt.Errorf("not ready: %s", strings.Join(pending, ", "))
	}
	return nil
}

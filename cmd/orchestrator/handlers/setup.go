package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/imamik/orchestrator/internal/metrics"
	"github.com/imamik/orchestrator/internal/setup"
)

// SetupOptions are the flags of the setup command.
type SetupOptions struct {
	// MetricsTextfile, when set, receives the run metrics in the
	// Prometheus text format.
	MetricsTextfile string
}

// Setup handles the setup command.
//
// It provisions every resource kind and gates each on readiness. It fails
// when any kind failed or did not become ready; a skipped Cron counts as
// not ready.
func Setup(ctx context.Context, g GlobalOptions, opts SetupOptions, out io.Writer) error {
	s, err := openSession(ctx, g)
	if err != nil {
		return err
	}
	defer s.close()

	m := metrics.New()
	f := newFactory(s.provider, s.cfg, setup.WithMetrics(m))
	s.log.Info("starting setup", "run_id", f.RunID(), "parallel", s.cfg.Misc.Parallel)

	report, runErr := f.SetupResource(s.ctx)
	fmt.Fprint(out, renderReport(report))

	if opts.MetricsTextfile != "" {
		if err := m.WriteTextfile(opts.MetricsTextfile); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return wrapRunError("setup", runErr)
	}
	if pending := notReady(report); len(pending) > 0 {
		return fmt.Errorf("setup incomplete: not ready: %s", strings.Join(pending, ", "))
	}
	return nil
}

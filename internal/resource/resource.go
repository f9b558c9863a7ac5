package resource

import (
	"context"
	"time"

	"github.com/go-logr/logr"
)

// Checker probes whether a resource exists and is usable.
// Check must not mutate anything.
type Checker[C any] interface {
	Check(ctx context.Context, args C) (bool, error)
}

// CheckFunc adapts a plain function to the Checker interface.
type CheckFunc[C any] func(ctx context.Context, args C) (bool, error)

// Check implements Checker.
func (f CheckFunc[C]) Check(ctx context.Context, args C) (bool, error) {
	return f(ctx, args)
}

// Resource is the lifecycle contract every provisionable kind implements.
//
// Construction happens in each kind's New(provider) function, which fails
// with a *ConfigurationError when the provider variant does not match.
// Setup is idempotent: it checks existence before creating and skips
// resources that are already present.
type Resource[S, C any] interface {
	Checker[C]
	Setup(ctx context.Context, args S) error
	Teardown(ctx context.Context) error
}

// Poll gates readiness on a Checker.
//
// It calls Check until it returns true or timeout elapses, sleeping interval
// between negative results. The first Check error ends polling with false.
// A zero timeout returns false without calling Check. Cancelling ctx also
// returns false.
func Poll[C any](ctx context.Context, c Checker[C], args C, interval, timeout time.Duration) bool {
	log := logr.FromContextOrDiscard(ctx)
	start := time.Now()

	for time.Since(start) < timeout {
		ready, err := c.Check(ctx, args)
		if err != nil {
			log.V(1).Info("readiness check failed", "error", err.Error())
			return false
		}
		if ready {
			return true
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}

	return false
}

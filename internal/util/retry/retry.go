package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

// Policy controls how often and how long an operation is retried.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// RetryIf limits retries to errors it accepts. Nil retries every
	// non-fatal error.
	RetryIf func(error) bool
}

// DefaultPolicy suits IAM and S3 deletions that conflict while a dependent
// entity is still being released.
var DefaultPolicy = Policy{
	MaxRetries:   5,
	InitialDelay: time.Second,
	MaxDelay:     30 * time.Second,
}

// Option adjusts a Policy.
type Option func(*Policy)

// Delay returns the wait before retry number attempt (starting at 0). It
// doubles per attempt and is capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.InitialDelay
	for range attempt {
		if d >= p.MaxDelay {
			break
		}
		d *= 2
	}
	return min(d, p.MaxDelay)
}

// ExhaustedError is returned once every attempt has failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// WithExponentialBackoff runs operation until it succeeds, returns a fatal
// or unaccepted error, the retries are used up, or ctx is done.
func WithExponentialBackoff(ctx context.Context, operation func() error, opts ...Option) error {
	p := DefaultPolicy
	for _, opt := range opts {
		opt(&p)
	}
	log := logr.FromContextOrDiscard(ctx)

	for attempt := 0; ; attempt++ {
		err := operation()
		switch {
		case err == nil:
			return nil
		case IsFatal(err):
			return fmt.Errorf("fatal error (not retrying): %w", err)
		case p.RetryIf != nil && !p.RetryIf(err):
			return err
		case attempt >= p.MaxRetries:
			return &ExhaustedError{Attempts: attempt + 1, Err: err}
		}

		delay := p.Delay(attempt)
		log.V(1).Info("retrying", "attempt", attempt+1, "delay", delay, "error", err.Error())
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("cancelled after %d attempts: %w", attempt+1, ctx.Err())
		case <-timer.C:
		}
	}
}

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(p *Policy) { p.MaxRetries = n }
}

// WithInitialDelay sets the wait before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(p *Policy) { p.InitialDelay = d }
}

// WithMaxDelay caps the wait between retries.
func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) { p.MaxDelay = d }
}

// WithRetryIf retries only errors for which pred returns true; any other
// error is returned immediately and unwrapped.
func WithRetryIf(pred func(error) bool) Option {
	return func(p *Policy) { p.RetryIf = pred }
}

type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal marks err as not worth retrying. Fatal(nil) is nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err was marked with Fatal.
func IsFatal(err error) bool {
	var f *fatalError
	return errors.As(err, &f)
}

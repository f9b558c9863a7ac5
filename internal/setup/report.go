package setup

import (
	"errors"
	"time"

	"github.com/imamik/orchestrator/internal/resource"
)

// Operation names what a report describes.
type Operation string

const (
	OpSetup    Operation = "setup"
	OpTeardown Operation = "teardown"
	OpStatus   Operation = "status"
)

// Outcome is the result for one resource kind.
type Outcome struct {
	Kind  resource.Type
	Ready bool
	// Skipped is set when the kind was not attempted because a dependency
	// never became ready. Err then holds the *resource.DependencyNotReadyError.
	Skipped  bool
	Err      error
	Duration time.Duration
}

// Report collects the per-kind outcomes of one run.
type Report struct {
	RunID     string
	Operation Operation
	Started   time.Time
	Duration  time.Duration
	Outcomes  []Outcome
}

// Outcome returns the outcome recorded for kind.
func (r *Report) Outcome(kind resource.Type) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			return o, true
		}
	}
	return Outcome{}, false
}

// AllReady reports whether every kind in the report is ready.
func (r *Report) AllReady() bool {
	for _, o := range r.Outcomes {
		if !o.Ready {
			return false
		}
	}
	return len(r.Outcomes) > 0
}

// Err joins the hard failures of the report. Skipped kinds are not failures.
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil && !o.Skipped {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

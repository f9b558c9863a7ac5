package setup

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-logr/logr"
	"github.com/segmentio/ksuid"

	"github.com/imamik/orchestrator/internal/cloud"
	"github.com/imamik/orchestrator/internal/config"
	"github.com/imamik/orchestrator/internal/metrics"
	"github.com/imamik/orchestrator/internal/platform/aws/eventbridge"
	"github.com/imamik/orchestrator/internal/platform/aws/s3"
	"github.com/imamik/orchestrator/internal/platform/aws/sns"
	"github.com/imamik/orchestrator/internal/platform/aws/sqs"
	"github.com/imamik/orchestrator/internal/resource"
	"github.com/imamik/orchestrator/internal/util/async"
)

// dependencies lists, per kind, the kinds that must be ready before it is
// attempted.
var dependencies = map[resource.Type][]resource.Type{
	resource.Cron: {resource.Queue},
}

// Factory builds and provisions every registered resource kind for one run.
type Factory struct {
	provider *cloud.Provider
	cfg      *config.Config
	registry *Registry
	status   *StatusTable
	observer Observer
	metrics  *metrics.Metrics
	runID    string
}

// Option configures a Factory.
type Option func(*Factory)

// WithRegistry replaces the default AWS creators.
func WithRegistry(r *Registry) Option {
	return func(f *Factory) { f.registry = r }
}

// WithObserver sets the event observer. By default events go to the logger
// carried in the context.
func WithObserver(o Observer) Option {
	return func(f *Factory) { f.observer = o }
}

// WithMetrics records run outcomes into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Factory) { f.metrics = m }
}

// NewFactory creates a factory for one provisioning run.
func NewFactory(p *cloud.Provider, cfg *config.Config, opts ...Option) *Factory {
	f := &Factory{
		provider: p,
		cfg:      cfg,
		registry: DefaultRegistry(),
		status:   NewStatusTable(),
		runID:    ksuid.New().String(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// RunID identifies this run in logs and reports.
func (f *Factory) RunID() string { return f.runID }

// GetResourceStatus returns the recorded readiness of kind, false if unset.
func (f *Factory) GetResourceStatus(kind resource.Type) bool {
	return f.status.Get(kind)
}

// UpdateResourceStatus records the readiness of kind.
func (f *Factory) UpdateResourceStatus(kind resource.Type, ready bool) error {
	return f.status.Update(kind, ready)
}

// Statuses returns a copy of the readiness table.
func (f *Factory) Statuses() map[resource.Type]bool {
	return f.status.Snapshot()
}

func (f *Factory) begin(ctx context.Context, op Operation) (context.Context, Observer, *Report) {
	log := logr.FromContextOrDiscard(ctx).WithValues("run_id", f.runID, "operation", op)
	obs := f.observer
	if obs == nil {
		obs = NewLogObserver(log)
	}
	return logr.NewContext(ctx, log), obs, &Report{RunID: f.runID, Operation: op, Started: time.Now()}
}

// SetupResource provisions every registered kind in priority order
// [Storage, Queue, Notification, Cron] and records readiness per kind.
//
// A failing kind does not stop its siblings. Cron waits until Queue has
// recorded its outcome; if Queue did not become ready Cron is skipped, which
// shows in the report but not in the returned error. In parallel mode every
// kind starts at once and Cron still waits on Queue through the status table. The table is sealed when the run ends.
func (f *Factory) SetupResource(ctx context.Context) (*Report, error) {
	ctx, obs, report := f.begin(ctx, OpSetup)
	kinds := f.registry.Kinds()
	outcomes := make([]Outcome, len(kinds))

	var runErr error
	if f.cfg.Misc.Parallel {
		tasks := make([]async.Task, 0, len(kinds))
		for i, kind := range kinds {
			tasks = append(tasks, async.Task{
				Name: kind.String(),
				Func: func(ctx context.Context) error {
					outcomes[i] = f.setupKind(ctx, obs, kind)
					return nil
				},
			})
		}
		runErr = async.RunParallel(ctx, tasks)
	} else {
		for i, kind := range kinds {
			outcomes[i] = f.setupKind(ctx, obs, kind)
		}
	}

	for i := range outcomes {
		if outcomes[i].Kind == "" {
			outcomes[i] = Outcome{Kind: kinds[i], Err: fmt.Errorf("%s setup aborted", kinds[i])}
		}
	}
	f.status.Seal()

	report.Outcomes = outcomes
	report.Duration = time.Since(report.Started)
	f.metrics.MarkRun(time.Now())
	return report, errors.Join(report.Err(), runErr)
}

func (f *Factory) setupKind(ctx context.Context, obs Observer, kind resource.Type) Outcome {
	start := time.Now()
	out := Outcome{Kind: kind}
	LogPhaseStart(obs, kind, "setup")

	if err := f.awaitDependencies(ctx, kind); err != nil {
		out.Skipped, out.Err = true, err
		LogResourceSkipped(obs, kind, err)
	} else {
		out.Ready, out.Err = f.provision(ctx, obs, kind)
		if out.Err != nil {
			LogPhaseFailed(obs, kind, "setup", out.Err)
		}
	}
	out.Duration = time.Since(start)

	if err := f.status.Update(kind, out.Ready); err != nil {
		out.Err = errors.Join(out.Err, err)
	}
	if out.Err == nil {
		LogPhaseComplete(obs, kind, "setup", out.Ready, out.Duration)
	}

	f.metrics.ObserveKind(kind.String(), out.Ready, out.Duration)
	if reason := failureReason(out); reason != "" {
		f.metrics.RecordFailure(kind.String(), reason)
	}
	return out
}

// awaitDependencies blocks until every prerequisite of kind is ready.
//
// A prerequisite scheduled in this run is awaited until it records its
// outcome, bounded only by ctx: its own readiness poll already carries the
// timeout. A prerequisite outside the run can only be recorded through
// UpdateResourceStatus, so the status table is polled for it instead.
func (f *Factory) awaitDependencies(ctx context.Context, kind resource.Type) error {
	timeout := f.cfg.Misc.Timeout()
	scheduled := f.registry.Kinds()
	for _, dep := range dependencies[kind] {
		log := logr.FromContextOrDiscard(ctx).V(1).WithValues("kind", kind, "dependency", dep)
		if slices.Contains(scheduled, dep) {
			log.Info("waiting for dependency to finish")
			select {
			case <-f.status.Recorded(dep):
			case <-ctx.Done():
				return fmt.Errorf("waiting for %s: %w", dep, ctx.Err())
			}
			if !f.status.Get(dep) {
				return &resource.DependencyNotReadyError{Kind: kind, DependsOn: dep, Timeout: timeout}
			}
			continue
		}
		log.Info("polling for dependency")
		if !resource.Poll(ctx, f.status.Gate(kind), dep, f.cfg.Misc.PollInterval(), timeout) {
			return &resource.DependencyNotReadyError{Kind: kind, DependsOn: dep, Timeout: timeout}
		}
	}
	return nil
}

func (f *Factory) provision(ctx context.Context, obs Observer, kind resource.Type) (bool, error) {
	w, err := f.registry.CreateResource(kind, f.provider)
	if err != nil {
		return false, err
	}

	interval, timeout := f.cfg.Misc.PollInterval(), f.cfg.Misc.Timeout()
	var ready bool
	err = w.Match(Cases{
		Storage: func(s *s3.Storage) (err error) {
			ready, err = setupAndPoll(ctx, s, f.cfg.Storage, f.cfg.Storage.BucketName, interval, timeout)
			return err
		},
		Queue: func(q *sqs.Queue) (err error) {
			q.OnCreate = func(name string) {
				LogResourceCreated(obs, resource.Queue, name)
				f.metrics.QueueCreated()
			}
			ready, err = setupAndPoll(ctx, q, f.cfg.Queue, f.cfg.Queue, interval, timeout)
			return err
		},
		Notification: func(t *sns.Topic) (err error) {
			ready, err = setupAndPoll(ctx, t, f.cfg.Alert, f.cfg.Alert.Endpoint, interval, timeout)
			return err
		},
		Cron: func(c *eventbridge.Cron) (err error) {
			ready, err = setupAndPoll(ctx, c, f.cfg.Cron, f.cfg.Cron, interval, timeout)
			return err
		},
	})
	return ready, err
}

// setupAndPoll runs Setup and then gates readiness on Check.
func setupAndPoll[S, C any](ctx context.Context, r resource.Resource[S, C], setupArgs S, checkArgs C, interval, timeout time.Duration) (bool, error) {
	if err := r.Setup(ctx, setupArgs); err != nil {
		return false, err
	}
	return resource.Poll(ctx, r, checkArgs, interval, timeout), nil
}

func failureReason(o Outcome) string {
	switch {
	case o.Skipped:
		return "dependency_not_ready"
	case resource.IsConfiguration(o.Err):
		return "configuration"
	case resource.IsProvisioning(o.Err):
		return "provisioning"
	case o.Err != nil:
		return "error"
	case !o.Ready:
		return "not_ready"
	}
	return ""
}

// TeardownOptions selects what Teardown removes.
type TeardownOptions struct {
	// Kinds to remove; empty means every registered kind.
	Kinds []resource.Type
	// Queue is the catalog queue instance-scoped queue teardown deletes.
	Queue string
}

// Teardown removes the selected kinds, dependents first. Every kind is
// attempted; failures are joined. Queue is skipped under instance scope
// when opts names no queue.
func (f *Factory) Teardown(ctx context.Context, opts TeardownOptions) (*Report, error) {
	kinds, err := f.selectKinds(opts.Kinds)
	if err != nil {
		return nil, err
	}
	slices.Reverse(kinds)

	ctx, obs, report := f.begin(ctx, OpTeardown)
	for _, kind := range kinds {
		if reason := f.teardownSkip(kind, opts); reason != nil {
			LogResourceSkipped(obs, kind, reason)
			report.Outcomes = append(report.Outcomes, Outcome{Kind: kind, Skipped: true, Err: reason})
			continue
		}
		start := time.Now()
		LogResourceDeleting(obs, kind)
		err := f.teardownKind(ctx, kind, opts)
		out := Outcome{Kind: kind, Err: err, Duration: time.Since(start)}
		if err != nil {
			LogPhaseFailed(obs, kind, "teardown", err)
		} else {
			LogResourceDeleted(obs, kind, out.Duration)
		}
		report.Outcomes = append(report.Outcomes, out)
	}
	report.Duration = time.Since(report.Started)
	return report, report.Err()
}

// teardownSkip returns why kind is left in place, or nil. Instance-scoped
// queue teardown deletes only a named queue, so without one there is
// nothing to remove.
func (f *Factory) teardownSkip(kind resource.Type, opts TeardownOptions) error {
	if kind != resource.Queue || opts.Queue != "" {
		return nil
	}
	if scope := f.cfg.Queue.TeardownScope; scope != config.TeardownInstance && scope != "" {
		return nil
	}
	return resource.Configurationf(resource.Queue, "no queue named for instance teardown, pass one or use the catalog scope")
}

func (f *Factory) teardownKind(ctx context.Context, kind resource.Type, opts TeardownOptions) error {
	w, err := f.registry.CreateResource(kind, f.provider)
	if err != nil {
		return err
	}
	err = w.Match(Cases{
		Storage: func(s *s3.Storage) error {
			s.Bind(f.cfg.Storage)
			return nil
		},
		Queue: func(q *sqs.Queue) error {
			q.Bind(f.cfg.Queue)
			if opts.Queue == "" {
				return nil
			}
			return q.BindQueue(opts.Queue)
		},
		Notification: func(t *sns.Topic) error {
			t.Bind(f.cfg.Alert)
			return nil
		},
		Cron: func(c *eventbridge.Cron) error {
			c.Bind(f.cfg.Cron)
			return nil
		},
	})
	if err != nil {
		return err
	}
	return w.Teardown(ctx)
}

// Status runs a single Check per selected kind without changing anything.
func (f *Factory) Status(ctx context.Context, selected []resource.Type) (*Report, error) {
	kinds, err := f.selectKinds(selected)
	if err != nil {
		return nil, err
	}

	ctx, _, report := f.begin(ctx, OpStatus)
	for _, kind := range kinds {
		start := time.Now()
		ready, err := f.check(ctx, kind)
		report.Outcomes = append(report.Outcomes, Outcome{Kind: kind, Ready: ready, Err: err, Duration: time.Since(start)})
	}
	report.Duration = time.Since(report.Started)
	return report, report.Err()
}

func (f *Factory) check(ctx context.Context, kind resource.Type) (bool, error) {
	w, err := f.registry.CreateResource(kind, f.provider)
	if err != nil {
		return false, err
	}
	var ready bool
	err = w.Match(Cases{
		Storage: func(s *s3.Storage) (err error) {
			ready, err = s.Check(ctx, f.cfg.Storage.BucketName)
			return err
		},
		Queue: func(q *sqs.Queue) (err error) {
			ready, err = q.Check(ctx, f.cfg.Queue)
			return err
		},
		Notification: func(t *sns.Topic) (err error) {
			ready, err = t.Check(ctx, f.cfg.Alert.Endpoint)
			return err
		},
		Cron: func(c *eventbridge.Cron) (err error) {
			ready, err = c.Check(ctx, f.cfg.Cron)
			return err
		},
	})
	return ready, err
}

// selectKinds returns the requested kinds in priority order, or every
// registered kind when none are requested.
func (f *Factory) selectKinds(requested []resource.Type) ([]resource.Type, error) {
	registered := f.registry.Kinds()
	if len(requested) == 0 {
		return registered, nil
	}
	for _, k := range requested {
		if !slices.Contains(registered, k) {
			return nil, &resource.UnknownResourceTypeError{Value: k.String()}
		}
	}
	return slices.DeleteFunc(registered, func(k resource.Type) bool {
		return !slices.Contains(requested, k)
	}), nil
}

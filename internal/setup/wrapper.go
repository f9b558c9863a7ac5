package setup

import (
	"context"
	"fmt"

	"github.com/imamik/orchestrator/internal/cloud"
	"github.com/imamik/orchestrator/internal/platform/aws/eventbridge"
	"github.com/imamik/orchestrator/internal/platform/aws/s3"
	"github.com/imamik/orchestrator/internal/platform/aws/sns"
	"github.com/imamik/orchestrator/internal/platform/aws/sqs"
	"github.com/imamik/orchestrator/internal/resource"
)

// ResourceWrapper owns exactly one concrete resource, tagged with its kind.
// The tag is fixed by the Wrap constructor that built the wrapper; the zero
// value holds nothing.
type ResourceWrapper struct {
	kind     resource.Type
	provider *cloud.Provider

	storage      *s3.Storage
	queue        *sqs.Queue
	notification *sns.Topic
	cron         *eventbridge.Cron
}

// WrongKindError reports an unwrap that does not match the wrapper's tag.
type WrongKindError struct {
	Want resource.Type
	Got  resource.Type
}

func (e *WrongKindError) Error() string {
	return fmt.Sprintf("resource wrapper holds %q, not %q", e.Got, e.Want)
}

// WrapStorage wraps a storage resource.
func WrapStorage(p *cloud.Provider, s *s3.Storage) *ResourceWrapper {
	return &ResourceWrapper{kind: resource.Storage, provider: p, storage: s}
}

// WrapQueue wraps a queue resource.
func WrapQueue(p *cloud.Provider, q *sqs.Queue) *ResourceWrapper {
	return &ResourceWrapper{kind: resource.Queue, provider: p, queue: q}
}

// WrapNotification wraps a notification resource.
func WrapNotification(p *cloud.Provider, t *sns.Topic) *ResourceWrapper {
	return &ResourceWrapper{kind: resource.Notification, provider: p, notification: t}
}

// WrapCron wraps a cron resource.
func WrapCron(p *cloud.Provider, c *eventbridge.Cron) *ResourceWrapper {
	return &ResourceWrapper{kind: resource.Cron, provider: p, cron: c}
}

// Kind returns the wrapped kind.
func (w *ResourceWrapper) Kind() resource.Type { return w.kind }

// Provider returns the shared provider handle the resource was built from.
func (w *ResourceWrapper) Provider() *cloud.Provider { return w.provider }

// Storage unwraps a storage resource.
func (w *ResourceWrapper) Storage() (*s3.Storage, error) {
	if w.kind != resource.Storage || w.storage == nil {
		return nil, &WrongKindError{Want: resource.Storage, Got: w.kind}
	}
	return w.storage, nil
}

// Queue unwraps a queue resource.
func (w *ResourceWrapper) Queue() (*sqs.Queue, error) {
	if w.kind != resource.Queue || w.queue == nil {
		return nil, &WrongKindError{Want: resource.Queue, Got: w.kind}
	}
	return w.queue, nil
}

// Notification unwraps a notification resource.
func (w *ResourceWrapper) Notification() (*sns.Topic, error) {
	if w.kind != resource.Notification || w.notification == nil {
		return nil, &WrongKindError{Want: resource.Notification, Got: w.kind}
	}
	return w.notification, nil
}

// Cron unwraps a cron resource.
func (w *ResourceWrapper) Cron() (*eventbridge.Cron, error) {
	if w.kind != resource.Cron || w.cron == nil {
		return nil, &WrongKindError{Want: resource.Cron, Got: w.kind}
	}
	return w.cron, nil
}

// Cases holds one handler per variant for Match.
type Cases struct {
	Storage      func(*s3.Storage) error
	Queue        func(*sqs.Queue) error
	Notification func(*sns.Topic) error
	Cron         func(*eventbridge.Cron) error
}

// Match calls the handler for the wrapped variant. A missing handler or an
// empty wrapper is an error.
func (w *ResourceWrapper) Match(c Cases) error {
	switch {
	case w.storage != nil && c.Storage != nil:
		return c.Storage(w.storage)
	case w.queue != nil && c.Queue != nil:
		return c.Queue(w.queue)
	case w.notification != nil && c.Notification != nil:
		return c.Notification(w.notification)
	case w.cron != nil && c.Cron != nil:
		return c.Cron(w.cron)
	}
	return fmt.Errorf("no handler for resource kind %q", w.kind)
}

// Teardown removes whatever the wrapped resource owns.
func (w *ResourceWrapper) Teardown(ctx context.Context) error {
	return w.Match(Cases{
		Storage:      func(s *s3.Storage) error { return s.Teardown(ctx) },
		Queue:        func(q *sqs.Queue) error { return q.Teardown(ctx) },
		Notification: func(t *sns.Topic) error { return t.Teardown(ctx) },
		Cron:         func(c *eventbridge.Cron) error { return c.Teardown(ctx) },
	})
}

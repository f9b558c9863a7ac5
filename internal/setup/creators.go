package setup

import (
	"fmt"
	"slices"

	"github.com/imamik/orchestrator/internal/cloud"
	"github.com/imamik/orchestrator/internal/platform/aws/eventbridge"
	"github.com/imamik/orchestrator/internal/platform/aws/s3"
	"github.com/imamik/orchestrator/internal/platform/aws/sns"
	"github.com/imamik/orchestrator/internal/platform/aws/sqs"
	"github.com/imamik/orchestrator/internal/resource"
)

// Creator builds a wrapped resource from a provider.
type Creator interface {
	Create(p *cloud.Provider) (*ResourceWrapper, error)
}

// CreatorFunc adapts a function to the Creator interface.
type CreatorFunc func(p *cloud.Provider) (*ResourceWrapper, error)

// Create implements Creator.
func (f CreatorFunc) Create(p *cloud.Provider) (*ResourceWrapper, error) {
	return f(p)
}

// Registry maps each resource kind to its creator.
type Registry struct {
	creators map[resource.Type]Creator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{creators: map[resource.Type]Creator{}}
}

// DefaultRegistry returns a registry with the AWS creator of every kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(resource.Storage, CreatorFunc(func(p *cloud.Provider) (*ResourceWrapper, error) {
		s, err := s3.New(p)
		if err != nil {
			return nil, err
		}
		return WrapStorage(p, s), nil
	}))
	r.Register(resource.Queue, CreatorFunc(func(p *cloud.Provider) (*ResourceWrapper, error) {
		q, err := sqs.New(p)
		if err != nil {
			return nil, err
		}
		return WrapQueue(p, q), nil
	}))
	r.Register(resource.Notification, CreatorFunc(func(p *cloud.Provider) (*ResourceWrapper, error) {
		t, err := sns.New(p)
		if err != nil {
			return nil, err
		}
		return WrapNotification(p, t), nil
	}))
	r.Register(resource.Cron, CreatorFunc(func(p *cloud.Provider) (*ResourceWrapper, error) {
		c, err := eventbridge.New(p)
		if err != nil {
			return nil, err
		}
		return WrapCron(p, c), nil
	}))
	return r
}

// Register sets the creator for kind, replacing any previous one.
func (r *Registry) Register(kind resource.Type, c Creator) {
	r.creators[kind] = c
}

// Kinds returns the registered kinds in setup priority order.
func (r *Registry) Kinds() []resource.Type {
	return slices.DeleteFunc(slices.Clone(resource.Types), func(t resource.Type) bool {
		_, ok := r.creators[t]
		return !ok
	})
}

// CreateResource builds the resource registered for kind. The returned
// wrapper always carries kind as its tag.
func (r *Registry) CreateResource(kind resource.Type, p *cloud.Provider) (*ResourceWrapper, error) {
	c, ok := r.creators[kind]
	if !ok {
		return nil, &resource.UnknownResourceTypeError{Value: kind.String()}
	}
	w, err := c.Create(p)
	if err != nil {
		return nil, err
	}
	if w == nil || w.Kind() != kind {
		got := resource.Type("")
		if w != nil {
			got = w.Kind()
		}
		return nil, fmt.Errorf("creator for %s: %w", kind, &WrongKindError{Want: kind, Got: got})
	}
	return w, nil
}

// CreateResourceFromString builds a resource from a configuration-originated
// kind name.
func (r *Registry) CreateResourceFromString(name string, p *cloud.Provider) (*ResourceWrapper, error) {
	kind, err := resource.TypeFromString(name)
	if err != nil {
		return nil, err
	}
	return r.CreateResource(kind, p)
}

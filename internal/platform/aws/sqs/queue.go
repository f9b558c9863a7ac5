package sqs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/go-logr/logr"

	"github.com/imamik/orchestrator/internal/catalog"
	"github.com/imamik/orchestrator/internal/cloud"
	"github.com/imamik/orchestrator/internal/config"
	"github.com/imamik/orchestrator/internal/resource"
	"github.com/imamik/orchestrator/internal/util/naming"
)

// Queue is the queue catalog resource.
type Queue struct {
	api   API
	specs []catalog.QueueSpec

	args     config.QueueArgs
	boundURL string

	// OnCreate, when set, is called after each queue is created.
	OnCreate func(name string)
}

var _ resource.Resource[config.QueueArgs, config.QueueArgs] = (*Queue)(nil)

// New builds a Queue resource over the default catalog. The provider must be AWS.
func New(p *cloud.Provider) (*Queue, error) {
	cfg, err := p.AWSConfig(resource.Queue)
	if err != nil {
		return nil, err
	}
	return NewWithAPI(sqs.NewFromConfig(cfg), catalog.Queues()), nil
}

// NewWithAPI builds a Queue resource over an explicit client and catalog.
func NewWithAPI(api API, specs []catalog.QueueSpec) *Queue {
	return &Queue{api: api, specs: specs}
}

// Specs returns the catalog this resource provisions.
func (q *Queue) Specs() []catalog.QueueSpec {
	return slices.Clone(q.specs)
}

// Bind records the arguments teardown operates with.
func (q *Queue) Bind(args config.QueueArgs) {
	q.args = args
}

// BindQueue binds the instance to one catalog queue for instance-scoped
// teardown.
func (q *Queue) BindQueue(specName string) error {
	if !slices.ContainsFunc(q.specs, func(s catalog.QueueSpec) bool { return s.Name == specName }) {
		return resource.Configurationf(resource.Queue, "queue %q is not in the catalog", specName)
	}
	q.boundURL = q.guessURL(q.args, specName)
	return nil
}

// BoundURL returns the queue URL instance-scoped teardown deletes.
func (q *Queue) BoundURL() string { return q.boundURL }

func (q *Queue) guessURL(args config.QueueArgs, specName string) string {
	return naming.QueueURL(args.QueueBaseURL, naming.Queue(args.Prefix, specName, args.Suffix))
}

// Setup creates every catalog queue that does not exist yet, in catalog order.
// The first failure aborts the remaining queues.
func (q *Queue) Setup(ctx context.Context, args config.QueueArgs) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("kind", resource.Queue)
	q.Bind(args)

	if err := catalog.ValidateQueues(q.specs); err != nil {
		return &resource.ConfigurationError{Kind: resource.Queue, Reason: "invalid queue catalog", Err: err}
	}

	for _, spec := range q.specs {
		if err := q.ensure(ctx, log, args, spec); err != nil {
			return err
		}
	}
	return nil
}

func (q *Queue) ensure(ctx context.Context, log logr.Logger, args config.QueueArgs, spec catalog.QueueSpec) error {
	name := naming.Queue(args.Prefix, spec.Name, args.Suffix)
	log = log.WithValues("queue", name)
	provErr := func(op string, err error) error {
		return &resource.ProvisioningError{Kind: resource.Queue, Op: op, Name: name, BaseURL: args.QueueBaseURL, Err: err}
	}

	exists, err := Exists(ctx, q.api, naming.QueueURL(args.QueueBaseURL, name))
	if err != nil {
		return provErr("probe queue", err)
	}
	if exists {
		log.Info("queue already exists, skipping")
		return nil
	}

	log.Info("creating queue")
	out, err := q.api.CreateQueue(ctx, &sqs.CreateQueueInput{QueueName: aws.String(name)})
	if err != nil {
		return provErr("create queue", err)
	}
	// The returned URL is authoritative; it may differ from the guess.
	queueURL := aws.ToString(out.QueueUrl)
	if queueURL == "" {
		return provErr("create queue", errors.New("response carried no queue url"))
	}

	attrs := map[string]string{
		string(types.QueueAttributeNameVisibilityTimeout): strconv.Itoa(spec.VisibilityTimeout),
	}
	if spec.DLQ != nil {
		policy, err := q.redrive(ctx, args, spec.DLQ)
		if err != nil {
			return provErr("resolve dead-letter queue", err)
		}
		attrs[string(types.QueueAttributeNameRedrivePolicy)] = policy
	}

	if _, err := q.api.SetQueueAttributes(ctx, &sqs.SetQueueAttributesInput{
		QueueUrl:   aws.String(queueURL),
		Attributes: attrs,
	}); err != nil {
		return provErr("set queue attributes", err)
	}

	if q.OnCreate != nil {
		q.OnCreate(name)
	}
	log.Info("queue created", "url", queueURL, "dlq", spec.DLQ != nil)
	return nil
}

func (q *Queue) redrive(ctx context.Context, args config.QueueArgs, dlq *catalog.DlqConfig) (string, error) {
	dlqName := naming.Queue(args.Prefix, dlq.Name, args.Suffix)
	dlqURL, err := LookupURL(ctx, q.api, dlqName)
	if err != nil {
		return "", err
	}
	dlqARN, err := LookupARN(ctx, q.api, dlqURL)
	if err != nil {
		return "", err
	}
	return RedrivePolicy(dlqARN, dlq.MaxReceiveCount)
}

// Check reports whether every catalog queue exists at its expected URL.
func (q *Queue) Check(ctx context.Context, args config.QueueArgs) (bool, error) {
	for _, spec := range q.specs {
		ok, err := Exists(ctx, q.api, q.guessURL(args, spec.Name))
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Teardown deletes queues according to the bound teardown scope: the bound
// queue only, or the whole catalog. Queues that are already gone are skipped.
func (q *Queue) Teardown(ctx context.Context) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("kind", resource.Queue)

	switch q.args.TeardownScope {
	case config.TeardownCatalog:
		return q.teardownCatalog(ctx, log)
	case config.TeardownInstance, "":
		if q.boundURL == "" {
			return resource.Configurationf(resource.Queue, "no queue bound for instance teardown")
		}
		return q.delete(ctx, log, q.boundURL)
	}
	return resource.Configurationf(resource.Queue, "unknown teardown scope %q", q.args.TeardownScope)
}

func (q *Queue) teardownCatalog(ctx context.Context, log logr.Logger) error {
	var errs []error
	// Reverse catalog order removes DLQ users before their DLQ.
	for i := len(q.specs) - 1; i >= 0; i-- {
		name := naming.Queue(q.args.Prefix, q.specs[i].Name, q.args.Suffix)
		queueURL, err := LookupURL(ctx, q.api, name)
		if err != nil {
			if IsNotExist(err) {
				log.V(1).Info("queue already deleted", "queue", name)
				continue
			}
			errs = append(errs, &resource.ProvisioningError{Kind: resource.Queue, Op: "resolve queue", Name: name, BaseURL: q.args.QueueBaseURL, Err: err})
			continue
		}
		if err := q.delete(ctx, log, queueURL); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (q *Queue) delete(ctx context.Context, log logr.Logger, queueURL string) error {
	_, err := q.api.DeleteQueue(ctx, &sqs.DeleteQueueInput{QueueUrl: aws.String(queueURL)})
	if err != nil {
		if IsNotExist(err) {
			log.V(1).Info("queue already deleted", "url", queueURL)
			return nil
		}
		return &resource.ProvisioningError{Kind: resource.Queue, Op: "delete queue", Name: queueURL, BaseURL: q.args.QueueBaseURL, Err: err}
	}
	log.Info("queue deleted", "url", queueURL)
	return nil
}

func (q *Queue) String() string {
	return fmt.Sprintf("queue(%d specs)", len(q.specs))
}

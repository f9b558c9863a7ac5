package eventbridge

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	schedtypes "github.com/aws/aws-sdk-go-v2/service/scheduler/types"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/orchestrator/internal/catalog"
	"github.com/imamik/orchestrator/internal/cloud"
	"github.com/imamik/orchestrator/internal/config"
	"github.com/imamik/orchestrator/internal/platform/aws/sqs"
	"github.com/imamik/orchestrator/internal/resource"
	"github.com/imamik/orchestrator/internal/util/naming"
)

// targetNamespace seeds the UUIDv5 target ids so that re-running setup
// upserts the same target instead of adding another.
var targetNamespace = uuid.MustParse("6f1c2f0e-8a0b-5d3e-9a57-2b9c4d1e7f30")

// Clients bundles the service clients the Cron resource needs.
type Clients struct {
	Events    EventsAPI
	Scheduler SchedulerAPI
	IAM       IAMAPI
	Queues    sqs.API
}

// Cron is the periodic trigger resource.
type Cron struct {
	clients  Clients
	triggers []catalog.WorkerTriggerType
	args     config.CronArgs

	// Role readiness polling before the settle delay.
	rolePollInterval time.Duration
	rolePollTimeout  time.Duration
	teardownRetry    time.Duration
}

var _ resource.Resource[config.CronArgs, config.CronArgs] = (*Cron)(nil)

// Infra is the shared trigger infrastructure created once per setup.
type Infra struct {
	QueueURL  string
	QueueARN  string
	RoleARN   string
	PolicyARN string
}

// New builds a Cron resource for every worker trigger. The provider must be AWS.
func New(p *cloud.Provider) (*Cron, error) {
	cfg, err := p.AWSConfig(resource.Cron)
	if err != nil {
		return nil, err
	}
	return NewWithClients(Clients{
		Events:    eventbridge.NewFromConfig(cfg),
		Scheduler: scheduler.NewFromConfig(cfg),
		IAM:       iam.NewFromConfig(cfg),
		Queues:    awssqs.NewFromConfig(cfg),
	}, catalog.WorkerTriggers()), nil
}

// NewWithClients builds a Cron resource over explicit clients.
func NewWithClients(c Clients, triggers []catalog.WorkerTriggerType) *Cron {
	return &Cron{
		clients:          c,
		triggers:         triggers,
		rolePollInterval: time.Second,
		rolePollTimeout:  30 * time.Second,
		teardownRetry:    2 * time.Second,
	}
}

// Bind records the arguments check-less operations like teardown use.
func (c *Cron) Bind(args config.CronArgs) {
	c.args = args
}

// TriggerNames returns the per-worker rule or schedule names for a rule name.
func (c *Cron) TriggerNames(ruleName string) []string {
	names := make([]string, 0, len(c.triggers))
	for _, t := range c.triggers {
		names = append(names, naming.Trigger(ruleName, t.String()))
	}
	return names
}

// TargetID returns the deterministic EventBridge target id for a trigger.
func TargetID(triggerName string) string {
	return uuid.NewSHA1(targetNamespace, []byte(triggerName)).String()
}

// Setup creates the trigger infrastructure, waits for it to settle and then
// attaches every worker trigger. Any attach failure fails the whole setup.
func (c *Cron) Setup(ctx context.Context, args config.CronArgs) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("kind", resource.Cron, "mode", args.EventBridgeType)
	c.Bind(args)

	period, err := args.Period()
	if err != nil {
		return &resource.ConfigurationError{Kind: resource.Cron, Reason: "invalid cron_time", Err: err}
	}
	rate, err := RateExpression(period)
	if err != nil {
		return &resource.ConfigurationError{Kind: resource.Cron, Reason: "invalid cron_time", Err: err}
	}
	if args.EventBridgeType != config.EventBridgeRule && args.EventBridgeType != config.EventBridgeSchedule {
		return resource.Configurationf(resource.Cron, "unknown event bridge type %q", args.EventBridgeType)
	}

	infra, err := c.CreateInfra(ctx, args)
	if err != nil {
		return err
	}

	if err := c.settle(ctx, log, args); err != nil {
		return err
	}

	for _, t := range c.triggers {
		name := naming.Trigger(args.TriggerRuleName, t.String())
		if err := c.attach(ctx, args.EventBridgeType, name, t, rate, infra); err != nil {
			return &resource.ProvisioningError{Kind: resource.Cron, Op: "attach trigger", Name: name, Err: err}
		}
		log.Info("trigger attached", "trigger", name, "schedule", rate)
	}
	return nil
}

// CreateInfra resolves the target queue and ensures the role, its policy and,
// in rule mode, the queue policy.
func (c *Cron) CreateInfra(ctx context.Context, args config.CronArgs) (*Infra, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("kind", resource.Cron)
	provErr := func(op, name string, err error) error {
		return &resource.ProvisioningError{Kind: resource.Cron, Op: op, Name: name, Err: err}
	}

	queueURL, err := sqs.LookupURL(ctx, c.clients.Queues, args.TargetQueueName)
	if err != nil {
		return nil, provErr("resolve target queue", args.TargetQueueName, err)
	}
	queueARN, err := sqs.LookupARN(ctx, c.clients.Queues, queueURL)
	if err != nil {
		return nil, provErr("resolve target queue", args.TargetQueueName, err)
	}
	infra := &Infra{QueueURL: queueURL, QueueARN: queueARN}

	infra.RoleARN, err = c.ensureRole(ctx, log, args.TriggerRoleName)
	if err != nil {
		return nil, provErr("create role", args.TriggerRoleName, err)
	}
	infra.PolicyARN, err = c.ensurePolicy(ctx, log, args.TriggerPolicyName, queueARN)
	if err != nil {
		return nil, provErr("create policy", args.TriggerPolicyName, err)
	}
	if _, err := c.clients.IAM.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  aws.String(args.TriggerRoleName),
		PolicyArn: aws.String(infra.PolicyARN),
	}); err != nil {
		return nil, provErr("attach policy", args.TriggerPolicyName, err)
	}

	if args.EventBridgeType == config.EventBridgeRule {
		doc, err := queuePolicy(queueARN, args.TriggerRuleName)
		if err != nil {
			return nil, provErr("set queue policy", args.TargetQueueName, err)
		}
		if _, err := c.clients.Queues.SetQueueAttributes(ctx, &awssqs.SetQueueAttributesInput{
			QueueUrl:   aws.String(queueURL),
			Attributes: map[string]string{"Policy": doc},
		}); err != nil {
			return nil, provErr("set queue policy", args.TargetQueueName, err)
		}
	}

	log.Info("trigger infrastructure ready", "role", infra.RoleARN, "policy", infra.PolicyARN, "queue", queueARN)
	return infra, nil
}

func (c *Cron) ensureRole(ctx context.Context, log logr.Logger, name string) (string, error) {
	doc, err := trustPolicy()
	if err != nil {
		return "", err
	}
	out, err := c.clients.IAM.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(name),
		AssumeRolePolicyDocument: aws.String(doc),
		Description:              aws.String("Allows periodic worker triggers to deliver to the trigger queue"),
	})
	if err == nil {
		log.Info("role created", "role", name)
		return aws.ToString(out.Role.Arn), nil
	}
	if !isEntityExists(err) {
		return "", err
	}

	got, err := c.clients.IAM.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(name)})
	if err != nil {
		return "", err
	}
	log.Info("role already exists", "role", name)
	return aws.ToString(got.Role.Arn), nil
}

func (c *Cron) ensurePolicy(ctx context.Context, log logr.Logger, name, queueARN string) (string, error) {
	doc, err := sendPolicy(queueARN)
	if err != nil {
		return "", err
	}

	existing, err := c.findPolicy(ctx, name)
	if err != nil {
		return "", err
	}
	if existing != "" {
		if err := c.syncPolicy(ctx, log, name, existing, doc); err != nil {
			return "", err
		}
		return existing, nil
	}

	out, err := c.clients.IAM.CreatePolicy(ctx, &iam.CreatePolicyInput{
		PolicyName:     aws.String(name),
		PolicyDocument: aws.String(doc),
	})
	if err != nil {
		return "", err
	}
	log.Info("policy created", "policy", name)
	return aws.ToString(out.Policy.Arn), nil
}

// syncPolicy makes doc the default version of an existing policy whose
// default version grants something else, such as a previous target queue.
func (c *Cron) syncPolicy(ctx context.Context, log logr.Logger, name, policyARN, doc string) error {
	p, err := c.clients.IAM.GetPolicy(ctx, &iam.GetPolicyInput{PolicyArn: aws.String(policyARN)})
	if err != nil {
		return err
	}
	if p.Policy == nil {
		return fmt.Errorf("policy %s has no metadata", name)
	}
	v, err := c.clients.IAM.GetPolicyVersion(ctx, &iam.GetPolicyVersionInput{
		PolicyArn: aws.String(policyARN),
		VersionId: p.Policy.DefaultVersionId,
	})
	if err != nil {
		return err
	}
	if v.PolicyVersion == nil {
		return fmt.Errorf("policy %s has no default version", name)
	}
	// IAM returns documents URL-encoded.
	current, err := url.PathUnescape(aws.ToString(v.PolicyVersion.Document))
	if err != nil {
		return fmt.Errorf("failed to decode policy document: %w", err)
	}
	if samePolicy(current, doc) {
		log.Info("policy already exists", "policy", name)
		return nil
	}

	if err := c.pruneVersions(ctx, policyARN, maxPolicyVersions-1); err != nil {
		return err
	}
	if _, err := c.clients.IAM.CreatePolicyVersion(ctx, &iam.CreatePolicyVersionInput{
		PolicyArn:      aws.String(policyARN),
		PolicyDocument: aws.String(doc),
		SetAsDefault:   true,
	}); err != nil {
		return err
	}
	log.Info("policy updated", "policy", name, "previous_version", aws.ToString(p.Policy.DefaultVersionId))
	return nil
}

// pruneVersions deletes the oldest non-default versions of a policy until at
// most limit versions remain.
func (c *Cron) pruneVersions(ctx context.Context, policyARN string, limit int) error {
	out, err := c.clients.IAM.ListPolicyVersions(ctx, &iam.ListPolicyVersionsInput{PolicyArn: aws.String(policyARN)})
	if err != nil {
		return err
	}
	var stale []iamtypes.PolicyVersion
	for _, v := range out.Versions {
		if !v.IsDefaultVersion {
			stale = append(stale, v)
		}
	}
	slices.SortFunc(stale, func(a, b iamtypes.PolicyVersion) int {
		return aws.ToTime(a.CreateDate).Compare(aws.ToTime(b.CreateDate))
	})

	excess := len(out.Versions) - limit
	for i := 0; i < excess && i < len(stale); i++ {
		if _, err := c.clients.IAM.DeletePolicyVersion(ctx, &iam.DeletePolicyVersionInput{
			PolicyArn: aws.String(policyARN),
			VersionId: stale[i].VersionId,
		}); err != nil && !isNoSuchEntity(err) {
			return err
		}
	}
	return nil
}

// findPolicy returns the ARN of the customer managed policy with this name, or "".
func (c *Cron) findPolicy(ctx context.Context, name string) (string, error) {
	paginator := iam.NewListPoliciesPaginator(c.clients.IAM, &iam.ListPoliciesInput{Scope: iamtypes.PolicyScopeTypeLocal})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list policies: %w", err)
		}
		for _, p := range page.Policies {
			if aws.ToString(p.PolicyName) == name {
				return aws.ToString(p.Arn), nil
			}
		}
	}
	return "", nil
}

// settle waits until the role is readable and then for the configured delay.
// IAM offers no readiness signal for a role being assumable, so the delay
// stays after the existence poll.
func (c *Cron) settle(ctx context.Context, log logr.Logger, args config.CronArgs) error {
	roleReady := resource.CheckFunc[string](func(ctx context.Context, name string) (bool, error) {
		_, err := c.clients.IAM.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(name)})
		if isNoSuchEntity(err) {
			return false, nil
		}
		return err == nil, err
	})
	if !resource.Poll(ctx, roleReady, args.TriggerRoleName, c.rolePollInterval, c.rolePollTimeout) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return &resource.ProvisioningError{Kind: resource.Cron, Op: "wait for role", Name: args.TriggerRoleName,
			Err: fmt.Errorf("role not readable within %s", c.rolePollTimeout)}
	}

	delay := args.SettleDelay()
	if delay <= 0 {
		return nil
	}
	log.Info("waiting for trigger infrastructure to settle", "delay", delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Cron) attach(ctx context.Context, mode config.EventBridgeType, name string, trigger catalog.WorkerTriggerType, rate string, infra *Infra) error {
	if mode == config.EventBridgeSchedule {
		return c.attachSchedule(ctx, name, trigger, rate, infra)
	}
	return c.attachRule(ctx, name, trigger, rate, infra)
}

func (c *Cron) attachRule(ctx context.Context, name string, trigger catalog.WorkerTriggerType, rate string, infra *Infra) error {
	if _, err := c.clients.Events.PutRule(ctx, &eventbridge.PutRuleInput{
		Name:               aws.String(name),
		ScheduleExpression: aws.String(rate),
		State:              ebtypes.RuleStateEnabled,
		Description:        aws.String("Periodic " + trigger.String() + " worker trigger"),
	}); err != nil {
		return fmt.Errorf("failed to put rule: %w", err)
	}

	out, err := c.clients.Events.PutTargets(ctx, &eventbridge.PutTargetsInput{
		Rule: aws.String(name),
		Targets: []ebtypes.Target{{
			Id:  aws.String(TargetID(name)),
			Arn: aws.String(infra.QueueARN),
			// A plain-text template makes the message body the bare worker name.
			InputTransformer: &ebtypes.InputTransformer{InputTemplate: aws.String(trigger.String())},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to put targets: %w", err)
	}
	if out.FailedEntryCount > 0 && len(out.FailedEntries) > 0 {
		e := out.FailedEntries[0]
		return fmt.Errorf("failed to put target %s: %s: %s", aws.ToString(e.TargetId), aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage))
	}
	return nil
}

func (c *Cron) attachSchedule(ctx context.Context, name string, trigger catalog.WorkerTriggerType, rate string, infra *Infra) error {
	target := &schedtypes.Target{
		Arn:     aws.String(infra.QueueARN),
		RoleArn: aws.String(infra.RoleARN),
		Input:   aws.String(trigger.String()),
	}
	window := &schedtypes.FlexibleTimeWindow{Mode: schedtypes.FlexibleTimeWindowModeOff}

	_, err := c.clients.Scheduler.CreateSchedule(ctx, &scheduler.CreateScheduleInput{
		Name:               aws.String(name),
		ScheduleExpression: aws.String(rate),
		FlexibleTimeWindow: window,
		Target:             target,
		State:              schedtypes.ScheduleStateEnabled,
	})
	if err == nil {
		return nil
	}
	if !isScheduleConflict(err) {
		return fmt.Errorf("failed to create schedule: %w", err)
	}

	if _, err := c.clients.Scheduler.UpdateSchedule(ctx, &scheduler.UpdateScheduleInput{
		Name:               aws.String(name),
		ScheduleExpression: aws.String(rate),
		FlexibleTimeWindow: window,
		Target:             target,
		State:              schedtypes.ScheduleStateEnabled,
	}); err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return nil
}

// Check reports whether every worker trigger exists.
func (c *Cron) Check(ctx context.Context, args config.CronArgs) (bool, error) {
	for _, name := range c.TriggerNames(args.TriggerRuleName) {
		var err error
		if args.EventBridgeType == config.EventBridgeSchedule {
			_, err = c.clients.Scheduler.GetSchedule(ctx, &scheduler.GetScheduleInput{Name: aws.String(name)})
			if isScheduleNotFound(err) {
				return false, nil
			}
		} else {
			_, err = c.clients.Events.DescribeRule(ctx, &eventbridge.DescribeRuleInput{Name: aws.String(name)})
			if isRuleNotFound(err) {
				return false, nil
			}
		}
		if err != nil {
			return false, fmt.Errorf("failed to check trigger %s: %w", name, err)
		}
	}
	return true, nil
}

// Teardown removes the triggers, then the policy and role. Missing entities
// are skipped; every step is attempted and failures are joined.
func (c *Cron) Teardown(ctx context.Context) error {
	args := c.args
	if args.TriggerRuleName == "" {
		return resource.Configurationf(resource.Cron, "no trigger rule bound for teardown")
	}
	log := logr.FromContextOrDiscard(ctx).WithValues("kind", resource.Cron, "mode", args.EventBridgeType)

	var errs []error
	for _, name := range c.TriggerNames(args.TriggerRuleName) {
		var err error
		if args.EventBridgeType == config.EventBridgeSchedule {
			err = c.deleteSchedule(ctx, name)
		} else {
			err = c.deleteRule(ctx, name)
		}
		if err != nil {
			errs = append(errs, &resource.ProvisioningError{Kind: resource.Cron, Op: "delete trigger", Name: name, Err: err})
			continue
		}
		log.Info("trigger deleted", "trigger", name)
	}

	if err := c.deleteRoleAndPolicy(ctx, log, args); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Cron) deleteRule(ctx context.Context, name string) error {
	out, err := c.clients.Events.ListTargetsByRule(ctx, &eventbridge.ListTargetsByRuleInput{Rule: aws.String(name)})
	if err != nil {
		if isRuleNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to list targets: %w", err)
	}

	ids := make([]string, 0, len(out.Targets))
	for _, t := range out.Targets {
		ids = append(ids, aws.ToString(t.Id))
	}
	if len(ids) > 0 {
		if _, err := c.clients.Events.RemoveTargets(ctx, &eventbridge.RemoveTargetsInput{
			Rule: aws.String(name),
			Ids:  ids,
		}); err != nil && !isRuleNotFound(err) {
			return fmt.Errorf("failed to remove targets: %w", err)
		}
	}

	if _, err := c.clients.Events.DeleteRule(ctx, &eventbridge.DeleteRuleInput{Name: aws.String(name)}); err != nil && !isRuleNotFound(err) {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	return nil
}

func (c *Cron) deleteSchedule(ctx context.Context, name string) error {
	_, err := c.clients.Scheduler.DeleteSchedule(ctx, &scheduler.DeleteScheduleInput{Name: aws.String(name)})
	if err != nil && !isScheduleNotFound(err) {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}

// Triggers returns the worker trigger types this resource manages.
func (c *Cron) Triggers() []catalog.WorkerTriggerType {
	return slices.Clone(c.triggers)
}

package sns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"
	"github.com/go-logr/logr"

	"github.com/imamik/orchestrator/internal/cloud"
	"github.com/imamik/orchestrator/internal/config"
	"github.com/imamik/orchestrator/internal/resource"
)

// API is the subset of the SNS client used here.
type API interface {
	sns.ListTopicsAPIClient
	GetTopicAttributes(ctx context.Context, params *sns.GetTopicAttributesInput, optFns ...func(*sns.Options)) (*sns.GetTopicAttributesOutput, error)
	CreateTopic(ctx context.Context, params *sns.CreateTopicInput, optFns ...func(*sns.Options)) (*sns.CreateTopicOutput, error)
	DeleteTopic(ctx context.Context, params *sns.DeleteTopicInput, optFns ...func(*sns.Options)) (*sns.DeleteTopicOutput, error)
}

var _ API = (*sns.Client)(nil)

// Topic is the alerting topic resource.
type Topic struct {
	api      API
	endpoint string
}

var _ resource.Resource[config.AlertArgs, string] = (*Topic)(nil)

// New builds a Topic resource. The provider must be AWS.
func New(p *cloud.Provider) (*Topic, error) {
	cfg, err := p.AWSConfig(resource.Notification)
	if err != nil {
		return nil, err
	}
	return NewWithAPI(sns.NewFromConfig(cfg)), nil
}

// NewWithAPI builds a Topic resource over an explicit client.
func NewWithAPI(api API) *Topic {
	return &Topic{api: api}
}

// Bind records the endpoint teardown operates on.
func (t *Topic) Bind(args config.AlertArgs) {
	t.endpoint = args.Endpoint
}

// TopicName returns the topic name an endpoint refers to.
func TopicName(endpoint string) (string, error) {
	if !arn.IsARN(endpoint) {
		if endpoint == "" {
			return "", errors.New("empty topic endpoint")
		}
		return endpoint, nil
	}
	parsed, err := arn.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid topic arn %q: %w", endpoint, err)
	}
	if parsed.Service != "sns" || parsed.Resource == "" {
		return "", fmt.Errorf("arn %q is not an SNS topic", endpoint)
	}
	return parsed.Resource, nil
}

// Setup creates the topic unless it already exists.
func (t *Topic) Setup(ctx context.Context, args config.AlertArgs) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("kind", resource.Notification, "endpoint", args.Endpoint)
	t.Bind(args)

	name, err := TopicName(args.Endpoint)
	if err != nil {
		return &resource.ConfigurationError{Kind: resource.Notification, Reason: "invalid alert endpoint", Err: err}
	}

	exists, err := t.Check(ctx, args.Endpoint)
	if err != nil {
		return &resource.ProvisioningError{Kind: resource.Notification, Op: "check topic", Name: name, Err: err}
	}
	if exists {
		log.Info("topic already exists, skipping")
		return nil
	}

	log.Info("creating topic", "topic", name)
	out, err := t.api.CreateTopic(ctx, &sns.CreateTopicInput{Name: aws.String(name)})
	if err != nil {
		return &resource.ProvisioningError{Kind: resource.Notification, Op: "create topic", Name: name, Err: err}
	}
	log.Info("topic created", "arn", aws.ToString(out.TopicArn))
	return nil
}

// Check reports whether the topic an endpoint refers to exists.
func (t *Topic) Check(ctx context.Context, endpoint string) (bool, error) {
	topicARN, err := t.resolve(ctx, endpoint)
	if err != nil {
		return false, err
	}
	return topicARN != "", nil
}

// resolve returns the ARN of an existing topic, or "" when it does not exist.
func (t *Topic) resolve(ctx context.Context, endpoint string) (string, error) {
	if arn.IsARN(endpoint) {
		_, err := t.api.GetTopicAttributes(ctx, &sns.GetTopicAttributesInput{TopicArn: aws.String(endpoint)})
		if err != nil {
			if isNotFound(err) {
				return "", nil
			}
			return "", fmt.Errorf("failed to get topic attributes %s: %w", endpoint, err)
		}
		return endpoint, nil
	}

	paginator := sns.NewListTopicsPaginator(t.api, &sns.ListTopicsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list topics: %w", err)
		}
		for _, topic := range page.Topics {
			a := aws.ToString(topic.TopicArn)
			if strings.HasSuffix(a, ":"+endpoint) {
				return a, nil
			}
		}
	}
	return "", nil
}

// Teardown deletes the bound topic. A missing topic is not an error.
func (t *Topic) Teardown(ctx context.Context) error {
	if t.endpoint == "" {
		return resource.Configurationf(resource.Notification, "no topic bound for teardown")
	}
	log := logr.FromContextOrDiscard(ctx).WithValues("kind", resource.Notification, "endpoint", t.endpoint)

	topicARN, err := t.resolve(ctx, t.endpoint)
	if err != nil {
		return &resource.ProvisioningError{Kind: resource.Notification, Op: "resolve topic", Name: t.endpoint, Err: err}
	}
	if topicARN == "" {
		log.V(1).Info("topic already deleted")
		return nil
	}

	if _, err := t.api.DeleteTopic(ctx, &sns.DeleteTopicInput{TopicArn: aws.String(topicARN)}); err != nil && !isNotFound(err) {
		return &resource.ProvisioningError{Kind: resource.Notification, Op: "delete topic", Name: topicARN, Err: err}
	}
	log.Info("topic deleted", "arn", topicARN)
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFoundException
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound"
}

package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
)

// API is the subset of the SQS client used here.
type API interface {
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	SetQueueAttributes(ctx context.Context, params *sqs.SetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.SetQueueAttributesOutput, error)
	DeleteQueue(ctx context.Context, params *sqs.DeleteQueueInput, optFns ...func(*sqs.Options)) (*sqs.DeleteQueueOutput, error)
}

var _ API = (*sqs.Client)(nil)

// Exists probes a queue URL with an attribute fetch.
func Exists(ctx context.Context, api API, queueURL string) (bool, error) {
	_, err := api.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(queueURL),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameQueueArn},
	})
	if err != nil {
		if IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to probe queue %s: %w", queueURL, err)
	}
	return true, nil
}

// LookupURL resolves a queue name to its URL.
func LookupURL(ctx context.Context, api API, name string) (string, error) {
	out, err := api.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(name)})
	if err != nil {
		return "", fmt.Errorf("failed to get url of queue %s: %w", name, err)
	}
	if aws.ToString(out.QueueUrl) == "" {
		return "", fmt.Errorf("no url returned for queue %s", name)
	}
	return aws.ToString(out.QueueUrl), nil
}

// LookupARN resolves a queue URL to its ARN.
func LookupARN(ctx context.Context, api API, queueURL string) (string, error) {
	out, err := api.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(queueURL),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameQueueArn},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get arn of queue %s: %w", queueURL, err)
	}
	arn := out.Attributes[string(types.QueueAttributeNameQueueArn)]
	if arn == "" {
		return "", fmt.Errorf("no arn returned for queue %s", queueURL)
	}
	return arn, nil
}

// redrivePolicy is the RedrivePolicy attribute document. SQS expects
// maxReceiveCount as a string.
type redrivePolicy struct {
	DeadLetterTargetArn string `json:"deadLetterTargetArn"`
	MaxReceiveCount     string `json:"maxReceiveCount"`
}

// RedrivePolicy renders the redrive attribute binding a queue to its DLQ.
func RedrivePolicy(dlqARN string, maxReceiveCount int) (string, error) {
	b, err := json.Marshal(redrivePolicy{
		DeadLetterTargetArn: dlqARN,
		MaxReceiveCount:     fmt.Sprint(maxReceiveCount),
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IsNotExist reports whether err means the queue does not exist.
func IsNotExist(err error) bool {
	if err == nil {
		return false
	}
	var qdne *types.QueueDoesNotExist
	if errors.As(err, &qdne) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AWS.SimpleQueueService.NonExistentQueue", "QueueDoesNotExist":
			return true
		}
	}
	return false
}

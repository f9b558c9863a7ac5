package eventbridge

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
)

const policyVersion = "2012-10-17"

// maxPolicyVersions is the IAM limit of stored versions per managed policy.
const maxPolicyVersions = 5

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Sid       string                       `json:"Sid,omitempty"`
	Effect    string                       `json:"Effect"`
	Principal map[string]any               `json:"Principal,omitempty"`
	Action    string                       `json:"Action"`
	Resource  string                       `json:"Resource,omitempty"`
	Condition map[string]map[string]string `json:"Condition,omitempty"`
}

func render(doc policyDocument) (string, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// samePolicy reports whether two policy documents are equal as JSON values.
func samePolicy(a, b string) bool {
	var x, y any
	if json.Unmarshal([]byte(a), &x) != nil || json.Unmarshal([]byte(b), &y) != nil {
		return false
	}
	return reflect.DeepEqual(x, y)
}

// trustPolicy lets both trigger services assume the role.
func trustPolicy() (string, error) {
	return render(policyDocument{
		Version: policyVersion,
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string]any{"Service": []string{"events.amazonaws.com", "scheduler.amazonaws.com"}},
			Action:    "sts:AssumeRole",
		}},
	})
}

// sendPolicy allows sending to the target queue.
func sendPolicy(queueARN string) (string, error) {
	return render(policyDocument{
		Version: policyVersion,
		Statement: []policyStatement{{
			Effect:   "Allow",
			Action:   "sqs:SendMessage",
			Resource: queueARN,
		}},
	})
}

// queuePolicy admits EventBridge rules named {ruleName}-* to send to the queue.
func queuePolicy(queueARN, ruleName string) (string, error) {
	parsed, err := arn.Parse(queueARN)
	if err != nil {
		return "", fmt.Errorf("invalid queue arn %q: %w", queueARN, err)
	}
	source := arn.ARN{
		Partition: parsed.Partition,
		Service:   "events",
		Region:    parsed.Region,
		AccountID: parsed.AccountID,
		Resource:  "rule/" + ruleName + "-*",
	}
	return render(policyDocument{
		Version: policyVersion,
		Statement: []policyStatement{{
			Sid:       "AllowEventBridgeSend",
			Effect:    "Allow",
			Principal: map[string]any{"Service": "events.amazonaws.com"},
			Action:    "sqs:SendMessage",
			Resource:  queueARN,
			Condition: map[string]map[string]string{"ArnLike": {"aws:SourceArn": source.String()}},
		}},
	})
}

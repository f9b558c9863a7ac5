package sns

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// FakeAPI is an in-memory SNS used by tests across packages.
type FakeAPI struct {
	Region  string
	Account string
	// PageSize limits ListTopics pages to exercise pagination.
	PageSize int

	// FailFunc, when set, is consulted before every call; a non-nil return
	// fails the call.
	FailFunc func(op, target string) error

	mu      sync.Mutex
	topics  []string // ARNs in creation order
	creates int
}

var _ API = (*FakeAPI)(nil)

// NewFakeAPI returns an empty fake.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{Region: "us-west-1", Account: "123456789012", PageSize: 100}
}

// ARN returns the ARN the fake assigns to a topic name.
func (f *FakeAPI) ARN(name string) string {
	return fmt.Sprintf("arn:aws:sns:%s:%s:%s", f.Region, f.Account, name)
}

// AddTopic seeds an existing topic and returns its ARN.
func (f *FakeAPI) AddTopic(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.ARN(name)
	if !slices.Contains(f.topics, a) {
		f.topics = append(f.topics, a)
	}
	return a
}

// Topics returns the ARNs of existing topics.
func (f *FakeAPI) Topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.topics)
}

// Creates returns the number of CreateTopic calls.
func (f *FakeAPI) Creates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

func (f *FakeAPI) fail(op, target string) error {
	if f.FailFunc != nil {
		return f.FailFunc(op, target)
	}
	return nil
}

func (f *FakeAPI) ListTopics(_ context.Context, in *sns.ListTopicsInput, _ ...func(*sns.Options)) (*sns.ListTopicsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListTopics", ""); err != nil {
		return nil, err
	}
	start := 0
	if tok := aws.ToString(in.NextToken); tok != "" {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("bad token %q", tok)
		}
		start = n
	}
	end := min(start+f.PageSize, len(f.topics))
	out := &sns.ListTopicsOutput{}
	for _, a := range f.topics[start:end] {
		out.Topics = append(out.Topics, types.Topic{TopicArn: aws.String(a)})
	}
	if end < len(f.topics) {
		out.NextToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (f *FakeAPI) GetTopicAttributes(_ context.Context, in *sns.GetTopicAttributesInput, _ ...func(*sns.Options)) (*sns.GetTopicAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := aws.ToString(in.TopicArn)
	if err := f.fail("GetTopicAttributes", a); err != nil {
		return nil, err
	}
	if !slices.Contains(f.topics, a) {
		return nil, &types.NotFoundException{Message: aws.String("topic does not exist")}
	}
	return &sns.GetTopicAttributesOutput{Attributes: map[string]string{"TopicArn": a}}, nil
}

func (f *FakeAPI) CreateTopic(_ context.Context, in *sns.CreateTopicInput, _ ...func(*sns.Options)) (*sns.CreateTopicOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.Name)
	if err := f.fail("CreateTopic", name); err != nil {
		return nil, err
	}
	f.creates++
	a := f.ARN(name)
	if !slices.Contains(f.topics, a) {
		f.topics = append(f.topics, a)
	}
	return &sns.CreateTopicOutput{TopicArn: aws.String(a)}, nil
}

func (f *FakeAPI) DeleteTopic(_ context.Context, in *sns.DeleteTopicInput, _ ...func(*sns.Options)) (*sns.DeleteTopicOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := aws.ToString(in.TopicArn)
	if err := f.fail("DeleteTopic", a); err != nil {
		return nil, err
	}
	f.topics = slices.DeleteFunc(f.topics, func(s string) bool { return s == a })
	return &sns.DeleteTopicOutput{}, nil
}

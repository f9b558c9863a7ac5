package sqs

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// FakeAPI is an in-memory SQS used by tests across packages.
// Queue URLs are BaseURL + "/" + name.
type FakeAPI struct {
	BaseURL string
	Region  string
	Account string

	// FailFunc, when set, is consulted before every call; a non-nil return
	// fails the call. target is the queue name or URL.
	FailFunc func(op, target string) error

	mu     sync.Mutex
	queues map[string]map[string]string // url -> attributes
	calls  []string
}

var _ API = (*FakeAPI)(nil)

// NewFakeAPI returns an empty fake whose queue URLs start with baseURL.
func NewFakeAPI(baseURL string) *FakeAPI {
	return &FakeAPI{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Region:  "us-west-1",
		Account: "123456789012",
		queues:  map[string]map[string]string{},
	}
}

func (f *FakeAPI) record(op, target string) error {
	f.calls = append(f.calls, op+" "+target)
	if f.FailFunc != nil {
		return f.FailFunc(op, target)
	}
	return nil
}

func (f *FakeAPI) urlFor(name string) string { return f.BaseURL + "/" + name }

func nameFromURL(u string) string { return u[strings.LastIndex(u, "/")+1:] }

// AddQueue seeds an existing queue.
func (f *FakeAPI) AddQueue(name string, attrs map[string]string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.urlFor(name)
	f.queues[u] = f.baseAttrs(name)
	maps.Copy(f.queues[u], attrs)
	return u
}

func (f *FakeAPI) baseAttrs(name string) map[string]string {
	return map[string]string{
		string(types.QueueAttributeNameQueueArn): fmt.Sprintf("arn:aws:sqs:%s:%s:%s", f.Region, f.Account, name),
	}
}

// Attributes returns a copy of a queue's attributes by name.
func (f *FakeAPI) Attributes(name string) (map[string]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.queues[f.urlFor(name)]
	return maps.Clone(a), ok
}

// QueueNames returns the names of all existing queues.
func (f *FakeAPI) QueueNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for u := range f.queues {
		names = append(names, nameFromURL(u))
	}
	return names
}

// Calls returns the recorded "Op target" call log.
func (f *FakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CountCalls returns how many calls of op were made.
func (f *FakeAPI) CountCalls(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, op+" ") {
			n++
		}
	}
	return n
}

func (f *FakeAPI) GetQueueAttributes(_ context.Context, in *sqs.GetQueueAttributesInput, _ ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := aws.ToString(in.QueueUrl)
	if err := f.record("GetQueueAttributes", u); err != nil {
		return nil, err
	}
	attrs, ok := f.queues[u]
	if !ok {
		return nil, &types.QueueDoesNotExist{Message: aws.String("queue does not exist")}
	}
	return &sqs.GetQueueAttributesOutput{Attributes: maps.Clone(attrs)}, nil
}

func (f *FakeAPI) GetQueueUrl(_ context.Context, in *sqs.GetQueueUrlInput, _ ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.QueueName)
	if err := f.record("GetQueueUrl", name); err != nil {
		return nil, err
	}
	u := f.urlFor(name)
	if _, ok := f.queues[u]; !ok {
		return nil, &types.QueueDoesNotExist{Message: aws.String("queue does not exist")}
	}
	return &sqs.GetQueueUrlOutput{QueueUrl: aws.String(u)}, nil
}

func (f *FakeAPI) CreateQueue(_ context.Context, in *sqs.CreateQueueInput, _ ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.QueueName)
	if err := f.record("CreateQueue", name); err != nil {
		return nil, err
	}
	u := f.urlFor(name)
	if _, ok := f.queues[u]; !ok {
		f.queues[u] = f.baseAttrs(name)
	}
	maps.Copy(f.queues[u], in.Attributes)
	return &sqs.CreateQueueOutput{QueueUrl: aws.String(u)}, nil
}

func (f *FakeAPI) SetQueueAttributes(_ context.Context, in *sqs.SetQueueAttributesInput, _ ...func(*sqs.Options)) (*sqs.SetQueueAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := aws.ToString(in.QueueUrl)
	if err := f.record("SetQueueAttributes", u); err != nil {
		return nil, err
	}
	attrs, ok := f.queues[u]
	if !ok {
		return nil, &types.QueueDoesNotExist{Message: aws.String("queue does not exist")}
	}
	maps.Copy(attrs, in.Attributes)
	return &sqs.SetQueueAttributesOutput{}, nil
}

func (f *FakeAPI) DeleteQueue(_ context.Context, in *sqs.DeleteQueueInput, _ ...func(*sqs.Options)) (*sqs.DeleteQueueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := aws.ToString(in.QueueUrl)
	if err := f.record("DeleteQueue", u); err != nil {
		return nil, err
	}
	if _, ok := f.queues[u]; !ok {
		return nil, &types.QueueDoesNotExist{Message: aws.String("queue does not exist")}
	}
	delete(f.queues, u)
	return &sqs.DeleteQueueOutput{}, nil
}

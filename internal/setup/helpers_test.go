package setup

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/imamik/orchestrator/internal/catalog"
	"github.com/imamik/orchestrator/internal/cloud"
	"github.com/imamik/orchestrator/internal/config"
	"github.com/imamik/orchestrator/internal/platform/aws/eventbridge"
	"github.com/imamik/orchestrator/internal/platform/aws/sns"
	"github.com/imamik/orchestrator/internal/platform/aws/sqs"
	"github.com/imamik/orchestrator/internal/resource"
)

// bucketServer simulates S3 for a single bucket.
type bucketServer struct {
	mu      sync.Mutex
	exists  bool
	creates int
}

func (b *bucketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodHead:
		if b.exists {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case http.MethodPut:
		b.creates++
		b.exists = true
		xml(w, http.StatusOK, `<CreateBucketResult/>`)
	case http.MethodGet:
		xml(w, http.StatusOK, `<ListBucketResult><Name>b</Name><IsTruncated>false</IsTruncated></ListBucketResult>`)
	case http.MethodDelete:
		b.exists = false
		w.WriteHeader(http.StatusNoContent)
	default:
		xml(w, http.StatusBadRequest, `<Error><Code>Unexpected</Code></Error>`)
	}
}

func (b *bucketServer) Exists() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exists
}

func xml(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` + body))
}

// env wires every kind to in-memory fakes. Storage goes through the real
// S3 client against an httptest server.
type env struct {
	bucket    *bucketServer
	queues    *sqs.FakeAPI
	topics    *sns.FakeAPI
	events    *eventbridge.FakeEvents
	scheduler *eventbridge.FakeScheduler
	iam       *eventbridge.FakeIAM
	provider  *cloud.Provider
	cfg       *config.Config
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		bucket:    &bucketServer{},
		queues:    sqs.NewFakeAPI("https://q.example"),
		topics:    sns.NewFakeAPI(),
		events:    eventbridge.NewFakeEvents(),
		scheduler: eventbridge.NewFakeScheduler(),
		iam:       eventbridge.NewFakeIAM(),
	}
	srv := httptest.NewServer(e.bucket)
	t.Cleanup(srv.Close)

	e.provider = cloud.NewAWSProvider(aws.Config{
		Region:       "us-west-1",
		BaseEndpoint: aws.String(srv.URL),
		Credentials:  credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
	})
	e.cfg = &config.Config{
		Provider: config.ProviderConfig{Name: "aws"},
		Queue: config.QueueArgs{
			Prefix:        "orch",
			Suffix:        "q1",
			QueueBaseURL:  "https://q.example/",
			TeardownScope: config.TeardownInstance,
		},
		Storage: config.StorageArgs{BucketName: "orch-artifacts", Region: "us-west-1"},
		Alert:   config.AlertArgs{Endpoint: "orch-alerts"},
		Cron: config.CronArgs{
			TargetQueueName:   "orch_worker_trigger_q1",
			TriggerRoleName:   "orch-worker-trigger-role",
			TriggerPolicyName: "orch-worker-trigger-policy",
			TriggerRuleName:   "orch-worker-trigger",
			EventBridgeType:   config.EventBridgeRule,
			CronTime:          "60",
		},
		Misc: config.MiscellaneousArgs{PollIntervalSeconds: 1, TimeoutSeconds: 2},
	}
	return e
}

// registry keeps the default storage creator and swaps the others for fakes.
func (e *env) registry(kinds ...resource.Type) *Registry {
	all := DefaultRegistry()
	all.Register(resource.Queue, CreatorFunc(func(p *cloud.Provider) (*ResourceWrapper, error) {
		return WrapQueue(p, sqs.NewWithAPI(e.queues, catalog.Queues())), nil
	}))
	all.Register(resource.Notification, CreatorFunc(func(p *cloud.Provider) (*ResourceWrapper, error) {
		return WrapNotification(p, sns.NewWithAPI(e.topics)), nil
	}))
	all.Register(resource.Cron, CreatorFunc(func(p *cloud.Provider) (*ResourceWrapper, error) {
		return WrapCron(p, eventbridge.NewWithClients(eventbridge.Clients{
			Events:    e.events,
			Scheduler: e.scheduler,
			IAM:       e.iam,
			Queues:    e.queues,
		}, catalog.WorkerTriggers())), nil
	}))
	if len(kinds) == 0 {
		return all
	}

	r := NewRegistry()
	for _, k := range kinds {
		r.Register(k, all.creators[k])
	}
	return r
}

// recorder is an Observer that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Event(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) WithFields(map[string]string) Observer { return r }

func (r *recorder) types(kind resource.Type) []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventType
	for _, e := range r.events {
		if e.Phase == kind.String() {
			out = append(out, e.Type)
		}
	}
	return out
}

package handlers

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/orchestrator/internal/catalog"
	"github.com/imamik/orchestrator/internal/cloud"
	"github.com/imamik/orchestrator/internal/config"
	"github.com/imamik/orchestrator/internal/platform/aws/sns"
	"github.com/imamik/orchestrator/internal/platform/aws/sqs"
	"github.com/imamik/orchestrator/internal/resource"
	"github.com/imamik/orchestrator/internal/setup"
)

type fakeCloud struct {
	queues *sqs.FakeAPI
	topics *sns.FakeAPI
}

// stubCloud replaces provider and factory construction with fakes covering
// the queue and notification kinds.
func stubCloud(t *testing.T) *fakeCloud {
	t.Helper()
	fc := &fakeCloud{queues: sqs.NewFakeAPI("https://q.example"), topics: sns.NewFakeAPI()}

	registry := setup.NewRegistry()
	registry.Register(resource.Queue, setup.CreatorFunc(func(p *cloud.Provider) (*setup.ResourceWrapper, error) {
		return setup.WrapQueue(p, sqs.NewWithAPI(fc.queues, catalog.Queues())), nil
	}))
	registry.Register(resource.Notification, setup.CreatorFunc(func(p *cloud.Provider) (*setup.ResourceWrapper, error) {
		return setup.WrapNotification(p, sns.NewWithAPI(fc.topics)), nil
	}))

	origProvider, origFactory := newProvider, newFactory
	t.Cleanup(func() {
		newProvider, newFactory = origProvider, origFactory
	})
	newProvider = func(context.Context, *config.Config) (*cloud.Provider, error) {
		return cloud.NewAWSProvider(aws.Config{Region: "us-west-1"}), nil
	}
	newFactory = func(p *cloud.Provider, cfg *config.Config, opts ...setup.Option) *setup.Factory {
		return setup.NewFactory(p, cfg, append(opts, setup.WithRegistry(registry))...)
	}
	return fc
}

func globalOptions(extra map[string]any) GlobalOptions {
	overrides := map[string]any{
		"queue.prefix":               "orch",
		"queue.suffix":               "q1",
		"queue.queue_base_url":       "https://q.example/",
		"alert.endpoint":             "orch-alerts",
		"misc.poll_interval_seconds": 1,
		"misc.timeout_seconds":       2,
	}
	for k, v := range extra {
		overrides[k] = v
	}
	return GlobalOptions{LogLevel: "error", LogFormat: LogFormatJSON, Overrides: overrides}
}

func TestSetup_Success(t *testing.T) {
	fc := stubCloud(t)
	textfile := filepath.Join(t.TempDir(), "orchestrator.prom")

	var out bytes.Buffer
	err := Setup(context.Background(), globalOptions(nil), SetupOptions{MetricsTextfile: textfile}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "orchestrator setup")
	assert.Contains(t, out.String(), "queue")
	assert.Contains(t, out.String(), "ready")
	assert.Len(t, fc.queues.QueueNames(), len(catalog.Queues()))
	assert.Len(t, fc.topics.Topics(), 1)

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "orchestrator_setup_queues_created_total 12")
	assert.Contains(t, string(data), `orchestrator_setup_resource_ready{kind="notification"} 1`)
}

func TestSetup_ProvisioningFailure(t *testing.T) {
	fc := stubCloud(t)
	fc.topics.FailFunc = func(op, _ string) error {
		if op == "CreateTopic" {
			return errors.New("access denied")
		}
		return nil
	}

	var out bytes.Buffer
	err := Setup(context.Background(), globalOptions(nil), SetupOptions{}, &out)
	require.Error(t, err)
	assert.ErrorContains(t, err, "setup failed")
	assert.True(t, resource.IsProvisioning(err))
	assert.Contains(t, out.String(), "failed")
	assert.Len(t, fc.queues.QueueNames(), len(catalog.Queues()), "queues are unaffected by the topic failure")
}

func TestSetup_InvalidConfig(t *testing.T) {
	stubCloud(t)

	err := Setup(context.Background(), globalOptions(map[string]any{"cron.event_bridge_type": "webhook"}), SetupOptions{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, resource.IsConfiguration(err))
}

func TestSetup_InvalidLogLevel(t *testing.T) {
	stubCloud(t)
	g := globalOptions(nil)
	g.LogLevel = "chatty"

	err := Setup(context.Background(), g, SetupOptions{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid log level")
}

func TestTeardown_CatalogScope(t *testing.T) {
	fc := stubCloud(t)
	require.NoError(t, Setup(context.Background(), globalOptions(nil), SetupOptions{}, &bytes.Buffer{}))

	var out bytes.Buffer
	err := Teardown(context.Background(), globalOptions(map[string]any{"queue.teardown_scope": "catalog"}),
		TeardownOptions{Kinds: []string{"queue"}}, &out)
	require.NoError(t, err)

	assert.Empty(t, fc.queues.QueueNames())
	assert.Len(t, fc.topics.Topics(), 1)
	assert.Contains(t, out.String(), "deleted")
}

func TestTeardown_InstanceScope(t *testing.T) {
	fc := stubCloud(t)
	require.NoError(t, Setup(context.Background(), globalOptions(nil), SetupOptions{}, &bytes.Buffer{}))

	err := Teardown(context.Background(), globalOptions(nil), TeardownOptions{Kinds: []string{"queue"}, Queue: catalog.WorkerTriggerQueue}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.NotContains(t, fc.queues.QueueNames(), "orch_worker_trigger_q1")
	assert.Len(t, fc.queues.QueueNames(), len(catalog.Queues())-1)
}

func TestTeardown_InstanceScopeWithoutQueue(t *testing.T) {
	fc := stubCloud(t)
	require.NoError(t, Setup(context.Background(), globalOptions(nil), SetupOptions{}, &bytes.Buffer{}))

	var out bytes.Buffer
	err := Teardown(context.Background(), globalOptions(nil), TeardownOptions{}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "skipped")
	assert.Contains(t, out.String(), "no queue named for instance teardown")
	assert.Len(t, fc.queues.QueueNames(), len(catalog.Queues()))
	assert.Empty(t, fc.topics.Topics())
}

func TestTeardown_UnknownKind(t *testing.T) {
	stubCloud(t)

	err := Teardown(context.Background(), globalOptions(nil), TeardownOptions{Kinds: []string{"database"}}, &bytes.Buffer{})
	var unknown *resource.UnknownResourceTypeError
	assert.ErrorAs(t, err, &unknown)
}

func TestStatus_Strict(t *testing.T) {
	stubCloud(t)

	var out bytes.Buffer
	err := Status(context.Background(), globalOptions(nil), StatusOptions{}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "not ready")

	err = Status(context.Background(), globalOptions(nil), StatusOptions{Strict: true}, &bytes.Buffer{})
	assert.EqualError(t, err, "not ready: queue, notification")

	require.NoError(t, Setup(context.Background(), globalOptions(nil), SetupOptions{}, &bytes.Buffer{}))
	assert.NoError(t, Status(context.Background(), globalOptions(nil), StatusOptions{Strict: true, Kinds: []string{"queue"}}, &bytes.Buffer{}))
}

func TestShowConfig(t *testing.T) {
	var out bytes.Buffer
	err := ShowConfig(globalOptions(map[string]any{
		"provider.aws.access_key_id":     "AKIAEXAMPLEKEY",
		"provider.aws.secret_access_key": "supersecret",
	}), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "prefix: orch")
	assert.Contains(t, out.String(), "AKIA****")
	assert.NotContains(t, out.String(), "supersecret")
	assert.NotContains(t, out.String(), "AKIAEXAMPLEKEY")
}

func TestParseKinds(t *testing.T) {
	t.Parallel()

	kinds, err := ParseKinds([]string{"Queue", "cron,storage", ""})
	require.NoError(t, err)
	assert.Equal(t, []resource.Type{resource.Queue, resource.Cron, resource.Storage}, kinds)

	kinds, err = ParseKinds(nil)
	require.NoError(t, err)
	assert.Empty(t, kinds)

	_, err = ParseKinds([]string{"queue,topic"})
	assert.Error(t, err)
}

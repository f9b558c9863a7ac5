package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/orchestrator/internal/resource"
)

// Tests in this file set environment variables and must not run in parallel.

func withEndpoint() LoadOptions {
	return LoadOptions{Overrides: map[string]any{"alert.endpoint": "orchestrator-alerts"}}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	cfg, err := Load(withEndpoint())
	require.NoError(t, err)

	assert.Equal(t, "aws", cfg.Provider.Name)
	assert.Equal(t, DefaultRegion, cfg.Provider.AWS.Region)
	assert.Equal(t, "orchestrator", cfg.Queue.Prefix)
	assert.Equal(t, "queue", cfg.Queue.Suffix)
	assert.Equal(t, DefaultQueueBaseURL, cfg.Queue.QueueBaseURL)
	assert.Equal(t, TeardownInstance, cfg.Queue.TeardownScope)
	assert.Equal(t, "bucket", cfg.Storage.BucketName)
	assert.Equal(t, DefaultRegion, cfg.Storage.Region)
	assert.Equal(t, EventBridgeRule, cfg.Cron.EventBridgeType)
	assert.Equal(t, "60", cfg.Cron.CronTime)
	assert.Equal(t, "orchestrator_worker_trigger_queue", cfg.Cron.TargetQueueName)
	assert.Equal(t, "orchestrator-worker-trigger", cfg.Cron.TriggerRuleName)
	assert.Equal(t, "orchestrator-worker-trigger-role", cfg.Cron.TriggerRoleName)
	assert.Equal(t, "orchestrator-worker-trigger-policy", cfg.Cron.TriggerPolicyName)
	assert.Equal(t, 15, cfg.Cron.SettleDelaySeconds)
	assert.Equal(t, 5, cfg.Misc.PollIntervalSeconds)
	assert.Equal(t, 300, cfg.Misc.TimeoutSeconds)
	assert.False(t, cfg.Misc.Parallel)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("MADARA_ORCHESTRATOR_PREFIX", "orch")
	t.Setenv("MADARA_ORCHESTRATOR_SQS_SUFFIX", "q1")
	t.Setenv("MADARA_ORCHESTRATOR_SQS_BASE_QUEUE_URL", "https://q.example/")
	t.Setenv("MADARA_ORCHESTRATOR_AWS_SNS_ARN", "arn:aws:sns:us-west-1:123456789012:alerts")
	t.Setenv("MADARA_ORCHESTRATOR_EVENT_BRIDGE_TYPE", "schedule")
	t.Setenv("MADARA_ORCHESTRATOR_EVENT_BRIDGE_INTERVAL_SECONDS", "@every 10m")
	t.Setenv("MADARA_ORCHESTRATOR_SETUP_PARALLEL", "true")
	t.Setenv("MADARA_ORCHESTRATOR_SETUP_TIMEOUT_SECONDS", "30")
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "orch", cfg.Queue.Prefix)
	assert.Equal(t, "q1", cfg.Queue.Suffix)
	assert.Equal(t, "https://q.example/", cfg.Queue.QueueBaseURL)
	assert.Equal(t, "arn:aws:sns:us-west-1:123456789012:alerts", cfg.Alert.Endpoint)
	assert.Equal(t, EventBridgeSchedule, cfg.Cron.EventBridgeType)
	assert.Equal(t, "@every 10m", cfg.Cron.CronTime)
	assert.Equal(t, "orch_worker_trigger_q1", cfg.Cron.TargetQueueName)
	assert.True(t, cfg.Misc.Parallel)
	assert.Equal(t, 30, cfg.Misc.TimeoutSeconds)
	assert.Equal(t, "eu-west-1", cfg.Provider.AWS.Region)
	assert.Equal(t, "eu-west-1", cfg.Storage.Region)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orchestrator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
queue:
  prefix: from-file
  suffix: file-suffix
storage:
  bucket_name: file-bucket
alert:
  endpoint: file-topic
misc:
  poll_interval_seconds: 2
`), 0o600))

	t.Setenv("MADARA_ORCHESTRATOR_SQS_SUFFIX", "env-suffix")
	t.Setenv("MADARA_ORCHESTRATOR_AWS_S3_BUCKET_NAME", "env-bucket")

	cfg, err := Load(LoadOptions{
		File:      path,
		Overrides: map[string]any{"storage.bucket_name": "flag-bucket"},
	})
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Queue.Prefix)
	assert.Equal(t, "env-suffix", cfg.Queue.Suffix)
	assert.Equal(t, "flag-bucket", cfg.Storage.BucketName)
	assert.Equal(t, "file-topic", cfg.Alert.Endpoint)
	assert.Equal(t, 2, cfg.Misc.PollIntervalSeconds)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.True(t, resource.IsConfiguration(err))
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		wantKind  resource.Type
		wantMsg   string
	}{
		{
			name:      "missing endpoint",
			overrides: map[string]any{},
			wantKind:  resource.Notification,
			wantMsg:   "alert.endpoint is required",
		},
		{
			name:      "bad event bridge type",
			overrides: map[string]any{"alert.endpoint": "t", "cron.event_bridge_type": "pipe"},
			wantKind:  resource.Cron,
			wantMsg:   "cron.event_bridge_type must be one of [rule schedule]",
		},
		{
			name:      "bad cron time",
			overrides: map[string]any{"alert.endpoint": "t", "cron.cron_time": "every minute"},
			wantKind:  resource.Cron,
			wantMsg:   "invalid cron_time",
		},
		{
			name:      "relative base url",
			overrides: map[string]any{"alert.endpoint": "t", "queue.queue_base_url": "queues/here"},
			wantKind:  resource.Queue,
			wantMsg:   "queue.queue_base_url must be a URL",
		},
		{
			name:      "bad teardown scope",
			overrides: map[string]any{"alert.endpoint": "t", "queue.teardown_scope": "all"},
			wantKind:  resource.Queue,
			wantMsg:   "queue.teardown_scope must be one of",
		},
		{
			name:      "zero poll interval",
			overrides: map[string]any{"alert.endpoint": "t", "misc.poll_interval_seconds": 0},
			wantMsg:   "misc.poll_interval_seconds must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(LoadOptions{Overrides: tt.overrides})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)

			var cfgErr *resource.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantKind, cfgErr.Kind)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "orchestrator", cfg.Queue.Prefix)
	assert.Empty(t, cfg.Alert.Endpoint)
	assert.Error(t, cfg.Validate())
}

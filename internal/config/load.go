package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/imamik/orchestrator/internal/catalog"
	"github.com/imamik/orchestrator/internal/resource"
	"github.com/imamik/orchestrator/internal/util/naming"
)

// Default values.
const (
	DefaultProviderName        = "aws"
	DefaultRegion              = "us-west-1"
	DefaultPrefix              = "orchestrator"
	DefaultSuffix              = "queue"
	DefaultBucketName          = "bucket"
	DefaultQueueBaseURL        = "https://sqs.us-west-1.amazonaws.com/"
	DefaultCronTime            = "60"
	DefaultPollIntervalSeconds = 5
	DefaultTimeoutSeconds      = 300
	DefaultSettleDelaySeconds  = 15
)

// envBindings maps configuration keys to the environment variables that set them.
var envBindings = map[string]string{
	"provider.aws.region":            "AWS_REGION",
	"provider.aws.access_key_id":     "AWS_ACCESS_KEY_ID",
	"provider.aws.secret_access_key": "AWS_SECRET_ACCESS_KEY",
	"provider.aws.endpoint_url":      "AWS_ENDPOINT_URL",

	"queue.prefix":         "MADARA_ORCHESTRATOR_PREFIX",
	"queue.suffix":         "MADARA_ORCHESTRATOR_SQS_SUFFIX",
	"queue.queue_base_url": "MADARA_ORCHESTRATOR_SQS_BASE_QUEUE_URL",
	"queue.teardown_scope": "MADARA_ORCHESTRATOR_QUEUE_TEARDOWN_SCOPE",

	"storage.bucket_name": "MADARA_ORCHESTRATOR_AWS_S3_BUCKET_NAME",
	"storage.region":      "MADARA_ORCHESTRATOR_AWS_S3_REGION",

	"alert.endpoint": "MADARA_ORCHESTRATOR_AWS_SNS_ARN",

	"cron.event_bridge_type":     "MADARA_ORCHESTRATOR_EVENT_BRIDGE_TYPE",
	"cron.trigger_rule_name":     "MADARA_ORCHESTRATOR_EVENT_BRIDGE_TRIGGER_RULE_NAME",
	"cron.trigger_role_name":     "MADARA_ORCHESTRATOR_EVENT_BRIDGE_TRIGGER_ROLE_NAME",
	"cron.trigger_policy_name":   "MADARA_ORCHESTRATOR_EVENT_BRIDGE_TRIGGER_POLICY_NAME",
	"cron.target_queue_name":     "MADARA_ORCHESTRATOR_EVENT_BRIDGE_TARGET_QUEUE_NAME",
	"cron.cron_time":             "MADARA_ORCHESTRATOR_EVENT_BRIDGE_INTERVAL_SECONDS",
	"cron.settle_delay_seconds":  "MADARA_ORCHESTRATOR_CRON_SETTLE_DELAY_SECONDS",
	"misc.poll_interval_seconds": "MADARA_ORCHESTRATOR_SETUP_POLL_INTERVAL_SECONDS",
	"misc.timeout_seconds":       "MADARA_ORCHESTRATOR_SETUP_TIMEOUT_SECONDS",
	"misc.parallel":              "MADARA_ORCHESTRATOR_SETUP_PARALLEL",
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// File is an optional YAML file.
	File string
	// Overrides take precedence over every other source. Keys use the
	// dotted form, e.g. "misc.parallel".
	Overrides map[string]any
}

// Load builds the configuration from defaults, the optional file, the
// environment and overrides, then validates it.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, &resource.ConfigurationError{Reason: "failed to read config file " + opts.File, Err: err}
		}
	}

	for key, val := range opts.Overrides {
		v.Set(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &resource.ConfigurationError{Reason: "failed to decode config", Err: err}
	}
	cfg.applyDerivedDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration built from defaults only, without validation.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are plain scalars; decoding them cannot fail.
	_ = v.Unmarshal(&cfg)
	cfg.applyDerivedDefaults()
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.name", DefaultProviderName)
	v.SetDefault("provider.aws.region", DefaultRegion)
	v.SetDefault("provider.aws.access_key_id", "")
	v.SetDefault("provider.aws.secret_access_key", "")
	v.SetDefault("provider.aws.endpoint_url", "")

	v.SetDefault("queue.prefix", DefaultPrefix)
	v.SetDefault("queue.suffix", DefaultSuffix)
	v.SetDefault("queue.queue_base_url", DefaultQueueBaseURL)
	v.SetDefault("queue.teardown_scope", string(TeardownInstance))

	v.SetDefault("storage.bucket_name", DefaultBucketName)
	v.SetDefault("storage.region", "")

	v.SetDefault("alert.endpoint", "")

	v.SetDefault("cron.event_bridge_type", string(EventBridgeRule))
	v.SetDefault("cron.trigger_rule_name", "")
	v.SetDefault("cron.trigger_role_name", "")
	v.SetDefault("cron.trigger_policy_name", "")
	v.SetDefault("cron.target_queue_name", "")
	v.SetDefault("cron.cron_time", DefaultCronTime)
	v.SetDefault("cron.settle_delay_seconds", DefaultSettleDelaySeconds)

	v.SetDefault("misc.poll_interval_seconds", DefaultPollIntervalSeconds)
	v.SetDefault("misc.timeout_seconds", DefaultTimeoutSeconds)
	v.SetDefault("misc.parallel", false)
}

// applyDerivedDefaults fills values that depend on other settings.
func (c *Config) applyDerivedDefaults() {
	if c.Storage.Region == "" {
		c.Storage.Region = c.Provider.AWS.Region
	}
	if c.Cron.TargetQueueName == "" {
		c.Cron.TargetQueueName = naming.Queue(c.Queue.Prefix, catalog.WorkerTriggerQueue, c.Queue.Suffix)
	}
	if c.Cron.TriggerRuleName == "" {
		c.Cron.TriggerRuleName = naming.TriggerRule(c.Queue.Prefix)
	}
	if c.Cron.TriggerRoleName == "" {
		c.Cron.TriggerRoleName = naming.TriggerRole(c.Queue.Prefix)
	}
	if c.Cron.TriggerPolicyName == "" {
		c.Cron.TriggerPolicyName = naming.TriggerPolicy(c.Queue.Prefix)
	}
}

// IsConfigFileNotFound reports whether err came from a missing config file.
func IsConfigFileNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf)
}

package config

import (
	"time"
)

// EventBridgeType selects how periodic triggers are delivered.
type EventBridgeType string

const (
	// EventBridgeRule uses EventBridge rules with SQS targets.
	EventBridgeRule EventBridgeType = "rule"
	// EventBridgeSchedule uses EventBridge Scheduler schedules.
	EventBridgeSchedule EventBridgeType = "schedule"
)

// TeardownScope selects which queues a queue teardown removes.
type TeardownScope string

const (
	// TeardownInstance deletes only the queue the resource instance is bound to.
	TeardownInstance TeardownScope = "instance"
	// TeardownCatalog deletes every queue of the catalog.
	TeardownCatalog TeardownScope = "catalog"
)

// Config is the complete configuration of a provisioning run.
type Config struct {
	Provider ProviderConfig    `mapstructure:"provider" yaml:"provider"`
	Queue    QueueArgs         `mapstructure:"queue" yaml:"queue"`
	Storage  StorageArgs       `mapstructure:"storage" yaml:"storage"`
	Alert    AlertArgs         `mapstructure:"alert" yaml:"alert"`
	Cron     CronArgs          `mapstructure:"cron" yaml:"cron"`
	Misc     MiscellaneousArgs `mapstructure:"misc" yaml:"misc"`
}

// ProviderConfig selects and configures the cloud provider.
type ProviderConfig struct {
	Name string    `mapstructure:"name" yaml:"name" validate:"required,oneof=aws"`
	AWS  AWSConfig `mapstructure:"aws" yaml:"aws"`
}

// AWSConfig holds AWS connection settings.
type AWSConfig struct {
	Region          string `mapstructure:"region" yaml:"region" validate:"required"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
	EndpointURL     string `mapstructure:"endpoint_url" yaml:"endpoint_url,omitempty" validate:"omitempty,url"`
}

// QueueArgs configures the queue catalog.
// Queue names are "{prefix}_{name}_{suffix}".
type QueueArgs struct {
	Prefix        string        `mapstructure:"prefix" yaml:"prefix" validate:"required"`
	Suffix        string        `mapstructure:"suffix" yaml:"suffix" validate:"required"`
	QueueBaseURL  string        `mapstructure:"queue_base_url" yaml:"queue_base_url" validate:"required,url"`
	TeardownScope TeardownScope `mapstructure:"teardown_scope" yaml:"teardown_scope" validate:"oneof=instance catalog"`
}

// StorageArgs configures the object storage bucket.
type StorageArgs struct {
	BucketName string `mapstructure:"bucket_name" yaml:"bucket_name" validate:"required,min=3,max=63"`
	// Region defaults to the provider region.
	Region string `mapstructure:"region" yaml:"region,omitempty"`
}

// AlertArgs configures the alerting topic.
// Endpoint is either a topic ARN or a topic name.
type AlertArgs struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" validate:"required"`
}

// CronArgs configures the periodic worker triggers.
type CronArgs struct {
	TargetQueueName   string          `mapstructure:"target_queue_name" yaml:"target_queue_name" validate:"required"`
	TriggerRoleName   string          `mapstructure:"trigger_role_name" yaml:"trigger_role_name" validate:"required"`
	TriggerPolicyName string          `mapstructure:"trigger_policy_name" yaml:"trigger_policy_name" validate:"required"`
	TriggerRuleName   string          `mapstructure:"trigger_rule_name" yaml:"trigger_rule_name" validate:"required"`
	EventBridgeType   EventBridgeType `mapstructure:"event_bridge_type" yaml:"event_bridge_type" validate:"oneof=rule schedule"`
	// CronTime is the trigger period: integer seconds or an "@every <duration>" descriptor.
	CronTime           string `mapstructure:"cron_time" yaml:"cron_time" validate:"required"`
	SettleDelaySeconds int    `mapstructure:"settle_delay_seconds" yaml:"settle_delay_seconds" validate:"min=0"`
}

// SettleDelay is the wait between creating the trigger infrastructure and
// attaching targets.
func (c CronArgs) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelaySeconds) * time.Second
}

// Period parses CronTime.
func (c CronArgs) Period() (time.Duration, error) {
	return ParseCronTime(c.CronTime)
}

// MiscellaneousArgs configures readiness polling and run behaviour.
type MiscellaneousArgs struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" yaml:"poll_interval_seconds" validate:"min=1"`
	TimeoutSeconds      int `mapstructure:"timeout_seconds" yaml:"timeout_seconds" validate:"min=0"`
	// Parallel starts every kind at once; cron still waits for queue readiness.
	Parallel bool `mapstructure:"parallel" yaml:"parallel"`
}

// PollInterval returns the readiness polling interval.
func (m MiscellaneousArgs) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalSeconds) * time.Second
}

// Timeout returns the readiness polling budget.
func (m MiscellaneousArgs) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// Redacted returns a copy with secrets masked, suitable for printing.
func (c Config) Redacted() Config {
	out := c
	if out.Provider.AWS.AccessKeyID != "" {
		out.Provider.AWS.AccessKeyID = redact(out.Provider.AWS.AccessKeyID)
	}
	if out.Provider.AWS.SecretAccessKey != "" {
		out.Provider.AWS.SecretAccessKey = "********"
	}
	return out
}

func redact(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

// Package config defines the configuration model for a provisioning run.
//
// The [Config] struct carries the provider settings and one argument
// struct per resource kind (queue, storage, alert, cron) plus the
// miscellaneous polling settings. It is loaded by [Load] from defaults, an
// optional YAML file, the environment and explicit overrides, in that order
// of precedence, and validated before use.
package config

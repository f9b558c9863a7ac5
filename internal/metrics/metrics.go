package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "orchestrator"

// Metrics holds the collectors of one provisioning run.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	resourceReady  *prometheus.GaugeVec
	setupDuration  *prometheus.HistogramVec
	setupFailures  *prometheus.CounterVec
	queuesCreated  prometheus.Counter
	lastRunSeconds prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		resourceReady: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "setup",
				Name:      "resource_ready",
				Help:      "Whether the resource kind was ready after the run (1) or not (0)",
			},
			[]string{"kind"},
		),
		setupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "setup",
				Name:      "duration_seconds",
				Help:      "Duration of setup and readiness polling per resource kind",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.4min
			},
			[]string{"kind"},
		),
		setupFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "setup",
				Name:      "failures_total",
				Help:      "Total number of failed or skipped resource kinds by reason",
			},
			[]string{"kind", "reason"},
		),
		queuesCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "setup",
				Name:      "queues_created_total",
				Help:      "Total number of queues created",
			},
		),
		lastRunSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "setup",
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run completed",
			},
		),
	}

	m.registry.MustRegister(
		m.resourceReady,
		m.setupDuration,
		m.setupFailures,
		m.queuesCreated,
		m.lastRunSeconds,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveKind records the outcome of one resource kind.
func (m *Metrics) ObserveKind(kind string, ready bool, d time.Duration) {
	if m == nil {
		return
	}
	v := 0.0
	if ready {
		v = 1
	}
	m.resourceReady.WithLabelValues(kind).Set(v)
	m.setupDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordFailure counts a failed or skipped kind.
func (m *Metrics) RecordFailure(kind, reason string) {
	if m == nil {
		return
	}
	m.setupFailures.WithLabelValues(kind, reason).Inc()
}

// QueueCreated counts one created queue.
func (m *Metrics) QueueCreated() {
	if m == nil {
		return
	}
	m.queuesCreated.Inc()
}

// MarkRun stamps the run completion time.
func (m *Metrics) MarkRun(t time.Time) {
	if m == nil {
		return
	}
	m.lastRunSeconds.Set(float64(t.Unix()))
}

// WriteTextfile writes the registry to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Package metrics records provisioning outcomes as Prometheus metrics.
//
// Each run owns a registry; the CLI can write it out in the node_exporter
// textfile format for collection by a textfile collector.
package metrics

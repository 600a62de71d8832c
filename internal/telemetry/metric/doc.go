// Package metric provides Prometheus metrics for jobrunner.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry and HTTP handler
//   - lifecycle.go: coordinator observer recording listener lifecycle
//   - collector.go: collector for coordinator state and job store statistics
//
// Metrics are exposed at /metrics on the HTTP listener.
package metric

// Package metric provides Prometheus metrics for blinkdb-server.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: registry construction, metric definitions, and the
//     /metrics HTTP handler
//
// Metrics include:
//
//   - Engine occupancy gauges (memory usage, key count)
//   - Eviction counter
//   - Per-command, per-result counters
//   - Active connection gauge
//
// Metrics are exposed at /metrics in Prometheus exposition format.
package metric

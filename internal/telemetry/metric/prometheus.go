// Package metric provides Prometheus metrics for blinkdb-server.
//
// It exposes metrics in Prometheus exposition format for monitoring engine
// occupancy, eviction pressure, command throughput, and connection counts.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blinkdb"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	MemoryUsageBytes  prometheus.Gauge
	KeysTotal         prometheus.Gauge
	EvictionsTotal    prometheus.Counter
	CommandsTotal     *prometheus.CounterVec
	ConnectionsActive prometheus.Gauge
	BuildInfo         *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with Go runtime and process
// collectors already registered, alongside the engine and dispatcher
// metrics.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	r := &Registry{
		registry: reg,
		MemoryUsageBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_usage_bytes",
			Help:      "Current accounted memory usage of the engine.",
		}),
		KeysTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "keys_total",
			Help:      "Number of keys currently stored.",
		}),
		EvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Total number of entries evicted to make room for an insert.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total commands processed, by command and result.",
		}, []string{"command", "result"}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of currently open client connections.",
		}),
		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "A metric with constant value 1, labeled by build version and commit.",
		}, []string{"version", "commit"}),
	}

	reg.MustRegister(
		r.MemoryUsageBytes,
		r.KeysTotal,
		r.EvictionsTotal,
		r.CommandsTotal,
		r.ConnectionsActive,
		r.BuildInfo,
	)

	return r
}

var global = NewRegistry()

// Global returns the process-wide default registry.
func Global() *Registry {
	return global
}

// Handler returns an HTTP handler serving this registry's metrics in
// Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Handler returns an HTTP handler for the global registry's /metrics
// endpoint.
func Handler() http.Handler {
	return global.Handler()
}

// RecordCommand increments the per-command, per-result counter.
func (r *Registry) RecordCommand(command, result string) {
	r.CommandsTotal.WithLabelValues(command, result).Inc()
}

// IncConnectionsActive records a newly accepted connection.
func (r *Registry) IncConnectionsActive() {
	r.ConnectionsActive.Inc()
}

// DecConnectionsActive records a closed connection.
func (r *Registry) DecConnectionsActive() {
	r.ConnectionsActive.Dec()
}

// IncEvictions records n entries evicted.
func (r *Registry) IncEvictions(n int) {
	r.EvictionsTotal.Add(float64(n))
}

// SetEngineOccupancy updates the memory usage and key count gauges from an
// engine snapshot.
func (r *Registry) SetEngineOccupancy(memoryUsageBytes int64, keys int) {
	r.MemoryUsageBytes.Set(float64(memoryUsageBytes))
	r.KeysTotal.Set(float64(keys))
}

// SetBuildInfo records the running binary's version and commit as a
// constant 1-valued gauge, labeled so the values show up in queries
// rather than in a metric name.
func (r *Registry) SetBuildInfo(version, commit string) {
	r.BuildInfo.WithLabelValues(version, commit).Set(1)
}

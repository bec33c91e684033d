package httpserver

import (
	"net/http"

	"github.com/blinkdb/blinkdb/internal/telemetry/metric"
)

// HealthChecker reports whether the server is ready to serve traffic.
type HealthChecker interface {
	Healthy() bool
}

// NewRouter builds the HTTP sidecar's handler: /healthz and /metrics.
func NewRouter(checker HealthChecker, metrics *metric.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthzHandler(checker))
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

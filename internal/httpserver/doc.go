// Package httpserver provides the HTTP sidecar for blinkdb-server.
//
// This package implements the operational surface alongside the RESP TCP
// listener:
//
//   - Health endpoint: /healthz
//   - Metrics endpoint: /metrics (Prometheus exposition format)
//
// It does not serve the key-value protocol itself — that is the
// dispatcher's RESP TCP listener. The HTTP sidecar exists purely for
// operators and scrapers.
package httpserver

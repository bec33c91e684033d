// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for blinkdb-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Engine  EngineSection  `koanf:"engine"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the RESP TCP listener and its connection
// handling limits.
type ServerSection struct {
	Addr string `koanf:"addr"`

	// IdleTimeout closes a connection that has sent no complete request in
	// this long. Zero disables idle reaping.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// BackpressureLimitBytes is the soft cap on a connection's outbound
	// buffer; once exceeded the connection is closed rather than let the
	// buffer grow without bound against a slow reader.
	BackpressureLimitBytes int `koanf:"backpressure_limit_bytes"`

	// RateLimit, if non-zero, caps requests per second per connection.
	// RateLimitBurst is the token bucket burst size.
	RateLimit      float64 `koanf:"rate_limit"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
}

// EngineSection configures the bounded-memory key-value store.
type EngineSection struct {
	MaxMemoryBytes int64 `koanf:"max_memory_bytes"`
}

// MetricsSection configures the HTTP sidecar exposing /healthz and
// /metrics.
type MetricsSection struct {
	Addr string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

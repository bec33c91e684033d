// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultAddr        = "0.0.0.0:9001"
	DefaultMetricsAddr = "127.0.0.1:9101"

	DefaultMaxMemoryBytes = 1 << 30 // 1 GiB

	DefaultIdleTimeout            = 10 * time.Minute
	DefaultBackpressureLimitBytes = 1 << 20 // 1 MiB

	DefaultRateLimit      = 0 // disabled
	DefaultRateLimitBurst = 0

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:                   DefaultAddr,
			IdleTimeout:            DefaultIdleTimeout,
			BackpressureLimitBytes: DefaultBackpressureLimitBytes,
			RateLimit:              DefaultRateLimit,
			RateLimitBurst:         DefaultRateLimitBurst,
		},
		Engine: EngineSection{
			MaxMemoryBytes: DefaultMaxMemoryBytes,
		},
		Metrics: MetricsSection{
			Addr: DefaultMetricsAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if cfg.Engine.MaxMemoryBytes <= 0 {
		return errors.New("engine.max_memory_bytes must be positive")
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	if cfg.BackpressureLimitBytes <= 0 {
		return errors.New("server.backpressure_limit_bytes must be positive")
	}
	if cfg.IdleTimeout < 0 {
		return errors.New("server.idle_timeout must not be negative")
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative, got %v", cfg.RateLimit)
	}
	if cfg.RateLimit > 0 && cfg.RateLimitBurst <= 0 {
		return errors.New("server.rate_limit_burst must be positive when rate_limit is set")
	}
	return nil
}

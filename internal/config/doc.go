// Package config provides server configuration for blinkdb-server.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Business validation (non-empty listen address, positive
//     memory budget and backpressure limit, non-negative idle timeout and
//     rate limit, burst required with a rate limit); the port number and
//     the log level/format strings are not checked here
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags.
package config

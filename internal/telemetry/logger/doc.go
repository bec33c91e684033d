// Package logger provides structured logging for blinkdb-server.
//
// This package wraps log/slog for structured logging:
//
//   - logger.go: slog configuration, the Logger interface, and the
//     process-wide default logger
//   - context.go: context-aware logging with request/trace IDs
//   - truncate.go: truncation of oversized logged values
//
// Features:
//
//   - JSON and text output formats
//   - Log level filtering, adjustable at runtime
//   - Automatic truncation of large string attributes
//   - Context propagation for request tracing
package logger

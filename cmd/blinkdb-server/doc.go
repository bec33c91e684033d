// Command blinkdb-server runs the blinkdb RESP-2 key-value store.
//
// Usage:
//
//	blinkdb-server [port] [--config file] [--max-memory bytes] [--log-level level]
//
// It wires configuration loading, structured logging, the bounded-memory
// engine, the epoll-based dispatcher, and the HTTP sidecar together, then
// waits for SIGINT or SIGTERM to shut down in reverse order.
package main

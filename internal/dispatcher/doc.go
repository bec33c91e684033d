// Package dispatcher implements the connection layer of blinkdb-server: a
// single-threaded, readiness-driven reactor built on epoll that accepts
// TCP clients, decodes RESP-2 frames with internal/respcodec, dispatches
// SET/GET/DEL/CONFIG to internal/engine, and streams replies back.
//
// There is exactly one reactor goroutine. All socket I/O and all engine
// calls happen on it; suspension occurs only inside the epoll_wait call.
// This mirrors the BLINK DB C++ original's acceptClient/handleClient loop
// rather than the goroutine-per-connection model used elsewhere in this
// codebase's ancestry, because a single reactor thread is a correctness
// requirement here, not a style choice.
package dispatcher

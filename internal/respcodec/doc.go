// Package respcodec implements a RESP-2 (Redis Serialization Protocol v2)
// decoder and encoder.
//
// The decoder operates over a caller-owned byte slice rather than an
// io.Reader: the Dispatcher appends bytes read from a non-blocking socket
// into a growing inbound buffer and calls Decode repeatedly, each call
// either consuming one complete top-level frame or reporting that more
// bytes are needed. This split exists because a reactor cannot block
// waiting for a line terminator — Decode must never read past what is
// already in memory.
//
// Decode distinguishes three outcomes explicitly (Complete, Incomplete,
// Malformed) rather than collapsing "not enough bytes yet" and "this will
// never be valid" into one signal. Conflating them — as a line-oriented,
// getline-based parser does — makes it impossible to both safely buffer
// pipelined requests and close the connection promptly on garbage input.
//
// Bulk strings are binary-safe: once a `$<len>` header is parsed, exactly
// len bytes are consumed as payload regardless of what they contain,
// followed by a mandatory trailing CRLF. No part of the decoder scans a
// bulk payload for a line terminator.
package respcodec

// Package engine provides the bounded-memory key-value store at the heart
// of blinkdb.
//
// It maps opaque byte-string keys to opaque byte-string values, evicting
// least-recently-used entries once the accounted memory usage would exceed
// a configured budget. Lookup, insert, and delete are all O(1) amortized:
// a hash index gives key lookup, and an intrusive doubly-linked list gives
// O(1) promotion-to-front and O(1) eviction-from-back.
//
// All public methods are safe for concurrent use: a single mutex guards the
// key index, the recency list, and the running memory total. The reference
// Dispatcher is single-threaded and never contends on this lock, but the
// lock is retained so the Engine can be embedded in a multi-threaded
// variant without changing its API.
package engine

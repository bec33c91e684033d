package engine

import (
	"sync"
)

// entryOverhead is the fixed per-entry accounting overhead: an estimate of
// hash-table-entry and recency-list-node cost, not a true heap measurement.
// It exists so the memory bound is deterministic and reproducible across
// platforms, matching original_source's OVERHEAD_PER_ENTRY constant.
const entryOverhead = 64

// DefaultMaxMemoryBytes is used when a non-positive budget is supplied.
const DefaultMaxMemoryBytes = 1 << 30 // 1 GiB, matching the original default.

// entry is a stored record: value bytes, the logical last-access time, and
// the accounted size charged against the memory budget.
type entry struct {
	value        []byte
	lastAccessed int64 // logical tick, see Engine.clock
	size         int
	node         *node
}

func entrySize(key string, value []byte) int {
	return len(key) + len(value) + entryOverhead
}

// EvictionObserver is notified once per entry evicted to make room for an
// insert. It is called with the engine's lock released, after the entry has
// already been unlinked, so observers may call back into the Engine safely
// (e.g. to re-set the same key) without deadlocking.
type EvictionObserver func(key string, size int)

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithEvictionObserver registers a callback invoked for every evicted entry.
func WithEvictionObserver(fn EvictionObserver) Option {
	return func(e *Engine) {
		e.onEvict = fn
	}
}

// Engine is the bounded-memory key-value store described in spec.md §4.1.
//
// The zero value is not usable; construct with New.
type Engine struct {
	mu sync.Mutex

	index   map[string]*entry
	order   *recencyList
	maxSize int64
	curSize int64
	tick    int64 // monotonically incrementing logical clock for last-access

	onEvict EvictionObserver
}

// New creates an Engine with the given memory budget. A non-positive budget
// falls back to DefaultMaxMemoryBytes.
func New(maxMemoryBytes int64, opts ...Option) *Engine {
	if maxMemoryBytes <= 0 {
		maxMemoryBytes = DefaultMaxMemoryBytes
	}
	e := &Engine{
		index:   make(map[string]*entry),
		order:   newRecencyList(),
		maxSize: maxMemoryBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetMaxMemory adjusts the memory budget at runtime (used by the config
// hot-reload path). It does not itself trigger eviction; the next Set of a
// new key evicts as needed under the new budget. A Set that overwrites an
// existing key never evicts.
func (e *Engine) SetMaxMemory(maxMemoryBytes int64) {
	if maxMemoryBytes <= 0 {
		return
	}
	e.mu.Lock()
	e.maxSize = maxMemoryBytes
	e.mu.Unlock()
}

// Set inserts or overwrites key with value. If key already exists, its
// value and accounted size are updated in place and it is promoted to
// most-recently-used. If key is new, least-recently-used entries are
// evicted until the new entry fits (or the store is empty), then the entry
// is inserted and promoted.
func (e *Engine) Set(key, value []byte) {
	k := string(key)
	newSize := entrySize(k, value)

	e.mu.Lock()
	e.tick++
	now := e.tick

	if ent, ok := e.index[k]; ok {
		e.curSize += int64(newSize - ent.size)
		ent.value = append([]byte(nil), value...)
		ent.size = newSize
		ent.lastAccessed = now
		e.order.moveToFront(ent.node)
		e.mu.Unlock()
		return
	}

	evicted := e.evictLocked(int64(newSize))

	n := &node{key: k}
	ent := &entry{
		value:        append([]byte(nil), value...),
		lastAccessed: now,
		size:         newSize,
		node:         n,
	}
	e.index[k] = ent
	e.order.pushFront(n)
	e.curSize += int64(newSize)
	e.mu.Unlock()

	e.notifyEvicted(evicted)
}

// Get returns the value for key and true if present, promoting the key to
// most-recently-used. It returns (nil, false) on a miss.
func (e *Engine) Get(key []byte) ([]byte, bool) {
	k := string(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.index[k]
	if !ok {
		return nil, false
	}
	e.tick++
	ent.lastAccessed = e.tick
	e.order.moveToFront(ent.node)

	out := append([]byte(nil), ent.value...)
	return out, true
}

// Del removes key if present, returning whether it was found.
func (e *Engine) Del(key []byte) bool {
	k := string(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.index[k]
	if !ok {
		return false
	}
	e.order.unlink(ent.node)
	delete(e.index, k)
	e.curSize -= int64(ent.size)
	return true
}

// MemoryUsage returns the current accounted memory usage.
func (e *Engine) MemoryUsage() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.curSize
}

// Stats is a diagnostic snapshot; the dispatcher uses it to update the
// occupancy metrics after each command.
type Stats struct {
	Keys        int
	MemoryUsage int64
	MaxMemory   int64
}

// Stats returns a point-in-time snapshot of engine occupancy.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Keys:        len(e.index),
		MemoryUsage: e.curSize,
		MaxMemory:   e.maxSize,
	}
}

type evictedEntry struct {
	key  string
	size int
}

// evictLocked evicts least-recently-used entries until the budget admits
// requiredSize, or the store is empty. Must be called with e.mu held.
//
// When a single incoming item's size exceeds maxSize, this loop empties the
// store and then returns — the caller still inserts the oversized item,
// matching original_source's observable behavior (see SPEC_FULL.md §2).
func (e *Engine) evictLocked(requiredSize int64) []evictedEntry {
	var evicted []evictedEntry
	for !e.order.empty() && e.curSize+requiredSize > e.maxSize {
		victim := e.order.popBack()
		ent, ok := e.index[victim.key]
		if !ok {
			continue
		}
		delete(e.index, victim.key)
		e.curSize -= int64(ent.size)
		evicted = append(evicted, evictedEntry{key: victim.key, size: ent.size})
	}
	return evicted
}

func (e *Engine) notifyEvicted(evicted []evictedEntry) {
	if e.onEvict == nil {
		return
	}
	for _, ev := range evicted {
		e.onEvict(ev.key, ev.size)
	}
}

package engine

import (
	"bytes"
	"fmt"
	"testing"
)

func TestEngine_SetGetDel(t *testing.T) {
	e := New(DefaultMaxMemoryBytes)

	e.Set([]byte("foo"), []byte("bar"))

	got, ok := e.Get([]byte("foo"))
	if !ok {
		t.Fatal("Get(foo) miss, want hit")
	}
	if !bytes.Equal(got, []byte("bar")) {
		t.Fatalf("Get(foo) = %q, want %q", got, "bar")
	}

	if !e.Del([]byte("foo")) {
		t.Fatal("Del(foo) = false, want true")
	}
	if e.Del([]byte("foo")) {
		t.Fatal("second Del(foo) = true, want false")
	}

	if _, ok := e.Get([]byte("foo")); ok {
		t.Fatal("Get(foo) hit after delete, want miss")
	}
}

func TestEngine_SetOverwriteUpdatesSizeAndValue(t *testing.T) {
	e := New(DefaultMaxMemoryBytes)

	e.Set([]byte("k"), []byte("v1"))
	e.Set([]byte("k"), []byte("value-two"))

	got, ok := e.Get([]byte("k"))
	if !ok || !bytes.Equal(got, []byte("value-two")) {
		t.Fatalf("Get(k) = %q, %v, want %q, true", got, ok, "value-two")
	}

	want := int64(entrySize("k", []byte("value-two")))
	if e.MemoryUsage() != want {
		t.Fatalf("MemoryUsage() = %d, want %d", e.MemoryUsage(), want)
	}
}

// TestEngine_LRUEviction matches spec.md §8 property 5: with room for
// exactly two entries, SET(k1); SET(k2); GET(k1); SET(k3) evicts k2 first.
func TestEngine_LRUEviction(t *testing.T) {
	// Budget sized to hold exactly two 1-byte-key/1-byte-value entries.
	perEntry := int64(entrySize("k", []byte("v")))
	e := New(perEntry * 2)

	e.Set([]byte("A"), []byte("1"))
	e.Set([]byte("B"), []byte("2"))
	if _, ok := e.Get([]byte("A")); !ok {
		t.Fatal("Get(A) miss before eviction")
	}
	e.Set([]byte("C"), []byte("3"))

	if _, ok := e.Get([]byte("B")); ok {
		t.Fatal("Get(B) hit, want B evicted (least-recently-used)")
	}
	if v, ok := e.Get([]byte("A")); !ok || !bytes.Equal(v, []byte("1")) {
		t.Fatalf("Get(A) = %q, %v, want %q, true", v, ok, "1")
	}
	if v, ok := e.Get([]byte("C")); !ok || !bytes.Equal(v, []byte("3")) {
		t.Fatalf("Get(C) = %q, %v, want %q, true", v, ok, "3")
	}
}

func TestEngine_EvictionLoopStopsWhenEmpty(t *testing.T) {
	e := New(1) // budget smaller than any entry
	e.Set([]byte("big"), []byte("this value alone exceeds the budget"))

	// original_source's observable behavior: the store empties then still
	// inserts the oversized item.
	got, ok := e.Get([]byte("big"))
	if !ok {
		t.Fatal("oversized single item was not inserted")
	}
	if !bytes.Equal(got, []byte("this value alone exceeds the budget")) {
		t.Fatalf("Get(big) = %q, want original value", got)
	}
}

func TestEngine_EvictionObserverFires(t *testing.T) {
	perEntry := int64(entrySize("k", []byte("v")))
	var evictedKeys []string
	e := New(perEntry, WithEvictionObserver(func(key string, size int) {
		evictedKeys = append(evictedKeys, key)
	}))

	e.Set([]byte("A"), []byte("1"))
	e.Set([]byte("B"), []byte("2"))

	if len(evictedKeys) != 1 || evictedKeys[0] != "A" {
		t.Fatalf("evictedKeys = %v, want [A]", evictedKeys)
	}
}

// TestEngine_MemoryAccounting matches spec.md §8 property 1: after every
// mutating call, MemoryUsage equals the sum of live entry sizes.
func TestEngine_MemoryAccounting(t *testing.T) {
	e := New(DefaultMaxMemoryBytes)

	want := int64(0)
	for i := 0; i < 50; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		val := bytes.Repeat([]byte{'x'}, i+1)
		e.Set(key, val)
		want += int64(entrySize(string(key), val))
	}

	if e.MemoryUsage() != want {
		t.Fatalf("MemoryUsage() = %d, want %d", e.MemoryUsage(), want)
	}

	e.Del([]byte("key-0"))
	want -= int64(entrySize("key-0", bytes.Repeat([]byte{'x'}, 1)))
	if e.MemoryUsage() != want {
		t.Fatalf("after Del, MemoryUsage() = %d, want %d", e.MemoryUsage(), want)
	}
}

func TestEngine_GetMissReturnsFalse(t *testing.T) {
	e := New(DefaultMaxMemoryBytes)
	if _, ok := e.Get([]byte("nope")); ok {
		t.Fatal("Get on empty engine returned hit")
	}
}

func TestEngine_Stats(t *testing.T) {
	e := New(1024)
	e.Set([]byte("a"), []byte("1"))
	e.Set([]byte("b"), []byte("2"))

	stats := e.Stats()
	if stats.Keys != 2 {
		t.Fatalf("Stats().Keys = %d, want 2", stats.Keys)
	}
	if stats.MaxMemory != 1024 {
		t.Fatalf("Stats().MaxMemory = %d, want 1024", stats.MaxMemory)
	}
	if stats.MemoryUsage != e.MemoryUsage() {
		t.Fatalf("Stats().MemoryUsage = %d, want %d", stats.MemoryUsage, e.MemoryUsage())
	}
}

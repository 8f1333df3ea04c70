// Package testsupport provides the shared test doubles for the caching
// core: an in-memory cache with a controllable clock and operation
// counters, an in-memory sqlite database with a query-counting hook, and
// JSON fixture helpers.
package testsupport

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrCacheDown is returned by every mutating FakeCache operation while
// Fail is set, to exercise the best-effort failure paths.
var ErrCacheDown = errors.New("testsupport: cache backend unavailable")

type fakeEntry struct {
	value   []byte
	expires time.Time
}

// FakeCache is an in-memory Cache implementation for tests. Expiry is
// driven by an internal fake clock advanced with Advance, so TTL behaviour
// is testable without sleeping. All operations are counted.
type FakeCache struct {
	mu      sync.Mutex
	entries map[string]fakeEntry
	now     time.Time

	// Fail makes Set/Delete/DeleteMany/DeletePattern return ErrCacheDown
	// and Get report a miss.
	Fail bool

	gets    int
	hits    int
	sets    int
	deletes int
}

// NewFakeCache creates an empty FakeCache with the clock at a fixed epoch.
func NewFakeCache() *FakeCache {
	return &FakeCache{
		entries: make(map[string]fakeEntry),
		now:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Advance moves the fake clock forward, expiring entries whose TTL has
// elapsed.
func (f *FakeCache) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Get implements cache.Cache.
func (f *FakeCache) Get(ctx context.Context, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.Fail {
		return nil, false
	}
	e, ok := f.entries[key]
	if !ok || f.now.After(e.expires) {
		delete(f.entries, key)
		return nil, false
	}
	f.hits++
	return e.value, true
}

// Set implements cache.Cache.
func (f *FakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return ErrCacheDown
	}
	f.sets++
	f.entries[key] = fakeEntry{value: value, expires: f.now.Add(ttl)}
	return nil
}

// Delete implements cache.Cache.
func (f *FakeCache) Delete(ctx context.Context, key string) error {
	return f.DeleteMany(ctx, []string{key})
}

// DeleteMany implements cache.Cache.
func (f *FakeCache) DeleteMany(ctx context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return ErrCacheDown
	}
	for _, k := range keys {
		delete(f.entries, k)
		f.deletes++
	}
	return nil
}

// DeletePattern implements cache.Cache.
func (f *FakeCache) DeletePattern(ctx context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return ErrCacheDown
	}
	for k := range f.entries {
		if strings.HasPrefix(k, prefix) {
			delete(f.entries, k)
			f.deletes++
		}
	}
	return nil
}

// Contains reports whether key currently holds an unexpired entry without
// counting as a read.
func (f *FakeCache) Contains(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	return ok && !f.now.After(e.expires)
}

// Hits returns the number of reads answered from the cache.
func (f *FakeCache) Hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits
}

// Sets returns the number of successful writes.
func (f *FakeCache) Sets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

// Deletes returns the number of keys removed by invalidation.
func (f *FakeCache) Deletes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deletes
}

// Len returns the number of stored entries, expired or not.
func (f *FakeCache) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Reset clears entries and counters; the clock keeps its position.
func (f *FakeCache) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[string]fakeEntry)
	f.gets, f.hits, f.sets, f.deletes = 0, 0, 0, 0
}

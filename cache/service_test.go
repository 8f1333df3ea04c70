package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockCache records calls and serves canned payloads.
type mockCache struct {
	entries    map[string][]byte
	setErr     error
	getCalls   int
	setCalls   int
	deleted    []string
	patterns   []string
	deleteErr  error
	patternErr error
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string][]byte{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, bool) {
	m.getCalls++
	b, ok := m.entries[key]
	return b, ok
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.entries, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockCache) DeleteMany(ctx context.Context, keys []string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.deleted = append(m.deleted, keys...)
	return nil
}

func (m *mockCache) DeletePattern(ctx context.Context, prefix string) error {
	if m.patternErr != nil {
		return m.patternErr
	}
	m.patterns = append(m.patterns, prefix)
	return nil
}

type payload struct {
	Name  string `msgpack:"name"`
	Cents int64  `msgpack:"cents"`
}

func TestGetOrFetchMissFetchesAndStores(t *testing.T) {
	mc := newMockCache()
	ctx := context.Background()
	fetches := 0

	got, err := GetOrFetch(ctx, mc, "product_1", time.Minute, func(ctx context.Context) (payload, error) {
		fetches++
		return payload{Name: "Brake Pad Set", Cents: 5499}, nil
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Name != "Brake Pad Set" || got.Cents != 5499 {
		t.Errorf("unexpected value %+v", got)
	}
	if fetches != 1 {
		t.Errorf("expected 1 fetch but got %d", fetches)
	}
	if mc.setCalls != 1 {
		t.Errorf("expected fetched value stored but got %d sets", mc.setCalls)
	}
}

func TestGetOrFetchHitSkipsFetch(t *testing.T) {
	mc := newMockCache()
	ctx := context.Background()
	fetch := func(ctx context.Context) (payload, error) {
		return payload{Name: "fresh"}, nil
	}
	if _, err := GetOrFetch(ctx, mc, "k", time.Minute, fetch); err != nil {
		t.Fatalf("prime: %v", err)
	}

	got, err := GetOrFetch(ctx, mc, "k", time.Minute, func(ctx context.Context) (payload, error) {
		t.Fatal("fetch must not run on a hit")
		return payload{}, nil
	})
	if err != nil {
		t.Fatalf("hit: %v", err)
	}
	if got.Name != "fresh" {
		t.Errorf("expected cached value but got %+v", got)
	}
}

func TestGetOrFetchErrorIsNotCached(t *testing.T) {
	mc := newMockCache()
	ctx := context.Background()
	boom := errors.New("row not found")
	fetches := 0
	fetch := func(ctx context.Context) (payload, error) {
		fetches++
		return payload{}, boom
	}

	for i := 0; i < 3; i++ {
		if _, err := GetOrFetch(ctx, mc, "missing", time.Minute, fetch); !errors.Is(err, boom) {
			t.Fatalf("expected fetch error surfaced but got %v", err)
		}
	}
	if fetches != 3 {
		t.Errorf("expected every call to fetch again but got %d fetches", fetches)
	}
	if mc.setCalls != 0 {
		t.Errorf("expected nothing cached on error but got %d sets", mc.setCalls)
	}
}

func TestGetOrFetchSetFailureStillReturnsValue(t *testing.T) {
	mc := newMockCache()
	mc.setErr = errors.New("backend down")
	ctx := context.Background()

	got, err := GetOrFetch(ctx, mc, "k", time.Minute, func(ctx context.Context) (string, error) {
		return "value", nil
	})
	if err != nil {
		t.Fatalf("expected set failure swallowed but got %v", err)
	}
	if got != "value" {
		t.Errorf("expected fetched value returned but got %q", got)
	}
}

func TestGetOrFetchCorruptPayloadIsMiss(t *testing.T) {
	mc := newMockCache()
	mc.entries["k"] = []byte{0xc1} // never valid msgpack
	ctx := context.Background()
	fetches := 0

	got, err := GetOrFetch(ctx, mc, "k", time.Minute, func(ctx context.Context) (payload, error) {
		fetches++
		return payload{Name: "rebuilt"}, nil
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if fetches != 1 || got.Name != "rebuilt" {
		t.Errorf("expected corrupt entry treated as miss, got %d fetches, %+v", fetches, got)
	}
}

func TestPutRoundTrips(t *testing.T) {
	mc := newMockCache()
	ctx := context.Background()

	if err := Put(ctx, mc, "k", time.Minute, payload{Name: "warmed", Cents: 100}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := GetOrFetch(ctx, mc, "k", time.Minute, func(ctx context.Context) (payload, error) {
		t.Fatal("fetch must not run after Put")
		return payload{}, nil
	})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "warmed" || got.Cents != 100 {
		t.Errorf("unexpected value %+v", got)
	}
}

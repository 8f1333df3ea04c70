package cacheinfra

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/viccon/sturdyc"
)

// MemoryConfig holds the configuration for the in-process sturdyc backend.
type MemoryConfig struct {
	// Capacity defines the maximum number of entries each TTL tier can
	// store. Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent
	// access. Must be greater than 0.
	NumShards int

	// EvictionPercentage specifies what percentage of entries to evict
	// when a tier reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often the cache checks for expired
	// entries. Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultMemoryConfig returns a MemoryConfig with sensible defaults.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Capacity:           10000,
		NumShards:          64,
		EvictionPercentage: 10,
	}
}

// Validate checks if the configuration values are valid.
func (c MemoryConfig) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}
	return nil
}

func (c MemoryConfig) options() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// memoryCache adapts sturdyc to the Cache port. A sturdyc client carries a
// single TTL, while the port takes the TTL per call, so the adapter keeps
// one client per TTL tier and routes each Set to the client matching its
// TTL. Keys are unique across tiers (the key scheme prefixes by entity
// kind), so Get scans the tiers for the first hit.
//
// Early refreshes and missing-record storage stay disabled on purpose:
// both would change the observable read-through behaviour (stampedes are
// accepted, negative results are never cached).
type memoryCache struct {
	cfg MemoryConfig

	mu      sync.RWMutex
	clients map[time.Duration]*sturdyc.Client[[]byte]
}

// NewMemoryCache creates the in-process cache backend.
func NewMemoryCache(cfg MemoryConfig) (*memoryCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &memoryCache{
		cfg:     cfg,
		clients: make(map[time.Duration]*sturdyc.Client[[]byte]),
	}, nil
}

func (m *memoryCache) clientFor(ttl time.Duration) *sturdyc.Client[[]byte] {
	m.mu.RLock()
	c, ok := m.clients[ttl]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[ttl]; ok {
		return c
	}
	c = sturdyc.New[[]byte](
		m.cfg.Capacity,
		m.cfg.NumShards,
		ttl,
		m.cfg.EvictionPercentage,
		m.cfg.options()...,
	)
	m.clients[ttl] = c
	return c
}

func (m *memoryCache) tiers() []*sturdyc.Client[[]byte] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*sturdyc.Client[[]byte], 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out
}

// Get returns the payload stored under key, scanning every TTL tier.
func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	for _, c := range m.tiers() {
		if v, ok := c.Get(key); ok {
			return v, true
		}
	}
	return nil, false
}

// Set stores the payload in the tier matching the TTL.
func (m *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.clientFor(ttl).Set(key, value)
	return nil
}

// Delete removes a key from every tier.
func (m *memoryCache) Delete(ctx context.Context, key string) error {
	for _, c := range m.tiers() {
		c.Delete(key)
	}
	return nil
}

// DeleteMany removes a batch of keys from every tier.
func (m *memoryCache) DeleteMany(ctx context.Context, keys []string) error {
	for _, c := range m.tiers() {
		for _, key := range keys {
			c.Delete(key)
		}
	}
	return nil
}

// DeletePattern removes every key starting with prefix from every tier.
func (m *memoryCache) DeletePattern(ctx context.Context, prefix string) error {
	for _, c := range m.tiers() {
		for _, key := range c.ScanKeys() {
			if strings.HasPrefix(key, prefix) {
				c.Delete(key)
			}
		}
	}
	return nil
}

package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/autozen/backend/internal/cacheinfra"
)

// MemoryConfig exposes the in-process backend configuration to consumers
// outside the module.
type MemoryConfig struct {
	Capacity           int
	NumShards          int
	EvictionPercentage int
	EvictionInterval   time.Duration
}

// DefaultMemoryConfig returns a MemoryConfig populated with sensible
// defaults.
func DefaultMemoryConfig() MemoryConfig {
	return fromInternal(cacheinfra.DefaultMemoryConfig())
}

// Validate checks whether the configuration values are valid.
func (c MemoryConfig) Validate() error {
	return c.toInternal().Validate()
}

// NewMemoryCache constructs the in-process cache backend.
func NewMemoryCache(cfg MemoryConfig) (Cache, error) {
	return cacheinfra.NewMemoryCache(cfg.toInternal())
}

// RedisConfig exposes the Redis backend configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Validate checks whether the configuration values are valid.
func (c RedisConfig) Validate() error {
	return cacheinfra.RedisConfig(c).Validate()
}

// NewRedisCache constructs the Redis cache backend. A nil logger disables
// logging.
func NewRedisCache(cfg RedisConfig, log *zap.Logger) (Cache, error) {
	return cacheinfra.NewRedisCache(cacheinfra.RedisConfig(cfg), log)
}

func (c MemoryConfig) toInternal() cacheinfra.MemoryConfig {
	return cacheinfra.MemoryConfig{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func fromInternal(c cacheinfra.MemoryConfig) MemoryConfig {
	return MemoryConfig{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

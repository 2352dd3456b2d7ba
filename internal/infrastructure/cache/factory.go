package cache

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Factory picks a Cache implementation from configuration
type Factory struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithRedis supplies the shared Redis client; without it the factory only builds memory caches
func WithRedis(client redis.UniversalClient) FactoryOption {
	return func(f *Factory) {
		f.client = client
	}
}

// NewFactory creates a new factory
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns a cache for backend. A redis backend without a client falls
// back to memory, which does not share entries across instances.
func (f *Factory) Create(backend, keyPrefix string) Cache {
	if backend == BackendRedis {
		if f.client != nil {
			f.logger.Info("using redis cache", zap.String("prefix", keyPrefix))
			return NewRedisCache(f.client, keyPrefix)
		}
		f.logger.Warn("redis unavailable, falling back to in-memory cache", zap.String("prefix", keyPrefix))
	}
	return NewMemoryCache()
}

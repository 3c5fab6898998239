package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the Redis backed (or in-memory) stores the service needs
type Stores struct {
	Idempotency shared.IdempotencyStore
	Tiers       identity.TierCache

	// Client is nil when the in-memory fallback is in use
	Client *redis.Client
}

// Backend names the store implementation, reported by the health endpoint
func (s *Stores) Backend() string {
	if s.Client != nil {
		return "redis"
	}
	return "memory"
}

// Ping checks Redis connectivity; in-memory stores are always healthy
func (s *Stores) Ping(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Ping(ctx).Err()
}

// Close releases the stores and the Redis connection
func (s *Stores) Close() error {
	var errs []error
	if s.Idempotency != nil {
		errs = append(errs, s.Idempotency.Close())
	}
	if c, ok := s.Tiers.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	if s.Client != nil {
		errs = append(errs, s.Client.Close())
	}
	return errors.Join(errs...)
}

// Factory creates Stores from configuration
type Factory struct {
	redisConfig           config.RedisConfig
	tierTTL               time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
	dialTimeout           time.Duration
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) { f.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// in-memory stores instead of failing. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) { f.allowInMemoryFallback = allow }
}

// NewFactory creates a store factory
func NewFactory(cfg config.RedisConfig, tierTTL time.Duration, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		tierTTL:               tierTTL,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		dialTimeout:           5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create connects to Redis when enabled and falls back to in-memory stores
// when Redis is disabled, or unreachable and fallback is allowed.
func (f *Factory) Create(ctx context.Context) (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory stores")
		return f.inMemory(), nil
	}

	client, err := f.connect(ctx)
	if err == nil {
		f.logger.Info("Using Redis stores", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisStores(client, f.tierTTL), nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Webhook deduplication and tier invalidation will not be shared between instances.",
		zap.Error(err),
	)
	return f.inMemory(), nil
}

func (f *Factory) connect(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, f.dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", f.redisConfig.Addr(), err)
	}
	return client, nil
}

func (f *Factory) inMemory() *Stores {
	return &Stores{
		Idempotency: NewInMemoryIdempotencyStore(),
		Tiers:       NewInMemoryTierCache(f.tierTTL),
	}
}

// NewRedisStores builds Redis backed stores sharing one client
func NewRedisStores(client *redis.Client, tierTTL time.Duration) *Stores {
	return &Stores{
		Idempotency: NewRedisIdempotencyStore(client, ""),
		Tiers:       NewRedisTierCache(client, tierTTL),
		Client:      client,
	}
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/redis/go-redis/v9"
)

const defaultTierPrefix = "invoicer:tier:"

// RedisTierCache stores resolved tiers as plain strings with a TTL
type RedisTierCache struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

// NewRedisTierCache creates a tier cache on an existing client
func NewRedisTierCache(client redis.UniversalClient, ttl time.Duration) *RedisTierCache {
	return &RedisTierCache{client: client, ttl: ttl, keyPrefix: defaultTierPrefix}
}

func (c *RedisTierCache) key(userID uuid.UUID) string {
	return c.keyPrefix + userID.String()
}

func (c *RedisTierCache) Get(ctx context.Context, userID uuid.UUID) (identity.Tier, bool, error) {
	v, err := c.client.Get(ctx, c.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cached tier: %w", err)
	}
	return identity.Tier(v), true, nil
}

func (c *RedisTierCache) Set(ctx context.Context, userID uuid.UUID, tier identity.Tier) error {
	if c.ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, c.key(userID), string(tier), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache tier: %w", err)
	}
	return nil
}

func (c *RedisTierCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached tier: %w", err)
	}
	return nil
}

// InMemoryTierCache is a process local tier cache. With several instances a
// webhook only invalidates the receiving instance; the others catch up when
// their entry expires.
type InMemoryTierCache struct {
	ttl   time.Duration
	tiers *ttlMap[identity.Tier]
}

// NewInMemoryTierCache creates a process local tier cache
func NewInMemoryTierCache(ttl time.Duration) *InMemoryTierCache {
	return &InMemoryTierCache{ttl: ttl, tiers: newTTLMap[identity.Tier](time.Minute)}
}

func (c *InMemoryTierCache) Get(_ context.Context, userID uuid.UUID) (identity.Tier, bool, error) {
	tier, ok := c.tiers.get(userID.String())
	return tier, ok, nil
}

func (c *InMemoryTierCache) Set(_ context.Context, userID uuid.UUID, tier identity.Tier) error {
	if c.ttl > 0 {
		c.tiers.set(userID.String(), tier, c.ttl)
	}
	return nil
}

func (c *InMemoryTierCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	c.tiers.delete(userID.String())
	return nil
}

// Close stops the background sweeper
func (c *InMemoryTierCache) Close() error {
	c.tiers.close()
	return nil
}

var (
	_ identity.TierCache = (*RedisTierCache)(nil)
	_ identity.TierCache = (*InMemoryTierCache)(nil)
)

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyPrefix = "invoicer:webhook:"

// RedisIdempotencyStore records processed webhook event ids in Redis so that
// every instance behind the load balancer sees the same deliveries.
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store on an existing client. The client
// is owned by the caller and is not closed by Close.
func NewRedisIdempotencyStore(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultIdempotencyPrefix
	}
	return &RedisIdempotencyStore{client: client, keyPrefix: keyPrefix}
}

// MarkProcessed uses SETNX so concurrent deliveries of one event race safely
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+eventID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return ok, nil
}

func (s *RedisIdempotencyStore) Forget(ctx context.Context, eventID string) error {
	if err := s.client.Del(ctx, s.keyPrefix+eventID).Err(); err != nil {
		return fmt.Errorf("failed to forget event: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Close() error { return nil }

// InMemoryIdempotencyStore is the single instance fallback used when Redis
// is disabled or unreachable.
type InMemoryIdempotencyStore struct {
	seen *ttlMap[struct{}]
}

// NewInMemoryIdempotencyStore starts a store that sweeps expired ids every five minutes
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{seen: newTTLMap[struct{}](5 * time.Minute)}
}

func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	return s.seen.setIfAbsent(eventID, struct{}{}, ttl), nil
}

func (s *InMemoryIdempotencyStore) Forget(_ context.Context, eventID string) error {
	s.seen.delete(eventID)
	return nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.seen.close()
	return nil
}

// Size returns the number of remembered ids, expired ones included until swept
func (s *InMemoryIdempotencyStore) Size() int {
	return s.seen.len()
}

var (
	_ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
	_ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
)

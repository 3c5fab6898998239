package identity

import (
	"context"

	"github.com/google/uuid"
)

// TierCache keeps recently resolved tiers so quota checks do not hit the
// users table on every request. Entries expire after a short TTL and are
// invalidated whenever billing state changes.
type TierCache interface {
	// Get returns the cached tier; ok is false on a miss
	Get(ctx context.Context, userID uuid.UUID) (tier Tier, ok bool, err error)

	Set(ctx context.Context, userID uuid.UUID, tier Tier) error

	Invalidate(ctx context.Context, userID uuid.UUID) error
}

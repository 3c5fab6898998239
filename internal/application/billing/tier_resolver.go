package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/invoice"
	"go.uber.org/zap"
)

// TierResolver resolves a user's billing tier from the user record.
// Results are kept in a short-TTL cache that the webhook receiver
// invalidates whenever billing state changes.
type TierResolver struct {
	userRepo  identity.UserRepository
	cache     identity.TierCache
	freeLimit int
	logger    *zap.Logger
}

// NewTierResolver creates a new TierResolver. cache may be nil.
func NewTierResolver(userRepo identity.UserRepository, cache identity.TierCache, freeLimit int, logger *zap.Logger) *TierResolver {
	if freeLimit <= 0 {
		freeLimit = identity.FreeMonthlyInvoiceLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TierResolver{
		userRepo:  userRepo,
		cache:     cache,
		freeLimit: freeLimit,
		logger:    logger,
	}
}

// Resolve returns the user's current tier.
// Cache failures are logged and fall through to the database.
func (r *TierResolver) Resolve(ctx context.Context, userID uuid.UUID) (identity.Tier, error) {
	if r.cache != nil {
		tier, ok, err := r.cache.Get(ctx, userID)
		if err != nil {
			r.logger.Warn("Tier cache read failed",
				zap.String("user_id", userID.String()),
				zap.Error(err))
		} else if ok {
			return tier, nil
		}
	}

	user, err := r.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	tier := user.Tier()

	if r.cache != nil {
		if err := r.cache.Set(ctx, userID, tier); err != nil {
			r.logger.Warn("Tier cache write failed",
				zap.String("user_id", userID.String()),
				zap.Error(err))
		}
	}
	return tier, nil
}

// Invalidate drops the cached tier for a user
func (r *TierResolver) Invalidate(ctx context.Context, userID uuid.UUID) {
	if r == nil || r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, userID); err != nil {
		r.logger.Warn("Tier cache invalidation failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

// MonthlyQuota returns the invoice creation quota for the calendar month containing now
func (r *TierResolver) MonthlyQuota(ctx context.Context, userID uuid.UUID, now time.Time) (invoice.Quota, identity.Tier, error) {
	tier, err := r.Resolve(ctx, userID)
	if err != nil {
		return invoice.Quota{}, "", fmt.Errorf("failed to resolve tier: %w", err)
	}
	limit, limited := identity.MonthlyLimit(tier, r.freeLimit)
	return invoice.MonthlyQuota(limit, !limited, now), tier, nil
}

// FreeLimit returns the configured free-tier monthly invoice limit
func (r *TierResolver) FreeLimit() int {
	return r.freeLimit
}

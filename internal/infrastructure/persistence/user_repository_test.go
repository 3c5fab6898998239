package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	u := seedUser(t, db, "jane@example.com")

	t.Run("find by id and email", func(t *testing.T) {
		found, err := repo.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", found.Email)
		assert.Equal(t, "jane", found.Name)

		found, err = repo.FindByEmail(ctx, "JANE@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)

		_, err = repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = repo.FindByEmail(ctx, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("billing state round trip", func(t *testing.T) {
		end := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
		u.AttachCustomer("cus_123")
		u.ActivateSubscription("sub_456", "price_pro", &end)
		require.NoError(t, repo.Save(ctx, u))

		found, err := repo.FindByStripeCustomerID(ctx, "cus_123")
		require.NoError(t, err)
		assert.Equal(t, identity.TierPro, found.Tier())
		require.NotNil(t, found.StripeCurrentPeriodEnd)
		assert.True(t, end.Equal(*found.StripeCurrentPeriodEnd))

		found, err = repo.FindByStripeSubscriptionID(ctx, "sub_456")
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)

		_, err = repo.FindByStripeCustomerID(ctx, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unlinked users store null stripe ids", func(t *testing.T) {
		seedUser(t, db, "first@example.com")
		seedUser(t, db, "second@example.com")

		var nullCount int64
		require.NoError(t, db.Table("users").Where("stripe_customer_id IS NULL").Count(&nullCount).Error)
		assert.Equal(t, int64(2), nullCount)
	})

	t.Run("profile update", func(t *testing.T) {
		name := "Jane Studio"
		require.NoError(t, u.UpdateProfile(identity.ProfileUpdate{BusinessName: &name}))
		require.NoError(t, repo.Save(ctx, u))

		found, err := repo.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jane Studio", found.Profile.BusinessName)
		assert.Equal(t, "cus_123", found.StripeCustomerID)
	})
}

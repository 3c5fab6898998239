package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by (normalized) email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByStripeCustomerID finds the user linked to a Stripe customer
	FindByStripeCustomerID(ctx context.Context, customerID string) (*User, error)

	// FindByStripeSubscriptionID finds the user linked to a Stripe subscription
	FindByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*User, error)

	// Save creates or updates a user
	Save(ctx context.Context, user *User) error
}

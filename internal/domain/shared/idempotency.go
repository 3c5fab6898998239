package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed external event IDs (Stripe webhook
// deliveries) so a redelivered event is applied at most once.
type IdempotencyStore interface {
	// MarkProcessed marks an event as processed with a TTL.
	// Returns true if the event was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// Forget removes an event mark so a failed delivery can be retried
	Forget(ctx context.Context, eventID string) error

	// Close closes the store and releases resources
	Close() error
}

// DefaultIdempotencyTTL is how long processed webhook event IDs are remembered.
// Stripe retries failed deliveries for up to three days.
const DefaultIdempotencyTTL = 72 * time.Hour

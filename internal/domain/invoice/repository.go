package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// Repository defines the interface for invoice persistence.
// Every read and write is scoped by the owning user.
type Repository interface {
	// FindByIDForUser loads an invoice with its client and ordered items
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Invoice, error)

	// FindAllForUser lists invoices newest first with client and items.
	// filter.Filters["status"] restricts to one status.
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Invoice, int64, error)

	// FindRecentForClient returns the newest invoices billed to a client
	FindRecentForClient(ctx context.Context, userID, clientID uuid.UUID, limit int) ([]Invoice, error)

	// CreateWithinQuota inserts the invoice and its items unless the user already
	// created quota.Limit invoices since quota.Since. The count and the insert are
	// atomic with respect to other creates by the same user.
	CreateWithinQuota(ctx context.Context, invoice *Invoice, quota Quota) error

	// Update saves scalar fields and, when replaceItems is set, replaces the item set
	Update(ctx context.Context, invoice *Invoice, replaceItems bool) error

	// UpdateStatus saves status and paid_at only
	UpdateStatus(ctx context.Context, invoice *Invoice) error

	// DeleteForUser deletes an invoice and its items
	DeleteForUser(ctx context.Context, userID, id uuid.UUID) error

	// CountForClient counts invoices referencing a client
	CountForClient(ctx context.Context, userID, clientID uuid.UUID) (int64, error)

	// CountCreatedSince counts invoices the user created at or after since
	CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
}

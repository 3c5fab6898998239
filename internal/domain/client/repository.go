package client

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// Summary is a client together with the number of invoices referencing it
type Summary struct {
	Client       Client
	InvoiceCount int64
}

// Repository defines the interface for client persistence.
// Every method is scoped by the owning user.
type Repository interface {
	// FindByIDForUser finds a client owned by userID
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Client, error)

	// FindAllForUser lists the user's clients ordered by name, with invoice counts
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Summary, int64, error)

	// Save creates or updates a client
	Save(ctx context.Context, client *Client) error

	// DeleteForUser deletes a client owned by userID
	DeleteForUser(ctx context.Context, userID, id uuid.UUID) error
}

package client

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RecentInvoiceLimit is how many invoices the client detail view includes
const RecentInvoiceLimit = 10

// ErrClientHasInvoices blocks deleting a client that is still billed
var ErrClientHasInvoices = shared.NewConflictError("Cannot delete client with existing invoices")

// InvoiceLookup is the part of the invoice repository the client registry reads
type InvoiceLookup interface {
	FindRecentForClient(ctx context.Context, userID, clientID uuid.UUID, limit int) ([]invoice.Invoice, error)
	CountForClient(ctx context.Context, userID, clientID uuid.UUID) (int64, error)
}

// ClientService handles client-related business operations
type ClientService struct {
	clientRepo client.Repository
	invoices   InvoiceLookup
	logger     *zap.Logger
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo client.Repository, invoices InvoiceLookup, logger *zap.Logger) *ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{
		clientRepo: clientRepo,
		invoices:   invoices,
		logger:     logger,
	}
}

// List returns the user's clients ordered by name with invoice counts
func (s *ClientService) List(ctx context.Context, userID uuid.UUID, filter ClientListFilter) ([]ClientResponse, int64, error) {
	domainFilter := shared.Filter{
		OrderBy:  "name",
		OrderDir: "asc",
		Search:   filter.Search,
		Filters:  make(map[string]any),
	}
	if filter.PageSize > 0 {
		domainFilter.Page = max(filter.Page, 1)
		domainFilter.PageSize = filter.PageSize
	}

	summaries, total, err := s.clientRepo.FindAllForUser(ctx, userID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToClientResponses(summaries), total, nil
}

// GetByID returns a client with its invoice count and most recent invoices
func (s *ClientService) GetByID(ctx context.Context, userID, clientID uuid.UUID) (*ClientDetailResponse, error) {
	c, err := s.clientRepo.FindByIDForUser(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}

	count, err := s.invoices.CountForClient(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}
	recent, err := s.invoices.FindRecentForClient(ctx, userID, clientID, RecentInvoiceLimit)
	if err != nil {
		return nil, err
	}

	return &ClientDetailResponse{
		ClientResponse: ToClientResponse(c, count),
		RecentInvoices: toClientInvoiceResponses(recent),
	}, nil
}

// Create creates a new client
func (s *ClientService) Create(ctx context.Context, userID uuid.UUID, req CreateClientRequest) (*ClientResponse, error) {
	c, err := client.NewClient(userID, req.Name, req.Email)
	if err != nil {
		return nil, err
	}
	if err := c.SetDetails(client.Details{
		Phone:   req.Phone,
		Address: req.Address,
		Company: req.Company,
		Notes:   req.Notes,
	}); err != nil {
		return nil, err
	}

	if err := s.clientRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("Client created",
		zap.String("user_id", userID.String()),
		zap.String("client_id", c.ID.String()))

	response := ToClientResponse(c, 0)
	return &response, nil
}

// Update applies a partial update to a client
func (s *ClientService) Update(ctx context.Context, userID, clientID uuid.UUID, req UpdateClientRequest) (*ClientResponse, error) {
	c, err := s.clientRepo.FindByIDForUser(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}

	if err := c.Apply(client.Update{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Company: req.Company,
		Notes:   req.Notes,
	}); err != nil {
		return nil, err
	}

	if err := s.clientRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	count, err := s.invoices.CountForClient(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}

	response := ToClientResponse(c, count)
	return &response, nil
}

// Delete removes a client that no invoice references
func (s *ClientService) Delete(ctx context.Context, userID, clientID uuid.UUID) error {
	if _, err := s.clientRepo.FindByIDForUser(ctx, userID, clientID); err != nil {
		return err
	}

	count, err := s.invoices.CountForClient(ctx, userID, clientID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrClientHasInvoices
	}

	if err := s.clientRepo.DeleteForUser(ctx, userID, clientID); err != nil {
		return err
	}

	s.logger.Info("Client deleted",
		zap.String("user_id", userID.String()),
		zap.String("client_id", clientID.String()))
	return nil
}

package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrClientNotFound is returned when an invoice references a client the user does not own
var ErrClientNotFound = shared.NewDomainError(shared.CodeNotFound, "Client not found")

// ClientLookup resolves clients owned by a user
type ClientLookup interface {
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*client.Client, error)
}

// QuotaResolver returns the invoice creation quota for a user
type QuotaResolver interface {
	MonthlyQuota(ctx context.Context, userID uuid.UUID, now time.Time) (invoice.Quota, identity.Tier, error)
}

// InvoiceService handles invoice creation, updates and status transitions
type InvoiceService struct {
	invoiceRepo invoice.Repository
	clients     ClientLookup
	quotas      QuotaResolver
	logger      *zap.Logger
	now         shared.Clock

	businessMetrics *telemetry.BusinessMetrics
}

// InvoiceServiceConfig contains configuration for InvoiceService
type InvoiceServiceConfig struct {
	InvoiceRepo invoice.Repository
	Clients     ClientLookup
	Quotas      QuotaResolver
	Logger      *zap.Logger
	// Clock defaults to the server's local clock
	Clock shared.Clock
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(cfg InvoiceServiceConfig) *InvoiceService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		invoiceRepo: cfg.InvoiceRepo,
		clients:     cfg.Clients,
		quotas:      cfg.Quotas,
		logger:      logger,
		now:         cfg.Clock.Or(),
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *InvoiceService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Create creates a DRAFT invoice if the user's monthly quota allows it
func (s *InvoiceService) Create(ctx context.Context, userID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create",
		telemetry.WithAttribute(telemetry.SpanAttrUserID, userID))
	defer span.End()

	c, err := s.ownedClient(ctx, userID, req.ClientID)
	if err != nil {
		return nil, err
	}

	inv, err := invoice.NewInvoice(userID, invoice.Draft{
		ClientID:      req.ClientID,
		InvoiceNumber: req.InvoiceNumber,
		IssueDate:     req.IssueDate.Time,
		DueDate:       req.DueDate.Time,
		Items:         toItemInputs(req.Items),
		TaxRate:       req.TaxRate,
		Discount:      req.Discount,
		Notes:         req.Notes,
		Terms:         req.Terms,
		Submitted:     invoice.SubmittedTotals{Subtotal: req.Subtotal, Total: req.Total},
	})
	if err != nil {
		return nil, err
	}

	quota, tier, err := s.quotas.MonthlyQuota(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrTier, string(tier), telemetry.SpanAttrClientID, req.ClientID)

	if err := s.invoiceRepo.CreateWithinQuota(ctx, inv, quota); err != nil {
		var quotaErr *invoice.QuotaExceededError
		if errors.As(err, &quotaErr) {
			s.logger.Info("Invoice quota exceeded",
				zap.String("user_id", userID.String()),
				zap.String("usage", quotaErr.Detail()))
			if s.businessMetrics != nil {
				s.businessMetrics.RecordQuotaRejected(ctx, userID)
			}
			return nil, err
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	inv.Client = c

	if s.businessMetrics != nil {
		s.businessMetrics.RecordInvoiceCreated(ctx, userID, string(tier), inv.Total)
	}
	s.logger.Info("Invoice created",
		zap.String("user_id", userID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("total", inv.Total.StringFixed(2)))

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// GetByID returns an invoice with its client and items
func (s *InvoiceService) GetByID(ctx context.Context, userID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForUser(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(inv)
	return &response, nil
}

// List returns the user's invoices newest first
func (s *InvoiceService) List(ctx context.Context, userID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := shared.Filter{
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]any),
	}
	if filter.PageSize > 0 {
		domainFilter.Page = max(filter.Page, 1)
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		status, ok := invoice.ParseStatus(strings.ToUpper(filter.Status))
		if !ok {
			return nil, 0, invalidStatusError()
		}
		domainFilter.Filters["status"] = string(status)
	}
	if filter.ClientID != "" {
		clientID, err := uuid.Parse(filter.ClientID)
		if err != nil {
			return nil, 0, shared.NewValidationError("Invalid client ID format")
		}
		domainFilter.Filters["client_id"] = clientID
	}

	invoices, total, err := s.invoiceRepo.FindAllForUser(ctx, userID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToInvoiceResponses(invoices), total, nil
}

// Update applies a partial update. Totals are always recomputed and the
// item set is replaced when items are provided.
func (s *InvoiceService) Update(ctx context.Context, userID, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID))
	defer span.End()

	inv, err := s.invoiceRepo.FindByIDForUser(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}

	var newClient *client.Client
	if req.ClientID != nil && *req.ClientID != inv.ClientID {
		if newClient, err = s.ownedClient(ctx, userID, *req.ClientID); err != nil {
			return nil, err
		}
	}

	update := invoice.Update{
		ClientID:      req.ClientID,
		InvoiceNumber: req.InvoiceNumber,
		TaxRate:       req.TaxRate,
		Discount:      req.Discount,
		Notes:         req.Notes,
		Terms:         req.Terms,
		Submitted:     invoice.SubmittedTotals{Subtotal: req.Subtotal, Total: req.Total},
	}
	if req.IssueDate != nil {
		update.IssueDate = &req.IssueDate.Time
	}
	if req.DueDate != nil {
		update.DueDate = &req.DueDate.Time
	}
	if req.Items != nil {
		items := toItemInputs(*req.Items)
		update.Items = &items
	}

	previousClient := inv.Client
	if err := inv.Apply(update); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Update(ctx, inv, update.ReplacesItems()); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	switch {
	case newClient != nil:
		inv.Client = newClient
	case inv.Client == nil:
		inv.Client = previousClient
	}

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// UpdateStatus moves an invoice to a new status; PAID stamps paid_at
func (s *InvoiceService) UpdateStatus(ctx context.Context, userID, invoiceID uuid.UUID, req UpdateStatusRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update_status",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID),
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceStatus, req.Status))
	defer span.End()

	status, ok := invoice.ParseStatus(req.Status)
	if !ok {
		return nil, invalidStatusError()
	}

	inv, err := s.invoiceRepo.FindByIDForUser(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}

	previous := inv.Status
	if err := inv.ChangeStatus(status, s.now()); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.UpdateStatus(ctx, inv); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}

	if s.businessMetrics != nil {
		s.businessMetrics.RecordStatusChanged(ctx, string(previous), string(status))
	}
	s.logger.Info("Invoice status changed",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// Delete removes an invoice and its items
func (s *InvoiceService) Delete(ctx context.Context, userID, invoiceID uuid.UUID) error {
	if err := s.invoiceRepo.DeleteForUser(ctx, userID, invoiceID); err != nil {
		return err
	}
	s.logger.Info("Invoice deleted",
		zap.String("user_id", userID.String()),
		zap.String("invoice_id", invoiceID.String()))
	return nil
}

// ownedClient loads a client, mapping a miss to ErrClientNotFound
func (s *InvoiceService) ownedClient(ctx context.Context, userID, clientID uuid.UUID) (*client.Client, error) {
	c, err := s.clients.FindByIDForUser(ctx, userID, clientID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return c, nil
}

func invalidStatusError() error {
	names := make([]string, 0, len(invoice.AllStatuses()))
	for _, s := range invoice.AllStatuses() {
		names = append(names, string(s))
	}
	return shared.NewValidationError("Invalid status. Must be one of: " + strings.Join(names, ", "))
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	invoiceapp "github.com/invoicer/backend/internal/application/invoice"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// InvoiceService is the invoice engine as seen by the HTTP layer
type InvoiceService interface {
	List(ctx context.Context, userID uuid.UUID, filter invoiceapp.InvoiceListFilter) ([]invoiceapp.InvoiceResponse, int64, error)
	GetByID(ctx context.Context, userID, invoiceID uuid.UUID) (*invoiceapp.InvoiceResponse, error)
	Create(ctx context.Context, userID uuid.UUID, req invoiceapp.CreateInvoiceRequest) (*invoiceapp.InvoiceResponse, error)
	Update(ctx context.Context, userID, invoiceID uuid.UUID, req invoiceapp.UpdateInvoiceRequest) (*invoiceapp.InvoiceResponse, error)
	UpdateStatus(ctx context.Context, userID, invoiceID uuid.UUID, req invoiceapp.UpdateStatusRequest) (*invoiceapp.InvoiceResponse, error)
	Delete(ctx context.Context, userID, invoiceID uuid.UUID) error
}

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService InvoiceService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		BaseHandler:    newBaseHandler(logger),
		invoiceService: invoiceService,
	}
}

// List handles GET /invoices with optional status and client filters
func (h *InvoiceHandler) List(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var filter invoiceapp.InvoiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page := dto.PageRequest{Page: filter.Page, PageSize: filter.PageSize}
	if page.Paginated() {
		page = page.Normalize()
		filter.Page, filter.PageSize = page.Page, page.PageSize
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if page.Paginated() {
		h.SuccessWithMeta(c, invoices, total, page.Page, page.PageSize)
		return
	}
	h.Success(c, invoices)
}

// GetByID handles GET /invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id", "Invoice")
	if !ok {
		return
	}

	inv, err := h.invoiceService.GetByID(c.Request.Context(), userID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, inv)
}

// Create handles POST /invoices. Free users over their monthly quota get 403.
func (h *InvoiceHandler) Create(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req invoiceapp.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	inv, err := h.invoiceService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, inv)
}

// Update handles PUT /invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id", "Invoice")
	if !ok {
		return
	}

	var req invoiceapp.UpdateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	inv, err := h.invoiceService.Update(c.Request.Context(), userID, invoiceID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, inv)
}

// UpdateStatus handles PATCH /invoices/:id/status
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id", "Invoice")
	if !ok {
		return
	}

	var req invoiceapp.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	inv, err := h.invoiceService.UpdateStatus(c.Request.Context(), userID, invoiceID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, inv)
}

// Delete handles DELETE /invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id", "Invoice")
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), userID, invoiceID); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, gin.H{"deleted": true})
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	clientapp "github.com/invoicer/backend/internal/application/client"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ClientService is the client registry as seen by the HTTP layer
type ClientService interface {
	List(ctx context.Context, userID uuid.UUID, filter clientapp.ClientListFilter) ([]clientapp.ClientResponse, int64, error)
	GetByID(ctx context.Context, userID, clientID uuid.UUID) (*clientapp.ClientDetailResponse, error)
	Create(ctx context.Context, userID uuid.UUID, req clientapp.CreateClientRequest) (*clientapp.ClientResponse, error)
	Update(ctx context.Context, userID, clientID uuid.UUID, req clientapp.UpdateClientRequest) (*clientapp.ClientResponse, error)
	Delete(ctx context.Context, userID, clientID uuid.UUID) error
}

// ClientHandler handles client-related API endpoints
type ClientHandler struct {
	BaseHandler
	clientService ClientService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clientService ClientService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		BaseHandler:   newBaseHandler(logger),
		clientService: clientService,
	}
}

// List handles GET /clients. Results are paginated only when page or
// page_size is given.
func (h *ClientHandler) List(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var filter clientapp.ClientListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page := dto.PageRequest{Page: filter.Page, PageSize: filter.PageSize}
	if page.Paginated() {
		page = page.Normalize()
		filter.Page, filter.PageSize = page.Page, page.PageSize
	}

	clients, total, err := h.clientService.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if page.Paginated() {
		h.SuccessWithMeta(c, clients, total, page.Page, page.PageSize)
		return
	}
	h.Success(c, clients)
}

// GetByID handles GET /clients/:id
func (h *ClientHandler) GetByID(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	clientID, ok := h.pathID(c, "id", "Client")
	if !ok {
		return
	}

	client, err := h.clientService.GetByID(c.Request.Context(), userID, clientID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, client)
}

// Create handles POST /clients
func (h *ClientHandler) Create(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req clientapp.CreateClientRequest
	if !h.bindJSON(c, &req) {
		return
	}

	client, err := h.clientService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, client)
}

// Update handles PUT /clients/:id
func (h *ClientHandler) Update(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	clientID, ok := h.pathID(c, "id", "Client")
	if !ok {
		return
	}

	var req clientapp.UpdateClientRequest
	if !h.bindJSON(c, &req) {
		return
	}

	client, err := h.clientService.Update(c.Request.Context(), userID, clientID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, client)
}

// Delete handles DELETE /clients/:id. Clients with invoices cannot be deleted.
func (h *ClientHandler) Delete(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	clientID, ok := h.pathID(c, "id", "Client")
	if !ok {
		return
	}

	if err := h.clientService.Delete(c.Request.Context(), userID, clientID); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, gin.H{"deleted": true})
}

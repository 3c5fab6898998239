package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/invoicer/backend/internal/application/identity"
	"go.uber.org/zap"
)

// UserService serves the current user's profile and business settings
type UserService interface {
	Me(ctx context.Context, userID uuid.UUID) (*identityapp.UserResponse, error)
	GetSettings(ctx context.Context, userID uuid.UUID) (*identityapp.SettingsResponse, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, req identityapp.UpdateSettingsRequest) (*identityapp.SettingsResponse, error)
}

// SettingsHandler handles the business profile endpoints
type SettingsHandler struct {
	BaseHandler
	userService UserService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(userService UserService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		BaseHandler: newBaseHandler(logger),
		userService: userService,
	}
}

// Get handles GET /settings
func (h *SettingsHandler) Get(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	settings, err := h.userService.GetSettings(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, settings)
}

// Update handles PUT /settings. Omitted fields keep their value.
func (h *SettingsHandler) Update(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req identityapp.UpdateSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	settings, err := h.userService.UpdateSettings(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, settings)
}

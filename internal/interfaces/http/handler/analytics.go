package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	analyticsapp "github.com/invoicer/backend/internal/application/analytics"
	"go.uber.org/zap"
)

// AnalyticsService aggregates a user's invoice history
type AnalyticsService interface {
	Summary(ctx context.Context, userID uuid.UUID) (*analyticsapp.SummaryResponse, error)
	Dashboard(ctx context.Context, userID uuid.UUID) (*analyticsapp.DashboardResponse, error)
}

// AnalyticsHandler serves the analytics and dashboard views
type AnalyticsHandler struct {
	BaseHandler
	analyticsService AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      newBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// Summary handles GET /analytics
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	summary, err := h.analyticsService.Summary(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, summary)
}

// Dashboard handles GET /dashboard
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	dashboard, err := h.analyticsService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dashboard)
}

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/invoicer/backend/internal/application/billing"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Stripe events are small; anything larger is not a genuine delivery
const maxWebhookPayloadSize = 64 << 10

// StripeSignatureHeader carries the webhook signature
const StripeSignatureHeader = "Stripe-Signature"

// BillingService is the billing bridge as seen by the HTTP layer
type BillingService interface {
	CreateCheckout(ctx context.Context, userID uuid.UUID) (*billingapp.SessionResponse, error)
	CreatePortal(ctx context.Context, userID uuid.UUID) (*billingapp.SessionResponse, error)
	Plans() []identity.Plan
	Subscription(ctx context.Context, userID uuid.UUID) (*billingapp.SubscriptionResponse, error)
}

// WebhookProcessor applies Stripe webhook deliveries
type WebhookProcessor interface {
	ProcessWebhook(ctx context.Context, payload []byte, signature string) (*billingapp.WebhookResult, error)
}

// BillingHandler handles checkout, portal, plan and webhook endpoints
type BillingHandler struct {
	BaseHandler
	billingService BillingService
	webhooks       WebhookProcessor
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billingService BillingService, webhooks WebhookProcessor, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		BaseHandler:    newBaseHandler(logger),
		billingService: billingService,
		webhooks:       webhooks,
	}
}

// Checkout handles POST /billing/checkout and returns the hosted checkout URL
func (h *BillingHandler) Checkout(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	session, err := h.billingService.CreateCheckout(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, session)
}

// Portal handles POST /billing/portal and returns the billing portal URL
func (h *BillingHandler) Portal(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	session, err := h.billingService.CreatePortal(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, session)
}

// Plans handles GET /billing/plans
func (h *BillingHandler) Plans(c *gin.Context) {
	h.Success(c, h.billingService.Plans())
}

// Subscription handles GET /billing/subscription
func (h *BillingHandler) Subscription(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	sub, err := h.billingService.Subscription(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, sub)
}

// Webhook handles POST /billing/webhook. The raw body is needed for
// signature verification, so it is read before any decoding. A non-2xx
// answer makes Stripe redeliver the event.
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Payload too large")
			return
		}
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Payload too large")
		return
	}

	signature := c.GetHeader(StripeSignatureHeader)
	if signature == "" {
		h.BadRequest(c, "Missing Stripe-Signature header")
		return
	}

	result, err := h.webhooks.ProcessWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

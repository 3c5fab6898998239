package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/billing"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrInvalidWebhook is returned for deliveries that fail signature verification or decoding
var ErrInvalidWebhook = shared.NewValidationError("Invalid webhook payload or signature")

// WebhookParser verifies and decodes Stripe webhook deliveries
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*billing.WebhookEvent, error)
}

// WebhookService applies Stripe webhook events to user billing state
type WebhookService struct {
	parser         WebhookParser
	userRepo       identity.UserRepository
	tiers          *TierResolver
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	proPriceID     string
	logger         *zap.Logger

	businessMetrics *telemetry.BusinessMetrics
}

// WebhookServiceConfig contains configuration for WebhookService
type WebhookServiceConfig struct {
	Parser   WebhookParser
	UserRepo identity.UserRepository
	Tiers    *TierResolver
	// Idempotency deduplicates redelivered events; nil disables deduplication
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
	ProPriceID     string
	Logger         *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(cfg WebhookServiceConfig) *WebhookService {
	ttl := cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookService{
		parser:         cfg.Parser,
		userRepo:       cfg.UserRepo,
		tiers:          cfg.Tiers,
		idempotency:    cfg.Idempotency,
		idempotencyTTL: ttl,
		proPriceID:     cfg.ProPriceID,
		logger:         logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *WebhookService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// ProcessWebhook verifies, deduplicates and applies a Stripe webhook delivery
func (s *WebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "process_webhook")
	defer span.End()

	if s.parser == nil {
		return nil, ErrBillingNotConfigured
	}

	event, err := s.parser.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Rejected Stripe webhook delivery", zap.Error(err))
		return nil, ErrInvalidWebhook
	}
	telemetry.SetAttributes(span, "stripe.event_id", event.ID, telemetry.SpanAttrEventType, event.Type)

	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type))

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: event.Type,
		Processed: true,
	}

	if s.idempotency != nil {
		isNew, err := s.idempotency.MarkProcessed(ctx, event.ID, s.idempotencyTTL)
		if err != nil {
			// Every handler below is safe to apply twice
			s.logger.Warn("Idempotency store unavailable, processing without deduplication",
				zap.String("event_id", event.ID),
				zap.Error(err))
		} else if !isNew {
			s.logger.Info("Skipping duplicate Stripe webhook event",
				zap.String("event_id", event.ID))
			result.Duplicate = true
			result.Message = "Event already processed"
			s.recordOutcome(ctx, event.Type, telemetry.WebhookOutcomeDuplicate)
			return result, nil
		}
	}

	switch event.Type {
	case billing.EventCheckoutCompleted:
		err = s.handleCheckoutCompleted(ctx, event.Checkout)
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated:
		err = s.handleSubscriptionChanged(ctx, event.Subscription)
	case billing.EventSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ctx, event.Subscription)
	case billing.EventInvoicePaymentFailed:
		s.handlePaymentFailed(event.PaymentFailed)
	default:
		s.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", event.Type))
		result.Message = "Event type not handled"
		s.recordOutcome(ctx, event.Type, telemetry.WebhookOutcomeIgnored)
		return result, nil
	}

	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err))
		if s.idempotency != nil {
			if ferr := s.idempotency.Forget(ctx, event.ID); ferr != nil {
				s.logger.Warn("Failed to release idempotency mark",
					zap.String("event_id", event.ID),
					zap.Error(ferr))
			}
		}
		s.recordOutcome(ctx, event.Type, telemetry.WebhookOutcomeFailed)
		return nil, err
	}

	s.recordOutcome(ctx, event.Type, telemetry.WebhookOutcomeApplied)
	return result, nil
}

// handleCheckoutCompleted links the Stripe customer and subscription to the user
func (s *WebhookService) handleCheckoutCompleted(ctx context.Context, checkout *billing.CheckoutCompleted) error {
	if checkout == nil {
		return nil
	}

	userID, err := uuid.Parse(checkout.UserID)
	if err != nil {
		s.logger.Warn("Checkout session has no valid user reference, skipping",
			zap.String("session_id", checkout.SessionID),
			zap.String("user_ref", checkout.UserID))
		return nil
	}

	s.logger.Info("Handling checkout completed",
		zap.String("session_id", checkout.SessionID),
		zap.String("user_id", userID.String()),
		zap.String("customer_id", checkout.CustomerID),
		zap.String("subscription_id", checkout.SubscriptionID))

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			// Acknowledge so Stripe does not retry a delivery we can never apply
			s.logger.Warn("User not found for checkout session",
				zap.String("user_id", userID.String()))
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	user.AttachCustomer(checkout.CustomerID)
	user.ActivateSubscription(checkout.SubscriptionID, s.proPriceID, user.StripeCurrentPeriodEnd)

	if err := s.userRepo.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	s.tiers.Invalidate(ctx, user.ID)

	s.logger.Info("User upgraded after checkout",
		zap.String("user_id", user.ID.String()),
		zap.String("price_id", s.proPriceID))
	return nil
}

// handleSubscriptionChanged mirrors subscription status onto the user
func (s *WebhookService) handleSubscriptionChanged(ctx context.Context, change *billing.SubscriptionChange) error {
	if change == nil {
		return nil
	}

	s.logger.Info("Handling subscription change",
		zap.String("subscription_id", change.SubscriptionID),
		zap.String("customer_id", change.CustomerID),
		zap.String("status", string(change.Status)))

	user, err := s.findSubscriber(ctx, change)
	if err != nil || user == nil {
		return err
	}

	if s.isStale(user, change) {
		return nil
	}

	if change.Status.IsActive() {
		priceID := change.PriceID
		if priceID == "" {
			priceID = s.proPriceID
		}
		user.ActivateSubscription(change.SubscriptionID, priceID, change.CurrentPeriodEnd)
	} else {
		user.DeactivateSubscription(change.SubscriptionID)
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	s.tiers.Invalidate(ctx, user.ID)

	s.logger.Info("Subscription state updated",
		zap.String("user_id", user.ID.String()),
		zap.String("tier", string(user.Tier())))
	return nil
}

// handleSubscriptionDeleted drops the paid tier
func (s *WebhookService) handleSubscriptionDeleted(ctx context.Context, change *billing.SubscriptionChange) error {
	if change == nil {
		return nil
	}

	s.logger.Info("Handling subscription deleted",
		zap.String("subscription_id", change.SubscriptionID),
		zap.String("customer_id", change.CustomerID))

	user, err := s.findSubscriber(ctx, change)
	if err != nil || user == nil {
		return err
	}
	if s.isStale(user, change) {
		return nil
	}

	user.CancelSubscription()
	if err := s.userRepo.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	s.tiers.Invalidate(ctx, user.ID)

	s.logger.Info("Subscription cancelled",
		zap.String("user_id", user.ID.String()))
	return nil
}

func (s *WebhookService) handlePaymentFailed(failed *billing.PaymentFailed) {
	if failed == nil {
		return
	}
	s.logger.Warn("Stripe invoice payment failed",
		zap.String("invoice_id", failed.InvoiceID),
		zap.String("customer_id", failed.CustomerID),
		zap.String("subscription_id", failed.SubscriptionID),
		zap.Int64("attempt_count", failed.AttemptCount))
}

// findSubscriber looks the user up by customer id, then by subscription id.
// A nil user with a nil error means the event should be acknowledged and ignored.
func (s *WebhookService) findSubscriber(ctx context.Context, change *billing.SubscriptionChange) (*identity.User, error) {
	if change.CustomerID != "" {
		user, err := s.userRepo.FindByStripeCustomerID(ctx, change.CustomerID)
		if err == nil {
			return user, nil
		}
		if !isNotFound(err) {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
	}

	if change.SubscriptionID != "" {
		user, err := s.userRepo.FindByStripeSubscriptionID(ctx, change.SubscriptionID)
		if err == nil {
			return user, nil
		}
		if !isNotFound(err) {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
	}

	s.logger.Warn("User not found for Stripe subscription",
		zap.String("customer_id", change.CustomerID),
		zap.String("subscription_id", change.SubscriptionID))
	return nil, nil
}

// isStale reports whether the event concerns a subscription the user has since replaced
func (s *WebhookService) isStale(user *identity.User, change *billing.SubscriptionChange) bool {
	if user.StripeSubscriptionID == "" || user.StripeSubscriptionID == change.SubscriptionID {
		return false
	}
	s.logger.Info("Ignoring event for a replaced subscription",
		zap.String("user_id", user.ID.String()),
		zap.String("current_subscription_id", user.StripeSubscriptionID),
		zap.String("event_subscription_id", change.SubscriptionID))
	return true
}

func (s *WebhookService) recordOutcome(ctx context.Context, eventType string, outcome telemetry.WebhookOutcome) {
	if s.businessMetrics != nil {
		s.businessMetrics.RecordWebhookEvent(ctx, eventType, outcome)
	}
}

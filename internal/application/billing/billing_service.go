package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/billing"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrBillingUnavailable is returned when the payment processor call failed
var ErrBillingUnavailable = shared.NewDomainError(shared.CodeUpstream, "Billing provider unavailable")

// ErrBillingNotConfigured is returned when no Stripe credentials are configured
var ErrBillingNotConfigured = shared.NewDomainError(shared.CodePrecondition, "Billing is not configured")

// ErrNoSubscription is returned when a user without a Stripe customer opens the portal
var ErrNoSubscription = shared.NewDomainError(shared.CodePrecondition, "No subscription found")

// Gateway creates hosted Stripe sessions
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, input billing.CheckoutInput) (*billing.Session, error)
	CreatePortalSession(ctx context.Context, customerID string) (*billing.Session, error)
}

// UsageCounter counts invoices created in a window
type UsageCounter interface {
	CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
}

// BillingService starts checkout and portal sessions and reports plans and usage
type BillingService struct {
	gateway    Gateway
	userRepo   identity.UserRepository
	usage      UsageCounter
	tiers      *TierResolver
	proPriceID string
	logger     *zap.Logger
	now        shared.Clock

	businessMetrics *telemetry.BusinessMetrics
}

// BillingServiceConfig contains configuration for BillingService
type BillingServiceConfig struct {
	// Gateway is nil when Stripe is not configured
	Gateway    Gateway
	UserRepo   identity.UserRepository
	Usage      UsageCounter
	Tiers      *TierResolver
	ProPriceID string
	Logger     *zap.Logger
	// Clock defaults to the server's local clock
	Clock shared.Clock
}

// NewBillingService creates a new BillingService
func NewBillingService(cfg BillingServiceConfig) *BillingService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingService{
		gateway:    cfg.Gateway,
		userRepo:   cfg.UserRepo,
		usage:      cfg.Usage,
		tiers:      cfg.Tiers,
		proPriceID: cfg.ProPriceID,
		logger:     logger,
		now:        cfg.Clock.Or(),
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *BillingService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// CreateCheckout starts a subscription checkout for the pro plan
func (s *BillingService) CreateCheckout(ctx context.Context, userID uuid.UUID) (*SessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "create_checkout",
		telemetry.WithAttribute(telemetry.SpanAttrUserID, userID))
	defer span.End()

	if s.gateway == nil {
		return nil, ErrBillingNotConfigured
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, billing.CheckoutInput{
		UserID: user.ID.String(),
		Email:  user.Email,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to create checkout session",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, ErrBillingUnavailable
	}

	if s.businessMetrics != nil {
		s.businessMetrics.RecordCheckoutStarted(ctx, userID)
	}
	s.logger.Info("Checkout session created",
		zap.String("user_id", userID.String()),
		zap.String("session_id", session.ID))

	return &SessionResponse{URL: session.URL}, nil
}

// CreatePortal opens the Stripe billing portal for the user's customer
func (s *BillingService) CreatePortal(ctx context.Context, userID uuid.UUID) (*SessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "create_portal")
	defer span.End()

	if s.gateway == nil {
		return nil, ErrBillingNotConfigured
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasCustomer() {
		return nil, ErrNoSubscription
	}

	session, err := s.gateway.CreatePortalSession(ctx, user.StripeCustomerID)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to create billing portal session",
			zap.String("user_id", userID.String()),
			zap.String("customer_id", user.StripeCustomerID),
			zap.Error(err))
		return nil, ErrBillingUnavailable
	}

	return &SessionResponse{URL: session.URL}, nil
}

// Plans returns the plan catalogue
func (s *BillingService) Plans() []identity.Plan {
	return identity.Plans(s.tiers.FreeLimit(), s.proPriceID)
}

// Subscription reports the user's tier, usage this month and limit
func (s *BillingService) Subscription(ctx context.Context, userID uuid.UUID) (*SubscriptionResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	used, err := s.usage.CountCreatedSince(ctx, userID, invoice.MonthStart(now))
	if err != nil {
		return nil, err
	}

	tier := user.Tier()
	resp := &SubscriptionResponse{
		Tier:              tier,
		InvoicesThisMonth: used,
		CurrentPeriodEnd:  user.StripeCurrentPeriodEnd,
		HasCustomer:       user.HasCustomer(),
		CanCreateInvoice:  true,
	}
	if limit, limited := identity.MonthlyLimit(tier, s.tiers.FreeLimit()); limited {
		resp.MonthlyLimit = &limit
		resp.CanCreateInvoice = used < int64(limit)
	}
	return resp, nil
}

// isNotFound reports whether err is a domain NotFound
func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

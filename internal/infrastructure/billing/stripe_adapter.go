package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
	portalsession "github.com/stripe/stripe-go/v81/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// ErrInvalidSignature is returned when a webhook payload fails verification
var ErrInvalidSignature = errors.New("stripe: invalid webhook signature")

// StripeAdapter creates hosted checkout and portal sessions and verifies
// webhook deliveries.
type StripeAdapter struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeAdapter creates a new Stripe adapter
func NewStripeAdapter(config *StripeConfig, logger *zap.Logger) (*StripeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.initClient()

	return &StripeAdapter{
		config: config,
		logger: logger,
	}, nil
}

// CreateCheckoutSession starts a subscription checkout for the pro price
func (a *StripeAdapter) CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(a.config.ProPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail:     stripe.String(input.Email),
		ClientReferenceID: stripe.String(input.UserID),
		SuccessURL:        stripe.String(a.config.SuccessURL),
		CancelURL:         stripe.String(a.config.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("userId", input.UserID)

	s, err := checkoutsession.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe checkout session",
			zap.String("user_id", input.UserID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	a.logger.Info("Created Stripe checkout session",
		zap.String("user_id", input.UserID),
		zap.String("session_id", s.ID))
	return &Session{ID: s.ID, URL: s.URL}, nil
}

// CreatePortalSession opens the billing portal for an existing customer
func (a *StripeAdapter) CreatePortalSession(ctx context.Context, customerID string) (*Session, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(a.config.PortalReturnURL),
	}
	params.Context = ctx

	s, err := portalsession.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe portal session",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create portal session: %w", err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
// API version mismatches are tolerated; only the fields read below matter.
func (a *StripeAdapter) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	return ParseWebhook(payload, signature, a.config.WebhookSecret)
}

// ParseWebhook verifies and decodes a webhook payload with the given secret
func ParseWebhook(payload []byte, signature, secret string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	switch out.Type {
	case EventCheckoutCompleted:
		out.Checkout, err = decodeCheckout(event.Data.Raw)
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		out.Subscription, err = decodeSubscription(event.Data.Raw)
	case EventInvoicePaymentFailed:
		out.PaymentFailed, err = decodePaymentFailed(event.Data.Raw)
	}
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to decode %s: %w", out.Type, err)
	}
	return out, nil
}

func decodeCheckout(raw json.RawMessage) (*CheckoutCompleted, error) {
	var s stripe.CheckoutSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}

	out := &CheckoutCompleted{SessionID: s.ID, UserID: s.Metadata["userId"]}
	if out.UserID == "" {
		out.UserID = s.ClientReferenceID
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}
	return out, nil
}

func decodeSubscription(raw json.RawMessage) (*SubscriptionChange, error) {
	var s stripe.Subscription
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}

	out := &SubscriptionChange{
		SubscriptionID: s.ID,
		Status:         SubscriptionStatus(s.Status),
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		out.PriceID = s.Items.Data[0].Price.ID
	}
	if s.CurrentPeriodEnd > 0 {
		end := time.Unix(s.CurrentPeriodEnd, 0)
		out.CurrentPeriodEnd = &end
	}
	return out, nil
}

func decodePaymentFailed(raw json.RawMessage) (*PaymentFailed, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, err
	}

	out := &PaymentFailed{InvoiceID: inv.ID, AttemptCount: inv.AttemptCount}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	if inv.Subscription != nil {
		out.SubscriptionID = inv.Subscription.ID
	}
	return out, nil
}

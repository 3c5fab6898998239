package billing

import "time"

// SubscriptionStatus mirrors the Stripe subscription status
type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

// IsActive reports whether the subscriber should get the paid tier
func (s SubscriptionStatus) IsActive() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// Webhook event types the service reacts to
const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventSubscriptionCreated  = "customer.subscription.created"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// CheckoutInput identifies the user buying the pro plan
type CheckoutInput struct {
	UserID string
	Email  string
}

// Session is a hosted Stripe page the user is redirected to
type Session struct {
	ID  string
	URL string
}

// WebhookEvent is a verified webhook delivery decoded into the payloads the
// service acts on. Exactly one payload is set for handled types; all are nil
// for other event types.
type WebhookEvent struct {
	ID   string
	Type string

	Checkout      *CheckoutCompleted
	Subscription  *SubscriptionChange
	PaymentFailed *PaymentFailed
}

// CheckoutCompleted is decoded from checkout.session.completed
type CheckoutCompleted struct {
	SessionID string
	// UserID comes from the session metadata, or client_reference_id
	UserID         string
	CustomerID     string
	SubscriptionID string
}

// SubscriptionChange is decoded from customer.subscription.* events
type SubscriptionChange struct {
	SubscriptionID   string
	CustomerID       string
	Status           SubscriptionStatus
	PriceID          string // price of the first subscription item
	CurrentPeriodEnd *time.Time
}

// PaymentFailed is decoded from invoice.payment_failed
type PaymentFailed struct {
	InvoiceID      string
	CustomerID     string
	SubscriptionID string
	AttemptCount   int64
}

package billing

import (
	"time"

	"github.com/invoicer/backend/internal/domain/identity"
)

// SessionResponse carries the hosted Stripe page to redirect to
type SessionResponse struct {
	URL string `json:"url"`
}

// SubscriptionResponse is the caller's billing state
type SubscriptionResponse struct {
	Tier              identity.Tier `json:"tier"`
	InvoicesThisMonth int64         `json:"invoices_this_month"`
	// MonthlyLimit is null for unlimited tiers
	MonthlyLimit     *int       `json:"monthly_limit"`
	CanCreateInvoice bool       `json:"can_create_invoice"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	HasCustomer      bool       `json:"has_customer"`
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}

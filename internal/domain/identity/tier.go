package identity

import "fmt"

// Tier is the billing level gating the monthly invoice quota
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// FreeMonthlyInvoiceLimit is the number of invoices a free user may create per calendar month
const FreeMonthlyInvoiceLimit = 5

// Plan describes a purchasable tier
type Plan struct {
	ID               Tier     `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	PriceUSD         int      `json:"price"`
	InvoicesPerMonth *int     `json:"invoices_per_month"`
	StripePriceID    string   `json:"stripe_price_id,omitempty"`
	Features         []string `json:"features"`
}

// Unlimited reports whether the plan has no monthly invoice cap
func (p Plan) Unlimited() bool {
	return p.InvoicesPerMonth == nil
}

// Plans returns the plan catalogue. proPriceID is the configured Stripe price.
func Plans(freeLimit int, proPriceID string) []Plan {
	limit := freeLimit
	return []Plan{
		{
			ID:               TierFree,
			Name:             "Free",
			Description:      "Perfect for getting started",
			PriceUSD:         0,
			InvoicesPerMonth: &limit,
			Features: []string{
				fmt.Sprintf("Up to %d invoices per month", freeLimit),
				"Unlimited clients",
				"PDF export",
				"Basic templates",
			},
		},
		{
			ID:            TierPro,
			Name:          "Pro",
			Description:   "For growing businesses",
			PriceUSD:      12,
			StripePriceID: proPriceID,
			Features: []string{
				"Unlimited invoices",
				"Unlimited clients",
				"PDF export",
				"Custom branding",
				"Analytics dashboard",
				"Priority support",
			},
		},
	}
}

// MonthlyLimit returns the invoice cap for a tier; ok is false when unlimited
func MonthlyLimit(t Tier, freeLimit int) (limit int, ok bool) {
	if t == TierPro {
		return 0, false
	}
	return freeLimit, true
}

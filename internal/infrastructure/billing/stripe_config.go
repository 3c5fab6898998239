package billing

import (
	"fmt"
	"strings"

	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
)

// StripeConfig holds configuration for the Stripe integration
type StripeConfig struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string

	// WebhookSecret verifies webhook signatures (whsec_xxx)
	WebhookSecret string

	// ProPriceID is the recurring price sold by checkout
	ProPriceID string

	IsTestMode bool

	SuccessURL      string
	CancelURL       string
	PortalReturnURL string
}

// NewStripeConfig derives the adapter configuration; redirect URLs hang off
// the public application URL.
func NewStripeConfig(cfg config.StripeConfig, baseURL string) *StripeConfig {
	baseURL = strings.TrimRight(baseURL, "/")
	return &StripeConfig{
		SecretKey:       cfg.SecretKey,
		WebhookSecret:   cfg.WebhookSecret,
		ProPriceID:      cfg.ProPriceID,
		IsTestMode:      cfg.TestMode,
		SuccessURL:      baseURL + "/dashboard?success=true",
		CancelURL:       baseURL + "/pricing?canceled=true",
		PortalReturnURL: baseURL + "/dashboard/settings",
	}
}

// Validate checks that sessions can be created with this configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}
	if c.IsTestMode && !strings.HasPrefix(c.SecretKey, "sk_test") && !strings.HasPrefix(c.SecretKey, "rk_test") {
		return fmt.Errorf("stripe: test mode enabled but secret key is not a test key")
	}
	if c.ProPriceID == "" {
		return fmt.Errorf("stripe: pro price id is required")
	}
	return nil
}

// initClient installs the API key on the global Stripe client
func (c *StripeConfig) initClient() {
	stripe.Key = c.SecretKey
}

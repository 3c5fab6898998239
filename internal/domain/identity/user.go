package identity

import (
	"net/mail"
	"strings"
	"time"

	"github.com/invoicer/backend/internal/domain/shared"
)

// User is an account holder. It owns clients and invoices, carries the
// business profile printed on invoices, and mirrors the Stripe billing state.
type User struct {
	shared.BaseEntity
	Email string
	Name  string
	Image string

	Profile BusinessProfile

	// Billing state written only by the Stripe webhook receiver
	StripeCustomerID       string
	StripeSubscriptionID   string
	StripePriceID          string
	StripeCurrentPeriodEnd *time.Time
}

// BusinessProfile is the sender block rendered on invoice documents
type BusinessProfile struct {
	BusinessName    string
	BusinessAddress string
	BusinessEmail   string
	BusinessPhone   string
	BusinessLogo    string
}

// NewUser creates a user on first sign-in.
// The display name falls back to the local part of the email.
func NewUser(email, name string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("Name cannot exceed 200 characters")
	}

	return &User{
		BaseEntity: shared.NewBaseEntity(),
		Email:      email,
		Name:       name,
	}, nil
}

// SetImage sets the avatar URL reported by the identity provider
func (u *User) SetImage(image string) {
	u.Image = strings.TrimSpace(image)
	u.Touch()
}

// ProfileUpdate carries optional business profile changes; nil means unchanged
type ProfileUpdate struct {
	BusinessName    *string
	BusinessAddress *string
	BusinessEmail   *string
	BusinessPhone   *string
	BusinessLogo    *string
}

// UpdateProfile applies a partial business profile update
func (u *User) UpdateProfile(p ProfileUpdate) error {
	if p.BusinessEmail != nil && strings.TrimSpace(*p.BusinessEmail) != "" {
		if _, err := normalizeEmail(*p.BusinessEmail); err != nil {
			return shared.NewValidationError("Business email is not a valid email address")
		}
	}
	if p.BusinessPhone != nil && len(*p.BusinessPhone) > 50 {
		return shared.NewValidationError("Business phone cannot exceed 50 characters")
	}

	if p.BusinessName != nil {
		u.Profile.BusinessName = strings.TrimSpace(*p.BusinessName)
	}
	if p.BusinessAddress != nil {
		u.Profile.BusinessAddress = strings.TrimSpace(*p.BusinessAddress)
	}
	if p.BusinessEmail != nil {
		u.Profile.BusinessEmail = strings.TrimSpace(*p.BusinessEmail)
	}
	if p.BusinessPhone != nil {
		u.Profile.BusinessPhone = strings.TrimSpace(*p.BusinessPhone)
	}
	if p.BusinessLogo != nil {
		u.Profile.BusinessLogo = strings.TrimSpace(*p.BusinessLogo)
	}
	u.Touch()
	return nil
}

// AttachCustomer records the Stripe customer created by a completed checkout
func (u *User) AttachCustomer(customerID string) {
	u.StripeCustomerID = customerID
	u.Touch()
}

// ActivateSubscription marks the user as paying for the given price
func (u *User) ActivateSubscription(subscriptionID, priceID string, periodEnd *time.Time) {
	u.StripeSubscriptionID = subscriptionID
	u.StripePriceID = priceID
	u.StripeCurrentPeriodEnd = periodEnd
	u.Touch()
}

// DeactivateSubscription drops the paid price; the subscription id is kept
// when the subscription still exists (past_due, unpaid, ...).
func (u *User) DeactivateSubscription(subscriptionID string) {
	u.StripeSubscriptionID = subscriptionID
	u.StripePriceID = ""
	u.StripeCurrentPeriodEnd = nil
	u.Touch()
}

// CancelSubscription clears all subscription state except the customer id
func (u *User) CancelSubscription() {
	u.DeactivateSubscription("")
}

// Tier returns the billing tier derived from the active price id
func (u *User) Tier() Tier {
	if u.StripePriceID != "" {
		return TierPro
	}
	return TierFree
}

// HasCustomer reports whether the user ever completed a checkout
func (u *User) HasCustomer() bool {
	return u.StripeCustomerID != ""
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", shared.NewValidationError("Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", shared.NewValidationError("Email is not a valid email address")
	}
	return email, nil
}

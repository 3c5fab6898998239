package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
)

// DemoLoginRequest signs in by email alone when demo login is enabled
type DemoLoginRequest struct {
	Email string `json:"email" binding:"required,email,max=254"`
	Name  string `json:"name" binding:"omitempty,max=200"`
}

// GoogleCallbackRequest carries the OAuth redirect parameters
type GoogleCallbackRequest struct {
	Code  string `form:"code" binding:"required"`
	State string `form:"state" binding:"required"`
}

// GoogleAuthURLResponse is the consent URL the browser should visit
type GoogleAuthURLResponse struct {
	URL string `json:"url"`
}

// LoginResponse is returned after any successful sign-in
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
	// Created is true when this sign-in created the account
	Created bool `json:"created"`
}

// UserResponse is the current user profile
type UserResponse struct {
	ID               uuid.UUID        `json:"id"`
	Email            string           `json:"email"`
	Name             string           `json:"name"`
	Image            string           `json:"image"`
	Tier             identity.Tier    `json:"tier"`
	HasSubscription  bool             `json:"has_subscription"`
	CurrentPeriodEnd *time.Time       `json:"current_period_end,omitempty"`
	Business         SettingsResponse `json:"business"`
	CreatedAt        time.Time        `json:"created_at"`
}

// SettingsResponse is the business profile printed on invoices
type SettingsResponse struct {
	BusinessName    string `json:"business_name"`
	BusinessAddress string `json:"business_address"`
	BusinessEmail   string `json:"business_email"`
	BusinessPhone   string `json:"business_phone"`
	BusinessLogo    string `json:"business_logo"`
}

// UpdateSettingsRequest is a partial business profile update
type UpdateSettingsRequest struct {
	BusinessName    *string `json:"business_name" binding:"omitempty,max=200"`
	BusinessAddress *string `json:"business_address" binding:"omitempty,max=1000"`
	BusinessEmail   *string `json:"business_email" binding:"omitempty,max=254"`
	BusinessPhone   *string `json:"business_phone" binding:"omitempty,max=50"`
	BusinessLogo    *string `json:"business_logo" binding:"omitempty,max=2048"`
}

// ToSettingsResponse converts a business profile to a response
func ToSettingsResponse(p identity.BusinessProfile) SettingsResponse {
	return SettingsResponse{
		BusinessName:    p.BusinessName,
		BusinessAddress: p.BusinessAddress,
		BusinessEmail:   p.BusinessEmail,
		BusinessPhone:   p.BusinessPhone,
		BusinessLogo:    p.BusinessLogo,
	}
}

// ToUserResponse converts a user and its resolved tier to a response
func ToUserResponse(u *identity.User, tier identity.Tier) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Image:            u.Image,
		Tier:             tier,
		HasSubscription:  u.StripeSubscriptionID != "",
		CurrentPeriodEnd: u.StripeCurrentPeriodEnd,
		Business:         ToSettingsResponse(u.Profile),
		CreatedAt:        u.CreatedAt,
	}
}

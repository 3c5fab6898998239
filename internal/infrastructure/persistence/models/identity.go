package models

import (
	"time"

	"github.com/invoicer/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	BaseModel
	Email string `gorm:"type:varchar(200);not null;uniqueIndex"`
	Name  string `gorm:"type:varchar(200)"`
	Image string `gorm:"type:varchar(500)"`

	BusinessName    string `gorm:"type:varchar(200)"`
	BusinessAddress string `gorm:"type:text"`
	BusinessEmail   string `gorm:"type:varchar(200)"`
	BusinessPhone   string `gorm:"type:varchar(50)"`
	BusinessLogo    string `gorm:"type:varchar(500)"`

	StripeCustomerID       *string `gorm:"type:varchar(100);uniqueIndex"`
	StripeSubscriptionID   *string `gorm:"type:varchar(100);uniqueIndex"`
	StripePriceID          string  `gorm:"type:varchar(100)"`
	StripeCurrentPeriodEnd *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity: m.BaseModel.ToDomain(),
		Email:      m.Email,
		Name:       m.Name,
		Image:      m.Image,
		Profile: identity.BusinessProfile{
			BusinessName:    m.BusinessName,
			BusinessAddress: m.BusinessAddress,
			BusinessEmail:   m.BusinessEmail,
			BusinessPhone:   m.BusinessPhone,
			BusinessLogo:    m.BusinessLogo,
		},
		StripeCustomerID:       deref(m.StripeCustomerID),
		StripeSubscriptionID:   deref(m.StripeSubscriptionID),
		StripePriceID:          m.StripePriceID,
		StripeCurrentPeriodEnd: m.StripeCurrentPeriodEnd,
	}
}

// FromDomain populates the persistence model from a domain User entity.
// Empty Stripe identifiers are stored as NULL so the unique indexes only
// apply to linked accounts.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainBaseEntity(u.BaseEntity)
	m.Email = u.Email
	m.Name = u.Name
	m.Image = u.Image
	m.BusinessName = u.Profile.BusinessName
	m.BusinessAddress = u.Profile.BusinessAddress
	m.BusinessEmail = u.Profile.BusinessEmail
	m.BusinessPhone = u.Profile.BusinessPhone
	m.BusinessLogo = u.Profile.BusinessLogo
	m.StripeCustomerID = nullable(u.StripeCustomerID)
	m.StripeSubscriptionID = nullable(u.StripeSubscriptionID)
	m.StripePriceID = u.StripePriceID
	m.StripeCurrentPeriodEnd = u.StripeCurrentPeriodEnd
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package client

import (
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// Client is a customer billed by a user. Name and email are required,
// everything else is free-form contact data.
type Client struct {
	shared.OwnedEntity
	Name    string
	Email   string
	Phone   string
	Address string
	Company string
	Notes   string
}

// NewClient creates a client owned by userID
func NewClient(userID uuid.UUID, name, email string) (*Client, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("Owner is required")
	}
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	email, err = validateEmail(email)
	if err != nil {
		return nil, err
	}

	return &Client{
		OwnedEntity: shared.NewOwnedEntity(userID),
		Name:        name,
		Email:       email,
	}, nil
}

// Details holds the optional contact fields
type Details struct {
	Phone   string
	Address string
	Company string
	Notes   string
}

// SetDetails replaces the optional contact fields
func (c *Client) SetDetails(d Details) error {
	if len(d.Phone) > 50 {
		return shared.NewValidationError("Phone cannot exceed 50 characters")
	}
	c.Phone = strings.TrimSpace(d.Phone)
	c.Address = strings.TrimSpace(d.Address)
	c.Company = strings.TrimSpace(d.Company)
	c.Notes = strings.TrimSpace(d.Notes)
	c.Touch()
	return nil
}

// Update carries a partial client update; nil fields are left unchanged
type Update struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	Company *string
	Notes   *string
}

// Apply applies a partial update, validating before mutating anything
func (c *Client) Apply(u Update) error {
	name, email := c.Name, c.Email
	var err error
	if u.Name != nil {
		if name, err = validateName(*u.Name); err != nil {
			return err
		}
	}
	if u.Email != nil {
		if email, err = validateEmail(*u.Email); err != nil {
			return err
		}
	}

	d := Details{Phone: c.Phone, Address: c.Address, Company: c.Company, Notes: c.Notes}
	if u.Phone != nil {
		d.Phone = *u.Phone
	}
	if u.Address != nil {
		d.Address = *u.Address
	}
	if u.Company != nil {
		d.Company = *u.Company
	}
	if u.Notes != nil {
		d.Notes = *u.Notes
	}
	if err := c.SetDetails(d); err != nil {
		return err
	}

	c.Name = name
	c.Email = email
	return nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", shared.NewValidationError("Client name is required")
	}
	if len(name) > 200 {
		return "", shared.NewValidationError("Client name cannot exceed 200 characters")
	}
	return name, nil
}

func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", shared.NewValidationError("Client email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", shared.NewValidationError("Client email is not a valid email address")
	}
	return email, nil
}

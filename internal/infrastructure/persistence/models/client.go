package models

import (
	"github.com/invoicer/backend/internal/domain/client"
)

// ClientModel is the persistence model for the Client domain entity.
type ClientModel struct {
	OwnedModel
	Name    string `gorm:"type:varchar(200);not null"`
	Email   string `gorm:"type:varchar(200);not null"`
	Phone   string `gorm:"type:varchar(50)"`
	Address string `gorm:"type:text"`
	Company string `gorm:"type:varchar(200)"`
	Notes   string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client entity.
func (m *ClientModel) ToDomain() *client.Client {
	return &client.Client{
		OwnedEntity: m.ToOwnedEntity(),
		Name:        m.Name,
		Email:       m.Email,
		Phone:       m.Phone,
		Address:     m.Address,
		Company:     m.Company,
		Notes:       m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Client entity.
func (m *ClientModel) FromDomain(c *client.Client) {
	m.FromDomainOwnedEntity(c.OwnedEntity)
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = c.Address
	m.Company = c.Company
	m.Notes = c.Notes
}

// ClientModelFromDomain creates a new persistence model from a domain Client entity.
func ClientModelFromDomain(c *client.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}

// ClientSummaryRow is a client row with its invoice count, as read by list queries.
type ClientSummaryRow struct {
	ClientModel
	InvoiceCount int64
}

// ToDomain converts the row to a domain Summary.
func (r *ClientSummaryRow) ToDomain() client.Summary {
	return client.Summary{
		Client:       *r.ClientModel.ToDomain(),
		InvoiceCount: r.InvoiceCount,
	}
}

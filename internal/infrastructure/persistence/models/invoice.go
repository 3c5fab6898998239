package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice domain entity.
type InvoiceModel struct {
	OwnedModel
	ClientID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceNumber string          `gorm:"type:varchar(100);not null"`
	IssueDate     time.Time       `gorm:"type:date;not null"`
	DueDate       time.Time       `gorm:"type:date;not null"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Discount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status        string          `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Notes         string          `gorm:"type:text"`
	Terms         string          `gorm:"type:text"`
	PaidAt        *time.Time      `gorm:"index"`

	Client *ClientModel       `gorm:"foreignKey:ClientID;references:ID"`
	Items  []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *invoice.Invoice {
	inv := &invoice.Invoice{
		OwnedEntity:   m.ToOwnedEntity(),
		ClientID:      m.ClientID,
		InvoiceNumber: m.InvoiceNumber,
		IssueDate:     invoice.CalendarDate(m.IssueDate),
		DueDate:       invoice.CalendarDate(m.DueDate),
		TaxRate:       m.TaxRate,
		Discount:      m.Discount,
		Subtotal:      m.Subtotal,
		TaxAmount:     m.TaxAmount,
		Total:         m.Total,
		Status:        invoice.Status(m.Status),
		Notes:         m.Notes,
		Terms:         m.Terms,
		PaidAt:        m.PaidAt,
		Items:         make([]invoice.LineItem, len(m.Items)),
	}
	for i := range m.Items {
		inv.Items[i] = m.Items[i].ToDomain()
	}
	if m.Client != nil {
		inv.Client = m.Client.ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice entity.
// The joined client is never written through the invoice.
func (m *InvoiceModel) FromDomain(inv *invoice.Invoice) {
	m.FromDomainOwnedEntity(inv.OwnedEntity)
	m.ClientID = inv.ClientID
	m.InvoiceNumber = inv.InvoiceNumber
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.TaxRate = inv.TaxRate
	m.Discount = inv.Discount
	m.Subtotal = inv.Subtotal
	m.TaxAmount = inv.TaxAmount
	m.Total = inv.Total
	m.Status = string(inv.Status)
	m.Notes = inv.Notes
	m.Terms = inv.Terms
	m.PaidAt = inv.PaidAt
	m.Client = nil

	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i, item := range inv.Items {
		m.Items[i] = InvoiceItemModelFromDomain(item)
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice entity.
func InvoiceModelFromDomain(inv *invoice.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceItemModel is the persistence model for an invoice line item.
type InvoiceItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null;default:0"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain LineItem.
func (m *InvoiceItemModel) ToDomain() invoice.LineItem {
	return invoice.LineItem{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		Position:    m.Position,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Amount:      m.Amount,
	}
}

// InvoiceItemModelFromDomain creates a persistence model from a domain LineItem.
func InvoiceItemModelFromDomain(item invoice.LineItem) InvoiceItemModel {
	return InvoiceItemModel{
		ID:          item.ID,
		InvoiceID:   item.InvoiceID,
		Position:    item.Position,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Amount:      item.Amount,
	}
}

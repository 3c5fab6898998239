package invoice

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Date accepts either a calendar date ("2026-10-18") or an RFC 3339 timestamp
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return shared.NewValidationError("Dates must be formatted as YYYY-MM-DD or RFC 3339")
	}
	d.Time = t
	return nil
}

// LineItemRequest is one item of a create or update request
type LineItemRequest struct {
	Description string          `json:"description" binding:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateInvoiceRequest represents a request to create a new invoice.
// Subtotal and Total are optional; when present they must match the
// server computation within one cent.
type CreateInvoiceRequest struct {
	ClientID      uuid.UUID         `json:"client_id" binding:"required"`
	InvoiceNumber string            `json:"invoice_number" binding:"required,min=1,max=100"`
	IssueDate     Date              `json:"issue_date"`
	DueDate       Date              `json:"due_date"`
	Items         []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	TaxRate       decimal.Decimal   `json:"tax_rate"`
	Discount      decimal.Decimal   `json:"discount"`
	Notes         string            `json:"notes"`
	Terms         string            `json:"terms"`
	Subtotal      *decimal.Decimal  `json:"subtotal"`
	Total         *decimal.Decimal  `json:"total"`
}

// UpdateInvoiceRequest represents a partial invoice update.
// A non-nil Items replaces the whole item set.
type UpdateInvoiceRequest struct {
	ClientID      *uuid.UUID         `json:"client_id"`
	InvoiceNumber *string            `json:"invoice_number" binding:"omitempty,min=1,max=100"`
	IssueDate     *Date              `json:"issue_date"`
	DueDate       *Date              `json:"due_date"`
	Items         *[]LineItemRequest `json:"items" binding:"omitempty,min=1,dive"`
	TaxRate       *decimal.Decimal   `json:"tax_rate"`
	Discount      *decimal.Decimal   `json:"discount"`
	Notes         *string            `json:"notes"`
	Terms         *string            `json:"terms"`
	Subtotal      *decimal.Decimal   `json:"subtotal"`
	Total         *decimal.Decimal   `json:"total"`
}

// UpdateStatusRequest represents a status transition
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// InvoiceListFilter represents filter options for listing invoices
type InvoiceListFilter struct {
	Status   string `form:"status"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceClientResponse is the client block embedded in invoice responses
type InvoiceClientResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Phone   string    `json:"phone"`
	Address string    `json:"address"`
	Company string    `json:"company"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID              `json:"id"`
	ClientID      uuid.UUID              `json:"client_id"`
	Client        *InvoiceClientResponse `json:"client,omitempty"`
	InvoiceNumber string                 `json:"invoice_number"`
	IssueDate     time.Time              `json:"issue_date"`
	DueDate       time.Time              `json:"due_date"`
	Items         []LineItemResponse     `json:"items"`
	TaxRate       decimal.Decimal        `json:"tax_rate"`
	Discount      decimal.Decimal        `json:"discount"`
	Subtotal      decimal.Decimal        `json:"subtotal"`
	TaxAmount     decimal.Decimal        `json:"tax_amount"`
	Total         decimal.Decimal        `json:"total"`
	Status        invoice.Status         `json:"status"`
	Notes         string                 `json:"notes"`
	Terms         string                 `json:"terms"`
	PaidAt        *time.Time             `json:"paid_at"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// ToInvoiceResponse converts a domain invoice to a response
func ToInvoiceResponse(inv *invoice.Invoice) InvoiceResponse {
	items := make([]LineItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = LineItemResponse{
			ID:          item.ID,
			Position:    item.Position,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		}
	}

	return InvoiceResponse{
		ID:            inv.ID,
		ClientID:      inv.ClientID,
		Client:        toInvoiceClientResponse(inv.Client),
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Items:         items,
		TaxRate:       inv.TaxRate,
		Discount:      inv.Discount,
		Subtotal:      inv.Subtotal,
		TaxAmount:     inv.TaxAmount,
		Total:         inv.Total,
		Status:        inv.Status,
		Notes:         inv.Notes,
		Terms:         inv.Terms,
		PaidAt:        inv.PaidAt,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

// ToInvoiceResponses converts a slice of invoices to responses
func ToInvoiceResponses(invoices []invoice.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceResponse(&invoices[i])
	}
	return responses
}

func toInvoiceClientResponse(c *client.Client) *InvoiceClientResponse {
	if c == nil {
		return nil
	}
	return &InvoiceClientResponse{
		ID:      c.ID,
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
		Company: c.Company,
	}
}

func toItemInputs(items []LineItemRequest) []invoice.ItemInput {
	inputs := make([]invoice.ItemInput, len(items))
	for i, item := range items {
		inputs[i] = invoice.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	return inputs
}

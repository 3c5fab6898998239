package client

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
)

// CreateClientRequest represents a request to create a new client
type CreateClientRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Email   string `json:"email" binding:"required,email,max=200"`
	Phone   string `json:"phone" binding:"max=50"`
	Address string `json:"address" binding:"max=500"`
	Company string `json:"company" binding:"max=200"`
	Notes   string `json:"notes"`
}

// UpdateClientRequest represents a partial client update
type UpdateClientRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=200"`
	Email   *string `json:"email" binding:"omitempty,email,max=200"`
	Phone   *string `json:"phone" binding:"omitempty,max=50"`
	Address *string `json:"address" binding:"omitempty,max=500"`
	Company *string `json:"company" binding:"omitempty,max=200"`
	Notes   *string `json:"notes"`
}

// ClientListFilter represents filter options for listing clients.
// Pagination is applied only when PageSize is set.
type ClientListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Company      string    `json:"company"`
	Notes        string    `json:"notes"`
	InvoiceCount int64     `json:"invoice_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClientInvoiceResponse is the short invoice form shown on a client's page
type ClientInvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	Status        invoice.Status  `json:"status"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ClientDetailResponse is a client with its most recent invoices
type ClientDetailResponse struct {
	ClientResponse
	RecentInvoices []ClientInvoiceResponse `json:"recent_invoices"`
}

// ToClientResponse converts a domain client to a response
func ToClientResponse(c *client.Client, invoiceCount int64) ClientResponse {
	return ClientResponse{
		ID:           c.ID,
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		Address:      c.Address,
		Company:      c.Company,
		Notes:        c.Notes,
		InvoiceCount: invoiceCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// ToClientResponses converts summaries to responses
func ToClientResponses(summaries []client.Summary) []ClientResponse {
	responses := make([]ClientResponse, len(summaries))
	for i := range summaries {
		responses[i] = ToClientResponse(&summaries[i].Client, summaries[i].InvoiceCount)
	}
	return responses
}

func toClientInvoiceResponses(invoices []invoice.Invoice) []ClientInvoiceResponse {
	responses := make([]ClientInvoiceResponse, len(invoices))
	for i, inv := range invoices {
		responses[i] = ClientInvoiceResponse{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			IssueDate:     inv.IssueDate,
			DueDate:       inv.DueDate,
			Status:        inv.Status,
			Total:         inv.Total,
			CreatedAt:     inv.CreatedAt,
		}
	}
	return responses
}

package analytics

import (
	appinvoice "github.com/invoicer/backend/internal/application/invoice"
	"github.com/invoicer/backend/internal/domain/analytics"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/shopspring/decimal"
)

// ChangeResponse is a month-over-month percentage change
type ChangeResponse struct {
	Revenue  decimal.Decimal `json:"revenue"`
	Invoices decimal.Decimal `json:"invoices"`
}

// SummaryResponse is the analytics overview for one user
type SummaryResponse struct {
	Invoices       analytics.InvoiceCounts      `json:"invoices"`
	Revenue        analytics.Revenue            `json:"revenue"`
	ClientCount    int64                        `json:"client_count"`
	Change         ChangeResponse               `json:"change"`
	RecentInvoices []appinvoice.InvoiceResponse `json:"recent_invoices"`
	TopClients     []analytics.TopClient        `json:"top_clients"`
}

// DashboardResponse is the landing view: recent activity plus plan usage
type DashboardResponse struct {
	RecentInvoices    []appinvoice.InvoiceResponse `json:"recent_invoices"`
	StatusGroups      []analytics.StatusGroup      `json:"status_groups"`
	TotalInvoices     int64                        `json:"total_invoices"`
	InvoicesThisMonth int64                        `json:"invoices_this_month"`
	Tier              identity.Tier                `json:"tier"`
	MonthlyLimit      *int                         `json:"monthly_limit"`
	CanCreateInvoice  bool                         `json:"can_create_invoice"`
}

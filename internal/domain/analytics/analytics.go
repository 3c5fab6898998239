package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
)

// Period holds the month boundaries analytics are computed against
type Period struct {
	ThisMonthStart time.Time
	LastMonthStart time.Time
}

// NewPeriod returns the period for the calendar month containing now
func NewPeriod(now time.Time) Period {
	return Period{
		ThisMonthStart: invoice.MonthStart(now),
		LastMonthStart: invoice.PreviousMonthStart(now),
	}
}

// InvoiceCounts is a read model for invoice volume
type InvoiceCounts struct {
	Total     int64 `json:"total"`
	ThisMonth int64 `json:"this_month"`
	LastMonth int64 `json:"last_month"`
	Overdue   int64 `json:"overdue"`
}

// Revenue sums the totals of PAID invoices; monthly figures are bounded by paid_at
type Revenue struct {
	Total     decimal.Decimal `json:"total"`
	ThisMonth decimal.Decimal `json:"this_month"`
	LastMonth decimal.Decimal `json:"last_month"`
}

// StatusGroup is the number and value of invoices in one status
type StatusGroup struct {
	Status invoice.Status  `json:"status"`
	Count  int64           `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

// TopClient ranks a client by paid invoices
type TopClient struct {
	ClientID     uuid.UUID       `json:"client_id"`
	Name         string          `json:"name"`
	PaidInvoices int64           `json:"paid_invoices"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// Repository computes grouped rollups for one user. Nothing is cached.
type Repository interface {
	InvoiceCounts(ctx context.Context, userID uuid.UUID, period Period) (InvoiceCounts, error)
	Revenue(ctx context.Context, userID uuid.UUID, period Period) (Revenue, error)
	ClientCount(ctx context.Context, userID uuid.UUID) (int64, error)
	StatusGroups(ctx context.Context, userID uuid.UUID) ([]StatusGroup, error)

	// TopClients orders by paid invoice count, then revenue, then name
	TopClients(ctx context.Context, userID uuid.UUID, limit int) ([]TopClient, error)
}

var hundred = decimal.NewFromInt(100)

// PercentChange returns the change from previous to current in percent,
// rounded to one decimal. A zero previous value yields zero.
func PercentChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(1)
}

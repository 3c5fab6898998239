package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/analytics"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormAnalyticsRepository implements analytics.Repository with grouped SQL queries
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewGormAnalyticsRepository creates a new GormAnalyticsRepository
func NewGormAnalyticsRepository(db *gorm.DB) *GormAnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

// InvoiceCounts returns the total, monthly and overdue invoice counts
func (r *GormAnalyticsRepository) InvoiceCounts(ctx context.Context, userID uuid.UUID, period analytics.Period) (analytics.InvoiceCounts, error) {
	var result analytics.InvoiceCounts

	err := r.db.WithContext(ctx).Table("invoices").
		Select(`
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0) AS this_month,
			COALESCE(SUM(CASE WHEN created_at >= ? AND created_at < ? THEN 1 ELSE 0 END), 0) AS last_month,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS overdue
		`, period.ThisMonthStart, period.LastMonthStart, period.ThisMonthStart, string(invoice.StatusOverdue)).
		Where("user_id = ?", userID).
		Scan(&result).Error

	return result, err
}

// Revenue sums PAID invoice totals overall and per month of payment
func (r *GormAnalyticsRepository) Revenue(ctx context.Context, userID uuid.UUID, period analytics.Period) (analytics.Revenue, error) {
	type revenueResult struct {
		Total     decimal.Decimal
		ThisMonth decimal.Decimal
		LastMonth decimal.Decimal
	}

	var result revenueResult
	err := r.db.WithContext(ctx).Table("invoices").
		Select(`
			COALESCE(SUM(total), 0) AS total,
			COALESCE(SUM(CASE WHEN paid_at >= ? THEN total ELSE 0 END), 0) AS this_month,
			COALESCE(SUM(CASE WHEN paid_at >= ? AND paid_at < ? THEN total ELSE 0 END), 0) AS last_month
		`, period.ThisMonthStart, period.LastMonthStart, period.ThisMonthStart).
		Where("user_id = ? AND status = ?", userID, string(invoice.StatusPaid)).
		Scan(&result).Error
	if err != nil {
		return analytics.Revenue{}, err
	}

	return analytics.Revenue{
		Total:     result.Total,
		ThisMonth: result.ThisMonth,
		LastMonth: result.LastMonth,
	}, nil
}

// ClientCount counts the user's clients
func (r *GormAnalyticsRepository) ClientCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("clients").Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// StatusGroups returns count and total value per invoice status
func (r *GormAnalyticsRepository) StatusGroups(ctx context.Context, userID uuid.UUID) ([]analytics.StatusGroup, error) {
	type groupResult struct {
		Status string
		Count  int64
		Total  decimal.Decimal
	}

	var results []groupResult
	err := r.db.WithContext(ctx).Table("invoices").
		Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Where("user_id = ?", userID).
		Group("status").
		Order("status ASC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	groups := make([]analytics.StatusGroup, len(results))
	for i, g := range results {
		groups[i] = analytics.StatusGroup{
			Status: invoice.Status(g.Status),
			Count:  g.Count,
			Total:  g.Total,
		}
	}
	return groups, nil
}

// TopClients ranks the user's clients by paid invoice count
func (r *GormAnalyticsRepository) TopClients(ctx context.Context, userID uuid.UUID, limit int) ([]analytics.TopClient, error) {
	type clientResult struct {
		ClientID     uuid.UUID
		Name         string
		PaidInvoices int64
		Revenue      decimal.Decimal
	}

	var results []clientResult
	err := r.db.WithContext(ctx).Table("clients c").
		Select(`
			c.id AS client_id,
			c.name AS name,
			COUNT(i.id) AS paid_invoices,
			COALESCE(SUM(i.total), 0) AS revenue
		`).
		Joins("LEFT JOIN invoices i ON i.client_id = c.id AND i.status = ?", string(invoice.StatusPaid)).
		Where("c.user_id = ?", userID).
		Group("c.id, c.name").
		Order("paid_invoices DESC, revenue DESC, c.name ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	clients := make([]analytics.TopClient, len(results))
	for i, c := range results {
		clients[i] = analytics.TopClient{
			ClientID:     c.ClientID,
			Name:         c.Name,
			PaidInvoices: c.PaidInvoices,
			Revenue:      c.Revenue,
		}
	}
	return clients, nil
}

// Ensure GormAnalyticsRepository implements analytics.Repository
var _ analytics.Repository = (*GormAnalyticsRepository)(nil)

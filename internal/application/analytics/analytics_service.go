package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	appinvoice "github.com/invoicer/backend/internal/application/invoice"
	"github.com/invoicer/backend/internal/domain/analytics"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// SummaryRecentLimit is how many invoices the analytics summary lists
	SummaryRecentLimit = 5
	// TopClientLimit is how many clients the ranking returns
	TopClientLimit = 5
	// DashboardRecentLimit is how many invoices the dashboard lists
	DashboardRecentLimit = 10
)

// InvoiceLister lists a user's invoices with client and items
type InvoiceLister interface {
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]invoice.Invoice, int64, error)
}

// QuotaResolver returns the invoice creation quota for a user
type QuotaResolver interface {
	MonthlyQuota(ctx context.Context, userID uuid.UUID, now time.Time) (invoice.Quota, identity.Tier, error)
}

// AnalyticsService computes read-only aggregates over a user's invoices.
// Nothing is cached; every call reflects the current data.
type AnalyticsService struct {
	repo     analytics.Repository
	invoices InvoiceLister
	quotas   QuotaResolver
	logger   *zap.Logger
	now      shared.Clock
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(repo analytics.Repository, invoices InvoiceLister, quotas QuotaResolver, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		repo:     repo,
		invoices: invoices,
		quotas:   quotas,
		logger:   logger,
		now:      shared.SystemClock,
	}
}

// SetClock replaces the clock used for the dashboard's monthly periods
func (s *AnalyticsService) SetClock(clock shared.Clock) {
	s.now = clock.Or()
}

// Summary returns totals, month-over-month change, recent invoices and top clients
func (s *AnalyticsService) Summary(ctx context.Context, userID uuid.UUID) (*SummaryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "analytics", "summary")
	defer span.End()

	period := analytics.NewPeriod(s.now())

	counts, err := s.repo.InvoiceCounts(ctx, userID, period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}
	revenue, err := s.repo.Revenue(ctx, userID, period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	clientCount, err := s.repo.ClientCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}
	topClients, err := s.repo.TopClients(ctx, userID, TopClientLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank clients: %w", err)
	}
	recent, err := s.recentInvoices(ctx, userID, SummaryRecentLimit)
	if err != nil {
		return nil, err
	}

	if topClients == nil {
		topClients = []analytics.TopClient{}
	}

	return &SummaryResponse{
		Invoices:    counts,
		Revenue:     revenue,
		ClientCount: clientCount,
		Change: ChangeResponse{
			Revenue: analytics.PercentChange(revenue.ThisMonth, revenue.LastMonth),
			Invoices: analytics.PercentChange(
				decimal.NewFromInt(counts.ThisMonth), decimal.NewFromInt(counts.LastMonth)),
		},
		RecentInvoices: recent,
		TopClients:     topClients,
	}, nil
}

// Dashboard returns recent invoices, per-status totals and plan usage
func (s *AnalyticsService) Dashboard(ctx context.Context, userID uuid.UUID) (*DashboardResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "analytics", "dashboard")
	defer span.End()

	now := s.now()

	counts, err := s.repo.InvoiceCounts(ctx, userID, analytics.NewPeriod(now))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}
	groups, err := s.repo.StatusGroups(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to group invoices by status: %w", err)
	}
	recent, err := s.recentInvoices(ctx, userID, DashboardRecentLimit)
	if err != nil {
		return nil, err
	}
	quota, tier, err := s.quotas.MonthlyQuota(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	if groups == nil {
		groups = []analytics.StatusGroup{}
	}

	response := &DashboardResponse{
		RecentInvoices:    recent,
		StatusGroups:      groups,
		TotalInvoices:     counts.Total,
		InvoicesThisMonth: counts.ThisMonth,
		Tier:              tier,
		CanCreateInvoice:  quota.Allows(counts.ThisMonth),
	}
	if !quota.Unlimited {
		limit := quota.Limit
		response.MonthlyLimit = &limit
	}
	return response, nil
}

func (s *AnalyticsService) recentInvoices(ctx context.Context, userID uuid.UUID, limit int) ([]appinvoice.InvoiceResponse, error) {
	invoices, _, err := s.invoices.FindAllForUser(ctx, userID, shared.Filter{
		Page:     1,
		PageSize: limit,
		OrderBy:  "created_at",
		OrderDir: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent invoices: %w", err)
	}
	return appinvoice.ToInvoiceResponses(invoices), nil
}

package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks invoicing and billing activity.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	invoiceCreatedTotal  *Counter
	invoiceAmountTotal   *Counter
	quotaRejectedTotal   *Counter
	statusChangedTotal   *Counter
	checkoutStartedTotal *Counter
	webhookEventsTotal   *Counter
	documentRenderTime   *Histogram
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&bm.invoiceCreatedTotal, "invoicer_invoice_created_total", "Total number of invoices created", "{invoices}"},
		{&bm.invoiceAmountTotal, "invoicer_invoice_amount_total", "Total invoiced amount in cents", "{cents}"},
		{&bm.quotaRejectedTotal, "invoicer_quota_rejected_total", "Invoice creations rejected by the monthly quota", "{invoices}"},
		{&bm.statusChangedTotal, "invoicer_invoice_status_changed_total", "Invoice status transitions", "{transitions}"},
		{&bm.checkoutStartedTotal, "invoicer_checkout_started_total", "Stripe checkout sessions created", "{sessions}"},
		{&bm.webhookEventsTotal, "invoicer_webhook_events_total", "Stripe webhook deliveries by type and outcome", "{events}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	bm.documentRenderTime, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "invoicer_document_render_duration_seconds",
		Description: "Invoice document render latency",
		Unit:        "s",
		Boundaries:  DocumentDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Invoice Metrics
// =============================================================================

// RecordInvoiceCreated records an invoice creation and its total.
func (bm *BusinessMetrics) RecordInvoiceCreated(ctx context.Context, userID uuid.UUID, tier string, total decimal.Decimal) {
	attrs := []attribute.KeyValue{
		AttrUserID.String(userID.String()),
		AttrTier.String(tier),
	}
	bm.invoiceCreatedTotal.Inc(ctx, attrs...)
	bm.invoiceAmountTotal.Add(ctx, total.Mul(decimal.NewFromInt(100)).IntPart(), attrs...)
}

// RecordQuotaRejected records a create refused by the free-tier quota.
func (bm *BusinessMetrics) RecordQuotaRejected(ctx context.Context, userID uuid.UUID) {
	bm.quotaRejectedTotal.Inc(ctx, AttrUserID.String(userID.String()))
}

// RecordStatusChanged records a status transition.
func (bm *BusinessMetrics) RecordStatusChanged(ctx context.Context, from, to string) {
	bm.statusChangedTotal.Inc(ctx,
		AttrStatusFrom.String(from),
		AttrStatusTo.String(to),
	)
}

// RecordDocumentRendered records how long a document took to render.
func (bm *BusinessMetrics) RecordDocumentRendered(ctx context.Context, format string, seconds float64) {
	bm.documentRenderTime.Record(ctx, seconds, AttrDocumentFormat.String(format))
}

// =============================================================================
// Billing Metrics
// =============================================================================

// WebhookOutcome is the result of processing one webhook delivery.
type WebhookOutcome string

const (
	WebhookOutcomeApplied   WebhookOutcome = "applied"
	WebhookOutcomeDuplicate WebhookOutcome = "duplicate"
	WebhookOutcomeIgnored   WebhookOutcome = "ignored"
	WebhookOutcomeFailed    WebhookOutcome = "failed"
)

// RecordCheckoutStarted records a created checkout session.
func (bm *BusinessMetrics) RecordCheckoutStarted(ctx context.Context, userID uuid.UUID) {
	bm.checkoutStartedTotal.Inc(ctx, AttrUserID.String(userID.String()))
}

// RecordWebhookEvent records a processed webhook delivery.
func (bm *BusinessMetrics) RecordWebhookEvent(ctx context.Context, eventType string, outcome WebhookOutcome) {
	bm.webhookEventsTotal.Inc(ctx,
		AttrWebhookEvent.String(eventType),
		AttrWebhookOutcome.String(string(outcome)),
	)
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

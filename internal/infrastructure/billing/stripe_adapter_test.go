package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test_123456789"

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func setupMockBackend(t *testing.T, handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) {
	t.Helper()
	stripe.SetBackend(stripe.APIBackend, &mockBackend{handler: handler})
	t.Cleanup(func() { stripe.SetBackend(stripe.APIBackend, nil) })
}

func testConfig() *StripeConfig {
	return NewStripeConfig(config.StripeConfig{
		SecretKey:     "sk_test_123456789",
		WebhookSecret: testWebhookSecret,
		ProPriceID:    "price_pro_test",
		TestMode:      true,
	}, "https://app.example.com/")
}

func newTestAdapter(t *testing.T) *StripeAdapter {
	t.Helper()
	adapter, err := NewStripeAdapter(testConfig(), zap.NewNop())
	require.NoError(t, err)
	return adapter
}

func signed(t *testing.T, body map[string]any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return sp.Payload, sp.Header
}

func eventBody(id, eventType string, object map[string]any) map[string]any {
	return map[string]any{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": "2020-08-27",
		"data":        map[string]any{"object": object},
	}
}

func TestNewStripeConfig_RedirectURLs(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "https://app.example.com/dashboard?success=true", cfg.SuccessURL)
	assert.Equal(t, "https://app.example.com/pricing?canceled=true", cfg.CancelURL)
	assert.Equal(t, "https://app.example.com/dashboard/settings", cfg.PortalReturnURL)
}

func TestNewStripeAdapter_InvalidConfig(t *testing.T) {
	tests := []struct {
		name        string
		config      *StripeConfig
		expectedErr string
	}{
		{"missing secret key", &StripeConfig{ProPriceID: "price_1"}, "secret key is required"},
		{"test mode with live key", &StripeConfig{SecretKey: "sk_live_1", IsTestMode: true, ProPriceID: "price_1"}, "not a test key"},
		{"missing price", &StripeConfig{SecretKey: "sk_test_1", IsTestMode: true}, "pro price id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := NewStripeAdapter(tt.config, zap.NewNop())
			require.Error(t, err)
			assert.Nil(t, adapter)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	adapter := newTestAdapter(t)

	var got *stripe.CheckoutSessionParams
	setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		if method == "POST" && path == "/v1/checkout/sessions" {
			got = params.(*stripe.CheckoutSessionParams)
			return json.Marshal(&stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/cs_test_1"})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})

	session, err := adapter.CreateCheckoutSession(context.Background(), CheckoutInput{UserID: "user-1", Email: "owner@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", session.URL)

	require.NotNil(t, got)
	assert.Equal(t, "subscription", *got.Mode)
	assert.Equal(t, []*string{stripe.String("card")}, got.PaymentMethodTypes)
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, "price_pro_test", *got.LineItems[0].Price)
	assert.Equal(t, int64(1), *got.LineItems[0].Quantity)
	assert.Equal(t, "owner@example.com", *got.CustomerEmail)
	assert.Equal(t, "user-1", *got.ClientReferenceID)
	assert.Equal(t, "user-1", got.Metadata["userId"])
	assert.Equal(t, "https://app.example.com/dashboard?success=true", *got.SuccessURL)
	assert.Equal(t, "https://app.example.com/pricing?canceled=true", *got.CancelURL)
}

func TestCreateCheckoutSession_StripeError(t *testing.T) {
	adapter := newTestAdapter(t)
	setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such price"}
	})

	_, err := adapter.CreateCheckoutSession(context.Background(), CheckoutInput{UserID: "user-1", Email: "owner@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stripe: failed to create checkout session")
}

func TestCreatePortalSession(t *testing.T) {
	adapter := newTestAdapter(t)

	var got *stripe.BillingPortalSessionParams
	setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		if method == "POST" && path == "/v1/billing_portal/sessions" {
			got = params.(*stripe.BillingPortalSessionParams)
			return json.Marshal(&stripe.BillingPortalSession{ID: "bps_1", URL: "https://billing.stripe.com/p/session/bps_1"})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})

	session, err := adapter.CreatePortalSession(context.Background(), "cus_123")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/p/session/bps_1", session.URL)
	assert.Equal(t, "cus_123", *got.Customer)
	assert.Equal(t, "https://app.example.com/dashboard/settings", *got.ReturnURL)
}

func TestParseWebhook_InvalidSignature(t *testing.T) {
	adapter := newTestAdapter(t)
	payload, _ := signed(t, eventBody("evt_1", EventCheckoutCompleted, map[string]any{"id": "cs_1"}))

	_, err := adapter.ParseWebhook(payload, "t=1,v1=deadbeef")
	require.ErrorIs(t, err, ErrInvalidSignature)

	_, err = ParseWebhook(payload, "", testWebhookSecret)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	adapter := newTestAdapter(t)

	t.Run("user id from metadata", func(t *testing.T) {
		payload, header := signed(t, eventBody("evt_1", EventCheckoutCompleted, map[string]any{
			"id":                  "cs_1",
			"object":              "checkout.session",
			"customer":            "cus_1",
			"subscription":        "sub_1",
			"client_reference_id": "ignored",
			"metadata":            map[string]string{"userId": "user-1"},
		}))

		event, err := adapter.ParseWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, "evt_1", event.ID)
		require.NotNil(t, event.Checkout)
		assert.Equal(t, "user-1", event.Checkout.UserID)
		assert.Equal(t, "cus_1", event.Checkout.CustomerID)
		assert.Equal(t, "sub_1", event.Checkout.SubscriptionID)
		assert.Nil(t, event.Subscription)
	})

	t.Run("user id from client reference", func(t *testing.T) {
		payload, header := signed(t, eventBody("evt_2", EventCheckoutCompleted, map[string]any{
			"id":                  "cs_2",
			"object":              "checkout.session",
			"client_reference_id": "user-2",
		}))

		event, err := adapter.ParseWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, "user-2", event.Checkout.UserID)
		assert.Empty(t, event.Checkout.CustomerID)
	})
}

func TestParseWebhook_Subscription(t *testing.T) {
	adapter := newTestAdapter(t)
	periodEnd := time.Date(2026, 11, 18, 0, 0, 0, 0, time.UTC)

	payload, header := signed(t, eventBody("evt_3", EventSubscriptionUpdated, map[string]any{
		"id":                 "sub_1",
		"object":             "subscription",
		"customer":           "cus_1",
		"status":             "active",
		"current_period_end": periodEnd.Unix(),
		"items": map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"id": "si_1", "object": "subscription_item", "price": map[string]any{"id": "price_pro_test", "object": "price"}},
			},
		},
	}))

	event, err := adapter.ParseWebhook(payload, header)
	require.NoError(t, err)
	require.NotNil(t, event.Subscription)
	sub := event.Subscription
	assert.Equal(t, "sub_1", sub.SubscriptionID)
	assert.Equal(t, "cus_1", sub.CustomerID)
	assert.Equal(t, SubscriptionStatusActive, sub.Status)
	assert.True(t, sub.Status.IsActive())
	assert.Equal(t, "price_pro_test", sub.PriceID)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.True(t, periodEnd.Equal(*sub.CurrentPeriodEnd))
}

func TestParseWebhook_PaymentFailedAndUnhandled(t *testing.T) {
	adapter := newTestAdapter(t)

	payload, header := signed(t, eventBody("evt_4", EventInvoicePaymentFailed, map[string]any{
		"id":            "in_1",
		"object":        "invoice",
		"customer":      "cus_1",
		"subscription":  "sub_1",
		"attempt_count": 2,
	}))
	event, err := adapter.ParseWebhook(payload, header)
	require.NoError(t, err)
	require.NotNil(t, event.PaymentFailed)
	assert.Equal(t, "in_1", event.PaymentFailed.InvoiceID)
	assert.Equal(t, "sub_1", event.PaymentFailed.SubscriptionID)
	assert.Equal(t, int64(2), event.PaymentFailed.AttemptCount)

	payload, header = signed(t, eventBody("evt_5", "charge.refunded", map[string]any{"id": "ch_1", "object": "charge"}))
	event, err = adapter.ParseWebhook(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "charge.refunded", event.Type)
	assert.Nil(t, event.Checkout)
	assert.Nil(t, event.Subscription)
	assert.Nil(t, event.PaymentFailed)
}

func TestSubscriptionStatus_IsActive(t *testing.T) {
	assert.True(t, SubscriptionStatusTrialing.IsActive())
	assert.False(t, SubscriptionStatusPastDue.IsActive())
	assert.False(t, SubscriptionStatusCanceled.IsActive())
}

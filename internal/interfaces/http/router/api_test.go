package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	billingapp "github.com/invoicer/backend/internal/application/billing"
	identityapp "github.com/invoicer/backend/internal/application/identity"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBilling struct{}

func (stubBilling) CreateCheckout(context.Context, uuid.UUID) (*billingapp.SessionResponse, error) {
	return &billingapp.SessionResponse{URL: "https://checkout.example"}, nil
}

func (stubBilling) CreatePortal(context.Context, uuid.UUID) (*billingapp.SessionResponse, error) {
	return &billingapp.SessionResponse{URL: "https://portal.example"}, nil
}

func (stubBilling) Plans() []identity.Plan {
	return identity.Plans(identity.FreeMonthlyInvoiceLimit, "price_pro")
}

func (stubBilling) Subscription(context.Context, uuid.UUID) (*billingapp.SubscriptionResponse, error) {
	return &billingapp.SubscriptionResponse{Tier: identity.TierFree}, nil
}

type stubUsers struct{}

func (stubUsers) Me(_ context.Context, userID uuid.UUID) (*identityapp.UserResponse, error) {
	return &identityapp.UserResponse{ID: userID, Email: "ada@example.com", Tier: identity.TierFree}, nil
}

func (stubUsers) GetSettings(context.Context, uuid.UUID) (*identityapp.SettingsResponse, error) {
	return &identityapp.SettingsResponse{}, nil
}

func (stubUsers) UpdateSettings(context.Context, uuid.UUID, identityapp.UpdateSettingsRequest) (*identityapp.SettingsResponse, error) {
	return &identityapp.SettingsResponse{}, nil
}

type apiFixture struct {
	jwt     *auth.JWTService
	sqlMock sqlmock.Sqlmock
	cfg     Config
	h       Handlers
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db, sqlMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: time.Hour,
		Issuer:                "invoicer-test",
	})

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = []string{"https://app.example.com"}

	return &apiFixture{
		jwt:     jwtService,
		sqlMock: sqlMock,
		cfg: Config{
			ServiceName:    "invoicer-test",
			TokenValidator: jwtService,
			CORS:           cors,
			Security:       middleware.DefaultSecurityConfig(),
			MaxBodySize:    1 << 20,
		},
		h: Handlers{
			Client:    handler.NewClientHandler(nil, nil),
			Invoice:   handler.NewInvoiceHandler(nil, nil),
			Document:  handler.NewDocumentHandler(nil, nil),
			Billing:   handler.NewBillingHandler(stubBilling{}, nil, nil),
			Settings:  handler.NewSettingsHandler(stubUsers{}, nil),
			Analytics: handler.NewAnalyticsHandler(nil, nil),
			Auth:      handler.NewAuthHandler(nil, stubUsers{}, nil),
			Health:    handler.NewHealthHandler(db, nil, nil),
		},
	}
}

func (f *apiFixture) engine(t *testing.T) http.Handler {
	t.Helper()
	engine, err := New(f.cfg, f.h)
	require.NoError(t, err)
	return engine
}

func (f *apiFixture) token(t *testing.T) string {
	t.Helper()
	tok, err := f.jwt.GenerateAccessToken(uuid.New(), "ada@example.com")
	require.NoError(t, err)
	return tok.Token
}

func request(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestAPI_ProtectedRoutesRequireSession(t *testing.T) {
	f := newAPIFixture(t)
	engine := f.engine(t)
	id := uuid.NewString()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/clients"},
		{http.MethodPost, "/api/v1/clients"},
		{http.MethodGet, "/api/v1/clients/" + id},
		{http.MethodPut, "/api/v1/clients/" + id},
		{http.MethodDelete, "/api/v1/clients/" + id},
		{http.MethodGet, "/api/v1/invoices"},
		{http.MethodPost, "/api/v1/invoices"},
		{http.MethodGet, "/api/v1/invoices/" + id},
		{http.MethodPut, "/api/v1/invoices/" + id},
		{http.MethodDelete, "/api/v1/invoices/" + id},
		{http.MethodPatch, "/api/v1/invoices/" + id + "/status"},
		{http.MethodGet, "/api/v1/invoices/" + id + "/document"},
		{http.MethodPost, "/api/v1/billing/checkout"},
		{http.MethodPost, "/api/v1/billing/portal"},
		{http.MethodGet, "/api/v1/billing/subscription"},
		{http.MethodGet, "/api/v1/settings"},
		{http.MethodPut, "/api/v1/settings"},
		{http.MethodGet, "/api/v1/analytics"},
		{http.MethodGet, "/api/v1/dashboard"},
		{http.MethodGet, "/api/v1/auth/me"},
	}

	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rec := request(engine, r.method, r.path, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, rec))
		})
	}
}

func TestAPI_AuthenticatedRequest(t *testing.T) {
	f := newAPIFixture(t)
	engine := f.engine(t)

	rec := request(engine, http.MethodGet, "/api/v1/auth/me", f.token(t))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"ada@example.com"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestAPI_PublicRoutes(t *testing.T) {
	f := newAPIFixture(t)
	engine := f.engine(t)

	rec := request(engine, http.MethodGet, "/api/v1/billing/plans", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"pro"`)

	// Reaches the handler, which rejects the unsigned delivery
	rec = request(engine, http.MethodPost, "/api/v1/billing/webhook", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.sqlMock.ExpectPing()
	f.sqlMock.ExpectPing()
	assert.Equal(t, http.StatusOK, request(engine, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, request(engine, http.MethodGet, "/api/v1/health", "").Code)
}

func TestAPI_NotFoundAndMethodNotAllowed(t *testing.T) {
	f := newAPIFixture(t)
	engine := f.engine(t)

	rec := request(engine, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, rec))

	rec = request(engine, http.MethodDelete, "/api/v1/billing/plans", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPI_AuthRateLimit(t *testing.T) {
	f := newAPIFixture(t)
	f.cfg.AuthRateLimiter = middleware.NewRateLimiter(2, time.Minute)
	engine := f.engine(t)

	for i := 0; i < 2; i++ {
		rec := request(engine, http.MethodGet, "/api/v1/auth/google/callback", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := request(engine, http.MethodGet, "/api/v1/auth/google/callback", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Other routes are not affected by the sign-in limit
	rec = request(engine, http.MethodGet, "/api/v1/billing/plans", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_BodyLimit(t *testing.T) {
	f := newAPIFixture(t)
	f.cfg.MaxBodySize = 64
	engine := f.engine(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(strings.Repeat("x", 128)))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAPI_CORSPreflight(t *testing.T) {
	f := newAPIFixture(t)
	engine := f.engine(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/invoices", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

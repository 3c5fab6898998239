package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	analyticsapp "github.com/invoicer/backend/internal/application/analytics"
	billingapp "github.com/invoicer/backend/internal/application/billing"
	clientapp "github.com/invoicer/backend/internal/application/client"
	identityapp "github.com/invoicer/backend/internal/application/identity"
	invoiceapp "github.com/invoicer/backend/internal/application/invoice"
	printingapp "github.com/invoicer/backend/internal/application/printing"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// newTestRouter returns a router whose requests are authenticated as userID.
// Pass uuid.Nil for anonymous requests.
func newTestRouter(userID uuid.UUID) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(middleware.JWTClaimsKey, &auth.Claims{UserID: userID.String(), Email: "owner@example.com"})
		}
		c.Next()
	})
	return router
}

func doRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doRequestTo(handler http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

// MockClientService is a mock implementation of ClientService
type MockClientService struct {
	mock.Mock
}

func (m *MockClientService) List(ctx context.Context, userID uuid.UUID, filter clientapp.ClientListFilter) ([]clientapp.ClientResponse, int64, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]clientapp.ClientResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockClientService) GetByID(ctx context.Context, userID, clientID uuid.UUID) (*clientapp.ClientDetailResponse, error) {
	args := m.Called(ctx, userID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.ClientDetailResponse), args.Error(1)
}

func (m *MockClientService) Create(ctx context.Context, userID uuid.UUID, req clientapp.CreateClientRequest) (*clientapp.ClientResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.ClientResponse), args.Error(1)
}

func (m *MockClientService) Update(ctx context.Context, userID, clientID uuid.UUID, req clientapp.UpdateClientRequest) (*clientapp.ClientResponse, error) {
	args := m.Called(ctx, userID, clientID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clientapp.ClientResponse), args.Error(1)
}

func (m *MockClientService) Delete(ctx context.Context, userID, clientID uuid.UUID) error {
	args := m.Called(ctx, userID, clientID)
	return args.Error(0)
}

// MockInvoiceService is a mock implementation of InvoiceService
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) List(ctx context.Context, userID uuid.UUID, filter invoiceapp.InvoiceListFilter) ([]invoiceapp.InvoiceResponse, int64, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]invoiceapp.InvoiceResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceService) GetByID(ctx context.Context, userID, invoiceID uuid.UUID) (*invoiceapp.InvoiceResponse, error) {
	args := m.Called(ctx, userID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoiceapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) Create(ctx context.Context, userID uuid.UUID, req invoiceapp.CreateInvoiceRequest) (*invoiceapp.InvoiceResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoiceapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) Update(ctx context.Context, userID, invoiceID uuid.UUID, req invoiceapp.UpdateInvoiceRequest) (*invoiceapp.InvoiceResponse, error) {
	args := m.Called(ctx, userID, invoiceID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoiceapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) UpdateStatus(ctx context.Context, userID, invoiceID uuid.UUID, req invoiceapp.UpdateStatusRequest) (*invoiceapp.InvoiceResponse, error) {
	args := m.Called(ctx, userID, invoiceID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoiceapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) Delete(ctx context.Context, userID, invoiceID uuid.UUID) error {
	args := m.Called(ctx, userID, invoiceID)
	return args.Error(0)
}

// MockDocumentService is a mock implementation of DocumentService
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) RenderInvoice(ctx context.Context, userID, invoiceID uuid.UUID, req printingapp.DocumentRequest) (*printingapp.DocumentResponse, error) {
	args := m.Called(ctx, userID, invoiceID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printingapp.DocumentResponse), args.Error(1)
}

// MockBillingService is a mock implementation of BillingService
type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) CreateCheckout(ctx context.Context, userID uuid.UUID) (*billingapp.SessionResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.SessionResponse), args.Error(1)
}

func (m *MockBillingService) CreatePortal(ctx context.Context, userID uuid.UUID) (*billingapp.SessionResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.SessionResponse), args.Error(1)
}

func (m *MockBillingService) Plans() []identity.Plan {
	args := m.Called()
	return args.Get(0).([]identity.Plan)
}

func (m *MockBillingService) Subscription(ctx context.Context, userID uuid.UUID) (*billingapp.SubscriptionResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.SubscriptionResponse), args.Error(1)
}

// MockWebhookProcessor is a mock implementation of WebhookProcessor
type MockWebhookProcessor struct {
	mock.Mock
}

func (m *MockWebhookProcessor) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*billingapp.WebhookResult, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingapp.WebhookResult), args.Error(1)
}

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Me(ctx context.Context, userID uuid.UUID) (*identityapp.UserResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

func (m *MockUserService) GetSettings(ctx context.Context, userID uuid.UUID) (*identityapp.SettingsResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.SettingsResponse), args.Error(1)
}

func (m *MockUserService) UpdateSettings(ctx context.Context, userID uuid.UUID, req identityapp.UpdateSettingsRequest) (*identityapp.SettingsResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.SettingsResponse), args.Error(1)
}

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) DemoLogin(ctx context.Context, req identityapp.DemoLoginRequest) (*identityapp.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.LoginResponse), args.Error(1)
}

func (m *MockAuthService) GoogleAuthURL() (*identityapp.GoogleAuthURLResponse, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.GoogleAuthURLResponse), args.Error(1)
}

func (m *MockAuthService) GoogleCallback(ctx context.Context, req identityapp.GoogleCallbackRequest) (*identityapp.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.LoginResponse), args.Error(1)
}

// MockAnalyticsService is a mock implementation of AnalyticsService
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Summary(ctx context.Context, userID uuid.UUID) (*analyticsapp.SummaryResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.SummaryResponse), args.Error(1)
}

func (m *MockAnalyticsService) Dashboard(ctx context.Context, userID uuid.UUID) (*analyticsapp.DashboardResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsapp.DashboardResponse), args.Error(1)
}

package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers groups every endpoint handler of the API
type Handlers struct {
	Client    *handler.ClientHandler
	Invoice   *handler.InvoiceHandler
	Document  *handler.DocumentHandler
	Billing   *handler.BillingHandler
	Settings  *handler.SettingsHandler
	Analytics *handler.AnalyticsHandler
	Auth      *handler.AuthHandler
	Health    *handler.HealthHandler
}

// Config holds the middleware settings of the API engine
type Config struct {
	ServiceName    string
	Logger         *zap.Logger
	TokenValidator middleware.TokenValidator
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	MaxBodySize    int64
	TrustedProxies []string
	TracingEnabled bool
	// HTTPMetrics is nil when metrics are disabled
	HTTPMetrics *middleware.HTTPMetrics
	// RateLimiter applies to every API route, AuthRateLimiter additionally
	// to sign-in routes. Either may be nil.
	RateLimiter     *middleware.RateLimiter
	AuthRateLimiter *middleware.RateLimiter
}

// New builds the gin engine serving the invoicing API
func New(cfg Config, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}
	engine.HandleMethodNotAllowed = true

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
	)
	if cfg.TracingEnabled {
		engine.Use(middleware.Tracing(cfg.ServiceName), middleware.SpanEnricher())
	}
	if cfg.HTTPMetrics != nil {
		engine.Use(cfg.HTTPMetrics.Middleware())
	}
	engine.Use(
		middleware.Secure(cfg.Security),
		middleware.CORS(cfg.CORS),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeBadRequest, "Method not allowed", middleware.GetRequestID(c)))
	})

	engine.GET("/health", h.Health.Check)

	r := NewRouter(engine)
	r.Register(apiGroups(cfg, h)...)
	api := r.Setup()
	api.GET("/health", h.Health.Check)

	return engine, nil
}

func apiGroups(cfg Config, h Handlers) []RouteRegistrar {
	var limited []gin.HandlerFunc
	if cfg.RateLimiter != nil {
		limited = append(limited, middleware.RateLimit(cfg.RateLimiter))
	}
	authed := chain(limited, middleware.JWTAuth(cfg.TokenValidator, cfg.Logger))

	authLimited := limited
	if cfg.AuthRateLimiter != nil {
		authLimited = chain(limited, middleware.RateLimit(cfg.AuthRateLimiter))
	}

	clients := NewDomainGroup("clients", "/clients").Use(authed...).
		GET("", h.Client.List).
		POST("", h.Client.Create).
		GET("/:id", h.Client.GetByID).
		PUT("/:id", h.Client.Update).
		DELETE("/:id", h.Client.Delete)

	invoices := NewDomainGroup("invoices", "/invoices").Use(authed...).
		GET("", h.Invoice.List).
		POST("", h.Invoice.Create).
		GET("/:id", h.Invoice.GetByID).
		PUT("/:id", h.Invoice.Update).
		DELETE("/:id", h.Invoice.Delete).
		PATCH("/:id/status", h.Invoice.UpdateStatus).
		GET("/:id/document", h.Document.Render)

	// The webhook is authenticated by its Stripe signature and is never rate limited
	billingPublic := NewDomainGroup("billing-public", "/billing").
		POST("/webhook", h.Billing.Webhook).
		GET("/plans", chain(limited, h.Billing.Plans)...)

	billing := NewDomainGroup("billing", "/billing").Use(authed...).
		POST("/checkout", h.Billing.Checkout).
		POST("/portal", h.Billing.Portal).
		GET("/subscription", h.Billing.Subscription)

	settings := NewDomainGroup("settings", "/settings").Use(authed...).
		GET("", h.Settings.Get).
		PUT("", h.Settings.Update)

	analytics := NewDomainGroup("analytics", "/analytics").Use(authed...).
		GET("", h.Analytics.Summary)

	dashboard := NewDomainGroup("dashboard", "/dashboard").Use(authed...).
		GET("", h.Analytics.Dashboard)

	authPublic := NewDomainGroup("auth", "/auth").Use(authLimited...).
		POST("/login", h.Auth.Login).
		GET("/google", h.Auth.GoogleLogin).
		GET("/google/callback", h.Auth.GoogleCallback)

	authMe := NewDomainGroup("auth-me", "/auth").Use(authed...).
		GET("/me", h.Auth.Me)

	return []RouteRegistrar{
		clients, invoices, billingPublic, billing, settings, analytics, dashboard, authPublic, authMe,
	}
}

// chain returns base followed by extra without sharing base's backing array
func chain(base []gin.HandlerFunc, extra ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

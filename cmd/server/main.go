package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	analyticsapp "github.com/invoicer/backend/internal/application/analytics"
	billingapp "github.com/invoicer/backend/internal/application/billing"
	clientapp "github.com/invoicer/backend/internal/application/client"
	identityapp "github.com/invoicer/backend/internal/application/identity"
	invoiceapp "github.com/invoicer/backend/internal/application/invoice"
	printingapp "github.com/invoicer/backend/internal/application/printing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/billing"
	"github.com/invoicer/backend/internal/infrastructure/cache"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/migration"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/invoicer/backend/internal/interfaces/http/router"
	"github.com/invoicer/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
	log.Info("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting invoicing backend",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer shutdownWithTimeout(log, "tracer provider", tp.Shutdown)

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer shutdownWithTimeout(log, "meter provider", mp.Shutdown)
	meter := mp.Meter(cfg.Telemetry.ServiceName)

	if cfg.Database.AutoMigrate {
		if err := migrateUp(cfg, log); err != nil {
			return err
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithParameterizedQueries(!cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.DBName))

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.Enabled = true
		dbTracing.IncludeVariables = cfg.Telemetry.DBLogFullSQL
		dbTracing.DBName = cfg.Database.DBName
		if cfg.Telemetry.DBSlowQueryThresh > 0 {
			dbTracing.SlowThreshold = cfg.Telemetry.DBSlowQueryThresh
		}
		if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
			return err
		}
	}

	sqlDB := db.SQL()
	if mp.IsEnabled() {
		reg, err := telemetry.RegisterDBPoolMetrics(meter, sqlDB)
		if err != nil {
			return err
		}
		defer func() { _ = reg.Unregister() }()
	}

	stores, err := cache.NewFactory(cfg.Redis, cfg.Quota.TierCacheTTL,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).Create(ctx)
	if err != nil {
		return err
	}
	if stores.Client != nil {
		defer func() { _ = stores.Client.Close() }()
	}

	// Repositories
	clientRepo := persistence.NewGormClientRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	analyticsRepo := persistence.NewGormAnalyticsRepository(db.DB)

	// External integrations. Each stays a nil interface when not configured.
	var gateway billingapp.Gateway
	var webhookParser billingapp.WebhookParser
	if cfg.Stripe.Configured() {
		adapter, err := billing.NewStripeAdapter(billing.NewStripeConfig(cfg.Stripe, cfg.App.BaseURL), log)
		if err != nil {
			return err
		}
		gateway, webhookParser = adapter, adapter
		log.Info("Stripe billing enabled", zap.Bool("test_mode", cfg.Stripe.TestMode))
	} else {
		log.Warn("Stripe is not configured, billing endpoints will reject requests")
	}

	var google identityapp.ExternalAuthenticator
	if cfg.Auth.GoogleEnabled() {
		provider, err := auth.NewGoogleProvider(ctx, auth.GoogleConfig{
			Issuer:       cfg.Auth.GoogleIssuer,
			ClientID:     cfg.Auth.GoogleClientID,
			ClientSecret: cfg.Auth.GoogleClientSecret,
			RedirectURL:  cfg.Auth.GoogleRedirectURL,
			StateSecret:  cfg.Auth.StateSecret,
		})
		if err != nil {
			return err
		}
		google = provider
	}

	var pdfRenderer printing.PDFRenderer
	if cfg.Printing.PDFEnabled {
		renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.Printing.Timeout,
			RemoteURL:      cfg.Printing.ChromeRemoteURL,
			NoSandbox:      os.Geteuid() == 0,
			Logger:         log,
		})
		if err != nil {
			return err
		}
		defer func() { _ = renderer.Close() }()
		pdfRenderer = renderer
	}
	documentEngine, err := printing.NewDocumentEngine()
	if err != nil {
		return err
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	// Application services share one clock so quota windows agree
	clock := shared.Clock(shared.SystemClock)
	tierResolver := billingapp.NewTierResolver(userRepo, stores.Tiers, cfg.Quota.FreeMonthlyLimit, log)
	clientService := clientapp.NewClientService(clientRepo, invoiceRepo, log)
	invoiceService := invoiceapp.NewInvoiceService(invoiceapp.InvoiceServiceConfig{
		InvoiceRepo: invoiceRepo,
		Clients:     clientRepo,
		Quotas:      tierResolver,
		Logger:      log,
		Clock:       clock,
	})
	printService := printingapp.NewPrintService(printingapp.PrintServiceConfig{
		Invoices:    invoiceRepo,
		Users:       userRepo,
		Engine:      documentEngine,
		PDFRenderer: pdfRenderer,
		Logger:      log,
	})
	billingService := billingapp.NewBillingService(billingapp.BillingServiceConfig{
		Gateway:    gateway,
		UserRepo:   userRepo,
		Usage:      invoiceRepo,
		Tiers:      tierResolver,
		ProPriceID: cfg.Stripe.ProPriceID,
		Logger:     log,
		Clock:      clock,
	})
	webhookService := billingapp.NewWebhookService(billingapp.WebhookServiceConfig{
		Parser:      webhookParser,
		UserRepo:    userRepo,
		Tiers:       tierResolver,
		Idempotency: stores.Idempotency,
		ProPriceID:  cfg.Stripe.ProPriceID,
		Logger:      log,
	})
	analyticsService := analyticsapp.NewAnalyticsService(analyticsRepo, invoiceRepo, tierResolver, log)
	analyticsService.SetClock(clock)
	authService := identityapp.NewAuthService(identityapp.AuthServiceConfig{
		UserRepo:         userRepo,
		Tokens:           jwtService,
		Google:           google,
		DemoLoginEnabled: cfg.Auth.DemoLoginEnabled,
		Logger:           log,
	})
	userService := identityapp.NewUserService(userRepo, tierResolver, log)

	var httpMetrics *middleware.HTTPMetrics
	if mp.IsEnabled() {
		bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{Meter: meter, Logger: log})
		if err != nil {
			return err
		}
		invoiceService.SetBusinessMetrics(bm)
		printService.SetBusinessMetrics(bm)
		billingService.SetBusinessMetrics(bm)
		webhookService.SetBusinessMetrics(bm)

		httpMetrics, err = middleware.NewHTTPMetrics(meter)
		if err != nil {
			return err
		}
	}

	var rateLimiter, authRateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		authRateLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		go rateLimiter.Run(ctx)
		go authRateLimiter.Run(ctx)
	}

	// Redis is only reported by the health check when it is actually in use
	var redisClient redis.UniversalClient
	if stores.Client != nil {
		redisClient = stores.Client
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.App.IsProduction()

	engine, err := router.New(router.Config{
		ServiceName:     cfg.Telemetry.ServiceName,
		Logger:          log,
		TokenValidator:  jwtService,
		CORS:            cors,
		Security:        security,
		MaxBodySize:     cfg.HTTP.MaxBodySize,
		TrustedProxies:  cfg.HTTP.TrustedProxies,
		TracingEnabled:  tp.IsEnabled(),
		HTTPMetrics:     httpMetrics,
		RateLimiter:     rateLimiter,
		AuthRateLimiter: authRateLimiter,
	}, router.Handlers{
		Client:    handler.NewClientHandler(clientService, log),
		Invoice:   handler.NewInvoiceHandler(invoiceService, log),
		Document:  handler.NewDocumentHandler(printService, log),
		Billing:   handler.NewBillingHandler(billingService, webhookService, log),
		Settings:  handler.NewSettingsHandler(userService, log),
		Analytics: handler.NewAnalyticsHandler(analyticsService, log),
		Auth:      handler.NewAuthHandler(authService, userService, log),
		Health:    handler.NewHealthHandler(sqlDB, redisClient, log),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// migrateUp applies pending migrations over a dedicated connection.
// golang-migrate closes the connection it is handed.
func migrateUp(cfg *config.Config, log *zap.Logger) error {
	conn, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	m, err := migration.NewFromFS(conn, migrations.FS, log)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

func shutdownWithTimeout(log *zap.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn("Shutdown failed", zap.String("component", name), zap.Error(err))
	}
}

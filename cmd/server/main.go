package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/cardapio/internal"
	"github.com/dukerupert/cardapio/internal/billing"
	"github.com/dukerupert/cardapio/internal/cart"
	"github.com/dukerupert/cardapio/internal/catalog"
	"github.com/dukerupert/cardapio/internal/checkout"
	"github.com/dukerupert/cardapio/internal/composer"
	"github.com/dukerupert/cardapio/internal/cookie"
	"github.com/dukerupert/cardapio/internal/coupon"
	"github.com/dukerupert/cardapio/internal/delivery"
	"github.com/dukerupert/cardapio/internal/handler"
	"github.com/dukerupert/cardapio/internal/handler/storefront"
	"github.com/dukerupert/cardapio/internal/handler/webhook"
	"github.com/dukerupert/cardapio/internal/kitchen"
	"github.com/dukerupert/cardapio/internal/middleware"
	"github.com/dukerupert/cardapio/internal/router"
	"github.com/dukerupert/cardapio/internal/routes"
	"github.com/dukerupert/cardapio/internal/telemetry"
	"github.com/dukerupert/cardapio/internal/tenant"
	"github.com/dukerupert/cardapio/internal/worker"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry
	sentryEnabled, flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Enabled:     cfg.Sentry.Enabled,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return err
	}
	defer flushSentry()

	var reporter telemetry.Reporter = telemetry.NewLogReporter(logger)
	if sentryEnabled {
		reporter = telemetry.MultiReporter{reporter, telemetry.NewSentryReporter()}
	}

	// Initialize pgx connection pool
	logger.Info("Connecting to database...")
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations through a database/sql handle on the same pool
	logger.Info("Running database migrations...")
	sqlDB := stdlib.OpenDBFromPool(pool)
	if err := internal.RunMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return fmt.Errorf("migration failed: %w", err)
	}
	sqlDB.Close()
	logger.Info("Database migrations completed successfully")

	// Metrics registry shared by HTTP and business metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	businessMetrics := telemetry.NewBusinessMetrics("cardapio", registry)
	httpMetrics := middleware.NewMetrics("cardapio", registry)

	// Catalog, coupons and establishments
	menu := catalog.NewPostgresProvider(pool, logger)
	coupons := coupon.NewPostgresValidator(pool, logger)
	establishments := tenant.NewDBResolver(pool)

	// Billing provider
	var billingProvider billing.Provider
	if cfg.Stripe.SecretKey != "" {
		stripeProvider, err := billing.NewStripeProvider(billing.StripeConfig{
			APIKey:        cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			MaxRetries:    3,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Stripe provider: %w", err)
		}
		billingProvider = stripeProvider
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, payments are simulated")
		billingProvider = billing.NewMockProvider()
	}

	// Kitchen ticket publisher
	var publisher kitchen.Publisher = kitchen.NopPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := kitchen.NewNATSPublisher(kitchen.Config{
			URL:           cfg.NATS.URL,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize kitchen publisher: %w", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	} else {
		logger.Warn("NATS_URL not set, kitchen tickets are not published")
	}

	// Configuration sessions, carts and checkout
	sessions := composer.NewRegistry(composer.Deps{
		Catalog:  menu,
		Coupons:  coupons,
		Logger:   logger,
		Reporter: reporter,
		Metrics:  businessMetrics,
	}, cfg.Sessions.TTL)

	carts := cart.NewRegistry(delivery.NewFlatFeeProvider(cfg.Delivery.Fee, cfg.Delivery.FreeAbove), cfg.Sessions.TTL)

	checkoutService := checkout.NewService(checkout.Deps{
		Billing: billingProvider,
		Kitchen: publisher,
		Carts: func(establishmentID uuid.UUID, cartID string) (checkout.Cart, bool) {
			store, ok := carts.Get(establishmentID, cartID)
			if !ok {
				return nil, false
			}
			return store, true
		},
		Coupons:  coupons,
		Currency: cfg.Currency,
		Logger:   logger,
		Reporter: reporter,
		Metrics:  businessMetrics,
	})

	cookies := cookie.NewConfig(cfg.Sessions.CookieDomain, cfg.Sessions.CookieSecure, cfg.Sessions.TTL)
	couponLimiter := middleware.NewRateLimiter(middleware.StrictRateLimiterConfig())

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0 // Disable HSTS in development
	}

	r := router.New(
		router.Recovery(logger, reporter),
		telemetry.SentryMiddleware(sentryEnabled),
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		httpMetrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		router.Logger(logger),
	)

	routes.RegisterStorefrontRoutes(r, routes.StorefrontDeps{
		Establishment: middleware.ResolveEstablishment(middleware.EstablishmentConfig{
			Resolver: establishments,
			Logger:   logger,
		}),
		CouponLimiter:  couponLimiter,
		ProductHandler: storefront.NewProductHandler(menu, logger),
		SessionHandler: storefront.NewSessionHandler(sessions, carts, cookies),
		CartHandler:    storefront.NewCartHandler(carts, checkoutService, cookies),
	})
	routes.RegisterWebhookRoutes(r, routes.WebhookDeps{
		StripeHandler: webhook.NewStripeHandler(billingProvider, checkoutService, webhook.StripeWebhookConfig{
			WebhookSecret: cfg.Stripe.WebhookSecret,
		}, reporter),
	})
	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		HealthHandler:  handler.NewHealthHandler(pool),
		MetricsHandler: httpMetrics.Handler(),
	})
	r.NotFound(handler.NotFoundResponse)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.CORS(cfg.HTTP.AllowedOrigins)(r),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// ==========================================================================
	// Start server and background worker
	// ==========================================================================

	sweeper := worker.NewWorker(worker.Config{
		WorkerID:     "sweeper",
		PollInterval: cfg.Sessions.SweepInterval,
	}, logger, reporter,
		worker.SweepJob("configuration_sessions", sessions.Sweep),
		worker.SweepJob("carts", carts.Sweep),
		worker.SweepJob("pending_orders", checkoutService.Sweep),
		worker.SweepJob("coupon_rate_limits", func(context.Context) int {
			return couponLimiter.Sweep()
		}),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := sweeper.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info("Server stopped",
			"open_sessions", sessions.Len(),
			"open_carts", carts.Len(),
			"pending_orders", checkoutService.Pending(),
		)
		return nil
	})

	return g.Wait()
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

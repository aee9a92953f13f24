package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	webhookcontrollers "github.com/workoutbrothers/storefront-backend/api/controllers/webhooks"
	"github.com/workoutbrothers/storefront-backend/api/routes"
	"github.com/workoutbrothers/storefront-backend/internal/admin"
	"github.com/workoutbrothers/storefront-backend/internal/auth"
	"github.com/workoutbrothers/storefront-backend/internal/cart"
	"github.com/workoutbrothers/storefront-backend/internal/notifications"
	"github.com/workoutbrothers/storefront-backend/internal/orders"
	"github.com/workoutbrothers/storefront-backend/internal/payments"
	product "github.com/workoutbrothers/storefront-backend/internal/products"
	"github.com/workoutbrothers/storefront-backend/internal/reporting"
	"github.com/workoutbrothers/storefront-backend/internal/users"
	stripewebhook "github.com/workoutbrothers/storefront-backend/internal/webhooks/stripe"
	"github.com/workoutbrothers/storefront-backend/pkg/config"
	"github.com/workoutbrothers/storefront-backend/pkg/db"
	"github.com/workoutbrothers/storefront-backend/pkg/idempotency"
	"github.com/workoutbrothers/storefront-backend/pkg/instance"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/metrics"
	"github.com/workoutbrothers/storefront-backend/pkg/migrate"
	"github.com/workoutbrothers/storefront-backend/pkg/outbox"
	"github.com/workoutbrothers/storefront-backend/pkg/redis"
	"github.com/workoutbrothers/storefront-backend/pkg/stripe"
)

const (
	webhookEventTTL = 7 * 24 * time.Hour
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	loc, err := cfg.Reporting.Location()
	if err != nil {
		logg.Error(context.Background(), "invalid reporting timezone", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	storeMetrics := metrics.NewStoreMetrics(prometheus.DefaultRegisterer)

	userRepo := users.NewRepository(dbClient.DB())
	productRepo := product.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	statsRepo := orders.NewStatsRepository(dbClient.DB())

	requester, err := notifications.NewRequester(dbClient, outbox.NewService(outbox.NewRepository(dbClient.DB()), logg), cfg.Email.AdminAddress)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification requester", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	productService, err := product.NewService(productRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, productRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:          ordersRepo,
		Carts:         cartRepo,
		Users:         userRepo,
		Notifications: requester,
		Tx:            dbClient,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	// Payments stay mounted without a key; every call then reports the
	// processor as unavailable.
	var processor payments.Processor
	if cfg.Stripe.APIKey != "" {
		stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
		processor = stripeClient
	} else {
		logg.Warn(context.Background(), "stripe api key not set, payments disabled")
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Orders:    ordersRepo,
		Processor: processor,
		Currency:  cfg.Stripe.Currency,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	var webhookService webhookcontrollers.StripeWebhookService
	if cfg.Stripe.Secret != "" {
		guard, err := idempotency.NewGuard(redisClient, stripewebhook.ConsumerName, webhookEventTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create webhook guard", err)
			os.Exit(1)
		}
		svc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
			Orders:            ordersRepo,
			Verifier:          stripe.WebhookSecret(cfg.Stripe.Secret),
			Guard:             guard,
			TransactionRunner: dbClient,
			Metrics:           storeMetrics,
			Logger:            logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe webhook service", err)
			os.Exit(1)
		}
		webhookService = svc
	} else {
		logg.Warn(context.Background(), "stripe webhook secret not set, webhook disabled")
	}

	reportingCtx, err := reporting.NewContext(reporting.ContextParams{
		Products:          productRepo,
		Orders:            statsRepo,
		Users:             userRepo,
		Notifications:     requester,
		Metrics:           storeMetrics,
		Logger:            logg,
		Location:          loc,
		LowStockThreshold: cfg.Reporting.LowStockThreshold,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reporting context", err)
		os.Exit(1)
	}
	defer reportingCtx.Close()

	adminService, err := admin.NewService(admin.ServiceParams{
		Products:   productRepo,
		Users:      userRepo,
		Orders:     statsRepo,
		StockCheck: reporting.NewLowStockJob(reportingCtx),
		Report:     reporting.NewWeeklyReportJob(reportingCtx),
		Location:   loc,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Auth:     authService,
			Products: productService,
			Cart:     cartService,
			Orders:   ordersService,
			Payments: paymentsService,
			Webhooks: webhookService,
			Admin:    adminService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-signalCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/workoutbrothers/storefront-backend/internal/cron"
	"github.com/workoutbrothers/storefront-backend/internal/notifications"
	"github.com/workoutbrothers/storefront-backend/internal/orders"
	product "github.com/workoutbrothers/storefront-backend/internal/products"
	"github.com/workoutbrothers/storefront-backend/internal/reporting"
	"github.com/workoutbrothers/storefront-backend/internal/users"
	"github.com/workoutbrothers/storefront-backend/pkg/config"
	"github.com/workoutbrothers/storefront-backend/pkg/db"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/metrics"
	"github.com/workoutbrothers/storefront-backend/pkg/migrate"
	"github.com/workoutbrothers/storefront-backend/pkg/outbox"
	"github.com/workoutbrothers/storefront-backend/pkg/redis"
)

const outboxRetentionHour = 3

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	storeMetrics := metrics.NewStoreMetrics(prometheus.DefaultRegisterer)

	outboxRepo := outbox.NewRepository(dbClient.DB())
	requester, err := notifications.NewRequester(dbClient, outbox.NewService(outboxRepo, logg), cfg.Email.AdminAddress)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification requester", err)
		os.Exit(1)
	}

	// The reporting context owns both connections and closes them on shutdown.
	reportingCtx, err := reporting.NewContext(reporting.ContextParams{
		Products:          product.NewRepository(dbClient.DB()),
		Orders:            orders.NewStatsRepository(dbClient.DB()),
		Users:             users.NewRepository(dbClient.DB()),
		Notifications:     requester,
		Metrics:           storeMetrics,
		Logger:            logg,
		Location:          loc,
		LowStockThreshold: cfg.Reporting.LowStockThreshold,
		Closers:           []func() error{dbClient.Close, redisClient.Close},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reporting context", err)
		os.Exit(1)
	}
	defer func() {
		if err := reportingCtx.Close(); err != nil {
			logg.Error(context.Background(), "error closing reporting context", err)
		}
	}()

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Retention:  cfg.Outbox.Retention,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	reporting.NewJobs(reportingCtx).Register(registry, cfg.Reporting)
	registry.Register(retentionJob, cron.Daily{Hour: outboxRetentionHour})

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+envOrLocal(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Slots:    redisClient,
		Metrics:  cronMetrics,
		Interval: cfg.Reporting.TickInterval,
		Location: loc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"timezone":    loc.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func envOrLocal(env string) string {
	if env == "" {
		return "local"
	}
	return env
}

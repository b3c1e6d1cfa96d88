package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	cartsvc "github.com/EmreUYGUNX/lumi-commerce/internal/cart"
	"github.com/EmreUYGUNX/lumi-commerce/internal/catalog"
	"github.com/EmreUYGUNX/lumi-commerce/internal/cron"
	"github.com/EmreUYGUNX/lumi-commerce/internal/notifications"
	"github.com/EmreUYGUNX/lumi-commerce/internal/users"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/cache"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/config"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/db"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/logger"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/metrics"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/migrate"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/outbox"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/redis"
)

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

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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

	gormDB := dbClient.DB()
	outboxRepo := outbox.NewRepository(gormDB)
	viewCache := cache.NewCartViewCache(redisClient, cfg.Cart.ViewCacheTTL, logg)

	cartService, err := cartsvc.NewService(
		cartsvc.NewRepository(gormDB),
		catalog.NewRepository(gormDB),
		dbClient,
		outbox.NewService(outboxRepo, logg),
		viewCache,
		cfg.Cart,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	sweepJob, err := cron.NewCartSweepJob(cron.CartSweepJobParams{
		Logger:   logg,
		Carts:    cartService,
		Users:    users.NewRepository(gormDB),
		Notifier: notifications.NewLogNotifier(logg),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart sweep job", err)
		os.Exit(1)
	}

	dispatchJob, err := cron.NewOutboxDispatchJob(cron.OutboxDispatchJobParams{
		Logger:     logg,
		Repository: outboxRepo,
		Sink:       outbox.NewLogSink(logg),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox dispatch job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outboxRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob, dispatchJob, retentionJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cart.SweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

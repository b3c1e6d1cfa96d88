package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/EmreUYGUNX/lumi-commerce/api/routes"
	cartsvc "github.com/EmreUYGUNX/lumi-commerce/internal/cart"
	"github.com/EmreUYGUNX/lumi-commerce/internal/catalog"
	"github.com/EmreUYGUNX/lumi-commerce/internal/inventory"
	"github.com/EmreUYGUNX/lumi-commerce/internal/notifications"
	orderssvc "github.com/EmreUYGUNX/lumi-commerce/internal/orders"
	"github.com/EmreUYGUNX/lumi-commerce/internal/payments"
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

const shutdownTimeout = 15 * time.Second

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
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	viewCache := cache.NewCartViewCache(redisClient, cfg.Cart.ViewCacheTTL, logg)
	catalogRepo := catalog.NewRepository(gormDB)

	cartService, err := cartsvc.NewService(
		cartsvc.NewRepository(gormDB),
		catalogRepo,
		dbClient,
		outboxService,
		viewCache,
		cfg.Cart,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	var gateway payments.Gateway = payments.NewNoopGateway()
	if cfg.Square.Enabled() {
		gateway, err = payments.NewSquareGateway(cfg.Square, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create square gateway", err)
			os.Exit(1)
		}
	}

	registry := prometheus.NewRegistry()
	usersRepo := users.NewRepository(gormDB)
	orderService, err := orderssvc.NewService(orderssvc.ServiceParams{
		Repo:      orderssvc.NewRepository(gormDB),
		Carts:     cartsvc.NewRepository(gormDB),
		Catalog:   catalogRepo,
		Guard:     inventory.NewGuard(),
		Gateway:   gateway,
		Tx:        dbClient,
		Outbox:    outboxService,
		CartCache: viewCache,
		Addresses: usersRepo,
		Users:     usersRepo,
		Notifier:  notifications.NewLogNotifier(logg),
		Metrics:   metrics.NewCommerceMetrics(registry),
		Config:    cfg.Orders,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			CartService:  cartService,
			OrderService: orderService,
			Metrics:      registry,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		logg.Info(ctx, "shutting down api server")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			logg.Error(ctx, "error during server shutdown", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

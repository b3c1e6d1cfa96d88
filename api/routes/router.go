package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/EmreUYGUNX/lumi-commerce/api/controllers"
	cartcontrollers "github.com/EmreUYGUNX/lumi-commerce/api/controllers/cart"
	ordercontrollers "github.com/EmreUYGUNX/lumi-commerce/api/controllers/orders"
	"github.com/EmreUYGUNX/lumi-commerce/api/middleware"
	"github.com/EmreUYGUNX/lumi-commerce/internal/cart"
	"github.com/EmreUYGUNX/lumi-commerce/internal/orders"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/config"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/db"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/logger"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/redis"
)

// RouterParams collect the dependencies the HTTP surface needs.
type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *redis.Client
	CartService  cart.Service
	OrderService orders.Service
	Metrics      prometheus.Gatherer
}

// NewRouter wires middleware, health checks, and the versioned API routes.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Metrics, promhttp.HandlerOpts{}))
	}

	// Cart routes accept either an authenticated user or a guest session.
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Get("/", cartcontrollers.Fetch(params.CartService, logg))
		r.Delete("/", cartcontrollers.Clear(params.CartService, logg))
		r.Post("/items", cartcontrollers.AddItem(params.CartService, logg))
		r.Patch("/items/{itemID}", cartcontrollers.UpdateItem(params.CartService, logg))
		r.Delete("/items/{itemID}", cartcontrollers.RemoveItem(params.CartService, logg))
		r.Get("/validate", cartcontrollers.Validate(params.CartService, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).Post("/merge", cartcontrollers.Merge(params.CartService, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Get("/track/{reference}", ordercontrollers.Track(params.OrderService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Post("/", ordercontrollers.Create(params.OrderService, logg))
			r.Get("/", ordercontrollers.List(params.OrderService, logg))
			r.Get("/{orderID}", ordercontrollers.Get(params.OrderService, logg))
			r.Post("/{orderID}/cancel", ordercontrollers.Cancel(params.OrderService, logg))
		})
	})

	r.Route("/api/admin/v1/orders", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.RequireRole("admin", logg),
		)
		r.Patch("/{orderID}/status", ordercontrollers.UpdateStatus(params.OrderService, logg))
		r.Post("/{orderID}/refund", ordercontrollers.Refund(params.OrderService, logg))
		r.Post("/{orderID}/notes", ordercontrollers.AddNote(params.OrderService, logg))
	})

	return r
}

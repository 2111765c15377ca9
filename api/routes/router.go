package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/printforge/printforge-backend/api/controllers"
	"github.com/printforge/printforge-backend/api/middleware"
	"github.com/printforge/printforge-backend/internal/auth"
	"github.com/printforge/printforge-backend/internal/customers"
	"github.com/printforge/printforge-backend/internal/dashboard"
	"github.com/printforge/printforge-backend/internal/filaments"
	"github.com/printforge/printforge-backend/internal/machines"
	"github.com/printforge/printforge-backend/internal/orders"
	"github.com/printforge/printforge-backend/internal/quotes"
	"github.com/printforge/printforge-backend/internal/settings"
	"github.com/printforge/printforge-backend/pkg/auth/session"
	"github.com/printforge/printforge-backend/pkg/config"
	"github.com/printforge/printforge-backend/pkg/db"
	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/metrics"
	"github.com/printforge/printforge-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Services bundles the domain services the router exposes.
type Services struct {
	Auth      auth.Service
	Customers customers.Service
	Machines  machines.Service
	Filaments filaments.Service
	Quotes    quotes.Service
	Orders    orders.Service
	Dashboard dashboard.Service
	Settings  settings.Service
}

// NewRouter assembles the HTTP surface of the workshop backend.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	sessions sessionManager,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	httpMetrics := metrics.NewHTTPMetrics(registry)

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(svcs.Customers, logg))
			r.Post("/", controllers.CustomerCreate(svcs.Customers, logg))
			r.Get("/{customerId}", controllers.CustomerDetail(svcs.Customers, logg))
			r.Put("/{customerId}", controllers.CustomerUpdate(svcs.Customers, logg))
			r.Delete("/{customerId}", controllers.CustomerDelete(svcs.Customers, logg))
		})

		r.Route("/machines", func(r chi.Router) {
			r.Get("/", controllers.MachineList(svcs.Machines, logg))
			r.Post("/", controllers.MachineCreate(svcs.Machines, logg))
			r.Get("/{machineId}", controllers.MachineDetail(svcs.Machines, logg))
			r.Put("/{machineId}", controllers.MachineUpdate(svcs.Machines, logg))
			r.Delete("/{machineId}", controllers.MachineDelete(svcs.Machines, logg))
		})

		r.Route("/filaments/rolls", func(r chi.Router) {
			r.Get("/", controllers.FilamentList(svcs.Filaments, logg))
			r.Post("/", controllers.FilamentCreate(svcs.Filaments, logg))
			r.Get("/{filamentId}", controllers.FilamentDetail(svcs.Filaments, logg))
			r.Put("/{filamentId}", controllers.FilamentUpdate(svcs.Filaments, logg))
			r.Delete("/{filamentId}", controllers.FilamentDelete(svcs.Filaments, logg))
			r.Get("/{filamentId}/movements", controllers.FilamentMovements(svcs.Filaments, logg))
			r.Post("/{filamentId}/adjust", controllers.FilamentAdjust(svcs.Filaments, logg))
		})

		r.Route("/quotes", func(r chi.Router) {
			r.Get("/", controllers.QuoteList(svcs.Quotes, logg))
			r.Post("/", controllers.QuoteCreate(svcs.Quotes, logg))
			r.Get("/{quoteId}", controllers.QuoteDetail(svcs.Quotes, logg))
			r.Put("/{quoteId}", controllers.QuoteUpdate(svcs.Quotes, logg))
			r.Delete("/{quoteId}", controllers.QuoteDelete(svcs.Quotes, logg))
			r.Post("/{quoteId}/recalculate", controllers.QuoteRecalculate(svcs.Quotes, logg))
			r.Post("/{quoteId}/status", controllers.QuoteStatus(svcs.Quotes, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Post("/from-quote/{quoteId}", controllers.OrderFromQuote(svcs.Orders, logg))
			r.Post("/{orderId}/status", controllers.OrderStatus(svcs.Orders, logg))
		})

		r.Get("/dashboard/summary", controllers.DashboardSummary(svcs.Dashboard, logg))

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.SettingsGet(svcs.Settings, logg))
			r.Put("/", controllers.SettingsUpdate(svcs.Settings, logg))
		})
	})

	return r
}

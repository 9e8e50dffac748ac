package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopflow-app/shopflow-backend/api/controllers"
	"github.com/shopflow-app/shopflow-backend/api/middleware"
	"github.com/shopflow-app/shopflow-backend/internal/customers"
	"github.com/shopflow-app/shopflow-backend/internal/estimates"
	"github.com/shopflow-app/shopflow-backend/internal/invoices"
	"github.com/shopflow-app/shopflow-backend/internal/labor"
	"github.com/shopflow-app/shopflow-backend/internal/parts"
	"github.com/shopflow-app/shopflow-backend/internal/settings"
	"github.com/shopflow-app/shopflow-backend/internal/units"
	"github.com/shopflow-app/shopflow-backend/pkg/config"
	"github.com/shopflow-app/shopflow-backend/pkg/db"
	"github.com/shopflow-app/shopflow-backend/pkg/logger"
	"github.com/shopflow-app/shopflow-backend/pkg/metrics"
	"github.com/shopflow-app/shopflow-backend/pkg/redis"
)

// Services bundles the wired domain services the router mounts.
type Services struct {
	Customers customers.Service
	Units     units.Service
	Parts     parts.Service
	Labor     labor.Service
	Estimates estimates.Service
	EstRepo   estimates.Repository
	Invoices  invoices.Service
	Settings  settings.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	httpMetrics := metrics.NewHTTPMetrics(registry)
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
	)

	publicPolicy := middleware.NewPublicRateLimitPolicy(
		"estimate",
		cfg.PublicRateLimit.Window,
		cfg.PublicRateLimit.IPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbClient, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// Customer-facing share links. Token in the path is the only credential.
	r.Route("/api/public/v1/estimates", func(r chi.Router) {
		r.Use(middleware.PublicRateLimit(publicPolicy, redisClient, logg))
		r.Get("/{token}", controllers.PublicEstimateShow(svcs.Estimates, logg))
		r.Post("/{token}/approve", controllers.PublicEstimateApprove(svcs.Estimates, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboard", controllers.Dashboard(svcs.EstRepo, svcs.Parts, svcs.Invoices, logg))

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomersList(svcs.Customers, logg))
			r.Post("/", controllers.CustomersCreate(svcs.Customers, logg))
			r.Get("/{customerId}", controllers.CustomersGet(svcs.Customers, logg))
			r.Patch("/{customerId}", controllers.CustomersUpdate(svcs.Customers, logg))
			r.Delete("/{customerId}", controllers.CustomersDelete(svcs.Customers, logg))
			r.Get("/{customerId}/units", controllers.CustomerUnitsList(svcs.Units, logg))
		})

		r.Route("/units", func(r chi.Router) {
			r.Post("/", controllers.UnitsCreate(svcs.Units, logg))
			r.Get("/{unitId}", controllers.UnitsGet(svcs.Units, logg))
			r.Patch("/{unitId}", controllers.UnitsUpdate(svcs.Units, logg))
			r.Delete("/{unitId}", controllers.UnitsDelete(svcs.Units, logg))
		})

		r.Route("/parts", func(r chi.Router) {
			r.Get("/", controllers.PartsList(svcs.Parts, logg))
			r.Post("/", controllers.PartsCreate(svcs.Parts, logg))
			r.Get("/low-stock", controllers.PartsLowStock(svcs.Parts, logg))
			r.Get("/{partId}", controllers.PartsGet(svcs.Parts, logg))
			r.Patch("/{partId}", controllers.PartsUpdate(svcs.Parts, logg))
			r.Delete("/{partId}", controllers.PartsDelete(svcs.Parts, logg))
		})

		r.Route("/labor-services", func(r chi.Router) {
			r.Get("/", controllers.LaborList(svcs.Labor, logg))
			r.Post("/", controllers.LaborCreate(svcs.Labor, logg))
			r.Get("/{laborId}", controllers.LaborGet(svcs.Labor, logg))
			r.Patch("/{laborId}", controllers.LaborUpdate(svcs.Labor, logg))
			r.Delete("/{laborId}", controllers.LaborDelete(svcs.Labor, logg))
		})

		r.Get("/catalog/search", controllers.CatalogSearch(svcs.Parts, svcs.Labor, logg))

		r.Route("/estimates", func(r chi.Router) {
			r.Get("/", controllers.EstimatesList(svcs.Estimates, logg))
			r.Post("/", controllers.EstimatesCreate(svcs.Estimates, logg))
			r.Get("/{estimateId}", controllers.EstimatesGet(svcs.Estimates, logg))
			r.Patch("/{estimateId}", controllers.EstimatesUpdate(svcs.Estimates, logg))
			r.Delete("/{estimateId}", controllers.EstimatesDelete(svcs.Estimates, logg))
			r.Post("/{estimateId}/send", controllers.EstimatesSend(svcs.Estimates, logg))
			r.Get("/{estimateId}/stock-warnings", controllers.EstimatesStockWarnings(svcs.Invoices, logg))
			r.Post("/{estimateId}/convert", controllers.EstimatesConvert(svcs.Invoices, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoicesList(svcs.Invoices, logg))
			r.Get("/{invoiceId}", controllers.InvoicesGet(svcs.Invoices, logg))
			r.Post("/{invoiceId}/notify", controllers.InvoicesNotify(svcs.Invoices, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.SettingsList(svcs.Settings, logg))
			r.Put("/", controllers.SettingsUpdate(svcs.Settings, logg))
		})
	})

	return r
}

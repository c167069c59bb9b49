package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// Services bundles the application services the routes call into.
type Services struct {
	Cart     *service.CartService
	Catalog  *service.CatalogService
	Checkout *service.CheckoutService
	Profile  *service.ProfileService
	Admin    *service.AdminService
}

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	ServiceName    string
	PprofCIDRs     []string
	CORS           middleware.CORSConfig
	RateLimitRPS   float64
	RateLimitBurst int
	SecureCookie   bool
	Tokens         middleware.TokenValidator
	// CatalogMaxAge is the public cache lifetime of catalog reads, in
	// seconds. Zero disables caching.
	CatalogMaxAge int
}

// NewRouter creates a chi router with all storefront routes registered. The
// rate limiter's janitor stops when ctx is cancelled.
func NewRouter(
	ctx context.Context,
	svc Services,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	cartHandler := NewCartHandler(svc.Cart, logger)
	catalogHandler := NewCatalogHandler(svc.Catalog, logger)
	checkoutHandler := NewCheckoutHandler(svc.Checkout, logger)
	accountHandler := NewAccountHandler(svc.Profile, logger)
	adminHandler := NewAdminHandler(svc.Admin, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORS))
		r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		r.Use(middleware.DeviceID(cfg.SecureCookie))
		r.Use(middleware.Identity(cfg.Tokens, logger))
		r.Use(middleware.RequestLogger(logger))
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			if cfg.CatalogMaxAge > 0 {
				r.Use(middleware.CacheControl(cfg.CatalogMaxAge))
			}
			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/categories", catalogHandler.Categories)
			r.Get("/products/{id}", catalogHandler.GetProduct)
			r.Get("/home", catalogHandler.Home)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{productId}", cartHandler.UpdateItemQuantity)
				r.Delete("/items/{productId}", cartHandler.RemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", checkoutHandler.Status)
				r.Post("/sessions", checkoutHandler.StartCheckout)
				r.Get("/sessions/{sessionId}", checkoutHandler.ConfirmSession)
			})

			r.Get("/me/role", accountHandler.Role)

			r.Route("/profile", func(r chi.Router) {
				r.Use(middleware.RequireAuthenticated)
				r.Get("/", accountHandler.GetProfile)
				r.Put("/", accountHandler.SaveProfile)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAuthenticated)
				r.Use(RequireAdmin(svc.Admin, logger))

				r.Post("/products", catalogHandler.CreateProduct)
				r.Put("/products/{id}", catalogHandler.UpdateProduct)
				r.Delete("/products/{id}", catalogHandler.DeleteProduct)

				r.Get("/users", adminHandler.ListUsers)
				r.Put("/users/{principal}/role", adminHandler.AssignRole)

				r.Get("/payment-config", adminHandler.GetPaymentConfig)
				r.Put("/payment-config", adminHandler.SetPaymentConfig)
			})
		})
	})

	return r
}

package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/dressrental/internal/domain"
	"github.com/utafrali/dressrental/internal/service"
	"github.com/utafrali/dressrental/pkg/health"
	"github.com/utafrali/dressrental/pkg/middleware"
)

const serviceName = "dressrental"

// Services groups the application services exposed over HTTP.
type Services struct {
	Users         *service.UserService
	Catalog       *service.CatalogService
	Wishlists     *service.WishlistService
	Rentals       *service.RentalService
	Subscriptions *service.SubscriptionService
}

// RouterConfig holds the HTTP concerns that vary by deployment.
type RouterConfig struct {
	CORS           middleware.CORSConfig
	RequestTimeout time.Duration
	// CatalogMaxAge is the Cache-Control max-age, in seconds, of anonymous
	// catalogue responses.
	CatalogMaxAge int
	PprofCIDRs    []string
	// RateLimiter guards the auth and notify-me endpoints. Nil disables it.
	RateLimiter *middleware.RateLimiter
}

// NewRouter creates a chi router with every storefront route registered.
func NewRouter(
	svc Services,
	tokenValidator middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	limited := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimiter != nil {
		limited = cfg.RateLimiter.Handler
	}

	authHandler := NewAuthHandler(svc.Users, logger)
	userHandler := NewUserHandler(svc.Users, logger)
	dressHandler := NewDressHandler(svc.Catalog, logger)
	wishlistHandler := NewWishlistHandler(svc.Wishlists, logger)
	rentalHandler := NewRentalHandler(svc.Rentals, logger)
	notifyHandler := NewNotifyHandler(svc.Subscriptions, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(limited)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.RefreshToken)
				r.Post("/logout", authHandler.Logout)
			})
			r.With(middleware.OptionalAuth(tokenValidator)).Get("/me", authHandler.Me)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Get("/me", userHandler.GetProfile)
			r.Put("/me", userHandler.UpdateProfile)
		})

		r.Route("/dresses", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.CacheControl(cfg.CatalogMaxAge))
				r.Get("/", dressHandler.List)
				r.Get("/featured", dressHandler.Featured)
				r.Get("/facets", dressHandler.Facets)
				r.Get("/slug/{slug}", dressHandler.GetBySlug)
				r.Get("/{id}", dressHandler.Get)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(tokenValidator))
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Post("/", dressHandler.Create)
				r.Put("/{id}", dressHandler.Update)
				r.Delete("/{id}", dressHandler.Delete)
			})
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Get("/", wishlistHandler.Get)
			r.Delete("/", wishlistHandler.Clear)
			r.Post("/items/{dressId}", wishlistHandler.AddItem)
			r.Delete("/items/{dressId}", wishlistHandler.RemoveItem)
		})

		r.Route("/rentals", func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Get("/", rentalHandler.List)
			r.Post("/", rentalHandler.Create)
			r.Post("/checkout", rentalHandler.Checkout)
			r.Get("/{id}", rentalHandler.Get)
			r.Put("/{id}/status", rentalHandler.UpdateStatus)
		})

		r.With(limited).Post("/notify", notifyHandler.Subscribe)
	})

	return r
}

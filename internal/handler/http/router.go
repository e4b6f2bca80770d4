package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/wishlist/internal/service"
	"github.com/utafrali/wishlist/pkg/health"
	"github.com/utafrali/wishlist/pkg/middleware"
)

// ServiceName labels metrics and spans produced by the router.
const ServiceName = "wishlist"

// RouterConfig holds the optional parts of the HTTP stack.
type RouterConfig struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
	PprofCIDRs     []string
	// RateLimiter is skipped when nil.
	RateLimiter *middleware.RateLimiter
}

// NewRouter creates a chi router with all wishlist routes registered.
func NewRouter(
	wishlistService *service.WishlistService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	wishlistHandler := NewWishlistHandler(wishlistService, logger)

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	}

	r.NotFound(wishlistHandler.NotFound)
	r.MethodNotAllowed(wishlistHandler.MethodNotAllowed)

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	// Wishlist API endpoints
	r.Route("/wishlist", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler)
		}
		r.Use(ContentTypeJSON)

		r.Post("/item", wishlistHandler.AddItem)

		r.Get("/{userId}", wishlistHandler.GetWishlist)
		r.Get("/{userId}/items", wishlistHandler.ListItems)
		r.Get("/{userId}/items/{itemId}", wishlistHandler.ContainsItem)
		r.Delete("/{userId}/items/{itemId}", wishlistHandler.RemoveItem)
	})

	return r
}

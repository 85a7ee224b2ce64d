package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iconidentify/vrok/internal/api/handler"
	mw "github.com/iconidentify/vrok/internal/api/middleware"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	APIKey          string
	RateLimit       int
	RateLimitWindow time.Duration
	RequestTimeout  time.Duration
}

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	extractHandler *handler.ExtractHandler,
	healthHandler *handler.HealthHandler,
	cfg RouterConfig,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath) // Normalize paths (e.g., //ready -> /ready)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(mw.Recovery(logger))
	r.Use(mw.CORS)

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/stats", healthHandler.Stats)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(mw.APIKeyAuth(cfg.APIKey))
		r.Use(mw.RateLimit(cfg.RateLimit, cfg.RateLimitWindow))
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		r.Post("/vrok", extractHandler.Extract)
	})

	return r
}

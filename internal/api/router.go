package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/intake/internal/api/middleware"
	"github.com/eldtechnologies/intake/internal/config"
	"github.com/eldtechnologies/intake/internal/handlers"
)

// NewRouter creates and configures the HTTP router. redisClient may be
// nil, in which case rate limiting and IP blocking are disabled.
func NewRouter(cfg *config.Config, logger zerolog.Logger, h *handlers.Handler, redisClient *redis.Client) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	// A maximal submission is ~1000 runes of message; percent-encoded
	// multibyte text can triple that, so the cap stays well clear of it.
	r.Use(middleware.MaxBodySize(64 * 1024))
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting, when Redis is available
	if redisClient != nil {
		limiter := middleware.NewRateLimiter(redisClient, logger, middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		})
		r.Use(limiter.Middleware)
	}

	admin := middleware.NewAdminAuth(cfg.AdminUser, cfg.AdminPasswordHash, cfg.IsDevelopment(), logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public form
	r.Get("/", h.ShowForm)
	r.With(middleware.RequireCSRF(logger)).Post("/", h.SubmitForm)

	r.Get("/health", h.Health)

	// Admin table
	r.Group(func(r chi.Router) {
		r.Use(admin.Require)
		r.Get("/submissions", h.Submissions)
	})

	// JSON API, callable cross-origin so the form can be embedded
	// elsewhere.
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           300,
		}))

		r.Post("/submissions", h.CreateSubmissionAPI)

		r.Group(func(r chi.Router) {
			r.Use(admin.Require)
			r.Get("/submissions", h.ListSubmissionsAPI)
			r.Get("/stats", h.Stats)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

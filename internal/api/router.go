package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"honeytrap/internal/api/handlers"
	apimiddleware "honeytrap/internal/api/middleware"
	"honeytrap/internal/config"
	"honeytrap/internal/domain/models"
	"honeytrap/internal/domain/services"
	"honeytrap/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config    config.Config
	handlers  *handlers.Handlers
	rateStore apimiddleware.RateLimitStore
	logger    *logger.Logger
}

// NewRouter creates a new Router instance. rateStore may be nil, in which
// case rate limiting is per process.
func NewRouter(cfg config.Config, h *handlers.Handlers, rateStore apimiddleware.RateLimitStore, log *logger.Logger) *Router {
	return &Router{
		config:    cfg,
		handlers:  h,
		rateStore: rateStore,
		logger:    log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	timeout := r.config.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(timeout))

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Rate limiting
	if r.config.RateLimit.Enabled {
		router.Use(apimiddleware.RateLimiter(r.rateStore, r.config.RateLimit, r.logger))
	}

	// Public routes
	router.Group(func(pub chi.Router) {
		pub.Get("/", r.handlers.Health.Root)
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)
	})

	// Honeypot turns never fail from the caller's point of view
	router.Group(func(turns chi.Router) {
		turns.Use(apimiddleware.SoftAPIKeyAuth(r.config.Auth.APIKey, r.logger))
		turns.Use(apimiddleware.FallbackRecoverer(models.NewAgentReply(services.TurnFailedReply), r.logger))

		turns.Post("/", r.handlers.Honeypot.Turn)
		turns.Post("/honeypot", r.handlers.Honeypot.Turn)
	})

	// API v1 routes (authenticated)
	router.Route("/api/v1", func(api chi.Router) {
		api.Use(apimiddleware.APIKeyAuth(r.config.Auth.APIKey))

		api.Post("/extract", r.handlers.Intelligence.Extract)
		api.Post("/merge", r.handlers.Intelligence.Merge)

		api.Route("/sessions/{id}", func(sessions chi.Router) {
			sessions.Get("/intelligence", r.handlers.Intelligence.SessionIntelligence)
			sessions.Get("/report", r.handlers.Intelligence.SessionReport)
		})
	})

	return router
}

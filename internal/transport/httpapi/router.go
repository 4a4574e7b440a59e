package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kislikjeka/userregistry/internal/transport/httpapi/handler"
	"github.com/kislikjeka/userregistry/internal/transport/httpapi/middleware"
	"github.com/kislikjeka/userregistry/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger         *logger.Logger
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	UserHandler    *handler.UserHandler
	HealthHandler  *handler.HealthHandler
	DocsHandler    *handler.DocsHandler
	// JWTMiddleware guards mutating user routes when set
	JWTMiddleware func(http.Handler) http.Handler
}

// NewRouter creates a new HTTP router
func NewRouter(cfg Config) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	// Compress sits outside Logger so the access log sees plain bodies
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	// Health check endpoints (no authentication required)
	r.Get("/health/live", handler.GetLiveness)
	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.GetHealth)
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
	}

	// API documentation (public)
	if cfg.DocsHandler != nil {
		r.Get("/docs", cfg.DocsHandler.GetOpenAPISpec)
		r.Get("/docs/info", cfg.DocsHandler.GetOpenAPIInfo)
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.UserHandler == nil {
			return
		}

		r.Route("/users", func(r chi.Router) {
			r.Get("/", cfg.UserHandler.ListUsers)
			r.Get("/{id}", cfg.UserHandler.GetUser)

			// Mutating routes (require JWT authentication when configured)
			r.Group(func(r chi.Router) {
				if cfg.JWTMiddleware != nil {
					r.Use(cfg.JWTMiddleware)
				}
				r.Post("/", cfg.UserHandler.CreateUser)
				r.Put("/{id}", cfg.UserHandler.UpdateUser)
				r.Delete("/{id}", cfg.UserHandler.DeleteUser)
			})
		})
	})

	return r
}

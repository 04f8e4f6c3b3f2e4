package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/unideal/unideal-server/internal/auth"
	"github.com/unideal/unideal-server/internal/catalog"
	"github.com/unideal/unideal-server/internal/config"
	"github.com/unideal/unideal-server/internal/httputil"
	"github.com/unideal/unideal-server/internal/logging"
	"github.com/unideal/unideal-server/internal/ratelimit"
	"github.com/unideal/unideal-server/internal/user"
	"github.com/unideal/unideal-server/internal/webhook"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	limiter *ratelimit.Limiter,
	policies ratelimit.Policies,
	authMiddleware *auth.Middleware,
	userHandler *user.Handler,
	webhookHandler *webhook.Handler,
	catalogHandler *catalog.Handler,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Health check - never rate limited
	r.Get("/health", handleHealth)

	// Provisioning webhooks - signature-authenticated, not bearer-token
	// authenticated, and exempt from admission control so redeliveries
	// are never dropped by the limiter
	r.Post("/api/webhooks/clerk", webhookHandler.HandleClerkWebhook)

	// User routes
	r.Route("/api/users", func(r chi.Router) {
		r.Use(limiter.Middleware(policies.General))

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Get("/me", userHandler.Me)
			r.Put("/me", userHandler.UpdateMe)
			r.Post("/onboarding", userHandler.Onboarding)
		})

		r.Get("/{id}", userHandler.PublicProfile)
	})

	// Catalog routes (public reads)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware(policies.General))

		r.Get("/api/categories", catalogHandler.ListCategories)
		r.Get("/api/colleges", catalogHandler.ListColleges)
		r.Get("/api/colleges/{slug}", catalogHandler.GetCollege)
	})

	return r
}

// handleHealth is a simple health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

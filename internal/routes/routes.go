package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BradenHooton/svatba/internal/auth"
	"github.com/BradenHooton/svatba/internal/handlers"
	middlewareCustom "github.com/BradenHooton/svatba/internal/middleware"
	pkghttp "github.com/BradenHooton/svatba/pkg/http"
)

// Handlers groups every HTTP handler the router serves.
type Handlers struct {
	Auth   *handlers.AuthHandler
	RSVP   *handlers.RSVPHandler
	Guests *handlers.GuestHandler
	Export *handlers.ExportHandler
	Health *handlers.HealthHandler
}

// Options carries the router-level settings taken from config.
type Options struct {
	Env                    string
	AllowedOrigins         []string
	LoginRequestsPerMinute int
	IPConfig               *pkghttp.IPConfig
	Sessions               auth.SessionVerifier
	Logger                 *slog.Logger
}

// NewRouter builds the chi router with the global middleware stack.
// middleware.RealIP is left out on purpose: client IPs are resolved by
// pkghttp.ExtractClientIP, which only trusts configured proxies.
func NewRouter(h Handlers, opts Options) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: opts.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(opts.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(opts.Logger, opts.IPConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/health", h.Health.Health)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Use(middlewareCustom.RequireJSON(opts.Logger))
		RegisterRoutes(r, h, opts)
	})

	return router
}

// RegisterRoutes registers all API routes under the given router
func RegisterRoutes(router chi.Router, h Handlers, opts Options) {
	loginLimit := middlewareCustom.RateLimitConfig{
		RequestsPerMinute: opts.LoginRequestsPerMinute,
		IPConfig:          opts.IPConfig,
	}

	// Public routes - no authentication required
	router.With(middlewareCustom.RateLimitByIP(loginLimit)).Post("/auth/login", h.Auth.Login)
	router.Get("/auth/logout", h.Auth.Logout)
	router.Post("/auth/logout", h.Auth.Logout)
	router.Get("/auth/session", h.Auth.Session)
	router.Post("/rsvp", h.RSVP.Submit)

	// Admin JSON API - 401 with a reason when the session is missing or stale
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin(opts.Sessions))

		r.Get("/admin/guests", h.Guests.List)
		r.Get("/admin/stats", h.Guests.Stats)
		r.Patch("/admin/guests/{id}", h.Guests.Update)
		r.Delete("/admin/guests/{id}", h.Guests.Delete)
		r.Post("/admin/guests/bulk", h.Guests.Bulk)
		r.Post("/admin/backup/restore", h.Export.Restore)
	})

	// Admin downloads are browser navigations, so failures redirect to login
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAdminRedirect(opts.Sessions))

		r.Get("/admin/export", h.Export.Export)
		r.Get("/admin/backup", h.Export.Backup)
	})
}

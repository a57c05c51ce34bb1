package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/portalapi/portal-api/internal/metrics"
	"github.com/portalapi/portal-api/internal/middleware"
	"github.com/portalapi/portal-api/internal/service"
)

// RouterConfig carries the dependencies of the HTTP surface.
type RouterConfig struct {
	DB      Database
	Auth    *service.AuthService
	Contact *service.ContactService
	Env     string

	// Limiter throttles register, login and send-message. Nil disables rate limiting.
	Limiter middleware.Limiter
	// Metrics enables request metrics and GET /metrics when set.
	Metrics *metrics.Registry
	Logger  *slog.Logger

	PingTimeout time.Duration
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	debug := cfg.Env == "development"
	ew := ErrorWriter{Debug: debug}

	authHandler := NewAuthHandler(cfg.Auth, ew)
	contactHandler := NewContactHandler(cfg.Contact, ew)
	healthHandler := NewHealthHandler(cfg.DB, cfg.Env, pingTimeout)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse("method not allowed"))
	})

	r.Get("/api/health", healthHandler.HandleHealth)
	r.Get("/api/test", healthHandler.HandleTest)

	ensureDB := middleware.EnsureDB(cfg.DB, debug)
	limited := []func(http.Handler) http.Handler{ensureDB}
	if cfg.Limiter != nil {
		limited = []func(http.Handler) http.Handler{middleware.RateLimit(cfg.Limiter), ensureDB}
	}

	r.With(limited...).Post("/api/auth/register", authHandler.HandleRegister)
	r.With(limited...).Post("/api/auth/login", authHandler.HandleLogin)
	r.With(ensureDB).Get("/api/auth/user", authHandler.HandleGetUser)
	r.With(ensureDB).Put("/api/auth/user", authHandler.HandleUpdateUser)

	r.With(limited...).Post("/api/contact/send-message", contactHandler.HandleSendMessage)
	r.With(middleware.JWTAuth(cfg.Auth), ensureDB).Get("/api/contact/messages", contactHandler.HandleListMessages)

	return r
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/portalapi/portal-api/internal/repository"
)

// Database is the connection manager as seen by the health check.
type Database interface {
	EnsureReady(ctx context.Context) (repository.Store, error)
	Invalidate(cause error)
}

// HealthHandler reports service and database status.
type HealthHandler struct {
	db          Database
	env         string
	pingTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Database, env string, pingTimeout time.Duration) *HealthHandler {
	return &HealthHandler{db: db, env: env, pingTimeout: pingTimeout}
}

// HandleHealth handles GET /api/health requests. A handle that no longer answers pings is
// invalidated so the next request reconnects.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.pingTimeout)
	defer cancel()

	store, err := h.db.EnsureReady(ctx)
	if err == nil {
		if err = store.Ping(ctx); err != nil {
			h.db.Invalidate(err)
		}
	}
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":      "error",
			"message":     "Database connection failed",
			"dbConnected": false,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"message":     "Server is running",
		"dbConnected": true,
	})
}

// HandleTest handles GET /api/test requests. It never touches the database.
func (h *HealthHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "API is working",
		"environment": h.env,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

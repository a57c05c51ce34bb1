package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/portalapi/portal-api/internal/repository"
)

// StoreProvider hands out a ready store, connecting on demand.
type StoreProvider interface {
	EnsureReady(ctx context.Context) (repository.Store, error)
}

// EnsureDB returns middleware that makes sure the database is reachable before the
// request reaches a store-backed handler. With debug set, the failure detail is
// included in the response.
func EnsureDB(p StoreProvider, debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := p.EnsureReady(r.Context()); err != nil {
				slog.WarnContext(r.Context(), "database unavailable", "path", r.URL.Path, "error", err)

				resp := map[string]any{
					"success": false,
					"message": "database connection failed, please try again",
				}
				if debug {
					resp["error"] = err.Error()
				}
				writeJSON(w, http.StatusServiceUnavailable, resp)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

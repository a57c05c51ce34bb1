package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/portalapi/portal-api/internal/dbconn"
	"github.com/portalapi/portal-api/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MB

// ErrorWriter maps service errors to HTTP responses. With Debug set, 5xx responses carry
// the raw error in an "error" field.
type ErrorWriter struct {
	Debug bool
}

// Write responds with the status and client-safe message for err.
func (ew ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "internal server error"
	switch {
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, dbconn.ErrUnavailable):
		status, msg = http.StatusServiceUnavailable, "database connection failed, please try again"
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	resp := errorResponse(msg)
	if ew.Debug && status >= http.StatusInternalServerError {
		resp["error"] = err.Error()
	}
	writeJSON(w, status, resp)
}

// decodeBody reads a JSON body of at most 1MB into v, answering 400/413 itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]any {
	return map[string]any{"success": false, "message": msg}
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/portalapi/portal-api/internal/model"
	"github.com/portalapi/portal-api/internal/service"
)

// ContactHandler handles HTTP requests for the contact form.
type ContactHandler struct {
	service *service.ContactService
	errors  ErrorWriter
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(svc *service.ContactService, ew ErrorWriter) *ContactHandler {
	return &ContactHandler{service: svc, errors: ew}
}

// HandleSendMessage handles POST /api/contact/send-message requests.
func (h *ContactHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req model.ContactRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := h.service.Send(r.Context(), req); err != nil {
		h.errors.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Your message has been sent successfully!",
	})
}

// HandleListMessages handles GET /api/contact/messages requests.
func (h *ContactHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid limit"))
		return
	}
	offset, ok := queryInt(r, "offset")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid offset"))
		return
	}

	messages, err := h.service.List(r.Context(), model.ContactListOptions{Limit: limit, Offset: offset})
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// queryInt parses an optional non-negative integer query parameter; absent means 0.
func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

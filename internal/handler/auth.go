package handler

import (
	"net/http"

	"github.com/portalapi/portal-api/internal/middleware"
	"github.com/portalapi/portal-api/internal/model"
	"github.com/portalapi/portal-api/internal/service"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service *service.AuthService
	errors  ErrorWriter
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, ew ErrorWriter) *AuthHandler {
	return &AuthHandler{service: svc, errors: ew}
}

// HandleRegister handles POST /api/auth/register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleLogin handles POST /api/auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleGetUser handles GET /api/auth/user requests.
func (h *AuthHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetProfile(r.Context(), middleware.BearerToken(r))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdateUser handles PUT /api/auth/user requests.
func (h *AuthHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if _, err := h.service.VerifyToken(token); err != nil {
		h.errors.Write(w, r, err)
		return
	}

	var req model.UpdateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.UpdateProfile(r.Context(), token, req)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

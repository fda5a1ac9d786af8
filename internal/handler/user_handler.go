package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/service"
)

var validate = validator.New()

// UserHandler exposes account management over HTTP.
type UserHandler struct {
	users  *service.UserService
	logger zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.With().Str("handler", "user").Logger(),
	}
}

type registerRequest struct {
	AuthUID     string `json:"auth_uid" validate:"required,max=255"`
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"max=255"`
}

// Register handles POST /api/users.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	out, err := h.users.Register(r.Context(), service.RegisterInput{
		AuthUID:     req.AuthUID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		SourceAddr:  r.RemoteAddr,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, out.User)
}

// Get handles GET /api/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, user)
}

// GetByAuthUID handles GET /api/users/uid/{uid}.
func (h *UserHandler) GetByAuthUID(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if uid == "" {
		writeError(w, r, http.StatusBadRequest, "missing uid")
		return
	}

	user, err := h.users.GetByAuthUID(r.Context(), uid)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, user)
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, users)
}

type updateUserRequest struct {
	DisplayName *string    `json:"display_name" validate:"omitempty,max=255"`
	Disabled    *bool      `json:"disabled"`
	DisabledBy  string     `json:"disabled_by" validate:"max=255"`
	Reason      string     `json:"disable_reason" validate:"max=1024"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// Update handles PUT /api/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	user, err := h.users.Update(r.Context(), id, service.UpdateUserInput{
		DisplayName: req.DisplayName,
		Disabled:    req.Disabled,
		Actor:       req.DisabledBy,
		Reason:      req.Reason,
		LastLoginAt: req.LastLoginAt,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, user)
}

// The actor is optional. A disable issued without one is still recorded,
// with an empty disabled_by.
type disableRequest struct {
	DisabledBy string `json:"disabled_by" validate:"max=255"`
	Reason     string `json:"reason" validate:"max=1024"`
}

// Disable handles PUT /api/users/{id}/disable.
func (h *UserHandler) Disable(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req disableRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	user, err := h.users.Disable(r.Context(), id, req.DisabledBy, req.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, user)
}

// Enable handles PUT /api/users/{id}/enable.
func (h *UserHandler) Enable(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	user, err := h.users.Enable(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]string{"message": "User removed"})
}

func (h *UserHandler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid user ID")
		return 0, false
	}
	return id, true
}

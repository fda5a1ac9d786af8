package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/service"
)

// CategoryHandler exposes category management over HTTP.
type CategoryHandler struct {
	categories *service.CategoryService
	logger     zerolog.Logger
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categories *service.CategoryService, logger zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		logger:     logger.With().Str("handler", "category").Logger(),
	}
}

type createCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

// Create handles POST /api/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	category, err := h.categories.Create(r.Context(), service.CreateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, category)
}

// Get handles GET /api/categories/{id}.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	category, err := h.categories.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, category)
}

// GetBySlug handles GET /api/categories/slug/{slug}.
func (h *CategoryHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		writeError(w, r, http.StatusBadRequest, "missing slug")
		return
	}

	category, err := h.categories.GetBySlug(r.Context(), slug)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, category)
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, categories)
}

type updateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

// Update handles PUT /api/categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	var req updateCategoryRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	category, err := h.categories.Update(r.Context(), id, service.UpdateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, category)
}

// Delete handles DELETE /api/categories/{id}.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CategoryHandler) categoryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid category ID")
		return 0, false
	}
	return id, true
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/service"
)

// ProductHandler exposes product management over HTTP.
type ProductHandler struct {
	products *service.ProductService
	logger   zerolog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products *service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger.With().Str("handler", "product").Logger(),
	}
}

type createProductRequest struct {
	Name             string            `json:"name" validate:"required,max=255"`
	Category         string            `json:"category" validate:"required,max=255"`
	Images           []string          `json:"images"`
	Price            float64           `json:"price" validate:"gte=0"`
	Rating           float64           `json:"rating" validate:"gte=0,lte=5"`
	Badge            string            `json:"badge"`
	ShortDescription string            `json:"short_description"`
	LongDescription  string            `json:"long_description"`
	Specifications   map[string]string `json:"specifications"`
	Features         []string          `json:"features"`
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	product, err := h.products.Create(r.Context(), service.CreateProductInput{
		Name:             req.Name,
		Category:         req.Category,
		Images:           req.Images,
		Price:            req.Price,
		Rating:           req.Rating,
		Badge:            req.Badge,
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		Specifications:   req.Specifications,
		Features:         req.Features,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, product)
}

// Get handles GET /api/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, product)
}

// List handles GET /api/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, products)
}

type updateProductRequest struct {
	Name             *string           `json:"name" validate:"omitempty,min=1,max=255"`
	Category         *string           `json:"category" validate:"omitempty,max=255"`
	Images           []string          `json:"images"`
	Price            *float64          `json:"price" validate:"omitempty,gte=0"`
	Rating           *float64          `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Badge            *string           `json:"badge"`
	ShortDescription *string           `json:"short_description"`
	LongDescription  *string           `json:"long_description"`
	Specifications   map[string]string `json:"specifications"`
	Features         []string          `json:"features"`
}

// Update handles PUT /api/products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req updateProductRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	product, err := h.products.Update(r.Context(), id, service.UpdateProductInput{
		Name:             req.Name,
		Category:         req.Category,
		Images:           req.Images,
		Price:            req.Price,
		Rating:           req.Rating,
		Badge:            req.Badge,
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		Specifications:   req.Specifications,
		Features:         req.Features,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, product)
}

// Delete handles DELETE /api/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid product ID")
		return 0, false
	}
	return id, true
}

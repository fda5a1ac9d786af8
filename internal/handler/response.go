// Package handler provides HTTP handlers for the catalog API.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/service"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var rateErr *domain.RateLimitError
	if errors.As(err, &rateErr) {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rateErr.RetryAfter.Round(time.Second).Seconds())))
		writeError(w, r, http.StatusTooManyRequests, rateErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, r, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrUserAlreadyExists),
		errors.Is(err, domain.ErrCategoryAlreadyExists):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUserDisabled):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrUploadMissingFile):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUploadFailed):
		writeError(w, r, http.StatusInternalServerError, err.Error())
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidAuthUID),
		errors.Is(err, service.ErrInvalidDisplayName),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidPrice):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		// Internal details stay in the logs.
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

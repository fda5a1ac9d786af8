package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/metrics"
	"github.com/ventra/catalog-server/internal/repository"
)

// HealthHandler reports liveness and dependency health.
type HealthHandler struct {
	db     repository.DatabaseHealth
	logger zerolog.Logger
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db repository.DatabaseHealth, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger.With().Str("handler", "health").Logger(),
	}
}

// Healthz handles GET /healthz. The database is pinged with a short
// deadline; a failing dependency flips the status to 503.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Error().Err(err).Msg("database health check failed")
			checks["database"] = "unhealthy"
			healthy = false
		} else {
			checks["database"] = "healthy"
		}
		metrics.SetDependencyHealth("database", checks["database"] == "healthy")
	}

	status := http.StatusOK
	body := healthResponse{Status: "healthy", Checks: checks}
	if !healthy {
		status = http.StatusServiceUnavailable
		body.Status = "unhealthy"
	}

	respondJSON(w, r, status, body)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/config"
)

// RouterConfig contains the handlers and settings the router wires up.
type RouterConfig struct {
	UserHandler     *UserHandler
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	UploadHandler   *UploadHandler
	HealthHandler   *HealthHandler

	RateLimit      config.RateLimitConfig
	MetricsEnabled bool
	Logger         zerolog.Logger
}

// NewRouter builds the catalog API router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(AccessLog(cfg.Logger))
	if cfg.MetricsEnabled {
		r.Use(Metrics())
	}

	if cfg.RateLimit.Enabled {
		r.Use(httprate.LimitByIP(cfg.RateLimit.RequestLimit, cfg.RateLimit.WindowLength))
	}

	r.Get("/healthz", cfg.HealthHandler.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", cfg.UserHandler.Register)
			r.Get("/", cfg.UserHandler.List)
			r.Get("/uid/{uid}", cfg.UserHandler.GetByAuthUID)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.UserHandler.Get)
				r.Put("/", cfg.UserHandler.Update)
				r.Delete("/", cfg.UserHandler.Delete)
				r.Put("/disable", cfg.UserHandler.Disable)
				r.Put("/enable", cfg.UserHandler.Enable)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", cfg.CategoryHandler.Create)
			r.Get("/", cfg.CategoryHandler.List)
			r.Get("/slug/{slug}", cfg.CategoryHandler.GetBySlug)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.CategoryHandler.Get)
				r.Put("/", cfg.CategoryHandler.Update)
				r.Delete("/", cfg.CategoryHandler.Delete)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", cfg.ProductHandler.Create)
			r.Get("/", cfg.ProductHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.ProductHandler.Get)
				r.Put("/", cfg.ProductHandler.Update)
				r.Delete("/", cfg.ProductHandler.Delete)
			})
		})

		r.Post("/upload", cfg.UploadHandler.Upload)
	})

	return r
}

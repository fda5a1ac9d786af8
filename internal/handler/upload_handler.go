package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/service"
)

// UploadHandler accepts multipart image uploads for the catalog.
type UploadHandler struct {
	media         *service.MediaService
	maxUploadSize int64
	logger        zerolog.Logger
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(media *service.MediaService, maxUploadSize int64, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		media:         media,
		maxUploadSize: maxUploadSize,
		logger:        logger.With().Str("handler", "upload").Logger(),
	}
}

// Upload handles POST /api/upload. The request carries a multipart form
// with the file under the "image" field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, r, domain.ErrUploadMissingFile)
		return
	}
	defer file.Close()

	out, err := h.media.Upload(r.Context(), service.UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, out)
}

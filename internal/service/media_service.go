package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/media"
	"github.com/ventra/catalog-server/internal/metrics"
)

// MediaService stores uploaded catalog images in the media store under
// randomized keys, so uploads never collide and original filenames are
// never exposed.
type MediaService struct {
	store     media.Store
	keyPrefix string
	logger    zerolog.Logger
}

// NewMediaService creates a new MediaService.
func NewMediaService(store media.Store, keyPrefix string, logger zerolog.Logger) *MediaService {
	return &MediaService{
		store:     store,
		keyPrefix: keyPrefix,
		logger:    logger.With().Str("service", "media").Logger(),
	}
}

// UploadInput contains one uploaded file.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadOutput contains the stored object's public URL and key.
type UploadOutput struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Upload stores the file under a fresh random key, keeping only the
// original filename's extension.
func (s *MediaService) Upload(ctx context.Context, input UploadInput) (*UploadOutput, error) {
	if input.Body == nil {
		return nil, domain.ErrUploadMissingFile
	}

	ext := strings.ToLower(path.Ext(input.Filename))
	key := s.keyPrefix + uuid.NewString() + ext

	if err := s.store.Put(ctx, key, input.Body, input.ContentType, input.Size); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to store upload")
		metrics.RecordMediaUpload("error")
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	url := s.store.PublicURL(key)
	s.logger.Info().Str("key", key).Int64("size", input.Size).Msg("media uploaded")
	metrics.RecordMediaUpload("ok")

	return &UploadOutput{URL: url, Key: key}, nil
}

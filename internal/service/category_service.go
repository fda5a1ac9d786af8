package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/lock"
	"github.com/ventra/catalog-server/internal/repository"
)

// categoryCacheTTL bounds staleness of cached category reads. Writes
// invalidate eagerly.
const categoryCacheTTL = 10 * time.Minute

const (
	categoryLockTTL        = 5 * time.Second
	categoryLockRetries    = 5
	categoryLockRetryDelay = 50 * time.Millisecond
)

// CategoryService handles catalog category operations. Category names map
// to URL slugs; slug uniqueness is the conflict rule for creates and
// renames.
type CategoryService struct {
	categoryRepo repository.CategoryRepository
	cache        repository.Cache
	locker       lock.Locker
	clock        Clock
	logger       zerolog.Logger
}

// NewCategoryService creates a new CategoryService. Cache may be nil.
func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	cache repository.Cache,
	locker lock.Locker,
	clock Clock,
	logger zerolog.Logger,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		cache:        cache,
		locker:       locker,
		clock:        clock,
		logger:       logger.With().Str("service", "category").Logger(),
	}
}

// CreateCategoryInput contains the data needed to create a category.
type CreateCategoryInput struct {
	Name        string
	Description string
}

// Create creates a new category. The slug is derived from the name; a
// name whose slug collides with an existing category is rejected. The
// check-then-insert runs under a per-slug lock so two concurrent creates
// of the same name cannot both pass the check.
func (s *CategoryService) Create(ctx context.Context, input CreateCategoryInput) (*domain.Category, error) {
	if input.Name == "" || len(input.Name) > 255 {
		return nil, ErrInvalidName
	}

	category := domain.NewCategory(input.Name, input.Description, s.clock.Now())

	key := lock.Keys.CategoryWrite(category.Slug)
	acquired, err := s.locker.AcquireWithRetry(ctx, key, categoryLockTTL, categoryLockRetries, categoryLockRetryDelay)
	if err != nil || !acquired {
		s.logger.Error().Err(err).Str("slug", category.Slug).Msg("failed to acquire category lock")
		return nil, fmt.Errorf("%w: category write contention", ErrInternalError)
	}
	defer s.locker.Release(ctx, key)

	exists, err := s.categoryRepo.ExistsBySlug(ctx, category.Slug)
	if err != nil {
		s.logger.Error().Err(err).Str("slug", category.Slug).Msg("failed to check slug existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrCategoryAlreadyExists, category.Slug)
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, domain.ErrCategoryAlreadyExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("slug", category.Slug).Msg("failed to create category")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.invalidateList(ctx)
	s.logger.Info().Int64("category_id", category.ID).Str("slug", category.Slug).Msg("category created")

	return category, nil
}

// GetByID retrieves a category by ID.
func (s *CategoryService) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrCategoryNotFound
		}
		s.logger.Error().Err(err).Int64("category_id", id).Msg("failed to get category")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return category, nil
}

// GetBySlug retrieves a category by slug, consulting the cache first.
func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	key := repository.CacheKey{}.Category(slug)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var category domain.Category
			if err := json.Unmarshal(data, &category); err == nil {
				return &category, nil
			}
		}
	}

	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrCategoryNotFound
		}
		s.logger.Error().Err(err).Str("slug", slug).Msg("failed to get category by slug")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(category); err == nil {
			if err := s.cache.Set(ctx, key, data, categoryCacheTTL); err != nil {
				s.logger.Warn().Err(err).Str("slug", slug).Msg("failed to cache category")
			}
		}
	}

	return category, nil
}

// UpdateCategoryInput contains the optional fields of a category update.
// Nil fields are left untouched.
type UpdateCategoryInput struct {
	Name        *string
	Description *string
}

// Update applies a category update. Renaming re-derives the slug and is
// subject to the same uniqueness rule as Create.
func (s *CategoryService) Update(ctx context.Context, id int64, input UpdateCategoryInput) (*domain.Category, error) {
	category, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldSlug := category.Slug

	if input.Name != nil {
		if *input.Name == "" || len(*input.Name) > 255 {
			return nil, ErrInvalidName
		}
		category.Name = *input.Name
		category.Slug = domain.Slugify(*input.Name)
	}
	if input.Description != nil {
		category.Description = *input.Description
	}
	category.UpdatedAt = s.clock.Now()

	if category.Slug != oldSlug {
		exists, err := s.categoryRepo.ExistsBySlug(ctx, category.Slug)
		if err != nil {
			s.logger.Error().Err(err).Str("slug", category.Slug).Msg("failed to check slug existence")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", domain.ErrCategoryAlreadyExists, category.Slug)
		}
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.ErrCategoryNotFound
		case errors.Is(err, domain.ErrCategoryAlreadyExists):
			return nil, err
		}
		s.logger.Error().Err(err).Int64("category_id", id).Msg("failed to update category")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.invalidateList(ctx)
	s.invalidateSlug(ctx, oldSlug)
	s.invalidateSlug(ctx, category.Slug)

	return category, nil
}

// Delete removes a category.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	category, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrCategoryNotFound
		}
		s.logger.Error().Err(err).Int64("category_id", id).Msg("failed to delete category")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.invalidateList(ctx)
	s.invalidateSlug(ctx, category.Slug)
	s.logger.Info().Int64("category_id", id).Str("slug", category.Slug).Msg("category deleted")

	return nil
}

// List returns all categories ordered by name, consulting the cache first.
func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	key := repository.CacheKey{}.CategoryList()

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var categories []*domain.Category
			if err := json.Unmarshal(data, &categories); err == nil {
				return categories, nil
			}
		}
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(categories); err == nil {
			if err := s.cache.Set(ctx, key, data, categoryCacheTTL); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache category list")
			}
		}
	}

	return categories, nil
}

func (s *CategoryService) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, repository.CacheKey{}.CategoryList()); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate category list cache")
	}
}

func (s *CategoryService) invalidateSlug(ctx context.Context, slug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, repository.CacheKey{}.Category(slug)); err != nil {
		s.logger.Warn().Err(err).Str("slug", slug).Msg("failed to invalidate category cache")
	}
}

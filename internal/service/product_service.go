package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/repository"
)

const productCacheTTL = 5 * time.Minute

// ProductService handles catalog product operations.
type ProductService struct {
	productRepo repository.ProductRepository
	cache       repository.Cache
	clock       Clock
	logger      zerolog.Logger
}

// NewProductService creates a new ProductService. Cache may be nil.
func NewProductService(
	productRepo repository.ProductRepository,
	cache repository.Cache,
	clock Clock,
	logger zerolog.Logger,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		cache:       cache,
		clock:       clock,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// CreateProductInput contains the data needed to create a product.
type CreateProductInput struct {
	Name             string
	Category         string
	Images           []string
	Price            float64
	Rating           float64
	Badge            string
	ShortDescription string
	LongDescription  string
	Specifications   map[string]string
	Features         []string
}

// Create creates a new product.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Name == "" || len(input.Name) > 255 {
		return nil, ErrInvalidName
	}
	if input.Price < 0 {
		return nil, ErrInvalidPrice
	}

	now := s.clock.Now()
	product := &domain.Product{
		Name:             input.Name,
		Category:         input.Category,
		Images:           input.Images,
		Price:            input.Price,
		Rating:           input.Rating,
		Badge:            input.Badge,
		ShortDescription: input.ShortDescription,
		LongDescription:  input.LongDescription,
		Specifications:   input.Specifications,
		Features:         input.Features,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("name", input.Name).Msg("failed to create product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("product_id", product.ID).Str("name", product.Name).Msg("product created")

	return product, nil
}

// GetByID retrieves a product by ID, consulting the cache first.
func (s *ProductService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	key := repository.CacheKey{}.Product(id)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var product domain.Product
			if err := json.Unmarshal(data, &product); err == nil {
				return &product, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(product); err == nil {
			if err := s.cache.Set(ctx, key, data, productCacheTTL); err != nil {
				s.logger.Warn().Err(err).Int64("product_id", id).Msg("failed to cache product")
			}
		}
	}

	return product, nil
}

// UpdateProductInput contains the optional fields of a product update.
// Nil fields are left untouched.
type UpdateProductInput struct {
	Name             *string
	Category         *string
	Images           []string
	Price            *float64
	Rating           *float64
	Badge            *string
	ShortDescription *string
	LongDescription  *string
	Specifications   map[string]string
	Features         []string
}

// Update applies a product update.
func (s *ProductService) Update(ctx context.Context, id int64, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if input.Name != nil {
		if *input.Name == "" || len(*input.Name) > 255 {
			return nil, ErrInvalidName
		}
		product.Name = *input.Name
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, ErrInvalidPrice
		}
		product.Price = *input.Price
	}
	if input.Rating != nil {
		product.Rating = *input.Rating
	}
	if input.Badge != nil {
		product.Badge = *input.Badge
	}
	if input.ShortDescription != nil {
		product.ShortDescription = *input.ShortDescription
	}
	if input.LongDescription != nil {
		product.LongDescription = *input.LongDescription
	}
	if input.Specifications != nil {
		product.Specifications = input.Specifications
	}
	if input.Features != nil {
		product.Features = input.Features
	}
	product.UpdatedAt = s.clock.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to update product")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.invalidate(ctx, id)

	return product, nil
}

// Delete removes a product.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrProductNotFound
		}
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.invalidate(ctx, id)
	s.logger.Info().Int64("product_id", id).Msg("product deleted")

	return nil
}

// List returns all products, newest first.
func (s *ProductService) List(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return products, nil
}

func (s *ProductService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, repository.CacheKey{}.Product(id)); err != nil {
		s.logger.Warn().Err(err).Int64("product_id", id).Msg("failed to invalidate product cache")
	}
}

package postgres

import (
	"context"
	"fmt"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/repository"
)

// categoryRepository implements repository.CategoryRepository for PostgreSQL.
type categoryRepository struct {
	db *DB
}

// NewCategoryRepository creates a new PostgreSQL category repository.
func NewCategoryRepository(db *DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = `id, name, slug, description, created_at, updated_at`

// Create creates a new category.
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (name, slug, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		category.Name,
		category.Slug,
		category.Description,
		category.CreatedAt,
		category.UpdatedAt,
	).Scan(&category.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: slug %q taken", domain.ErrCategoryAlreadyExists, category.Slug)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetByID retrieves a category by ID.
func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	return r.scanCategory(ctx, query, id)
}

// GetBySlug retrieves a category by slug.
func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE slug = $1`
	return r.scanCategory(ctx, query, slug)
}

// ExistsBySlug checks if a category with the given slug exists.
func (r *categoryRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug existence: %w", err)
	}
	return exists, nil
}

// Update updates an existing category.
func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := `
		UPDATE categories
		SET name = $1, slug = $2, description = $3, updated_at = $4
		WHERE id = $5
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		category.Name,
		category.Slug,
		category.Description,
		category.UpdatedAt,
		category.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: slug %q taken", domain.ErrCategoryAlreadyExists, category.Slug)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete deletes a category by ID.
func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns all categories ordered by name.
func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY name ASC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		category := &domain.Category{}
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Slug,
			&category.Description,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

func (r *categoryRepository) scanCategory(ctx context.Context, query string, arg interface{}) (*domain.Category, error) {
	category := &domain.Category{}
	err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

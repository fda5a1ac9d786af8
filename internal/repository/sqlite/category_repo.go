package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/repository"
)

// categoryRepository implements repository.CategoryRepository for SQLite.
type categoryRepository struct {
	db *DB
}

// NewCategoryRepository creates a new SQLite category repository.
func NewCategoryRepository(db *DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

// Create creates a new category.
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (name, slug, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		category.Name,
		category.Slug,
		category.Description,
		category.CreatedAt.Format(time.RFC3339Nano),
		category.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: slug '%s'", domain.ErrCategoryAlreadyExists, category.Slug)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	category.ID = id

	return nil
}

// GetByID retrieves a category by ID.
func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `SELECT id, name, slug, description, created_at, updated_at FROM categories WHERE id = ?`
	return r.scanCategory(r.db.QueryRowContext(ctx, query, id))
}

// GetBySlug retrieves a category by slug.
func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	query := `SELECT id, name, slug, description, created_at, updated_at FROM categories WHERE slug = ?`
	return r.scanCategory(r.db.QueryRowContext(ctx, query, slug))
}

// ExistsBySlug checks if a category with the given slug exists.
func (r *categoryRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE slug = ?)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug existence: %w", err)
	}
	return exists != 0, nil
}

// Update updates an existing category.
func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := `
		UPDATE categories
		SET name = ?, slug = ?, description = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		category.Name,
		category.Slug,
		category.Description,
		category.UpdatedAt.Format(time.RFC3339Nano),
		category.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: slug '%s'", domain.ErrCategoryAlreadyExists, category.Slug)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete deletes a category by ID.
func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns all categories ordered by name.
func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	query := `SELECT id, name, slug, description, created_at, updated_at FROM categories ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		category, err := r.scanCategoryRow(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

func (r *categoryRepository) scanCategory(row rowScanner) (*domain.Category, error) {
	category, err := r.scanCategoryRow(row)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return category, nil
}

func (r *categoryRepository) scanCategoryRow(row rowScanner) (*domain.Category, error) {
	category := &domain.Category{}
	var createdAt, updatedAt string

	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	category.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	category.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return category, nil
}

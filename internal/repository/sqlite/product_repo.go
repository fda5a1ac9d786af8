package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/repository"
)

// productRepository implements repository.ProductRepository for SQLite.
// List-valued and map-valued attributes are stored as JSON text columns.
type productRepository struct {
	db *DB
}

// NewProductRepository creates a new SQLite product repository.
func NewProductRepository(db *DB) repository.ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, category, images, price, rating, badge, short_description, long_description, specifications, features, created_at, updated_at`

// Create creates a new product.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	images, specs, features, err := encodeProductJSON(product)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (name, category, images, price, rating, badge, short_description, long_description, specifications, features, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		product.Name,
		product.Category,
		images,
		product.Price,
		product.Rating,
		product.Badge,
		product.ShortDescription,
		product.LongDescription,
		specs,
		features,
		product.CreatedAt.Format(time.RFC3339Nano),
		product.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	product.ID = id

	return nil
}

// GetByID retrieves a product by ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	product, err := r.scanProductRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

// Update updates an existing product.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	images, specs, features, err := encodeProductJSON(product)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = ?, category = ?, images = ?, price = ?, rating = ?, badge = ?, short_description = ?, long_description = ?, specifications = ?, features = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		product.Name,
		product.Category,
		images,
		product.Price,
		product.Rating,
		product.Badge,
		product.ShortDescription,
		product.LongDescription,
		specs,
		features,
		product.UpdatedAt.Format(time.RFC3339Nano),
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
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

// Delete deletes a product by ID.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
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

// List returns all products, newest first.
func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := r.scanProductRow(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, rows.Err()
}

func (r *productRepository) scanProductRow(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var images, specs, features string
	var createdAt, updatedAt string

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&images,
		&product.Price,
		&product.Rating,
		&product.Badge,
		&product.ShortDescription,
		&product.LongDescription,
		&specs,
		&features,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(images), &product.Images); err != nil {
		return nil, fmt.Errorf("failed to decode product images: %w", err)
	}
	if err := json.Unmarshal([]byte(specs), &product.Specifications); err != nil {
		return nil, fmt.Errorf("failed to decode product specifications: %w", err)
	}
	if err := json.Unmarshal([]byte(features), &product.Features); err != nil {
		return nil, fmt.Errorf("failed to decode product features: %w", err)
	}

	product.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	product.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return product, nil
}

// encodeProductJSON marshals the JSON-typed columns, normalizing nil
// collections to empty ones so the stored shape is stable.
func encodeProductJSON(product *domain.Product) (images, specs, features string, err error) {
	imgs := product.Images
	if imgs == nil {
		imgs = []string{}
	}
	sp := product.Specifications
	if sp == nil {
		sp = map[string]string{}
	}
	ft := product.Features
	if ft == nil {
		ft = []string{}
	}

	b, err := json.Marshal(imgs)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode product images: %w", err)
	}
	images = string(b)

	b, err = json.Marshal(sp)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode product specifications: %w", err)
	}
	specs = string(b)

	b, err = json.Marshal(ft)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode product features: %w", err)
	}
	features = string(b)

	return images, specs, features, nil
}

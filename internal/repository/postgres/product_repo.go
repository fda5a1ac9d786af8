package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/repository"
)

// productRepository implements repository.ProductRepository for PostgreSQL.
// List-valued and map-valued attributes are stored as JSONB columns.
type productRepository struct {
	db *DB
}

// NewProductRepository creates a new PostgreSQL product repository.
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	err = r.db.Pool.QueryRow(ctx, query,
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
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.Pool.QueryRow(ctx, query, id))
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
		SET name = $1, category = $2, images = $3, price = $4, rating = $5, badge = $6, short_description = $7, long_description = $8, specifications = $9, features = $10, updated_at = $11
		WHERE id = $12
	`

	tag, err := r.db.Pool.Exec(ctx, query,
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
		product.UpdatedAt,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete deletes a product by ID.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns all products, newest first.
func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var images, specs, features []byte

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
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(images, &product.Images); err != nil {
		return nil, fmt.Errorf("failed to decode product images: %w", err)
	}
	if err := json.Unmarshal(specs, &product.Specifications); err != nil {
		return nil, fmt.Errorf("failed to decode product specifications: %w", err)
	}
	if err := json.Unmarshal(features, &product.Features); err != nil {
		return nil, fmt.Errorf("failed to decode product features: %w", err)
	}

	return product, nil
}

// encodeProductJSON marshals the JSONB columns, normalizing nil collections
// to empty ones so the stored shape is stable.
func encodeProductJSON(product *domain.Product) (images, specs, features []byte, err error) {
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

	images, err = json.Marshal(imgs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode product images: %w", err)
	}
	specs, err = json.Marshal(sp)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode product specifications: %w", err)
	}
	features, err = json.Marshal(ft)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode product features: %w", err)
	}

	return images, specs, features, nil
}

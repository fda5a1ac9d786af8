// Package repository defines data access interfaces for the Ventra catalog
// backend. These interfaces abstract database operations, allowing for
// different implementations (PostgreSQL, SQLite, in-memory for testing)
// while keeping the service layer clean.
package repository

import (
	"context"

	"github.com/ventra/catalog-server/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByAuthUID retrieves a user by identity-provider subject.
	GetByAuthUID(ctx context.Context, authUID string) (*domain.User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Delete deletes a user by ID.
	Delete(ctx context.Context, id int64) error

	// List returns all users, newest first.
	List(ctx context.Context) ([]*domain.User, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// =============================================================================
// Signup Attempt Repository
// =============================================================================

// SignupAttemptRepository defines the interface for signup throttling records.
// The store guarantees at most one record per email (unique index); callers
// serialize read-modify-write sequences per email through the lock package.
type SignupAttemptRepository interface {
	// GetByEmail retrieves the attempt record for an email.
	GetByEmail(ctx context.Context, email string) (*domain.SignupAttempt, error)

	// Create creates a new attempt record.
	Create(ctx context.Context, attempt *domain.SignupAttempt) error

	// Update updates an existing attempt record.
	Update(ctx context.Context, attempt *domain.SignupAttempt) error

	// DeleteByEmail removes the attempt record for an email.
	// Deleting a missing record is not an error.
	DeleteByEmail(ctx context.Context, email string) error
}

// =============================================================================
// Category Repository
// =============================================================================

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	// Create creates a new category.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category by ID.
	GetByID(ctx context.Context, id int64) (*domain.Category, error)

	// GetBySlug retrieves a category by slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)

	// ExistsBySlug checks if a category with the given slug exists.
	ExistsBySlug(ctx context.Context, slug string) (bool, error)

	// Update updates an existing category.
	Update(ctx context.Context, category *domain.Category) error

	// Delete deletes a category by ID.
	Delete(ctx context.Context, id int64) error

	// List returns all categories ordered by name.
	List(ctx context.Context) ([]*domain.Category, error)
}

// =============================================================================
// Product Repository
// =============================================================================

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// Create creates a new product.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by ID.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// Update updates an existing product.
	Update(ctx context.Context, product *domain.Product) error

	// Delete deletes a product by ID.
	Delete(ctx context.Context, id int64) error

	// List returns all products, newest first.
	List(ctx context.Context) ([]*domain.Product, error)
}

// =============================================================================
// Aggregates
// =============================================================================

// Repositories holds all repository instances for a configured backend.
type Repositories struct {
	User          UserRepository
	SignupAttempt SignupAttemptRepository
	Category      CategoryRepository
	Product       ProductRepository
}

// DatabaseHealth is an interface for database health checks.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}

package sqlite

import "github.com/ventra/catalog-server/internal/repository"

// NewRepositories builds the full repository set on a SQLite database.
func NewRepositories(db *DB) *repository.Repositories {
	return &repository.Repositories{
		User:          NewUserRepository(db),
		SignupAttempt: NewSignupAttemptRepository(db),
		Category:      NewCategoryRepository(db),
		Product:       NewProductRepository(db),
	}
}

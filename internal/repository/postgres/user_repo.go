package postgres

import (
	"context"
	"fmt"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/repository"
)

// userRepository implements repository.UserRepository for PostgreSQL.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, auth_uid, email, display_name, disabled, disabled_at, disabled_by, disable_reason, last_login_at, created_at, updated_at`

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (auth_uid, email, display_name, disabled, disabled_at, disabled_by, disable_reason, last_login_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		user.AuthUID,
		user.Email,
		user.DisplayName,
		user.Disabled,
		user.DisabledAt,
		user.DisabledBy,
		user.DisableReason,
		user.LastLoginAt,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email or auth UID already registered", domain.ErrUserAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

// GetByAuthUID retrieves a user by identity-provider subject.
func (r *userRepository) GetByAuthUID(ctx context.Context, authUID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE auth_uid = $1`
	return r.scanUser(ctx, query, authUID)
}

// Update updates an existing user.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET display_name = $1, disabled = $2, disabled_at = $3, disabled_by = $4, disable_reason = $5, last_login_at = $6, updated_at = $7
		WHERE id = $8
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		user.DisplayName,
		user.Disabled,
		user.DisabledAt,
		user.DisabledBy,
		user.DisableReason,
		user.LastLoginAt,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete deletes a user by ID.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns all users, newest first.
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		if err := rows.Scan(
			&user.ID,
			&user.AuthUID,
			&user.Email,
			&user.DisplayName,
			&user.Disabled,
			&user.DisabledAt,
			&user.DisabledBy,
			&user.DisableReason,
			&user.LastLoginAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// ExistsByEmail checks if a user with the given email exists.
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) scanUser(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.AuthUID,
		&user.Email,
		&user.DisplayName,
		&user.Disabled,
		&user.DisabledAt,
		&user.DisabledBy,
		&user.DisableReason,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

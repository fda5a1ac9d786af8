package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/repository"
)

// userRepository implements repository.UserRepository for SQLite.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, auth_uid, email, display_name, disabled, disabled_at, disabled_by, disable_reason, last_login_at, created_at, updated_at`

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (auth_uid, email, display_name, disabled, disabled_at, disabled_by, disable_reason, last_login_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		user.AuthUID,
		user.Email,
		user.DisplayName,
		boolToInt(user.Disabled),
		nullableTime(user.DisabledAt),
		user.DisabledBy,
		user.DisableReason,
		nullableTime(user.LastLoginAt),
		user.CreatedAt.Format(time.RFC3339Nano),
		user.UpdatedAt.Format(time.RFC3339Nano),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email or auth UID already registered", domain.ErrUserAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	user.ID = id

	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetByAuthUID retrieves a user by identity-provider subject.
func (r *userRepository) GetByAuthUID(ctx context.Context, authUID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE auth_uid = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, authUID))
}

// Update updates an existing user.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET display_name = ?, disabled = ?, disabled_at = ?, disabled_by = ?, disable_reason = ?, last_login_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		user.DisplayName,
		boolToInt(user.Disabled),
		nullableTime(user.DisabledAt),
		user.DisabledBy,
		user.DisableReason,
		nullableTime(user.LastLoginAt),
		user.UpdatedAt.Format(time.RFC3339Nano),
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
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

// Delete deletes a user by ID.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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

// List returns all users, newest first.
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := r.scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// ExistsByEmail checks if a user with the given email exists.
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists != 0, nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *userRepository) scanUser(row rowScanner) (*domain.User, error) {
	user, err := r.scanUserRow(row)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) scanUserRow(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var disabled int
	var disabledAt, lastLoginAt *string
	var createdAt, updatedAt string

	err := row.Scan(
		&user.ID,
		&user.AuthUID,
		&user.Email,
		&user.DisplayName,
		&disabled,
		&disabledAt,
		&user.DisabledBy,
		&user.DisableReason,
		&lastLoginAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Disabled = disabled != 0
	user.DisabledAt = parseNullableTime(disabledAt)
	user.LastLoginAt = parseNullableTime(lastLoginAt)
	user.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	user.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return user, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/repository"
)

// signupAttemptRepository implements repository.SignupAttemptRepository for PostgreSQL.
type signupAttemptRepository struct {
	db *DB
}

// NewSignupAttemptRepository creates a new PostgreSQL signup attempt repository.
func NewSignupAttemptRepository(db *DB) repository.SignupAttemptRepository {
	return &signupAttemptRepository{db: db}
}

const signupAttemptColumns = `id, email, source_addr, attempt_count, first_attempt_at, last_attempt_at, blocked, blocked_until`

// GetByEmail retrieves the attempt record for an email.
func (r *signupAttemptRepository) GetByEmail(ctx context.Context, email string) (*domain.SignupAttempt, error) {
	query := `SELECT ` + signupAttemptColumns + ` FROM signup_attempts WHERE email = $1`

	attempt := &domain.SignupAttempt{}
	err := r.db.Pool.QueryRow(ctx, query, email).Scan(
		&attempt.ID,
		&attempt.Email,
		&attempt.SourceAddr,
		&attempt.AttemptCount,
		&attempt.FirstAttemptAt,
		&attempt.LastAttemptAt,
		&attempt.Blocked,
		&attempt.BlockedUntil,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get signup attempt: %w", err)
	}

	return attempt, nil
}

// Create inserts a new attempt record.
func (r *signupAttemptRepository) Create(ctx context.Context, attempt *domain.SignupAttempt) error {
	query := `
		INSERT INTO signup_attempts (email, source_addr, attempt_count, first_attempt_at, last_attempt_at, blocked, blocked_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		attempt.Email,
		attempt.SourceAddr,
		attempt.AttemptCount,
		attempt.FirstAttemptAt,
		attempt.LastAttemptAt,
		attempt.Blocked,
		attempt.BlockedUntil,
	).Scan(&attempt.ID)
	if err != nil {
		return fmt.Errorf("failed to create signup attempt: %w", err)
	}

	return nil
}

// Update rewrites the attempt record identified by email.
func (r *signupAttemptRepository) Update(ctx context.Context, attempt *domain.SignupAttempt) error {
	query := `
		UPDATE signup_attempts
		SET source_addr = $1, attempt_count = $2, first_attempt_at = $3, last_attempt_at = $4, blocked = $5, blocked_until = $6
		WHERE email = $7
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		attempt.SourceAddr,
		attempt.AttemptCount,
		attempt.FirstAttemptAt,
		attempt.LastAttemptAt,
		attempt.Blocked,
		attempt.BlockedUntil,
		attempt.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to update signup attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteByEmail removes the attempt record for an email. Deleting a
// record that does not exist is not an error.
func (r *signupAttemptRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM signup_attempts WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to delete signup attempt: %w", err)
	}
	return nil
}

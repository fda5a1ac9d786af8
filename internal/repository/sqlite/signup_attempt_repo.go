package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/repository"
)

// signupAttemptRepository implements repository.SignupAttemptRepository for SQLite.
type signupAttemptRepository struct {
	db *DB
}

// NewSignupAttemptRepository creates a new SQLite signup attempt repository.
func NewSignupAttemptRepository(db *DB) repository.SignupAttemptRepository {
	return &signupAttemptRepository{db: db}
}

// GetByEmail retrieves the attempt record for an email.
func (r *signupAttemptRepository) GetByEmail(ctx context.Context, email string) (*domain.SignupAttempt, error) {
	query := `
		SELECT id, email, source_addr, attempt_count, first_attempt_at, last_attempt_at, blocked, blocked_until
		FROM signup_attempts
		WHERE email = ?
	`

	attempt := &domain.SignupAttempt{}
	var blocked int
	var firstAt, lastAt string
	var blockedUntil *string

	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&attempt.ID,
		&attempt.Email,
		&attempt.SourceAddr,
		&attempt.AttemptCount,
		&firstAt,
		&lastAt,
		&blocked,
		&blockedUntil,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get signup attempt: %w", err)
	}

	attempt.Blocked = blocked != 0
	attempt.BlockedUntil = parseNullableTime(blockedUntil)
	attempt.FirstAttemptAt, _ = time.Parse(time.RFC3339Nano, firstAt)
	attempt.LastAttemptAt, _ = time.Parse(time.RFC3339Nano, lastAt)

	return attempt, nil
}

// Create creates a new attempt record.
func (r *signupAttemptRepository) Create(ctx context.Context, attempt *domain.SignupAttempt) error {
	query := `
		INSERT INTO signup_attempts (email, source_addr, attempt_count, first_attempt_at, last_attempt_at, blocked, blocked_until)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		attempt.Email,
		attempt.SourceAddr,
		attempt.AttemptCount,
		attempt.FirstAttemptAt.Format(time.RFC3339Nano),
		attempt.LastAttemptAt.Format(time.RFC3339Nano),
		boolToInt(attempt.Blocked),
		nullableTime(attempt.BlockedUntil),
	)
	if err != nil {
		return fmt.Errorf("failed to create signup attempt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	attempt.ID = id

	return nil
}

// Update updates an existing attempt record.
func (r *signupAttemptRepository) Update(ctx context.Context, attempt *domain.SignupAttempt) error {
	query := `
		UPDATE signup_attempts
		SET source_addr = ?, attempt_count = ?, last_attempt_at = ?, blocked = ?, blocked_until = ?
		WHERE email = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		attempt.SourceAddr,
		attempt.AttemptCount,
		attempt.LastAttemptAt.Format(time.RFC3339Nano),
		boolToInt(attempt.Blocked),
		nullableTime(attempt.BlockedUntil),
		attempt.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to update signup attempt: %w", err)
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

// DeleteByEmail removes the attempt record for an email.
func (r *signupAttemptRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM signup_attempts WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("failed to delete signup attempt: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/config"
	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/lock"
	"github.com/ventra/catalog-server/internal/metrics"
	"github.com/ventra/catalog-server/internal/repository"
)

// Lock parameters for the per-email critical section. The section is a
// handful of single-row statements, so a short TTL with a few retries keeps
// contention invisible to callers.
const (
	signupLockTTL        = 5 * time.Second
	signupLockRetries    = 10
	signupLockRetryDelay = 50 * time.Millisecond
)

// SignupGateService throttles account registration per email address.
// Each email gets one tracking record; bursts of attempts trigger a
// temporary block. Blocks expire lazily on the next attempt, there is no
// background sweeper.
type SignupGateService struct {
	attempts repository.SignupAttemptRepository
	locker   lock.Locker
	clock    Clock

	maxAttempts   int
	burstWindow   time.Duration
	blockDuration time.Duration

	logger zerolog.Logger
}

// NewSignupGateService creates a new SignupGateService. Zero-valued config
// fields fall back to the canonical thresholds.
func NewSignupGateService(
	attempts repository.SignupAttemptRepository,
	locker lock.Locker,
	clock Clock,
	cfg config.SignupGateConfig,
	logger zerolog.Logger,
) *SignupGateService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = domain.MaxSignupAttempts
	}
	if cfg.BurstWindow <= 0 {
		cfg.BurstWindow = domain.SignupBurstWindow
	}
	if cfg.BlockDuration <= 0 {
		cfg.BlockDuration = domain.SignupBlockDuration
	}

	return &SignupGateService{
		attempts:      attempts,
		locker:        locker,
		clock:         clock,
		maxAttempts:   cfg.MaxAttempts,
		burstWindow:   cfg.BurstWindow,
		blockDuration: cfg.BlockDuration,
		logger:        logger.With().Str("service", "signup_gate").Logger(),
	}
}

// EvaluateAndRecord records one registration attempt for the email and
// decides whether it may proceed. A nil return admits the attempt; a
// *domain.RateLimitError rejects it. The whole lookup-decide-persist
// sequence runs under a per-email lock so concurrent attempts for the same
// address serialize.
func (s *SignupGateService) EvaluateAndRecord(ctx context.Context, email, sourceAddr string) error {
	key := lock.Keys.Signup(email)
	acquired, err := s.locker.AcquireWithRetry(ctx, key, signupLockTTL, signupLockRetries, signupLockRetryDelay)
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to acquire signup lock")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !acquired {
		s.logger.Warn().Str("email", email).Msg("signup lock contention exhausted retries")
		return fmt.Errorf("%w: %v", ErrInternalError, repository.ErrLockNotAcquired)
	}
	defer func() {
		if _, err := s.locker.Release(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("email", email).Msg("failed to release signup lock")
		}
	}()

	now := s.clock.Now()

	attempt, err := s.attempts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.recordFirstAttempt(ctx, email, sourceAddr, now)
		}
		s.logger.Error().Err(err).Str("email", email).Msg("failed to load signup attempt")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	// An active block rejects the attempt without touching the record, so
	// hammering a blocked email never extends the block.
	if attempt.BlockActive(now) {
		metrics.RecordSignupAttempt("rejected")
		return &domain.RateLimitError{RetryAfter: attempt.BlockedUntil.Sub(now)}
	}

	// A lapsed block resets the quota entirely; the current attempt then
	// counts against the fresh quota below.
	if attempt.Blocked {
		attempt.ResetBlock()
	}

	attempt.AttemptCount++
	attempt.LastAttemptAt = now
	if attempt.SourceAddr == "" {
		attempt.SourceAddr = sourceAddr
	}

	// The burst check compares write times, not a sliding window: the
	// count resets only when a block lapses, never by mere passage of time.
	if attempt.AttemptCount >= s.maxAttempts && attempt.LastAttemptAt.Sub(attempt.FirstAttemptAt) < s.burstWindow {
		attempt.Block(now.Add(s.blockDuration))
		if err := s.attempts.Update(ctx, attempt); err != nil {
			s.logger.Error().Err(err).Str("email", email).Msg("failed to persist signup block")
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}

		s.logger.Warn().
			Str("email", email).
			Int("attempt_count", attempt.AttemptCount).
			Time("blocked_until", *attempt.BlockedUntil).
			Msg("signup burst blocked")
		metrics.RecordSignupAttempt("blocked")
		metrics.RecordSignupBlock()

		return &domain.RateLimitError{RetryAfter: s.blockDuration, HardBlock: true}
	}

	if err := s.attempts.Update(ctx, attempt); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to update signup attempt")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	metrics.RecordSignupAttempt("admitted")
	return nil
}

// Clear removes the tracking record for an email. Called after an account
// is successfully created so the next signup for the address starts fresh.
// Clearing an email with no record is a no-op.
func (s *SignupGateService) Clear(ctx context.Context, email string) error {
	if err := s.attempts.DeleteByEmail(ctx, email); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to clear signup attempt")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return nil
}

func (s *SignupGateService) recordFirstAttempt(ctx context.Context, email, sourceAddr string, now time.Time) error {
	attempt := domain.NewSignupAttempt(email, sourceAddr, now)
	if err := s.attempts.Create(ctx, attempt); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to create signup attempt")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	metrics.RecordSignupAttempt("admitted")
	return nil
}

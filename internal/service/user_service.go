package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/metrics"
	"github.com/ventra/catalog-server/internal/repository"
)

// userCacheTTL bounds staleness of the auth-UID lookup cache. Every write
// path invalidates eagerly, the TTL only covers missed invalidations.
const userCacheTTL = 5 * time.Minute

// UserService handles account management operations. Accounts are created
// through Register, which runs every attempt through the signup gate, and
// start out disabled until an operator enables them.
type UserService struct {
	userRepo repository.UserRepository
	gate     *SignupGateService
	cache    repository.Cache
	clock    Clock
	logger   zerolog.Logger
}

// NewUserService creates a new UserService. Cache may be nil, in which case
// auth-UID lookups always hit the database.
func NewUserService(
	userRepo repository.UserRepository,
	gate *SignupGateService,
	cache repository.Cache,
	clock Clock,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		gate:     gate,
		cache:    cache,
		clock:    clock,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// RegisterInput contains the data needed to register a new account.
type RegisterInput struct {
	AuthUID     string
	Email       string
	DisplayName string

	// SourceAddr is the caller's network address, recorded with the
	// signup attempt for auditing.
	SourceAddr string
}

// RegisterOutput contains the result of registering an account.
type RegisterOutput struct {
	User *domain.User
}

// Register creates a new account. The email's signup quota is checked and
// consumed first; a throttled email gets a *domain.RateLimitError. The
// created account is disabled and stays so until explicitly enabled. On
// success the email's attempt record is cleared.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	if err := s.validateRegisterInput(input); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to check email existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email '%s'", domain.ErrUserAlreadyExists, input.Email)
	}

	if err := s.gate.EvaluateAndRecord(ctx, input.Email, input.SourceAddr); err != nil {
		return nil, err
	}

	user := domain.NewUser(input.AuthUID, input.Email, input.DisplayName, s.clock.Now())
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	// The attempt record has served its purpose. A failed delete fails the
	// request: throttle bookkeeping is never skipped silently. The account
	// itself stays created; only the stale counter lingers.
	if err := s.gate.Clear(ctx, input.Email); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("email", user.Email).
		Str("auth_uid", user.AuthUID).
		Msg("user registered")
	metrics.RecordRegistration()

	return &RegisterOutput{User: user}, nil
}

// Disable marks an account disabled, recording who disabled it and why.
func (s *UserService) Disable(ctx context.Context, id int64, actor, reason string) (*domain.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.MarkDisabled(actor, reason, s.clock.Now())
	if err := s.persistUpdate(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("disabled_by", actor).
		Str("reason", reason).
		Msg("user disabled")

	return user, nil
}

// Enable lifts the disabled state, clearing the disable audit fields.
func (s *UserService) Enable(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.MarkEnabled(s.clock.Now())
	if err := s.persistUpdate(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user enabled")

	return user, nil
}

// UpdateUserInput contains the optional fields of a generic account update.
// Nil fields are left untouched.
type UpdateUserInput struct {
	DisplayName *string

	// Disabled flips the account's disabled state. When disabling,
	// Actor and Reason populate the audit fields; when enabling, the
	// audit fields are cleared regardless.
	Disabled *bool
	Actor    string
	Reason   string

	LastLoginAt *time.Time
}

// Update applies a generic account update. Toggling Disabled carries the
// same audit-field semantics as Disable and Enable.
func (s *UserService) Update(ctx context.Context, id int64, input UpdateUserInput) (*domain.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	if input.DisplayName != nil {
		if len(*input.DisplayName) > 255 {
			return nil, ErrInvalidDisplayName
		}
		user.DisplayName = *input.DisplayName
	}
	if input.LastLoginAt != nil {
		user.LastLoginAt = input.LastLoginAt
	}
	if input.Disabled != nil {
		if *input.Disabled {
			user.MarkDisabled(input.Actor, input.Reason, now)
		} else {
			user.MarkEnabled(now)
		}
	}
	user.UpdatedAt = now

	if err := s.persistUpdate(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetByID retrieves an account by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}

// GetByAuthUID retrieves an account by its identity-provider subject,
// consulting the cache first.
func (s *UserService) GetByAuthUID(ctx context.Context, authUID string) (*domain.User, error) {
	key := repository.CacheKey{}.UserByAuthUID(authUID)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var user domain.User
			if err := json.Unmarshal(data, &user); err == nil {
				return &user, nil
			}
		}
	}

	user, err := s.userRepo.GetByAuthUID(ctx, authUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("auth_uid", authUID).Msg("failed to get user by auth UID")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(user); err == nil {
			if err := s.cache.Set(ctx, key, data, userCacheTTL); err != nil {
				s.logger.Warn().Err(err).Str("auth_uid", authUID).Msg("failed to cache user")
			}
		}
	}

	return user, nil
}

// List returns all accounts, newest first.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return users, nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to delete user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.invalidate(ctx, user.AuthUID)
	s.logger.Info().Int64("user_id", id).Msg("user deleted")

	return nil
}

func (s *UserService) persistUpdate(ctx context.Context, user *domain.User) error {
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to update user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	s.invalidate(ctx, user.AuthUID)
	return nil
}

func (s *UserService) invalidate(ctx context.Context, authUID string) {
	if s.cache == nil {
		return
	}
	key := repository.CacheKey{}.UserByAuthUID(authUID)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("auth_uid", authUID).Msg("failed to invalidate user cache")
	}
}

func (s *UserService) validateRegisterInput(input RegisterInput) error {
	if input.AuthUID == "" || len(input.AuthUID) > 255 {
		return ErrInvalidAuthUID
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return ErrInvalidEmail
	}
	if len(input.DisplayName) > 255 {
		return ErrInvalidDisplayName
	}
	return nil
}

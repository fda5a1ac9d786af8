package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/config"
	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/lock"
	"github.com/ventra/catalog-server/internal/repository"
)

// =============================================================================
// Mock Repository and Clock
// =============================================================================

// MockSignupAttemptRepository is an in-memory repository.SignupAttemptRepository.
type MockSignupAttemptRepository struct {
	mu        sync.Mutex
	attempts  map[string]*domain.SignupAttempt
	nextID    int64
	getErr    error
	createErr error
	updateErr error
	deleteErr error
}

func NewMockSignupAttemptRepository() *MockSignupAttemptRepository {
	return &MockSignupAttemptRepository{
		attempts: make(map[string]*domain.SignupAttempt),
		nextID:   1,
	}
}

func (m *MockSignupAttemptRepository) GetByEmail(ctx context.Context, email string) (*domain.SignupAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	a, ok := m.attempts[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockSignupAttemptRepository) Create(ctx context.Context, attempt *domain.SignupAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	attempt.ID = m.nextID
	m.nextID++
	cp := *attempt
	m.attempts[attempt.Email] = &cp
	return nil
}

func (m *MockSignupAttemptRepository) Update(ctx context.Context, attempt *domain.SignupAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.attempts[attempt.Email]; !ok {
		return repository.ErrNotFound
	}
	cp := *attempt
	m.attempts[attempt.Email] = &cp
	return nil
}

func (m *MockSignupAttemptRepository) DeleteByEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.attempts, email)
	return nil
}

func (m *MockSignupAttemptRepository) get(email string) *domain.SignupAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[email]
}

// fakeClock returns a controllable time.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestGate(repo *MockSignupAttemptRepository, clock Clock) *SignupGateService {
	locker := lock.NewMemoryLocker()
	return NewSignupGateService(repo, locker, clock, config.SignupGateConfig{}, zerolog.Nop())
}

// =============================================================================
// Tests
// =============================================================================

func TestSignupGate_FirstAttemptAdmitted(t *testing.T) {
	repo := NewMockSignupAttemptRepository()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gate := newTestGate(repo, clock)

	if err := gate.EvaluateAndRecord(context.Background(), "a@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("first attempt rejected: %v", err)
	}

	rec := repo.get("a@example.com")
	if rec == nil {
		t.Fatal("no attempt record created")
	}
	if rec.AttemptCount != 1 {
		t.Errorf("attempt count = %d, want 1", rec.AttemptCount)
	}
	if rec.Blocked {
		t.Error("record unexpectedly blocked")
	}
	if !rec.FirstAttemptAt.Equal(clock.Now()) || !rec.LastAttemptAt.Equal(clock.Now()) {
		t.Error("attempt timestamps not set to current time")
	}
}

func TestSignupGate_BurstTriggersBlock(t *testing.T) {
	repo := NewMockSignupAttemptRepository()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gate := newTestGate(repo, clock)
	ctx := context.Background()

	// Attempts 1-4 admitted.
	for i := 0; i < 4; i++ {
		if err := gate.EvaluateAndRecord(ctx, "b@example.com", "10.0.0.1"); err != nil {
			t.Fatalf("attempt %d rejected: %v", i+1, err)
		}
		clock.Advance(time.Minute)
	}

	// Attempt 5 within the hour trips the block.
	err := gate.EvaluateAndRecord(ctx, "b@example.com", "10.0.0.1")
	var rateErr *domain.RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("attempt 5 error = %v, want RateLimitError", err)
	}
	if !rateErr.HardBlock {
		t.Error("fresh block should carry the hard-block retry message")
	}
	if rateErr.RetryAfter != domain.SignupBlockDuration {
		t.Errorf("retry after = %v, want %v", rateErr.RetryAfter, domain.SignupBlockDuration)
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Error("rate limit error should match ErrRateLimited")
	}

	rec := repo.get("b@example.com")
	if !rec.Blocked || rec.BlockedUntil == nil {
		t.Fatal("record not blocked after burst")
	}
	wantUntil := clock.Now().Add(domain.SignupBlockDuration)
	if !rec.BlockedUntil.Equal(wantUntil) {
		t.Errorf("blocked until %v, want %v", rec.BlockedUntil, wantUntil)
	}
}

func TestSignupGate_ActiveBlockRejectsWithoutMutation(t *testing.T) {
	repo := NewMockSignupAttemptRepository()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gate := newTestGate(repo, clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		gate.EvaluateAndRecord(ctx, "c@example.com", "10.0.0.1")
	}
	before := repo.get("c@example.com")

	clock.Advance(5 * time.Minute)

	err := gate.EvaluateAndRecord(ctx, "c@example.com", "10.0.0.1")
	var rateErr *domain.RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("blocked attempt error = %v, want RateLimitError", err)
	}
	if rateErr.HardBlock {
		t.Error("rejection under an existing block should use the generic message")
	}
	if want := 10 * time.Minute; rateErr.RetryAfter != want {
		t.Errorf("retry after = %v, want %v", rateErr.RetryAfter, want)
	}

	after := repo.get("c@example.com")
	if after.AttemptCount != before.AttemptCount {
		t.Error("rejected attempt mutated the count")
	}
	if !after.BlockedUntil.Equal(*before.BlockedUntil) {
		t.Error("rejected attempt extended the block")
	}
	if !after.LastAttemptAt.Equal(before.LastAttemptAt) {
		t.Error("rejected attempt updated the last-attempt time")
	}
}

func TestSignupGate_LapsedBlockResetsQuota(t *testing.T) {
	repo := NewMockSignupAttemptRepository()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gate := newTestGate(repo, clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		gate.EvaluateAndRecord(ctx, "d@example.com", "10.0.0.1")
	}
	if rec := repo.get("d@example.com"); !rec.Blocked {
		t.Fatal("expected block after burst")
	}

	clock.Advance(domain.SignupBlockDuration + time.Second)

	if err := gate.EvaluateAndRecord(ctx, "d@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("attempt after lapsed block rejected: %v", err)
	}

	rec := repo.get("d@example.com")
	if rec.Blocked || rec.BlockedUntil != nil {
		t.Error("block not cleared after lapse")
	}
	if rec.AttemptCount != 1 {
		t.Errorf("attempt count = %d, want 1 after reset", rec.AttemptCount)
	}
}

func TestSignupGate_SlowAttemptsNeverBlock(t *testing.T) {
	repo := NewMockSignupAttemptRepository()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gate := newTestGate(repo, clock)
	ctx := context.Background()

	// Five attempts spread past the burst window: the fifth lands more
	// than an hour after the first, so no block.
	for i := 0; i < 5; i++ {
		if err := gate.EvaluateAndRecord(ctx, "e@example.com", "10.0.0.1"); err != nil {
			t.Fatalf("attempt %d rejected: %v", i+1, err)
		}
		clock.Advance(20 * time.Minute)
	}

	rec := repo.get("e@example.com")
	if rec.Blocked {
		t.Error("slow attempts should not trigger a block")
	}
	if rec.AttemptCount != 5 {
		t.Errorf("attempt count = %d, want 5", rec.AttemptCount)
	}
}

func TestSignupGate_ClearRemovesRecord(t *testing.T) {
	repo := NewMockSignupAttemptRepository()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gate := newTestGate(repo, clock)
	ctx := context.Background()

	gate.EvaluateAndRecord(ctx, "f@example.com", "10.0.0.1")
	if err := gate.Clear(ctx, "f@example.com"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if repo.get("f@example.com") != nil {
		t.Error("record still present after clear")
	}

	// Clearing an absent record is a no-op.
	if err := gate.Clear(ctx, "f@example.com"); err != nil {
		t.Errorf("clearing absent record errored: %v", err)
	}
}

func TestSignupGate_IndependentEmails(t *testing.T) {
	repo := NewMockSignupAttemptRepository()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gate := newTestGate(repo, clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		gate.EvaluateAndRecord(ctx, "burst@example.com", "10.0.0.1")
	}

	if err := gate.EvaluateAndRecord(ctx, "other@example.com", "10.0.0.2"); err != nil {
		t.Errorf("unrelated email throttled: %v", err)
	}
}

func TestSignupGate_RepositoryErrorSurfacesAsInternal(t *testing.T) {
	repo := NewMockSignupAttemptRepository()
	repo.getErr = errors.New("connection refused")
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gate := newTestGate(repo, clock)

	err := gate.EvaluateAndRecord(context.Background(), "g@example.com", "10.0.0.1")
	if !errors.Is(err, ErrInternalError) {
		t.Errorf("error = %v, want ErrInternalError", err)
	}
}

func TestSignupGate_ConcurrentAttemptsSerialize(t *testing.T) {
	repo := NewMockSignupAttemptRepository()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gate := newTestGate(repo, clock)
	ctx := context.Background()

	const workers = 4
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gate.EvaluateAndRecord(ctx, "race@example.com", "10.0.0.1")
		}()
	}
	wg.Wait()

	rec := repo.get("race@example.com")
	if rec == nil {
		t.Fatal("no attempt record created")
	}
	if rec.AttemptCount != workers {
		t.Errorf("attempt count = %d, want %d", rec.AttemptCount, workers)
	}
}

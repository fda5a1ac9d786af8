package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/repository"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(context.Background(), DefaultConfig(":memory:"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testTime(minute int) time.Time {
	return time.Date(2025, 6, 1, 12, minute, 0, 0, time.UTC)
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := domain.NewUser("uid-1", "alice@example.com", "Alice", testTime(0))
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("create should assign an ID")
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Email != "alice@example.com" || got.AuthUID != "uid-1" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if !got.Disabled {
		t.Error("persisted user should be disabled")
	}
	if got.DisabledAt != nil || got.DisabledBy != "" {
		t.Error("fresh user should have no disable audit fields")
	}

	if _, err := repo.GetByEmail(ctx, "alice@example.com"); err != nil {
		t.Errorf("get by email: %v", err)
	}
	if _, err := repo.GetByAuthUID(ctx, "uid-1"); err != nil {
		t.Errorf("get by auth uid: %v", err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, domain.NewUser("uid-1", "dup@example.com", "", testTime(0))); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := repo.Create(ctx, domain.NewUser("uid-2", "dup@example.com", "", testTime(1)))
	if !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("err = %v, want ErrUserAlreadyExists", err)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, 42); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetByID err = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, 42); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Delete err = %v, want ErrNotFound", err)
	}
}

func TestUserRepository_UpdateDisableAudit(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := domain.NewUser("uid-1", "bob@example.com", "Bob", testTime(0))
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	user.MarkDisabled("ops", "fraud review", testTime(30))
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := repo.GetByID(ctx, user.ID)
	if got.DisabledAt == nil || !got.DisabledAt.Equal(testTime(30)) {
		t.Errorf("DisabledAt = %v, want %v", got.DisabledAt, testTime(30))
	}
	if got.DisabledBy != "ops" || got.DisableReason != "fraud review" {
		t.Errorf("audit fields = (%q, %q)", got.DisabledBy, got.DisableReason)
	}

	user.MarkEnabled(testTime(31))
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ = repo.GetByID(ctx, user.ID)
	if got.Disabled || got.DisabledAt != nil || got.DisabledBy != "" || got.DisableReason != "" {
		t.Errorf("enable should clear disable state, got %+v", got)
	}
}

func TestUserRepository_SubSecondTimestamps(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	created := testTime(0).Add(123456789 * time.Nanosecond)
	user := domain.NewUser("uid-ns", "nano@example.com", "Nano", created)
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	disabled := testTime(5).Add(987654321 * time.Nanosecond)
	user.MarkDisabled("ops", "review", disabled)
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if got.DisabledAt == nil || !got.DisabledAt.Equal(disabled) {
		t.Errorf("DisabledAt = %v, want %v", got.DisabledAt, disabled)
	}
}

func TestUserRepository_ExistsByEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	exists, err := repo.ExistsByEmail(ctx, "nobody@example.com")
	if err != nil || exists {
		t.Fatalf("ExistsByEmail = (%v, %v), want (false, nil)", exists, err)
	}

	repo.Create(ctx, domain.NewUser("uid-1", "carol@example.com", "", testTime(0)))
	exists, _ = repo.ExistsByEmail(ctx, "carol@example.com")
	if !exists {
		t.Error("ExistsByEmail should find created user")
	}
}

func TestSignupAttemptRepository_Lifecycle(t *testing.T) {
	repo := NewSignupAttemptRepository(newTestDB(t))
	ctx := context.Background()

	if _, err := repo.GetByEmail(ctx, "x@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("get missing err = %v, want ErrNotFound", err)
	}

	attempt := domain.NewSignupAttempt("x@example.com", "203.0.113.7", testTime(0))
	if err := repo.Create(ctx, attempt); err != nil {
		t.Fatalf("create: %v", err)
	}

	attempt.AttemptCount = 5
	attempt.LastAttemptAt = testTime(10)
	attempt.Block(testTime(25))
	if err := repo.Update(ctx, attempt); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "x@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AttemptCount != 5 || !got.Blocked {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.BlockedUntil == nil || !got.BlockedUntil.Equal(testTime(25)) {
		t.Errorf("BlockedUntil = %v, want %v", got.BlockedUntil, testTime(25))
	}
	if !got.FirstAttemptAt.Equal(testTime(0)) || !got.LastAttemptAt.Equal(testTime(10)) {
		t.Errorf("timestamps = (%v, %v)", got.FirstAttemptAt, got.LastAttemptAt)
	}

	if err := repo.DeleteByEmail(ctx, "x@example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "x@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("record should be gone after delete")
	}

	// Deleting again is a no-op.
	if err := repo.DeleteByEmail(ctx, "x@example.com"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestSignupAttemptRepository_UpdateMissing(t *testing.T) {
	repo := NewSignupAttemptRepository(newTestDB(t))

	attempt := domain.NewSignupAttempt("ghost@example.com", "", testTime(0))
	err := repo.Update(context.Background(), attempt)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCategoryRepository_CRUD(t *testing.T) {
	repo := NewCategoryRepository(newTestDB(t))
	ctx := context.Background()

	cat := domain.NewCategory("Gaming Laptops", "High-end portable machines", testTime(0))
	if err := repo.Create(ctx, cat); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetBySlug(ctx, "gaming-laptops")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if got.Name != "Gaming Laptops" {
		t.Errorf("Name = %q", got.Name)
	}

	// Slug uniqueness is enforced by the store.
	dup := domain.NewCategory("gaming LAPTOPS", "", testTime(1))
	if err := repo.Create(ctx, dup); !errors.Is(err, domain.ErrCategoryAlreadyExists) {
		t.Errorf("duplicate slug err = %v, want ErrCategoryAlreadyExists", err)
	}

	exists, _ := repo.ExistsBySlug(ctx, "gaming-laptops")
	if !exists {
		t.Error("ExistsBySlug should report the created slug")
	}

	cat.Name = "Gaming Notebooks"
	cat.Slug = domain.Slugify(cat.Name)
	cat.UpdatedAt = testTime(2)
	if err := repo.Update(ctx, cat); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := repo.GetBySlug(ctx, "gaming-laptops"); !errors.Is(err, repository.ErrNotFound) {
		t.Error("old slug should be gone after rename")
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = (%d items, %v)", len(list), err)
	}

	if err := repo.Delete(ctx, cat.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, cat.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestProductRepository_RoundTrip(t *testing.T) {
	repo := NewProductRepository(newTestDB(t))
	ctx := context.Background()

	product := &domain.Product{
		Name:             "Mechanical Keyboard",
		Category:         "peripherals",
		Images:           []string{"https://media.example.com/kb-front.jpg"},
		Price:            129.99,
		Rating:           4.5,
		Badge:            "New",
		ShortDescription: "Hot-swappable 75% board",
		LongDescription:  "A compact mechanical keyboard with hot-swappable switches.",
		Specifications:   map[string]string{"layout": "75%", "switches": "tactile"},
		Features:         []string{"hot-swap sockets", "RGB backlight"},
		CreatedAt:        testTime(0),
		UpdatedAt:        testTime(0),
	}
	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Specifications["layout"] != "75%" {
		t.Errorf("Specifications = %v", got.Specifications)
	}
	if len(got.Images) != 1 || len(got.Features) != 2 {
		t.Errorf("collections = (%v, %v)", got.Images, got.Features)
	}

	// Nil collections come back as empty, never nil.
	bare := &domain.Product{Name: "Bare", Category: "misc", CreatedAt: testTime(1), UpdatedAt: testTime(1)}
	if err := repo.Create(ctx, bare); err != nil {
		t.Fatalf("create bare: %v", err)
	}
	gotBare, _ := repo.GetByID(ctx, bare.ID)
	if gotBare.Images == nil || gotBare.Features == nil || gotBare.Specifications == nil {
		t.Errorf("bare product collections should be empty, got %+v", gotBare)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("list = (%d items, %v)", len(list), err)
	}

	if err := repo.Delete(ctx, product.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, product.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}
}

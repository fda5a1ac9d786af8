package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/cache/memory"
	"github.com/ventra/catalog-server/internal/domain"
	"github.com/ventra/catalog-server/internal/lock"
	"github.com/ventra/catalog-server/internal/repository"
)

// MockCategoryRepository is an in-memory repository.CategoryRepository.
type MockCategoryRepository struct {
	categories map[string]*domain.Category // keyed by slug
	nextID     int64
	listCalls  int
}

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		categories: make(map[string]*domain.Category),
		nextID:     1,
	}
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if _, exists := m.categories[category.Slug]; exists {
		return domain.ErrCategoryAlreadyExists
	}
	category.ID = m.nextID
	m.nextID++
	m.categories[category.Slug] = category
	return nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	for _, c := range m.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockCategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	if c, exists := m.categories[slug]; exists {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockCategoryRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	_, exists := m.categories[slug]
	return exists, nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	for slug, c := range m.categories {
		if c.ID == category.ID {
			delete(m.categories, slug)
			m.categories[category.Slug] = category
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int64) error {
	for slug, c := range m.categories {
		if c.ID == id {
			delete(m.categories, slug)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *MockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	m.listCalls++
	var result []*domain.Category
	for _, c := range m.categories {
		result = append(result, c)
	}
	return result, nil
}

func newTestCategoryService(repo *MockCategoryRepository, cache repository.Cache) *CategoryService {
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewCategoryService(repo, cache, lock.NewMemoryLocker(), clock, zerolog.Nop())
}

func TestCategoryService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("derives slug from name", func(t *testing.T) {
		repo := NewMockCategoryRepository()
		svc := newTestCategoryService(repo, nil)

		category, err := svc.Create(ctx, CreateCategoryInput{Name: "Gaming Laptops"})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if category.Slug != "gaming-laptops" {
			t.Errorf("slug = %q, want %q", category.Slug, "gaming-laptops")
		}
	})

	t.Run("rejects colliding slug", func(t *testing.T) {
		repo := NewMockCategoryRepository()
		svc := newTestCategoryService(repo, nil)

		if _, err := svc.Create(ctx, CreateCategoryInput{Name: "Audio Gear"}); err != nil {
			t.Fatalf("first create failed: %v", err)
		}
		// Different display name, same slug.
		_, err := svc.Create(ctx, CreateCategoryInput{Name: "audio GEAR"})
		if !errors.Is(err, domain.ErrCategoryAlreadyExists) {
			t.Errorf("error = %v, want ErrCategoryAlreadyExists", err)
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		repo := NewMockCategoryRepository()
		svc := newTestCategoryService(repo, nil)

		if _, err := svc.Create(ctx, CreateCategoryInput{Name: ""}); !errors.Is(err, ErrInvalidName) {
			t.Errorf("error = %v, want ErrInvalidName", err)
		}
	})
}

func TestCategoryService_ListCaching(t *testing.T) {
	ctx := context.Background()
	repo := NewMockCategoryRepository()
	cache := memory.NewCache()
	defer cache.Stop()
	svc := newTestCategoryService(repo, cache)

	if _, err := svc.Create(ctx, CreateCategoryInput{Name: "Keyboards"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// First list hits the repository, second is served from cache.
	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if _, err := svc.List(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if repo.listCalls != 1 {
		t.Errorf("repo list calls = %d, want 1", repo.listCalls)
	}

	// A write invalidates the cached listing.
	if _, err := svc.Create(ctx, CreateCategoryInput{Name: "Mice"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	listing, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if repo.listCalls != 2 {
		t.Errorf("repo list calls = %d, want 2 after invalidation", repo.listCalls)
	}
	if len(listing) != 2 {
		t.Errorf("listing length = %d, want 2", len(listing))
	}
}

func TestCategoryService_UpdateRename(t *testing.T) {
	ctx := context.Background()
	repo := NewMockCategoryRepository()
	svc := newTestCategoryService(repo, nil)

	created, err := svc.Create(ctx, CreateCategoryInput{Name: "Monitors"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	name := "Displays"
	updated, err := svc.Update(ctx, created.ID, UpdateCategoryInput{Name: &name})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Slug != "displays" {
		t.Errorf("slug = %q, want %q", updated.Slug, "displays")
	}

	// Rename onto an existing slug is rejected.
	if _, err := svc.Create(ctx, CreateCategoryInput{Name: "Webcams"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	clash := "Webcams"
	if _, err := svc.Update(ctx, created.ID, UpdateCategoryInput{Name: &clash}); !errors.Is(err, domain.ErrCategoryAlreadyExists) {
		t.Errorf("error = %v, want ErrCategoryAlreadyExists", err)
	}
}

func TestCategoryService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewMockCategoryRepository()
	svc := newTestCategoryService(repo, nil)

	created, err := svc.Create(ctx, CreateCategoryInput{Name: "Cables"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Errorf("error = %v, want ErrCategoryNotFound", err)
	}
}

package domain

import (
	"regexp"
	"strings"
	"time"
)

// Category groups products for navigation. Categories are identified
// externally by their slug, which is derived from the name.
type Category struct {
	// ID is the unique identifier for the category (auto-generated).
	ID int64 `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Slug is the unique URL-safe identifier derived from Name.
	Slug string `json:"slug"`

	// Description is the optional free-text description.
	Description string `json:"description"`

	// CreatedAt is the timestamp when the category was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the category was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

var slugStripPattern = regexp.MustCompile(`[^\w-]`)

// Slugify derives a URL-safe slug from a category name: lowercase, spaces
// collapsed to hyphens, everything outside [A-Za-z0-9_-] stripped.
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = strings.Join(strings.Fields(slug), "-")
	return slugStripPattern.ReplaceAllString(slug, "")
}

// NewCategory creates a new Category with its slug derived from the name.
func NewCategory(name, description string, now time.Time) *Category {
	return &Category{
		Name:        name,
		Slug:        Slugify(name),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

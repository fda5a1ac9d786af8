package domain

import (
	"time"
)

// Product is a catalog entry. Products reference their category by name and
// carry already-hosted image URLs; the media upload endpoint produces those
// URLs separately.
type Product struct {
	// ID is the unique identifier for the product (auto-generated).
	ID int64 `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Category is the category the product belongs to.
	Category string `json:"category"`

	// Images holds URLs of product images on the media host.
	Images []string `json:"images"`

	// Price is the list price.
	Price float64 `json:"price"`

	// Rating is the aggregate customer rating, 0 when unrated.
	Rating float64 `json:"rating"`

	// Badge is an optional marketing label ("New", "Sale").
	Badge string `json:"badge,omitempty"`

	// ShortDescription is the one-line summary shown in listings.
	ShortDescription string `json:"short_description"`

	// LongDescription is the full product copy.
	LongDescription string `json:"long_description"`

	// Specifications holds free-form key/value technical details.
	Specifications map[string]string `json:"specifications"`

	// Features lists bullet-point highlights.
	Features []string `json:"features"`

	// CreatedAt is the timestamp when the product was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the product was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

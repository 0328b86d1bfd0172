package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product is a product record owned by our own database
type Product struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Brand           *string   `json:"brand,omitempty"`
	Barcode         *string   `json:"barcode,omitempty"`
	AllergenWarning *string   `json:"allergenWarning,omitempty"`
	Ingredients     *string   `json:"ingredients,omitempty"`
	ImageURL        *string   `json:"imageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// LocalMatch is the slim view of a local product returned by a barcode lookup.
// A non-nil LocalMatch always wins over external catalogue data.
type LocalMatch struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Brand   *string `json:"brand,omitempty"`
	Barcode *string `json:"barcode,omitempty"`
}

// Match returns the LocalMatch view of the product
func (p *Product) Match() *LocalMatch {
	return &LocalMatch{
		ID:      p.ID.String(),
		Name:    p.Name,
		Brand:   p.Brand,
		Barcode: p.Barcode,
	}
}

// CreateProductRequest is the payload used to add a product to the local database,
// typically after the form has been pre-filled from the external catalogue.
type CreateProductRequest struct {
	Name            string  `json:"name" binding:"required" validate:"required,max=255"`
	Brand           *string `json:"brand,omitempty" validate:"omitempty,max=255"`
	Barcode         *string `json:"barcode,omitempty" validate:"omitempty,max=64"`
	AllergenWarning *string `json:"allergenWarning,omitempty"`
	Ingredients     *string `json:"ingredients,omitempty"`
	ImageURL        *string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// NormalizeBarcode trims surrounding whitespace. No checksum or length rules apply.
func NormalizeBarcode(barcode string) string {
	return strings.TrimSpace(barcode)
}

package openfoodfacts

import (
	"strings"

	"github.com/allertrack/backend/internal/domain"
)

// MapToProductForm converts an Open Food Facts product into the form used to
// create a local product. English fields win over generic ones; blanks stay nil.
func MapToProductForm(product *domain.CatalogProduct, barcode string) domain.ProductForm {
	form := domain.ProductForm{Barcode: barcode}
	if product == nil {
		return form
	}

	form.Name = firstNonBlank(product.ProductNameEN, product.ProductName)
	form.Brand = firstNonBlank(product.Brands)
	form.Description = firstNonBlank(product.GenericNameEN, product.GenericName)
	form.AllergenWarning = firstNonBlank(product.Allergens)
	form.Ingredients = firstNonBlank(product.IngredientsTextEN, product.IngredientsText)
	form.ImageURL = firstNonBlank(product.ImageURL)

	return form
}

// firstNonBlank returns a pointer to the first value that is not blank
func firstNonBlank(values ...string) *string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			s := v
			return &s
		}
	}
	return nil
}

package domain

import "strings"

// CatalogProduct is a product record from the Open Food Facts API.
// Every field is optional upstream.
type CatalogProduct struct {
	Code              string `json:"code,omitempty"`
	ProductName       string `json:"product_name,omitempty"`
	ProductNameEN     string `json:"product_name_en,omitempty"`
	GenericName       string `json:"generic_name,omitempty"`
	GenericNameEN     string `json:"generic_name_en,omitempty"`
	Brands            string `json:"brands,omitempty"`
	Allergens         string `json:"allergens,omitempty"`
	IngredientsText   string `json:"ingredients_text,omitempty"`
	IngredientsTextEN string `json:"ingredients_text_en,omitempty"`
	ImageURL          string `json:"image_url,omitempty"`
}

// IsEmpty reports whether the payload carries no usable product data
func (p *CatalogProduct) IsEmpty() bool {
	if p == nil {
		return true
	}
	for _, v := range []string{
		p.ProductName, p.ProductNameEN, p.GenericName, p.GenericNameEN, p.Brands,
		p.Allergens, p.IngredientsText, p.IngredientsTextEN, p.ImageURL,
	} {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// CatalogResponse represents the response of the Open Food Facts product endpoint
type CatalogResponse struct {
	Code          string          `json:"code"`
	Status        int             `json:"status"`
	StatusVerbose string          `json:"status_verbose"`
	Product       *CatalogProduct `json:"product,omitempty"`
}

// ProductForm is the normalized shape used to pre-fill the "new product" form.
// Absent upstream values stay nil.
type ProductForm struct {
	Name            *string `json:"name,omitempty"`
	Brand           *string `json:"brand,omitempty"`
	Description     *string `json:"description,omitempty"`
	AllergenWarning *string `json:"allergenWarning,omitempty"`
	Ingredients     *string `json:"ingredients,omitempty"`
	ImageURL        *string `json:"imageUrl,omitempty"`
	Barcode         string  `json:"barcode"`
}

package domain

import "errors"

var (
	// ErrProductNotFound is returned when a barcode is unknown to the external catalogue
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrMissingBarcode is returned when a lookup is triggered with a blank barcode
	ErrMissingBarcode = errors.New("missing barcode")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCatalogFailure is returned when the external catalogue request fails
	ErrCatalogFailure = errors.New("catalog request failed")

	// ErrRecordNotFound is returned when a local product does not exist
	ErrRecordNotFound = errors.New("product does not exist")

	// ErrDuplicateBarcode is returned when a product with the same barcode already exists
	ErrDuplicateBarcode = errors.New("a product with this barcode already exists")
)

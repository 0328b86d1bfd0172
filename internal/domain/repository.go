package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are stored as JSON and decoded into dest on Get.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CatalogClient defines the interface for the external product catalogue.
// A missing product is reported as ErrProductNotFound, distinct from transport failures.
type CatalogClient interface {
	GetProduct(ctx context.Context, barcode string) (*CatalogProduct, error)
}

// ProductRepository defines the interface for local product persistence
type ProductRepository interface {
	// FindByBarcode returns nil, nil when no product carries the barcode
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)
	FindByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, product *Product) error
	Search(ctx context.Context, query string, limit int) ([]*Product, error)
}

// LocalFinder is the local half of a barcode resolution
type LocalFinder interface {
	FindByBarcode(ctx context.Context, barcode string) (*LocalMatch, error)
}

// CatalogFinder is the external half of a barcode resolution
type CatalogFinder interface {
	Lookup(ctx context.Context, barcode string) (*CatalogProduct, error)
}

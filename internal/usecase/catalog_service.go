package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/allertrack/backend/internal/domain"
	"github.com/allertrack/backend/internal/infrastructure/openfoodfacts"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CacheTTL     time.Duration
	FetchTimeout time.Duration // bound on a shared upstream request
}

// CatalogService looks products up in the external catalogue with caching
type CatalogService struct {
	cache        domain.CacheRepository
	client       domain.CatalogClient
	cacheTTL     time.Duration
	fetchTimeout time.Duration
	logger       *zap.Logger
	inflight     singleflight.Group
}

// NewCatalogService creates a new catalog service with dependencies
func NewCatalogService(
	cache domain.CacheRepository,
	client domain.CatalogClient,
	config CatalogServiceConfig,
	logger *zap.Logger,
) *CatalogService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}
	fetchTimeout := config.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CatalogService{
		cache:        cache,
		client:       client,
		cacheTTL:     cacheTTL,
		fetchTimeout: fetchTimeout,
		logger:       logger.Named("catalog"),
	}
}

// Lookup returns the catalogue product for barcode.
// Flow: check cache -> query catalogue -> cache found products -> return.
// Misses and failures are never cached.
func (s *CatalogService) Lookup(ctx context.Context, barcode string) (*domain.CatalogProduct, error) {
	barcode = domain.NormalizeBarcode(barcode)
	if barcode == "" {
		return nil, domain.ErrMissingBarcode
	}

	key := catalogCacheKey(barcode)

	var cached domain.CatalogProduct
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.logger.Debug("cache hit", zap.String("barcode", barcode))
		return &cached, nil
	}

	// Concurrent misses for the same barcode share one upstream request. It
	// runs detached from the first caller so one caller giving up does not
	// fail the others; each caller still stops waiting when its own ctx ends.
	results := s.inflight.DoChan(barcode, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		product, err := s.client.GetProduct(fetchCtx, barcode)
		if err != nil {
			return nil, err
		}
		if !product.IsEmpty() {
			if err := s.cache.Set(fetchCtx, key, product, s.cacheTTL); err != nil {
				s.logger.Warn("failed to cache catalog product", zap.String("barcode", barcode), zap.Error(err))
			}
		}
		return product, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}
		if result.Shared {
			s.logger.Debug("shared in-flight catalog request", zap.String("barcode", barcode))
		}
		product, _ := result.Val.(*domain.CatalogProduct)
		return product, nil
	}
}

// Forget drops the cached catalogue entry for barcode, once the product
// exists locally the entry is no longer needed.
func (s *CatalogService) Forget(ctx context.Context, barcode string) error {
	barcode = domain.NormalizeBarcode(barcode)
	if barcode == "" {
		return nil
	}
	return s.cache.Delete(ctx, catalogCacheKey(barcode))
}

// LookupForm returns the catalogue product for barcode already normalized for
// the new-product form. Empty payloads count as not found.
func (s *CatalogService) LookupForm(ctx context.Context, barcode string) (*domain.ProductForm, error) {
	barcode = domain.NormalizeBarcode(barcode)

	product, err := s.Lookup(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if product.IsEmpty() {
		return nil, domain.ErrProductNotFound
	}

	form := openfoodfacts.MapToProductForm(product, barcode)
	return &form, nil
}

// catalogCacheKey creates the cache key for a barcode.
// Format: "catalog:{barcode}"
func catalogCacheKey(barcode string) string {
	return fmt.Sprintf("catalog:%s", barcode)
}

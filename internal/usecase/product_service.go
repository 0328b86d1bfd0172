package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/allertrack/backend/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	// candidates fetched per requested result before ranking
	searchCandidateFactor = 3
)

// ProductService manages products stored in our own database
type ProductService struct {
	repo     domain.ProductRepository
	ranker   *ProductRanker
	validate *validator.Validate
	logger   *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(repo domain.ProductRepository, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		repo:     repo,
		ranker:   NewProductRanker(1),
		validate: validator.New(),
		logger:   logger.Named("products"),
	}
}

// FindByBarcode returns the local match for barcode, or nil when no product
// carries it. Absence is not an error.
func (s *ProductService) FindByBarcode(ctx context.Context, barcode string) (*domain.LocalMatch, error) {
	barcode = domain.NormalizeBarcode(barcode)
	if barcode == "" {
		return nil, domain.ErrMissingBarcode
	}

	product, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("local lookup failed: %w", err)
	}
	if product == nil {
		return nil, nil
	}
	return product.Match(), nil
}

// Get returns a product by id
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// Create validates the request and stores a new product
func (s *ProductService) Create(ctx context.Context, request *domain.CreateProductRequest) (*domain.Product, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}

	req := normalizeCreateRequest(*request)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	if req.Barcode != nil {
		existing, err := s.repo.FindByBarcode(ctx, *req.Barcode)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, domain.ErrDuplicateBarcode
		}
	}

	product := &domain.Product{
		ID:              uuid.New(),
		Name:            req.Name,
		Brand:           req.Brand,
		Barcode:         req.Barcode,
		AllergenWarning: req.AllergenWarning,
		Ingredients:     req.Ingredients,
		ImageURL:        req.ImageURL,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, domain.ErrDuplicateBarcode) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("product created", zap.String("id", product.ID.String()), zap.String("name", product.Name))
	return product, nil
}

// Search returns products whose name matches query, best matches first
func (s *ProductService) Search(ctx context.Context, query string, limit int) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	candidates, err := s.repo.Search(ctx, query, limit*searchCandidateFactor)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	ranked := s.ranker.Rank(query, candidates)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// normalizeCreateRequest trims every field and turns blank optional fields into nil
func normalizeCreateRequest(req domain.CreateProductRequest) domain.CreateProductRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Brand = trimOptional(req.Brand)
	req.Barcode = trimOptional(req.Barcode)
	req.AllergenWarning = trimOptional(req.AllergenWarning)
	req.Ingredients = trimOptional(req.Ingredients)
	req.ImageURL = trimOptional(req.ImageURL)
	return req
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

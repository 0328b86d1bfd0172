package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/allertrack/backend/internal/domain"
	"github.com/allertrack/backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	products       *usecase.ProductService
	catalog        *usecase.CatalogService
	resolveTimeout time.Duration
	logger         *zap.Logger
}

// NewHandler creates a new HTTP handler. Nil services make their endpoints answer 501.
func NewHandler(
	products *usecase.ProductService,
	catalog *usecase.CatalogService,
	resolveTimeout time.Duration,
	logger *zap.Logger,
) *Handler {
	if resolveTimeout <= 0 {
		resolveTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		products:       products,
		catalog:        catalog,
		resolveTimeout: resolveTimeout,
		logger:         logger,
	}
}

// ResolveResponse is the body of a barcode resolution
type ResolveResponse struct {
	Barcode   string              `json:"barcode"`
	Outcome   domain.OutcomeKind  `json:"outcome"`
	ProductID string              `json:"productId,omitempty"`
	Form      *domain.ProductForm `json:"form,omitempty"`
	Notice    domain.Notice       `json:"notice"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "allertrack-backend",
		"version": serviceVersion,
	})
}

// GetProductByBarcode looks a barcode up in the local database only.
// A miss is a normal 200 with a null product.
func (h *Handler) GetProductByBarcode(c *gin.Context) {
	if h.products == nil {
		notConfigured(c, "product")
		return
	}

	match, err := h.products.FindByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": match})
}

// GetProduct returns a local product by id
func (h *Handler) GetProduct(c *gin.Context) {
	if h.products == nil {
		notConfigured(c, "product")
		return
	}

	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// SearchProducts searches local products by name
func (h *Handler) SearchProducts(c *gin.Context) {
	if h.products == nil {
		notConfigured(c, "product")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	products, err := h.products.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// CreateProduct adds a product to the local database
func (h *Handler) CreateProduct(c *gin.Context) {
	if h.products == nil {
		notConfigured(c, "product")
		return
	}

	var request domain.CreateProductRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	product, err := h.products.Create(c.Request.Context(), &request)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.catalog != nil && product.Barcode != nil {
		if err := h.catalog.Forget(c.Request.Context(), *product.Barcode); err != nil {
			h.logger.Warn("failed to evict catalog entry", zap.String("barcode", *product.Barcode), zap.Error(err))
		}
	}

	c.JSON(http.StatusCreated, product)
}

// GetCatalogProduct fetches a barcode from the external catalogue, normalized for the product form
func (h *Handler) GetCatalogProduct(c *gin.Context) {
	if h.catalog == nil {
		notConfigured(c, "catalog")
		return
	}

	form, err := h.catalog.LookupForm(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// ResolveBarcode runs one full barcode resolution: local database and
// external catalogue in parallel, local match first.
func (h *Handler) ResolveBarcode(c *gin.Context) {
	if h.products == nil || h.catalog == nil {
		notConfigured(c, "resolver")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.resolveTimeout)
	defer cancel()

	var response ResolveResponse
	resolver := usecase.NewBarcodeResolver(h.products, h.catalog, usecase.ResolverHandlers{
		OnProductFound: func(productID string) { response.ProductID = productID },
		OnCatalogData:  func(form domain.ProductForm) { response.Form = &form },
		OnSettled: func(barcode string, outcome domain.Outcome) {
			response.Barcode = barcode
			response.Outcome = outcome.Kind
		},
	}, usecase.NotifierFunc(func(notice domain.Notice) { response.Notice = notice }), h.logger)

	if err := resolver.TriggerBarcode(ctx, c.Param("barcode")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "notice": response.Notice})
		return
	}
	resolver.Wait()

	status := http.StatusOK
	if response.Outcome == domain.OutcomeFailed {
		status = http.StatusBadGateway
	}
	c.JSON(status, response)
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrMissingBarcode), errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrRecordNotFound), errors.Is(err, domain.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateBarcode):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrCatalogFailure), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func notConfigured(c *gin.Context, what string) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": what + " service not configured"})
}

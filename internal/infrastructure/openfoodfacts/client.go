package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/allertrack/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	maxAttempts      = 3
	maxErrorBodySize = 1024
	maxBodySize      = 4 << 20
)

// ClientConfig holds settings for the Open Food Facts client
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RequestsPerMinute caps outgoing product reads. Open Food Facts allows 100/min.
	RequestsPerMinute int
}

// Client handles communication with the Open Food Facts product API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	debug       bool
}

// NewClient creates a new Open Food Facts API client
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     cfg.BaseURL,
		userAgent:   cfg.UserAgent,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 10),
		logger:      logger.Named("openfoodfacts"),
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(msg string, fields ...zap.Field) {
	if c.debug {
		c.logger.Debug(msg, fields...)
	}
}

// exponentialBackoff returns the wait before retrying the given attempt (1-based)
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// retryable reports whether a status code is worth another attempt
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogFailure, err)
	}

	return resp, nil
}

// GetProduct fetches a product by barcode. Unknown barcodes yield domain.ErrProductNotFound.
func (c *Client) GetProduct(ctx context.Context, barcode string) (*domain.CatalogProduct, error) {
	reqURL := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(barcode))
	c.debugLog("get product", zap.String("barcode", barcode), zap.String("url", reqURL))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if !errors.Is(err, domain.ErrCatalogFailure) || ctx.Err() != nil {
				return nil, err
			}
			c.logger.Warn("request error", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			if !c.sleep(ctx, attempt) {
				return nil, lastErr
			}
			continue
		}

		product, err := c.decodeProduct(resp, barcode)
		if err == nil {
			return product, nil
		}

		var se *statusError
		if !errors.As(err, &se) || !retryable(se.code) {
			return nil, err
		}
		c.logger.Warn("api error", zap.Int("attempt", attempt), zap.Int("status", se.code))
		lastErr = err
		if !c.sleep(ctx, attempt) {
			return nil, lastErr
		}
	}

	c.logger.Error("all retries failed", zap.String("barcode", barcode), zap.Error(lastErr))
	return nil, lastErr
}

// statusError is an unexpected HTTP status from the API
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: status %d, body: %s", domain.ErrCatalogFailure, e.code, e.body)
}

// Unwrap reports a 429 as both a catalogue failure and rate limiting
func (e *statusError) Unwrap() []error {
	if e.code == http.StatusTooManyRequests {
		return []error{domain.ErrCatalogFailure, domain.ErrRateLimited}
	}
	return []error{domain.ErrCatalogFailure}
}

func (c *Client) decodeProduct(resp *http.Response, barcode string) (*domain.CatalogProduct, error) {
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := readLimitedBody(resp.Body, maxErrorBodySize)
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}

	body, err := readLimitedBody(resp.Body, maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrCatalogFailure, err)
	}

	var payload domain.CatalogResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrCatalogFailure, err)
	}

	if payload.Status == 0 || payload.Product == nil {
		c.debugLog("product not found", zap.String("barcode", barcode), zap.String("status", payload.StatusVerbose))
		return nil, domain.ErrProductNotFound
	}

	if payload.Product.Code == "" {
		payload.Product.Code = payload.Code
	}
	return payload.Product, nil
}

// sleep waits out the backoff for attempt; it returns false if ctx ends first
func (c *Client) sleep(ctx context.Context, attempt int) bool {
	if attempt == maxAttempts {
		return true
	}
	timer := time.NewTimer(exponentialBackoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

package openfoodfacts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/allertrack/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		BaseURL:   baseURL,
		UserAgent: "AllerTrack-Test/1.0",
		Timeout:   5 * time.Second,
	}, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "https://world.openfoodfacts.org", UserAgent: "ua"}, nil)

	assert.NotNil(t, client)
	assert.Equal(t, "https://world.openfoodfacts.org", client.baseURL)
	assert.Equal(t, "ua", client.userAgent)
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
	assert.NotNil(t, client.logger)
	assert.False(t, client.debug)
}

func TestSetDebug(t *testing.T) {
	client := newTestClient("https://api.example.com")

	client.SetDebug(true)
	assert.True(t, client.debug)
	client.debugLog("test message", zap.String("k", "v"))

	client.SetDebug(false)
	assert.False(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, exponentialBackoff(1))
	assert.Equal(t, 1000*time.Millisecond, exponentialBackoff(2))
	assert.Equal(t, 2000*time.Millisecond, exponentialBackoff(3))
}

func TestGetProduct_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/3017624010701.json", r.URL.Path)
		assert.Equal(t, "AllerTrack-Test/1.0", r.Header.Get("User-Agent"))

		writeJSON(w, domain.CatalogResponse{
			Code:   "3017624010701",
			Status: 1,
			Product: &domain.CatalogProduct{
				ProductNameEN: "Nutella",
				Brands:        "Ferrero",
				Allergens:     "en:milk,en:nuts",
			},
		})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).GetProduct(context.Background(), "3017624010701")

	require.NoError(t, err)
	assert.Equal(t, "Nutella", result.ProductNameEN)
	assert.Equal(t, "Ferrero", result.Brands)
	assert.Equal(t, "3017624010701", result.Code)
}

func TestGetProduct_NotFoundStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, domain.CatalogResponse{Code: "000", Status: 0, StatusVerbose: "product not found"})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).GetProduct(context.Background(), "000")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetProduct_NotFoundSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, domain.CatalogResponse{Code: "000", Status: 0, StatusVerbose: "product not found"})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).GetProduct(context.Background(), "000")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetProduct_ServerError_Retries(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, domain.CatalogResponse{Status: 1, Product: &domain.CatalogProduct{ProductName: "Prince"}})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).GetProduct(context.Background(), "123")

	require.NoError(t, err)
	assert.Equal(t, "Prince", result.ProductName)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestGetProduct_TooManyRequests_Retries(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, domain.CatalogResponse{Status: 1, Product: &domain.CatalogProduct{ProductName: "Prince"}})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).GetProduct(context.Background(), "123")

	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestGetProduct_TooManyRequests_ExhaustedIsRateLimited(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).GetProduct(context.Background(), "123")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.ErrorIs(t, err, domain.ErrCatalogFailure)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestGetProduct_ClientError_NotRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetProduct(context.Background(), "123")

	assert.ErrorIs(t, err, domain.ErrCatalogFailure)
	assert.NotErrorIs(t, err, domain.ErrRateLimited)
}

func TestGetProduct_ClientError_NoRetry(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).GetProduct(context.Background(), "bad")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrCatalogFailure)
	assert.NotErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestGetProduct_AllRetriesFail(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).GetProduct(context.Background(), "all-fail")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrCatalogFailure)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(maxAttempts), atomic.LoadInt32(&attempts))
}

func TestGetProduct_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).GetProduct(context.Background(), "invalid-json")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrCatalogFailure)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestGetProduct_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := newTestClient(server.URL).GetProduct(ctx, "timeout-test")

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetProduct_RequestCreationError(t *testing.T) {
	result, err := newTestClient("://invalid-url").GetProduct(context.Background(), "test")

	assert.Nil(t, result)
	assert.Error(t, err)
}

func TestReadLimitedBody(t *testing.T) {
	body, err := readLimitedBody(strings.NewReader("short content"), 1000)
	require.NoError(t, err)
	assert.Equal(t, "short content", string(body))

	body, err = readLimitedBody(strings.NewReader(strings.Repeat("0123456789", 100)), 100)
	require.NoError(t, err)
	assert.Len(t, body, 100)
}

package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront-cart/internal/config"
	"github.com/rl1809/storefront-cart/internal/port"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.CatalogConfig{
		Driver:  config.CatalogDriverHTTP,
		BaseURL: srv.URL + "/",
		Timeout: time.Second,
		CircuitBreaker: config.CircuitBreakerConfig{
			ConsecutiveFailures: 3,
			MaxRequests:         1,
			OpenTimeout:         time.Minute,
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHTTPClient(cfg, logger), &calls
}

func TestHTTPClient_GetStock(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/3", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":3,"amount":7}`))
	})

	stock, err := client.GetStock(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stock.ID)
	assert.Equal(t, 7, stock.Amount)
}

func TestHTTPClient_GetProduct(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":1,"title":"Tênis de Caminhada","price":179.9,"image":"https://img/1.jpg"}`))
	})

	p, err := client.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "Tênis de Caminhada", p.Name)
	assert.Equal(t, 179.9, p.Price)
	assert.Equal(t, "https://img/1.jpg", p.ImageURL)
}

func TestHTTPClient_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		body        string
		expectError error
	}{
		{name: "not found", status: http.StatusNotFound, expectError: port.ErrUnknownProduct},
		{name: "server error", status: http.StatusInternalServerError, expectError: ErrUnexpectedStatus},
		{name: "bad body", status: http.StatusOK, body: "<html>"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := client.GetStock(context.Background(), 1)
			require.Error(t, err)
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
			}
		})
	}
}

func TestHTTPClient_CircuitBreakerOpens(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 3; i++ {
		_, err := client.GetStock(context.Background(), 1)
		require.ErrorIs(t, err, ErrUnexpectedStatus)
	}
	require.Equal(t, int32(3), calls.Load())

	_, err := client.GetStock(context.Background(), 1)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), calls.Load(), "open breaker must not reach the catalog")
}

func TestHTTPClient_UnknownProductDoesNotTrip(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 10; i++ {
		_, err := client.GetProduct(context.Background(), 42)
		require.ErrorIs(t, err, port.ErrUnknownProduct)
	}
	assert.Equal(t, int32(10), calls.Load())
}

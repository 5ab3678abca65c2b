// Package catalog provides CatalogClient implementations backed by the remote
// catalog API or by an in-process table.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rl1809/storefront-cart/internal/config"
	"github.com/rl1809/storefront-cart/internal/core/domain"
	"github.com/rl1809/storefront-cart/internal/port"
)

const maxResponseBytes = 1 << 20

var ErrUnexpectedStatus = errors.New("unexpected catalog response status")

type stockResponse struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

type productResponse struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// HTTPClient reads stock and products from the catalog REST API.
// Calls go through a circuit breaker; unknown products do not count as failures.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

func NewHTTPClient(cfg config.CatalogConfig, logger *slog.Logger) *HTTPClient {
	logger = logger.With("component", "catalog")
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: newBreaker(cfg.CircuitBreaker, logger),
		logger:  logger,
	}
}

func newBreaker(cfg config.CircuitBreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	st := gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, port.ErrUnknownProduct)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return gobreaker.NewCircuitBreaker[[]byte](st)
}

func (c *HTTPClient) GetStock(ctx context.Context, productID int64) (domain.Stock, error) {
	var resp stockResponse
	if err := c.get(ctx, fmt.Sprintf("/stock/%d", productID), &resp); err != nil {
		return domain.Stock{}, err
	}
	return domain.Stock{ID: productID, Amount: resp.Amount}, nil
}

func (c *HTTPClient) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	var resp productResponse
	if err := c.get(ctx, fmt.Sprintf("/products/%d", productID), &resp); err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		ID:       productID,
		Name:     resp.Title,
		Price:    resp.Price,
		ImageURL: resp.Image,
	}, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, port.ErrUnknownProduct
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	})
	if err != nil {
		c.logger.DebugContext(ctx, "Catalog request failed", "path", path, "error", err)
		return fmt.Errorf("GET %s: %w", path, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

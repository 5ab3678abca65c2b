package handler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront-cart/internal/adapter/catalog"
	"github.com/rl1809/storefront-cart/internal/adapter/storage"
	"github.com/rl1809/storefront-cart/internal/config"
	"github.com/rl1809/storefront-cart/internal/core/service"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
}

func (n *recordingNotifier) Success(context.Context, string) {}

func (n *recordingNotifier) Error(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

// newCartService returns a service over two products: 1 with stock 2, 2 with stock 5.
func newCartService(t *testing.T) (*service.CartService, *recordingNotifier) {
	t.Helper()
	seed := []config.SeedProduct{
		{ID: 1, Title: "Sneaker", Price: 139.9, Image: "https://cdn.example.com/1.jpg", Stock: 2},
		{ID: 2, Title: "Boot", Price: 210, Image: "https://cdn.example.com/2.jpg", Stock: 5},
	}
	notifier := &recordingNotifier{}
	svc := service.NewCartService(context.Background(), catalog.NewStatic(seed), storage.NewMemoryAdapter(), notifier,
		service.Options{Logger: discard})
	require.NotNil(t, svc)
	return svc, notifier
}

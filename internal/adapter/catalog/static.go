package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/rl1809/storefront-cart/internal/config"
	"github.com/rl1809/storefront-cart/internal/core/domain"
	"github.com/rl1809/storefront-cart/internal/port"
)

// Static is an in-process catalog, used for local runs and load tests.
type Static struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
	stock    map[int64]int
}

func NewStatic(seed []config.SeedProduct) *Static {
	s := &Static{
		products: make(map[int64]domain.Product, len(seed)),
		stock:    make(map[int64]int, len(seed)),
	}
	for _, p := range seed {
		s.Put(domain.Product{ID: p.ID, Name: p.Title, Price: p.Price, ImageURL: p.Image}, p.Stock)
	}
	return s
}

// Put adds or replaces a product and its stock.
func (s *Static) Put(p domain.Product, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	s.stock[p.ID] = stock
}

func (s *Static) GetStock(_ context.Context, productID int64) (domain.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	amount, ok := s.stock[productID]
	if !ok {
		return domain.Stock{}, fmt.Errorf("stock of product %d: %w", productID, port.ErrUnknownProduct)
	}
	return domain.Stock{ID: productID, Amount: amount}, nil
}

func (s *Static) GetProduct(_ context.Context, productID int64) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %d: %w", productID, port.ErrUnknownProduct)
	}
	return p, nil
}

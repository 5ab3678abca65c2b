package port

import (
	"context"
	"errors"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

// ErrUnknownProduct is returned by catalog clients for ids the catalog does not hold.
var ErrUnknownProduct = errors.New("unknown product")

type CatalogClient interface {
	// GetStock returns the quantity currently available for the product
	GetStock(ctx context.Context, productID int64) (domain.Stock, error)

	// GetProduct returns the descriptive fields of the product
	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
}

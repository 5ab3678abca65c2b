package handler

import (
	"errors"
	"net/http"

	"github.com/rl1809/storefront-cart/internal/core/domain"
	"github.com/rl1809/storefront-cart/internal/core/service"
)

// CartResponse is the cart as shown to the storefront.
type CartResponse struct {
	Items    []domain.CartItem `json:"items"`
	Quantity int               `json:"quantity"`
	Total    float64           `json:"total"`
}

func newCartResponse(c domain.Cart) CartResponse {
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return CartResponse{
		Items:    items,
		Quantity: c.Quantity(),
		Total:    c.Total(),
	}
}

// failure maps a cart error to an HTTP status and a message for the caller.
func failure(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		return http.StatusNotFound, service.MsgNotInCart
	case errors.Is(err, service.ErrStockExceeded):
		return http.StatusConflict, service.MsgStockExceeded
	case errors.Is(err, service.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, service.MsgInvalidAmount
	case errors.Is(err, service.ErrRemoteLookup):
		return http.StatusBadGateway, "catalog unavailable"
	case errors.Is(err, service.ErrAborted):
		return http.StatusServiceUnavailable, "operation aborted"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

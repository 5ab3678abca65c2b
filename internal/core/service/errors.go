package service

import "errors"

var (
	ErrRemoteLookup    = errors.New("catalog lookup failed")
	ErrStockExceeded   = errors.New("insufficient stock")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrProductNotFound = errors.New("product not found in cart")
	ErrAborted         = errors.New("operation aborted")
)

// Messages handed to the notifier.
const (
	MsgAddFailed     = "Failed to add product to cart"
	MsgRemoveFailed  = "Failed to remove product from cart"
	MsgUpdateFailed  = "Failed to update product amount"
	MsgStockExceeded = "Requested amount is out of stock"
	MsgInvalidAmount = "Amount must be at least 1"
	MsgNotInCart     = "Product is not in the cart"
	MsgSaveFailed    = "Cart could not be saved, changes may be lost on reload"
	MsgProductAdded  = "Product added to cart"
)

// messageFor picks the notification for a failed operation.
// Errors without a category of their own fall back to the operation's failure message.
func messageFor(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrStockExceeded):
		return MsgStockExceeded
	case errors.Is(err, ErrInvalidAmount):
		return MsgInvalidAmount
	case errors.Is(err, ErrProductNotFound):
		return MsgNotInCart
	default:
		return fallback
	}
}

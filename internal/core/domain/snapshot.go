package domain

import (
	"encoding/json"
	"fmt"
)

// EncodeSnapshot serializes the cart items in order.
func EncodeSnapshot(c Cart) ([]byte, error) {
	items := c.Items
	if items == nil {
		items = []CartItem{}
	}
	return json.Marshal(items)
}

// DecodeSnapshot parses a snapshot written by EncodeSnapshot.
// A snapshot that breaks the cart invariants is rejected.
func DecodeSnapshot(data []byte) (Cart, error) {
	var items []CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return Cart{}, fmt.Errorf("decode snapshot: %w", err)
	}
	cart := Cart{Items: items}
	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	if err := cart.Validate(); err != nil {
		return Cart{}, fmt.Errorf("invalid snapshot: %w", err)
	}
	return cart, nil
}

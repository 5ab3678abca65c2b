package domain

import "fmt"

// CartItem is one distinct product held in the cart.
// Name, Price and ImageURL are copied from the catalog when the item is first added.
type CartItem struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageUrl"`
	Amount   int     `json:"amount"`
}

// WithAmount returns a copy of the item holding the given amount.
func (i CartItem) WithAmount(amount int) CartItem {
	i.Amount = amount
	return i
}

// NewCartItem builds a cart entry for a product that is not yet in the cart.
func NewCartItem(p Product) CartItem {
	return CartItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL,
		Amount:   1,
	}
}

// Cart is an ordered list of items, unique by ID.
type Cart struct {
	Items []CartItem `json:"items"`
}

// Find returns the position of the item with the given product ID.
func (c Cart) Find(id int64) (int, bool) {
	for i, item := range c.Items {
		if item.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a cart that shares no memory with c.
func (c Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

func (c Cart) Len() int {
	return len(c.Items)
}

// Quantity is the total number of units in the cart.
func (c Cart) Quantity() int {
	n := 0
	for _, item := range c.Items {
		n += item.Amount
	}
	return n
}

func (c Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Amount)
	}
	return total
}

// Validate checks that ids are unique and every amount is at least one.
func (c Cart) Validate() error {
	seen := make(map[int64]struct{}, len(c.Items))
	for _, item := range c.Items {
		if item.Amount < 1 {
			return fmt.Errorf("item %d: amount %d is below 1", item.ID, item.Amount)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("item %d: duplicate entry", item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

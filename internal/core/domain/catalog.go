package domain

// Product is the catalog description of an item.
type Product struct {
	ID       int64
	Name     string
	Price    float64
	ImageURL string
}

// Stock is the quantity the warehouse currently holds for a product.
type Stock struct {
	ID     int64
	Amount int
}

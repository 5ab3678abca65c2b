package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/storefront-cart/internal/core/domain"
	"github.com/rl1809/storefront-cart/internal/port"
)

// MySQLAdapter serves catalog lookups from the products and inventory tables.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) GetStock(ctx context.Context, productID int64) (domain.Stock, error) {
	stock := domain.Stock{ID: productID}
	err := m.db.QueryRowContext(ctx, `
		SELECT stock FROM inventory WHERE product_id = ?`, productID,
	).Scan(&stock.Amount)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Stock{}, fmt.Errorf("stock of product %d: %w", productID, port.ErrUnknownProduct)
	}
	if err != nil {
		return domain.Stock{}, fmt.Errorf("query inventory: %w", err)
	}

	return stock, nil
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT id, title, price, image FROM products WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.ImageURL)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %d: %w", productID, port.ErrUnknownProduct)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("query product: %w", err)
	}

	return p, nil
}

// SetStock upserts the inventory row of a product.
func (m *MySQLAdapter) SetStock(ctx context.Context, productID int64, amount int) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory (product_id, stock) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE stock = VALUES(stock)`,
		productID, amount,
	)
	if err != nil {
		return fmt.Errorf("upsert inventory: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

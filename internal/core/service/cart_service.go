package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/rl1809/storefront-cart/internal/core/domain"
	"github.com/rl1809/storefront-cart/internal/port"
)

const DefaultSnapshotKey = "storefront:cart"

type Options struct {
	// SnapshotKey is the key the cart snapshot is stored under.
	SnapshotKey string
	Logger      *slog.Logger
}

// Listener receives every cart published after a successful mutation.
// It runs while the next operation is held back and must not call into the service.
type Listener func(domain.Cart)

// CartService owns the cart of one storefront session.
// Mutations run one at a time, including their catalog lookups, so two
// concurrent additions of the same product never lose an update.
type CartService struct {
	catalog   port.CatalogClient
	snapshots port.SnapshotStore
	notifier  port.Notifier
	key       string
	logger    *slog.Logger

	turn chan struct{}

	mu        sync.RWMutex
	cart      domain.Cart
	listeners map[int]Listener
	nextID    int
}

// mutation computes the next cart from the current one. It must not modify current.
type mutation func(current domain.Cart) (domain.Cart, error)

// NewCartService builds the service and restores the cart from the snapshot store.
// A missing, unreadable or malformed snapshot yields an empty cart.
func NewCartService(ctx context.Context, catalog port.CatalogClient, snapshots port.SnapshotStore, notifier port.Notifier, opts Options) *CartService {
	if opts.SnapshotKey == "" {
		opts.SnapshotKey = DefaultSnapshotKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &CartService{
		catalog:   catalog,
		snapshots: snapshots,
		notifier:  notifier,
		key:       opts.SnapshotKey,
		logger:    logger.With("component", "cart"),
		turn:      make(chan struct{}, 1),
		listeners: make(map[int]Listener),
	}
	s.cart = s.load(ctx)
	return s
}

func (s *CartService) load(ctx context.Context) domain.Cart {
	empty := domain.Cart{Items: []domain.CartItem{}}

	data, ok, err := s.snapshots.Read(ctx, s.key)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read cart snapshot, starting empty", "key", s.key, "error", err)
		return empty
	}
	if !ok {
		return empty
	}

	cart, err := domain.DecodeSnapshot(data)
	if err != nil {
		s.logger.WarnContext(ctx, "Discarding malformed cart snapshot", "key", s.key, "error", err)
		return empty
	}
	s.logger.InfoContext(ctx, "Cart restored from snapshot", "items", cart.Len())
	return cart
}

// Cart returns a copy of the last published cart.
func (s *CartService) Cart() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Subscribe registers l for future publications and returns a function removing it.
func (s *CartService) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// AddProduct adds one unit of the product, bounded by the stock the catalog reports.
func (s *CartService) AddProduct(ctx context.Context, productID int64) (domain.Cart, error) {
	return s.run(ctx, "add_product", MsgAddFailed, MsgProductAdded, func(current domain.Cart) (domain.Cart, error) {
		idx, exists := current.Find(productID)
		currentAmount := 0
		if exists {
			currentAmount = current.Items[idx].Amount
		}

		stock, err := s.catalog.GetStock(ctx, productID)
		if err != nil {
			return current, fmt.Errorf("%w: stock of product %d: %w", ErrRemoteLookup, productID, err)
		}

		requested := currentAmount + 1
		if requested > stock.Amount {
			return current, fmt.Errorf("%w: product %d requested %d, available %d",
				ErrStockExceeded, productID, requested, stock.Amount)
		}

		next := current.Clone()
		if exists {
			next.Items[idx] = next.Items[idx].WithAmount(requested)
			return next, nil
		}

		product, err := s.catalog.GetProduct(ctx, productID)
		if err != nil {
			return current, fmt.Errorf("%w: product %d: %w", ErrRemoteLookup, productID, err)
		}
		item := domain.NewCartItem(product)
		item.ID = productID
		next.Items = append(next.Items, item)
		return next, nil
	})
}

// RemoveProduct drops the product's entry entirely.
func (s *CartService) RemoveProduct(ctx context.Context, productID int64) (domain.Cart, error) {
	return s.run(ctx, "remove_product", MsgRemoveFailed, "", func(current domain.Cart) (domain.Cart, error) {
		idx, ok := current.Find(productID)
		if !ok {
			return current, fmt.Errorf("%w: product %d", ErrProductNotFound, productID)
		}

		next := domain.Cart{Items: make([]domain.CartItem, 0, current.Len()-1)}
		next.Items = append(next.Items, current.Items[:idx]...)
		next.Items = append(next.Items, current.Items[idx+1:]...)
		return next, nil
	})
}

// UpdateProductAmount sets the amount of a product already in the cart.
// It never creates entries; lowering to zero goes through RemoveProduct.
func (s *CartService) UpdateProductAmount(ctx context.Context, productID int64, amount int) (domain.Cart, error) {
	return s.run(ctx, "update_product_amount", MsgUpdateFailed, "", func(current domain.Cart) (domain.Cart, error) {
		if amount <= 0 {
			return current, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
		}
		idx, ok := current.Find(productID)
		if !ok {
			return current, fmt.Errorf("%w: product %d", ErrProductNotFound, productID)
		}

		stock, err := s.catalog.GetStock(ctx, productID)
		if err != nil {
			return current, fmt.Errorf("%w: stock of product %d: %w", ErrRemoteLookup, productID, err)
		}
		if amount > stock.Amount {
			return current, fmt.Errorf("%w: product %d requested %d, available %d",
				ErrStockExceeded, productID, amount, stock.Amount)
		}

		next := current.Clone()
		next.Items[idx] = next.Items[idx].WithAmount(amount)
		return next, nil
	})
}

// run executes one mutation with exclusive access to the cart. On failure the
// cart is left as it was and exactly one error notification is sent.
func (s *CartService) run(ctx context.Context, op, failMsg, okMsg string, fn mutation) (cart domain.Cart, err error) {
	select {
	case s.turn <- struct{}{}:
	case <-ctx.Done():
		s.notifier.Error(ctx, failMsg)
		return s.Cart(), fmt.Errorf("%w: %s: %w", ErrAborted, op, ctx.Err())
	}
	defer func() { <-s.turn }()

	current := s.Cart()
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Cart operation panicked", "op", op, "panic", r)
			s.notifier.Error(ctx, failMsg)
			cart, err = current, fmt.Errorf("%w: %s: %v", ErrAborted, op, r)
		}
	}()

	next, err := fn(current)
	if err != nil {
		s.logger.WarnContext(ctx, "Cart operation rejected", "op", op, "error", err)
		s.notifier.Error(ctx, messageFor(err, failMsg))
		return current, err
	}

	s.commit(ctx, next)
	s.logger.DebugContext(ctx, "Cart updated", "op", op, "items", next.Len(), "quantity", next.Quantity())
	if okMsg != "" {
		s.notifier.Success(ctx, okMsg)
	}
	return next.Clone(), nil
}

// commit persists and publishes next. A failed write keeps the in-memory cart.
func (s *CartService) commit(ctx context.Context, next domain.Cart) {
	if err := s.persist(context.WithoutCancel(ctx), next); err != nil {
		s.logger.WarnContext(ctx, "Cart snapshot not saved", "key", s.key, "error", err)
		s.notifier.Error(ctx, MsgSaveFailed)
	}

	s.mu.Lock()
	s.cart = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		s.deliver(ctx, l, next.Clone())
	}
}

func (s *CartService) deliver(ctx context.Context, l Listener, cart domain.Cart) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Cart listener panicked", "panic", r)
		}
	}()
	l(cart)
}

func (s *CartService) persist(ctx context.Context, cart domain.Cart) error {
	data, err := domain.EncodeSnapshot(cart)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.snapshots.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

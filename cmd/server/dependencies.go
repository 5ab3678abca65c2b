package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/storefront-cart/internal/adapter/catalog"
	"github.com/rl1809/storefront-cart/internal/adapter/notify"
	"github.com/rl1809/storefront-cart/internal/adapter/storage"
	"github.com/rl1809/storefront-cart/internal/config"
	"github.com/rl1809/storefront-cart/internal/port"
)

type dependencies struct {
	catalog   port.CatalogClient
	snapshots port.SnapshotStore
	notifier  port.Notifier
	closers   []func()
}

// close releases resources in reverse order of creation.
func (d *dependencies) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func setupDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	d := &dependencies{}
	ok := false
	defer func() {
		if !ok {
			d.close()
		}
	}()

	snapshots, err := d.setupSnapshots(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	d.snapshots = snapshots

	cat, err := d.setupCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	d.catalog = cat

	notifier, err := d.setupNotifier(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	d.notifier = notifier

	ok = true
	return d, nil
}

func (d *dependencies) setupSnapshots(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.SnapshotStore, error) {
	if cfg.Snapshot.Driver == config.SnapshotDriverMemory {
		logger.Warn("Using in-memory cart snapshots, the cart will not survive restarts")
		return storage.NewMemoryAdapter(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	d.closers = append(d.closers, func() {
		if err := rdb.Close(); err != nil {
			logger.Error("Failed to close redis client", "error", err)
		}
	})

	adapter := storage.NewRedisAdapter(rdb, cfg.Snapshot.TTL)
	if err := adapter.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	logger.Info("Connected to redis", "addr", cfg.Redis.Addr)
	return adapter, nil
}

func (d *dependencies) setupCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.CatalogClient, error) {
	switch cfg.Catalog.Driver {
	case config.CatalogDriverStatic:
		logger.Info("Using static catalog", "products", len(cfg.Catalog.Seed))
		return catalog.NewStatic(cfg.Catalog.Seed), nil
	case config.CatalogDriverMySQL:
		return d.setupMySQLCatalog(ctx, cfg, logger)
	default:
		logger.Info("Using remote catalog", "base_url", cfg.Catalog.BaseURL)
		return catalog.NewHTTPClient(cfg.Catalog, logger), nil
	}
}

func (d *dependencies) setupMySQLCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.CatalogClient, error) {
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}
	d.closers = append(d.closers, func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close mysql", "error", err)
		}
	})
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnLifetime)

	adapter := storage.NewMySQLAdapter(db)
	if err := adapter.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}
	logger.Info("Connected to mysql")

	// Seed entries only reset stock levels; product rows are owned by the catalog.
	for _, p := range cfg.Catalog.Seed {
		if err := adapter.SetStock(ctx, p.ID, p.Stock); err != nil {
			return nil, fmt.Errorf("failed to seed stock of product %d: %w", p.ID, err)
		}
		logger.Info("Initialized stock", "product_id", p.ID, "stock", p.Stock)
	}
	return adapter, nil
}

func (d *dependencies) setupNotifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.Notifier, error) {
	targets := notify.Fanout{notify.NewLogNotifier(logger)}

	if cfg.NATS.Enabled {
		nc, js, err := notify.Connect(ctx, cfg.NATS.URL, cfg.NATS.Subject, cfg.NATS.Timeout)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() {
			if err := nc.Drain(); err != nil {
				logger.Error("Failed to drain NATS connection", "error", err)
			}
		})
		targets = append(targets, notify.NewNATSNotifier(js, cfg.NATS.Subject, logger))
		logger.Info("Publishing notifications to NATS", "subject", cfg.NATS.Subject)
	}

	dispatcher := notify.NewDispatcher(targets, cfg.Notify.Workers, cfg.Notify.QueueSize, logger)
	d.closers = append(d.closers, dispatcher.Close)
	return dispatcher, nil
}

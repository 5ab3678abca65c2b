package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/storefront-cart/internal/adapter/catalog"
	"github.com/rl1809/storefront-cart/internal/adapter/notify"
	"github.com/rl1809/storefront-cart/internal/adapter/storage"
	"github.com/rl1809/storefront-cart/internal/config"
	"github.com/rl1809/storefront-cart/internal/core/service"
	"github.com/rl1809/storefront-cart/internal/logger"
)

const (
	redisAddr     = "localhost:6379"
	snapshotKey   = "storefront:cart:stress"
	productID     = 1
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()
	appLogger := logger.NewWithWriter(os.Stderr, "error")

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Clear previous test data
	rdb.Del(ctx, snapshotKey)

	snapshots := storage.NewRedisAdapter(rdb, 0)
	cat := catalog.NewStatic([]config.SeedProduct{
		{ID: productID, Title: "Limited sneaker", Price: 199.9, Image: "https://cdn.example.com/1.jpg", Stock: initialStock},
	})
	dispatcher := notify.NewDispatcher(notify.NewLogNotifier(appLogger), 4, totalRequests*2, appLogger)
	defer dispatcher.Close()

	cart := service.NewCartService(ctx, cat, snapshots, dispatcher, service.Options{
		SnapshotKey: snapshotKey,
		Logger:      appLogger,
	})

	var successCount atomic.Int32
	var stockCount atomic.Int32
	var otherCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := cart.AddProduct(ctx, productID)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, service.ErrStockExceeded):
				stockCount.Add(1)
			default:
				otherCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	rejected := stockCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Stock:            %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Added:            %d\n", success)
	fmt.Printf("Out of stock:     %d\n", rejected)
	fmt.Printf("Other failures:   %d\n", otherCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == initialStock && rejected == totalRequests-initialStock {
		fmt.Printf("PASS: Exactly %d additions succeeded, %d rejected\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d added/%d rejected, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, rejected)
	}

	// Verify the amount in memory and in the persisted snapshot
	inMemory := amountOf(cart, productID)
	reloaded := amountOf(service.NewCartService(ctx, cat, snapshots, dispatcher, service.Options{
		SnapshotKey: snapshotKey,
		Logger:      appLogger,
	}), productID)
	fmt.Printf("Cart amount:      %d\n", inMemory)
	fmt.Printf("Snapshot amount:  %d\n", reloaded)

	if inMemory == initialStock && reloaded == initialStock {
		fmt.Println("PASS: Cart amount equals stock")
	} else {
		fmt.Printf("FAIL: Expected amount %d, got %d in memory and %d in snapshot\n", initialStock, inMemory, reloaded)
	}
}

func amountOf(cart *service.CartService, id int64) int {
	c := cart.Cart()
	if idx, ok := c.Find(id); ok {
		return c.Items[idx].Amount
	}
	return 0
}

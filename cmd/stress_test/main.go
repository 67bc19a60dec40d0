// Command stress_test hammers the sale engine with concurrent baskets
// against the in-memory store and checks that stock is never oversold.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ktran209/go-pos/internal/adapter/storage"
	"github.com/ktran209/go-pos/internal/core/domain"
	"github.com/ktran209/go-pos/internal/core/service"
)

const (
	sku           = "SKU001"
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()

	store := storage.NewMemoryAdapter()
	catalog := service.NewCatalogService(store)
	sales := service.NewSaleService(store, nil)

	if _, err := catalog.CreateProduct(ctx, sku, "Apple (kg)", decimal.RequireFromString("2.50"), initialStock); err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}

	var successCount atomic.Int32
	var stockFailCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := sales.ProcessSale(ctx, "", []domain.LineRequest{{ProductSKU: sku, Quantity: 1}})
			var stockErr *domain.InsufficientStockError
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.As(err, &stockErr):
				stockFailCount.Add(1)
			default:
				log.Fatalf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := stockFailCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Out of stock:     %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == initialStock && fail == totalRequests-initialStock {
		fmt.Printf("PASS: exactly %d sales succeeded, %d rejected\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	product, err := store.ProductBySKU(ctx, sku)
	if err != nil {
		log.Fatalf("failed to read final stock: %v", err)
	}
	fmt.Printf("Final Stock: %d\n", product.StockQuantity)

	if product.StockQuantity == 0 {
		fmt.Println("PASS: stock depleted to 0")
	} else {
		fmt.Printf("FAIL: expected stock 0, got %d\n", product.StockQuantity)
	}
}

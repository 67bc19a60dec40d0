package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ktran209/go-pos/internal/core/domain"
)

func TestCreateProduct_Validation(t *testing.T) {
	svc := NewCatalogService(seedStore(t))

	cases := []struct {
		name  string
		sku   string
		pname string
		price string
		stock int
	}{
		{"empty sku", "", "Bread", "3.00", 30},
		{"empty name", "SKU003", "", "3.00", 30},
		{"zero price", "SKU003", "Bread", "0", 30},
		{"negative price", "SKU003", "Bread", "-1.00", 30},
		{"negative stock", "SKU003", "Bread", "3.00", -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), tc.sku, tc.pname, price(tc.price), tc.stock)
			var invalid *domain.InvalidLineItemError
			if !errors.As(err, &invalid) {
				t.Errorf("expected validation error, got: %v", err)
			}
		})
	}
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	svc := NewCatalogService(seedStore(t))

	if _, err := svc.CreateProduct(context.Background(), "SKU003", "Bread", price("3.00"), 30); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := svc.CreateProduct(context.Background(), "SKU003", "Bread", price("3.00"), 30)
	if !errors.Is(err, domain.ErrDuplicateSKU) {
		t.Errorf("expected ErrDuplicateSKU, got: %v", err)
	}
}

func TestUpdateProduct_NotFound(t *testing.T) {
	svc := NewCatalogService(seedStore(t))

	err := svc.UpdateProduct(context.Background(), "SKU999", "Ghost", price("1.00"), 1)
	var notFound *domain.ProductNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ProductNotFoundError, got: %v", err)
	}
	if notFound.SKU != "SKU999" {
		t.Errorf("expected SKU999, got %q", notFound.SKU)
	}
}

func TestUpdateProduct_ReplacesFields(t *testing.T) {
	store := seedStore(t, domain.Product{SKU: "SKU003", Name: "Bread", Price: price("3.00"), StockQuantity: 30})
	svc := NewCatalogService(store)

	if err := svc.UpdateProduct(context.Background(), "SKU003", "Sourdough", price("4.25"), 12); err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}

	p, err := store.ProductBySKU(context.Background(), "SKU003")
	if err != nil {
		t.Fatalf("ProductBySKU failed: %v", err)
	}
	if p.Name != "Sourdough" || !p.Price.Equal(price("4.25")) || p.StockQuantity != 12 {
		t.Errorf("update not applied: %+v", p)
	}
}

func TestListProducts_OrderedBySKU(t *testing.T) {
	store := seedStore(t,
		domain.Product{SKU: "SKU002", Name: "Milk (1L)", Price: price("1.20"), StockQuantity: 100},
		domain.Product{SKU: "SKU001", Name: "Apple (kg)", Price: price("2.50"), StockQuantity: 50},
	)
	svc := NewCatalogService(store)

	products, err := svc.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(products) != 2 || products[0].SKU != "SKU001" || products[1].SKU != "SKU002" {
		t.Errorf("unexpected order: %+v", products)
	}
}

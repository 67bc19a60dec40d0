package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ktran209/go-pos/internal/core/domain"
	"github.com/ktran209/go-pos/internal/port"
)

// CatalogService manages product records. Its writes are independent
// of the sale transaction; only the sale engine performs stock debits.
type CatalogService struct {
	store port.ProductStore
}

func NewCatalogService(store port.ProductStore) *CatalogService {
	return &CatalogService{store: store}
}

func validateProductFields(sku, name string, price decimal.Decimal, stockQuantity int) error {
	switch {
	case sku == "":
		return &domain.InvalidLineItemError{Line: -1, Reason: "SKU is required"}
	case name == "":
		return &domain.InvalidLineItemError{Line: -1, Reason: "name is required"}
	case !price.IsPositive():
		return &domain.InvalidLineItemError{Line: -1, Reason: "price must be positive"}
	case stockQuantity < 0:
		return &domain.InvalidLineItemError{Line: -1, Reason: "stock quantity must be non-negative"}
	}
	return nil
}

// CreateProduct adds a new catalog entry. The SKU must be unique.
func (s *CatalogService) CreateProduct(ctx context.Context, sku, name string, price decimal.Decimal, stockQuantity int) (*domain.Product, error) {
	if err := validateProductFields(sku, name, price, stockQuantity); err != nil {
		return nil, err
	}

	p := domain.Product{
		SKU:           sku,
		Name:          name,
		Price:         price,
		StockQuantity: stockQuantity,
	}
	id, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

// UpdateProduct replaces the name, price and stock of an existing
// product. The SKU itself is immutable.
func (s *CatalogService) UpdateProduct(ctx context.Context, sku, name string, price decimal.Decimal, stockQuantity int) error {
	if err := validateProductFields(sku, name, price, stockQuantity); err != nil {
		return err
	}

	found, err := s.store.UpdateProduct(ctx, sku, name, price, stockQuantity)
	if err != nil {
		return err
	}
	if !found {
		return &domain.ProductNotFoundError{SKU: sku}
	}
	return nil
}

// ListProducts returns the full catalog ordered by SKU.
func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListProducts(ctx)
}

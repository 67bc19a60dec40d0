package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ktran209/go-pos/internal/core/domain"
	"github.com/ktran209/go-pos/internal/port"
)

const idempotencyKeyPrefix = "pos:request:"

// SaleService is the sale transaction engine plus the read-only query
// facade over the sale ledger.
type SaleService struct {
	store port.SaleStore
	idem  port.IdempotencyRepository // optional, nil disables the guard
	now   func() time.Time
}

func NewSaleService(store port.SaleStore, idem port.IdempotencyRepository) *SaleService {
	return &SaleService{
		store: store,
		idem:  idem,
		now:   time.Now,
	}
}

// ProcessSale validates each basket line against current stock,
// decrements inventory and appends the sale with its items to the
// ledger, all as one transactional scope. On any failure the scope is
// rolled back and no durable mutation remains.
//
// requestID is an optional caller-supplied idempotency key; a replay
// of an already-accepted requestID fails with ErrDuplicateRequest
// before any store work. An empty requestID skips the guard.
func (s *SaleService) ProcessSale(ctx context.Context, requestID string, basket []domain.LineRequest) (*domain.SaleResult, error) {
	if len(basket) == 0 {
		return nil, &domain.InvalidLineItemError{Line: -1, Reason: "no items provided for sale"}
	}

	guarded := s.idem != nil && requestID != ""
	if guarded {
		key := idempotencyKeyPrefix + requestID
		ok, err := s.idem.SetIdempotency(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, domain.ErrDuplicateRequest
		}
	}

	result, err := s.processSale(ctx, basket)
	if err != nil && guarded {
		// Release the key so a corrected basket can be retried under
		// the same request id.
		if clearErr := s.idem.ClearIdempotency(ctx, idempotencyKeyPrefix+requestID); clearErr != nil {
			return nil, fmt.Errorf("releasing idempotency key after %w: %v", err, clearErr)
		}
	}
	return result, err
}

func (s *SaleService) processSale(ctx context.Context, basket []domain.LineRequest) (*domain.SaleResult, error) {
	var result *domain.SaleResult

	err := s.store.WithinTx(ctx, func(tx port.TxScope) error {
		total := decimal.Zero
		items := make([]domain.SaleItem, 0, len(basket))

		for i, line := range basket {
			if line.ProductSKU == "" {
				return &domain.InvalidLineItemError{Line: i, Reason: "product SKU is required"}
			}
			if line.Quantity <= 0 {
				return &domain.InvalidLineItemError{Line: i, Reason: "quantity must be a positive integer"}
			}

			// Locked read: sees this scope's earlier decrements, so a
			// duplicated SKU in the basket cannot oversell.
			product, err := tx.ProductForUpdate(ctx, line.ProductSKU)
			if err != nil {
				return err
			}
			if product == nil {
				return &domain.ProductNotFoundError{SKU: line.ProductSKU}
			}
			if product.StockQuantity < line.Quantity {
				return &domain.InsufficientStockError{
					SKU:       product.SKU,
					Name:      product.Name,
					Available: product.StockQuantity,
					Requested: line.Quantity,
				}
			}

			if err := tx.UpdateStock(ctx, product.ID, product.StockQuantity-line.Quantity); err != nil {
				return err
			}

			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			items = append(items, domain.SaleItem{
				ProductID:   product.ID,
				Quantity:    line.Quantity,
				PriceAtSale: product.Price,
			})
		}

		saleID, err := tx.InsertSale(ctx, s.now().UTC(), total)
		if err != nil {
			return err
		}
		if err := tx.InsertSaleItems(ctx, saleID, items); err != nil {
			return err
		}

		result = &domain.SaleResult{SaleID: saleID, TotalAmount: total}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListSales returns all recorded sales, newest first.
func (s *SaleService) ListSales(ctx context.Context) ([]domain.SaleSummary, error) {
	return s.store.ListSales(ctx)
}

// SaleDetail returns a sale with its items, each carrying the
// product's current SKU and name alongside the recorded price-at-sale.
func (s *SaleService) SaleDetail(ctx context.Context, saleID int64) (*domain.Sale, error) {
	sale, err := s.store.SaleByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrSaleNotFound
	}
	return sale, nil
}

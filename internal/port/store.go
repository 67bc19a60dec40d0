package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ktran209/go-pos/internal/core/domain"
)

// TxScope is one transactional unit of work against the durable store.
// Reads inside the scope observe the scope's own earlier writes and are
// isolated from concurrent scopes; every write is invisible to other
// scopes until commit and fully undone on rollback.
type TxScope interface {
	// ProductForUpdate looks up a product by SKU and locks its row
	// until the scope ends, serializing conflicting stock updates.
	// Returns (nil, nil) when the SKU does not exist.
	ProductForUpdate(ctx context.Context, sku string) (*domain.Product, error)

	// UpdateStock writes an absolute stock quantity for a product.
	UpdateStock(ctx context.Context, productID int64, stockQuantity int) error

	// InsertSale persists a new sale and returns its generated id.
	InsertSale(ctx context.Context, saleDate time.Time, total decimal.Decimal) (int64, error)

	// InsertSaleItems persists all items of a sale in one batch.
	InsertSaleItems(ctx context.Context, saleID int64, items []domain.SaleItem) error
}

// SaleStore is the durable inventory store and sale ledger.
type SaleStore interface {
	// WithinTx runs fn inside a transactional scope. The scope commits
	// only when fn returns nil; any other exit rolls back every staged
	// write. Errors returned by fn pass through unchanged.
	WithinTx(ctx context.Context, fn func(TxScope) error) error

	// ListSales returns all sales, newest first.
	ListSales(ctx context.Context) ([]domain.SaleSummary, error)

	// SaleByID returns a sale with its items, each joined with the
	// referenced product's current name and SKU. Returns (nil, nil)
	// when the sale does not exist.
	SaleByID(ctx context.Context, id int64) (*domain.Sale, error)
}

// ProductStore is the catalog collaborator's view of the store. Its
// writes are not part of any ProcessSale transaction.
type ProductStore interface {
	// CreateProduct inserts a new product. Returns
	// domain.ErrDuplicateSKU when the SKU is already taken.
	CreateProduct(ctx context.Context, p domain.Product) (int64, error)

	// UpdateProduct replaces name, price and stock of the product with
	// the given SKU. Returns false when no such product exists.
	UpdateProduct(ctx context.Context, sku, name string, price decimal.Decimal, stockQuantity int) (bool, error)

	// ProductBySKU returns (nil, nil) when the SKU does not exist.
	ProductBySKU(ctx context.Context, sku string) (*domain.Product, error)

	// ListProducts returns the full catalog ordered by SKU.
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

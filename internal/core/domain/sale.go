package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one committed sale. Immutable after creation: there is no
// edit or cancel operation.
type Sale struct {
	ID          int64
	SaleDate    time.Time
	TotalAmount decimal.Decimal
	Items       []SaleItem
}

// SaleItem is one line of a Sale. PriceAtSale is the unit price
// captured at transaction time and is never recomputed from the
// product's current price. ProductSKU and ProductName are filled at
// read time from the referenced product.
type SaleItem struct {
	SaleID      int64
	ProductID   int64
	ProductSKU  string
	ProductName string
	Quantity    int
	PriceAtSale decimal.Decimal
}

// SaleSummary is the list-view projection of a Sale.
type SaleSummary struct {
	ID          int64
	SaleDate    time.Time
	TotalAmount decimal.Decimal
}

// LineRequest is one basket line as submitted by the caller. Baskets
// may repeat a SKU; each line is processed independently.
type LineRequest struct {
	ProductSKU string
	Quantity   int
}

// SaleResult is returned on a successful ProcessSale.
type SaleResult struct {
	SaleID      int64
	TotalAmount decimal.Decimal
}

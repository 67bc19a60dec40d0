package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry. SKU is unique and immutable once created;
// StockQuantity never goes negative.
type Product struct {
	ID            int64
	SKU           string
	Name          string
	Price         decimal.Decimal
	StockQuantity int
}

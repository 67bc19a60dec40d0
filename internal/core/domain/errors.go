package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSaleNotFound     = errors.New("sale not found")
	ErrDuplicateSKU     = errors.New("product with this SKU already exists")
	ErrDuplicateRequest = errors.New("duplicate request")
)

// InvalidLineItemError reports a malformed basket line. Line is the
// zero-based position in the basket, -1 when the basket as a whole is
// invalid.
type InvalidLineItemError struct {
	Line   int
	Reason string
}

func (e *InvalidLineItemError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("invalid request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid line item %d: %s", e.Line, e.Reason)
}

// ProductNotFoundError reports a SKU that does not exist in the catalog.
type ProductNotFoundError struct {
	SKU string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with SKU %q not found", e.SKU)
}

// InsufficientStockError reports a line whose requested quantity
// exceeds the stock observed inside the transaction.
type InsufficientStockError struct {
	SKU       string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (SKU %s): available %d, requested %d",
		e.Name, e.SKU, e.Available, e.Requested)
}

// StorageError wraps an underlying store failure. The transaction is
// always rolled back before one is returned; the caller decides
// whether to retry the whole basket.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

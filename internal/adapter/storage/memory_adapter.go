package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ktran209/go-pos/internal/core/domain"
	"github.com/ktran209/go-pos/internal/port"
)

var errProductRowMissing = errors.New("product row missing")

func sortProductsBySKU(products []domain.Product) {
	sort.Slice(products, func(i, j int) bool { return products[i].SKU < products[j].SKU })
}

// MemoryAdapter implements port.SaleStore and port.ProductStore with
// in-memory storage. Transactional scopes stage their writes on a copy
// of the product map and publish it on commit; a mutex held for the
// whole scope serializes conflicting stock updates the way the MySQL
// row locks do.
type MemoryAdapter struct {
	mu            sync.Mutex
	products      map[string]*domain.Product // keyed by SKU
	sales         []*domain.Sale             // append-only, index = id-1
	nextProductID int64
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		products:      make(map[string]*domain.Product),
		nextProductID: 1,
	}
}

type memoryTxScope struct {
	store  *MemoryAdapter
	staged map[string]*domain.Product
	sale   *domain.Sale
}

func (m *MemoryAdapter) WithinTx(ctx context.Context, fn func(port.TxScope) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: "begin tx", Err: err}
	}

	scope := &memoryTxScope{
		store:  m,
		staged: make(map[string]*domain.Product, len(m.products)),
	}
	for sku, p := range m.products {
		cp := *p
		scope.staged[sku] = &cp
	}

	if err := fn(scope); err != nil {
		return err
	}

	// Commit: publish staged state.
	m.products = scope.staged
	if scope.sale != nil {
		m.sales = append(m.sales, scope.sale)
	}
	return nil
}

func (s *memoryTxScope) ProductForUpdate(ctx context.Context, sku string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StorageError{Op: "lock product", Err: err}
	}
	p, ok := s.staged[sku]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memoryTxScope) UpdateStock(ctx context.Context, productID int64, stockQuantity int) error {
	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: "update stock", Err: err}
	}
	for _, p := range s.staged {
		if p.ID == productID {
			p.StockQuantity = stockQuantity
			return nil
		}
	}
	return &domain.StorageError{Op: "update stock", Err: errProductRowMissing}
}

func (s *memoryTxScope) InsertSale(ctx context.Context, saleDate time.Time, total decimal.Decimal) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &domain.StorageError{Op: "insert sale", Err: err}
	}
	id := int64(len(s.store.sales)) + 1
	s.sale = &domain.Sale{ID: id, SaleDate: saleDate, TotalAmount: total}
	return id, nil
}

func (s *memoryTxScope) InsertSaleItems(ctx context.Context, saleID int64, items []domain.SaleItem) error {
	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: "insert sale items", Err: err}
	}
	for _, item := range items {
		item.SaleID = saleID
		s.sale.Items = append(s.sale.Items, item)
	}
	return nil
}

func (m *MemoryAdapter) ListSales(ctx context.Context) ([]domain.SaleSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	summaries := make([]domain.SaleSummary, 0, len(m.sales))
	for i := len(m.sales) - 1; i >= 0; i-- {
		s := m.sales[i]
		summaries = append(summaries, domain.SaleSummary{
			ID:          s.ID,
			SaleDate:    s.SaleDate,
			TotalAmount: s.TotalAmount,
		})
	}
	return summaries, nil
}

func (m *MemoryAdapter) SaleByID(ctx context.Context, id int64) (*domain.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id < 1 || id > int64(len(m.sales)) {
		return nil, nil
	}
	stored := m.sales[id-1]

	sale := *stored
	sale.Items = make([]domain.SaleItem, len(stored.Items))
	copy(sale.Items, stored.Items)

	// Display-time join with the product's current name and SKU.
	for i := range sale.Items {
		for _, p := range m.products {
			if p.ID == sale.Items[i].ProductID {
				sale.Items[i].ProductSKU = p.SKU
				sale.Items[i].ProductName = p.Name
				break
			}
		}
	}
	return &sale, nil
}

func (m *MemoryAdapter) CreateProduct(ctx context.Context, p domain.Product) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.products[p.SKU]; exists {
		return 0, domain.ErrDuplicateSKU
	}
	p.ID = m.nextProductID
	m.nextProductID++
	m.products[p.SKU] = &p
	return p.ID, nil
}

func (m *MemoryAdapter) UpdateProduct(ctx context.Context, sku, name string, price decimal.Decimal, stockQuantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[sku]
	if !ok {
		return false, nil
	}
	p.Name = name
	p.Price = price
	p.StockQuantity = stockQuantity
	return true, nil
}

func (m *MemoryAdapter) ProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[sku]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	products := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, *p)
	}
	sortProductsBySKU(products)
	return products, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"

	"github.com/ktran209/go-pos/internal/core/domain"
	"github.com/ktran209/go-pos/internal/port"
)

const mysqlDuplicateEntry = 1062

// MySQLAdapter implements port.SaleStore and port.ProductStore on a
// MySQL database. Stock isolation relies on SELECT ... FOR UPDATE row
// locks held until the transaction commits or rolls back.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate applies all pending schema migrations from dir.
func (m *MySQLAdapter) Migrate(dir string) error {
	driver, err := migratemysql.WithInstance(m.db, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	mig, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", dir), "mysql", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) WithinTx(ctx context.Context, fn func(port.TxScope) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Op: "begin tx", Err: err}
	}
	defer tx.Rollback()

	if err := fn(&mysqlTxScope{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &domain.StorageError{Op: "commit tx", Err: err}
	}
	return nil
}

type mysqlTxScope struct {
	tx *sql.Tx
}

func (s *mysqlTxScope) ProductForUpdate(ctx context.Context, sku string) (*domain.Product, error) {
	var p domain.Product
	err := s.tx.QueryRowContext(ctx, `
		SELECT id, sku, name, price, stock_quantity
		FROM products WHERE sku = ? FOR UPDATE`, sku,
	).Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.StockQuantity)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "lock product", Err: err}
	}
	return &p, nil
}

func (s *mysqlTxScope) UpdateStock(ctx context.Context, productID int64, stockQuantity int) error {
	_, err := s.tx.ExecContext(ctx, `
		UPDATE products SET stock_quantity = ? WHERE id = ?`,
		stockQuantity, productID,
	)
	if err != nil {
		return &domain.StorageError{Op: "update stock", Err: err}
	}
	return nil
}

func (s *mysqlTxScope) InsertSale(ctx context.Context, saleDate time.Time, total decimal.Decimal) (int64, error) {
	result, err := s.tx.ExecContext(ctx, `
		INSERT INTO sales (sale_date, total_amount) VALUES (?, ?)`,
		saleDate, total,
	)
	if err != nil {
		return 0, &domain.StorageError{Op: "insert sale", Err: err}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, &domain.StorageError{Op: "insert sale", Err: err}
	}
	return id, nil
}

func (s *mysqlTxScope) InsertSaleItems(ctx context.Context, saleID int64, items []domain.SaleItem) error {
	if len(items) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*4)
	for _, item := range items {
		placeholders = append(placeholders, "(?, ?, ?, ?)")
		args = append(args, saleID, item.ProductID, item.Quantity, item.PriceAtSale)
	}

	query := `INSERT INTO sale_items (sale_id, product_id, quantity, price_at_sale) VALUES ` +
		strings.Join(placeholders, ", ")
	if _, err := s.tx.ExecContext(ctx, query, args...); err != nil {
		return &domain.StorageError{Op: "insert sale items", Err: err}
	}
	return nil
}

func (m *MySQLAdapter) ListSales(ctx context.Context) ([]domain.SaleSummary, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, sale_date, total_amount
		FROM sales ORDER BY sale_date DESC, id DESC`)
	if err != nil {
		return nil, &domain.StorageError{Op: "list sales", Err: err}
	}
	defer rows.Close()

	var sales []domain.SaleSummary
	for rows.Next() {
		var s domain.SaleSummary
		if err := rows.Scan(&s.ID, &s.SaleDate, &s.TotalAmount); err != nil {
			return nil, &domain.StorageError{Op: "list sales", Err: err}
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "list sales", Err: err}
	}
	return sales, nil
}

func (m *MySQLAdapter) SaleByID(ctx context.Context, id int64) (*domain.Sale, error) {
	var sale domain.Sale
	err := m.db.QueryRowContext(ctx, `
		SELECT id, sale_date, total_amount FROM sales WHERE id = ?`, id,
	).Scan(&sale.ID, &sale.SaleDate, &sale.TotalAmount)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "query sale", Err: err}
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT si.product_id, p.sku, p.name, si.quantity, si.price_at_sale
		FROM sale_items si
		JOIN products p ON si.product_id = p.id
		WHERE si.sale_id = ?
		ORDER BY si.id`, id)
	if err != nil {
		return nil, &domain.StorageError{Op: "query sale items", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		item := domain.SaleItem{SaleID: id}
		if err := rows.Scan(&item.ProductID, &item.ProductSKU, &item.ProductName,
			&item.Quantity, &item.PriceAtSale); err != nil {
			return nil, &domain.StorageError{Op: "query sale items", Err: err}
		}
		sale.Items = append(sale.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "query sale items", Err: err}
	}
	return &sale, nil
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, p domain.Product) (int64, error) {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO products (sku, name, price, stock_quantity)
		VALUES (?, ?, ?, ?)`,
		p.SKU, p.Name, p.Price, p.StockQuantity,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return 0, domain.ErrDuplicateSKU
		}
		return 0, &domain.StorageError{Op: "insert product", Err: err}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, &domain.StorageError{Op: "insert product", Err: err}
	}
	return id, nil
}

func (m *MySQLAdapter) UpdateProduct(ctx context.Context, sku, name string, price decimal.Decimal, stockQuantity int) (bool, error) {
	// A no-op update reports zero affected rows, so existence is
	// checked by keyed lookup rather than RowsAffected.
	var id int64
	err := m.db.QueryRowContext(ctx, `SELECT id FROM products WHERE sku = ?`, sku).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &domain.StorageError{Op: "query product", Err: err}
	}

	_, err = m.db.ExecContext(ctx, `
		UPDATE products SET name = ?, price = ?, stock_quantity = ? WHERE id = ?`,
		name, price, stockQuantity, id,
	)
	if err != nil {
		return false, &domain.StorageError{Op: "update product", Err: err}
	}
	return true, nil
}

func (m *MySQLAdapter) ProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT id, sku, name, price, stock_quantity
		FROM products WHERE sku = ?`, sku,
	).Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.StockQuantity)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "query product", Err: err}
	}
	return &p, nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, sku, name, price, stock_quantity
		FROM products ORDER BY sku`)
	if err != nil {
		return nil, &domain.StorageError{Op: "list products", Err: err}
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.StockQuantity); err != nil {
			return nil, &domain.StorageError{Op: "list products", Err: err}
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "list products", Err: err}
	}
	return products, nil
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktran209/go-pos/internal/adapter/storage"
	"github.com/ktran209/go-pos/internal/auth"
	"github.com/ktran209/go-pos/internal/core/domain"
	"github.com/ktran209/go-pos/internal/core/service"
)

type staticResolver struct {
	tokens map[string]*auth.Principal
}

func (r *staticResolver) Resolve(_ context.Context, token string) (*auth.Principal, error) {
	return r.tokens[token], nil
}

func setupTestServer(t *testing.T) (*httptest.Server, *storage.MemoryAdapter) {
	t.Helper()

	store := storage.NewMemoryAdapter()
	_, err := store.CreateProduct(context.Background(), domain.Product{
		SKU: "SKU001", Name: "Apple (kg)",
		Price: decimal.RequireFromString("2.50"), StockQuantity: 50,
	})
	require.NoError(t, err)

	resolver := &staticResolver{tokens: map[string]*auth.Principal{
		"cashier-token": {ID: 1, Username: "cashier", Role: auth.RoleCashier},
		"manager-token": {ID: 2, Username: "manager", Role: auth.RoleManager},
	}}

	h := NewHTTPHandler(service.NewSaleService(store, nil), service.NewCatalogService(store))
	srv := httptest.NewServer(NewRouter(h, resolver))
	t.Cleanup(srv.Close)

	return srv, store
}

func doRequest(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestProcessSaleEndpoint_Success(t *testing.T) {
	srv, store := setupTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/sales", "cashier-token",
		`[{"product_sku":"SKU001","quantity":2}]`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result SaleResultDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, int64(1), result.SaleID)
	assert.True(t, result.TotalAmount.Equal(decimal.RequireFromString("5.00")),
		"expected total 5.00, got %s", result.TotalAmount)

	p, err := store.ProductBySKU(context.Background(), "SKU001")
	require.NoError(t, err)
	assert.Equal(t, 48, p.StockQuantity)
}

func TestProcessSaleEndpoint_ErrorMapping(t *testing.T) {
	srv, _ := setupTestServer(t)

	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"invalid json", `{not json`, http.StatusBadRequest, "invalid_request"},
		{"empty basket", `[]`, http.StatusBadRequest, "invalid_line_item"},
		{"zero quantity", `[{"product_sku":"SKU001","quantity":0}]`, http.StatusBadRequest, "invalid_line_item"},
		{"unknown sku", `[{"product_sku":"SKU999","quantity":1}]`, http.StatusUnprocessableEntity, "product_not_found"},
		{"insufficient stock", `[{"product_sku":"SKU001","quantity":500}]`, http.StatusConflict, "insufficient_stock"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, srv.URL+"/api/sales", "cashier-token", tc.body)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)

			var errResp ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
			assert.Equal(t, tc.wantCode, errResp.Code)
		})
	}
}

func TestSalesEndpoints_Queries(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/sales", "cashier-token",
		`[{"product_sku":"SKU001","quantity":1}]`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/sales", "cashier-token", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summaries []SaleSummaryDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summaries))
	require.Len(t, summaries, 1)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/sales/1", "cashier-token", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail SaleDetailDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "SKU001", detail.Items[0].ProductSKU)
	assert.Equal(t, "Apple (kg)", detail.Items[0].ProductName)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/sales/999999", "cashier-token", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/sales/abc", "cashier-token", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuth_TokenAndRoleEnforcement(t *testing.T) {
	srv, _ := setupTestServer(t)

	// No token.
	resp := doRequest(t, http.MethodGet, srv.URL+"/api/sales", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Unknown token.
	resp = doRequest(t, http.MethodGet, srv.URL+"/api/sales", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Cashier may not manage the catalog.
	resp = doRequest(t, http.MethodPost, srv.URL+"/api/products", "cashier-token",
		`{"sku":"SKU009","name":"Eggs (dozen)","price":"4.50","stock_quantity":40}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Manager can.
	resp = doRequest(t, http.MethodPost, srv.URL+"/api/products", "manager-token",
		`{"sku":"SKU009","name":"Eggs (dozen)","price":"4.50","stock_quantity":40}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Manager can also process sales.
	resp = doRequest(t, http.MethodPost, srv.URL+"/api/sales", "manager-token",
		`[{"product_sku":"SKU009","quantity":1}]`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Health needs no auth.
	resp = doRequest(t, http.MethodGet, srv.URL+"/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProductEndpoints(t *testing.T) {
	srv, store := setupTestServer(t)

	// Any authenticated principal may list products.
	resp := doRequest(t, http.MethodGet, srv.URL+"/api/products", "cashier-token", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []ProductDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	require.Len(t, products, 1)

	// Duplicate SKU conflicts.
	resp = doRequest(t, http.MethodPost, srv.URL+"/api/products", "manager-token",
		`{"sku":"SKU001","name":"Apple (kg)","price":"2.50","stock_quantity":50}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Update an existing product.
	resp = doRequest(t, http.MethodPut, srv.URL+"/api/products/SKU001", "manager-token",
		`{"name":"Green Apple (kg)","price":"2.75","stock_quantity":60}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	p, err := store.ProductBySKU(context.Background(), "SKU001")
	require.NoError(t, err)
	assert.Equal(t, "Green Apple (kg)", p.Name)
	assert.Equal(t, 60, p.StockQuantity)

	// Unknown SKU is 404.
	resp = doRequest(t, http.MethodPut, srv.URL+"/api/products/SKU404", "manager-token",
		`{"name":"Ghost","price":"1.00","stock_quantity":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Bad fields are 400.
	resp = doRequest(t, http.MethodPut, srv.URL+"/api/products/SKU001", "manager-token",
		`{"name":"Apple","price":"-1.00","stock_quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProcessSaleEndpoint_IdempotencyHeader(t *testing.T) {
	store := storage.NewMemoryAdapter()
	_, err := store.CreateProduct(context.Background(), domain.Product{
		SKU: "SKU001", Name: "Apple (kg)",
		Price: decimal.RequireFromString("2.50"), StockQuantity: 50,
	})
	require.NoError(t, err)

	resolver := &staticResolver{tokens: map[string]*auth.Principal{
		"cashier-token": {ID: 1, Username: "cashier", Role: auth.RoleCashier},
	}}
	idem := newMemIdem()
	h := NewHTTPHandler(service.NewSaleService(store, idem), service.NewCatalogService(store))
	srv := httptest.NewServer(NewRouter(h, resolver))
	t.Cleanup(srv.Close)

	send := func() *http.Response {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/sales",
			strings.NewReader(`[{"product_sku":"SKU001","quantity":1}]`))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer cashier-token")
		req.Header.Set("Idempotency-Key", "req-42")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	assert.Equal(t, http.StatusCreated, send().StatusCode)

	resp := send()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "duplicate_request", errResp.Code)

	p, err := store.ProductBySKU(context.Background(), "SKU001")
	require.NoError(t, err)
	assert.Equal(t, 49, p.StockQuantity, "replay must not debit stock twice")
}

type memIdem struct {
	keys map[string]bool
}

func newMemIdem() *memIdem { return &memIdem{keys: make(map[string]bool)} }

func (m *memIdem) SetIdempotency(_ context.Context, key string) (bool, error) {
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memIdem) ClearIdempotency(_ context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

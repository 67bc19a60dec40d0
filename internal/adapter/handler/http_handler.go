package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/ktran209/go-pos/internal/auth"
	"github.com/ktran209/go-pos/internal/core/domain"
	"github.com/ktran209/go-pos/internal/core/service"
)

type HTTPHandler struct {
	sales   *service.SaleService
	catalog *service.CatalogService
}

func NewHTTPHandler(sales *service.SaleService, catalog *service.CatalogService) *HTTPHandler {
	return &HTTPHandler{sales: sales, catalog: catalog}
}

// NewRouter wires the HTTP surface. Everything under /api requires a
// resolved principal; individual routes additionally require a
// capability.
func NewRouter(h *HTTPHandler, resolver auth.Resolver) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(resolver))

		r.Group(func(r chi.Router) {
			r.Use(RequireCapability(auth.CapProcessSale))
			r.Post("/sales", h.ProcessSale)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireCapability(auth.CapQuerySales))
			r.Get("/sales", h.ListSales)
			r.Get("/sales/{saleID}", h.GetSaleDetail)
		})

		r.Get("/products", h.ListProducts)

		r.Group(func(r chi.Router) {
			r.Use(RequireCapability(auth.CapManageCatalog))
			r.Post("/products", h.AddProduct)
			r.Put("/products/{sku}", h.UpdateProduct)
		})
	})

	return r
}

type SaleLineDTO struct {
	ProductSKU string `json:"product_sku"`
	Quantity   int    `json:"quantity"`
}

type SaleResultDTO struct {
	SaleID      int64           `json:"sale_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type SaleSummaryDTO struct {
	ID          int64           `json:"id"`
	SaleDate    time.Time       `json:"sale_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type SaleItemDTO struct {
	ProductSKU  string          `json:"product_sku"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	PriceAtSale decimal.Decimal `json:"price_at_sale"`
}

type SaleDetailDTO struct {
	ID          int64           `json:"id"`
	SaleDate    time.Time       `json:"sale_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []SaleItemDTO   `json:"items"`
}

type ProductDTO struct {
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *HTTPHandler) ProcessSale(w http.ResponseWriter, r *http.Request) {
	var lines []SaleLineDTO
	if err := json.NewDecoder(r.Body).Decode(&lines); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	basket := make([]domain.LineRequest, 0, len(lines))
	for _, l := range lines {
		basket = append(basket, domain.LineRequest{ProductSKU: l.ProductSKU, Quantity: l.Quantity})
	}

	result, err := h.sales.ProcessSale(r.Context(), r.Header.Get("Idempotency-Key"), basket)
	if err != nil {
		var invalid *domain.InvalidLineItemError
		var notFound *domain.ProductNotFoundError
		var stock *domain.InsufficientStockError
		switch {
		case errors.As(err, &invalid):
			respondError(w, http.StatusBadRequest, "invalid_line_item", invalid.Error())
		case errors.As(err, &notFound):
			respondError(w, http.StatusUnprocessableEntity, "product_not_found", notFound.Error())
		case errors.As(err, &stock):
			respondError(w, http.StatusConflict, "insufficient_stock", stock.Error())
		case errors.Is(err, domain.ErrDuplicateRequest):
			respondError(w, http.StatusConflict, "duplicate_request", "this sale request was already accepted")
		default:
			respondInternalError(w, r, err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, SaleResultDTO{
		SaleID:      result.SaleID,
		TotalAmount: result.TotalAmount,
	})
}

func (h *HTTPHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.sales.ListSales(r.Context())
	if err != nil {
		respondInternalError(w, r, err)
		return
	}

	dtos := make([]SaleSummaryDTO, 0, len(sales))
	for _, s := range sales {
		dtos = append(dtos, SaleSummaryDTO{ID: s.ID, SaleDate: s.SaleDate, TotalAmount: s.TotalAmount})
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *HTTPHandler) GetSaleDetail(w http.ResponseWriter, r *http.Request) {
	saleID, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_sale_id", "sale id must be an integer")
		return
	}

	sale, err := h.sales.SaleDetail(r.Context(), saleID)
	if err != nil {
		if errors.Is(err, domain.ErrSaleNotFound) {
			respondError(w, http.StatusNotFound, "sale_not_found", "sale not found")
			return
		}
		respondInternalError(w, r, err)
		return
	}

	dto := SaleDetailDTO{
		ID:          sale.ID,
		SaleDate:    sale.SaleDate,
		TotalAmount: sale.TotalAmount,
		Items:       make([]SaleItemDTO, 0, len(sale.Items)),
	}
	for _, item := range sale.Items {
		dto.Items = append(dto.Items, SaleItemDTO{
			ProductSKU:  item.ProductSKU,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			PriceAtSale: item.PriceAtSale,
		})
	}
	respondJSON(w, http.StatusOK, dto)
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		respondInternalError(w, r, err)
		return
	}

	dtos := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, ProductDTO{
			SKU:           p.SKU,
			Name:          p.Name,
			Price:         p.Price,
			StockQuantity: p.StockQuantity,
		})
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *HTTPHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), req.SKU, req.Name, req.Price, req.StockQuantity)
	if err != nil {
		var invalid *domain.InvalidLineItemError
		switch {
		case errors.As(err, &invalid):
			respondError(w, http.StatusBadRequest, "invalid_product", invalid.Error())
		case errors.Is(err, domain.ErrDuplicateSKU):
			respondError(w, http.StatusConflict, "duplicate_sku", err.Error())
		default:
			respondInternalError(w, r, err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, ProductDTO{
		SKU:           product.SKU,
		Name:          product.Name,
		Price:         product.Price,
		StockQuantity: product.StockQuantity,
	})
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	var req ProductDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := h.catalog.UpdateProduct(r.Context(), sku, req.Name, req.Price, req.StockQuantity)
	if err != nil {
		var invalid *domain.InvalidLineItemError
		var notFound *domain.ProductNotFoundError
		switch {
		case errors.As(err, &invalid):
			respondError(w, http.StatusBadRequest, "invalid_product", invalid.Error())
		case errors.As(err, &notFound):
			respondError(w, http.StatusNotFound, "product_not_found", notFound.Error())
		default:
			respondInternalError(w, r, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "product updated"})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func respondInternalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("request %s: %v", RequestIDFrom(r.Context()), err)
	respondError(w, http.StatusInternalServerError, "storage_failure", "internal error")
}

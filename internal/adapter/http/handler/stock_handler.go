package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/stockroyale/internal/adapter/http/dto"
	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

// StockService defines the behavior needed by StockHandler.
type StockService interface {
	CreateStock(ctx context.Context, input usecase.CreateStockInput) (*domain.Stock, error)
	GetStock(ctx context.Context, id string) (*domain.Stock, error)
	ListStocks(ctx context.Context, limit, offset int) ([]*domain.Stock, error)
}

// PriceService defines the price queries needed by StockHandler.
type PriceService interface {
	GetPrice(ctx context.Context, stockID string) (*domain.AveragePrice, error)
	ListHistory(ctx context.Context, stockID string, limit, offset int) ([]*domain.HistoricalPrice, error)
}

// StockHandler handles stock-related HTTP requests.
type StockHandler struct {
	stockUC StockService
	priceUC PriceService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(stockUC StockService, priceUC PriceService) *StockHandler {
	return &StockHandler{stockUC: stockUC, priceUC: priceUC}
}

// Create lists a new stock.
func (h *StockHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	stock, err := h.stockUC.CreateStock(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create stock", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.StockFromDomain(stock))
}

// Get retrieves a stock by ID.
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	stock, err := h.stockUC.GetStock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get stock", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StockFromDomain(stock))
}

// List lists stocks ordered by ticker.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	stocks, err := h.stockUC.ListStocks(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list stocks", err)
		return
	}

	writeJSON(w, http.StatusOK, page(dto.StocksFromDomain(stocks), limit, offset))
}

// Price returns the current average price of a stock.
func (h *StockHandler) Price(w http.ResponseWriter, r *http.Request) {
	price, err := h.priceUC.GetPrice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get price", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PriceFromDomain(price))
}

// History lists archived price snapshots of a stock.
func (h *StockHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	history, err := h.priceUC.ListHistory(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list price history", err)
		return
	}

	writeJSON(w, http.StatusOK, page(dto.HistoryFromDomain(history), limit, offset))
}

package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/stockroyale/internal/adapter/http/dto"
	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

// BankruptcyService defines the round operations needed by AdminHandler.
type BankruptcyService interface {
	RunBankruptcyRound(ctx context.Context) (*usecase.RoundResult, error)
	BankruptStock(ctx context.Context, stockID string) (*usecase.RoundResult, error)
	EmitOfferings(ctx context.Context) ([]*domain.Offer, error)
}

// RecomputeService defines the price recompute operations needed by AdminHandler.
type RecomputeService interface {
	Recompute(ctx context.Context, stockID string) (*domain.AveragePrice, error)
	RecomputeAll(ctx context.Context) (*usecase.RecomputeResult, error)
}

// ScoreService defines the evaluation needed by AdminHandler.
type ScoreService interface {
	Scores(ctx context.Context) ([]*usecase.StockScore, error)
}

// AdminHandler handles the administrative engine operations.
type AdminHandler struct {
	bankruptcyUC BankruptcyService
	priceUC      RecomputeService
	evaluator    ScoreService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(bankruptcyUC BankruptcyService, priceUC RecomputeService, evaluator ScoreService) *AdminHandler {
	return &AdminHandler{
		bankruptcyUC: bankruptcyUC,
		priceUC:      priceUC,
		evaluator:    evaluator,
	}
}

// RunRound bankrupts the weakest stock and tops up public offerings.
func (h *AdminHandler) RunRound(w http.ResponseWriter, r *http.Request) {
	result, err := h.bankruptcyUC.RunBankruptcyRound(r.Context())
	if err != nil {
		writeDomainError(w, "bankruptcy round failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RoundFromUseCase(result))
}

// BankruptStock bankrupts the given stock.
func (h *AdminHandler) BankruptStock(w http.ResponseWriter, r *http.Request) {
	result, err := h.bankruptcyUC.BankruptStock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to bankrupt stock", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RoundFromUseCase(result))
}

// Emit creates or raises the public offering of every active stock.
func (h *AdminHandler) Emit(w http.ResponseWriter, r *http.Request) {
	offers, err := h.bankruptcyUC.EmitOfferings(r.Context())
	if err != nil {
		writeDomainError(w, "failed to emit offerings", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OffersFromDomain(offers))
}

// RecomputePrice recomputes the average price of one stock.
func (h *AdminHandler) RecomputePrice(w http.ResponseWriter, r *http.Request) {
	price, err := h.priceUC.Recompute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to recompute price", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PriceFromDomain(price))
}

// RecomputeAll recomputes every active stock. Partial failures are reported
// in the body with status 207.
func (h *AdminHandler) RecomputeAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.priceUC.RecomputeAll(r.Context())
	if result == nil {
		writeDomainError(w, "failed to recompute prices", err)
		return
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusMultiStatus
	}

	writeJSON(w, status, dto.RecomputeFromUseCase(result))
}

// Scores returns the current evaluation of every active stock.
func (h *AdminHandler) Scores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.evaluator.Scores(r.Context())
	if err != nil {
		writeDomainError(w, "failed to score stocks", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ScoresFromUseCase(scores))
}

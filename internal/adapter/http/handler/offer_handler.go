package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/stockroyale/internal/adapter/http/dto"
	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

// OfferService defines the behavior needed by OfferHandler.
type OfferService interface {
	PlaceOffer(ctx context.Context, input usecase.PlaceOfferInput) (*domain.Offer, error)
	AcceptOffer(ctx context.Context, input usecase.AcceptOfferInput) (*domain.Trade, error)
	CancelOffer(ctx context.Context, caller domain.Caller, offerID string) error
	GetOffer(ctx context.Context, id string) (*domain.Offer, error)
	ListOffersByStock(ctx context.Context, stockID string, limit, offset int) ([]*domain.Offer, error)
	ListTradesByStock(ctx context.Context, stockID string, limit, offset int) ([]*domain.Trade, error)
	ListTradesByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Trade, error)
}

// OfferHandler handles offer and trade HTTP requests. The writer or acceptor
// of an offer is always the calling account.
type OfferHandler struct {
	offerUC OfferService
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(offerUC OfferService) *OfferHandler {
	return &OfferHandler{offerUC: offerUC}
}

// Place posts a buy or sell offer for the caller.
func (h *OfferHandler) Place(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrReject(w, r)
	if !ok {
		return
	}

	var req dto.PlaceOfferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	offer, err := h.offerUC.PlaceOffer(r.Context(), req.ToUseCaseInput(caller.AccountID))
	if err != nil {
		writeDomainError(w, "failed to place offer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.OfferFromDomain(offer))
}

// Accept settles all or part of an offer for the caller.
func (h *OfferHandler) Accept(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrReject(w, r)
	if !ok {
		return
	}

	var req dto.AcceptOfferRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	trade, err := h.offerUC.AcceptOffer(r.Context(), req.ToUseCaseInput(caller.AccountID, chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "failed to accept offer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TradeFromDomain(trade))
}

// Cancel withdraws an offer.
func (h *OfferHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrReject(w, r)
	if !ok {
		return
	}

	if err := h.offerUC.CancelOffer(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "failed to cancel offer", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get retrieves an offer by ID.
func (h *OfferHandler) Get(w http.ResponseWriter, r *http.Request) {
	offer, err := h.offerUC.GetOffer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get offer", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OfferFromDomain(offer))
}

// ListByStock lists the open offers of a stock.
func (h *OfferHandler) ListByStock(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	offers, err := h.offerUC.ListOffersByStock(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list offers", err)
		return
	}

	writeJSON(w, http.StatusOK, page(dto.OffersFromDomain(offers), limit, offset))
}

// TradesByStock lists the trades of a stock, newest first.
func (h *OfferHandler) TradesByStock(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	trades, err := h.offerUC.ListTradesByStock(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list trades", err)
		return
	}

	writeJSON(w, http.StatusOK, page(dto.TradesFromDomain(trades), limit, offset))
}

// TradesByAccount lists the trades an account took part in, newest first.
func (h *OfferHandler) TradesByAccount(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	trades, err := h.offerUC.ListTradesByAccount(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list trades", err)
		return
	}

	writeJSON(w, http.StatusOK, page(dto.TradesFromDomain(trades), limit, offset))
}

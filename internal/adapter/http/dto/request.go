package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

// CreateStockRequest represents a request to list a stock.
type CreateStockRequest struct {
	Name        string `json:"name"`
	Ticker      string `json:"ticker"`
	PublicFloat int64  `json:"public_float"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateStockRequest) ToUseCaseInput() usecase.CreateStockInput {
	return usecase.CreateStockInput{
		Name:        r.Name,
		Ticker:      r.Ticker,
		PublicFloat: r.PublicFloat,
	}
}

// CreateAccountRequest represents a request to open an account.
type CreateAccountRequest struct {
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name:           r.Name,
		InitialBalance: r.InitialBalance,
	}
}

// DepositRequest represents a request to credit an account.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PlaceOfferRequest represents a request to post a buy or sell offer.
// The writer is the calling account.
type PlaceOfferRequest struct {
	StockID string          `json:"stock_id"`
	Type    string          `json:"type"`
	Amount  int64           `json:"amount"`
	Price   decimal.Decimal `json:"price"`
}

// ToUseCaseInput converts to use case input.
func (r *PlaceOfferRequest) ToUseCaseInput(writerID string) usecase.PlaceOfferInput {
	return usecase.PlaceOfferInput{
		WriterID: writerID,
		StockID:  r.StockID,
		Type:     domain.OfferType(r.Type),
		Amount:   r.Amount,
		Price:    r.Price,
	}
}

// AcceptOfferRequest represents a request to settle an offer.
// Omitting amount accepts the whole remaining offer.
type AcceptOfferRequest struct {
	Amount *int64 `json:"amount,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AcceptOfferRequest) ToUseCaseInput(acceptorID, offerID string) usecase.AcceptOfferInput {
	return usecase.AcceptOfferInput{
		AcceptorID: acceptorID,
		OfferID:    offerID,
		Amount:     r.Amount,
	}
}

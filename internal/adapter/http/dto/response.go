package dto

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

// StockResponse represents a stock in API responses.
type StockResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Ticker      string     `json:"ticker"`
	PublicFloat int64      `json:"public_float"`
	Bankrupt    bool       `json:"bankrupt"`
	BankruptAt  *time.Time `json:"bankrupt_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StockFromDomain converts domain stock to response.
func StockFromDomain(s *domain.Stock) *StockResponse {
	return &StockResponse{
		ID:          s.ID,
		Name:        s.Name,
		Ticker:      s.Ticker,
		PublicFloat: s.PublicFloat,
		Bankrupt:    s.Bankrupt,
		BankruptAt:  s.BankruptAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// StocksFromDomain converts domain stocks to responses.
func StocksFromDomain(stocks []*domain.Stock) []*StockResponse {
	return mapAll(stocks, StockFromDomain)
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Balance:   a.Balance,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	return mapAll(accounts, AccountFromDomain)
}

// HoldingResponse represents a share holding in API responses.
type HoldingResponse struct {
	AccountID string `json:"account_id"`
	StockID   string `json:"stock_id"`
	Amount    int64  `json:"amount"`
}

// HoldingsFromDomain converts domain holdings to responses.
func HoldingsFromDomain(holdings []*domain.Ownership) []*HoldingResponse {
	return mapAll(holdings, func(o *domain.Ownership) *HoldingResponse {
		return &HoldingResponse{AccountID: o.AccountID, StockID: o.StockID, Amount: o.Amount}
	})
}

// OfferResponse represents an offer in API responses.
type OfferResponse struct {
	ID        string          `json:"id"`
	StockID   string          `json:"stock_id"`
	WriterID  *string         `json:"writer_id"`
	Type      string          `json:"type"`
	Amount    int64           `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OfferFromDomain converts domain offer to response.
func OfferFromDomain(o *domain.Offer) *OfferResponse {
	return &OfferResponse{
		ID:        o.ID,
		StockID:   o.StockID,
		WriterID:  o.WriterID,
		Type:      string(o.Type),
		Amount:    o.Amount,
		Price:     o.Price,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// OffersFromDomain converts domain offers to responses.
func OffersFromDomain(offers []*domain.Offer) []*OfferResponse {
	return mapAll(offers, OfferFromDomain)
}

// TradeResponse represents a settled trade in API responses.
type TradeResponse struct {
	ID        string          `json:"id"`
	StockID   string          `json:"stock_id"`
	OfferID   string          `json:"offer_id"`
	BuyerID   string          `json:"buyer_id"`
	SellerID  *string         `json:"seller_id"`
	Amount    int64           `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// TradeFromDomain converts domain trade to response.
func TradeFromDomain(t *domain.Trade) *TradeResponse {
	return &TradeResponse{
		ID:        t.ID,
		StockID:   t.StockID,
		OfferID:   t.OfferID,
		BuyerID:   t.BuyerID,
		SellerID:  t.SellerID,
		Amount:    t.Amount,
		Price:     t.Price,
		CreatedAt: t.CreatedAt,
	}
}

// TradesFromDomain converts domain trades to responses.
func TradesFromDomain(trades []*domain.Trade) []*TradeResponse {
	return mapAll(trades, TradeFromDomain)
}

// PriceResponse represents an average price snapshot.
type PriceResponse struct {
	StockID      string          `json:"stock_id"`
	SharesTraded int64           `json:"shares_traded"`
	Price        decimal.Decimal `json:"price"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}

// PriceFromDomain converts a domain price to response. A price that was
// never recomputed has no update time.
func PriceFromDomain(p *domain.AveragePrice) *PriceResponse {
	resp := &PriceResponse{
		StockID:      p.StockID,
		SharesTraded: p.SharesTraded,
		Price:        p.Price,
	}
	if !p.UpdatedAt.IsZero() {
		updated := p.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

// HistoricalPriceResponse represents an archived price snapshot.
type HistoricalPriceResponse struct {
	ID           string          `json:"id"`
	StockID      string          `json:"stock_id"`
	SharesTraded int64           `json:"shares_traded"`
	Price        decimal.Decimal `json:"price"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

// HistoryFromDomain converts archived snapshots to responses.
func HistoryFromDomain(history []*domain.HistoricalPrice) []*HistoricalPriceResponse {
	return mapAll(history, func(h *domain.HistoricalPrice) *HistoricalPriceResponse {
		return &HistoricalPriceResponse{
			ID:           h.ID,
			StockID:      h.StockID,
			SharesTraded: h.SharesTraded,
			Price:        h.Price,
			RecordedAt:   h.RecordedAt,
		}
	})
}

// ScoreResponse represents the evaluation of one stock.
type ScoreResponse struct {
	StockID         string  `json:"stock_id"`
	Ticker          string  `json:"ticker"`
	MarketCap       float64 `json:"market_cap"`
	PublicFloat     float64 `json:"public_float"`
	Volatility      float64 `json:"volatility"`
	Fun             float64 `json:"fun"`
	NormMarketCap   float64 `json:"norm_market_cap"`
	NormPublicFloat float64 `json:"norm_public_float"`
	NormVolatility  float64 `json:"norm_volatility"`
	Score           float64 `json:"score"`
}

// ScoreFromUseCase converts an evaluator score to response.
func ScoreFromUseCase(s *usecase.StockScore) *ScoreResponse {
	return &ScoreResponse{
		StockID:         s.StockID,
		Ticker:          s.Ticker,
		MarketCap:       s.MarketCap,
		PublicFloat:     s.PublicFloat,
		Volatility:      s.Volatility,
		Fun:             s.Fun,
		NormMarketCap:   s.NormMarketCap,
		NormPublicFloat: s.NormPublicFloat,
		NormVolatility:  s.NormVolatility,
		Score:           s.Score,
	}
}

// ScoresFromUseCase converts evaluator scores to responses.
func ScoresFromUseCase(scores []*usecase.StockScore) []*ScoreResponse {
	return mapAll(scores, ScoreFromUseCase)
}

// RoundResponse represents a completed bankruptcy round.
type RoundResponse struct {
	Bankrupted     *StockResponse   `json:"bankrupted"`
	Score          *ScoreResponse   `json:"score,omitempty"`
	OffersRemoved  int64            `json:"offers_removed"`
	HoldingsPurged int64            `json:"holdings_purged"`
	Emitted        []*OfferResponse `json:"emitted"`
}

// RoundFromUseCase converts a round result to response.
func RoundFromUseCase(r *usecase.RoundResult) *RoundResponse {
	resp := &RoundResponse{Emitted: OffersFromDomain(r.Emitted)}
	if r.Score != nil {
		resp.Score = ScoreFromUseCase(r.Score)
	}
	if r.Bankruptcy != nil {
		resp.Bankrupted = StockFromDomain(r.Bankruptcy.Stock)
		resp.OffersRemoved = r.Bankruptcy.OffersRemoved
		resp.HoldingsPurged = r.Bankruptcy.HoldingsPurged
	}
	return resp
}

// RecomputeResponse reports the outcome of a price recompute over all stocks.
type RecomputeResponse struct {
	Updated []*PriceResponse  `json:"updated"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// RecomputeFromUseCase converts a recompute result to response.
func RecomputeFromUseCase(r *usecase.RecomputeResult) *RecomputeResponse {
	updated := append([]*domain.AveragePrice(nil), r.Updated...)
	sort.Slice(updated, func(i, j int) bool { return updated[i].StockID < updated[j].StockID })

	resp := &RecomputeResponse{Updated: mapAll(updated, PriceFromDomain)}
	if len(r.Failed) > 0 {
		resp.Failed = make(map[string]string, len(r.Failed))
		for id, err := range r.Failed {
			resp.Failed[id] = err.Error()
		}
	}
	return resp
}

// ConsistencyResponse reports a ledger consistency check.
type ConsistencyResponse struct {
	Consistent               bool      `json:"consistent"`
	NegativeBalances         int64     `json:"negative_balances"`
	NegativeHoldings         int64     `json:"negative_holdings"`
	NegativePublicFloats     int64     `json:"negative_public_floats"`
	HoldingsOnBankrupt       int64     `json:"holdings_on_bankrupt"`
	OffersOnBankrupt         int64     `json:"offers_on_bankrupt"`
	BankruptWithFloat        int64     `json:"bankrupt_with_float"`
	DuplicatePublicOfferings int64     `json:"duplicate_public_offerings"`
	CheckedAt                time.Time `json:"checked_at"`
}

// ConsistencyFromUseCase converts a consistency report to response.
func ConsistencyFromUseCase(r *usecase.ConsistencyReport) *ConsistencyResponse {
	return &ConsistencyResponse{
		Consistent:               r.Consistent,
		NegativeBalances:         r.NegativeBalances,
		NegativeHoldings:         r.NegativeHoldings,
		NegativePublicFloats:     r.NegativePublicFloats,
		HoldingsOnBankrupt:       r.HoldingsOnBankrupt,
		OffersOnBankrupt:         r.OffersOnBankrupt,
		BankruptWithFloat:        r.BankruptWithFloat,
		DuplicatePublicOfferings: r.DuplicatePublicOfferings,
		CheckedAt:                r.CheckedAt,
	}
}

// ListResponse wraps a page of items.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

func mapAll[S, D any](in []S, f func(S) D) []D {
	out := make([]D, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}

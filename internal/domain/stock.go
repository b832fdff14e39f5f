package domain

import "time"

// Stock is a listed company whose shares can be traded.
type Stock struct {
	ID          string
	Name        string
	Ticker      string
	PublicFloat int64
	Bankrupt    bool
	BankruptAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateTradable checks that shares of the stock may still move.
func (s *Stock) ValidateTradable() error {
	if s.Bankrupt {
		return ErrBankruptStock
	}
	return nil
}

// ValidateIssue checks that the issuer can sell amount shares from the public float.
func (s *Stock) ValidateIssue(amount int64) error {
	if err := s.ValidateTradable(); err != nil {
		return err
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if s.PublicFloat < amount {
		return ErrInsufficientPublicFloat
	}
	return nil
}

// MarkBankrupt retires the stock.
func (s *Stock) MarkBankrupt(at time.Time) {
	s.Bankrupt = true
	s.BankruptAt = &at
	s.PublicFloat = 0
	s.UpdatedAt = at
}

package usecase

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInconsistentLedger is returned when a ledger invariant is violated.
	ErrInconsistentLedger = errors.New("ledger is inconsistent")
)

// LedgerTotals counts rows that violate a ledger invariant.
type LedgerTotals struct {
	NegativeBalances         int64
	NegativeHoldings         int64
	NegativePublicFloats     int64
	HoldingsOnBankrupt       int64
	OffersOnBankrupt         int64
	BankruptWithFloat        int64
	DuplicatePublicOfferings int64
}

// Violations returns the total number of violating rows.
func (t LedgerTotals) Violations() int64 {
	return t.NegativeBalances + t.NegativeHoldings + t.NegativePublicFloats +
		t.HoldingsOnBankrupt + t.OffersOnBankrupt + t.BankruptWithFloat +
		t.DuplicatePublicOfferings
}

// ConsistencyReport is the result of a ledger-wide consistency check.
type ConsistencyReport struct {
	LedgerTotals
	Consistent bool
	CheckedAt  time.Time
}

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// CheckConsistency verifies that balances, holdings, floats and public
// offerings satisfy the ledger invariants. The report is returned alongside
// ErrInconsistentLedger when any row violates them.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	totals, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		LedgerTotals: *totals,
		Consistent:   totals.Violations() == 0,
		CheckedAt:    time.Now().UTC(),
	}

	if !report.Consistent {
		return report, ErrInconsistentLedger
	}

	return report, nil
}

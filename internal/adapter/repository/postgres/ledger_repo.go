package postgres

import (
	"context"

	"github.com/iho/stockroyale/internal/usecase"
)

const checkLedgerConsistency = `
SELECT
	(SELECT COUNT(*) FROM accounts WHERE balance < 0),
	(SELECT COUNT(*) FROM ownerships WHERE amount < 0),
	(SELECT COUNT(*) FROM stocks WHERE public_float < 0),
	(SELECT COUNT(*) FROM ownerships o JOIN stocks s ON s.id = o.stock_id WHERE s.bankrupt),
	(SELECT COUNT(*) FROM offers o JOIN stocks s ON s.id = o.stock_id WHERE s.bankrupt),
	(SELECT COUNT(*) FROM stocks WHERE bankrupt AND public_float <> 0),
	(SELECT COALESCE(SUM(n - 1), 0)::BIGINT FROM (
		SELECT COUNT(*) AS n FROM offers WHERE type = 'public_offering' GROUP BY stock_id
	) po WHERE n > 1)
`

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db dbtx
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db dbtx) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CheckConsistency counts rows that violate ledger invariants.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (*usecase.LedgerTotals, error) {
	var t usecase.LedgerTotals

	err := r.db.QueryRow(ctx, checkLedgerConsistency).Scan(
		&t.NegativeBalances,
		&t.NegativeHoldings,
		&t.NegativePublicFloats,
		&t.HoldingsOnBankrupt,
		&t.OffersOnBankrupt,
		&t.BankruptWithFloat,
		&t.DuplicatePublicOfferings,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

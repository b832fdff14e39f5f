package memory

import (
	"context"

	"github.com/iho/stockroyale/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// CheckConsistency counts rows that violate ledger invariants.
func (r *LedgerRepository) CheckConsistency(_ context.Context) (*usecase.LedgerTotals, error) {
	totals := &usecase.LedgerTotals{}
	err := r.store.read(func(st *state) error {
		for _, a := range st.accounts {
			if a.Balance.IsNegative() {
				totals.NegativeBalances++
			}
		}

		for k, v := range st.ownerships {
			if v < 0 {
				totals.NegativeHoldings++
			}
			if s, ok := st.stocks[k.stockID]; ok && s.Bankrupt {
				totals.HoldingsOnBankrupt++
			}
		}

		for _, s := range st.stocks {
			if s.PublicFloat < 0 {
				totals.NegativePublicFloats++
			}
			if s.Bankrupt && s.PublicFloat != 0 {
				totals.BankruptWithFloat++
			}
		}

		publicOfferings := make(map[string]int64)
		for _, o := range st.offers {
			if s, ok := st.stocks[o.StockID]; ok && s.Bankrupt {
				totals.OffersOnBankrupt++
			}
			if o.IsPublicOffering() {
				publicOfferings[o.StockID]++
			}
		}
		for _, n := range publicOfferings {
			if n > 1 {
				totals.DuplicatePublicOfferings += n - 1
			}
		}

		return nil
	})
	return totals, err
}

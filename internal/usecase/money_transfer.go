package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockroyale/internal/domain"
)

// MoneyTransferEngine moves cash between accounts, or between an account and
// the platform pool. The pool carries no balance.
// It must run inside the caller's transaction.
type MoneyTransferEngine struct {
	accountRepo AccountRepository
}

// NewMoneyTransferEngine creates a new MoneyTransferEngine.
func NewMoneyTransferEngine(accountRepo AccountRepository) *MoneyTransferEngine {
	return &MoneyTransferEngine{accountRepo: accountRepo}
}

// Transfer debits payerID and credits recipientID by amount.
func (e *MoneyTransferEngine) Transfer(ctx context.Context, tx Transaction, payerID, recipientID string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}

	if payerID == "" || recipientID == "" {
		return domain.ErrMissingReference
	}

	if payerID == recipientID {
		return domain.ErrSelfTrade
	}

	// Lock in sorted order (DEADLOCK PREVENTION)
	ids := []string{payerID, recipientID}
	sort.Strings(ids)

	accounts, err := e.lock(ctx, tx, ids)
	if err != nil {
		return err
	}

	payer := accounts[payerID]
	recipient := accounts[recipientID]

	if err := payer.ValidateDebit(amount); err != nil {
		return err
	}

	if err := recipient.ValidateCredit(amount); err != nil {
		return err
	}

	now := time.Now().UTC()

	if err := e.accountRepo.UpdateBalance(ctx, tx, payer.ID, payer.ApplyDebit(amount), now); err != nil {
		return err
	}

	return e.accountRepo.UpdateBalance(ctx, tx, recipient.ID, recipient.ApplyCredit(amount), now)
}

// ChargeToPool debits userID by amount without crediting anyone.
func (e *MoneyTransferEngine) ChargeToPool(ctx context.Context, tx Transaction, userID string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}

	accounts, err := e.lock(ctx, tx, []string{userID})
	if err != nil {
		return err
	}

	account := accounts[userID]
	if err := account.ValidateDebit(amount); err != nil {
		return err
	}

	return e.accountRepo.UpdateBalance(ctx, tx, account.ID, account.ApplyDebit(amount), time.Now().UTC())
}

// CreditFromPool credits userID by amount out of the platform pool.
func (e *MoneyTransferEngine) CreditFromPool(ctx context.Context, tx Transaction, userID string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}

	accounts, err := e.lock(ctx, tx, []string{userID})
	if err != nil {
		return err
	}

	account := accounts[userID]

	return e.accountRepo.UpdateBalance(ctx, tx, account.ID, account.ApplyCredit(amount), time.Now().UTC())
}

func (e *MoneyTransferEngine) lock(ctx context.Context, tx Transaction, ids []string) (map[string]*domain.Account, error) {
	for _, id := range ids {
		if id == "" {
			return nil, domain.ErrMissingReference
		}
	}

	accounts, err := e.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(ids) {
		return nil, domain.ErrAccountNotFound
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, acc := range accounts {
		accountMap[acc.ID] = acc
	}

	return accountMap, nil
}

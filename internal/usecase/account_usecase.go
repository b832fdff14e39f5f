package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager     TransactionManager
	retrier       Retrier
	accountRepo   AccountRepository
	ownershipRepo OwnershipRepository
	money         *MoneyTransferEngine
	events        eventWriter
	idGen         IDGenerator
	metrics       *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	retrier Retrier,
	accountRepo AccountRepository,
	ownershipRepo OwnershipRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:     txManager,
		retrier:       retrier,
		accountRepo:   accountRepo,
		ownershipRepo: ownershipRepo,
		money:         NewMoneyTransferEngine(accountRepo),
		events:        eventWriter{outboxRepo: outboxRepo, idGen: idGen},
		idGen:         idGen,
		metrics:       metrics,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name           string
	InitialBalance decimal.Decimal
}

// CreateAccount opens a trader account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	if err := domain.ValidateMoney(input.InitialBalance); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		Name:      input.Name,
		Balance:   input.InitialBalance,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := inTransaction(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
			return err
		}

		return uc.events.write(ctx, tx, domain.AggregateTypeAccount, account.ID, domain.EventTypeAccountCreated, map[string]any{
			"account_id": account.ID,
			"name":       account.Name,
			"balance":    account.Balance.String(),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

// Deposit credits an account from the platform pool.
func (uc *AccountUseCase) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Account, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	err := inTransaction(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		return uc.money.CreditFromPool(ctx, tx, accountID, amount)
	})
	if err != nil {
		return nil, err
	}

	return uc.accountRepo.GetByID(ctx, accountID)
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	return uc.accountRepo.List(ctx, input.Limit, input.Offset)
}

// Holdings lists the share positions of an account.
func (uc *AccountUseCase) Holdings(ctx context.Context, accountID string) ([]*domain.Ownership, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	return uc.ownershipRepo.ListByAccount(ctx, accountID)
}

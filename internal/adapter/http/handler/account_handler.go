package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/stockroyale/internal/adapter/http/dto"
	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Account, error)
	Holdings(ctx context.Context, accountID string) ([]*domain.Ownership, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create opens a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountUC.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	accounts, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, page(dto.AccountsFromDomain(accounts), limit, offset))
}

// Deposit credits an account.
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.Deposit(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeDomainError(w, "failed to deposit", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Holdings lists the share holdings of an account.
func (h *AccountHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.accountUC.Holdings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to list holdings", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HoldingsFromDomain(holdings))
}

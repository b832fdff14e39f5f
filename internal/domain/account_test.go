package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		balance     decimal.Decimal
		debitAmount decimal.Decimal
		wantErr     error
	}{
		{
			name:        "debit more than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(150),
			wantErr:     ErrInsufficientFunds,
		},
		{
			name:        "debit exact balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(100),
		},
		{
			name:        "debit less than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(50),
		},
		{
			name:        "fractional debit",
			balance:     decimal.RequireFromString("0.30"),
			debitAmount: decimal.RequireFromString("0.31"),
			wantErr:     ErrInsufficientFunds,
		},
		{
			name:        "zero debit",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.Zero,
			wantErr:     ErrInvalidAmount,
		},
		{
			name:        "negative debit",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(-1),
			wantErr:     ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: tt.balance}

			err := acc.ValidateDebit(tt.debitAmount)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAccount_ValidateCredit(t *testing.T) {
	acc := &Account{Balance: decimal.Zero}

	if err := acc.ValidateCredit(decimal.NewFromInt(1)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := acc.ValidateCredit(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestAccount_Apply(t *testing.T) {
	acc := &Account{Balance: decimal.NewFromInt(100)}

	if got := acc.ApplyDebit(decimal.NewFromInt(30)); !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("expected 70, got %s", got)
	}

	if got := acc.ApplyCredit(decimal.RequireFromString("0.5")); !got.Equal(decimal.RequireFromString("100.5")) {
		t.Errorf("expected 100.5, got %s", got)
	}
}

package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "sentinel", err: ErrOfferNotFound, want: KindNotFound},
		{name: "wrapped", err: fmt.Errorf("accept offer: %w", ErrInsufficientFunds), want: KindInsufficientResource},
		{name: "illegal state", err: ErrPublicOfferingNotCancelable, want: KindIllegalState},
		{name: "not writer", err: ErrNotOfferWriter, want: KindPermissionDenied},
		{name: "conflict", err: fmt.Errorf("%w: 40001", ErrConcurrencyConflict), want: KindConcurrencyConflict},
		{name: "foreign error", err: errors.New("connection reset"), want: KindStoreFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("expected kind %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(fmt.Errorf("wrap: %w", ErrConcurrencyConflict)) {
		t.Error("expected concurrency conflict to be retryable")
	}

	if IsRetryable(ErrInsufficientShares) {
		t.Error("expected insufficient shares to be terminal")
	}
}

func TestForbiddenKind(t *testing.T) {
	if got := KindOf(ErrForbidden); got != KindPermissionDenied {
		t.Errorf("expected %q, got %q", KindPermissionDenied, got)
	}
}

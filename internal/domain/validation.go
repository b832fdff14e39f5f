package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxNameLength  = 255
	MaxTickerLen   = 8
	MaxOfferAmount = 1_000_000_000
	MaxPrice       = "1000000000000" // 1 trillion
)

var (
	tickerRegex = regexp.MustCompile(`^[A-Z][A-Z0-9.]*$`)
	maxPrice    = decimal.RequireFromString(MaxPrice)
)

// ValidateName validates stock and account names
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidArgument)
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidArgument, MaxNameLength)
	}

	return nil
}

// NormalizeTicker upper-cases and validates a ticker symbol.
func NormalizeTicker(ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	if ticker == "" || len(ticker) > MaxTickerLen || !tickerRegex.MatchString(ticker) {
		return "", fmt.Errorf("%w: %q is not a valid ticker", ErrInvalidArgument, ticker)
	}

	return ticker, nil
}

// ValidateShareAmount validates a share count
func ValidateShareAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > MaxOfferAmount {
		return fmt.Errorf("%w: maximum amount is %d", ErrInvalidAmount, MaxOfferAmount)
	}
	return nil
}

// ValidatePrice validates a per-share price
func ValidatePrice(price decimal.Decimal) error {
	if price.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrice
	}
	if price.GreaterThan(maxPrice) {
		return fmt.Errorf("%w: maximum price is %s", ErrInvalidPrice, MaxPrice)
	}
	return nil
}

// ValidateMoney validates a cash amount such as an opening balance.
func ValidateMoney(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}

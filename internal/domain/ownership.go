package domain

// Ownership is the number of shares of one stock held by one account.
// A missing record means zero shares.
type Ownership struct {
	AccountID string
	StockID   string
	Amount    int64
}

// ValidateWithdraw checks that amount shares can be taken from the holding.
func (o *Ownership) ValidateWithdraw(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if o.Amount < amount {
		return ErrInsufficientShares
	}
	return nil
}

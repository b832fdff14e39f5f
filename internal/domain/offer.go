package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferType is the direction of a trade offer.
type OfferType string

const (
	// OfferTypeBuy is posted by a writer who wants to buy shares.
	OfferTypeBuy OfferType = "buy"
	// OfferTypeSell is posted by a writer who wants to sell shares.
	OfferTypeSell OfferType = "sell"
	// OfferTypePublicOffering is a standing sell offer sourced from the public float.
	OfferTypePublicOffering OfferType = "public_offering"
)

// IsValid checks if the offer type is known.
func (t OfferType) IsValid() bool {
	switch t {
	case OfferTypeBuy, OfferTypeSell, OfferTypePublicOffering:
		return true
	}
	return false
}

// Offer is an open trade offer. WriterID is nil for public offerings.
type Offer struct {
	ID        string
	StockID   string
	WriterID  *string
	Type      OfferType
	Amount    int64
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates a new offer.
func (o *Offer) Validate() error {
	if !o.Type.IsValid() {
		return ErrInvalidOfferType
	}
	if o.StockID == "" {
		return ErrMissingReference
	}
	if o.Type != OfferTypePublicOffering && (o.WriterID == nil || *o.WriterID == "") {
		return ErrMissingReference
	}
	if o.Amount <= 0 {
		return ErrInvalidAmount
	}
	if o.Price.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrice
	}
	return nil
}

// IsPublicOffering reports whether the issuer is the counterparty.
func (o *Offer) IsPublicOffering() bool {
	return o.Type == OfferTypePublicOffering
}

// Writer returns the writer ID or an empty string for public offerings.
func (o *Offer) Writer() string {
	if o.WriterID == nil {
		return ""
	}
	return *o.WriterID
}

// EffectiveAmount returns how many shares an acceptance of requested shares settles.
// A nil request takes the whole offer.
func (o *Offer) EffectiveAmount(requested *int64) (int64, error) {
	amount := o.Amount
	if requested != nil && *requested < amount {
		amount = *requested
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}

// Cost returns amount × price.
func (o *Offer) Cost(amount int64) decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(amount))
}

package domain

import "time"

// Event types
const (
	EventTypeOfferPlaced     = "offer.placed"
	EventTypeOfferAccepted   = "offer.accepted"
	EventTypeOfferCanceled   = "offer.canceled"
	EventTypeStockListed     = "stock.listed"
	EventTypeStockBankrupted = "stock.bankrupted"
	EventTypeOfferingEmitted = "offering.emitted"
	EventTypeAccountCreated  = "account.created"
)

// Aggregate types
const (
	AggregateTypeOffer   = "offer"
	AggregateTypeStock   = "stock"
	AggregateTypeAccount = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewOutboxEvent builds an unpublished event.
func NewOutboxEvent(id, aggregateType, aggregateID, eventType string, payload map[string]any, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
	}
}

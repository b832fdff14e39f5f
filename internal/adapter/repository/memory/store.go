// Package memory implements the ledger store with in-memory maps. Used for
// tests and development; nothing is persisted.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

var errForeignTx = errors.New("memory: transaction does not belong to this store or is finished")

type ownershipKey struct {
	accountID string
	stockID   string
}

type state struct {
	stocks     map[string]domain.Stock
	accounts   map[string]domain.Account
	ownerships map[ownershipKey]int64
	offers     map[string]domain.Offer
	trades     []domain.Trade
	prices     map[string]domain.AveragePrice
	history    []domain.HistoricalPrice
	outbox     []domain.OutboxEvent
}

func newState() *state {
	return &state{
		stocks:     make(map[string]domain.Stock),
		accounts:   make(map[string]domain.Account),
		ownerships: make(map[ownershipKey]int64),
		offers:     make(map[string]domain.Offer),
		prices:     make(map[string]domain.AveragePrice),
	}
}

// clone copies every table. Pointer fields inside rows are replaced, never
// mutated in place, so rows can share them.
func (s *state) clone() *state {
	c := &state{
		stocks:     make(map[string]domain.Stock, len(s.stocks)),
		accounts:   make(map[string]domain.Account, len(s.accounts)),
		ownerships: make(map[ownershipKey]int64, len(s.ownerships)),
		offers:     make(map[string]domain.Offer, len(s.offers)),
		trades:     append([]domain.Trade(nil), s.trades...),
		prices:     make(map[string]domain.AveragePrice, len(s.prices)),
		history:    append([]domain.HistoricalPrice(nil), s.history...),
		outbox:     append([]domain.OutboxEvent(nil), s.outbox...),
	}
	for k, v := range s.stocks {
		c.stocks[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.ownerships {
		c.ownerships[k] = v
	}
	for k, v := range s.offers {
		c.offers[k] = v
	}
	for k, v := range s.prices {
		c.prices[k] = v
	}
	return c
}

// Store holds the whole ledger. A transaction holds the write lock from Begin
// until Commit or Rollback, so transactions are fully serialized. Reads
// outside a transaction take the read lock and must not be issued by a
// goroutine that holds an open transaction.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{state: newState()}
}

// Begin implements usecase.TransactionManager.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()

	return &Tx{store: s, snapshot: s.state.clone()}, nil
}

// Tx is a store-wide transaction. Rollback restores the snapshot taken at Begin.
type Tx struct {
	store    *Store
	snapshot *state
	done     bool
}

// Commit keeps the changes and releases the store.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errForeignTx
	}

	// A cancelled transaction is rolled back, not committed.
	if err := ctx.Err(); err != nil {
		t.rollback()
		return err
	}

	t.done = true
	t.snapshot = nil
	t.store.mu.Unlock()

	return nil
}

// Rollback discards the changes. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}

	t.rollback()

	return nil
}

func (t *Tx) rollback() {
	t.store.state = t.snapshot
	t.snapshot = nil
	t.done = true
	t.store.mu.Unlock()
}

// write returns the live state for a transaction of this store.
func (s *Store) write(tx usecase.Transaction) (*state, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s || t.done {
		return nil, errForeignTx
	}
	return s.state, nil
}

// read runs fn under the read lock.
func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// TxManager returns the store as a usecase.TransactionManager.
func (s *Store) TxManager() usecase.TransactionManager {
	return s
}

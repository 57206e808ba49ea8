// Package ledger holds the authoritative card and transaction collections
// and the mutation rules that keep card balances consistent with the
// transaction log.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/common"
	"fintrack/internal/model"
	"fintrack/internal/service"
)

// Persistence slot keys. The card and transaction collections are serialized
// independently, matching the two-slot contract of the persistence medium.
const (
	CardsKey        = "fintrack_cards"
	TransactionsKey = "fintrack_transactions"
)

// NewID returns a collision-resistant identifier for a new entity.
func NewID() string {
	return uuid.New().String()
}

// Store is the single source of truth for cards and transactions. All
// mutations go through its operations; no other component writes the
// collections directly.
type Store struct {
	kv        service.KVStore
	cards     []model.Card
	txns      []model.Transaction
	listeners []func()
	mu        sync.RWMutex
	saveMu    sync.Mutex
}

// Open creates a Store hydrated from the persistence medium. An absent slot
// starts its collection empty; a corrupt or unreadable slot is an error.
func Open(ctx context.Context, kv service.KVStore) (*Store, error) {
	s := &Store{kv: kv}

	raw, ok, err := kv.Load(ctx, CardsKey)
	if err != nil {
		return nil, fmt.Errorf("loading cards: %w", err)
	}
	if ok {
		if err := json.Unmarshal(raw, &s.cards); err != nil {
			return nil, fmt.Errorf("%w: decoding cards: %v", common.ErrPersistence, err)
		}
	}

	raw, ok, err = kv.Load(ctx, TransactionsKey)
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	if ok {
		if err := json.Unmarshal(raw, &s.txns); err != nil {
			return nil, fmt.Errorf("%w: decoding transactions: %v", common.ErrPersistence, err)
		}
	}

	// Coerce enum fields that may have been written by older versions or
	// edited by hand.
	for i := range s.cards {
		s.cards[i].Network = model.ParseNetwork(string(s.cards[i].Network))
	}
	for i := range s.txns {
		s.txns[i].Category = model.ParseCategory(string(s.txns[i].Category))
	}

	return s, nil
}

// OnChange registers a listener invoked after every successful mutation.
// Listeners run outside the store's lock and may call back into the store.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// AddCard inserts a new card with sync status idle. No balance side effects.
func (s *Store) AddCard(ctx context.Context, card model.Card) error {
	s.mu.Lock()
	card.SyncStatus = model.StatusIdle
	card.Network = model.ParseNetwork(string(card.Network))
	s.cards = append(s.cards, card)
	return s.commit(ctx)
}

// UpdateCard replaces the stored card with the same id. Editing the bank
// name or variant name resets the sync status to idle so the card is
// re-enriched; otherwise the incoming sync status is kept as-is.
func (s *Store) UpdateCard(ctx context.Context, updated model.Card) error {
	s.mu.Lock()
	i := s.cardIndex(updated.ID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("card %s: %w", updated.ID, common.ErrNotFound)
	}
	prior := s.cards[i]
	if prior.BankName != updated.BankName || prior.VariantName != updated.VariantName {
		updated.SyncStatus = model.StatusIdle
	}
	updated.Network = model.ParseNetwork(string(updated.Network))
	updated.Balance = clamp(updated.Balance)
	s.cards[i] = updated
	return s.commit(ctx)
}

// RemoveCard deletes the card and every transaction referencing it.
func (s *Store) RemoveCard(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.cardIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("card %s: %w", id, common.ErrNotFound)
	}
	s.cards = append(s.cards[:i], s.cards[i+1:]...)

	kept := s.txns[:0]
	for _, t := range s.txns {
		if t.CardID != id {
			kept = append(kept, t)
		}
	}
	s.txns = kept
	return s.commit(ctx)
}

// AddTransaction inserts the transaction and increases the owning card's
// balance by its amount, clamped at zero.
func (s *Store) AddTransaction(ctx context.Context, tx model.Transaction) error {
	s.mu.Lock()
	i := s.cardIndex(tx.CardID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("card %s: %w", tx.CardID, common.ErrUnknownCard)
	}
	tx.Category = model.ParseCategory(string(tx.Category))
	s.txns = append(s.txns, tx)
	s.cards[i].Balance = clamp(s.cards[i].Balance + tx.Amount)
	return s.commit(ctx)
}

// UpdateTransaction replaces the stored transaction with the same id,
// adjusting card balances for the amount delta and any card reassignment.
func (s *Store) UpdateTransaction(ctx context.Context, updated model.Transaction) error {
	s.mu.Lock()
	ti := s.txnIndex(updated.ID)
	if ti < 0 {
		s.mu.Unlock()
		return fmt.Errorf("transaction %s: %w", updated.ID, common.ErrNotFound)
	}
	old := s.txns[ti]

	newCard := s.cardIndex(updated.CardID)
	if newCard < 0 {
		s.mu.Unlock()
		return fmt.Errorf("card %s: %w", updated.CardID, common.ErrUnknownCard)
	}

	if old.CardID == updated.CardID {
		s.cards[newCard].Balance = clamp(s.cards[newCard].Balance - old.Amount + updated.Amount)
	} else {
		if oldCard := s.cardIndex(old.CardID); oldCard >= 0 {
			s.cards[oldCard].Balance = clamp(s.cards[oldCard].Balance - old.Amount)
		}
		s.cards[newCard].Balance = clamp(s.cards[newCard].Balance + updated.Amount)
	}

	updated.Category = model.ParseCategory(string(updated.Category))
	s.txns[ti] = updated
	return s.commit(ctx)
}

// RemoveTransaction subtracts the transaction's amount from its card's
// balance (clamped at zero) and deletes it.
func (s *Store) RemoveTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	ti := s.txnIndex(id)
	if ti < 0 {
		s.mu.Unlock()
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	tx := s.txns[ti]
	if ci := s.cardIndex(tx.CardID); ci >= 0 {
		s.cards[ci].Balance = clamp(s.cards[ci].Balance - tx.Amount)
	}
	s.txns = append(s.txns[:ti], s.txns[ti+1:]...)
	return s.commit(ctx)
}

// SetSyncStatus records a sync state transition for one card.
func (s *Store) SetSyncStatus(ctx context.Context, cardID string, status model.SyncStatus) error {
	s.mu.Lock()
	i := s.cardIndex(cardID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("card %s: %w", cardID, common.ErrNotFound)
	}
	s.cards[i].SyncStatus = status
	return s.commit(ctx)
}

// ApplyIntel merges a successful enrichment result into the card: benefits,
// milestones (each given a fresh id), sources, status completed, and the
// sync timestamp. Prior enrichment data is replaced wholesale.
func (s *Store) ApplyIntel(ctx context.Context, cardID string, intel *service.CardIntel, syncedAt time.Time) error {
	s.mu.Lock()
	i := s.cardIndex(cardID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("card %s: %w", cardID, common.ErrNotFound)
	}

	milestones := make([]model.RewardMilestone, 0, len(intel.Milestones))
	for _, m := range intel.Milestones {
		milestones = append(milestones, model.RewardMilestone{
			ID:     NewID(),
			Label:  m.Label,
			Target: m.Target,
			Reward: m.Reward,
		})
	}

	s.cards[i].Benefits = intel.Benefits
	s.cards[i].Milestones = milestones
	s.cards[i].Sources = intel.Sources
	s.cards[i].SyncStatus = model.StatusCompleted
	s.cards[i].LastSynced = syncedAt.UTC().Format(time.RFC3339)
	return s.commit(ctx)
}

// Cards returns a snapshot copy of the card collection.
func (s *Store) Cards() []model.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Card, len(s.cards))
	copy(out, s.cards)
	return out
}

// Transactions returns a snapshot copy of the transaction collection in
// insertion order. Display ordering is the caller's concern.
func (s *Store) Transactions() []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Transaction, len(s.txns))
	copy(out, s.txns)
	return out
}

// Card returns one card by id.
func (s *Store) Card(id string) (model.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.cardIndex(id); i >= 0 {
		return s.cards[i], nil
	}
	return model.Card{}, fmt.Errorf("card %s: %w", id, common.ErrNotFound)
}

// Transaction returns one transaction by id.
func (s *Store) Transaction(id string) (model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.txnIndex(id); i >= 0 {
		return s.txns[i], nil
	}
	return model.Transaction{}, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
}

// commit persists both collections, releases the lock, and notifies change
// listeners. Callers must hold the write lock; commit always releases it.
// The save mutex is acquired before the write lock is released, so
// concurrent commits reach the persistence medium in mutation order and an
// older snapshot can never overwrite a newer one.
// A persistence failure does not roll back the in-memory mutation: the
// mutation already succeeded logically, so the error is surfaced for the
// caller to retry or report.
func (s *Store) commit(ctx context.Context) error {
	cardsJSON, err := json.Marshal(s.cards)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("encoding cards: %w", err)
	}
	txnsJSON, err := json.Marshal(s.txns)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("encoding transactions: %w", err)
	}
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.saveMu.Lock()
	s.mu.Unlock()

	var saveErr error
	if err := s.kv.Save(ctx, CardsKey, cardsJSON); err != nil {
		saveErr = err
	}
	if err := s.kv.Save(ctx, TransactionsKey, txnsJSON); err != nil && saveErr == nil {
		saveErr = err
	}
	s.saveMu.Unlock()
	if saveErr != nil {
		slog.Warn("Failed to persist ledger state", "error", saveErr)
	}

	for _, fn := range listeners {
		fn()
	}
	return saveErr
}

func (s *Store) cardIndex(id string) int {
	for i := range s.cards {
		if s.cards[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) txnIndex(id string) int {
	for i := range s.txns {
		if s.txns[i].ID == id {
			return i
		}
	}
	return -1
}

func clamp(balance float64) float64 {
	if balance < 0 {
		return 0
	}
	return balance
}

// Package enrich drives the background enrichment of cards with publicly
// known benefits and milestones. It guarantees at most one in-flight
// enrichment request per card at any time.
package enrich

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/common"
	"fintrack/internal/ledger"
	"fintrack/internal/model"
	"fintrack/internal/service"
)

// Scheduler watches the ledger's card set and dispatches enrichment lookups
// for eligible cards. The in-flight table is scheduler-local bookkeeping,
// distinct from the persisted sync status, so that re-evaluations racing
// with a status write cannot double-dispatch the same card.
type Scheduler struct {
	ctx      context.Context
	store    *ledger.Store
	intel    service.CardIntelligence
	inflight map[string]bool
	now      func() time.Time
	mu       sync.Mutex
	wg       sync.WaitGroup
}

// New creates a scheduler over the given ledger and enrichment collaborator.
func New(store *ledger.Store, intel service.CardIntelligence) *Scheduler {
	return &Scheduler{
		store:    store,
		intel:    intel,
		inflight: make(map[string]bool),
		now:      time.Now,
	}
}

// Start subscribes the scheduler to ledger changes and runs an initial
// evaluation pass so cards persisted as idle are picked up on startup.
// ctx bounds every enrichment call the scheduler dispatches.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.store.OnChange(s.Evaluate)
	s.Evaluate()
}

// Reconcile computes the enrichment backlog for one evaluation pass: cards
// with a bank name and variant name that are idle (or have never synced) and
// are not already marked in flight. Order follows the card set, so repeated
// passes drain the backlog deterministically.
func Reconcile(cards []model.Card, inflight map[string]bool) []string {
	var eligible []string
	for i := range cards {
		c := &cards[i]
		if c.SyncEligible() && !inflight[c.ID] {
			eligible = append(eligible, c.ID)
		}
	}
	return eligible
}

// Evaluate runs one pass: it dispatches the first newly eligible card, if
// any. Each completed sync triggers another pass through the ledger's change
// notification, so a backlog of idle cards is processed one dispatch at a
// time while previously dispatched syncs may still be in flight.
func (s *Scheduler) Evaluate() {
	s.mu.Lock()
	eligible := Reconcile(s.store.Cards(), s.inflight)
	if len(eligible) == 0 {
		s.mu.Unlock()
		return
	}
	id := eligible[0]
	s.inflight[id] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.sync(id)
}

// Wait blocks until every in-flight enrichment has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Busy reports whether any enrichment request is currently in flight.
func (s *Scheduler) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight) > 0
}

func (s *Scheduler) sync(id string) {
	defer s.wg.Done()

	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	card, err := s.store.Card(id)
	if err != nil {
		// Card was removed between evaluation and dispatch.
		s.clear(id)
		return
	}

	if err := s.store.SetSyncStatus(ctx, id, model.StatusSyncing); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.clear(id)
			return
		}
		// Persistence trouble is not fatal to the sync itself.
		slog.Warn("Failed to persist syncing status", "card", id, "error", err)
	}

	intel, err := s.intel.FetchCardIntelligence(ctx, card.BankName, card.VariantName)

	if err != nil {
		// Recorded on the card only, never propagated as a fault.
		common.LogError(err, "Card enrichment failed", common.Fields{
			"card":    id,
			"bank":    card.BankName,
			"variant": card.VariantName,
		})
		if err := s.store.SetSyncStatus(ctx, id, model.StatusFailed); err != nil {
			slog.Warn("Failed to record failed sync", "card", id, "error", err)
		}
	} else {
		if err := s.store.ApplyIntel(ctx, id, intel, s.now()); err != nil {
			slog.Warn("Failed to apply enrichment result", "card", id, "error", err)
		} else {
			common.LogInfo("Card enriched", common.Fields{
				"card":       id,
				"benefits":   len(intel.Benefits),
				"milestones": len(intel.Milestones),
			})
		}
	}

	s.clear(id)
	// An edit during the flight may have reset this card to idle; re-run
	// the pass now that the in-flight entry is gone.
	s.Evaluate()
}

func (s *Scheduler) clear(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/ledger"
	"fintrack/internal/model"
	"fintrack/internal/service"
	"fintrack/internal/storage"
)

func newTestLedger(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(context.Background(), storage.NewMemoryStore())
	require.NoError(t, err)
	return store
}

func waitForStatus(t *testing.T, store *ledger.Store, cardID string, want model.SyncStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		card, err := store.Card(cardID)
		return err == nil && card.SyncStatus == want
	}, 2*time.Second, 10*time.Millisecond, "card %s never reached status %s", cardID, want)
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name     string
		cards    []model.Card
		inflight map[string]bool
		want     []string
	}{
		{
			name: "idle cards with bank and variant are eligible",
			cards: []model.Card{
				{ID: "a", BankName: "HDFC", VariantName: "Infinia", SyncStatus: model.StatusIdle},
				{ID: "b", BankName: "Axis", VariantName: "Magnus"},
			},
			want: []string{"a", "b"},
		},
		{
			name: "missing bank or variant excludes a card",
			cards: []model.Card{
				{ID: "a", BankName: "HDFC", SyncStatus: model.StatusIdle},
				{ID: "b", VariantName: "Magnus", SyncStatus: model.StatusIdle},
			},
			want: nil,
		},
		{
			name: "terminal and in-progress statuses are skipped",
			cards: []model.Card{
				{ID: "a", BankName: "HDFC", VariantName: "Infinia", SyncStatus: model.StatusCompleted},
				{ID: "b", BankName: "Axis", VariantName: "Magnus", SyncStatus: model.StatusFailed},
				{ID: "c", BankName: "ICICI", VariantName: "Emeralde", SyncStatus: model.StatusSyncing},
			},
			want: nil,
		},
		{
			name: "in-flight bookkeeping wins over persisted status",
			cards: []model.Card{
				{ID: "a", BankName: "HDFC", VariantName: "Infinia", SyncStatus: model.StatusIdle},
			},
			inflight: map[string]bool{"a": true},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reconcile(tt.cards, tt.inflight))
		})
	}
}

func TestScheduler_EnrichesEligibleCard(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t)
	mock := NewMockIntelligence()
	mock.SetResult("HDFC", &service.CardIntel{
		Benefits:   []string{"Lounge access"},
		Milestones: []service.MilestoneIntel{{Label: "Spend", Target: 100000, Reward: "Voucher"}},
	})

	sched := New(store, mock)
	sched.Start(ctx)

	require.NoError(t, store.AddCard(ctx, model.Card{ID: "c1", BankName: "HDFC", VariantName: "Infinia"}))

	waitForStatus(t, store, "c1", model.StatusCompleted)
	sched.Wait()

	card, err := store.Card("c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lounge access"}, card.Benefits)
	require.Len(t, card.Milestones, 1)
	assert.NotEmpty(t, card.Milestones[0].ID)
	assert.NotEmpty(t, card.LastSynced)

	// Only bank and variant ever reach the collaborator.
	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, MockIntelCall{BankName: "HDFC", VariantName: "Infinia"}, calls[0])
}

func TestScheduler_FailureIsContained(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t)
	mock := NewMockIntelligence()
	mock.SetError("HDFC", errors.New("quota exhausted"))

	sched := New(store, mock)
	sched.Start(ctx)

	require.NoError(t, store.AddCard(ctx, model.Card{ID: "c1", BankName: "HDFC", VariantName: "Infinia"}))

	waitForStatus(t, store, "c1", model.StatusFailed)
	sched.Wait()

	// No automatic retry of a failed card.
	assert.Len(t, mock.Calls(), 1)

	card, err := store.Card("c1")
	require.NoError(t, err)
	assert.Empty(t, card.Benefits)
}

func TestScheduler_AtMostOneInFlightPerCard(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t)
	mock := NewMockIntelligence()
	mock.Gate()

	sched := New(store, mock)
	sched.Start(ctx)

	require.NoError(t, store.AddCard(ctx, model.Card{ID: "c1", BankName: "HDFC", VariantName: "Infinia"}))

	require.Eventually(t, func() bool { return len(mock.Calls()) == 1 }, 2*time.Second, 10*time.Millisecond)

	// Two rapid edits reset the card to idle while the first lookup is
	// still in flight; neither may double-dispatch.
	card, err := store.Card("c1")
	require.NoError(t, err)
	card.VariantName = "Infinia Metal"
	require.NoError(t, store.UpdateCard(ctx, card))
	card, err = store.Card("c1")
	require.NoError(t, err)
	card.VariantName = "Infinia"
	require.NoError(t, store.UpdateCard(ctx, card))

	assert.Len(t, mock.Calls(), 1)

	// The in-flight lookup resolves and records its result.
	mock.Release()
	waitForStatus(t, store, "c1", model.StatusCompleted)
	sched.Wait()
	assert.Len(t, mock.Calls(), 1)

	// With the flight finished, a fresh edit dispatches again.
	card, err = store.Card("c1")
	require.NoError(t, err)
	card.VariantName = "Infinia Metal"
	require.NoError(t, store.UpdateCard(ctx, card))

	require.Eventually(t, func() bool { return len(mock.Calls()) == 2 }, 2*time.Second, 10*time.Millisecond)
	mock.Release()
	waitForStatus(t, store, "c1", model.StatusCompleted)
	sched.Wait()
}

func TestScheduler_DrainsBacklog(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t)
	mock := NewMockIntelligence()

	require.NoError(t, store.AddCard(ctx, model.Card{ID: "a", BankName: "HDFC", VariantName: "Infinia"}))
	require.NoError(t, store.AddCard(ctx, model.Card{ID: "b", BankName: "Axis", VariantName: "Magnus"}))
	require.NoError(t, store.AddCard(ctx, model.Card{ID: "c", BankName: "ICICI", VariantName: "Emeralde"}))

	sched := New(store, mock)
	sched.Start(ctx)

	for _, id := range []string{"a", "b", "c"} {
		waitForStatus(t, store, id, model.StatusCompleted)
	}
	sched.Wait()
	assert.Len(t, mock.Calls(), 3)
}

func TestScheduler_IgnoresIncompleteCards(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t)
	mock := NewMockIntelligence()

	sched := New(store, mock)
	sched.Start(ctx)

	// No variant name: never eligible.
	require.NoError(t, store.AddCard(ctx, model.Card{ID: "c1", BankName: "HDFC"}))

	time.Sleep(100 * time.Millisecond)
	sched.Wait()
	assert.Empty(t, mock.Calls())

	card, err := store.Card("c1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusIdle, card.SyncStatus)
}

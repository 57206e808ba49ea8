package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/common"
	"fintrack/internal/model"
	"fintrack/internal/service"
	"fintrack/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), storage.NewMemoryStore())
	require.NoError(t, err)
	return store
}

func addTestCard(t *testing.T, s *Store, id, bank, variant string) {
	t.Helper()
	require.NoError(t, s.AddCard(context.Background(), model.Card{
		ID:          id,
		BankName:    bank,
		VariantName: variant,
		Network:     model.NetworkVisa,
		Limit:       100000,
	}))
}

func TestStore_BalanceConsistency(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addTestCard(t, s, "c1", "HDFC", "Infinia")

	require.NoError(t, s.AddTransaction(ctx, model.Transaction{
		ID: "t1", CardID: "c1", Amount: 500, Date: "2024-01-10", Category: model.CategoryFood,
	}))
	card, err := s.Card("c1")
	require.NoError(t, err)
	assert.Equal(t, 500.0, card.Balance)

	require.NoError(t, s.AddTransaction(ctx, model.Transaction{
		ID: "t2", CardID: "c1", Amount: 300, Date: "2024-01-11", Category: model.CategoryShopping,
	}))
	card, err = s.Card("c1")
	require.NoError(t, err)
	assert.Equal(t, 800.0, card.Balance)

	require.NoError(t, s.RemoveTransaction(ctx, "t1"))
	card, err = s.Card("c1")
	require.NoError(t, err)
	assert.Equal(t, 300.0, card.Balance)
}

func TestStore_UpdateTransactionSameCard(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addTestCard(t, s, "c1", "HDFC", "Infinia")

	require.NoError(t, s.AddTransaction(ctx, model.Transaction{
		ID: "t1", CardID: "c1", Amount: 200, Date: "2024-01-10",
	}))
	require.NoError(t, s.UpdateTransaction(ctx, model.Transaction{
		ID: "t1", CardID: "c1", Amount: 350, Date: "2024-01-10",
	}))

	card, err := s.Card("c1")
	require.NoError(t, err)
	assert.Equal(t, 350.0, card.Balance)
}

func TestStore_UpdateTransactionReassignment(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addTestCard(t, s, "a", "HDFC", "Infinia")
	addTestCard(t, s, "b", "Axis", "Magnus")

	require.NoError(t, s.AddTransaction(ctx, model.Transaction{
		ID: "t1", CardID: "a", Amount: 200, Date: "2024-01-10",
	}))

	require.NoError(t, s.UpdateTransaction(ctx, model.Transaction{
		ID: "t1", CardID: "b", Amount: 200, Date: "2024-01-10",
	}))

	cardA, err := s.Card("a")
	require.NoError(t, err)
	cardB, err := s.Card("b")
	require.NoError(t, err)
	assert.Equal(t, 0.0, cardA.Balance)
	assert.Equal(t, 200.0, cardB.Balance)
}

func TestStore_RemoveTransactionClampsAtZero(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addTestCard(t, s, "c1", "HDFC", "Infinia")

	require.NoError(t, s.AddTransaction(ctx, model.Transaction{
		ID: "t1", CardID: "c1", Amount: 500, Date: "2024-01-10",
	}))

	// Manual edit drops the balance below the transaction's amount.
	card, err := s.Card("c1")
	require.NoError(t, err)
	card.Balance = 100
	require.NoError(t, s.UpdateCard(ctx, card))

	require.NoError(t, s.RemoveTransaction(ctx, "t1"))
	card, err = s.Card("c1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, card.Balance)
}

func TestStore_RemoveCardCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addTestCard(t, s, "a", "HDFC", "Infinia")
	addTestCard(t, s, "b", "Axis", "Magnus")

	require.NoError(t, s.AddTransaction(ctx, model.Transaction{ID: "t1", CardID: "a", Amount: 100, Date: "2024-01-10"}))
	require.NoError(t, s.AddTransaction(ctx, model.Transaction{ID: "t2", CardID: "a", Amount: 200, Date: "2024-01-11"}))
	require.NoError(t, s.AddTransaction(ctx, model.Transaction{ID: "t3", CardID: "b", Amount: 300, Date: "2024-01-12"}))

	require.NoError(t, s.RemoveCard(ctx, "a"))

	txns := s.Transactions()
	require.Len(t, txns, 1)
	assert.Equal(t, "t3", txns[0].ID)

	_, err := s.Card("a")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStore_UpdateCardSyncReset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addTestCard(t, s, "c1", "HDFC", "Infinia")
	require.NoError(t, s.SetSyncStatus(ctx, "c1", model.StatusCompleted))

	// No-op edit keeps the incoming status.
	card, err := s.Card("c1")
	require.NoError(t, err)
	card.Limit = 200000
	require.NoError(t, s.UpdateCard(ctx, card))
	card, err = s.Card("c1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, card.SyncStatus)

	// Editing the variant resets to idle.
	card.VariantName = "Infinia Metal"
	require.NoError(t, s.UpdateCard(ctx, card))
	card, err = s.Card("c1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusIdle, card.SyncStatus)
}

func TestStore_AddCardForcesIdle(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddCard(context.Background(), model.Card{
		ID: "c1", BankName: "HDFC", SyncStatus: model.StatusCompleted,
	}))
	card, err := s.Card("c1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusIdle, card.SyncStatus)
}

func TestStore_ReferentialIntegrity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.AddTransaction(ctx, model.Transaction{ID: "t1", CardID: "ghost", Amount: 100})
	assert.ErrorIs(t, err, common.ErrUnknownCard)
	assert.Empty(t, s.Transactions())

	addTestCard(t, s, "c1", "HDFC", "Infinia")
	require.NoError(t, s.AddTransaction(ctx, model.Transaction{ID: "t1", CardID: "c1", Amount: 100, Date: "2024-01-10"}))

	err = s.UpdateTransaction(ctx, model.Transaction{ID: "t1", CardID: "ghost", Amount: 100})
	assert.ErrorIs(t, err, common.ErrUnknownCard)
}

func TestStore_NotFoundErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	assert.ErrorIs(t, s.UpdateCard(ctx, model.Card{ID: "nope"}), common.ErrNotFound)
	assert.ErrorIs(t, s.RemoveCard(ctx, "nope"), common.ErrNotFound)
	assert.ErrorIs(t, s.UpdateTransaction(ctx, model.Transaction{ID: "nope"}), common.ErrNotFound)
	assert.ErrorIs(t, s.RemoveTransaction(ctx, "nope"), common.ErrNotFound)
	assert.ErrorIs(t, s.SetSyncStatus(ctx, "nope", model.StatusSyncing), common.ErrNotFound)
}

func TestStore_PersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()

	s1, err := Open(ctx, kv)
	require.NoError(t, err)
	require.NoError(t, s1.AddCard(ctx, model.Card{ID: "c1", BankName: "HDFC", VariantName: "Infinia", Network: model.NetworkVisa, Limit: 500000}))
	require.NoError(t, s1.AddTransaction(ctx, model.Transaction{
		ID: "t1", CardID: "c1", Amount: 1250.50, Date: "2024-03-15", Description: "Groceries", Category: model.CategoryFood,
	}))

	s2, err := Open(ctx, kv)
	require.NoError(t, err)

	cards := s2.Cards()
	require.Len(t, cards, 1)
	assert.Equal(t, "HDFC", cards[0].BankName)
	assert.Equal(t, model.NetworkVisa, cards[0].Network)
	assert.Equal(t, 1250.50, cards[0].Balance)

	txns := s2.Transactions()
	require.Len(t, txns, 1)
	assert.Equal(t, model.CategoryFood, txns[0].Category)
	assert.Equal(t, "2024-03-15", txns[0].Date)
}

func TestStore_OpenWithEmptySlots(t *testing.T) {
	s, err := Open(context.Background(), storage.NewMemoryStore())
	require.NoError(t, err)
	assert.Empty(t, s.Cards())
	assert.Empty(t, s.Transactions())
}

func TestStore_ApplyIntel(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addTestCard(t, s, "c1", "HDFC", "Infinia")

	syncedAt := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	err := s.ApplyIntel(ctx, "c1", &service.CardIntel{
		Benefits: []string{"Unlimited lounge access"},
		Milestones: []service.MilestoneIntel{
			{Label: "Annual spend", Target: 1000000, Reward: "Fee waiver"},
		},
		Sources: []model.IntelSource{{Title: "HDFC", URI: "https://hdfcbank.com"}},
	}, syncedAt)
	require.NoError(t, err)

	card, err := s.Card("c1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, card.SyncStatus)
	assert.Equal(t, "2024-06-01T10:30:00Z", card.LastSynced)
	assert.Equal(t, []string{"Unlimited lounge access"}, card.Benefits)
	require.Len(t, card.Milestones, 1)
	assert.NotEmpty(t, card.Milestones[0].ID)
	assert.Equal(t, 1000000.0, card.Milestones[0].Target)
}

func TestStore_OnChangeFiresAfterMutation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var fired int
	s.OnChange(func() { fired++ })

	require.NoError(t, s.AddCard(ctx, model.Card{ID: "c1", BankName: "HDFC"}))
	assert.Equal(t, 1, fired)

	require.NoError(t, s.AddTransaction(ctx, model.Transaction{ID: "t1", CardID: "c1", Amount: 10, Date: "2024-01-01"}))
	assert.Equal(t, 2, fired)
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		require.False(t, seen[id])
		seen[id] = true
	}
}

// stallingKV delays the first cards-slot save until released, so tests can
// overlap two commits.
type stallingKV struct {
	inner   service.KVStore
	release chan struct{}
	mu      sync.Mutex
	stalled bool
}

func (k *stallingKV) Save(ctx context.Context, key string, value []byte) error {
	k.mu.Lock()
	stall := !k.stalled && key == CardsKey
	if stall {
		k.stalled = true
	}
	k.mu.Unlock()
	if stall {
		<-k.release
	}
	return k.inner.Save(ctx, key, value)
}

func (k *stallingKV) Load(ctx context.Context, key string) ([]byte, bool, error) {
	return k.inner.Load(ctx, key)
}

func (k *stallingKV) Close() error { return k.inner.Close() }

func TestStore_ConcurrentCommitsPersistInOrder(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	kv := &stallingKV{inner: mem, release: make(chan struct{})}

	s, err := Open(ctx, kv)
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() {
		first <- s.AddCard(ctx, model.Card{ID: "c1", BankName: "HDFC"})
	}()
	require.Eventually(t, func() bool {
		kv.mu.Lock()
		defer kv.mu.Unlock()
		return kv.stalled
	}, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() {
		second <- s.AddCard(ctx, model.Card{ID: "c2", BankName: "ICICI"})
	}()

	// The second commit must not reach the persistence medium while the
	// first is still writing its snapshot.
	time.Sleep(20 * time.Millisecond)
	if _, ok, _ := mem.Load(ctx, CardsKey); ok {
		t.Fatal("second commit persisted ahead of the first")
	}

	close(kv.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	reloaded, err := Open(ctx, mem)
	require.NoError(t, err)
	assert.Len(t, reloaded.Cards(), 2)
}

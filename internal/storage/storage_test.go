package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/service"
)

// Both implementations satisfy the same contract.
var _ service.KVStore = (*SQLiteStore)(nil)
var _ service.KVStore = (*MemoryStore)(nil)

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "fintrack.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, ok, err := store.Load(ctx, "fintrack_cards")
	require.NoError(t, err)
	assert.False(t, ok, "unwritten slot should report absent")

	require.NoError(t, store.Save(ctx, "fintrack_cards", []byte(`[{"id":"c1"}]`)))

	value, ok, err := store.Load(ctx, "fintrack_cards")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"c1"}]`, string(value))
}

func TestSQLiteStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "fintrack.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Save(ctx, "slot", []byte("one")))
	require.NoError(t, store.Save(ctx, "slot", []byte("two")))

	value, ok, err := store.Load(ctx, "slot")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "two", string(value))
}

func TestSQLiteStore_SlotsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "fintrack.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Save(ctx, "fintrack_cards", []byte("cards")))

	_, ok, err := store.Load(ctx, "fintrack_transactions")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "fintrack.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "slot", []byte("durable")))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	value, ok, err := reopened.Load(ctx, "slot")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "durable", string(value))
}

func TestSQLiteStore_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.Error(t, err)
}

func TestMemoryStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Load(ctx, "slot")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "slot", []byte("value")))

	value, ok, err := store.Load(ctx, "slot")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value", string(value))
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	buf := []byte("original")
	require.NoError(t, store.Save(ctx, "slot", buf))
	buf[0] = 'X'

	value, _, err := store.Load(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, "original", string(value))
}

package pool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eligo/internal/linkage"
)

func sampleRecords() []linkage.Candidate {
	return []linkage.Candidate{
		{ID: "rec-1", Name: "John Smith", DOB: "1985-03-14", State: "TX", Outcome: "approved"},
		{ID: "rec-2", Name: "Maria Garcia", DOB: "1992-11-02", State: "CA", Outcome: "denied"},
	}
}

func TestInMemoryStoreList(t *testing.T) {
	store := NewInMemoryStore(sampleRecords())

	got, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "rec-1", got[0].ID)

	// Mutating the returned slice must not affect the store.
	got[0].ID = "mutated"
	again, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rec-1", again[0].ID)
}

func TestInMemoryStoreReplace(t *testing.T) {
	store := NewInMemoryStore(sampleRecords())
	store.Replace([]linkage.Candidate{{ID: "rec-9"}})

	got, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "rec-9", got[0].ID)
}

func TestNewInMemoryStoreFromFile(t *testing.T) {
	t.Run("loads snapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pool.json")
		require.NoError(t, os.WriteFile(path, []byte(`[
			{"id":"rec-1","name":"John Smith","dob":"1985-03-14","state":"TX","address":"123 Main St","outcome":"approved"}
		]`), 0o600))

		store, err := NewInMemoryStoreFromFile(path)
		require.NoError(t, err)

		got, err := store.List(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "John Smith", got[0].Name)
		assert.Equal(t, "approved", got[0].Outcome)
	})

	t.Run("missing file yields empty pool", func(t *testing.T) {
		store, err := NewInMemoryStoreFromFile(filepath.Join(t.TempDir(), "absent.json"))
		require.NoError(t, err)

		got, err := store.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("malformed snapshot is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pool.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		_, err := NewInMemoryStoreFromFile(path)
		require.Error(t, err)
	})
}

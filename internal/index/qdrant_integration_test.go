//go:build integration

package index

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupQdrantStore creates a store over a uniquely named collection.
// Skips the test if Qdrant is not running.
func setupQdrantStore(t *testing.T) *QdrantStore {
	t.Helper()

	collection := fmt.Sprintf("test_units_%d", time.Now().UnixNano())
	store, err := NewQdrantStore("localhost", 6334, collection, 3)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Drop(context.Background())
		_ = store.Close()
	})
	return store
}

func TestQdrantStore_RoundTrip_Integration(t *testing.T) {
	ctx := context.Background()
	store := setupQdrantStore(t)

	units, vectors := sampleUnits()
	for i := range units {
		// Qdrant point IDs must be UUIDs.
		units[i].ID = uuid.New().String()
	}

	exists, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Persist(ctx, units, vectors))

	exists, err = store.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(units), count)

	results, err := store.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, units[0].ID, results[0].Unit.ID)
	assert.Equal(t, units[0].Content, results[0].Unit.Content)
	assert.Equal(t, units[0].Metadata.UnitType, results[0].Unit.Metadata.UnitType)

	require.NoError(t, store.Drop(ctx))
	exists, err = store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestQdrantStore_DropMissingCollection_Integration(t *testing.T) {
	store := setupQdrantStore(t)
	assert.NoError(t, store.Drop(context.Background()), "dropping an absent collection is not an error")
}

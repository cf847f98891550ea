package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/insights-rag-server/internal/document"
)

func sampleUnits() ([]document.Unit, [][]float32) {
	units := []document.Unit{
		{
			ID:      "unit-a",
			Content: "File sales.csv:\n- Rows: 10",
			Metadata: document.Metadata{
				Source:   "data/sales.csv",
				UnitType: document.UnitSummary,
			},
		},
		{
			ID:      "unit-b",
			Content: "File sales.csv - rows 0 to 9:\n| region |",
			Metadata: document.Metadata{
				Source:     "data/sales.csv",
				UnitType:   document.UnitChunk,
				RangeStart: 0,
				RangeEnd:   9,
			},
		},
		{
			ID:      "unit-c",
			Content: "Text report from notes.txt:\nrevenue grew",
			Metadata: document.Metadata{
				Source:   "data/notes.txt",
				UnitType: document.UnitTextReport,
			},
		},
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.7, 0.7, 0},
	}
	return units, vectors
}

func TestSQLiteStore_ExistsFollowsLocation(t *testing.T) {
	ctx := context.Background()
	location := filepath.Join(t.TempDir(), "vector_index")
	store := NewSQLiteStore(location)

	exists, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists, "location should not exist before persist")

	units, vectors := sampleUnits()
	require.NoError(t, store.Persist(ctx, units, vectors))

	exists, err = store.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists, "persist should create the location")

	require.NoError(t, store.Drop(ctx))
	exists, err = store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists, "drop should remove the location")
}

func TestSQLiteStore_PersistLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	location := filepath.Join(t.TempDir(), "vector_index")
	units, vectors := sampleUnits()

	writer := NewSQLiteStore(location)
	require.NoError(t, writer.Persist(ctx, units, vectors))

	// Fresh store instance, as a restarted process would create.
	reader := NewSQLiteStore(location)
	require.NoError(t, reader.Load(ctx))

	count, err := reader.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(units), count)

	results, err := reader.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "unit-a", results[0].Unit.ID)
	assert.Equal(t, document.UnitSummary, results[0].Unit.Metadata.UnitType)
	assert.Equal(t, units[0].Content, results[0].Unit.Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestSQLiteStore_SearchOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "vector_index"))
	units, vectors := sampleUnits()
	require.NoError(t, store.Persist(ctx, units, vectors))

	results, err := store.Search(ctx, []float32{0, 1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "unit-b", results[0].Unit.ID)
	assert.Equal(t, "unit-c", results[1].Unit.ID)
	assert.Equal(t, "unit-a", results[2].Unit.ID)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestSQLiteStore_SearchBounds(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "vector_index"))
	units, vectors := sampleUnits()
	require.NoError(t, store.Persist(ctx, units, vectors))

	results, err := store.Search(ctx, []float32{1, 0, 0}, 100)
	require.NoError(t, err)
	assert.Len(t, results, len(units), "k above corpus size caps at corpus size")

	results, err = store.Search(ctx, []float32{1, 0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteStore_PersistLengthMismatch(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "vector_index"))
	units, _ := sampleUnits()

	err := store.Persist(context.Background(), units, [][]float32{{1}})
	assert.Error(t, err)
}

func TestSQLiteStore_LoadEmptyLocation(t *testing.T) {
	ctx := context.Background()
	location := t.TempDir() // exists, but holds no database file
	store := NewSQLiteStore(location)

	require.NoError(t, store.Load(ctx))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestVectorCodecRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1.25, 3.75, 0}
	assert.Equal(t, vec, decodeVector(encodeVector(vec)))
	assert.Empty(t, decodeVector(nil))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, cosine([]float32{0, 0}, []float32{1, 1}))
}

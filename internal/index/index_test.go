package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/insights-rag-server/internal/document"
)

// fakeEmbedder derives deterministic vectors from character-class
// counts, so tests exercise the pipeline without network calls.
type fakeEmbedder struct {
	documentCalls int
	queryCalls    int
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.documentCalls++
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = fakeVector(text)
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.queryCalls++
	return fakeVector(text), nil
}

func fakeVector(text string) []float32 {
	vec := make([]float32, 4)
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			vec[0]++
		case r >= '0' && r <= '9':
			vec[1]++
		case r == ' ' || r == '\n':
			vec[2]++
		default:
			vec[3]++
		}
	}
	return vec
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestIndex(t *testing.T) (*CorpusIndex, string) {
	t.Helper()
	location := filepath.Join(t.TempDir(), "vector_index")
	store := NewSQLiteStore(location)
	ci := New(store, &fakeEmbedder{}, document.NewBuilder(), testLogger())
	return ci, location
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	return root
}

func TestOpenOrBuild_InvalidRoot(t *testing.T) {
	ctx := context.Background()
	ci, _ := newTestIndex(t)

	_, err := ci.OpenOrBuild(ctx, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrInvalidRoot)

	file := filepath.Join(t.TempDir(), "not-a-dir.csv")
	require.NoError(t, os.WriteFile(file, []byte("a,b\n"), 0o644))
	_, err = ci.OpenOrBuild(ctx, file)
	assert.ErrorIs(t, err, ErrInvalidRoot)
}

func TestOpenOrBuild_BuildsAndRetrieves(t *testing.T) {
	ctx := context.Background()
	ci, _ := newTestIndex(t)
	root := writeCorpus(t, map[string]string{
		"sales.csv": "region,amount\nnorth,10\nsouth,20\n",
		"notes.txt": "revenue grew in the third quarter",
	})

	result, err := ci.OpenOrBuild(ctx, root)
	require.NoError(t, err)
	assert.False(t, result.Loaded)
	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, 2, result.IndexedFiles)
	assert.Equal(t, 3, result.TotalUnits, "summary + chunk + text report")
	assert.Empty(t, result.FailedFiles)

	units, err := ci.Retrieve(ctx, "sales by region", 10)
	require.NoError(t, err)
	assert.Len(t, units, 3, "k above corpus size returns the whole corpus")
	for _, u := range units {
		assert.NotEmpty(t, u.ID)
		assert.NotEmpty(t, u.Content)
	}

	units, err = ci.Retrieve(ctx, "sales by region", 2)
	require.NoError(t, err)
	assert.Len(t, units, 2)
}

func TestOpenOrBuild_LoadsExistingArtifact(t *testing.T) {
	ctx := context.Background()
	location := filepath.Join(t.TempDir(), "vector_index")
	root := writeCorpus(t, map[string]string{
		"sales.csv": "region,amount\nnorth,10\n",
	})

	first := New(NewSQLiteStore(location), &fakeEmbedder{}, document.NewBuilder(), testLogger())
	built, err := first.OpenOrBuild(ctx, root)
	require.NoError(t, err)
	require.False(t, built.Loaded)

	// Remove the source file: a load must not notice, since the
	// artifact's existence is the only signal consulted.
	require.NoError(t, os.Remove(filepath.Join(root, "sales.csv")))

	embedder := &fakeEmbedder{}
	second := New(NewSQLiteStore(location), embedder, document.NewBuilder(), testLogger())
	loaded, err := second.OpenOrBuild(ctx, root)
	require.NoError(t, err)
	assert.True(t, loaded.Loaded)
	assert.Equal(t, built.TotalUnits, loaded.TotalUnits)
	assert.Zero(t, embedder.documentCalls, "loading must not re-embed")

	units, err := second.Retrieve(ctx, "sales", 5)
	require.NoError(t, err)
	assert.Len(t, units, built.TotalUnits)
}

func TestOpenOrBuild_SkipsFailedFiles(t *testing.T) {
	ctx := context.Background()
	ci, _ := newTestIndex(t)
	root := writeCorpus(t, map[string]string{
		"bad.csv":   "a,b\n1\n",
		"notes.txt": "the good file",
	})

	result, err := ci.OpenOrBuild(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, 1, result.IndexedFiles)
	assert.Equal(t, 1, result.TotalUnits)
	require.Len(t, result.FailedFiles, 1)
	assert.Contains(t, result.FailedFiles[0].Path, "bad.csv")
	assert.NotEmpty(t, result.FailedFiles[0].Reason)
}

func TestOpenOrBuild_IgnoresUnsupportedFiles(t *testing.T) {
	ctx := context.Background()
	ci, _ := newTestIndex(t)
	root := writeCorpus(t, map[string]string{
		"report.pdf": "%PDF-1.4",
		"readme.md":  "# readme",
	})

	result, err := ci.OpenOrBuild(ctx, root)
	require.NoError(t, err)
	assert.Zero(t, result.TotalFiles)
	assert.Zero(t, result.TotalUnits)

	units, err := ci.Retrieve(ctx, "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestRetrieve_NotInitialized(t *testing.T) {
	ci, _ := newTestIndex(t)

	_, err := ci.Retrieve(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = ci.Count(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.ErrorIs(t, ci.Health(context.Background()), ErrNotInitialized)
}

func TestRetrieve_NonPositiveK(t *testing.T) {
	ctx := context.Background()
	ci, _ := newTestIndex(t)
	root := writeCorpus(t, map[string]string{"notes.txt": "hello"})

	_, err := ci.OpenOrBuild(ctx, root)
	require.NoError(t, err)

	for _, k := range []int{0, -1} {
		units, err := ci.Retrieve(ctx, "hello", k)
		require.NoError(t, err)
		assert.Empty(t, units)
	}
}

func TestRebuild_PicksUpNewFiles(t *testing.T) {
	ctx := context.Background()
	ci, _ := newTestIndex(t)
	root := writeCorpus(t, map[string]string{"notes.txt": "first report"})

	result, err := ci.OpenOrBuild(ctx, root)
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalUnits)

	require.NoError(t, os.WriteFile(filepath.Join(root, "more.txt"), []byte("second report"), 0o644))

	// A plain reopen must keep serving the stale artifact.
	reopened, err := ci.OpenOrBuild(ctx, root)
	require.NoError(t, err)
	assert.True(t, reopened.Loaded)
	assert.Equal(t, 1, reopened.TotalUnits)

	rebuilt, err := ci.Rebuild(ctx, root)
	require.NoError(t, err)
	assert.False(t, rebuilt.Loaded)
	assert.Equal(t, 2, rebuilt.TotalUnits)
	assert.Equal(t, 2, rebuilt.IndexedFiles)
}

func TestHealth_ReadyAfterBuild(t *testing.T) {
	ctx := context.Background()
	ci, _ := newTestIndex(t)
	root := writeCorpus(t, map[string]string{"notes.txt": "hello"})

	_, err := ci.OpenOrBuild(ctx, root)
	require.NoError(t, err)
	assert.NoError(t, ci.Health(ctx))

	count, err := ci.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

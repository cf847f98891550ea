package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Corpus.Root)
	assert.Equal(t, "sqlite", cfg.Store.Type)
	require.NotNil(t, cfg.Store.SQLite)
	assert.Equal(t, "vector_index", cfg.Store.SQLite.Location)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 500, cfg.Embedding.BatchSize)
	assert.Equal(t, "gpt-4o", cfg.Completion.Model)
}

func TestLoad_FullFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
corpus:
  root: /srv/reports
store:
  type: qdrant
  qdrant:
    host: qdrant.internal
    port: 7334
    collection: insights
embedding:
  model: text-embedding-3-large
  batch_size: 100
completion:
  model: gpt-4o-mini
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/reports", cfg.Corpus.Root)
	assert.Equal(t, "qdrant", cfg.Store.Type)
	require.NotNil(t, cfg.Store.Qdrant)
	assert.Equal(t, "qdrant.internal", cfg.Store.Qdrant.Host)
	assert.Equal(t, 7334, cfg.Store.Qdrant.Port)
	assert.Equal(t, "insights", cfg.Store.Qdrant.Collection)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedding.Model)
	assert.Equal(t, 100, cfg.Embedding.BatchSize)
	assert.Equal(t, "gpt-4o-mini", cfg.Completion.Model)
}

func TestLoad_PartialFileGetsBackendDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  type: qdrant
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Store.Qdrant)
	assert.Equal(t, "localhost", cfg.Store.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Store.Qdrant.Port)
	assert.Equal(t, "report_units", cfg.Store.Qdrant.Collection)
	assert.Nil(t, cfg.Store.SQLite, "unused backend stays unset")
	assert.Equal(t, "data", cfg.Corpus.Root)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [not: closed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

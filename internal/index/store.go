// Package index owns the persistent similarity index over retrievable
// units: build-or-load lifecycle and bounded nearest-neighbor
// retrieval.
package index

import (
	"context"

	"github.com/bull/insights-rag-server/internal/document"
)

// Embedder computes vectors for unit contents and queries. The same
// implementation must serve both build and query time.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SearchResult pairs a stored unit with its similarity score.
type SearchResult struct {
	Unit  document.Unit
	Score float64
}

// Store persists retrievable units with their vectors and serves
// nearest-neighbor search over them. Existence of the persisted
// artifact is the sole load-vs-build signal.
type Store interface {
	// Exists reports whether a persisted artifact is present.
	Exists(ctx context.Context) (bool, error)
	// Load makes a previously persisted artifact searchable.
	Load(ctx context.Context) error
	// Persist writes units and their vectors as the new artifact and
	// makes them searchable.
	Persist(ctx context.Context, units []document.Unit, vectors [][]float32) error
	// Search returns up to k results by descending similarity.
	Search(ctx context.Context, vector []float32, k int) ([]SearchResult, error)
	// Count returns the number of stored units.
	Count(ctx context.Context) (int, error)
	// Drop removes the persisted artifact.
	Drop(ctx context.Context) error
	Close() error
}

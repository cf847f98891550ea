package index

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bull/insights-rag-server/internal/document"
)

// DefaultK is the component-default retrieval depth. Interactive QA
// call sites use a smaller value sized to the synthesis budget.
const DefaultK = 8

// CorpusIndex is the process-wide similarity index. It is built at
// most once per storage location and treated as read-only afterwards;
// rebuilding requires an explicit Rebuild.
type CorpusIndex struct {
	store    Store
	embedder Embedder
	builder  *document.Builder
	logger   *slog.Logger
	ready    bool
}

// BuildResult reports what OpenOrBuild did.
type BuildResult struct {
	Loaded       bool // true when an existing artifact was loaded without scanning
	TotalFiles   int
	IndexedFiles int
	TotalUnits   int
	FailedFiles  []FailedFile
	Duration     time.Duration
}

// FailedFile records one source file that contributed zero units.
type FailedFile struct {
	Path   string
	Reason string
}

// New creates a corpus index over the given store and embedder.
func New(store Store, embedder Embedder, builder *document.Builder, logger *slog.Logger) *CorpusIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &CorpusIndex{
		store:    store,
		embedder: embedder,
		builder:  builder,
		logger:   logger,
	}
}

// OpenOrBuild loads the persisted index if one exists, otherwise scans
// root, builds units for every eligible file, embeds them, and
// persists the result. When an artifact exists the corpus is NOT
// re-scanned; staleness is the caller's responsibility.
func (ci *CorpusIndex) OpenOrBuild(ctx context.Context, root string) (*BuildResult, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRoot, root)
	}

	exists, err := ci.store.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check index artifact: %w", err)
	}
	if exists {
		if err := ci.store.Load(ctx); err != nil {
			return nil, fmt.Errorf("load index: %w", err)
		}
		ci.ready = true
		count, err := ci.store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count units: %w", err)
		}
		ci.logger.Info("Loaded existing index", "units", count)
		return &BuildResult{Loaded: true, TotalUnits: count}, nil
	}

	return ci.build(ctx, root)
}

// Rebuild drops the persisted artifact and runs a fresh build. This is
// the only sanctioned way to pick up source-file changes.
func (ci *CorpusIndex) Rebuild(ctx context.Context, root string) (*BuildResult, error) {
	if err := ci.store.Drop(ctx); err != nil {
		return nil, fmt.Errorf("drop index artifact: %w", err)
	}
	ci.ready = false
	return ci.OpenOrBuild(ctx, root)
}

func (ci *CorpusIndex) build(ctx context.Context, root string) (*BuildResult, error) {
	start := time.Now()
	result := &BuildResult{}
	ci.logger.Info("Building index", "root", root)

	var units []document.Unit
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !document.Supported(path) {
			return nil
		}
		result.TotalFiles++
		fileUnits, err := ci.builder.Build(path)
		if err != nil {
			ci.logger.Warn("Skipping file", "path", path, "error", err)
			result.FailedFiles = append(result.FailedFiles, FailedFile{Path: path, Reason: err.Error()})
			return nil
		}
		for i := range fileUnits {
			fileUnits[i].ID = uuid.New().String()
		}
		units = append(units, fileUnits...)
		result.IndexedFiles++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus: %w", err)
	}

	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Content
	}
	var vectors [][]float32
	if len(texts) > 0 {
		vectors, err = ci.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed units: %w", err)
		}
	}

	if err := ci.store.Persist(ctx, units, vectors); err != nil {
		return nil, fmt.Errorf("persist index: %w", err)
	}
	ci.ready = true

	result.TotalUnits = len(units)
	result.Duration = time.Since(start)
	ci.logger.Info("Index built",
		"files", result.IndexedFiles,
		"failed", len(result.FailedFiles),
		"units", result.TotalUnits,
		"duration", result.Duration,
	)
	return result, nil
}

// Retrieve returns up to k units by descending similarity to the
// query. It fails with ErrNotInitialized before the first
// OpenOrBuild; k values below one yield an empty result.
func (ci *CorpusIndex) Retrieve(ctx context.Context, query string, k int) ([]document.Unit, error) {
	if !ci.ready {
		return nil, ErrNotInitialized
	}
	if k <= 0 {
		return nil, nil
	}

	vector, err := ci.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := ci.store.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	units := make([]document.Unit, len(results))
	for i, r := range results {
		units[i] = r.Unit
	}
	return units, nil
}

// Count returns the number of indexed units.
func (ci *CorpusIndex) Count(ctx context.Context) (int, error) {
	if !ci.ready {
		return 0, ErrNotInitialized
	}
	return ci.store.Count(ctx)
}

// Health reports whether the index is ready to serve retrievals.
func (ci *CorpusIndex) Health(ctx context.Context) error {
	if !ci.ready {
		return ErrNotInitialized
	}
	return nil
}

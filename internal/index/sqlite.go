package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/bull/insights-rag-server/internal/document"
)

const indexFileName = "index.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS units (
	id          TEXT PRIMARY KEY,
	position    INTEGER NOT NULL,
	source      TEXT NOT NULL,
	unit_type   TEXT NOT NULL,
	range_start INTEGER NOT NULL,
	range_end   INTEGER NOT NULL,
	sheet       TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL,
	embedding   BLOB NOT NULL
);
`

// SQLiteStore persists the index as a SQLite database inside the
// storage-location directory and answers searches from an in-memory
// copy. Existence of the directory is the load-vs-build signal.
type SQLiteStore struct {
	location string

	mu      sync.RWMutex
	units   []document.Unit
	vectors [][]float32
}

// NewSQLiteStore creates a store rooted at the given storage location.
func NewSQLiteStore(location string) *SQLiteStore {
	return &SQLiteStore{location: location}
}

// Exists reports whether anything is present at the storage location.
func (s *SQLiteStore) Exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(s.location)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat storage location: %w", err)
	}
	return true, nil
}

// Load reads the persisted units and vectors into memory. A location
// without a database file loads as an empty index.
func (s *SQLiteStore) Load(ctx context.Context) error {
	dbPath := filepath.Join(s.location, indexFileName)
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		s.mu.Lock()
		s.units, s.vectors = nil, nil
		s.mu.Unlock()
		return nil
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT id, source, unit_type, range_start, range_end, sheet, content, embedding
		FROM units ORDER BY position`)
	if err != nil {
		return fmt.Errorf("query units: %w", err)
	}
	defer rows.Close()

	var units []document.Unit
	var vectors [][]float32
	for rows.Next() {
		var u document.Unit
		var unitType string
		var blob []byte
		if err := rows.Scan(&u.ID, &u.Metadata.Source, &unitType,
			&u.Metadata.RangeStart, &u.Metadata.RangeEnd, &u.Metadata.Sheet,
			&u.Content, &blob); err != nil {
			return fmt.Errorf("scan unit: %w", err)
		}
		u.Metadata.UnitType = document.UnitType(unitType)
		units = append(units, u)
		vectors = append(vectors, decodeVector(blob))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate units: %w", err)
	}

	s.mu.Lock()
	s.units, s.vectors = units, vectors
	s.mu.Unlock()
	return nil
}

// Persist writes units and vectors to a fresh database at the storage
// location and keeps them in memory for search.
func (s *SQLiteStore) Persist(ctx context.Context, units []document.Unit, vectors [][]float32) error {
	if len(units) != len(vectors) {
		return fmt.Errorf("units and vectors length mismatch: %d != %d", len(units), len(vectors))
	}
	if err := os.MkdirAll(s.location, 0o755); err != nil {
		return fmt.Errorf("create storage location: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(s.location, indexFileName))
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM units"); err != nil {
		return fmt.Errorf("clear units: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO units (id, position, source, unit_type, range_start, range_end, sheet, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, u := range units {
		_, err := stmt.ExecContext(ctx, u.ID, i, u.Metadata.Source, string(u.Metadata.UnitType),
			u.Metadata.RangeStart, u.Metadata.RangeEnd, u.Metadata.Sheet,
			u.Content, encodeVector(vectors[i]))
		if err != nil {
			return fmt.Errorf("insert unit %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.mu.Lock()
	s.units = append([]document.Unit(nil), units...)
	s.vectors = append([][]float32(nil), vectors...)
	s.mu.Unlock()
	return nil
}

// Search runs brute-force cosine similarity over the in-memory
// vectors. Ties keep insertion order (stable sort).
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, k int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.units) == 0 {
		return nil, nil
	}

	results := make([]SearchResult, len(s.units))
	for i := range s.units {
		results[i] = SearchResult{
			Unit:  s.units[i],
			Score: cosine(s.vectors[i], vector),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Count returns the number of stored units.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.units), nil
}

// Drop removes the storage location entirely.
func (s *SQLiteStore) Drop(ctx context.Context) error {
	s.mu.Lock()
	s.units, s.vectors = nil, nil
	s.mu.Unlock()
	if err := os.RemoveAll(s.location); err != nil {
		return fmt.Errorf("remove storage location: %w", err)
	}
	return nil
}

// Close is a no-op; database handles are scoped to each operation.
func (s *SQLiteStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// encodeVector packs a float32 vector as little-endian bytes.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

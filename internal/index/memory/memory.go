package memory

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"docqa/internal/domain"
)

// Index is a simple in-memory vector index using brute-force cosine
// similarity. Search is a linear scan over all entries, which is fine at
// this corpus size. The index is built once and read-only afterwards;
// concurrent searches are safe.
type Index struct {
	mu        sync.RWMutex
	dimension int
	chunks    []domain.Chunk
	vectors   [][]float32
}

func New() *Index { return &Index{} }

// Add appends chunks with their vectors. The first added vector fixes the
// index dimension; later vectors must match it.
func (ix *Index) Add(chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.dimension == 0 && len(vectors) > 0 {
		ix.dimension = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != ix.dimension {
			return fmt.Errorf("%w: vector %d has dimension %d, index has %d",
				domain.ErrDimensionMismatch, i, len(v), ix.dimension)
		}
	}
	ix.chunks = append(ix.chunks, chunks...)
	ix.vectors = append(ix.vectors, vectors...)
	return nil
}

// Search returns up to topK entries ordered by descending cosine similarity.
// Equal scores keep insertion order.
func (ix *Index) Search(vector []float32, topK int) ([]domain.SearchResult, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.vectors) == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if len(vector) != ix.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			domain.ErrDimensionMismatch, len(vector), ix.dimension)
	}
	if topK <= 0 {
		topK = 5
	}
	results := make([]domain.SearchResult, len(ix.vectors))
	for i := range ix.vectors {
		results[i] = domain.SearchResult{
			ID:    i,
			Chunk: ix.chunks[i],
			Score: cosine(ix.vectors[i], vector),
		}
	}
	// Stable sort keeps lower insertion ids first on equal scores.
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dimension
}

// snapshot is the gob-serialized form of an index.
type snapshot struct {
	Dimension int
	Chunks    []domain.Chunk
	Vectors   [][]float32
}

// Save writes the index to path atomically (temp file + rename).
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	snap := snapshot{Dimension: ix.dimension, Chunks: ix.chunks, Vectors: ix.vectors}
	ix.mu.RUnlock()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create index directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close index file: %w", err)
	}
	return os.Rename(tmp, path)
}

// Load restores an index saved with Save. The returned index searches
// identically to the one that was saved.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptIndex, err)
	}
	if len(snap.Chunks) != len(snap.Vectors) {
		return nil, fmt.Errorf("%w: %d chunks but %d vectors",
			domain.ErrCorruptIndex, len(snap.Chunks), len(snap.Vectors))
	}
	for i, v := range snap.Vectors {
		if len(v) != snap.Dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, snapshot declares %d",
				domain.ErrCorruptIndex, i, len(v), snap.Dimension)
		}
	}
	return &Index{
		dimension: snap.Dimension,
		chunks:    snap.Chunks,
		vectors:   snap.Vectors,
	}, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}

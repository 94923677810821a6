package memory

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func chunk(source string, pos int) domain.Chunk {
	return domain.Chunk{Source: source, Position: pos, Text: "chunk text"}
}

func TestAddAndSearch(t *testing.T) {
	ix := New()
	err := ix.Add(
		[]domain.Chunk{chunk("a.txt", 0), chunk("a.txt", 1), chunk("b.txt", 0)},
		[][]float32{{1, 0, 0}, {0, 1, 0}, {0.9, 0.1, 0}},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Len())
	assert.Equal(t, 3, ix.Dimension())

	results, err := ix.Search([]float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].ID)
	assert.Equal(t, 2, results[1].ID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestSearchIdenticalVectorScoresOne(t *testing.T) {
	ix := New()
	v := []float32{0.3, -1.2, 4.5, 0.01}
	require.NoError(t, ix.Add([]domain.Chunk{chunk("a.txt", 0)}, [][]float32{v}))

	results, err := ix.Search(v, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestSearchScoreRange(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add(
		[]domain.Chunk{chunk("a.txt", 0), chunk("a.txt", 1), chunk("a.txt", 2)},
		[][]float32{{1, 0}, {-1, 0}, {0.5, 0.5}},
	))

	results, err := ix.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, -1.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
	assert.Equal(t, -1.0, results[2].Score)
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	ix := New()
	// Same vector stored three times: all scores tie, ids decide order.
	v := []float32{1, 2, 3}
	require.NoError(t, ix.Add(
		[]domain.Chunk{chunk("a.txt", 0), chunk("b.txt", 0), chunk("c.txt", 0)},
		[][]float32{v, v, v},
	))

	results, err := ix.Search([]float32{3, 2, 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, []int{results[0].ID, results[1].ID, results[2].ID})
}

func TestSearchTopKLargerThanIndex(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add(
		[]domain.Chunk{chunk("a.txt", 0), chunk("a.txt", 1)},
		[][]float32{{1, 0}, {0, 1}},
	))

	results, err := ix.Search([]float32{1, 1}, 50)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchEmptyIndex(t *testing.T) {
	_, err := New().Search([]float32{1, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrEmptyIndex)
}

func TestSearchDeterministic(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add(
		[]domain.Chunk{chunk("a.txt", 0), chunk("a.txt", 1), chunk("b.txt", 0)},
		[][]float32{{0.2, 0.8, 0.1}, {0.5, 0.5, 0.5}, {0.9, 0.05, 0.3}},
	))

	q := []float32{0.4, 0.4, 0.2}
	first, err := ix.Search(q, 3)
	require.NoError(t, err)
	second, err := ix.Search(q, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAddDimensionMismatch(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add([]domain.Chunk{chunk("a.txt", 0)}, [][]float32{{1, 0, 0}}))

	err := ix.Add([]domain.Chunk{chunk("a.txt", 1)}, [][]float32{{1, 0}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 1, ix.Len())
}

func TestSearchDimensionMismatch(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add([]domain.Chunk{chunk("a.txt", 0)}, [][]float32{{1, 0, 0}}))

	_, err := ix.Search([]float32{1, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestAddLengthMismatch(t *testing.T) {
	err := New().Add([]domain.Chunk{chunk("a.txt", 0)}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add(
		[]domain.Chunk{chunk("a.txt", 0), chunk("a.txt", 1), chunk("b.txt", 0)},
		[][]float32{{0.1, 0.9}, {0.7, 0.3}, {0.5, 0.5}},
	))

	path := filepath.Join(t.TempDir(), "index.gob")
	require.NoError(t, ix.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ix.Len(), loaded.Len())
	assert.Equal(t, ix.Dimension(), loaded.Dimension())

	q := []float32{0.6, 0.4}
	want, err := ix.Search(q, 3)
	require.NoError(t, err)
	got, err := loaded.Search(q, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadRejectsInconsistentSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gob")
	f, err := os.Create(path)
	require.NoError(t, err)
	snap := snapshot{
		Dimension: 3,
		Chunks:    []domain.Chunk{chunk("a.txt", 0)},
		Vectors:   [][]float32{{1, 0}},
	}
	require.NoError(t, gob.NewEncoder(f).Encode(snap))
	require.NoError(t, f.Close())

	_, err = Load(path)
	assert.ErrorIs(t, err, domain.ErrCorruptIndex)
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.gob")
	require.NoError(t, os.WriteFile(path, []byte("not a gob stream"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, domain.ErrCorruptIndex)
}

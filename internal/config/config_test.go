package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/rag"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.Model)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Generator.Model)
	assert.Equal(t, 200, cfg.Chunker.TargetWords)
	assert.Equal(t, 50, cfg.Chunker.OverlapWords)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Zero(t, cfg.Retrieval.MinScore)
	assert.Equal(t, 5, cfg.Limiter.MaxQueries)
	assert.Equal(t, 500, cfg.Limiter.MaxQueryChars)
	assert.Equal(t, "index.gob", cfg.IndexPath)
	assert.Equal(t, "queries.db", cfg.LogDB)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chunker:
  target_words: 120
retrieval:
  top_k: 3
  min_score: 0.25
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Chunker.TargetWords)
	assert.Equal(t, 50, cfg.Chunker.OverlapWords)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.25, cfg.Retrieval.MinScore, 1e-9)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.APIKeyEnv)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Retrieval.TopK = 7
	cfg.Pricing = map[string]PricingConfig{
		"custom-model": {InputPerMTok: 1.5, OutputPerMTok: 6},
	}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPricingTable(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, rag.DefaultPricing, cfg.PricingTable())

	cfg.Pricing = map[string]PricingConfig{"m": {InputPerMTok: 2, OutputPerMTok: 8}}
	table := cfg.PricingTable()
	assert.Equal(t, rag.Pricing{InputPerMTok: 2, OutputPerMTok: 8}, table["m"])
	assert.Len(t, table, 1)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunker: [not a map"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"docqa/internal/rag"
)

// EmbedderConfig configures the OpenAI-compatible embeddings backend.
type EmbedderConfig struct {
	BaseURL           string  `yaml:"base_url,omitempty"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Model             string  `yaml:"model"`
	BatchSize         int     `yaml:"batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// GeneratorConfig configures the Anthropic generation backend.
type GeneratorConfig struct {
	BaseURL     string `yaml:"base_url,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	MaxTokens   int    `yaml:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChunkerConfig configures how documents are split into word windows.
type ChunkerConfig struct {
	TargetWords  int `yaml:"target_words"`
	OverlapWords int `yaml:"overlap_words"`
}

// RetrievalConfig configures how many chunks back each answer.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
	// MinScore drops chunks scoring below it; 0 keeps everything.
	MinScore float64 `yaml:"min_score"`
}

// PricingConfig is per-million-token USD pricing for one model.
type PricingConfig struct {
	InputPerMTok  float64 `yaml:"input_per_mtok"`
	OutputPerMTok float64 `yaml:"output_per_mtok"`
}

// LimiterConfig configures the interactive session limiter.
type LimiterConfig struct {
	MaxQueries        int    `yaml:"max_queries"`
	MaxQueryChars     int    `yaml:"max_query_chars"`
	AdminPasswordHash string `yaml:"admin_password_hash,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder  EmbedderConfig           `yaml:"embedder"`
	Generator GeneratorConfig          `yaml:"generator"`
	Chunker   ChunkerConfig            `yaml:"chunker"`
	Retrieval RetrievalConfig          `yaml:"retrieval"`
	Pricing   map[string]PricingConfig `yaml:"pricing,omitempty"`
	Limiter   LimiterConfig            `yaml:"limiter"`
	IndexPath string                   `yaml:"index_path"`
	LogDB     string                   `yaml:"log_db"`
}

// PricingTable converts the configured pricing into the form the service
// consumes, falling back to the built-in table when none is configured.
func (c *AppConfig) PricingTable() map[string]rag.Pricing {
	if len(c.Pricing) == 0 {
		return rag.DefaultPricing
	}
	table := make(map[string]rag.Pricing, len(c.Pricing))
	for model, p := range c.Pricing {
		table[model] = rag.Pricing{InputPerMTok: p.InputPerMTok, OutputPerMTok: p.OutputPerMTok}
	}
	return table
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/docqa/config.yaml and
// returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docqa", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 64
	}
	if cfg.Embedder.RequestsPerSecond == 0 {
		cfg.Embedder.RequestsPerSecond = 2
	}
	if cfg.Generator.APIKeyEnv == "" {
		cfg.Generator.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 1500
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = 120
	}
	if cfg.Chunker.TargetWords == 0 {
		cfg.Chunker.TargetWords = 200
	}
	if cfg.Chunker.OverlapWords == 0 {
		cfg.Chunker.OverlapWords = 50
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Limiter.MaxQueries == 0 {
		cfg.Limiter.MaxQueries = 5
	}
	if cfg.Limiter.MaxQueryChars == 0 {
		cfg.Limiter.MaxQueryChars = 500
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = "index.gob"
	}
	if cfg.LogDB == "" {
		cfg.LogDB = "queries.db"
	}
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding/openai"
	"docqa/internal/llm/anthropic"
	"docqa/internal/logstore"
	"docqa/internal/rag"
)

var cfgPath string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "docqa",
		Short: "Question answering over a small document collection",
		Long: `docqa chunks PDF and text documents, embeds them, and answers
questions grounded in the most similar passages, citing its sources.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default ./config.yaml, then ~/.config/docqa/config.yaml)")
	root.AddCommand(newIndexCmd(), newAskCmd(), newTUICmd(), newLogsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.AppConfig, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func newChunker(cfg *config.AppConfig) (*chunker.WordChunker, error) {
	return chunker.New(cfg.Chunker.TargetWords, cfg.Chunker.OverlapWords)
}

func newEmbedder(cfg *config.AppConfig) (*openai.Client, error) {
	return openai.NewClient(openai.Config{
		BaseURL:           cfg.Embedder.BaseURL,
		APIKeyEnv:         cfg.Embedder.APIKeyEnv,
		Model:             cfg.Embedder.Model,
		BatchSize:         cfg.Embedder.BatchSize,
		RequestsPerSecond: cfg.Embedder.RequestsPerSecond,
	})
}

func newGenerator(cfg *config.AppConfig) (*anthropic.Client, error) {
	return anthropic.NewClient(anthropic.Config{
		BaseURL:   cfg.Generator.BaseURL,
		APIKeyEnv: cfg.Generator.APIKeyEnv,
		Model:     cfg.Generator.Model,
		MaxTokens: cfg.Generator.MaxTokens,
		Timeout:   time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
}

// newService wires a full ask pipeline against an already built index.
func newService(cfg *config.AppConfig, index domain.Index) (*rag.Service, *logstore.Store, error) {
	ck, err := newChunker(cfg)
	if err != nil {
		return nil, nil, err
	}
	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := logstore.Open(cfg.LogDB)
	if err != nil {
		return nil, nil, err
	}
	svc := rag.New(ck, emb, index, gen, store, rag.Config{
		TopK:     cfg.Retrieval.TopK,
		MinScore: cfg.Retrieval.MinScore,
		Pricing:  cfg.PricingTable(),
	})
	return svc, store, nil
}

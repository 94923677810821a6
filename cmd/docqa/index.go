package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/extract"
	"docqa/internal/index/memory"
	"docqa/internal/rag"
)

func newIndexCmd() *cobra.Command {
	var docsDir string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Chunk, embed and index a directory of documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			documents, err := extract.LoadDir(docsDir)
			if err != nil {
				return err
			}
			ck, err := newChunker(cfg)
			if err != nil {
				return err
			}
			emb, err := newEmbedder(cfg)
			if err != nil {
				return err
			}
			ix := memory.New()
			svc := rag.New(ck, emb, ix, nil, nil, rag.Config{})
			n, err := svc.Ingest(cmd.Context(), documents)
			if err != nil {
				return err
			}
			if err := ix.Save(cfg.IndexPath); err != nil {
				return err
			}
			fmt.Printf("Indexed %d documents as %d chunks (dimension %d) into %s\n",
				len(documents), n, ix.Dimension(), cfg.IndexPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&docsDir, "docs", "docs", "directory of .pdf/.txt/.md documents")
	return cmd
}

package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docqa/internal/index/memory"
	"docqa/internal/ratelimit"
	"docqa/internal/tui"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive question answering session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ix, err := memory.Load(cfg.IndexPath)
			if err != nil {
				return err
			}
			svc, store, err := newService(cfg, ix)
			if err != nil {
				return err
			}
			defer store.Close()

			limiter := ratelimit.New(cfg.Limiter.MaxQueries, cfg.Limiter.MaxQueryChars, cfg.Limiter.AdminPasswordHash)
			m := tui.New(svc, limiter, cfg.Retrieval.TopK)
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docqa/internal/index/memory"
)

func newAskCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question from the indexed documents",
		Args:  cobra.MinimumNArgs(1),
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

			answer, err := svc.Ask(cmd.Context(), strings.Join(args, " "), topK)
			if err != nil {
				return err
			}

			fmt.Println(answer.Text)
			fmt.Println()
			fmt.Println("Sources:")
			for i, r := range answer.Results {
				fmt.Printf("  %d. %s (similarity %.3f)\n", i+1, r.Chunk.Source, r.Score)
			}
			fmt.Printf("\n%d input / %d output tokens, estimated cost $%.4f (%s)\n",
				answer.InputTokens, answer.OutputTokens, answer.CostUSD, answer.Model)
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/logstore"
)

func newLogsCmd() *cobra.Command {
	var (
		limit      int
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show query log usage stats or export the log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := logstore.Open(cfg.LogDB)
			if err != nil {
				return err
			}
			defer store.Close()

			if exportPath != "" {
				if err := store.ExportJSON(exportPath); err != nil {
					return err
				}
				fmt.Printf("Exported query log to %s\n", exportPath)
				return nil
			}

			stats, err := store.Stats()
			if err != nil {
				return err
			}
			fmt.Printf("Queries:        %d\n", stats.TotalQueries)
			fmt.Printf("Input tokens:   %d\n", stats.TotalInputTokens)
			fmt.Printf("Output tokens:  %d\n", stats.TotalOutputTokens)
			fmt.Printf("Total cost:     $%.4f\n", stats.TotalCostUSD)
			fmt.Printf("Avg chunks/ask: %.1f\n", stats.AvgChunks)

			if limit > 0 {
				entries, err := store.Recent(limit)
				if err != nil {
					return err
				}
				fmt.Println()
				for _, e := range entries {
					fmt.Printf("[%s] %s ($%.4f)\n", e.Timestamp.Format("2006-01-02 15:04"), e.Query, e.CostUSD)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "recent", "n", 0, "also list the n most recent queries")
	cmd.Flags().StringVar(&exportPath, "export", "", "export all records to a JSON file")
	return cmd
}

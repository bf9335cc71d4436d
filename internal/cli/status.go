package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelyard/modelyard/internal/tracking"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show workspace statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			stats, err := ws.store.GetStats()
			if err != nil {
				return fmt.Errorf("collect stats: %w", err)
			}

			fmt.Printf("Workspace:     %s\n", ws.root)
			fmt.Printf("Experiments:   %d\n", stats.Experiments)

			total := 0
			for _, n := range stats.RunsByStatus {
				total += n
			}
			fmt.Printf("Runs:          %d", total)
			if total > 0 {
				fmt.Printf(" (%d running, %d finished, %d failed)",
					stats.RunsByStatus[tracking.StatusRunning],
					stats.RunsByStatus[tracking.StatusFinished],
					stats.RunsByStatus[tracking.StatusFailed])
			}
			fmt.Println()

			fmt.Printf("Models:        %d (%d version(s))\n", stats.Models, stats.Versions)
			fmt.Printf("Cache entries: %d\n", stats.CacheEntries)
			fmt.Printf("Database size: %s\n", formatBytes(stats.DBSizeBytes))
			fmt.Printf("Provider:      %s (embedder: %s)\n", ws.cfg.DefaultProvider, ws.cfg.DefaultEmbedder)

			return nil
		},
	}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

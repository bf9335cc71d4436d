package cli

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newEmbedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Manage the embedding cache",
	}
	cmd.AddCommand(newEmbedPutCmd(), newEmbedSearchCmd())
	return cmd
}

func newEmbedPutCmd() *cobra.Command {
	const batchSize = 32

	return &cobra.Command{
		Use:   "put <text>...",
		Short: "Embed texts and store them in the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			embedder, err := ws.embedder()
			if err != nil {
				return err
			}

			var bar *progressbar.ProgressBar
			if len(args) > batchSize && term.IsTerminal(int(os.Stderr.Fd())) {
				bar = progressbar.NewOptions(len(args),
					progressbar.OptionSetDescription("  Embedding"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionClearOnFinish(),
				)
			}

			embedded := 0
			for i := 0; i < len(args); i += batchSize {
				end := i + batchSize
				if end > len(args) {
					end = len(args)
				}
				batch := args[i:end]

				if _, err := embedder.Embed(cmd.Context(), batch); err != nil {
					return fmt.Errorf("embed batch: %w", err)
				}
				embedded += len(batch)
				if bar != nil {
					_ = bar.Add(len(batch))
				}
			}
			if bar != nil {
				_ = bar.Finish()
			}

			total, _ := ws.cache.Count()
			fmt.Printf("Embedded %d text(s); cache holds %d entries\n", embedded, total)
			return nil
		},
	}
}

func newEmbedSearchCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find cached texts similar to a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			embedder, err := ws.embedder()
			if err != nil {
				return err
			}

			vecs, err := embedder.Embed(cmd.Context(), []string{args[0]})
			if err != nil {
				return err
			}
			if len(vecs) == 0 {
				return fmt.Errorf("embedder returned no vector")
			}

			matches, err := ws.cache.Nearest(vecs[0], topK)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Println("No similar texts in the cache.")
				return nil
			}

			for _, m := range matches {
				fmt.Printf("%.4f  %s\n", m.Similarity, m.Text)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 5, "Number of results")

	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelyard/modelyard/internal/scorer"
)

func newScoreCmd() *cobra.Command {
	var ref string

	cmd := &cobra.Command{
		Use:   "score <sentence1> <sentence2>",
		Short: "Score the semantic similarity of two sentences",
		Long: `Embed both sentences and print their cosine similarity in [-1, 1].

Uses the workspace's default embedding provider, or a logged model when
--model is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			if ref != "" {
				predictor, _, err := ws.loadModel(cmd.Context(), ref)
				if err != nil {
					return err
				}
				out, err := predictor.Predict(cmd.Context(), []string{args[0], args[1]})
				if err != nil {
					return err
				}
				fmt.Printf("%.4f\n", out)
				return nil
			}

			embedder, err := ws.embedder()
			if err != nil {
				return err
			}
			sc := &scorer.Scorer{
				Embedder: embedder,
				Columns:  [2]string{scorer.ColSentence1, scorer.ColSentence2},
			}
			sim, err := sc.Score(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%.4f\n", sim)
			return nil
		},
	}

	cmd.Flags().StringVarP(&ref, "model", "m", "", "Logged model reference (default: ad-hoc scorer)")

	return cmd
}

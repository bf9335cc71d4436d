package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newPredictCmd() *cobra.Command {
	var ref string

	cmd := &cobra.Command{
		Use:   "predict <input-json>",
		Short: "Load a model by reference and run one prediction",
		Long: `Load the model named by --model and invoke it on a JSON input.

  modelyard predict --model models:/scorer@champion \
      '{"sentence1": "cats purr", "sentence2": "kittens purr"}'
  modelyard predict --model models:/translator '"good morning"'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			var input any
			if err := json.Unmarshal([]byte(args[0]), &input); err != nil {
				return fmt.Errorf("parse input: %w", err)
			}

			predictor, card, err := ws.loadModel(cmd.Context(), ref)
			if err != nil {
				return err
			}

			// Validate tabular inputs against the card's declared schema.
			if record, ok := input.(map[string]any); ok && len(card.Signature.Inputs) > 0 {
				if err := card.Signature.Inputs.Validate(record); err != nil {
					return err
				}
			}

			out, err := predictor.Predict(cmd.Context(), input)
			if err != nil {
				return err
			}

			encoded, err := json.Marshal(out)
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVarP(&ref, "model", "m", "", "Model reference (runs:/..., models:/..., or a directory)")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

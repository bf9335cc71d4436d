package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelyard/modelyard/internal/adapter"
	"github.com/modelyard/modelyard/internal/translate"
)

func newTranslateCmd() *cobra.Command {
	var (
		ref        string
		targetLang string
		sourceLang string
	)

	cmd := &cobra.Command{
		Use:   "translate <text>...",
		Short: "Translate text through a chat provider",
		Long: `Translate one or more texts to the target language.

Uses the workspace's default chat provider, or a logged model when --model
is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			var out any
			if ref != "" {
				predictor, _, err := ws.loadModel(cmd.Context(), ref)
				if err != nil {
					return err
				}
				input := any(args[0])
				if len(args) > 1 {
					input = args
				}
				out, err = predictor.Predict(cmd.Context(), input)
				if err != nil {
					return err
				}
			} else {
				client, err := ws.clients().Client(ws.cfg.DefaultProvider)
				if err != nil {
					return err
				}
				tok, _ := translate.NewTokenizer()
				tr := &translate.Translator{
					Gen:            client,
					Tok:            tok,
					SourceLang:     sourceLang,
					TargetLang:     targetLang,
					MaxInputTokens: translate.DefaultMaxInputTokens,
				}
				if ws.cfg.DefaultProvider == adapter.ProviderOllama {
					tr.Model = ws.cfg.Ollama.ChatModel
				}
				input := any(args[0])
				if len(args) > 1 {
					input = args
				}
				out, err = tr.Predict(cmd.Context(), input)
				if err != nil {
					return err
				}
			}

			switch v := out.(type) {
			case string:
				fmt.Println(v)
			case []string:
				for _, line := range v {
					fmt.Println(line)
				}
			default:
				fmt.Println(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&ref, "model", "m", "", "Logged model reference (default: ad-hoc translator)")
	cmd.Flags().StringVar(&targetLang, "to", "English", "Target language")
	cmd.Flags().StringVar(&sourceLang, "from", "", "Source language (default: auto-detect)")

	return cmd
}

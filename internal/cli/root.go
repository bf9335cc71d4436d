// Package cli defines the Cobra command tree for the modelyard CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// version, commit, date are set via -ldflags at build time.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "modelyard",
	Short: "Local experiment tracking and model registry for NLP adapters",
	Long: `Modelyard gives ML experiments a persistent local record.

Create experiments, start runs, log params/metrics/tags and model artifacts,
register model versions with aliases, then reload any logged model by
reference and invoke it — all from one workspace directory.

Run 'modelyard init' in any directory to get started.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(v, c, d string) {
	version, commit, date = v, c, d

	// Pick up API keys from a local .env, if present.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(
		newInitCmd(),
		newExperimentCmd(),
		newRunCmd(),
		newModelsCmd(),
		newPredictCmd(),
		newScoreCmd(),
		newTranslateCmd(),
		newEmbedCmd(),
		newWatchCmd(),
		newPruneCmd(),
		newStatusCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("modelyard %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

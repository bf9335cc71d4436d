package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modelyard/modelyard/internal/config"
	"github.com/modelyard/modelyard/internal/db"
	"github.com/modelyard/modelyard/internal/tracking"
)

func newInitCmd() *cobra.Command {
	var workspaceRoot string
	var experimentName string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a modelyard workspace in the current directory",
		Long: `Set up the .modelyard/ directory with a SQLite database, an artifact
store, and a workspace config. Creates a default experiment to log runs to.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := workspaceRoot
			if root == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("get working directory: %w", err)
				}
				root = cwd
			}
			root, _ = filepath.Abs(root)

			database, err := db.Open(config.DBPath(root))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			store := tracking.NewStore(database)
			exp, err := store.GetOrCreateExperiment(experimentName)
			if err != nil {
				return fmt.Errorf("create default experiment: %w", err)
			}

			if err := os.MkdirAll(config.ArtifactRoot(root), 0o755); err != nil {
				return fmt.Errorf("create artifact store: %w", err)
			}

			wcfg := config.WorkspaceConfig{
				DefaultExperiment: exp.Name,
				Workspace:         config.WorkspaceMeta{Name: filepath.Base(root)},
			}
			if err := config.SaveWorkspace(root, wcfg); err != nil {
				fmt.Fprintf(os.Stderr, "  Warning: could not write workspace config: %v\n", err)
			}

			ensureGitignore(root)

			fmt.Printf("Workspace initialized at %s\n", config.WorkspaceDir(root))
			fmt.Printf("Default experiment: %s\n", exp.Name)
			fmt.Println(`Tip: Run "modelyard run start" to record your first run.`)
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspaceRoot, "root", "r", "", "Workspace root directory (default: cwd)")
	cmd.Flags().StringVar(&experimentName, "experiment", "default", "Name of the initial experiment")

	return cmd
}

// ensureGitignore appends .modelyard/ to .gitignore if not already present.
func ensureGitignore(root string) {
	path := filepath.Join(root, ".gitignore")
	content, err := os.ReadFile(path)
	if err == nil && strings.Contains(string(content), config.WorkspaceDirName+"/") {
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		_, _ = f.WriteString("\n")
	}
	_, _ = f.WriteString(config.WorkspaceDirName + "/\n")
}

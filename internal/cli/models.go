package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modelyard/modelyard/internal/model"
	"github.com/modelyard/modelyard/internal/scorer"
	"github.com/modelyard/modelyard/internal/translate"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage logged models and the registry",
	}
	cmd.AddCommand(
		newModelsLogCmd(),
		newModelsListCmd(),
		newModelsShowCmd(),
		newModelsAliasCmd(),
	)
	return cmd
}

func newModelsLogCmd() *cobra.Command {
	var (
		flavor  string
		path    string
		name    string
		fromDir string
		options []string
		deps    []string
	)

	cmd := &cobra.Command{
		Use:   "log <run-id>",
		Short: "Log a model to a run and optionally register it",
		Long: `Write a model card (and any supporting files) into the run's artifact
directory. With --name the artifacts are also registered as the next version
of that model.

  modelyard models log <run-id> --flavor sentence_similarity --name scorer \
      --option provider=ollama --option embed_model=nomic-embed-text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			run, err := ws.store.GetRun(args[0])
			if err != nil {
				return err
			}

			opts, err := parseOptions(options)
			if err != nil {
				return err
			}

			if fromDir != "" {
				copied, err := ws.arts.LogDir(run.ID, fromDir, path)
				if err != nil {
					return err
				}
				fmt.Printf("Copied %d supporting file(s)\n", copied)
			}

			card := model.Card{
				Flavor:       flavor,
				Signature:    defaultSignature(flavor),
				Options:      opts,
				Dependencies: deps,
			}

			version, err := model.Log(ws.arts, ws.store, model.LogOptions{
				RunID: run.ID,
				Path:  path,
				Name:  name,
				Card:  card,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Logged %s model to runs:/%s/%s\n", flavor, run.ID, path)
			if name != "" {
				fmt.Printf("Registered as models:/%s/%d\n", name, version)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flavor, "flavor", "", "Model flavor (sentence_similarity, translation)")
	cmd.Flags().StringVar(&path, "path", "model", "Artifact subpath for the model")
	cmd.Flags().StringVar(&name, "name", "", "Register the model under this name")
	cmd.Flags().StringVar(&fromDir, "from", "", "Directory of supporting files to copy in")
	cmd.Flags().StringArrayVar(&options, "option", nil, "Flavor option as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&deps, "dep", nil, "External dependency note (repeatable)")
	_ = cmd.MarkFlagRequired("flavor")

	return cmd
}

func newModelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [name]",
		Short: "List registered model versions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			versions, err := ws.store.ListModelVersions(name)
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				fmt.Println("No registered models.")
				return nil
			}

			for _, mv := range versions {
				fmt.Printf("%-20s v%-3d run %s  %s\n",
					mv.Name, mv.Version, shortID(mv.RunID), mv.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newModelsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a model's versions, aliases, and latest card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			name := args[0]
			versions, err := ws.store.ListModelVersions(name)
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				return fmt.Errorf("model %q has no registered versions", name)
			}

			aliases, _ := ws.store.GetAliases(name)
			byVersion := make(map[int][]string)
			for alias, v := range aliases {
				byVersion[v] = append(byVersion[v], "@"+alias)
			}

			fmt.Printf("Model: %s\n", name)
			for _, mv := range versions {
				line := fmt.Sprintf("  v%-3d run %s  %s", mv.Version, shortID(mv.RunID), mv.CreatedAt.Format("2006-01-02 15:04"))
				if tags := byVersion[mv.Version]; len(tags) > 0 {
					line += "  " + strings.Join(tags, " ")
				}
				fmt.Println(line)
			}

			// Show the latest version's card.
			latest := versions[0]
			dir, err := ws.arts.Resolve(latest.RunID, latest.ArtifactPath)
			if err == nil {
				if card, err := model.ReadCard(dir); err == nil {
					fmt.Printf("Latest card: flavor=%s", card.Flavor)
					for k, v := range card.Options {
						fmt.Printf(" %s=%s", k, v)
					}
					fmt.Println()
				}
			}
			return nil
		},
	}
}

func newModelsAliasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alias <name> <alias> <version>",
		Short: "Point an alias at a model version",
		Long: `Point an alias (e.g. "champion") at a registered version so the model
can be loaded as models:/<name>@<alias>. Re-running moves the alias.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			version, err := strconv.Atoi(args[2])
			if err != nil || version < 1 {
				return fmt.Errorf("version must be a positive integer")
			}

			if err := ws.store.SetModelAlias(args[0], args[1], version); err != nil {
				return err
			}
			fmt.Printf("models:/%s@%s -> v%d\n", args[0], args[1], version)
			return nil
		},
	}
}

// parseOptions splits repeated key=value flags into a map.
func parseOptions(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("option %q must be key=value", kv)
		}
		out[k] = v
	}
	return out, nil
}

// defaultSignature returns the conventional signature for the built-in flavors.
func defaultSignature(flavor string) model.Signature {
	switch flavor {
	case scorer.FlavorName:
		return model.Signature{
			Inputs: model.Schema{
				{Name: scorer.ColSentence1, Type: model.TypeString},
				{Name: scorer.ColSentence2, Type: model.TypeString},
			},
			Outputs: model.Schema{{Name: "similarity", Type: model.TypeDouble}},
		}
	case translate.FlavorName:
		return model.Signature{
			Inputs:  model.Schema{{Name: "text", Type: model.TypeString}},
			Outputs: model.Schema{{Name: "translation", Type: model.TypeString}},
		}
	}
	return model.Signature{}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExperimentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "experiment",
		Aliases: []string{"exp"},
		Short:   "Manage experiments",
	}
	cmd.AddCommand(newExperimentCreateCmd(), newExperimentListCmd())
	return cmd
}

func newExperimentCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new experiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			id, err := ws.store.CreateExperiment(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Created experiment %q (id: %s)\n", args[0], id)
			return nil
		},
	}
}

func newExperimentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List experiments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			experiments, err := ws.store.ListExperiments()
			if err != nil {
				return err
			}
			if len(experiments) == 0 {
				fmt.Println("No experiments yet. Create one with `modelyard experiment create <name>`.")
				return nil
			}

			for _, e := range experiments {
				runs, _ := ws.store.ListRuns(e.ID)
				fmt.Printf("%-24s %3d run(s)  created %s  (id: %s)\n",
					e.Name, len(runs), e.CreatedAt.Format("2006-01-02"), shortID(e.ID))
			}
			return nil
		},
	}
}

// shortID abbreviates a hex id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

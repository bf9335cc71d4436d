package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/modelyard/modelyard/internal/config"
	"github.com/modelyard/modelyard/internal/git"
	"github.com/modelyard/modelyard/internal/report"
	"github.com/modelyard/modelyard/internal/tracking"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage runs",
	}
	cmd.AddCommand(
		newRunStartCmd(),
		newRunListCmd(),
		newRunShowCmd(),
		newRunLogParamCmd(),
		newRunLogMetricCmd(),
		newRunFinishCmd(),
	)
	return cmd
}

func newRunStartCmd() *cobra.Command {
	var experimentName string
	var runName string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new run",
		Long: `Start a run in the given experiment (or the workspace default).
Git commit, branch, and dirty state are recorded as run tags when the
workspace is inside a repository.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			name := experimentName
			if name == "" {
				wcfg, _ := config.LoadWorkspace(ws.root)
				name = wcfg.DefaultExperiment
			}
			if name == "" {
				name = "default"
			}

			exp, err := ws.store.GetOrCreateExperiment(name)
			if err != nil {
				return err
			}

			runID, err := ws.store.StartRun(exp.ID, runName)
			if err != nil {
				return err
			}

			for k, v := range git.Capture(ws.root).Tags() {
				if err := ws.store.SetTag(runID, k, v); err != nil {
					fmt.Fprintf(os.Stderr, "  Warning: could not tag run: %v\n", err)
					break
				}
			}

			fmt.Printf("Started run %s in experiment %q\n", runID, exp.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&experimentName, "experiment", "e", "", "Experiment name (default: workspace default)")
	cmd.Flags().StringVarP(&runName, "name", "n", "", "Human-readable run name")

	return cmd
}

func newRunListCmd() *cobra.Command {
	var experimentName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			experimentID := ""
			if experimentName != "" {
				exp, err := ws.store.GetExperimentByName(experimentName)
				if err != nil {
					return err
				}
				experimentID = exp.ID
			}

			runs, err := ws.store.ListRuns(experimentID)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}

			for _, r := range runs {
				name := r.Name
				if name == "" {
					name = "(unnamed)"
				}
				fmt.Printf("%-10s %-20s started %s  (id: %s)\n",
					r.Status, name, r.StartedAt.Format("2006-01-02 15:04"), shortID(r.ID))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&experimentName, "experiment", "e", "", "Filter to one experiment")

	return cmd
}

func newRunShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run's params, metrics, tags, and models",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			renderer, ok := report.Get(format)
			if !ok {
				return fmt.Errorf("unknown format %q (valid: %v)", format, report.ValidFormats())
			}

			data, err := report.Collect(ws.store, args[0])
			if err != nil {
				return err
			}
			out, err := renderer.Render(data)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "Output format (markdown, json)")

	return cmd
}

func newRunLogParamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log-param <run-id> <key> <value>",
		Short: "Record an immutable run parameter",
		Args:  cobra.ExactArgs(3),
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
			return ws.store.LogParam(run.ID, args[1], args[2])
		},
	}
}

func newRunLogMetricCmd() *cobra.Command {
	var step int

	cmd := &cobra.Command{
		Use:   "log-metric <run-id> <key> <value>",
		Short: "Record a numeric run metric",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			value, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("metric value must be numeric: %w", err)
			}

			run, err := ws.store.GetRun(args[0])
			if err != nil {
				return err
			}
			return ws.store.LogMetric(run.ID, args[1], value, step)
		},
	}

	cmd.Flags().IntVar(&step, "step", 0, "Metric step")

	return cmd
}

func newRunFinishCmd() *cobra.Command {
	var failed bool

	cmd := &cobra.Command{
		Use:   "finish <run-id>",
		Short: "Mark a run finished (or failed)",
		Args:  cobra.ExactArgs(1),
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

			status := tracking.StatusFinished
			if failed {
				status = tracking.StatusFailed
			}
			if err := ws.store.FinishRun(run.ID, status); err != nil {
				return err
			}
			fmt.Printf("Run %s %s\n", shortID(run.ID), status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&failed, "failed", false, "Mark the run as failed instead of finished")

	return cmd
}

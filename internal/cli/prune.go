package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	var (
		olderThanDays int
		dryRun        bool
		orphans       bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old finished runs and orphaned artifacts",
		Long: `Delete finished runs older than a cutoff, along with their params,
metrics, tags, and artifact directories. Runs that back a registered model
version are never pruned.

With --orphans, artifact directories with no matching run record are removed
as well. Use --dry-run to preview.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			days := olderThanDays
			if days == 0 {
				days = ws.cfg.Prune.MaxRunAgeDays
			}
			if days == 0 && !orphans {
				return fmt.Errorf("nothing to prune: pass --older-than or set prune.max_run_age_days in config")
			}

			removed := 0
			if days > 0 {
				cutoff := time.Now().AddDate(0, 0, -days)
				runIDs, err := ws.store.ListFinishedRunsBefore(cutoff)
				if err != nil {
					return fmt.Errorf("list old runs: %w", err)
				}

				for _, runID := range runIDs {
					backs, err := backsModelVersion(ws, runID)
					if err != nil {
						return err
					}
					if backs {
						continue
					}
					if dryRun {
						fmt.Printf("Would prune run %s\n", shortID(runID))
						removed++
						continue
					}
					if err := ws.store.DeleteRun(runID); err != nil {
						return fmt.Errorf("delete run %s: %w", shortID(runID), err)
					}
					if err := ws.arts.DeleteRun(runID); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not delete artifacts for %s: %v\n", shortID(runID), err)
					}
					removed++
				}
			}

			if orphans {
				n, err := pruneOrphans(ws, dryRun)
				if err != nil {
					return err
				}
				removed += n
			}

			verb := "Pruned"
			if dryRun {
				verb = "Would prune"
			}
			fmt.Printf("%s %d item(s).\n", verb, removed)
			return nil
		},
	}

	cmd.Flags().IntVar(&olderThanDays, "older-than", 0, "prune finished runs older than this many days")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be removed without removing it")
	cmd.Flags().BoolVar(&orphans, "orphans", false, "also remove artifact directories with no run record")

	return cmd
}

// backsModelVersion reports whether any registered model version was logged
// by this run. Such runs are exempt from pruning.
func backsModelVersion(ws *workspace, runID string) (bool, error) {
	versions, err := ws.store.ListRunModelVersions(runID)
	if err != nil {
		return false, fmt.Errorf("list model versions for %s: %w", shortID(runID), err)
	}
	return len(versions) > 0, nil
}

// pruneOrphans removes artifact directories whose run id no longer exists.
func pruneOrphans(ws *workspace, dryRun bool) (int, error) {
	dirs, err := ws.arts.RunDirs()
	if err != nil {
		return 0, fmt.Errorf("list artifact dirs: %w", err)
	}

	removed := 0
	for _, runID := range dirs {
		if _, err := ws.store.GetRun(runID); err == nil {
			continue
		}
		if dryRun {
			fmt.Printf("Would remove orphaned artifacts %s\n", shortID(runID))
			removed++
			continue
		}
		if err := ws.arts.DeleteRun(runID); err != nil {
			return removed, fmt.Errorf("delete orphaned artifacts %s: %w", shortID(runID), err)
		}
		removed++
	}
	return removed, nil
}

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var debounceMs int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the artifact store and report changes",
		Long: `Start a long-running watcher on the workspace artifact store. New run
directories and logged artifacts are reported as they appear, which is handy
when runs are produced by another process.

Changes are debounced so a burst of file copies is reported as one batch.

Press Ctrl-C to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()

			root := ws.arts.Root()
			if err := watcher.Add(root); err != nil {
				return fmt.Errorf("watch artifact root: %w", err)
			}
			// Watch existing run directories too.
			runs, _ := ws.arts.RunDirs()
			for _, runID := range runs {
				_ = watcher.Add(ws.arts.Dir(runID))
			}

			debounce := time.Duration(debounceMs) * time.Millisecond
			fmt.Printf("Watching %s for changes (debounce %s). Press Ctrl-C to stop.\n", root, debounce)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			pending := make(map[string]fsnotify.Op)
			timer := time.NewTimer(debounce)
			timer.Stop() // Don't fire immediately.

			for {
				select {
				case <-sigCh:
					fmt.Println("\nStopping watcher.")
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}

					rel, err := filepath.Rel(root, event.Name)
					if err != nil || rel == "." {
						continue
					}

					// A new run directory: start watching inside it.
					if event.Has(fsnotify.Create) {
						if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
							_ = watcher.Add(event.Name)
						}
					}

					pending[rel] = event.Op
					timer.Reset(debounce)

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintf(os.Stderr, "  watch error: %v\n", err)

				case <-timer.C:
					if len(pending) == 0 {
						continue
					}
					batch := pending
					pending = make(map[string]fsnotify.Op)
					reportArtifactChanges(batch)
				}
			}
		},
	}

	cmd.Flags().IntVar(&debounceMs, "debounce", 500, "debounce interval in milliseconds")

	return cmd
}

// reportArtifactChanges prints one line per changed run in a debounced batch.
func reportArtifactChanges(batch map[string]fsnotify.Op) {
	perRun := make(map[string]int)
	for rel := range batch {
		runID := strings.SplitN(rel, string(filepath.Separator), 2)[0]
		perRun[runID]++
	}

	runIDs := make([]string, 0, len(perRun))
	for runID := range perRun {
		runIDs = append(runIDs, runID)
	}
	sort.Strings(runIDs)

	ts := time.Now().Format("15:04:05")
	for _, runID := range runIDs {
		fmt.Printf("[%s] run %s: %d artifact change(s)\n", ts, shortID(runID), perRun[runID])
	}
}

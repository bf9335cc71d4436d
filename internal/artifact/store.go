// Package artifact stores run artifacts on the local filesystem under
// .modelyard/artifacts/<run-id>/.
package artifact

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// Store is a filesystem artifact repository rooted at a single directory.
type Store struct {
	root string

	// ProgressWriter receives progress bar output for directory copies.
	// nil disables progress output.
	ProgressWriter io.Writer
}

// NewStore creates a Store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the artifact root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the artifact directory for a run, optionally joined with a subpath.
func (s *Store) Dir(runID string, subpath ...string) string {
	parts := append([]string{s.root, runID}, subpath...)
	return filepath.Join(parts...)
}

// Resolve returns the absolute path of an artifact, verifying it exists and
// stays inside the run's artifact directory.
func (s *Store) Resolve(runID, subpath string) (string, error) {
	base := s.Dir(runID)
	path := filepath.Join(base, subpath)

	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("artifact: path %q escapes run directory", subpath)
	}

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("artifact: %s not found for run %s: %w", subpath, runID, err)
	}
	return path, nil
}

// LogFile copies a single file into the run's artifact directory under subpath.
// subpath may name a directory ("model") or a file path ("data/input.txt");
// a directory subpath keeps the source file name.
func (s *Store) LogFile(runID, src, subpath string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("artifact: stat %s: %w", src, err)
	}
	if info.IsDir() {
		return fmt.Errorf("artifact: %s is a directory; use LogDir", src)
	}

	dst := s.Dir(runID, subpath)
	if strings.HasSuffix(subpath, "/") || filepath.Ext(subpath) == "" {
		dst = filepath.Join(dst, filepath.Base(src))
	}

	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("artifact: log %s: %w", src, err)
	}
	return nil
}

// LogDir recursively copies a directory tree into the run's artifact directory
// under subpath. Files matching the source's .modelyardignore are skipped.
// A progress bar is shown on ProgressWriter when set.
func (s *Store) LogDir(runID, srcDir, subpath string) (int, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return 0, fmt.Errorf("artifact: stat %s: %w", srcDir, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("artifact: %s is not a directory; use LogFile", srcDir)
	}

	ignore := NewIgnoreMatcher(srcDir)

	// Collect files first so the progress bar has a total.
	var files []string
	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(srcDir, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			if ignore.Match(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if ignore.Match(rel) || filepath.Base(rel) == IgnoreFileName {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("artifact: walk %s: %w", srcDir, err)
	}

	var bar *progressbar.ProgressBar
	if s.ProgressWriter != nil && len(files) > 1 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("  Copying artifacts"),
			progressbar.OptionSetWriter(s.ProgressWriter),
			progressbar.OptionClearOnFinish(),
		)
	}

	dstBase := s.Dir(runID, subpath)
	copied := 0
	for _, rel := range files {
		if err := copyFile(filepath.Join(srcDir, rel), filepath.Join(dstBase, rel)); err != nil {
			return copied, fmt.Errorf("artifact: copy %s: %w", rel, err)
		}
		copied++
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return copied, nil
}

// WriteFile writes bytes directly to an artifact path, creating parent dirs.
func (s *Store) WriteFile(runID, subpath string, data []byte) error {
	dst := s.Dir(runID, subpath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("artifact: mkdir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("artifact: write %s: %w", subpath, err)
	}
	return nil
}

// List returns the relative paths of all artifacts stored for a run, sorted
// by filepath.WalkDir order.
func (s *Store) List(runID string) ([]string, error) {
	base := s.Dir(runID)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return nil, nil
	}

	var out []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(base, path)
		if relErr != nil {
			return relErr
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("artifact: list run %s: %w", runID, err)
	}
	return out, nil
}

// DeleteRun removes all artifacts for a run.
func (s *Store) DeleteRun(runID string) error {
	if runID == "" {
		return fmt.Errorf("artifact: empty run id")
	}
	return os.RemoveAll(s.Dir(runID))
}

// RunDirs returns the run IDs that have artifact directories.
func (s *Store) RunDirs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artifact: read root: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// copyFile copies src to dst, creating parent directories.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

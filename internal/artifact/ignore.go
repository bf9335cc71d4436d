package artifact

import (
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is the per-directory ignore file consulted when logging a
// directory of artifacts.
const IgnoreFileName = ".modelyardignore"

// IgnoreMatcher wraps a gitignore-style pattern matcher.
type IgnoreMatcher struct {
	gi *gitignore.GitIgnore
}

// NewIgnoreMatcher loads .modelyardignore from the source directory.
// If no ignore file is found, the matcher skips only hard-ignored names.
func NewIgnoreMatcher(dir string) *IgnoreMatcher {
	path := filepath.Join(dir, IgnoreFileName)
	if _, err := os.Stat(path); err != nil {
		return &IgnoreMatcher{}
	}
	gi, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return &IgnoreMatcher{}
	}
	return &IgnoreMatcher{gi: gi}
}

// Match returns true if the given relative path should be skipped.
func (m *IgnoreMatcher) Match(relPath string) bool {
	if hardIgnored[filepath.Base(relPath)] {
		return true
	}
	if m.gi == nil {
		return false
	}
	return m.gi.MatchesPath(relPath)
}

// hardIgnored contains names that are always skipped regardless of the
// ignore file. These never belong in a logged artifact tree.
var hardIgnored = map[string]bool{
	".git":         true,
	".modelyard":   true,
	"__pycache__":  true,
	".DS_Store":    true,
	"node_modules": true,
}

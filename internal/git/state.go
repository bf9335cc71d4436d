// Package git captures repository state for run provenance tags.
package git

import (
	"os/exec"
	"strings"
)

// State is a snapshot of the repository at run start.
type State struct {
	Commit string
	Branch string
	Dirty  bool
}

// IsEmpty returns true if there is no git state to report.
func (s State) IsEmpty() bool {
	return s.Commit == "" && s.Branch == ""
}

// Tags renders the state as run tag key/values. Empty when not in a repo.
func (s State) Tags() map[string]string {
	if s.IsEmpty() {
		return nil
	}
	tags := map[string]string{
		"git.commit": s.Commit,
		"git.branch": s.Branch,
		"git.dirty":  "false",
	}
	if s.Dirty {
		tags["git.dirty"] = "true"
	}
	return tags
}

// Capture runs git commands in the given directory and returns the current
// state. All errors are swallowed — if git is not installed or the directory
// is not a repo, an empty State is returned.
func Capture(dir string) State {
	var s State
	s.Commit = gitOutput(dir, "rev-parse", "HEAD")
	s.Branch = gitOutput(dir, "rev-parse", "--abbrev-ref", "HEAD")
	s.Dirty = gitOutput(dir, "status", "--porcelain") != ""
	return s
}

// gitOutput runs a git command and returns trimmed stdout.
// Returns "" on any error.
func gitOutput(dir string, args ...string) string {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

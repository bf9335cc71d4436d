package model

import (
	"fmt"
	"path/filepath"
)

// CardWriter writes files into a run's artifact tree.
// *artifact.Store satisfies this interface.
type CardWriter interface {
	Dir(runID string, subpath ...string) string
	WriteFile(runID, subpath string, data []byte) error
}

// VersionRegistrar registers logged artifacts as model versions.
// *tracking.Store satisfies this interface.
type VersionRegistrar interface {
	RegisterModelVersion(name, runID, artifactPath string) (int, error)
}

// LogOptions controls how a model is logged to a run.
type LogOptions struct {
	RunID string
	Path  string // artifact subpath, default "model"
	Name  string // registered model name; empty skips registration
	Card  Card
}

// Log writes the model card into the run's artifact directory and, when a
// name is given, registers the artifacts as the next version of that model.
// Returns the assigned version (0 when unregistered).
func Log(arts CardWriter, versions VersionRegistrar, opts LogOptions) (int, error) {
	if opts.RunID == "" {
		return 0, fmt.Errorf("log model: run id required")
	}
	path := opts.Path
	if path == "" {
		path = "model"
	}

	if err := WriteCard(arts.Dir(opts.RunID, path), opts.Card); err != nil {
		return 0, fmt.Errorf("log model: %w", err)
	}

	if opts.Name == "" {
		return 0, nil
	}
	version, err := versions.RegisterModelVersion(opts.Name, opts.RunID, filepath.ToSlash(path))
	if err != nil {
		return 0, fmt.Errorf("log model: %w", err)
	}
	return version, nil
}

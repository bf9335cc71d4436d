package model

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/modelyard/modelyard/internal/adapter"
	"github.com/modelyard/modelyard/internal/tracking"
)

// Predictor is a loaded model ready for inference.
type Predictor interface {
	Predict(ctx context.Context, input any) (any, error)
}

// ClientFactory builds provider clients for flavors that delegate inference
// to an external model service.
type ClientFactory interface {
	Client(provider string) (adapter.Client, error)
}

// LoadContext is handed to a flavor when loading a model from its artifact
// directory.
type LoadContext struct {
	Dir     string
	Card    Card
	Clients ClientFactory
}

// Flavor knows how to turn a logged artifact directory into a Predictor.
type Flavor interface {
	Name() string
	Load(ctx context.Context, lc LoadContext) (Predictor, error)
}

// Registry maps card flavors to their loaders.
type Registry struct {
	flavors map[string]Flavor
}

// NewRegistry creates a Registry with the given flavors.
func NewRegistry(flavors ...Flavor) *Registry {
	r := &Registry{flavors: make(map[string]Flavor, len(flavors))}
	for _, f := range flavors {
		r.flavors[f.Name()] = f
	}
	return r
}

// Flavors returns the registered flavor names.
func (r *Registry) Flavors() []string {
	names := make([]string, 0, len(r.flavors))
	for name := range r.flavors {
		names = append(names, name)
	}
	return names
}

// Ref is a parsed model reference.
type Ref struct {
	// Runs form: runs:/<run-id>/<subpath>
	RunID string
	Path  string

	// Models form: models:/<name>/<version> or models:/<name>@<alias>.
	// Version 0 with empty Alias means "latest".
	Name    string
	Version int
	Alias   string

	// Dir form: a plain local directory path.
	Dir string
}

// ParseRef parses a model reference URI. Anything without a recognised scheme
// is treated as a local directory path.
func ParseRef(ref string) (Ref, error) {
	switch {
	case strings.HasPrefix(ref, "runs:/"):
		rest := strings.TrimPrefix(ref, "runs:/")
		runID, path, ok := strings.Cut(rest, "/")
		if !ok || runID == "" || path == "" {
			return Ref{}, fmt.Errorf("runs reference must be runs:/<run-id>/<path>")
		}
		return Ref{RunID: runID, Path: path}, nil

	case strings.HasPrefix(ref, "models:/"):
		rest := strings.TrimPrefix(ref, "models:/")
		if rest == "" {
			return Ref{}, fmt.Errorf("models reference must name a model")
		}
		if name, alias, ok := strings.Cut(rest, "@"); ok {
			if name == "" || alias == "" {
				return Ref{}, fmt.Errorf("alias reference must be models:/<name>@<alias>")
			}
			return Ref{Name: name, Alias: alias}, nil
		}
		if name, ver, ok := strings.Cut(rest, "/"); ok {
			n, err := strconv.Atoi(ver)
			if err != nil || n < 1 {
				return Ref{}, fmt.Errorf("invalid model version %q", ver)
			}
			return Ref{Name: name, Version: n}, nil
		}
		return Ref{Name: rest}, nil

	case strings.Contains(ref, ":/"):
		return Ref{}, fmt.Errorf("unknown reference scheme in %q", ref)

	default:
		return Ref{Dir: ref}, nil
	}
}

// VersionSource resolves registered model names to run-relative artifact paths.
// *tracking.Store satisfies this interface.
type VersionSource interface {
	GetModelVersion(name string, version int) (tracking.ModelVersion, error)
	GetLatestModelVersion(name string) (tracking.ModelVersion, error)
	ResolveModelAlias(name, alias string) (int, error)
}

// ArtifactSource resolves run artifacts to local paths.
// *artifact.Store satisfies this interface.
type ArtifactSource interface {
	Resolve(runID, subpath string) (string, error)
}

// Resolver turns a parsed reference into a local artifact directory.
type Resolver struct {
	Versions  VersionSource
	Artifacts ArtifactSource
}

// Dir resolves ref to the on-disk model directory.
func (rs *Resolver) Dir(ref Ref) (string, error) {
	switch {
	case ref.Dir != "":
		info, err := os.Stat(ref.Dir)
		if err != nil {
			return "", fmt.Errorf("model directory: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("%s is not a directory", ref.Dir)
		}
		return ref.Dir, nil

	case ref.RunID != "":
		return rs.Artifacts.Resolve(ref.RunID, ref.Path)

	default:
		mv, err := rs.lookupVersion(ref)
		if err != nil {
			return "", err
		}
		return rs.Artifacts.Resolve(mv.RunID, mv.ArtifactPath)
	}
}

func (rs *Resolver) lookupVersion(ref Ref) (tracking.ModelVersion, error) {
	if ref.Alias != "" {
		v, err := rs.Versions.ResolveModelAlias(ref.Name, ref.Alias)
		if err != nil {
			return tracking.ModelVersion{}, err
		}
		return rs.Versions.GetModelVersion(ref.Name, v)
	}
	if ref.Version > 0 {
		return rs.Versions.GetModelVersion(ref.Name, ref.Version)
	}
	return rs.Versions.GetLatestModelVersion(ref.Name)
}

// Load resolves a reference, reads its card, and loads it through the matching
// flavor. Every failure on this path is wrapped in a single *LoadError.
func (r *Registry) Load(ctx context.Context, rs *Resolver, clients ClientFactory, ref string) (Predictor, Card, error) {
	parsed, err := ParseRef(ref)
	if err != nil {
		return nil, Card{}, &LoadError{Ref: ref, Err: err}
	}

	dir, err := rs.Dir(parsed)
	if err != nil {
		return nil, Card{}, &LoadError{Ref: ref, Err: err}
	}

	card, err := ReadCard(dir)
	if err != nil {
		return nil, Card{}, &LoadError{Ref: ref, Err: err}
	}

	flavor, ok := r.flavors[card.Flavor]
	if !ok {
		return nil, card, loadErrorf(ref, "unsupported flavor %q", card.Flavor)
	}

	p, err := flavor.Load(ctx, LoadContext{Dir: dir, Card: card, Clients: clients})
	if err != nil {
		return nil, card, &LoadError{Ref: ref, Err: err}
	}
	return p, card, nil
}

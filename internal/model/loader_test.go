package model

import (
	"context"
	"errors"
	"testing"

	"github.com/modelyard/modelyard/internal/adapter"
	"github.com/modelyard/modelyard/internal/tracking"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want Ref
		ok   bool
	}{
		{"runs", "runs:/abc123/model", Ref{RunID: "abc123", Path: "model"}, true},
		{"runs nested path", "runs:/abc123/models/scorer", Ref{RunID: "abc123", Path: "models/scorer"}, true},
		{"runs no path", "runs:/abc123", Ref{}, false},
		{"runs empty", "runs:/", Ref{}, false},
		{"models version", "models:/scorer/3", Ref{Name: "scorer", Version: 3}, true},
		{"models latest", "models:/scorer", Ref{Name: "scorer"}, true},
		{"models alias", "models:/scorer@champion", Ref{Name: "scorer", Alias: "champion"}, true},
		{"models bad version", "models:/scorer/zero", Ref{}, false},
		{"models version zero", "models:/scorer/0", Ref{}, false},
		{"models empty", "models:/", Ref{}, false},
		{"models empty alias", "models:/scorer@", Ref{}, false},
		{"unknown scheme", "s3:/bucket/key", Ref{}, false},
		{"plain dir", "artifacts/model", Ref{Dir: "artifacts/model"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRef(tt.ref)
			if !tt.ok {
				if err == nil {
					t.Fatalf("expected parse error for %q", tt.ref)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRef(%q): %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("ParseRef(%q) = %+v, want %+v", tt.ref, got, tt.want)
			}
		})
	}
}

// fakeVersions serves a fixed version table.
type fakeVersions struct {
	versions map[string]map[int]tracking.ModelVersion
	aliases  map[string]map[string]int
}

func (f *fakeVersions) GetModelVersion(name string, version int) (tracking.ModelVersion, error) {
	mv, ok := f.versions[name][version]
	if !ok {
		return tracking.ModelVersion{}, errors.New("version not found")
	}
	return mv, nil
}

func (f *fakeVersions) GetLatestModelVersion(name string) (tracking.ModelVersion, error) {
	best := -1
	for v := range f.versions[name] {
		if v > best {
			best = v
		}
	}
	if best < 0 {
		return tracking.ModelVersion{}, errors.New("model not found")
	}
	return f.versions[name][best], nil
}

func (f *fakeVersions) ResolveModelAlias(name, alias string) (int, error) {
	v, ok := f.aliases[name][alias]
	if !ok {
		return 0, errors.New("alias not found")
	}
	return v, nil
}

// dirArtifacts resolves every (run, subpath) to a fixed directory.
type dirArtifacts struct {
	dir string
}

func (d dirArtifacts) Resolve(runID, subpath string) (string, error) {
	if d.dir == "" {
		return "", errors.New("artifact not found")
	}
	return d.dir, nil
}

// stubFlavor loads a predictor that replies with a constant.
type stubFlavor struct {
	name    string
	loadErr error
	loaded  int
}

func (s *stubFlavor) Name() string { return s.name }

func (s *stubFlavor) Load(ctx context.Context, lc LoadContext) (Predictor, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	s.loaded++
	return predictFunc(func(ctx context.Context, input any) (any, error) {
		return "stub:" + s.name, nil
	}), nil
}

type predictFunc func(ctx context.Context, input any) (any, error)

func (f predictFunc) Predict(ctx context.Context, input any) (any, error) { return f(ctx, input) }

type noClients struct{}

func (noClients) Client(provider string) (adapter.Client, error) {
	return nil, errors.New("no clients in test")
}

func writeTestCard(t *testing.T, flavor string) string {
	t.Helper()
	dir := t.TempDir()
	if err := WriteCard(dir, Card{Flavor: flavor}); err != nil {
		t.Fatalf("WriteCard: %v", err)
	}
	return dir
}

func TestLoad_LocalDir(t *testing.T) {
	flavor := &stubFlavor{name: "stub"}
	registry := NewRegistry(flavor)
	dir := writeTestCard(t, "stub")
	rs := &Resolver{}

	p, card, err := registry.Load(context.Background(), rs, noClients{}, dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if card.Flavor != "stub" {
		t.Errorf("card flavor: %q", card.Flavor)
	}
	out, err := p.Predict(context.Background(), nil)
	if err != nil || out != "stub:stub" {
		t.Errorf("Predict = %v, %v", out, err)
	}
}

func TestLoad_ModelsRef(t *testing.T) {
	dir := writeTestCard(t, "stub")
	flavor := &stubFlavor{name: "stub"}
	registry := NewRegistry(flavor)
	rs := &Resolver{
		Versions: &fakeVersions{
			versions: map[string]map[int]tracking.ModelVersion{
				"scorer": {
					1: {Name: "scorer", Version: 1, RunID: "r1", ArtifactPath: "model"},
					2: {Name: "scorer", Version: 2, RunID: "r2", ArtifactPath: "model"},
				},
			},
			aliases: map[string]map[string]int{"scorer": {"champion": 1}},
		},
		Artifacts: dirArtifacts{dir: dir},
	}

	for _, ref := range []string{"models:/scorer/2", "models:/scorer", "models:/scorer@champion"} {
		if _, _, err := registry.Load(context.Background(), rs, noClients{}, ref); err != nil {
			t.Errorf("Load(%q): %v", ref, err)
		}
	}
}

// Loading the same reference twice produces a predictor capable of the same
// delegated call.
func TestLoad_Reload(t *testing.T) {
	flavor := &stubFlavor{name: "stub"}
	registry := NewRegistry(flavor)
	dir := writeTestCard(t, "stub")
	rs := &Resolver{}

	first, _, err := registry.Load(context.Background(), rs, noClients{}, dir)
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	second, _, err := registry.Load(context.Background(), rs, noClients{}, dir)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}

	a, _ := first.Predict(context.Background(), nil)
	b, _ := second.Predict(context.Background(), nil)
	if a != b {
		t.Errorf("reloaded model answered differently: %v vs %v", a, b)
	}
	if flavor.loaded != 2 {
		t.Errorf("expected 2 flavor loads, got %d", flavor.loaded)
	}
}

func TestLoad_Failures(t *testing.T) {
	failing := &stubFlavor{name: "failing", loadErr: errors.New("weights corrupt")}
	registry := NewRegistry(&stubFlavor{name: "stub"}, failing)
	rs := &Resolver{
		Versions:  &fakeVersions{},
		Artifacts: dirArtifacts{},
	}

	tests := []struct {
		name string
		ref  string
	}{
		{"bad ref", "runs:/onlyrun"},
		{"missing dir", t.TempDir() + "/nope"},
		{"unknown model", "models:/ghost"},
		{"missing card", t.TempDir()},
		{"unsupported flavor", writeTestCard(t, "unknown_flavor")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := registry.Load(context.Background(), rs, noClients{}, tt.ref)
			if err == nil {
				t.Fatal("expected load error")
			}
			var lerr *LoadError
			if !errors.As(err, &lerr) {
				t.Errorf("expected *LoadError, got %T: %v", err, err)
			}
			if lerr.Ref != tt.ref {
				t.Errorf("LoadError.Ref = %q, want %q", lerr.Ref, tt.ref)
			}
		})
	}

	// Flavor load failure also surfaces as LoadError.
	failDir := writeTestCard(t, "failing")
	_, _, err := registry.Load(context.Background(), rs, noClients{}, failDir)
	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *LoadError, got %T", err)
	}
	if !errors.Is(err, failing.loadErr) {
		t.Error("LoadError should wrap the flavor's cause")
	}
}

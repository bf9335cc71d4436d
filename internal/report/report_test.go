package report

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/modelyard/modelyard/internal/tracking"
)

func sampleData() Data {
	return Data{
		Experiment: tracking.Experiment{ID: "e1", Name: "similarity-baselines"},
		Run: tracking.Run{
			ID:           "run123",
			ExperimentID: "e1",
			Name:         "nightly",
			Status:       tracking.StatusFinished,
			StartedAt:    time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
			EndedAt:      time.Date(2026, 8, 20, 9, 5, 0, 0, time.UTC),
		},
		Params:  map[string]string{"provider": "ollama", "embed_model": "nomic-embed-text"},
		Metrics: []tracking.Metric{{RunID: "run123", Key: "similarity", Value: 0.87, Step: 0}},
		Tags:    map[string]string{"git.branch": "main"},
		Models:  []tracking.ModelVersion{{Name: "scorer", Version: 2, RunID: "run123", ArtifactPath: "model"}},
	}
}

func TestGet(t *testing.T) {
	for _, format := range ValidFormats() {
		if _, ok := Get(format); !ok {
			t.Errorf("format %q listed but not registered", format)
		}
	}
	if _, ok := Get("xml"); ok {
		t.Error("unexpected renderer for xml")
	}
}

func TestMarkdownRenderer(t *testing.T) {
	out, err := (&MarkdownRenderer{}).Render(sampleData())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{
		"# Run nightly",
		"| Experiment | similarity-baselines |",
		"| Status | finished |",
		"**provider**: ollama",
		"| similarity | 0.87 | 0 |",
		"**git.branch**: main",
		"scorer v2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownRenderer_Sparse(t *testing.T) {
	out, err := (&MarkdownRenderer{}).Render(Data{
		Run: tracking.Run{ID: "bare", Status: tracking.StatusRunning},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(out, "## Parameters") || strings.Contains(out, "## Metrics") {
		t.Error("empty sections should be omitted")
	}
	if !strings.Contains(out, "# Run bare") {
		t.Error("run id should title the report when the run is unnamed")
	}
}

func TestJSONRenderer(t *testing.T) {
	out, err := (&JSONRenderer{}).Render(sampleData())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	exp := decoded["experiment"].(map[string]any)
	if exp["name"] != "similarity-baselines" {
		t.Errorf("experiment name: %v", exp["name"])
	}
	if decoded["params"].(map[string]any)["provider"] != "ollama" {
		t.Errorf("params: %v", decoded["params"])
	}
}

func TestJSONRenderer_EmptyCollections(t *testing.T) {
	out, err := (&JSONRenderer{}).Render(Data{Run: tracking.Run{ID: "bare"}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	// Empty collections render as {} / [], never null.
	if decoded["params"] == nil || decoded["metrics"] == nil || decoded["models"] == nil {
		t.Errorf("nil collections in output: %s", out)
	}
}

// fakeSource serves one fixed run.
type fakeSource struct {
	data Data
	err  error
}

func (f *fakeSource) GetRun(id string) (tracking.Run, error) {
	if f.err != nil {
		return tracking.Run{}, f.err
	}
	return f.data.Run, nil
}

func (f *fakeSource) GetExperiment(id string) (tracking.Experiment, error) {
	return f.data.Experiment, nil
}

func (f *fakeSource) GetParams(runID string) (map[string]string, error) {
	return f.data.Params, nil
}

func (f *fakeSource) GetMetrics(runID string) ([]tracking.Metric, error) {
	return f.data.Metrics, nil
}

func (f *fakeSource) GetTags(runID string) (map[string]string, error) {
	return f.data.Tags, nil
}

func (f *fakeSource) ListRunModelVersions(runID string) ([]tracking.ModelVersion, error) {
	return f.data.Models, nil
}

func TestCollect(t *testing.T) {
	src := &fakeSource{data: sampleData()}
	d, err := Collect(src, "run123")
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if d.Experiment.Name != "similarity-baselines" {
		t.Errorf("experiment: %+v", d.Experiment)
	}
	if len(d.Metrics) != 1 || len(d.Models) != 1 {
		t.Errorf("collected %d metrics, %d models", len(d.Metrics), len(d.Models))
	}
}

func TestCollect_MissingRun(t *testing.T) {
	src := &fakeSource{err: errors.New("run not found")}
	if _, err := Collect(src, "ghost"); err == nil {
		t.Error("expected error for missing run")
	}
}

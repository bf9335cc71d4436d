// Package report renders tracked runs into shareable formats.
package report

import (
	"github.com/modelyard/modelyard/internal/tracking"
)

// Data is the full record of one run, passed to every Renderer.
type Data struct {
	Experiment tracking.Experiment
	Run        tracking.Run
	Params     map[string]string
	Metrics    []tracking.Metric
	Tags       map[string]string
	Models     []tracking.ModelVersion
}

// Renderer renders Data to a string in a specific format.
type Renderer interface {
	Render(data Data) (string, error)
}

// registry maps format names to Renderer implementations.
var registry = map[string]Renderer{
	"markdown": &MarkdownRenderer{},
	"json":     &JSONRenderer{},
}

// Get returns the Renderer registered under name, and whether it was found.
func Get(name string) (Renderer, bool) {
	r, ok := registry[name]
	return r, ok
}

// ValidFormats returns the list of supported report format names.
func ValidFormats() []string {
	formats := make([]string, 0, len(registry))
	for k := range registry {
		formats = append(formats, k)
	}
	return formats
}

// RunSource supplies everything Collect needs from the tracking store.
// *tracking.Store satisfies this interface.
type RunSource interface {
	GetRun(id string) (tracking.Run, error)
	GetExperiment(id string) (tracking.Experiment, error)
	GetParams(runID string) (map[string]string, error)
	GetMetrics(runID string) ([]tracking.Metric, error)
	GetTags(runID string) (map[string]string, error)
	ListRunModelVersions(runID string) ([]tracking.ModelVersion, error)
}

// Collect gathers a run's full record from the store.
func Collect(src RunSource, runID string) (Data, error) {
	var d Data
	run, err := src.GetRun(runID)
	if err != nil {
		return d, err
	}
	d.Run = run

	if exp, err := src.GetExperiment(run.ExperimentID); err == nil {
		d.Experiment = exp
	}

	if d.Params, err = src.GetParams(run.ID); err != nil {
		return d, err
	}
	if d.Metrics, err = src.GetMetrics(run.ID); err != nil {
		return d, err
	}
	if d.Tags, err = src.GetTags(run.ID); err != nil {
		return d, err
	}
	if d.Models, err = src.ListRunModelVersions(run.ID); err != nil {
		return d, err
	}
	return d, nil
}

package report

import (
	"encoding/json"

	"github.com/modelyard/modelyard/internal/tracking"
)

// JSONRenderer renders a run record as structured JSON.
type JSONRenderer struct{}

type jsonOutput struct {
	Experiment jsonExperiment          `json:"experiment"`
	Run        tracking.Run            `json:"run"`
	Params     map[string]string       `json:"params"`
	Metrics    []tracking.Metric       `json:"metrics"`
	Tags       map[string]string       `json:"tags"`
	Models     []tracking.ModelVersion `json:"models"`
}

type jsonExperiment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (r *JSONRenderer) Render(data Data) (string, error) {
	out := jsonOutput{
		Experiment: jsonExperiment{ID: data.Experiment.ID, Name: data.Experiment.Name},
		Run:        data.Run,
		Params:     orEmpty(data.Params),
		Metrics:    data.Metrics,
		Tags:       orEmpty(data.Tags),
		Models:     data.Models,
	}
	if out.Metrics == nil {
		out.Metrics = []tracking.Metric{}
	}
	if out.Models == nil {
		out.Models = []tracking.ModelVersion{}
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

// orEmpty renders a nil map as an empty JSON object.
func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

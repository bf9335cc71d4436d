// Package tracking defines types for the modelyard experiment-tracking store.
package tracking

import "time"

// RunStatus describes the lifecycle state of a run.
type RunStatus string

const (
	StatusRunning  RunStatus = "running"
	StatusFinished RunStatus = "finished"
	StatusFailed   RunStatus = "failed"
)

// ValidRunStatus returns true if s is a recognised run status.
func ValidRunStatus(s RunStatus) bool {
	switch s {
	case StatusRunning, StatusFinished, StatusFailed:
		return true
	}
	return false
}

// Experiment groups related runs under a name.
type Experiment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Run is a single tracked execution within an experiment.
type Run struct {
	ID           string    `json:"id"`
	ExperimentID string    `json:"experiment_id"`
	Name         string    `json:"name"`
	Status       RunStatus `json:"status"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at,omitempty"`
}

// Param is an immutable key/value recorded once per run.
type Param struct {
	RunID string `json:"run_id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metric is a numeric observation, optionally stepped.
type Metric struct {
	RunID      string    `json:"run_id"`
	Key        string    `json:"key"`
	Value      float64   `json:"value"`
	Step       int       `json:"step"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Tag annotates a run with free-form metadata (source commit, user, etc.).
type Tag struct {
	RunID string `json:"run_id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ModelVersion is one registered version of a named model. ArtifactPath is
// relative to the owning run's artifact directory.
type ModelVersion struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Version      int       `json:"version"`
	RunID        string    `json:"run_id"`
	ArtifactPath string    `json:"artifact_path"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats summarises what's stored in a workspace.
type Stats struct {
	Experiments  int
	RunsByStatus map[RunStatus]int
	Models       int
	Versions     int
	CacheEntries int
	DBSizeBytes  int64
}

package tracking

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/modelyard/modelyard/internal/db"
)

func setupTestDB(t *testing.T) (*db.DB, *Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database, NewStore(database)
}

func startTestRun(t *testing.T, store *Store) string {
	t.Helper()
	expID, err := store.CreateExperiment("exp")
	if err != nil {
		t.Fatalf("CreateExperiment: %v", err)
	}
	runID, err := store.StartRun(expID, "run")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	return runID
}

func TestStore_CreateAndGetExperiment(t *testing.T) {
	_, store := setupTestDB(t)

	id, err := store.CreateExperiment("sentence-models")
	if err != nil {
		t.Fatalf("CreateExperiment: %v", err)
	}
	if id == "" {
		t.Error("expected non-empty experiment ID")
	}

	got, err := store.GetExperimentByName("sentence-models")
	if err != nil {
		t.Fatalf("GetExperimentByName: %v", err)
	}
	if got.ID != id {
		t.Errorf("id: got %q, want %q", got.ID, id)
	}
}

func TestStore_CreateExperiment_DuplicateName(t *testing.T) {
	_, store := setupTestDB(t)

	store.CreateExperiment("dup")
	if _, err := store.CreateExperiment("dup"); err == nil {
		t.Error("expected error creating duplicate experiment")
	}
}

func TestStore_CreateExperiment_EmptyName(t *testing.T) {
	_, store := setupTestDB(t)

	if _, err := store.CreateExperiment(""); err == nil {
		t.Error("expected error for empty experiment name")
	}
}

func TestStore_GetOrCreateExperiment(t *testing.T) {
	_, store := setupTestDB(t)

	e1, err := store.GetOrCreateExperiment("default")
	if err != nil {
		t.Fatalf("GetOrCreateExperiment: %v", err)
	}
	e2, err := store.GetOrCreateExperiment("default")
	if err != nil {
		t.Fatalf("GetOrCreateExperiment (second): %v", err)
	}
	if e1.ID != e2.ID {
		t.Errorf("expected same experiment, got %q vs %q", e1.ID, e2.ID)
	}
}

func TestStore_ListExperiments(t *testing.T) {
	_, store := setupTestDB(t)

	store.CreateExperiment("a")
	store.CreateExperiment("b")

	exps, err := store.ListExperiments()
	if err != nil {
		t.Fatalf("ListExperiments: %v", err)
	}
	if len(exps) != 2 {
		t.Errorf("expected 2 experiments, got %d", len(exps))
	}
}

func TestStore_StartAndGetRun(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)

	got, err := store.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != StatusRunning {
		t.Errorf("status: got %q, want %q", got.Status, StatusRunning)
	}
	if got.StartedAt.IsZero() {
		t.Error("expected non-zero start time")
	}
}

func TestStore_GetRun_PrefixMatch(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)

	got, err := store.GetRun(runID[:8])
	if err != nil {
		t.Fatalf("GetRun by prefix: %v", err)
	}
	if got.ID != runID {
		t.Errorf("expected full ID %q, got %q", runID, got.ID)
	}
}

func TestStore_GetRun_NotFound(t *testing.T) {
	_, store := setupTestDB(t)

	if _, err := store.GetRun("nonexistent"); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestStore_FinishRun(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)

	if err := store.FinishRun(runID, StatusFinished); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, _ := store.GetRun(runID)
	if got.Status != StatusFinished {
		t.Errorf("status: got %q, want %q", got.Status, StatusFinished)
	}
	if got.EndedAt.IsZero() {
		t.Error("expected non-zero end time")
	}
}

func TestStore_FinishRun_InvalidStatus(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)

	if err := store.FinishRun(runID, StatusRunning); err == nil {
		t.Error("expected error finishing run with status 'running'")
	}
	if err := store.FinishRun(runID, RunStatus("bogus")); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestStore_ListRuns_ByExperiment(t *testing.T) {
	_, store := setupTestDB(t)

	expA, _ := store.CreateExperiment("a")
	expB, _ := store.CreateExperiment("b")
	store.StartRun(expA, "r1")
	store.StartRun(expA, "r2")
	store.StartRun(expB, "r3")

	runs, err := store.ListRuns(expA)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs in experiment a, got %d", len(runs))
	}

	all, _ := store.ListRuns("")
	if len(all) != 3 {
		t.Errorf("expected 3 runs total, got %d", len(all))
	}
}

func TestStore_LogParam(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)

	if err := store.LogParam(runID, "embedder", "openai"); err != nil {
		t.Fatalf("LogParam: %v", err)
	}

	params, err := store.GetParams(runID)
	if err != nil {
		t.Fatalf("GetParams: %v", err)
	}
	if params["embedder"] != "openai" {
		t.Errorf("param: got %q", params["embedder"])
	}
}

func TestStore_LogParam_Immutable(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)

	store.LogParam(runID, "k", "v1")

	// Same value again is a no-op.
	if err := store.LogParam(runID, "k", "v1"); err != nil {
		t.Errorf("re-logging same value should succeed: %v", err)
	}

	// Different value is rejected.
	if err := store.LogParam(runID, "k", "v2"); err == nil {
		t.Error("expected error re-logging param with different value")
	}
}

func TestStore_LogAndGetMetrics(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)

	store.LogMetric(runID, "similarity", 0.91, 0)
	store.LogMetric(runID, "similarity", 0.94, 1)

	metrics, err := store.GetMetrics(runID)
	if err != nil {
		t.Fatalf("GetMetrics: %v", err)
	}
	if len(metrics) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(metrics))
	}
	if metrics[0].Step != 0 || metrics[1].Step != 1 {
		t.Errorf("expected steps ordered 0,1; got %d,%d", metrics[0].Step, metrics[1].Step)
	}
}

func TestStore_SetAndGetTags(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)

	store.SetTag(runID, "git.branch", "main")
	store.SetTag(runID, "git.branch", "dev") // replace

	tags, err := store.GetTags(runID)
	if err != nil {
		t.Fatalf("GetTags: %v", err)
	}
	if tags["git.branch"] != "dev" {
		t.Errorf("tag: got %q, want %q", tags["git.branch"], "dev")
	}
}

func TestStore_RegisterModelVersion_Increments(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)

	v1, err := store.RegisterModelVersion("similarity", runID, "model")
	if err != nil {
		t.Fatalf("RegisterModelVersion: %v", err)
	}
	v2, _ := store.RegisterModelVersion("similarity", runID, "model-v2")

	if v1 != 1 || v2 != 2 {
		t.Errorf("expected versions 1,2; got %d,%d", v1, v2)
	}
}

func TestStore_GetModelVersion(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)

	store.RegisterModelVersion("m", runID, "model")

	mv, err := store.GetModelVersion("m", 1)
	if err != nil {
		t.Fatalf("GetModelVersion: %v", err)
	}
	if mv.RunID != runID {
		t.Errorf("run id: got %q, want %q", mv.RunID, runID)
	}
	if mv.ArtifactPath != "model" {
		t.Errorf("artifact path: got %q", mv.ArtifactPath)
	}
}

func TestStore_GetLatestModelVersion(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)

	store.RegisterModelVersion("m", runID, "a")
	store.RegisterModelVersion("m", runID, "b")

	mv, err := store.GetLatestModelVersion("m")
	if err != nil {
		t.Fatalf("GetLatestModelVersion: %v", err)
	}
	if mv.Version != 2 {
		t.Errorf("expected version 2, got %d", mv.Version)
	}
}

func TestStore_GetLatestModelVersion_Unknown(t *testing.T) {
	_, store := setupTestDB(t)

	if _, err := store.GetLatestModelVersion("ghost"); err == nil {
		t.Error("expected error for unregistered model")
	}
}

func TestStore_ModelAliases(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)

	store.RegisterModelVersion("m", runID, "a")
	store.RegisterModelVersion("m", runID, "b")

	if err := store.SetModelAlias("m", "champion", 1); err != nil {
		t.Fatalf("SetModelAlias: %v", err)
	}

	v, err := store.ResolveModelAlias("m", "champion")
	if err != nil {
		t.Fatalf("ResolveModelAlias: %v", err)
	}
	if v != 1 {
		t.Errorf("expected version 1, got %d", v)
	}

	// Repoint the alias.
	store.SetModelAlias("m", "champion", 2)
	v, _ = store.ResolveModelAlias("m", "champion")
	if v != 2 {
		t.Errorf("expected repointed version 2, got %d", v)
	}
}

func TestStore_SetModelAlias_UnknownVersion(t *testing.T) {
	_, store := setupTestDB(t)

	if err := store.SetModelAlias("m", "champion", 7); err == nil {
		t.Error("expected error aliasing unknown version")
	}
}

func TestStore_ResolveModelAlias_Unknown(t *testing.T) {
	_, store := setupTestDB(t)

	if _, err := store.ResolveModelAlias("m", "ghost"); err == nil {
		t.Error("expected error for unknown alias")
	}
}

func TestStore_DeleteRun_Cascades(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)

	store.LogParam(runID, "k", "v")
	store.LogMetric(runID, "m", 1.0, 0)
	store.RegisterModelVersion("m", runID, "model")

	if err := store.DeleteRun(runID); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}

	params, _ := store.GetParams(runID)
	if len(params) != 0 {
		t.Errorf("expected cascade delete of params, got %d", len(params))
	}
	versions, _ := store.ListModelVersions("m")
	if len(versions) != 0 {
		t.Errorf("expected cascade delete of model versions, got %d", len(versions))
	}
}

func TestStore_ListFinishedRunsBefore(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)
	store.FinishRun(runID, StatusFinished)

	// Cutoff in the future — the just-finished run qualifies.
	ids, err := store.ListFinishedRunsBefore(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("ListFinishedRunsBefore: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("expected 1 run, got %d", len(ids))
	}

	// Cutoff in the past — nothing qualifies.
	ids, _ = store.ListFinishedRunsBefore(time.Now().Add(-time.Hour))
	if len(ids) != 0 {
		t.Errorf("expected 0 runs, got %d", len(ids))
	}
}

func TestStore_GetStats(t *testing.T) {
	_, store := setupTestDB(t)
	runID := startTestRun(t, store)
	store.RegisterModelVersion("m", runID, "model")

	st, err := store.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if st.Experiments != 1 {
		t.Errorf("experiments: got %d, want 1", st.Experiments)
	}
	if st.RunsByStatus[StatusRunning] != 1 {
		t.Errorf("running runs: got %d, want 1", st.RunsByStatus[StatusRunning])
	}
	if st.Models != 1 || st.Versions != 1 {
		t.Errorf("models/versions: got %d/%d, want 1/1", st.Models, st.Versions)
	}
}

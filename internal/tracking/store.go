package tracking

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/modelyard/modelyard/internal/db"
)

// Store provides read/write access to the modelyard SQLite database.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given DB.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Conn exposes the underlying *sql.DB for low-level queries.
func (s *Store) Conn() *sql.DB {
	return s.db.Conn()
}

// ---- Experiments ----

// CreateExperiment creates a named experiment and returns its generated ID.
func (s *Store) CreateExperiment(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("store: experiment name must not be empty")
	}
	var id string
	err := s.db.Conn().QueryRow(`
		INSERT INTO experiments (id, name)
		VALUES (lower(hex(randomblob(16))), ?)
		RETURNING id`,
		name,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("store: create experiment %q: %w", name, err)
	}
	return id, nil
}

// GetExperimentByName returns the experiment with the given name.
func (s *Store) GetExperimentByName(name string) (Experiment, error) {
	var e Experiment
	var createdAt string
	err := s.db.Conn().QueryRow(
		`SELECT id, name, created_at FROM experiments WHERE name = ?`, name,
	).Scan(&e.ID, &e.Name, &createdAt)
	if err == sql.ErrNoRows {
		return e, fmt.Errorf("store: experiment %q not found", name)
	}
	if err != nil {
		return e, fmt.Errorf("store: get experiment: %w", err)
	}
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

// GetExperiment returns the experiment with the given id.
func (s *Store) GetExperiment(id string) (Experiment, error) {
	var e Experiment
	var createdAt string
	err := s.db.Conn().QueryRow(
		`SELECT id, name, created_at FROM experiments WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &createdAt)
	if err == sql.ErrNoRows {
		return e, fmt.Errorf("store: experiment %s not found", id)
	}
	if err != nil {
		return e, fmt.Errorf("store: get experiment: %w", err)
	}
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

// GetOrCreateExperiment returns the named experiment, creating it if missing.
func (s *Store) GetOrCreateExperiment(name string) (Experiment, error) {
	e, err := s.GetExperimentByName(name)
	if err == nil {
		return e, nil
	}
	if _, err := s.CreateExperiment(name); err != nil {
		return Experiment{}, err
	}
	return s.GetExperimentByName(name)
}

// ListExperiments returns all experiments, newest first.
func (s *Store) ListExperiments() ([]Experiment, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, name, created_at FROM experiments ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list experiments: %w", err)
	}
	defer rows.Close()

	var out []Experiment
	for rows.Next() {
		var e Experiment
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Name, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTime(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ---- Runs ----

// StartRun creates a new run in the given experiment and returns its ID.
func (s *Store) StartRun(experimentID, name string) (string, error) {
	var id string
	err := s.db.Conn().QueryRow(`
		INSERT INTO runs (id, experiment_id, name, status)
		VALUES (lower(hex(randomblob(16))), ?, ?, 'running')
		RETURNING id`,
		experimentID, name,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("store: start run: %w", err)
	}
	return id, nil
}

// GetRun returns a single run by ID. Run IDs may be abbreviated to a unique prefix.
func (s *Store) GetRun(id string) (Run, error) {
	var r Run
	var startedAt string
	var endedAt sql.NullString
	var status string
	err := s.db.Conn().QueryRow(`
		SELECT id, experiment_id, name, status, started_at, ended_at
		FROM runs WHERE id = ? OR id LIKE ? || '%'`,
		id, id,
	).Scan(&r.ID, &r.ExperimentID, &r.Name, &status, &startedAt, &endedAt)
	if err == sql.ErrNoRows {
		return r, fmt.Errorf("store: run %q not found", id)
	}
	if err != nil {
		return r, fmt.Errorf("store: get run: %w", err)
	}
	r.Status = RunStatus(status)
	r.StartedAt = parseTime(startedAt)
	if endedAt.Valid {
		r.EndedAt = parseTime(endedAt.String)
	}
	return r, nil
}

// ListRuns returns runs for an experiment (all experiments if experimentID is empty),
// newest first.
func (s *Store) ListRuns(experimentID string) ([]Run, error) {
	var rows *sql.Rows
	var err error
	if experimentID == "" {
		rows, err = s.db.Conn().Query(`
			SELECT id, experiment_id, name, status, started_at, ended_at
			FROM runs ORDER BY started_at DESC`)
	} else {
		rows, err = s.db.Conn().Query(`
			SELECT id, experiment_id, name, status, started_at, ended_at
			FROM runs WHERE experiment_id = ? ORDER BY started_at DESC`,
			experimentID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var startedAt, status string
		var endedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.ExperimentID, &r.Name, &status, &startedAt, &endedAt); err != nil {
			return nil, err
		}
		r.Status = RunStatus(status)
		r.StartedAt = parseTime(startedAt)
		if endedAt.Valid {
			r.EndedAt = parseTime(endedAt.String)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FinishRun marks a run as finished (or failed) and stamps the end time.
func (s *Store) FinishRun(id string, status RunStatus) error {
	if !ValidRunStatus(status) || status == StatusRunning {
		return fmt.Errorf("store: invalid terminal status %q", status)
	}
	res, err := s.db.Conn().Exec(
		`UPDATE runs SET status = ?, ended_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("store: finish run: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("store: run %q not found", id)
	}
	return nil
}

// DeleteRun removes a run. Params, metrics, tags, and model versions are
// cascade-deleted by SQLite.
func (s *Store) DeleteRun(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM runs WHERE id = ?`, id)
	return err
}

// ListFinishedRunsBefore returns IDs of terminal runs that ended before cutoff.
func (s *Store) ListFinishedRunsBefore(cutoff time.Time) ([]string, error) {
	rows, err := s.db.Conn().Query(`
		SELECT id FROM runs
		WHERE status != 'running' AND ended_at IS NOT NULL AND ended_at < ?`,
		cutoff.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return nil, fmt.Errorf("store: list finished runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ---- Params / metrics / tags ----

// LogParam records an immutable run parameter. Logging the same key twice with
// a different value is an error.
func (s *Store) LogParam(runID, key, value string) error {
	var existing string
	err := s.db.Conn().QueryRow(
		`SELECT value FROM params WHERE run_id = ? AND key = ?`, runID, key,
	).Scan(&existing)
	if err == nil {
		if existing == value {
			return nil
		}
		return fmt.Errorf("store: param %q already logged with value %q", key, existing)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("store: log param: %w", err)
	}

	_, err = s.db.Conn().Exec(
		`INSERT INTO params (run_id, key, value) VALUES (?, ?, ?)`,
		runID, key, value,
	)
	if err != nil {
		return fmt.Errorf("store: log param: %w", err)
	}
	return nil
}

// GetParams returns all params for a run as a map.
func (s *Store) GetParams(runID string) (map[string]string, error) {
	rows, err := s.db.Conn().Query(
		`SELECT key, value FROM params WHERE run_id = ? ORDER BY key`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get params: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// LogMetric appends a metric observation.
func (s *Store) LogMetric(runID, key string, value float64, step int) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO metrics (run_id, key, value, step) VALUES (?, ?, ?, ?)`,
		runID, key, value, step,
	)
	if err != nil {
		return fmt.Errorf("store: log metric: %w", err)
	}
	return nil
}

// GetMetrics returns all metric observations for a run, ordered by key then step.
func (s *Store) GetMetrics(runID string) ([]Metric, error) {
	rows, err := s.db.Conn().Query(`
		SELECT run_id, key, value, step, recorded_at
		FROM metrics WHERE run_id = ? ORDER BY key, step`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get metrics: %w", err)
	}
	defer rows.Close()

	var out []Metric
	for rows.Next() {
		var m Metric
		var recordedAt string
		if err := rows.Scan(&m.RunID, &m.Key, &m.Value, &m.Step, &recordedAt); err != nil {
			return nil, err
		}
		m.RecordedAt = parseTime(recordedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// SetTag sets (or replaces) a run tag.
func (s *Store) SetTag(runID, key, value string) error {
	_, err := s.db.Conn().Exec(`
		INSERT INTO tags (run_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(run_id, key) DO UPDATE SET value = excluded.value`,
		runID, key, value,
	)
	if err != nil {
		return fmt.Errorf("store: set tag: %w", err)
	}
	return nil
}

// GetTags returns all tags for a run as a map.
func (s *Store) GetTags(runID string) (map[string]string, error) {
	rows, err := s.db.Conn().Query(
		`SELECT key, value FROM tags WHERE run_id = ? ORDER BY key`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get tags: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// ---- Model registry ----

// RegisterModelVersion registers the artifacts at artifactPath (relative to the
// run's artifact dir) as the next version of the named model. Returns the
// assigned version number.
func (s *Store) RegisterModelVersion(name, runID, artifactPath string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("store: model name must not be empty")
	}
	var next int
	if err := s.db.Conn().QueryRow(
		`SELECT COALESCE(MAX(version), 0) + 1 FROM model_versions WHERE name = ?`, name,
	).Scan(&next); err != nil {
		return 0, fmt.Errorf("store: next model version: %w", err)
	}

	_, err := s.db.Conn().Exec(`
		INSERT INTO model_versions (id, name, version, run_id, artifact_path)
		VALUES (lower(hex(randomblob(16))), ?, ?, ?, ?)`,
		name, next, runID, artifactPath,
	)
	if err != nil {
		return 0, fmt.Errorf("store: register model version: %w", err)
	}
	return next, nil
}

// GetModelVersion returns one registered version of a model.
func (s *Store) GetModelVersion(name string, version int) (ModelVersion, error) {
	var mv ModelVersion
	var createdAt string
	err := s.db.Conn().QueryRow(`
		SELECT id, name, version, run_id, artifact_path, created_at
		FROM model_versions WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&mv.ID, &mv.Name, &mv.Version, &mv.RunID, &mv.ArtifactPath, &createdAt)
	if err == sql.ErrNoRows {
		return mv, fmt.Errorf("store: model %q version %d not found", name, version)
	}
	if err != nil {
		return mv, fmt.Errorf("store: get model version: %w", err)
	}
	mv.CreatedAt = parseTime(createdAt)
	return mv, nil
}

// GetLatestModelVersion returns the highest registered version of a model.
func (s *Store) GetLatestModelVersion(name string) (ModelVersion, error) {
	var version int
	err := s.db.Conn().QueryRow(
		`SELECT MAX(version) FROM model_versions WHERE name = ?`, name,
	).Scan(&version)
	if err != nil || version == 0 {
		return ModelVersion{}, fmt.Errorf("store: model %q has no registered versions", name)
	}
	return s.GetModelVersion(name, version)
}

// ListModelVersions returns all versions of a model (all models if name is empty),
// newest first.
func (s *Store) ListModelVersions(name string) ([]ModelVersion, error) {
	var rows *sql.Rows
	var err error
	if name == "" {
		rows, err = s.db.Conn().Query(`
			SELECT id, name, version, run_id, artifact_path, created_at
			FROM model_versions ORDER BY name, version DESC`)
	} else {
		rows, err = s.db.Conn().Query(`
			SELECT id, name, version, run_id, artifact_path, created_at
			FROM model_versions WHERE name = ? ORDER BY version DESC`, name)
	}
	if err != nil {
		return nil, fmt.Errorf("store: list model versions: %w", err)
	}
	defer rows.Close()

	var out []ModelVersion
	for rows.Next() {
		var mv ModelVersion
		var createdAt string
		if err := rows.Scan(&mv.ID, &mv.Name, &mv.Version, &mv.RunID, &mv.ArtifactPath, &createdAt); err != nil {
			return nil, err
		}
		mv.CreatedAt = parseTime(createdAt)
		out = append(out, mv)
	}
	return out, rows.Err()
}

// ListRunModelVersions returns the model versions registered from a run.
func (s *Store) ListRunModelVersions(runID string) ([]ModelVersion, error) {
	rows, err := s.db.Conn().Query(`
		SELECT id, name, version, run_id, artifact_path, created_at
		FROM model_versions WHERE run_id = ? ORDER BY name, version DESC`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: list run model versions: %w", err)
	}
	defer rows.Close()

	var out []ModelVersion
	for rows.Next() {
		var mv ModelVersion
		var createdAt string
		if err := rows.Scan(&mv.ID, &mv.Name, &mv.Version, &mv.RunID, &mv.ArtifactPath, &createdAt); err != nil {
			return nil, err
		}
		mv.CreatedAt = parseTime(createdAt)
		out = append(out, mv)
	}
	return out, rows.Err()
}

// SetModelAlias points an alias (e.g. "champion") at a specific model version.
func (s *Store) SetModelAlias(name, alias string, version int) error {
	// The version must exist.
	if _, err := s.GetModelVersion(name, version); err != nil {
		return err
	}
	_, err := s.db.Conn().Exec(`
		INSERT INTO model_aliases (name, alias, version) VALUES (?, ?, ?)
		ON CONFLICT(name, alias) DO UPDATE SET version = excluded.version`,
		name, alias, version,
	)
	if err != nil {
		return fmt.Errorf("store: set model alias: %w", err)
	}
	return nil
}

// ResolveModelAlias returns the version an alias points at.
func (s *Store) ResolveModelAlias(name, alias string) (int, error) {
	var version int
	err := s.db.Conn().QueryRow(
		`SELECT version FROM model_aliases WHERE name = ? AND alias = ?`,
		name, alias,
	).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("store: model %q has no alias %q", name, alias)
	}
	if err != nil {
		return 0, fmt.Errorf("store: resolve alias: %w", err)
	}
	return version, nil
}

// GetAliases returns alias → version for a model.
func (s *Store) GetAliases(name string) (map[string]int, error) {
	rows, err := s.db.Conn().Query(
		`SELECT alias, version FROM model_aliases WHERE name = ? ORDER BY alias`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get aliases: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var alias string
		var version int
		if err := rows.Scan(&alias, &version); err != nil {
			return nil, err
		}
		out[alias] = version
	}
	return out, rows.Err()
}

// ---- Stats ----

// GetStats summarises the workspace contents.
func (s *Store) GetStats() (Stats, error) {
	st := Stats{RunsByStatus: make(map[RunStatus]int)}

	if err := s.db.Conn().QueryRow(`SELECT COUNT(*) FROM experiments`).Scan(&st.Experiments); err != nil {
		return st, fmt.Errorf("store: stats: %w", err)
	}

	rows, err := s.db.Conn().Query(`SELECT status, COUNT(*) FROM runs GROUP BY status`)
	if err != nil {
		return st, fmt.Errorf("store: stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return st, err
		}
		st.RunsByStatus[RunStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	_ = s.db.Conn().QueryRow(`SELECT COUNT(DISTINCT name) FROM model_versions`).Scan(&st.Models)
	_ = s.db.Conn().QueryRow(`SELECT COUNT(*) FROM model_versions`).Scan(&st.Versions)
	_ = s.db.Conn().QueryRow(`SELECT COUNT(*) FROM embed_cache`).Scan(&st.CacheEntries)

	return st, nil
}

// ---- Helpers ----

// parseTime tries multiple SQLite timestamp layouts.
// go-sqlite3 may return RFC3339 or the plain "2006-01-02 15:04:05" format depending on
// the connection string and platform.
func parseTime(s string) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

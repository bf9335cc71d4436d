// Package config manages global (~/.config/modelyard/config.toml) and
// per-workspace (.modelyard/config.toml) configuration for modelyard.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// WorkspaceDirName is the dot-directory holding a workspace's database,
// artifacts, and config.
const WorkspaceDirName = ".modelyard"

// GlobalConfig holds user-wide settings.
type GlobalConfig struct {
	DefaultProvider string       `toml:"default_provider"`
	DefaultEmbedder string       `toml:"default_embedder"`
	Keys            KeysConfig   `toml:"keys"`
	Ollama          OllamaConfig `toml:"ollama"`
	Cache           CacheConfig  `toml:"cache"`
	Prune           PruneConfig  `toml:"prune"`
	Output          OutputConfig `toml:"output"`
}

type KeysConfig struct {
	Anthropic string `toml:"anthropic"`
	OpenAI    string `toml:"openai"`
	Gemini    string `toml:"gemini"`
}

type OllamaConfig struct {
	Host       string `toml:"host"`
	EmbedModel string `toml:"embed_model"`
	ChatModel  string `toml:"chat_model"`
}

// CacheConfig controls the embedding cache.
type CacheConfig struct {
	Enabled bool `toml:"enabled"`
}

// PruneConfig controls what `modelyard prune` removes by default.
type PruneConfig struct {
	// MaxRunAgeDays prunes finished runs older than this. 0 disables age pruning.
	MaxRunAgeDays int `toml:"max_run_age_days"`
}

type OutputConfig struct {
	Color    bool `toml:"color"`
	Progress bool `toml:"progress"`
	Verbose  bool `toml:"verbose"`
}

// WorkspaceConfig holds per-workspace overrides stored in
// .modelyard/config.toml.
type WorkspaceConfig struct {
	DefaultProvider   string        `toml:"default_provider"`
	DefaultExperiment string        `toml:"default_experiment"`
	Workspace         WorkspaceMeta `toml:"workspace"`
}

type WorkspaceMeta struct {
	Name string `toml:"name"`
}

// DefaultGlobal returns sensible defaults.
func DefaultGlobal() GlobalConfig {
	return GlobalConfig{
		DefaultProvider: "claude",
		DefaultEmbedder: "ollama",
		Ollama: OllamaConfig{
			Host:       "http://localhost:11434",
			EmbedModel: "nomic-embed-text",
			ChatModel:  "llama3.2",
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Prune: PruneConfig{
			MaxRunAgeDays: 0,
		},
		Output: OutputConfig{
			Color:    true,
			Progress: true,
		},
	}
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "modelyard", "config.toml"), nil
}

// LoadGlobal loads the global config, applying defaults for any missing values.
func LoadGlobal() (GlobalConfig, error) {
	cfg := DefaultGlobal()

	path, err := GlobalConfigPath()
	if err != nil {
		applyEnvKeys(&cfg)
		return cfg, nil // Return defaults if we can't determine home dir.
	}

	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config: load global: %w", err)
		}
	}

	applyEnvKeys(&cfg)
	return cfg, nil
}

// applyEnvKeys lets env vars override config file API keys.
func applyEnvKeys(cfg *GlobalConfig) {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Keys.Anthropic = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Keys.OpenAI = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Keys.Gemini = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Ollama.Host = v
	}
}

// SaveGlobal writes the global config to disk.
func SaveGlobal(cfg GlobalConfig) error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create global config: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// LoadWorkspace loads .modelyard/config.toml from the given workspace root.
func LoadWorkspace(root string) (WorkspaceConfig, error) {
	var cfg WorkspaceConfig
	path := filepath.Join(root, WorkspaceDirName, "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: load workspace: %w", err)
	}
	return cfg, nil
}

// SaveWorkspace writes the workspace config to .modelyard/config.toml.
func SaveWorkspace(root string, cfg WorkspaceConfig) error {
	dir := filepath.Join(root, WorkspaceDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: mkdir workspace: %w", err)
	}

	path := filepath.Join(dir, "config.toml")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create workspace config: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// DBPath returns the path to the workspace's SQLite database.
func DBPath(root string) string {
	return filepath.Join(root, WorkspaceDirName, "modelyard.db")
}

// ArtifactRoot returns the path to the workspace's artifact store.
func ArtifactRoot(root string) string {
	return filepath.Join(root, WorkspaceDirName, "artifacts")
}

// WorkspaceDir returns the path to the workspace's .modelyard/ directory.
func WorkspaceDir(root string) string {
	return filepath.Join(root, WorkspaceDirName)
}

// Load returns the effective config for a workspace root (global merged with
// workspace overrides). It is a convenience wrapper used by CLI commands.
func Load(root string) (GlobalConfig, error) {
	global, err := LoadGlobal()
	if err != nil {
		global = DefaultGlobal()
		applyEnvKeys(&global)
	}

	ws, err := LoadWorkspace(root)
	if err == nil && ws.DefaultProvider != "" {
		global.DefaultProvider = ws.DefaultProvider
	}

	return global, nil
}

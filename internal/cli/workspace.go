package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/modelyard/modelyard/internal/adapter"
	"github.com/modelyard/modelyard/internal/artifact"
	"github.com/modelyard/modelyard/internal/config"
	"github.com/modelyard/modelyard/internal/db"
	"github.com/modelyard/modelyard/internal/embedcache"
	"github.com/modelyard/modelyard/internal/model"
	"github.com/modelyard/modelyard/internal/scorer"
	"github.com/modelyard/modelyard/internal/tracking"
	"github.com/modelyard/modelyard/internal/translate"
)

// workspace bundles everything an initialized workspace provides.
type workspace struct {
	root  string
	cfg   config.GlobalConfig
	db    *db.DB
	store *tracking.Store
	arts  *artifact.Store
	cache *embedcache.Cache
}

func (w *workspace) Close() {
	_ = w.db.Close()
}

// findRoot walks up from the working directory looking for a .modelyard/
// directory; falls back to the working directory itself.
func findRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	dir, _ := filepath.Abs(cwd)
	for {
		if _, err := os.Stat(filepath.Join(dir, config.WorkspaceDirName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd, nil
}

// ensureInitialized checks that the workspace database exists.
func ensureInitialized(root string) (string, error) {
	dbPath := config.DBPath(root)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("modelyard not initialized. Run `modelyard init` first")
	}
	return dbPath, nil
}

// openWorkspace locates, verifies, and opens the current workspace.
func openWorkspace() (*workspace, error) {
	root, err := findRoot()
	if err != nil {
		return nil, err
	}
	dbPath, err := ensureInitialized(root)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg, _ := config.Load(root)

	arts := artifact.NewStore(config.ArtifactRoot(root))
	if cfg.Output.Progress && term.IsTerminal(int(os.Stderr.Fd())) {
		arts.ProgressWriter = os.Stderr
	}

	return &workspace{
		root:  root,
		cfg:   cfg,
		db:    database,
		store: tracking.NewStore(database),
		arts:  arts,
		cache: embedcache.New(database),
	}, nil
}

// clientFactory builds provider clients from workspace config.
// It satisfies model.ClientFactory.
type clientFactory struct {
	cfg config.GlobalConfig
}

func (f clientFactory) Client(provider string) (adapter.Client, error) {
	opts := adapter.Options{
		EmbedModel: f.cfg.Ollama.EmbedModel,
		OllamaHost: f.cfg.Ollama.Host,
	}
	switch provider {
	case adapter.ProviderClaude:
		opts.APIKey = f.cfg.Keys.Anthropic
	case adapter.ProviderOpenAI:
		opts.APIKey = f.cfg.Keys.OpenAI
	case adapter.ProviderGemini:
		opts.APIKey = f.cfg.Keys.Gemini
	}
	return adapter.New(provider, opts)
}

// clients returns the workspace's provider client factory.
func (w *workspace) clients() model.ClientFactory {
	return clientFactory{cfg: w.cfg}
}

// embedder returns the configured embedding client wrapped with the cache.
func (w *workspace) embedder() (adapter.Embedder, error) {
	provider := w.cfg.DefaultEmbedder
	if provider == "" {
		provider = adapter.ProviderOllama
	}
	client, err := w.clients().Client(provider)
	if err != nil {
		return nil, err
	}
	if !w.cfg.Cache.Enabled {
		return client, nil
	}
	return &embedcache.CachingEmbedder{
		Inner:    client,
		Cache:    w.cache,
		Provider: provider,
		Model:    client.Info().Name,
	}, nil
}

// flavorRegistry returns the built-in model flavors.
func flavorRegistry() *model.Registry {
	return model.NewRegistry(scorer.Flavor{}, translate.Flavor{})
}

// resolver builds a reference resolver over the workspace stores.
func (w *workspace) resolver() *model.Resolver {
	return &model.Resolver{Versions: w.store, Artifacts: w.arts}
}

// loadModel resolves a model reference into a ready predictor.
func (w *workspace) loadModel(ctx context.Context, ref string) (model.Predictor, model.Card, error) {
	return flavorRegistry().Load(ctx, w.resolver(), w.clients(), ref)
}

// Package adapter provides a unified client interface over external model
// providers, covering embedding and text generation.
package adapter

import (
	"context"
	"fmt"
)

// Provider name constants.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// GenerateRequest holds the parameters for a single text generation call.
type GenerateRequest struct {
	System      string
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// ModelInfo describes the capabilities of a provider's default models.
type ModelInfo struct {
	Name               string
	Provider           string
	MaxContextWindow   int
	EmbeddingDimension int // 0 if the provider has no embedding model
}

// Client is the common interface all provider clients implement.
type Client interface {
	// Generate sends a prompt and returns the full response text.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// Embed generates embeddings for a batch of texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Info returns metadata about the client's default models.
	Info() ModelInfo
}

// Options configures provider client construction.
type Options struct {
	APIKey     string // empty = read from env in the concrete client
	EmbedModel string // embedding model name (used by Ollama; ignored by others)
	OllamaHost string // base URL for the Ollama server
}

// New constructs the Client for the named provider.
func New(provider string, opts Options) (Client, error) {
	switch provider {
	case ProviderClaude:
		return NewClaude(opts.APIKey), nil
	case ProviderOpenAI:
		return NewOpenAI(opts.APIKey), nil
	case ProviderGemini:
		return NewGemini(opts.APIKey), nil
	case ProviderOllama:
		host := opts.OllamaHost
		if host == "" {
			host = "http://localhost:11434"
		}
		model := opts.EmbedModel
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewOllama(host, model), nil
	default:
		return nil, fmt.Errorf("adapter: unknown provider %q; valid providers: claude, openai, gemini, ollama", provider)
	}
}

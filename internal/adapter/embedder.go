package adapter

import "context"

// Embedder is a narrower interface for components that only need embedding,
// not text generation. A Client satisfies this interface.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator is a narrower interface for components that only need text
// generation. A Client satisfies this interface.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

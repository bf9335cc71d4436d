package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// claudeClient implements Client for Anthropic Claude.
type claudeClient struct {
	client *anthropic.Client
}

// NewClaude creates a Claude client. If apiKey is empty, ANTHROPIC_API_KEY is used.
func NewClaude(apiKey string) Client {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return &claudeClient{
		client: anthropic.NewClient(apiKey),
	}
}

func (c *claudeClient) Info() ModelInfo {
	return ModelInfo{
		Name:               "claude-sonnet-4-6",
		Provider:           ProviderClaude,
		MaxContextWindow:   200000,
		EmbeddingDimension: 0, // Claude does not provide embeddings
	}
}

func (c *claudeClient) Embed(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errors.New("claude client: embeddings not supported; use openai or ollama for embeddings")
}

func (c *claudeClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = "claude-sonnet-4-6"
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(model),
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(req.Prompt)},
			},
		},
		MaxTokens: maxTokens,
		System:    req.System,
	})
	if err != nil {
		return "", fmt.Errorf("claude generate: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("claude generate: empty response")
	}
	return resp.Content[0].GetText(), nil
}

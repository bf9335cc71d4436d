package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// defaultGeminiBaseURL is the production REST endpoint.
const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiClient implements Client for Google Gemini via the REST API.
type geminiClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGemini creates a Gemini client. If apiKey is empty, GEMINI_API_KEY is used.
func NewGemini(apiKey string) Client {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	return &geminiClient{
		apiKey:  apiKey,
		baseURL: defaultGeminiBaseURL,
		client:  &http.Client{},
	}
}

func (g *geminiClient) Info() ModelInfo {
	return ModelInfo{
		Name:               "gemini-2.0-flash",
		Provider:           ProviderGemini,
		MaxContextWindow:   1000000,
		EmbeddingDimension: 768, // text-embedding-004
	}
}

// ---------- Embedding types ----------

type geminiEmbedRequest struct {
	Model   string             `json:"model"`
	Content geminiEmbedContent `json:"content"`
}

type geminiEmbedContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (g *geminiClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	const model = "text-embedding-004"
	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", g.baseURL, model, g.apiKey)

	results := make([][]float32, 0, len(texts))
	for _, text := range texts {
		body, err := json.Marshal(geminiEmbedRequest{
			Model: "models/" + model,
			Content: geminiEmbedContent{
				Parts: []geminiPart{{Text: text}},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("gemini embed marshal: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gemini embed request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("gemini embed: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("gemini embed: status %d", resp.StatusCode)
		}

		var result geminiEmbedResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("gemini embed decode: %w", decodeErr)
		}
		results = append(results, result.Embedding.Values)
	}

	return results, nil
}

// ---------- Generation types ----------

// geminiGenerateRequest is the request body for the Gemini generateContent API.
type geminiGenerateRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

// geminiGenerateResponse is the response from the Gemini generateContent API.
type geminiGenerateResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (g *geminiClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	var sysInstruction *geminiContent
	if req.System != "" {
		sysInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.System}},
		}
	}

	body, err := json.Marshal(geminiGenerateRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: req.Prompt}},
			},
		},
		SystemInstruction: sysInstruction,
		GenerationConfig: &geminiGenerationConfig{
			MaxOutputTokens: maxTokens,
			Temperature:     req.Temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate marshal: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini generate: status %d: %s", resp.StatusCode, respBody)
	}

	var genResp geminiGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("gemini generate decode: %w", err)
	}

	if genResp.Error != nil {
		return "", fmt.Errorf("gemini api error %d: %s", genResp.Error.Code, genResp.Error.Message)
	}

	var parts []string
	for _, cand := range genResp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				parts = append(parts, part.Text)
			}
		}
	}
	return strings.Join(parts, ""), nil
}

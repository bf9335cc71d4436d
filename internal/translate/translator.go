// Package translate implements the translation model flavor: a prompt-based
// wrapper that sends text through an external chat provider and returns the
// translated result.
package translate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelyard/modelyard/internal/adapter"
	"github.com/modelyard/modelyard/internal/model"
)

// FlavorName identifies this flavor in model cards.
const FlavorName = "translation"

// DefaultMaxInputTokens caps a single translation input before truncation.
const DefaultMaxInputTokens = 2048

// Flavor loads translation models.
type Flavor struct{}

// Name returns the flavor identifier.
func (Flavor) Name() string { return FlavorName }

// Load resolves the card's provider into a chat client. Card options:
// "provider" (default claude), "model" (provider model override),
// "source_lang" (empty means auto-detect), "target_lang" (default English),
// and "max_input_tokens".
func (Flavor) Load(ctx context.Context, lc model.LoadContext) (model.Predictor, error) {
	provider := lc.Card.Option("provider", adapter.ProviderClaude)
	client, err := lc.Clients.Client(provider)
	if err != nil {
		return nil, fmt.Errorf("translate: resolve provider %q: %w", provider, err)
	}

	maxTokens := DefaultMaxInputTokens
	if raw := lc.Card.Option("max_input_tokens", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("translate: invalid max_input_tokens %q", raw)
		}
		maxTokens = n
	}

	tok, err := NewTokenizer()
	if err != nil {
		// Truncation degrades to provider-side limits.
		tok = nil
	}

	return &Translator{
		Gen:            client,
		Tok:            tok,
		SourceLang:     lc.Card.Option("source_lang", ""),
		TargetLang:     lc.Card.Option("target_lang", "English"),
		Model:          lc.Card.Option("model", ""),
		MaxInputTokens: maxTokens,
	}, nil
}

// Translator sends text through a chat provider with a translation prompt.
type Translator struct {
	Gen        adapter.Generator
	Tok        *Tokenizer
	SourceLang string
	TargetLang string
	// Model overrides the provider's default chat model when non-empty.
	Model          string
	MaxInputTokens int
}

// Predict accepts a single string or a list of strings and returns the
// translated text in the same shape (string in, string out; list in, list
// out). Anything else is rejected before the provider is called.
func (tr *Translator) Predict(ctx context.Context, input any) (any, error) {
	switch v := input.(type) {
	case string:
		return tr.Translate(ctx, v)

	case []string:
		out := make([]string, len(v))
		for i, text := range v {
			translated, err := tr.Translate(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = translated
		}
		return out, nil

	case []any:
		texts := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, model.Validationf("item %d: expected string, got %T", i, item)
			}
			texts[i] = s
		}
		return tr.Predict(ctx, texts)

	case nil:
		return nil, model.Validationf("input must not be nil")

	default:
		return nil, model.Validationf("unsupported input type %T", input)
	}
}

// Translate translates a single text.
func (tr *Translator) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", model.Validationf("text must be non-empty")
	}

	if tr.Tok != nil && tr.MaxInputTokens > 0 {
		text = tr.Tok.Truncate(text, tr.MaxInputTokens)
	}

	out, err := tr.Gen.Generate(ctx, adapter.GenerateRequest{
		System: tr.systemPrompt(),
		Prompt: text,
		Model:  tr.Model,
	})
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (tr *Translator) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a translation engine. Translate the user's text")
	if tr.SourceLang != "" {
		fmt.Fprintf(&b, " from %s", tr.SourceLang)
	}
	fmt.Fprintf(&b, " to %s.", tr.TargetLang)
	b.WriteString(" Reply with the translation only, no explanations.")
	return b.String()
}

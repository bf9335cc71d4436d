// Package scorer implements the sentence_similarity model flavor: a thin
// adapter that embeds a pair of sentences through an external provider and
// returns their cosine similarity.
package scorer

import (
	"context"
	"fmt"

	"github.com/modelyard/modelyard/internal/adapter"
	"github.com/modelyard/modelyard/internal/embedcache"
	"github.com/modelyard/modelyard/internal/model"
)

// FlavorName identifies this flavor in model cards.
const FlavorName = "sentence_similarity"

// Default input column names when the card declares no signature.
const (
	ColSentence1 = "sentence1"
	ColSentence2 = "sentence2"
)

// Pair is the canonical two-sentence input.
type Pair struct {
	Sentence1 string
	Sentence2 string
}

// Flavor loads sentence_similarity models.
type Flavor struct{}

// Name returns the flavor identifier.
func (Flavor) Name() string { return FlavorName }

// Load resolves the card's provider into an embedding client and returns a
// ready Scorer. The card options understood are "provider" (default ollama)
// and "embed_model" (informational, resolved by the client factory).
func (Flavor) Load(ctx context.Context, lc model.LoadContext) (model.Predictor, error) {
	provider := lc.Card.Option("provider", adapter.ProviderOllama)
	client, err := lc.Clients.Client(provider)
	if err != nil {
		return nil, fmt.Errorf("scorer: resolve provider %q: %w", provider, err)
	}

	cols := [2]string{ColSentence1, ColSentence2}
	if in := lc.Card.Signature.Inputs; len(in) == 2 {
		cols = [2]string{in[0].Name, in[1].Name}
	}

	return &Scorer{Embedder: client, Columns: cols}, nil
}

// Scorer embeds sentence pairs and scores them by cosine similarity.
type Scorer struct {
	Embedder adapter.Embedder
	// Columns are the two designated field names accepted in mapping inputs,
	// in order.
	Columns [2]string
}

// Predict validates the input shape, extracts the two designated fields, and
// returns their cosine similarity as a float64 in [-1, 1]. Accepted shapes:
// a Pair, a two-element string slice, or a mapping holding exactly the two
// designated keys. Malformed input is rejected before the embedder is called.
func (s *Scorer) Predict(ctx context.Context, input any) (any, error) {
	a, b, err := s.extract(input)
	if err != nil {
		return nil, err
	}
	return s.Score(ctx, a, b)
}

// Score embeds both sentences and returns their cosine similarity.
func (s *Scorer) Score(ctx context.Context, a, b string) (float64, error) {
	if a == "" || b == "" {
		return 0, model.Validationf("sentences must be non-empty")
	}

	vecs, err := s.Embedder.Embed(ctx, []string{a, b})
	if err != nil {
		return 0, fmt.Errorf("scorer: embed: %w", err)
	}
	if len(vecs) != 2 {
		return 0, fmt.Errorf("scorer: embedder returned %d vectors for 2 sentences", len(vecs))
	}

	sim := embedcache.Cosine(vecs[0], vecs[1])
	// Guard against float drift at the boundaries.
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// extract pulls the two designated fields out of the supported input shapes.
// Every rejection is a *model.ValidationError.
func (s *Scorer) extract(input any) (string, string, error) {
	switch v := input.(type) {
	case Pair:
		return v.Sentence1, v.Sentence2, nil
	case *Pair:
		if v == nil {
			return "", "", model.Validationf("input must not be nil")
		}
		return v.Sentence1, v.Sentence2, nil

	case []string:
		if len(v) != 2 {
			return "", "", model.Validationf("expected 2 sentences, got %d", len(v))
		}
		return v[0], v[1], nil

	case []any:
		if len(v) != 2 {
			return "", "", model.Validationf("expected 2 sentences, got %d", len(v))
		}
		a, okA := v[0].(string)
		b, okB := v[1].(string)
		if !okA || !okB {
			return "", "", model.Validationf("sentence values must be strings")
		}
		return a, b, nil

	case map[string]string:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[k] = val
		}
		return s.extractMap(m)

	case map[string]any:
		return s.extractMap(v)

	case nil:
		return "", "", model.Validationf("input must not be nil")

	default:
		return "", "", model.Validationf("unsupported input type %T", input)
	}
}

func (s *Scorer) extractMap(m map[string]any) (string, string, error) {
	if len(m) != 2 {
		return "", "", model.Validationf("expected exactly 2 columns, got %d", len(m))
	}
	var out [2]string
	for i, col := range s.Columns {
		v, ok := m[col]
		if !ok {
			return "", "", model.Validationf("missing column %q", col)
		}
		str, ok := v.(string)
		if !ok {
			return "", "", model.Validationf("column %q: expected string, got %T", col, v)
		}
		out[i] = str
	}
	return out[0], out[1], nil
}

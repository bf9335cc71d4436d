package scorer

import (
	"context"
	"errors"
	"testing"

	"github.com/modelyard/modelyard/internal/model"
)

// recordingEmbedder returns fixed vectors and records every call.
type recordingEmbedder struct {
	calls   [][]string
	vectors map[string][]float32
}

func (r *recordingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	r.calls = append(r.calls, texts)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := r.vectors[text]; ok {
			out[i] = v
			continue
		}
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func newTestScorer(vectors map[string][]float32) (*Scorer, *recordingEmbedder) {
	e := &recordingEmbedder{vectors: vectors}
	return &Scorer{Embedder: e, Columns: [2]string{ColSentence1, ColSentence2}}, e
}

func TestPredict_Forms(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"pair", Pair{Sentence1: "cats purr", Sentence2: "dogs bark"}},
		{"pair pointer", &Pair{Sentence1: "cats purr", Sentence2: "dogs bark"}},
		{"string slice", []string{"cats purr", "dogs bark"}},
		{"any slice", []any{"cats purr", "dogs bark"}},
		{"string map", map[string]string{"sentence1": "cats purr", "sentence2": "dogs bark"}},
		{"any map", map[string]any{"sentence1": "cats purr", "sentence2": "dogs bark"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e := newTestScorer(nil)
			if _, err := s.Predict(context.Background(), tt.input); err != nil {
				t.Fatalf("Predict: %v", err)
			}
			if len(e.calls) != 1 {
				t.Fatalf("expected 1 embed call, got %d", len(e.calls))
			}
			// Both designated fields reach the embedder unchanged and in order.
			got := e.calls[0]
			if len(got) != 2 || got[0] != "cats purr" || got[1] != "dogs bark" {
				t.Errorf("embedder received %v", got)
			}
		})
	}
}

func TestPredict_RejectsBeforeEmbed(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"nil", nil},
		{"wrong type", 42},
		{"one element", []string{"only one"}},
		{"three elements", []string{"a", "b", "c"}},
		{"non-string slice", []any{"a", 7}},
		{"missing key", map[string]any{"sentence1": "a", "other": "b"}},
		{"one key", map[string]any{"sentence1": "a"}},
		{"three keys", map[string]any{"sentence1": "a", "sentence2": "b", "extra": "c"}},
		{"non-string value", map[string]any{"sentence1": "a", "sentence2": 3.14}},
		{"empty sentence", Pair{Sentence1: "", Sentence2: "b"}},
		{"nil pair pointer", (*Pair)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e := newTestScorer(nil)
			_, err := s.Predict(context.Background(), tt.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected *ValidationError, got %T: %v", err, err)
			}
			if len(e.calls) != 0 {
				t.Errorf("embedder was called %d time(s) for invalid input", len(e.calls))
			}
		})
	}
}

func TestScore_CosineValues(t *testing.T) {
	vectors := map[string][]float32{
		"same a":   {0, 1},
		"same b":   {0, 2},
		"opposite": {0, -1},
		"ortho":    {1, 0},
	}

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"parallel", "same a", "same b", 1.0},
		{"opposite", "same a", "opposite", -1.0},
		{"orthogonal", "same a", "ortho", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestScorer(vectors)
			got, err := s.Score(context.Background(), tt.a, tt.b)
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Score = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestScore_Bounded(t *testing.T) {
	vectors := map[string][]float32{
		"x": {0.3, -0.8, 0.12},
		"y": {-0.5, 0.44, 0.9},
	}
	s, _ := newTestScorer(vectors)
	got, err := s.Score(context.Background(), "x", "y")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got < -1 || got > 1 {
		t.Errorf("similarity %f out of [-1, 1]", got)
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("provider down")
}

func TestScore_EmbedderError(t *testing.T) {
	s := &Scorer{Embedder: failingEmbedder{}, Columns: [2]string{ColSentence1, ColSentence2}}
	_, err := s.Score(context.Background(), "a", "b")
	if err == nil {
		t.Fatal("expected error from embedder")
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		t.Error("delegate failure must not be reported as a validation error")
	}
}

func TestPredict_CustomColumns(t *testing.T) {
	e := &recordingEmbedder{}
	s := &Scorer{Embedder: e, Columns: [2]string{"premise", "hypothesis"}}

	input := map[string]any{"premise": "it rains", "hypothesis": "ground is wet"}
	if _, err := s.Predict(context.Background(), input); err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got := e.calls[0]; got[0] != "it rains" || got[1] != "ground is wet" {
		t.Errorf("column order not honoured: %v", got)
	}

	// The default keys are rejected once the card declares custom columns.
	_, err := s.Predict(context.Background(), map[string]any{"sentence1": "a", "sentence2": "b"})
	if err == nil {
		t.Error("expected rejection of undeclared columns")
	}
}

func TestFlavorName(t *testing.T) {
	if (Flavor{}).Name() != "sentence_similarity" {
		t.Errorf("flavor name: got %q", Flavor{}.Name())
	}
}

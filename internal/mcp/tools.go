package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/modelyard/modelyard/internal/embedcache"
	"github.com/modelyard/modelyard/internal/report"
	"github.com/modelyard/modelyard/internal/scorer"
	"github.com/modelyard/modelyard/internal/tracking"
	"github.com/modelyard/modelyard/internal/translate"
)

func (s *Server) handleListExperiments(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	experiments, err := s.store.ListExperiments()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list experiments: %v", err)), nil
	}
	if len(experiments) == 0 {
		return mcp.NewToolResultText("No experiments yet."), nil
	}

	var sb strings.Builder
	for _, e := range experiments {
		runs, _ := s.store.ListRuns(e.ID)
		fmt.Fprintf(&sb, "%s — %d run(s), created %s (id: %s)\n",
			e.Name, len(runs), e.CreatedAt.Format("2006-01-02"), e.ID)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleListRuns(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	experimentID := ""
	if name := req.GetString("experiment", ""); name != "" {
		exp, err := s.store.GetExperimentByName(name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("unknown experiment %q", name)), nil
		}
		experimentID = exp.ID
	}

	runs, err := s.store.ListRuns(experimentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("No runs recorded."), nil
	}

	var sb strings.Builder
	for _, r := range runs {
		name := r.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(&sb, "[%s] %s %s — started %s (id: %s)\n",
			r.Status, name, runDuration(r), r.StartedAt.Format("2006-01-02 15:04"), r.ID)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleGetRun(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := req.RequireString("run_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: run_id"), nil
	}

	data, err := report.Collect(s.store, runID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load run: %v", err)), nil
	}

	renderer, _ := report.Get("markdown")
	out, err := renderer.Render(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render run: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleScoreSentences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sentence1, err := req.RequireString("sentence1")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: sentence1"), nil
	}
	sentence2, err := req.RequireString("sentence2")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: sentence2"), nil
	}

	client, err := s.clients.Client(s.embedProvider)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no embedding provider: %v", err)), nil
	}

	sc := &scorer.Scorer{
		Embedder: &embedcache.CachingEmbedder{
			Inner:    client,
			Cache:    s.cache,
			Provider: s.embedProvider,
			Model:    client.Info().Name,
		},
		Columns: [2]string{scorer.ColSentence1, scorer.ColSentence2},
	}

	sim, err := sc.Score(ctx, sentence1, sentence2)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("similarity: %.4f", sim)), nil
}

func (s *Server) handleTranslateText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	client, err := s.clients.Client(s.chatProvider)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no chat provider: %v", err)), nil
	}

	tok, _ := translate.NewTokenizer()
	tr := &translate.Translator{
		Gen:            client,
		Tok:            tok,
		SourceLang:     req.GetString("source_lang", ""),
		TargetLang:     req.GetString("target_lang", "English"),
		MaxInputTokens: translate.DefaultMaxInputTokens,
	}

	out, err := tr.Translate(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("translation failed: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleFindSimilar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}
	topK := req.GetInt("top_k", 5)

	client, err := s.clients.Client(s.embedProvider)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no embedding provider: %v", err)), nil
	}

	vecs, err := client.Embed(ctx, []string{text})
	if err != nil || len(vecs) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("embedding failed: %v", err)), nil
	}

	matches, err := s.cache.Nearest(vecs[0], topK)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText("No similar texts found."), nil
	}

	var sb strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&sb, "%.4f  %s\n", m.Similarity, m.Text)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// runDuration formats the elapsed time of a finished run, or "" while running.
func runDuration(r tracking.Run) string {
	if r.EndedAt.IsZero() {
		return ""
	}
	return "(" + r.EndedAt.Sub(r.StartedAt).Round(time.Second).String() + ")"
}

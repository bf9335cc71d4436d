// Package mcp exposes a modelyard workspace to MCP clients over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/modelyard/modelyard/internal/artifact"
	"github.com/modelyard/modelyard/internal/embedcache"
	"github.com/modelyard/modelyard/internal/model"
	"github.com/modelyard/modelyard/internal/tracking"
)

// Server wires workspace stores into MCP tools.
type Server struct {
	store   *tracking.Store
	arts    *artifact.Store
	cache   *embedcache.Cache
	clients model.ClientFactory

	// Default providers for the inference tools, from workspace config.
	embedProvider string
	chatProvider  string

	mcp *server.MCPServer
}

// Options configures a Server.
type Options struct {
	Version       string
	Store         *tracking.Store
	Artifacts     *artifact.Store
	Cache         *embedcache.Cache
	Clients       model.ClientFactory
	EmbedProvider string
	ChatProvider  string
}

// NewServer builds the MCP server and registers its tools.
func NewServer(opts Options) *Server {
	s := &Server{
		store:         opts.Store,
		arts:          opts.Artifacts,
		cache:         opts.Cache,
		clients:       opts.Clients,
		embedProvider: opts.EmbedProvider,
		chatProvider:  opts.ChatProvider,
	}

	s.mcp = server.NewMCPServer("modelyard", opts.Version,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

// Serve runs the server on stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("list_experiments",
		mcp.WithDescription("List all experiments in the workspace with their run counts."),
	), s.handleListExperiments)

	s.mcp.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List runs, optionally filtered to one experiment."),
		mcp.WithString("experiment", mcp.Description("Experiment name to filter by")),
	), s.handleListRuns)

	s.mcp.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Get the full record of a run: params, metrics, tags, and logged models."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run id")),
	), s.handleGetRun)

	s.mcp.AddTool(mcp.NewTool("score_sentences",
		mcp.WithDescription("Score the semantic similarity of two sentences in [-1, 1]."),
		mcp.WithString("sentence1", mcp.Required(), mcp.Description("First sentence")),
		mcp.WithString("sentence2", mcp.Required(), mcp.Description("Second sentence")),
	), s.handleScoreSentences)

	s.mcp.AddTool(mcp.NewTool("translate_text",
		mcp.WithDescription("Translate text to a target language."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to translate")),
		mcp.WithString("target_lang", mcp.Description("Target language (default English)")),
		mcp.WithString("source_lang", mcp.Description("Source language (default auto-detect)")),
	), s.handleTranslateText)

	s.mcp.AddTool(mcp.NewTool("find_similar",
		mcp.WithDescription("Find previously embedded texts similar to a query."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Query text")),
		mcp.WithNumber("top_k", mcp.Description("Number of results (default 5)")),
	), s.handleFindSimilar)
}

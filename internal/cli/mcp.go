package cli

import (
	"github.com/spf13/cobra"

	"github.com/modelyard/modelyard/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server over stdio",
		Long: `Expose the workspace to MCP clients over stdio. Tools cover listing
experiments and runs, rendering run reports, sentence similarity scoring,
translation, and semantic search over cached embeddings.

Typically launched by an MCP client, not by hand.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			defer ws.Close()

			srv := mcp.NewServer(mcp.Options{
				Version:       version,
				Store:         ws.store,
				Artifacts:     ws.arts,
				Cache:         ws.cache,
				Clients:       ws.clients(),
				EmbedProvider: ws.cfg.DefaultEmbedder,
				ChatProvider:  ws.cfg.DefaultProvider,
			})
			return srv.Serve()
		},
	}
}

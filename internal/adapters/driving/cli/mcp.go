package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can query
your documents.

Tools:
  ask       - answer a question from the indexed documents
  retrieve  - return the passages most relevant to a question

By default the server communicates over stdio using JSON-RPC. Use --http
to serve the streamable HTTP transport instead, e.g. for MCP Inspector.

Examples:
  # Stdio mode (default, for desktop assistants)
  askdocs mcp

  # HTTP mode
  askdocs mcp --http 127.0.0.1:8081

Assistant configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "askdocs": {
        "command": "/path/to/askdocs",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().String("http", "", "serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("http")
	if err != nil {
		return fmt.Errorf("getting http flag: %w", err)
	}

	ctx := commandContext(cmd)
	opts := appOptions()
	opts.WithLLM = true
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	server, err := mcp.NewServer(&mcp.Ports{
		Query:     a.Query,
		Retrieval: a.Retrieval,
		Index:     a.Index,
	}, version)
	if err != nil {
		return err
	}

	if addr != "" {
		cmd.Printf("MCP server listening on http://%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}

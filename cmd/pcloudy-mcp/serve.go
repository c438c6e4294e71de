package main

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/rishav781/Pcloudy-MCP/internal/config"
	"github.com/rishav781/Pcloudy-MCP/internal/mcp"
)

// serveCmd starts the MCP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the pCloudy MCP server.

By default the server communicates via JSON-RPC over stdin/stdout, the
transport used by AI hosts like Claude Desktop or Cursor. With --http it
listens on PORT (default 8000) using the streamable HTTP transport instead.

Example Cursor configuration:
  {
    "mcpServers": {
      "pcloudy": {
        "command": "pcloudy-mcp",
        "args": ["serve"],
        "env": {
          "PCLOUDY_USERNAME": "you@example.com",
          "PCLOUDY_API_KEY": "your-api-key"
        }
      }
    }
  }`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("http", false, "Serve over streamable HTTP on PORT instead of stdio")
}

// runServe starts the MCP server over the selected transport.
func runServe(cmd *cobra.Command, args []string) error {
	server, err := mcp.NewServer(version)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	useHTTP, _ := cmd.Flags().GetBool("http")
	if !useHTTP {
		// Blocks until the client disconnects. Logging goes to stderr, so
		// it cannot corrupt the stdio protocol stream.
		return server.Run(cmd.Context())
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info("Serving MCP over HTTP", "addr", addr)
	return http.ListenAndServe(addr, server.Handler())
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/faqbot/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can query the FAQ.

Tools:
  retrieve   FAQ context for a question
  ask        a grounded answer (only when an LLM is configured)

Resources:
  faqbot://index         index summary
  faqbot://records/{id}  a single record

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead.

Examples:
  faqbot mcp serve
  faqbot mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "faqbot": {
        "command": "/path/to/faqbot",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ctx := commandContext(cmd)
	services, err := openQuery(ctx, QueryOptions{})
	if err != nil {
		return err
	}
	defer services.close()
	printWarnings(cmd, services)

	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval: services.Retrieval,
		Answer:    services.Answer,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}

// printWarnings reports non-fatal problems on stderr, keeping stdout
// clean for protocol traffic.
func printWarnings(cmd *cobra.Command, services *QueryServices) {
	for _, w := range services.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}
}

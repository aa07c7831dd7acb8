package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/mcp"
)

// defaultMCPHost keeps the HTTP transport off the network unless asked.
const defaultMCPHost = "127.0.0.1"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server offers an "ask" tool that answers questions about an ingested
file, an "ingest_file" tool that indexes a local file, and a resource
listing each tenant's files.

By default, the server communicates over stdio using JSON-RPC. Use --port
to start an HTTP server instead, for MCP Inspector. The HTTP server binds
to 127.0.0.1 unless --host says otherwise, and only offers "ingest_file"
when --ingest-root names the directory it may read from.

Examples:
  # Stdio mode (default, for desktop assistants)
  docrag mcp serve

  # HTTP mode
  docrag mcp serve --port 8080 --ingest-root ~/inbox

Assistant configuration:
  {
    "mcpServers": {
      "docrag": {
        "command": "/path/to/docrag",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("host", defaultMCPHost, "HTTP listen host")
	mcpServeCmd.Flags().String("ingest-root", "", "directory ingest_file may read from (required for ingest_file over HTTP)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	host, _ := cmd.Flags().GetString("host")
	root, _ := cmd.Flags().GetString("ingest-root")

	ports := mcpPorts(port > 0, root)
	if port > 0 && ports.Ingest == nil && ingestService != nil {
		cmd.PrintErrln("Warning: ingest_file disabled over HTTP; pass --ingest-root to enable it")
	}

	opts := []mcp.Option{mcp.WithVersion(version)}
	if root != "" {
		opts = append(opts, mcp.WithIngestRoot(root))
	}
	server, err := mcp.NewServer(ports, opts...)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}

// mcpPorts selects the services the MCP server exposes. Over HTTP, local
// file ingestion needs an explicit root.
func mcpPorts(overHTTP bool, ingestRoot string) *mcp.Ports {
	ports := &mcp.Ports{
		Ask:    askService,
		Ingest: ingestService,
		Files:  fileService,
	}
	if overHTTP && ingestRoot == "" {
		ports.Ingest = nil
	}
	return ports
}

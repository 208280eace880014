package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"personamcp/internal/config"
	"personamcp/internal/mcp"
)

var serveHTTPAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for every configured persona.

By default the server speaks JSON-RPC over stdio, which is what desktop
assistants expect when they launch personamcp themselves.

Use --http (or transport.mode: http in the config) to serve the streamable
HTTP transport instead. Prometheus metrics are then available next to it.

Examples:
  # Stdio mode (default)
  personamcp serve

  # HTTP mode: POST /mcp, GET /metrics
  personamcp serve --http 127.0.0.1:8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}

	srv, err := mcp.NewServer(a.registry, a.logger,
		mcp.WithPrimary(a.cfg.Primary),
		mcp.WithMetrics(a.metrics),
	)
	if err != nil {
		return err
	}

	addr := serveHTTPAddr
	if addr == "" && a.cfg.Transport.Mode == config.TransportHTTP {
		addr = a.cfg.Transport.Addr
	}
	if addr == "" {
		return srv.ServeStdio()
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s%s\n", addr, mcp.EndpointPath)
	return srv.ServeHTTP(cmd.Context(), addr)
}

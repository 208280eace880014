package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"personamcp/internal/logging"
	"personamcp/internal/metrics"
	"personamcp/internal/persona"
)

const (
	// ServerName is reported to clients during initialization.
	ServerName = "personamcp"

	// EndpointPath is where the streamable HTTP transport is mounted.
	EndpointPath = "/mcp"
	// MetricsPath serves Prometheus metrics next to the HTTP transport.
	MetricsPath = "/metrics"

	shutdownTimeout = 5 * time.Second
)

// Version is the server version reported to clients.
var Version = "0.1.0"

// Server exposes every persona in a registry as MCP tools, resources and
// prompts.
type Server struct {
	registry *persona.Registry
	primary  string
	logger   *logging.AppLogger
	metrics  *metrics.Metrics

	mcpServer *server.MCPServer
	tools     map[string]toolFunc
	toolOrder []string
}

// Option configures a Server.
type Option func(*Server)

// WithPrimary makes persona id answer to the unprefixed tool aliases
// (list_worldbook_entries, get_worldbook_entry, search_worldbook,
// get_safety_guidelines).
func WithPrimary(id string) Option {
	return func(s *Server) { s.primary = id }
}

// WithMetrics records tool calls on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer builds the MCP server and registers every capability.
func NewServer(reg *persona.Registry, logger *logging.AppLogger, opts ...Option) (*Server, error) {
	if reg == nil || reg.Len() == 0 {
		return nil, errors.New("no personas configured")
	}
	if logger == nil {
		logger = logging.GetDefault()
	}

	s := &Server{
		registry: reg,
		logger:   logger,
		tools:    make(map[string]toolFunc),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.primary != "" {
		if _, err := reg.Get(s.primary); err != nil {
			return nil, fmt.Errorf("primary persona: %w", err)
		}
	}

	s.mcpServer = server.NewMCPServer(
		ServerName,
		Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(s.instructions()),
	)

	for _, p := range reg.Personas() {
		s.registerPersonaTools(p)
		s.registerResources(p)
		s.registerPrompt(p)
	}
	if s.primary != "" {
		p, _ := reg.Get(s.primary)
		s.registerPrimaryAliases(p)
	}
	s.registerEntryTemplate()

	s.logger.Info("MCP server initialized", "personas", reg.Len(), "tools", len(s.toolOrder), "primary", s.primary)
	return s, nil
}

func (s *Server) instructions() string {
	return fmt.Sprintf("Character persona server. Personas: %v. Each persona offers its Markdown, "+
		"safety guidelines, a composed system prompt and a searchable worldbook.", s.registry.IDs())
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ToolNames returns registered tool names in registration order.
func (s *Server) ToolNames() []string {
	return append([]string(nil), s.toolOrder...)
}

// CallTool invokes a registered tool directly, bypassing the protocol.
// The CLI uses it to share the exact tool behavior.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	fn, ok := s.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return s.invoke(ctx, name, fn, args), nil
}

// ServeStdio serves JSON-RPC over stdin/stdout until EOF or a signal.
func (s *Server) ServeStdio() error {
	s.logger.Info("Serving MCP over stdio")
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

// HTTPHandler returns a mux with the streamable HTTP transport at
// EndpointPath and metrics at MetricsPath.
func (s *Server) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(EndpointPath, server.NewStreamableHTTPServer(s.mcpServer, server.WithEndpointPath(EndpointPath)))
	mux.Handle(MetricsPath, s.metrics.Handler())
	return mux
}

// ServeHTTP listens on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Serving MCP over HTTP", "addr", addr, "endpoint", EndpointPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http transport: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}

// renderJSON formats structured results the way every tool returns them.
func renderJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(data), nil
}

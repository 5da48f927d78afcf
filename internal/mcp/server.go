// Package mcp exposes colorgrep searches, result rendering and search
// history as Model Context Protocol tools.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/colorgrep/internal/config"
	"github.com/standardbeagle/colorgrep/internal/debug"
	"github.com/standardbeagle/colorgrep/internal/history"
	"github.com/standardbeagle/colorgrep/internal/search"
	"github.com/standardbeagle/colorgrep/internal/version"
)

// Server wraps an MCP server with the colorgrep tools registered.
type Server struct {
	cfg              *config.Config
	runner           *search.Runner
	history          *history.Store
	isDark           bool
	server           *mcp.Server
	diagnosticLogger *DiagnosticLogger // File-based logging only (no stdout/stderr)
}

// NewServer creates the MCP server. store may be nil, in which case the
// history tool reports an error and searches are not recorded.
func NewServer(cfg *config.Config, store *history.Store, isDark bool, logger *DiagnosticLogger) *Server {
	if logger == nil {
		logger = NoOpLogger
	}

	s := &Server{
		cfg:              cfg,
		runner:           search.NewRunner(cfg),
		history:          store,
		isDark:           isDark,
		diagnosticLogger: logger,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "colorgrep",
		Version: version.Info(),
	}, nil)
	s.registerTools()

	logger.Printf("MCP server initialized for %s", cfg.Project.Root)
	debug.LogMCP("registered tools for %s\n", cfg.Project.Root)
	return s
}

// MCPServer returns the underlying SDK server, for in-process transports
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// Start serves MCP over stdio until ctx is canceled or the client leaves.
func (s *Server) Start(ctx context.Context) error {
	debug.SetMCPMode(true)
	s.diagnosticLogger.Printf("Starting MCP server with stdio transport")
	err := s.server.Run(ctx, &mcp.StdioTransport{})
	if err != nil {
		s.diagnosticLogger.Errorf("MCP server stopped: %v", err)
	}
	return err
}

// Shutdown releases the diagnostic log
func (s *Server) Shutdown(ctx context.Context) error {
	s.diagnosticLogger.Printf("Shutting down MCP server...")
	return s.diagnosticLogger.Close()
}

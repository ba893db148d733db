// Package mcp exposes orchestration to MCP clients over streamable HTTP.
package mcp

import (
	"context"
	"net/http"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/port/agentcatalog"
)

// Orchestrator is the subset of the orchestrator service the tools call.
type Orchestrator interface {
	Orchestrate(ctx context.Context, req *orchestration.Request) (*orchestration.Result, error)
	Session(ctx context.Context, id string) (*orchestration.Session, error)
}

// ServerConfig holds the MCP server identity and mount point.
type ServerConfig struct {
	Name    string
	Version string
	// Path is the endpoint the streamable HTTP transport answers on.
	Path   string
	APIKey string
}

// ServerDeps holds the collaborators behind the tools. Nil fields make the
// matching tools answer with an error result.
type ServerDeps struct {
	Orchestrator Orchestrator
	Catalog      agentcatalog.Catalog
}

// Server wraps an mcp-go server and its HTTP transport.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
	transport *mcpserver.StreamableHTTPServer
}

// NewServer creates the MCP server and registers all tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	if cfg.Path == "" {
		cfg.Path = "/mcp"
	}
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	s.transport = mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(cfg.Path),
		mcpserver.WithStateLess(true),
	)
	return s
}

// MCPServer exposes the underlying server for tests and embedding.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Path returns the endpoint path the handler should be mounted on.
func (s *Server) Path() string {
	return s.cfg.Path
}

// Handler returns the authenticated streamable HTTP handler.
func (s *Server) Handler() http.Handler {
	return AuthMiddleware(s.cfg.APIKey, s.transport)
}

func toolResultJSON(data string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(data)
}

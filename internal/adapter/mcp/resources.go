package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const agentsURI = "agentforge://agents"

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			agentsURI,
			"Agent Catalog",
			mcplib.WithResourceDescription("Every agent the planner can schedule"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleAgentsResource,
	)
}

func (s *Server) handleAgentsResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	text := `{"error":"catalog not configured"}`
	if s.deps.Catalog != nil {
		data, err := json.Marshal(s.deps.Catalog.All())
		if err != nil {
			return nil, err
		}
		text = string(data)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}

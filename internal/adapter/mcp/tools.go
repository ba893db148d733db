package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/AgentForge/internal/domain"
	"github.com/Strob0t/AgentForge/internal/domain/agent"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
)

// defaultRequester identifies MCP callers that do not pass requester_id.
const defaultRequester = "mcp"

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.orchestrateTool(),
		s.shouldOrchestrateTool(),
		s.getSessionTool(),
		s.listAgentsTool(),
	)
}

func (s *Server) orchestrateTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("orchestrate",
		mcplib.WithDescription("Run a multi-agent orchestration for a writing task and return the synthesized deliverable"),
		mcplib.WithString("task",
			mcplib.Required(),
			mcplib.Description("What to produce, in the caller's words"),
		),
		mcplib.WithString("requester_id",
			mcplib.Description("Caller identity recorded on the session"),
		),
		mcplib.WithString("deliverable_hint",
			mcplib.Description("Preferred deliverable type"),
			mcplib.Enum("presentation", "essay", "article", "sermon", "course", "general"),
		),
		mcplib.WithString("forced_agent_id",
			mcplib.Description("Run this single agent instead of a workflow"),
		),
		mcplib.WithString("quality",
			mcplib.Enum("draft", "standard", "premium"),
		),
		mcplib.WithBoolean("grounding",
			mcplib.Description("Allow grounded (search-augmented) model calls; default true"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleOrchestrate}
}

func (s *Server) shouldOrchestrateTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("should_orchestrate",
		mcplib.WithDescription("Report whether a message warrants a multi-agent run"),
		mcplib.WithString("text", mcplib.Required()),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleShouldOrchestrate}
}

func (s *Server) getSessionTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_session",
		mcplib.WithDescription("Get a stored orchestration session by ID"),
		mcplib.WithString("session_id",
			mcplib.Required(),
			mcplib.Description("The session ID returned by orchestrate"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetSession}
}

func (s *Server) listAgentsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_agents",
		mcplib.WithDescription("List catalog agents, optionally filtered by capability"),
		mcplib.WithString("capability"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListAgents}
}

func (s *Server) handleOrchestrate(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Orchestrator == nil {
		return mcplib.NewToolResultError("orchestrator not configured"), nil
	}
	args := req.GetArguments()
	task, _ := args["task"].(string)
	if task == "" {
		return mcplib.NewToolResultError("task is required"), nil
	}

	oreq := orchestration.Request{
		RequesterID: stringArg(args, "requester_id", defaultRequester),
		Task:        task,
	}
	oreq.DeliverableHint = orchestration.DeliverableType(stringArg(args, "deliverable_hint", ""))
	oreq.Context.ForcedAgentID = stringArg(args, "forced_agent_id", "")
	oreq.Preferences.Quality = orchestration.Quality(stringArg(args, "quality", ""))
	if g, ok := args["grounding"].(bool); ok {
		oreq.Preferences.Grounding = &g
	}

	res, err := s.deps.Orchestrator.Orchestrate(context.WithoutCancel(ctx), &oreq)
	if err != nil {
		return orchestrationErrorResult(err), nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleShouldOrchestrate(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	text := stringArg(req.GetArguments(), "text", "")
	data, err := json.Marshal(map[string]bool{
		"should_orchestrate":    orchestration.ShouldOrchestrate(text),
		"explicit_presentation": orchestration.IsExplicitPresentationRequest(text),
	})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal answer", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleGetSession(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Orchestrator == nil {
		return mcplib.NewToolResultError("orchestrator not configured"), nil
	}
	id := stringArg(req.GetArguments(), "session_id", "")
	if id == "" {
		return mcplib.NewToolResultError("session_id is required"), nil
	}
	sess, err := s.deps.Orchestrator.Session(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return mcplib.NewToolResultError(fmt.Sprintf("session %s not found", id)), nil
		}
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get session %s", id), err), nil
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal session", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleListAgents(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Catalog == nil {
		return mcplib.NewToolResultError("catalog not configured"), nil
	}
	agents := s.deps.Catalog.All()
	if c := agent.Capability(stringArg(req.GetArguments(), "capability", "")); c != "" {
		if !c.Valid() {
			return mcplib.NewToolResultError("unknown capability " + string(c)), nil
		}
		agents = s.deps.Catalog.ByCapability(c)
	}
	if agents == nil {
		agents = []agent.Descriptor{}
	}
	data, err := json.Marshal(agents)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal agents", err), nil
	}
	return toolResultJSON(string(data)), nil
}

// orchestrationErrorResult keeps internal causes out of tool output, the
// same way the HTTP surface does.
func orchestrationErrorResult(err error) *mcplib.CallToolResult {
	var oe *orchestration.Error
	if !errors.As(err, &oe) {
		return mcplib.NewToolResultError("orchestration failed")
	}
	if errors.Is(err, domain.ErrValidation) {
		return mcplib.NewToolResultError(oe.Err.Error())
	}
	return mcplib.NewToolResultError(fmt.Sprintf("orchestration failed (session %s)", oe.SessionID))
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

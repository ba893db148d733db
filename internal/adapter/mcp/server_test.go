package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/Strob0t/AgentForge/internal/adapter/catalog"
	cfmcp "github.com/Strob0t/AgentForge/internal/adapter/mcp"
	"github.com/Strob0t/AgentForge/internal/domain"
	"github.com/Strob0t/AgentForge/internal/domain/agent"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
)

// --- Mocks ---

type mockOrchestrator struct {
	last     *orchestration.Request
	result   *orchestration.Result
	err      error
	sessions map[string]*orchestration.Session
}

func (m *mockOrchestrator) Orchestrate(_ context.Context, req *orchestration.Request) (*orchestration.Result, error) {
	m.last = req
	return m.result, m.err
}

func (m *mockOrchestrator) Session(_ context.Context, id string) (*orchestration.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
}

// --- Helpers ---

func newServer(t *testing.T, orch cfmcp.Orchestrator) *cfmcp.Server {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cfmcp.NewServer(cfmcp.ServerConfig{Name: "test", Version: "0.1.0"}, cfmcp.ServerDeps{
		Orchestrator: orch,
		Catalog:      cat,
	})
}

func callTool(t *testing.T, s *cfmcp.Server, name string, args map[string]any) *mcplib.CallToolResult {
	t.Helper()
	tool, ok := s.MCPServer().ListTools()[name]
	if !ok {
		t.Fatalf("%s tool not found", name)
	}
	result, err := tool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return result
}

func resultText(t *testing.T, r *mcplib.CallToolResult) string {
	t.Helper()
	text, ok := r.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	return text.Text
}

// --- Tests ---

func TestToolRegistration(t *testing.T) {
	s := newServer(t, &mockOrchestrator{})

	tools := s.MCPServer().ListTools()
	want := []string{"orchestrate", "should_orchestrate", "get_session", "list_agents"}
	if len(tools) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(tools))
	}
	for _, name := range want {
		if _, ok := tools[name]; !ok {
			t.Errorf("expected tool %q not registered", name)
		}
	}
	if s.Path() != "/mcp" {
		t.Fatalf("default path = %q", s.Path())
	}
}

func TestHandleOrchestrate(t *testing.T) {
	orch := &mockOrchestrator{result: &orchestration.Result{
		Success:         true,
		SessionID:       "sess-1",
		DeliverableType: orchestration.DeliverableEssay,
	}}
	s := newServer(t, orch)

	result := callTool(t, s, "orchestrate", map[string]any{
		"task":             "Write an essay on patience",
		"deliverable_hint": "essay",
		"grounding":        false,
	})
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
	var res orchestration.Result
	if err := json.Unmarshal([]byte(resultText(t, result)), &res); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if res.SessionID != "sess-1" {
		t.Fatalf("session id = %q", res.SessionID)
	}

	if orch.last.RequesterID != "mcp" {
		t.Errorf("requester = %q, want default", orch.last.RequesterID)
	}
	if orch.last.DeliverableHint != orchestration.DeliverableEssay {
		t.Errorf("hint = %q", orch.last.DeliverableHint)
	}
	if orch.last.Preferences.GroundingEnabled() {
		t.Error("grounding should be disabled")
	}
}

func TestHandleOrchestrateMissingTask(t *testing.T) {
	orch := &mockOrchestrator{}
	result := callTool(t, newServer(t, orch), "orchestrate", nil)
	if !result.IsError {
		t.Fatal("expected error result for missing task")
	}
	if orch.last != nil {
		t.Fatal("orchestrator must not be called")
	}
}

func TestHandleOrchestrateHidesInternalErrors(t *testing.T) {
	orch := &mockOrchestrator{err: &orchestration.Error{
		SessionID: "sess-9",
		Stage:     orchestration.StagePlan,
		Err:       errors.New("template essay: dial tcp 10.0.0.7:5432"),
	}}
	result := callTool(t, newServer(t, orch), "orchestrate", map[string]any{"task": "x"})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	text := resultText(t, result)
	if !strings.Contains(text, "sess-9") || strings.Contains(text, "10.0.0.7") {
		t.Fatalf("error text = %q", text)
	}
}

func TestHandleShouldOrchestrate(t *testing.T) {
	s := newServer(t, nil)
	result := callTool(t, s, "should_orchestrate", map[string]any{"text": "Make a 10-slide presentation on Ruth"})
	var got map[string]bool
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if !got["should_orchestrate"] || !got["explicit_presentation"] {
		t.Fatalf("answer = %v", got)
	}
}

func TestHandleGetSession(t *testing.T) {
	orch := &mockOrchestrator{sessions: map[string]*orchestration.Session{
		"s1": {ID: "s1", Status: orchestration.StatusCompleted},
	}}
	s := newServer(t, orch)

	result := callTool(t, s, "get_session", map[string]any{"session_id": "s1"})
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
	var sess orchestration.Session
	if err := json.Unmarshal([]byte(resultText(t, result)), &sess); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if sess.Status != orchestration.StatusCompleted {
		t.Fatalf("status = %q", sess.Status)
	}

	if r := callTool(t, s, "get_session", map[string]any{"session_id": "nope"}); !r.IsError {
		t.Fatal("expected error for unknown session")
	}
	if r := callTool(t, s, "get_session", nil); !r.IsError {
		t.Fatal("expected error for missing session_id")
	}
}

func TestHandleListAgents(t *testing.T) {
	s := newServer(t, nil)

	var all []agent.Descriptor
	if err := json.Unmarshal([]byte(resultText(t, callTool(t, s, "list_agents", nil))), &all); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("expected agents")
	}

	var research []agent.Descriptor
	text := resultText(t, callTool(t, s, "list_agents", map[string]any{"capability": "research"}))
	if err := json.Unmarshal([]byte(text), &research); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(research) == 0 || len(research) >= len(all) {
		t.Fatalf("research agents = %d of %d", len(research), len(all))
	}

	if r := callTool(t, s, "list_agents", map[string]any{"capability": "juggling"}); !r.IsError {
		t.Fatal("expected error for unknown capability")
	}
}

func TestHandleNilDeps(t *testing.T) {
	s := cfmcp.NewServer(cfmcp.ServerConfig{Name: "test", Version: "0.1.0"}, cfmcp.ServerDeps{})
	for _, name := range []string{"orchestrate", "get_session", "list_agents"} {
		if r := callTool(t, s, name, map[string]any{"task": "x", "session_id": "x"}); !r.IsError {
			t.Errorf("%s: expected error result when deps are nil", name)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{"disabled", "", "", http.StatusNoContent},
		{"missing", "secret", "", http.StatusUnauthorized},
		{"bearer", "secret", "Bearer secret", http.StatusNoContent},
		{"bare", "secret", "secret", http.StatusNoContent},
		{"wrong", "secret", "Bearer nope", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			cfmcp.AuthMiddleware(tt.key, next).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/Strob0t/AgentForge/internal/adapter/catalog"
	"github.com/Strob0t/AgentForge/internal/adapter/modelpolicy"
	"github.com/Strob0t/AgentForge/internal/adapter/workflows"
	"github.com/Strob0t/AgentForge/internal/config"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/domain/workflow"
	"github.com/Strob0t/AgentForge/internal/port/llm"
	"github.com/Strob0t/AgentForge/internal/port/messagequeue"
)

// backendCall records one call made to mockBackend.
type backendCall struct {
	Prompt   string
	ModelID  string
	Grounded bool
	Params   llm.Params
}

// isAnalysis reports whether the call came from the analyzer.
func (c backendCall) isAnalysis() bool { return c.Params.System != "" }

// mockBackend answers text calls via respond and image calls via image.
// Unset hooks produce a canned answer.
type mockBackend struct {
	mu      sync.Mutex
	calls   []backendCall
	images  []llm.ImageRequest
	respond func(ctx context.Context, c backendCall) (llm.Completion, error)
	image   func(ctx context.Context, req llm.ImageRequest) (llm.Image, error)
}

func (m *mockBackend) Complete(ctx context.Context, prompt, modelID string, p llm.Params) (llm.Completion, error) {
	return m.call(ctx, backendCall{Prompt: prompt, ModelID: modelID, Params: p})
}

func (m *mockBackend) CompleteGrounded(ctx context.Context, prompt, modelID string, p llm.Params) (llm.Completion, error) {
	return m.call(ctx, backendCall{Prompt: prompt, ModelID: modelID, Grounded: true, Params: p})
}

func (m *mockBackend) call(ctx context.Context, c backendCall) (llm.Completion, error) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	fn := m.respond
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, c)
	}
	return llm.Completion{Text: "output from " + agentName(c.Prompt), TokensOut: 100}, nil
}

func (m *mockBackend) GenerateImage(ctx context.Context, req llm.ImageRequest) (llm.Image, error) {
	m.mu.Lock()
	m.images = append(m.images, req)
	fn := m.image
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return llm.Image{URL: "https://images.example/1.png"}, nil
}

func (m *mockBackend) Calls() []backendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]backendCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// callFor returns the agent call whose prompt identifies the named agent.
func (m *mockBackend) callFor(t *testing.T, name string) backendCall {
	t.Helper()
	for _, c := range m.Calls() {
		if !c.isAnalysis() && agentName(c.Prompt) == name {
			return c
		}
	}
	t.Fatalf("no backend call for agent %q", name)
	return backendCall{}
}

// agentName extracts the display name from a prompt opening "You are X."
func agentName(prompt string) string {
	rest, ok := strings.CutPrefix(prompt, "You are ")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, ".")
	return name
}

// analysisJSON returns a valid analysis response for dt.
func analysisJSON(dt orchestration.DeliverableType) string {
	return `{"deliverable_type":"` + string(dt) + `","capabilities":["research","content-writing"],` +
		`"complexity":"moderate","suggested_workflow":"` + string(dt) + `","estimated_agents":4,"requires_images":false}`
}

// respondWithAnalysis answers the analyzer with dt and every agent with
// a canned text, deferring agent calls to next when set.
func respondWithAnalysis(dt orchestration.DeliverableType, next func(ctx context.Context, c backendCall) (llm.Completion, error)) func(context.Context, backendCall) (llm.Completion, error) {
	return func(ctx context.Context, c backendCall) (llm.Completion, error) {
		if c.isAnalysis() {
			return llm.Completion{Text: analysisJSON(dt)}, nil
		}
		if next != nil {
			return next(ctx, c)
		}
		return llm.Completion{Text: "output from " + agentName(c.Prompt), TokensOut: 100}, nil
	}
}

type mockBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (m *mockBroadcaster) BroadcastEvent(_ context.Context, eventType string, _ any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
}

func (m *mockBroadcaster) count(eventType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e == eventType {
			n++
		}
	}
	return n
}

type mockQueue struct {
	mu        sync.Mutex
	published map[string][][]byte
}

var _ messagequeue.Queue = (*mockQueue)(nil)

func (m *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.published == nil {
		m.published = make(map[string][][]byte)
	}
	m.published[subject] = append(m.published[subject], data)
	return nil
}

func (m *mockQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (m *mockQueue) Drain() error      { return nil }
func (m *mockQueue) Close() error      { return nil }
func (m *mockQueue) IsConnected() bool { return true }

func (m *mockQueue) messages(subject string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published[subject]
}

// mapWorkflows is a workflowstore.Store over a fixed map.
type mapWorkflows map[orchestration.DeliverableType]workflow.Template

func (m mapWorkflows) Template(d orchestration.DeliverableType) (workflow.Template, bool) {
	t, ok := m[d]
	return t, ok
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

func testWorkflows(t *testing.T) *workflows.Store {
	t.Helper()
	s, err := workflows.New("")
	if err != nil {
		t.Fatalf("load workflows: %v", err)
	}
	return s
}

func testPolicy() *modelpolicy.Policy {
	return modelpolicy.New(config.Defaults().Models)
}

func testOrchestratorConfig() *config.Orchestrator {
	cfg := config.Defaults().Orchestrator
	return &cfg
}

func newRequest(task string) *orchestration.Request {
	return &orchestration.Request{RequesterID: "u1", Task: task}
}

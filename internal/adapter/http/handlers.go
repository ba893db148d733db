package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Strob0t/AgentForge/internal/domain/agent"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/port/agentcatalog"
	"github.com/Strob0t/AgentForge/internal/port/workflowstore"
	"github.com/Strob0t/AgentForge/internal/service"
)

// HealthCheck probes one dependency; a nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Orchestrator *service.OrchestratorService
	Catalog      agentcatalog.Catalog
	Workflows    workflowstore.Store
	// HealthChecks are probed by GET /health, keyed by dependency name.
	HealthChecks map[string]HealthCheck
	Version      string
}

// Orchestrate handles POST /api/v1/orchestrate.
// The run is detached from the client connection so a disconnect does not
// abandon a session half way; progress remains visible over /ws.
func (h *Handlers) Orchestrate(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[orchestration.Request](w, r)
	if !ok {
		return
	}

	res, err := h.Orchestrator.Orchestrate(context.WithoutCancel(r.Context()), &req)
	if err != nil {
		writeOrchestrationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type checkRequest struct {
	Text string `json:"text"`
}

type checkResponse struct {
	ShouldOrchestrate    bool `json:"should_orchestrate"`
	ExplicitPresentation bool `json:"explicit_presentation"`
}

// CheckOrchestrate handles POST /api/v1/orchestrate/check
func (h *Handlers) CheckOrchestrate(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[checkRequest](w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{
		ShouldOrchestrate:    orchestration.ShouldOrchestrate(req.Text),
		ExplicitPresentation: orchestration.IsExplicitPresentationRequest(req.Text),
	})
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Orchestrator.Session(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// ListAgents handles GET /api/v1/agents, optionally filtered by ?capability=
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	c := agent.Capability(r.URL.Query().Get("capability"))
	if c == "" {
		writeJSON(w, http.StatusOK, h.Catalog.All())
		return
	}
	if !c.Valid() {
		writeError(w, http.StatusBadRequest, "unknown capability "+string(c))
		return
	}
	agents := h.Catalog.ByCapability(c)
	if agents == nil {
		agents = []agent.Descriptor{}
	}
	writeJSON(w, http.StatusOK, agents)
}

// GetWorkflow handles GET /api/v1/workflows/{type}
func (h *Handlers) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	dt := orchestration.DeliverableType(strings.ToLower(urlParam(r, "type")))
	if !dt.Valid() {
		writeError(w, http.StatusBadRequest, "unknown deliverable type")
		return
	}
	tpl, ok := h.Workflows.Template(dt)
	if !ok {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health. Any failing check answers 503.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.HealthChecks))}
	status := http.StatusOK
	for name, check := range h.HealthChecks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}

// GetVersion handles GET /api/v1/
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": h.Version})
}

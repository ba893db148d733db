package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router. The
// orchestrate middlewares (rate limiting, idempotency) wrap only the
// endpoint that starts a run.
func MountRoutes(r chi.Router, h *Handlers, orchestrateMW ...func(http.Handler) http.Handler) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", h.GetVersion)

		// Orchestration
		r.With(orchestrateMW...).Post("/orchestrate", h.Orchestrate)
		r.Post("/orchestrate/check", h.CheckOrchestrate)
		r.Get("/sessions/{id}", h.GetSession)

		// Introspection
		r.Get("/agents", h.ListAgents)
		r.Get("/workflows/{type}", h.GetWorkflow)
	})
}

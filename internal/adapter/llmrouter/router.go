// Package llmrouter routes generative calls to the backend configured for
// each kind of work.
package llmrouter

import (
	"context"

	"github.com/Strob0t/AgentForge/internal/port/llm"
)

// Router sends text and grounded calls to one backend and image calls to
// another, which may be the same.
type Router struct {
	text  llm.Backend
	image llm.Backend
}

var _ llm.Backend = (*Router)(nil)

// New creates a router. A nil image backend routes images to text.
func New(text, image llm.Backend) *Router {
	if image == nil {
		image = text
	}
	return &Router{text: text, image: image}
}

func (r *Router) Complete(ctx context.Context, prompt, modelID string, p llm.Params) (llm.Completion, error) {
	return r.text.Complete(ctx, prompt, modelID, p)
}

func (r *Router) CompleteGrounded(ctx context.Context, prompt, modelID string, p llm.Params) (llm.Completion, error) {
	return r.text.CompleteGrounded(ctx, prompt, modelID, p)
}

func (r *Router) GenerateImage(ctx context.Context, req llm.ImageRequest) (llm.Image, error) {
	return r.image.GenerateImage(ctx, req)
}

// Package llm defines the port for generative completion, grounding and
// image backends.
package llm

import (
	"context"
	"errors"

	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
)

// ErrUnsupported is returned by backends that lack an entry point.
var ErrUnsupported = errors.New("operation not supported by backend")

// ErrEmptyOutput is returned when a backend answered without content.
var ErrEmptyOutput = errors.New("backend returned no content")

// Params are generation settings for one call.
type Params struct {
	Temperature     float64
	MaxOutputTokens int
	System          string
}

// Completion is a text answer. TokensOut is zero when the backend does not
// report usage.
type Completion struct {
	Text      string
	TokensIn  int
	TokensOut int
	Sources   []orchestration.Source
}

// ImageRequest describes an image to generate.
type ImageRequest struct {
	Prompt      string
	ModelID     string
	Style       string
	AspectRatio string
}

// Image is a generated image, either hosted (URL) or inline.
type Image struct {
	URL        string
	InlineData []byte
	MIMEType   string
}

// Backend is the generative collaborator used by the analyzer and executor.
type Backend interface {
	Complete(ctx context.Context, prompt, modelID string, p Params) (Completion, error)
	// CompleteGrounded augments the call with external retrieval.
	CompleteGrounded(ctx context.Context, prompt, modelID string, p Params) (Completion, error)
	GenerateImage(ctx context.Context, req ImageRequest) (Image, error)
}

// Package gemini implements the generative backend port on the Gemini API,
// using Google Search grounding and Imagen for images.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/port/llm"
	"github.com/Strob0t/AgentForge/internal/resilience"
)

// models is the subset of *genai.Models the backend calls.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Backend talks to the Gemini API.
type Backend struct {
	models     models
	imageModel string
	breaker    *resilience.Breaker
}

var _ llm.Backend = (*Backend)(nil)

// New creates a Gemini backend authenticated with apiKey.
func New(ctx context.Context, apiKey, imageModel string) (*Backend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Backend{models: client.Models, imageModel: imageModel}, nil
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (b *Backend) SetBreaker(br *resilience.Breaker) {
	b.breaker = br
}

// Complete runs a plain generation.
func (b *Backend) Complete(ctx context.Context, prompt, modelID string, p llm.Params) (llm.Completion, error) {
	return b.generate(ctx, prompt, modelID, p, false)
}

// CompleteGrounded runs a generation with the Google Search tool attached.
func (b *Backend) CompleteGrounded(ctx context.Context, prompt, modelID string, p llm.Params) (llm.Completion, error) {
	return b.generate(ctx, prompt, modelID, p, true)
}

func (b *Backend) generate(ctx context.Context, prompt, modelID string, p llm.Params, grounded bool) (llm.Completion, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(p.Temperature)),
	}
	if p.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(p.MaxOutputTokens)
	}
	if p.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	if grounded {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	var resp *genai.GenerateContentResponse
	err := b.run(ctx, func(ctx context.Context) error {
		var err error
		resp, err = b.models.GenerateContent(ctx, modelID, genai.Text(prompt), cfg)
		return err
	})
	if err != nil {
		return llm.Completion{}, fmt.Errorf("gemini generate %s: %w", modelID, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return llm.Completion{}, llm.ErrEmptyOutput
	}

	out := llm.Completion{Text: text, Sources: sources(resp)}
	if u := resp.UsageMetadata; u != nil {
		out.TokensIn = int(u.PromptTokenCount)
		out.TokensOut = int(u.CandidatesTokenCount)
	}
	return out, nil
}

// GenerateImage renders one image with Imagen. Style is folded into the prompt.
func (b *Backend) GenerateImage(ctx context.Context, req llm.ImageRequest) (llm.Image, error) {
	model := req.ModelID
	if model == "" {
		model = b.imageModel
	}
	prompt := req.Prompt
	if req.Style != "" {
		prompt = fmt.Sprintf("%s\n\nStyle: %s", prompt, req.Style)
	}
	cfg := &genai.GenerateImagesConfig{NumberOfImages: 1}
	if req.AspectRatio != "" {
		cfg.AspectRatio = req.AspectRatio
	}

	var resp *genai.GenerateImagesResponse
	err := b.run(ctx, func(ctx context.Context) error {
		var err error
		resp, err = b.models.GenerateImages(ctx, model, prompt, cfg)
		return err
	})
	if err != nil {
		return llm.Image{}, fmt.Errorf("gemini image %s: %w", model, err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return llm.Image{}, llm.ErrEmptyOutput
	}

	img := resp.GeneratedImages[0].Image
	if len(img.ImageBytes) == 0 {
		return llm.Image{}, llm.ErrEmptyOutput
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return llm.Image{InlineData: img.ImageBytes, MIMEType: mime}, nil
}

func (b *Backend) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if b.breaker != nil {
		return b.breaker.Execute(ctx, fn)
	}
	return fn(ctx)
}

// sources collects web citations from the first candidate's grounding metadata.
func sources(resp *genai.GenerateContentResponse) []orchestration.Source {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var out []orchestration.Source
	seen := make(map[string]bool)
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		out = append(out, orchestration.Source{Title: chunk.Web.Title, URL: chunk.Web.URI})
	}
	return out
}

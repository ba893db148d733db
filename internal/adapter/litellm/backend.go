package litellm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/port/llm"
)

// Backend adapts Client to the llm.Backend port. The image model is used
// when a request does not name one.
type Backend struct {
	client     *Client
	imageModel string
}

var _ llm.Backend = (*Backend)(nil)

// NewBackend wraps client as a generative backend.
func NewBackend(client *Client, imageModel string) *Backend {
	return &Backend{client: client, imageModel: imageModel}
}

// Complete runs a plain chat completion.
func (b *Backend) Complete(ctx context.Context, prompt, modelID string, p llm.Params) (llm.Completion, error) {
	return b.complete(ctx, prompt, modelID, p, nil)
}

// CompleteGrounded runs a chat completion with web search enabled.
func (b *Backend) CompleteGrounded(ctx context.Context, prompt, modelID string, p llm.Params) (llm.Completion, error) {
	return b.complete(ctx, prompt, modelID, p, &WebSearchOptions{SearchContextSize: "medium"})
}

func (b *Backend) complete(ctx context.Context, prompt, modelID string, p llm.Params, search *WebSearchOptions) (llm.Completion, error) {
	messages := make([]ChatMessage, 0, 2)
	if p.System != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: p.System})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: prompt})

	resp, err := b.client.ChatCompletion(ctx, ChatCompletionRequest{
		Model:            modelID,
		Messages:         messages,
		Temperature:      p.Temperature,
		MaxTokens:        p.MaxOutputTokens,
		WebSearchOptions: search,
	})
	if err != nil {
		return llm.Completion{}, err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return llm.Completion{}, llm.ErrEmptyOutput
	}

	out := llm.Completion{
		Text:      resp.Content,
		TokensIn:  resp.TokensIn,
		TokensOut: resp.TokensOut,
	}
	for _, c := range resp.Citations {
		out.Sources = append(out.Sources, orchestration.Source{Title: c.Title, URL: c.URL})
	}
	return out, nil
}

// GenerateImage requests one image. Style is folded into the prompt since
// the images endpoint has no portable style field.
func (b *Backend) GenerateImage(ctx context.Context, req llm.ImageRequest) (llm.Image, error) {
	model := req.ModelID
	if model == "" {
		model = b.imageModel
	}
	prompt := req.Prompt
	if req.Style != "" {
		prompt = fmt.Sprintf("%s\n\nStyle: %s", prompt, req.Style)
	}

	img, err := b.client.GenerateImage(ctx, ImageGenerationRequest{
		Model:  model,
		Prompt: prompt,
		N:      1,
		Size:   sizeFor(req.AspectRatio),
	})
	if err != nil {
		return llm.Image{}, err
	}

	switch {
	case img.URL != "":
		return llm.Image{URL: img.URL}, nil
	case img.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return llm.Image{}, fmt.Errorf("decode image: %w", err)
		}
		return llm.Image{InlineData: data, MIMEType: "image/png"}, nil
	default:
		return llm.Image{}, llm.ErrEmptyOutput
	}
}

// sizeFor maps an aspect ratio to the nearest size the images API accepts.
func sizeFor(aspect string) string {
	switch aspect {
	case "16:9", "3:2", "4:3":
		return "1792x1024"
	case "9:16", "2:3", "3:4":
		return "1024x1792"
	default:
		return "1024x1024"
	}
}

// Package anthropic implements the generative backend port on the Anthropic
// Messages API. Grounding uses the server-side web search tool; image
// generation is not offered.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/port/llm"
	"github.com/Strob0t/AgentForge/internal/resilience"
)

const (
	defaultMaxTokens = 4096
	maxSearchUses    = 5
)

// Backend wraps the Anthropic SDK client.
type Backend struct {
	inner   anthropic.Client
	breaker *resilience.Breaker
}

var _ llm.Backend = (*Backend)(nil)

// New creates a backend authenticated with apiKey. Extra options are passed
// to the SDK client (base URL, retries).
func New(apiKey string, opts ...option.RequestOption) (*Backend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: api key is required")
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Backend{inner: anthropic.NewClient(opts...)}, nil
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (b *Backend) SetBreaker(br *resilience.Breaker) {
	b.breaker = br
}

// Complete sends a single-turn message.
func (b *Backend) Complete(ctx context.Context, prompt, modelID string, p llm.Params) (llm.Completion, error) {
	return b.send(ctx, prompt, modelID, p, false)
}

// CompleteGrounded sends a single-turn message with web search enabled.
func (b *Backend) CompleteGrounded(ctx context.Context, prompt, modelID string, p llm.Params) (llm.Completion, error) {
	return b.send(ctx, prompt, modelID, p, true)
}

// GenerateImage is not supported by the Messages API.
func (b *Backend) GenerateImage(context.Context, llm.ImageRequest) (llm.Image, error) {
	return llm.Image{}, llm.ErrUnsupported
}

func (b *Backend) send(ctx context.Context, prompt, modelID string, p llm.Params, grounded bool) (llm.Completion, error) {
	maxTokens := int64(p.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelID),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(p.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}
	if grounded {
		params.Tools = []anthropic.ToolUnionParam{{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{MaxUses: anthropic.Int(maxSearchUses)},
		}}
	}

	var resp *anthropic.Message
	call := func(ctx context.Context) error {
		var err error
		resp, err = b.inner.Messages.New(ctx, params)
		return err
	}
	var err error
	if b.breaker != nil {
		err = b.breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return llm.Completion{}, fmt.Errorf("anthropic message %s: %w", modelID, err)
	}

	var text strings.Builder
	var sources []orchestration.Source
	seen := make(map[string]bool)
	for _, block := range resp.Content {
		tb, ok := block.AsAny().(anthropic.TextBlock)
		if !ok {
			continue
		}
		text.WriteString(tb.Text)
		for _, c := range tb.Citations {
			if c.URL == "" || seen[c.URL] {
				continue
			}
			seen[c.URL] = true
			sources = append(sources, orchestration.Source{Title: c.Title, URL: c.URL})
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return llm.Completion{}, llm.ErrEmptyOutput
	}

	return llm.Completion{
		Text:      text.String(),
		TokensIn:  int(resp.Usage.InputTokens),
		TokensOut: int(resp.Usage.OutputTokens),
		Sources:   sources,
	}, nil
}

// Package litellm provides an HTTP client for a LiteLLM Proxy, used as an
// OpenAI-compatible text, grounding and image backend.
package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Strob0t/AgentForge/internal/resilience"
)

// ChatMessage is one message of a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// WebSearchOptions enables provider-side web search on models that support it.
type WebSearchOptions struct {
	SearchContextSize string `json:"search_context_size,omitempty"`
}

// ChatCompletionRequest is the body of POST /chat/completions.
type ChatCompletionRequest struct {
	Model            string            `json:"model"`
	Messages         []ChatMessage     `json:"messages"`
	Temperature      float64           `json:"temperature"`
	MaxTokens        int               `json:"max_tokens,omitempty"`
	WebSearchOptions *WebSearchOptions `json:"web_search_options,omitempty"`
}

// Citation is a URL the model cited while answering a grounded request.
type Citation struct {
	URL   string
	Title string
}

// ChatCompletionResponse is the flattened result of a chat completion.
type ChatCompletionResponse struct {
	Content   string
	Model     string
	TokensIn  int
	TokensOut int
	Citations []Citation
}

// ImageGenerationRequest is the body of POST /images/generations.
type ImageGenerationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

// GeneratedImage is one entry of an image generation response. Exactly one
// of URL and B64JSON is set.
type GeneratedImage struct {
	URL     string `json:"url,omitempty"`
	B64JSON string `json:"b64_json,omitempty"`
}

// Client talks to the LiteLLM Proxy.
type Client struct {
	baseURL    string
	masterKey  string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a new LiteLLM client. A zero timeout leaves deadlines to
// the caller's context.
func NewClient(baseURL, masterKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		masterKey: masterKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// ChatCompletion sends a chat completion and flattens the first choice.
func (c *Client) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat completion: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	var raw struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content     string `json:"content"`
				Annotations []struct {
					Type        string `json:"type"`
					URLCitation struct {
						URL   string `json:"url"`
						Title string `json:"title"`
					} `json:"url_citation"`
				} `json:"annotations"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal chat completion: %w", err)
	}
	if len(raw.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: no choices returned")
	}

	msg := raw.Choices[0].Message
	resp := &ChatCompletionResponse{
		Content:   msg.Content,
		Model:     raw.Model,
		TokensIn:  raw.Usage.PromptTokens,
		TokensOut: raw.Usage.CompletionTokens,
	}
	for _, a := range msg.Annotations {
		if a.Type == "url_citation" && a.URLCitation.URL != "" {
			resp.Citations = append(resp.Citations, Citation{URL: a.URLCitation.URL, Title: a.URLCitation.Title})
		}
	}
	return resp, nil
}

// GenerateImage requests a single image.
func (c *Client) GenerateImage(ctx context.Context, req ImageGenerationRequest) (*GeneratedImage, error) {
	if req.N == 0 {
		req.N = 1
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal image generation: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/images/generations", body)
	if err != nil {
		return nil, fmt.Errorf("image generation: %w", err)
	}

	var raw struct {
		Data []GeneratedImage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal image generation: %w", err)
	}
	if len(raw.Data) == 0 {
		return nil, fmt.Errorf("image generation: no images returned")
	}
	return &raw.Data[0], nil
}

// Health checks if LiteLLM is healthy.
func (c *Client) Health(ctx context.Context) (bool, error) {
	_, err := c.doRequest(ctx, http.MethodGet, "/health/liveliness", nil)
	return err == nil, err
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func(ctx context.Context) error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if c.masterKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.masterKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("litellm API error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(ctx, call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

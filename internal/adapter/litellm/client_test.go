package litellm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/AgentForge/internal/adapter/litellm"
	"github.com/Strob0t/AgentForge/internal/port/llm"
	"github.com/Strob0t/AgentForge/internal/resilience"
)

func TestChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Fatalf("unexpected auth: %q", auth)
		}

		var req litellm.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gemini-2.5-flash" || len(req.Messages) != 2 {
			t.Fatalf("unexpected request: %+v", req)
		}
		if req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Fatalf("unexpected roles: %+v", req.Messages)
		}
		if req.WebSearchOptions != nil {
			t.Fatal("plain completion must not enable web search")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gemini-2.5-flash","choices":[{"message":{"role":"assistant","content":"Hello there"}}],"usage":{"prompt_tokens":12,"completion_tokens":3}}`))
	}))
	defer srv.Close()

	b := litellm.NewBackend(litellm.NewClient(srv.URL, "test-key", 5*time.Second), "imagen")
	out, err := b.Complete(context.Background(), "Say hello", "gemini-2.5-flash", llm.Params{System: "Be brief", Temperature: 0.2})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Text != "Hello there" || out.TokensIn != 12 || out.TokensOut != 3 {
		t.Fatalf("unexpected completion: %+v", out)
	}
}

func TestCompleteGroundedSendsSearchOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req litellm.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.WebSearchOptions == nil {
			t.Fatal("expected web_search_options on grounded call")
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Grace is unmerited favour.","annotations":[{"type":"url_citation","url_citation":{"url":"https://example.org/grace","title":"Grace"}}]}}]}`))
	}))
	defer srv.Close()

	b := litellm.NewBackend(litellm.NewClient(srv.URL, "", 0), "")
	out, err := b.CompleteGrounded(context.Background(), "What is grace?", "m", llm.Params{})
	if err != nil {
		t.Fatalf("CompleteGrounded: %v", err)
	}
	if len(out.Sources) != 1 || out.Sources[0].URL != "https://example.org/grace" {
		t.Fatalf("unexpected sources: %+v", out.Sources)
	}
	if out.TokensOut != 0 {
		t.Fatalf("expected no reported usage, got %d", out.TokensOut)
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  "}}]}`))
	}))
	defer srv.Close()

	b := litellm.NewBackend(litellm.NewClient(srv.URL, "", 0), "")
	_, err := b.Complete(context.Background(), "x", "m", llm.Params{})
	if !errors.Is(err, llm.ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput, got %v", err)
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	b := litellm.NewBackend(litellm.NewClient(srv.URL, "", 0), "")
	_, err := b.Complete(context.Background(), "x", "m", llm.Params{})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestGenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req litellm.ImageGenerationRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "imagen" || req.N != 1 || req.Size != "1792x1024" {
			t.Fatalf("unexpected image request: %+v", req)
		}
		if !strings.Contains(req.Prompt, "Style: watercolor") {
			t.Fatalf("style not folded into prompt: %q", req.Prompt)
		}
		_, _ = w.Write([]byte(`{"data":[{"url":"https://img.example/1.png"}]}`))
	}))
	defer srv.Close()

	b := litellm.NewBackend(litellm.NewClient(srv.URL, "", 0), "imagen")
	img, err := b.GenerateImage(context.Background(), llm.ImageRequest{Prompt: "a lighthouse", Style: "watercolor", AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if img.URL != "https://img.example/1.png" {
		t.Fatalf("unexpected image: %+v", img)
	}
}

func TestGenerateImageInline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"aGVsbG8="}]}`))
	}))
	defer srv.Close()

	b := litellm.NewBackend(litellm.NewClient(srv.URL, "", 0), "imagen")
	img, err := b.GenerateImage(context.Background(), llm.ImageRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(img.InlineData) != "hello" || img.MIMEType != "image/png" {
		t.Fatalf("unexpected inline image: %+v", img)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "", 0)
	client.SetBreaker(resilience.NewBreaker("litellm", 2, time.Minute))
	b := litellm.NewBackend(client, "")

	for range 2 {
		_, _ = b.Complete(context.Background(), "x", "m", llm.Params{})
	}
	_, err := b.Complete(context.Background(), "x", "m", llm.Params{})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", calls)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health/liveliness" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`"I'm alive!"`))
	}))
	defer srv.Close()

	ok, err := litellm.NewClient(srv.URL, "", 0).Health(context.Background())
	if !ok || err != nil {
		t.Fatalf("Health = %v, %v", ok, err)
	}
}

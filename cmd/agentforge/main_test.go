package main

import (
	"context"
	"slices"
	"strings"
	"testing"

	cfhttp "github.com/Strob0t/AgentForge/internal/adapter/http"
	"github.com/Strob0t/AgentForge/internal/adapter/llmrouter"
	"github.com/Strob0t/AgentForge/internal/config"
)

func TestSplitArgs(t *testing.T) {
	own, cfgArgs := splitArgs([]string{"--hint", "essay", "task", "--", "-c", "x.yaml"})
	if !slices.Equal(own, []string{"--hint", "essay", "task"}) {
		t.Fatalf("own = %v", own)
	}
	if !slices.Equal(cfgArgs, []string{"-c", "x.yaml"}) {
		t.Fatalf("cfgArgs = %v", cfgArgs)
	}

	own, cfgArgs = splitArgs([]string{"a", "b"})
	if len(own) != 2 || cfgArgs != nil {
		t.Fatalf("without separator: own=%v cfg=%v", own, cfgArgs)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	err := dispatch([]string{"frobnicate"})
	if err == nil || !strings.Contains(err.Error(), "frobnicate") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunCheckRequiresText(t *testing.T) {
	if err := runCheck(nil); err == nil {
		t.Fatal("expected usage error")
	}
	if err := runCheck([]string{"What", "is", "grace?"}); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestBuildBackendSharesProvider(t *testing.T) {
	cfg := config.Defaults()
	checks := map[string]cfhttp.HealthCheck{}

	b, err := buildBackend(context.Background(), &cfg, checks)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, routed := b.(*llmrouter.Router); routed {
		t.Fatal("one provider for both roles should not be routed")
	}
	if _, ok := checks["litellm"]; !ok {
		t.Fatal("litellm health check not registered")
	}
}

func TestBuildBackendRequiresAPIKeys(t *testing.T) {
	cfg := config.Defaults()
	cfg.Backend.Text = "anthropic"

	_, err := buildBackend(context.Background(), &cfg, map[string]cfhttp.HealthCheck{})
	if err == nil || !strings.Contains(err.Error(), "anthropic.api_key") {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildBackendRoutesMixedProviders(t *testing.T) {
	cfg := config.Defaults()
	cfg.Backend.Text = "anthropic"
	cfg.Anthropic.APIKey = "test-key"

	b, err := buildBackend(context.Background(), &cfg, map[string]cfhttp.HealthCheck{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, routed := b.(*llmrouter.Router); !routed {
		t.Fatalf("backend = %T, want *llmrouter.Router", b)
	}
}

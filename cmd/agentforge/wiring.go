package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Strob0t/AgentForge/internal/adapter/anthropic"
	"github.com/Strob0t/AgentForge/internal/adapter/catalog"
	"github.com/Strob0t/AgentForge/internal/adapter/gemini"
	cfhttp "github.com/Strob0t/AgentForge/internal/adapter/http"
	"github.com/Strob0t/AgentForge/internal/adapter/litellm"
	"github.com/Strob0t/AgentForge/internal/adapter/llmrouter"
	"github.com/Strob0t/AgentForge/internal/adapter/memory"
	"github.com/Strob0t/AgentForge/internal/adapter/modelpolicy"
	cfnats "github.com/Strob0t/AgentForge/internal/adapter/nats"
	"github.com/Strob0t/AgentForge/internal/adapter/natskv"
	"github.com/Strob0t/AgentForge/internal/adapter/postgres"
	"github.com/Strob0t/AgentForge/internal/adapter/ristretto"
	"github.com/Strob0t/AgentForge/internal/adapter/tiered"
	"github.com/Strob0t/AgentForge/internal/adapter/workflows"
	"github.com/Strob0t/AgentForge/internal/config"
	"github.com/Strob0t/AgentForge/internal/port/cache"
	"github.com/Strob0t/AgentForge/internal/port/llm"
	"github.com/Strob0t/AgentForge/internal/port/sessionstore"
	"github.com/Strob0t/AgentForge/internal/resilience"
	"github.com/Strob0t/AgentForge/internal/service"
)

// core holds the wired orchestration stack shared by serve and run.
type core struct {
	orchestrator *service.OrchestratorService
	catalog      *catalog.Catalog
	workflows    *workflows.Store
	cache        cache.Cache
	queue        *cfnats.Queue   // nil without NATS
	pgStore      *postgres.Store // nil without PostgreSQL
	checks       map[string]cfhttp.HealthCheck
	closers      []func()
}

// close releases resources in reverse acquisition order.
func (c *core) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// buildCore connects infrastructure and assembles the services. Optional
// infrastructure (NATS, PostgreSQL) is skipped when unconfigured.
func buildCore(ctx context.Context, cfg *config.Config) (_ *core, err error) {
	c := &core{checks: make(map[string]cfhttp.HealthCheck)}
	defer func() {
		if err != nil {
			c.close()
		}
	}()

	if c.catalog, err = catalog.Default(); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if c.workflows, err = workflows.New(cfg.Workflows.OverrideDir); err != nil {
		return nil, fmt.Errorf("workflows: %w", err)
	}
	policy := modelpolicy.New(cfg.Models)

	backend, err := buildBackend(ctx, cfg, c.checks)
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}

	// --- NATS: event stream and L2 cache ---
	var l2 cache.Cache
	if cfg.NATS.URL != "" {
		q, err := cfnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream)
		if err != nil {
			return nil, fmt.Errorf("nats: %w", err)
		}
		c.queue = q
		c.closers = append(c.closers, func() {
			if err := q.Drain(); err != nil {
				_ = q.Close()
			}
		})
		c.checks["nats"] = func(context.Context) error {
			if !q.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}

		kv, err := natskv.Open(ctx, q.JetStream(), cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			slog.Warn("analysis L2 cache unavailable", "error", err)
		} else {
			l2 = kv
		}
	}

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return nil, fmt.Errorf("l1 cache: %w", err)
	}
	c.closers = append(c.closers, l1.Close)
	c.cache = tiered.New(l1, l2, cfg.Cache.AnalysisTTL)

	// --- Session store ---
	var store sessionstore.Store
	if cfg.Postgres.DSN != "" {
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		c.closers = append(c.closers, pool.Close)
		c.pgStore = postgres.NewStore(pool)
		c.checks["postgres"] = c.pgStore.Ping
		store = c.pgStore
		slog.Info("postgres connected, migrations applied")
	} else {
		store = memory.NewSessionStore()
		slog.Warn("no postgres dsn configured, sessions are kept in memory")
	}

	// --- Services ---
	analyzer := service.NewAnalyzer(backend, c.catalog, policy, &cfg.Orchestrator)
	analyzer.SetCache(service.NewAnalysisCache(c.cache, cfg.Cache.AnalysisTTL))
	c.orchestrator = service.NewOrchestratorService(
		analyzer,
		service.NewPlanner(c.catalog, c.workflows, policy, &cfg.Orchestrator),
		service.NewExecutor(backend, c.catalog, policy, &cfg.Orchestrator),
		store,
	)
	if c.queue != nil {
		c.orchestrator.SetQueue(c.queue)
	}
	return c, nil
}

// buildBackend creates the text and image providers, each behind its own
// circuit breaker. A provider serving both roles is created once.
func buildBackend(ctx context.Context, cfg *config.Config, checks map[string]cfhttp.HealthCheck) (llm.Backend, error) {
	providers := make(map[string]llm.Backend, 2)
	get := func(name string) (llm.Backend, error) {
		name = strings.ToLower(name)
		if b, ok := providers[name]; ok {
			return b, nil
		}
		b, err := newProvider(ctx, name, cfg, checks)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		providers[name] = b
		return b, nil
	}

	text, err := get(cfg.Backend.Text)
	if err != nil {
		return nil, err
	}
	image, err := get(cfg.Backend.Image)
	if err != nil {
		return nil, err
	}
	slog.Info("generative backends ready", "text", cfg.Backend.Text, "image", cfg.Backend.Image)
	if strings.EqualFold(cfg.Backend.Text, cfg.Backend.Image) {
		return text, nil
	}
	return llmrouter.New(text, image), nil
}

func newProvider(ctx context.Context, name string, cfg *config.Config, checks map[string]cfhttp.HealthCheck) (llm.Backend, error) {
	breaker := resilience.NewBreaker(name, cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)

	switch name {
	case "litellm":
		client := litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey, cfg.Backend.Timeout)
		client.SetBreaker(breaker)
		checks["litellm"] = func(ctx context.Context) error {
			_, err := client.Health(ctx)
			return err
		}
		return litellm.NewBackend(client, cfg.Models.Image), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, errors.New("gemini.api_key is required")
		}
		b, err := gemini.New(ctx, cfg.Gemini.APIKey, cfg.Models.Image)
		if err != nil {
			return nil, err
		}
		b.SetBreaker(breaker)
		checks["gemini"] = breakerCheck(breaker)
		return b, nil
	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			return nil, errors.New("anthropic.api_key is required")
		}
		b, err := anthropic.New(cfg.Anthropic.APIKey)
		if err != nil {
			return nil, err
		}
		b.SetBreaker(breaker)
		checks["anthropic"] = breakerCheck(breaker)
		return b, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// breakerCheck reports a provider unhealthy while its breaker is open.
func breakerCheck(b *resilience.Breaker) cfhttp.HealthCheck {
	return func(context.Context) error {
		if s := b.State(); s == "open" {
			return fmt.Errorf("circuit %s", s)
		}
		return nil
	}
}

// staleSessionReason is recorded on sessions a previous process left running.
const staleSessionReason = "interrupted by service restart"

// failStaleSessions marks sessions left in planning or executing by an
// earlier process as failed. Only the PostgreSQL store outlives a restart.
func (c *core) failStaleSessions(ctx context.Context, bootedAt time.Time) {
	if c.pgStore == nil {
		return
	}
	n, err := c.pgStore.FailStale(ctx, bootedAt, staleSessionReason)
	if err != nil {
		slog.Error("fail stale sessions", "error", err)
		return
	}
	if n > 0 {
		slog.Warn("marked interrupted sessions failed", "count", n)
	}
}

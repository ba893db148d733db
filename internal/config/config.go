// Package config provides hierarchical configuration loading for AgentForge.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the AgentForge service.
type Config struct {
	Server       Server       `yaml:"server"`
	Postgres     Postgres     `yaml:"postgres"`
	NATS         NATS         `yaml:"nats"`
	Logging      Logging      `yaml:"logging"`
	Breaker      Breaker      `yaml:"breaker"`
	Cache        Cache        `yaml:"cache"`
	OTel         OTel         `yaml:"otel"`
	Backend      Backend      `yaml:"backend"`
	LiteLLM      LiteLLM      `yaml:"litellm"`
	Gemini       Gemini       `yaml:"gemini"`
	Anthropic    Anthropic    `yaml:"anthropic"`
	Models       Models       `yaml:"models"`
	Orchestrator Orchestrator `yaml:"orchestrator"`
	Workflows    Workflows    `yaml:"workflows"`
	MCP          MCP          `yaml:"mcp"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
	// RateLimit is the sustained per-client request rate on the orchestrate
	// endpoints; zero disables limiting.
	RateLimit      float64       `yaml:"rate_limit"`
	RateBurst      int           `yaml:"rate_burst"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
}

// Postgres holds PostgreSQL connection configuration.
// An empty DSN selects the in-memory session store.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
}

// NATS holds NATS JetStream configuration. An empty URL disables event
// publishing and the L2 analysis cache.
type NATS struct {
	URL    string `yaml:"url"`
	Stream string `yaml:"stream"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for generative backends.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Cache holds the tiered analysis cache configuration.
type Cache struct {
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"`
	L2Bucket    string        `yaml:"l2_bucket"`
	L2TTL       time.Duration `yaml:"l2_ttl"`
	AnalysisTTL time.Duration `yaml:"analysis_ttl"`
}

// OTel holds OpenTelemetry exporter configuration.
type OTel struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	Insecure    bool    `yaml:"insecure"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// Backend selects which generative backends serve text and image calls.
// Valid providers: "litellm", "gemini", "anthropic".
type Backend struct {
	Text    string        `yaml:"text"`
	Image   string        `yaml:"image"`
	Timeout time.Duration `yaml:"timeout"`
}

// LiteLLM holds LiteLLM proxy configuration.
type LiteLLM struct {
	URL       string `yaml:"url"`
	MasterKey string `yaml:"master_key"`
}

// Gemini holds Google Gemini API configuration.
type Gemini struct {
	APIKey string `yaml:"api_key"`
}

// Anthropic holds Anthropic API configuration.
type Anthropic struct {
	APIKey string `yaml:"api_key"`
}

// Models holds the model tiers and rate table used by the selection policy.
type Models struct {
	Fast     string          `yaml:"fast"`
	Balanced string          `yaml:"balanced"`
	Advanced string          `yaml:"advanced"`
	Image    string          `yaml:"image"`
	Rates    map[string]Rate `yaml:"rates"`
	// TypicalOutputTokens is used for plan-time cost estimates.
	TypicalOutputTokens int `yaml:"typical_output_tokens"`
}

// Rate is the price of a model in USD.
type Rate struct {
	InputPerMillion  float64 `yaml:"input_per_million"`
	OutputPerMillion float64 `yaml:"output_per_million"`
	PerImage         float64 `yaml:"per_image"`
}

// Orchestrator holds multi-agent execution configuration.
type Orchestrator struct {
	AnalyzerAgent     string        `yaml:"analyzer_agent"`      // Catalog id of the reasoning agent (default: "task-analyzer")
	AnalyzerModel     string        `yaml:"analyzer_model"`      // Overrides the analyzer agent's default model
	AnalyzerMaxTokens int           `yaml:"analyzer_max_tokens"` // Max tokens for the analysis response (default: 1024)
	MaxParallel       int           `yaml:"max_parallel"`        // Max concurrent tasks in a parallel phase (default: 8)
	TaskTimeout       time.Duration `yaml:"task_timeout"`        // Per-task deadline (default: 3m)
	PerAgentLatency   time.Duration `yaml:"per_agent_latency"`   // Display estimate per planned task (default: 20s)
	HistoryTurns      int           `yaml:"history_turns"`       // Prior conversation turns included in prompts (default: 6)
}

// Workflows holds workflow template configuration.
type Workflows struct {
	// OverrideDir holds *.yaml files that replace embedded templates by
	// deliverable type. Reloaded on change when Watch is set.
	OverrideDir string `yaml:"override_dir"`
	Watch       bool   `yaml:"watch"`
}

// MCP holds the Model Context Protocol server configuration.
// An empty APIKey leaves the endpoint unauthenticated.
type MCP struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	APIKey  string `yaml:"api_key"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:           "8080",
			CORSOrigin:     "http://localhost:3000",
			RateLimit:      2,
			RateBurst:      10,
			IdempotencyTTL: 24 * time.Hour,
		},
		Postgres: Postgres{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
		},
		NATS: NATS{
			Stream: "AGENTFORGE",
		},
		Logging: Logging{
			Level:   "info",
			Service: "agentforge",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Cache: Cache{
			L1MaxSizeMB: 32,
			L2Bucket:    "AGENTFORGE_ANALYSIS",
			L2TTL:       24 * time.Hour,
			AnalysisTTL: 6 * time.Hour,
		},
		OTel: OTel{
			Endpoint:    "localhost:4317",
			ServiceName: "agentforge",
			Insecure:    true,
			SampleRate:  1.0,
		},
		Backend: Backend{
			Text:    "litellm",
			Image:   "litellm",
			Timeout: 2 * time.Minute,
		},
		LiteLLM: LiteLLM{
			URL: "http://localhost:4000",
		},
		Models: Models{
			Fast:     "gemini-2.5-flash-lite",
			Balanced: "gemini-2.5-flash",
			Advanced: "gemini-2.5-pro",
			Image:    "imagen-4.0-generate-001",
			Rates: map[string]Rate{
				"gemini-2.5-flash-lite":   {InputPerMillion: 0.10, OutputPerMillion: 0.40},
				"gemini-2.5-flash":        {InputPerMillion: 0.30, OutputPerMillion: 2.50},
				"gemini-2.5-pro":          {InputPerMillion: 1.25, OutputPerMillion: 10.00},
				"claude-haiku-4-5":        {InputPerMillion: 1.00, OutputPerMillion: 5.00},
				"claude-sonnet-4-5":       {InputPerMillion: 3.00, OutputPerMillion: 15.00},
				"imagen-4.0-generate-001": {PerImage: 0.04},
			},
			TypicalOutputTokens: 1500,
		},
		Orchestrator: Orchestrator{
			AnalyzerAgent:     "task-analyzer",
			AnalyzerMaxTokens: 1024,
			MaxParallel:       8,
			TaskTimeout:       3 * time.Minute,
			PerAgentLatency:   20 * time.Second,
			HistoryTurns:      6,
		},
		MCP: MCP{
			Enabled: true,
			Path:    "/mcp",
		},
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agentforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML path can be changed with AGENTFORGE_CONFIG; a missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if p := os.Getenv("AGENTFORGE_CONFIG"); p != "" {
		path = p
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "AGENTFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "AGENTFORGE_CORS_ORIGIN")
	setFloat64(&cfg.Server.RateLimit, "AGENTFORGE_RATE_LIMIT")
	setInt(&cfg.Server.RateBurst, "AGENTFORGE_RATE_BURST")
	setDuration(&cfg.Server.IdempotencyTTL, "AGENTFORGE_IDEMPOTENCY_TTL")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "AGENTFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "AGENTFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "AGENTFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "AGENTFORGE_PG_MAX_CONN_IDLE_TIME")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "AGENTFORGE_NATS_STREAM")
	setString(&cfg.Logging.Level, "AGENTFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "AGENTFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "AGENTFORGE_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "AGENTFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "AGENTFORGE_BREAKER_TIMEOUT")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "AGENTFORGE_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "AGENTFORGE_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "AGENTFORGE_CACHE_L2_TTL")
	setDuration(&cfg.Cache.AnalysisTTL, "AGENTFORGE_CACHE_ANALYSIS_TTL")

	// Telemetry
	setBool(&cfg.OTel.Enabled, "AGENTFORGE_OTEL_ENABLED")
	setString(&cfg.OTel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTel.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTel.Insecure, "AGENTFORGE_OTEL_INSECURE")
	setFloat64(&cfg.OTel.SampleRate, "AGENTFORGE_OTEL_SAMPLE_RATE")

	// Backends
	setString(&cfg.Backend.Text, "AGENTFORGE_BACKEND_TEXT")
	setString(&cfg.Backend.Image, "AGENTFORGE_BACKEND_IMAGE")
	setDuration(&cfg.Backend.Timeout, "AGENTFORGE_BACKEND_TIMEOUT")
	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.MasterKey, "LITELLM_MASTER_KEY")
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")

	// Models
	setString(&cfg.Models.Fast, "AGENTFORGE_MODEL_FAST")
	setString(&cfg.Models.Balanced, "AGENTFORGE_MODEL_BALANCED")
	setString(&cfg.Models.Advanced, "AGENTFORGE_MODEL_ADVANCED")
	setString(&cfg.Models.Image, "AGENTFORGE_MODEL_IMAGE")

	// Orchestrator
	setString(&cfg.Orchestrator.AnalyzerAgent, "AGENTFORGE_ORCH_ANALYZER_AGENT")
	setString(&cfg.Orchestrator.AnalyzerModel, "AGENTFORGE_ORCH_ANALYZER_MODEL")
	setInt(&cfg.Orchestrator.AnalyzerMaxTokens, "AGENTFORGE_ORCH_ANALYZER_MAX_TOKENS")
	setInt(&cfg.Orchestrator.MaxParallel, "AGENTFORGE_ORCH_MAX_PARALLEL")
	setDuration(&cfg.Orchestrator.TaskTimeout, "AGENTFORGE_ORCH_TASK_TIMEOUT")
	setDuration(&cfg.Orchestrator.PerAgentLatency, "AGENTFORGE_ORCH_PER_AGENT_LATENCY")
	setInt(&cfg.Orchestrator.HistoryTurns, "AGENTFORGE_ORCH_HISTORY_TURNS")

	setString(&cfg.Workflows.OverrideDir, "AGENTFORGE_WORKFLOWS_DIR")
	setBool(&cfg.Workflows.Watch, "AGENTFORGE_WORKFLOWS_WATCH")
	setBool(&cfg.MCP.Enabled, "AGENTFORGE_MCP_ENABLED")
	setString(&cfg.MCP.Path, "AGENTFORGE_MCP_PATH")
	setString(&cfg.MCP.APIKey, "AGENTFORGE_MCP_API_KEY")
}

var validProviders = map[string]bool{"litellm": true, "gemini": true, "anthropic": true}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst < 1 {
		return errors.New("server.rate_burst must be >= 1 when rate limiting is enabled")
	}
	if cfg.Postgres.DSN != "" && cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if !validProviders[strings.ToLower(cfg.Backend.Text)] {
		return fmt.Errorf("backend.text: unknown provider %q", cfg.Backend.Text)
	}
	if !validProviders[strings.ToLower(cfg.Backend.Image)] {
		return fmt.Errorf("backend.image: unknown provider %q", cfg.Backend.Image)
	}
	if strings.EqualFold(cfg.Backend.Image, "anthropic") {
		return errors.New("backend.image: anthropic cannot generate images")
	}
	if cfg.Models.Fast == "" || cfg.Models.Balanced == "" || cfg.Models.Advanced == "" {
		return errors.New("models.fast, models.balanced and models.advanced are required")
	}
	if cfg.Orchestrator.AnalyzerAgent == "" {
		return errors.New("orchestrator.analyzer_agent is required")
	}
	if cfg.Orchestrator.MaxParallel < 1 {
		return errors.New("orchestrator.max_parallel must be >= 1")
	}
	if cfg.Orchestrator.TaskTimeout <= 0 {
		return errors.New("orchestrator.task_timeout must be positive")
	}
	if cfg.OTel.SampleRate < 0 || cfg.OTel.SampleRate > 1 {
		return errors.New("otel.sample_rate must be within [0, 1]")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

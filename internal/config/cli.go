package config

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// CLIFlags holds command-line overrides. A nil field means the flag was not given.
type CLIFlags struct {
	ConfigPath *string
	Port       *string
	LogLevel   *string
	DSN        *string
	NatsURL    *string
	Backend    *string
}

// ParseFlags parses serve flags. Long and short forms are both accepted
// for --config/-c and --port/-p.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configPath, port, logLevel, dsn, natsURL, backend string
	)
	fs.StringVar(&configPath, "config", "", "path to YAML config")
	fs.StringVar(&configPath, "c", "", "path to YAML config (shorthand)")
	fs.StringVar(&port, "port", "", "HTTP port")
	fs.StringVar(&port, "p", "", "HTTP port (shorthand)")
	fs.StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")
	fs.StringVar(&dsn, "dsn", "", "PostgreSQL DSN")
	fs.StringVar(&natsURL, "nats-url", "", "NATS server URL")
	fs.StringVar(&backend, "backend", "", "text backend (litellm|gemini|anthropic)")

	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, fmt.Errorf("parse flags: %w", err)
	}

	var flags CLIFlags
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config", "c":
			flags.ConfigPath = &configPath
		case "port", "p":
			flags.Port = &port
		case "log-level":
			flags.LogLevel = &logLevel
		case "dsn":
			flags.DSN = &dsn
		case "nats-url":
			flags.NatsURL = &natsURL
		case "backend":
			flags.Backend = &backend
		}
	})
	return flags, nil
}

// LoadWithCLI loads configuration with the hierarchy defaults < YAML < ENV < CLI.
// It returns the resolved YAML path alongside the config.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if p := os.Getenv("AGENTFORGE_CONFIG"); p != "" {
		path = p
	}
	if flags.ConfigPath != nil {
		path = *flags.ConfigPath
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		return nil, path, fmt.Errorf("config yaml: %w", err)
	}
	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, path, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, path, nil
}

func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.DSN != nil {
		cfg.Postgres.DSN = *flags.DSN
	}
	if flags.NatsURL != nil {
		cfg.NATS.URL = *flags.NatsURL
	}
	if flags.Backend != nil {
		cfg.Backend.Text = *flags.Backend
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	cfhttp "github.com/Strob0t/AgentForge/internal/adapter/http"
	cfmcp "github.com/Strob0t/AgentForge/internal/adapter/mcp"
	cfotel "github.com/Strob0t/AgentForge/internal/adapter/otel"
	"github.com/Strob0t/AgentForge/internal/adapter/ws"
	"github.com/Strob0t/AgentForge/internal/config"
	"github.com/Strob0t/AgentForge/internal/logger"
	"github.com/Strob0t/AgentForge/internal/middleware"
)

// Orchestrations routinely outlive the usual API write deadline.
const (
	writeTimeout    = 15 * time.Minute
	shutdownTimeout = 30 * time.Second
	limiterSweep    = time.Minute
	limiterMaxIdle  = 10 * time.Minute
)

// loadConfig parses flags, loads configuration and installs the default logger.
func loadConfig(args []string) (*config.Config, logger.Closer, error) {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	cfg, path, err := config.LoadWithCLI(flags)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log, closer := logger.New(cfg.Logging)
	slog.SetDefault(log)
	slog.Info("config loaded",
		"file", path,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"backend_text", cfg.Backend.Text,
		"backend_image", cfg.Backend.Image,
	)
	return cfg, closer, nil
}

func serve(args []string) error {
	bootedAt := time.Now()
	cfg, logCloser, err := loadConfig(args)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	otelShutdown, err := cfotel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(sctx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()
	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Core ---
	c, err := buildCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.close()
	c.failStaleSessions(ctx, bootedAt)

	hub := ws.NewHub([]string{cfg.Server.CORSOrigin})
	defer hub.Close()
	c.orchestrator.SetBroadcaster(hub)
	c.orchestrator.SetMetrics(metrics)

	if cfg.Workflows.Watch {
		go func() {
			if err := c.workflows.Watch(ctx); err != nil {
				slog.Error("workflow watcher stopped", "error", err)
			}
		}()
	}

	// --- HTTP ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(cfotel.HTTPMiddleware(cfg.OTel.ServiceName))
	r.Use(chimw.RealIP)
	r.Use(cfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cfhttp.SecurityHeaders)

	r.Get("/ws", hub.HandleWS)

	var orchestrateMW []func(http.Handler) http.Handler
	if cfg.Server.RateLimit > 0 {
		rl := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, middleware.RemoteIP)
		rl.StartCleanup(ctx, limiterSweep, limiterMaxIdle)
		orchestrateMW = append(orchestrateMW, rl.Handler)
	}
	orchestrateMW = append(orchestrateMW, middleware.Idempotency(c.cache, cfg.Server.IdempotencyTTL))

	cfhttp.MountRoutes(r, &cfhttp.Handlers{
		Orchestrator: c.orchestrator,
		Catalog:      c.catalog,
		Workflows:    c.workflows,
		HealthChecks: c.checks,
		Version:      version,
	}, orchestrateMW...)

	if cfg.MCP.Enabled {
		mcpSrv := cfmcp.NewServer(cfmcp.ServerConfig{
			Name:    "agentforge",
			Version: version,
			Path:    cfg.MCP.Path,
			APIKey:  cfg.MCP.APIKey,
		}, cfmcp.ServerDeps{
			Orchestrator: c.orchestrator,
			Catalog:      c.catalog,
		})
		r.Handle(mcpSrv.Path(), mcpSrv.Handler())
		slog.Info("mcp server mounted", "path", mcpSrv.Path(), "auth", cfg.MCP.APIKey != "")
	}

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

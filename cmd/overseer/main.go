package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/overseer-hq/overseer/internal/adapter/anthropic"
	"github.com/overseer-hq/overseer/internal/adapter/filestore"
	"github.com/overseer-hq/overseer/internal/adapter/fscontext"
	ovhttp "github.com/overseer-hq/overseer/internal/adapter/http"
	"github.com/overseer-hq/overseer/internal/adapter/mcpcontext"
	ovnats "github.com/overseer-hq/overseer/internal/adapter/nats"
	"github.com/overseer-hq/overseer/internal/adapter/openai"
	"github.com/overseer-hq/overseer/internal/adapter/otel"
	"github.com/overseer-hq/overseer/internal/adapter/postgres"
	ovristretto "github.com/overseer-hq/overseer/internal/adapter/ristretto"
	"github.com/overseer-hq/overseer/internal/adapter/ws"
	"github.com/overseer-hq/overseer/internal/config"
	"github.com/overseer-hq/overseer/internal/domain/delegation"
	"github.com/overseer-hq/overseer/internal/logger"
	"github.com/overseer-hq/overseer/internal/middleware"
	"github.com/overseer-hq/overseer/internal/port/cache"
	"github.com/overseer-hq/overseer/internal/port/contextprovider"
	"github.com/overseer-hq/overseer/internal/port/messagequeue"
	portpr "github.com/overseer-hq/overseer/internal/port/providerruntime"
	"github.com/overseer-hq/overseer/internal/port/statestore"
	"github.com/overseer-hq/overseer/internal/resilience"
	"github.com/overseer-hq/overseer/internal/secrets"
	"github.com/overseer-hq/overseer/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer func() { _ = logCloser.Close() }()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"store_backend", cfg.Store.Backend,
		"log_level", cfg.Logging.Level,
	)

	ctx := context.Background()

	// --- Telemetry ---
	shutdownOtel, err := otel.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOtel(shutdownCtx)
	}()

	var metrics *otel.Metrics
	if cfg.Telemetry.Enabled {
		metrics, err = otel.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	// --- Document store ---
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stateSvc := service.NewStateService(store)
	if err := stateSvc.Open(ctx, time.Now().UTC()); err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer func() { _ = stateSvc.Close() }()

	// --- Message queue (optional) ---
	var queue messagequeue.Queue
	if cfg.NATS.URL != "" {
		q, err := ovnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = q.Close() }()
		queue = q
	}

	// --- Context providers ---
	providers := contextprovider.NewRegistry()
	providers.Register(fscontext.New("."))
	for _, mcp := range cfg.MCP {
		providers.Register(mcpcontext.New(mcpcontext.Config{
			ID:         mcp.ID,
			Transport:  mcpcontext.TransportType(mcp.Transport),
			Command:    mcp.Command,
			Args:       mcp.Args,
			Env:        mcp.Env,
			URL:        mcp.URL,
			Headers:    mcp.Headers,
			SearchTool: mcp.SearchTool,
			Timeout:    mcp.Timeout,
		}))
	}

	var retrievalCache cache.Cache
	if cfg.Retrieval.CacheSizeMB > 0 {
		c, err := ovristretto.New(cfg.Retrieval.CacheSizeMB << 20)
		if err != nil {
			return fmt.Errorf("retrieval cache: %w", err)
		}
		defer c.Close()
		retrievalCache = c
	}
	contextSvc := service.NewContextService(providers, retrievalCache, cfg.Retrieval)

	// Keys stored via "overseer admin set-key" back the env vars.
	loadStoredKeys(cfg)

	// --- Provider runtimes ---
	runtimes := portpr.NewRegistry()

	anthropicClient := anthropic.NewClient(cfg.Runtime.AnthropicBaseURL, cfg.Runtime.AnthropicVersion, cfg.Runtime.Timeout)
	anthropicClient.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
	runtimes.Register(anthropicClient)

	openaiClient := openai.NewClient(cfg.Runtime.OpenAIBaseURL, cfg.Runtime.Timeout)
	openaiClient.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
	runtimes.Register(openaiClient)

	runtimeSvc := service.NewRuntimeService(runtimes, cfg.Runtime)

	// --- Services ---
	hub := ws.NewHub()
	orchestrator := service.NewOrchestratorService(stateSvc, contextSvc, runtimeSvc,
		delegation.NewEngine(delegation.PromptKeywordPolicy{}), hub, queue, metrics)

	handlers := &ovhttp.Handlers{
		Orchestrator: orchestrator,
		Context:      contextSvc,
		Runtime:      runtimeSvc,
		Spaces:       service.NewSpaceService(stateSvc),
		Sessions:     service.NewSessionService(stateSvc),
		Hub:          hub,
	}

	// --- HTTP ---
	r := chi.NewRouter()

	r.Use(ovhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(ovhttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(ovhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	if cfg.Telemetry.Enabled {
		r.Use(otel.HTTPMiddleware(cfg.Telemetry.ServiceName))
	}

	r.Get("/health", handlers.Health)
	r.Get("/ws", hub.HandleWS)
	ovhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// loadStoredKeys fills in API keys from the admin key files when the
// environment did not provide them.
func loadStoredKeys(cfg *config.Config) {
	if cfg.Runtime.AnthropicAPIKey != "" && cfg.Runtime.OpenAIAPIKey != "" {
		return
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	vault, err := secrets.NewVault(secrets.FileLoader(filepath.Join(home, ".overseer"), "anthropic", "openai"))
	if err != nil {
		slog.Warn("stored key load failed", "error", err)
		return
	}
	if cfg.Runtime.AnthropicAPIKey == "" {
		cfg.Runtime.AnthropicAPIKey = vault.Get("anthropic")
	}
	if cfg.Runtime.OpenAIAPIKey == "" {
		cfg.Runtime.OpenAIAPIKey = vault.Get("openai")
	}
}

// openStore selects the document store backend from config.
func openStore(ctx context.Context, cfg *config.Config) (statestore.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		slog.Info("postgres store ready")
		return postgres.NewStore(pool), nil

	default: // "file", enforced by config validation
		slog.Info("file store ready", "path", cfg.Store.Path)
		return filestore.New(cfg.Store.Path), nil
	}
}

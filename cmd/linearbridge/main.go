package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	_ "github.com/loopkit/linearbridge/internal/adapter/anthropic"
	bridgehttp "github.com/loopkit/linearbridge/internal/adapter/http"
	"github.com/loopkit/linearbridge/internal/adapter/linearapi"
	_ "github.com/loopkit/linearbridge/internal/adapter/openai"
	"github.com/loopkit/linearbridge/internal/adapter/otel"
	"github.com/loopkit/linearbridge/internal/adapter/postgres"
	"github.com/loopkit/linearbridge/internal/adapter/ristretto"
	_ "github.com/loopkit/linearbridge/internal/adapter/telegram"
	"github.com/loopkit/linearbridge/internal/agent"
	"github.com/loopkit/linearbridge/internal/config"
	"github.com/loopkit/linearbridge/internal/dispatch"
	"github.com/loopkit/linearbridge/internal/logger"
	"github.com/loopkit/linearbridge/internal/middleware"
	"github.com/loopkit/linearbridge/internal/port/backend"
	"github.com/loopkit/linearbridge/internal/port/notifier"
	"github.com/loopkit/linearbridge/internal/port/sink"
	"github.com/loopkit/linearbridge/internal/resilience"
	"github.com/loopkit/linearbridge/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-admin-key" {
		if err := runHashAdminKey(os.Args[2:]); err != nil {
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
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"backend", cfg.Backend.Provider,
		"variant", cfg.Backend.Variant,
	)

	ctx := context.Background()

	// --- Observability ---
	otelShutdown, err := otel.Init(ctx, cfg.Logging.Service, cfg.Otel.Endpoint)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	cache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cache.Close()

	// --- Linear side ---
	oauth := linearapi.NewOAuth(cfg.Linear.ClientID, cfg.Linear.ClientSecret, cfg.Linear.RedirectURI)

	tokenStore := postgres.NewTokenStore(pool, cfg.Tokens.EncryptionSecret)
	tokenSvc := service.NewTokenService(tokenStore, cache, oauth,
		cfg.Tokens.RefreshMargin, cfg.Tokens.CacheTTL, log)

	newBreaker := func() *resilience.Breaker {
		return resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	}

	sinkFor := func(credential string) sink.Sink {
		c := linearapi.NewClient(cfg.Linear.APIURL, credential)
		c.SetBreaker(newBreaker())
		return c
	}

	resolveWorkspace := func(ctx context.Context, accessToken string) (string, error) {
		return linearapi.NewClient(cfg.Linear.APIURL, accessToken).OrganizationID(ctx)
	}

	// --- LLM backend ---
	llm, err := backend.New(cfg.Backend.Provider, map[string]string{
		"base_url": cfg.Backend.BaseURL,
		"api_key":  cfg.Backend.APIKey,
		"model":    cfg.Backend.Model,
	})
	if err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if b, ok := llm.(interface{ SetBreaker(*resilience.Breaker) }); ok {
		b.SetBreaker(newBreaker())
	}

	// --- Agent core ---
	router := agent.NewRouter(agent.RouterConfig{
		Variant:     backend.Variant(cfg.Backend.Variant),
		Persona:     cfg.Backend.Persona,
		MaxTurns:    cfg.Backend.MaxTurns,
		CallTimeout: cfg.Backend.CallTimeout,
	}, tokenSvc, sinkFor, llm)
	router.Metrics = metrics
	router.Log = log

	if cfg.Telegram.BotToken != "" {
		notify, err := notifier.New("telegram", map[string]string{
			"bot_token": cfg.Telegram.BotToken,
			"chat_id":   cfg.Telegram.ChatID,
		})
		if err != nil {
			return fmt.Errorf("notifier: %w", err)
		}
		router.Notifier = notify
	}

	runner := dispatch.NewRunner(cfg.Dispatch.MaxConcurrent, log)
	webhookSvc := service.NewWebhookService(router.Route, runner, log)
	oauthSvc := service.NewOAuthService(oauth, cache, tokenSvc, resolveWorkspace, log)

	// --- HTTP ---
	handlers := &bridgehttp.Handlers{
		Webhook: webhookSvc,
		OAuth:   oauthSvc,
		Ready:   pool.Ping,
		Cfg:     cfg,
		Log:     log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))

	bridgehttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	// Let in-flight sessions finish before the process exits.
	if err := runner.Shutdown(shutdownCtx); err != nil {
		slog.Warn("dispatch drain incomplete", "error", err)
	}
	return nil
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leadloop/quill/internal/api"
	"github.com/leadloop/quill/internal/bus"
	"github.com/leadloop/quill/internal/config"
	"github.com/leadloop/quill/internal/generator"
	"github.com/leadloop/quill/internal/llm"
	"github.com/leadloop/quill/internal/prompt"
	"github.com/leadloop/quill/internal/records"
	"github.com/leadloop/quill/internal/review"
	"github.com/leadloop/quill/internal/scenario"
	"github.com/leadloop/quill/internal/store"
	"github.com/leadloop/quill/internal/together"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("quill starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Together AI client
	if cfg.TogetherAPIKey == "" {
		slog.Error("TOGETHER_API_KEY is required")
		os.Exit(1)
	}
	apiClient := together.NewClient(cfg.TogetherAPIKey)
	slog.Info("together client ready", "model", cfg.TogetherModel)

	// db-select collaborator
	if cfg.DBSelectURL == "" {
		slog.Error("DBSELECT_URL is required")
		os.Exit(1)
	}
	rec := records.NewClient(cfg.DBSelectURL, slog.Default())

	// Pipeline components
	responder := llm.NewResponder(apiClient, cfg.TogetherModel, db, slog.Default())
	catalog := prompt.NewCatalog(rec, slog.Default())
	gate := review.NewGate(responder, db, slog.Default())
	selector := scenario.NewSelector(responder, slog.Default())
	gen := generator.New(rec, gate, selector, catalog, responder, slog.Default())

	// NATS (optional — quill serves HTTP-only without it)
	var busClient *bus.Client
	if cfg.NatsURL != "" {
		busClient, err = bus.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer busClient.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)

		handler := bus.NewHandler(gen, rec, db, busClient, slog.Default())
		if err := busClient.Subscribe(bus.SubjectEmailReceived, handler.HandleEmailReceived); err != nil {
			slog.Error("failed to subscribe to email events", "error", err)
			os.Exit(1)
		}

		if err := busClient.Publish(bus.SubjectRegistered, map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
			"model":     cfg.TogetherModel,
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	} else {
		slog.Warn("NATS not configured — running HTTP-only")
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, gen, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("quill ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("quill stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

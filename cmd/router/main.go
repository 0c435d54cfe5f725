package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/queuewise/router/internal/api"
	"github.com/queuewise/router/internal/config"
	"github.com/queuewise/router/internal/events"
	"github.com/queuewise/router/internal/predictor"
	"github.com/queuewise/router/internal/router"
	"github.com/queuewise/router/internal/scoring"
	"github.com/queuewise/router/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// .env is optional; real deployments set QR_ vars directly
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Logging.Level)}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// NATS (optional)
	var eventsClient events.Client
	if cfg.NATS.Enabled && cfg.NATS.URL != "" {
		ec, err := events.NewNATSClient(ctx, cfg.NATS.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to nats, running without events", "error", err)
		} else {
			eventsClient = ec
			defer ec.Close()
			logger.Info("connected to nats")
		}
	}

	// Model service
	var model predictor.Predictor
	var modelClient *predictor.HTTPClient
	if cfg.Model.URL != "" {
		modelClient = predictor.NewHTTPClient(cfg.Model.URL, "", cfg.ModelTimeout())
		model = modelClient
	} else {
		logger.Warn("no model service configured, scoring with heuristic only")
	}

	// Routing engine
	builder := scoring.NewBuilder(model, cfg.Routing.ScoreWorkers, cfg.PairTimeout(), logger)
	resolver := router.NewResolver(cfg.Routing.TieBreakThreshold)
	orch := router.NewOrchestrator(db, builder, resolver, model, eventsClient, cfg.WaitTickInterval(), logger)
	orch.Start(ctx)
	defer orch.Stop()
	logger.Info("routing engine started",
		"tie_break_threshold", cfg.Routing.TieBreakThreshold,
		"score_workers", cfg.Routing.ScoreWorkers,
		"wait_tick", cfg.WaitTickInterval())

	// API server
	handler := api.NewRouter(db, orch, modelClient, eventsClient, cfg.Server.AdminToken, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

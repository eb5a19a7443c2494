package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	briefingroot "github.com/planner-labs/briefing"
	"github.com/planner-labs/briefing/internal/config"
	"github.com/planner-labs/briefing/internal/handler"
	"github.com/planner-labs/briefing/internal/middleware"
	"github.com/planner-labs/briefing/internal/repository"
	"github.com/planner-labs/briefing/internal/service"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(briefingroot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Open the local snapshot store
	snapshots, err := repository.OpenSnapshotStore(cfg.SnapshotDBPath, config.SnapshotRetention)
	if err != nil {
		slog.Error("failed to open snapshot store", "error", err)
		os.Exit(1)
	}
	defer snapshots.Close()

	// Initialize services
	briefings := repository.NewBriefingRepository(pool)
	sessionService := service.NewSessionService(snapshots)
	chatService := service.NewChatService(cfg)
	analysisService := service.NewAnalysisService(chatService, cfg)
	transcriptionService := service.NewTranscriptionService(cfg)
	storageService := service.NewStorageService(cfg)
	persistenceService := service.NewPersistenceService(briefings, snapshots, sessionService, analysisService)
	orchestrator := service.NewOrchestrator(
		sessionService,
		snapshots,
		persistenceService,
		chatService,
		transcriptionService,
		storageService,
	)

	// Build the HTTP surface
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		middleware.Recover(),
		middleware.Logging(),
		middleware.CORS(cfg.AllowedOrigins),
	)

	h := handler.New(handler.Deps{
		Cfg:          cfg,
		Orchestrator: orchestrator,
		Persistence:  persistenceService,
		Transcribe:   transcriptionService,
		Storage:      storageService,
	})
	h.Register(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		slog.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	slog.Info("server stopped gracefully")
}

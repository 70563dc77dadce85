package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hirelab/crucible/internal/config"
	"github.com/hirelab/crucible/internal/database"
	"github.com/hirelab/crucible/internal/event"
	"github.com/hirelab/crucible/internal/handler"
	"github.com/hirelab/crucible/internal/llm"
	"github.com/hirelab/crucible/internal/model"
	"github.com/hirelab/crucible/internal/notify"
	"github.com/hirelab/crucible/internal/pipeline"
	"github.com/hirelab/crucible/internal/scheduler"
	"github.com/hirelab/crucible/internal/search"
	"github.com/hirelab/crucible/internal/service"
	"github.com/hirelab/crucible/internal/worker"
	"github.com/hirelab/crucible/pkg/middleware"
	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func main() {
	// Load configuration (fails fast on missing credentials)
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	config.InitLogger(cfg)

	slog.Info("Starting Crucible Assessment Service", "version", version, "config", cfg.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure the output directory exists before any job runs
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		slog.Error("Failed to create output directory", "error", err)
		os.Exit(1)
	}

	// Load the crew manifest
	manifest, err := pipeline.LoadManifest(cfg.ManifestPath)
	if err != nil {
		slog.Error("Failed to load crew manifest", "error", err)
		os.Exit(1)
	}

	// Connect to MongoDB when archiving is enabled
	var db *database.MongoDB
	var archiveRepo *database.ArchiveRepository
	if cfg.ArchiveEnabled() {
		db, err = database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			slog.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := db.Disconnect(context.Background()); err != nil {
				slog.Error("Failed to disconnect from MongoDB", "error", err)
			}
		}()

		if err := database.CreateIndexes(ctx, db); err != nil {
			slog.Error("Failed to create indexes", "error", err)
			os.Exit(1)
		}

		archiveRepo = database.NewArchiveRepository(db)
	} else {
		slog.Info("Job archive is disabled (MONGO_URI not set)")
	}

	// Initialize outbound clients. LLM completions run for minutes, so
	// the LLM client gets its own generous timeout.
	llmClient := llm.NewClient(
		cfg.LLMBaseURL,
		cfg.LLMAPIKey,
		cfg.LLMModel,
		cfg.LLMTemperature,
		service.NewHTTPClient(cfg.PipelineTimeout),
	)
	searchClient := search.NewClient(
		cfg.GoogleAPIKey,
		cfg.GoogleCSEID,
		cfg.SearchResults,
		cfg.SearchMonths,
		service.NewHTTPClient(30*time.Second),
	)
	if !searchClient.Enabled() {
		slog.Info("Google Custom Search is disabled, research degrades to model knowledge")
	}

	// Initialize the pipeline runner
	crew := pipeline.NewCrew(llmClient, searchClient, manifest, cfg.CompanyName, cfg.OutputDir)

	// Optional completion webhook
	var notifier service.Notifier
	if cfg.WebhookURL != "" {
		notifier = notify.NewDispatcher(cfg.WebhookURL, notify.RetryPolicy{
			MaxAttempts:  cfg.WebhookMaxAttempts,
			InitialDelay: cfg.WebhookInitialDelay,
			MaxDelay:     cfg.WebhookMaxDelay,
			Multiplier:   cfg.WebhookMultiplier,
		}, service.NewHTTPClient(cfg.WebhookTimeout))
	}

	var archiver service.Archiver
	if archiveRepo != nil {
		archiver = archiveRepo
	}

	// Initialize the job manager and its worker pool
	store := model.NewJobStore()
	bus := event.NewBus()
	pool := worker.NewPool(cfg.WorkerCount, cfg.QueueSize)
	pool.Start()

	manager := service.NewManager(store, pool, bus, crew, cfg.PipelineTimeout, archiver, notifier)

	// Retention sweeper
	sweeper, err := scheduler.NewSweeper(store, cfg.RetentionMaxAge, cfg.RetentionSchedule)
	if err != nil {
		slog.Error("Failed to create retention sweeper", "error", err)
		os.Exit(1)
	}
	sweeper.Start(ctx)

	// Initialize handlers
	generateHandler := handler.NewGenerateHandler(manager)
	jobHandler := handler.NewJobHandler(manager, bus)
	agentsHandler := handler.NewAgentsHandler(manifest)
	artifactHandler := handler.NewArtifactHandler(cfg.OutputDir)
	archiveHandler := handler.NewArchiveHandler(archiveRepo)
	healthHandler := handler.NewHealthHandler(db, version)

	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	}

	router := handler.NewRouter(
		generateHandler,
		jobHandler,
		agentsHandler,
		artifactHandler,
		archiveHandler,
		healthHandler,
		corsConfig,
	)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Run the server and the signal watcher together
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigChan:
			slog.Info("Received shutdown signal, initiating graceful shutdown")
		case <-gctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		// Stop the sweeper, drain queued jobs, then close the server
		slog.Info("Stopping retention sweeper...")
		sweeper.Stop()

		slog.Info("Stopping worker pool...")
		pool.Stop()

		slog.Info("Shutting down HTTP server...")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Service exited with error", "error", err)
		os.Exit(1)
	}

	slog.Info("Crucible Assessment Service stopped")
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lmeira/carteira-core/internal/aggregator"
	"github.com/lmeira/carteira-core/internal/api"
	"github.com/lmeira/carteira-core/internal/apperrors"
	"github.com/lmeira/carteira-core/internal/benchmark"
	"github.com/lmeira/carteira-core/internal/config"
	"github.com/lmeira/carteira-core/internal/database"
	"github.com/lmeira/carteira-core/internal/fetch"
	"github.com/lmeira/carteira-core/internal/ledger"
	"github.com/lmeira/carteira-core/internal/repository"
	"github.com/lmeira/carteira-core/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	logger.Info("Connected to database", zap.String("path", cfg.Database.Path))

	// Create repositories
	positionRepo := repository.NewPositionRepository(db)
	dividendRepo := repository.NewDividendRepository(db)
	settingsRepo, err := repository.NewSettingsRepository(db, cfg.Provider.FernetKey)
	if err != nil {
		logger.Fatal("Failed to create settings repository", zap.Error(err))
	}

	// Quote provider client, with the stored API token when one exists
	clientOpts := []yahoo.Option{yahoo.WithBaseURL(cfg.Provider.BaseURL)}
	token, err := settingsRepo.ProviderToken()
	switch {
	case err == nil:
		clientOpts = append(clientOpts, yahoo.WithToken(token))
	case errors.Is(err, apperrors.ErrSettingNotFound), errors.Is(err, apperrors.ErrMissingFernetKey):
		logger.Info("No provider token configured, using anonymous access")
	default:
		logger.Fatal("Failed to load provider token", zap.Error(err))
	}
	quoteClient := yahoo.NewClient(clientOpts...)

	// Device-adaptive fetch strategies, classified once per process. The
	// resilient per-ticker path is selected per portfolio profile.
	fetchOpts := fetch.Options{
		CombinedTimeout: cfg.Fetch.CombinedTimeout,
		GroupSize:       cfg.Fetch.GroupSize,
		GroupPacing:     cfg.Fetch.GroupPacing,
		VariantTimeout:  cfg.Fetch.VariantTimeout,
	}
	strategy := fetch.ForDevice(cfg.Fetch.DeviceClass, false, quoteClient, fetchOpts, logger)
	resilientStrategy := fetch.ForDevice(cfg.Fetch.DeviceClass, true, quoteClient, fetchOpts, logger)

	dividendLedger := ledger.New(dividendRepo)
	benchmarkResolver := benchmark.New(quoteClient, cfg.Benchmark.Symbol, logger)

	agg := aggregator.New(positionRepo, dividendLedger, benchmarkResolver, strategy, aggregator.Options{
		TTL:               cfg.Cache.TTL,
		HealInterval:      cfg.Cache.HealInterval,
		HealThreshold:     cfg.Cache.HealThreshold,
		ResilientStrategy: resilientStrategy,
	}, logger)
	defer agg.Close()

	if err := agg.StartHealer(); err != nil {
		logger.Fatal("Failed to start self-healing watcher", zap.Error(err))
	}

	// Create router
	router := api.NewRouter(db, positionRepo, agg, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

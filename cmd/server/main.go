package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/compass/internal/config"
	"github.com/aristath/compass/internal/database"
	"github.com/aristath/compass/internal/modules/attribution"
	"github.com/aristath/compass/internal/modules/factors"
	"github.com/aristath/compass/internal/modules/history"
	"github.com/aristath/compass/internal/modules/optimization"
	"github.com/aristath/compass/internal/modules/risk"
	"github.com/aristath/compass/internal/scheduler"
	"github.com/aristath/compass/internal/server"
	"github.com/aristath/compass/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootstrapLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootstrapLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Compass analytics service")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Data layer
	historyService := history.NewService(db.Conn(), log)

	// Factor analysis
	loadingsRepo := factors.NewLoadingsRepository(db.Conn(), log)
	if err := loadingsRepo.Refresh(); err != nil {
		log.Warn().Err(err).Msg("Failed to warm factor loadings cache")
	}
	builder := factors.NewBuilder(historyService, loadingsRepo, cfg.LookbackDays, log)
	estimator := factors.NewEstimator(loadingsRepo, log)
	styleAnalyzer := factors.NewStyleAnalyzer(log)

	// Risk and attribution
	riskCalculator := risk.NewCalculator(log)
	attributionAnalyzer := attribution.NewAnalyzer(log)

	// Optimization
	optimizer := optimization.NewOptimizer(log)
	frontierGen := optimization.NewFrontierGenerator(cfg.FrontierPoints, log)

	// Background jobs
	sched := scheduler.New(log)
	refreshJob := factors.NewRefreshJob(builder, func() []string {
		symbols, err := historyService.TrackedSymbols()
		if err != nil {
			log.Error().Err(err).Msg("Failed to list tracked symbols")
			return nil
		}
		return symbols
	})
	if err := sched.AddJob(cfg.RefreshCron, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register loadings refresh job")
	}
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DevMode: cfg.DevMode,

		Factors:      factors.NewHandler(estimator, styleAnalyzer, log),
		Risk:         risk.NewHandler(riskCalculator, log),
		Attribution:  attribution.NewHandler(attributionAnalyzer, log),
		Optimization: optimization.NewHandler(optimizer, frontierGen, log),
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

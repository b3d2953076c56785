package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/crmdata/vertical-affinity/internal/config"
	"github.com/crmdata/vertical-affinity/internal/database"
	"github.com/crmdata/vertical-affinity/internal/database/repositories"
	"github.com/crmdata/vertical-affinity/internal/domain"
	"github.com/crmdata/vertical-affinity/internal/modules/community"
	"github.com/crmdata/vertical-affinity/internal/modules/monitoring"
	"github.com/crmdata/vertical-affinity/internal/pipeline"
	"github.com/crmdata/vertical-affinity/internal/scheduler"
	"github.com/crmdata/vertical-affinity/internal/server"
	"github.com/crmdata/vertical-affinity/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		errLog := logger.New(logger.Config{Level: "error"})
		errLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting vertical affinity service")

	// Scoring configuration: fixed vertical set, weight template,
	// imputation and assignment policies.
	scoringCfg := domain.DefaultScoringConfig()
	scoringCfg.ScoreFloor = cfg.ScoreFloor
	if err := scoringCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid scoring configuration")
	}

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := monitoring.NewMetrics(registry)

	// Repositories
	conn := db.Conn()
	memberRepo := repositories.NewMemberRepository(conn, log)
	digitalRepo := repositories.NewDigitalRepository(conn, log)
	communityRepo := repositories.NewCommunityRepository(conn, community.NewDefaultCategorizer(), log)
	rfmRepo := repositories.NewRFMRepository(conn, log)
	truthRepo := repositories.NewGroundTruthRepository(conn, log)
	resultsRepo := repositories.NewResultsRepository(conn, log)

	// Pipeline service
	pipelineSvc := pipeline.NewService(pipeline.Deps{
		Config:     cfg,
		ScoringCfg: scoringCfg,
		Members:    memberRepo,
		Digital:    digitalRepo,
		Community:  communityRepo,
		RFM:        rfmRepo,
		Truth:      truthRepo,
		Results:    resultsRepo,
		Metrics:    metrics,
		Log:        log,
	})

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	if err := sched.AddJob(cfg.CronSchedule, pipeline.NewJob(pipelineSvc)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register pipeline job")
	}

	if cfg.RunOnStart {
		go func() {
			if _, err := pipelineSvc.Run(context.Background()); err != nil {
				log.Error().Err(err).Msg("Startup pipeline run failed")
			}
		}()
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:     cfg.Port,
		Log:      log,
		Pipeline: pipelineSvc,
		Results:  resultsRepo,
		Registry: registry,
		DevMode:  cfg.DevMode,
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

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

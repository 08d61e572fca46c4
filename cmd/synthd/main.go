// Package main provides the entry point of the synthesis daemon.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/labsonar/synthesis/internal/config"
	"github.com/labsonar/synthesis/internal/dataset"
	"github.com/labsonar/synthesis/internal/gossip"
	"github.com/labsonar/synthesis/internal/job"
	"github.com/labsonar/synthesis/internal/metrics"
	"github.com/labsonar/synthesis/internal/server"
	"github.com/labsonar/synthesis/internal/synth"
	"github.com/labsonar/synthesis/internal/util/workerpool"
	"github.com/labsonar/synthesis/internal/validation"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := initLogger()
	defer logger.Sync()

	logger.Info("starting synthesis daemon")

	path := *configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./config.yaml"
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("node_id", cfg.Server.NodeID),
		zap.Int("server_port", cfg.Server.Port),
		zap.String("dataset_root", cfg.Dataset.Root))

	if err := os.MkdirAll(cfg.Dataset.Root, 0755); err != nil {
		logger.Fatal("failed to create dataset root", zap.Error(err))
	}

	m := metrics.NewMetrics(cfg.Server.NodeID)

	guard, err := dataset.NewDiskGuard(&dataset.DiskGuardConfig{
		Root:              cfg.Dataset.Root,
		CheckInterval:     cfg.Dataset.CheckInterval,
		WarningThreshold:  cfg.Dataset.WarningThreshold,
		ThrottleThreshold: cfg.Dataset.ThrottleThreshold,
		StopThreshold:     cfg.Dataset.StopThreshold,
	}, logger)
	if err != nil {
		logger.Fatal("failed to initialize disk guard", zap.Error(err))
	}

	writer, err := dataset.NewWriter(cfg.Dataset.Root, guard, logger)
	if err != nil {
		logger.Fatal("failed to initialize dataset writer", zap.Error(err))
	}

	pool := workerpool.New(&workerpool.Config{
		Name:       "render",
		MaxWorkers: cfg.Workers.MaxWorkers,
		QueueSize:  cfg.Workers.QueueSize,
		Logger:     logger,
	})

	renderer := synth.NewRenderer(&synth.Config{FPS: cfg.Synthesis.TrackFPS}, logger)
	validator := validation.NewValidatorWithLimits(
		cfg.Synthesis.MaxDurationSeconds,
		cfg.Synthesis.MaxSampleRate,
		cfg.Synthesis.MaxHydrophones,
		cfg.Synthesis.MaxShips,
	)

	jobs := job.NewService(&job.ServiceConfig{
		TrackFPS:   cfg.Synthesis.TrackFPS,
		JobTimeout: cfg.Synthesis.JobTimeout,
		MaxDraft:   cfg.Synthesis.MaxDraftMeters,
	}, pool, renderer, writer, validator, m, logger)

	var gossipSvc *gossip.Service
	if cfg.Gossip.Enabled {
		gossipSvc, err = gossip.NewService(&gossip.Config{
			Enabled:        cfg.Gossip.Enabled,
			BindPort:       cfg.Gossip.BindPort,
			SeedNodes:      cfg.Gossip.SeedNodes,
			GossipInterval: cfg.Gossip.GossipInterval,
			ProbeTimeout:   cfg.Gossip.ProbeTimeout,
			ProbeInterval:  cfg.Gossip.ProbeInterval,
		}, cfg.Server.NodeID, m, logger)
		if err != nil {
			logger.Error("failed to initialize gossip service", zap.Error(err))
		} else {
			defer gossipSvc.Shutdown()
			logger.Info("gossip service initialized")
		}
	}

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = server.NewMetricsServer(&server.MetricsServerConfig{
			Port: cfg.Metrics.Port,
			Path: cfg.Metrics.Path,
		}, m, jobs, guard, gossipSvc, logger)
		metricsServer.Start()
		logger.Info("metrics server started",
			zap.Int("port", cfg.Metrics.Port),
			zap.String("path", cfg.Metrics.Path))
	}

	apiServer := server.NewServer(cfg, jobs, writer, guard, m, logger)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("initiating graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown API server", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error("failed to stop metrics server", zap.Error(err))
		}
	}
	if err := pool.Stop(cfg.Server.ShutdownTimeout); err != nil {
		logger.Error("failed to stop worker pool", zap.Error(err))
	}

	logger.Info("synthesis daemon shutdown complete")
}

// initLogger initializes the zap logger.
func initLogger() *zap.Logger {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var level zapcore.Level
	switch logLevel {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var cfg zap.Config
	if os.Getenv("LOG_FORMAT") == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

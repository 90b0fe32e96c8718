package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/inferstack/mlserve/internal/config"
	"github.com/inferstack/mlserve/internal/inference"
	"github.com/inferstack/mlserve/internal/monitor"
	"github.com/inferstack/mlserve/internal/registry"
	"github.com/inferstack/mlserve/internal/server"
	"github.com/inferstack/mlserve/internal/storage/local"
	"github.com/inferstack/mlserve/internal/storage/s3"
	"github.com/inferstack/mlserve/pkg/interfaces"
)

// Build information, injected at link time and surfaced by the /version
// endpoint and the -version flag.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	flags := ParseFlags()

	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if flags.LogLevel != "" {
		cfg.Logging.Level = flags.LogLevel
	}
	if flags.LogFormat != "" {
		cfg.Logging.Format = flags.LogFormat
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger.WithFields(logrus.Fields{
		"version":     Version,
		"commit":      GitCommit,
		"build_date":  BuildDate,
		"environment": cfg.Model.Environment,
	}).Info("Starting model serving runtime")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := newArtifactStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize artifact store")
	}

	modelStore := registry.NewModelStore(store, cfg.Storage.ModelFormat, logger)
	pointers := registry.NewPointerManager(store, modelStore, cfg.Model.Environment, logger)

	state := inference.NewModelState(modelStore, pointers, inference.NewLinearRuntime(), logger)
	buffer := monitor.NewPredictionBuffer(cfg.Monitoring.BufferSize)
	predictor := inference.NewPredictor(state, buffer, logger)

	driftMonitor := monitor.NewDriftMonitor(monitor.MonitorConfig{
		CheckInterval:     cfg.Monitoring.DriftCheckInterval(),
		WindowSize:        cfg.Monitoring.WindowSize,
		PSIThreshold:      cfg.Monitoring.PSIThreshold,
		KSPValueThreshold: cfg.Monitoring.KSPValueThreshold,
	}, buffer, logger)
	state.OnSwap(func(active *inference.ActiveModel) {
		driftMonitor.UpdateBaseline(active.Baseline, active.Version)
	})

	// Load the initial model before taking traffic. A missing pointer is not
	// fatal: the server starts unready and the reload loop picks up the
	// first promotion.
	if _, err := state.Refresh(ctx); err != nil {
		logger.WithError(err).Warn("Initial model load failed; serving unready until reload succeeds")
	}

	scheduler := inference.NewReloadScheduler(state, cfg.Model.ReloadInterval(), logger)
	scheduler.Start(ctx)
	driftMonitor.Start(ctx)

	srv := server.NewServer(cfg, server.Dependencies{
		State:     state,
		Predictor: predictor,
		Buffer:    buffer,
		Monitor:   driftMonitor,
		Pointers:  pointers,
	}, logger)
	server.Version = Version
	server.GitCommit = GitCommit
	server.BuildDate = BuildDate

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	case err := <-errCh:
		logger.WithError(err).Error("Server failed")
	}

	cancel()
	scheduler.Stop()
	driftMonitor.Stop()
	if err := srv.Stop(context.Background()); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
	if err := state.Close(); err != nil {
		logger.WithError(err).Error("Failed to release model handle")
	}

	logger.Info("Server stopped")
}

func newArtifactStore(cfg *config.Config, logger *logrus.Logger) (interfaces.ArtifactStore, error) {
	switch cfg.Storage.Backend {
	case "local":
		return local.NewStore(cfg.Storage.LocalPath, logger)
	default:
		return s3.NewStore(&s3.Config{
			Region:          cfg.Storage.Region,
			Bucket:          cfg.Storage.Bucket,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Endpoint:        cfg.Storage.Endpoint,
		}, logger)
	}
}

func setupLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

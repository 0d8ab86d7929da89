// Package main is the entry point for the interactive terrain viewer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/metrics"
	"github.com/Faultbox/midgard-terrain/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Terrain Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, err := terrain.Generate(ctx, cfg.TerrainOptions(), cfg.Noise, logger.Named("terrain"))
	if err != nil {
		logger.Error("failed to build terrain", zap.Error(err))
		os.Exit(1)
	}
	defer t.Close()

	var observe viewer.FrameObserver
	if cfg.Metrics.Enabled {
		recorder, err := metrics.NewRecorder(prometheus.DefaultRegisterer)
		if err != nil {
			logger.Error("failed to register metrics", zap.Error(err))
			os.Exit(1)
		}
		observe = recorder.Observe
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, prometheus.DefaultGatherer, logger.Named("metrics")); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	v, err := viewer.New(viewer.Config{
		Title:       "Midgard Terrain",
		Width:       cfg.Viewer.Width,
		Height:      cfg.Viewer.Height,
		Fullscreen:  cfg.Viewer.Fullscreen,
		VSync:       cfg.Viewer.VSync,
		FOVDegrees:  cfg.Viewer.FOVDegrees,
		MoveSpeed:   cfg.Viewer.MoveSpeed,
		Wireframe:   cfg.Viewer.Wireframe,
		Sun:         [2]float32{cfg.Viewer.SunAzimuth, cfg.Viewer.SunElevation},
		Noise:       cfg.Noise,
		SnapshotDir: cfg.Viewer.SnapshotDir,
	}, t, observe, logger.Named("viewer"))
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Run(ctx); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

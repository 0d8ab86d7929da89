// Package main runs the terrain LOD structure headless along a scripted
// viewer path and reports what it did.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/lod"
	"github.com/Faultbox/midgard-terrain/internal/metrics"
	"github.com/Faultbox/midgard-terrain/internal/sim"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
		fileCfg.JSON = cfg.Logging.JSON
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Terrain LOD simulation ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("simulation failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	t, err := terrain.Generate(ctx, cfg.TerrainOptions(), cfg.Noise, logger.Named("terrain"))
	if err != nil {
		return fmt.Errorf("building terrain: %w", err)
	}
	defer t.Close()

	runner, err := sim.NewRunner(t, cfg.SimOptions(), logger.Named("sim"))
	if err != nil {
		return err
	}

	recorder, err := metrics.NewRecorder(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	var frames *sim.FrameLog
	if cfg.Sim.FrameLog != "" {
		if frames, err = sim.CreateFrameLog(cfg.Sim.FrameLog); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	simCtx, done := context.WithCancel(gctx)

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return metrics.Serve(simCtx, cfg.Metrics.Addr, prometheus.DefaultGatherer, logger.Named("metrics"))
		})
	}

	var summary sim.Summary
	g.Go(func() error {
		defer done()

		last := time.Now()
		var err error
		summary, err = runner.Run(simCtx, func(f terrain.FrameStats) error {
			now := time.Now()
			recorder.Observe(f, now.Sub(last).Seconds())
			last = now
			if frames != nil {
				return frames.Write(f)
			}
			return nil
		})
		if frames != nil {
			if cerr := frames.Close(); err == nil {
				err = cerr
			}
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("simulation summary",
		zap.String("run_id", summary.RunID),
		zap.Int("frames", summary.Frames),
		zap.Int("splits", summary.Splits),
		zap.Int("joins", summary.Joins),
		zap.Int("split_failures", summary.SplitFailures),
		zap.Int("mesh_swaps", summary.MeshSwaps),
		zap.Int("peak_live_chunks", summary.PeakLiveChunks),
		zap.Any("final_leaves", summary.FinalLeaves),
	)

	if cfg.Sim.ReportJSON != "" {
		if err := sim.WriteJSON(cfg.Sim.ReportJSON, summary); err != nil {
			return err
		}
		logger.Info("summary written", zap.String("path", cfg.Sim.ReportJSON))
	}
	if cfg.Sim.TreePNG != "" {
		if err := debug.WritePNG(cfg.Sim.TreePNG, lod.DrawTree(t.Tree(), 4)); err != nil {
			return err
		}
		logger.Info("tree image written", zap.String("path", cfg.Sim.TreePNG))
	}
	return nil
}

package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagResolution  = flag.Int("resolution", 0, "Heightmap resolution (snapped to 2^k+1)")
	flagChunkSize   = flag.Int("chunk-size", 0, "Level-0 chunk size in cells")
	flagSplitScale  = flag.Float64("split-scale", 0, "LOD split scale (2..5)")
	flagFrames      = flag.Int("frames", -1, "Number of frames to simulate")
	flagPath        = flag.String("path", "", "Viewer path: line, orbit or static")
	flagSeed        = flag.Int64("seed", 0, "Height noise seed")
	flagMetricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	flagWireframe   = flag.Bool("wireframe", false, "Start the viewer in wireframe mode")
	flagReport      = flag.String("report", "", "Write the simulation summary JSON here")
	flagFrameLog    = flag.String("frame-log", "", "Write per-frame stats as JSONL (.zst compresses)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagResolution > 0 {
		cfg.Terrain.FullResolution = *flagResolution
	}
	if *flagChunkSize > 0 {
		cfg.Terrain.BaseChunkSize = *flagChunkSize
	}
	if *flagSplitScale > 0 {
		cfg.Terrain.SplitScale = float32(*flagSplitScale)
	}
	if *flagFrames >= 0 {
		cfg.Sim.Frames = *flagFrames
	}
	if *flagPath != "" {
		cfg.Sim.Path = *flagPath
	}
	if *flagSeed != 0 {
		cfg.Noise.Seed = *flagSeed
	}
	if *flagMetricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = *flagMetricsAddr
	}
	if *flagReport != "" {
		cfg.Sim.ReportJSON = *flagReport
	}
	if *flagFrameLog != "" {
		cfg.Sim.FrameLog = *flagFrameLog
	}
	if *flagWireframe {
		cfg.Viewer.Wireframe = true
	}
}

// Package config handles terrain tool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/heightmap"
	"github.com/Faultbox/midgard-terrain/internal/lod"
	"github.com/Faultbox/midgard-terrain/internal/sim"
)

// Config holds all settings shared by the terrain tools.
type Config struct {
	Terrain TerrainConfig `yaml:"terrain"`
	Noise   NoiseConfig   `yaml:"noise"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Sim     SimConfig     `yaml:"sim"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// TerrainConfig holds LOD structure settings.
type TerrainConfig struct {
	BaseChunkSize     int     `yaml:"base_chunk_size"`
	FullResolution    int     `yaml:"full_resolution"`
	SplitScale        float32 `yaml:"split_scale"`
	PoolCapacity      int     `yaml:"pool_capacity"` // blocks of four nodes, 0 = full tree
	UseVerticalBounds bool    `yaml:"use_vertical_bounds"`
}

// NoiseConfig holds procedural height generation settings.
type NoiseConfig = heightmap.NoiseParams

// ViewerConfig holds interactive viewer settings.
type ViewerConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FOVDegrees float32 `yaml:"fov_degrees"`
	MoveSpeed  float32 `yaml:"move_speed"`
	Wireframe  bool    `yaml:"wireframe"`

	// Sun angles in degrees.
	SunAzimuth   float32 `yaml:"sun_azimuth"`
	SunElevation float32 `yaml:"sun_elevation"`

	// SnapshotDir receives F12 screenshots and F2 tree images.
	SnapshotDir string `yaml:"snapshot_dir"`
}

// SimConfig holds headless simulation settings.
type SimConfig struct {
	Frames     int     `yaml:"frames"`
	Path       string  `yaml:"path"` // line, orbit or static
	Speed      float32 `yaml:"speed"`
	Height     float32 `yaml:"height"` // viewer height above ground
	ReportJSON string  `yaml:"report_json"`
	FrameLog   string  `yaml:"frame_log"` // per-frame JSONL, zstd when it ends in .zst
	TreePNG    string  `yaml:"tree_png"`
}

// MetricsConfig holds Prometheus exporter settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Sim path kinds.
const (
	PathLine   = sim.PathLine
	PathOrbit  = sim.PathOrbit
	PathStatic = sim.PathStatic
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			BaseChunkSize:     16,
			FullResolution:    513,
			SplitScale:        lod.DefaultSplitScale,
			PoolCapacity:      0,
			UseVerticalBounds: true,
		},
		Noise: heightmap.DefaultNoise(),
		Viewer: ViewerConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FOVDegrees: 60,
			MoveSpeed:  40,
			Wireframe:  true,

			SunAzimuth:   60,
			SunElevation: 55,

			SnapshotDir: "snapshots",
		},
		Sim: SimConfig{
			Frames: 600,
			Path:   PathLine,
			Speed:  2,
			Height: 8,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9102",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings the terrain cannot be built with.
func (c *Config) Validate() error {
	var errs []error
	t := c.Terrain
	if t.BaseChunkSize <= 0 || t.BaseChunkSize%2 != 0 {
		errs = append(errs, fmt.Errorf("terrain.base_chunk_size: %w: %d", lod.ErrOddChunkSize, t.BaseChunkSize))
	}
	if t.FullResolution < t.BaseChunkSize {
		errs = append(errs, fmt.Errorf("terrain.full_resolution: %w: %d", lod.ErrInvalidResolution, t.FullResolution))
	}
	if t.PoolCapacity < 0 {
		errs = append(errs, fmt.Errorf("terrain.pool_capacity must not be negative, got %d", t.PoolCapacity))
	}
	switch c.Sim.Path {
	case PathLine, PathOrbit, PathStatic:
	default:
		errs = append(errs, fmt.Errorf("sim.path: unknown path %q", c.Sim.Path))
	}
	if c.Sim.Frames < 0 {
		errs = append(errs, fmt.Errorf("sim.frames must not be negative, got %d", c.Sim.Frames))
	}
	return errors.Join(errs...)
}

// TerrainOptions converts the terrain section to the engine's terrain config.
func (c *Config) TerrainOptions() terrain.Config {
	return terrain.Config{
		BaseChunkSize:     c.Terrain.BaseChunkSize,
		Resolution:        c.Terrain.FullResolution,
		SplitScale:        c.Terrain.SplitScale,
		PoolCapacity:      c.Terrain.PoolCapacity,
		UseVerticalBounds: c.Terrain.UseVerticalBounds,
	}
}

// SimOptions converts the sim section to runner options.
func (c *Config) SimOptions() sim.Options {
	return sim.Options{
		Frames: c.Sim.Frames,
		Path:   c.Sim.Path,
		Speed:  c.Sim.Speed,
		Height: c.Sim.Height,
	}
}

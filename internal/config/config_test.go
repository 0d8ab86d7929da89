package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/midgard-terrain/internal/lod"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Terrain.BaseChunkSize != 16 {
		t.Errorf("expected base chunk size 16, got %d", cfg.Terrain.BaseChunkSize)
	}
	if cfg.Terrain.FullResolution != 513 {
		t.Errorf("expected resolution 513, got %d", cfg.Terrain.FullResolution)
	}
	if cfg.Terrain.SplitScale != 2 {
		t.Errorf("expected split scale 2, got %f", cfg.Terrain.SplitScale)
	}
	if !cfg.Terrain.UseVerticalBounds {
		t.Error("expected vertical bounds to be enabled by default")
	}

	if cfg.Viewer.Width != 1280 || cfg.Viewer.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Viewer.Width, cfg.Viewer.Height)
	}
	if !cfg.Viewer.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Sim.Path != PathLine {
		t.Errorf("expected sim path %q, got %q", PathLine, cfg.Sim.Path)
	}
	if cfg.Metrics.Enabled {
		t.Error("expected metrics to be disabled by default")
	}
	if cfg.Metrics.Addr != ":9102" {
		t.Errorf("expected metrics addr :9102, got %s", cfg.Metrics.Addr)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
terrain:
  base_chunk_size: 32
  full_resolution: 1025
  split_scale: 3.5
  pool_capacity: 64
  use_vertical_bounds: false

noise:
  seed: 42
  amplitude: 120

viewer:
  fullscreen: true
  wireframe: false

sim:
  frames: 50
  path: orbit
  report_json: "frames.jsonl"

metrics:
  enabled: true
  addr: "127.0.0.1:9200"

logging:
  level: "debug"
  log_file: "lod.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Terrain.BaseChunkSize != 32 {
		t.Errorf("expected base chunk size 32, got %d", cfg.Terrain.BaseChunkSize)
	}
	if cfg.Terrain.FullResolution != 1025 {
		t.Errorf("expected resolution 1025, got %d", cfg.Terrain.FullResolution)
	}
	if cfg.Terrain.SplitScale != 3.5 {
		t.Errorf("expected split scale 3.5, got %f", cfg.Terrain.SplitScale)
	}
	if cfg.Terrain.PoolCapacity != 64 {
		t.Errorf("expected pool capacity 64, got %d", cfg.Terrain.PoolCapacity)
	}
	if cfg.Terrain.UseVerticalBounds {
		t.Error("expected vertical bounds to be disabled")
	}

	if cfg.Noise.Seed != 42 || cfg.Noise.Amplitude != 120 {
		t.Errorf("expected seed 42 amplitude 120, got %d %f", cfg.Noise.Seed, cfg.Noise.Amplitude)
	}
	// Fields missing from the file keep their defaults.
	if cfg.Noise.Octaves != 5 {
		t.Errorf("expected default octaves 5, got %d", cfg.Noise.Octaves)
	}
	if cfg.Viewer.Width != 1280 {
		t.Errorf("expected default width 1280, got %d", cfg.Viewer.Width)
	}

	if cfg.Sim.Frames != 50 || cfg.Sim.Path != PathOrbit {
		t.Errorf("expected 50 frames on orbit, got %d on %s", cfg.Sim.Frames, cfg.Sim.Path)
	}
	if cfg.Sim.ReportJSON != "frames.jsonl" {
		t.Errorf("expected report path frames.jsonl, got %s", cfg.Sim.ReportJSON)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != "127.0.0.1:9200" {
		t.Errorf("unexpected metrics config %+v", cfg.Metrics)
	}
	if cfg.Logging.LogFile != "lod.log" {
		t.Errorf("expected log file 'lod.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
terrain:
  base_chunk_size: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		target error
	}{
		{"odd chunk size", func(c *Config) { c.Terrain.BaseChunkSize = 15 }, lod.ErrOddChunkSize},
		{"resolution below chunk", func(c *Config) { c.Terrain.FullResolution = 8 }, lod.ErrInvalidResolution},
		{"negative pool", func(c *Config) { c.Terrain.PoolCapacity = -1 }, nil},
		{"unknown path", func(c *Config) { c.Sim.Path = "spiral" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("config.yaml", []byte("terrain:\n  base_chunk_size: 8\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name: "terrain flags",
			setup: func() {
				*flagResolution = 257
				*flagChunkSize = 8
				*flagSplitScale = 4
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Terrain.FullResolution != 257 {
					t.Errorf("expected resolution 257, got %d", cfg.Terrain.FullResolution)
				}
				if cfg.Terrain.BaseChunkSize != 8 {
					t.Errorf("expected chunk size 8, got %d", cfg.Terrain.BaseChunkSize)
				}
				if cfg.Terrain.SplitScale != 4 {
					t.Errorf("expected split scale 4, got %f", cfg.Terrain.SplitScale)
				}
			},
			teardown: func() {
				*flagResolution = 0
				*flagChunkSize = 0
				*flagSplitScale = 0
			},
		},
		{
			name: "zero frames is honoured",
			setup: func() {
				*flagFrames = 0
				*flagPath = PathStatic
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Sim.Frames != 0 {
					t.Errorf("expected 0 frames, got %d", cfg.Sim.Frames)
				}
				if cfg.Sim.Path != PathStatic {
					t.Errorf("expected static path, got %s", cfg.Sim.Path)
				}
			},
			teardown: func() {
				*flagFrames = -1
				*flagPath = ""
			},
		},
		{
			name:  "metrics addr enables metrics",
			setup: func() { *flagMetricsAddr = ":9999" },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Metrics.Enabled || cfg.Metrics.Addr != ":9999" {
					t.Errorf("unexpected metrics config %+v", cfg.Metrics)
				}
			},
			teardown: func() { *flagMetricsAddr = "" },
		},
		{
			name:  "seed flag",
			setup: func() { *flagSeed = 7 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Noise.Seed != 7 {
					t.Errorf("expected seed 7, got %d", cfg.Noise.Seed)
				}
			},
			teardown: func() { *flagSeed = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
terrain:
  base_chunk_size: 8
  full_resolution: 129
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagResolution = 257
	defer func() {
		*flagConfig = ""
		*flagResolution = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Terrain.FullResolution != 257 {
		t.Errorf("expected resolution 257 from flag, got %d", cfg.Terrain.FullResolution)
	}
	if cfg.Terrain.BaseChunkSize != 8 {
		t.Errorf("expected chunk size 8 from file, got %d", cfg.Terrain.BaseChunkSize)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("terrain:\n  base_chunk_size: 7\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); !errors.Is(err, lod.ErrOddChunkSize) {
		t.Errorf("expected odd chunk size error, got %v", err)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Terrain.SplitScale = 3
	cfg.Sim.TreePNG = "tree.png"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if loaded.Terrain.SplitScale != 3 || loaded.Sim.TreePNG != "tree.png" {
		t.Errorf("saved values not restored: %+v %+v", loaded.Terrain, loaded.Sim)
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := Default()
	cfg.Terrain.PoolCapacity = 40
	cfg.Sim.Path = PathOrbit

	tc := cfg.TerrainOptions()
	if tc.BaseChunkSize != 16 || tc.Resolution != 513 || tc.PoolCapacity != 40 {
		t.Errorf("unexpected terrain options: %+v", tc)
	}
	if tc.SplitScale != cfg.Terrain.SplitScale || !tc.UseVerticalBounds {
		t.Errorf("unexpected terrain options: %+v", tc)
	}

	so := cfg.SimOptions()
	if so.Frames != 600 || so.Path != PathOrbit || so.Speed != 2 || so.Height != 8 {
		t.Errorf("unexpected sim options: %+v", so)
	}
}

func TestLoadFromFileRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("terrain:\n  split_scael: 3\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error for misspelt key, got nil")
	}
}

func TestLoadFromEmptyFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("empty file should load, got %v", err)
	}
	if cfg.Terrain.BaseChunkSize != 16 {
		t.Errorf("expected default chunk size, got %d", cfg.Terrain.BaseChunkSize)
	}
}

func TestLoadFromEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "env.yaml")
	if err := os.WriteFile(configPath, []byte("sim:\n  frames: 12\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv(EnvConfigPath, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Sim.Frames != 12 {
		t.Errorf("expected 12 frames from env config, got %d", cfg.Sim.Frames)
	}
}

func TestSaveToWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Default().SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Midgard terrain configuration") {
		t.Errorf("missing header in %q", data[:min(len(data), 60)])
	}
}

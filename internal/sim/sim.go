// Package sim drives a terrain along a scripted viewer path without a window
// and summarises how the level of detail evolved.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Options controls a run.
type Options struct {
	Frames int
	Path   string
	Speed  float32 // world units per frame
	Height float32 // viewer height above the ground
}

// Summary aggregates a whole run.
type Summary struct {
	RunID           string      `json:"run_id"`
	Path            string      `json:"path"`
	Frames          int         `json:"frames"`
	Resolution      int         `json:"resolution"`
	BaseChunkSize   int         `json:"base_chunk_size"`
	LodCount        int         `json:"lod_count"`
	Splits          int         `json:"splits"`
	Joins           int         `json:"joins"`
	SplitFailures   int         `json:"split_failures"`
	MeshAssignments int         `json:"mesh_assignments"`
	MeshSwaps       int         `json:"mesh_swaps"`
	PeakLiveChunks  int         `json:"peak_live_chunks"`
	QuietFrames     int         `json:"quiet_frames"`
	FinalLeaves     map[int]int `json:"final_leaves_by_lod"`
	ElapsedMS       float64     `json:"elapsed_ms"`
}

// FrameSink receives every frame's statistics.
type FrameSink func(terrain.FrameStats) error

// Runner moves a viewer over a terrain.
type Runner struct {
	opts    Options
	terrain *terrain.Terrain
	path    ViewerPath
	log     *zap.Logger
}

// NewRunner validates opts and prepares a run over t.
func NewRunner(t *terrain.Terrain, opts Options, log *zap.Logger) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Frames < 0 {
		return nil, fmt.Errorf("frames must not be negative, got %d", opts.Frames)
	}
	extent := float32(t.Heightmap().Resolution() - 1)
	path, err := NewPath(opts.Path, extent, opts.Speed)
	if err != nil {
		return nil, err
	}
	return &Runner{opts: opts, terrain: t, path: path, log: log}, nil
}

// Viewer returns the viewer position for a frame.
func (r *Runner) Viewer(frame int) math.Vec3 {
	x, z := r.path(frame)
	return math.Vec3{X: x, Y: r.terrain.HeightAt(x, z) + r.opts.Height, Z: z}
}

// Run updates the terrain once per frame, passing each frame's statistics to
// sink when it is non-nil. It stops early when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, sink FrameSink) (Summary, error) {
	cfg := r.terrain.Config()
	s := Summary{
		RunID:         uuid.NewString(),
		Path:          r.opts.Path,
		Resolution:    cfg.Resolution,
		BaseChunkSize: cfg.BaseChunkSize,
		LodCount:      r.terrain.Tree().LodCount(),
	}
	r.log.Info("simulation started",
		zap.String("run_id", s.RunID),
		zap.String("path", s.Path),
		zap.Int("frames", r.opts.Frames),
	)

	start := time.Now()
	for frame := 0; frame < r.opts.Frames; frame++ {
		if err := ctx.Err(); err != nil {
			s.ElapsedMS = msSince(start)
			return s, err
		}

		stats := r.terrain.Update(r.Viewer(frame))
		s.add(stats)
		if sink != nil {
			if err := sink(stats); err != nil {
				s.ElapsedMS = msSince(start)
				return s, fmt.Errorf("frame %d: %w", stats.Frame, err)
			}
		}
	}
	s.ElapsedMS = msSince(start)

	r.log.Info("simulation finished",
		zap.String("run_id", s.RunID),
		zap.Int("frames", s.Frames),
		zap.Int("splits", s.Splits),
		zap.Int("joins", s.Joins),
		zap.Int("peak_live_chunks", s.PeakLiveChunks),
		zap.Float64("elapsed_ms", s.ElapsedMS),
	)
	return s, nil
}

func (s *Summary) add(f terrain.FrameStats) {
	s.Frames++
	s.Splits += f.Tree.Splits
	s.Joins += f.Tree.Joins
	s.SplitFailures += f.Tree.SplitFailures
	s.MeshAssignments += f.Schedule.Assigned
	s.MeshSwaps += f.MeshSwaps
	s.PeakLiveChunks = max(s.PeakLiveChunks, f.LiveChunks)
	if f.Tree.Splits == 0 && f.Tree.Joins == 0 {
		s.QuietFrames++
	}
	s.FinalLeaves = f.Leaves
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}

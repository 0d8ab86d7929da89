// Package metrics exports per-frame terrain statistics to Prometheus and
// serves the admin endpoints.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

// Recorder turns FrameStats into gauges and counters.
type Recorder struct {
	frames     prometheus.Counter
	liveChunks prometheus.Gauge
	freeBlocks prometheus.Gauge
	meshSwaps  prometheus.Counter
	leaves     *prometheus.GaugeVec
	updateTime prometheus.Histogram
}

// NewRecorder registers the terrain collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrain_frames_total",
			Help: "The total number of terrain updates.",
		}),
		liveChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "terrain_live_chunks",
			Help: "The number of chunks alive after the last update.",
		}),
		freeBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "terrain_free_node_blocks",
			Help: "The number of free quadtree node blocks after the last update.",
		}),
		meshSwaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrain_mesh_swaps_total",
			Help: "The total number of chunks whose mesh changed.",
		}),
		leaves: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "terrain_leaves",
			Help: "The number of quadtree leaves after the last update, by level.",
		}, []string{"lod"}),
		updateTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "terrain_update_seconds",
			Help:    "Time spent in one terrain update.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
		}),
	}

	for _, c := range []prometheus.Collector{r.frames, r.liveChunks, r.freeBlocks, r.meshSwaps, r.leaves, r.updateTime} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records one frame that took seconds to update.
func (r *Recorder) Observe(f terrain.FrameStats, seconds float64) {
	r.frames.Inc()
	r.liveChunks.Set(float64(f.LiveChunks))
	r.freeBlocks.Set(float64(f.FreeBlocks))
	r.meshSwaps.Add(float64(f.MeshSwaps))
	r.updateTime.Observe(seconds)

	r.leaves.Reset()
	for l, n := range f.Leaves {
		r.leaves.WithLabelValues(strconv.Itoa(l)).Set(float64(n))
	}
}

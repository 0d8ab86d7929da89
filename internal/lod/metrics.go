package lod

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	lodLabel = "lod"
)

var (
	lodSplits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_lod_splits_total",
		Help: "The total number of quadtree splits, by level of the split node.",
	}, []string{lodLabel})

	lodJoins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_lod_joins_total",
		Help: "The total number of quadtree joins, by level of the joined node.",
	}, []string{lodLabel})

	lodSplitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrain_lod_split_failures_total",
		Help: "The total number of splits abandoned because the node pool was exhausted.",
	})

	lodMeshesAssigned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_lod_meshes_assigned_total",
		Help: "The total number of chunk mesh assignments, by chunk level.",
	}, []string{lodLabel})

	lodPendingChunks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "terrain_lod_pending_chunks",
		Help: "The number of chunks resolved in the last scheduler pass.",
	})

	lodFreeBlocks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "terrain_lod_free_node_blocks",
		Help: "The number of reusable 4-node blocks left in the quadtree pool.",
	})
)

func lodValue(lod int) string {
	return strconv.Itoa(lod)
}

func instrumentSplit(lod int) {
	lodSplits.
		With(prometheus.Labels{lodLabel: lodValue(lod)}).
		Inc()
}

func instrumentJoin(lod int) {
	lodJoins.
		With(prometheus.Labels{lodLabel: lodValue(lod)}).
		Inc()
}

func instrumentSplitFailure() {
	lodSplitFailures.Inc()
}

func instrumentMeshAssigned(lod int) {
	lodMeshesAssigned.
		With(prometheus.Labels{lodLabel: lodValue(lod)}).
		Inc()
}

func instrumentPending(n int) {
	lodPendingChunks.Set(float64(n))
}

func instrumentFreeBlocks(n int) {
	lodFreeBlocks.Set(float64(n))
}

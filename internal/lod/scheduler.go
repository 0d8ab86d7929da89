package lod

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// MeshSink receives the mesh and bounding volume resolved for a chunk.
type MeshSink interface {
	AssignMesh(h Handle, mesh *Mesh, bounds math.AABB)
}

// MeshSinkFunc adapts a function to MeshSink.
type MeshSinkFunc func(h Handle, mesh *Mesh, bounds math.AABB)

// AssignMesh calls f.
func (f MeshSinkFunc) AssignMesh(h Handle, mesh *Mesh, bounds math.AABB) {
	f(h, mesh, bounds)
}

// BoundsFunc returns the world bounding volume of a chunk footprint.
type BoundsFunc func(lod int, origin ChunkCoord) math.AABB

// ScheduleStats describes one scheduler pass.
type ScheduleStats struct {
	Seeded   int `json:"seeded"`
	Pending  int `json:"pending"`
	Assigned int `json:"assigned"`
}

type chunkKey struct {
	lod    int
	origin ChunkCoord
}

// Scheduler decides which chunks need a new mesh this frame and resolves
// their seam configuration from the post-update grid state. It must run after
// Quadtree.Update has finished for the frame.
type Scheduler struct {
	grid   *ChunkGrid
	meshes *SeamMeshCache
	sink   MeshSink
	bounds BoundsFunc
	log    *zap.Logger

	pending map[chunkKey]struct{}
	order   []chunkKey
	changed []chunkKey
}

// NewScheduler wires a scheduler to its grid, mesh cache and sink. bounds may
// be nil, in which case chunks get a flat box over their footprint.
func NewScheduler(grid *ChunkGrid, meshes *SeamMeshCache, sink MeshSink, bounds BoundsFunc, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		grid:    grid,
		meshes:  meshes,
		sink:    sink,
		bounds:  bounds,
		log:     log,
		pending: make(map[chunkKey]struct{}),
	}
}

// MarkPending queues a chunk for mesh resolution. Duplicates are ignored.
func (s *Scheduler) MarkPending(lod int, origin ChunkCoord) {
	k := chunkKey{lod, origin}
	if _, ok := s.pending[k]; ok {
		return
	}
	s.pending[k] = struct{}{}
	s.order = append(s.order, k)
}

// MarkMade queues a chunk that was just created and records it as a
// structural change.
func (s *Scheduler) MarkMade(lod int, origin ChunkCoord) {
	s.MarkPending(lod, origin)
	s.changed = append(s.changed, chunkKey{lod, origin})
}

// MarkRecycled records that the chunk at (lod, origin) went away, so finer
// neighbors that had a seam toward it get refreshed.
func (s *Scheduler) MarkRecycled(lod int, origin ChunkCoord) {
	s.changed = append(s.changed, chunkKey{lod, origin})
}

// MarkJoined records that four finer chunks merged into (lod, origin) this
// frame, so finer neighbors around its footprint gain a seam toward it.
func (s *Scheduler) MarkJoined(lod int, origin ChunkCoord) {
	s.changed = append(s.changed, chunkKey{lod, origin})
}

// PendingCount returns how many chunks are queued.
func (s *Scheduler) PendingCount() int {
	return len(s.order)
}

// Process propagates pending state to neighbors whose seams may have changed,
// assigns meshes to every pending chunk and clears the queue.
func (s *Scheduler) Process() ScheduleStats {
	stats := ScheduleStats{Seeded: len(s.order)}

	// A changed chunk may change the seams of any chunk sharing an edge.
	seeds := len(s.order)
	for i := 0; i < seeds; i++ {
		k := s.order[i]
		for _, d := range Directions {
			n := k.origin.Add(d.Offset())
			if s.grid.Has(k.lod, n) {
				s.MarkPending(k.lod, n)
			}
		}
	}

	// A seam bit only depends on chunks one level coarser, so every chunk
	// made or recycled at level L invalidates the level L-1 chunks touching
	// its footprint. This covers joins, splits and multi-level gaps.
	for _, k := range s.changed {
		s.markFinerRing(k.lod, k.origin)
	}

	for _, k := range s.order {
		h := s.grid.Get(k.lod, k.origin)
		if h == NoHandle {
			continue
		}
		seams := s.SeamsAt(k.lod, k.origin)
		mesh := s.meshes.Get(k.lod, seams)
		if mesh == nil {
			s.log.Warn("no mesh for chunk level", zap.Int("lod", k.lod))
			continue
		}
		s.sink.AssignMesh(h, mesh, s.chunkBounds(k.lod, k.origin))
		stats.Assigned++
		instrumentMeshAssigned(k.lod)
	}

	stats.Pending = len(s.order)
	instrumentPending(stats.Pending)

	clear(s.pending)
	s.order = s.order[:0]
	s.changed = s.changed[:0]
	return stats
}

// markFinerRing queues every active chunk one level finer that touches the
// footprint of (lod, origin) from outside.
func (s *Scheduler) markFinerRing(lod int, origin ChunkCoord) {
	if lod == 0 {
		return
	}
	fine := lod - 1
	x0, y0 := origin.X*2, origin.Y*2
	for i := 0; i < 2; i++ {
		for _, c := range [4]ChunkCoord{
			{x0 - 1, y0 + i},
			{x0 + 2, y0 + i},
			{x0 + i, y0 - 1},
			{x0 + i, y0 + 2},
		} {
			if s.grid.Has(fine, c) {
				s.MarkPending(fine, c)
			}
		}
	}
}

// SeamsAt computes the seam mask of the chunk at (lod, origin): a side's bit
// is set when the region across it is an active chunk one level coarser.
func (s *Scheduler) SeamsAt(lod int, origin ChunkCoord) Seams {
	return ComputeSeams(s.grid, lod, origin)
}

// ComputeSeams derives the seam mask of (lod, origin) from grid state.
func ComputeSeams(grid *ChunkGrid, lod int, origin ChunkCoord) Seams {
	var seams Seams
	if lod+1 >= grid.LodCount() {
		return seams
	}
	for _, d := range Directions {
		n := origin.Add(d.Offset())
		if !grid.InRange(lod, n) {
			continue
		}
		if grid.Has(lod+1, n.Parent()) {
			seams |= d.Seam()
		}
	}
	return seams
}

func (s *Scheduler) chunkBounds(lod int, origin ChunkCoord) math.AABB {
	if s.bounds != nil {
		return s.bounds(lod, origin)
	}
	sx, sy := s.meshes.ChunkSize()
	f := float32(LodFactor(lod))
	w, d := float32(sx)*f, float32(sy)*f
	return math.NewAABB(
		math.Vec3{X: float32(origin.X) * w, Z: float32(origin.Y) * d},
		math.Vec3{X: w, Z: d},
	)
}

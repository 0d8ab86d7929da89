package lod

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// harness plays the rendering collaborator: it issues handles, keeps the grid
// in sync and records which mesh each chunk last received.
type harness struct {
	t      *testing.T
	tree   *Quadtree
	grid   *ChunkGrid
	meshes *SeamMeshCache
	sched  *Scheduler

	next     Handle
	live     map[Handle]chunkKey
	assigned map[Handle]*Mesh
	bounds   map[Handle]math.AABB
}

func newHarness(t *testing.T, cfg QuadtreeConfig, opts ...func(*Callbacks)) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		grid:     NewChunkGrid(),
		live:     make(map[Handle]chunkKey),
		assigned: make(map[Handle]*Mesh),
		bounds:   make(map[Handle]math.AABB),
	}

	cb := Callbacks{
		Make:    h.make,
		Recycle: h.recycle,
		Joined: func(lod int, origin ChunkCoord) {
			h.sched.MarkJoined(lod, origin)
		},
	}
	for _, opt := range opts {
		opt(&cb)
	}

	log := zaptest.NewLogger(t)
	tree, err := NewQuadtree(cfg, cb, log)
	require.NoError(t, err)
	h.tree = tree

	side := LodFactor(tree.MaxDepth())
	h.grid.Resize(side, side, tree.LodCount())

	meshes, err := NewSeamMeshCache(context.Background(), cfg.BaseChunkSize, cfg.BaseChunkSize, tree.LodCount())
	require.NoError(t, err)
	h.meshes = meshes
	h.sched = NewScheduler(h.grid, meshes, MeshSinkFunc(h.assign), nil, log)
	return h
}

func (h *harness) make(lod int, origin ChunkCoord) Handle {
	h.next++
	handle := h.next
	h.live[handle] = chunkKey{lod, origin}
	require.True(h.t, h.grid.Set(lod, origin, handle), "make out of grid range: lod %d %v", lod, origin)
	h.sched.MarkMade(lod, origin)
	return handle
}

func (h *harness) recycle(handle Handle, lod int, origin ChunkCoord) {
	k, ok := h.live[handle]
	require.True(h.t, ok, "recycling unknown handle %d", handle)
	require.Equal(h.t, chunkKey{lod, origin}, k)
	delete(h.live, handle)
	delete(h.assigned, handle)
	delete(h.bounds, handle)
	h.grid.Set(lod, origin, NoHandle)
	h.sched.MarkRecycled(lod, origin)
}

func (h *harness) assign(handle Handle, mesh *Mesh, bounds math.AABB) {
	_, ok := h.live[handle]
	require.True(h.t, ok, "mesh assigned to dead handle %d", handle)
	h.assigned[handle] = mesh
	h.bounds[handle] = bounds
}

func (h *harness) frame(viewer math.Vec3) ScheduleStats {
	h.tree.Update(viewer)
	return h.sched.Process()
}

// settle runs frames until the tree stops changing.
func (h *harness) settle(viewer math.Vec3) {
	h.t.Helper()
	for i := 0; i < 64; i++ {
		h.frame(viewer)
		s := h.tree.Stats()
		if s.Splits == 0 && s.Joins == 0 {
			return
		}
	}
	h.t.Fatalf("tree did not settle at %v", viewer)
}

// checkConsistent verifies that every live chunk holds the mesh matching the
// current grid state and that the leaves tile the terrain exactly once.
func (h *harness) checkConsistent() {
	h.t.Helper()
	require.Equal(h.t, len(h.live), h.grid.Count())

	for handle, k := range h.live {
		mesh, ok := h.assigned[handle]
		require.True(h.t, ok, "chunk lod %d %v has no mesh", k.lod, k.origin)
		require.Equal(h.t, k.lod, mesh.Lod)
		require.Equal(h.t, ComputeSeams(h.grid, k.lod, k.origin), mesh.Seams,
			"stale seams on lod %d %v", k.lod, k.origin)
	}

	area := 0
	for _, l := range h.tree.Leaves() {
		require.NotEqual(h.t, NoHandle, l.Chunk)
		f := LodFactor(l.Lod)
		area += f * f
	}
	side := LodFactor(h.tree.MaxDepth())
	require.Equal(h.t, side*side, area)
}

// checkEdges verifies that on every edge between levels the finer chunk's
// vertices are exactly the coarser chunk's vertices along that edge.
func (h *harness) checkEdges() {
	h.t.Helper()
	for handle, k := range h.live {
		for _, d := range Directions {
			n := k.origin.Add(d.Offset())
			if !h.grid.InRange(k.lod, n) {
				continue
			}
			coarse := h.grid.Get(k.lod+1, n.Parent())
			if coarse == NoHandle {
				continue
			}
			fine := h.assigned[handle]
			require.True(h.t, fine.Seams.Has(d), "missing %s seam on lod %d %v", d, k.lod, k.origin)

			box := h.worldBox(k.lod, k.origin)
			want := h.worldEdge(fine, k.lod, k.origin, d)

			ck := h.live[coarse]
			var got []math.Vec3
			for _, p := range h.worldEdge(h.assigned[coarse], ck.lod, ck.origin, opposite(d)) {
				if box.Contains(p) {
					got = append(got, p)
				}
			}
			require.Equal(h.t, want, got, "edge mismatch on %s of lod %d %v", d, k.lod, k.origin)
		}
	}
}

func (h *harness) worldBox(lod int, origin ChunkCoord) math.AABB {
	size := float32(h.tree.ChunkWorldSize(lod))
	return math.NewAABB(
		math.Vec3{X: float32(origin.X) * size, Z: float32(origin.Y) * size},
		math.Vec3{X: size, Z: size},
	)
}

func (h *harness) worldEdge(m *Mesh, lod int, origin ChunkCoord, d Direction) []math.Vec3 {
	offset := h.worldBox(lod, origin).Min
	var out []math.Vec3
	for _, p := range m.EdgeVertices(d) {
		out = append(out, p.Add(offset))
	}
	return out
}

func opposite(d Direction) Direction {
	switch d {
	case Left:
		return Right
	case Right:
		return Left
	case Bottom:
		return Top
	}
	return Bottom
}

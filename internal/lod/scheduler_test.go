package lod

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

type recordedMesh struct {
	mesh   *Mesh
	bounds math.AABB
}

func newTestScheduler(t *testing.T) (*Scheduler, *ChunkGrid, map[Handle]recordedMesh) {
	t.Helper()
	grid := NewChunkGrid()
	grid.Resize(4, 4, 3)
	meshes, err := NewSeamMeshCache(context.Background(), 4, 4, 3)
	require.NoError(t, err)

	got := make(map[Handle]recordedMesh)
	sink := MeshSinkFunc(func(h Handle, m *Mesh, b math.AABB) {
		got[h] = recordedMesh{m, b}
	})
	return NewScheduler(grid, meshes, sink, nil, nil), grid, got
}

func TestComputeSeams(t *testing.T) {
	grid := NewChunkGrid()
	grid.Resize(4, 4, 3)
	grid.Set(0, ChunkCoord{1, 2}, 1)
	grid.Set(0, ChunkCoord{2, 1}, 2)
	grid.Set(0, ChunkCoord{3, 1}, 3)
	grid.Set(1, ChunkCoord{1, 1}, 4)

	assert.Equal(t, SeamRight, ComputeSeams(grid, 0, ChunkCoord{1, 2}))
	assert.Equal(t, SeamTop, ComputeSeams(grid, 0, ChunkCoord{2, 1}))
	// The right neighbor of (3,1) is off the grid.
	assert.Equal(t, SeamTop, ComputeSeams(grid, 0, ChunkCoord{3, 1}))
	assert.Equal(t, Seams(0), ComputeSeams(grid, 0, ChunkCoord{0, 0}))
	// The root level never has seams.
	assert.Equal(t, Seams(0), ComputeSeams(grid, 2, ChunkCoord{0, 0}))
}

func TestSchedulerPropagatesToNeighbors(t *testing.T) {
	s, grid, got := newTestScheduler(t)
	grid.Set(0, ChunkCoord{0, 2}, 1)
	grid.Set(0, ChunkCoord{1, 2}, 2)
	grid.Set(0, ChunkCoord{0, 0}, 3)
	grid.Set(1, ChunkCoord{1, 1}, 4)

	s.MarkPending(0, ChunkCoord{0, 2})
	s.MarkPending(0, ChunkCoord{0, 2})
	assert.Equal(t, 1, s.PendingCount())

	stats := s.Process()
	assert.Equal(t, ScheduleStats{Seeded: 1, Pending: 2, Assigned: 2}, stats)
	require.Contains(t, got, Handle(2))
	assert.Equal(t, SeamRight, got[2].mesh.Seams)
	assert.Equal(t, Seams(0), got[1].mesh.Seams)
	assert.NotContains(t, got, Handle(3))
	assert.Zero(t, s.PendingCount())
}

func TestSchedulerRefreshesFinerRingAfterJoin(t *testing.T) {
	s, grid, got := newTestScheduler(t)
	grid.Set(0, ChunkCoord{1, 2}, 1)
	grid.Set(0, ChunkCoord{2, 1}, 2)
	grid.Set(0, ChunkCoord{0, 0}, 3)
	grid.Set(1, ChunkCoord{1, 1}, 4)

	s.MarkJoined(1, ChunkCoord{1, 1})
	stats := s.Process()
	assert.Equal(t, 2, stats.Assigned)
	assert.Equal(t, SeamRight, got[1].mesh.Seams)
	assert.Equal(t, SeamTop, got[2].mesh.Seams)
	assert.NotContains(t, got, Handle(3))
	assert.NotContains(t, got, Handle(4))
}

func TestSchedulerRefreshesFinerRingAfterRecycle(t *testing.T) {
	s, grid, got := newTestScheduler(t)
	grid.Set(0, ChunkCoord{1, 2}, 1)

	// The coarse chunk at (1,1) has just gone away.
	s.MarkRecycled(1, ChunkCoord{1, 1})
	s.Process()
	require.Contains(t, got, Handle(1))
	assert.Equal(t, Seams(0), got[1].mesh.Seams)
}

func TestSchedulerSkipsChunksRemovedBeforeProcess(t *testing.T) {
	s, grid, got := newTestScheduler(t)
	grid.Set(0, ChunkCoord{1, 1}, 1)
	s.MarkMade(0, ChunkCoord{1, 1})
	grid.Set(0, ChunkCoord{1, 1}, NoHandle)

	stats := s.Process()
	assert.Zero(t, stats.Assigned)
	assert.Empty(t, got)
}

func TestSchedulerDefaultBoundsCoverFootprint(t *testing.T) {
	s, grid, got := newTestScheduler(t)
	grid.Set(1, ChunkCoord{1, 0}, 1)
	s.MarkPending(1, ChunkCoord{1, 0})
	s.Process()

	require.Contains(t, got, Handle(1))
	assert.Equal(t, math.AABB{
		Min: math.Vec3{X: 8},
		Max: math.Vec3{X: 16, Z: 8},
	}, got[1].bounds)
}

func TestSchedulerUsesBoundsFunc(t *testing.T) {
	grid := NewChunkGrid()
	grid.Resize(2, 2, 2)
	meshes, err := NewSeamMeshCache(context.Background(), 2, 2, 2)
	require.NoError(t, err)

	want := math.AABB{Min: math.Vec3{Y: -3}, Max: math.Vec3{X: 2, Y: 5, Z: 2}}
	var got math.AABB
	s := NewScheduler(grid, meshes, MeshSinkFunc(func(_ Handle, _ *Mesh, b math.AABB) {
		got = b
	}), func(lod int, origin ChunkCoord) math.AABB {
		return want
	}, nil)

	grid.Set(0, ChunkCoord{0, 0}, 1)
	s.MarkPending(0, ChunkCoord{0, 0})
	s.Process()
	assert.Equal(t, want, got)
}

// Package terrain drives a level-of-detail height-field terrain: it owns the
// chunk pool the quadtree allocates from, keeps the per-level chunk grid in
// sync, and resolves each frame which mesh every visible chunk draws with.
package terrain

import (
	"github.com/Faultbox/midgard-terrain/internal/lod"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Config contains terrain setup options.
type Config struct {
	// BaseChunkSize is the side of a level-0 chunk in height cells. It is
	// also the number of quads per chunk side, so it must be even.
	BaseChunkSize int
	// Resolution is the height raster side in samples.
	Resolution int
	// SplitScale multiplies the split distance of every level.
	SplitScale float32
	// PoolCapacity caps the quadtree node pool in blocks of four (0 = full tree).
	PoolCapacity int
	// UseVerticalBounds feeds terrain height into the split distance test.
	UseVerticalBounds bool
}

// DefaultConfig returns a default terrain configuration.
func DefaultConfig() Config {
	return Config{
		BaseChunkSize:     16,
		Resolution:        513,
		SplitScale:        lod.DefaultSplitScale,
		UseVerticalBounds: true,
	}
}

// Chunk is one renderable region of the terrain at a given level.
type Chunk struct {
	Lod    int
	Origin lod.ChunkCoord

	// Mesh is shared with every chunk of the same level and seam mask.
	Mesh   *lod.Mesh
	Bounds math.AABB

	Visible bool
	Active  bool
	// PendingUpdate is set from creation until the chunk first receives a mesh.
	PendingUpdate bool
}

// SetMesh assigns a mesh and reports whether it changed.
func (c *Chunk) SetMesh(m *lod.Mesh) bool {
	if c.Mesh == m {
		return false
	}
	c.Mesh = m
	return true
}

// WorldOrigin returns the world position of the chunk's lower corner.
func (c *Chunk) WorldOrigin(baseChunkSize int) math.Vec3 {
	size := float32(baseChunkSize * lod.LodFactor(c.Lod))
	return math.Vec3{X: float32(c.Origin.X) * size, Z: float32(c.Origin.Y) * size}
}

// FrameStats summarises one Update.
type FrameStats struct {
	Frame      uint64            `json:"frame"`
	Viewer     math.Vec3         `json:"viewer"`
	Tree       lod.TreeStats     `json:"tree"`
	Schedule   lod.ScheduleStats `json:"schedule"`
	MeshSwaps  int               `json:"mesh_swaps"`
	LiveChunks int               `json:"live_chunks"`
	FreeBlocks int               `json:"free_blocks"`
	Leaves     map[int]int       `json:"leaves_by_lod"`
}

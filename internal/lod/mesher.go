package lod

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Mesh is the flat geometry of one chunk for a given level and seam mask.
// Positions are local to the chunk origin with Y = 0; heights are applied
// downstream. A Mesh is immutable once built and shared by every chunk with
// the same level and seams.
type Mesh struct {
	Lod       int
	Seams     Seams
	Stride    int
	SizeX     int
	SizeY     int
	Positions []math.Vec3
	Indices   []uint32
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// EdgeVertices returns the positions of the vertices on side d that are
// referenced by at least one triangle, sorted along the edge.
func (m *Mesh) EdgeVertices(d Direction) []math.Vec3 {
	maxX := float32(m.SizeX * m.Stride)
	maxZ := float32(m.SizeY * m.Stride)
	onEdge := func(p math.Vec3) bool {
		switch d {
		case Left:
			return p.X == 0
		case Right:
			return p.X == maxX
		case Bottom:
			return p.Z == 0
		case Top:
			return p.Z == maxZ
		}
		return false
	}

	seen := make(map[uint32]bool)
	var out []math.Vec3
	for _, i := range m.Indices {
		if seen[i] {
			continue
		}
		seen[i] = true
		if p := m.Positions[i]; onEdge(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].X != out[b].X {
			return out[a].X < out[b].X
		}
		return out[a].Z < out[b].Z
	})
	return out
}

// SeamMeshCache holds a precomputed mesh for every (level, seam mask) pair.
// Entries are read-only once built, so Get is safe for concurrent use.
type SeamMeshCache struct {
	sizeX    int
	sizeY    int
	lodCount int
	meshes   [SeamConfigCount][]*Mesh
}

// NewSeamMeshCache builds the meshes for chunks of sizeX by sizeY quads over
// lodCount levels. Both sizes must be even so seam fans divide evenly.
func NewSeamMeshCache(ctx context.Context, sizeX, sizeY, lodCount int) (*SeamMeshCache, error) {
	c := &SeamMeshCache{}
	if err := c.Configure(ctx, sizeX, sizeY, lodCount); err != nil {
		return nil, err
	}
	return c, nil
}

// Configure rebuilds the cache for new dimensions. It is a no-op when nothing
// changed.
func (c *SeamMeshCache) Configure(ctx context.Context, sizeX, sizeY, lodCount int) error {
	if sizeX < 2 || sizeY < 2 || sizeX%2 != 0 || sizeY%2 != 0 {
		return fmt.Errorf("%w: got %dx%d", ErrOddChunkSize, sizeX, sizeY)
	}
	if lodCount < 1 || lodCount > MaxLodCount {
		return fmt.Errorf("%w: %d levels, max %d", ErrTooManyLevels, lodCount, MaxLodCount)
	}
	if sizeX == c.sizeX && sizeY == c.sizeY && lodCount == c.lodCount {
		return nil
	}

	var meshes [SeamConfigCount][]*Mesh
	for seams := range meshes {
		meshes[seams] = make([]*Mesh, lodCount)
	}

	// Index buffers only depend on the seam mask; positions only on the
	// stride. Each goroutine owns one seam mask.
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for seams := 0; seams < SeamConfigCount; seams++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			indices := MakeIndices(sizeX, sizeY, Seams(seams))
			for lod := 0; lod < lodCount; lod++ {
				stride := LodFactor(lod)
				meshes[seams][lod] = &Mesh{
					Lod:       lod,
					Seams:     Seams(seams),
					Stride:    stride,
					SizeX:     sizeX,
					SizeY:     sizeY,
					Positions: makePositions(sizeX, sizeY, stride),
					Indices:   indices,
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("building seam meshes: %w", err)
	}

	c.sizeX, c.sizeY, c.lodCount = sizeX, sizeY, lodCount
	c.meshes = meshes
	return nil
}

// Get returns the mesh for a level and seam mask, or nil for an unknown level.
func (c *SeamMeshCache) Get(lod int, seams Seams) *Mesh {
	if lod < 0 || lod >= c.lodCount {
		return nil
	}
	return c.meshes[seams&(SeamConfigCount-1)][lod]
}

// LodCount returns the number of levels the cache was built for.
func (c *SeamMeshCache) LodCount() int {
	return c.lodCount
}

// ChunkSize returns the chunk dimensions in quads.
func (c *SeamMeshCache) ChunkSize() (sizeX, sizeY int) {
	return c.sizeX, c.sizeY
}

// All calls fn for every cached mesh.
func (c *SeamMeshCache) All(fn func(*Mesh)) {
	for seams := range c.meshes {
		for _, m := range c.meshes[seams] {
			fn(m)
		}
	}
}

// makePositions lays out (sizeX+1) x (sizeY+1) vertices row by row.
func makePositions(sizeX, sizeY, stride int) []math.Vec3 {
	positions := make([]math.Vec3, 0, (sizeX+1)*(sizeY+1))
	for y := 0; y <= sizeY; y++ {
		for x := 0; x <= sizeX; x++ {
			positions = append(positions, math.Vec3{
				X: float32(x * stride),
				Z: float32(y * stride),
			})
		}
	}
	return positions
}

// MakeIndices triangulates a chunk of sizeX by sizeY quads. Edges flagged in
// seams skip every other vertex so they match a neighbor at half resolution.
// Sizes must be even; callers validate this.
func MakeIndices(sizeX, sizeY int, seams Seams) []uint32 {
	row := sizeX + 1
	idx := func(x, y int) uint32 {
		return uint32(x + y*row)
	}

	left := seams&SeamLeft != 0
	right := seams&SeamRight != 0
	bottom := seams&SeamBottom != 0
	top := seams&SeamTop != 0

	regX0, regY0, regX1, regY1 := 0, 0, sizeX, sizeY
	if left {
		regX0++
	}
	if right {
		regX1--
	}
	if bottom {
		regY0++
	}
	if top {
		regY1--
	}

	out := make([]uint32, 0, sizeX*sizeY*6)

	// Regular quads, diagonal alternating in a checkerboard.
	//
	// 01---11
	//  |  /|
	//  | / |
	//  |/  |
	// 00---10
	for y := regY0; y < regY1; y++ {
		for x := regX0; x < regX1; x++ {
			i00, i10 := idx(x, y), idx(x+1, y)
			i01, i11 := idx(x, y+1), idx(x+1, y+1)
			if (x+y)%2 != 0 {
				out = append(out, i00, i10, i01, i10, i11, i01)
			} else {
				out = append(out, i00, i11, i01, i00, i10, i11)
			}
		}
	}

	if left {
		//     4 . 5
		//     |\  .
		//     | \ .
		//     |  \.
		//  (2)|   3
		//     |  /.
		//     | / .
		//     |/  .
		//     0 . 1
		n := sizeY / 2
		for j := 0; j < n; j++ {
			y := 2 * j
			i0, i1 := idx(0, y), idx(1, y)
			i3 := idx(1, y+1)
			i4, i5 := idx(0, y+2), idx(1, y+2)

			out = append(out, i0, i3, i4)
			if j != 0 || !bottom {
				out = append(out, i0, i1, i3)
			}
			if j != n-1 || !top {
				out = append(out, i3, i5, i4)
			}
		}
	}

	if right {
		//     4 . 5
		//     .  /|
		//     . / |
		//     ./  |
		//     2   |(3)
		//     .\  |
		//     . \ |
		//     .  \|
		//     0 . 1
		x := sizeX - 1
		n := sizeY / 2
		for j := 0; j < n; j++ {
			y := 2 * j
			i0, i1 := idx(x, y), idx(x+1, y)
			i2 := idx(x, y+1)
			i4, i5 := idx(x, y+2), idx(x+1, y+2)

			out = append(out, i1, i5, i2)
			if j != 0 || !bottom {
				out = append(out, i0, i1, i2)
			}
			if j != n-1 || !top {
				out = append(out, i2, i5, i4)
			}
		}
	}

	if bottom {
		//  3 . 4 . 5
		//  .  / \  .
		//  . /   \ .
		//  ./     \.
		//  0-------2
		//     (1)
		n := sizeX / 2
		for j := 0; j < n; j++ {
			x := 2 * j
			i0, i2 := idx(x, 0), idx(x+2, 0)
			i3, i4, i5 := idx(x, 1), idx(x+1, 1), idx(x+2, 1)

			out = append(out, i0, i2, i4)
			if j != 0 || !left {
				out = append(out, i0, i4, i3)
			}
			if j != n-1 || !right {
				out = append(out, i2, i5, i4)
			}
		}
	}

	if top {
		//     (4)
		//  3-------5
		//  .\     /.
		//  . \   / .
		//  .  \ /  .
		//  0 . 1 . 2
		y := sizeY - 1
		n := sizeX / 2
		for j := 0; j < n; j++ {
			x := 2 * j
			i0, i1, i2 := idx(x, y), idx(x+1, y), idx(x+2, y)
			i3, i5 := idx(x, y+1), idx(x+2, y+1)

			out = append(out, i3, i1, i5)
			if j != 0 || !left {
				out = append(out, i0, i1, i3)
			}
			if j != n-1 || !right {
				out = append(out, i1, i2, i5)
			}
		}
	}

	return out
}

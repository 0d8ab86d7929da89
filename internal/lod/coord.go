// Package lod implements the adaptive level-of-detail engine for height-field
// terrain: a pooled quadtree that splits and joins regions around the viewer,
// a dense per-level chunk grid for neighbor lookups, a scheduler that resolves
// seam configurations for chunks touched by a structural change, and a cache
// of precomputed crack-free chunk meshes.
//
// Detail levels are numbered from 0 (finest) upward. A region at level L
// covers 2^L level-0 chunks per axis.
package lod

// ChunkCoord addresses a chunk in the grid units of its own detail level.
// Y maps to the world Z axis.
type ChunkCoord struct {
	X, Y int
}

// Add returns c + o.
func (c ChunkCoord) Add(o ChunkCoord) ChunkCoord {
	return ChunkCoord{c.X + o.X, c.Y + o.Y}
}

// Parent returns the coordinate of the region one level coarser that
// contains c. Only meaningful for non-negative coordinates.
func (c ChunkCoord) Parent() ChunkCoord {
	return ChunkCoord{c.X >> 1, c.Y >> 1}
}

// Child returns the coordinate of child i (0..3) one level finer.
func (c ChunkCoord) Child(i int) ChunkCoord {
	return ChunkCoord{c.X*2 + (i & 1), c.Y*2 + ((i >> 1) & 1)}
}

// Handle is an opaque chunk identity issued by the rendering collaborator.
// The zero value means "no chunk".
type Handle uint64

// NoHandle marks an absent chunk.
const NoHandle Handle = 0

// Direction is one of the four sides of a chunk.
type Direction int

// Side directions. Bottom points toward decreasing Y.
const (
	Left Direction = iota
	Right
	Bottom
	Top
)

// Directions lists all sides in seam-bit order.
var Directions = [4]Direction{Left, Right, Bottom, Top}

var directionOffsets = [4]ChunkCoord{
	Left:   {-1, 0},
	Right:  {1, 0},
	Bottom: {0, -1},
	Top:    {0, 1},
}

// Offset returns the grid step toward the neighbor on that side.
func (d Direction) Offset() ChunkCoord {
	return directionOffsets[d]
}

// Seam returns the seam bit for this side.
func (d Direction) Seam() Seams {
	return Seams(1) << uint(d)
}

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Bottom:
		return "bottom"
	case Top:
		return "top"
	}
	return "unknown"
}

// Seams is a 4-bit mask of chunk edges that border a neighbor rendered one
// level coarser.
type Seams uint8

// Seam bits.
const (
	SeamLeft Seams = 1 << iota
	SeamRight
	SeamBottom
	SeamTop
)

// SeamConfigCount is the number of distinct seam masks.
const SeamConfigCount = 16

// Has reports whether the seam bit for d is set.
func (s Seams) Has(d Direction) bool {
	return s&d.Seam() != 0
}

func (s Seams) String() string {
	if s == 0 {
		return "none"
	}
	out := ""
	for _, d := range Directions {
		if s.Has(d) {
			if out != "" {
				out += "|"
			}
			out += d.String()
		}
	}
	return out
}

// LodFactor returns the number of level-0 chunks per axis covered by a region
// at the given level.
func LodFactor(lod int) int {
	return 1 << lod
}

// ComputeMaxDepth returns the deepest level index for a terrain of
// fullResolution cells chunked by baseSize, i.e. ceil(log2(full/base)) using
// integer division.
func ComputeMaxDepth(baseSize, fullResolution int) int {
	n := fullResolution / baseSize
	depth := 0
	for (1 << depth) < n {
		depth++
	}
	return depth
}

package heightmap

import (
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// blockRange returns the half-open range of blocks touching cells
// [origin, origin+size). A cell on a block boundary belongs to both blocks.
func (h *Heightmap) blockRange(origin, size int) (lo, hi int) {
	lo = max(origin-1, 0) / ChunkSize
	hi = (origin+size-1)/ChunkSize + 1
	return clampi(lo, 0, h.blocks), clampi(hi, 0, h.blocks)
}

func (h *Heightmap) updateBounds(x, y, w, d int) {
	bx0, bx1 := h.blockRange(x, w)
	by0, by1 := h.blockRange(y, d)
	for by := by0; by < by1; by++ {
		for bx := bx0; bx < bx1; bx++ {
			h.bounds[by*h.blocks+bx] = h.computeBounds(bx*ChunkSize, by*ChunkSize, ChunkSize+1)
		}
	}
}

func (h *Heightmap) computeBounds(x0, y0, size int) Bounds {
	x1 := min(x0+size, h.resolution)
	y1 := min(y0+size, h.resolution)
	b := Bounds{Min: h.heights[y0*h.resolution+x0]}
	b.Max = b.Min
	for y := y0; y < y1; y++ {
		row := h.heights[y*h.resolution:]
		for x := x0; x < x1; x++ {
			v := row[x]
			if v < b.Min {
				b.Min = v
			} else if v > b.Max {
				b.Max = v
			}
		}
	}
	return b
}

// BlockBounds returns the cached bounds of block (bx, by), clamped to the
// block grid.
func (h *Heightmap) BlockBounds(bx, by int) Bounds {
	bx = clampi(bx, 0, h.blocks-1)
	by = clampi(by, 0, h.blocks-1)
	return h.bounds[by*h.blocks+bx]
}

// VerticalBounds returns the height range over cells [x, x+w) x [y, y+d)
// from the cached blocks. It may be looser than the exact range but never
// tighter.
func (h *Heightmap) VerticalBounds(x, y, w, d int) Bounds {
	bx0, bx1 := h.blockRange(x, w)
	by0, by1 := h.blockRange(y, d)
	if bx0 >= bx1 || by0 >= by1 {
		// Entirely outside the raster: use the nearest block.
		return h.BlockBounds(bx0, by0)
	}

	b := h.bounds[by0*h.blocks+bx0]
	for by := by0; by < by1; by++ {
		for bx := bx0; bx < bx1; bx++ {
			c := h.bounds[by*h.blocks+bx]
			b.Min = min(b.Min, c.Min)
			b.Max = max(b.Max, c.Max)
		}
	}
	return b
}

// RegionAABB returns the world box of cells [x, x+w) x [y, y+d) with the
// cached vertical extent.
func (h *Heightmap) RegionAABB(x, y, w, d int) math.AABB {
	b := h.VerticalBounds(x, y, w, d)
	return math.AABB{
		Min: math.Vec3{X: float32(x), Y: b.Min, Z: float32(y)},
		Max: math.Vec3{X: float32(x + w), Y: b.Max, Z: float32(y + d)},
	}
}

// Package heightmap holds the square height raster a terrain is built from,
// with a cache of per-block vertical bounds so region bounding boxes can be
// answered without scanning every sample.
package heightmap

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// ChunkSize is the side, in cells, of one vertical bounds block. Blocks share
// their edge row and column, so each one spans ChunkSize+1 samples.
const ChunkSize = 16

// MaxResolution is the largest supported raster side.
const MaxResolution = 4097

// ErrInvalidResolution is returned for a raster side outside
// [ChunkSize+1, MaxResolution].
var ErrInvalidResolution = errors.New("heightmap: invalid resolution")

// Bounds is the height range of a block.
type Bounds struct {
	Min, Max float32
}

// Heightmap is a resolution x resolution grid of heights, row-major with Y
// mapped to world Z. A sample at (x, y) sits at world (x, height, y).
type Heightmap struct {
	resolution int
	heights    []float32

	blocks int
	bounds []Bounds
}

// New returns a flat heightmap. The resolution is snapped up to 2^k+1 so a
// power-of-two number of quads spans it.
func New(resolution int) (*Heightmap, error) {
	h := &Heightmap{}
	if err := h.SetResolution(resolution); err != nil {
		return nil, err
	}
	return h, nil
}

// SnapResolution rounds r up to the next 2^k+1, with a floor of ChunkSize+1.
func SnapResolution(r int) int {
	if r < ChunkSize+1 {
		r = ChunkSize + 1
	}
	p := 1
	for p < r-1 {
		p <<= 1
	}
	return p + 1
}

// SetResolution resizes the raster, keeping samples that remain in range.
// New samples are zero.
func (h *Heightmap) SetResolution(resolution int) error {
	r := SnapResolution(resolution)
	if resolution <= 0 || r > MaxResolution {
		return fmt.Errorf("%w: %d", ErrInvalidResolution, resolution)
	}
	if r == h.resolution {
		return nil
	}

	heights := make([]float32, r*r)
	keep := min(r, h.resolution)
	for y := 0; y < keep; y++ {
		copy(heights[y*r:y*r+keep], h.heights[y*h.resolution:])
	}
	h.resolution = r
	h.heights = heights

	h.blocks = (r - 1 + ChunkSize - 1) / ChunkSize
	h.bounds = make([]Bounds, h.blocks*h.blocks)
	h.updateBounds(0, 0, r, r)
	return nil
}

// Resolution returns the raster side in samples.
func (h *Heightmap) Resolution() int {
	return h.resolution
}

// Heights returns the raw row-major samples. Callers must not modify them;
// use SetHeight or Update so cached bounds stay valid.
func (h *Heightmap) Heights() []float32 {
	return h.heights
}

func (h *Heightmap) clampCoord(x, y int) (int, int) {
	return clampi(x, 0, h.resolution-1), clampi(y, 0, h.resolution-1)
}

// Height returns the sample at (x, y), clamping coordinates to the raster.
func (h *Heightmap) Height(x, y int) float32 {
	x, y = h.clampCoord(x, y)
	return h.heights[y*h.resolution+x]
}

// SetHeight writes one sample and refreshes the bounds around it.
// Out-of-range writes are ignored.
func (h *Heightmap) SetHeight(x, y int, v float32) {
	if x < 0 || y < 0 || x >= h.resolution || y >= h.resolution {
		return
	}
	h.heights[y*h.resolution+x] = v
	h.updateBounds(x, y, 1, 1)
}

// Update calls fn for every sample in the region and stores what it returns,
// then refreshes the bounds of the region once.
func (h *Heightmap) Update(x0, y0, w, d int, fn func(x, y int, old float32) float32) {
	x1, y1 := min(x0+w, h.resolution), min(y0+d, h.resolution)
	x0, y0 = max(x0, 0), max(y0, 0)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			i := y*h.resolution + x
			h.heights[i] = fn(x, y, h.heights[i])
		}
	}
	h.NotifyRegionChange(x0, y0, x1-x0, y1-y0)
}

// Fill sets every sample to v.
func (h *Heightmap) Fill(v float32) {
	for i := range h.heights {
		h.heights[i] = v
	}
	h.updateBounds(0, 0, h.resolution, h.resolution)
}

// NotifyRegionChange refreshes cached bounds after samples in the region
// were modified.
func (h *Heightmap) NotifyRegionChange(x, y, w, d int) {
	if w <= 0 || d <= 0 {
		return
	}
	h.updateBounds(x, y, w, d)
}

// Normal returns the surface normal at (x, y) from central differences.
func (h *Heightmap) Normal(x, y int) math.Vec3 {
	left := h.Height(x-1, y)
	right := h.Height(x+1, y)
	fore := h.Height(x, y+1)
	back := h.Height(x, y-1)
	return math.Vec3{X: left - right, Y: 2, Z: back - fore}.Normalize()
}

// InterpolatedHeight returns the bilinearly interpolated height at a world
// position, clamped to the raster.
func (h *Heightmap) InterpolatedHeight(worldX, worldZ float32) float32 {
	cellX := clampi(int(worldX), 0, h.resolution-2)
	cellZ := clampi(int(worldZ), 0, h.resolution-2)

	fracX := clampf(worldX-float32(cellX), 0, 1)
	fracZ := clampf(worldZ-float32(cellZ), 0, 1)

	sw := h.Height(cellX, cellZ)
	se := h.Height(cellX+1, cellZ)
	nw := h.Height(cellX, cellZ+1)
	ne := h.Height(cellX+1, cellZ+1)

	south := sw*(1-fracX) + se*fracX
	north := nw*(1-fracX) + ne*fracX
	return south*(1-fracZ) + north*fracZ
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package debug provides debug visualization utilities.
package debug

import "github.com/Faultbox/midgard-terrain/pkg/math"

// BoxLineVertexCount is the number of vertices AppendBoxLines adds (12 edges × 2).
const BoxLineVertexCount = 24

// AppendBoxLines appends the 12 edges of b, grown by padding on every side,
// to dst as line-list vertices in [x, y, z] format.
func AppendBoxLines(dst []float32, b math.AABB, padding float32) []float32 {
	minX, minY, minZ := b.Min.X-padding, b.Min.Y-padding, b.Min.Z-padding
	maxX, maxY, maxZ := b.Max.X+padding, b.Max.Y+padding, b.Max.Z+padding

	return append(dst,
		// Bottom face
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// Top face
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// Vertical edges
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	)
}

var lodPalette = [...][3]float32{
	{0.20, 0.85, 0.30},
	{0.95, 0.85, 0.20},
	{0.95, 0.50, 0.15},
	{0.90, 0.20, 0.20},
	{0.75, 0.25, 0.85},
	{0.25, 0.45, 0.95},
}

// LodColor returns a display color for a detail level. Levels past the
// palette reuse its last entry.
func LodColor(lod int) [3]float32 {
	if lod < 0 {
		lod = 0
	}
	return lodPalette[min(lod, len(lodPalette)-1)]
}

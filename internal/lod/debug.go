package lod

import (
	"image"
	"image/color"
)

// DrawTree rasterises the leaves of q into an image, cellSize pixels per
// level-0 chunk. Red fades with level, green marks odd children and blue
// marks leaves that hold a chunk.
func DrawTree(q *Quadtree, cellSize int) *image.RGBA {
	if cellSize < 1 {
		cellSize = 1
	}
	side := LodFactor(q.MaxDepth()) * cellSize
	img := image.NewRGBA(image.Rect(0, 0, side, side))

	q.Walk(func(l Leaf) {
		size := LodFactor(l.Lod) * cellSize
		checker := uint8(0)
		if l.ChildIndex == 1 || l.ChildIndex == 2 {
			checker = 51
		}
		chunk := uint8(0)
		if l.Chunk != NoHandle {
			chunk = 255
		}
		red := 255 - min(l.Lod*51, 255)
		c := color.RGBA{R: uint8(red), G: checker, B: chunk, A: 255}

		x0, y0 := l.Origin.X*size, l.Origin.Y*size
		for y := y0; y < y0+size; y++ {
			for x := x0; x < x0+size; x++ {
				// One pixel border so adjacent leaves stay distinguishable.
				if size > 2 && (x == x0 || y == y0) {
					img.SetRGBA(x, y, color.RGBA{A: 255})
					continue
				}
				img.SetRGBA(x, y, c)
			}
		}
	})
	return img
}

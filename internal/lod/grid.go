package lod

// ChunkGrid is a dense per-level array mapping chunk coordinates to handles.
// It answers "is there an active chunk at (lod, coord)" in O(1) for branches
// of the quadtree that the recursive update cannot reach cheaply.
//
// The grid is written only by the make/recycle callbacks issued during
// Quadtree.Update.
type ChunkGrid struct {
	levels []levelGrid
}

type levelGrid struct {
	width, height int
	cells         []Handle
}

func (g *levelGrid) valid(c ChunkCoord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.width && c.Y < g.height
}

func (g *levelGrid) index(c ChunkCoord) int {
	return c.Y*g.width + c.X
}

// resize changes the level dimensions, keeping cells that remain in range and
// filling new cells with NoHandle.
func (g *levelGrid) resize(width, height int) {
	if width == g.width && height == g.height {
		return
	}
	cells := make([]Handle, width*height)
	for y := 0; y < min(height, g.height); y++ {
		copy(cells[y*width:y*width+min(width, g.width)], g.cells[y*g.width:])
	}
	g.width, g.height, g.cells = width, height, cells
}

// NewChunkGrid returns an empty grid with no levels.
func NewChunkGrid() *ChunkGrid {
	return &ChunkGrid{}
}

// Resize sets the number of levels and their dimensions. chunksX and chunksY
// are the level-0 extents; level L gets ceil(n / 2^L) cells per axis.
// Existing entries are preserved where they remain in range.
func (g *ChunkGrid) Resize(chunksX, chunksY, lodCount int) {
	if lodCount < 0 {
		lodCount = 0
	}
	if lodCount < len(g.levels) {
		g.levels = g.levels[:lodCount]
	}
	for len(g.levels) < lodCount {
		g.levels = append(g.levels, levelGrid{})
	}
	for lod := range g.levels {
		f := LodFactor(lod)
		g.levels[lod].resize((chunksX+f-1)/f, (chunksY+f-1)/f)
	}
}

// LodCount returns the number of levels.
func (g *ChunkGrid) LodCount() int {
	return len(g.levels)
}

// Size returns the dimensions of a level, or zero for an unknown level.
func (g *ChunkGrid) Size(lod int) (width, height int) {
	if lod < 0 || lod >= len(g.levels) {
		return 0, 0
	}
	return g.levels[lod].width, g.levels[lod].height
}

// InRange reports whether c is a valid cell at the given level.
func (g *ChunkGrid) InRange(lod int, c ChunkCoord) bool {
	return lod >= 0 && lod < len(g.levels) && g.levels[lod].valid(c)
}

// Set records h at (lod, c). Out-of-range writes are ignored and reported by
// the return value.
func (g *ChunkGrid) Set(lod int, c ChunkCoord, h Handle) bool {
	if !g.InRange(lod, c) {
		return false
	}
	lg := &g.levels[lod]
	lg.cells[lg.index(c)] = h
	return true
}

// Get returns the handle at (lod, c), or NoHandle when absent or out of range.
func (g *ChunkGrid) Get(lod int, c ChunkCoord) Handle {
	if !g.InRange(lod, c) {
		return NoHandle
	}
	lg := &g.levels[lod]
	return lg.cells[lg.index(c)]
}

// Has reports whether an active chunk exists at (lod, c).
func (g *ChunkGrid) Has(lod int, c ChunkCoord) bool {
	return g.Get(lod, c) != NoHandle
}

// Count returns the number of active chunks across all levels.
func (g *ChunkGrid) Count() int {
	n := 0
	for _, lg := range g.levels {
		for _, h := range lg.cells {
			if h != NoHandle {
				n++
			}
		}
	}
	return n
}

// ForEach calls fn for every active chunk, level by level in row-major order.
func (g *ChunkGrid) ForEach(fn func(lod int, c ChunkCoord, h Handle)) {
	for lod, lg := range g.levels {
		for i, h := range lg.cells {
			if h != NoHandle {
				fn(lod, ChunkCoord{i % lg.width, i / lg.width}, h)
			}
		}
	}
}

// Clear removes every entry while keeping dimensions.
func (g *ChunkGrid) Clear() {
	for lod := range g.levels {
		clear(g.levels[lod].cells)
	}
}

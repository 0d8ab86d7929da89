package lod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkGridResize(t *testing.T) {
	g := NewChunkGrid()
	g.Resize(5, 3, 3)
	require.Equal(t, 3, g.LodCount())

	tests := []struct {
		lod  int
		w, h int
	}{
		{0, 5, 3},
		{1, 3, 2},
		{2, 2, 1},
		{3, 0, 0},
	}
	for _, tt := range tests {
		w, h := g.Size(tt.lod)
		assert.Equal(t, tt.w, w, "lod %d", tt.lod)
		assert.Equal(t, tt.h, h, "lod %d", tt.lod)
	}
}

func TestChunkGridSetGet(t *testing.T) {
	g := NewChunkGrid()
	g.Resize(4, 4, 2)

	assert.True(t, g.Set(0, ChunkCoord{3, 2}, 7))
	assert.True(t, g.Set(1, ChunkCoord{1, 1}, 9))
	assert.Equal(t, Handle(7), g.Get(0, ChunkCoord{3, 2}))
	assert.True(t, g.Has(1, ChunkCoord{1, 1}))
	assert.False(t, g.Has(1, ChunkCoord{0, 1}))
	assert.Equal(t, 2, g.Count())

	// Out of range is absent, never an error.
	assert.False(t, g.Set(0, ChunkCoord{4, 0}, 1))
	assert.False(t, g.Set(2, ChunkCoord{0, 0}, 1))
	assert.Equal(t, NoHandle, g.Get(0, ChunkCoord{-1, 0}))
	assert.Equal(t, NoHandle, g.Get(5, ChunkCoord{0, 0}))
	assert.False(t, g.InRange(-1, ChunkCoord{}))

	var seen []Handle
	g.ForEach(func(lod int, c ChunkCoord, h Handle) {
		seen = append(seen, h)
	})
	assert.Equal(t, []Handle{7, 9}, seen)

	g.Clear()
	assert.Zero(t, g.Count())
	w, h := g.Size(0)
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)
}

func TestChunkGridResizePreservesOverlap(t *testing.T) {
	g := NewChunkGrid()
	g.Resize(4, 4, 1)
	g.Set(0, ChunkCoord{1, 1}, 3)
	g.Set(0, ChunkCoord{3, 3}, 4)

	g.Resize(8, 6, 2)
	assert.Equal(t, Handle(3), g.Get(0, ChunkCoord{1, 1}))
	assert.Equal(t, Handle(4), g.Get(0, ChunkCoord{3, 3}))
	assert.False(t, g.Has(1, ChunkCoord{0, 0}))

	g.Resize(2, 2, 1)
	assert.Equal(t, Handle(3), g.Get(0, ChunkCoord{1, 1}))
	assert.Equal(t, 1, g.Count())

	g.Resize(4, 4, 1)
	assert.False(t, g.Has(0, ChunkCoord{3, 3}))
}

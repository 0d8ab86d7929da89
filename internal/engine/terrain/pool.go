package terrain

import (
	"github.com/Faultbox/midgard-terrain/internal/lod"
)

// ChunkPool stores chunks in a slice and hands out generation-counted
// handles, so a handle kept past Release never resolves to a reused slot.
//
// Handle layout: low 32 bits are slot+1, high 32 bits the slot generation.
type ChunkPool struct {
	chunks []Chunk
	gens   []uint32
	live   []bool
	free   []uint32
	count  int
}

// NewChunkPool returns a pool with room for capacity chunks before growing.
func NewChunkPool(capacity int) *ChunkPool {
	return &ChunkPool{
		chunks: make([]Chunk, 0, capacity),
		gens:   make([]uint32, 0, capacity),
		live:   make([]bool, 0, capacity),
	}
}

func makeHandle(slot, gen uint32) lod.Handle {
	return lod.Handle(uint64(gen)<<32 | uint64(slot+1))
}

func (p *ChunkPool) slot(h lod.Handle) (uint32, bool) {
	low := uint32(h)
	if low == 0 {
		return 0, false
	}
	slot := low - 1
	if int(slot) >= len(p.chunks) || !p.live[slot] || p.gens[slot] != uint32(h>>32) {
		return 0, false
	}
	return slot, true
}

// Acquire returns a zeroed chunk and its handle.
func (p *ChunkPool) Acquire() (lod.Handle, *Chunk) {
	var slot uint32
	if k := len(p.free); k > 0 {
		slot = p.free[k-1]
		p.free = p.free[:k-1]
	} else {
		slot = uint32(len(p.chunks))
		p.chunks = append(p.chunks, Chunk{})
		p.gens = append(p.gens, 0)
		p.live = append(p.live, false)
	}
	p.chunks[slot] = Chunk{}
	p.live[slot] = true
	p.count++
	return makeHandle(slot, p.gens[slot]), &p.chunks[slot]
}

// Release returns the chunk to the pool. It reports false for a stale or
// unknown handle.
func (p *ChunkPool) Release(h lod.Handle) bool {
	slot, ok := p.slot(h)
	if !ok {
		return false
	}
	p.chunks[slot] = Chunk{}
	p.live[slot] = false
	p.gens[slot]++
	p.free = append(p.free, slot)
	p.count--
	return true
}

// Get resolves a handle, or returns nil if it is stale.
func (p *ChunkPool) Get(h lod.Handle) *Chunk {
	slot, ok := p.slot(h)
	if !ok {
		return nil
	}
	return &p.chunks[slot]
}

// Len returns the number of live chunks.
func (p *ChunkPool) Len() int {
	return p.count
}

// Each calls fn for every live chunk in slot order.
func (p *ChunkPool) Each(fn func(h lod.Handle, c *Chunk)) {
	for i := range p.chunks {
		if p.live[i] {
			fn(makeHandle(uint32(i), p.gens[i]), &p.chunks[i])
		}
	}
}

// Reset releases every chunk and invalidates all outstanding handles.
func (p *ChunkPool) Reset() {
	p.free = p.free[:0]
	for i := len(p.chunks) - 1; i >= 0; i-- {
		if p.live[i] {
			p.gens[i]++
		}
		p.chunks[i] = Chunk{}
		p.live[i] = false
		p.free = append(p.free, uint32(i))
	}
	p.count = 0
}

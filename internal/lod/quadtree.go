package lod

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Split scale bounds. Below the minimum, levels decimate too fast and thrash;
// above the maximum, detail is wasted far from the viewer.
const (
	MinSplitScale     = 2.0
	MaxSplitScale     = 5.0
	DefaultSplitScale = 2.0
)

const (
	noChildren int32 = -1
	rootIndex  int32 = -1
)

// Callbacks connect the quadtree to the rendering collaborator.
type Callbacks struct {
	// Make creates a chunk for a new leaf and returns its handle.
	Make func(lod int, origin ChunkCoord) Handle
	// Recycle releases a chunk whose leaf went away. The tree never
	// references h again afterwards.
	Recycle func(h Handle, lod int, origin ChunkCoord)
	// VerticalBounds optionally returns the height extent of a region so the
	// distance test accounts for terrain height.
	VerticalBounds func(lod int, origin ChunkCoord) (lo, hi float32)
	// Joined is optionally called after four leaves merged into the leaf at
	// (lod, origin), once its new chunk has been made.
	Joined func(lod int, origin ChunkCoord)
}

// QuadtreeConfig holds the quadtree setup parameters.
type QuadtreeConfig struct {
	// BaseChunkSize is the side length, in world units, of a level-0 chunk.
	BaseChunkSize int
	// FullResolution is the terrain side length in world units.
	FullResolution int
	// SplitScale is clamped to [MinSplitScale, MaxSplitScale].
	SplitScale float32
	// PoolCapacity limits the node pool to this many 4-node blocks.
	// Zero sizes the pool for the complete tree.
	PoolCapacity int
}

// TreeStats counts structural changes made by the last Update.
type TreeStats struct {
	Splits        int `json:"splits"`
	Joins         int `json:"joins"`
	SplitFailures int `json:"split_failures"`
	Made          int `json:"made"`
	Recycled      int `json:"recycled"`
}

// node is one region of the tree. It holds a chunk handle, or four children
// starting at firstChild, or neither.
type node struct {
	firstChild int32
	origin     ChunkCoord
	chunk      Handle
}

func (n *node) hasChildren() bool {
	return n.firstChild != noChildren
}

func (n *node) reset() {
	*n = node{firstChild: noChildren}
}

// Quadtree decides, per frame, which regions of the terrain are rendered at
// which level. Nodes live in a flat pool addressed by index; siblings are
// allocated and freed as one block of four.
type Quadtree struct {
	cb  Callbacks
	log *zap.Logger

	root node
	pool []node
	free []int32

	maxDepth     int
	baseSize     int
	splitScale   float32
	poolCapacity int
	capacityHint int

	stats TreeStats
}

// NewQuadtree validates cfg and returns a tree holding only an empty root.
// The root chunk is made on the first Update.
func NewQuadtree(cfg QuadtreeConfig, cb Callbacks, log *zap.Logger) (*Quadtree, error) {
	if log == nil {
		log = zap.NewNop()
	}
	q := &Quadtree{
		cb:           cb,
		log:          log,
		root:         node{firstChild: noChildren},
		capacityHint: cfg.PoolCapacity,
	}
	q.SetSplitScale(cfg.SplitScale)
	if err := q.Reset(cfg.BaseChunkSize, cfg.FullResolution); err != nil {
		return nil, err
	}
	return q, nil
}

// Reset recycles every live chunk, then rebuilds the tree for new sizes.
func (q *Quadtree) Reset(baseSize, fullResolution int) error {
	if baseSize <= 0 {
		return ErrInvalidBaseSize
	}
	if fullResolution <= 0 || fullResolution < baseSize {
		return fmt.Errorf("%w: %d (base %d)", ErrInvalidResolution, fullResolution, baseSize)
	}
	depth := ComputeMaxDepth(baseSize, fullResolution)
	if depth+1 > MaxLodCount {
		return fmt.Errorf("%w: %d levels, max %d", ErrTooManyLevels, depth+1, MaxLodCount)
	}

	q.Clear()
	q.baseSize = baseSize
	q.maxDepth = depth
	q.poolCapacity = fullTreeBlocks(depth)
	if q.capacityHint > 0 && q.capacityHint < q.poolCapacity {
		q.poolCapacity = q.capacityHint
	}
	q.pool = q.pool[:0]
	q.free = q.free[:0]

	q.log.Debug("quadtree reset",
		zap.Int("base_size", baseSize),
		zap.Int("full_resolution", fullResolution),
		zap.Int("max_depth", depth),
		zap.Int("pool_blocks", q.poolCapacity),
	)
	return nil
}

// fullTreeBlocks returns how many sibling blocks a complete tree of the given
// depth needs: one per possible internal node, (4^depth - 1) / 3.
func fullTreeBlocks(depth int) int {
	return ((1 << (2 * depth)) - 1) / 3
}

// Clear recycles every chunk and frees every node except the root, which is
// left empty. The next Update makes a new root chunk.
func (q *Quadtree) Clear() {
	q.joinAllRecursively(rootIndex, q.maxDepth)
	q.root.reset()
}

// MaxDepth returns the level of the root.
func (q *Quadtree) MaxDepth() int {
	return q.maxDepth
}

// LodCount returns the number of detail levels.
func (q *Quadtree) LodCount() int {
	return q.maxDepth + 1
}

// BaseChunkSize returns the world size of a level-0 chunk.
func (q *Quadtree) BaseChunkSize() int {
	return q.baseSize
}

// SetSplitScale sets the split scale. The higher, the further each level
// spreads and the higher the quality. Out-of-range values are clamped.
func (q *Quadtree) SetSplitScale(s float32) {
	if s < MinSplitScale {
		s = MinSplitScale
	}
	if s > MaxSplitScale {
		s = MaxSplitScale
	}
	q.splitScale = s
}

// SplitScale returns the clamped split scale.
func (q *Quadtree) SplitScale() float32 {
	return q.splitScale
}

// SplitDistance returns the viewer distance under which a leaf at the given
// level splits.
func (q *Quadtree) SplitDistance(lod int) float32 {
	return float32(q.baseSize*LodFactor(lod)) * q.splitScale
}

// ChunkWorldSize returns the world side length of a chunk at the given level.
func (q *Quadtree) ChunkWorldSize(lod int) int {
	return q.baseSize * LodFactor(lod)
}

// FreeBlocks returns how many more sibling blocks can be allocated.
func (q *Quadtree) FreeBlocks() int {
	return len(q.free) + q.poolCapacity - len(q.pool)/4
}

// Stats returns the structural changes made by the last Update.
func (q *Quadtree) Stats() TreeStats {
	return q.stats
}

// Update advances the tree for one frame. Each node changes by at most one
// level per call; larger viewer moves converge over several frames.
func (q *Quadtree) Update(viewer math.Vec3) {
	q.stats = TreeStats{}
	q.update(rootIndex, q.maxDepth, viewer)

	// Keep the coarsest level visible if the tree was cleared while the
	// viewer is far away.
	if !q.root.hasChildren() && q.root.chunk == NoHandle {
		q.root.chunk = q.makeChunk(q.maxDepth, q.root.origin)
	}

	if q.stats.SplitFailures > 0 {
		q.log.Warn("node pool exhausted, detail capped",
			zap.Int("failed_splits", q.stats.SplitFailures),
			zap.Int("pool_blocks", q.poolCapacity),
		)
	}
	instrumentFreeBlocks(q.FreeBlocks())
}

func (q *Quadtree) node(index int32) *node {
	if index == rootIndex {
		return &q.root
	}
	return &q.pool[index]
}

// center returns the world-space centroid of a region footprint.
func (q *Quadtree) center(lod int, origin ChunkCoord) math.Vec3 {
	size := float32(q.ChunkWorldSize(lod))
	c := math.Vec3{
		X: (float32(origin.X) + 0.5) * size,
		Z: (float32(origin.Y) + 0.5) * size,
	}
	if q.cb.VerticalBounds != nil {
		lo, hi := q.cb.VerticalBounds(lod, origin)
		c.Y = (lo + hi) / 2
	}
	return c
}

func (q *Quadtree) update(index int32, lod int, viewer math.Vec3) {
	n := q.node(index)
	origin := n.origin
	center := q.center(lod, origin)
	splitDistance := q.SplitDistance(lod)

	if !n.hasChildren() {
		if lod > 0 && center.Distance(viewer) < splitDistance {
			q.split(index, lod)
		}
		return
	}

	// Children first, so a join only sees a subtree that is stable for
	// this frame.
	first := n.firstChild
	noSplitChild := true
	for i := int32(0); i < 4; i++ {
		q.update(first+i, lod-1, viewer)
		if q.pool[first+i].hasChildren() {
			noSplitChild = false
		}
	}

	if noSplitChild && center.Distance(viewer) > splitDistance {
		q.join(index, lod)
	}
}

func (q *Quadtree) split(index int32, lod int) {
	first, ok := q.allocateChildren()
	if !ok {
		q.stats.SplitFailures++
		instrumentSplitFailure()
		return
	}

	// The pool may have grown; take the parent pointer after allocating.
	n := q.node(index)
	n.firstChild = first
	for i := int32(0); i < 4; i++ {
		child := &q.pool[first+i]
		child.origin = n.origin.Child(int(i))
		child.chunk = q.makeChunk(lod-1, child.origin)
	}

	if n.chunk != NoHandle {
		q.recycleChunk(n.chunk, lod, n.origin)
		n.chunk = NoHandle
	}
	q.stats.Splits++
	instrumentSplit(lod)
}

func (q *Quadtree) join(index int32, lod int) {
	n := q.node(index)
	first := n.firstChild
	for i := int32(0); i < 4; i++ {
		child := &q.pool[first+i]
		if child.chunk != NoHandle {
			q.recycleChunk(child.chunk, lod-1, child.origin)
		}
	}
	q.recycleChildren(first)
	n.firstChild = noChildren
	n.chunk = q.makeChunk(lod, n.origin)

	q.stats.Joins++
	instrumentJoin(lod)
	if q.cb.Joined != nil {
		q.cb.Joined(lod, n.origin)
	}
}

// joinAllRecursively recycles every chunk below index and frees the nodes.
func (q *Quadtree) joinAllRecursively(index int32, lod int) {
	n := q.node(index)
	if n.hasChildren() {
		first := n.firstChild
		for i := int32(0); i < 4; i++ {
			q.joinAllRecursively(first+i, lod-1)
		}
		q.recycleChildren(first)
		q.node(index).firstChild = noChildren
		return
	}
	if n.chunk != NoHandle {
		q.recycleChunk(n.chunk, lod, n.origin)
		n.chunk = NoHandle
	}
}

// allocateChildren returns the index of the first node of a free block of
// four, growing the pool up to its capacity.
func (q *Quadtree) allocateChildren() (int32, bool) {
	if k := len(q.free); k > 0 {
		first := q.free[k-1]
		q.free = q.free[:k-1]
		return first, true
	}
	if len(q.pool)/4 >= q.poolCapacity {
		return noChildren, false
	}
	first := int32(len(q.pool))
	for i := 0; i < 4; i++ {
		q.pool = append(q.pool, node{firstChild: noChildren})
	}
	return first, true
}

// recycleChildren returns the block starting at first to the free list.
func (q *Quadtree) recycleChildren(first int32) {
	if first%4 != 0 {
		panic(fmt.Sprintf("lod: recycling node %d which is not the first of a block", first))
	}
	for i := int32(0); i < 4; i++ {
		q.pool[first+i].reset()
	}
	q.free = append(q.free, first)
}

func (q *Quadtree) makeChunk(lod int, origin ChunkCoord) Handle {
	if q.cb.Make == nil {
		return NoHandle
	}
	q.stats.Made++
	return q.cb.Make(lod, origin)
}

func (q *Quadtree) recycleChunk(h Handle, lod int, origin ChunkCoord) {
	q.stats.Recycled++
	if q.cb.Recycle != nil {
		q.cb.Recycle(h, lod, origin)
	}
}

// Leaf describes one rendering leaf of the tree.
type Leaf struct {
	Lod        int
	Origin     ChunkCoord
	Chunk      Handle
	ChildIndex int
}

// Walk calls fn for every leaf, depth first in child order.
func (q *Quadtree) Walk(fn func(Leaf)) {
	q.walk(rootIndex, q.maxDepth, 0, fn)
}

func (q *Quadtree) walk(index int32, lod, childIndex int, fn func(Leaf)) {
	n := q.node(index)
	if n.hasChildren() {
		first := n.firstChild
		for i := int32(0); i < 4; i++ {
			q.walk(first+i, lod-1, int(i), fn)
		}
		return
	}
	fn(Leaf{Lod: lod, Origin: n.origin, Chunk: n.chunk, ChildIndex: childIndex})
}

// Leaves returns every leaf of the tree.
func (q *Quadtree) Leaves() []Leaf {
	var leaves []Leaf
	q.Walk(func(l Leaf) {
		leaves = append(leaves, l)
	})
	return leaves
}

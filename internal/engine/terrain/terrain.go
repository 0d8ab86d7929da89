package terrain

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/heightmap"
	"github.com/Faultbox/midgard-terrain/internal/lod"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Terrain ties the quadtree, chunk grid, scheduler and seam mesh cache to a
// heightmap. Call Update once per frame with the viewer position.
type Terrain struct {
	cfg Config
	log *zap.Logger

	data   *heightmap.Heightmap
	tree   *lod.Quadtree
	grid   *lod.ChunkGrid
	meshes *lod.SeamMeshCache
	sched  *lod.Scheduler
	pool   *ChunkPool

	frame     uint64
	meshSwaps int
}

// New builds a terrain over data. The heightmap resolution wins over
// cfg.Resolution so both always agree.
func New(ctx context.Context, cfg Config, data *heightmap.Heightmap, log *zap.Logger) (*Terrain, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if data == nil {
		var err error
		if data, err = heightmap.New(cfg.Resolution); err != nil {
			return nil, err
		}
	}
	cfg.Resolution = data.Resolution()

	t := &Terrain{
		cfg:  cfg,
		log:  log,
		data: data,
		grid: lod.NewChunkGrid(),
		pool: NewChunkPool(64),
	}

	cb := lod.Callbacks{
		Make:    t.makeChunk,
		Recycle: t.recycleChunk,
		Joined: func(l int, origin lod.ChunkCoord) {
			t.sched.MarkJoined(l, origin)
		},
	}
	if cfg.UseVerticalBounds {
		cb.VerticalBounds = t.verticalBounds
	}

	tree, err := lod.NewQuadtree(lod.QuadtreeConfig{
		BaseChunkSize:  cfg.BaseChunkSize,
		FullResolution: cfg.Resolution,
		SplitScale:     cfg.SplitScale,
		PoolCapacity:   cfg.PoolCapacity,
	}, cb, log.Named("quadtree"))
	if err != nil {
		return nil, fmt.Errorf("creating quadtree: %w", err)
	}
	t.tree = tree

	meshes, err := lod.NewSeamMeshCache(ctx, cfg.BaseChunkSize, cfg.BaseChunkSize, tree.LodCount())
	if err != nil {
		return nil, fmt.Errorf("building chunk meshes: %w", err)
	}
	t.meshes = meshes
	t.sched = lod.NewScheduler(t.grid, meshes, lod.MeshSinkFunc(t.assignMesh), t.chunkBounds, log.Named("scheduler"))
	t.resizeGrid()

	log.Info("terrain ready",
		zap.Int("resolution", cfg.Resolution),
		zap.Int("base_chunk_size", cfg.BaseChunkSize),
		zap.Int("lod_count", tree.LodCount()),
		zap.Float32("split_scale", tree.SplitScale()),
	)
	return t, nil
}

func (t *Terrain) resizeGrid() {
	side := lod.LodFactor(t.tree.MaxDepth())
	t.grid.Resize(side, side, t.tree.LodCount())
}

// Update advances the LOD structure for one frame and assigns meshes to every
// chunk whose seam configuration may have changed.
func (t *Terrain) Update(viewer math.Vec3) FrameStats {
	t.frame++
	t.meshSwaps = 0

	t.tree.Update(viewer)
	sched := t.sched.Process()

	stats := FrameStats{
		Frame:      t.frame,
		Viewer:     viewer,
		Tree:       t.tree.Stats(),
		Schedule:   sched,
		MeshSwaps:  t.meshSwaps,
		LiveChunks: t.pool.Len(),
		FreeBlocks: t.tree.FreeBlocks(),
		Leaves:     make(map[int]int),
	}
	t.tree.Walk(func(l lod.Leaf) {
		stats.Leaves[l.Lod]++
	})

	if stats.Tree.Splits+stats.Tree.Joins > 0 {
		t.log.Debug("lod changed",
			zap.Uint64("frame", t.frame),
			zap.Int("splits", stats.Tree.Splits),
			zap.Int("joins", stats.Tree.Joins),
			zap.Int("assigned", sched.Assigned),
			zap.Int("live", stats.LiveChunks),
		)
	}
	return stats
}

func (t *Terrain) makeChunk(l int, origin lod.ChunkCoord) lod.Handle {
	h, c := t.pool.Acquire()
	c.Lod = l
	c.Origin = origin
	c.Active = true
	c.Visible = true
	c.PendingUpdate = true
	if !t.grid.Set(l, origin, h) {
		t.log.Warn("chunk outside grid", zap.Int("lod", l), zap.Int("x", origin.X), zap.Int("y", origin.Y))
	}
	t.sched.MarkMade(l, origin)
	return h
}

func (t *Terrain) recycleChunk(h lod.Handle, l int, origin lod.ChunkCoord) {
	t.grid.Set(l, origin, lod.NoHandle)
	if !t.pool.Release(h) {
		t.log.Warn("recycling stale chunk handle", zap.Uint64("handle", uint64(h)))
	}
	t.sched.MarkRecycled(l, origin)
}

func (t *Terrain) assignMesh(h lod.Handle, m *lod.Mesh, bounds math.AABB) {
	c := t.pool.Get(h)
	if c == nil {
		t.log.Warn("mesh for stale chunk handle", zap.Uint64("handle", uint64(h)))
		return
	}
	if c.SetMesh(m) {
		t.meshSwaps++
	}
	c.Bounds = bounds
	c.PendingUpdate = false
}

// cellRect returns the height cells covered by a region.
func (t *Terrain) cellRect(l int, origin lod.ChunkCoord) (x, y, size int) {
	size = t.tree.ChunkWorldSize(l)
	return origin.X * size, origin.Y * size, size
}

func (t *Terrain) verticalBounds(l int, origin lod.ChunkCoord) (lo, hi float32) {
	x, y, size := t.cellRect(l, origin)
	b := t.data.VerticalBounds(x, y, size, size)
	return b.Min, b.Max
}

func (t *Terrain) chunkBounds(l int, origin lod.ChunkCoord) math.AABB {
	x, y, size := t.cellRect(l, origin)
	return t.data.RegionAABB(x, y, size, size)
}

// NotifyRegionChange refreshes cached height bounds and the bounding boxes of
// live chunks overlapping the cell region.
func (t *Terrain) NotifyRegionChange(x, y, w, d int) {
	t.data.NotifyRegionChange(x, y, w, d)
	region := math.AABB{
		Min: math.Vec3{X: float32(x), Z: float32(y)},
		Max: math.Vec3{X: float32(x + w), Z: float32(y + d)},
	}
	t.pool.Each(func(_ lod.Handle, c *Chunk) {
		if overlapsXZ(c.Bounds, region) {
			c.Bounds = t.chunkBounds(c.Lod, c.Origin)
		}
	})
}

func overlapsXZ(a, b math.AABB) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Z <= b.Max.Z && b.Min.Z <= a.Max.Z
}

// SetResolution resizes the heightmap and rebuilds the tree, grid and meshes
// for the new size. Every live chunk is recycled.
func (t *Terrain) SetResolution(ctx context.Context, resolution int) error {
	if err := t.data.SetResolution(resolution); err != nil {
		return err
	}
	r := t.data.Resolution()
	if err := t.tree.Reset(t.cfg.BaseChunkSize, r); err != nil {
		return fmt.Errorf("resetting quadtree: %w", err)
	}
	if err := t.meshes.Configure(ctx, t.cfg.BaseChunkSize, t.cfg.BaseChunkSize, t.tree.LodCount()); err != nil {
		return err
	}
	t.resizeGrid()
	// Flush recycle notifications; nothing is live any more.
	t.sched.Process()

	t.cfg.Resolution = r
	t.log.Info("terrain resolution changed",
		zap.Int("resolution", r),
		zap.Int("lod_count", t.tree.LodCount()),
	)
	return nil
}

// SetSplitScale changes the split scale; it takes effect on the next Update.
func (t *Terrain) SetSplitScale(s float32) {
	t.tree.SetSplitScale(s)
}

// Cull updates the Visible flag of every active chunk against a view frustum
// and returns how many remain visible.
func (t *Terrain) Cull(f math.Frustum) int {
	visible := 0
	t.Chunks(func(_ lod.Handle, c *Chunk) {
		c.Visible = f.IntersectsAABB(c.Bounds)
		if c.Visible {
			visible++
		}
	})
	return visible
}

// Chunks calls fn for every active chunk.
func (t *Terrain) Chunks(fn func(h lod.Handle, c *Chunk)) {
	t.pool.Each(func(h lod.Handle, c *Chunk) {
		if c.Active {
			fn(h, c)
		}
	})
}

// Chunk resolves a handle, or returns nil if it is stale.
func (t *Terrain) Chunk(h lod.Handle) *Chunk {
	return t.pool.Get(h)
}

// ChunkAt returns the active chunk at (level, coord), or nil.
func (t *Terrain) ChunkAt(l int, c lod.ChunkCoord) *Chunk {
	return t.pool.Get(t.grid.Get(l, c))
}

// HeightAt returns the interpolated terrain height at a world position.
func (t *Terrain) HeightAt(x, z float32) float32 {
	return t.data.InterpolatedHeight(x, z)
}

// Heightmap returns the height data.
func (t *Terrain) Heightmap() *heightmap.Heightmap { return t.data }

// Tree returns the quadtree.
func (t *Terrain) Tree() *lod.Quadtree { return t.tree }

// Grid returns the chunk grid.
func (t *Terrain) Grid() *lod.ChunkGrid { return t.grid }

// Meshes returns the seam mesh cache.
func (t *Terrain) Meshes() *lod.SeamMeshCache { return t.meshes }

// Config returns the effective configuration.
func (t *Terrain) Config() Config { return t.cfg }

// Close recycles every chunk.
func (t *Terrain) Close() {
	t.tree.Clear()
	t.sched.Process()
}

// Generate builds a terrain over a fresh heightmap filled with fractal noise.
func Generate(ctx context.Context, cfg Config, noise heightmap.NoiseParams, log *zap.Logger) (*Terrain, error) {
	data, err := heightmap.New(cfg.Resolution)
	if err != nil {
		return nil, err
	}
	data.Generate(noise)
	return New(ctx, cfg, data, log)
}

// Regenerate refills the heightmap with new noise, keeping its resolution,
// and refreshes the bounds of every live chunk.
func (t *Terrain) Regenerate(noise heightmap.NoiseParams) {
	t.data.Generate(noise)
	r := t.data.Resolution()
	t.NotifyRegionChange(0, 0, r, r)
}

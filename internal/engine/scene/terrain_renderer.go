package scene

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/scene/shaders"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/heightmap"
	"github.com/Faultbox/midgard-terrain/internal/lod"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// gpuMesh is one seam mesh uploaded to the GPU. Chunks of the same level and
// seam mask draw the same buffers with a different origin.
type gpuMesh struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
}

func (m *gpuMesh) destroy() {
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
}

// TerrainRenderer draws LOD terrain chunks.
type TerrainRenderer struct {
	program *shader.Program

	meshes map[*lod.Mesh]*gpuMesh

	heightTex   uint32
	resolution  int
	heightRange [2]float32
}

// NewTerrainRenderer creates a new terrain renderer.
func NewTerrainRenderer() (*TerrainRenderer, error) {
	program, err := shader.NewProgram(shaders.TerrainVertexShader, shaders.TerrainFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("terrain shader: %w", err)
	}
	return &TerrainRenderer{
		program: program,
		meshes:  make(map[*lod.Mesh]*gpuMesh),
	}, nil
}

// UploadHeights (re)creates the height texture from hm.
func (tr *TerrainRenderer) UploadHeights(hm *heightmap.Heightmap) {
	r := hm.Resolution()
	if tr.heightTex == 0 {
		gl.GenTextures(1, &tr.heightTex)
	}
	gl.BindTexture(gl.TEXTURE_2D, tr.heightTex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R32F, int32(r), int32(r), 0, gl.RED, gl.FLOAT, gl.Ptr(hm.Heights()))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	tr.resolution = r
	b := hm.VerticalBounds(0, 0, r-1, r-1)
	tr.heightRange = [2]float32{b.Min, b.Max}
}

// UpdateHeights re-uploads a cell region of hm.
func (tr *TerrainRenderer) UpdateHeights(hm *heightmap.Heightmap, x, y, w, d int) {
	r := hm.Resolution()
	if tr.heightTex == 0 || r != tr.resolution {
		tr.UploadHeights(hm)
		return
	}
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, r), min(y+d, r)
	if x1 <= x0 || y1 <= y0 {
		return
	}

	heights := hm.Heights()
	gl.BindTexture(gl.TEXTURE_2D, tr.heightTex)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(r))
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, int32(x0), int32(y0), int32(x1-x0), int32(y1-y0),
		gl.RED, gl.FLOAT, gl.Ptr(&heights[y0*r+x0]))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)

	b := hm.VerticalBounds(x0, y0, x1-x0, y1-y0)
	tr.heightRange[0] = min(tr.heightRange[0], b.Min)
	tr.heightRange[1] = max(tr.heightRange[1], b.Max)
}

// SyncMeshes uploads every mesh in cache and drops GPU meshes the cache no
// longer holds.
func (tr *TerrainRenderer) SyncMeshes(cache *lod.SeamMeshCache) {
	live := make(map[*lod.Mesh]bool)
	cache.All(func(m *lod.Mesh) {
		live[m] = true
		tr.mesh(m)
	})
	for m, g := range tr.meshes {
		if !live[m] {
			g.destroy()
			delete(tr.meshes, m)
		}
	}
}

// MeshCount returns the number of meshes resident on the GPU.
func (tr *TerrainRenderer) MeshCount() int {
	return len(tr.meshes)
}

func (tr *TerrainRenderer) mesh(m *lod.Mesh) *gpuMesh {
	if g, ok := tr.meshes[m]; ok {
		return g
	}

	g := &gpuMesh{indexCount: int32(len(m.Indices))}
	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	vertexSize := int(unsafe.Sizeof(math.Vec3{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Positions)*vertexSize, gl.Ptr(m.Positions), gl.STATIC_DRAW)

	// Position (location 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	tr.meshes[m] = g
	return g
}

// Lighting holds the shading parameters of one pass.
type Lighting struct {
	LightDir   math.Vec3
	Ambient    math.Vec3
	CameraPos  math.Vec3
	TintByLod  bool
	FogEnabled bool
	FogNear    float32
	FogFar     float32
	FogColor   math.Vec3
}

// Render draws every visible chunk of t and returns the number of triangles
// submitted.
func (tr *TerrainRenderer) Render(viewProj math.Mat4, t *terrain.Terrain, light Lighting) int {
	if tr.heightTex == 0 {
		return 0
	}

	p := tr.program
	p.Use()
	p.SetMat4("uViewProj", viewProj)
	p.SetVec3("uLightDir", light.LightDir)
	p.SetVec3("uAmbient", light.Ambient)
	p.SetVec3("uCameraPos", light.CameraPos)
	p.SetVec2("uHeightRange", tr.heightRange[0], tr.heightRange[1])
	if light.FogEnabled {
		p.SetInt("uFogUse", 1)
		p.SetFloat("uFogNear", light.FogNear)
		p.SetFloat("uFogFar", light.FogFar)
		p.SetVec3("uFogColor", light.FogColor)
	} else {
		p.SetInt("uFogUse", 0)
	}
	tint := float32(0)
	if light.TintByLod {
		tint = 0.35
	}
	p.SetFloat("uTintAmount", tint)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tr.heightTex)
	p.SetInt("uHeight", 0)

	base := t.Config().BaseChunkSize
	triangles := 0
	t.Chunks(func(_ lod.Handle, c *terrain.Chunk) {
		if !c.Visible || c.Mesh == nil {
			return
		}
		g := tr.mesh(c.Mesh)
		origin := c.WorldOrigin(base)
		p.SetVec2("uChunkOrigin", origin.X, origin.Z)
		col := debug.LodColor(c.Lod)
		p.SetVec3("uLodTint", math.Vec3{X: col[0], Y: col[1], Z: col[2]})

		gl.BindVertexArray(g.vao)
		gl.DrawElements(gl.TRIANGLES, g.indexCount, gl.UNSIGNED_INT, nil)
		triangles += int(g.indexCount) / 3
	})
	gl.BindVertexArray(0)
	return triangles
}

// Destroy releases all resources.
func (tr *TerrainRenderer) Destroy() {
	for m, g := range tr.meshes {
		g.destroy()
		delete(tr.meshes, m)
	}
	if tr.heightTex != 0 {
		gl.DeleteTextures(1, &tr.heightTex)
		tr.heightTex = 0
	}
	if tr.program != nil {
		tr.program.Delete()
		tr.program = nil
	}
}

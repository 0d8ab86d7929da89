package scene

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/scene/shaders"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/lod"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// BoundsRenderer draws the bounding box of every visible chunk, colored by
// level.
type BoundsRenderer struct {
	program *shader.Program
	vao     uint32
	vbo     uint32

	byLod [][]float32
}

// NewBoundsRenderer creates a bounds renderer.
func NewBoundsRenderer() (*BoundsRenderer, error) {
	program, err := shader.NewProgram(shaders.LineVertexShader, shaders.LineFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("line shader: %w", err)
	}
	br := &BoundsRenderer{program: program}

	gl.GenVertexArrays(1, &br.vao)
	gl.BindVertexArray(br.vao)
	gl.GenBuffers(1, &br.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, br.vbo)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)
	return br, nil
}

// Render draws the boxes of visible chunks in t.
func (br *BoundsRenderer) Render(viewProj math.Mat4, t *terrain.Terrain) {
	for i := range br.byLod {
		br.byLod[i] = br.byLod[i][:0]
	}
	t.Chunks(func(_ lod.Handle, c *terrain.Chunk) {
		if !c.Visible {
			return
		}
		for len(br.byLod) <= c.Lod {
			br.byLod = append(br.byLod, nil)
		}
		br.byLod[c.Lod] = debug.AppendBoxLines(br.byLod[c.Lod], c.Bounds, 0.05)
	})

	br.program.Use()
	br.program.SetMat4("uViewProj", viewProj)
	gl.BindVertexArray(br.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, br.vbo)
	for l, verts := range br.byLod {
		if len(verts) == 0 {
			continue
		}
		col := debug.LodColor(l)
		br.program.SetVec3("uColor", math.Vec3{X: col[0], Y: col[1], Z: col[2]})
		gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STREAM_DRAW)
		gl.DrawArrays(gl.LINES, 0, int32(len(verts)/3))
	}
	gl.BindVertexArray(0)
}

// Destroy releases all resources.
func (br *BoundsRenderer) Destroy() {
	if br.vao != 0 {
		gl.DeleteVertexArrays(1, &br.vao)
		br.vao = 0
	}
	if br.vbo != 0 {
		gl.DeleteBuffers(1, &br.vbo)
		br.vbo = 0
	}
	if br.program != nil {
		br.program.Delete()
		br.program = nil
	}
}

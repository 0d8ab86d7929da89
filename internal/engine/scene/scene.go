// Package scene renders LOD terrain with OpenGL.
package scene

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Config contains scene configuration options.
type Config struct {
	Width      int32
	Height     int32
	FOVDegrees float32
	Near       float32
	Far        float32
	Wireframe  bool
	ShowBounds bool
	TintByLod  bool
	FogEnabled bool
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{
		Width:      1280,
		Height:     720,
		FOVDegrees: 60,
		Near:       0.5,
		Far:        8000,
		Wireframe:  true,
		TintByLod:  true,
		FogEnabled: true,
	}
}

// FrameInfo reports what one Render call drew.
type FrameInfo struct {
	VisibleChunks int
	Triangles     int
}

// Scene draws a terrain from a camera.
type Scene struct {
	config Config

	terrainRenderer *TerrainRenderer
	boundsRenderer  *BoundsRenderer

	LightDir   math.Vec3
	Ambient    math.Vec3
	ClearColor math.Vec3
}

// New creates a new scene with the given configuration.
func New(cfg Config) (*Scene, error) {
	s := &Scene{
		config:     cfg,
		LightDir:   math.Vec3{X: 0.5, Y: 0.866, Z: 0.2},
		Ambient:    math.Vec3{X: 0.3, Y: 0.3, Z: 0.3},
		ClearColor: math.Vec3{X: 0.55, Y: 0.65, Z: 0.78},
	}

	var err error
	s.terrainRenderer, err = NewTerrainRenderer()
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating terrain renderer: %w", err)
	}
	s.boundsRenderer, err = NewBoundsRenderer()
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating bounds renderer: %w", err)
	}
	return s, nil
}

// LoadTerrain uploads the heights and every cached chunk mesh of t. Call it
// again after the terrain resolution changes.
func (s *Scene) LoadTerrain(t *terrain.Terrain) {
	s.terrainRenderer.UploadHeights(t.Heightmap())
	s.terrainRenderer.SyncMeshes(t.Meshes())
}

// UpdateHeights re-uploads a changed cell region.
func (s *Scene) UpdateHeights(t *terrain.Terrain, x, y, w, d int) {
	s.terrainRenderer.UpdateHeights(t.Heightmap(), x, y, w, d)
}

// MeshCount returns the number of chunk meshes resident on the GPU.
func (s *Scene) MeshCount() int {
	return s.terrainRenderer.MeshCount()
}

// Projection returns the current projection matrix.
func (s *Scene) Projection() math.Mat4 {
	aspect := float32(s.config.Width) / float32(max(s.config.Height, 1))
	fov := s.config.FOVDegrees * 3.14159265 / 180
	return math.Perspective(fov, aspect, s.config.Near, s.config.Far)
}

// Render culls t against the view and draws it into the bound framebuffer.
func (s *Scene) Render(t *terrain.Terrain, view math.Mat4, eye math.Vec3) FrameInfo {
	viewProj := s.Projection().Mul(view)
	info := FrameInfo{VisibleChunks: t.Cull(math.FrustumFromMatrix(viewProj))}

	gl.Viewport(0, 0, s.config.Width, s.config.Height)
	gl.ClearColor(s.ClearColor.X, s.ClearColor.Y, s.ClearColor.Z, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	if s.config.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}
	info.Triangles = s.terrainRenderer.Render(viewProj, t, Lighting{
		LightDir:   s.LightDir,
		Ambient:    s.Ambient,
		CameraPos:  eye,
		TintByLod:  s.config.TintByLod,
		FogEnabled: s.config.FogEnabled,
		FogNear:    s.config.Far * 0.3,
		FogFar:     s.config.Far * 0.9,
		FogColor:   s.ClearColor,
	})
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)

	if s.config.ShowBounds {
		s.boundsRenderer.Render(viewProj, t)
	}
	return info
}

// ToggleWireframe flips wireframe mode and returns the new state.
func (s *Scene) ToggleWireframe() bool {
	s.config.Wireframe = !s.config.Wireframe
	return s.config.Wireframe
}

// ToggleBounds flips chunk bounds drawing and returns the new state.
func (s *Scene) ToggleBounds() bool {
	s.config.ShowBounds = !s.config.ShowBounds
	return s.config.ShowBounds
}

// Resize updates the viewport dimensions.
func (s *Scene) Resize(width, height int32) {
	s.config.Width = width
	s.config.Height = height
}

// ReadPixels reads the bound framebuffer as bottom-up RGBA rows.
func (s *Scene) ReadPixels() ([]byte, int, int) {
	w, h := int(s.config.Width), int(s.config.Height)
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

// Destroy releases all resources.
func (s *Scene) Destroy() {
	if s.terrainRenderer != nil {
		s.terrainRenderer.Destroy()
	}
	if s.boundsRenderer != nil {
		s.boundsRenderer.Destroy()
	}
}

// Package viewer implements the interactive terrain viewer loop.
package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/camera"
	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/input"
	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/picking"
	"github.com/Faultbox/midgard-terrain/internal/engine/renderer"
	"github.com/Faultbox/midgard-terrain/internal/engine/scene"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/window"
	"github.com/Faultbox/midgard-terrain/internal/heightmap"
	"github.com/Faultbox/midgard-terrain/internal/lod"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Config holds viewer configuration.
type Config struct {
	Title       string
	Width       int
	Height      int
	Fullscreen  bool
	VSync       bool
	FOVDegrees  float32
	MoveSpeed   float32
	Wireframe   bool
	Sun         [2]float32 // azimuth, elevation in degrees
	Noise       heightmap.NoiseParams
	SnapshotDir string
}

// FrameObserver is told about every terrain update and how long it took.
type FrameObserver func(stats terrain.FrameStats, seconds float64)

// Viewer is the interactive viewer instance.
type Viewer struct {
	config   Config
	log      *zap.Logger
	running  bool
	window   *window.Window
	input    *input.Input
	scene    *scene.Scene
	terrain  *terrain.Terrain
	camera   *camera.FlyCamera
	orbit    *camera.OrbitCamera
	shots    *debug.Snapshots
	observer FrameObserver

	frozen   bool
	captured bool
	overview bool
	last     terrain.FrameStats
	drawn    scene.FrameInfo
}

// New opens a window and prepares to render t.
func New(cfg Config, t *terrain.Terrain, observer FrameObserver, log *zap.Logger) (*Viewer, error) {
	log.Info("initializing viewer",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
	)

	v := &Viewer{
		config:   cfg,
		log:      log,
		terrain:  t,
		observer: observer,
		shots:    debug.NewSnapshots(cfg.SnapshotDir, "terrain"),
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      cfg.Title,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Fullscreen: cfg.Fullscreen,
		VSync:      cfg.VSync,
	}, log.Named("window"))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// GL must be initialised after the context exists.
	if _, err := renderer.Init(log); err != nil {
		v.window.Close()
		return nil, err
	}

	w, h := v.window.GetSize()
	sc := scene.DefaultConfig()
	sc.Width, sc.Height = int32(w), int32(h)
	sc.FOVDegrees = cfg.FOVDegrees
	sc.Wireframe = cfg.Wireframe
	v.scene, err = scene.New(sc)
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}
	v.scene.LightDir = lighting.SunDirection(cfg.Sun[0], cfg.Sun[1])

	extent := float32(t.Heightmap().Resolution() - 1)
	v.camera = camera.NewFlyCamera(math.Vec3{X: extent / 2, Z: extent / 2})
	v.camera.Position.Y = t.HeightAt(extent/2, extent/2) + 20
	v.camera.Speed = cfg.MoveSpeed
	v.orbit = camera.NewOrbitCamera()
	v.loadTerrain()

	v.input = input.New()

	log.Info("viewer initialized successfully")
	return v, nil
}

// Run starts the main loop and returns when the window closes or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting viewer loop")

	for v.running {
		if ctx.Err() != nil {
			break
		}

		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		v.input.BeginFrame()
		if v.input.Update() {
			break
		}
		if err := v.handleEvents(); err != nil {
			return err
		}
		v.moveCamera(dt)

		eye, view := v.eye()
		if !v.frozen {
			start := time.Now()
			v.last = v.terrain.Update(eye)
			if v.observer != nil {
				v.observer(v.last, time.Since(start).Seconds())
			}
		}

		v.drawn = v.scene.Render(v.terrain, view, eye)
		renderer.CheckError(v.log, "frame")
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.window.SetTitle(v.title(frameCount))
			v.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.Int("chunks", v.last.LiveChunks),
				zap.Int("visible", v.drawn.VisibleChunks),
				zap.Int("triangles", v.drawn.Triangles),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

// eye returns the position and view matrix of the active camera.
func (v *Viewer) eye() (math.Vec3, math.Mat4) {
	if v.overview {
		return v.orbit.Position(), v.orbit.ViewMatrix()
	}
	return v.camera.Position, v.camera.ViewMatrix()
}

// loadTerrain uploads the terrain and frames the overview camera on it.
func (v *Viewer) loadTerrain() {
	v.scene.LoadTerrain(v.terrain)
	r := v.terrain.Heightmap().Resolution()
	v.orbit.FitToBounds(v.terrain.Heightmap().RegionAABB(0, 0, r-1, r-1))
	v.log.Debug("terrain uploaded",
		zap.Int("resolution", r),
		zap.Int("meshes", v.scene.MeshCount()),
	)
}

func (v *Viewer) title(fps int) string {
	state := ""
	if v.overview {
		state += " [overview]"
	}
	if v.frozen {
		state += " [frozen]"
	}
	return fmt.Sprintf("%s | %d fps | %d chunks, %d visible, %d tris | split %.1f%s",
		v.config.Title, fps, v.last.LiveChunks, v.drawn.VisibleChunks, v.drawn.Triangles,
		v.terrain.Tree().SplitScale(), state)
}

func (v *Viewer) handleEvents() error {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			w, h := v.window.GetSize()
			v.scene.Resize(int32(w), int32(h))
		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_RIGHT && !v.overview {
				v.setCaptured(!v.captured)
			}
		case input.EventKeyDown:
			if err := v.handleKey(event.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *Viewer) handleKey(key sdl.Scancode) error {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		if v.captured {
			v.setCaptured(false)
		} else {
			v.running = false
		}
	case sdl.SCANCODE_F1:
		v.log.Info("wireframe", zap.Bool("on", v.scene.ToggleWireframe()))
	case sdl.SCANCODE_F3:
		v.log.Info("chunk bounds", zap.Bool("on", v.scene.ToggleBounds()))
	case sdl.SCANCODE_TAB:
		v.overview = !v.overview
		v.setCaptured(false)
		v.log.Info("camera", zap.Bool("overview", v.overview))
	case sdl.SCANCODE_SPACE:
		v.frozen = !v.frozen
		v.log.Info("lod updates", zap.Bool("frozen", v.frozen))
	case sdl.SCANCODE_LEFTBRACKET:
		v.adjustSplitScale(-0.25)
	case sdl.SCANCODE_RIGHTBRACKET:
		v.adjustSplitScale(0.25)
	case sdl.SCANCODE_R:
		v.config.Noise.Seed++
		v.terrain.Regenerate(v.config.Noise)
		v.loadTerrain()
		v.log.Info("terrain regenerated", zap.Int64("seed", v.config.Noise.Seed))
	case sdl.SCANCODE_H:
		v.raiseHill()
	case sdl.SCANCODE_F2:
		path, err := v.shots.SaveImage("tree", lod.DrawTree(v.terrain.Tree(), 4))
		if err != nil {
			v.log.Warn("failed to save tree", zap.Error(err))
		} else {
			v.log.Info("tree saved", zap.String("path", path))
		}
	case sdl.SCANCODE_F12:
		pixels, w, h := v.scene.ReadPixels()
		path, err := v.shots.SavePixels("view", pixels, w, h)
		if err != nil {
			v.log.Warn("failed to save screenshot", zap.Error(err))
		} else {
			v.log.Info("screenshot saved", zap.String("path", path))
		}
	}
	return nil
}

func (v *Viewer) setCaptured(on bool) {
	v.captured = on
	v.window.SetMouseCaptured(on)
}

func (v *Viewer) adjustSplitScale(delta float32) {
	tree := v.terrain.Tree()
	v.terrain.SetSplitScale(tree.SplitScale() + delta)
	v.log.Info("split scale", zap.Float32("scale", tree.SplitScale()))
}

// raiseHill bumps the ground where the active camera looks, falling back to
// where the view crosses sea level and then to the point under the camera.
func (v *Viewer) raiseHill() {
	const radius = 12
	origin, dir := v.camera.Position, v.camera.Forward()
	if v.overview {
		origin = v.orbit.Position()
		dir = v.orbit.Center.Sub(origin)
	}
	target := origin
	hm := v.terrain.Heightmap()
	r := hm.Resolution()
	ray := picking.NewRay(origin, dir)
	if p, ok := picking.PickGround(ray, v.terrain, hm.RegionAABB(0, 0, r, r), 1); ok {
		target = p
	} else if x, z, ok := ray.IntersectPlaneY(0); ok {
		target = math.Vec3{X: x, Z: z}
	}
	cx, cz := int(target.X), int(target.Z)
	x0, y0 := cx-radius, cz-radius
	hm.Update(x0, y0, 2*radius+1, 2*radius+1, func(x, y int, old float32) float32 {
		dx, dz := float32(x-cx), float32(y-cz)
		d2 := (dx*dx + dz*dz) / (radius * radius)
		if d2 >= 1 {
			return old
		}
		return old + 6*(1-d2)
	})
	v.terrain.NotifyRegionChange(x0, y0, 2*radius+1, 2*radius+1)
	v.scene.UpdateHeights(v.terrain, x0, y0, 2*radius+1, 2*radius+1)

	n := hm.Normal(cx+radius/2, cz)
	v.log.Info("hill raised",
		zap.Int("x", cx),
		zap.Int("z", cz),
		zap.Float32("peak", hm.Height(cx, cz)),
		zap.Float32("flank_normal_y", n.Y),
	)
}

func (v *Viewer) moveCamera(dt float32) {
	if v.overview {
		if v.input.IsButtonHeld(sdl.BUTTON_LEFT) {
			dx, dy := v.input.MouseDelta()
			v.orbit.HandleDrag(float32(dx), float32(dy))
		}
		if w := v.input.Wheel(); w != 0 {
			v.orbit.HandleZoom(float32(w))
		}
		return
	}

	if v.captured {
		dx, dy := v.input.MouseDelta()
		v.camera.HandleMouse(float32(dx), float32(dy))
	}

	axis := func(pos, neg sdl.Scancode) float32 {
		var a float32
		if v.input.IsKeyHeld(pos) {
			a++
		}
		if v.input.IsKeyHeld(neg) {
			a--
		}
		return a
	}
	forward := axis(sdl.SCANCODE_W, sdl.SCANCODE_S)
	right := axis(sdl.SCANCODE_D, sdl.SCANCODE_A)
	up := axis(sdl.SCANCODE_E, sdl.SCANCODE_Q)
	if forward == 0 && right == 0 && up == 0 {
		return
	}

	boost := float32(1)
	if v.input.IsKeyHeld(sdl.SCANCODE_LSHIFT) {
		boost = 4
	}
	v.camera.Move(forward, right, up, dt*boost)

	// Keep the camera above ground.
	ground := v.terrain.HeightAt(v.camera.Position.X, v.camera.Position.Z) + 1
	v.camera.Position.Y = max(v.camera.Position.Y, ground)
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.scene != nil {
		v.scene.Destroy()
	}
	if v.window != nil {
		v.window.Close()
	}
}

// Package camera provides camera implementations for 3D rendering.
package camera

import (
	gomath "math"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

var worldUp = math.Vec3{X: 0, Y: 1, Z: 0}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance  float32
	RotationX float32 // pitch, radians
	RotationY float32 // yaw, radians

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        200.0,
		RotationX:       0.5,
		RotationY:       0.0,
		MinDistance:     10.0,
		MaxDistance:     5000.0,
		MinPitch:        0.05,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cosX, sinX := cosSin(c.RotationX)
	cosY, sinY := cosSin(c.RotationY)
	return c.Center.Add(math.Vec3{
		X: c.Distance * cosX * sinY,
		Y: c.Distance * sinX,
		Z: c.Distance * cosX * cosY,
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, worldUp)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX = clamp(c.RotationX+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// SetCenter sets the camera's center point.
func (c *OrbitCamera) SetCenter(center math.Vec3) {
	c.Center = center
}

// FitToBounds centers the camera on b and backs off far enough to see it.
func (c *OrbitCamera) FitToBounds(b math.AABB) {
	c.Center = b.Center()
	size := b.Size()
	c.Distance = clamp(max(size.X, size.Z)*0.8, c.MinDistance, c.MaxDistance)
	c.RotationX = 0.6
	c.RotationY = 0.0
}

// FlyCamera is a free-moving first-person camera.
type FlyCamera struct {
	Position math.Vec3
	Yaw      float32 // radians, 0 looks down -Z
	Pitch    float32 // radians, positive looks up

	Speed            float32 // world units per second
	MouseSensitivity float32
}

// NewFlyCamera creates a fly camera at pos.
func NewFlyCamera(pos math.Vec3) *FlyCamera {
	return &FlyCamera{
		Position:         pos,
		Speed:            40,
		MouseSensitivity: 0.003,
	}
}

const maxPitch = 1.55

// Forward returns the unit view direction.
func (c *FlyCamera) Forward() math.Vec3 {
	cosP, sinP := cosSin(c.Pitch)
	cosY, sinY := cosSin(c.Yaw)
	return math.Vec3{X: -sinY * cosP, Y: sinP, Z: -cosY * cosP}
}

// Right returns the unit right direction on the XZ plane.
func (c *FlyCamera) Right() math.Vec3 {
	cosY, sinY := cosSin(c.Yaw)
	return math.Vec3{X: cosY, Z: -sinY}
}

// ViewMatrix returns the view matrix for this camera.
func (c *FlyCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position, c.Position.Add(c.Forward()), worldUp)
}

// HandleMouse turns the camera by a relative mouse motion.
func (c *FlyCamera) HandleMouse(dx, dy float32) {
	c.Yaw -= dx * c.MouseSensitivity
	c.Pitch = clamp(c.Pitch-dy*c.MouseSensitivity, -maxPitch, maxPitch)
}

// Move translates the camera. forward follows the view direction, right and
// up are world aligned. Inputs are in [-1, 1] and scaled by Speed and dt.
func (c *FlyCamera) Move(forward, right, up, dt float32) {
	step := c.Speed * dt
	d := c.Forward().Scale(forward).
		Add(c.Right().Scale(right)).
		Add(worldUp.Scale(up))
	c.Position = c.Position.Add(d.Scale(step))
}

func cosSin(a float32) (float32, float32) {
	s, co := gomath.Sincos(float64(a))
	return float32(co), float32(s)
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}

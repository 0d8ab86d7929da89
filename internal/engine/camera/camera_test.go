package camera

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

func assertVec(t *testing.T, want, got math.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-4)
	assert.InDelta(t, want.Y, got.Y, 1e-4)
	assert.InDelta(t, want.Z, got.Z, 1e-4)
}

func TestOrbitCameraPosition(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 10, Y: 0, Z: 10}
	c.Distance = 100
	c.RotationX = 0
	c.RotationY = 0

	assertVec(t, math.Vec3{X: 10, Y: 0, Z: 110}, c.Position())

	c.RotationX = float32(gomath.Pi / 2)
	assertVec(t, math.Vec3{X: 10, Y: 100, Z: 10}, c.Position())
}

func TestOrbitCameraViewMapsCenterToAxis(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 5, Y: 2, Z: -3}
	c.Distance = 50

	p := c.ViewMatrix().TransformVec3(c.Center)
	assert.InDelta(t, 0, p.X, 1e-3)
	assert.InDelta(t, 0, p.Y, 1e-3)
	assert.InDelta(t, -50, p.Z, 1e-3)
}

func TestOrbitCameraClamps(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 1e6)
	assert.Equal(t, c.MaxPitch, c.RotationX)
	c.HandleDrag(0, -1e6)
	assert.Equal(t, c.MinPitch, c.RotationX)

	c.HandleZoom(100)
	assert.Equal(t, c.MinDistance, c.Distance)
	c.HandleZoom(-1e6)
	assert.Equal(t, c.MaxDistance, c.Distance)
}

func TestOrbitCameraFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	c.FitToBounds(math.AABB{Max: math.Vec3{X: 512, Y: 40, Z: 256}})
	assertVec(t, math.Vec3{X: 256, Y: 20, Z: 128}, c.Center)
	assert.InDelta(t, 409.6, c.Distance, 1e-3)
}

func TestFlyCameraDirections(t *testing.T) {
	c := NewFlyCamera(math.Vec3{})
	assertVec(t, math.Vec3{Z: -1}, c.Forward())
	assertVec(t, math.Vec3{X: 1}, c.Right())

	c.Yaw = float32(gomath.Pi / 2)
	assertVec(t, math.Vec3{X: -1}, c.Forward())
	assertVec(t, math.Vec3{Z: -1}, c.Right())
}

func TestFlyCameraMove(t *testing.T) {
	c := NewFlyCamera(math.Vec3{X: 1, Y: 2, Z: 3})
	c.Speed = 10

	c.Move(1, 0, 0, 0.5)
	assertVec(t, math.Vec3{X: 1, Y: 2, Z: -2}, c.Position)

	c.Move(0, 1, 1, 1)
	assertVec(t, math.Vec3{X: 11, Y: 12, Z: -2}, c.Position)
}

func TestFlyCameraPitchClamp(t *testing.T) {
	c := NewFlyCamera(math.Vec3{})
	c.HandleMouse(0, -1e6)
	assert.InDelta(t, maxPitch, c.Pitch, 1e-6)
	c.HandleMouse(0, 1e6)
	assert.InDelta(t, -maxPitch, c.Pitch, 1e-6)
}

func TestFlyCameraViewLooksForward(t *testing.T) {
	c := NewFlyCamera(math.Vec3{X: 3, Y: 4, Z: 5})
	c.Yaw = 0.7
	c.Pitch = -0.3

	ahead := c.Position.Add(c.Forward().Scale(10))
	p := c.ViewMatrix().TransformVec3(ahead)
	assert.InDelta(t, 0, p.X, 1e-3)
	assert.InDelta(t, 0, p.Y, 1e-3)
	assert.InDelta(t, -10, p.Z, 1e-3)
}

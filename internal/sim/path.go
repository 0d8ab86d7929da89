package sim

import (
	"fmt"
	gomath "math"
)

// Path kinds.
const (
	PathLine   = "line"
	PathOrbit  = "orbit"
	PathStatic = "static"
)

// ViewerPath returns the viewer's ground position for a frame.
type ViewerPath func(frame int) (x, z float32)

// NewPath returns a path over a square terrain of side extent. speed is in
// world units per frame.
//
//   - line walks a diagonal across the terrain and back
//   - orbit circles the center at 35% of the extent
//   - static stays at the center
func NewPath(kind string, extent, speed float32) (ViewerPath, error) {
	center := extent / 2
	switch kind {
	case PathLine:
		return func(frame int) (float32, float32) {
			p := pingPong(speed*float32(frame), extent)
			return p, extent*0.25 + p*0.5
		}, nil
	case PathOrbit:
		radius := extent * 0.35
		return func(frame int) (float32, float32) {
			if radius == 0 {
				return center, center
			}
			a := float64(speed * float32(frame) / radius)
			return center + radius*float32(gomath.Cos(a)), center + radius*float32(gomath.Sin(a))
		}, nil
	case PathStatic:
		return func(int) (float32, float32) { return center, center }, nil
	}
	return nil, fmt.Errorf("unknown viewer path %q", kind)
}

// pingPong folds d into [0, extent], bouncing at both ends.
func pingPong(d, extent float32) float32 {
	if extent <= 0 {
		return 0
	}
	p := float32(gomath.Mod(float64(d), float64(2*extent)))
	if p > extent {
		p = 2*extent - p
	}
	return p
}

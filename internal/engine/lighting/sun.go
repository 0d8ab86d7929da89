// Package lighting provides lighting utilities for terrain rendering.
package lighting

import (
	gomath "math"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// SunDirection converts azimuth/elevation angles in degrees to a light
// direction. Azimuth rotates around Y starting at +Z, elevation is measured
// from the horizon. The result points towards the sun.
func SunDirection(azimuth, elevation float32) math.Vec3 {
	az := float64(azimuth) * gomath.Pi / 180
	el := float64(elevation) * gomath.Pi / 180

	return math.Vec3{
		X: float32(gomath.Cos(el) * gomath.Sin(az)),
		Y: float32(gomath.Sin(el)),
		Z: float32(gomath.Cos(el) * gomath.Cos(az)),
	}
}

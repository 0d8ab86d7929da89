// Package picking provides ray casting against terrain.
package picking

import (
	gomath "math"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// NewRay builds a ray, normalizing dir.
func NewRay(origin, dir math.Vec3) Ray {
	return Ray{Origin: origin, Direction: dir.Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// IntersectPlaneY intersects a ray with a horizontal plane at the given Y level.
// Returns the intersection point (X, Z) and whether the intersection is valid.
func (r Ray) IntersectPlaneY(planeY float32) (x, z float32, ok bool) {
	if gomath.Abs(float64(r.Direction.Y)) < 0.001 {
		return 0, 0, false // parallel
	}

	t := (planeY - r.Origin.Y) / r.Direction.Y
	if t < 0 {
		return 0, 0, false
	}

	p := r.At(t)
	return p.X, p.Z, true
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// It returns the entry and exit distances; tmin is negative when the ray
// starts inside the box.
func (r Ray) IntersectAABB(box math.AABB) (tmin, tmax float32, hit bool) {
	tmin = float32(-gomath.MaxFloat32)
	tmax = float32(gomath.MaxFloat32)

	origin := [3]float32{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float32{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float32{box.Min.X, box.Min.Y, box.Min.Z}
	hi := [3]float32{box.Max.X, box.Max.Y, box.Max.Z}

	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return 0, 0, false
			}
			continue
		}
		t1 := (lo[i] - origin[i]) / dir[i]
		t2 := (hi[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, 0, false
	}
	return tmin, tmax, true
}

// HeightField is anything that can report a ground height.
type HeightField interface {
	HeightAt(x, z float32) float32
}

// PickGround marches r through bounds and returns the first point at or
// below the ground, refined by bisection. step is the march distance in
// world units.
func PickGround(r Ray, field HeightField, bounds math.AABB, step float32) (math.Vec3, bool) {
	tmin, tmax, ok := r.IntersectAABB(bounds)
	if !ok || step <= 0 {
		return math.Vec3{}, false
	}
	tmin = max(tmin, 0)

	below := func(t float32) bool {
		p := r.At(t)
		return p.Y <= field.HeightAt(p.X, p.Z)
	}
	if below(tmin) {
		return r.At(tmin), true
	}

	prev := tmin
	for t := tmin + step; ; t += step {
		t = min(t, tmax)
		if below(t) {
			lo, hi := prev, t
			for i := 0; i < 16; i++ {
				mid := (lo + hi) / 2
				if below(mid) {
					hi = mid
				} else {
					lo = mid
				}
			}
			return r.At(hi), true
		}
		if t >= tmax {
			return math.Vec3{}, false
		}
		prev = t
	}
}

package math

// Plane is ax + by + cz + d = 0 with the normal pointing inward.
type Plane struct {
	Normal Vec3
	D      float32
}

// Distance returns the signed distance of p to the plane, scaled by the
// normal length.
func (p Plane) Distance(v Vec3) float32 {
	return p.Normal.Dot(v) + p.D
}

// Frustum holds the six clip planes of a view-projection matrix.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts the clip planes of a column-major
// view-projection matrix (left, right, bottom, top, near, far).
func FrustumFromMatrix(m Mat4) Frustum {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	plane := func(a [4]float32, sign float32, b [4]float32) Plane {
		return Plane{
			Normal: Vec3{a[0] + sign*b[0], a[1] + sign*b[1], a[2] + sign*b[2]},
			D:      a[3] + sign*b[3],
		}
	}

	return Frustum{Planes: [6]Plane{
		plane(r3, 1, r0),
		plane(r3, -1, r0),
		plane(r3, 1, r1),
		plane(r3, -1, r1),
		plane(r3, 1, r2),
		plane(r3, -1, r2),
	}}
}

// IntersectsAABB reports whether any part of b may be inside the frustum.
// It tests the box corner furthest along each plane normal, so boxes near
// frustum corners can pass when they are actually outside.
func (f Frustum) IntersectsAABB(b AABB) bool {
	for _, p := range f.Planes {
		v := b.Min
		if p.Normal.X >= 0 {
			v.X = b.Max.X
		}
		if p.Normal.Y >= 0 {
			v.Y = b.Max.Y
		}
		if p.Normal.Z >= 0 {
			v.Z = b.Max.Z
		}
		if p.Distance(v) < 0 {
			return false
		}
	}
	return true
}

package math

import "testing"

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	if got, want := x.Cross(y), (Vec3{0, 0, 1}); got != want {
		t.Errorf("Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	if got := (Vec3{3, 0, 4}).Normalize(); !nearVec(got, Vec3{0.6, 0, 0.8}) {
		t.Errorf("Normalize() = %v", got)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("Normalize() of zero = %v, want zero", got)
	}
}

func TestVec3Distance(t *testing.T) {
	if got := (Vec3{1, 2, 3}).Distance(Vec3{4, 6, 3}); got != 5 {
		t.Errorf("Distance() = %v, want 5", got)
	}
}

func TestVec3LerpMinMax(t *testing.T) {
	a, b := Vec3{0, 10, -2}, Vec3{4, 0, 2}
	if got, want := a.Lerp(b, 0.5), (Vec3{2, 5, 0}); got != want {
		t.Errorf("Lerp() = %v, want %v", got, want)
	}
	if got, want := a.Min(b), (Vec3{0, 0, -2}); got != want {
		t.Errorf("Min() = %v, want %v", got, want)
	}
	if got, want := a.Max(b), (Vec3{4, 10, 2}); got != want {
		t.Errorf("Max() = %v, want %v", got, want)
	}
}

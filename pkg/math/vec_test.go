package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{3, 4, 12}
	if got := v.Length(); got != 13 {
		t.Errorf("Vec3.Length() = %v, want 13", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 4, 0}.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("zero vector should normalize to zero")
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, -5, 3}
	b := Vec3{-2, 4, 3}
	if got := a.Min(b); got != (Vec3{-2, -5, 3}) {
		t.Errorf("Min = %v", got)
	}
	if got := a.Max(b); got != (Vec3{1, 4, 3}) {
		t.Errorf("Max = %v", got)
	}
}

func TestVec3Array(t *testing.T) {
	v := FromArray([3]float32{1, 2, 3})
	if v != (Vec3{1, 2, 3}) || v.Array() != [3]float32{1, 2, 3} {
		t.Errorf("round trip = %v", v)
	}
	if v.Neg() != (Vec3{-1, -2, -3}) {
		t.Errorf("Neg = %v", v.Neg())
	}
}

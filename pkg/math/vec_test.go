package math

import (
	"testing"
)

func TestVec2Add(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}
	got := a.Add(b)
	want := Vec2{4, 6}
	if got != want {
		t.Errorf("Vec2.Add() = %v, want %v", got, want)
	}
}

func TestVec2Length(t *testing.T) {
	v := Vec2{3, 4}
	got := v.Length()
	want := float32(5)
	if got != want {
		t.Errorf("Vec2.Length() = %v, want %v", got, want)
	}
}

func TestVec2Normalize(t *testing.T) {
	v := Vec2{3, 4}
	n := v.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec2.Normalize().Length() = %v, want ~1", l)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec4(t *testing.T) {
	a := Vec4{1, 2, 3, 4}
	b := Vec4{3, 6, -1, 0}
	tests := []struct {
		name string
		got  Vec4
		want Vec4
	}{
		{"sub", b.Sub(a), Vec4{2, 4, -4, -4}},
		{"lerp start", a.Lerp(b, 0), a},
		{"lerp mid", a.Lerp(b, 0.5), Vec4{2, 4, 1, 2}},
		{"lerp end", a.Lerp(b, 1), b},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
	if got := a.XYZ(); got != (Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("Vec4.XYZ() = %v", got)
	}
}

func TestVec3FromArray(t *testing.T) {
	if got := Vec3FromArray([3]float32{1, -2, 0.5}); got != (Vec3{X: 1, Y: -2, Z: 0.5}) {
		t.Errorf("Vec3FromArray() = %v", got)
	}
}

package math

import "math"

// BoundBox is an axis-aligned bounding box.
// An empty box has Min greater than Max.
type BoundBox struct {
	Min Vec3
	Max Vec3
}

// EmptyBoundBox returns a box that contains nothing.
func EmptyBoundBox() BoundBox {
	inf := float32(math.Inf(1))
	return BoundBox{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// NewBoundBox returns the smallest box containing all points.
func NewBoundBox(points []Vec3) BoundBox {
	b := EmptyBoundBox()
	for _, p := range points {
		b = b.Expand(p)
	}
	return b
}

// Valid reports whether the box contains at least one point.
func (b BoundBox) Valid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Expand returns the box grown to contain p.
func (b BoundBox) Expand(p Vec3) BoundBox {
	return BoundBox{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the box containing both boxes.
func (b BoundBox) Union(other BoundBox) BoundBox {
	if !other.Valid() {
		return b
	}
	if !b.Valid() {
		return other
	}
	return BoundBox{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Center returns the box center.
func (b BoundBox) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box dimensions.
func (b BoundBox) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Contains reports whether p lies inside the box grown by eps.
func (b BoundBox) Contains(p Vec3, eps float32) bool {
	return p.X >= b.Min.X-eps && p.X <= b.Max.X+eps &&
		p.Y >= b.Min.Y-eps && p.Y <= b.Max.Y+eps &&
		p.Z >= b.Min.Z-eps && p.Z <= b.Max.Z+eps
}

// Corners returns the eight box corners.
func (b BoundBox) Corners() [8]Vec3 {
	return [8]Vec3{
		{b.Min.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Min.Z},
		{b.Min.X, b.Max.Y, b.Min.Z},
		{b.Max.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z},
		{b.Max.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Max.Z},
		{b.Max.X, b.Max.Y, b.Max.Z},
	}
}

// Transform returns the axis-aligned box enclosing the transformed corners.
func (b BoundBox) Transform(m Mat4) BoundBox {
	if !b.Valid() {
		return b
	}
	result := EmptyBoundBox()
	for _, c := range b.Corners() {
		result = result.Expand(m.TransformVec3(c))
	}
	return result
}

// BoundSphere is a bounding sphere. A negative radius marks an empty sphere.
type BoundSphere struct {
	Center Vec3
	Radius float32
}

// EmptyBoundSphere returns a sphere that contains nothing.
func EmptyBoundSphere() BoundSphere {
	return BoundSphere{Radius: -1}
}

// NewBoundSphere returns a sphere centered on the box center of the points
// with the radius of the farthest point.
func NewBoundSphere(points []Vec3) BoundSphere {
	if len(points) == 0 {
		return EmptyBoundSphere()
	}
	center := NewBoundBox(points).Center()
	var radius float64
	for _, p := range points {
		dx := float64(p.X - center.X)
		dy := float64(p.Y - center.Y)
		dz := float64(p.Z - center.Z)
		radius = math.Max(radius, math.Sqrt(dx*dx+dy*dy+dz*dz))
	}
	return BoundSphere{Center: center, Radius: float32(radius)}
}

// Valid reports whether the sphere contains at least one point.
func (s BoundSphere) Valid() bool {
	return s.Radius >= 0
}

// Contains reports whether p lies inside the sphere grown by eps.
func (s BoundSphere) Contains(p Vec3, eps float32) bool {
	return s.Valid() && p.Distance(s.Center) <= s.Radius+eps
}

// Union returns a sphere containing both spheres.
func (s BoundSphere) Union(other BoundSphere) BoundSphere {
	if !other.Valid() {
		return s
	}
	if !s.Valid() {
		return other
	}
	d := other.Center.Distance(s.Center)
	if d+other.Radius <= s.Radius {
		return s
	}
	if d+s.Radius <= other.Radius {
		return other
	}
	radius := (d + s.Radius + other.Radius) * 0.5
	dir := other.Center.Sub(s.Center).Normalize()
	return BoundSphere{
		Center: s.Center.Add(dir.Scale(radius - s.Radius)),
		Radius: radius,
	}
}

// Transform returns the sphere moved by m, scaled by its largest axis scale.
func (s BoundSphere) Transform(m Mat4) BoundSphere {
	if !s.Valid() {
		return s
	}
	sx := Vec3{m[0], m[1], m[2]}.Length()
	sy := Vec3{m[4], m[5], m[6]}.Length()
	sz := Vec3{m[8], m[9], m[10]}.Length()
	return BoundSphere{
		Center: m.TransformVec3(s.Center),
		Radius: s.Radius * max(sx, sy, sz),
	}
}

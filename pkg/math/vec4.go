package math

// XYZ returns the first three components.
func (v Vec4) XYZ() Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

// Lerp returns v + (other - v) * t.
func (v Vec4) Lerp(other Vec4, t float32) Vec4 {
	return Vec4{
		v[0] + t*(other[0]-v[0]),
		v[1] + t*(other[1]-v[1]),
		v[2] + t*(other[2]-v[2]),
		v[3] + t*(other[3]-v[3]),
	}
}

// Sub returns v - other.
func (v Vec4) Sub(other Vec4) Vec4 {
	return Vec4{v[0] - other[0], v[1] - other[1], v[2] - other[2], v[3] - other[3]}
}

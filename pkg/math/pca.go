package math

import (
	"gonum.org/v1/gonum/mat"
)

// Covariance returns the mean and the row-major 3x3 covariance of points.
func Covariance(points []Vec3) (Vec3, [9]float64) {
	var cov [9]float64
	if len(points) == 0 {
		return Vec3{}, cov
	}

	var mx, my, mz float64
	for _, p := range points {
		mx += float64(p.X)
		my += float64(p.Y)
		mz += float64(p.Z)
	}
	n := float64(len(points))
	mx, my, mz = mx/n, my/n, mz/n

	for _, p := range points {
		d := [3]float64{float64(p.X) - mx, float64(p.Y) - my, float64(p.Z) - mz}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				cov[r*3+c] += d[r] * d[c]
			}
		}
	}
	for i := range cov {
		cov[i] /= n
	}
	return Vec3{float32(mx), float32(my), float32(mz)}, cov
}

// PrincipalAxes decomposes a symmetric covariance matrix.
// Axes are sorted by decreasing variance and form a right-handed frame.
func PrincipalAxes(cov [9]float64) ([3]Vec3, [3]float64, bool) {
	var axes [3]Vec3
	var values [3]float64

	data := make([]float64, 9)
	copy(data, cov[:])
	var eig mat.EigenSym
	if !eig.Factorize(mat.NewSymDense(3, data), true) {
		return axes, values, false
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// gonum returns ascending eigenvalues
	for i := 0; i < 3; i++ {
		col := 2 - i
		values[i] = vals[col]
		axes[i] = Vec3{
			float32(vecs.At(0, col)),
			float32(vecs.At(1, col)),
			float32(vecs.At(2, col)),
		}.Normalize()
	}
	axes[2] = axes[0].Cross(axes[1]).Normalize()
	return axes, values, true
}

// OrientedBounds returns a transform mapping the cube [-1, 1]^3 onto the
// principal-axis box enclosing points. Fewer than two points yield identity.
func OrientedBounds(points []Vec3) Mat4 {
	if len(points) < 2 {
		return Identity()
	}
	_, cov := Covariance(points)
	axes, _, ok := PrincipalAxes(cov)
	if !ok {
		return Identity()
	}

	lo := [3]float32{points[0].Dot(axes[0]), points[0].Dot(axes[1]), points[0].Dot(axes[2])}
	hi := lo
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			d := p.Dot(axes[i])
			lo[i] = min(lo[i], d)
			hi[i] = max(hi[i], d)
		}
	}

	var center Vec3
	var half [3]float32
	for i := 0; i < 3; i++ {
		center = center.Add(axes[i].Scale((lo[i] + hi[i]) * 0.5))
		half[i] = (hi[i] - lo[i]) * 0.5
	}

	x := axes[0].Scale(half[0])
	y := axes[1].Scale(half[1])
	z := axes[2].Scale(half[2])
	return Mat4{
		x.X, x.Y, x.Z, 0,
		y.X, y.Y, y.Z, 0,
		z.X, z.Y, z.Z, 0,
		center.X, center.Y, center.Z, 1,
	}
}

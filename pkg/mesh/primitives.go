package mesh

import "github.com/Faultbox/midgard-mesh/pkg/math"

// NewQuadGeometry creates an unindexed unit quad in the XY plane facing +Z:
// four corners of two triangles (a,b,c),(a,c,d) expanded to six rows, with
// texture coordinates.
func NewQuadGeometry(name string, size float32) *Geometry {
	h := size / 2
	corners := []math.Vec3{{X: -h, Y: -h}, {X: h, Y: -h}, {X: h, Y: h}, {X: -h, Y: h}}
	uvs := []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	order := []int{0, 1, 2, 0, 2, 3}

	pos := NewAttribute(AttributePosition, FormatF32x3, len(order))
	uv := NewAttribute(AttributeTexCoord, FormatF32x2, len(order))
	for k, c := range order {
		pos.SetVec3(k, corners[c])
		uv.SetElement(k, float64(uvs[c].X), float64(uvs[c].Y))
	}
	g := NewGeometry(name)
	g.AddIndices(NewDirectIndices(IndicesTriangle))
	g.AddAttribute(pos)
	g.AddAttribute(uv)
	return g
}

// NewCubeGeometry creates an axis-aligned cube centered at the origin with
// eight shared corners and twelve outward facing triangles.
func NewCubeGeometry(name string, size float32) *Geometry {
	h := size / 2
	pos := NewAttribute(AttributePosition, FormatF32x3, 8)
	for v := 0; v < 8; v++ {
		p := math.Vec3{X: -h, Y: -h, Z: -h}
		if v&1 != 0 {
			p.X = h
		}
		if v&2 != 0 {
			p.Y = h
		}
		if v&4 != 0 {
			p.Z = h
		}
		pos.SetVec3(v, p)
	}
	g := NewGeometry(name)
	g.AddIndices(NewIndicesFrom(IndicesTriangle, []uint32{
		0, 2, 3, 0, 3, 1, // -z
		4, 5, 7, 4, 7, 6, // +z
		0, 4, 6, 0, 6, 2, // -x
		1, 3, 7, 1, 7, 5, // +x
		0, 1, 5, 0, 5, 4, // -y
		2, 6, 7, 2, 7, 3, // +y
	}))
	g.AddAttribute(pos)
	return g
}

// NewStripGeometry creates count triangles along X as an indexed strip of
// count+2 vertices with consistent winding facing +Z.
func NewStripGeometry(name string, count int, width float32) *Geometry {
	verts := count + 2
	pos := NewAttribute(AttributePosition, FormatF32x3, verts)
	for v := 0; v < verts; v++ {
		pos.SetVec3(v, math.Vec3{X: float32(v/2) * width, Y: float32(v % 2)})
	}
	values := make([]uint32, 0, count*3)
	for t := 0; t < count; t++ {
		a, b, c := uint32(t), uint32(t+1), uint32(t+2)
		if t%2 == 0 {
			a, b = b, a
		}
		values = append(values, a, b, c)
	}
	g := NewGeometry(name)
	g.AddIndices(NewIndicesFrom(IndicesTriangle, values))
	g.AddAttribute(pos)
	return g
}

// NewGridGeometry creates an indexed grid of cols x rows cells in the XY
// plane facing +Z, with texture coordinates spanning [0, 1].
func NewGridGeometry(name string, cols, rows int, cell float32) *Geometry {
	if cols < 1 || rows < 1 {
		return nil
	}
	verts := (cols + 1) * (rows + 1)
	pos := NewAttribute(AttributePosition, FormatF32x3, verts)
	uv := NewAttribute(AttributeTexCoord, FormatF32x2, verts)
	for y := 0; y <= rows; y++ {
		for x := 0; x <= cols; x++ {
			v := y*(cols+1) + x
			pos.SetVec3(v, math.Vec3{X: float32(x) * cell, Y: float32(y) * cell})
			uv.SetElement(v, float64(x)/float64(cols), float64(y)/float64(rows))
		}
	}
	values := make([]uint32, 0, cols*rows*6)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			a := uint32(y*(cols+1) + x)
			b, c, d := a+1, a+uint32(cols)+2, a+uint32(cols)+1
			values = append(values, a, b, c, a, c, d)
		}
	}
	g := NewGeometry(name)
	g.AddIndices(NewIndicesFrom(IndicesTriangle, values))
	g.AddAttribute(pos)
	g.AddAttribute(uv)
	return g
}

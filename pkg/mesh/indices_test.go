package mesh

import (
	"slices"
	"testing"

	"github.com/Faultbox/midgard-mesh/pkg/math"
)

func TestFormatLayout(t *testing.T) {
	tests := []struct {
		format Format
		size   int
		stride int
	}{
		{FormatU8, 1, 1},
		{FormatU16, 2, 2},
		{FormatF16x4, 2, 8},
		{FormatF32x3, 4, 12},
		{FormatF64x3, 8, 24},
		{FormatU32x4, 4, 16},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := tt.format.Size(); got != tt.size {
				t.Errorf("Size() = %d, want %d", got, tt.size)
			}
			if got := tt.format.Stride(); got != tt.stride {
				t.Errorf("Stride() = %d, want %d", got, tt.stride)
			}
		})
	}
}

func TestConvertElementsSaturates(t *testing.T) {
	src := make([]byte, 3*4)
	for n, v := range []float64{-1, 300, 1.6} {
		writeScalar(src[n*4:], ScalarF32, v)
	}
	dst := make([]byte, 3)
	convertElements(dst, FormatU8, src, FormatF32, 3)
	if want := []byte{0, 255, 2}; !slices.Equal(dst, want) {
		t.Errorf("U8 = %v, want %v", dst, want)
	}
}

func TestHalfFloatRoundTrip(t *testing.T) {
	buf := make([]byte, 2)
	for _, v := range []float64{0, 0.5, -2, 1024} {
		writeScalar(buf, ScalarF16, v)
		if got := readScalar(buf, ScalarF16); got != v {
			t.Errorf("f16(%v) = %v", v, got)
		}
	}
}

func TestIndicesStride(t *testing.T) {
	i := NewIndices(IndicesTriangle, FormatU16, 4)
	if i.Stride() != 6 {
		t.Errorf("Stride() = %d, want 6", i.Stride())
	}
	if i.Len() != 12 {
		t.Errorf("Len() = %d, want 12", i.Len())
	}
	if len(i.Data()) != 24 {
		t.Errorf("len(Data()) = %d, want 24", len(i.Data()))
	}
	if NewIndices(IndicesTriangle, FormatU32x2, 1) != nil {
		t.Error("triangle indices should reject two-component formats")
	}
	if NewIndices(IndicesJoint, FormatU16x4, 3) == nil {
		t.Error("joint indices should accept four components")
	}
}

func TestIndicesDirectAndUniform(t *testing.T) {
	d := NewDirectIndices(IndicesTriangle)
	if !d.IsDirect() || d.At(5) != 5 {
		t.Errorf("direct At(5) = %d", d.At(5))
	}
	u := NewUniformIndices(IndicesMaterial, 4, 7)
	if !u.IsUniform() || u.At(3) != 7 || u.Len() != 4 {
		t.Errorf("uniform = %v", u.Values())
	}
	if u.SetValues([]uint32{1}, true) {
		t.Error("uniform indices should not accept values")
	}
}

func TestIndicesToType(t *testing.T) {
	tests := []struct {
		name string
		from IndicesType
		in   []uint32
		to   IndicesType
		want []uint32
	}{
		{"triangle edges", IndicesTriangle, []uint32{0, 1, 2}, IndicesEdge, []uint32{0, 1, 1, 2, 0, 2}},
		{"shared edge once", IndicesTriangle, []uint32{0, 1, 2, 0, 2, 3}, IndicesEdge, []uint32{0, 1, 1, 2, 0, 2, 2, 3, 0, 3}},
		{"quad split", IndicesQuadrilateral, []uint32{0, 1, 2, 3}, IndicesTriangle, []uint32{0, 1, 2, 0, 2, 3}},
		{"triangle lines", IndicesTriangle, []uint32{4, 5, 6}, IndicesLine, []uint32{4, 5, 5, 6, 6, 4}},
		{"unique points", IndicesTriangle, []uint32{2, 1, 2, 2, 0, 1}, IndicesPoint, []uint32{2, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewIndicesFrom(tt.from, tt.in).ToType(tt.to, nil)
			if out == nil {
				t.Fatal("ToType returned nil")
			}
			if got := out.Values(); !slices.Equal(got, tt.want) {
				t.Errorf("values = %v, want %v", got, tt.want)
			}
			if out.Size() != len(tt.want)/tt.to.PrimitiveSize() {
				t.Errorf("Size() = %d", out.Size())
			}
		})
	}

	if NewIndicesFrom(IndicesLine, []uint32{0, 1}).ToType(IndicesTriangle, nil) != nil {
		t.Error("line to triangle should be unsupported")
	}
}

func TestTetrahedronFacesOutward(t *testing.T) {
	pos := NewAttribute(AttributePosition, FormatF32x3, 4)
	pos.SetVec3(1, math.Vec3{X: 1})
	pos.SetVec3(2, math.Vec3{Y: 1})
	pos.SetVec3(3, math.Vec3{Z: 1})

	// both orientations of the input must produce outward faces
	for _, tet := range [][]uint32{{0, 1, 2, 3}, {0, 2, 1, 3}} {
		tris := NewIndicesFrom(IndicesTetrahedron, tet).ToType(IndicesTriangle, pos)
		if tris.Size() != 4 {
			t.Fatalf("Size() = %d, want 4", tris.Size())
		}
		center := math.Vec3{X: 0.25, Y: 0.25, Z: 0.25}
		for _, f := range tris.Primitives() {
			a, b, c := pos.Vec3(int(f[0])), pos.Vec3(int(f[1])), pos.Vec3(int(f[2]))
			n := b.Sub(a).Cross(c.Sub(a))
			if n.Dot(a.Sub(center)) <= 0 {
				t.Errorf("face %v of %v points inward", f, tet)
			}
		}
	}
}

func TestIndicesSetData(t *testing.T) {
	src := make([]byte, 8)
	writeScalar(src, ScalarU32, 3)
	writeScalar(src[4:], ScalarU32, 70000)

	i := NewIndices(IndicesPoint, FormatU16, 5)
	if !i.SetData(src, FormatU32, true) {
		t.Fatal("SetData with repeat failed")
	}
	if want := []uint32{3, 65535, 3, 65535, 3}; !slices.Equal(i.Values(), want) {
		t.Errorf("values = %v, want %v", i.Values(), want)
	}
	if i.SetData(src, FormatU32, false) {
		t.Error("SetData without repeat should need a full source")
	}

	out := make([]byte, 5*4)
	if !i.GetData(out, FormatU32) {
		t.Fatal("GetData failed")
	}
	if got := readScalar(out[4:], ScalarU32); got != 65535 {
		t.Errorf("GetData[1] = %v", got)
	}
}

func TestIndicesAddIndices(t *testing.T) {
	a := NewIndicesFrom(IndicesTriangle, []uint32{0, 1, 2})
	b := NewIndicesFrom(IndicesTriangle, []uint32{0, 1, 2})
	if !a.AddIndices(b, 3, true) {
		t.Fatal("AddIndices failed")
	}
	if want := []uint32{0, 1, 2, 3, 4, 5}; !slices.Equal(a.Values(), want) {
		t.Errorf("values = %v, want %v", a.Values(), want)
	}
	if a.Size() != 2 {
		t.Errorf("Size() = %d, want 2", a.Size())
	}

	// without expand the tail is overwritten
	c := NewIndices(IndicesTriangle, FormatU32, 2)
	if !c.AddIndices(b, 10, false) {
		t.Fatal("AddIndices into presized buffer failed")
	}
	if want := []uint32{0, 0, 0, 10, 11, 12}; !slices.Equal(c.Values(), want) {
		t.Errorf("values = %v, want %v", c.Values(), want)
	}
	if NewIndices(IndicesTriangle, FormatU32, 0).AddIndices(b, 0, false) {
		t.Error("AddIndices without room should fail")
	}
	if a.AddIndices(NewIndicesFrom(IndicesLine, []uint32{0, 1}), 0, true) {
		t.Error("AddIndices across primitive sizes should fail")
	}
}

func TestIndicesMinMaxCompare(t *testing.T) {
	a := NewIndicesFrom(IndicesTriangle, []uint32{4, 9, 2})
	if a.MinIndex() != 2 || a.MaxIndex() != 9 {
		t.Errorf("min/max = %d/%d", a.MinIndex(), a.MaxIndex())
	}
	b := a.ToFormat(FormatU16)
	if b.Format() != FormatU16 || !slices.Equal(b.Values(), a.Values()) {
		t.Errorf("ToFormat = %v %v", b.Format(), b.Values())
	}
	if a.Compare(b) != 0 {
		t.Error("buffers with equal values should compare equal")
	}
	c := NewIndicesFrom(IndicesTriangle, []uint32{4, 9, 3})
	if a.Compare(c) >= 0 || c.Compare(a) <= 0 {
		t.Error("Compare should order by content")
	}
}

func TestIndicesResize(t *testing.T) {
	a := NewIndicesFrom(IndicesLine, []uint32{1, 2, 3, 4})
	a.Resize(3, false)
	if want := []uint32{1, 2, 3, 4, 0, 0}; !slices.Equal(a.Values(), want) {
		t.Errorf("keep = %v, want %v", a.Values(), want)
	}
	a.Resize(1, true)
	if want := []uint32{0, 0}; !slices.Equal(a.Values(), want) {
		t.Errorf("discard = %v, want %v", a.Values(), want)
	}
}

package mesh

import (
	"bytes"
	gomath "math"
	"slices"

	"github.com/Faultbox/midgard-mesh/pkg/math"
)

// AttributeType names the meaning of per-vertex data.
type AttributeType uint8

const (
	AttributePosition AttributeType = iota
	AttributeBasis
	AttributeNormal
	AttributeTangent
	AttributeBinormal
	AttributeTexCoord
	AttributeWeights
	AttributeJoints
	AttributeColor
	AttributeCrease
)

// IsSpatial reports whether the type participates in bounds and spatial
// comparison.
func (t AttributeType) IsSpatial() bool {
	return t <= AttributeBinormal
}

// IsDirection reports whether elements are unit-length directions.
func (t AttributeType) IsDirection() bool {
	return t >= AttributeBasis && t <= AttributeBinormal
}

func (t AttributeType) String() string {
	switch t {
	case AttributePosition:
		return "position"
	case AttributeBasis:
		return "basis"
	case AttributeNormal:
		return "normal"
	case AttributeTangent:
		return "tangent"
	case AttributeBinormal:
		return "binormal"
	case AttributeTexCoord:
		return "texcoord"
	case AttributeWeights:
		return "weights"
	case AttributeJoints:
		return "joints"
	case AttributeColor:
		return "color"
	case AttributeCrease:
		return "crease"
	default:
		return "unknown"
	}
}

// compatible reports whether format can store attributes of type t.
func (t AttributeType) compatible(f Format) bool {
	if !f.Valid() {
		return false
	}
	c := f.Components()
	switch t {
	case AttributePosition:
		return c >= 2
	case AttributeNormal, AttributeBinormal:
		return c >= 3
	case AttributeTangent:
		return c >= 3
	case AttributeBasis:
		return c == 4
	case AttributeColor:
		return c >= 3
	case AttributeCrease:
		return c == 1
	case AttributeJoints:
		return !f.Scalar().IsFloat()
	default:
		return true
	}
}

// Attribute is a typed, strided per-element buffer. It is indirect when it
// owns Indices, in which case rows are shared by several corners.
type Attribute struct {
	typ      AttributeType
	format   Format
	index    int
	size     int
	data     []byte
	indices  *Indices
	geometry *Geometry

	// layout and slots of the two halves of a packed attribute
	packed      [2]Format
	packedIndex [2]int
}

// NewAttribute creates an attribute buffer. It returns nil if format cannot
// hold attributes of type t.
func NewAttribute(t AttributeType, format Format, size int) *Attribute {
	a := &Attribute{}
	if !a.Create(t, format, size) {
		return nil
	}
	return a
}

// Create (re)allocates zeroed storage.
func (a *Attribute) Create(t AttributeType, format Format, size int) bool {
	if !t.compatible(format) || size < 0 {
		return false
	}
	a.typ = t
	a.format = format
	a.size = size
	a.data = make([]byte, size*format.Stride())
	a.packed = [2]Format{}
	return true
}

// Clone returns a detached copy, including a copy of owned indices.
func (a *Attribute) Clone() *Attribute {
	c := *a
	c.data = slices.Clone(a.data)
	c.geometry = nil
	if a.indices != nil {
		c.indices = a.indices.Clone()
	}
	return &c
}

// Type returns the attribute type.
func (a *Attribute) Type() AttributeType { return a.typ }

// Format returns the element format.
func (a *Attribute) Format() Format { return a.format }

// Index returns the slot index among attributes of the same type.
func (a *Attribute) Index() int { return a.index }

// SetIndex sets the slot index.
func (a *Attribute) SetIndex(index int) { a.index = index }

// Size returns the element count.
func (a *Attribute) Size() int { return a.size }

// Stride returns the byte size of one element.
func (a *Attribute) Stride() int { return a.format.Stride() }

// Data returns the raw buffer.
func (a *Attribute) Data() []byte { return a.data }

// Geometry returns the owning geometry, if any.
func (a *Attribute) Geometry() *Geometry { return a.geometry }

// Indices returns the owned indices of an indirect attribute.
func (a *Attribute) Indices() *Indices { return a.indices }

// SetIndices makes the attribute indirect. Passing nil makes it direct.
func (a *Attribute) SetIndices(indices *Indices) {
	a.indices = indices
	if indices != nil {
		indices.geometry = a.geometry
	}
}

// IsIndirect reports whether the attribute owns indices.
func (a *Attribute) IsIndirect() bool { return a.indices != nil }

// IsPacked reports whether the attribute holds two packed streams.
func (a *Attribute) IsPacked() bool { return a.packed[0].Valid() }

// Element reads element n into a float64 slice.
func (a *Attribute) Element(n int) []float64 {
	s := a.format.Scalar()
	out := make([]float64, a.format.Components())
	row := a.data[n*a.Stride():]
	for c := range out {
		out[c] = readScalar(row[c*s.Size():], s)
	}
	return out
}

// SetElement writes element n. Missing components are left unchanged.
func (a *Attribute) SetElement(n int, values ...float64) {
	s := a.format.Scalar()
	row := a.data[n*a.Stride():]
	for c := 0; c < min(len(values), a.format.Components()); c++ {
		writeScalar(row[c*s.Size():], s, values[c])
	}
}

// Row returns the raw bytes of element n.
func (a *Attribute) Row(n int) []byte {
	return a.data[n*a.Stride() : (n+1)*a.Stride()]
}

// Vec3 reads the first three components of element n.
func (a *Attribute) Vec3(n int) math.Vec3 {
	s := a.format.Scalar()
	row := a.data[n*a.Stride():]
	var v [3]float32
	for c := 0; c < min(3, a.format.Components()); c++ {
		v[c] = float32(readScalar(row[c*s.Size():], s))
	}
	return math.Vec3FromArray(v)
}

// SetVec3 writes the first three components of element n.
func (a *Attribute) SetVec3(n int, v math.Vec3) {
	a.SetElement(n, float64(v.X), float64(v.Y), float64(v.Z))
}

// Vec2 reads the first two components of element n.
func (a *Attribute) Vec2(n int) math.Vec2 {
	v := a.Vec3(n)
	return math.Vec2{X: v.X, Y: v.Y}
}

// Vec4 reads up to four components of element n.
func (a *Attribute) Vec4(n int) math.Vec4 {
	var v math.Vec4
	for c, x := range a.Element(n) {
		v[c] = float32(x)
	}
	return v
}

// SetVec4 writes up to four components of element n.
func (a *Attribute) SetVec4(n int, v math.Vec4) {
	a.SetElement(n, float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3]))
}

// Points returns every element as a point.
func (a *Attribute) Points() []math.Vec3 {
	points := make([]math.Vec3, a.size)
	for n := range points {
		points[n] = a.Vec3(n)
	}
	return points
}

// SetData copies elements of format into the attribute, converting as
// needed. With repeat set a shorter source is broadcast cyclically.
func (a *Attribute) SetData(data []byte, format Format, repeat bool) bool {
	if !format.Valid() {
		return false
	}
	src := len(data) / format.Stride()
	if src == 0 && a.size > 0 || !repeat && src < a.size {
		return false
	}
	for n := 0; n < a.size; {
		chunk := min(src, a.size-n)
		convertElements(a.data[n*a.Stride():], a.format, data, format, chunk)
		n += chunk
	}
	return true
}

// GetData converts every element into dst using format.
func (a *Attribute) GetData(dst []byte, format Format) bool {
	if !format.Valid() || len(dst) < a.size*format.Stride() {
		return false
	}
	convertElements(dst, format, a.data, a.format, a.size)
	return true
}

// GetIndexedData gathers the elements addressed by indices into dst, one
// element per raw index value, using format and a destination stride.
func (a *Attribute) GetIndexedData(dst []byte, indices *Indices, format Format, stride int) bool {
	if !format.Valid() || stride < format.Stride() {
		return false
	}
	n := indices.Len()
	if len(dst) < (n-1)*stride+format.Stride() && n > 0 {
		return false
	}
	for k := 0; k < n; k++ {
		v := int(indices.At(k))
		if v >= a.size {
			return false
		}
		convertElements(dst[k*stride:], format, a.Row(v), a.format, 1)
	}
	return true
}

// ToFormat returns a copy stored in format, or nil if incompatible.
func (a *Attribute) ToFormat(format Format) *Attribute {
	out := NewAttribute(a.typ, format, a.size)
	if out == nil {
		return nil
	}
	out.index = a.index
	convertElements(out.data, format, a.data, a.format, a.size)
	if a.indices != nil {
		out.indices = a.indices.Clone()
	}
	return out
}

// Compare orders two attributes by type, size and element values. With
// spatial set, Position elements of a are transformed before comparison
// and component differences within threshold count as equal.
func (a *Attribute) Compare(other *Attribute, transform math.Mat4, threshold float32, spatial bool) int {
	switch {
	case a.typ != other.typ:
		return cmpInt(int(a.typ), int(other.typ))
	case a.size != other.size:
		return cmpInt(a.size, other.size)
	case a.format.Components() != other.format.Components():
		return cmpInt(a.format.Components(), other.format.Components())
	}
	if !spatial && threshold == 0 && a.format == other.format {
		return bytes.Compare(a.data, other.data)
	}

	eps := float64(threshold)
	for n := 0; n < a.size; n++ {
		x, y := a.Element(n), other.Element(n)
		if spatial && a.typ == AttributePosition {
			p := transform.TransformVec3(a.Vec3(n))
			x[0], x[1] = float64(p.X), float64(p.Y)
			if len(x) > 2 {
				x[2] = float64(p.Z)
			}
		} else if spatial && a.typ.IsDirection() && a.typ != AttributeBasis {
			d := transform.TransformNormal(a.Vec3(n))
			x[0], x[1], x[2] = float64(d.X), float64(d.Y), float64(d.Z)
		}
		for c := range x {
			if d := x[c] - y[c]; gomath.Abs(d) > eps {
				if d < 0 {
					return -1
				}
				return 1
			}
		}
	}
	return 0
}

// AddAttribute appends other's elements. Formats must match.
func (a *Attribute) AddAttribute(other *Attribute) bool {
	if other.Stride() != a.Stride() || other.format != a.format {
		return false
	}
	a.data = append(a.data[:a.size*a.Stride()], other.data[:other.size*other.Stride()]...)
	a.size += other.size
	return true
}

// SetTransform applies transform to spatial elements in place. Positions
// get the full transform; directions get the inverse transpose of the 3x3
// block and are renormalized. It returns false for non-spatial types.
func (a *Attribute) SetTransform(transform math.Mat4) bool {
	if !a.typ.IsSpatial() {
		return false
	}
	switch a.typ {
	case AttributePosition:
		for n := 0; n < a.size; n++ {
			a.SetVec3(n, transform.TransformVec3(a.Vec3(n)))
		}
	case AttributeBasis:
		q := math.QuatFromBasis(
			transform.TransformNormal(math.Vec3{X: 1}),
			transform.TransformNormal(math.Vec3{Y: 1}),
			transform.TransformNormal(math.Vec3{Z: 1}),
		)
		for n := 0; n < a.size; n++ {
			v := a.Vec4(n)
			b := q.Mul(math.Quat{X: v[0], Y: v[1], Z: v[2], W: v[3]})
			if (b.W < 0) != (v[3] < 0) {
				b = b.Neg()
			}
			a.SetVec4(n, math.Vec4{b.X, b.Y, b.Z, b.W})
		}
	default:
		for n := 0; n < a.size; n++ {
			a.SetVec3(n, transform.TransformNormal(a.Vec3(n)))
		}
	}
	return true
}

// MorphAttribute moves every element toward other by k in [0, 1].
func (a *Attribute) MorphAttribute(other *Attribute, k float32) bool {
	if other.size != a.size || other.format.Components() != a.format.Components() || k < 0 || k > 1 {
		return false
	}
	kk := float64(k)
	for n := 0; n < a.size; n++ {
		x, y := a.Element(n), other.Element(n)
		for c := range x {
			x[c] += (y[c] - x[c]) * kk
		}
		a.SetElement(n, x...)
	}
	if a.typ.IsDirection() && a.typ != AttributeBasis {
		for n := 0; n < a.size; n++ {
			a.SetVec3(n, a.Vec3(n).Normalize())
		}
	}
	return true
}

// PackAttributes stores two attributes of equal size in one buffer of a
// 32-bit format: component c holds a's value in the low half and b's in the
// high half. 16-bit sources are copied bit-exact; wider sources are
// narrowed to f16 (float) or saturated to 16 bits (integer).
func PackAttributes(a, b *Attribute, format Format) *Attribute {
	if a.size != b.size || format.Size() != 4 || format.Scalar().IsFloat() ||
		format.Components() < max(a.format.Components(), b.format.Components()) {
		return nil
	}
	out := NewAttribute(a.typ, format, a.size)
	if out == nil {
		return nil
	}
	out.index = a.index
	ha, hb := halfFormat(a.format), halfFormat(b.format)
	out.packed = [2]Format{ha, hb}
	out.packedIndex = [2]int{a.index, b.index}

	bufA := make([]byte, a.size*ha.Stride())
	bufB := make([]byte, b.size*hb.Stride())
	convertElements(bufA, ha, a.data, a.format, a.size)
	convertElements(bufB, hb, b.data, b.format, b.size)

	for n := 0; n < a.size; n++ {
		row := out.Row(n)
		for c := 0; c < format.Components(); c++ {
			var lo, hi []byte
			if c < ha.Components() {
				lo = bufA[n*ha.Stride()+c*2:]
			}
			if c < hb.Components() {
				hi = bufB[n*hb.Stride()+c*2:]
			}
			if lo != nil {
				row[c*4], row[c*4+1] = lo[0], lo[1]
			}
			if hi != nil {
				row[c*4+2], row[c*4+3] = hi[0], hi[1]
			}
		}
	}
	return out
}

// UnpackAttributes splits an attribute created by PackAttributes back into
// its two 16-bit halves.
func UnpackAttributes(packed *Attribute) (*Attribute, *Attribute, bool) {
	if !packed.IsPacked() {
		return nil, nil, false
	}
	ha, hb := packed.packed[0], packed.packed[1]
	a := NewAttribute(packed.typ, ha, packed.size)
	b := NewAttribute(packed.typ, hb, packed.size)
	if a == nil || b == nil {
		return nil, nil, false
	}
	a.index, b.index = packed.packedIndex[0], packed.packedIndex[1]
	for n := 0; n < packed.size; n++ {
		row := packed.Row(n)
		ra, rb := a.Row(n), b.Row(n)
		for c := 0; c < ha.Components(); c++ {
			ra[c*2], ra[c*2+1] = row[c*4], row[c*4+1]
		}
		for c := 0; c < hb.Components(); c++ {
			rb[c*2], rb[c*2+1] = row[c*4+2], row[c*4+3]
		}
	}
	if packed.indices != nil {
		a.indices = packed.indices.Clone()
		b.indices = packed.indices.Clone()
	}
	return a, b, true
}

// halfFormat returns the 16-bit format a stream is narrowed to when packed.
func halfFormat(f Format) Format {
	switch s := f.Scalar(); {
	case s.IsFloat():
		return MakeFormat(ScalarF16, f.Components())
	case s.IsSigned():
		return MakeFormat(ScalarI16, f.Components())
	default:
		return MakeFormat(ScalarU16, f.Components())
	}
}

// Optimize removes duplicate rows. It returns a compact attribute and an
// Indices mapping every value of indices (or every row when indices is nil
// or direct) to the compacted rows. Rows are kept in first-use order.
// It returns nil, nil when indices reach past the last row.
func (a *Attribute) Optimize(indices *Indices) (*Attribute, *Indices) {
	t := IndicesTriangle
	count := a.size
	if indices != nil {
		t = indices.Type()
		if !indices.IsDirect() {
			count = indices.Len()
			if count > 0 && int(indices.MaxIndex()) >= a.size {
				return nil, nil
			}
		}
	}

	remap := make(map[string]uint32)
	var rows []int
	values := make([]uint32, count)
	for k := 0; k < count; k++ {
		src := k
		if indices != nil {
			src = int(indices.At(k))
		}
		key := string(a.Row(src))
		id, ok := remap[key]
		if !ok {
			id = uint32(len(rows))
			remap[key] = id
			rows = append(rows, src)
		}
		values[k] = id
	}

	out := NewAttribute(a.typ, a.format, len(rows))
	out.index = a.index
	for n, src := range rows {
		copy(out.Row(n), a.Row(src))
	}

	ps := t.PrimitiveSize()
	if count%ps != 0 {
		t, ps = IndicesPoint, 1
	}
	result := NewIndices(t, FormatU32, count/ps)
	result.SetValues(values, false)
	return out, result
}

// ToDirect expands the attribute to one row per value of indices.
func (a *Attribute) ToDirect(indices *Indices) *Attribute {
	if indices == nil || indices.IsDirect() {
		out := a.Clone()
		out.indices = nil
		return out
	}
	out := NewAttribute(a.typ, a.format, indices.Len())
	out.index = a.index
	for k := 0; k < indices.Len(); k++ {
		v := int(indices.At(k))
		if v >= a.size {
			return nil
		}
		copy(out.Row(k), a.Row(v))
	}
	return out
}

// CovarianceMatrix returns the row-major covariance of the elements.
func (a *Attribute) CovarianceMatrix() [9]float64 {
	_, cov := math.Covariance(a.Points())
	return cov
}

// MinTransform returns the principal-axis box transform of the elements.
// The transform maps [-1, 1]^3 onto the box.
func (a *Attribute) MinTransform() math.Mat4 {
	return math.OrientedBounds(a.Points())
}

// BoundBox returns the axis-aligned box of the elements.
func (a *Attribute) BoundBox() math.BoundBox {
	return math.NewBoundBox(a.Points())
}

// BoundSphere returns a sphere enclosing the elements.
func (a *Attribute) BoundSphere() math.BoundSphere {
	return math.NewBoundSphere(a.Points())
}

package mesh

import (
	"bytes"
	gomath "math"
	"slices"

	"github.com/Faultbox/midgard-mesh/pkg/math"
)

// IndicesType names what an index buffer addresses.
type IndicesType uint8

const (
	IndicesPoint IndicesType = iota
	IndicesLine
	IndicesTriangle
	IndicesQuadrilateral
	IndicesTetrahedron
	IndicesMaterial // one material index per primitive
	IndicesIsland   // one island id per primitive
	IndicesGroup    // one group id per primitive
	IndicesJoint    // up to four joint indices per vertex
	IndicesEdge
)

// PrimitiveSize returns how many index values form one element.
func (t IndicesType) PrimitiveSize() int {
	switch t {
	case IndicesLine, IndicesEdge:
		return 2
	case IndicesTriangle:
		return 3
	case IndicesQuadrilateral, IndicesTetrahedron:
		return 4
	default:
		return 1
	}
}

// IsPrimitive reports whether the values address vertices of primitives.
func (t IndicesType) IsPrimitive() bool {
	switch t {
	case IndicesPoint, IndicesLine, IndicesTriangle, IndicesQuadrilateral, IndicesTetrahedron:
		return true
	default:
		return false
	}
}

// IsPerPrimitive reports whether the buffer carries one value per primitive.
func (t IndicesType) IsPerPrimitive() bool {
	return t == IndicesMaterial || t == IndicesIsland || t == IndicesGroup
}

func (t IndicesType) String() string {
	switch t {
	case IndicesPoint:
		return "point"
	case IndicesLine:
		return "line"
	case IndicesTriangle:
		return "triangle"
	case IndicesQuadrilateral:
		return "quadrilateral"
	case IndicesTetrahedron:
		return "tetrahedron"
	case IndicesMaterial:
		return "material"
	case IndicesIsland:
		return "island"
	case IndicesGroup:
		return "group"
	case IndicesJoint:
		return "joint"
	case IndicesEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// compatible reports whether format can store indices of type t.
func (t IndicesType) compatible(f Format) bool {
	if !f.Valid() {
		return false
	}
	if t == IndicesJoint {
		return true
	}
	return f.Components() == 1
}

// Indices is a homogeneously formatted index buffer.
//
// Size counts elements; Stride is the byte size of one element, which is
// components * scalar size * primitive size. A direct Indices (no data, not
// uniform) maps every position to itself. A uniform Indices returns the
// same value everywhere.
type Indices struct {
	typ      IndicesType
	format   Format
	size     int
	data     []byte
	uniform  bool
	constant uint32
	geometry *Geometry
}

// NewIndices creates an index buffer. It returns nil if format cannot hold
// indices of type t.
func NewIndices(t IndicesType, format Format, size int) *Indices {
	i := &Indices{}
	if !i.Create(t, format, size) {
		return nil
	}
	return i
}

// NewIndicesFrom creates a 32-bit index buffer holding values.
func NewIndicesFrom(t IndicesType, values []uint32) *Indices {
	n := len(values) / t.PrimitiveSize()
	i := NewIndices(t, FormatU32, n)
	i.SetValues(values, false)
	return i
}

// NewDirectIndices creates an identity index buffer.
func NewDirectIndices(t IndicesType) *Indices {
	return &Indices{typ: t, format: FormatU32}
}

// NewUniformIndices creates a buffer of size elements that all read value.
func NewUniformIndices(t IndicesType, size int, value uint32) *Indices {
	return &Indices{typ: t, format: FormatU32, size: size, uniform: true, constant: value}
}

// Create (re)allocates zeroed storage. It is a no-op returning false if
// format is incompatible with t.
func (i *Indices) Create(t IndicesType, format Format, size int) bool {
	if !t.compatible(format) || size < 0 {
		return false
	}
	i.typ = t
	i.format = format
	i.size = size
	i.uniform = false
	i.data = make([]byte, size*i.Stride())
	return true
}

// Clone returns a detached copy.
func (i *Indices) Clone() *Indices {
	c := *i
	c.data = slices.Clone(i.data)
	c.geometry = nil
	return &c
}

// Type returns the indices type.
func (i *Indices) Type() IndicesType { return i.typ }

// Format returns the storage format.
func (i *Indices) Format() Format { return i.format }

// Size returns the element count.
func (i *Indices) Size() int { return i.size }

// Stride returns the byte size of one element.
func (i *Indices) Stride() int {
	return i.format.Stride() * i.typ.PrimitiveSize()
}

// Len returns the number of raw index values.
func (i *Indices) Len() int {
	return i.size * i.typ.PrimitiveSize() * i.format.Components()
}

// Data returns the raw buffer.
func (i *Indices) Data() []byte { return i.data }

// Geometry returns the owning geometry, if any.
func (i *Indices) Geometry() *Geometry { return i.geometry }

// IsDirect reports whether the buffer is an identity mapping.
func (i *Indices) IsDirect() bool {
	return !i.uniform && i.size == 0
}

// IsUniform reports whether every value is the same constant.
func (i *Indices) IsUniform() bool { return i.uniform }

// Resize changes the element count, keeping existing values unless discard
// is set, in which case the buffer is zeroed.
func (i *Indices) Resize(size int, discard bool) {
	if i.uniform {
		i.size = size
		return
	}
	data := make([]byte, size*i.Stride())
	if !discard {
		copy(data, i.data)
	}
	i.data = data
	i.size = size
}

// At returns raw value n.
func (i *Indices) At(n int) uint32 {
	switch {
	case i.uniform:
		return i.constant
	case i.size == 0:
		return uint32(n)
	}
	s := i.format.Scalar()
	v := readScalar(i.data[n*s.Size():], s)
	if v <= 0 {
		return 0
	}
	return uint32(min(v, gomath.MaxUint32))
}

// Set stores raw value n, saturating to the format range.
func (i *Indices) Set(n int, v uint32) {
	if i.uniform || i.size == 0 {
		return
	}
	s := i.format.Scalar()
	writeScalar(i.data[n*s.Size():], s, float64(v))
}

// Values returns all raw values.
func (i *Indices) Values() []uint32 {
	values := make([]uint32, i.Len())
	for n := range values {
		values[n] = i.At(n)
	}
	return values
}

// SetValues copies values into the buffer. With repeat set, a shorter source
// is broadcast cyclically; otherwise the source must cover the buffer.
func (i *Indices) SetValues(values []uint32, repeat bool) bool {
	n := i.Len()
	if i.uniform || len(values) == 0 && n > 0 || !repeat && len(values) < n {
		return false
	}
	for k := 0; k < n; k++ {
		i.Set(k, values[k%len(values)])
	}
	return true
}

// SetData copies raw data of the given format, converting to the buffer
// format. Values outside the destination range are clamped.
func (i *Indices) SetData(data []byte, format Format, repeat bool) bool {
	if i.uniform || !format.Valid() || format.Components() != i.format.Components() {
		return false
	}
	count := i.size * i.typ.PrimitiveSize()
	src := len(data) / format.Stride()
	if src == 0 && count > 0 || !repeat && src < count {
		return false
	}
	stride := i.format.Stride()
	for k := 0; k < count; {
		chunk := min(src, count-k)
		convertElements(i.data[k*stride:], i.format, data, format, chunk)
		k += chunk
	}
	return true
}

// GetData converts the buffer into dst using format.
func (i *Indices) GetData(dst []byte, format Format) bool {
	count := i.size * i.typ.PrimitiveSize()
	if !format.Valid() || format.Components() != i.format.Components() || len(dst) < count*format.Stride() {
		return false
	}
	if i.uniform {
		for k := 0; k < i.Len(); k++ {
			writeScalar(dst[k*format.Size():], format.Scalar(), float64(i.constant))
		}
		return true
	}
	convertElements(dst, format, i.data, i.format, count)
	return true
}

// MinIndex returns the smallest value, or 0 for an empty buffer.
func (i *Indices) MinIndex() uint32 {
	n := i.Len()
	if n == 0 {
		return 0
	}
	m := i.At(0)
	for k := 1; k < n; k++ {
		m = min(m, i.At(k))
	}
	return m
}

// MaxIndex returns the largest value, or 0 for an empty buffer.
func (i *Indices) MaxIndex() uint32 {
	var m uint32
	for k := 0; k < i.Len(); k++ {
		m = max(m, i.At(k))
	}
	return m
}

// Compare orders two buffers by type, format, size and then raw content.
func (i *Indices) Compare(other *Indices) int {
	switch {
	case i.typ != other.typ:
		return cmpInt(int(i.typ), int(other.typ))
	case i.size != other.size:
		return cmpInt(i.size, other.size)
	case i.format == other.format && !i.uniform && !other.uniform:
		return bytes.Compare(i.data, other.data)
	}
	for k := 0; k < i.Len(); k++ {
		a, b := i.At(k), other.At(k)
		if a != b {
			return cmpInt(int(a), int(b))
		}
	}
	return 0
}

// AddIndices appends other's values shifted by offset. With expand set the
// buffer grows; otherwise other is written over the tail of a buffer that
// must already hold room for it, starting at element Size()-other.Size().
func (i *Indices) AddIndices(other *Indices, offset uint32, expand bool) bool {
	if other.typ.PrimitiveSize() != i.typ.PrimitiveSize() ||
		other.format.Components() != i.format.Components() || i.uniform {
		return false
	}
	start := i.size - other.size
	if expand {
		start = i.size
		i.Resize(i.size+other.size, false)
	} else if start < 0 {
		return false
	}
	base := start * i.typ.PrimitiveSize() * i.format.Components()
	for k := 0; k < other.Len(); k++ {
		i.Set(base+k, other.At(k)+offset)
	}
	return true
}

// ToFormat returns a copy stored in format, or nil if format is incompatible.
func (i *Indices) ToFormat(format Format) *Indices {
	if format == i.format {
		return i.Clone()
	}
	out := NewIndices(i.typ, format, i.size)
	if out == nil {
		return nil
	}
	if i.uniform || i.size == 0 {
		out.SetValues([]uint32{i.At(0)}, true)
		return out
	}
	convertElements(out.data, format, i.data, i.format, i.size*i.typ.PrimitiveSize())
	return out
}

// Primitives returns the value tuples of each element.
func (i *Indices) Primitives() [][]uint32 {
	ps := i.typ.PrimitiveSize() * i.format.Components()
	out := make([][]uint32, i.size)
	for p := range out {
		out[p] = make([]uint32, ps)
		for k := range out[p] {
			out[p][k] = i.At(p*ps + k)
		}
	}
	return out
}

// ToType converts between primitive types. Quadrilaterals split into
// (a,b,c),(a,c,d); Edge conversion emits every unordered edge once in first
// appearance order; Tetrahedron to Triangle emits the four faces, oriented
// outward when position is given. It returns nil for unsupported pairs.
func (i *Indices) ToType(t IndicesType, position *Attribute) *Indices {
	if t == i.typ {
		return i.Clone()
	}
	if !i.typ.IsPrimitive() || i.format.Components() != 1 {
		return nil
	}
	prims := i.Primitives()
	var values []uint32

	switch t {
	case IndicesTriangle:
		switch i.typ {
		case IndicesQuadrilateral:
			for _, q := range prims {
				values = append(values, q[0], q[1], q[2], q[0], q[2], q[3])
			}
		case IndicesTetrahedron:
			for _, q := range prims {
				values = append(values, tetraFaces(q, position)...)
			}
		default:
			return nil
		}
	case IndicesLine:
		switch i.typ {
		case IndicesTriangle, IndicesQuadrilateral:
			for _, p := range prims {
				for k := range p {
					values = append(values, p[k], p[(k+1)%len(p)])
				}
			}
		default:
			return nil
		}
	case IndicesEdge:
		seen := make(map[[2]uint32]bool)
		for _, p := range prims {
			for _, e := range primitiveEdges(i.typ, p) {
				key := e
				if key[0] > key[1] {
					key[0], key[1] = key[1], key[0]
				}
				if key[0] == key[1] || seen[key] {
					continue
				}
				seen[key] = true
				values = append(values, key[0], key[1])
			}
		}
	case IndicesPoint:
		seen := make(map[uint32]bool)
		for _, p := range prims {
			for _, v := range p {
				if !seen[v] {
					seen[v] = true
					values = append(values, v)
				}
			}
		}
	default:
		return nil
	}

	out := NewIndices(t, i.format, len(values)/t.PrimitiveSize())
	out.SetValues(values, false)
	return out
}

// primitiveEdges lists the edges of one primitive.
func primitiveEdges(t IndicesType, p []uint32) [][2]uint32 {
	switch t {
	case IndicesLine, IndicesEdge:
		return [][2]uint32{{p[0], p[1]}}
	case IndicesTriangle, IndicesQuadrilateral:
		edges := make([][2]uint32, len(p))
		for k := range p {
			edges[k] = [2]uint32{p[k], p[(k+1)%len(p)]}
		}
		return edges
	case IndicesTetrahedron:
		return [][2]uint32{
			{p[0], p[1]}, {p[1], p[2]}, {p[0], p[2]},
			{p[0], p[3]}, {p[1], p[3]}, {p[2], p[3]},
		}
	default:
		return nil
	}
}

// tetraFaces returns the four faces of a tetrahedron.
func tetraFaces(q []uint32, position *Attribute) []uint32 {
	faces := [4][3]uint32{
		{q[0], q[2], q[1]},
		{q[0], q[1], q[3]},
		{q[1], q[2], q[3]},
		{q[2], q[0], q[3]},
	}
	if position != nil && int(max(q[0], q[1], q[2], q[3])) < position.Size() {
		var center math.Vec3
		for _, v := range q {
			center = center.Add(position.Vec3(int(v)))
		}
		center = center.Scale(0.25)
		for f := range faces {
			a := position.Vec3(int(faces[f][0]))
			b := position.Vec3(int(faces[f][1]))
			c := position.Vec3(int(faces[f][2]))
			n := b.Sub(a).Cross(c.Sub(a))
			if n.Dot(a.Sub(center)) < 0 {
				faces[f][1], faces[f][2] = faces[f][2], faces[f][1]
			}
		}
	}
	out := make([]uint32, 0, 12)
	for _, f := range faces {
		out = append(out, f[:]...)
	}
	return out
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

package mesh

import (
	"slices"

	"github.com/Faultbox/midgard-mesh/pkg/math"
)

// Recompute selects how derivation operations treat data that already exists.
type Recompute uint8

const (
	// SkipIfPresent leaves existing derived data untouched.
	SkipIfPresent Recompute = iota
	// Force recomputes and replaces the first attribute of the derived type.
	Force
	// ForceAppend recomputes into a new slot, keeping previous attributes.
	ForceAppend
)

func (r Recompute) String() string {
	switch r {
	case SkipIfPresent:
		return "skip"
	case Force:
		return "force"
	case ForceAppend:
		return "append"
	default:
		return "unknown"
	}
}

// NotCreated is returned in place of a slot index when nothing was created.
const NotCreated = -1

// Geometry aggregates indices, attributes, joints and materials under one
// local coordinate frame. Geometries form a DAG through two independent
// parent links, used for LOD chains and instancing.
type Geometry struct {
	name string
	mesh *Mesh

	parents  [2]*Geometry
	children [2][]*Geometry

	indices    []*Indices
	attributes []*Attribute
	joints     []*Joint
	materials  []*Material

	transform      math.Mat4
	jointTransform math.Mat4
	boundBox       math.BoundBox
	boundSphere    math.BoundSphere

	visibleMin   float32
	visibleMax   float32
	visibleError float32

	// flipped is set while the winding is reversed from the authored one.
	flipped bool
}

// NewGeometry creates an empty geometry with identity transforms.
func NewGeometry(name string) *Geometry {
	return &Geometry{
		name:           name,
		transform:      math.Identity(),
		jointTransform: math.Identity(),
		boundBox:       math.EmptyBoundBox(),
		boundSphere:    math.EmptyBoundSphere(),
		visibleMax:     -1,
	}
}

// Name returns the geometry name.
func (g *Geometry) Name() string { return g.name }

// SetName renames the geometry.
func (g *Geometry) SetName(name string) { g.name = name }

// Mesh returns the owning mesh.
func (g *Geometry) Mesh() *Mesh { return g.mesh }

// Transform returns the local frame of the geometry.
func (g *Geometry) Transform() math.Mat4 { return g.transform }

// SetTransform sets the local frame.
func (g *Geometry) SetTransform(m math.Mat4) { g.transform = m }

// JointTransform returns the inverse transform applied before skinning.
func (g *Geometry) JointTransform() math.Mat4 { return g.jointTransform }

// SetJointTransform sets the inverse transform applied before skinning.
func (g *Geometry) SetJointTransform(m math.Mat4) { g.jointTransform = m }

// BoundBox returns the cached bounding box.
func (g *Geometry) BoundBox() math.BoundBox { return g.boundBox }

// BoundSphere returns the cached bounding sphere.
func (g *Geometry) BoundSphere() math.BoundSphere { return g.boundSphere }

// SetBounds overrides the cached bounds.
func (g *Geometry) SetBounds(box math.BoundBox, sphere math.BoundSphere) {
	g.boundBox = box
	g.boundSphere = sphere
}

// Visibility returns the visible distance range and the LOD error.
// A negative maximum means unbounded.
func (g *Geometry) Visibility() (minDist, maxDist, err float32) {
	return g.visibleMin, g.visibleMax, g.visibleError
}

// SetVisibility sets the visible distance range and the LOD error.
func (g *Geometry) SetVisibility(minDist, maxDist, err float32) {
	g.visibleMin, g.visibleMax, g.visibleError = minDist, maxDist, err
}

// Parent0 returns the first logical parent.
func (g *Geometry) Parent0() *Geometry { return g.parents[0] }

// Parent1 returns the second logical parent.
func (g *Geometry) Parent1() *Geometry { return g.parents[1] }

// Children0 returns the children attached through AddChild0.
func (g *Geometry) Children0() []*Geometry { return g.children[0] }

// Children1 returns the children attached through AddChild1.
func (g *Geometry) Children1() []*Geometry { return g.children[1] }

// AddChild0 attaches child under g as its first parent.
func (g *Geometry) AddChild0(child *Geometry) bool { return g.addChild(0, child) }

// AddChild1 attaches child under g as its second parent.
func (g *Geometry) AddChild1(child *Geometry) bool { return g.addChild(1, child) }

func (g *Geometry) addChild(slot int, child *Geometry) bool {
	if child == nil || child == g || child.parents[slot] != nil {
		return false
	}
	child.parents[slot] = g
	g.children[slot] = append(g.children[slot], child)
	return true
}

// RemoveChild detaches child from both child lists.
func (g *Geometry) RemoveChild(child *Geometry) bool {
	removed := false
	for s := range g.children {
		if i := slices.Index(g.children[s], child); i >= 0 {
			g.children[s] = slices.Delete(g.children[s], i, i+1)
			child.parents[s] = nil
			removed = true
		}
	}
	return removed
}

// hasRelations reports whether the geometry participates in the DAG.
func (g *Geometry) hasRelations() bool {
	return g.parents[0] != nil || g.parents[1] != nil ||
		len(g.children[0]) > 0 || len(g.children[1]) > 0
}

// Indices returns the index buffers in slot order.
func (g *Geometry) Indices() []*Indices { return g.indices }

// AddIndices appends an index buffer and returns its slot.
func (g *Geometry) AddIndices(i *Indices) int {
	i.geometry = g
	g.indices = append(g.indices, i)
	return len(g.indices) - 1
}

// FindIndices returns the slot of the first buffer of type t, or -1.
func (g *Geometry) FindIndices(t IndicesType) int {
	return slices.IndexFunc(g.indices, func(i *Indices) bool { return i.typ == t })
}

// ReplaceIndices swaps the buffer at slot.
func (g *Geometry) ReplaceIndices(slot int, i *Indices) bool {
	if slot < 0 || slot >= len(g.indices) {
		return false
	}
	i.geometry = g
	g.indices[slot] = i
	return true
}

// RemoveIndices deletes the buffer at slot.
func (g *Geometry) RemoveIndices(slot int) bool {
	if slot < 0 || slot >= len(g.indices) {
		return false
	}
	g.indices = slices.Delete(g.indices, slot, slot+1)
	return true
}

// Attributes returns the attributes in insertion order.
func (g *Geometry) Attributes() []*Attribute { return g.attributes }

// AddAttribute appends an attribute and returns its position.
func (g *Geometry) AddAttribute(a *Attribute) int {
	a.geometry = g
	if a.indices != nil {
		a.indices.geometry = g
	}
	g.attributes = append(g.attributes, a)
	return len(g.attributes) - 1
}

// FindAttribute returns the position of the attribute of type t at slot
// index, or -1. A negative index matches the first attribute of type t.
func (g *Geometry) FindAttribute(t AttributeType, index int) int {
	return slices.IndexFunc(g.attributes, func(a *Attribute) bool {
		return a.typ == t && (index < 0 || a.index == index)
	})
}

// Attribute returns the attribute of type t at slot index, or nil.
func (g *Geometry) Attribute(t AttributeType, index int) *Attribute {
	if pos := g.FindAttribute(t, index); pos >= 0 {
		return g.attributes[pos]
	}
	return nil
}

// ReplaceAttribute swaps the attribute at position pos.
func (g *Geometry) ReplaceAttribute(pos int, a *Attribute) bool {
	if pos < 0 || pos >= len(g.attributes) {
		return false
	}
	a.geometry = g
	if a.indices != nil {
		a.indices.geometry = g
	}
	g.attributes[pos] = a
	return true
}

// RemoveAttribute deletes the attribute at position pos.
func (g *Geometry) RemoveAttribute(pos int) bool {
	if pos < 0 || pos >= len(g.attributes) {
		return false
	}
	g.attributes = slices.Delete(g.attributes, pos, pos+1)
	return true
}

// nextSlot returns the first unused slot index for type t.
func (g *Geometry) nextSlot(t AttributeType) int {
	next := 0
	for _, a := range g.attributes {
		if a.typ == t && a.index >= next {
			next = a.index + 1
		}
	}
	return next
}

// commitAttribute stores a derived attribute according to mode and returns
// its position.
func (g *Geometry) commitAttribute(a *Attribute, mode Recompute) int {
	if mode != ForceAppend {
		if pos := g.FindAttribute(a.typ, -1); pos >= 0 {
			a.index = g.attributes[pos].index
			g.ReplaceAttribute(pos, a)
			return pos
		}
	}
	a.index = g.nextSlot(a.typ)
	return g.AddAttribute(a)
}

// commitIndices stores a derived index buffer according to mode.
func (g *Geometry) commitIndices(i *Indices, mode Recompute) int {
	if mode != ForceAppend {
		if slot := g.FindIndices(i.typ); slot >= 0 {
			g.ReplaceIndices(slot, i)
			return slot
		}
	}
	return g.AddIndices(i)
}

// Joints returns the skinning joints.
func (g *Geometry) Joints() []*Joint { return g.joints }

// AddJoint appends a joint and returns its index.
func (g *Geometry) AddJoint(j *Joint) int {
	j.geometry = g
	g.joints = append(g.joints, j)
	return len(g.joints) - 1
}

// FindJoint returns the index of the named joint, or -1.
func (g *Geometry) FindJoint(name string) int {
	return slices.IndexFunc(g.joints, func(j *Joint) bool { return j.name == name })
}

// Materials returns the material list. Material-type indices address it.
func (g *Geometry) Materials() []*Material { return g.materials }

// AddMaterial appends a material and returns its index. A material that is
// not yet owned becomes owned by g.
func (g *Geometry) AddMaterial(m *Material) int {
	if m.geometry == nil {
		m.geometry = g
	}
	g.materials = append(g.materials, m)
	return len(g.materials) - 1
}

// FindMaterial returns the index of the named material, or -1.
func (g *Geometry) FindMaterial(name string) int {
	return slices.IndexFunc(g.materials, func(m *Material) bool { return m.name == name })
}

// ReplaceMaterial swaps every occurrence of old for m.
func (g *Geometry) ReplaceMaterial(old, m *Material) bool {
	replaced := false
	for i, e := range g.materials {
		if e == old {
			g.materials[i] = m
			replaced = true
		}
	}
	return replaced
}

// RemoveMaterial deletes the material at index. Material-type indices are
// not repointed.
func (g *Geometry) RemoveMaterial(index int) bool {
	if index < 0 || index >= len(g.materials) {
		return false
	}
	g.materials = slices.Delete(g.materials, index, index+1)
	return true
}

// Clone returns a detached deep copy. Materials are shared, joints are
// copied and stay bound to the same nodes.
func (g *Geometry) Clone() *Geometry {
	c := &Geometry{
		name:           g.name,
		transform:      g.transform,
		jointTransform: g.jointTransform,
		boundBox:       g.boundBox,
		boundSphere:    g.boundSphere,
		visibleMin:     g.visibleMin,
		visibleMax:     g.visibleMax,
		visibleError:   g.visibleError,
		flipped:        g.flipped,
	}
	for _, i := range g.indices {
		c.AddIndices(i.Clone())
	}
	for _, a := range g.attributes {
		c.AddAttribute(a.Clone())
	}
	for _, j := range g.joints {
		cj := *j
		if j.indices != nil {
			cj.indices = j.indices.Clone()
		}
		c.AddJoint(&cj)
	}
	c.materials = slices.Clone(g.materials)
	return c
}

// primary returns the slot and buffer of the first primitive index buffer.
func (g *Geometry) primary() (int, *Indices) {
	for slot, i := range g.indices {
		if i.typ.IsPrimitive() {
			return slot, i
		}
	}
	return -1, nil
}

// PrimitiveType returns the primitive type, Triangle for unindexed data.
func (g *Geometry) PrimitiveType() IndicesType {
	if _, p := g.primary(); p != nil {
		return p.typ
	}
	return IndicesTriangle
}

// cornerCount returns the number of primitive corners.
func (g *Geometry) cornerCount() int {
	if _, p := g.primary(); p != nil && !p.IsDirect() {
		return p.Len()
	}
	for _, a := range g.attributes {
		if a.indices == nil || a.indices.IsDirect() {
			return a.size
		}
	}
	for _, a := range g.attributes {
		return a.indices.Len()
	}
	return 0
}

// NumPrimitives returns the primitive count.
func (g *Geometry) NumPrimitives() int {
	return g.cornerCount() / g.PrimitiveType().PrimitiveSize()
}

// rowOf returns the attribute row used by corner k.
func (g *Geometry) rowOf(a *Attribute, k int) int {
	if a.indices != nil && !a.indices.IsDirect() {
		return int(a.indices.At(k))
	}
	if _, p := g.primary(); p != nil && !p.IsDirect() {
		return int(p.At(k))
	}
	return k
}

// vertexOf returns the vertex id of corner k in the primary index space.
func (g *Geometry) vertexOf(k int) uint32 {
	if _, p := g.primary(); p != nil && !p.IsDirect() {
		return p.At(k)
	}
	return uint32(k)
}

// primitives lists the corners of every primitive.
func (g *Geometry) primitives() [][]int {
	ps := g.PrimitiveType().PrimitiveSize()
	out := make([][]int, g.cornerCount()/ps)
	for p := range out {
		out[p] = make([]int, ps)
		for k := range out[p] {
			out[p][k] = p*ps + k
		}
	}
	return out
}

// isSurface reports whether primitives have an area.
func (g *Geometry) isSurface() bool {
	t := g.PrimitiveType()
	return t == IndicesTriangle || t == IndicesQuadrilateral
}

// cornerIndices builds an owned index buffer of the primitive type.
func (g *Geometry) cornerIndices(values []uint32) *Indices {
	t := g.PrimitiveType()
	i := NewIndices(t, FormatU32, len(values)/t.PrimitiveSize())
	i.SetValues(values, false)
	return i
}

// IsOptimized reports whether every attribute shares the single primitive
// index space.
func (g *Geometry) IsOptimized() bool {
	count := 0
	var p *Indices
	for _, i := range g.indices {
		if i.typ.IsPrimitive() {
			count++
			p = i
		}
	}
	if count != 1 || len(g.attributes) == 0 {
		return false
	}
	size := g.attributes[0].size
	for _, a := range g.attributes {
		if a.indices != nil || a.size != size {
			return false
		}
	}
	return p.IsDirect() || p.Len() == 0 || int(p.MaxIndex()) < size
}

// FlipWinding reverses the orientation of every primitive, including
// attribute-owned indices. Triangles swap their last two corners;
// quadrilaterals (a,b,c,d) become (a,d,c,b).
func (g *Geometry) FlipWinding() bool {
	if !g.isSurface() {
		return false
	}
	ps := g.PrimitiveType().PrimitiveSize()
	flip := func(i *Indices) {
		if i == nil || i.IsDirect() || i.IsUniform() || i.typ.PrimitiveSize() != ps {
			return
		}
		for p := 0; p < i.size; p++ {
			a, b := p*ps+1, p*ps+ps-1
			va, vb := i.At(a), i.At(b)
			i.Set(a, vb)
			i.Set(b, va)
		}
	}
	if _, p := g.primary(); p == nil || p.IsDirect() {
		// unindexed corners are reordered row by row
		for _, a := range g.attributes {
			if a.indices == nil {
				flipRows(a, ps)
			}
		}
	} else {
		flip(p)
	}
	for _, a := range g.attributes {
		flip(a.indices)
	}
	g.flipped = !g.flipped
	return true
}

func flipRows(a *Attribute, ps int) {
	tmp := make([]byte, a.Stride())
	for p := 0; p+ps <= a.size; p += ps {
		x, y := a.Row(p+1), a.Row(p+ps-1)
		copy(tmp, x)
		copy(x, y)
		copy(y, tmp)
	}
}

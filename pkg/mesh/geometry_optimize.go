package mesh

import (
	"cmp"
	"errors"
	"fmt"
	gomath "math"
	"slices"

	"github.com/Faultbox/midgard-mesh/pkg/math"
)

// Vertex cache scoring weights.
const (
	cacheDecayPower   = 1.5
	lastPrimitiveBias = 0.75
	valenceBoostScale = 2.0
	valenceBoostPower = 0.5
)

// OptimizeIndices reorders the primitives of the index buffer at indexSlot
// (the primary one when negative) for a FIFO vertex cache of the given
// size. With transparent set primitives are first sorted back to front by
// centroid depth along local Z and only reordered within windows of cache
// primitives, trading cache efficiency for blending order. Per-primitive
// indices and attribute-owned indices follow the new order.
func (g *Geometry) OptimizeIndices(cache int, transparent bool, indexSlot, position int) bool {
	verts, ok := g.slotVertices(indexSlot)
	if !ok || len(verts) == 0 || cache < len(verts[0]) {
		return false
	}
	layer := make([]int, len(verts))
	if transparent {
		pos := g.Attribute(AttributePosition, position)
		if pos == nil {
			return false
		}
		depth := g.primitiveDepths(pos, indexSlot, verts)
		if depth == nil {
			return false
		}
		byDepth := make([]int, len(verts))
		for p := range byDepth {
			byDepth[p] = p
		}
		slices.SortStableFunc(byDepth, func(a, b int) int { return cmp.Compare(depth[a], depth[b]) })
		for rank, p := range byDepth {
			layer[p] = rank / cache
		}
	}
	order := forsythOrder(verts, cache, layer)
	g.reorderPrimitives(indexSlot, order)
	return true
}

// primitiveDepths returns the mean local Z of every primitive.
func (g *Geometry) primitiveDepths(pos *Attribute, indexSlot int, verts [][]uint32) []float32 {
	depth := make([]float32, len(verts))
	primarySlot, _ := g.primary()
	if indexSlot < 0 || indexSlot == primarySlot {
		for p, corners := range g.primitives() {
			for _, k := range corners {
				depth[p] += pos.Vec3(g.rowOf(pos, k)).Z
			}
			depth[p] /= float32(len(corners))
		}
		return depth
	}
	for p, v := range verts {
		for _, x := range v {
			if int(x) >= pos.Size() {
				return nil
			}
			depth[p] += pos.Vec3(int(x)).Z
		}
		depth[p] /= float32(len(v))
	}
	return depth
}

// forsythOrder returns a primitive emission order that greedily picks the
// highest scoring primitive touching the simulated cache. Primitives are
// only taken from the lowest layer that still has pending ones.
func forsythOrder(verts [][]uint32, cacheSize int, layer []int) []int {
	ps := len(verts[0])
	vertPrims := make(map[uint32][]int)
	remaining := make(map[uint32]int)
	for p, v := range verts {
		for _, x := range v {
			vertPrims[x] = append(vertPrims[x], p)
			remaining[x]++
		}
	}

	layers := make([][]int, slices.Max(layer)+1)
	for p, l := range layer {
		layers[l] = append(layers[l], p)
	}

	cachePos := make(map[uint32]int)
	score := func(v uint32) float64 {
		r := remaining[v]
		if r == 0 {
			return -1
		}
		s := 0.0
		if c, ok := cachePos[v]; ok {
			if c < ps {
				s = lastPrimitiveBias
			} else {
				s = gomath.Pow(1-float64(c-ps)/float64(cacheSize-ps), cacheDecayPower)
			}
		}
		return s + valenceBoostScale*gomath.Pow(float64(r), -valenceBoostPower)
	}

	emitted := make([]bool, len(verts))
	order := make([]int, 0, len(verts))
	var cache []uint32
	cur, cursor, left := 0, 0, len(layers[0])
	for len(order) < len(verts) {
		best, bestScore := -1, gomath.Inf(-1)
		for _, v := range cache {
			for _, p := range vertPrims[v] {
				if emitted[p] || layer[p] != cur {
					continue
				}
				s := 0.0
				for _, x := range verts[p] {
					s += score(x)
				}
				if s > bestScore || s == bestScore && p < best {
					best, bestScore = p, s
				}
			}
		}
		if best < 0 {
			for emitted[layers[cur][cursor]] {
				cursor++
			}
			best = layers[cur][cursor]
		}

		emitted[best] = true
		order = append(order, best)
		for _, x := range verts[best] {
			remaining[x]--
		}

		next := make([]uint32, 0, cacheSize+ps)
		for _, x := range verts[best] {
			if !slices.Contains(next, x) {
				next = append(next, x)
			}
		}
		for _, x := range cache {
			if !slices.Contains(verts[best], x) {
				next = append(next, x)
			}
		}
		if len(next) > cacheSize {
			for _, x := range next[cacheSize:] {
				delete(cachePos, x)
			}
			next = next[:cacheSize]
		}
		for c, x := range next {
			cachePos[x] = c
		}
		cache = next

		if left--; left == 0 && cur+1 < len(layers) {
			cur++
			cursor = 0
			left = len(layers[cur])
		}
	}
	return order
}

// reorderPrimitives applies order (new position -> old primitive) to the
// index buffer at slot and to every buffer that runs parallel to it.
func (g *Geometry) reorderPrimitives(slot int, order []int) {
	primarySlot, _ := g.primary()
	if slot < 0 {
		slot = primarySlot
	}
	n := len(order)
	var target *Indices
	if slot >= 0 {
		target = g.indices[slot]
	}
	if target != nil && !target.IsDirect() {
		permuteIndices(target, order)
	}
	for _, i := range g.indices {
		if i != target && i.typ.IsPerPrimitive() && i.size == n {
			permuteIndices(i, order)
		}
	}
	if slot != primarySlot {
		return
	}
	for _, a := range g.attributes {
		switch {
		case a.indices != nil && !a.indices.IsDirect() && a.indices.size == n:
			permuteIndices(a.indices, order)
		case a.indices == nil && (target == nil || target.IsDirect()):
			permuteRows(a, order, g.PrimitiveType().PrimitiveSize())
		}
	}
}

func permuteIndices(i *Indices, order []int) {
	if i.IsUniform() {
		return
	}
	values := i.Values()
	w := len(values) / i.size
	out := make([]uint32, 0, len(values))
	for _, p := range order {
		out = append(out, values[p*w:(p+1)*w]...)
	}
	i.SetValues(out, false)
}

func permuteRows(a *Attribute, order []int, ps int) {
	if len(order)*ps > a.size {
		return
	}
	block := ps * a.Stride()
	src := slices.Clone(a.data)
	for np, op := range order {
		copy(a.data[np*block:(np+1)*block], src[op*block:(op+1)*block])
	}
}

// AverageCacheMissRatio simulates a FIFO vertex cache over the index buffer
// at indexSlot and returns the number of misses per primitive.
func (g *Geometry) AverageCacheMissRatio(indexSlot, cache int) float32 {
	verts, ok := g.slotVertices(indexSlot)
	if !ok || len(verts) == 0 || cache < 1 {
		return 0
	}
	fifo := make([]uint32, 0, cache)
	cached := make(map[uint32]bool)
	misses := 0
	for _, v := range verts {
		for _, x := range v {
			if cached[x] {
				continue
			}
			misses++
			if len(fifo) == cache {
				delete(cached, fifo[0])
				fifo = fifo[1:]
			}
			fifo = append(fifo, x)
			cached[x] = true
		}
	}
	return float32(misses) / float32(len(verts))
}

// OptimizeAttributes converts every attribute to one shared index space.
// Two corners share a vertex only when every attribute row is bit-identical
// and, when materialSlot addresses a Material indices buffer, their
// primitives use the same material. Vertex order follows first use.
// Joint-type indices and joint vertex lists are remapped, Edge indices
// are remapped to the first new vertex of each old one and any secondary
// primitive index buffer is dropped.
func (g *Geometry) OptimizeAttributes(materialSlot int) bool {
	corners := g.cornerCount()
	if corners == 0 || len(g.attributes) == 0 {
		return false
	}
	var material *Indices
	if materialSlot >= 0 {
		if materialSlot >= len(g.indices) || g.indices[materialSlot].typ != IndicesMaterial {
			return false
		}
		material = g.indices[materialSlot]
		if !material.IsUniform() && !material.IsDirect() && material.Size() < g.NumPrimitives() {
			return false
		}
	}
	for _, a := range g.attributes {
		for k := range corners {
			if g.rowOf(a, k) >= a.size {
				return false
			}
		}
	}

	ps := g.PrimitiveType().PrimitiveSize()
	ids := make(map[string]uint32)
	var first []int
	values := make([]uint32, corners)
	oldToNew := make(map[uint32][]uint32)
	var key []byte
	for k := range corners {
		key = key[:0]
		for _, a := range g.attributes {
			key = append(key, a.Row(g.rowOf(a, k))...)
		}
		if material != nil {
			m := material.At(k / ps)
			key = append(key, byte(m), byte(m>>8), byte(m>>16), byte(m>>24))
		}
		id, ok := ids[string(key)]
		if !ok {
			id = uint32(len(first))
			ids[string(key)] = id
			first = append(first, k)
			old := g.vertexOf(k)
			oldToNew[old] = append(oldToNew[old], id)
		}
		values[k] = id
	}

	attributes := make([]*Attribute, len(g.attributes))
	for n, a := range g.attributes {
		out := &Attribute{
			typ:         a.typ,
			format:      a.format,
			index:       a.index,
			size:        len(first),
			data:        make([]byte, len(first)*a.Stride()),
			geometry:    g,
			packed:      a.packed,
			packedIndex: a.packedIndex,
		}
		for r, k := range first {
			copy(out.Row(r), a.Row(g.rowOf(a, k)))
		}
		attributes[n] = out
	}

	primarySlot, p := g.primary()
	format := FormatU32
	if p != nil && !p.IsDirect() && !p.format.Scalar().IsFloat() {
		if _, hi := p.format.Scalar().Range(); float64(len(first)-1) <= hi {
			format = p.format
		}
	}
	primary := NewIndices(g.PrimitiveType(), format, corners/ps)
	primary.SetValues(values, false)

	var kept []*Indices
	for slot, i := range g.indices {
		switch {
		case slot == primarySlot:
			kept = append(kept, primary)
		case i.typ.IsPrimitive():
			// secondary primitive buffers address the old vertex space
		case i.typ == IndicesJoint:
			kept = append(kept, remapJointIndices(i, first, g))
		case i.typ == IndicesEdge:
			kept = append(kept, remapFirst(i, oldToNew))
		default:
			kept = append(kept, i)
		}
	}
	if primarySlot < 0 {
		kept = append([]*Indices{primary}, kept...)
	}
	for _, i := range kept {
		i.geometry = g
	}

	for _, j := range g.joints {
		if j.indices == nil {
			continue
		}
		var remapped []uint32
		for _, v := range j.indices.Values() {
			remapped = append(remapped, oldToNew[v]...)
		}
		slices.Sort(remapped)
		j.indices = NewIndicesFrom(IndicesPoint, slices.Compact(remapped))
	}

	g.indices = kept
	g.attributes = attributes
	return true
}

// remapJointIndices rebuilds a per-vertex joint buffer for the new vertices.
func remapJointIndices(i *Indices, first []int, g *Geometry) *Indices {
	out := NewIndices(IndicesJoint, i.format, len(first))
	w := i.format.Components()
	for r, k := range first {
		old := int(g.vertexOf(k))
		if old >= i.size {
			continue
		}
		for c := range w {
			out.Set(r*w+c, i.At(old*w+c))
		}
	}
	return out
}

// remapFirst maps every value to the first new vertex of the old one.
func remapFirst(i *Indices, oldToNew map[uint32][]uint32) *Indices {
	out := i.Clone()
	for k := 0; k < out.Len(); k++ {
		if ids := oldToNew[out.At(k)]; len(ids) > 0 {
			out.Set(k, ids[0])
		}
	}
	return out
}

// OptimizeMaterials removes materials whose parameters equal an earlier
// entry and repoints Material indices to the surviving entry.
func (g *Geometry) OptimizeMaterials() bool {
	var kept []*Material
	remap := make([]uint32, len(g.materials))
	for n, m := range g.materials {
		found := slices.IndexFunc(kept, func(k *Material) bool { return k == m || k.Compare(m) == 0 })
		if found < 0 {
			found = len(kept)
			kept = append(kept, m)
		}
		remap[n] = uint32(found)
	}
	if len(kept) == len(g.materials) {
		return true
	}
	for _, i := range g.indices {
		if i.typ != IndicesMaterial || i.IsDirect() {
			continue
		}
		if i.IsUniform() {
			if int(i.constant) < len(remap) {
				i.constant = remap[i.constant]
			}
			continue
		}
		for k := 0; k < i.Len(); k++ {
			if v := i.At(k); int(v) < len(remap) {
				i.Set(k, remap[v])
			}
		}
	}
	g.materials = kept
	return true
}

// packedTypes lists the attribute types whose slots are packed pairwise.
// Position slot 0 is the base shape and never packed.
var packedTypes = []AttributeType{AttributePosition, AttributeTexCoord, AttributeColor}

// PackAttributes packs consecutive slots of morph target, texture
// coordinate and color attributes two by two into 32-bit buffers. With
// remove set the source attributes are deleted and the packed attribute
// takes the slot of the first source.
func (g *Geometry) PackAttributes(remove bool) bool {
	packed := false
	for _, t := range packedTypes {
		var list []*Attribute
		for _, a := range g.attributes {
			if a.typ == t && !a.IsPacked() && (t != AttributePosition || a.index > 0) {
				list = append(list, a)
			}
		}
		slices.SortFunc(list, func(a, b *Attribute) int { return cmp.Compare(a.index, b.index) })
		for n := 0; n+1 < len(list); n += 2 {
			a, b := list[n], list[n+1]
			if !sameIndexing(a, b) {
				continue
			}
			comps := max(a.format.Components(), b.format.Components())
			out := PackAttributes(a, b, MakeFormat(ScalarU32, comps))
			if out == nil {
				continue
			}
			if a.indices != nil {
				out.indices = a.indices.Clone()
			}
			if remove {
				g.removeAttribute(a)
				g.removeAttribute(b)
			} else {
				out.index = g.nextSlot(t)
			}
			g.AddAttribute(out)
			packed = true
		}
	}
	return packed
}

// UnpackAttributes restores the two source attributes of every packed
// attribute. Half floats are widened to f32. Restored attributes keep their
// original slots unless those are taken.
func (g *Geometry) UnpackAttributes(remove bool) bool {
	unpacked := false
	for _, p := range slices.Clone(g.attributes) {
		if !p.IsPacked() {
			continue
		}
		a, b, ok := UnpackAttributes(p)
		if !ok {
			continue
		}
		if remove {
			g.removeAttribute(p)
		}
		for _, h := range []*Attribute{a, b} {
			if h.format.Scalar() == ScalarF16 {
				if w := h.ToFormat(MakeFormat(ScalarF32, h.format.Components())); w != nil {
					h = w
				}
			}
			if g.FindAttribute(h.typ, h.index) >= 0 {
				h.index = g.nextSlot(h.typ)
			}
			g.AddAttribute(h)
		}
		unpacked = true
	}
	return unpacked
}

func (g *Geometry) removeAttribute(a *Attribute) {
	if pos := slices.Index(g.attributes, a); pos >= 0 {
		g.RemoveAttribute(pos)
	}
}

func sameIndexing(a, b *Attribute) bool {
	switch {
	case a.indices == nil || b.indices == nil:
		return a.indices == nil && b.indices == nil
	default:
		return a.indices.Compare(b.indices) == 0
	}
}

// Compare orders two geometries by their indices, attributes, materials and
// joints. Attribute comparison uses the Attribute.Compare semantics of
// transform, threshold and spatial.
func (g *Geometry) Compare(other *Geometry, transform math.Mat4, threshold float32, spatial bool) int {
	if c := cmpInt(len(g.indices), len(other.indices)); c != 0 {
		return c
	}
	for n, i := range g.indices {
		if c := i.Compare(other.indices[n]); c != 0 {
			return c
		}
	}
	if c := cmpInt(len(g.attributes), len(other.attributes)); c != 0 {
		return c
	}
	for n, a := range g.attributes {
		b := other.attributes[n]
		if c := a.Compare(b, transform, threshold, spatial); c != 0 {
			return c
		}
		switch {
		case a.indices == nil && b.indices != nil:
			return -1
		case a.indices != nil && b.indices == nil:
			return 1
		case a.indices != nil:
			if c := a.indices.Compare(b.indices); c != 0 {
				return c
			}
		}
	}
	if c := cmpInt(len(g.materials), len(other.materials)); c != 0 {
		return c
	}
	for n, m := range g.materials {
		if o := other.materials[n]; m != o {
			if c := m.Compare(o); c != 0 {
				return c
			}
		}
	}
	return cmpInt(len(g.joints), len(other.joints))
}

// Validate checks index ranges, per-primitive buffer sizes and the
// consistency of the geometry DAG. It reports every problem found.
func (g *Geometry) Validate() error {
	var errs []error
	corners := g.cornerCount()
	prims := g.NumPrimitives()
	_, p := g.primary()
	indexed := p != nil && !p.IsDirect() && p.Len() > 0

	for _, a := range g.attributes {
		switch {
		case a.indices != nil && !a.indices.IsDirect():
			if a.indices.Len() != corners {
				errs = append(errs, fmt.Errorf("%w: %s attribute %d has %d corners, want %d",
					ErrCornerCount, a.typ, a.index, a.indices.Len(), corners))
			}
			if a.indices.Len() > 0 && int(a.indices.MaxIndex()) >= a.size {
				errs = append(errs, fmt.Errorf("%w: %s attribute %d indices reach %d, size %d",
					ErrIndexRange, a.typ, a.index, a.indices.MaxIndex(), a.size))
			}
		case indexed && int(p.MaxIndex()) >= a.size:
			errs = append(errs, fmt.Errorf("%w: primitive indices reach %d, %s attribute %d size %d",
				ErrIndexRange, p.MaxIndex(), a.typ, a.index, a.size))
		}
	}

	vertices := -1
	for _, a := range g.attributes {
		if a.indices == nil && (vertices < 0 || a.size < vertices) {
			vertices = a.size
		}
	}

	for slot, i := range g.indices {
		if i.Len() == 0 {
			continue
		}
		switch i.typ {
		case IndicesEdge, IndicesPoint, IndicesLine, IndicesTriangle, IndicesQuadrilateral, IndicesTetrahedron:
			// the primary buffer is checked per attribute above
			if i != p && !i.IsUniform() && vertices >= 0 && int(i.MaxIndex()) >= vertices {
				errs = append(errs, fmt.Errorf("%w: %s indices %d reach %d, %d vertices",
					ErrIndexRange, i.typ, slot, i.MaxIndex(), vertices))
			}
		case IndicesJoint:
			if int(i.MaxIndex()) >= len(g.joints) {
				errs = append(errs, fmt.Errorf("%w: indices %d reach joint %d of %d",
					ErrJointRange, slot, i.MaxIndex(), len(g.joints)))
			}
		case IndicesMaterial:
			if int(i.MaxIndex()) >= len(g.materials) {
				errs = append(errs, fmt.Errorf("%w: indices %d reach material %d of %d",
					ErrMaterialRange, slot, i.MaxIndex(), len(g.materials)))
			}
		}
		if i.typ.IsPerPrimitive() && i.size != prims {
			errs = append(errs, fmt.Errorf("%w: %s indices %d has %d values for %d primitives",
				ErrPrimitiveCount, i.typ, slot, i.size, prims))
		}
	}

	for s := range g.parents {
		if parent := g.parents[s]; parent != nil && !slices.Contains(parent.children[s], g) {
			errs = append(errs, fmt.Errorf("%w: parent%d %q does not list %q", ErrOrphan, s, parent.name, g.name))
		}
		for _, child := range g.children[s] {
			if child.parents[s] != g {
				errs = append(errs, fmt.Errorf("%w: child %q of %q has another parent%d", ErrOrphan, child.name, g.name, s))
			}
			if g.mesh != nil && child.mesh != g.mesh {
				errs = append(errs, fmt.Errorf("%w: child %q of %q belongs to another mesh", ErrOrphan, child.name, g.name))
			}
		}
	}
	if g.reaches(g) {
		errs = append(errs, fmt.Errorf("%w: through %q", ErrCycle, g.name))
	}
	return errors.Join(errs...)
}

// reaches reports whether target is a descendant of g.
func (g *Geometry) reaches(target *Geometry) bool {
	visited := make(map[*Geometry]bool)
	stack := append(slices.Clone(g.children[0]), g.children[1]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == target {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		stack = append(stack, n.children[0]...)
		stack = append(stack, n.children[1]...)
	}
	return false
}

package mesh

import (
	"cmp"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mesh/pkg/math"
)

// OptimizeGeometries removes geometries that duplicate one of the depth
// geometries before them and repoints their nodes to the survivor.
// Candidates are compared in the survivor's frame, so a duplicate placed
// with a different geometry transform still matches, and positions may
// differ by threshold. Geometries taking part in the LOD DAG are kept. The
// window slides over the surviving list, so a second run changes nothing.
func (m *Mesh) OptimizeGeometries(threshold float32, depth int) bool {
	if depth < 1 || threshold < 0 {
		return false
	}
	removed := 0
	for i := 0; i < len(m.geometries); i++ {
		g := m.geometries[i]
		if g.hasRelations() {
			continue
		}
		for j := max(0, i-depth); j < i; j++ {
			h := m.geometries[j]
			if h.hasRelations() {
				continue
			}
			rel := h.transform.Inverse().Mul(g.transform)
			if g.Compare(h, rel, threshold, true) != 0 {
				continue
			}
			m.ReplaceGeometry(g, h)
			m.geometries = slices.Delete(m.geometries, i, i+1)
			g.mesh = nil
			i--
			removed++
			break
		}
	}
	m.log.Debug("optimize geometries", zap.Int("removed", removed), zap.Int("remaining", len(m.geometries)))
	return true
}

// OptimizeOrder sorts nodes so that parents precede children and siblings
// follow the Morton order of their positions, and sorts geometries
// topologically along the LOD DAG. It returns false and changes nothing
// when the geometry DAG has a cycle. Animation tracks follow their nodes.
func (m *Mesh) OptimizeOrder() bool {
	geometries, ok := m.geometryOrder()
	if !ok {
		m.log.Warn("geometry hierarchy has a cycle", zap.String("mesh", m.name))
		return false
	}
	m.geometries = geometries

	var roots []*Node
	for _, n := range m.nodes {
		if n.parent == nil || !slices.Contains(m.nodes, n.parent) {
			roots = append(roots, n)
		}
	}
	roots = mortonSort(roots)
	nodes := make([]*Node, 0, len(m.nodes))
	for _, r := range roots {
		r.Walk(func(n *Node) bool {
			n.children = mortonSort(n.children)
			if n.mesh == m {
				nodes = append(nodes, n)
			}
			return true
		})
	}

	old := make(map[*Node]int, len(m.nodes))
	for i, n := range m.nodes {
		old[n] = i
	}
	for _, a := range m.animations {
		transforms := make([]*Transform, len(nodes))
		for i, n := range nodes {
			if o := old[n]; o < len(a.transforms) {
				transforms[i] = a.transforms[o]
			}
		}
		a.transforms = transforms
	}
	m.nodes = nodes
	return true
}

// geometryOrder returns the geometries in topological order, preferring
// the current order among ready geometries.
func (m *Mesh) geometryOrder() ([]*Geometry, bool) {
	index := make(map[*Geometry]int, len(m.geometries))
	for i, g := range m.geometries {
		index[g] = i
	}
	indegree := make([]int, len(m.geometries))
	for _, g := range m.geometries {
		for s := range g.children {
			for _, c := range g.children[s] {
				if i, ok := index[c]; ok {
					indegree[i]++
				}
			}
		}
	}
	var ready []int
	for i, d := range indegree {
		if d == 0 {
			ready = append(ready, i)
		}
	}
	order := make([]*Geometry, 0, len(m.geometries))
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		g := m.geometries[i]
		order = append(order, g)
		for s := range g.children {
			for _, c := range g.children[s] {
				ci, ok := index[c]
				if !ok {
					continue
				}
				if indegree[ci]--; indegree[ci] == 0 {
					pos, _ := slices.BinarySearch(ready, ci)
					ready = slices.Insert(ready, pos, ci)
				}
			}
		}
	}
	return order, len(order) == len(m.geometries)
}

// mortonSort orders nodes by the Morton code of their global translation
// within the nodes' common bounds. The sort is stable.
func mortonSort(nodes []*Node) []*Node {
	if len(nodes) < 2 {
		return nodes
	}
	points := make([]math.Vec3, len(nodes))
	for i, n := range nodes {
		points[i] = n.global.Translation()
	}
	box := math.NewBoundBox(points)
	size := box.Size()
	codes := make(map[*Node]uint32, len(nodes))
	for i, n := range nodes {
		codes[n] = mortonCode(points[i].Sub(box.Min), size)
	}
	out := slices.Clone(nodes)
	slices.SortStableFunc(out, func(a, b *Node) int { return cmp.Compare(codes[a], codes[b]) })
	return out
}

// mortonCode interleaves 10-bit quantized coordinates.
func mortonCode(p, size math.Vec3) uint32 {
	quantize := func(v, extent float32) uint32 {
		if extent <= 0 {
			return 0
		}
		return uint32(min(max(v/extent, 0), 1) * 1023)
	}
	spread := func(x uint32) uint32 {
		x &= 0x3ff
		x = (x | x<<16) & 0x30000ff
		x = (x | x<<8) & 0x300f00f
		x = (x | x<<4) & 0x30c30c3
		x = (x | x<<2) & 0x9249249
		return x
	}
	return spread(quantize(p.X, size.X)) | spread(quantize(p.Y, size.Y))<<1 | spread(quantize(p.Z, size.Z))<<2
}

// MergeGeometries concatenates geometries placed by the same node when
// they are optimized, unskinned, outside the LOD DAG, referenced by that
// node only, and share their attribute layout and materials. Merged
// vertices are moved into the frame of the first geometry.
func (m *Mesh) MergeGeometries() bool {
	merged := 0
	for _, n := range m.nodes {
		for i := 0; i < len(n.geometries); i++ {
			a := n.geometries[i]
			if !m.mergeable(a) {
				continue
			}
			for j := i + 1; j < len(n.geometries); j++ {
				b := n.geometries[j]
				if !m.mergeable(b) || !sameLayout(a, b) || !sameMaterials(a, b) {
					continue
				}
				if !a.merge(b) {
					continue
				}
				n.geometries = slices.Delete(n.geometries, j, j+1)
				m.RemoveGeometry(b)
				j--
				merged++
			}
		}
	}
	m.log.Debug("merge geometries", zap.Int("merged", merged))
	return true
}

func (m *Mesh) mergeable(g *Geometry) bool {
	return g.mesh == m && g.IsOptimized() && !g.hasRelations() &&
		len(g.joints) == 0 && m.referenceCount(g) == 1
}

// sameLayout reports whether two geometries have matching attribute and
// index buffer layouts.
func sameLayout(a, b *Geometry) bool {
	if len(a.attributes) != len(b.attributes) || len(a.indices) != len(b.indices) ||
		a.PrimitiveType() != b.PrimitiveType() {
		return false
	}
	for n, x := range a.attributes {
		y := b.attributes[n]
		if x.typ != y.typ || x.index != y.index || x.format != y.format || x.packed != y.packed {
			return false
		}
	}
	for n, x := range a.indices {
		y := b.indices[n]
		if x.typ != y.typ || x.IsUniform() || y.IsUniform() {
			return false
		}
		if !x.typ.IsPrimitive() && (x.IsDirect() || y.IsDirect()) {
			return false
		}
	}
	return true
}

func sameMaterials(a, b *Geometry) bool {
	return slices.EqualFunc(a.materials, b.materials, func(x, y *Material) bool {
		return x == y || x.Compare(y) == 0
	})
}

// merge appends b's vertices and primitives to g.
func (g *Geometry) merge(b *Geometry) bool {
	offset := g.attributes[0].size
	total := offset + b.attributes[0].size
	pa, pb := g.explicitPrimary(), b.explicitPrimary()
	if _, hi := pa.format.Scalar().Range(); float64(total-1) > hi {
		pa = pa.ToFormat(FormatU32)
		slot, _ := g.primary()
		g.ReplaceIndices(slot, pa)
	}

	rel := g.transform.Inverse().Mul(b.transform)
	identity := rel.ApproxEqual(math.Identity(), 0)
	for n, a := range g.attributes {
		src := b.attributes[n]
		if !identity && src.typ.IsSpatial() && !src.IsPacked() {
			src = src.Clone()
			src.SetTransform(rel)
		}
		if !a.AddAttribute(src) {
			return false
		}
	}
	for n, i := range g.indices {
		switch {
		case i == pa:
			i.AddIndices(pb, uint32(offset), true)
		case i.typ.IsPrimitive():
			// only the primary buffer may be primitive in an optimized geometry
		case i.typ == IndicesEdge:
			if _, hi := i.format.Scalar().Range(); float64(total-1) > hi {
				i = i.ToFormat(FormatU32)
				g.ReplaceIndices(n, i)
			}
			i.AddIndices(b.indices[n], uint32(offset), true)
		case i.typ == IndicesIsland || i.typ == IndicesGroup:
			// b's clusters keep their own ids
			var next uint32
			if i.Len() > 0 {
				next = i.MaxIndex() + 1
			}
			if _, hi := i.format.Scalar().Range(); float64(next)+float64(b.indices[n].MaxIndex()) > hi {
				i = i.ToFormat(FormatU32)
				g.ReplaceIndices(n, i)
			}
			i.AddIndices(b.indices[n], next, true)
		default:
			i.AddIndices(b.indices[n], 0, true)
		}
	}
	if g.boundBox.Valid() {
		g.CreateBounds(Force, -1)
	}
	return true
}

// explicitPrimary replaces a direct primary buffer with explicit values.
func (g *Geometry) explicitPrimary() *Indices {
	slot, p := g.primary()
	if p != nil && !p.IsDirect() {
		return p
	}
	values := make([]uint32, g.cornerCount())
	for k := range values {
		values[k] = uint32(k)
	}
	out := g.cornerIndices(values)
	if slot >= 0 {
		g.ReplaceIndices(slot, out)
	} else {
		g.AddIndices(out)
	}
	return out
}

// OptimizeWinding flips primitives whose placement would render them with
// the wrong orientation: a node transform with negative determinant
// mirrors every primitive. Clockwise selects the desired front-face
// winding. A geometry placed by nodes of both orientations is cloned for
// the mirrored ones. Geometries remember their flips, so a second run
// changes nothing.
func (m *Mesh) OptimizeWinding(clockwise bool) bool {
	flipped, cloned := 0, 0
	for _, g := range slices.Clone(m.geometries) {
		var keep, flip []*Node
		for _, n := range m.nodes {
			if !slices.Contains(n.geometries, g) {
				continue
			}
			mirrored := n.global.Mul(g.transform).Det3() < 0
			if mirrored != g.flipped != clockwise {
				flip = append(flip, n)
			} else {
				keep = append(keep, n)
			}
		}
		switch {
		case len(flip) == 0:
			continue
		case len(keep) == 0:
			if g.FlipWinding() {
				flipped++
			}
		default:
			c := g.Clone()
			if !c.FlipWinding() {
				continue
			}
			c.name = g.name + ".mirrored"
			m.AddGeometry(c)
			for _, n := range flip {
				n.ReplaceGeometry(g, c)
			}
			cloned++
		}
	}
	m.log.Debug("optimize winding", zap.Bool("clockwise", clockwise),
		zap.Int("flipped", flipped), zap.Int("cloned", cloned))
	return true
}

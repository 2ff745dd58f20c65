package mesh

import (
	gomath "math"

	"github.com/Faultbox/midgard-mesh/pkg/math"
)

// minBasisW keeps the scalar part of a basis quaternion away from zero so
// that its sign can carry handedness.
const minBasisW = 1e-5

// CreateBounds computes the bound box and sphere from the Position
// attribute at slot position (the first one when negative), and the bounds
// of every joint.
func (g *Geometry) CreateBounds(mode Recompute, position int) bool {
	if mode == SkipIfPresent && g.boundBox.Valid() {
		return true
	}
	pos := g.Attribute(AttributePosition, position)
	if pos == nil {
		return false
	}
	points := pos.Points()
	g.boundBox = math.NewBoundBox(points)
	g.boundSphere = math.NewBoundSphere(points)
	for _, j := range g.joints {
		j.createBounds(pos)
	}
	return true
}

// CreateNormals derives per-corner normals from area-weighted face normals.
// A corner only accumulates incident faces whose normal lies within angle
// degrees of its own face; vertices on sharper edges get one normal row per
// smoothing group. An angle outside (0, 180) smooths everything.
func (g *Geometry) CreateNormals(mode Recompute, angle float32, position int) bool {
	if mode == SkipIfPresent && g.FindAttribute(AttributeNormal, -1) >= 0 {
		return true
	}
	pos := g.Attribute(AttributePosition, position)
	if pos == nil || !g.isSurface() {
		return false
	}
	prims := g.primitives()
	if len(prims) == 0 {
		return false
	}

	faces := make([]math.Vec3, len(prims))
	units := make([]math.Vec3, len(prims))
	incident := make(map[int][]int)
	for f, corners := range prims {
		faces[f] = g.faceNormal(pos, corners)
		units[f] = faces[f].Normalize()
		for _, k := range corners {
			v := g.rowOf(pos, k)
			if list := incident[v]; len(list) == 0 || list[len(list)-1] != f {
				incident[v] = append(list, f)
			}
		}
	}

	smooth := angle <= 0 || angle >= 180
	cosAngle := float32(gomath.Cos(float64(angle) * gomath.Pi / 180))

	type key struct {
		v int
		n [3]float32
	}
	rows := make(map[key]uint32)
	var normals []math.Vec3
	values := make([]uint32, g.cornerCount())
	for f, corners := range prims {
		degenerate := units[f] == math.Vec3{}
		for _, k := range corners {
			v := g.rowOf(pos, k)
			var sum math.Vec3
			for _, o := range incident[v] {
				if smooth || degenerate || units[o].Dot(units[f]) >= cosAngle {
					sum = sum.Add(faces[o])
				}
			}
			n := sum.Normalize()
			id, ok := rows[key{v, n.Array()}]
			if !ok {
				id = uint32(len(normals))
				rows[key{v, n.Array()}] = id
				normals = append(normals, n)
			}
			values[k] = id
		}
	}

	out := NewAttribute(AttributeNormal, FormatF32x3, len(normals))
	for r, n := range normals {
		out.SetVec3(r, n)
	}
	out.SetIndices(g.cornerIndices(values))
	g.commitAttribute(out, mode)
	return true
}

// faceNormal returns the fan-summed cross product of a primitive, whose
// length is twice its area.
func (g *Geometry) faceNormal(pos *Attribute, corners []int) math.Vec3 {
	p0 := pos.Vec3(g.rowOf(pos, corners[0]))
	var n math.Vec3
	for k := 1; k+1 < len(corners); k++ {
		p1 := pos.Vec3(g.rowOf(pos, corners[k]))
		p2 := pos.Vec3(g.rowOf(pos, corners[k+1]))
		n = n.Add(p1.Sub(p0).Cross(p2.Sub(p0)))
	}
	return n
}

// CreateTangents derives per-corner tangents from texture coordinate
// gradients, orthogonalized against the normal. The w component holds the
// bitangent handedness. Zero-area triangles contribute nothing; a corner
// without any contribution gets a zero tangent.
func (g *Geometry) CreateTangents(mode Recompute, position, normal, texcoord int) bool {
	if mode == SkipIfPresent && g.FindAttribute(AttributeTangent, -1) >= 0 {
		return true
	}
	pos := g.Attribute(AttributePosition, position)
	nrm := g.Attribute(AttributeNormal, normal)
	uv := g.Attribute(AttributeTexCoord, texcoord)
	if pos == nil || nrm == nil || uv == nil || !g.isSurface() {
		return false
	}
	prims := g.primitives()
	if len(prims) == 0 {
		return false
	}

	type key struct{ p, n, t int }
	ids := make(map[key]uint32)
	var keys []key
	values := make([]uint32, g.cornerCount())
	for _, corners := range prims {
		for _, k := range corners {
			kk := key{g.rowOf(pos, k), g.rowOf(nrm, k), g.rowOf(uv, k)}
			id, ok := ids[kk]
			if !ok {
				id = uint32(len(keys))
				ids[kk] = id
				keys = append(keys, kk)
			}
			values[k] = id
		}
	}

	sdirs := make([]math.Vec3, len(keys))
	tdirs := make([]math.Vec3, len(keys))
	for _, corners := range prims {
		for k := 1; k+1 < len(corners); k++ {
			tri := [3]int{corners[0], corners[k], corners[k+1]}
			var p [3]math.Vec3
			var t [3]math.Vec2
			for c, corner := range tri {
				p[c] = pos.Vec3(g.rowOf(pos, corner))
				t[c] = uv.Vec2(g.rowOf(uv, corner))
			}
			e1, e2 := p[1].Sub(p[0]), p[2].Sub(p[0])
			d1, d2 := t[1].Sub(t[0]), t[2].Sub(t[0])
			r := d1.Cross(d2)
			if r > -1e-12 && r < 1e-12 {
				continue
			}
			sdir := e1.Scale(d2.Y).Sub(e2.Scale(d1.Y)).Scale(1 / r)
			tdir := e2.Scale(d1.X).Sub(e1.Scale(d2.X)).Scale(1 / r)
			for _, corner := range tri {
				id := values[corner]
				sdirs[id] = sdirs[id].Add(sdir)
				tdirs[id] = tdirs[id].Add(tdir)
			}
		}
	}

	out := NewAttribute(AttributeTangent, FormatF32x4, len(keys))
	for r, kk := range keys {
		n := nrm.Vec3(kk.n).Normalize()
		s := sdirs[r]
		t := s.Sub(n.Scale(n.Dot(s))).Normalize()
		w := float32(1)
		if n.Cross(t).Dot(tdirs[r]) < 0 {
			w = -1
		}
		out.SetVec4(r, math.Vec4{t.X, t.Y, t.Z, w})
	}
	out.SetIndices(g.cornerIndices(values))
	g.commitAttribute(out, mode)
	return true
}

// CreateBasis encodes the per-corner tangent frame as a unit quaternion
// rotating (X, Y, Z) onto (tangent, normal x tangent, normal). Mirrored
// frames store the quaternion with a negative scalar part. Missing normals
// and tangents are derived first when angle is positive. It returns the
// slot index of the basis attribute or NotCreated.
func (g *Geometry) CreateBasis(mode Recompute, angle float32, position, normal, tangent int) int {
	if mode == SkipIfPresent {
		if a := g.Attribute(AttributeBasis, -1); a != nil {
			return a.index
		}
	}
	if !g.isSurface() {
		return NotCreated
	}
	nrm := g.Attribute(AttributeNormal, normal)
	if nrm == nil {
		if angle <= 0 || !g.CreateNormals(SkipIfPresent, angle, position) {
			return NotCreated
		}
		nrm = g.Attribute(AttributeNormal, -1)
	}
	tan := g.Attribute(AttributeTangent, tangent)
	if tan == nil && angle > 0 && g.FindAttribute(AttributeTexCoord, -1) >= 0 {
		if g.CreateTangents(SkipIfPresent, position, nrm.index, -1) {
			tan = g.Attribute(AttributeTangent, -1)
		}
	}

	type key struct{ n, t int }
	ids := make(map[key]uint32)
	var frames []math.Vec4
	values := make([]uint32, g.cornerCount())
	for k := range values {
		kk := key{g.rowOf(nrm, k), -1}
		if tan != nil {
			kk.t = g.rowOf(tan, k)
		}
		id, ok := ids[kk]
		if !ok {
			id = uint32(len(frames))
			ids[kk] = id
			var t math.Vec4
			if tan != nil {
				t = tan.Vec4(kk.t)
			}
			frames = append(frames, encodeBasis(nrm.Vec3(kk.n), t))
		}
		values[k] = id
	}

	out := NewAttribute(AttributeBasis, FormatF32x4, len(frames))
	for r, q := range frames {
		out.SetVec4(r, q)
	}
	out.SetIndices(g.cornerIndices(values))
	pos := g.commitAttribute(out, mode)
	return g.attributes[pos].index
}

// encodeBasis builds the quaternion of a normal and a tangent whose w
// component is the handedness.
func encodeBasis(normal math.Vec3, tangent math.Vec4) math.Vec4 {
	n := normal.Normalize()
	if n == (math.Vec3{}) {
		n = math.Vec3{Z: 1}
	}
	t := tangent.XYZ()
	t = t.Sub(n.Scale(n.Dot(t))).Normalize()
	if t == (math.Vec3{}) {
		t = perpendicular(n)
	}
	q := math.QuatFromBasis(t, n.Cross(t), n)
	if q.W < 0 {
		q = q.Neg()
	}
	if q.W < minBasisW {
		q.W = minBasisW
	}
	if tangent[3] < 0 {
		q = q.Neg()
	}
	return math.Vec4{q.X, q.Y, q.Z, q.W}
}

// DecodeBasis expands a basis quaternion into its tangent, binormal and
// normal directions.
func DecodeBasis(v math.Vec4) (tangent, binormal, normal math.Vec3) {
	q := math.Quat{X: v[0], Y: v[1], Z: v[2], W: v[3]}
	tangent = q.Rotate(math.Vec3{X: 1})
	binormal = q.Rotate(math.Vec3{Y: 1})
	normal = q.Rotate(math.Vec3{Z: 1})
	if q.W < 0 {
		binormal = binormal.Neg()
	}
	return tangent, binormal, normal
}

// perpendicular returns a unit vector orthogonal to n.
func perpendicular(n math.Vec3) math.Vec3 {
	axis := math.Vec3{X: 1}
	if n.X*n.X > 0.5 {
		axis = math.Vec3{Y: 1}
	}
	return axis.Sub(n.Scale(n.Dot(axis))).Normalize()
}

// CreateIslands partitions the primitives of the index buffer at indexSlot
// (the primary one when negative) into edge-connected clusters of at most
// maxAttributes distinct vertices and maxPrimitives primitives. Clusters
// grow breadth-first from the first unassigned primitive. Adjacency follows
// the Position rows at slot position when the primary buffer is used. The
// result is an Island indices buffer with one island id per primitive.
func (g *Geometry) CreateIslands(maxAttributes, maxPrimitives int, mode Recompute, indexSlot, position int) bool {
	if mode == SkipIfPresent && g.FindIndices(IndicesIsland) >= 0 {
		return true
	}
	verts, ok := g.slotVertices(indexSlot)
	if !ok || len(verts) == 0 || maxPrimitives < 1 || maxAttributes < len(verts[0]) {
		return false
	}

	// adjacency keys: position rows when available, vertex ids otherwise
	adjKeys := verts
	primarySlot, _ := g.primary()
	if pos := g.Attribute(AttributePosition, position); pos != nil && (indexSlot < 0 || indexSlot == primarySlot) {
		prims := g.primitives()
		if len(prims) == len(verts) {
			adjKeys = make([][]uint32, len(prims))
			for p, corners := range prims {
				adjKeys[p] = make([]uint32, len(corners))
				for c, k := range corners {
					adjKeys[p][c] = uint32(g.rowOf(pos, k))
				}
			}
		}
	}
	adjacency := primitiveAdjacency(adjKeys)

	island := make([]uint32, len(verts))
	assigned := make([]bool, len(verts))
	var id uint32
	for seed := range verts {
		if assigned[seed] {
			continue
		}
		members := make(map[uint32]bool)
		count := 0
		queue := []int{seed}
		for len(queue) > 0 && count < maxPrimitives {
			p := queue[0]
			queue = queue[1:]
			if assigned[p] {
				continue
			}
			added := 0
			for _, v := range verts[p] {
				if !members[v] {
					added++
				}
			}
			if len(members)+added > maxAttributes {
				continue
			}
			for _, v := range verts[p] {
				members[v] = true
			}
			assigned[p] = true
			island[p] = id
			count++
			for _, nb := range adjacency[p] {
				if !assigned[nb] {
					queue = append(queue, nb)
				}
			}
		}
		id++
	}

	out := NewIndices(IndicesIsland, FormatU32, len(island))
	out.SetValues(island, false)
	g.commitIndices(out, mode)
	return true
}

// slotVertices returns the vertex ids of every primitive of the primitive
// index buffer at slot, the primary buffer when slot is negative.
func (g *Geometry) slotVertices(slot int) ([][]uint32, bool) {
	if slot < 0 {
		slot, _ = g.primary()
	}
	if slot >= 0 {
		if slot >= len(g.indices) || !g.indices[slot].typ.IsPrimitive() {
			return nil, false
		}
		if i := g.indices[slot]; !i.IsDirect() {
			return i.Primitives(), true
		}
	}
	prims := g.primitives()
	out := make([][]uint32, len(prims))
	for p, corners := range prims {
		out[p] = make([]uint32, len(corners))
		for c, k := range corners {
			out[p][c] = uint32(k)
		}
	}
	return out, true
}

// primitiveAdjacency links primitives that share an undirected edge.
func primitiveAdjacency(verts [][]uint32) [][]int {
	edges := make(map[[2]uint32][]int)
	for p, v := range verts {
		for k := range v {
			e := [2]uint32{v[k], v[(k+1)%len(v)]}
			if e[0] > e[1] {
				e[0], e[1] = e[1], e[0]
			}
			if e[0] != e[1] {
				edges[e] = append(edges[e], p)
			}
		}
	}
	adjacency := make([][]int, len(verts))
	for p, v := range verts {
		for k := range v {
			e := [2]uint32{v[k], v[(k+1)%len(v)]}
			if e[0] > e[1] {
				e[0], e[1] = e[1], e[0]
			}
			for _, o := range edges[e] {
				if o != p {
					adjacency[p] = append(adjacency[p], o)
				}
			}
		}
	}
	return adjacency
}

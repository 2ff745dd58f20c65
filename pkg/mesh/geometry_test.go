package mesh

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/Faultbox/midgard-mesh/pkg/math"
)

// cornerRows returns the concatenated attribute rows seen by every corner.
func cornerRows(g *Geometry) [][]byte {
	out := make([][]byte, g.cornerCount())
	for k := range out {
		for _, a := range g.Attributes() {
			out[k] = append(out[k], a.Row(g.rowOf(a, k))...)
		}
	}
	return out
}

func TestCreateNormalsCube(t *testing.T) {
	tests := []struct {
		angle float32
		rows  int
	}{
		{30, 24},
		{89, 24},
		{120, 8},
		{0, 8},
	}
	for _, tt := range tests {
		g := NewCubeGeometry("cube", 2)
		if !g.CreateNormals(Force, tt.angle, -1) {
			t.Fatalf("CreateNormals(%v) failed", tt.angle)
		}
		nrm := g.Attribute(AttributeNormal, -1)
		if nrm.Size() != tt.rows {
			t.Errorf("angle %v: normal rows = %d, want %d", tt.angle, nrm.Size(), tt.rows)
		}
		if nrm.Indices().Len() != 36 {
			t.Errorf("angle %v: normal corners = %d, want 36", tt.angle, nrm.Indices().Len())
		}
		if err := g.Validate(); err != nil {
			t.Errorf("angle %v: Validate() = %v", tt.angle, err)
		}
	}
}

func TestCreateNormalsFollowFaces(t *testing.T) {
	g := NewCubeGeometry("cube", 2)
	g.CreateNormals(Force, 30, -1)
	pos := g.Attribute(AttributePosition, -1)
	nrm := g.Attribute(AttributeNormal, -1)
	for _, corners := range g.primitives() {
		face := g.faceNormal(pos, corners).Normalize()
		for _, k := range corners {
			if n := nrm.Vec3(g.rowOf(nrm, k)); !nearVec3(n, face, 1e-6) {
				t.Errorf("corner %d normal = %v, want %v", k, n, face)
			}
		}
	}
}

func TestCreateNormalsFlatQuad(t *testing.T) {
	g := NewQuadGeometry("quad", 1)
	if !g.CreateNormals(Force, 0, -1) {
		t.Fatal("CreateNormals failed")
	}
	nrm := g.Attribute(AttributeNormal, -1)
	for r := 0; r < nrm.Size(); r++ {
		if got := nrm.Vec3(r); got != (math.Vec3{Z: 1}) {
			t.Errorf("normal %d = %v, want +Z", r, got)
		}
	}
}

func TestRecomputeModes(t *testing.T) {
	g := NewGridGeometry("grid", 2, 2, 1)
	g.CreateNormals(Force, 0, -1)
	first := g.Attribute(AttributeNormal, -1)

	g.CreateNormals(SkipIfPresent, 0, -1)
	if g.Attribute(AttributeNormal, -1) != first {
		t.Error("SkipIfPresent replaced the normals")
	}
	g.CreateNormals(Force, 0, -1)
	if g.Attribute(AttributeNormal, -1) == first || g.Attribute(AttributeNormal, 1) != nil {
		t.Error("Force should replace the first normals in place")
	}
	g.CreateNormals(ForceAppend, 0, -1)
	if g.Attribute(AttributeNormal, 1) == nil {
		t.Error("ForceAppend should add slot 1")
	}
}

func TestCreateTangentsGrid(t *testing.T) {
	g := NewGridGeometry("grid", 1, 1, 1)
	g.CreateNormals(Force, 0, -1)
	if !g.CreateTangents(Force, -1, -1, -1) {
		t.Fatal("CreateTangents failed")
	}
	tan := g.Attribute(AttributeTangent, -1)
	for r := 0; r < tan.Size(); r++ {
		if got := tan.Vec4(r); got != (math.Vec4{1, 0, 0, 1}) {
			t.Errorf("tangent %d = %v, want (1 0 0 1)", r, got)
		}
	}

	cube := NewCubeGeometry("cube", 1)
	cube.CreateNormals(Force, 30, -1)
	if cube.CreateTangents(Force, -1, -1, -1) {
		t.Error("tangents without texture coordinates should fail")
	}
}

func TestCreateBasisDecodes(t *testing.T) {
	g := NewGridGeometry("grid", 1, 1, 1)
	g.CreateNormals(Force, 0, -1)
	g.CreateTangents(Force, -1, -1, -1)
	if slot := g.CreateBasis(Force, 0, -1, -1, -1); slot != 0 {
		t.Fatalf("CreateBasis = %d, want 0", slot)
	}
	basis := g.Attribute(AttributeBasis, 0)
	for r := 0; r < basis.Size(); r++ {
		tg, bn, n := DecodeBasis(basis.Vec4(r))
		if !nearVec3(tg, math.Vec3{X: 1}, 1e-5) || !nearVec3(bn, math.Vec3{Y: 1}, 1e-5) || !nearVec3(n, math.Vec3{Z: 1}, 1e-5) {
			t.Errorf("frame %d = %v %v %v", r, tg, bn, n)
		}
	}

	// a mirrored tangent frame flips the binormal
	tan := g.Attribute(AttributeTangent, -1)
	for r := 0; r < tan.Size(); r++ {
		tan.SetVec4(r, math.Vec4{1, 0, 0, -1})
	}
	g.CreateBasis(Force, 0, -1, -1, -1)
	basis = g.Attribute(AttributeBasis, 0)
	for r := 0; r < basis.Size(); r++ {
		v := basis.Vec4(r)
		if v[3] >= 0 {
			t.Errorf("mirrored frame %d has w = %v", r, v[3])
		}
		tg, bn, _ := DecodeBasis(v)
		if !nearVec3(tg, math.Vec3{X: 1}, 1e-5) || !nearVec3(bn, math.Vec3{Y: -1}, 1e-5) {
			t.Errorf("mirrored frame %d = %v %v", r, tg, bn)
		}
	}
}

func TestCreateBasisDerivesNormals(t *testing.T) {
	g := NewCubeGeometry("cube", 2)
	if g.CreateBasis(Force, 0, -1, -1, -1) != NotCreated {
		t.Error("basis without normals and angle 0 should not be created")
	}
	if slot := g.CreateBasis(Force, 45, -1, -1, -1); slot != 0 {
		t.Fatalf("CreateBasis = %d, want 0", slot)
	}
	nrm := g.Attribute(AttributeNormal, -1)
	basis := g.Attribute(AttributeBasis, -1)
	if nrm == nil || basis == nil {
		t.Fatal("normals or basis missing")
	}
	for k := 0; k < g.cornerCount(); k++ {
		_, _, n := DecodeBasis(basis.Vec4(g.rowOf(basis, k)))
		if want := nrm.Vec3(g.rowOf(nrm, k)); !nearVec3(n, want, 1e-3) {
			t.Errorf("corner %d basis normal = %v, want %v", k, n, want)
		}
	}
}

func TestCreateIslandsStrip(t *testing.T) {
	g := NewStripGeometry("strip", 6, 1)
	if !g.CreateIslands(4, 2, Force, -1, -1) {
		t.Fatal("CreateIslands failed")
	}
	slot := g.FindIndices(IndicesIsland)
	if slot < 0 {
		t.Fatal("no island indices")
	}
	islands := g.Indices()[slot].Values()
	if len(islands) != 6 {
		t.Fatalf("island values = %d, want 6", len(islands))
	}

	_, primary := g.primary()
	prims := primary.Primitives()
	count := make(map[uint32]int)
	verts := make(map[uint32]map[uint32]bool)
	for p, id := range islands {
		count[id]++
		if verts[id] == nil {
			verts[id] = make(map[uint32]bool)
		}
		for _, v := range prims[p] {
			verts[id][v] = true
		}
	}
	if len(count) < 3 {
		t.Errorf("islands = %d, want at least 3", len(count))
	}
	for id, n := range count {
		if n > 2 {
			t.Errorf("island %d has %d primitives", id, n)
		}
		if len(verts[id]) > 4 {
			t.Errorf("island %d has %d vertices", id, len(verts[id]))
		}
	}

	if g.CreateIslands(2, 2, Force, -1, -1) {
		t.Error("maxAttributes below the primitive size should fail")
	}
}

func TestOptimizeIndicesImprovesCache(t *testing.T) {
	g := NewGridGeometry("grid", 16, 16, 1)
	_, primary := g.primary()
	original := primary.Primitives()

	order := make([]int, len(original))
	for p := range order {
		order[p] = p
	}
	rand.New(rand.NewPCG(1, 2)).Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	var shuffled, ids []uint32
	for _, p := range order {
		shuffled = append(shuffled, original[p]...)
		ids = append(ids, uint32(p))
	}
	g.ReplaceIndices(0, NewIndicesFrom(IndicesTriangle, shuffled))
	g.AddIndices(NewIndicesFrom(IndicesGroup, ids))

	before := g.AverageCacheMissRatio(-1, 16)
	if !g.OptimizeIndices(16, false, -1, -1) {
		t.Fatal("OptimizeIndices failed")
	}
	after := g.AverageCacheMissRatio(-1, 16)
	if after >= before {
		t.Errorf("ACMR %v -> %v, want an improvement", before, after)
	}

	_, primary = g.primary()
	group := g.Indices()[g.FindIndices(IndicesGroup)]
	for p, tri := range primary.Primitives() {
		if want := original[group.At(p)]; !slices.Equal(tri, want) {
			t.Errorf("primitive %d = %v, group says %v", p, tri, want)
		}
	}
	if g.OptimizeIndices(2, false, -1, -1) {
		t.Error("a cache smaller than a primitive should fail")
	}
}

func TestOptimizeIndicesTransparent(t *testing.T) {
	const count = 9
	pos := NewAttribute(AttributePosition, FormatF32x3, count*3)
	depths := []float32{4, -2, 7, 0, 3, -5, 1, 6, 2}
	var values []uint32
	for p, z := range depths {
		base := p * 3
		pos.SetVec3(base, math.Vec3{Z: z})
		pos.SetVec3(base+1, math.Vec3{X: 1, Z: z})
		pos.SetVec3(base+2, math.Vec3{Y: 1, Z: z})
		values = append(values, uint32(base), uint32(base+1), uint32(base+2))
	}
	g := NewGeometry("layers")
	g.AddIndices(NewIndicesFrom(IndicesTriangle, values))
	g.AddAttribute(pos)

	if !g.OptimizeIndices(3, true, -1, -1) {
		t.Fatal("OptimizeIndices failed")
	}
	_, primary := g.primary()
	var out []float32
	for _, tri := range primary.Primitives() {
		out = append(out, pos.Vec3(int(tri[0])).Z)
	}
	for p := range out {
		for q := p + 1; q < len(out); q++ {
			if p/3 < q/3 && out[p] > out[q] {
				t.Errorf("depth %v in layer %d sorts after %v in layer %d", out[p], p/3, out[q], q/3)
			}
		}
	}
}

func TestOptimizeAttributesQuad(t *testing.T) {
	g := NewQuadGeometry("quad", 2)
	before := cornerRows(g)
	if !g.OptimizeAttributes(-1) {
		t.Fatal("OptimizeAttributes failed")
	}
	if !g.IsOptimized() {
		t.Error("geometry not optimized")
	}
	if got := g.Attribute(AttributePosition, -1).Size(); got != 4 {
		t.Errorf("vertices = %d, want 4", got)
	}
	_, primary := g.primary()
	if want := []uint32{0, 1, 2, 0, 2, 3}; !slices.Equal(primary.Values(), want) {
		t.Errorf("indices = %v, want %v", primary.Values(), want)
	}
	after := cornerRows(g)
	for k := range before {
		if !bytes.Equal(before[k], after[k]) {
			t.Errorf("corner %d changed", k)
		}
	}
}

func TestOptimizeAttributesCube(t *testing.T) {
	g := NewCubeGeometry("cube", 2)
	joint := NewJoint("root")
	joint.SetIndices(NewIndicesFrom(IndicesPoint, []uint32{0, 1, 2, 3}))
	g.AddJoint(joint)
	g.CreateNormals(Force, 30, -1)
	if g.IsOptimized() {
		t.Fatal("indirect normals should not count as optimized")
	}
	before := cornerRows(g)

	if !g.OptimizeAttributes(-1) {
		t.Fatal("OptimizeAttributes failed")
	}
	if !g.IsOptimized() {
		t.Error("geometry not optimized")
	}
	for _, a := range g.Attributes() {
		if a.Size() != 24 || a.Indices() != nil {
			t.Errorf("%s: size %d, indirect %v", a.Type(), a.Size(), a.IsIndirect())
		}
	}
	_, primary := g.primary()
	if primary.MaxIndex() >= 24 {
		t.Errorf("max index = %d", primary.MaxIndex())
	}
	after := cornerRows(g)
	for k := range before {
		if !bytes.Equal(before[k], after[k]) {
			t.Errorf("corner %d changed", k)
		}
	}
	// each old corner vertex splits into one vertex per adjacent face
	if n := joint.Indices().Len(); n != 12 {
		t.Errorf("joint vertices = %d, want 12", n)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestOptimizeAttributesByMaterial(t *testing.T) {
	build := func() *Geometry {
		pos := NewAttribute(AttributePosition, FormatF32x3, 4)
		pos.SetVec3(1, math.Vec3{X: 1})
		pos.SetVec3(2, math.Vec3{X: 1, Y: 1})
		pos.SetVec3(3, math.Vec3{Y: 1})
		g := NewGeometry("two")
		g.AddIndices(NewIndicesFrom(IndicesTriangle, []uint32{0, 1, 2, 0, 2, 3}))
		g.AddIndices(NewIndicesFrom(IndicesMaterial, []uint32{0, 1}))
		g.AddAttribute(pos)
		g.AddMaterial(NewMaterial("a"))
		g.AddMaterial(NewMaterial("b"))
		return g
	}

	tests := []struct {
		name     string
		slot     int
		vertices int
	}{
		{"shared", -1, 4},
		{"split by material", 1, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build()
			if !g.OptimizeAttributes(tt.slot) {
				t.Fatal("OptimizeAttributes failed")
			}
			if got := g.Attribute(AttributePosition, -1).Size(); got != tt.vertices {
				t.Errorf("vertices = %d, want %d", got, tt.vertices)
			}
		})
	}
	if build().OptimizeAttributes(0) {
		t.Error("a primitive buffer is not a material slot")
	}
}

func TestOptimizeMaterials(t *testing.T) {
	g := NewCubeGeometry("cube", 1)
	red, blue, rouge := NewMaterial("red"), NewMaterial("blue"), NewMaterial("rouge")
	red.SetColor("diffuse", math.Vec4{1, 0, 0, 1})
	blue.SetColor("diffuse", math.Vec4{0, 0, 1, 1})
	rouge.SetColor("diffuse", math.Vec4{1, 0, 0, 1})
	g.AddMaterial(red)
	g.AddMaterial(blue)
	g.AddMaterial(rouge)
	ids := make([]uint32, 12)
	for p := range ids {
		ids[p] = uint32(p % 3)
	}
	g.AddIndices(NewIndicesFrom(IndicesMaterial, ids))

	if !g.OptimizeMaterials() {
		t.Fatal("OptimizeMaterials failed")
	}
	if len(g.Materials()) != 2 {
		t.Fatalf("materials = %d, want 2", len(g.Materials()))
	}
	for p, v := range g.Indices()[g.FindIndices(IndicesMaterial)].Values() {
		want := uint32(p % 3)
		if want == 2 {
			want = 0
		}
		if v != want {
			t.Errorf("primitive %d material = %d, want %d", p, v, want)
		}
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestGeometryPackUnpack(t *testing.T) {
	g := NewGridGeometry("grid", 2, 2, 1)
	uv := g.Attribute(AttributeTexCoord, 0)
	second := uv.Clone()
	second.SetIndex(1)
	g.AddAttribute(second)

	if !g.PackAttributes(true) {
		t.Fatal("PackAttributes failed")
	}
	var packed []*Attribute
	for _, a := range g.Attributes() {
		if a.Type() == AttributeTexCoord {
			packed = append(packed, a)
		}
	}
	if len(packed) != 1 || !packed[0].IsPacked() {
		t.Fatalf("texcoord attributes after packing = %d", len(packed))
	}

	if !g.UnpackAttributes(true) {
		t.Fatal("UnpackAttributes failed")
	}
	for slot := range 2 {
		a := g.Attribute(AttributeTexCoord, slot)
		if a == nil {
			t.Fatalf("slot %d missing", slot)
		}
		if a.Format() != FormatF32x2 {
			t.Errorf("slot %d format = %v", slot, a.Format())
		}
		if !bytes.Equal(a.Data(), uv.Data()) {
			t.Errorf("slot %d data changed", slot)
		}
	}
}

func TestFlipWinding(t *testing.T) {
	cube := NewCubeGeometry("cube", 1)
	cube.FlipWinding()
	_, primary := cube.primary()
	if got := primary.Primitives()[0]; !slices.Equal(got, []uint32{0, 3, 2}) {
		t.Errorf("triangle = %v, want [0 3 2]", got)
	}

	quads := NewGeometry("quads")
	quads.AddIndices(NewIndicesFrom(IndicesQuadrilateral, []uint32{0, 1, 2, 3}))
	quads.AddAttribute(NewAttribute(AttributePosition, FormatF32x3, 4))
	quads.FlipWinding()
	_, primary = quads.primary()
	if got := primary.Values(); !slices.Equal(got, []uint32{0, 3, 2, 1}) {
		t.Errorf("quad = %v, want [0 3 2 1]", got)
	}

	quad := NewQuadGeometry("quad", 2)
	pos := quad.Attribute(AttributePosition, -1)
	c1, c2 := pos.Vec3(1), pos.Vec3(2)
	quad.FlipWinding()
	if pos.Vec3(1) != c2 || pos.Vec3(2) != c1 {
		t.Error("unindexed rows were not swapped")
	}
	quad.CreateNormals(Force, 0, -1)
	if n := quad.Attribute(AttributeNormal, -1).Vec3(0); n != (math.Vec3{Z: -1}) {
		t.Errorf("flipped normal = %v, want -Z", n)
	}

	lines := NewGeometry("lines")
	lines.AddIndices(NewIndicesFrom(IndicesLine, []uint32{0, 1}))
	if lines.FlipWinding() {
		t.Error("lines have no winding")
	}
}

func TestGeometryCompareAndClone(t *testing.T) {
	a := NewCubeGeometry("a", 2)
	b := a.Clone()
	if a.Compare(b, math.Identity(), 0, false) != 0 {
		t.Error("clone differs")
	}
	b.Attribute(AttributePosition, -1).SetVec3(0, math.Vec3{X: 5})
	if a.Compare(b, math.Identity(), 0, false) == 0 {
		t.Error("modified clone compared equal")
	}
	if a.Attribute(AttributePosition, -1).Vec3(0) == (math.Vec3{X: 5}) {
		t.Error("clone shares attribute data")
	}
}

func TestCreateBoundsWithJoints(t *testing.T) {
	g := NewCubeGeometry("cube", 2)
	j := NewJoint("corner")
	j.SetIndices(NewIndicesFrom(IndicesPoint, []uint32{7}))
	g.AddJoint(j)
	if !g.CreateBounds(Force, -1) {
		t.Fatal("CreateBounds failed")
	}
	if box := g.BoundBox(); box.Min != (math.Vec3{X: -1, Y: -1, Z: -1}) || box.Max != (math.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("box = %v", box)
	}
	if s := g.BoundSphere(); !s.Contains(math.Vec3{X: 1, Y: 1, Z: 1}, 1e-4) {
		t.Errorf("sphere = %v", s)
	}
	if box := j.BoundBox(); box.Min != (math.Vec3{X: 1, Y: 1, Z: 1}) || box.Max != box.Min {
		t.Errorf("joint box = %v", box)
	}
}

func TestGeometryValidate(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Geometry
		want  error
	}{
		{"index range", func() *Geometry {
			g := NewCubeGeometry("g", 1)
			g.ReplaceIndices(0, NewIndicesFrom(IndicesTriangle, []uint32{0, 1, 9}))
			return g
		}, ErrIndexRange},
		{"edge range", func() *Geometry {
			g := NewGridGeometry("g", 1, 1, 1)
			g.AddIndices(NewIndicesFrom(IndicesEdge, []uint32{0, 99}))
			return g
		}, ErrIndexRange},
		{"secondary primitive range", func() *Geometry {
			g := NewGridGeometry("g", 1, 1, 1)
			g.AddIndices(NewIndicesFrom(IndicesTriangle, []uint32{0, 1, 77}))
			return g
		}, ErrIndexRange},
		{"material range", func() *Geometry {
			g := NewCubeGeometry("g", 1)
			g.AddIndices(NewUniformIndices(IndicesMaterial, 12, 3))
			return g
		}, ErrMaterialRange},
		{"primitive count", func() *Geometry {
			g := NewCubeGeometry("g", 1)
			g.AddMaterial(NewMaterial("m"))
			g.AddIndices(NewUniformIndices(IndicesMaterial, 5, 0))
			return g
		}, ErrPrimitiveCount},
		{"joint range", func() *Geometry {
			g := NewCubeGeometry("g", 1)
			i := NewIndices(IndicesJoint, FormatU16x4, 8)
			i.Set(0, 2)
			g.AddIndices(i)
			return g
		}, ErrJointRange},
		{"corner count", func() *Geometry {
			g := NewCubeGeometry("g", 1)
			uv := NewAttribute(AttributeTexCoord, FormatF32x2, 1)
			uv.SetIndices(NewIndicesFrom(IndicesTriangle, []uint32{0, 0, 0}))
			g.AddAttribute(uv)
			return g
		}, ErrCornerCount},
		{"cycle", func() *Geometry {
			a, b := NewCubeGeometry("a", 1), NewCubeGeometry("b", 1)
			a.AddChild0(b)
			b.AddChild1(a)
			return a
		}, ErrCycle},
		{"orphan", func() *Geometry {
			a, b := NewCubeGeometry("a", 1), NewCubeGeometry("b", 1)
			b.parents[1] = a
			return b
		}, ErrOrphan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.build().Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	if err := NewCubeGeometry("ok", 1).Validate(); err != nil {
		t.Errorf("valid cube: %v", err)
	}
	grid := NewGridGeometry("edges", 1, 1, 1)
	_, p := grid.primary()
	grid.AddIndices(p.ToType(IndicesEdge, nil))
	if err := grid.Validate(); err != nil {
		t.Errorf("grid with edges: %v", err)
	}
}

func TestOptimizeAttributesShortMaterials(t *testing.T) {
	g := NewGridGeometry("g", 1, 1, 1)
	g.AddMaterial(NewMaterial("m"))
	slot := g.AddIndices(NewIndicesFrom(IndicesMaterial, []uint32{0}))
	before := g.Attribute(AttributePosition, -1).Size()

	if g.OptimizeAttributes(slot) {
		t.Fatal("OptimizeAttributes should reject a material buffer shorter than the primitives")
	}
	if got := g.Attribute(AttributePosition, -1).Size(); got != before {
		t.Errorf("positions changed from %d to %d", before, got)
	}
}

func TestGeometryDAG(t *testing.T) {
	a, b, c := NewGeometry("a"), NewGeometry("b"), NewGeometry("c")
	if !a.AddChild0(b) || a.AddChild0(b) {
		t.Error("a child has one parent per slot")
	}
	if a.AddChild0(a) {
		t.Error("self parenting accepted")
	}
	if !c.AddChild1(b) || b.Parent1() != c || b.Parent0() != a {
		t.Error("second parent not recorded")
	}
	if !a.RemoveChild(b) || b.Parent0() != nil || len(a.Children0()) != 0 {
		t.Error("RemoveChild left a relation")
	}
}

// grayImage is a value type holding a slice, so two of them cannot be
// compared with ==.
type grayImage struct {
	w   int
	pix []uint8
}

func (g grayImage) ColorModel() color.Model { return color.GrayModel }
func (g grayImage) Bounds() image.Rectangle { return image.Rect(0, 0, g.w, len(g.pix)/g.w) }
func (g grayImage) At(x, y int) color.Color { return color.Gray{Y: g.pix[y*g.w+x]} }

func TestParameterCompareImages(t *testing.T) {
	texture := func(img image.Image) *Parameter {
		return &Parameter{Type: "albedo", Flags: ParamImage, Image: img}
	}
	tests := []struct {
		name string
		a, b image.Image
		want int
	}{
		{"both nil", nil, nil, 0},
		{"nil first", nil, grayImage{2, []uint8{1, 2}}, -1},
		{"equal values", grayImage{2, []uint8{1, 2}}, grayImage{2, []uint8{1, 2}}, 0},
		{"darker pixel", grayImage{2, []uint8{1, 2}}, grayImage{2, []uint8{1, 3}}, -1},
		{"narrower", grayImage{1, []uint8{9, 9}}, grayImage{2, []uint8{0, 0}}, -1},
		{"mixed types", image.NewGray(image.Rect(0, 0, 2, 1)), grayImage{2, []uint8{0, 0}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := texture(tt.a).Compare(texture(tt.b)); got != tt.want {
				t.Errorf("Compare = %d, want %d", got, tt.want)
			}
			if got := texture(tt.b).Compare(texture(tt.a)); got != -tt.want {
				t.Errorf("reversed Compare = %d, want %d", got, -tt.want)
			}
		})
	}
}

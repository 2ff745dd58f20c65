package mesh

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/midgard-mesh/pkg/math"
)

func TestNodeHierarchy(t *testing.T) {
	root, child, grand := NewNode("root"), NewNode("child"), NewNode("grand")
	if !root.AddChild(child) || !child.AddChild(grand) {
		t.Fatal("AddChild failed")
	}
	child.SetLocalTransform(math.Translate(0, 2, 0))
	root.SetLocalTransform(math.Translate(1, 0, 0))

	if got := grand.GlobalTransform().Translation(); got != (math.Vec3{X: 1, Y: 2}) {
		t.Errorf("grand global = %v, want (1 2 0)", got)
	}
	if grand.Root() != root || !root.IsAncestorOf(grand) || grand.IsAncestorOf(root) {
		t.Error("ancestry is wrong")
	}
	if grand.AddChild(root) || root.AddChild(root) {
		t.Error("cycle accepted")
	}

	other := NewNode("other")
	other.AddChild(grand)
	if len(child.Children()) != 0 || grand.Parent() != other {
		t.Error("reparenting left the old link")
	}
	if got := grand.GlobalTransform().Translation(); got != (math.Vec3{}) {
		t.Errorf("reparented global = %v", got)
	}

	child.AddChild(grand)
	grand.SetGlobalTransform(math.Translate(5, 5, 5))
	if got := grand.GlobalTransform().Translation(); !nearVec3(got, math.Vec3{X: 5, Y: 5, Z: 5}, 1e-5) {
		t.Errorf("global = %v", got)
	}
	if got := grand.LocalTransform().Translation(); !nearVec3(got, math.Vec3{X: 4, Y: 3, Z: 5}, 1e-5) {
		t.Errorf("local = %v, want (4 3 5)", got)
	}
}

func TestNodeWalk(t *testing.T) {
	root, a, b, c := NewNode("root"), NewNode("a"), NewNode("b"), NewNode("c")
	root.AddChild(a)
	root.AddChild(b)
	a.AddChild(c)

	var names []string
	root.Walk(func(n *Node) bool {
		names = append(names, n.Name())
		return n != a
	})
	if want := []string{"root", "a", "b"}; len(names) != 3 || names[0] != want[0] || names[1] != want[1] || names[2] != want[2] {
		t.Errorf("walk = %v, want %v", names, want)
	}
}

func TestNodeGeometries(t *testing.T) {
	n := NewNode("n")
	a, b := NewGeometry("a"), NewGeometry("b")
	if !n.AddGeometry(a) || n.AddGeometry(a) {
		t.Error("a geometry is listed once")
	}
	n.AddGeometry(b)
	if !n.ReplaceGeometry(a, b) || len(n.Geometries()) != 1 || n.Geometries()[0] != b {
		t.Errorf("replace onto listed geometry = %d entries", len(n.Geometries()))
	}
	if n.RemoveGeometry(a) || !n.RemoveGeometry(b) {
		t.Error("RemoveGeometry")
	}
}

func TestJointSkinTransform(t *testing.T) {
	n := NewNode("bone")
	n.SetLocalTransform(math.Translate(1, 0, 0))
	j := NewJoint("bone")
	j.SetITransform(math.Translate(-1, 0, 0))
	if got := j.SkinTransform(); !got.ApproxEqual(math.Translate(-1, 0, 0), 0) {
		t.Errorf("unbound skin = %v", got)
	}
	j.SetNode(n)
	if got := j.SkinTransform(); !got.ApproxEqual(math.Identity(), 1e-6) {
		t.Errorf("skin = %v, want identity", got)
	}
}

func TestAttachments(t *testing.T) {
	n := NewNode("camera")
	n.SetLocalTransform(math.Translate(0, 0, 5))
	cam := NewAttachment(CameraPerspective, "main")
	cam.SetTransform(math.Translate(1, 0, 0))
	if !n.AddAttachment(cam) || NewNode("x").AddAttachment(cam) {
		t.Error("an attachment binds to one node")
	}
	if got := cam.GlobalTransform().Translation(); got != (math.Vec3{X: 1, Z: 5}) {
		t.Errorf("global = %v", got)
	}
	if !cam.IsCamera() || cam.IsLight() {
		t.Error("camera kind")
	}
	if !n.RemoveAttachment(cam) || cam.Node() != nil {
		t.Error("RemoveAttachment")
	}

	light := NewAttachment(LightSpot, "spot")
	light.SetScalar(LightAngle, 30)
	if !light.IsLight() || light.Scalar(LightAngle, 0) != 30 {
		t.Error("light parameters")
	}
}

func TestAttachmentProjection(t *testing.T) {
	persp := NewAttachment(CameraPerspective, "p")
	persp.SetScalar(CameraFov, 90)
	ortho := NewAttachment(CameraOrthographic, "o")
	bad := NewAttachment(CameraPerspective, "bad")
	bad.SetScalar(CameraNear, 10)
	bad.SetScalar(CameraFar, 1)

	tests := []struct {
		name   string
		a      *Attachment
		aspect float32
		ok     bool
		m0, m5 float32
	}{
		{"perspective", persp, 1, true, 1, 1},
		{"perspective wide", persp, 2, true, 0.5, 1},
		{"orthographic", ortho, 2, true, 0.5, 1},
		{"zero aspect", persp, 0, false, 0, 0},
		{"inverted clip", bad, 1, false, 0, 0},
		{"light", NewAttachment(LightPoint, "l"), 1, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := tt.a.Projection(tt.aspect)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && (!near(m[0], tt.m0, 1e-5) || !near(m[5], tt.m5, 1e-5)) {
				t.Errorf("scale = %v %v, want %v %v", m[0], m[5], tt.m0, tt.m5)
			}
		})
	}
}

func TestTransformSampling(t *testing.T) {
	var tr Transform
	tr.SetTranslate(2, math.Vec3{X: 10})
	tr.SetTranslate(0, math.Vec3{})
	tr.SetTranslate(2, math.Vec3{X: 20})
	if len(tr.Translate()) != 2 || tr.Translate()[0].Time != 0 {
		t.Fatalf("keys = %v", tr.Translate())
	}

	tests := []struct {
		time float32
		want math.Vec3
	}{
		{-1, math.Vec3{}},
		{0, math.Vec3{}},
		{1, math.Vec3{X: 10}},
		{2, math.Vec3{X: 20}},
		{3, math.Vec3{X: 20}},
	}
	for _, tt := range tests {
		if got := tr.TranslateAt(tt.time); got != tt.want {
			t.Errorf("TranslateAt(%v) = %v, want %v", tt.time, got, tt.want)
		}
	}
	if got := tr.ScaleAt(1); got != (math.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("default scale = %v", got)
	}

	tr.SetRotate(0, math.QuatIdentity())
	tr.SetRotate(1, math.QuatFromAxisAngle(math.Vec3{Z: 1}, gomath.Pi/2))
	half := math.QuatFromAxisAngle(math.Vec3{Z: 1}, gomath.Pi/4)
	if d := tr.RotateAt(0.5).Dot(half); !near(d, 1, 1e-5) {
		t.Errorf("slerp halfway dot = %v", d)
	}
	if lo, hi, ok := tr.TimeRange(); !ok || lo != 0 || hi != 2 {
		t.Errorf("TimeRange = %v %v %v", lo, hi, ok)
	}
}

func TestTransformCompress(t *testing.T) {
	var tr Transform
	for k := range 5 {
		tr.SetTranslate(float32(k), math.Vec3{X: float32(k) * 2})
		tr.SetScale(float32(k), math.Vec3{X: 1, Y: 1, Z: 1})
	}
	tr.SetMorph(0, math.Vec4{})
	tr.SetMorph(1, math.Vec4{1})
	tr.SetMorph(2, math.Vec4{})

	// linear translation keeps its ends, constant scale keeps one key,
	// and the morph peak survives
	if removed := tr.Compress(1e-4); removed != 7 {
		t.Errorf("removed = %d, want 7", removed)
	}
	if len(tr.Translate()) != 2 || len(tr.Scale()) != 1 || len(tr.Morph()) != 3 {
		t.Errorf("keys = %d %d %d", len(tr.Translate()), len(tr.Scale()), len(tr.Morph()))
	}
	if got := tr.TranslateAt(1.5); !nearVec3(got, math.Vec3{X: 3}, 1e-5) {
		t.Errorf("compressed sample = %v", got)
	}
}

func TestAnimationTime(t *testing.T) {
	a := NewAnimation("walk")
	a.Transform(0).SetTranslate(0, math.Vec3{})
	a.Transform(2).SetTranslate(2, math.Vec3{})

	tests := []struct {
		loop bool
		in   float32
		want float32
	}{
		{false, 3, 2},
		{false, -1, 0},
		{false, 1.5, 1.5},
		{true, 3, 1},
		{true, -0.5, 1.5},
		{true, 4.5, 0.5},
	}
	for _, tt := range tests {
		a.SetLoop(tt.loop)
		if got := a.Time(tt.in); !near(got, tt.want, 1e-5) {
			t.Errorf("loop %v: Time(%v) = %v, want %v", tt.loop, tt.in, got, tt.want)
		}
	}
	if len(a.Transforms()) != 3 || a.Transforms()[1] != nil {
		t.Errorf("tracks = %v", a.Transforms())
	}
}

func TestAnimationApply(t *testing.T) {
	m := NewMesh("scene")
	root, arm := NewNode("root"), NewNode("arm")
	root.AddChild(arm)
	m.AddNode(root)
	m.AddNode(arm)
	arm.SetPivotTransform(math.Translate(1, 0, 0))

	a := NewAnimation("move")
	if a.Apply(0) {
		t.Error("Apply without a mesh should fail")
	}
	m.AddAnimation(a)
	tr := a.Transform(0)
	tr.SetTranslate(0, math.Vec3{})
	tr.SetTranslate(2, math.Vec3{X: 10})
	tr.SetMorph(0, math.Vec4{})
	tr.SetMorph(2, math.Vec4{1, 0.5})
	a.Transform(1).SetRotate(0, math.QuatFromAxisAngle(math.Vec3{Z: 1}, gomath.Pi))

	if !a.Apply(1) {
		t.Fatal("Apply failed")
	}
	if got := root.LocalTransform().Translation(); got != (math.Vec3{X: 5}) {
		t.Errorf("root translation = %v", got)
	}
	if got := root.MorphTransform(); got != (math.Vec4{0.5, 0.25}) {
		t.Errorf("morph = %v", got)
	}
	// rotating half a turn around the pivot at x=1 moves the origin to x=2
	if got := arm.LocalTransform().TransformVec3(math.Vec3{}); !nearVec3(got, math.Vec3{X: 2}, 1e-5) {
		t.Errorf("pivoted origin = %v", got)
	}
	if got := arm.GlobalTransform().Translation(); !nearVec3(got, math.Vec3{X: 7}, 1e-5) {
		t.Errorf("arm global = %v", got)
	}
}

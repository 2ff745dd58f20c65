package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/Faultbox/midgard-mesh/internal/config"
	"github.com/Faultbox/midgard-mesh/pkg/math"
	"github.com/Faultbox/midgard-mesh/pkg/mesh"
)

func TestBuildScene(t *testing.T) {
	m, err := BuildScene(config.SceneConfig{
		Name: "yard",
		Shapes: []config.ShapeConfig{
			{Name: "crate", Kind: "cube", Size: 1, Translate: [3]float32{1, 2, 3}},
			{Name: "crate", Kind: "cube", Size: 1, Scale: [3]float32{2, 0, 0}},
			{Kind: "strip", Size: 0.5},
		},
	})
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	if len(m.Nodes()) != 4 || len(m.Geometries()) != 2 {
		t.Fatalf("nodes/geometries = %d/%d, want 4/2", len(m.Nodes()), len(m.Geometries()))
	}
	if m.Root() == nil || m.Root().Name() != "yard" {
		t.Error("expected a single root named after the scene")
	}

	first, second := m.Nodes()[1], m.Nodes()[2]
	if first.Geometries()[0] != second.Geometries()[0] {
		t.Error("shapes with one name should share a geometry")
	}
	if got := first.GlobalTransform().Translation(); got != (math.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("translation = %v", got)
	}
	if got := second.LocalTransform().TransformVec3(math.Vec3{X: 1, Y: 1, Z: 1}); got != (math.Vec3{X: 2, Y: 1, Z: 1}) {
		t.Errorf("scale maps (1 1 1) to %v", got)
	}
	strip := m.Geometry("strip2")
	if strip == nil || strip.NumPrimitives() != 1 {
		t.Error("an unnamed strip without count should have one triangle")
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestBuildSceneUnknownKind(t *testing.T) {
	_, err := BuildScene(config.SceneConfig{
		Shapes: []config.ShapeConfig{{Name: "knot", Kind: "torus", Size: 1}},
	})
	if !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}
}

func findStep(rep *Report, name string) (Step, bool) {
	for _, s := range rep.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

func TestRunInline(t *testing.T) {
	cfg := config.Default()
	m, err := BuildScene(cfg.Scene)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}

	rep, err := NewRunner(cfg.Pipeline, nil, nil).Run(context.Background(), m)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, name := range []string{"normals", "attributes", "indices", "order", "bounds"} {
		if s, ok := findStep(rep, name); !ok || !s.OK {
			t.Errorf("step %s = %+v", name, s)
		}
	}
	// the cube has no texture coordinates
	if s, ok := findStep(rep, "tangents"); !ok || s.OK {
		t.Errorf("tangents = %+v, want a recorded failure", s)
	}
	if _, ok := findStep(rep, "islands"); ok {
		t.Error("islands are disabled by default")
	}

	if rep.Before.Geometries != 2 || rep.After.Geometries != 2 {
		t.Errorf("geometries %d -> %d", rep.Before.Geometries, rep.After.Geometries)
	}
	for _, g := range rep.Geometries {
		if !g.Optimized || g.ACMR <= 0 || g.Placements != 1 {
			t.Errorf("geometry report %+v", g)
		}
	}

	ground := m.Geometry("ground")
	if ground.Attribute(mesh.AttributeNormal, -1) == nil || ground.Attribute(mesh.AttributeTangent, -1) == nil {
		t.Error("ground should carry normals and tangents")
	}
	if box := m.BoundBox(); !box.Valid() {
		t.Error("bounds were not computed")
	}
}

func TestRunWorkers(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.IslandAttributes = 16
	cfg.Pipeline.IslandPrimitives = 8
	cfg.Scene.Shapes = []config.ShapeConfig{
		{Name: "a", Kind: "cube", Size: 1},
		{Name: "b", Kind: "cube", Size: 1, Translate: [3]float32{3, 0, 0}},
		{Name: "a", Kind: "cube", Size: 1, Scale: [3]float32{-1, 1, 1}},
		{Name: "floor", Kind: "grid", Size: 1, Count: 4},
	}
	m, err := BuildScene(cfg.Scene)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}

	rep, err := NewRunner(cfg.Pipeline, mesh.NewWorkerExecutor(2), nil).Run(context.Background(), m)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s, _ := findStep(rep, "tangents"); s.Failed != 2 {
		t.Errorf("tangents failed on %d geometries, want both cubes", s.Failed)
	}
	if s, ok := findStep(rep, "islands"); !ok || !s.OK {
		t.Errorf("islands = %+v", s)
	}

	// b duplicates a, and the mirrored placement gets its own copy
	placements := make(map[string]int)
	for _, g := range rep.Geometries {
		placements[g.Name] = g.Placements
	}
	want := map[string]int{"a": 2, "a.mirrored": 1, "floor": 1}
	if len(placements) != len(want) {
		t.Fatalf("geometries = %v, want %v", placements, want)
	}
	for name, n := range want {
		if placements[name] != n {
			t.Errorf("%s placed %d times, want %d", name, placements[name], n)
		}
	}
	if m.Geometry("floor").FindIndices(mesh.IndicesIsland) < 0 {
		t.Error("floor has no islands")
	}
}

func TestRunCancelled(t *testing.T) {
	m, err := BuildScene(config.Default().Scene)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := NewRunner(config.Default().Pipeline, mesh.NewWorkerExecutor(2), nil).Run(ctx, m)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(rep.Steps) != 0 {
		t.Errorf("steps ran after cancellation: %+v", rep.Steps)
	}
	if m.Geometries()[0].Attribute(mesh.AttributeNormal, -1) != nil {
		t.Error("normals were created after cancellation")
	}
}

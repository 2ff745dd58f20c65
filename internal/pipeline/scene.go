// Package pipeline builds procedural scenes and runs the derive and
// optimize passes configured for meshtool.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-mesh/internal/config"
	"github.com/Faultbox/midgard-mesh/pkg/math"
	"github.com/Faultbox/midgard-mesh/pkg/mesh"
)

// ErrShape reports a shape that cannot be generated.
var ErrShape = errors.New("cannot build shape")

// BuildScene creates a mesh with one root node and one child node per
// shape. Shapes with equal names share a geometry, so one geometry may be
// placed several times.
func BuildScene(cfg config.SceneConfig) (*mesh.Mesh, error) {
	m := mesh.NewMesh(cfg.Name)
	root := mesh.NewNode(cfg.Name)
	m.AddNode(root)

	shared := make(map[string]*mesh.Geometry)
	for i, s := range cfg.Shapes {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("%s%d", s.Kind, i)
		}
		g, ok := shared[name]
		if !ok {
			var err error
			if g, err = buildShape(name, s); err != nil {
				return nil, err
			}
			shared[name] = g
			m.AddGeometry(g)
		}

		n := mesh.NewNode(fmt.Sprintf("%s.%d", name, i))
		root.AddChild(n)
		n.SetLocalTransform(placement(s))
		n.AddGeometry(g)
		m.AddNode(n)
	}
	return m, nil
}

func buildShape(name string, s config.ShapeConfig) (*mesh.Geometry, error) {
	count := max(s.Count, 1)
	var g *mesh.Geometry
	switch s.Kind {
	case "quad":
		g = mesh.NewQuadGeometry(name, s.Size)
	case "cube":
		g = mesh.NewCubeGeometry(name, s.Size)
	case "strip":
		g = mesh.NewStripGeometry(name, count, s.Size)
	case "grid":
		g = mesh.NewGridGeometry(name, count, count, s.Size)
	}
	if g == nil {
		return nil, fmt.Errorf("%w %q: kind %q", ErrShape, name, s.Kind)
	}
	return g, nil
}

// placement composes the node transform; zero scale components mean 1.
func placement(s config.ShapeConfig) math.Mat4 {
	scale := s.Scale
	for i, v := range scale {
		if v == 0 {
			scale[i] = 1
		}
	}
	return math.Compose(math.Vec3FromArray(s.Translate), math.QuatIdentity(), math.Vec3FromArray(scale))
}

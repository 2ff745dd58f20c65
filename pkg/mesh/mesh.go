package mesh

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mesh/pkg/math"
)

// Axis is a signed coordinate axis.
type Axis uint8

const (
	AxisX Axis = iota
	AxisNX
	AxisY
	AxisNY
	AxisZ
	AxisNZ
)

// Vec3 returns the unit vector of the axis.
func (a Axis) Vec3() math.Vec3 {
	v := math.Vec3{}
	switch a {
	case AxisX:
		v.X = 1
	case AxisNX:
		v.X = -1
	case AxisY:
		v.Y = 1
	case AxisNY:
		v.Y = -1
	case AxisZ:
		v.Z = 1
	case AxisNZ:
		v.Z = -1
	}
	return v
}

// Basis names the axes an asset treats as front, right and up.
type Basis struct {
	Front, Right, Up Axis
}

// DefaultBasis is right-handed Y-up with the front facing -Z.
var DefaultBasis = Basis{Front: AxisNZ, Right: AxisX, Up: AxisY}

// Valid reports whether the three axes are mutually orthogonal.
func (b Basis) Valid() bool {
	f, r, u := b.Front/2, b.Right/2, b.Up/2
	return f != r && r != u && f != u && b.Up <= AxisNZ && b.Front <= AxisNZ && b.Right <= AxisNZ
}

// Matrix returns the rotation taking b's axes onto DefaultBasis.
func (b Basis) Matrix() math.Mat4 {
	// rows are the source axes expressed in the default frame
	r, u, f := b.Right.Vec3(), b.Up.Vec3(), b.Front.Vec3().Neg()
	return math.Mat4{
		r.X, u.X, f.X, 0,
		r.Y, u.Y, f.Y, 0,
		r.Z, u.Z, f.Z, 0,
		0, 0, 0, 1,
	}
}

// Mesh owns every node, geometry and animation of one asset.
type Mesh struct {
	name       string
	basis      Basis
	nodes      []*Node
	geometries []*Geometry
	animations []*Animation
	log        *zap.Logger
}

// NewMesh creates an empty mesh with the default basis and a no-op logger.
func NewMesh(name string) *Mesh {
	return &Mesh{name: name, basis: DefaultBasis, log: zap.NewNop()}
}

// SetLogger sets the logger for whole-mesh operations.
func (m *Mesh) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	m.log = log
}

// Name returns the mesh name.
func (m *Mesh) Name() string { return m.name }

// SetName renames the mesh.
func (m *Mesh) SetName(name string) { m.name = name }

// Basis returns the axis convention.
func (m *Mesh) Basis() Basis { return m.basis }

// SetBasis sets the axis convention.
func (m *Mesh) SetBasis(b Basis) bool {
	if !b.Valid() {
		return false
	}
	m.basis = b
	return true
}

// Nodes returns the nodes in mesh order. Animation tracks are indexed by
// this order.
func (m *Mesh) Nodes() []*Node { return m.nodes }

// AddNode adds a node and returns its index.
func (m *Mesh) AddNode(n *Node) int {
	if n.mesh != nil && n.mesh != m {
		return -1
	}
	if i := slices.Index(m.nodes, n); i >= 0 {
		return i
	}
	n.mesh = m
	m.nodes = append(m.nodes, n)
	return len(m.nodes) - 1
}

// FindNode returns the index of the named node, or -1.
func (m *Mesh) FindNode(name string) int {
	return slices.IndexFunc(m.nodes, func(n *Node) bool { return n.name == name })
}

// Node returns the named node, or nil.
func (m *Mesh) Node(name string) *Node {
	if i := m.FindNode(name); i >= 0 {
		return m.nodes[i]
	}
	return nil
}

// RemoveNode removes n and its animation tracks. Children and parents are
// not relinked.
func (m *Mesh) RemoveNode(n *Node) bool {
	i := slices.Index(m.nodes, n)
	if i < 0 {
		return false
	}
	m.nodes = slices.Delete(m.nodes, i, i+1)
	for _, a := range m.animations {
		a.removeNode(i)
	}
	n.mesh = nil
	return true
}

// Root returns the single root node, or nil when there is none or several.
func (m *Mesh) Root() *Node {
	var root *Node
	for _, n := range m.nodes {
		if n.parent == nil {
			if root != nil {
				return nil
			}
			root = n
		}
	}
	return root
}

// Geometries returns the geometries in mesh order.
func (m *Mesh) Geometries() []*Geometry { return m.geometries }

// AddGeometry adds a geometry and returns its index.
func (m *Mesh) AddGeometry(g *Geometry) int {
	if g.mesh != nil && g.mesh != m {
		return -1
	}
	if i := slices.Index(m.geometries, g); i >= 0 {
		return i
	}
	g.mesh = m
	m.geometries = append(m.geometries, g)
	return len(m.geometries) - 1
}

// FindGeometry returns the index of the named geometry, or -1.
func (m *Mesh) FindGeometry(name string) int {
	return slices.IndexFunc(m.geometries, func(g *Geometry) bool { return g.name == name })
}

// Geometry returns the named geometry, or nil.
func (m *Mesh) Geometry(name string) *Geometry {
	if i := m.FindGeometry(name); i >= 0 {
		return m.geometries[i]
	}
	return nil
}

// RemoveGeometry removes g. Node references are left alone.
func (m *Mesh) RemoveGeometry(g *Geometry) bool {
	i := slices.Index(m.geometries, g)
	if i < 0 {
		return false
	}
	m.geometries = slices.Delete(m.geometries, i, i+1)
	g.mesh = nil
	return true
}

// ReplaceGeometry repoints every node referencing old to g.
func (m *Mesh) ReplaceGeometry(old, g *Geometry) int {
	count := 0
	for _, n := range m.nodes {
		if n.ReplaceGeometry(old, g) {
			count++
		}
	}
	return count
}

// referenceCount returns how many nodes list g.
func (m *Mesh) referenceCount(g *Geometry) int {
	count := 0
	for _, n := range m.nodes {
		if slices.Contains(n.geometries, g) {
			count++
		}
	}
	return count
}

// Animations returns the animation clips.
func (m *Mesh) Animations() []*Animation { return m.animations }

// AddAnimation adds a clip and returns its index.
func (m *Mesh) AddAnimation(a *Animation) int {
	if a.mesh != nil && a.mesh != m {
		return -1
	}
	a.mesh = m
	m.animations = append(m.animations, a)
	return len(m.animations) - 1
}

// FindAnimation returns the index of the named clip, or -1.
func (m *Mesh) FindAnimation(name string) int {
	return slices.IndexFunc(m.animations, func(a *Animation) bool { return a.name == name })
}

// RemoveAnimation removes a clip.
func (m *Mesh) RemoveAnimation(a *Animation) bool {
	i := slices.Index(m.animations, a)
	if i < 0 {
		return false
	}
	m.animations = slices.Delete(m.animations, i, i+1)
	a.mesh = nil
	return true
}

// BoundBox returns the world-space box of every placed geometry, using
// cached geometry bounds.
func (m *Mesh) BoundBox() math.BoundBox {
	box := math.EmptyBoundBox()
	for _, n := range m.nodes {
		for _, g := range n.geometries {
			if g.boundBox.Valid() {
				box = box.Union(g.boundBox.Transform(n.global.Mul(g.transform)))
			}
		}
	}
	return box
}

// BoundSphere returns the world-space sphere of every placed geometry.
func (m *Mesh) BoundSphere() math.BoundSphere {
	sphere := math.EmptyBoundSphere()
	for _, n := range m.nodes {
		for _, g := range n.geometries {
			if g.boundSphere.Valid() {
				sphere = sphere.Union(g.boundSphere.Transform(n.global.Mul(g.transform)))
			}
		}
	}
	return sphere
}

// Validate checks the node tree, cross references and every geometry.
func (m *Mesh) Validate() error {
	var errs []error
	roots := 0
	for _, n := range m.nodes {
		if n.mesh != m {
			errs = append(errs, fmt.Errorf("%w: node %q is owned by another mesh", ErrOrphan, n.name))
		}
		if n.parent == nil {
			roots++
		} else if !slices.Contains(m.nodes, n.parent) {
			errs = append(errs, fmt.Errorf("%w: parent of node %q is not in the mesh", ErrOrphan, n.name))
		}
		for _, g := range n.geometries {
			if g.mesh != m {
				errs = append(errs, fmt.Errorf("%w: node %q references geometry %q outside the mesh", ErrOrphan, n.name, g.name))
			}
		}
	}
	if len(m.nodes) > 0 && roots != 1 {
		errs = append(errs, fmt.Errorf("%w: found %d", ErrRootCount, roots))
	}
	for _, g := range m.geometries {
		if err := g.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("geometry %q: %w", g.name, err))
		}
	}
	for _, a := range m.animations {
		if len(a.transforms) > len(m.nodes) {
			errs = append(errs, fmt.Errorf("%w: animation %q has %d tracks for %d nodes",
				ErrOrphan, a.name, len(a.transforms), len(m.nodes)))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		m.log.Warn("mesh validation failed", zap.String("mesh", m.name), zap.Int("problems", len(errs)))
	}
	return err
}

// forEachGeometry runs fn over every geometry, inline when async is nil.
// Inline runs report whether every call succeeded; asynchronous runs
// report submission and leave results to Async.Wait.
func (m *Mesh) forEachGeometry(op string, async *Async, fn func(*Geometry) bool) bool {
	if async == nil {
		ok := true
		for _, g := range m.geometries {
			r := fn(g)
			m.log.Debug(op, zap.String("geometry", g.name), zap.Bool("ok", r))
			ok = ok && r
		}
		return ok
	}
	for i, g := range m.geometries {
		async.run(i, func() bool {
			r := fn(g)
			m.log.Debug(op, zap.String("geometry", g.name), zap.Bool("ok", r))
			return r
		})
	}
	return true
}

// CreateBounds runs Geometry.CreateBounds on every geometry.
func (m *Mesh) CreateBounds(mode Recompute, position int, async *Async) bool {
	return m.forEachGeometry("create bounds", async, func(g *Geometry) bool {
		return g.CreateBounds(mode, position)
	})
}

// CreateNormals runs Geometry.CreateNormals on every geometry.
func (m *Mesh) CreateNormals(mode Recompute, angle float32, position int, async *Async) bool {
	return m.forEachGeometry("create normals", async, func(g *Geometry) bool {
		return g.CreateNormals(mode, angle, position)
	})
}

// CreateTangents runs Geometry.CreateTangents on every geometry.
func (m *Mesh) CreateTangents(mode Recompute, position, normal, texcoord int, async *Async) bool {
	return m.forEachGeometry("create tangents", async, func(g *Geometry) bool {
		return g.CreateTangents(mode, position, normal, texcoord)
	})
}

// CreateBasis runs Geometry.CreateBasis on every geometry.
func (m *Mesh) CreateBasis(mode Recompute, angle float32, position, normal, tangent int, async *Async) bool {
	return m.forEachGeometry("create basis", async, func(g *Geometry) bool {
		return g.CreateBasis(mode, angle, position, normal, tangent) != NotCreated
	})
}

// CreateIslands runs Geometry.CreateIslands on every geometry.
func (m *Mesh) CreateIslands(maxAttributes, maxPrimitives int, mode Recompute, indexSlot, position int, async *Async) bool {
	return m.forEachGeometry("create islands", async, func(g *Geometry) bool {
		return g.CreateIslands(maxAttributes, maxPrimitives, mode, indexSlot, position)
	})
}

// OptimizeIndices runs Geometry.OptimizeIndices on every geometry.
func (m *Mesh) OptimizeIndices(cache int, transparent bool, indexSlot, position int, async *Async) bool {
	return m.forEachGeometry("optimize indices", async, func(g *Geometry) bool {
		return g.OptimizeIndices(cache, transparent, indexSlot, position)
	})
}

// OptimizeAttributes runs Geometry.OptimizeAttributes on every geometry.
func (m *Mesh) OptimizeAttributes(materialSlot int, async *Async) bool {
	return m.forEachGeometry("optimize attributes", async, func(g *Geometry) bool {
		return g.OptimizeAttributes(materialSlot)
	})
}

// OptimizeMaterials runs Geometry.OptimizeMaterials on every geometry.
func (m *Mesh) OptimizeMaterials() bool {
	return m.forEachGeometry("optimize materials", nil, (*Geometry).OptimizeMaterials)
}

// PackAttributes runs Geometry.PackAttributes on every geometry and reports
// whether any geometry was packed.
func (m *Mesh) PackAttributes(remove bool) bool {
	packed := false
	for _, g := range m.geometries {
		packed = g.PackAttributes(remove) || packed
	}
	return packed
}

// UnpackAttributes runs Geometry.UnpackAttributes on every geometry and
// reports whether any geometry was unpacked.
func (m *Mesh) UnpackAttributes(remove bool) bool {
	unpacked := false
	for _, g := range m.geometries {
		unpacked = g.UnpackAttributes(remove) || unpacked
	}
	return unpacked
}

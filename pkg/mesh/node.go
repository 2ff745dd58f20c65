package mesh

import (
	"slices"

	"github.com/Faultbox/midgard-mesh/pkg/math"
)

// Node is an element of the scene tree. It references geometries and
// attachments and caches its global transform.
type Node struct {
	name string
	mesh *Mesh

	parent   *Node
	children []*Node

	geometries  []*Geometry
	attachments []*Attachment

	local  math.Mat4
	global math.Mat4
	pivot  math.Mat4
	morph  math.Vec4
}

// NewNode creates a detached node with identity transforms.
func NewNode(name string) *Node {
	return &Node{
		name:   name,
		local:  math.Identity(),
		global: math.Identity(),
		pivot:  math.Identity(),
	}
}

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// SetName renames the node.
func (n *Node) SetName(name string) { n.name = name }

// Mesh returns the owning mesh.
func (n *Node) Mesh() *Mesh { return n.mesh }

// Parent returns the parent node, nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes.
func (n *Node) Children() []*Node { return n.children }

// Root returns the topmost ancestor.
func (n *Node) Root() *Node {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// IsAncestorOf reports whether n is a strict ancestor of other.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// AddChild attaches child under n, detaching it from its previous parent.
// The child keeps its local transform. It fails if the link would create a
// cycle.
func (n *Node) AddChild(child *Node) bool {
	if child == nil || child == n || child.IsAncestorOf(n) {
		return false
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = n
	n.children = append(n.children, child)
	child.updateGlobal()
	return true
}

// RemoveChild detaches child, which becomes a root.
func (n *Node) RemoveChild(child *Node) bool {
	i := slices.Index(n.children, child)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
	child.updateGlobal()
	return true
}

// Walk visits n and its descendants depth first, parents before children.
// Returning false from fn skips the subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Geometries returns the referenced geometries.
func (n *Node) Geometries() []*Geometry { return n.geometries }

// AddGeometry references g. A geometry is listed at most once.
func (n *Node) AddGeometry(g *Geometry) bool {
	if g == nil || slices.Contains(n.geometries, g) {
		return false
	}
	n.geometries = append(n.geometries, g)
	return true
}

// RemoveGeometry drops the reference to g.
func (n *Node) RemoveGeometry(g *Geometry) bool {
	i := slices.Index(n.geometries, g)
	if i < 0 {
		return false
	}
	n.geometries = slices.Delete(n.geometries, i, i+1)
	return true
}

// ReplaceGeometry swaps old for g. If g is already listed, old is dropped.
func (n *Node) ReplaceGeometry(old, g *Geometry) bool {
	i := slices.Index(n.geometries, old)
	if i < 0 {
		return false
	}
	if slices.Contains(n.geometries, g) {
		n.geometries = slices.Delete(n.geometries, i, i+1)
		return true
	}
	n.geometries[i] = g
	return true
}

// Attachments returns the attached lights and cameras.
func (n *Node) Attachments() []*Attachment { return n.attachments }

// AddAttachment binds a to n.
func (n *Node) AddAttachment(a *Attachment) bool {
	if a == nil || a.node != nil {
		return false
	}
	a.node = n
	n.attachments = append(n.attachments, a)
	return true
}

// RemoveAttachment unbinds a.
func (n *Node) RemoveAttachment(a *Attachment) bool {
	i := slices.Index(n.attachments, a)
	if i < 0 {
		return false
	}
	n.attachments = slices.Delete(n.attachments, i, i+1)
	a.node = nil
	return true
}

// LocalTransform returns the transform relative to the parent.
func (n *Node) LocalTransform() math.Mat4 { return n.local }

// SetLocalTransform sets the transform relative to the parent and updates
// the global transforms of the subtree.
func (n *Node) SetLocalTransform(m math.Mat4) {
	n.local = m
	n.updateGlobal()
}

// GlobalTransform returns the accumulated transform.
func (n *Node) GlobalTransform() math.Mat4 { return n.global }

// SetGlobalTransform sets the accumulated transform, deriving the local one
// from the parent.
func (n *Node) SetGlobalTransform(m math.Mat4) {
	if n.parent == nil {
		n.local = m
	} else {
		n.local = n.parent.global.Inverse().Mul(m)
	}
	n.updateGlobal()
}

// PivotTransform returns the frame animated rotations and scales apply in.
func (n *Node) PivotTransform() math.Mat4 { return n.pivot }

// SetPivotTransform sets the animation pivot frame.
func (n *Node) SetPivotTransform(m math.Mat4) { n.pivot = m }

// MorphTransform returns the morph target weights.
func (n *Node) MorphTransform() math.Vec4 { return n.morph }

// SetMorphTransform sets the morph target weights.
func (n *Node) SetMorphTransform(w math.Vec4) { n.morph = w }

func (n *Node) updateGlobal() {
	if n.parent == nil {
		n.global = n.local
	} else {
		n.global = n.parent.global.Mul(n.local)
	}
	for _, c := range n.children {
		c.updateGlobal()
	}
}

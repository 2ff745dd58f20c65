package mesh

import "github.com/Faultbox/midgard-mesh/pkg/math"

// Joint binds a skeleton node to a geometry's skinned vertices.
type Joint struct {
	name        string
	node        *Node
	indices     *Indices
	itransform  math.Mat4
	boundBox    math.BoundBox
	boundSphere math.BoundSphere
	geometry    *Geometry
}

// NewJoint creates a joint with an identity inverse bind transform.
func NewJoint(name string) *Joint {
	return &Joint{
		name:        name,
		itransform:  math.Identity(),
		boundBox:    math.EmptyBoundBox(),
		boundSphere: math.EmptyBoundSphere(),
	}
}

// Name returns the joint name.
func (j *Joint) Name() string { return j.name }

// Node returns the bound skeleton node.
func (j *Joint) Node() *Node { return j.node }

// SetNode binds the joint to a node.
func (j *Joint) SetNode(node *Node) { j.node = node }

// Geometry returns the owning geometry.
func (j *Joint) Geometry() *Geometry { return j.geometry }

// Indices returns the vertex indices influenced by the joint.
func (j *Joint) Indices() *Indices { return j.indices }

// SetIndices sets the influenced vertex indices.
func (j *Joint) SetIndices(indices *Indices) { j.indices = indices }

// ITransform returns the inverse bind transform.
func (j *Joint) ITransform() math.Mat4 { return j.itransform }

// SetITransform sets the inverse bind transform.
func (j *Joint) SetITransform(m math.Mat4) { j.itransform = m }

// BoundBox returns the bind-space box of influenced vertices.
func (j *Joint) BoundBox() math.BoundBox { return j.boundBox }

// BoundSphere returns the bind-space sphere of influenced vertices.
func (j *Joint) BoundSphere() math.BoundSphere { return j.boundSphere }

// SetBounds sets the joint bounds.
func (j *Joint) SetBounds(box math.BoundBox, sphere math.BoundSphere) {
	j.boundBox = box
	j.boundSphere = sphere
}

// SkinTransform returns the joint's current skinning matrix: the node's
// global transform times the inverse bind transform.
func (j *Joint) SkinTransform() math.Mat4 {
	if j.node == nil {
		return j.itransform
	}
	return j.node.GlobalTransform().Mul(j.itransform)
}

// createBounds computes joint bounds from the influenced positions, in the
// joint's bind space.
func (j *Joint) createBounds(position *Attribute) {
	if j.indices == nil || position == nil {
		return
	}
	var points []math.Vec3
	for k := 0; k < j.indices.Len(); k++ {
		v := int(j.indices.At(k))
		if v < position.Size() {
			points = append(points, j.itransform.TransformVec3(position.Vec3(v)))
		}
	}
	j.boundBox = math.NewBoundBox(points)
	j.boundSphere = math.NewBoundSphere(points)
}

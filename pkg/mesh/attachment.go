package mesh

import (
	gomath "math"

	"github.com/Faultbox/midgard-mesh/pkg/math"
)

// AttachmentType is the kind of light or camera.
type AttachmentType uint8

const (
	LightGlobal AttachmentType = iota
	LightPoint
	LightSpot
	LightImage
	CameraPerspective
	CameraOrthographic
)

func (t AttachmentType) String() string {
	switch t {
	case LightGlobal:
		return "light_global"
	case LightPoint:
		return "light_point"
	case LightSpot:
		return "light_spot"
	case LightImage:
		return "light_image"
	case CameraPerspective:
		return "camera_perspective"
	case CameraOrthographic:
		return "camera_orthographic"
	default:
		return "unknown"
	}
}

// Well-known attachment parameters.
const (
	CameraFov      = "fov"    // vertical field of view, degrees
	CameraNear     = "near"   // near clip distance
	CameraFar      = "far"    // far clip distance
	CameraHeight   = "height" // orthographic view height
	LightColor     = "color"
	LightIntensity = "intensity"
	LightRadius    = "radius"
	LightAngle     = "angle" // spot cone angle, degrees
)

// Attachment is a light or camera bound to a node.
type Attachment struct {
	Params

	typ       AttachmentType
	name      string
	node      *Node
	transform math.Mat4
}

// NewAttachment creates an unbound attachment.
func NewAttachment(t AttachmentType, name string) *Attachment {
	return &Attachment{typ: t, name: name, transform: math.Identity()}
}

// Type returns the attachment kind.
func (a *Attachment) Type() AttachmentType { return a.typ }

// Name returns the attachment name.
func (a *Attachment) Name() string { return a.name }

// Node returns the bound node.
func (a *Attachment) Node() *Node { return a.node }

// IsLight reports whether the attachment is a light.
func (a *Attachment) IsLight() bool { return a.typ <= LightImage }

// IsCamera reports whether the attachment is a camera.
func (a *Attachment) IsCamera() bool {
	return a.typ == CameraPerspective || a.typ == CameraOrthographic
}

// Transform returns the transform relative to the node.
func (a *Attachment) Transform() math.Mat4 { return a.transform }

// SetTransform sets the transform relative to the node.
func (a *Attachment) SetTransform(m math.Mat4) { a.transform = m }

// GlobalTransform returns the node's global transform times the local one.
func (a *Attachment) GlobalTransform() math.Mat4 {
	if a.node == nil {
		return a.transform
	}
	return a.node.GlobalTransform().Mul(a.transform)
}

// Projection returns the projection matrix of a camera attachment for the
// given aspect ratio (width / height).
func (a *Attachment) Projection(aspect float32) (math.Mat4, bool) {
	if aspect <= 0 {
		return math.Mat4{}, false
	}
	near := a.Scalar(CameraNear, 0.1)
	far := a.Scalar(CameraFar, 1000)
	if near <= 0 || far <= near {
		return math.Mat4{}, false
	}
	switch a.typ {
	case CameraPerspective:
		fov := a.Scalar(CameraFov, 60)
		return math.Perspective(fov*gomath.Pi/180, aspect, near, far), true
	case CameraOrthographic:
		h := a.Scalar(CameraHeight, 2) / 2
		w := h * aspect
		return math.Ortho(-w, w, -h, h, near, far), true
	default:
		return math.Mat4{}, false
	}
}

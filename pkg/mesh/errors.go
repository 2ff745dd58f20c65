package mesh

import "errors"

// Validation errors. Validate wraps them with the offending entity.
var (
	ErrIndexRange     = errors.New("index out of attribute range")
	ErrJointRange     = errors.New("joint index out of range")
	ErrMaterialRange  = errors.New("material index out of range")
	ErrPrimitiveCount = errors.New("per-primitive indices do not match primitive count")
	ErrCornerCount    = errors.New("attribute indices do not match corner count")
	ErrOrphan         = errors.New("dangling parent or child reference")
	ErrCycle          = errors.New("geometry hierarchy contains a cycle")
	ErrRootCount      = errors.New("node hierarchy must have exactly one root")
)

// Codec errors.
var (
	ErrUnknownFormat = errors.New("unknown mesh format")
	ErrUnsupported   = errors.New("operation not supported by codec")
)

// ErrTaskFailed reports that at least one asynchronous geometry operation
// returned false.
var ErrTaskFailed = errors.New("geometry task failed")

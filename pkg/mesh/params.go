package mesh

import (
	"bytes"
	"image"
	"slices"

	"github.com/Faultbox/midgard-mesh/pkg/math"
)

// ParamFlags tags the value held by a Parameter. Texture parameters combine
// ParamName, ParamBlob and ParamImage.
type ParamFlags uint16

const (
	ParamBool ParamFlags = 1 << iota
	ParamScalar
	ParamVector
	ParamMatrix
	ParamColor
	ParamName
	ParamBlob
	ParamImage

	ParamTexture = ParamName | ParamBlob | ParamImage
)

// Parameter is one typed entry of a parameter bag.
type Parameter struct {
	Type   string
	Flags  ParamFlags
	Bool   bool
	Scalar float32
	Vector math.Vec4
	Matrix [6]float32 // 3x2, row-major
	Color  math.Vec4
	Name   string
	Layout string
	Blob   []byte
	Image  image.Image
}

// Compare orders two parameters structurally. Images compare by bounds and
// then by pixel values; a nil image sorts first.
func (p *Parameter) Compare(other *Parameter) int {
	if p.Type != other.Type {
		if p.Type < other.Type {
			return -1
		}
		return 1
	}
	if p.Flags != other.Flags {
		return cmpInt(int(p.Flags), int(other.Flags))
	}
	if p.Flags&ParamBool != 0 && p.Bool != other.Bool {
		if other.Bool {
			return -1
		}
		return 1
	}
	if p.Flags&ParamScalar != 0 {
		if c := cmpFloat(p.Scalar, other.Scalar); c != 0 {
			return c
		}
	}
	if p.Flags&ParamVector != 0 {
		if c := cmpFloats(p.Vector[:], other.Vector[:]); c != 0 {
			return c
		}
	}
	if p.Flags&ParamMatrix != 0 {
		if c := cmpFloats(p.Matrix[:], other.Matrix[:]); c != 0 {
			return c
		}
	}
	if p.Flags&ParamColor != 0 {
		if c := cmpFloats(p.Color[:], other.Color[:]); c != 0 {
			return c
		}
	}
	if p.Flags&ParamName != 0 {
		if p.Name != other.Name {
			if p.Name < other.Name {
				return -1
			}
			return 1
		}
		if p.Layout != other.Layout {
			if p.Layout < other.Layout {
				return -1
			}
			return 1
		}
	}
	if p.Flags&ParamBlob != 0 {
		if c := bytes.Compare(p.Blob, other.Blob); c != 0 {
			return c
		}
	}
	if p.Flags&ParamImage != 0 {
		return compareImages(p.Image, other.Image)
	}
	return 0
}

func compareImages(a, b image.Image) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	ra, rb := a.Bounds(), b.Bounds()
	for _, c := range [][2]int{
		{ra.Min.X, rb.Min.X}, {ra.Min.Y, rb.Min.Y},
		{ra.Max.X, rb.Max.X}, {ra.Max.Y, rb.Max.Y},
	} {
		if c[0] != c[1] {
			return cmpInt(c[0], c[1])
		}
	}
	for y := ra.Min.Y; y < ra.Max.Y; y++ {
		for x := ra.Min.X; x < ra.Max.X; x++ {
			r0, g0, b0, a0 := a.At(x, y).RGBA()
			r1, g1, b1, a1 := b.At(x, y).RGBA()
			for _, c := range [][2]uint32{{r0, r1}, {g0, g1}, {b0, b1}, {a0, a1}} {
				if c[0] != c[1] {
					return cmpInt(int(c[0]), int(c[1]))
				}
			}
		}
	}
	return 0
}

// Params is an ordered list of typed parameters keyed by type string.
// Insertion order is preserved.
type Params struct {
	list []Parameter
}

// Len returns the parameter count.
func (p *Params) Len() int { return len(p.list) }

// Parameters returns the parameters in insertion order.
func (p *Params) Parameters() []Parameter { return p.list }

// Find returns the position of the parameter with the given type string,
// or -1.
func (p *Params) Find(typ string) int {
	return slices.IndexFunc(p.list, func(e Parameter) bool { return e.Type == typ })
}

// Get returns the parameter with the given type string.
func (p *Params) Get(typ string) (Parameter, bool) {
	if i := p.Find(typ); i >= 0 {
		return p.list[i], true
	}
	return Parameter{}, false
}

// Has reports whether a parameter of typ carries all of flags.
func (p *Params) Has(typ string, flags ParamFlags) bool {
	e, ok := p.Get(typ)
	return ok && e.Flags&flags == flags
}

// Set inserts or replaces a parameter, keeping its original position.
func (p *Params) Set(param Parameter) {
	if i := p.Find(param.Type); i >= 0 {
		p.list[i] = param
		return
	}
	p.list = append(p.list, param)
}

// Remove deletes a parameter. It returns false if none exists.
func (p *Params) Remove(typ string) bool {
	i := p.Find(typ)
	if i < 0 {
		return false
	}
	p.list = slices.Delete(p.list, i, i+1)
	return true
}

// SetBool stores a boolean parameter.
func (p *Params) SetBool(typ string, v bool) {
	p.Set(Parameter{Type: typ, Flags: ParamBool, Bool: v})
}

// SetScalar stores a scalar parameter.
func (p *Params) SetScalar(typ string, v float32) {
	p.Set(Parameter{Type: typ, Flags: ParamScalar, Scalar: v})
}

// SetVector stores a four-component vector parameter.
func (p *Params) SetVector(typ string, v math.Vec4) {
	p.Set(Parameter{Type: typ, Flags: ParamVector, Vector: v})
}

// SetMatrix stores a 3x2 matrix parameter.
func (p *Params) SetMatrix(typ string, m [6]float32) {
	p.Set(Parameter{Type: typ, Flags: ParamMatrix, Matrix: m})
}

// SetColor stores a color parameter.
func (p *Params) SetColor(typ string, c math.Vec4) {
	p.Set(Parameter{Type: typ, Flags: ParamColor, Color: c})
}

// SetName stores a name parameter with an optional layout.
func (p *Params) SetName(typ, name, layout string) {
	p.Set(Parameter{Type: typ, Flags: ParamName, Name: name, Layout: layout})
}

// SetTexture stores a texture parameter. Any of name, blob or img may be
// empty; the flags record which are present.
func (p *Params) SetTexture(typ, name string, blob []byte, img image.Image) {
	e := Parameter{Type: typ, Name: name, Blob: blob, Image: img}
	if name != "" {
		e.Flags |= ParamName
	}
	if blob != nil {
		e.Flags |= ParamBlob
	}
	if img != nil {
		e.Flags |= ParamImage
	}
	p.Set(e)
}

// Scalar returns a scalar parameter or def.
func (p *Params) Scalar(typ string, def float32) float32 {
	if e, ok := p.Get(typ); ok && e.Flags&ParamScalar != 0 {
		return e.Scalar
	}
	return def
}

// Compare orders two bags parameter by parameter.
func (p *Params) Compare(other *Params) int {
	if len(p.list) != len(other.list) {
		return cmpInt(len(p.list), len(other.list))
	}
	for i := range p.list {
		if c := p.list[i].Compare(&other.list[i]); c != 0 {
			return c
		}
	}
	return 0
}

func (p *Params) clone() Params {
	return Params{list: slices.Clone(p.list)}
}

func cmpFloat(a, b float32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloats(a, b []float32) int {
	for i := range a {
		if c := cmpFloat(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

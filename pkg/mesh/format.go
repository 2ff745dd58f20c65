// Package mesh provides an in-memory 3D scene representation (nodes,
// geometries, index and attribute buffers, joints, materials, animations and
// attachments) together with the algorithms that derive or optimize it.
//
// Objects are shared by pointer: every holder of a *Geometry sees the same
// geometry, and the garbage collector releases it once the last holder drops
// it. Back-references (Indices to Geometry, Node to parent, Geometry to Mesh)
// are lookups, never ownership.
//
// The data model has no internal locking. A caller must not mutate one
// object from two goroutines at once, nor mutate it while another goroutine
// iterates its owning container.
package mesh

import (
	"encoding/binary"
	"fmt"
	gomath "math"

	"github.com/x448/float16"
)

// Scalar is the storage type of a single component.
type Scalar uint8

const (
	ScalarUnknown Scalar = iota
	ScalarI8
	ScalarU8
	ScalarI16
	ScalarU16
	ScalarI32
	ScalarU32
	ScalarF16
	ScalarF32
	ScalarF64
)

// Size returns the byte size of the scalar.
func (s Scalar) Size() int {
	switch s {
	case ScalarI8, ScalarU8:
		return 1
	case ScalarI16, ScalarU16, ScalarF16:
		return 2
	case ScalarI32, ScalarU32, ScalarF32:
		return 4
	case ScalarF64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether the scalar is a floating-point type.
func (s Scalar) IsFloat() bool {
	return s == ScalarF16 || s == ScalarF32 || s == ScalarF64
}

// IsSigned reports whether the scalar can hold negative values.
func (s Scalar) IsSigned() bool {
	return s == ScalarI8 || s == ScalarI16 || s == ScalarI32 || s.IsFloat()
}

// Range returns the representable range of the scalar.
func (s Scalar) Range() (lo, hi float64) {
	switch s {
	case ScalarI8:
		return gomath.MinInt8, gomath.MaxInt8
	case ScalarU8:
		return 0, gomath.MaxUint8
	case ScalarI16:
		return gomath.MinInt16, gomath.MaxInt16
	case ScalarU16:
		return 0, gomath.MaxUint16
	case ScalarI32:
		return gomath.MinInt32, gomath.MaxInt32
	case ScalarU32:
		return 0, gomath.MaxUint32
	case ScalarF16:
		return -65504, 65504
	case ScalarF32:
		return -gomath.MaxFloat32, gomath.MaxFloat32
	default:
		return -gomath.MaxFloat64, gomath.MaxFloat64
	}
}

func (s Scalar) String() string {
	switch s {
	case ScalarI8:
		return "i8"
	case ScalarU8:
		return "u8"
	case ScalarI16:
		return "i16"
	case ScalarU16:
		return "u16"
	case ScalarI32:
		return "i32"
	case ScalarU32:
		return "u32"
	case ScalarF16:
		return "f16"
	case ScalarF32:
		return "f32"
	case ScalarF64:
		return "f64"
	default:
		return "unknown"
	}
}

// Format describes an element as a scalar type and a component count (1-4).
type Format uint16

// MakeFormat combines a scalar type and a component count.
func MakeFormat(s Scalar, components int) Format {
	if components < 1 || components > 4 || s == ScalarUnknown {
		return FormatUnknown
	}
	return Format(s) | Format(components)<<8
}

// Common formats.
const (
	FormatUnknown Format = 0

	FormatU8  = Format(ScalarU8) | 1<<8
	FormatU16 = Format(ScalarU16) | 1<<8
	FormatU32 = Format(ScalarU32) | 1<<8
	FormatI16 = Format(ScalarI16) | 1<<8
	FormatI32 = Format(ScalarI32) | 1<<8
	FormatF32 = Format(ScalarF32) | 1<<8

	FormatU8x4  = Format(ScalarU8) | 4<<8
	FormatU16x4 = Format(ScalarU16) | 4<<8
	FormatF16x2 = Format(ScalarF16) | 2<<8
	FormatF16x4 = Format(ScalarF16) | 4<<8
	FormatU32x2 = Format(ScalarU32) | 2<<8
	FormatU32x4 = Format(ScalarU32) | 4<<8
	FormatF32x2 = Format(ScalarF32) | 2<<8
	FormatF32x3 = Format(ScalarF32) | 3<<8
	FormatF32x4 = Format(ScalarF32) | 4<<8
	FormatF64x3 = Format(ScalarF64) | 3<<8
)

// Scalar returns the component storage type.
func (f Format) Scalar() Scalar {
	return Scalar(f & 0xff)
}

// Components returns the component count.
func (f Format) Components() int {
	return int(f >> 8)
}

// Size returns the byte size of one component.
func (f Format) Size() int {
	return f.Scalar().Size()
}

// Stride returns the byte size of one element.
func (f Format) Stride() int {
	return f.Components() * f.Size()
}

// Valid reports whether the format describes a storable element.
func (f Format) Valid() bool {
	c := f.Components()
	return c >= 1 && c <= 4 && f.Size() > 0
}

// WithComponents returns the format with another component count.
func (f Format) WithComponents(n int) Format {
	return MakeFormat(f.Scalar(), n)
}

func (f Format) String() string {
	if !f.Valid() {
		return "unknown"
	}
	if f.Components() == 1 {
		return f.Scalar().String()
	}
	return fmt.Sprintf("%sx%d", f.Scalar(), f.Components())
}

// readScalar decodes one little-endian component.
func readScalar(b []byte, s Scalar) float64 {
	switch s {
	case ScalarI8:
		return float64(int8(b[0]))
	case ScalarU8:
		return float64(b[0])
	case ScalarI16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case ScalarU16:
		return float64(binary.LittleEndian.Uint16(b))
	case ScalarI32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case ScalarU32:
		return float64(binary.LittleEndian.Uint32(b))
	case ScalarF16:
		return float64(float16.Frombits(binary.LittleEndian.Uint16(b)).Float32())
	case ScalarF32:
		return float64(gomath.Float32frombits(binary.LittleEndian.Uint32(b)))
	case ScalarF64:
		return gomath.Float64frombits(binary.LittleEndian.Uint64(b))
	default:
		return 0
	}
}

// writeScalar encodes one component, saturating to the scalar range.
// Integer destinations round to nearest.
func writeScalar(b []byte, s Scalar, v float64) {
	if !s.IsFloat() {
		lo, hi := s.Range()
		if gomath.IsNaN(v) {
			v = 0
		}
		v = gomath.Max(lo, gomath.Min(hi, gomath.Round(v)))
	}
	switch s {
	case ScalarI8:
		b[0] = byte(int8(v))
	case ScalarU8:
		b[0] = byte(v)
	case ScalarI16:
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
	case ScalarU16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case ScalarI32:
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	case ScalarU32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case ScalarF16:
		binary.LittleEndian.PutUint16(b, float16.Fromfloat32(float32(v)).Bits())
	case ScalarF32:
		binary.LittleEndian.PutUint32(b, gomath.Float32bits(float32(v)))
	case ScalarF64:
		binary.LittleEndian.PutUint64(b, gomath.Float64bits(v))
	}
}

// convertElements converts count elements between formats. Components missing
// in the source are zero; extra source components are dropped.
func convertElements(dst []byte, dstFormat Format, src []byte, srcFormat Format, count int) {
	if dstFormat == srcFormat {
		copy(dst, src[:count*srcFormat.Stride()])
		return
	}
	ds, ss := dstFormat.Scalar(), srcFormat.Scalar()
	dsize, ssize := ds.Size(), ss.Size()
	dc, sc := dstFormat.Components(), srcFormat.Components()
	for i := 0; i < count; i++ {
		d := dst[i*dc*dsize:]
		s := src[i*sc*ssize:]
		for c := 0; c < dc; c++ {
			var v float64
			if c < sc {
				v = readScalar(s[c*ssize:], ss)
			}
			writeScalar(d[c*dsize:], ds, v)
		}
	}
}

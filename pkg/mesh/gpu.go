package mesh

import "github.com/gogpu/gputypes"

// GPUIndexFormat returns the index buffer format of a 16 or 32-bit
// unsigned primitive buffer.
func (i *Indices) GPUIndexFormat() (gputypes.IndexFormat, bool) {
	switch i.format {
	case FormatU16:
		return gputypes.IndexFormatUint16, true
	case FormatU32:
		return gputypes.IndexFormatUint32, true
	default:
		var none gputypes.IndexFormat
		return none, false
	}
}

// Topology returns the primitive topology drawn from indices of type t.
// Quadrilaterals and tetrahedra must be converted to triangles first.
func (t IndicesType) Topology() (gputypes.PrimitiveTopology, bool) {
	switch t {
	case IndicesPoint:
		return gputypes.PrimitiveTopologyPointList, true
	case IndicesLine, IndicesEdge:
		return gputypes.PrimitiveTopologyLineList, true
	case IndicesTriangle:
		return gputypes.PrimitiveTopologyTriangleList, true
	default:
		var none gputypes.PrimitiveTopology
		return none, false
	}
}

var vertexFormats = map[Format]gputypes.VertexFormat{
	FormatF32:                gputypes.VertexFormatFloat32,
	FormatF32x2:              gputypes.VertexFormatFloat32x2,
	FormatF32x3:              gputypes.VertexFormatFloat32x3,
	FormatF32x4:              gputypes.VertexFormatFloat32x4,
	FormatF16x2:              gputypes.VertexFormatFloat16x2,
	FormatF16x4:              gputypes.VertexFormatFloat16x4,
	FormatU32:                gputypes.VertexFormatUint32,
	FormatU32x2:              gputypes.VertexFormatUint32x2,
	MakeFormat(ScalarU32, 3): gputypes.VertexFormatUint32x3,
	FormatU32x4:              gputypes.VertexFormatUint32x4,
	MakeFormat(ScalarU16, 2): gputypes.VertexFormatUint16x2,
	FormatU16x4:              gputypes.VertexFormatUint16x4,
	FormatU8x4:               gputypes.VertexFormatUint8x4,
}

// GPUVertexFormat returns the vertex format of the attribute elements.
// Formats without a GPU equivalent, such as three 16-bit components or
// f64, report false and need ToFormat first.
func (a *Attribute) GPUVertexFormat() (gputypes.VertexFormat, bool) {
	f, ok := vertexFormats[a.format]
	return f, ok
}

// VertexLayout describes the interleaved vertex buffer built by
// VertexData: one shader location per attribute in attribute order.
func (g *Geometry) VertexLayout() (gputypes.VertexBufferLayout, bool) {
	if !g.IsOptimized() {
		return gputypes.VertexBufferLayout{}, false
	}
	layout := gputypes.VertexBufferLayout{StepMode: gputypes.VertexStepModeVertex}
	var offset uint64
	for n, a := range g.attributes {
		f, ok := a.GPUVertexFormat()
		if !ok {
			return gputypes.VertexBufferLayout{}, false
		}
		layout.Attributes = append(layout.Attributes, gputypes.VertexAttribute{
			Format:         f,
			Offset:         offset,
			ShaderLocation: uint32(n),
		})
		offset += uint64(a.Stride())
	}
	layout.ArrayStride = offset
	return layout, true
}

// VertexData interleaves every attribute of an optimized geometry into one
// buffer matching VertexLayout.
func (g *Geometry) VertexData() ([]byte, gputypes.VertexBufferLayout, bool) {
	layout, ok := g.VertexLayout()
	if !ok {
		return nil, layout, false
	}
	stride := int(layout.ArrayStride)
	count := g.attributes[0].size
	data := make([]byte, count*stride)
	for n, a := range g.attributes {
		offset := int(layout.Attributes[n].Offset)
		for v := 0; v < count; v++ {
			copy(data[v*stride+offset:], a.Row(v))
		}
	}
	return data, layout, true
}

// PrimitiveState returns the pipeline primitive state for drawing the
// geometry with back faces culled.
func (g *Geometry) PrimitiveState(clockwise bool) (gputypes.PrimitiveState, bool) {
	topology, ok := g.PrimitiveType().Topology()
	if !ok {
		return gputypes.PrimitiveState{}, false
	}
	state := gputypes.PrimitiveState{
		Topology:  topology,
		FrontFace: gputypes.FrontFaceCCW,
		CullMode:  gputypes.CullModeBack,
	}
	if clockwise {
		state.FrontFace = gputypes.FrontFaceCW
	}
	return state, true
}

package mesh

// Material is a named parameter bag scoped to one geometry.
// Geometries may list the same *Material to share it.
type Material struct {
	Params

	name     string
	indices  *Indices
	geometry *Geometry
}

// NewMaterial creates an empty material.
func NewMaterial(name string) *Material {
	return &Material{name: name}
}

// Name returns the material name.
func (m *Material) Name() string { return m.name }

// SetName renames the material.
func (m *Material) SetName(name string) { m.name = name }

// Geometry returns the owning geometry.
func (m *Material) Geometry() *Geometry { return m.geometry }

// Indices returns the owned indices, if any.
func (m *Material) Indices() *Indices { return m.indices }

// SetIndices sets the owned indices.
func (m *Material) SetIndices(indices *Indices) { m.indices = indices }

// Clone returns a detached copy.
func (m *Material) Clone() *Material {
	c := &Material{Params: m.Params.clone(), name: m.name}
	if m.indices != nil {
		c.indices = m.indices.Clone()
	}
	return c
}

// Compare orders materials by their parameters. Names are ignored so that
// identically configured materials exported under different names match.
func (m *Material) Compare(other *Material) int {
	return m.Params.Compare(&other.Params)
}

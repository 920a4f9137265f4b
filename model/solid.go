package model

// ScalePlan holds the two scale factors derived from the window extent.
type ScalePlan struct {
	// HorizontalScale is metres of real world per millimetre of print.
	// Export divides planar coordinates by it.
	HorizontalScale float64

	// DisplayVerticalScale exaggerates layer thickness for interactive
	// preview only. It must never leak into an exported artifact: export
	// rederives every piece's vertical extent from its canonical height.
	DisplayVerticalScale float64
}

// GeometryID is an intern handle into a Model's geometry arena.
type GeometryID int

// MaterialID is an intern handle into a Model's material arena.
type MaterialID int

// Geometry is a flat, non-indexed triangle soup: every three consecutive
// vertices form one triangle.
type Geometry struct {
	Vertices []Vec3
}

// TriangleCount returns the number of triangles in the soup.
func (g Geometry) TriangleCount() int { return len(g.Vertices) / 3 }

// Material is one entry of the model's color table.
type Material struct {
	Name  string
	Color Color
	Alpha float64 // 1 = opaque
}

// SolidPiece is one emitted mesh primitive: a polygon extrusion or an
// oriented road segment box. Geometry and material are intern handles so
// pieces sharing a source extrusion never duplicate vertex data.
type SolidPiece struct {
	Layer    LayerKind
	Geometry GeometryID
	Material MaterialID

	// RealHeightMM is the canonical print height of this piece. It is
	// immutable once the piece is emitted and is the sole source of truth
	// for the piece's vertical extent at export time.
	RealHeightMM float64
}

// Model is one built region: the window it was clipped against, the scale
// plan it was built under, its five layers, and arena-stored geometry and
// material tables referenced by the pieces.
type Model struct {
	Window BoundaryWindow
	Plan   ScalePlan
	Layers []Layer

	Geometries []Geometry
	Materials  []Material
	Pieces     []SolidPiece
}

// AddGeometry interns a triangle soup and returns its handle.
func (m *Model) AddGeometry(g Geometry) GeometryID {
	m.Geometries = append(m.Geometries, g)
	return GeometryID(len(m.Geometries) - 1)
}

// AddMaterial interns a material and returns its handle.
func (m *Model) AddMaterial(mat Material) MaterialID {
	m.Materials = append(m.Materials, mat)
	return MaterialID(len(m.Materials) - 1)
}

// TriangleCount returns the total triangle count across all pieces,
// counting shared geometries once per referencing piece.
func (m *Model) TriangleCount() int {
	n := 0
	for _, p := range m.Pieces {
		if int(p.Geometry) < len(m.Geometries) {
			n += m.Geometries[p.Geometry].TriangleCount()
		}
	}
	return n
}

package core

import (
	"fmt"
	"io"

	"github.com/mapfoundry/cityprint/internal/threemf"
	"github.com/mapfoundry/cityprint/model"
)

// Export walks the built model and produces a 3MF document: one mesh object
// per distinct geometry handle, the material color table, and a build
// manifest with a single placement transform.
//
// Every piece is rescaled independently before serialization. Horizontal
// axes divide by the plan's horizontal scale (metres per millimetre); the
// vertical axis is rederived from the piece's canonical real-world height,
// so whatever exaggeration was active during preview never reaches the
// exported artifact.
func Export(m *model.Model) (*threemf.Document, error) {
	if m.Plan.HorizontalScale <= 0 || m.Plan.DisplayVerticalScale <= 0 {
		return nil, fmt.Errorf("export: invalid scale plan %+v", m.Plan)
	}

	doc := &threemf.Document{
		Title:     "cityprint model",
		Transform: threemf.IdentityTransform(),
	}
	for _, mat := range m.Materials {
		doc.Materials = append(doc.Materials, threemf.Material{
			Name:         mat.Name,
			DisplayColor: mat.Color.Hex(),
		})
	}

	// Geometry handles dedup objects: pieces sharing a source extrusion
	// reference one vertex table.
	exported := make(map[model.GeometryID]bool)

	minX, minY := 0.0, 0.0
	for _, piece := range m.Pieces {
		if int(piece.Geometry) >= len(m.Geometries) {
			return nil, fmt.Errorf("export: piece on layer %s: %w", piece.Layer, ErrMissingGeometry)
		}
		src := m.Geometries[piece.Geometry]
		if len(src.Vertices) == 0 {
			return nil, fmt.Errorf("export: piece on layer %s: %w", piece.Layer, ErrMissingGeometry)
		}
		if exported[piece.Geometry] {
			continue
		}
		exported[piece.Geometry] = true

		obj := threemf.Object{
			Name:          string(piece.Layer),
			MaterialIndex: int(piece.Material),
		}
		for _, v := range rescalePiece(src.Vertices, piece.RealHeightMM, m.Plan) {
			// Model space is Y-up; 3MF is Z-up. Rotate a quarter turn
			// about X while converting.
			out := threemf.Vertex{X: v.X, Y: -v.Z, Z: v.Y}
			if out.X < minX {
				minX = out.X
			}
			if out.Y < minY {
				minY = out.Y
			}
			obj.Mesh.Vertices = append(obj.Mesh.Vertices, out)
		}
		// Flat triangle soup: every three consecutive vertices are one
		// triangle, no vertex sharing across triangles.
		for i := 0; i+2 < len(obj.Mesh.Vertices); i += 3 {
			obj.Mesh.Triangles = append(obj.Mesh.Triangles, threemf.Triangle{V1: i, V2: i + 1, V3: i + 2})
		}
		doc.Objects = append(doc.Objects, obj)
	}

	// Shift the assembly into the positive octant via the build item's
	// placement transform.
	doc.Transform[9] = -minX
	doc.Transform[10] = -minY

	return doc, nil
}

// rescalePiece converts one piece's preview-space vertices to print
// millimetres. The vertical band is remapped so the piece's extent equals
// exactly its canonical height; the band's starting offset converts through
// the display scale.
func rescalePiece(verts []model.Vec3, realHeightMM float64, plan model.ScalePlan) []model.Vec3 {
	minY, maxY := verts[0].Y, verts[0].Y
	for _, v := range verts {
		if v.Y < minY {
			minY = v.Y
		}
		if v.Y > maxY {
			maxY = v.Y
		}
	}
	extent := maxY - minY
	factor := 0.0
	if extent > 0 {
		factor = realHeightMM / extent
	}
	baseMM := minY / plan.DisplayVerticalScale

	out := make([]model.Vec3, len(verts))
	for i, v := range verts {
		out[i] = model.Vec3{
			X: v.X / plan.HorizontalScale,
			Y: baseMM + (v.Y-minY)*factor,
			Z: v.Z / plan.HorizontalScale,
		}
	}
	return out
}

// WriteModel exports the model and writes the 3MF package to w, returning
// the byte count written.
func WriteModel(w io.Writer, m *model.Model) (int64, error) {
	doc, err := Export(m)
	if err != nil {
		return 0, err
	}
	cw := &countingWriter{w: w}
	if err := doc.WritePackage(cw); err != nil {
		return cw.n, fmt.Errorf("export: %w", err)
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

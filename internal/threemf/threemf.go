// Package threemf writes 3D Manufacturing Format (3MF) packages: an OPC zip
// container holding one model part with a material table, per-object vertex
// and triangle tables, and a build manifest with a single placement
// transform.
package threemf

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// MIMEType identifies a 3MF package to download/transfer collaborators.
	MIMEType = "model/3mf"
	// Extension is the canonical filename extension.
	Extension = ".3mf"
)

// ErrEmptyMesh rejects an object whose mesh carries no vertices. The whole
// write fails; there is no partial package.
var ErrEmptyMesh = errors.New("threemf: object mesh has no vertices")

// Material is one entry of the model's color table.
type Material struct {
	Name string
	// DisplayColor is "#RRGGBBAA".
	DisplayColor string
}

// Vertex is one mesh vertex, millimetres.
type Vertex struct {
	X, Y, Z float64
}

// Triangle indexes three vertices of its object's vertex table.
type Triangle struct {
	V1, V2, V3 int
}

// Mesh is one object's vertex and triangle tables.
type Mesh struct {
	Vertices  []Vertex
	Triangles []Triangle
}

// Object is one printable mesh with its material assignment.
type Object struct {
	Name          string
	MaterialIndex int
	Mesh          Mesh
}

// Document is a complete 3MF model: materials, objects, and the placement
// transform applied by the single build item.
type Document struct {
	Title     string
	Materials []Material
	Objects   []Object

	// Transform is the build item's 4x3 row-major affine transform.
	Transform [12]float64
}

// IdentityTransform returns the identity placement transform.
func IdentityTransform() [12]float64 {
	return [12]float64{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0}
}

// Internal XML shapes for the 3D/3dmodel.model part.

type xmlModel struct {
	XMLName   xml.Name      `xml:"model"`
	Unit      string        `xml:"unit,attr"`
	Lang      string        `xml:"xml:lang,attr"`
	NS        string        `xml:"xmlns,attr"`
	Metadata  []xmlMetadata `xml:"metadata"`
	Resources xmlResources  `xml:"resources"`
	Build     xmlBuild      `xml:"build"`
}

type xmlMetadata struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlResources struct {
	BaseMaterials *xmlBaseMaterials `xml:"basematerials"`
	Objects       []xmlObject       `xml:"object"`
}

type xmlBaseMaterials struct {
	ID    int       `xml:"id,attr"`
	Bases []xmlBase `xml:"base"`
}

type xmlBase struct {
	Name         string `xml:"name,attr"`
	DisplayColor string `xml:"displaycolor,attr"`
}

type xmlObject struct {
	ID         int            `xml:"id,attr"`
	Type       string         `xml:"type,attr"`
	Name       string         `xml:"name,attr,omitempty"`
	PID        *int           `xml:"pid,attr"`
	PIndex     *int           `xml:"pindex,attr"`
	Mesh       *xmlMesh       `xml:"mesh"`
	Components *xmlComponents `xml:"components"`
}

type xmlMesh struct {
	Vertices  xmlVertices  `xml:"vertices"`
	Triangles xmlTriangles `xml:"triangles"`
}

type xmlVertices struct {
	Vertices []xmlVertex `xml:"vertex"`
}

type xmlVertex struct {
	X string `xml:"x,attr"`
	Y string `xml:"y,attr"`
	Z string `xml:"z,attr"`
}

type xmlTriangles struct {
	Triangles []xmlTriangle `xml:"triangle"`
}

type xmlTriangle struct {
	V1 int `xml:"v1,attr"`
	V2 int `xml:"v2,attr"`
	V3 int `xml:"v3,attr"`
}

type xmlComponents struct {
	Components []xmlComponent `xml:"component"`
}

type xmlComponent struct {
	ObjectID int `xml:"objectid,attr"`
}

type xmlBuild struct {
	Items []xmlItem `xml:"item"`
}

type xmlItem struct {
	ObjectID  int    `xml:"objectid,attr"`
	Transform string `xml:"transform,attr"`
}

const (
	coreNamespace    = "http://schemas.microsoft.com/3dmanufacturing/core/2015/02"
	relsContentType  = "application/vnd.openxmlformats-package.relationships+xml"
	modelContentType = "application/vnd.ms-package.3dmanufacturing-3dmodel+xml"
	modelRelType     = "http://schemas.microsoft.com/3dmanufacturing/2013/01/3dmodel"
)

// WritePackage serializes the document as a complete 3MF zip package.
func (d *Document) WritePackage(w io.Writer) error {
	modelXML, err := d.modelPart()
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		body []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(relationshipsXML)},
		{"3D/3dmodel.model", modelXML},
	}
	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("threemf: create %s: %w", part.name, err)
		}
		if _, err := f.Write(part.body); err != nil {
			return fmt.Errorf("threemf: write %s: %w", part.name, err)
		}
	}
	return zw.Close()
}

func (d *Document) modelPart() ([]byte, error) {
	const materialsID = 1

	pid := materialsID
	m := xmlModel{
		Unit: "millimeter",
		Lang: "en-US",
		NS:   coreNamespace,
	}
	if d.Title != "" {
		m.Metadata = append(m.Metadata, xmlMetadata{Name: "Title", Value: d.Title})
	}
	if len(d.Materials) > 0 {
		bm := &xmlBaseMaterials{ID: materialsID}
		for _, mat := range d.Materials {
			bm.Bases = append(bm.Bases, xmlBase{Name: mat.Name, DisplayColor: mat.DisplayColor})
		}
		m.Resources.BaseMaterials = bm
	}

	nextID := materialsID + 1
	meshIDs := make([]int, len(d.Objects))
	for i, obj := range d.Objects {
		if len(obj.Mesh.Vertices) == 0 {
			return nil, fmt.Errorf("threemf: object %d: %w", i, ErrEmptyMesh)
		}
		x := xmlObject{
			ID:   nextID,
			Type: "model",
			Name: obj.Name,
			Mesh: meshToXML(obj.Mesh),
		}
		if len(d.Materials) > 0 {
			pindex := obj.MaterialIndex
			x.PID = &pid
			x.PIndex = &pindex
		}
		m.Resources.Objects = append(m.Resources.Objects, x)
		meshIDs[i] = nextID
		nextID++
	}

	// One components object groups every mesh so the build manifest needs a
	// single item carrying the placement transform.
	assemblyID := nextID
	assembly := xmlObject{ID: assemblyID, Type: "model", Components: &xmlComponents{}}
	for _, id := range meshIDs {
		assembly.Components.Components = append(assembly.Components.Components, xmlComponent{ObjectID: id})
	}
	m.Resources.Objects = append(m.Resources.Objects, assembly)

	m.Build.Items = []xmlItem{{
		ObjectID:  assemblyID,
		Transform: formatTransform(d.Transform),
	}}

	var sb strings.Builder
	sb.WriteString(xml.Header)
	enc := xml.NewEncoder(&sb)
	enc.Indent("", " ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("threemf: encode model: %w", err)
	}
	sb.WriteString("\n")
	return []byte(sb.String()), nil
}

func meshToXML(mesh Mesh) *xmlMesh {
	out := &xmlMesh{}
	for _, v := range mesh.Vertices {
		out.Vertices.Vertices = append(out.Vertices.Vertices, xmlVertex{
			X: formatCoord(v.X),
			Y: formatCoord(v.Y),
			Z: formatCoord(v.Z),
		})
	}
	for _, t := range mesh.Triangles {
		out.Triangles.Triangles = append(out.Triangles.Triangles, xmlTriangle{V1: t.V1, V2: t.V2, V3: t.V3})
	}
	return out
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTransform(t [12]float64) string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = formatCoord(v)
	}
	return strings.Join(parts, " ")
}

const contentTypesXML = xml.Header +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
 <Default Extension="rels" ContentType="` + relsContentType + `"/>
 <Default Extension="model" ContentType="` + modelContentType + `"/>
</Types>
`

const relationshipsXML = xml.Header +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
 <Relationship Id="rel-1" Type="` + modelRelType + `" Target="/3D/3dmodel.model"/>
</Relationships>
`

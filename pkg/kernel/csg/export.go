package csg

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/chazu/meshup/pkg/kernel"
)

// ToMesh converts a solid to a flat-shaded triangle mesh.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	tris := triangulateAll(unwrap(s))
	numVerts := len(tris) * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range tris {
		n := tri.plane.n
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri.verts[j].pos
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

// ToSTLBinary encodes the solid as binary STL.
func (k *Kernel) ToSTLBinary(s kernel.Solid, name string) ([]byte, error) {
	tris := triangulateAll(unwrap(s))

	var buf bytes.Buffer
	header := make([]byte, 80)
	copy(header, name)
	buf.Write(header)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(tris))); err != nil {
		return nil, fmt.Errorf("stl: write count: %w", err)
	}

	type facet struct {
		Normal [3]float32
		Verts  [3][3]float32
		Attr   uint16
	}
	for _, t := range tris {
		f := facet{Normal: [3]float32{float32(t.plane.n.X), float32(t.plane.n.Y), float32(t.plane.n.Z)}}
		for j := 0; j < 3; j++ {
			p := t.verts[j].pos
			f.Verts[j] = [3]float32{float32(p.X), float32(p.Y), float32(p.Z)}
		}
		if err := binary.Write(&buf, binary.LittleEndian, f); err != nil {
			return nil, fmt.Errorf("stl: write facet: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// ToSTLASCII encodes the solid as ASCII STL.
func (k *Kernel) ToSTLASCII(s kernel.Solid, name string) (string, error) {
	tris := triangulateAll(unwrap(s))

	var sb strings.Builder
	fmt.Fprintf(&sb, "solid %s\n", name)
	for _, t := range tris {
		n := t.plane.n
		fmt.Fprintf(&sb, "  facet normal %e %e %e\n", n.X, n.Y, n.Z)
		sb.WriteString("    outer loop\n")
		for j := 0; j < 3; j++ {
			p := t.verts[j].pos
			fmt.Fprintf(&sb, "      vertex %e %e %e\n", p.X, p.Y, p.Z)
		}
		sb.WriteString("    endloop\n")
		sb.WriteString("  endfacet\n")
	}
	fmt.Fprintf(&sb, "endsolid %s\n", name)
	return sb.String(), nil
}

// --- AMF ---

type amfDoc struct {
	XMLName xml.Name  `xml:"amf"`
	Unit    string    `xml:"unit,attr"`
	Version string    `xml:"version,attr"`
	Object  amfObject `xml:"object"`
}

type amfObject struct {
	ID       int           `xml:"id,attr"`
	Metadata []amfMetadata `xml:"metadata"`
	Mesh     amfMesh       `xml:"mesh"`
}

type amfMetadata struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type amfMesh struct {
	Vertices []amfVertex   `xml:"vertices>vertex"`
	Volume   []amfTriangle `xml:"volume>triangle"`
}

type amfVertex struct {
	X float64 `xml:"coordinates>x"`
	Y float64 `xml:"coordinates>y"`
	Z float64 `xml:"coordinates>z"`
}

type amfTriangle struct {
	V1 int `xml:"v1"`
	V2 int `xml:"v2"`
	V3 int `xml:"v3"`
}

// amfUnits maps short unit names onto the AMF unit vocabulary.
var amfUnits = map[string]string{
	"mm":   "millimeter",
	"in":   "inch",
	"inch": "inch",
	"ft":   "feet",
	"m":    "meter",
	"um":   "micron",
}

// ToAMF encodes the solid as an AMF document with shared vertices.
func (k *Kernel) ToAMF(s kernel.Solid, name, units string) (string, error) {
	tris := triangulateAll(unwrap(s))
	w := weld(tris)

	unit, ok := amfUnits[units]
	if !ok {
		unit = units
	}
	doc := amfDoc{
		Unit:    unit,
		Version: "1.1",
		Object: amfObject{
			Metadata: []amfMetadata{{Type: "name", Value: name}},
		},
	}
	for _, p := range w.positions {
		doc.Object.Mesh.Vertices = append(doc.Object.Mesh.Vertices, amfVertex{X: p.X, Y: p.Y, Z: p.Z})
	}
	for _, f := range w.faces {
		doc.Object.Mesh.Volume = append(doc.Object.Mesh.Volume, amfTriangle{V1: f[0], V2: f[1], V3: f[2]})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("amf: %w", err)
	}
	return xml.Header + string(out) + "\n", nil
}

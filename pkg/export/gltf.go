// Package export encodes meshup geometry into interchange formats:
// GLTF documents, 3MF packages, SVG drawings and DXF files.
package export

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// GLTF primitive modes.
const (
	ModeLineStrip = 3
	ModeTriangles = 4
)

const (
	componentFloat    = 5126
	targetArrayBuffer = 34962
)

// ErrNoPositions is returned when there is nothing to encode.
var ErrNoPositions = errors.New("export: no positions")

// Document is a minimal GLTF 2.0 document with a single mesh.
type Document struct {
	Asset       Asset        `json:"asset"`
	Scenes      []Scene      `json:"scenes"`
	Nodes       []Node       `json:"nodes"`
	Meshes      []MeshDef    `json:"meshes"`
	Accessors   []Accessor   `json:"accessors"`
	BufferViews []BufferView `json:"bufferViews"`
	Buffers     []Buffer     `json:"buffers"`
}

type Asset struct {
	Version string `json:"version"`
}

type Scene struct {
	Nodes []int `json:"nodes"`
}

type Node struct {
	Mesh int `json:"mesh"`
}

type MeshDef struct {
	Primitives []Primitive `json:"primitives"`
}

type Primitive struct {
	Attributes map[string]int `json:"attributes"`
	Mode       int            `json:"mode"`
}

type Accessor struct {
	BufferView    int       `json:"bufferView"`
	ByteOffset    int       `json:"byteOffset"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Max           []float32 `json:"max"`
	Min           []float32 `json:"min"`
}

type BufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	Target     int `json:"target"`
}

type Buffer struct {
	ByteLength int    `json:"byteLength"`
	URI        string `json:"uri"`
}

// RemapUp converts a point from a z-up, x-up or y-up source frame into
// GLTF's y-up frame.
//
//	"z": (x, y, z) -> (x, z, -y)
//	"x": (x, y, z) -> (y, x, z)
//	otherwise: (x, y, z) -> (x, z, y)
func RemapUp(p [3]float64, up string) [3]float64 {
	switch up {
	case "z":
		return [3]float64{p[0], p[2], -p[1]}
	case "x":
		return [3]float64{p[1], p[0], p[2]}
	default:
		return [3]float64{p[0], p[2], p[1]}
	}
}

// GLTF encodes positions as a single-primitive GLTF document with an
// inline base64 buffer. Positions are remapped for up before encoding;
// accessor bounds describe the remapped data.
func GLTF(positions [][3]float64, mode int, up string) ([]byte, error) {
	if len(positions) == 0 {
		return nil, ErrNoPositions
	}

	lo := [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi := [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	flat := make([]float32, 0, len(positions)*3)
	for _, p := range positions {
		r := RemapUp(p, up)
		for i := 0; i < 3; i++ {
			f := float32(r[i])
			flat = append(flat, f)
			lo[i] = min(lo[i], f)
			hi[i] = max(hi[i], f)
		}
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, flat); err != nil {
		return nil, fmt.Errorf("gltf: encode buffer: %w", err)
	}
	byteLength := buf.Len()

	doc := Document{
		Asset:  Asset{Version: "2.0"},
		Scenes: []Scene{{Nodes: []int{0}}},
		Nodes:  []Node{{Mesh: 0}},
		Meshes: []MeshDef{{Primitives: []Primitive{{
			Attributes: map[string]int{"POSITION": 0},
			Mode:       mode,
		}}}},
		Accessors: []Accessor{{
			BufferView:    0,
			ComponentType: componentFloat,
			Count:         len(positions),
			Type:          "VEC3",
			Max:           hi[:],
			Min:           lo[:],
		}},
		BufferViews: []BufferView{{
			Buffer:     0,
			ByteLength: byteLength,
			Target:     targetArrayBuffer,
		}},
		Buffers: []Buffer{{
			ByteLength: byteLength,
			URI:        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		}},
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("gltf: %w", err)
	}
	return out, nil
}

// DecodePositions reads back the inline position buffer of a document
// produced by GLTF.
func DecodePositions(data []byte) ([][3]float32, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("gltf: %w", err)
	}
	if len(doc.Buffers) == 0 {
		return nil, ErrNoPositions
	}
	const prefix = "data:application/octet-stream;base64,"
	uri := doc.Buffers[0].URI
	if len(uri) < len(prefix) || uri[:len(prefix)] != prefix {
		return nil, fmt.Errorf("gltf: unsupported buffer uri")
	}
	raw, err := base64.StdEncoding.DecodeString(uri[len(prefix):])
	if err != nil {
		return nil, fmt.Errorf("gltf: %w", err)
	}
	pts := make([][3]float32, len(raw)/12)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, pts); err != nil {
		return nil, fmt.Errorf("gltf: %w", err)
	}
	return pts, nil
}

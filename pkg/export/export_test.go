package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/meshup/pkg/kernel"
)

// --- GLTF ---

func TestRemapUp(t *testing.T) {
	p := [3]float64{1, 2, 3}
	tests := []struct {
		up   string
		want [3]float64
	}{
		{"z", [3]float64{1, 3, -2}},
		{"x", [3]float64{2, 1, 3}},
		{"y", [3]float64{1, 3, 2}},
		{"", [3]float64{1, 3, 2}},
	}
	for _, tt := range tests {
		t.Run("up="+tt.up, func(t *testing.T) {
			if got := RemapUp(p, tt.up); got != tt.want {
				t.Errorf("RemapUp(%v, %q) = %v, want %v", p, tt.up, got, tt.want)
			}
		})
	}
}

func TestGLTFLayout(t *testing.T) {
	pts := [][3]float64{{0, 0, 0}, {10, 0, 0}, {10, 20, 0}}
	data, err := GLTF(pts, ModeLineStrip, "z")
	if err != nil {
		t.Fatalf("GLTF: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Asset.Version != "2.0" {
		t.Errorf("version = %q", doc.Asset.Version)
	}
	prim := doc.Meshes[0].Primitives[0]
	if prim.Mode != ModeLineStrip || prim.Attributes["POSITION"] != 0 || len(prim.Attributes) != 1 {
		t.Errorf("primitive = %+v", prim)
	}
	acc := doc.Accessors[0]
	if acc.ComponentType != 5126 || acc.Type != "VEC3" || acc.Count != 3 {
		t.Errorf("accessor = %+v", acc)
	}
	if doc.BufferViews[0].Target != 34962 || doc.BufferViews[0].ByteLength != 36 {
		t.Errorf("buffer view = %+v", doc.BufferViews[0])
	}
	if !strings.HasPrefix(doc.Buffers[0].URI, "data:application/octet-stream;base64,") {
		t.Errorf("uri = %q", doc.Buffers[0].URI)
	}
	// Bounds come from the remapped data: y in source becomes -z.
	if acc.Min[2] != -20 || acc.Max[2] != 0 {
		t.Errorf("z bounds = [%v, %v], want [-20, 0]", acc.Min[2], acc.Max[2])
	}

	got, err := DecodePositions(data)
	if err != nil {
		t.Fatalf("DecodePositions: %v", err)
	}
	if got[2] != [3]float32{10, 0, -20} {
		t.Errorf("third position = %v, want [10 0 -20]", got[2])
	}
}

func TestGLTFEmpty(t *testing.T) {
	if _, err := GLTF(nil, ModeTriangles, "z"); !errors.Is(err, ErrNoPositions) {
		t.Errorf("error = %v, want ErrNoPositions", err)
	}
}

// --- 3MF ---

func quad() *kernel.Mesh {
	// Two triangles sharing an edge, unindexed.
	return &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 0, 0, 1, 1, 0, 0, 1, 0},
		Indices:  []uint32{0, 1, 2, 3, 4, 5},
	}
}

func TestModel3MF(t *testing.T) {
	model, err := Model3MF("mm", []Object{{Name: "a", Mesh: quad()}, {Name: "b", Mesh: quad()}, {Name: "empty", Mesh: &kernel.Mesh{}}})
	if err != nil {
		t.Fatalf("Model3MF: %v", err)
	}
	if n := len(model.Resources.Objects); n != 2 {
		t.Fatalf("objects = %d, want 2", n)
	}
	obj := model.Resources.Objects[0]
	if obj.Name != "a" {
		t.Errorf("name = %q", obj.Name)
	}
	if n := len(obj.Mesh.Vertices.Vertex); n != 4 {
		t.Errorf("shared vertices = %d, want 4", n)
	}
	if n := len(obj.Mesh.Triangles.Triangle); n != 2 {
		t.Errorf("triangles = %d, want 2", n)
	}
	if n := len(model.Build.Items); n != 2 {
		t.Errorf("build items = %d, want 2", n)
	}
}

func TestModel3MFErrors(t *testing.T) {
	if _, err := Model3MF("parsec", []Object{{Mesh: quad()}}); err == nil {
		t.Error("unknown units accepted")
	}
	if _, err := Model3MF("mm", nil); !errors.Is(err, ErrNoPositions) {
		t.Errorf("error = %v, want ErrNoPositions", err)
	}
}

func TestSave3MF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.3mf")
	if err := Save3MF(path, "mm", []Object{{Name: "a", Mesh: quad()}}); err != nil {
		t.Fatalf("Save3MF: %v", err)
	}
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open package: %v", err)
	}
	defer r.Close()
	found := false
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, ".model") {
			found = true
		}
	}
	if !found {
		t.Error("package has no model part")
	}
}

// --- drawings ---

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	paths := []Path{{{0, 0}, {10, 0}, {10, 20}}}
	if err := WriteSVG(&buf, paths, SVGOptions{Margin: 1, StrokeWidth: 0.5, Stroke: "red", Title: "part"}); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<svg", "<polyline", "stroke:red", "<title>part</title>", "</svg>"} {
		if !strings.Contains(out, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	// y is flipped: the source origin lands at the bottom of a 22mm canvas.
	if !strings.Contains(out, "1.00,21.00") {
		t.Errorf("expected flipped origin 1.00,21.00 in:\n%s", out)
	}
}

func TestWriteSVGEmpty(t *testing.T) {
	if err := WriteSVG(&bytes.Buffer{}, nil, DefaultSVGOptions()); !errors.Is(err, ErrNoPositions) {
		t.Errorf("error = %v, want ErrNoPositions", err)
	}
}

func TestSaveDXF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.dxf")
	if err := SaveDXF(path, [][3]float64{{0, 0, 0}, {10, 0, 0}, {10, 10, 0}}); err != nil {
		t.Fatalf("SaveDXF: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := strings.Count(string(data), "LINE"); n < 2 {
		t.Errorf("LINE entities = %d, want at least 2", n)
	}
}

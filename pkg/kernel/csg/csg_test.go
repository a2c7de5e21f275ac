package csg

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/chazu/meshup/pkg/kernel"
)

const tol = 1e-6

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func volume(k *Kernel, s kernel.Solid) float64 {
	return k.MassProperties(s, 1).Mass
}

// --- primitives ---

func TestCuboid(t *testing.T) {
	k := New()
	box := k.Cuboid(10, 20, 30)
	min, max, ok := box.BoundingBox()
	if !ok {
		t.Fatal("cuboid has no bounding box")
	}
	if min != [3]float64{0, 0, 0} {
		t.Errorf("min = %v, want [0 0 0]", min)
	}
	if max != [3]float64{10, 20, 30} {
		t.Errorf("max = %v, want [10 20 30]", max)
	}
	if got := volume(k, box); !approx(got, 6000, tol) {
		t.Errorf("volume = %v, want 6000", got)
	}
	mp := k.MassProperties(box, 1)
	if want := [3]float64{5, 10, 15}; !approx(mp.CenterOfMass[0], want[0], tol) ||
		!approx(mp.CenterOfMass[1], want[1], tol) || !approx(mp.CenterOfMass[2], want[2], tol) {
		t.Errorf("center of mass = %v, want %v", mp.CenterOfMass, want)
	}
}

func TestSphereVolume(t *testing.T) {
	k := New()
	s := k.Sphere(10, 64, 32)
	want := 4.0 / 3.0 * math.Pi * 1000
	got := volume(k, s)
	if got <= 0 || got > want {
		t.Fatalf("volume = %v, want in (0, %v]", got, want)
	}
	if got < want*0.97 {
		t.Errorf("volume = %v, too far below analytic %v", got, want)
	}
	min, max, _ := s.BoundingBox()
	if !approx(min[2], -10, tol) || !approx(max[2], 10, tol) {
		t.Errorf("z extent = [%v, %v], want [-10, 10]", min[2], max[2])
	}
}

func TestCylinder(t *testing.T) {
	k := New()
	c := k.Cylinder(5, 20, 32)
	min, max, ok := c.BoundingBox()
	if !ok {
		t.Fatal("cylinder has no bounding box")
	}
	if !approx(min[2], 0, tol) || !approx(max[2], 20, tol) {
		t.Errorf("z extent = [%v, %v], want [0, 20]", min[2], max[2])
	}
	want := math.Pi * 25 * 20
	if got := volume(k, c); got <= 0 || got < want*0.98 || got > want {
		t.Errorf("volume = %v, want close to %v", got, want)
	}
}

func TestEmpty(t *testing.T) {
	k := New()
	e := k.Empty()
	if _, _, ok := e.BoundingBox(); ok {
		t.Error("empty solid reports a bounding box")
	}
	if got := volume(k, e); got != 0 {
		t.Errorf("volume = %v, want 0", got)
	}
}

func TestFromPolygonsSkipsDegenerate(t *testing.T) {
	k := New()
	s := k.FromPolygons([]kernel.Polygon{
		{Vertices: []kernel.Vertex{{Pos: [3]float64{0, 0, 0}}, {Pos: [3]float64{1, 0, 0}}, {Pos: [3]float64{0, 1, 0}}}},
		{Vertices: []kernel.Vertex{{Pos: [3]float64{0, 0, 0}}, {Pos: [3]float64{1, 0, 0}}}},
		{Vertices: []kernel.Vertex{{Pos: [3]float64{0, 0, 0}}, {Pos: [3]float64{1, 0, 0}}, {Pos: [3]float64{2, 0, 0}}}},
	})
	polys := k.Polygons(s)
	if len(polys) != 1 {
		t.Fatalf("got %d polygons, want 1", len(polys))
	}
	n := polys[0].Vertices[0].Normal
	if !approx(n[2], 1, tol) {
		t.Errorf("default vertex normal = %v, want +Z", n)
	}
}

// --- booleans ---

func TestBooleans(t *testing.T) {
	k := New()
	a := k.Cuboid(10, 10, 10)
	far := k.Translate(k.Cuboid(10, 10, 10), 20, 0, 0)
	half := k.Translate(k.Cuboid(10, 10, 10), 5, 0, 0)

	tests := []struct {
		name string
		s    kernel.Solid
		want float64
	}{
		{"disjoint union is additive", k.Union(a, far), 2000},
		{"overlapping union", k.Union(a, half), 1500},
		{"self difference", k.Difference(a, a), 0},
		{"half difference", k.Difference(a, half), 500},
		{"half intersection", k.Intersection(a, half), 500},
		{"disjoint intersection", k.Intersection(a, far), 0},
		{"union with empty", k.Union(k.Empty(), a), 1000},
		{"difference with empty", k.Difference(a, k.Empty()), 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := volume(k, tt.s); !approx(got, tt.want, 1e-3) {
				t.Errorf("volume = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBooleansDoNotModifyInputs(t *testing.T) {
	k := New()
	a := k.Cuboid(10, 10, 10)
	b := k.Translate(k.Cuboid(10, 10, 10), 5, 5, 5)
	before := len(k.Polygons(a))
	_ = k.Difference(a, b)
	_ = k.Union(a, b)
	if after := len(k.Polygons(a)); after != before {
		t.Errorf("input polygon count changed: %d -> %d", before, after)
	}
	if got := volume(k, a); !approx(got, 1000, tol) {
		t.Errorf("input volume changed to %v", got)
	}
}

// --- transforms ---

func TestTransforms(t *testing.T) {
	k := New()
	box := k.Cuboid(2, 4, 6)

	t.Run("translate", func(t *testing.T) {
		min, max, _ := k.Translate(box, 1, 2, 3).BoundingBox()
		if min != [3]float64{1, 2, 3} || max != [3]float64{3, 6, 9} {
			t.Errorf("bbox = %v %v", min, max)
		}
	})
	t.Run("rotate z quarter turn", func(t *testing.T) {
		min, max, _ := k.Rotate(box, 0, 0, math.Pi/2).BoundingBox()
		if !approx(min[0], -4, tol) || !approx(max[0], 0, tol) || !approx(max[1], 2, tol) {
			t.Errorf("bbox = %v %v", min, max)
		}
	})
	t.Run("scale keeps orientation", func(t *testing.T) {
		s := k.Scale(box, 2, 2, 2)
		if got := volume(k, s); !approx(got, 48*8, 1e-6) {
			t.Errorf("volume = %v, want %v", got, 48*8)
		}
	})
	t.Run("negative scale flips winding", func(t *testing.T) {
		s := k.Scale(box, -1, 1, 1)
		if got := volume(k, s); !approx(got, 48, 1e-6) {
			t.Errorf("volume = %v, want 48", got)
		}
	})
	t.Run("mirror", func(t *testing.T) {
		s := k.Mirror(box, kernel.PlaneThrough([3]float64{1, 0, 0}, [3]float64{0, 0, 0}))
		min, max, _ := s.BoundingBox()
		if !approx(min[0], -2, tol) || !approx(max[0], 0, tol) {
			t.Errorf("bbox = %v %v", min, max)
		}
		if got := volume(k, s); !approx(got, 48, 1e-6) {
			t.Errorf("volume = %v, want 48", got)
		}
	})
	t.Run("center", func(t *testing.T) {
		min, max, _ := k.Center(box).BoundingBox()
		if min != [3]float64{-1, -2, -3} || max != [3]float64{1, 2, 3} {
			t.Errorf("bbox = %v %v", min, max)
		}
	})
	t.Run("float", func(t *testing.T) {
		min, _, _ := k.Float(k.Translate(box, 0, 0, -10)).BoundingBox()
		if !approx(min[2], 0, tol) {
			t.Errorf("min z = %v, want 0", min[2])
		}
	})
}

// --- topology ---

func TestTriangulate(t *testing.T) {
	k := New()
	tri := k.Triangulate(k.Cuboid(1, 1, 1))
	polys := k.Polygons(tri)
	if len(polys) != 12 {
		t.Fatalf("got %d triangles, want 12", len(polys))
	}
	for i, p := range polys {
		if len(p.Vertices) != 3 {
			t.Fatalf("polygon %d has %d vertices", i, len(p.Vertices))
		}
	}
	if got := volume(k, tri); !approx(got, 1, tol) {
		t.Errorf("volume = %v, want 1", got)
	}
}

func TestTriangulateConcave(t *testing.T) {
	// An L-shaped loop in the XY plane.
	l := polygon{}
	for _, p := range [][2]float64{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}} {
		l.verts = append(l.verts, vertex{pos: toVec([3]float64{p[0], p[1], 0})})
	}
	l, ok := newPolygon(l.verts)
	if !ok {
		t.Fatal("L polygon rejected")
	}
	tris := triangulate(l)
	if len(tris) != 4 {
		t.Fatalf("got %d triangles, want 4", len(tris))
	}
	var area float64
	for _, tr := range tris {
		area += newellNormal(tr.verts).Length() / 2
	}
	if !approx(area, 3, tol) {
		t.Errorf("area = %v, want 3", area)
	}
}

func TestConvexHull(t *testing.T) {
	k := New()
	two := k.Union(k.Cuboid(1, 1, 1), k.Translate(k.Cuboid(1, 1, 1), 3, 0, 0))
	hull := k.ConvexHull(two)
	if got := volume(k, hull); !approx(got, 4, 1e-6) {
		t.Errorf("hull volume = %v, want 4", got)
	}
	if got := volume(k, two); !approx(got, 2, 1e-6) {
		t.Errorf("source volume changed to %v", got)
	}
}

func TestConvexHullDegenerate(t *testing.T) {
	k := New()
	flat := k.FromPolygons([]kernel.Polygon{
		{Vertices: []kernel.Vertex{{Pos: [3]float64{0, 0, 0}}, {Pos: [3]float64{1, 0, 0}}, {Pos: [3]float64{0, 1, 0}}}},
	})
	if n := len(k.Polygons(k.ConvexHull(flat))); n != 0 {
		t.Errorf("got %d hull faces for coplanar input, want 0", n)
	}
}

func TestTaubinSmoothPreservesShape(t *testing.T) {
	k := New()
	s := k.Sphere(10, 24, 12)
	smoothed := k.TaubinSmooth(s, 0.5, -0.53, 5, true)
	v0, v1 := volume(k, s), volume(k, smoothed)
	if v1 <= 0 {
		t.Fatalf("smoothed volume = %v", v1)
	}
	if math.Abs(v1-v0)/v0 > 0.1 {
		t.Errorf("smoothing changed volume from %v to %v", v0, v1)
	}
}

// --- output ---

func TestToMesh(t *testing.T) {
	k := New()
	mesh, err := k.ToMesh(k.Cuboid(1, 2, 3))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.TriangleCount() != 12 {
		t.Errorf("triangle count = %d, want 12", mesh.TriangleCount())
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
}

func TestToSTLBinary(t *testing.T) {
	k := New()
	data, err := k.ToSTLBinary(k.Cuboid(1, 1, 1), "box")
	if err != nil {
		t.Fatalf("ToSTLBinary failed: %v", err)
	}
	if len(data) != 84+12*50 {
		t.Fatalf("len = %d, want %d", len(data), 84+12*50)
	}
	if !bytes.HasPrefix(data, []byte("box")) {
		t.Error("header does not start with name")
	}
	if n := binary.LittleEndian.Uint32(data[80:84]); n != 12 {
		t.Errorf("facet count = %d, want 12", n)
	}
}

func TestToSTLASCII(t *testing.T) {
	k := New()
	text, err := k.ToSTLASCII(k.Cuboid(1, 1, 1), "box")
	if err != nil {
		t.Fatalf("ToSTLASCII failed: %v", err)
	}
	if !strings.HasPrefix(text, "solid box\n") || !strings.HasSuffix(text, "endsolid box\n") {
		t.Errorf("unexpected framing:\n%s", text)
	}
	if n := strings.Count(text, "facet normal"); n != 12 {
		t.Errorf("facets = %d, want 12", n)
	}
}

func TestToAMF(t *testing.T) {
	k := New()
	text, err := k.ToAMF(k.Cuboid(1, 1, 1), "box", "mm")
	if err != nil {
		t.Fatalf("ToAMF failed: %v", err)
	}
	for _, want := range []string{`unit="millimeter"`, `<metadata type="name">box</metadata>`, "<triangle>"} {
		if !strings.Contains(text, want) {
			t.Errorf("AMF missing %q", want)
		}
	}
	if n := strings.Count(text, "<vertex>"); n != 8 {
		t.Errorf("vertex count = %d, want 8 shared corners", n)
	}
}

func TestFree(t *testing.T) {
	k := New()
	s := k.Cuboid(1, 1, 1)
	k.Free(s)
	if _, _, ok := s.BoundingBox(); ok {
		t.Error("freed solid still has geometry")
	}
}

package meshup

import (
	"archive/zip"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func cubes(s *Session, k int) []*Mesh {
	out := make([]*Mesh, k)
	for i := range out {
		out[i] = s.Cube(1).TranslateXYZ(float64(i)*3, 0, 0)
	}
	return out
}

func TestCollectionFlattens(t *testing.T) {
	s, logs := testSession(t)
	a, b, c := s.Cube(1), s.Cube(1), s.Cube(1)
	inner := s.NewMeshCollection(c)
	mc := s.NewMeshCollection(a, []*Mesh{b}, inner, "junk", 3)
	if mc.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", mc.Len())
	}
	if got, _ := mc.Get(2); got != c {
		t.Error("nested collection member not flattened in order")
	}
	if _, ok := mc.Get(3); ok {
		t.Error("Get out of range succeeded")
	}
	if n := strings.Count(logs.String(), "discarding non-mesh"); n != 2 {
		t.Errorf("discard warnings = %d, want 2", n)
	}

	mc.Add(nil)
	if mc.Len() != 3 {
		t.Error("nil mesh added")
	}
	mc.Remove(b)
	if mc.Len() != 2 {
		t.Errorf("Len() after Remove = %d", mc.Len())
	}
}

func TestCollectionFlattensMixedSlice(t *testing.T) {
	s, logs := testSession(t)
	a, b, c := s.Cube(1), s.Cube(2), s.Cube(3)
	mc := s.NewMeshCollection([]any{a, 5, b}, c)
	if mc.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", mc.Len())
	}
	for i, want := range []*Mesh{a, b, c} {
		if got, _ := mc.Get(i); got != want {
			t.Errorf("member %d out of order", i)
		}
	}
	if n := strings.Count(logs.String(), "discarding non-mesh"); n != 1 {
		t.Errorf("discard warnings = %d, want 1", n)
	}

	// Flattening is one level only.
	logs.Reset()
	nested := s.NewMeshCollection([]any{[]any{a}, []*Mesh{b}})
	if nested.Len() != 0 {
		t.Errorf("nested Len() = %d, want 0", nested.Len())
	}
	if n := strings.Count(logs.String(), "discarding non-mesh"); n != 2 {
		t.Errorf("nested discard warnings = %d, want 2", n)
	}
}

func TestCollectionUnion(t *testing.T) {
	s, _ := testSession(t)
	const k = 4
	mc := s.NewMeshCollection(cubes(s, k))
	u := mc.Union()
	if v := mustVolume(t, u); !approx(v, k, 1e-6) {
		t.Errorf("union volume = %v, want %d", v, k)
	}
	extra := s.Cube(1).TranslateXYZ(0, 5, 0)
	if v := mustVolume(t, mc.Union(extra)); !approx(v, k+1, 1e-6) {
		t.Errorf("union with extra volume = %v, want %d", v, k+1)
	}
	if mc.Len() != k {
		t.Error("Union changed the collection")
	}
	if v := mustVolume(t, s.NewMeshCollection().Union()); v != 0 {
		t.Errorf("empty union volume = %v", v)
	}
}

func TestCollectionSubtract(t *testing.T) {
	s, logs := testSession(t)
	mc := s.NewMeshCollection(cubes(s, 2))
	cutter := s.Cuboid(10, 1, 0.5).TranslateXYZ(3, 0, 0.25)
	mc.Subtract(cutter)
	if v, _ := mc.Volume(); !approx(v, 1, 1e-6) {
		t.Errorf("volume after subtract = %v, want 1", v)
	}
	mc.Subtract(s.NewMeshCollection())
	if !strings.Contains(logs.String(), "nothing to subtract") {
		t.Error("empty subtract not logged")
	}
}

func TestCollectionHelpers(t *testing.T) {
	s, _ := testSession(t)
	mc := s.NewMeshCollection(cubes(s, 3))

	count := 0
	mc.ForEach(func(*Mesh, int) { count++ })
	if count != 3 {
		t.Errorf("ForEach visited %d", count)
	}
	far := mc.Filter(func(m *Mesh, _ int) bool {
		c, _ := m.Center()
		return c.X > 1
	})
	if far.Len() != 2 {
		t.Errorf("Filter kept %d, want 2", far.Len())
	}
	total := Reduce(mc, func(acc float64, m *Mesh, _ int) float64 {
		v, _ := m.Volume()
		return acc + v
	}, 0)
	if !approx(total, 3, 1e-6) {
		t.Errorf("Reduce total = %v, want 3", total)
	}
	merged := mc.Reduce(func(acc, m *Mesh, _ int) *Mesh { return acc.Union(m) }, s.NewMesh())
	if v := mustVolume(t, merged); !approx(v, 3, 1e-6) {
		t.Errorf("Reduce union volume = %v", v)
	}

	b, err := mc.BBox()
	if err != nil {
		t.Fatalf("BBox: %v", err)
	}
	if !nearPoint(b.Min, P(-0.5, -0.5, -0.5), tol) || !nearPoint(b.Max, P(6.5, 0.5, 0.5), tol) {
		t.Errorf("BBox = %v..%v", b.Min, b.Max)
	}
	if _, err := s.NewMeshCollection().BBox(); !errors.Is(err, ErrNoBoundingBox) {
		t.Errorf("empty BBox error = %v", err)
	}
}

func TestIntersecting(t *testing.T) {
	s, _ := testSession(t)
	ms := cubes(s, 5)
	mc := s.NewMeshCollection(ms)
	query := Bbox{Min: P(2, -1, -1), Max: P(7, 1, 1)}
	hits, err := mc.Intersecting(query)
	if err != nil {
		t.Fatalf("Intersecting: %v", err)
	}
	if len(hits) != 2 || hits[0] != ms[1] || hits[1] != ms[2] {
		t.Errorf("hits = %d meshes, want members 1 and 2", len(hits))
	}
	none, _ := mc.Intersecting(Bbox{Min: P(100, 100, 100), Max: P(101, 101, 101)})
	if len(none) != 0 {
		t.Errorf("far query hit %d meshes", len(none))
	}
}

func TestCollectionExports(t *testing.T) {
	s, _ := testSession(t)
	mc := s.NewMeshCollection(cubes(s, 2))
	if _, err := mc.ToGLTF(AxisZ); err != nil {
		t.Errorf("ToGLTF: %v", err)
	}

	path := filepath.Join(t.TempDir(), "parts.3mf")
	if err := mc.Save3MF(path); err != nil {
		t.Fatalf("Save3MF: %v", err)
	}
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, ".model") {
			continue
		}
		rc, _ := f.Open()
		buf := new(strings.Builder)
		_, _ = io.Copy(buf, rc)
		rc.Close()
		if n := strings.Count(buf.String(), "<object"); n != 2 {
			t.Errorf("objects in model = %d, want 2", n)
		}
	}

	mc.Dispose()
	for _, m := range mc.Meshes() {
		if !m.IsDisposed() {
			t.Error("member not disposed")
		}
	}
}

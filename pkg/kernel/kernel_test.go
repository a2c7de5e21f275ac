package kernel

import "testing"

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

// --- value helpers ---

func TestPlaneThrough(t *testing.T) {
	p := PlaneThrough([3]float64{0, 0, 1}, [3]float64{4, 5, 6})
	if p.W != 6 {
		t.Errorf("W = %v, want 6", p.W)
	}
}

func TestCornerTypeString(t *testing.T) {
	tests := []struct {
		c    CornerType
		want string
	}{
		{CornerSharp, "sharp"},
		{CornerRound, "round"},
		{CornerSmooth, "smooth"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}

// --- Compose with stub kernels ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64, ok bool) {
	return s.minBB, s.maxBB, true
}

// stubMeshKernel embeds the interface so only the methods under test
// need bodies.
type stubMeshKernel struct {
	MeshKernel
}

func (k *stubMeshKernel) Cuboid(w, d, h float64) Solid {
	return &stubSolid{maxBB: [3]float64{w, d, h}}
}

type stubCurveKernel struct {
	CurveKernel
	calls int
}

func (k *stubCurveKernel) Polyline(_ [][3]float64) (Curve, error) {
	k.calls++
	return nil, nil
}

func TestCompose(t *testing.T) {
	ck := &stubCurveKernel{}
	var k Kernel = Compose(&stubMeshKernel{}, ck)

	s := k.Cuboid(10, 20, 30)
	min, max, ok := s.BoundingBox()
	if !ok || min != [3]float64{} || max != [3]float64{10, 20, 30} {
		t.Errorf("Cuboid bbox = %v %v %v", min, max, ok)
	}
	if _, err := k.Polyline(nil); err != nil {
		t.Fatalf("Polyline: %v", err)
	}
	if ck.calls != 1 {
		t.Errorf("curve kernel calls = %d, want 1", ck.calls)
	}
}

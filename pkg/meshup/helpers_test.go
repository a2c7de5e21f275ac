package meshup

import (
	"bytes"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/chazu/meshup/pkg/kernel"
	"github.com/chazu/meshup/pkg/kernel/csg"
	"github.com/chazu/meshup/pkg/kernel/nurbs"
)

const tol = 1e-6

// testSession returns a session on the default kernels whose log output
// is captured in the returned buffer.
func testSession(t *testing.T, opts ...Option) (*Session, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	opts = append([]Option{WithLogger(logger)}, opts...)
	return NewSession(kernel.Compose(csg.New(), nurbs.New()), opts...), &buf
}

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func nearPoint(a, b Point, eps float64) bool {
	return approx(a.X, b.X, eps) && approx(a.Y, b.Y, eps) && approx(a.Z, b.Z, eps)
}

func mustVolume(t *testing.T, m *Mesh) float64 {
	t.Helper()
	v, err := m.Volume()
	if err != nil {
		t.Fatalf("Volume: %v", err)
	}
	return v
}

func mustBBox(t *testing.T, m *Mesh) Bbox {
	t.Helper()
	b, err := m.BBox()
	if err != nil {
		t.Fatalf("BBox: %v", err)
	}
	return b
}

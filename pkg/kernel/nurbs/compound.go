package nurbs

import (
	"math"

	"github.com/chazu/meshup/pkg/kernel"
	"github.com/ungerik/go3d/float64/vec3"
)

// Compound is a chain of curves. Span i occupies the parameter
// interval [i, i+1].
type Compound struct {
	spans []*Curve
}

// NewCompound joins spans end to end. Spans are not copied.
func NewCompound(spans ...*Curve) *Compound {
	return &Compound{spans: spans}
}

// Spans returns the member curves.
func (cc *Compound) Spans() []kernel.Curve {
	out := make([]kernel.Curve, len(cc.spans))
	for i, s := range cc.spans {
		out[i] = s
	}
	return out
}

// Domain returns [0, number of spans].
func (cc *Compound) Domain() (t0, t1 float64) {
	return 0, float64(len(cc.spans))
}

// Length returns the summed span lengths.
func (cc *Compound) Length() float64 {
	var l float64
	for _, s := range cc.spans {
		l += s.Length()
	}
	return l
}

// PointAt evaluates the span covering t.
func (cc *Compound) PointAt(t float64) [3]float64 {
	if len(cc.spans) == 0 {
		return [3]float64{}
	}
	i := int(math.Floor(t))
	i = max(0, min(i, len(cc.spans)-1))
	local := math.Max(0, math.Min(1, t-float64(i)))
	s := cc.spans[i]
	a, b := s.Domain()
	return s.PointAt(a + local*(b-a))
}

// Tessellate concatenates span tessellations.
func (cc *Compound) Tessellate(tol float64) [][3]float64 {
	var pts []vec3.T
	for _, s := range cc.spans {
		for _, p := range s.Tessellate(tol) {
			pts = append(pts, vec3.T(p))
		}
	}
	pts = dedupe(pts)
	out := make([][3]float64, len(pts))
	for i, p := range pts {
		out[i] = [3]float64(p)
	}
	return out
}

// BoundingBox returns the box around every span.
func (cc *Compound) BoundingBox() (min, max [3]float64, ok bool) {
	return boundsOf(cc.Tessellate(1e-6))
}

// ControlPoints is empty for compound curves.
func (cc *Compound) ControlPoints() [][3]float64 {
	return nil
}

// OnPlane returns the plane shared by every span's control points.
func (cc *Compound) OnPlane(tol float64) (kernel.Frame, bool) {
	var pts []vec3.T
	for _, s := range cc.spans {
		if _, ok := s.OnPlane(tol); !ok {
			return kernel.Frame{}, false
		}
		pts = append(pts, s.ctrl...)
	}
	return planeOf(pts, tol)
}

// Clone returns an independent copy.
func (cc *Compound) Clone() kernel.CurveShape {
	return cc.mapSpans(func(s *Curve) *Curve { return s.clone() })
}

func (cc *Compound) mapSpans(f func(*Curve) *Curve) *Compound {
	out := &Compound{spans: make([]*Curve, len(cc.spans))}
	for i, s := range cc.spans {
		out.spans[i] = f(s)
	}
	return out
}

// Translate moves every span.
func (cc *Compound) Translate(x, y, z float64) kernel.CurveShape {
	return cc.mapSpans(func(s *Curve) *Curve { return s.translate(x, y, z) })
}

// Rotate rotates every span about the origin.
func (cc *Compound) Rotate(x, y, z float64) kernel.CurveShape {
	return cc.mapSpans(func(s *Curve) *Curve { return s.rotate(x, y, z) })
}

// Scale scales every span about the origin.
func (cc *Compound) Scale(x, y, z float64) kernel.CurveShape {
	return cc.mapSpans(func(s *Curve) *Curve { return s.scale(x, y, z) })
}

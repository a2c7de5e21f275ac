// Package nurbs implements kernel.CurveKernel with rational B-spline
// curves. Control points are github.com/ungerik/go3d float64 vectors.
package nurbs

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/meshup/pkg/kernel"
	"github.com/ungerik/go3d/float64/vec3"
)

// Compile-time interface checks.
var (
	_ kernel.CurveKernel = (*Kernel)(nil)
	_ kernel.Curve       = (*Curve)(nil)
	_ kernel.Compound    = (*Compound)(nil)
)

var (
	// ErrTooFewPoints is returned when a curve needs more input points.
	ErrTooFewPoints = errors.New("nurbs: too few points")
	// ErrNotPlanar is returned by operations that need a planar curve.
	ErrNotPlanar = errors.New("nurbs: curve is not planar")
)

// Kernel implements kernel.CurveKernel.
type Kernel struct{}

// New returns a new Kernel.
func New() *Kernel {
	return &Kernel{}
}

// Curve is a single NURBS curve.
type Curve struct {
	degree  int
	ctrl    []vec3.T
	weights []float64
	knots   []float64
}

// Polyline returns a degree-1 curve through points. Consecutive
// duplicates are dropped; a single point yields a zero-length curve.
func (k *Kernel) Polyline(points [][3]float64) (kernel.Curve, error) {
	return polyline(toVecs(points))
}

func polyline(pts []vec3.T) (*Curve, error) {
	pts = dedupe(pts)
	if len(pts) == 0 {
		return nil, fmt.Errorf("polyline: %w", ErrTooFewPoints)
	}
	if len(pts) == 1 {
		pts = append(pts, pts[0])
	}
	params := chordParams(pts)
	knots := make([]float64, 0, len(pts)+2)
	knots = append(knots, 0)
	knots = append(knots, params...)
	knots = append(knots, 1)
	return &Curve{degree: 1, ctrl: pts, weights: ones(len(pts)), knots: knots}, nil
}

// Interpolated returns a curve of the given degree passing through
// every point, using chord-length parameters and averaged knots. The
// degree is lowered when there are too few points to support it.
func (k *Kernel) Interpolated(points [][3]float64, degree int) (kernel.Curve, error) {
	return interpolate(toVecs(points), degree)
}

func interpolate(pts []vec3.T, degree int) (*Curve, error) {
	pts = dedupe(pts)
	if len(pts) < 2 {
		return nil, fmt.Errorf("interpolate: %w: need 2, got %d", ErrTooFewPoints, len(pts))
	}
	p := min(max(degree, 1), len(pts)-1)
	if p == 1 {
		return polyline(pts)
	}

	n := len(pts)
	params := chordParams(pts)

	knots := make([]float64, n+p+1)
	for j := 1; j < n-p; j++ {
		var sum float64
		for i := j; i < j+p; i++ {
			sum += params[i]
		}
		knots[j+p] = sum / float64(p)
	}
	for i := n; i < n+p+1; i++ {
		knots[i] = 1
	}

	a := make([][]float64, n)
	for i, u := range params {
		a[i] = make([]float64, n)
		span := findSpan(n-1, p, u, knots)
		basis := basisFuns(span, u, p, knots)
		for j := 0; j <= p; j++ {
			a[i][span-p+j] = basis[j]
		}
	}
	rhs := make([][]float64, n)
	for i, q := range pts {
		rhs[i] = []float64{q[0], q[1], q[2]}
	}
	sol, err := solve(a, rhs)
	if err != nil {
		return nil, fmt.Errorf("interpolate: %w", err)
	}
	ctrl := make([]vec3.T, n)
	for i, row := range sol {
		ctrl[i] = vec3.T{row[0], row[1], row[2]}
	}
	return &Curve{degree: p, ctrl: ctrl, weights: ones(n), knots: knots}, nil
}

// chordParams returns normalized cumulative chord lengths in [0, 1].
func chordParams(pts []vec3.T) []float64 {
	params := make([]float64, len(pts))
	var total float64
	for i := 1; i < len(pts); i++ {
		total += vec3.Distance(&pts[i-1], &pts[i])
		params[i] = total
	}
	if total == 0 {
		for i := range params {
			params[i] = float64(i) / float64(max(len(params)-1, 1))
		}
		return params
	}
	for i := range params {
		params[i] /= total
	}
	params[len(params)-1] = 1
	return params
}

// --- evaluation ---

// findSpan returns the knot span index containing u, where n is the
// index of the last control point.
func findSpan(n, p int, u float64, knots []float64) int {
	if u >= knots[n+1] {
		return n
	}
	if u <= knots[p] {
		return p
	}
	low, high := p, n+1
	mid := (low + high) / 2
	for u < knots[mid] || u >= knots[mid+1] {
		if u < knots[mid] {
			high = mid
		} else {
			low = mid
		}
		mid = (low + high) / 2
	}
	return mid
}

// basisFuns returns the p+1 non-vanishing basis functions at u.
func basisFuns(span int, u float64, p int, knots []float64) []float64 {
	n := make([]float64, p+1)
	left := make([]float64, p+1)
	right := make([]float64, p+1)
	n[0] = 1
	for j := 1; j <= p; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		var saved float64
		for r := 0; r < j; r++ {
			temp := n[r] / (right[r+1] + left[j-r])
			n[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		n[j] = saved
	}
	return n
}

// Domain returns the parameter range.
func (c *Curve) Domain() (t0, t1 float64) {
	return c.knots[c.degree], c.knots[len(c.knots)-c.degree-1]
}

func (c *Curve) clamp(t float64) float64 {
	t0, t1 := c.Domain()
	return math.Max(t0, math.Min(t1, t))
}

func (c *Curve) eval(t float64) vec3.T {
	t = c.clamp(t)
	p := c.degree
	span := findSpan(len(c.ctrl)-1, p, t, c.knots)

	// de Boor on homogeneous coordinates.
	d := make([][4]float64, p+1)
	for j := 0; j <= p; j++ {
		i := span - p + j
		w := c.weights[i]
		d[j] = [4]float64{c.ctrl[i][0] * w, c.ctrl[i][1] * w, c.ctrl[i][2] * w, w}
	}
	for r := 1; r <= p; r++ {
		for j := p; j >= r; j-- {
			i := span - p + j
			den := c.knots[i+p-r+1] - c.knots[i]
			alpha := 0.0
			if den != 0 {
				alpha = (t - c.knots[i]) / den
			}
			for m := 0; m < 4; m++ {
				d[j][m] = (1-alpha)*d[j-1][m] + alpha*d[j][m]
			}
		}
	}
	h := d[p]
	if h[3] == 0 {
		return vec3.T{h[0], h[1], h[2]}
	}
	return vec3.T{h[0] / h[3], h[1] / h[3], h[2] / h[3]}
}

// PointAt evaluates the curve at t, clamped to the domain.
func (c *Curve) PointAt(t float64) [3]float64 {
	return [3]float64(c.eval(t))
}

// Degree returns the polynomial degree.
func (c *Curve) Degree() int { return c.degree }

// Knots returns a copy of the knot vector.
func (c *Curve) Knots() []float64 { return append([]float64(nil), c.knots...) }

// Weights returns a copy of the control point weights.
func (c *Curve) Weights() []float64 { return append([]float64(nil), c.weights...) }

// ControlPoints returns copies of the control points.
func (c *Curve) ControlPoints() [][3]float64 {
	out := make([][3]float64, len(c.ctrl))
	for i, p := range c.ctrl {
		out[i] = [3]float64(p)
	}
	return out
}

// Clone returns an independent copy.
func (c *Curve) Clone() kernel.CurveShape { return c.clone() }

func (c *Curve) clone() *Curve {
	return &Curve{
		degree:  c.degree,
		ctrl:    append([]vec3.T(nil), c.ctrl...),
		weights: append([]float64(nil), c.weights...),
		knots:   append([]float64(nil), c.knots...),
	}
}

// --- helpers ---

func toVecs(points [][3]float64) []vec3.T {
	out := make([]vec3.T, len(points))
	for i, p := range points {
		out[i] = vec3.T(p)
	}
	return out
}

func dedupe(pts []vec3.T) []vec3.T {
	out := make([]vec3.T, 0, len(pts))
	for i := range pts {
		if len(out) > 0 && vec3.Distance(&out[len(out)-1], &pts[i]) < 1e-12 {
			continue
		}
		out = append(out, pts[i])
	}
	return out
}

func ones(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

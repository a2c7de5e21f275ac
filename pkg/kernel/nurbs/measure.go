package nurbs

import (
	"math"
	"sort"

	"github.com/ungerik/go3d/float64/vec3"
)

const (
	maxDepth     = 18
	curvedMinDiv = 3
)

// intervals returns the non-empty knot spans inside the domain.
func (c *Curve) intervals() [][2]float64 {
	t0, t1 := c.Domain()
	var out [][2]float64
	prev := t0
	for _, k := range c.knots {
		if k <= prev || k > t1 {
			continue
		}
		out = append(out, [2]float64{prev, k})
		prev = k
	}
	return out
}

func (c *Curve) minDepth() int {
	if c.degree == 1 {
		return 0
	}
	return curvedMinDiv
}

type arcSample struct {
	t, s float64
}

// arcTable samples the curve adaptively and records cumulative chord
// length. Samples lie on every knot, so straight spans are exact.
func (c *Curve) arcTable() []arcSample {
	t0, _ := c.Domain()
	out := []arcSample{{t: t0}}
	for _, iv := range c.intervals() {
		c.refineArc(iv[0], iv[1], c.eval(iv[0]), c.eval(iv[1]), 0, &out)
	}
	return out
}

func (c *Curve) refineArc(a, b float64, pa, pb vec3.T, depth int, out *[]arcSample) {
	m := (a + b) / 2
	pm := c.eval(m)
	d1 := vec3.Distance(&pa, &pm)
	d2 := vec3.Distance(&pm, &pb)
	chord := vec3.Distance(&pa, &pb)
	halves := d1 + d2
	if depth >= maxDepth || (depth >= c.minDepth() && halves-chord <= 1e-10*math.Max(halves, 1e-12)) {
		s := (*out)[len(*out)-1].s
		*out = append(*out, arcSample{t: m, s: s + d1}, arcSample{t: b, s: s + halves})
		return
	}
	c.refineArc(a, m, pa, pm, depth+1, out)
	c.refineArc(m, b, pm, pb, depth+1, out)
}

// Length returns the arc length.
func (c *Curve) Length() float64 {
	table := c.arcTable()
	return table[len(table)-1].s
}

// ParamAtLength returns the parameter at arc length l from the start,
// clamped to the curve.
func (c *Curve) ParamAtLength(l float64) float64 {
	table := c.arcTable()
	total := table[len(table)-1].s
	if l <= 0 || total == 0 {
		return table[0].t
	}
	if l >= total {
		return table[len(table)-1].t
	}
	i := sort.Search(len(table), func(i int) bool { return table[i].s >= l })
	lo, hi := table[i-1], table[i]
	if hi.s == lo.s {
		return hi.t
	}
	return lo.t + (hi.t-lo.t)*(l-lo.s)/(hi.s-lo.s)
}

// ParamClosestTo returns the parameter of the curve point nearest p.
func (c *Curve) ParamClosestTo(p [3]float64) float64 {
	q := vec3.T(p)
	dist := func(t float64) float64 {
		pt := c.eval(t)
		return vec3.Distance(&pt, &q)
	}

	table := c.arcTable()
	best := 0
	bestD := math.Inf(1)
	for i, s := range table {
		if d := dist(s.t); d < bestD {
			best, bestD = i, d
		}
	}

	lo := table[max(best-1, 0)].t
	hi := table[min(best+1, len(table)-1)].t
	t := goldenSection(dist, lo, hi)
	if dist(t) < bestD {
		return t
	}
	return table[best].t
}

// goldenSection minimizes f on [a, b].
func goldenSection(f func(float64) float64, a, b float64) float64 {
	const invPhi = 0.6180339887498949
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)
	for i := 0; i < 100 && b-a > 1e-14; i++ {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return (a + b) / 2
}

// Tessellate returns points along the curve whose chords deviate from
// the curve by at most tol.
func (c *Curve) Tessellate(tol float64) [][3]float64 {
	tol = math.Max(tol, 1e-9)
	t0, _ := c.Domain()
	pts := []vec3.T{c.eval(t0)}
	for _, iv := range c.intervals() {
		if c.degree == 1 {
			pts = append(pts, c.eval(iv[1]))
			continue
		}
		c.refineTess(iv[0], iv[1], c.eval(iv[0]), c.eval(iv[1]), tol, 0, &pts)
	}
	pts = dedupe(pts)
	out := make([][3]float64, len(pts))
	for i, p := range pts {
		out[i] = [3]float64(p)
	}
	return out
}

func (c *Curve) refineTess(a, b float64, pa, pb vec3.T, tol float64, depth int, out *[]vec3.T) {
	m := (a + b) / 2
	pm := c.eval(m)
	mid := vec3.Interpolate(&pa, &pb, 0.5)
	if depth >= maxDepth || (depth >= curvedMinDiv && vec3.Distance(&pm, &mid) <= tol) {
		*out = append(*out, pb)
		return
	}
	c.refineTess(a, m, pa, pm, tol, depth+1, out)
	c.refineTess(m, b, pm, pb, tol, depth+1, out)
}

// BoundingBox returns the box around a fine tessellation.
func (c *Curve) BoundingBox() (min, max [3]float64, ok bool) {
	return boundsOf(c.Tessellate(1e-6))
}

func boundsOf(pts [][3]float64) (lo, hi [3]float64, ok bool) {
	if len(pts) == 0 {
		return lo, hi, false
	}
	lo, hi = pts[0], pts[0]
	for _, p := range pts[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], p[i])
			hi[i] = math.Max(hi[i], p[i])
		}
	}
	return lo, hi, true
}

package nurbs

import (
	"math"

	"github.com/chazu/meshup/pkg/kernel"
	"github.com/ungerik/go3d/float64/vec3"
)

var globalAxes = [3]vec3.T{vec3.UnitX, vec3.UnitY, vec3.UnitZ}

// OnPlane returns the plane holding every control point.
func (c *Curve) OnPlane(tol float64) (kernel.Frame, bool) {
	return planeOf(c.ctrl, tol)
}

// planeOf fits a plane through pts. Collinear point sets lie on many
// planes; the one whose normal is the most perpendicular global axis
// is chosen, preferring Z, then Y, then X.
func planeOf(pts []vec3.T, tol float64) (kernel.Frame, bool) {
	if len(pts) == 0 {
		return kernel.Frame{}, false
	}
	tol = math.Max(tol, 1e-12)
	origin := pts[0]

	far := farthestFrom(pts, func(p vec3.T) float64 { return vec3.Distance(&p, &origin) })
	dir := vec3.Sub(&pts[far], &origin)

	var n vec3.T
	if dir.Length() <= tol {
		n = vec3.UnitZ
	} else {
		dir = dir.Normalized()
		off := farthestFrom(pts, func(p vec3.T) float64 {
			v := vec3.Sub(&p, &origin)
			c := vec3.Cross(&dir, &v)
			return c.Length()
		})
		v := vec3.Sub(&pts[off], &origin)
		cr := vec3.Cross(&dir, &v)
		if cr.Length() <= tol {
			n = perpendicularAxis(dir)
		} else {
			n = cr.Normalized()
		}
	}

	for i := range pts {
		v := vec3.Sub(&pts[i], &origin)
		if math.Abs(vec3.Dot(&n, &v)) > tol {
			return kernel.Frame{}, false
		}
	}
	return frameFor(n), true
}

func farthestFrom(pts []vec3.T, d func(vec3.T) float64) int {
	best, bestD := 0, -1.0
	for i, p := range pts {
		if v := d(p); v > bestD {
			best, bestD = i, v
		}
	}
	return best
}

func perpendicularAxis(dir vec3.T) vec3.T {
	for _, a := range []vec3.T{vec3.UnitZ, vec3.UnitY, vec3.UnitX} {
		if math.Abs(vec3.Dot(&a, &dir)) < 1e-9 {
			return a
		}
	}
	least := globalAxes[0]
	for _, a := range globalAxes[1:] {
		if math.Abs(vec3.Dot(&a, &dir)) < math.Abs(vec3.Dot(&least, &dir)) {
			least = a
		}
	}
	c := vec3.Cross(&dir, &least)
	return c.Normalized()
}

// frameFor builds a right-handed frame around n with its x axis taken
// from the global axis closest to the plane.
func frameFor(n vec3.T) kernel.Frame {
	// Flip so the dominant component is positive.
	dom := 0
	for i := 1; i < 3; i++ {
		if math.Abs(n[i]) > math.Abs(n[dom]) {
			dom = i
		}
	}
	if n[dom] < 0 {
		n = n.Scaled(-1)
	}

	x := globalAxes[0]
	for _, a := range globalAxes[1:] {
		if math.Abs(vec3.Dot(&a, &n)) < math.Abs(vec3.Dot(&x, &n))-1e-12 {
			x = a
		}
	}
	proj := n.Scaled(vec3.Dot(&x, &n))
	x = vec3.Sub(&x, &proj)
	x = x.Normalized()
	y := vec3.Cross(&n, &x)
	return kernel.Frame{Normal: [3]float64(n), X: [3]float64(x), Y: [3]float64(y)}
}

package nurbs

import (
	"fmt"
	"math"

	"github.com/chazu/meshup/pkg/kernel"
	"github.com/ungerik/go3d/float64/vec3"
)

// planarTol is the flatness tolerance offset uses to find the plane.
const planarTol = 1e-6

// arcStep is the maximum angle between points on round offset corners.
const arcStep = math.Pi / 16

// Offset moves the curve sideways by distance inside its plane. A
// positive distance offsets to the left of the direction of travel when
// looking down the plane normal. Polylines keep their corners according
// to corner; other curves are offset at sample points and interpolated.
func (c *Curve) Offset(distance float64, corner kernel.CornerType) (kernel.Curve, error) {
	frame, ok := c.OnPlane(planarTol)
	if !ok {
		return nil, fmt.Errorf("offset: %w", ErrNotPlanar)
	}
	n := vec3.T(frame.Normal)
	if distance == 0 {
		return c.clone(), nil
	}

	if c.degree != 1 {
		pts := toVecs(c.Tessellate(1e-4))
		off := offsetSamples(pts, n, distance)
		return interpolate(off, 3)
	}

	pts := dedupe(c.ctrl)
	if len(pts) < 2 {
		return c.clone(), nil
	}
	normals := segmentNormals(pts, n)

	var out []vec3.T
	first := normals[0].Scaled(distance)
	out = append(out, vec3.Add(&pts[0], &first))
	for i := 1; i < len(pts)-1; i++ {
		n1, n2 := normals[i-1], normals[i]
		in := vec3.Sub(&pts[i], &pts[i-1])
		nx := vec3.Sub(&pts[i+1], &pts[i])
		turn := vec3.Cross(&in, &nx)
		outside := vec3.Dot(&turn, &n)*distance < 0
		if corner == kernel.CornerRound && outside {
			out = append(out, roundCorner(pts[i], n1, n2, n, distance)...)
			continue
		}
		out = append(out, miter(pts[i], n1, n2, distance))
	}
	last := normals[len(normals)-1].Scaled(distance)
	out = append(out, vec3.Add(&pts[len(pts)-1], &last))

	if corner == kernel.CornerSmooth && len(out) > 2 {
		return interpolate(out, 3)
	}
	return polyline(out)
}

// segmentNormals returns the in-plane left normal of each segment.
func segmentNormals(pts []vec3.T, n vec3.T) []vec3.T {
	out := make([]vec3.T, len(pts)-1)
	for i := range out {
		d := vec3.Sub(&pts[i+1], &pts[i])
		d = d.Normalized()
		l := vec3.Cross(&n, &d)
		out[i] = l.Normalized()
	}
	return out
}

// miter returns the intersection of the two offset segment lines.
func miter(p, n1, n2 vec3.T, distance float64) vec3.T {
	sum := vec3.Add(&n1, &n2)
	den := 1 + vec3.Dot(&n1, &n2)
	if den < 1e-6 {
		off := n1.Scaled(distance)
		return vec3.Add(&p, &off)
	}
	off := sum.Scaled(distance / den)
	return vec3.Add(&p, &off)
}

// roundCorner returns points on the arc around p from n1 to n2.
func roundCorner(p, n1, n2, n vec3.T, distance float64) []vec3.T {
	cosA := math.Max(-1, math.Min(1, vec3.Dot(&n1, &n2)))
	angle := math.Acos(cosA)
	steps := max(1, int(math.Ceil(angle/arcStep)))
	cr := vec3.Cross(&n1, &n2)
	sign := 1.0
	if vec3.Dot(&cr, &n) < 0 {
		sign = -1
	}
	out := make([]vec3.T, 0, steps+1)
	for s := 0; s <= steps; s++ {
		a := sign * angle * float64(s) / float64(steps)
		dir := rotateAbout(n1, n, a)
		off := dir.Scaled(distance)
		out = append(out, vec3.Add(&p, &off))
	}
	return out
}

// rotateAbout rotates v by angle around the unit axis k (Rodrigues).
func rotateAbout(v, k vec3.T, angle float64) vec3.T {
	s, c := math.Sincos(angle)
	kxv := vec3.Cross(&k, &v)
	kv := vec3.Dot(&k, &v)
	a := v.Scaled(c)
	b := kxv.Scaled(s)
	d := k.Scaled(kv * (1 - c))
	sum := vec3.Add(&a, &b)
	return vec3.Add(&sum, &d)
}

// offsetSamples moves each sample along the in-plane normal of the local
// tangent estimated from its neighbors.
func offsetSamples(pts []vec3.T, n vec3.T, distance float64) []vec3.T {
	out := make([]vec3.T, len(pts))
	for i := range pts {
		a := pts[max(i-1, 0)]
		b := pts[min(i+1, len(pts)-1)]
		tan := vec3.Sub(&b, &a)
		tan = tan.Normalized()
		l := vec3.Cross(&n, &tan)
		off := l.Scaled(distance)
		out[i] = vec3.Add(&pts[i], &off)
	}
	return out
}

package csg

import (
	"math"

	"github.com/chazu/meshup/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

type hullFace struct {
	a, b, c int
	n       v3.Vec
	w       float64
}

func newHullFace(pts []v3.Vec, a, b, c int) hullFace {
	n := pts[b].Sub(pts[a]).Cross(pts[c].Sub(pts[a])).Normalize()
	return hullFace{a: a, b: b, c: c, n: n, w: n.Dot(pts[a])}
}

// ConvexHull returns the convex hull of the solid's vertices. Inputs
// whose vertices are all coplanar produce an empty solid.
func (k *Kernel) ConvexHull(s kernel.Solid) kernel.Solid {
	pts := uniquePositions(unwrap(s))
	faces := quickHull(pts)
	out := make([]polygon, 0, len(faces))
	for _, f := range faces {
		verts := []vertex{
			{pos: pts[f.a], normal: f.n},
			{pos: pts[f.b], normal: f.n},
			{pos: pts[f.c], normal: f.n},
		}
		if p, ok := newPolygon(verts); ok {
			out = append(out, p)
		}
	}
	return wrap(out)
}

func uniquePositions(polys []polygon) []v3.Vec {
	seen := make(map[[3]int64]bool)
	var pts []v3.Vec
	for _, p := range polys {
		for _, v := range p.verts {
			key := weldKey(v.pos)
			if seen[key] {
				continue
			}
			seen[key] = true
			pts = append(pts, v.pos)
		}
	}
	return pts
}

// quickHull builds the hull incrementally: start from a tetrahedron of
// extreme points, then add each remaining point by replacing the faces
// it can see with a fan to their horizon.
func quickHull(pts []v3.Vec) []hullFace {
	if len(pts) < 4 {
		return nil
	}
	var scale float64
	for _, p := range pts {
		scale = math.Max(scale, math.Max(math.Abs(p.X), math.Max(math.Abs(p.Y), math.Abs(p.Z))))
	}
	eps := 1e-9 * math.Max(scale, 1)

	i0 := 0
	i1 := farthest(pts, func(p v3.Vec) float64 { return p.Sub(pts[i0]).Length() })
	dir := pts[i1].Sub(pts[i0])
	if dir.Length() <= eps {
		return nil
	}
	i2 := farthest(pts, func(p v3.Vec) float64 { return dir.Cross(p.Sub(pts[i0])).Length() })
	n := dir.Cross(pts[i2].Sub(pts[i0]))
	if n.Length() <= eps {
		return nil
	}
	n = n.Normalize()
	i3 := farthest(pts, func(p v3.Vec) float64 { return math.Abs(n.Dot(p.Sub(pts[i0]))) })
	if math.Abs(n.Dot(pts[i3].Sub(pts[i0]))) <= eps {
		return nil
	}

	centroid := pts[i0].Add(pts[i1]).Add(pts[i2]).Add(pts[i3]).MulScalar(0.25)
	orient := func(a, b, c int) hullFace {
		f := newHullFace(pts, a, b, c)
		if f.n.Dot(centroid)-f.w > 0 {
			f = newHullFace(pts, a, c, b)
		}
		return f
	}
	faces := []hullFace{
		orient(i0, i1, i2),
		orient(i0, i1, i3),
		orient(i0, i2, i3),
		orient(i1, i2, i3),
	}

	for pi, p := range pts {
		if pi == i0 || pi == i1 || pi == i2 || pi == i3 {
			continue
		}
		visible := make(map[[2]int]bool)
		kept := faces[:0:0]
		for _, f := range faces {
			if f.n.Dot(p)-f.w > eps {
				visible[[2]int{f.a, f.b}] = true
				visible[[2]int{f.b, f.c}] = true
				visible[[2]int{f.c, f.a}] = true
				continue
			}
			kept = append(kept, f)
		}
		if len(visible) == 0 {
			continue
		}
		for _, f := range faces {
			if f.n.Dot(p)-f.w <= eps {
				continue
			}
			for _, e := range [][2]int{{f.a, f.b}, {f.b, f.c}, {f.c, f.a}} {
				if !visible[[2]int{e[1], e[0]}] {
					kept = append(kept, newHullFace(pts, e[0], e[1], pi))
				}
			}
		}
		faces = kept
	}
	return faces
}

func farthest(pts []v3.Vec, dist func(v3.Vec) float64) int {
	best, bestD := 0, -1.0
	for i, p := range pts {
		if d := dist(p); d > bestD {
			best, bestD = i, d
		}
	}
	return best
}

package csg

import (
	"math"

	"github.com/chazu/meshup/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// epsilon is the plane classification tolerance.
const epsilon = 1e-5

type vertex struct {
	pos    v3.Vec
	normal v3.Vec
}

// lerp returns the vertex a fraction t of the way from v to o.
func (v vertex) lerp(o vertex, t float64) vertex {
	return vertex{
		pos:    v.pos.Add(o.pos.Sub(v.pos).MulScalar(t)),
		normal: v.normal.Add(o.normal.Sub(v.normal).MulScalar(t)),
	}
}

type plane struct {
	n v3.Vec
	w float64
}

func (p plane) flip() plane {
	return plane{n: p.n.Neg(), w: -p.w}
}

func (p plane) distance(v v3.Vec) float64 {
	return p.n.Dot(v) - p.w
}

// polygon is a planar loop of vertices. Polygons are treated as values:
// nothing mutates verts in place, so slices may be shared freely.
type polygon struct {
	verts []vertex
	plane plane
}

// newPolygon builds a polygon and derives its plane from the vertex
// loop. ok is false for loops with fewer than three vertices or no area.
func newPolygon(verts []vertex) (polygon, bool) {
	if len(verts) < 3 {
		return polygon{}, false
	}
	n := newellNormal(verts)
	l := n.Length()
	if l < 1e-12 {
		return polygon{}, false
	}
	n = n.MulScalar(1 / l)
	return polygon{verts: verts, plane: plane{n: n, w: n.Dot(verts[0].pos)}}, true
}

// newellNormal returns the unnormalized area-weighted normal of the loop.
func newellNormal(verts []vertex) v3.Vec {
	var n v3.Vec
	for i := range verts {
		cur := verts[i].pos
		next := verts[(i+1)%len(verts)].pos
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n
}

func (p polygon) flip() polygon {
	verts := make([]vertex, len(p.verts))
	for i, v := range p.verts {
		verts[len(p.verts)-1-i] = vertex{pos: v.pos, normal: v.normal.Neg()}
	}
	return polygon{verts: verts, plane: p.plane.flip()}
}

func (p polygon) clone() polygon {
	verts := make([]vertex, len(p.verts))
	copy(verts, p.verts)
	return polygon{verts: verts, plane: p.plane}
}

func clonePolygons(polys []polygon) []polygon {
	out := make([]polygon, len(polys))
	for i, p := range polys {
		out[i] = p.clone()
	}
	return out
}

const (
	coplanar = 0
	front    = 1
	back     = 2
	spanning = 3
)

// splitPolygon classifies poly against pl and appends it, or its pieces,
// to the matching lists.
func (pl plane) splitPolygon(poly polygon, coplanarFront, coplanarBack, fronts, backs *[]polygon) {
	polyType := coplanar
	types := make([]int, len(poly.verts))
	for i, v := range poly.verts {
		t := pl.distance(v.pos)
		typ := coplanar
		if t < -epsilon {
			typ = back
		} else if t > epsilon {
			typ = front
		}
		polyType |= typ
		types[i] = typ
	}

	switch polyType {
	case coplanar:
		if pl.n.Dot(poly.plane.n) > 0 {
			*coplanarFront = append(*coplanarFront, poly)
		} else {
			*coplanarBack = append(*coplanarBack, poly)
		}
	case front:
		*fronts = append(*fronts, poly)
	case back:
		*backs = append(*backs, poly)
	case spanning:
		var f, b []vertex
		n := len(poly.verts)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := poly.verts[i], poly.verts[j]
			if ti != back {
				f = append(f, vi)
			}
			if ti != front {
				b = append(b, vi)
			}
			if ti|tj == spanning {
				t := (pl.w - pl.n.Dot(vi.pos)) / pl.n.Dot(vj.pos.Sub(vi.pos))
				v := vi.lerp(vj, t)
				f = append(f, v)
				b = append(b, v)
			}
		}
		if len(f) >= 3 {
			*fronts = append(*fronts, polygon{verts: f, plane: poly.plane})
		}
		if len(b) >= 3 {
			*backs = append(*backs, polygon{verts: b, plane: poly.plane})
		}
	}
}

// --- conversions to and from the kernel value types ---

func toVec(a [3]float64) v3.Vec {
	return v3.Vec{X: a[0], Y: a[1], Z: a[2]}
}

func fromVec(v v3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func fromKernelPolygon(kp kernel.Polygon) (polygon, bool) {
	verts := make([]vertex, len(kp.Vertices))
	for i, kv := range kp.Vertices {
		verts[i] = vertex{pos: toVec(kv.Pos), normal: toVec(kv.Normal)}
	}
	p, ok := newPolygon(verts)
	if !ok {
		return p, false
	}
	for i := range p.verts {
		if p.verts[i].normal.Length() < 1e-12 {
			p.verts[i].normal = p.plane.n
		}
	}
	return p, true
}

func toKernelPolygon(p polygon) kernel.Polygon {
	kp := kernel.Polygon{Vertices: make([]kernel.Vertex, len(p.verts))}
	for i, v := range p.verts {
		kp.Vertices[i] = kernel.Vertex{Pos: fromVec(v.pos), Normal: fromVec(v.normal)}
	}
	return kp
}

func finite(v v3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsNaN(v.Z) &&
		!math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsInf(v.Z, 0)
}

package csg

import (
	"math"

	"github.com/chazu/meshup/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Triangulate splits every polygon into triangles.
func (k *Kernel) Triangulate(s kernel.Solid) kernel.Solid {
	return wrap(triangulateAll(unwrap(s)))
}

// Renormalize recomputes polygon planes and resets vertex normals to
// the face normals.
func (k *Kernel) Renormalize(s kernel.Solid) kernel.Solid {
	polys := unwrap(s)
	out := make([]polygon, 0, len(polys))
	for _, p := range polys {
		np, ok := newPolygon(p.clone().verts)
		if !ok {
			continue
		}
		for i := range np.verts {
			np.verts[i].normal = np.plane.n
		}
		out = append(out, np)
	}
	return wrap(out)
}

func triangulateAll(polys []polygon) []polygon {
	out := make([]polygon, 0, len(polys)*2)
	for _, p := range polys {
		out = append(out, triangulate(p)...)
	}
	return out
}

// triangulate ear-clips a polygon in its own plane.
func triangulate(p polygon) []polygon {
	n := len(p.verts)
	if n == 3 {
		return []polygon{p.clone()}
	}
	u, v := planeBasis(p.plane.n)
	pts := make([][2]float64, n)
	for i, vt := range p.verts {
		pts[i] = [2]float64{vt.pos.Dot(u), vt.pos.Dot(v)}
	}

	tri := func(a, b, c int) polygon {
		return polygon{verts: []vertex{p.verts[a], p.verts[b], p.verts[c]}, plane: p.plane}
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	var out []polygon
	for len(idx) > 3 {
		clipped := false
		for i := range idx {
			a := idx[(i+len(idx)-1)%len(idx)]
			b := idx[i]
			c := idx[(i+1)%len(idx)]
			if cross2(pts[a], pts[b], pts[c]) <= 1e-12 {
				continue
			}
			if anyInside(pts, idx, a, b, c) {
				continue
			}
			out = append(out, tri(a, b, c))
			idx = append(idx[:i:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// Degenerate loop: fall back to a fan over what is left.
			for i := 1; i+1 < len(idx); i++ {
				out = append(out, tri(idx[0], idx[i], idx[i+1]))
			}
			return out
		}
	}
	return append(out, tri(idx[0], idx[1], idx[2]))
}

// planeBasis returns unit vectors u, v with u × v = n.
func planeBasis(n v3.Vec) (u, v v3.Vec) {
	ref := v3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		ref = v3.Vec{Y: 1}
	}
	u = ref.Cross(n).Normalize()
	v = n.Cross(u)
	return u, v
}

func cross2(a, b, c [2]float64) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func anyInside(pts [][2]float64, idx []int, a, b, c int) bool {
	for _, i := range idx {
		if i == a || i == b || i == c {
			continue
		}
		p := pts[i]
		if cross2(pts[a], pts[b], p) >= 0 && cross2(pts[b], pts[c], p) >= 0 && cross2(pts[c], pts[a], p) >= 0 {
			return true
		}
	}
	return false
}

// --- Taubin smoothing ---

// TaubinSmooth applies alternating Laplacian passes with factors lambda
// (shrink) and mu (inflate) over welded vertices. Boundary vertices stay
// fixed when preserveBoundaries is set.
func (k *Kernel) TaubinSmooth(s kernel.Solid, lambda, mu float64, iterations int, preserveBoundaries bool) kernel.Solid {
	tris := triangulateAll(unwrap(s))
	if len(tris) == 0 {
		return wrap(nil)
	}

	w := weld(tris)
	fixed := make([]bool, len(w.positions))
	if preserveBoundaries {
		for e, count := range w.edges {
			if count == 1 {
				fixed[e[0]] = true
				fixed[e[1]] = true
			}
		}
	}

	pass := func(factor float64) {
		next := make([]v3.Vec, len(w.positions))
		for i, p := range w.positions {
			nb := w.neighbors[i]
			if fixed[i] || len(nb) == 0 {
				next[i] = p
				continue
			}
			var avg v3.Vec
			for _, j := range nb {
				avg = avg.Add(w.positions[j])
			}
			avg = avg.MulScalar(1 / float64(len(nb)))
			next[i] = p.Add(avg.Sub(p).MulScalar(factor))
		}
		w.positions = next
	}
	for i := 0; i < iterations; i++ {
		pass(lambda)
		pass(mu)
	}

	out := make([]polygon, 0, len(tris))
	for _, f := range w.faces {
		verts := []vertex{
			{pos: w.positions[f[0]]},
			{pos: w.positions[f[1]]},
			{pos: w.positions[f[2]]},
		}
		p, ok := newPolygon(verts)
		if !ok {
			continue
		}
		for i := range p.verts {
			p.verts[i].normal = p.plane.n
		}
		out = append(out, p)
	}
	return wrap(out)
}

// welded is an indexed triangle mesh with shared vertices.
type welded struct {
	positions []v3.Vec
	faces     [][3]int
	neighbors [][]int
	edges     map[[2]int]int // undirected edge -> face count
}

// weldKey quantizes a position so coincident vertices share an index.
func weldKey(v v3.Vec) [3]int64 {
	const q = 1e6
	return [3]int64{int64(math.Round(v.X * q)), int64(math.Round(v.Y * q)), int64(math.Round(v.Z * q))}
}

func weld(tris []polygon) *welded {
	w := &welded{edges: make(map[[2]int]int)}
	index := make(map[[3]int64]int)
	lookup := func(v v3.Vec) int {
		key := weldKey(v)
		if i, ok := index[key]; ok {
			return i
		}
		index[key] = len(w.positions)
		w.positions = append(w.positions, v)
		return len(w.positions) - 1
	}
	for _, t := range tris {
		f := [3]int{lookup(t.verts[0].pos), lookup(t.verts[1].pos), lookup(t.verts[2].pos)}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			continue
		}
		w.faces = append(w.faces, f)
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			if a > b {
				a, b = b, a
			}
			w.edges[[2]int{a, b}]++
		}
	}
	seen := make([]map[int]bool, len(w.positions))
	w.neighbors = make([][]int, len(w.positions))
	for e := range w.edges {
		for _, pair := range [][2]int{{e[0], e[1]}, {e[1], e[0]}} {
			if seen[pair[0]] == nil {
				seen[pair[0]] = make(map[int]bool)
			}
			if !seen[pair[0]][pair[1]] {
				seen[pair[0]][pair[1]] = true
				w.neighbors[pair[0]] = append(w.neighbors[pair[0]], pair[1])
			}
		}
	}
	return w
}

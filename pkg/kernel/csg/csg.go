// Package csg implements kernel.MeshKernel with a BSP polygon modeler.
// Solids are polygon soups; booleans clip BSP trees against each other.
// Vector and matrix math comes from github.com/deadsy/sdfx.
package csg

import (
	"math"

	"github.com/chazu/meshup/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.MeshKernel = (*Kernel)(nil)

// solid wraps a polygon soup to implement kernel.Solid.
type solid struct {
	polys []polygon
}

// BoundingBox returns the axis-aligned bounding box.
func (s *solid) BoundingBox() (min, max [3]float64, ok bool) {
	bb, ok := s.box()
	if !ok {
		return min, max, false
	}
	return fromVec(bb.Min), fromVec(bb.Max), true
}

func (s *solid) box() (sdf.Box3, bool) {
	var bb sdf.Box3
	first := true
	for _, p := range s.polys {
		for _, v := range p.verts {
			if first {
				bb = sdf.Box3{Min: v.pos, Max: v.pos}
				first = false
				continue
			}
			bb.Min = bb.Min.Min(v.pos)
			bb.Max = bb.Max.Max(v.pos)
		}
	}
	return bb, !first
}

// Kernel implements kernel.MeshKernel.
type Kernel struct{}

// New returns a new Kernel.
func New() *Kernel {
	return &Kernel{}
}

// unwrap extracts the polygons from a kernel.Solid.
func unwrap(s kernel.Solid) []polygon {
	return s.(*solid).polys
}

// wrap creates a kernel.Solid from polygons.
func wrap(polys []polygon) kernel.Solid {
	return &solid{polys: polys}
}

// --- primitives ---

// Empty returns a solid with no polygons.
func (k *Kernel) Empty() kernel.Solid {
	return wrap(nil)
}

// cubeFaces lists corner indices and outward normals. Corner i has
// x = i&1, y = (i>>1)&1, z = (i>>2)&1.
var cubeFaces = []struct {
	idx    [4]int
	normal v3.Vec
}{
	{[4]int{0, 4, 6, 2}, v3.Vec{X: -1}},
	{[4]int{1, 3, 7, 5}, v3.Vec{X: 1}},
	{[4]int{0, 1, 5, 4}, v3.Vec{Y: -1}},
	{[4]int{2, 6, 7, 3}, v3.Vec{Y: 1}},
	{[4]int{0, 2, 3, 1}, v3.Vec{Z: -1}},
	{[4]int{4, 5, 7, 6}, v3.Vec{Z: 1}},
}

// Cuboid creates a box with its minimum corner at the origin.
func (k *Kernel) Cuboid(w, d, h float64) kernel.Solid {
	polys := make([]polygon, 0, len(cubeFaces))
	for _, f := range cubeFaces {
		verts := make([]vertex, 4)
		for j, i := range f.idx {
			pos := v3.Vec{
				X: w * float64(i&1),
				Y: d * float64((i>>1)&1),
				Z: h * float64((i>>2)&1),
			}
			verts[j] = vertex{pos: pos, normal: f.normal}
		}
		if p, ok := newPolygon(verts); ok {
			polys = append(polys, p)
		}
	}
	return wrap(polys)
}

// Sphere creates a UV sphere centered on the origin.
func (k *Kernel) Sphere(radius float64, segments, stacks int) kernel.Solid {
	segments = max(segments, 3)
	stacks = max(stacks, 2)
	at := func(i, j int) vertex {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		phi := math.Pi * float64(j) / float64(stacks)
		dir := v3.Vec{
			X: math.Cos(theta) * math.Sin(phi),
			Y: math.Sin(theta) * math.Sin(phi),
			Z: math.Cos(phi),
		}
		return vertex{pos: dir.MulScalar(radius), normal: dir}
	}
	var polys []polygon
	for i := 0; i < segments; i++ {
		for j := 0; j < stacks; j++ {
			verts := []vertex{at(i, j), at(i, j+1)}
			if j < stacks-1 {
				verts = append(verts, at(i+1, j+1))
			}
			if j > 0 {
				verts = append(verts, at(i+1, j))
			}
			if p, ok := newPolygon(verts); ok {
				polys = append(polys, p)
			}
		}
	}
	return wrap(polys)
}

// Cylinder creates a cylinder around the z axis from z=0 to z=height.
func (k *Kernel) Cylinder(radius, height float64, segments int) kernel.Solid {
	segments = max(segments, 3)
	ring := func(i int, z float64) v3.Vec {
		a := 2 * math.Pi * float64(i%segments) / float64(segments)
		return v3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a), Z: z}
	}
	var polys []polygon
	bottom := make([]vertex, segments)
	top := make([]vertex, segments)
	for i := 0; i < segments; i++ {
		bottom[i] = vertex{pos: ring(segments-i, 0), normal: v3.Vec{Z: -1}}
		top[i] = vertex{pos: ring(i, height), normal: v3.Vec{Z: 1}}

		b0, b1 := ring(i, 0), ring(i+1, 0)
		t0, t1 := ring(i, height), ring(i+1, height)
		n0 := v3.Vec{X: b0.X, Y: b0.Y}.Normalize()
		n1 := v3.Vec{X: b1.X, Y: b1.Y}.Normalize()
		side := []vertex{{b0, n0}, {b1, n1}, {t1, n1}, {t0, n0}}
		if p, ok := newPolygon(side); ok {
			polys = append(polys, p)
		}
	}
	for _, lid := range [][]vertex{bottom, top} {
		if p, ok := newPolygon(lid); ok {
			polys = append(polys, p)
		}
	}
	return wrap(polys)
}

// FromPolygons builds a solid from explicit polygons. Polygons with
// fewer than three vertices or no area are dropped.
func (k *Kernel) FromPolygons(kps []kernel.Polygon) kernel.Solid {
	polys := make([]polygon, 0, len(kps))
	for _, kp := range kps {
		if p, ok := fromKernelPolygon(kp); ok {
			polys = append(polys, p)
		}
	}
	return wrap(polys)
}

// --- boolean operations ---

// Union returns the union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(union(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(difference(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(intersection(unwrap(a), unwrap(b)))
}

// --- transforms ---

// transform maps every vertex position through pos and every normal
// through normal. Loops are reversed when the map flips orientation.
func transform(polys []polygon, pos, normal func(v3.Vec) v3.Vec, flip bool) []polygon {
	out := make([]polygon, 0, len(polys))
	for _, p := range polys {
		verts := make([]vertex, len(p.verts))
		for i, v := range p.verts {
			n := normal(v.normal)
			if l := n.Length(); l > 0 {
				n = n.MulScalar(1 / l)
			}
			verts[i] = vertex{pos: pos(v.pos), normal: n}
		}
		if flip {
			for i, j := 0, len(verts)-1; i < j; i, j = i+1, j-1 {
				verts[i], verts[j] = verts[j], verts[i]
			}
		}
		if np, ok := newPolygon(verts); ok {
			out = append(out, np)
		}
	}
	return out
}

func identity(v v3.Vec) v3.Vec { return v }

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(transform(unwrap(s), m.MulPosition, identity, false))
}

// Rotate rotates a solid by Euler angles (radians) around X, Y, Z axes.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.RotateZ(z).Mul(sdf.RotateY(y)).Mul(sdf.RotateX(x))
	return wrap(transform(unwrap(s), m.MulPosition, m.MulPosition, false))
}

// Scale scales a solid about the origin.
func (k *Kernel) Scale(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Scale3d(v3.Vec{X: x, Y: y, Z: z})
	normal := func(n v3.Vec) v3.Vec {
		return v3.Vec{X: safeDiv(n.X, x), Y: safeDiv(n.Y, y), Z: safeDiv(n.Z, z)}
	}
	return wrap(transform(unwrap(s), m.MulPosition, normal, x*y*z < 0))
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Mirror reflects a solid across the plane p.
func (k *Kernel) Mirror(s kernel.Solid, p kernel.Plane) kernel.Solid {
	n := toVec(p.Normal)
	l := n.Length()
	if l == 0 {
		return k.Clone(s)
	}
	n = n.MulScalar(1 / l)
	w := p.W / l
	pos := func(v v3.Vec) v3.Vec {
		return v.Sub(n.MulScalar(2 * (n.Dot(v) - w)))
	}
	normal := func(v v3.Vec) v3.Vec {
		return v.Sub(n.MulScalar(2 * n.Dot(v)))
	}
	return wrap(transform(unwrap(s), pos, normal, true))
}

// Center moves the bounding box center to the origin.
func (k *Kernel) Center(s kernel.Solid) kernel.Solid {
	bb, ok := s.(*solid).box()
	if !ok {
		return k.Clone(s)
	}
	c := bb.Center()
	return k.Translate(s, -c.X, -c.Y, -c.Z)
}

// Float moves the solid so its lowest point rests on z=0.
func (k *Kernel) Float(s kernel.Solid) kernel.Solid {
	bb, ok := s.(*solid).box()
	if !ok {
		return k.Clone(s)
	}
	return k.Translate(s, 0, 0, -bb.Min.Z)
}

// Clone returns an independent copy.
func (k *Kernel) Clone(s kernel.Solid) kernel.Solid {
	return wrap(clonePolygons(unwrap(s)))
}

// Free drops the polygons held by s.
func (k *Kernel) Free(s kernel.Solid) {
	if sl, ok := s.(*solid); ok {
		sl.polys = nil
	}
}

// --- queries ---

// MassProperties integrates signed tetrahedra against the origin.
// Solids without volume report zero mass centered on their bounding box.
func (k *Kernel) MassProperties(s kernel.Solid, density float64) kernel.MassProperties {
	var vol float64
	var moment v3.Vec
	for _, p := range unwrap(s) {
		a := p.verts[0].pos
		for i := 1; i+1 < len(p.verts); i++ {
			b, c := p.verts[i].pos, p.verts[i+1].pos
			v := a.Dot(b.Cross(c)) / 6
			vol += v
			moment = moment.Add(a.Add(b).Add(c).MulScalar(v / 4))
		}
	}
	if math.Abs(vol) < 1e-12 {
		mp := kernel.MassProperties{}
		if bb, ok := s.(*solid).box(); ok {
			mp.CenterOfMass = fromVec(bb.Center())
		}
		return mp
	}
	return kernel.MassProperties{
		Mass:         vol * density,
		CenterOfMass: fromVec(moment.MulScalar(1 / vol)),
	}
}

// Polygons returns copies of the solid's polygons.
func (k *Kernel) Polygons(s kernel.Solid) []kernel.Polygon {
	polys := unwrap(s)
	out := make([]kernel.Polygon, len(polys))
	for i, p := range polys {
		out[i] = toKernelPolygon(p)
	}
	return out
}

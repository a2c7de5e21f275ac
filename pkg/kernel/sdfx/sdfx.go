// Package sdfx builds implicit solids with the github.com/deadsy/sdfx
// SDF-based CAD library and meshes them into kernel polygons with
// marching cubes. It feeds shapes the polygon kernel cannot model
// directly, such as rounded boxes, into a meshup session.
package sdfx

import (
	"fmt"

	"github.com/chazu/meshup/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Solid = (*Solid)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

// Solid wraps an sdf.SDF3 to implement kernel.Solid.
type Solid struct {
	s sdf.SDF3
}

// Wrap creates a Solid from any sdf.SDF3.
func Wrap(s sdf.SDF3) *Solid {
	return &Solid{s: s}
}

// SDF returns the underlying signed distance function.
func (s *Solid) SDF() sdf.SDF3 {
	return s.s
}

// BoundingBox returns the axis-aligned bounding box.
func (s *Solid) BoundingBox() (min, max [3]float64, ok bool) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max, true
}

// Box creates a box with the given dimensions and edge rounding. The
// resulting solid has its minimum corner at the origin, matching the
// polygon kernel's cuboid. sdf.Box3D centers the box at the origin, so
// we translate by half-dimensions.
func Box(x, y, z, round float64) (*Solid, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, round)
	if err != nil {
		return nil, fmt.Errorf("sdfx: box: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return Wrap(sdf.Transform3D(s, m)), nil
}

// Sphere creates a sphere centered on the origin.
func Sphere(radius float64) (*Solid, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx: sphere: %w", err)
	}
	return Wrap(s), nil
}

// Cylinder creates a cylinder around the z axis standing on z=0.
func Cylinder(height, radius, round float64) (*Solid, error) {
	s, err := sdf.Cylinder3D(height, radius, round)
	if err != nil {
		return nil, fmt.Errorf("sdfx: cylinder: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{Z: height / 2})
	return Wrap(sdf.Transform3D(s, m)), nil
}

// Union returns the union of two solids.
func Union(a, b *Solid) *Solid {
	return Wrap(sdf.Union3D(a.s, b.s))
}

// Difference returns the difference a - b.
func Difference(a, b *Solid) *Solid {
	return Wrap(sdf.Difference3D(a.s, b.s))
}

// Intersection returns the intersection of two solids.
func Intersection(a, b *Solid) *Solid {
	return Wrap(sdf.Intersect3D(a.s, b.s))
}

// Translate moves a solid by (x, y, z).
func Translate(s *Solid, x, y, z float64) *Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return Wrap(sdf.Transform3D(s.s, m))
}

// Rotate rotates a solid by Euler angles (radians) around X, Y, Z axes.
func Rotate(s *Solid, x, y, z float64) *Solid {
	m := sdf.RotateZ(z).Mul(sdf.RotateY(y)).Mul(sdf.RotateX(x))
	return Wrap(sdf.Transform3D(s.s, m))
}

// Polygons meshes the solid with marching cubes over cells voxels along
// its longest axis. Non-positive cells selects DefaultMeshCells.
func Polygons(s *Solid, cells int) []kernel.Polygon {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s.s, renderer)

	polys := make([]kernel.Polygon, 0, len(triangles))
	for _, tri := range triangles {
		n := tri.Normal()
		normal := [3]float64{n.X, n.Y, n.Z}
		p := kernel.Polygon{Vertices: make([]kernel.Vertex, 3)}
		for j := 0; j < 3; j++ {
			v := tri[j]
			p.Vertices[j] = kernel.Vertex{Pos: [3]float64{v.X, v.Y, v.Z}, Normal: normal}
		}
		polys = append(polys, p)
	}
	return polys
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func ToMesh(s *Solid, cells int) (*kernel.Mesh, error) {
	polys := Polygons(s, cells)
	if len(polys) == 0 {
		return nil, fmt.Errorf("sdfx: marching cubes produced no triangles")
	}

	numVerts := len(polys) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, p := range polys {
		for j, v := range p.Vertices {
			vertices = append(vertices, float32(v.Pos[0]), float32(v.Pos[1]), float32(v.Pos[2]))
			normals = append(normals, float32(v.Normal[0]), float32(v.Normal[1]), float32(v.Normal[2]))
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

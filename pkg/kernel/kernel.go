// Package kernel defines the abstract geometry kernel interfaces.
// Implementations (csg, nurbs, sdfx) provide solid modeling, boolean
// operations and curve math behind these interfaces. The abstraction
// allows swapping backends without changing the meshup facade.
package kernel

// Solid is an opaque handle to a kernel mesh solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	// ok is false when the solid has no geometry.
	BoundingBox() (min, max [3]float64, ok bool)
}

// MeshKernel is the abstract polygon mesh kernel.
//
// Every operation returns a new, independently owned Solid. Inputs are
// never modified and no polygon storage is shared between handles.
type MeshKernel interface {
	// Primitives. Cuboid has its minimum corner at the origin, Sphere is
	// centered on the origin and Cylinder stands on z=0 around the z axis.
	Empty() Solid
	Cuboid(w, d, h float64) Solid
	Sphere(radius float64, segments, stacks int) Solid
	Cylinder(radius, height float64, segments int) Solid
	FromPolygons(polys []Polygon) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in radians
	Scale(s Solid, x, y, z float64) Solid
	Mirror(s Solid, p Plane) Solid
	Center(s Solid) Solid // bounding box center moved to the origin
	Float(s Solid) Solid  // lowest point moved to z=0

	// Topology
	Clone(s Solid) Solid
	Triangulate(s Solid) Solid
	Renormalize(s Solid) Solid
	ConvexHull(s Solid) Solid
	TaubinSmooth(s Solid, lambda, mu float64, iterations int, preserveBoundaries bool) Solid

	// Queries
	MassProperties(s Solid, density float64) MassProperties
	Polygons(s Solid) []Polygon

	// Output
	ToMesh(s Solid) (*Mesh, error)
	ToSTLBinary(s Solid, name string) ([]byte, error)
	ToSTLASCII(s Solid, name string) (string, error)
	ToAMF(s Solid, name, units string) (string, error)

	// Free releases any resources held by s. Using s afterwards is undefined.
	Free(s Solid)
}

// CurveKernel builds NURBS curves.
type CurveKernel interface {
	// Polyline returns a degree-1 curve through points, keeping corners.
	Polyline(points [][3]float64) (Curve, error)
	// Interpolated returns a curve of the given degree passing through points.
	Interpolated(points [][3]float64, degree int) (Curve, error)
}

// Kernel combines the mesh and curve kernels a facade session needs.
type Kernel interface {
	MeshKernel
	CurveKernel
}

// Compose pairs a mesh kernel with a curve kernel.
func Compose(m MeshKernel, c CurveKernel) Kernel {
	return composite{MeshKernel: m, CurveKernel: c}
}

type composite struct {
	MeshKernel
	CurveKernel
}

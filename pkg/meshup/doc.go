// Package meshup is an object model for building, combining and
// exporting solid meshes and parametric curves on top of a geometry
// kernel.
//
// A Session owns the kernel. Init installs a process-wide default
// session used by the package-level constructors; NewSession builds an
// explicit one around any kernel.Kernel:
//
//	if err := meshup.Init(); err != nil {
//		return err
//	}
//	box, err := meshup.Cube(10)
//	if err != nil {
//		return err
//	}
//	sphere, _ := meshup.Sphere(6)
//	box.Subtract(sphere).TranslateXYZ(0, 0, 5)
//	data, err := box.ToSTLBinary()
//
// Mesh mutators chain and keep the first failure in Err. Coordinates
// are passed as PointLike values: Point, Vector, Vertex, Axis, Coords
// and adapters for go3d and sdfx vectors.
package meshup

package meshup

import (
	"fmt"
	"maps"
	"math"

	"github.com/charmbracelet/log"
	"github.com/chazu/meshup/pkg/export"
	"github.com/chazu/meshup/pkg/kernel"
	"github.com/chazu/meshup/pkg/kernel/sdfx"
	"github.com/deadsy/sdfx/sdf"
	"github.com/google/uuid"
)

// Mesh owns one kernel solid. Mutating methods replace the solid and
// return the receiver for chaining. The first failure is kept in Err
// and turns later mutations into no-ops; queries and exports return it.
//
// A Mesh must not be mutated from more than one goroutine.
type Mesh struct {
	sess     *Session
	solid    kernel.Solid
	id       string
	err      error
	disposed bool

	// Metadata is free-form data carried along with the mesh.
	Metadata map[string]any
}

func (s *Session) wrap(solid kernel.Solid) *Mesh {
	return &Mesh{sess: s, solid: solid, id: uuid.NewString(), Metadata: map[string]any{}}
}

// failed returns a mesh that carries err and no geometry.
func (s *Session) failed(op string, err error) *Mesh {
	m := s.wrap(s.k.Empty())
	return m.fail(op, err)
}

// NewMesh returns an empty mesh.
func (s *Session) NewMesh() *Mesh {
	return s.wrap(s.k.Empty())
}

// MeshFrom takes ownership of a solid returned by the session's kernel.
func (s *Session) MeshFrom(solid kernel.Solid) *Mesh {
	if solid == nil {
		return s.failed("Session.MeshFrom", fmt.Errorf("%w: solid is nil", ErrInvalidArgument))
	}
	return s.wrap(solid)
}

func positive(op string, names []string, vals ...float64) error {
	for i, v := range vals {
		if !(v > 0) || math.IsInf(v, 0) {
			return argErr(op, "%s must be a positive finite number, got %g", names[i], v)
		}
	}
	return nil
}

// Cube returns a cube of the given edge length centered on the origin.
func (s *Session) Cube(size float64) *Mesh {
	if err := positive("Session.Cube", []string{"size"}, size); err != nil {
		return s.failed("Session.Cube", err)
	}
	return s.Cuboid(size, size, size)
}

// Cuboid returns a w×d×h box centered on the origin.
func (s *Session) Cuboid(w, d, h float64) *Mesh {
	const op = "Session.Cuboid"
	if err := positive(op, []string{"width", "depth", "height"}, w, d, h); err != nil {
		return s.failed(op, err)
	}
	corner := s.k.Cuboid(w, d, h)
	defer s.k.Free(corner)
	return s.wrap(s.k.Translate(corner, -w/2, -d/2, -h/2))
}

// Box is Cuboid.
func (s *Session) Box(w, d, h float64) *Mesh { return s.Cuboid(w, d, h) }

// BoxBetween returns the box spanning two opposite corners.
func (s *Session) BoxBetween(from, to PointLike) *Mesh {
	const op = "Session.BoxBetween"
	a, err := resolve(op, "from", from)
	if err != nil {
		return s.failed(op, err)
	}
	b, err := resolve(op, "to", to)
	if err != nil {
		return s.failed(op, err)
	}
	w, d, h := math.Abs(b.X-a.X), math.Abs(b.Y-a.Y), math.Abs(b.Z-a.Z)
	if err := positive(op, []string{"width", "depth", "height"}, w, d, h); err != nil {
		return s.failed(op, err)
	}
	corner := s.k.Cuboid(w, d, h)
	defer s.k.Free(corner)
	return s.wrap(s.k.Translate(corner, math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)))
}

// Sphere returns a sphere centered on the origin.
func (s *Session) Sphere(radius float64) *Mesh {
	if err := positive("Session.Sphere", []string{"radius"}, radius); err != nil {
		return s.failed("Session.Sphere", err)
	}
	return s.wrap(s.k.Sphere(radius, s.opts.SphereSegments, s.opts.SphereStacks))
}

// Cylinder returns a cylinder around the z axis standing on z=0.
func (s *Session) Cylinder(radius, height float64) *Mesh {
	const op = "Session.Cylinder"
	if err := positive(op, []string{"radius", "height"}, radius, height); err != nil {
		return s.failed(op, err)
	}
	return s.wrap(s.k.Cylinder(radius, height, s.opts.CylinderSegments))
}

// FromPolygons builds a mesh from vertex loops. Loops with fewer than
// three vertices are skipped with a warning.
func (s *Session) FromPolygons(polygons [][]PointLike) *Mesh {
	const op = "Session.FromPolygons"
	if len(polygons) == 0 {
		return s.failed(op, argErr(op, "no polygons given"))
	}
	polys := make([]kernel.Polygon, 0, len(polygons))
	for i, loop := range polygons {
		if len(loop) < 3 {
			s.log.Warn("skipping polygon with fewer than 3 vertices", "op", op, "index", i, "vertices", len(loop))
			continue
		}
		p := kernel.Polygon{Vertices: make([]kernel.Vertex, len(loop))}
		for j, v := range loop {
			pt, err := resolve(op, fmt.Sprintf("polygons[%d][%d]", i, j), v)
			if err != nil {
				return s.failed(op, err)
			}
			p.Vertices[j] = kernel.Vertex{Pos: pt.arr()}
			if vx, ok := v.(Vertex); ok {
				p.Vertices[j].Normal = vx.Normal.arr()
			}
		}
		polys = append(polys, p)
	}
	return s.wrap(s.k.FromPolygons(polys))
}

// RoundedCuboid returns a centered box with rounded edges, meshed from
// an implicit solid at the session's implicit resolution.
func (s *Session) RoundedCuboid(w, d, h, radius float64) *Mesh {
	const op = "Session.RoundedCuboid"
	if err := positive(op, []string{"width", "depth", "height"}, w, d, h); err != nil {
		return s.failed(op, err)
	}
	if radius < 0 || 2*radius > math.Min(w, math.Min(d, h)) {
		return s.failed(op, argErr(op, "radius %g does not fit a %gx%gx%g box", radius, w, d, h))
	}
	box, err := sdfx.Box(w, d, h, radius)
	if err != nil {
		return s.failed(op, err)
	}
	m := s.implicit(op, box, s.opts.ImplicitCells)
	return m.TranslateXYZ(-w/2, -d/2, -h/2)
}

// Implicit meshes any signed distance solid with marching cubes over
// cells voxels along its longest side. Non-positive cells uses the
// session default.
func (s *Session) Implicit(solid sdf.SDF3, cells int) *Mesh {
	const op = "Session.Implicit"
	if solid == nil {
		return s.failed(op, argErr(op, "solid is nil"))
	}
	if cells <= 0 {
		cells = s.opts.ImplicitCells
	}
	return s.implicit(op, sdfx.Wrap(solid), cells)
}

func (s *Session) implicit(op string, solid *sdfx.Solid, cells int) *Mesh {
	polys := sdfx.Polygons(solid, cells)
	if len(polys) == 0 {
		return s.failed(op, fmt.Errorf("%w: implicit solid produced no surface", ErrDomain))
	}
	s.log.Debug("implicit solid meshed", "op", op, "cells", cells, "triangles", len(polys))
	return s.wrap(s.k.FromPolygons(polys))
}

// --- state ---

func (m *Mesh) log() *log.Logger { return m.sess.log }

func (m *Mesh) fail(op string, err error) *Mesh {
	if m.err == nil {
		m.err = opErr(op, err)
		m.log().Error("mesh operation failed", "op", op, "id", m.id, "err", m.err)
	}
	return m
}

// live reports whether a mutation may proceed, recording ErrDisposed.
func (m *Mesh) live(op string) bool {
	if m.err != nil {
		return false
	}
	if m.disposed {
		m.fail(op, ErrDisposed)
		return false
	}
	return true
}

// check returns the error a query on m must report.
func (m *Mesh) check(op string) error {
	switch {
	case m == nil:
		return opErr(op, fmt.Errorf("%w: mesh is nil", ErrInvalidState))
	case m.err != nil:
		return m.err
	case m.disposed:
		return opErr(op, ErrDisposed)
	}
	return nil
}

func (m *Mesh) replace(next kernel.Solid) *Mesh {
	prev := m.solid
	m.solid = next
	m.sess.k.Free(prev)
	return m
}

// Err returns the first error recorded on the mesh.
func (m *Mesh) Err() error {
	if m == nil {
		return opErr("Mesh.Err", fmt.Errorf("%w: mesh is nil", ErrInvalidState))
	}
	return m.err
}

// ID returns the mesh's stable identifier.
func (m *Mesh) ID() string { return m.id }

// Solid returns the owned kernel handle.
func (m *Mesh) Solid() (kernel.Solid, error) {
	if err := m.check("Mesh.Solid"); err != nil {
		return nil, err
	}
	return m.solid, nil
}

// IsDisposed reports whether Dispose was called.
func (m *Mesh) IsDisposed() bool { return m.disposed }

// Dispose releases the kernel handle. Calling it twice is a no-op.
func (m *Mesh) Dispose() {
	if m == nil || m.disposed {
		return
	}
	m.sess.k.Free(m.solid)
	m.solid = nil
	m.disposed = true
}

// SetMetadata replaces the metadata and returns it.
func (m *Mesh) SetMetadata(md map[string]any) map[string]any {
	m.Metadata = maps.Clone(md)
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}
	return m.Metadata
}

// AddMetadata sets one metadata key and returns the metadata.
func (m *Mesh) AddMetadata(key string, value any) map[string]any {
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}
	m.Metadata[key] = value
	return m.Metadata
}

// exportName is the metadata "name" when it is a string, else the ID.
func (m *Mesh) exportName() string {
	if name, ok := m.Metadata["name"].(string); ok && name != "" {
		return name
	}
	return m.id
}

// --- transforms ---

// Translate moves the mesh by d.
func (m *Mesh) Translate(d PointLike) *Mesh {
	const op = "Mesh.Translate"
	if !m.live(op) {
		return m
	}
	p, err := resolve(op, "d", d)
	if err != nil {
		return m.fail(op, err)
	}
	return m.translate(op, p.X, p.Y, p.Z)
}

// TranslateXYZ moves the mesh by (dx, dy, dz).
func (m *Mesh) TranslateXYZ(dx, dy, dz float64) *Mesh {
	const op = "Mesh.TranslateXYZ"
	if !m.live(op) {
		return m
	}
	return m.translate(op, dx, dy, dz)
}

func (m *Mesh) translate(op string, dx, dy, dz float64) *Mesh {
	if !P(dx, dy, dz).finite() {
		return m.fail(op, argErr(op, "offset (%g, %g, %g) is not finite", dx, dy, dz))
	}
	return m.replace(m.sess.k.Translate(m.solid, dx, dy, dz))
}

// Move is Translate.
func (m *Mesh) Move(d PointLike) *Mesh { return m.Translate(d) }

// MoveXYZ is TranslateXYZ.
func (m *Mesh) MoveXYZ(dx, dy, dz float64) *Mesh { return m.TranslateXYZ(dx, dy, dz) }

// Rotate applies Euler angles in radians about x, then y, then z.
func (m *Mesh) Rotate(ax, ay, az float64) *Mesh {
	const op = "Mesh.Rotate"
	if !m.live(op) {
		return m
	}
	if !P(ax, ay, az).finite() {
		return m.fail(op, argErr(op, "angles (%g, %g, %g) are not finite", ax, ay, az))
	}
	return m.replace(m.sess.k.Rotate(m.solid, ax, ay, az))
}

// Scale multiplies coordinates per axis.
func (m *Mesh) Scale(sx, sy, sz float64) *Mesh {
	const op = "Mesh.Scale"
	if !m.live(op) {
		return m
	}
	if !P(sx, sy, sz).finite() {
		return m.fail(op, argErr(op, "factors (%g, %g, %g) are not finite", sx, sy, sz))
	}
	return m.replace(m.sess.k.Scale(m.solid, sx, sy, sz))
}

// Mirror reflects the mesh across the plane with normal dir through
// pos. A nil pos uses the mesh's center of mass.
func (m *Mesh) Mirror(dir, pos PointLike) *Mesh {
	const op = "Mesh.Mirror"
	if !m.live(op) {
		return m
	}
	d, err := resolve(op, "dir", dir)
	if err != nil {
		return m.fail(op, err)
	}
	n := d.ToVector()
	if n.Length() == 0 {
		return m.fail(op, argErr(op, "mirror normal is zero"))
	}
	var at Point
	if pos == nil {
		at = pointOf(m.sess.k.MassProperties(m.solid, 1).CenterOfMass)
	} else if at, err = resolve(op, "pos", pos); err != nil {
		return m.fail(op, err)
	}
	plane := kernel.PlaneThrough(n.Normalize().arr(), at.arr())
	return m.replace(m.sess.k.Mirror(m.solid, plane))
}

// MoveToCenter moves the bounding box center to the origin.
func (m *Mesh) MoveToCenter() *Mesh {
	if !m.live("Mesh.MoveToCenter") {
		return m
	}
	return m.replace(m.sess.k.Center(m.solid))
}

// Place sets the mesh's lowest point to height z.
func (m *Mesh) Place(z float64) *Mesh {
	const op = "Mesh.Place"
	if !m.live(op) {
		return m
	}
	m.replace(m.sess.k.Float(m.solid))
	if z == 0 {
		return m
	}
	return m.translate(op, 0, 0, z)
}

// --- queries ---

// Center returns the center of mass at unit density.
func (m *Mesh) Center() (Point, error) {
	if err := m.check("Mesh.Center"); err != nil {
		return Point{}, err
	}
	return pointOf(m.sess.k.MassProperties(m.solid, 1).CenterOfMass), nil
}

// Volume returns the enclosed volume.
func (m *Mesh) Volume() (float64, error) {
	if err := m.check("Mesh.Volume"); err != nil {
		return 0, err
	}
	return m.sess.k.MassProperties(m.solid, 1).Mass, nil
}

// BBox returns the axis-aligned bounding box.
func (m *Mesh) BBox() (Bbox, error) {
	const op = "Mesh.BBox"
	if err := m.check(op); err != nil {
		return Bbox{}, err
	}
	lo, hi, ok := m.solid.BoundingBox()
	if !ok {
		return Bbox{}, opErr(op, ErrNoBoundingBox)
	}
	return bboxOf(lo, hi), nil
}

// Polygons returns the mesh faces as vertex loops.
func (m *Mesh) Polygons() ([][]Vertex, error) {
	if err := m.check("Mesh.Polygons"); err != nil {
		return nil, err
	}
	polys := m.sess.k.Polygons(m.solid)
	out := make([][]Vertex, len(polys))
	for i, p := range polys {
		out[i] = make([]Vertex, len(p.Vertices))
		for j, v := range p.Vertices {
			out[i][j] = Vertex{Position: pointOf(v.Pos), Normal: V(v.Normal[0], v.Normal[1], v.Normal[2])}
		}
	}
	return out, nil
}

// Positions returns every polygon vertex position in face order.
func (m *Mesh) Positions() ([]Point, error) {
	polys, err := m.Polygons()
	if err != nil {
		return nil, err
	}
	var out []Point
	for _, p := range polys {
		for _, v := range p {
			out = append(out, v.Position)
		}
	}
	return out, nil
}

// Normals returns every polygon vertex normal in face order.
func (m *Mesh) Normals() ([]Vector, error) {
	polys, err := m.Polygons()
	if err != nil {
		return nil, err
	}
	var out []Vector
	for _, p := range polys {
		for _, v := range p {
			out = append(out, v.Normal)
		}
	}
	return out, nil
}

// TriangleCount returns the number of triangles after triangulation.
func (m *Mesh) TriangleCount() (int, error) {
	km, err := m.kernelMesh("Mesh.TriangleCount")
	if err != nil {
		return 0, err
	}
	return km.TriangleCount(), nil
}

func (m *Mesh) kernelMesh(op string) (*kernel.Mesh, error) {
	if err := m.check(op); err != nil {
		return nil, err
	}
	km, err := m.sess.k.ToMesh(m.solid)
	if err != nil {
		return nil, opErr(op, err)
	}
	km.PartName = m.exportName()
	return km, nil
}

// --- booleans ---

func (m *Mesh) boolean(op string, other *Mesh, f func(a, b kernel.Solid) kernel.Solid) *Mesh {
	if !m.live(op) {
		return m
	}
	switch {
	case other == nil:
		return m.fail(op, argErr(op, "other mesh is nil"))
	case other.disposed:
		return m.fail(op, argErr(op, "other mesh was disposed"))
	case other.err != nil:
		return m.fail(op, argErr(op, "other mesh has failed: %v", other.err))
	}
	return m.replace(f(m.solid, other.solid))
}

// Union merges other into the mesh.
func (m *Mesh) Union(other *Mesh) *Mesh {
	return m.boolean("Mesh.Union", other, m.sess.k.Union)
}

// Add is Union.
func (m *Mesh) Add(other *Mesh) *Mesh { return m.Union(other) }

// Difference removes other from the mesh.
func (m *Mesh) Difference(other *Mesh) *Mesh {
	return m.boolean("Mesh.Difference", other, m.sess.k.Difference)
}

// Subtract is Difference.
func (m *Mesh) Subtract(other *Mesh) *Mesh { return m.Difference(other) }

// Intersection keeps only the volume shared with other.
func (m *Mesh) Intersection(other *Mesh) *Mesh {
	return m.boolean("Mesh.Intersection", other, m.sess.k.Intersection)
}

// --- topology ---

// Triangulate splits every face into triangles.
func (m *Mesh) Triangulate() *Mesh {
	if !m.live("Mesh.Triangulate") {
		return m
	}
	return m.replace(m.sess.k.Triangulate(m.solid))
}

// Renormalize recomputes vertex normals from face planes.
func (m *Mesh) Renormalize() *Mesh {
	if !m.live("Mesh.Renormalize") {
		return m
	}
	return m.replace(m.sess.k.Renormalize(m.solid))
}

// Hull returns the convex hull as a new mesh. The receiver is unchanged.
func (m *Mesh) Hull() *Mesh {
	if err := m.check("Mesh.Hull"); err != nil {
		return m.sess.failed("Mesh.Hull", err)
	}
	return m.sess.wrap(m.sess.k.ConvexHull(m.solid))
}

// Smooth applies Taubin smoothing.
func (m *Mesh) Smooth(lambda, mu float64, iterations int, preserveBoundaries bool) *Mesh {
	const op = "Mesh.Smooth"
	if !m.live(op) {
		return m
	}
	if iterations < 0 {
		return m.fail(op, argErr(op, "iterations must not be negative, got %d", iterations))
	}
	return m.replace(m.sess.k.TaubinSmooth(m.solid, lambda, mu, iterations, preserveBoundaries))
}

// Copy returns an independently owned clone with its own ID and a
// shallow copy of the metadata.
func (m *Mesh) Copy() *Mesh {
	if err := m.check("Mesh.Copy"); err != nil {
		return m.sess.failed("Mesh.Copy", err)
	}
	c := m.sess.wrap(m.sess.k.Clone(m.solid))
	c.Metadata = maps.Clone(m.Metadata)
	return c
}

// --- batch ---

// Row returns count copies spaced along direction, the first in place.
func (m *Mesh) Row(count int, spacing float64, direction PointLike) (*MeshCollection, error) {
	const op = "Mesh.Row"
	if err := m.check(op); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, argErr(op, "count must not be negative, got %d", count)
	}
	if math.IsNaN(spacing) || math.IsInf(spacing, 0) {
		return nil, argErr(op, "spacing %g is not finite", spacing)
	}
	if direction == nil {
		direction = AxisX
	}
	d, err := NewVector(direction)
	if err != nil {
		return nil, opErr(op, err)
	}
	dir := d.Normalize()
	if dir.Length() == 0 {
		return nil, argErr(op, "direction is zero")
	}
	out := m.sess.NewMeshCollection()
	for i := 0; i < count; i++ {
		step := dir.Scale(float64(i) * spacing)
		out.Add(m.Copy().TranslateXYZ(step.X, step.Y, step.Z))
	}
	return out, nil
}

// Grid returns cx×cy×cz copies spaced evenly along the axes.
func (m *Mesh) Grid(cx, cy, cz int, spacing float64) (*MeshCollection, error) {
	const op = "Mesh.Grid"
	if err := m.check(op); err != nil {
		return nil, err
	}
	if cx < 0 || cy < 0 || cz < 0 {
		return nil, argErr(op, "counts must not be negative, got (%d, %d, %d)", cx, cy, cz)
	}
	if math.IsNaN(spacing) || math.IsInf(spacing, 0) {
		return nil, argErr(op, "spacing %g is not finite", spacing)
	}
	out := m.sess.NewMeshCollection()
	for x := 0; x < cx; x++ {
		for y := 0; y < cy; y++ {
			for z := 0; z < cz; z++ {
				out.Add(m.Copy().TranslateXYZ(float64(x)*spacing, float64(y)*spacing, float64(z)*spacing))
			}
		}
	}
	return out, nil
}

// --- export ---

// ToSTLBinary encodes the mesh as binary STL.
func (m *Mesh) ToSTLBinary() ([]byte, error) {
	const op = "Mesh.ToSTLBinary"
	if err := m.check(op); err != nil {
		return nil, err
	}
	data, err := m.sess.k.ToSTLBinary(m.solid, m.exportName())
	return data, opErr(op, err)
}

// ToSTLASCII encodes the mesh as ASCII STL.
func (m *Mesh) ToSTLASCII() (string, error) {
	const op = "Mesh.ToSTLASCII"
	if err := m.check(op); err != nil {
		return "", err
	}
	data, err := m.sess.k.ToSTLASCII(m.solid, m.exportName())
	return data, opErr(op, err)
}

// ToAMF encodes the mesh as AMF in the session's units.
func (m *Mesh) ToAMF() (string, error) {
	const op = "Mesh.ToAMF"
	if err := m.check(op); err != nil {
		return "", err
	}
	data, err := m.sess.k.ToAMF(m.solid, m.exportName(), m.sess.opts.Units)
	return data, opErr(op, err)
}

// ToGLTF encodes the mesh as a triangle GLTF document with the given
// model up axis remapped to GLTF's +Y.
func (m *Mesh) ToGLTF(up Axis) ([]byte, error) {
	const op = "Mesh.ToGLTF"
	km, err := m.kernelMesh(op)
	if err != nil {
		return nil, err
	}
	data, err := export.GLTF(trianglePositions(km), export.ModeTriangles, string(up))
	return data, opErr(op, err)
}

// Save3MF writes the mesh as a single-object 3MF package.
func (m *Mesh) Save3MF(path string) error {
	const op = "Mesh.Save3MF"
	km, err := m.kernelMesh(op)
	if err != nil {
		return err
	}
	return opErr(op, export.Save3MF(path, m.sess.opts.Units, []export.Object{{Name: m.exportName(), Mesh: km}}))
}

// trianglePositions expands an indexed mesh into one position per
// triangle corner.
func trianglePositions(km *kernel.Mesh) [][3]float64 {
	out := make([][3]float64, len(km.Indices))
	for i, idx := range km.Indices {
		v := km.Vertices[idx*3 : idx*3+3]
		out[i] = [3]float64{float64(v[0]), float64(v[1]), float64(v[2])}
	}
	return out
}

package kernel

// Mesh is a triangle mesh suitable for rendering and export.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which scene part this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex is a polygon corner with its shading normal.
type Vertex struct {
	Pos    [3]float64
	Normal [3]float64
}

// Polygon is a planar, convex or concave, counter-clockwise loop of vertices.
type Polygon struct {
	Vertices []Vertex
}

// Plane is the set of points p with Normal·p = W.
type Plane struct {
	Normal [3]float64
	W      float64
}

// PlaneThrough returns the plane with the given normal passing through p.
// The normal is not normalized; callers pass a unit normal.
func PlaneThrough(normal, p [3]float64) Plane {
	return Plane{Normal: normal, W: normal[0]*p[0] + normal[1]*p[1] + normal[2]*p[2]}
}

// MassProperties describes a closed solid at a uniform density.
type MassProperties struct {
	Mass         float64
	CenterOfMass [3]float64
}

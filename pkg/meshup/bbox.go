package meshup

import "math"

// Bbox is an axis-aligned bounding box. Min and Max are not reordered.
type Bbox struct {
	Min, Max Point
}

// NewBbox builds a box from two corners.
func NewBbox(min, max PointLike) (Bbox, error) {
	lo, err := resolve("NewBbox", "min", min)
	if err != nil {
		return Bbox{}, err
	}
	hi, err := resolve("NewBbox", "max", max)
	if err != nil {
		return Bbox{}, err
	}
	return Bbox{Min: lo, Max: hi}, nil
}

// BboxFromMesh returns the mesh's bounding box.
func BboxFromMesh(m *Mesh) (Bbox, error) {
	if m == nil {
		return Bbox{}, argErr("BboxFromMesh", "mesh is nil")
	}
	return m.BBox()
}

func bboxOf(lo, hi [3]float64) Bbox { return Bbox{Min: pointOf(lo), Max: pointOf(hi)} }

func (b Bbox) Center() Point {
	return P((b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2, (b.Min.Z+b.Max.Z)/2)
}

// Size returns Max - Min.
func (b Bbox) Size() Vector {
	return V(b.Max.X-b.Min.X, b.Max.Y-b.Min.Y, b.Max.Z-b.Min.Z)
}

func (b Bbox) Width() float64  { return b.Max.X - b.Min.X }
func (b Bbox) Depth() float64  { return b.Max.Y - b.Min.Y }
func (b Bbox) Height() float64 { return b.Max.Z - b.Min.Z }

func (b Bbox) extents() [3]float64 { return [3]float64{b.Width(), b.Depth(), b.Height()} }

// Is1D reports exactly one non-zero extent.
func (b Bbox) Is1D() bool {
	n := 0
	for _, e := range b.extents() {
		if e != 0 {
			n++
		}
	}
	return n == 1
}

// Is2D reports any zero extent.
func (b Bbox) Is2D() bool {
	for _, e := range b.extents() {
		if e == 0 {
			return true
		}
	}
	return false
}

// Is3D reports that every extent is positive.
func (b Bbox) Is3D() bool {
	for _, e := range b.extents() {
		if e <= 0 {
			return false
		}
	}
	return true
}

// Union returns the smallest box holding both.
func (b Bbox) Union(o Bbox) Bbox {
	return Bbox{
		Min: P(math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y), math.Min(b.Min.Z, o.Min.Z)),
		Max: P(math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y), math.Max(b.Max.Z, o.Max.Z)),
	}
}

// Intersects reports whether the boxes overlap, touching included.
func (b Bbox) Intersects(o Bbox) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y &&
		b.Min.Z <= o.Max.Z && o.Min.Z <= b.Max.Z
}

// Contains reports whether p lies inside or on the box. A point that
// cannot be resolved is outside.
func (b Bbox) Contains(p PointLike) bool {
	pt, err := resolve("Bbox.Contains", "p", p)
	if err != nil {
		return false
	}
	return pt.X >= b.Min.X && pt.X <= b.Max.X &&
		pt.Y >= b.Min.Y && pt.Y <= b.Max.Y &&
		pt.Z >= b.Min.Z && pt.Z <= b.Max.Z
}

package meshup

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/ungerik/go3d/float64/vec3"
)

// Point is an immutable 2-D or 3-D position. A 2-D point has Z = 0.
type Point struct {
	X, Y, Z float64
	is2D    bool
}

// P returns a 3-D point.
func P(x, y, z float64) Point { return Point{X: x, Y: y, Z: z} }

// P2 returns a 2-D point.
func P2(x, y float64) Point { return Point{X: x, Y: y, is2D: true} }

// NewPoint resolves any PointLike.
func NewPoint(p PointLike) (Point, error) {
	return resolve("NewPoint", "p", p)
}

// PointFromArray builds a point from two or three numbers. Extra
// numbers are ignored.
func PointFromArray(c []float64) (Point, error) {
	switch {
	case len(c) >= 3:
		return P(c[0], c[1], c[2]), nil
	case len(c) == 2:
		return P2(c[0], c[1]), nil
	}
	return Point{}, fmt.Errorf("%w: expected 2 or 3 coordinates, got %d", ErrInvalidArgument, len(c))
}

// ToPoint implements PointLike.
func (p Point) ToPoint() (Point, error) { return p, nil }

// Dimension returns 2 or 3.
func (p Point) Dimension() int {
	if p.is2D {
		return 2
	}
	return 3
}

// SameCoordAt returns the first axis on which p and other have exactly
// equal coordinates. Z is only compared when both points are 3-D.
func (p Point) SameCoordAt(other PointLike) (Axis, bool, error) {
	o, err := resolve("Point.SameCoordAt", "other", other)
	if err != nil {
		return "", false, err
	}
	switch {
	case p.X == o.X:
		return AxisX, true, nil
	case p.Y == o.Y:
		return AxisY, true, nil
	case !p.is2D && !o.is2D && p.Z == o.Z:
		return AxisZ, true, nil
	}
	return "", false, nil
}

// ToArray returns [x, y] or [x, y, z].
func (p Point) ToArray() []float64 {
	if p.is2D {
		return []float64{p.X, p.Y}
	}
	return []float64{p.X, p.Y, p.Z}
}

// ToVector returns the position vector of p.
func (p Point) ToVector() Vector { return V(p.X, p.Y, p.Z) }

// ToVec3 returns p as a go3d vector.
func (p Point) ToVec3() vec3.T { return vec3.T{p.X, p.Y, p.Z} }

// ToV3 returns p as an sdfx vector.
func (p Point) ToV3() v3.Vec { return v3.Vec{X: p.X, Y: p.Y, Z: p.Z} }

// Add returns p moved by d. The result is 3-D unless both are 2-D.
func (p Point) Add(d PointLike) (Point, error) {
	o, err := resolve("Point.Add", "d", d)
	if err != nil {
		return Point{}, err
	}
	return Point{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z, is2D: p.is2D && o.is2D}, nil
}

// Distance returns the euclidean distance to other.
func (p Point) Distance(other PointLike) (float64, error) {
	o, err := resolve("Point.Distance", "other", other)
	if err != nil {
		return 0, err
	}
	a, b := p.ToVec3(), o.ToVec3()
	return vec3.Distance(&a, &b), nil
}

func (p Point) String() string {
	if p.is2D {
		return fmt.Sprintf("Point(%g, %g)", p.X, p.Y)
	}
	return fmt.Sprintf("Point(%g, %g, %g)", p.X, p.Y, p.Z)
}

func (p Point) arr() [3]float64 { return [3]float64{p.X, p.Y, p.Z} }

func pointOf(a [3]float64) Point { return P(a[0], a[1], a[2]) }

func (p Point) finite() bool {
	for _, c := range p.arr() {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// --- Vertex ---

// Vertex is a position with a shading normal.
type Vertex struct {
	Position Point
	Normal   Vector
}

// NewVertex builds a vertex. A nil normal becomes the zero vector.
func NewVertex(p, n PointLike) (Vertex, error) {
	pos, err := resolve("NewVertex", "position", p)
	if err != nil {
		return Vertex{}, err
	}
	var normal Vector
	if n != nil {
		if normal, err = NewVector(n); err != nil {
			return Vertex{}, opErr("NewVertex", err)
		}
	}
	return Vertex{Position: pos, Normal: normal}, nil
}

// ToPoint implements PointLike with the vertex position.
func (v Vertex) ToPoint() (Point, error) { return v.Position, nil }

func (v Vertex) X() float64 { return v.Position.X }
func (v Vertex) Y() float64 { return v.Position.Y }
func (v Vertex) Z() float64 { return v.Position.Z }

// Rad converts degrees to radians.
func Rad(deg float64) float64 { return deg * math.Pi / 180 }

// Deg converts radians to degrees.
func Deg(rad float64) float64 { return rad * 180 / math.Pi }

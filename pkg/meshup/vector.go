package meshup

import (
	"fmt"
	"math"

	"github.com/ungerik/go3d/float64/vec3"
)

// Vector is an immutable 3-D direction. Every operation returns a new
// Vector.
type Vector struct {
	X, Y, Z float64
}

// V returns a vector.
func V(x, y, z float64) Vector { return Vector{X: x, Y: y, Z: z} }

// NewVector resolves any PointLike as a position vector.
func NewVector(p PointLike) (Vector, error) {
	pt, err := resolve("NewVector", "v", p)
	if err != nil {
		return Vector{}, err
	}
	return pt.ToVector(), nil
}

func vecOf(t vec3.T) Vector { return Vector{X: t[0], Y: t[1], Z: t[2]} }

func (v Vector) t() vec3.T { return vec3.T{v.X, v.Y, v.Z} }

func (v Vector) arr() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// ToPoint implements PointLike.
func (v Vector) ToPoint() (Point, error) { return P(v.X, v.Y, v.Z), nil }

// Length returns the euclidean norm.
func (v Vector) Length() float64 {
	t := v.t()
	return t.Length()
}

// Normalize returns the unit vector. The zero vector stays zero.
func (v Vector) Normalize() Vector {
	t := v.t()
	return vecOf(t.Normalized())
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	a, b := v.t(), o.t()
	return vecOf(vec3.Add(&a, &b))
}

// Subtract returns v - o.
func (v Vector) Subtract(o Vector) Vector {
	a, b := v.t(), o.t()
	return vecOf(vec3.Sub(&a, &b))
}

// Scale multiplies every component by f.
func (v Vector) Scale(f float64) Vector {
	t := v.t()
	return vecOf(t.Scaled(f))
}

// Cross returns the cross product v × o.
func (v Vector) Cross(o Vector) Vector {
	a, b := v.t(), o.t()
	return vecOf(vec3.Cross(&a, &b))
}

// Dot returns the scalar product.
func (v Vector) Dot(o Vector) float64 {
	a, b := v.t(), o.t()
	return vec3.Dot(&a, &b)
}

// Reverse returns -v.
func (v Vector) Reverse() Vector { return v.Scale(-1) }

// Abs returns the component-wise absolute value.
func (v Vector) Abs() Vector { return V(math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)) }

// Angle returns the angle to o in radians, or 0 if either is zero.
func (v Vector) Angle(o Vector) float64 {
	l := v.Length() * o.Length()
	if l == 0 {
		return 0
	}
	return math.Acos(math.Max(-1, math.Min(1, v.Dot(o)/l)))
}

// Rotate turns v by angle radians around axis (right-hand rule).
func (v Vector) Rotate(axis Vector, angle float64) Vector {
	k := axis.Normalize()
	cos, sin := math.Cos(angle), math.Sin(angle)
	return v.Scale(cos).
		Add(k.Cross(v).Scale(sin)).
		Add(k.Scale(k.Dot(v) * (1 - cos)))
}

// RotateEuler applies roll about x, then pitch about y, then yaw about z.
func (v Vector) RotateEuler(roll, pitch, yaw float64) Vector {
	return v.Rotate(V(1, 0, 0), roll).
		Rotate(V(0, 1, 0), pitch).
		Rotate(V(0, 0, 1), yaw)
}

func (v Vector) String() string {
	return fmt.Sprintf("Vector(%g, %g, %g)", v.X, v.Y, v.Z)
}

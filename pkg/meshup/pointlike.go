package meshup

import (
	"fmt"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/ungerik/go3d/float64/vec3"
)

// PointLike is anything that resolves to a coordinate. Every facade
// parameter that takes a position or a direction accepts one.
type PointLike interface {
	ToPoint() (Point, error)
}

// Coords is a raw coordinate list: [x, y] or [x, y, z].
type Coords []float64

// ToPoint implements PointLike.
func (c Coords) ToPoint() (Point, error) {
	return PointFromArray(c)
}

// V3 adapts an sdfx vector.
type V3 v3.Vec

// ToPoint implements PointLike.
func (v V3) ToPoint() (Point, error) { return P(v.X, v.Y, v.Z), nil }

// Vec3 adapts a go3d vector.
type Vec3 vec3.T

// ToPoint implements PointLike.
func (v Vec3) ToPoint() (Point, error) { return P(v[0], v[1], v[2]), nil }

type xyzer interface{ XYZ() (x, y, z float64) }

type xyer interface{ XY() (x, y float64) }

// AsPointLike converts a dynamically typed value into a PointLike. It
// accepts PointLike values, numeric slices and arrays, go3d and sdfx
// vectors, maps with x, y and optional z keys, and anything with an
// XYZ or XY method.
func AsPointLike(v any) (PointLike, error) {
	switch t := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: expected a point, got nil", ErrInvalidArgument)
	case PointLike:
		return t, nil
	case []float64:
		return Coords(t), nil
	case []int:
		c := make(Coords, len(t))
		for i, n := range t {
			c[i] = float64(n)
		}
		return c, nil
	case [2]float64:
		return P2(t[0], t[1]), nil
	case [3]float64:
		return P(t[0], t[1], t[2]), nil
	case vec3.T:
		return Vec3(t), nil
	case v3.Vec:
		return V3(t), nil
	case map[string]float64:
		x, okx := t["x"]
		y, oky := t["y"]
		if !okx || !oky {
			return nil, fmt.Errorf("%w: expected a point, got map without x and y keys", ErrInvalidArgument)
		}
		if z, ok := t["z"]; ok {
			return P(x, y, z), nil
		}
		return P2(x, y), nil
	case xyzer:
		x, y, z := t.XYZ()
		return P(x, y, z), nil
	case xyer:
		x, y := t.XY()
		return P2(x, y), nil
	}
	return nil, fmt.Errorf("%w: expected a point, got %T", ErrInvalidArgument, v)
}

// resolve turns p into a point, naming param in the error.
func resolve(op, param string, p PointLike) (Point, error) {
	if p == nil {
		return Point{}, argErr(op, "%s: expected a point, got nil", param)
	}
	pt, err := p.ToPoint()
	if err != nil {
		return Point{}, opErr(op, fmt.Errorf("%s: %w", param, err))
	}
	return pt, nil
}

// --- Axis ---

// Axis names a global coordinate axis.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// ParseAxis accepts "x", "y" or "z" in any case.
func ParseAxis(s string) (Axis, error) {
	switch a := Axis(strings.ToLower(strings.TrimSpace(s))); a {
	case AxisX, AxisY, AxisZ:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown axis %q", ErrInvalidArgument, s)
}

// Unit returns the axis' unit vector.
func (a Axis) Unit() (Vector, error) {
	switch a {
	case AxisX:
		return V(1, 0, 0), nil
	case AxisY:
		return V(0, 1, 0), nil
	case AxisZ:
		return V(0, 0, 1), nil
	}
	return Vector{}, fmt.Errorf("%w: unknown axis %q", ErrInvalidArgument, string(a))
}

// ToPoint implements PointLike with the axis' unit vector.
func (a Axis) ToPoint() (Point, error) {
	v, err := a.Unit()
	if err != nil {
		return Point{}, err
	}
	return v.ToPoint()
}

func (a Axis) index() int {
	switch a {
	case AxisY:
		return 1
	case AxisZ:
		return 2
	}
	return 0
}

package nurbs

import (
	"math"

	"github.com/chazu/meshup/pkg/kernel"
	"github.com/ungerik/go3d/float64/vec3"
)

// NURBS curves are affine invariant, so transforms only move control
// points; weights and knots are kept.

func (c *Curve) mapPoints(f func(vec3.T) vec3.T) *Curve {
	out := c.clone()
	for i, p := range out.ctrl {
		out.ctrl[i] = f(p)
	}
	return out
}

// Translate moves the curve by (x, y, z).
func (c *Curve) Translate(x, y, z float64) kernel.CurveShape {
	return c.translate(x, y, z)
}

func (c *Curve) translate(x, y, z float64) *Curve {
	d := vec3.T{x, y, z}
	return c.mapPoints(func(p vec3.T) vec3.T { return vec3.Add(&p, &d) })
}

// Rotate rotates the curve about the origin by Euler angles in
// radians, applied X first, then Y, then Z.
func (c *Curve) Rotate(x, y, z float64) kernel.CurveShape {
	return c.rotate(x, y, z)
}

func (c *Curve) rotate(x, y, z float64) *Curve {
	m := eulerMatrix(x, y, z)
	return c.mapPoints(func(p vec3.T) vec3.T { return mulMat(m, p) })
}

// Scale scales the curve about the origin.
func (c *Curve) Scale(x, y, z float64) kernel.CurveShape {
	return c.scale(x, y, z)
}

func (c *Curve) scale(x, y, z float64) *Curve {
	return c.mapPoints(func(p vec3.T) vec3.T { return vec3.T{p[0] * x, p[1] * y, p[2] * z} })
}

// eulerMatrix returns Rz(z)·Ry(y)·Rx(x) in row-major order.
func eulerMatrix(x, y, z float64) [3][3]float64 {
	sx, cx := math.Sincos(x)
	sy, cy := math.Sincos(y)
	sz, cz := math.Sincos(z)
	return [3][3]float64{
		{cz * cy, cz*sy*sx - sz*cx, cz*sy*cx + sz*sx},
		{sz * cy, sz*sy*sx + cz*cx, sz*sy*cx - cz*sx},
		{-sy, cy * sx, cy * cx},
	}
}

func mulMat(m [3][3]float64, p vec3.T) vec3.T {
	return vec3.T{
		m[0][0]*p[0] + m[0][1]*p[1] + m[0][2]*p[2],
		m[1][0]*p[0] + m[1][1]*p[1] + m[1][2]*p[2],
		m[2][0]*p[0] + m[2][1]*p[1] + m[2][2]*p[2],
	}
}

package meshup

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/chazu/meshup/pkg/export"
	"github.com/chazu/meshup/pkg/kernel"
)

// CurvePlane is the local frame of a planar curve.
type CurvePlane struct {
	Normal, X, Y Vector
}

// Curve is either a single NURBS curve or a compound chain of them.
// Edits replace the inner handle and return the receiver. Operations
// a compound curve does not support log a warning and return nil;
// every method on a nil *Curve fails with ErrInvalidState.
type Curve struct {
	sess     *Session
	simple   kernel.Curve
	compound kernel.Compound
	err      error
}

var errNilCurve = fmt.Errorf("%w: curve is nil", ErrInvalidState)

// NewCurve returns an unset curve.
func (s *Session) NewCurve() *Curve { return &Curve{sess: s} }

// CurveFrom wraps a kernel curve or compound.
func (s *Session) CurveFrom(shape kernel.CurveShape) *Curve {
	c := &Curve{sess: s}
	c.set(shape)
	return c
}

func (c *Curve) set(shape kernel.CurveShape) {
	c.simple, c.compound = nil, nil
	switch t := shape.(type) {
	case kernel.Curve:
		c.simple = t
	case kernel.Compound:
		c.compound = t
	}
}

func resolveAll(op string, points []PointLike) ([][3]float64, error) {
	if len(points) == 0 {
		return nil, argErr(op, "no points given")
	}
	out := make([][3]float64, len(points))
	for i, p := range points {
		pt, err := resolve(op, fmt.Sprintf("points[%d]", i), p)
		if err != nil {
			return nil, err
		}
		out[i] = pt.arr()
	}
	return out, nil
}

// Polyline returns a degree-1 curve through points with sharp corners.
func (s *Session) Polyline(points []PointLike) (*Curve, error) {
	const op = "Session.Polyline"
	pts, err := resolveAll(op, points)
	if err != nil {
		return nil, err
	}
	kc, err := s.k.Polyline(pts)
	if err != nil {
		return nil, opErr(op, fmt.Errorf("%w: %w", ErrInvalidArgument, err))
	}
	return s.CurveFrom(kc), nil
}

// Interpolated returns a smooth curve through points. A non-positive
// degree selects DefaultInterpolationDegree.
func (s *Session) Interpolated(points []PointLike, degree int) (*Curve, error) {
	const op = "Session.Interpolated"
	pts, err := resolveAll(op, points)
	if err != nil {
		return nil, err
	}
	if degree <= 0 {
		degree = DefaultInterpolationDegree
	}
	kc, err := s.k.Interpolated(pts, degree)
	if err != nil {
		return nil, opErr(op, fmt.Errorf("%w: %w", ErrInvalidArgument, err))
	}
	return s.CurveFrom(kc), nil
}

// --- state ---

// Err returns the first error recorded by an edit.
func (c *Curve) Err() error {
	if c == nil {
		return opErr("Curve.Err", errNilCurve)
	}
	return c.err
}

// IsCompound reports whether the curve is a compound chain.
func (c *Curve) IsCompound() bool { return c != nil && c.compound != nil }

// Inner returns the kernel handle.
func (c *Curve) Inner() (kernel.CurveShape, error) {
	const op = "Curve.Inner"
	switch {
	case c == nil:
		return nil, opErr(op, errNilCurve)
	case c.err != nil:
		return nil, c.err
	case c.compound != nil:
		return c.compound, nil
	case c.simple != nil:
		return c.simple, nil
	}
	return nil, opErr(op, fmt.Errorf("%w: curve is unset", ErrInvalidState))
}

// Copy returns an independent curve.
func (c *Curve) Copy() *Curve {
	shape, err := c.Inner()
	if err != nil {
		return nil
	}
	return c.sess.CurveFrom(shape.Clone())
}

// simpleFor returns the single curve for a soft query, warning when
// the curve is compound or unusable.
func (c *Curve) simpleFor(op string) (kernel.Curve, bool) {
	if _, err := c.Inner(); err != nil {
		if c != nil {
			c.sess.log.Warn("curve query unavailable", "op", op, "err", err)
		}
		return nil, false
	}
	if c.compound != nil {
		c.sess.log.Warn("query not supported on compound curves", "op", op)
		return nil, false
	}
	return c.simple, true
}

// --- soft queries ---

func (c *Curve) Degree() (int, bool) {
	kc, ok := c.simpleFor("Curve.Degree")
	if !ok {
		return 0, false
	}
	return kc.Degree(), true
}

func (c *Curve) Knots() ([]float64, bool) {
	kc, ok := c.simpleFor("Curve.Knots")
	if !ok {
		return nil, false
	}
	return kc.Knots(), true
}

// KnotsDomain returns the first and last knot.
func (c *Curve) KnotsDomain() (float64, float64, bool) {
	kc, ok := c.simpleFor("Curve.KnotsDomain")
	if !ok {
		return 0, 0, false
	}
	knots := kc.Knots()
	if len(knots) == 0 {
		return 0, 0, false
	}
	return knots[0], knots[len(knots)-1], true
}

func (c *Curve) Weights() ([]float64, bool) {
	kc, ok := c.simpleFor("Curve.Weights")
	if !ok {
		return nil, false
	}
	return kc.Weights(), true
}

// ParamAtLength returns the parameter at arc length l from the start.
func (c *Curve) ParamAtLength(l float64) (float64, bool) {
	kc, ok := c.simpleFor("Curve.ParamAtLength")
	if !ok {
		return 0, false
	}
	return kc.ParamAtLength(l), true
}

// ParamClosestToPoint returns the parameter of the curve point nearest p.
func (c *Curve) ParamClosestToPoint(p PointLike) (float64, bool) {
	const op = "Curve.ParamClosestToPoint"
	kc, ok := c.simpleFor(op)
	if !ok {
		return 0, false
	}
	pt, err := resolve(op, "p", p)
	if err != nil {
		c.sess.log.Warn("invalid point", "op", op, "err", err)
		return 0, false
	}
	return kc.ParamClosestTo(pt.arr()), true
}

// ControlPoints returns the control polygon, empty for compound curves.
func (c *Curve) ControlPoints() []Point {
	shape, err := c.Inner()
	if err != nil {
		return nil
	}
	var out []Point
	for _, p := range shape.ControlPoints() {
		out = append(out, pointOf(p))
	}
	return out
}

// --- delegated queries ---

func (c *Curve) Length() (float64, error) {
	shape, err := c.Inner()
	if err != nil {
		return 0, err
	}
	return shape.Length(), nil
}

// PointAtParam evaluates the curve. t is clamped to the domain.
func (c *Curve) PointAtParam(t float64) (Point, error) {
	shape, err := c.Inner()
	if err != nil {
		return Point{}, err
	}
	return pointOf(shape.PointAt(t)), nil
}

// Tessellate returns points whose chords stay within tol of the curve.
// A non-positive tol uses the session tolerance.
func (c *Curve) Tessellate(tol float64) ([]Point, error) {
	shape, err := c.Inner()
	if err != nil {
		return nil, err
	}
	if tol <= 0 {
		tol = c.sess.opts.TessellationTolerance
	}
	raw := shape.Tessellate(tol)
	out := make([]Point, len(raw))
	for i, p := range raw {
		out[i] = pointOf(p)
	}
	return out, nil
}

func (c *Curve) BBox() (Bbox, error) {
	shape, err := c.Inner()
	if err != nil {
		return Bbox{}, err
	}
	lo, hi, ok := shape.BoundingBox()
	if !ok {
		return Bbox{}, opErr("Curve.BBox", ErrNoBoundingBox)
	}
	return bboxOf(lo, hi), nil
}

// IsPlanar reports whether the curve lies in one plane.
func (c *Curve) IsPlanar() bool {
	_, ok := c.OnPlane(0)
	return ok
}

// OnPlane returns the curve's plane. A non-positive tol uses the
// session's planar tolerance.
func (c *Curve) OnPlane(tol float64) (CurvePlane, bool) {
	shape, err := c.Inner()
	if err != nil {
		return CurvePlane{}, false
	}
	if tol <= 0 {
		tol = c.sess.opts.PlanarTolerance
	}
	f, ok := shape.OnPlane(tol)
	if !ok {
		return CurvePlane{}, false
	}
	vec := func(a [3]float64) Vector { return V(a[0], a[1], a[2]) }
	return CurvePlane{Normal: vec(f.Normal), X: vec(f.X), Y: vec(f.Y)}, true
}

// Spans returns the compound's parts, or the curve itself.
func (c *Curve) Spans() []*Curve {
	if _, err := c.Inner(); err != nil {
		return nil
	}
	if c.compound == nil {
		return []*Curve{c}
	}
	var out []*Curve
	for _, span := range c.compound.Spans() {
		out = append(out, c.sess.CurveFrom(span))
	}
	return out
}

// --- edits ---

func (c *Curve) fail(op string, err error) *Curve {
	if c.err == nil {
		c.err = opErr(op, err)
		c.sess.log.Error("curve operation failed", "op", op, "err", c.err)
	}
	return c
}

// edit replaces the inner shape with f applied to it.
func (c *Curve) edit(op string, f func(kernel.CurveShape) kernel.CurveShape) *Curve {
	shape, err := c.Inner()
	if err != nil {
		if c == nil || c.err != nil {
			return c
		}
		return c.fail(op, err)
	}
	c.set(f(shape))
	return c
}

// Translate moves the curve by d.
func (c *Curve) Translate(d PointLike) *Curve {
	const op = "Curve.Translate"
	if c == nil {
		return nil
	}
	p, err := resolve(op, "d", d)
	if err != nil {
		return c.fail(op, err)
	}
	return c.TranslateXYZ(p.X, p.Y, p.Z)
}

// TranslateXYZ moves the curve by (dx, dy, dz).
func (c *Curve) TranslateXYZ(dx, dy, dz float64) *Curve {
	return c.edit("Curve.TranslateXYZ", func(s kernel.CurveShape) kernel.CurveShape { return s.Translate(dx, dy, dz) })
}

// Move is Translate.
func (c *Curve) Move(d PointLike) *Curve { return c.Translate(d) }

// Rotate applies Euler angles in radians about x, then y, then z.
func (c *Curve) Rotate(ax, ay, az float64) *Curve {
	return c.edit("Curve.Rotate", func(s kernel.CurveShape) kernel.CurveShape { return s.Rotate(ax, ay, az) })
}

// Scale multiplies control point coordinates per axis.
func (c *Curve) Scale(sx, sy, sz float64) *Curve {
	return c.edit("Curve.Scale", func(s kernel.CurveShape) kernel.CurveShape { return s.Scale(sx, sy, sz) })
}

// Fillet rounds corners with arcs of radius, at the given corner points
// or at every interior corner when none are given. The curve becomes
// compound. A compound curve logs a warning and returns nil.
func (c *Curve) Fillet(radius float64, at ...PointLike) *Curve {
	const op = "Curve.Fillet"
	kc, ok := c.filletTarget(op, radius)
	if !ok {
		return c.nilOrSelf()
	}
	var params []float64
	for i, p := range at {
		pt, err := resolve(op, fmt.Sprintf("at[%d]", i), p)
		if err != nil {
			return c.fail(op, err)
		}
		params = append(params, kc.ParamClosestTo(pt.arr()))
	}
	return c.fillet(op, kc, radius, params)
}

// FilletAtParams rounds the corners at the given curve parameters.
func (c *Curve) FilletAtParams(radius float64, params []float64) *Curve {
	const op = "Curve.FilletAtParams"
	kc, ok := c.filletTarget(op, radius)
	if !ok {
		return c.nilOrSelf()
	}
	if params == nil {
		params = []float64{}
	}
	return c.fillet(op, kc, radius, params)
}

func (c *Curve) filletTarget(op string, radius float64) (kernel.Curve, bool) {
	if _, err := c.Inner(); err != nil {
		if c != nil && c.err == nil {
			c.fail(op, err)
		}
		return nil, false
	}
	if c.compound != nil {
		c.sess.log.Warn("fillet is not supported on compound curves", "op", op)
		return nil, false
	}
	if !(radius > 0) || math.IsInf(radius, 0) {
		c.fail(op, argErr(op, "radius must be a positive finite number, got %g", radius))
		return nil, false
	}
	return c.simple, true
}

// nilOrSelf returns nil for an unsupported compound operation and the
// failed receiver otherwise.
func (c *Curve) nilOrSelf() *Curve {
	if c == nil || c.compound != nil {
		return nil
	}
	return c
}

func (c *Curve) fillet(op string, kc kernel.Curve, radius float64, params []float64) *Curve {
	cc, err := kc.Fillet(radius, params)
	if err != nil {
		return c.fail(op, fmt.Errorf("%w: %w", ErrDomain, err))
	}
	c.set(cc)
	return c
}

// Offset moves a planar curve sideways by distance, left of the travel
// direction for positive distances. Compound curves are not supported:
// the call is logged and returns a nil curve with a nil error.
func (c *Curve) Offset(distance float64, corner kernel.CornerType) (*Curve, error) {
	const op = "Curve.Offset"
	if _, err := c.Inner(); err != nil {
		return nil, err
	}
	if c.compound != nil {
		c.sess.log.Warn("offset is not implemented for compound curves", "op", op)
		return nil, nil
	}
	if !c.IsPlanar() {
		return nil, opErr(op, ErrNonPlanar)
	}
	off, err := c.simple.Offset(distance, corner)
	if err != nil {
		return nil, opErr(op, fmt.Errorf("%w: %w", ErrDomain, err))
	}
	c.set(off)
	return c, nil
}

// Extend is not implemented yet. It logs and returns a nil curve with a
// nil error.
func (c *Curve) Extend(length float64) (*Curve, error) {
	const op = "Curve.Extend"
	if c == nil {
		return nil, opErr(op, errNilCurve)
	}
	c.sess.log.Warn("extend is not implemented", "op", op, "length", length)
	return nil, nil
}

// ParseCornerType accepts "sharp", "round" or "smooth".
func ParseCornerType(s string) (kernel.CornerType, error) {
	for _, t := range []kernel.CornerType{kernel.CornerSharp, kernel.CornerRound, kernel.CornerSmooth} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown corner type %q", ErrInvalidArgument, s)
}

// --- export ---

// ToGLTF encodes the tessellated curve as a line-strip GLTF document.
func (c *Curve) ToGLTF(up Axis) ([]byte, error) {
	const op = "Curve.ToGLTF"
	pts, err := c.tessellated(op)
	if err != nil {
		return nil, err
	}
	data, err := export.GLTF(pts, export.ModeLineStrip, string(up))
	return data, opErr(op, err)
}

func (c *Curve) tessellated(op string) ([][3]float64, error) {
	shape, err := c.Inner()
	if err != nil {
		return nil, err
	}
	pts := shape.Tessellate(c.sess.opts.TessellationTolerance)
	if len(pts) < 2 {
		return nil, opErr(op, ErrNotEnoughVertices)
	}
	return pts, nil
}

// ToSVG draws the curve projected onto its own plane, or onto XY when
// it is not planar.
func (c *Curve) ToSVG(w io.Writer) error {
	const op = "Curve.ToSVG"
	pts, err := c.tessellated(op)
	if err != nil {
		return err
	}
	plane, ok := c.OnPlane(0)
	if !ok {
		plane = CurvePlane{Normal: V(0, 0, 1), X: V(1, 0, 0), Y: V(0, 1, 0)}
	}
	path := make(export.Path, len(pts))
	for i, p := range pts {
		v := V(p[0], p[1], p[2])
		path[i] = [2]float64{v.Dot(plane.X), v.Dot(plane.Y)}
	}
	err = export.WriteSVG(w, []export.Path{path}, export.DefaultSVGOptions())
	if errors.Is(err, export.ErrNoPositions) {
		err = fmt.Errorf("%w: %w", ErrNotEnoughVertices, err)
	}
	return opErr(op, err)
}

// SaveDXF writes the tessellated curve as DXF line entities.
func (c *Curve) SaveDXF(path string) error {
	const op = "Curve.SaveDXF"
	pts, err := c.tessellated(op)
	if err != nil {
		return err
	}
	return opErr(op, export.SaveDXF(path, pts))
}

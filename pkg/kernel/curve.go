package kernel

// CornerType selects how offset curves join at corners.
type CornerType int

const (
	CornerSharp CornerType = iota
	CornerRound
	CornerSmooth
)

// String returns the lower-case corner name.
func (c CornerType) String() string {
	switch c {
	case CornerRound:
		return "round"
	case CornerSmooth:
		return "smooth"
	default:
		return "sharp"
	}
}

// Frame is a local orthonormal frame for a planar curve.
type Frame struct {
	Normal [3]float64
	X      [3]float64
	Y      [3]float64
}

// CurveShape is the behavior shared by simple and compound curves.
// Transforms return new handles and leave the receiver untouched.
type CurveShape interface {
	Length() float64
	Domain() (t0, t1 float64)
	PointAt(t float64) [3]float64
	Tessellate(tol float64) [][3]float64
	BoundingBox() (min, max [3]float64, ok bool)
	ControlPoints() [][3]float64
	// OnPlane returns the curve's plane with axes snapped to the
	// closest global axes, or false if the curve is not planar.
	OnPlane(tol float64) (Frame, bool)

	Clone() CurveShape
	Translate(x, y, z float64) CurveShape
	Rotate(x, y, z float64) CurveShape // Euler angles in radians
	Scale(x, y, z float64) CurveShape
}

// Curve is a single NURBS curve.
type Curve interface {
	CurveShape

	Degree() int
	Knots() []float64
	Weights() []float64
	ParamAtLength(length float64) float64
	ParamClosestTo(p [3]float64) float64

	// Fillet rounds the corners at the given parameters, or every
	// interior corner when params is nil. The result is always compound.
	Fillet(radius float64, params []float64) (Compound, error)
	// Offset returns the curve moved sideways by distance within its
	// plane. The curve must be planar.
	Offset(distance float64, corner CornerType) (Curve, error)
}

// Compound is an ordered chain of curves joined end to end.
type Compound interface {
	CurveShape
	Spans() []Curve
}

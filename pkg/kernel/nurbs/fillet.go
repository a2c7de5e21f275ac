package nurbs

import (
	"math"

	"github.com/chazu/meshup/pkg/kernel"
	"github.com/ungerik/go3d/float64/vec3"
)

// Fillet replaces polyline corners with circular arcs of the given
// radius. Corners are selected by parameter; nil selects every interior
// corner. The radius shrinks where a segment is too short to hold the
// full tangent length. Curves of higher degree have no corners and come
// back as a single-span compound.
func (c *Curve) Fillet(radius float64, params []float64) (kernel.Compound, error) {
	if c.degree != 1 || len(c.ctrl) < 3 || radius <= 0 {
		return NewCompound(c.clone()), nil
	}

	// Corner i sits at knot i+1 for a degree-1 curve.
	selected := make([]bool, len(c.ctrl))
	if params == nil {
		for i := 1; i < len(c.ctrl)-1; i++ {
			selected[i] = true
		}
	} else {
		t0, t1 := c.Domain()
		eps := 1e-6 * math.Max(t1-t0, 1)
		for _, t := range params {
			for i := 1; i < len(c.ctrl)-1; i++ {
				if math.Abs(c.knots[i+1]-t) <= eps {
					selected[i] = true
				}
			}
		}
	}

	var spans []*Curve
	start := c.ctrl[0]
	addLine := func(a, b vec3.T) {
		if vec3.Distance(&a, &b) < 1e-12 {
			return
		}
		line, _ := polyline([]vec3.T{a, b})
		spans = append(spans, line)
	}

	for i := 1; i < len(c.ctrl)-1; i++ {
		prev, corner, next := c.ctrl[i-1], c.ctrl[i], c.ctrl[i+1]
		if !selected[i] {
			addLine(start, corner)
			start = corner
			continue
		}
		arc, t1, t2, ok := cornerArc(prev, corner, next, radius)
		if !ok {
			addLine(start, corner)
			start = corner
			continue
		}
		addLine(start, t1)
		spans = append(spans, arc)
		start = t2
	}
	addLine(start, c.ctrl[len(c.ctrl)-1])

	return NewCompound(spans...), nil
}

// cornerArc builds the rational quadratic arc tangent to both segments
// at a corner. t1 and t2 are the tangent points.
func cornerArc(prev, corner, next vec3.T, radius float64) (arc *Curve, t1, t2 vec3.T, ok bool) {
	in := vec3.Sub(&corner, &prev)
	out := vec3.Sub(&next, &corner)
	lenIn, lenOut := in.Length(), out.Length()
	if lenIn == 0 || lenOut == 0 {
		return nil, t1, t2, false
	}
	d1 := in.Scaled(1 / lenIn)
	d2 := out.Scaled(1 / lenOut)
	cosTurn := math.Max(-1, math.Min(1, vec3.Dot(&d1, &d2)))
	turn := math.Acos(cosTurn)
	if turn < 1e-9 || math.Pi-turn < 1e-9 {
		return nil, t1, t2, false
	}

	// Tangent length for a fillet of radius r is r·tan(turn/2).
	tl := radius * math.Tan(turn/2)
	tl = math.Min(tl, math.Min(lenIn, lenOut)/2)

	back := d1.Scaled(-tl)
	fwd := d2.Scaled(tl)
	t1 = vec3.Add(&corner, &back)
	t2 = vec3.Add(&corner, &fwd)

	arc = &Curve{
		degree:  2,
		ctrl:    []vec3.T{t1, corner, t2},
		weights: []float64{1, math.Cos(turn / 2), 1},
		knots:   []float64{0, 0, 0, 1, 1, 1},
	}
	return arc, t1, t2, true
}

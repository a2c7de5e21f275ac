package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/meshup/pkg/meshup"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpMesh wraps a mesh so it can be passed between builtins.
type sexpMesh struct {
	m *meshup.Mesh
}

func (s *sexpMesh) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(mesh %s)", shortID(s.m.ID()))
}
func (s *sexpMesh) Type() *zygo.RegisteredType { return nil }

// sexpCurve wraps a curve.
type sexpCurve struct {
	c *meshup.Curve
}

func (s *sexpCurve) SexpString(ps *zygo.PrintState) string {
	if s.c.IsCompound() {
		return fmt.Sprintf("(curve :spans %d)", len(s.c.Spans()))
	}
	d, _ := s.c.Degree()
	return fmt.Sprintf("(curve :degree %d)", d)
}
func (s *sexpCurve) Type() *zygo.RegisteredType { return nil }

// sexpCollection wraps a mesh collection.
type sexpCollection struct {
	mc *meshup.MeshCollection
}

func (s *sexpCollection) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(collection :len %d)", s.mc.Len())
}
func (s *sexpCollection) Type() *zygo.RegisteredType { return nil }

// sexpPoint wraps a point built by (pt ...).
type sexpPoint struct {
	p meshup.Point
}

func (s *sexpPoint) SexpString(ps *zygo.PrintState) string {
	if s.p.Dimension() == 2 {
		return fmt.Sprintf("(pt %g %g)", s.p.X, s.p.Y)
	}
	return fmt.Sprintf("(pt %g %g %g)", s.p.X, s.p.Y, s.p.Z)
}
func (s *sexpPoint) Type() *zygo.RegisteredType { return nil }

// sexpVector wraps a vector built by (vec ...).
type sexpVector struct {
	v meshup.Vector
}

func (s *sexpVector) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec %g %g %g)", s.v.X, s.v.Y, s.v.Z)
}
func (s *sexpVector) Type() *zygo.RegisteredType { return nil }

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", describe(s))
}

// toInt extracts an integer. Floats must be whole.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %s", describe(s))
}

func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		// A trailing flag keyword.
		return v == zygo.SexpNull, nil
	}
	return false, fmt.Errorf("expected boolean, got %s", describe(s))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", describe(s))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_round) and plain strings ("round").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, err := toString(s)
	if err != nil {
		return "", fmt.Errorf("expected keyword or string: %w", err)
	}
	return strings.TrimPrefix(str, kwPrefix), nil
}

// toPointLike accepts (pt ...), (vec ...), an axis keyword, or a list or
// array of two or three numbers.
func toPointLike(s zygo.Sexp) (meshup.PointLike, error) {
	switch v := s.(type) {
	case *sexpPoint:
		return v.p, nil
	case *sexpVector:
		return v.v, nil
	case *zygo.SexpStr:
		name, _ := toKeywordString(v)
		return meshup.ParseAxis(name)
	case *zygo.SexpArray, *zygo.SexpPair:
		items, err := sexpListToSlice(s)
		if err != nil {
			return nil, err
		}
		coords := make(meshup.Coords, len(items))
		for i, item := range items {
			if coords[i], err = toFloat64(item); err != nil {
				return nil, fmt.Errorf("coordinate %d: %w", i, err)
			}
		}
		return coords, nil
	}
	return nil, fmt.Errorf("expected point, got %s", describe(s))
}

// toPointList accepts either a single list of points or the points
// themselves as separate arguments.
func toPointList(args []zygo.Sexp) ([]meshup.PointLike, error) {
	if len(args) == 1 {
		if items, err := sexpListToSlice(args[0]); err == nil && len(items) > 0 {
			if _, err := toFloat64(items[0]); err != nil {
				args = items
			}
		}
	}
	pts := make([]meshup.PointLike, len(args))
	for i, a := range args {
		p, err := toPointLike(a)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		pts[i] = p
	}
	return pts, nil
}

func toMesh(s zygo.Sexp) (*meshup.Mesh, error) {
	if m, ok := s.(*sexpMesh); ok {
		return m.m, nil
	}
	return nil, fmt.Errorf("expected mesh, got %s", describe(s))
}

func toCurve(s zygo.Sexp) (*meshup.Curve, error) {
	if c, ok := s.(*sexpCurve); ok {
		return c.c, nil
	}
	return nil, fmt.Errorf("expected curve, got %s", describe(s))
}

// toMeshSource accepts a mesh or a collection.
func toMeshSource(s zygo.Sexp) (meshup.MeshSource, error) {
	switch v := s.(type) {
	case *sexpMesh:
		return v.m, nil
	case *sexpCollection:
		return v.mc, nil
	}
	return nil, fmt.Errorf("expected mesh or collection, got %s", describe(s))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %s", describe(s))
}

func describe(s zygo.Sexp) string {
	if s == nil {
		return "nothing"
	}
	return fmt.Sprintf("%T (%s)", s, s.SexpString(nil))
}

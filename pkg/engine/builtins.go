package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/meshup/pkg/kernel"
	"github.com/chazu/meshup/pkg/meshup"
	"github.com/chazu/meshup/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// Taubin smoothing defaults for (smooth ...).
const (
	defaultSmoothLambda     = 0.5
	defaultSmoothMu         = -0.53
	defaultSmoothIterations = 3
)

type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// displayName turns a registered builtin name back into its source form.
func displayName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// arity checks the positional argument count. max < 0 means unbounded.
func arity(name string, args []zygo.Sexp, min, max int) error {
	n := len(args)
	switch {
	case max < 0 && n < min:
		return fmt.Errorf("%s requires at least %d arguments, got %d", displayName(name), min, n)
	case max >= 0 && (n < min || n > max):
		if min == max {
			return fmt.Errorf("%s requires exactly %d arguments, got %d", displayName(name), min, n)
		}
		return fmt.Errorf("%s requires %d to %d arguments, got %d", displayName(name), min, max, n)
	}
	return nil
}

// floats converts every arg to a number.
func floats(name string, args []zygo.Sexp) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", displayName(name), i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// meshResult wraps m, turning a failed mesh into an evaluation error.
func meshResult(name string, m *meshup.Mesh) (zygo.Sexp, error) {
	if err := m.Err(); err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", displayName(name), err)
	}
	return &sexpMesh{m: m}, nil
}

func curveResult(name string, c *meshup.Curve) (zygo.Sexp, error) {
	if c == nil {
		return zygo.SexpNull, fmt.Errorf("%s: operation is not supported on this curve", displayName(name))
	}
	if err := c.Err(); err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", displayName(name), err)
	}
	return &sexpCurve{c: c}, nil
}

// addValue registers val in the scene under name. Collections add one
// part per member, suffixed -1, -2, ... Other values are ignored.
func addValue(sc *scene.Scene, name string, val zygo.Sexp) bool {
	switch v := val.(type) {
	case *sexpMesh:
		sc.AddMesh(name, v.m)
	case *sexpCurve:
		sc.AddCurve(name, v.c)
	case *sexpCollection:
		for i, m := range v.mc.Meshes() {
			sc.AddMesh(fmt.Sprintf("%s-%d", name, i+1), m)
		}
	default:
		return false
	}
	return true
}

// transform applies a mesh edit and a curve edit to a mesh, curve, or
// every member of a collection. A nil curve edit rejects curves.
func transform(name string, target zygo.Sexp, onMesh func(*meshup.Mesh) *meshup.Mesh, onCurve func(*meshup.Curve) *meshup.Curve) (zygo.Sexp, error) {
	switch v := target.(type) {
	case *sexpMesh:
		return meshResult(name, onMesh(v.m))
	case *sexpCurve:
		if onCurve == nil {
			return zygo.SexpNull, fmt.Errorf("%s: curves are not supported", displayName(name))
		}
		return curveResult(name, onCurve(v.c))
	case *sexpCollection:
		for _, m := range v.mc.Meshes() {
			if err := onMesh(m).Err(); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", displayName(name), err)
			}
		}
		return v, nil
	}
	return zygo.SexpNull, fmt.Errorf("%s: expected mesh, curve or collection, got %s", displayName(name), describe(target))
}

// vectorArgs reads either a single point-like argument or three numbers.
func vectorArgs(name string, args []zygo.Sexp) (meshup.Vector, error) {
	if len(args) == 1 {
		p, err := toPointLike(args[0])
		if err != nil {
			return meshup.Vector{}, fmt.Errorf("%s: %w", displayName(name), err)
		}
		return meshup.NewVector(p)
	}
	if err := arity(name, args, 3, 3); err != nil {
		return meshup.Vector{}, err
	}
	f, err := floats(name, args)
	if err != nil {
		return meshup.Vector{}, err
	}
	return meshup.V(f[0], f[1], f[2]), nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the meshup builtins into a zygomys environment.
// Geometry is built in the scene's session; (part ...) populates the scene.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens and kebab-case names are recognizable.
func registerBuiltins(env *zygo.Zlisp, sc *scene.Scene) {
	sess := sc.Session()
	for name, fn := range valueBuiltins() {
		env.AddFunction(name, fn)
	}
	for name, fn := range meshBuiltins(sess) {
		env.AddFunction(name, fn)
	}
	for name, fn := range curveBuiltins(sess) {
		env.AddFunction(name, fn)
	}
	for name, fn := range operationBuiltins(sess) {
		env.AddFunction(name, fn)
	}

	// (part "name" obj) adds obj to the scene and returns it.
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(name, args, 2, 2); err != nil {
			return zygo.SexpNull, err
		}
		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}
		if !addValue(sc, partName, args[1]) {
			return zygo.SexpNull, fmt.Errorf("part %q: expected mesh, curve or collection, got %s", partName, describe(args[1]))
		}
		return args[1], nil
	})
}

// valueBuiltins: (pt x y [z]), (vec x y z), (rad deg), (deg rad).
func valueBuiltins() map[string]builtin {
	return map[string]builtin{
		"pt": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, 2, 3); err != nil {
				return zygo.SexpNull, err
			}
			f, err := floats(name, args)
			if err != nil {
				return zygo.SexpNull, err
			}
			if len(f) == 2 {
				return &sexpPoint{p: meshup.P2(f[0], f[1])}, nil
			}
			return &sexpPoint{p: meshup.P(f[0], f[1], f[2])}, nil
		},
		"vec": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			v, err := vectorArgs(name, args)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpVector{v: v}, nil
		},
		"rad": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, 1, 1); err != nil {
				return zygo.SexpNull, err
			}
			f, err := floats(name, args)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &zygo.SexpFloat{Val: meshup.Rad(f[0])}, nil
		},
		"deg": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, 1, 1); err != nil {
				return zygo.SexpNull, err
			}
			f, err := floats(name, args)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &zygo.SexpFloat{Val: meshup.Deg(f[0])}, nil
		},
	}
}

// meshBuiltins are the solid constructors.
func meshBuiltins(sess *meshup.Session) map[string]builtin {
	// numeric wraps a constructor taking exactly n numbers.
	numeric := func(n int, build func(f []float64) *meshup.Mesh) builtin {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, n, n); err != nil {
				return zygo.SexpNull, err
			}
			f, err := floats(name, args)
			if err != nil {
				return zygo.SexpNull, err
			}
			return meshResult(name, build(f))
		}
	}
	cuboid := numeric(3, func(f []float64) *meshup.Mesh { return sess.Cuboid(f[0], f[1], f[2]) })

	return map[string]builtin{
		"cube":   numeric(1, func(f []float64) *meshup.Mesh { return sess.Cube(f[0]) }),
		"cuboid": cuboid,
		"box":    cuboid,
		"sphere": numeric(1, func(f []float64) *meshup.Mesh { return sess.Sphere(f[0]) }),
		// (cylinder radius height)
		"cylinder": numeric(2, func(f []float64) *meshup.Mesh { return sess.Cylinder(f[0], f[1]) }),
		// (rounded-cuboid w d h radius)
		"rounded_cuboid": numeric(4, func(f []float64) *meshup.Mesh { return sess.RoundedCuboid(f[0], f[1], f[2], f[3]) }),
		"empty_mesh":     numeric(0, func([]float64) *meshup.Mesh { return sess.NewMesh() }),

		// (box-between (pt 0 0 0) (pt 10 20 30))
		"box_between": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, 2, 2); err != nil {
				return zygo.SexpNull, err
			}
			pts, err := toPointList(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box-between: %w", err)
			}
			return meshResult(name, sess.BoxBetween(pts[0], pts[1]))
		},

		// (polyhedron [[p p p] [p p p] ...]) builds a mesh from faces.
		"polyhedron": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, 1, 1); err != nil {
				return zygo.SexpNull, err
			}
			faces, err := sexpListToSlice(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("polyhedron: %w", err)
			}
			polys := make([][]meshup.PointLike, len(faces))
			for i, f := range faces {
				corners, err := sexpListToSlice(f)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("polyhedron: face %d: %w", i, err)
				}
				if polys[i], err = toPointList(corners); err != nil {
					return zygo.SexpNull, fmt.Errorf("polyhedron: face %d: %w", i, err)
				}
			}
			return meshResult(name, sess.FromPolygons(polys))
		},
	}
}

// curveBuiltins are the curve constructors and curve-only edits.
func curveBuiltins(sess *meshup.Session) map[string]builtin {
	return map[string]builtin{
		// (polyline p1 p2 ...) or (polyline [p1 p2 ...])
		"polyline": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pts, err := toPointList(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("polyline: %w", err)
			}
			c, err := sess.Polyline(pts)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("polyline: %w", err)
			}
			return curveResult(name, c)
		},

		// (interpolated p1 p2 ... :degree 3)
		"interpolated": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			degree := meshup.DefaultInterpolationDegree
			if v, ok := pa.kw["degree"]; ok {
				d, err := toInt(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("interpolated: degree: %w", err)
				}
				degree = d
			}
			pts, err := toPointList(pa.positional)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("interpolated: %w", err)
			}
			c, err := sess.Interpolated(pts, degree)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("interpolated: %w", err)
			}
			return curveResult(name, c)
		},

		// (fillet curve radius [corner-point ...])
		"fillet": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, 2, -1); err != nil {
				return zygo.SexpNull, err
			}
			c, err := toCurve(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("fillet: %w", err)
			}
			r, err := toFloat64(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("fillet: radius: %w", err)
			}
			var at []meshup.PointLike
			if len(args) > 2 {
				if at, err = toPointList(args[2:]); err != nil {
					return zygo.SexpNull, fmt.Errorf("fillet: %w", err)
				}
			}
			return curveResult(name, c.Fillet(r, at...))
		},

		// (offset curve distance :corner :round)
		"offset": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if err := arity(name, pa.positional, 2, 2); err != nil {
				return zygo.SexpNull, err
			}
			c, err := toCurve(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("offset: %w", err)
			}
			d, err := toFloat64(pa.positional[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("offset: distance: %w", err)
			}
			corner := kernel.CornerSharp
			if v, ok := pa.kw["corner"]; ok {
				s, err := toKeywordString(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("offset: corner: %w", err)
				}
				if corner, err = meshup.ParseCornerType(s); err != nil {
					return zygo.SexpNull, fmt.Errorf("offset: %w", err)
				}
			}
			out, err := c.Offset(d, corner)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("offset: %w", err)
			}
			return curveResult(name, out)
		},

		// (arc-length curve)
		"arc_length": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, 1, 1); err != nil {
				return zygo.SexpNull, err
			}
			c, err := toCurve(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("arc-length: %w", err)
			}
			l, err := c.Length()
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("arc-length: %w", err)
			}
			return &zygo.SexpFloat{Val: l}, nil
		},
	}
}

// operationBuiltins are transforms, booleans, topology and batch
// operations. Transforms edit their target in place; booleans and hull
// return new meshes and leave their inputs alone.
func operationBuiltins(sess *meshup.Session) map[string]builtin {
	// (translate obj x y z) or (translate obj (vec x y z))
	translate := func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := arity(name, args, 2, 4); err != nil {
			return zygo.SexpNull, err
		}
		d, err := vectorArgs(name, args[1:])
		if err != nil {
			return zygo.SexpNull, err
		}
		return transform(name, args[0],
			func(m *meshup.Mesh) *meshup.Mesh { return m.Translate(d) },
			func(c *meshup.Curve) *meshup.Curve { return c.Translate(d) })
	}

	// boolean folds the remaining sources into a copy of the first mesh.
	boolean := func(op func(acc, m *meshup.Mesh) *meshup.Mesh) builtin {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, 2, -1); err != nil {
				return zygo.SexpNull, err
			}
			first, err := toMesh(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: argument 1: %w", displayName(name), err)
			}
			acc := first.Copy()
			for i, a := range args[1:] {
				src, err := toMeshSource(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: argument %d: %w", displayName(name), i+2, err)
				}
				for _, m := range src.Meshes() {
					acc = op(acc, m)
				}
			}
			return meshResult(name, acc)
		}
	}

	// meshOnly wraps an edit that has no curve form.
	meshOnly := func(n int, edit func(m *meshup.Mesh, f []float64) *meshup.Mesh) builtin {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, 1+n, 1+n); err != nil {
				return zygo.SexpNull, err
			}
			f, err := floats(name, args[1:])
			if err != nil {
				return zygo.SexpNull, err
			}
			return transform(name, args[0], func(m *meshup.Mesh) *meshup.Mesh { return edit(m, f) }, nil)
		}
	}

	return map[string]builtin{
		"translate": translate,
		"move":      translate,

		// (rotate obj ax ay az), radians about x, then y, then z.
		"rotate": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, 4, 4); err != nil {
				return zygo.SexpNull, err
			}
			f, err := floats(name, args[1:])
			if err != nil {
				return zygo.SexpNull, err
			}
			return transform(name, args[0],
				func(m *meshup.Mesh) *meshup.Mesh { return m.Rotate(f[0], f[1], f[2]) },
				func(c *meshup.Curve) *meshup.Curve { return c.Rotate(f[0], f[1], f[2]) })
		},

		// (scale obj s) or (scale obj sx sy sz)
		"scale": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 && len(args) != 4 {
				return zygo.SexpNull, fmt.Errorf("scale requires an object and 1 or 3 factors, got %d arguments", len(args))
			}
			f, err := floats(name, args[1:])
			if err != nil {
				return zygo.SexpNull, err
			}
			if len(f) == 1 {
				f = []float64{f[0], f[0], f[0]}
			}
			return transform(name, args[0],
				func(m *meshup.Mesh) *meshup.Mesh { return m.Scale(f[0], f[1], f[2]) },
				func(c *meshup.Curve) *meshup.Curve { return c.Scale(f[0], f[1], f[2]) })
		},

		// (mirror obj normal :at point)
		"mirror": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if err := arity(name, pa.positional, 2, 2); err != nil {
				return zygo.SexpNull, err
			}
			dir, err := toPointLike(pa.positional[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mirror: normal: %w", err)
			}
			var at meshup.PointLike
			if v, ok := pa.kw["at"]; ok {
				if at, err = toPointLike(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("mirror: at: %w", err)
				}
			}
			return transform(name, pa.positional[0], func(m *meshup.Mesh) *meshup.Mesh { return m.Mirror(dir, at) }, nil)
		},

		"center": meshOnly(0, func(m *meshup.Mesh, _ []float64) *meshup.Mesh { return m.MoveToCenter() }),
		// (place obj z) drops the lowest point to height z.
		"place":       meshOnly(1, func(m *meshup.Mesh, f []float64) *meshup.Mesh { return m.Place(f[0]) }),
		"triangulate": meshOnly(0, func(m *meshup.Mesh, _ []float64) *meshup.Mesh { return m.Triangulate() }),

		// (smooth mesh :iterations 3 :lambda 0.5 :mu -0.53 :preserve-boundaries)
		"smooth": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if err := arity(name, pa.positional, 1, 1); err != nil {
				return zygo.SexpNull, err
			}
			lambda, mu, iterations, preserve := defaultSmoothLambda, defaultSmoothMu, defaultSmoothIterations, false
			var err error
			if v, ok := pa.kw["lambda"]; ok {
				if lambda, err = toFloat64(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("smooth: lambda: %w", err)
				}
			}
			if v, ok := pa.kw["mu"]; ok {
				if mu, err = toFloat64(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("smooth: mu: %w", err)
				}
			}
			if v, ok := pa.kw["iterations"]; ok {
				if iterations, err = toInt(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("smooth: iterations: %w", err)
				}
			}
			if v, ok := pa.kw["preserve-boundaries"]; ok {
				if preserve, err = toBool(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("smooth: preserve-boundaries: %w", err)
				}
			}
			return transform(name, pa.positional[0], func(m *meshup.Mesh) *meshup.Mesh {
				return m.Smooth(lambda, mu, iterations, preserve)
			}, nil)
		},

		"union":        boolean(func(acc, m *meshup.Mesh) *meshup.Mesh { return acc.Union(m) }),
		"difference":   boolean(func(acc, m *meshup.Mesh) *meshup.Mesh { return acc.Difference(m) }),
		"intersection": boolean(func(acc, m *meshup.Mesh) *meshup.Mesh { return acc.Intersection(m) }),

		"hull": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, 1, 1); err != nil {
				return zygo.SexpNull, err
			}
			m, err := toMesh(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("hull: %w", err)
			}
			return meshResult(name, m.Hull())
		},

		// (clone obj) copies a mesh or curve.
		"clone": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, 1, 1); err != nil {
				return zygo.SexpNull, err
			}
			switch v := args[0].(type) {
			case *sexpMesh:
				return meshResult(name, v.m.Copy())
			case *sexpCurve:
				return curveResult(name, v.c.Copy())
			}
			return zygo.SexpNull, fmt.Errorf("clone: expected mesh or curve, got %s", describe(args[0]))
		},

		// (volume mesh-or-collection)
		"volume": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, 1, 1); err != nil {
				return zygo.SexpNull, err
			}
			src, err := toMeshSource(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("volume: %w", err)
			}
			v, err := sess.NewMeshCollection(src.Meshes()).Volume()
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("volume: %w", err)
			}
			return &zygo.SexpFloat{Val: v}, nil
		},

		// (collection a b ...) groups meshes, collections and lists of
		// meshes. Other arguments are skipped with a warning.
		"collection": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			items := make([]any, len(args))
			for i, a := range args {
				items[i] = collectionItem(a)
			}
			return &sexpCollection{mc: sess.NewMeshCollection(items...)}, nil
		},

		// (row mesh count spacing :direction :y)
		"row": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if err := arity(name, pa.positional, 3, 3); err != nil {
				return zygo.SexpNull, err
			}
			m, err := toMesh(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("row: %w", err)
			}
			count, err := toInt(pa.positional[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("row: count: %w", err)
			}
			spacing, err := toFloat64(pa.positional[2])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("row: spacing: %w", err)
			}
			var dir meshup.PointLike
			if v, ok := pa.kw["direction"]; ok {
				if dir, err = toPointLike(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("row: direction: %w", err)
				}
			}
			mc, err := m.Row(count, spacing, dir)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("row: %w", err)
			}
			return &sexpCollection{mc: mc}, nil
		},

		// (grid mesh cx cy cz spacing)
		"grid": func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := arity(name, args, 5, 5); err != nil {
				return zygo.SexpNull, err
			}
			m, err := toMesh(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: %w", err)
			}
			var counts [3]int
			for i := range counts {
				if counts[i], err = toInt(args[1+i]); err != nil {
					return zygo.SexpNull, fmt.Errorf("grid: count %d: %w", i+1, err)
				}
			}
			spacing, err := toFloat64(args[4])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: spacing: %w", err)
			}
			mc, err := m.Grid(counts[0], counts[1], counts[2], spacing)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: %w", err)
			}
			return &sexpCollection{mc: mc}, nil
		},
	}
}

// collectionItem maps a script value onto what Session.NewMeshCollection
// flattens. Lists and arrays go one level deep; everything else passes
// through unchanged so the session logs and drops it.
func collectionItem(s zygo.Sexp) any {
	switch v := s.(type) {
	case *sexpMesh:
		return v.m
	case *sexpCollection:
		return v.mc
	case *zygo.SexpPair, *zygo.SexpArray:
		elems, err := sexpListToSlice(v)
		if err != nil {
			return s
		}
		out := make([]any, len(elems))
		for i, e := range elems {
			if m, ok := e.(*sexpMesh); ok {
				out[i] = m.m
			} else {
				out[i] = e
			}
		}
		return out
	}
	return s
}

package engine

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/chazu/meshup/pkg/kernel"
	"github.com/chazu/meshup/pkg/kernel/csg"
	"github.com/chazu/meshup/pkg/kernel/nurbs"
	"github.com/chazu/meshup/pkg/meshup"
	"github.com/chazu/meshup/pkg/scene"
)

const tol = 1e-6

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(offset c 2 :corner :round)`,
			expect: `(offset c 2 "__kw_corner" "__kw_round")`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"a \" :b" :c`,
			expect: `"a \" :b" "__kw_c"`,
		},
		{
			name:   "backtick string preserved",
			input:  "`raw :kw box-between`",
			expect: "`raw :kw box-between`",
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(box-between a b)`,
			expect: `(box_between a b)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(translate m -5 0 0)`,
			expect: `(translate m -5 0 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:preserve-boundaries`,
			expect: `"__kw_preserve-boundaries"`,
		},
		{
			name:   "unterminated string",
			input:  `"open :kw`,
			expect: `"open :kw`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// mustEval evaluates source and fails the test on any error.
func mustEval(t *testing.T, source string) *scene.Scene {
	t.Helper()
	sc, evalErrs, err := newTestEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if sc == nil {
		t.Fatal("expected non-nil scene")
	}
	return sc
}

func meshPart(t *testing.T, sc *scene.Scene, name string) *meshup.Mesh {
	t.Helper()
	p := sc.Lookup(name)
	if p == nil {
		t.Fatalf("expected part named %q", name)
	}
	if p.Kind != scene.PartMesh {
		t.Fatalf("part %q is a %s, want mesh", name, p.Kind)
	}
	return p.Mesh
}

func curvePart(t *testing.T, sc *scene.Scene, name string) *meshup.Curve {
	t.Helper()
	p := sc.Lookup(name)
	if p == nil {
		t.Fatalf("expected part named %q", name)
	}
	if p.Kind != scene.PartCurve {
		t.Fatalf("part %q is a %s, want curve", name, p.Kind)
	}
	return p.Curve
}

func volumeOf(t *testing.T, m *meshup.Mesh) float64 {
	t.Helper()
	v, err := m.Volume()
	if err != nil {
		t.Fatalf("Volume failed: %v", err)
	}
	return v
}

// ---------------------------------------------------------------------------
// Solids
// ---------------------------------------------------------------------------

func TestPrimitiveVolumes(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   float64
	}{
		{"cube", `(part "p" (cube 10))`, 1000},
		{"cuboid", `(part "p" (cuboid 2 3 4))`, 24},
		{"box alias", `(part "p" (box 1 2 3))`, 6},
		{"box between", `(part "p" (box-between (pt 0 0 0) (pt 2 -3 4)))`, 24},
		{"box between arrays", `(part "p" (box-between [0 0 0] [1 1 1]))`, 1},
		{"scaled", `(part "p" (scale (cube 1) 2))`, 8},
		{"scaled per axis", `(part "p" (scale (cube 1) 1 2 3))`, 6},
		{"variable", `(def s 4) (part "p" (cuboid s 2 1))`, 8},
		{"computed", `(def v (volume (cube 2))) (part "p" (cube v))`, 512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := mustEval(t, tt.source)
			if v := volumeOf(t, meshPart(t, sc, "p")); math.Abs(v-tt.want) > tol {
				t.Errorf("volume = %v, want %v", v, tt.want)
			}
		})
	}
}

func TestSphereAndCylinder(t *testing.T) {
	sc := mustEval(t, `
(part "ball" (sphere 5))
(part "rod" (cylinder 1 10))
(part "soft" (rounded-cuboid 10 10 10 1))
`)
	if v := volumeOf(t, meshPart(t, sc, "ball")); v <= 0 || v > 4.0/3*math.Pi*125 {
		t.Errorf("sphere volume = %v", v)
	}
	if v := volumeOf(t, meshPart(t, sc, "rod")); v <= 0 || v > math.Pi*10 {
		t.Errorf("cylinder volume = %v", v)
	}
	if v := volumeOf(t, meshPart(t, sc, "soft")); v <= 0 || v >= 1000 {
		t.Errorf("rounded cuboid volume = %v", v)
	}
	if sc.Len() != 3 {
		t.Errorf("expected 3 parts, got %d", sc.Len())
	}
}

func TestPolyhedron(t *testing.T) {
	sc := mustEval(t, `
(def a [0 0 0]) (def b [1 0 0]) (def c [0 1 0]) (def d [0 0 1])
(part "tet" (polyhedron [[a c b] [a b d] [a d c] [b c d]]))
`)
	if v := volumeOf(t, meshPart(t, sc, "tet")); math.Abs(v-1.0/6) > tol {
		t.Errorf("tetrahedron volume = %v, want 1/6", v)
	}
}

// ---------------------------------------------------------------------------
// Transforms and booleans
// ---------------------------------------------------------------------------

func TestTranslateForms(t *testing.T) {
	sc := mustEval(t, `
(part "a" (translate (cube 2) 5 0 0))
(part "b" (move (cube 2) (vec 0 5 0)))
(part "c" (translate (cube 2) [0 0 5]))
(part "d" (place (cube 2) 3))
(part "e" (center (translate (cube 2) 7 7 7)))
(part "f" (rotate (translate (cube 2) 5 0 0) 0 0 (rad 90)))
(part "g" (mirror (translate (cube 2) 5 0 0) (vec 1 0 0) :at (pt 0 0 0)))
`)
	tests := []struct {
		part string
		want meshup.Point
	}{
		{"a", meshup.P(5, 0, 0)},
		{"b", meshup.P(0, 5, 0)},
		{"c", meshup.P(0, 0, 5)},
		{"d", meshup.P(0, 0, 4)},
		{"e", meshup.P(0, 0, 0)},
		{"f", meshup.P(0, 5, 0)},
		{"g", meshup.P(-5, 0, 0)},
	}
	for _, tt := range tests {
		c, err := meshPart(t, sc, tt.part).Center()
		if err != nil {
			t.Fatalf("Center(%s) failed: %v", tt.part, err)
		}
		if math.Abs(c.X-tt.want.X) > 1e-6 || math.Abs(c.Y-tt.want.Y) > 1e-6 || math.Abs(c.Z-tt.want.Z) > 1e-6 {
			t.Errorf("part %s center = %v, want %v", tt.part, c, tt.want)
		}
	}
}

func TestBooleansLeaveInputs(t *testing.T) {
	sc := mustEval(t, `
(def a (cube 10))
(part "cut" (difference a (cuboid 5 20 20)))
(part "joined" (union a (translate (cube 10) 5 0 0)))
(part "common" (intersection a (translate (cube 10) 5 0 0)))
(part "orig" a)
`)
	tests := []struct {
		part string
		want float64
	}{
		{"cut", 500},
		{"joined", 1500},
		{"common", 500},
		{"orig", 1000},
	}
	for _, tt := range tests {
		if v := volumeOf(t, meshPart(t, sc, tt.part)); math.Abs(v-tt.want) > 1e-6 {
			t.Errorf("%s volume = %v, want %v", tt.part, v, tt.want)
		}
	}
}

func TestUnionWithCollection(t *testing.T) {
	sc := mustEval(t, `(part "u" (union (cube 1) (row (translate (cube 1) 0 3 0) 3 2)))`)
	if v := volumeOf(t, meshPart(t, sc, "u")); math.Abs(v-4) > 1e-6 {
		t.Errorf("volume = %v, want 4", v)
	}
}

func TestHullAndSmooth(t *testing.T) {
	sc := mustEval(t, `
(part "h" (hull (union (cube 2) (translate (cube 2) 4 0 0))))
(part "s" (smooth (cube 2) :iterations 1 :preserve-boundaries))
(part "t" (triangulate (cube 2)))
(part "k" (clone (cube 3)))
`)
	if v := volumeOf(t, meshPart(t, sc, "h")); math.Abs(v-24) > 1e-6 {
		t.Errorf("hull volume = %v, want 24", v)
	}
	if v := volumeOf(t, meshPart(t, sc, "s")); v <= 0 {
		t.Errorf("smoothed volume = %v", v)
	}
	if n, _ := meshPart(t, sc, "t").TriangleCount(); n != 12 {
		t.Errorf("triangulated cube has %d triangles", n)
	}
	if v := volumeOf(t, meshPart(t, sc, "k")); math.Abs(v-27) > 1e-6 {
		t.Errorf("clone volume = %v, want 27", v)
	}
}

// ---------------------------------------------------------------------------
// Collections
// ---------------------------------------------------------------------------

func TestRowBecomesParts(t *testing.T) {
	sc := mustEval(t, `(part "pegs" (row (cube 1) 3 2 :direction :y))`)
	if sc.Len() != 3 {
		t.Fatalf("expected 3 parts, got %d", sc.Len())
	}
	c, _ := meshPart(t, sc, "pegs-3").Center()
	if math.Abs(c.Y-4) > 1e-6 || math.Abs(c.X) > 1e-6 {
		t.Errorf("third peg center = %v, want (0, 4, 0)", c)
	}
}

func TestGridAndCollection(t *testing.T) {
	sc := mustEval(t, `
(part "g" (grid (cube 1) 2 2 1 3))
(part "c" (translate (collection (cube 1) (cube 1)) 0 0 10))
`)
	if sc.Len() != 6 {
		t.Fatalf("expected 6 parts, got %d", sc.Len())
	}
	c, _ := meshPart(t, sc, "c-2").Center()
	if math.Abs(c.Z-10) > 1e-6 {
		t.Errorf("collection member center = %v, want z = 10", c)
	}
}

func TestCollectionSkipsNonMeshes(t *testing.T) {
	var logs bytes.Buffer
	sess := meshup.NewSession(kernel.Compose(csg.New(), nurbs.New()), meshup.WithLogger(log.New(&logs)))
	sc, evalErrs, err := NewEngine(sess).Evaluate(`(part "c" (collection [(cube 1) 5 (cube 2)] "lid" (cube 3)))`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if sc.Len() != 3 {
		t.Fatalf("expected 3 parts, got %d", sc.Len())
	}
	if v := volumeOf(t, meshPart(t, sc, "c-3")); math.Abs(v-27) > tol {
		t.Errorf("c-3 volume = %v, want 27", v)
	}
	if n := strings.Count(logs.String(), "discarding non-mesh"); n != 2 {
		t.Errorf("discard warnings = %d, want 2\n%s", n, logs.String())
	}
}

// ---------------------------------------------------------------------------
// Curves
// ---------------------------------------------------------------------------

func TestCurveBuiltins(t *testing.T) {
	sc := mustEval(t, `
(def zig (polyline (pt 0 0) (pt 10 0) (pt 10 20) (pt 20 20)))
(part "round" (fillet (clone zig) 2))
(part "sharp" zig)
(part "wide" (offset (polyline [[0 0] [10 0]]) 2 :corner :round))
(part "smooth" (interpolated (pt 0 0 0) (pt 5 5 0) (pt 10 0 0) :degree 2))
(part "turned" (rotate (scale (polyline [0 0] [1 0]) 10) 0 0 (rad 90)))
`)
	round := curvePart(t, sc, "round")
	if !round.IsCompound() {
		t.Error("filleted curve is not compound")
	}
	if l, _ := round.Length(); math.Abs(l-(32+2*math.Pi)) > 1e-3 {
		t.Errorf("filleted length = %v", l)
	}
	if l, _ := curvePart(t, sc, "sharp").Length(); math.Abs(l-40) > tol {
		t.Errorf("original length = %v, want 40", l)
	}

	b, err := curvePart(t, sc, "wide").BBox()
	if err != nil {
		t.Fatalf("BBox failed: %v", err)
	}
	if math.Abs(math.Abs(b.Min.Y)-2) > tol {
		t.Errorf("offset bbox = %+v", b)
	}

	if d, _ := curvePart(t, sc, "smooth").Degree(); d != 2 {
		t.Errorf("degree = %d, want 2", d)
	}

	p, _ := curvePart(t, sc, "turned").PointAtParam(1)
	if math.Abs(p.X) > 1e-9 || math.Abs(p.Y-10) > 1e-9 {
		t.Errorf("turned end = %v, want (0, 10)", p)
	}
}

func TestArcLength(t *testing.T) {
	sc := mustEval(t, `(def l (arc-length (polyline [0 0] [3 4]))) (part "c" (cube l))`)
	if v := volumeOf(t, meshPart(t, sc, "c")); math.Abs(v-125) > 1e-6 {
		t.Errorf("volume = %v, want 125", v)
	}
}

// ---------------------------------------------------------------------------
// Implicit main part
// ---------------------------------------------------------------------------

func TestFinalValueBecomesMain(t *testing.T) {
	sc := mustEval(t, `(def a (cube 10)) (union a (translate (cube 10) 5 0 0))`)
	if sc.Len() != 1 {
		t.Fatalf("expected 1 part, got %d", sc.Len())
	}
	if v := volumeOf(t, meshPart(t, sc, "main")); math.Abs(v-1500) > 1e-6 {
		t.Errorf("main volume = %v, want 1500", v)
	}
}

func TestExplicitPartsSuppressMain(t *testing.T) {
	sc := mustEval(t, `(part "one" (cube 1)) (cube 2)`)
	if sc.Len() != 1 || sc.Lookup("main") != nil {
		t.Errorf("parts = %d, main = %v", sc.Len(), sc.Lookup("main"))
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"negative size", `(cube -1)`, "cube"},
		{"arity", `(cuboid 1 2)`, "cuboid requires exactly 3"},
		{"not a number", `(cube "big")`, "expected number"},
		{"part of number", `(part "x" 5)`, "expected mesh, curve or collection"},
		{"translate number", `(translate 5 1 2 3)`, "translate"},
		{"bad corner", `(offset (polyline [0 0] [1 0]) 1 :corner :bevel)`, "bevel"},
		{"mirror curve", `(mirror (polyline [0 0] [1 0]) (vec 1 0 0))`, "curves are not supported"},
		{"fillet twice", `(fillet (fillet (polyline [0 0] [1 0] [1 1]) 0.1) 0.1)`, "not supported"},
		{"offset compound", `(offset (fillet (polyline [0 0] [1 0] [1 1]) 0.1) 0.5)`, "offset: operation is not supported"},
		{"bad point", `(polyline "a" "b")`, "point 0"},
		{"hull of curve", `(hull (polyline [0 0] [1 0]))`, "expected mesh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, evalErrs, err := newTestEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if sc != nil {
				t.Error("expected nil scene on error")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected an eval error")
			}
			if !strings.Contains(evalErrs[0].Message, tt.want) {
				t.Errorf("error = %q, want containing %q", evalErrs[0].Message, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Run with validation
// ---------------------------------------------------------------------------

func TestRunValidates(t *testing.T) {
	eng := newTestEngine()

	res, err := eng.Run(context.Background(), `(part "a" (cube 1)) (part "a" (translate (cube 1) 5 0 0))`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if res.OK() {
		t.Fatal("duplicate names accepted")
	}
	if !strings.Contains(res.Errors[0].Message, "duplicate") {
		t.Errorf("errors = %v", res.Errors)
	}

	res, err = eng.Run(context.Background(), `(part "a" (cube 2)) (part "b" (cube 1))`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if !res.OK() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Part != "a" || !strings.Contains(res.Warnings[0].Message, "overlaps") {
		t.Errorf("warnings = %+v", res.Warnings)
	}
}

func TestRunEvalErrors(t *testing.T) {
	res, err := newTestEngine().Run(context.Background(), `(cube`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if res.OK() || res.Scene != nil || len(res.Errors) == 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestEmptySourceStillWorks(t *testing.T) {
	sc := mustEval(t, "")
	if sc.Len() != 0 {
		t.Errorf("expected empty scene, got %d parts", sc.Len())
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	mustEval(t, "(+ 1 2)")
}

package scene

import (
	"fmt"

	"github.com/chazu/meshup/pkg/meshup"
)

// ValidationSeverity indicates whether a validation finding blocks export
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks export
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Part     string             // part name, empty if scene-level
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Part == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] part %q: %s", e.Severity, e.Part, e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from both validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether nothing blocks export.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the structural checks and returns every finding. An
// empty slice means the scene is valid. Validate never mutates the scene.
func Validate(s *Scene) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNames(s)...)
	errs = append(errs, validateHandles(s)...)
	errs = append(errs, validateNotEmpty(s)...)
	return errs
}

// ValidateAll runs the structural and geometric checks and separates
// blocking errors from warnings.
func ValidateAll(s *Scene) ValidationResult {
	var result ValidationResult
	all := append(Validate(s), validateGeometry(s)...)
	for _, e := range all {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	return result
}

// validateNames checks that every part has a unique, non-empty name.
func validateNames(s *Scene) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i, p := range s.Parts {
		if p.Name == "" {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("part %d has no name", i),
				Severity: SeverityError,
			})
			continue
		}
		if seen[p.Name] {
			errs = append(errs, ValidationError{
				Part:     p.Name,
				Message:  "duplicate part name",
				Severity: SeverityError,
			})
		}
		seen[p.Name] = true
	}
	return errs
}

// validateHandles checks that each part holds a live handle of its kind.
func validateHandles(s *Scene) []ValidationError {
	var errs []ValidationError
	add := func(p *Part, format string, args ...any) {
		errs = append(errs, ValidationError{
			Part:     p.Name,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}
	for _, p := range s.Parts {
		switch p.Kind {
		case PartMesh:
			switch {
			case p.Mesh == nil:
				add(p, "mesh part has no mesh")
			case p.Mesh.IsDisposed():
				add(p, "mesh was disposed")
			case p.Mesh.Err() != nil:
				add(p, "mesh failed: %v", p.Mesh.Err())
			}
		case PartCurve:
			if p.Curve == nil {
				add(p, "curve part has no curve")
				continue
			}
			if err := p.Curve.Err(); err != nil {
				add(p, "curve failed: %v", err)
				continue
			}
			if _, err := p.Curve.Inner(); err != nil {
				add(p, "curve is not set")
			}
		default:
			add(p, "unknown part kind %v", p.Kind)
		}
	}
	return errs
}

func validateNotEmpty(s *Scene) []ValidationError {
	if len(s.Parts) > 0 {
		return nil
	}
	return []ValidationError{{Message: "scene has no parts", Severity: SeverityWarning}}
}

// ---------------------------------------------------------------------------
// Geometric validation (warnings)
// ---------------------------------------------------------------------------

func validateGeometry(s *Scene) []ValidationError {
	var warnings []ValidationError
	warnings = append(warnings, validateEmptyMeshes(s)...)
	warnings = append(warnings, validateOverlaps(s)...)
	warnings = append(warnings, validatePlanarCurves(s)...)
	return warnings
}

// validateEmptyMeshes flags live meshes without triangles.
func validateEmptyMeshes(s *Scene) []ValidationError {
	var warnings []ValidationError
	for _, p := range s.Parts {
		if p.Kind != PartMesh || p.Mesh == nil || p.Mesh.Err() != nil || p.Mesh.IsDisposed() {
			continue
		}
		if n, err := p.Mesh.TriangleCount(); err == nil && n == 0 {
			warnings = append(warnings, ValidationError{
				Part:     p.Name,
				Message:  "mesh has no triangles",
				Severity: SeverityWarning,
			})
		}
	}
	return warnings
}

// validateOverlaps flags pairs of mesh parts whose bounding boxes share
// volume. Parts that only touch are not reported.
func validateOverlaps(s *Scene) []ValidationError {
	names := make(map[*meshup.Mesh]string)
	var live []*meshup.Mesh
	for _, p := range s.Parts {
		if p.Kind == PartMesh && p.Mesh != nil && p.Mesh.Err() == nil && !p.Mesh.IsDisposed() {
			names[p.Mesh] = p.Name
			live = append(live, p.Mesh)
		}
	}
	if len(live) < 2 {
		return nil
	}

	mc := s.sess.NewMeshCollection(live)
	var warnings []ValidationError
	for i, m := range live {
		b, err := m.BBox()
		if err != nil {
			continue
		}
		hits, err := mc.Intersecting(b)
		if err != nil {
			continue
		}
		for _, h := range hits {
			// Report each pair once, from the earlier part.
			if h == m || indexOf(live, h) < i {
				continue
			}
			warnings = append(warnings, ValidationError{
				Part:     names[m],
				Message:  fmt.Sprintf("bounding box overlaps part %q", names[h]),
				Severity: SeverityWarning,
			})
		}
	}
	return warnings
}

func indexOf(ms []*meshup.Mesh, m *meshup.Mesh) int {
	for i, x := range ms {
		if x == m {
			return i
		}
	}
	return -1
}

// validatePlanarCurves flags curves that drawing exports would flatten.
func validatePlanarCurves(s *Scene) []ValidationError {
	var warnings []ValidationError
	for _, p := range s.Curves() {
		if p.Curve.Err() != nil {
			continue
		}
		if _, err := p.Curve.Inner(); err != nil {
			continue
		}
		if !p.Curve.IsPlanar() {
			warnings = append(warnings, ValidationError{
				Part:     p.Name,
				Message:  "curve is not planar; SVG and DXF exports project it onto XY",
				Severity: SeverityWarning,
			})
		}
	}
	return warnings
}

package scene

import (
	"fmt"

	"github.com/chazu/meshup/pkg/kernel"
	"github.com/chazu/meshup/pkg/meshup"
)

// CurvePath is a tessellated curve part.
type CurvePath struct {
	PartName string
	Points   []meshup.Point
}

// Tessellate produces one triangle mesh per mesh part, in scene order.
// Curve parts are skipped. The scene is not modified.
func Tessellate(s *Scene) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}

	k := s.sess.Kernel()
	var meshes []*kernel.Mesh
	for _, p := range s.Parts {
		if p.Kind != PartMesh {
			continue
		}
		solid, err := p.Mesh.Solid()
		if err != nil {
			return nil, fmt.Errorf("scene: part %q: %w", p.Name, err)
		}
		mesh, err := k.ToMesh(solid)
		if err != nil {
			return nil, fmt.Errorf("scene: ToMesh failed for part %q: %w", p.Name, err)
		}
		mesh.PartName = p.Name
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// TessellateCurves flattens every curve part within tol. A tol of zero
// uses the session tolerance.
func TessellateCurves(s *Scene, tol float64) ([]CurvePath, error) {
	if s == nil {
		return nil, nil
	}

	var paths []CurvePath
	for _, p := range s.Curves() {
		pts, err := p.Curve.Tessellate(tol)
		if err != nil {
			return nil, fmt.Errorf("scene: tessellate curve %q: %w", p.Name, err)
		}
		paths = append(paths, CurvePath{PartName: p.Name, Points: pts})
	}
	return paths, nil
}

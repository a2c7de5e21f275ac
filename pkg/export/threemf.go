package export

import (
	"fmt"

	"github.com/chazu/meshup/pkg/kernel"
	"github.com/hpinc/go3mf"
)

// Object is one named mesh in a 3MF package.
type Object struct {
	Name string
	Mesh *kernel.Mesh
}

var units3MF = map[string]go3mf.Units{
	"mm": go3mf.UnitMillimeter,
	"um": go3mf.UnitMicrometer,
	"cm": go3mf.UnitCentimeter,
	"in": go3mf.UnitInch,
	"ft": go3mf.UnitFoot,
	"m":  go3mf.UnitMeter,
}

// Model3MF builds a 3MF model holding one object and one build item
// per input mesh. Vertices are shared within an object.
func Model3MF(units string, objs []Object) (*go3mf.Model, error) {
	u, ok := units3MF[units]
	if !ok {
		return nil, fmt.Errorf("3mf: unknown units %q", units)
	}
	model := &go3mf.Model{Units: u}
	for i, o := range objs {
		if o.Mesh == nil || o.Mesh.IsEmpty() {
			continue
		}
		id := uint32(i + 1)
		mesh := &go3mf.Mesh{}

		index := make(map[[3]float32]uint32)
		ref := func(v int) uint32 {
			p := [3]float32{o.Mesh.Vertices[v*3], o.Mesh.Vertices[v*3+1], o.Mesh.Vertices[v*3+2]}
			if j, ok := index[p]; ok {
				return j
			}
			j := uint32(len(mesh.Vertices.Vertex))
			index[p] = j
			mesh.Vertices.Vertex = append(mesh.Vertices.Vertex, go3mf.Point3D(p))
			return j
		}
		for t := 0; t+2 < len(o.Mesh.Indices); t += 3 {
			a := ref(int(o.Mesh.Indices[t]))
			b := ref(int(o.Mesh.Indices[t+1]))
			c := ref(int(o.Mesh.Indices[t+2]))
			if a == b || b == c || a == c {
				continue
			}
			mesh.Triangles.Triangle = append(mesh.Triangles.Triangle, go3mf.Triangle{V1: a, V2: b, V3: c})
		}

		model.Resources.Objects = append(model.Resources.Objects, &go3mf.Object{
			ID:   id,
			Name: o.Name,
			Mesh: mesh,
		})
		model.Build.Items = append(model.Build.Items, &go3mf.Item{ObjectID: id})
	}
	if len(model.Build.Items) == 0 {
		return nil, fmt.Errorf("3mf: %w", ErrNoPositions)
	}
	return model, nil
}

// Save3MF writes objs as a 3MF package at path.
func Save3MF(path, units string, objs []Object) error {
	model, err := Model3MF(units, objs)
	if err != nil {
		return err
	}
	w, err := go3mf.CreateWriter(path)
	if err != nil {
		return fmt.Errorf("3mf: create %s: %w", path, err)
	}
	if err := w.Encode(model); err != nil {
		w.Close()
		return fmt.Errorf("3mf: encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("3mf: close: %w", err)
	}
	return nil
}

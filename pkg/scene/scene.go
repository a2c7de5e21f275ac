// Package scene holds the named parts produced by evaluating a meshup
// script. A scene is built once per evaluation and never shared between
// evaluations; exporters and validators only read it.
package scene

import (
	"fmt"

	"github.com/chazu/meshup/pkg/meshup"
)

// PartKind enumerates what a part holds.
type PartKind int

const (
	PartMesh  PartKind = iota // closed solid
	PartCurve                 // parametric curve
)

func (k PartKind) String() string {
	switch k {
	case PartMesh:
		return "mesh"
	case PartCurve:
		return "curve"
	default:
		return "unknown"
	}
}

// Part is one named entry of a scene. Exactly one of Mesh and Curve is
// set, matching Kind.
type Part struct {
	Name  string
	Kind  PartKind
	Mesh  *meshup.Mesh
	Curve *meshup.Curve
}

// Scene is the ordered set of parts of one evaluation.
type Scene struct {
	Parts     []*Part
	NameIndex map[string]int // name -> index of the latest part with that name
	Units     string
	Version   uint64

	sess *meshup.Session
}

// New creates an empty scene whose parts live in sess.
func New(sess *meshup.Session) *Scene {
	return &Scene{
		NameIndex: make(map[string]int),
		Units:     sess.Options().Units,
		sess:      sess,
	}
}

// Session returns the session the parts were built in.
func (s *Scene) Session() *meshup.Session { return s.sess }

// Add appends p. Duplicate names are accepted here and reported by
// Validate.
func (s *Scene) Add(p *Part) *Part {
	s.NameIndex[p.Name] = len(s.Parts)
	s.Parts = append(s.Parts, p)
	return p
}

// AddMesh adds a mesh part and records name as the mesh's export name.
func (s *Scene) AddMesh(name string, m *meshup.Mesh) *Part {
	if m != nil {
		m.AddMetadata("name", name)
	}
	return s.Add(&Part{Name: name, Kind: PartMesh, Mesh: m})
}

// AddCurve adds a curve part.
func (s *Scene) AddCurve(name string, c *meshup.Curve) *Part {
	return s.Add(&Part{Name: name, Kind: PartCurve, Curve: c})
}

// Lookup returns the part with the given name, or nil.
func (s *Scene) Lookup(name string) *Part {
	i, ok := s.NameIndex[name]
	if !ok {
		return nil
	}
	return s.Parts[i]
}

// MustLookup returns the part with the given name, or panics.
func (s *Scene) MustLookup(name string) *Part {
	p := s.Lookup(name)
	if p == nil {
		panic(fmt.Sprintf("scene: no part named %q", name))
	}
	return p
}

// Len returns the number of parts.
func (s *Scene) Len() int {
	return len(s.Parts)
}

// Meshes returns the mesh of every mesh part, in scene order.
func (s *Scene) Meshes() []*meshup.Mesh {
	var out []*meshup.Mesh
	for _, p := range s.Parts {
		if p.Kind == PartMesh && p.Mesh != nil {
			out = append(out, p.Mesh)
		}
	}
	return out
}

// Curves returns every curve part, in scene order.
func (s *Scene) Curves() []*Part {
	var out []*Part
	for _, p := range s.Parts {
		if p.Kind == PartCurve && p.Curve != nil {
			out = append(out, p)
		}
	}
	return out
}

// Collection returns the mesh parts as a collection. The collection
// shares the meshes with the scene.
func (s *Scene) Collection() *meshup.MeshCollection {
	return s.sess.NewMeshCollection(s.Meshes())
}

// Dispose releases every mesh in the scene.
func (s *Scene) Dispose() {
	for _, m := range s.Meshes() {
		m.Dispose()
	}
}

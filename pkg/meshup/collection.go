package meshup

import (
	"errors"
	"fmt"

	"github.com/chazu/meshup/pkg/export"
	"github.com/dhconnelly/rtreego"
	"github.com/samber/lo"
)

// MeshSource yields meshes for collection operations.
type MeshSource interface {
	Meshes() []*Mesh
}

// Meshes returns the mesh itself as a one-element source.
func (m *Mesh) Meshes() []*Mesh {
	if m == nil {
		return nil
	}
	return []*Mesh{m}
}

// MeshCollection is an ordered list of meshes that stay individually
// addressable.
type MeshCollection struct {
	sess   *Session
	meshes []*Mesh
}

// NewMeshCollection flattens *Mesh, *MeshCollection, []*Mesh and []any
// items one level. Anything else, including non-mesh elements of a []any,
// is dropped with a warning.
func (s *Session) NewMeshCollection(items ...any) *MeshCollection {
	mc := &MeshCollection{sess: s}
	for i, item := range items {
		switch t := item.(type) {
		case *Mesh:
			mc.Add(t)
		case []*Mesh:
			lo.ForEach(t, func(m *Mesh, _ int) { mc.Add(m) })
		case []any:
			for j, el := range t {
				m, ok := el.(*Mesh)
				if !ok {
					s.log.Warn("discarding non-mesh collection item", "index", i, "element", j, "type", fmt.Sprintf("%T", el))
					continue
				}
				mc.Add(m)
			}
		case *MeshCollection:
			if t != nil {
				mc.meshes = append(mc.meshes, t.meshes...)
			}
		default:
			s.log.Warn("discarding non-mesh collection item", "index", i, "type", fmt.Sprintf("%T", item))
		}
	}
	return mc
}

// Add appends m. A nil mesh is logged and ignored.
func (mc *MeshCollection) Add(m *Mesh) *MeshCollection {
	if m == nil {
		mc.sess.log.Warn("ignoring nil mesh", "op", "MeshCollection.Add")
		return mc
	}
	mc.meshes = append(mc.meshes, m)
	return mc
}

// Remove drops every occurrence of m.
func (mc *MeshCollection) Remove(m *Mesh) *MeshCollection {
	mc.meshes = lo.Without(mc.meshes, m)
	return mc
}

// Get returns the i-th mesh.
func (mc *MeshCollection) Get(i int) (*Mesh, bool) {
	if i < 0 || i >= len(mc.meshes) {
		return nil, false
	}
	return mc.meshes[i], true
}

// Meshes returns a copy of the member list.
func (mc *MeshCollection) Meshes() []*Mesh {
	if mc == nil {
		return nil
	}
	return append([]*Mesh(nil), mc.meshes...)
}

func (mc *MeshCollection) Len() int { return len(mc.meshes) }

func (mc *MeshCollection) ForEach(f func(m *Mesh, i int)) {
	lo.ForEach(mc.meshes, f)
}

// Filter returns a new collection with the meshes f accepts.
func (mc *MeshCollection) Filter(f func(m *Mesh, i int) bool) *MeshCollection {
	return &MeshCollection{sess: mc.sess, meshes: lo.Filter(mc.meshes, f)}
}

// Reduce folds the meshes into a value.
func Reduce[R any](mc *MeshCollection, f func(acc R, m *Mesh, i int) R, initial R) R {
	return lo.Reduce(mc.meshes, f, initial)
}

// Reduce folds the meshes into a single mesh.
func (mc *MeshCollection) Reduce(f func(acc *Mesh, m *Mesh, i int) *Mesh, initial *Mesh) *Mesh {
	return Reduce(mc, f, initial)
}

// Union merges the members and any extra sources into a new mesh. The
// members are left untouched.
func (mc *MeshCollection) Union(extra ...MeshSource) *Mesh {
	all := mc.Meshes()
	for _, src := range extra {
		if src != nil {
			all = append(all, src.Meshes()...)
		}
	}
	return lo.Reduce(all, func(acc *Mesh, m *Mesh, _ int) *Mesh {
		return acc.Union(m)
	}, mc.sess.NewMesh())
}

// Subtract removes every mesh of other from every member in place.
func (mc *MeshCollection) Subtract(other MeshSource) *MeshCollection {
	var cutters []*Mesh
	if other != nil {
		cutters = other.Meshes()
	}
	if len(cutters) == 0 {
		mc.sess.log.Warn("nothing to subtract", "op", "MeshCollection.Subtract")
		return mc
	}
	for _, m := range mc.meshes {
		for _, cut := range cutters {
			m.Subtract(cut)
		}
	}
	return mc
}

// BBox returns the box around every member.
func (mc *MeshCollection) BBox() (Bbox, error) {
	const op = "MeshCollection.BBox"
	var out Bbox
	found := false
	for _, m := range mc.meshes {
		b, err := m.BBox()
		if err != nil {
			if errors.Is(err, ErrNoBoundingBox) {
				continue
			}
			return Bbox{}, err
		}
		if !found {
			out, found = b, true
			continue
		}
		out = out.Union(b)
	}
	if !found {
		return Bbox{}, opErr(op, ErrNoBoundingBox)
	}
	return out, nil
}

// Volume returns the summed member volume. Overlaps count twice.
func (mc *MeshCollection) Volume() (float64, error) {
	total := 0.0
	for _, m := range mc.meshes {
		v, err := m.Volume()
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// ToGLTF unions the members and exports the result. Member identity is
// not kept; use Save3MF for that.
func (mc *MeshCollection) ToGLTF(up Axis) ([]byte, error) {
	u := mc.Union()
	defer u.Dispose()
	return u.ToGLTF(up)
}

// Save3MF writes one 3MF object per member.
func (mc *MeshCollection) Save3MF(path string) error {
	const op = "MeshCollection.Save3MF"
	objs := make([]export.Object, 0, len(mc.meshes))
	for _, m := range mc.meshes {
		km, err := m.kernelMesh(op)
		if err != nil {
			return err
		}
		objs = append(objs, export.Object{Name: m.exportName(), Mesh: km})
	}
	return opErr(op, export.Save3MF(path, mc.sess.opts.Units, objs))
}

// Dispose releases every member.
func (mc *MeshCollection) Dispose() {
	lo.ForEach(mc.meshes, func(m *Mesh, _ int) { m.Dispose() })
}

// --- spatial queries ---

type indexed struct {
	mesh *Mesh
	rect rtreego.Rect
}

func (x *indexed) Bounds() rtreego.Rect { return x.rect }

func rectOf(b Bbox) (rtreego.Rect, error) {
	return rtreego.NewRectFromPoints(
		rtreego.Point{b.Min.X, b.Min.Y, b.Min.Z},
		rtreego.Point{b.Max.X, b.Max.Y, b.Max.Z},
	)
}

// Intersecting returns the members whose bounding boxes overlap box, in
// collection order. Members without a box are skipped.
func (mc *MeshCollection) Intersecting(box Bbox) ([]*Mesh, error) {
	const op = "MeshCollection.Intersecting"
	query, err := rectOf(box)
	if err != nil {
		return nil, opErr(op, fmt.Errorf("%w: %w", ErrInvalidArgument, err))
	}
	tree := rtreego.NewTree(3, 2, 8)
	for _, m := range mc.meshes {
		b, err := m.BBox()
		if err != nil {
			continue
		}
		r, err := rectOf(b)
		if err != nil {
			continue
		}
		tree.Insert(&indexed{mesh: m, rect: r})
	}
	hits := make(map[*Mesh]bool)
	for _, s := range tree.SearchIntersect(query) {
		hits[s.(*indexed).mesh] = true
	}
	return lo.Filter(mc.meshes, func(m *Mesh, _ int) bool { return hits[m] }), nil
}

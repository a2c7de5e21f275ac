package meshup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chazu/meshup/pkg/kernel"
	"github.com/chazu/meshup/pkg/kernel/csg"
	"github.com/chazu/meshup/pkg/kernel/nurbs"
)

// Loader produces the kernel a session runs on.
type Loader func(ctx context.Context) (kernel.Kernel, error)

// DefaultLoader loads the BSP mesh kernel and the NURBS curve kernel.
func DefaultLoader(ctx context.Context) (kernel.Kernel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return kernel.Compose(csg.New(), nurbs.New()), nil
}

// WithLoader replaces the kernel loader used by Init and InitAsync.
func WithLoader(l Loader) Option {
	return func(o *Options) { o.loader = l }
}

// Session is an explicit meshup context: it owns the kernel every
// entity it creates talks to, plus the options and logger they share.
type Session struct {
	k    kernel.Kernel
	opts Options
	log  *log.Logger
}

// NewSession wraps a loaded kernel.
func NewSession(k kernel.Kernel, opts ...Option) *Session {
	o := buildOptions(opts)
	return &Session{k: k, opts: o, log: o.Logger}
}

// Kernel returns the session's kernel.
func (s *Session) Kernel() kernel.Kernel { return s.k }

// Options returns the session's settings.
func (s *Session) Options() Options { return s.opts }

// Logger returns the session's logger.
func (s *Session) Logger() *log.Logger { return s.log }

// --- process-wide default session ---

var (
	mu             sync.Mutex
	defaultSession *Session
)

// Init loads the kernel and installs the default session. Calling it
// again after success logs and returns nil.
func Init(opts ...Option) error {
	return initDefault(context.Background(), opts)
}

// InitAsync runs Init in the background. The returned channel receives
// exactly one value: nil on success, the load error, or ctx.Err() if ctx
// ends first. A load abandoned by ctx still completes and installs the
// session.
func InitAsync(ctx context.Context, opts ...Option) <-chan error {
	out := make(chan error, 1)
	if err := ctx.Err(); err != nil {
		out <- err
		return out
	}
	done := make(chan error, 1)
	go func() { done <- initDefault(ctx, opts) }()
	go func() {
		select {
		case err := <-done:
			out <- err
		case <-ctx.Done():
			out <- ctx.Err()
		}
	}()
	return out
}

func initDefault(ctx context.Context, opts []Option) error {
	mu.Lock()
	defer mu.Unlock()

	o := buildOptions(opts)
	if defaultSession != nil {
		o.Logger.Info("meshup already initialized")
		return nil
	}

	load := o.loader
	if load == nil {
		load = DefaultLoader
	}
	start := time.Now()
	k, err := load(ctx)
	if err != nil {
		return fmt.Errorf("meshup: load kernel: %w", err)
	}
	defaultSession = &Session{k: k, opts: o, log: o.Logger}
	o.Logger.Info("meshup initialized", "elapsed", time.Since(start))
	return nil
}

// IsInitialized reports whether the default session is ready.
func IsInitialized() bool {
	mu.Lock()
	defer mu.Unlock()
	return defaultSession != nil
}

// Default returns the default session.
func Default() (*Session, error) {
	mu.Lock()
	defer mu.Unlock()
	if defaultSession == nil {
		return nil, ErrNotInitialized
	}
	return defaultSession, nil
}

// Kernel returns the default session's kernel.
func Kernel() (kernel.Kernel, error) {
	s, err := Default()
	if err != nil {
		return nil, err
	}
	return s.k, nil
}

// Reset drops the default session. Entities created from it keep
// working; new package-level calls fail until the next Init. Intended
// for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	defaultSession = nil
}

// --- package-level constructors on the default session ---

func withDefault[T any](op string, f func(*Session) (T, error)) (T, error) {
	s, err := Default()
	if err != nil {
		var zero T
		return zero, opErr(op, err)
	}
	return f(s)
}

// NewMesh returns an empty mesh from the default session.
func NewMesh() (*Mesh, error) {
	return withDefault("NewMesh", func(s *Session) (*Mesh, error) { return s.NewMesh(), nil })
}

// Cube returns a centered cube from the default session.
func Cube(size float64) (*Mesh, error) {
	return withDefault("Cube", func(s *Session) (*Mesh, error) { m := s.Cube(size); return m, m.Err() })
}

// Cuboid returns a centered cuboid from the default session.
func Cuboid(w, d, h float64) (*Mesh, error) {
	return withDefault("Cuboid", func(s *Session) (*Mesh, error) { m := s.Cuboid(w, d, h); return m, m.Err() })
}

// BoxBetween returns the box spanning two corners from the default session.
func BoxBetween(from, to PointLike) (*Mesh, error) {
	return withDefault("BoxBetween", func(s *Session) (*Mesh, error) { m := s.BoxBetween(from, to); return m, m.Err() })
}

// Sphere returns a sphere from the default session.
func Sphere(radius float64) (*Mesh, error) {
	return withDefault("Sphere", func(s *Session) (*Mesh, error) { m := s.Sphere(radius); return m, m.Err() })
}

// Cylinder returns a cylinder from the default session.
func Cylinder(radius, height float64) (*Mesh, error) {
	return withDefault("Cylinder", func(s *Session) (*Mesh, error) { m := s.Cylinder(radius, height); return m, m.Err() })
}

// FromPolygons builds a mesh from polygons with the default session.
func FromPolygons(polygons [][]PointLike) (*Mesh, error) {
	return withDefault("FromPolygons", func(s *Session) (*Mesh, error) { m := s.FromPolygons(polygons); return m, m.Err() })
}

// Polyline builds a polyline curve with the default session.
func Polyline(points []PointLike) (*Curve, error) {
	return withDefault("Polyline", func(s *Session) (*Curve, error) { return s.Polyline(points) })
}

// Interpolated builds an interpolated curve with the default session.
func Interpolated(points []PointLike, degree int) (*Curve, error) {
	return withDefault("Interpolated", func(s *Session) (*Curve, error) { return s.Interpolated(points, degree) })
}

// Collection builds a mesh collection with the default session.
func Collection(items ...any) (*MeshCollection, error) {
	return withDefault("Collection", func(s *Session) (*MeshCollection, error) { return s.NewMeshCollection(items...), nil })
}

package meshup

import (
	"os"

	"github.com/charmbracelet/log"
)

// Tessellation constants shared by every session unless overridden.
const (
	DefaultSphereSegments      = 32
	DefaultSphereStacks        = 16
	DefaultCylinderSegments    = 32
	DefaultTessellationTol     = 1e-3
	DefaultPlanarTol           = 1e-6
	DefaultInterpolationDegree = 3
	DefaultUnits               = "mm"
	DefaultImplicitCells       = 100
)

// Options configures a Session.
type Options struct {
	SphereSegments        int
	SphereStacks          int
	CylinderSegments      int
	TessellationTolerance float64
	PlanarTolerance       float64
	Units                 string
	ImplicitCells         int
	Logger                *log.Logger

	loader Loader
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		SphereSegments:        DefaultSphereSegments,
		SphereStacks:          DefaultSphereStacks,
		CylinderSegments:      DefaultCylinderSegments,
		TessellationTolerance: DefaultTessellationTol,
		PlanarTolerance:       DefaultPlanarTol,
		Units:                 DefaultUnits,
		ImplicitCells:         DefaultImplicitCells,
	}
}

// WithOptions replaces every setting at once.
func WithOptions(o Options) Option {
	return func(dst *Options) {
		logger, loader := dst.Logger, dst.loader
		*dst = o
		if dst.Logger == nil {
			dst.Logger = logger
		}
		if dst.loader == nil {
			dst.loader = loader
		}
	}
}

// WithSegments sets sphere and cylinder resolution.
func WithSegments(sphereSegments, sphereStacks, cylinderSegments int) Option {
	return func(o *Options) {
		o.SphereSegments = sphereSegments
		o.SphereStacks = sphereStacks
		o.CylinderSegments = cylinderSegments
	}
}

// WithTessellationTolerance sets the chord tolerance for curve exports.
func WithTessellationTolerance(tol float64) Option {
	return func(o *Options) { o.TessellationTolerance = tol }
}

// WithUnits sets the unit name written into exports.
func WithUnits(units string) Option {
	return func(o *Options) { o.Units = units }
}

// WithLogger routes session diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	d := DefaultOptions()
	if o.SphereSegments < 3 {
		o.SphereSegments = d.SphereSegments
	}
	if o.SphereStacks < 2 {
		o.SphereStacks = d.SphereStacks
	}
	if o.CylinderSegments < 3 {
		o.CylinderSegments = d.CylinderSegments
	}
	if o.TessellationTolerance <= 0 {
		o.TessellationTolerance = d.TessellationTolerance
	}
	if o.PlanarTolerance <= 0 {
		o.PlanarTolerance = d.PlanarTolerance
	}
	if o.Units == "" {
		o.Units = d.Units
	}
	if o.ImplicitCells <= 0 {
		o.ImplicitCells = d.ImplicitCells
	}
	if o.Logger == nil {
		o.Logger = NewLogger()
	}
	return o
}

// NewLogger returns the package's default stderr logger.
func NewLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "meshup",
		Level:  log.InfoLevel,
	})
}

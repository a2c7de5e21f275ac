package export

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo/float"
	"github.com/yofu/dxf"
)

// Path is a 2D polyline in drawing units.
type Path [][2]float64

// SVGOptions controls SVG output.
type SVGOptions struct {
	Margin      float64
	StrokeWidth float64
	Stroke      string
	Title       string
}

// DefaultSVGOptions returns the options used when none are given.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Margin: 2, StrokeWidth: 0.5, Stroke: "black"}
}

// WriteSVG draws paths as unfilled polylines in millimeters. The y axis
// is flipped so that +y points up in the drawing.
func WriteSVG(w io.Writer, paths []Path, opts SVGOptions) error {
	lo := [2]float64{math.Inf(1), math.Inf(1)}
	hi := [2]float64{math.Inf(-1), math.Inf(-1)}
	for _, p := range paths {
		for _, pt := range p {
			for i := 0; i < 2; i++ {
				lo[i] = math.Min(lo[i], pt[i])
				hi[i] = math.Max(hi[i], pt[i])
			}
		}
	}
	if math.IsInf(lo[0], 1) {
		return ErrNoPositions
	}

	width := hi[0] - lo[0] + 2*opts.Margin
	height := hi[1] - lo[1] + 2*opts.Margin

	canvas := svg.New(w)
	canvas.StartviewUnit(width, height, "mm", 0, 0, width, height)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}
	canvas.Gstyle(fmt.Sprintf("fill:none;stroke:%s;stroke-width:%g", opts.Stroke, opts.StrokeWidth))
	for _, p := range paths {
		xs := make([]float64, len(p))
		ys := make([]float64, len(p))
		for i, pt := range p {
			xs[i] = pt[0] - lo[0] + opts.Margin
			ys[i] = hi[1] - pt[1] + opts.Margin
		}
		canvas.Polyline(xs, ys)
	}
	canvas.Gend()
	canvas.End()
	return nil
}

// SaveDXF writes each polyline as a chain of DXF LINE entities.
func SaveDXF(path string, polylines ...[][3]float64) error {
	d := dxf.NewDrawing()
	for _, pl := range polylines {
		for i := 1; i < len(pl); i++ {
			a, b := pl[i-1], pl[i]
			if _, err := d.Line(a[0], a[1], a[2], b[0], b[1], b[2]); err != nil {
				return fmt.Errorf("dxf: line: %w", err)
			}
		}
	}
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("dxf: save %s: %w", path, err)
	}
	return nil
}

package chart

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/verte-zerg/bjtsim/internal/bjt"
)

const (
	imageWidth  = 6 * vg.Inch
	imageHeight = 4 * vg.Inch
)

// SaveImage renders sweeps of one kind as a line chart. The format follows
// the file extension (png, svg, pdf, jpg, ...).
func SaveImage(path string, sweeps ...bjt.SweepResult) error {
	p, err := newImagePlot(sweeps)
	if err != nil {
		return err
	}
	if err := p.Save(imageWidth, imageHeight, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteImage renders sweeps of one kind to w in the given format.
func WriteImage(w io.Writer, format string, sweeps ...bjt.SweepResult) error {
	p, err := newImagePlot(sweeps)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(imageWidth, imageHeight, strings.ToLower(format))
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", format, err)
	}
	return nil
}

func newImagePlot(sweeps []bjt.SweepResult) (*plot.Plot, error) {
	if len(sweeps) == 0 {
		return nil, fmt.Errorf("no sweeps to plot")
	}
	kind := sweeps[0].Kind
	for _, sw := range sweeps[1:] {
		if sw.Kind != kind {
			return nil, fmt.Errorf("cannot plot %s and %s sweeps on one chart", kind, sw.Kind)
		}
	}

	x, y := kind.Axes()
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s characteristics (%s)", kind.Title(), sweeps[0].Device)
	if len(sweeps) == 1 {
		p.Title.Text = SweepTitle(sweeps[0])
	}
	p.X.Label.Text = x.Label()
	p.Y.Label.Text = y.Label()
	p.Add(plotter.NewGrid())

	for i, sw := range sweeps {
		xys := make(plotter.XYs, len(sw.Data))
		for j, pt := range sw.Data {
			xys[j].X = pt.X
			xys[j].Y = pt.Y
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s series: %w", sw.Label(), err)
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)
		p.Legend.Add(sw.Fixed.String(), line, points)
	}
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

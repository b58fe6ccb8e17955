// Package chart renders sweeps as terminal braille plots, aligned text
// tables and image files.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is one named curve sampled at uniformly spaced x positions.
type Series struct {
	Name   string
	Values []float64
}

// Options controls plot geometry and colour.
type Options struct {
	Width      int // plot columns, 0 picks from the terminal
	Height     int // plot rows, 0 uses DefaultHeight
	ForceColor bool
	XLabel     string
	XMin       float64
	XMax       float64
}

type dash struct {
	name   string
	period int
	on     int
}

const (
	DefaultHeight  = 10
	minPlotWidth   = 10
	axisSeparator  = " │ "
	colorReset     = "\x1b[0m"
	fallbackWidth  = 80
	axisLabelWidth = 8
)

var dashes = []dash{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
}

var palette = []string{
	"\x1b[36m", // cyan
	"\x1b[33m", // yellow
	"\x1b[35m", // magenta
	"\x1b[32m", // green
}

// Plot writes a braille plot of the series to w. All series share one
// y scale, labelled with real values on the left axis.
func Plot(w io.Writer, title string, series []Series, opts Options) error {
	series = nonEmpty(series)
	if len(series) == 0 {
		return nil
	}
	height := opts.Height
	if height <= 0 {
		height = DefaultHeight
	}
	width := opts.Width
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	lo, hi := valueRange(series)
	if math.Abs(hi-lo) < 1e-12 {
		lo--
		hi++
	}

	layers := make([]*canvas, len(series))
	for i, s := range series {
		layers[i] = newCanvas(width, height)
		layers[i].trace(resample(s.Values, width), lo, hi, dashes[i%len(dashes)])
	}

	useColor := shouldUseColor(w, opts.ForceColor)
	labels := axisLabels(height, lo, hi)

	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteByte('\n')
	}
	for y := 0; y < height; y++ {
		b.WriteString(runewidth.FillLeft(labels[y], axisLabelWidth))
		b.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, owner := compose(layers, x, y)
			ch := brailleRune(mask)
			if useColor && owner >= 0 {
				b.WriteString(palette[owner%len(palette)])
				b.WriteRune(ch)
				b.WriteString(colorReset)
				continue
			}
			b.WriteRune(ch)
		}
		b.WriteByte('\n')
	}
	if opts.XLabel != "" {
		b.WriteString(xAxisLine(opts, width))
		b.WriteByte('\n')
	}
	b.WriteString(legend(series, useColor))
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// PlotWidthFor returns the plot columns that fit in totalWidth terminal
// columns once the axis is drawn.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	width := totalWidth - axisLabelWidth - runewidth.StringWidth(axisSeparator)
	if width < minPlotWidth {
		return minPlotWidth
	}
	return width
}

func nonEmpty(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func valueRange(series []Series) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return 0, 0
	}
	return lo, hi
}

func axisLabels(height int, lo, hi float64) []string {
	labels := make([]string, height)
	labels[0] = formatTick(hi)
	if height > 2 {
		labels[height/2] = formatTick((lo + hi) / 2)
	}
	if height > 1 {
		labels[height-1] = formatTick(lo)
	}
	return labels
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 10000:
		return fmt.Sprintf("%.0f", v)
	case abs >= 100:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func xAxisLine(opts Options, width int) string {
	left := formatTick(opts.XMin)
	right := formatTick(opts.XMax)
	gap := width - runewidth.StringWidth(left) - runewidth.StringWidth(right)
	if gap < 1 {
		gap = 1
	}
	axis := strings.Repeat(" ", axisLabelWidth) + axisSeparator + left + strings.Repeat(" ", gap) + right
	caption := runewidth.FillLeft(opts.XLabel, axisLabelWidth+runewidth.StringWidth(axisSeparator)+width)
	return axis + "\n" + caption
}

func legend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	marker := brailleRune(0x01)
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", marker, s.Name, dashes[i%len(dashes)].name)
		if useColor {
			label = palette[i%len(palette)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// resample stretches or averages values onto width columns.
func resample(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case len(values) == width:
		copy(out, values)
	case len(values) > width:
		for i := range out {
			start := i * len(values) / width
			end := (i + 1) * len(values) / width
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case len(values) == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		last := len(values) - 1
		for i := range out {
			pos := float64(i) * float64(last) / float64(width-1)
			idx := int(pos)
			if idx >= last {
				out[i] = values[last]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

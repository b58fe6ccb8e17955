package chart

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/bjtsim/internal/bjt"
)

// SweepTitle returns a heading such as "Input characteristics (SL100, VCE=5V)".
func SweepTitle(sw bjt.SweepResult) string {
	return fmt.Sprintf("%s characteristics (%s, %s)", sw.Kind.Title(), sw.Device, sw.Fixed)
}

// RenderSweep plots one sweep with its axes labelled in sweep units.
func RenderSweep(w io.Writer, sw bjt.SweepResult, opts Options) error {
	if len(sw.Data) == 0 {
		_, err := fmt.Fprintln(w, "No samples.")
		return err
	}
	x, y := sw.Kind.Axes()
	opts.XLabel = x.Label()
	opts.XMin = sw.Data[0].X
	opts.XMax = sw.Data[len(sw.Data)-1].X
	return Plot(w, SweepTitle(sw), []Series{{Name: y.Label(), Values: sw.Ys()}}, opts)
}

// RenderSweepTable writes the samples of a sweep as two aligned columns.
func RenderSweepTable(w io.Writer, sw bjt.SweepResult) error {
	x, y := sw.Kind.Axes()
	rows := make([][]string, 0, len(sw.Data))
	for _, pt := range sw.Data {
		rows = append(rows, []string{formatValue(pt.X), formatValue(pt.Y)})
	}
	for _, line := range FormatTable([]string{x.Label(), y.Label()}, rows, map[int]bool{0: true, 1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderParameters writes the extracted parameters as a two-column table.
func RenderParameters(w io.Writer, params bjt.Parameters) error {
	rows := [][]string{
		{"Input impedance", fmt.Sprintf("%.2f kΩ", params.InputImpedance)},
		{"Output impedance", fmt.Sprintf("%.2f kΩ", params.OutputImpedance)},
		{"Current gain (β)", fmt.Sprintf("%.1f", params.CurrentGain)},
	}
	for _, line := range FormatTable([]string{"Parameter", "Value"}, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

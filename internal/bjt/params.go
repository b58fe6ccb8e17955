package bjt

import (
	"github.com/verte-zerg/bjtsim/internal/device"
)

// Parameters holds small-signal quantities derived from the sweeps.
// Impedances are in kilohms; 0 means the value could not be derived.
type Parameters struct {
	InputImpedance  float64
	OutputImpedance float64
	CurrentGain     float64
}

// ExtractParameters derives input/output impedance from central differences
// around the midpoint of the input and output sweeps. The current gain
// defaults to the part's beta and is replaced by IC/IB at the transfer
// sweep's midpoint when that sample carries base current. Any sweep may be
// nil; the corresponding value keeps its default.
func ExtractParameters(input, output, transfer *SweepResult, name string) (Parameters, error) {
	p, err := device.Lookup(name)
	if err != nil {
		return Parameters{}, err
	}

	var inputZ float64
	if input != nil {
		// VBE in volts over IB in microamps.
		inputZ = slopeAtMid(input.Data, 1e-6) / 1000
	}

	var outputZ float64
	if output != nil {
		// VCE in volts over IC in milliamps.
		outputZ = slopeAtMid(output.Data, 1e-3) / 1000
	}

	gain := p.Beta
	if transfer != nil && len(transfer.Data) > 1 {
		mid := transfer.Data[len(transfer.Data)/2]
		if mid.X > 0 {
			// IC in milliamps over IB in microamps.
			gain = (mid.Y * 1e-3) / (mid.X * 1e-6)
		}
	}

	return Parameters{
		InputImpedance:  round(inputZ, 2),
		OutputImpedance: round(outputZ, 2),
		CurrentGain:     round(gain, 1),
	}, nil
}

// slopeAtMid returns Δx/Δy between the samples on either side of the
// midpoint, with y scaled to SI units. It returns 0 when the sweep is too
// short or the y difference vanishes.
func slopeAtMid(data []Point, yScale float64) float64 {
	if len(data) <= 1 {
		return 0
	}
	mid := len(data) / 2
	if mid+1 >= len(data) {
		return 0
	}
	lo, hi := data[mid-1], data[mid+1]
	dy := (hi.Y - lo.Y) * yScale
	if dy == 0 {
		return 0
	}
	return (hi.X - lo.X) / dy
}

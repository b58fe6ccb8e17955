package bjt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/bjtsim/internal/device"
)

// Kind identifies a characteristic curve.
type Kind int

const (
	KindInput Kind = iota
	KindOutput
	KindTransfer
)

// Kinds lists every sweep kind in display order.
var Kinds = []Kind{KindInput, KindOutput, KindTransfer}

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindOutput:
		return "output"
	case KindTransfer:
		return "transfer"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Title returns the capitalized name used in labels.
func (k Kind) Title() string {
	switch k {
	case KindInput:
		return "Input"
	case KindOutput:
		return "Output"
	case KindTransfer:
		return "Transfer"
	default:
		return k.String()
	}
}

// ParseKind maps a name such as "input" to its Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "input", "in":
		return KindInput, nil
	case "output", "out":
		return KindOutput, nil
	case "transfer":
		return KindTransfer, nil
	}
	return 0, fmt.Errorf("unknown sweep kind %q (use input, output or transfer)", s)
}

// Axis names a plotted quantity.
type Axis struct {
	Name string
	Unit string
}

// Label formats the axis as "VBE (V)".
func (a Axis) Label() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.Unit)
}

var (
	axisVBE     = Axis{Name: "VBE", Unit: "V"}
	axisVCE     = Axis{Name: "VCE", Unit: "V"}
	axisIBMicro = Axis{Name: "IB", Unit: "μA"}
	axisICMilli = Axis{Name: "IC", Unit: "mA"}
)

// Axes returns the x and y axes of a sweep kind.
func (k Kind) Axes() (x, y Axis) {
	switch k {
	case KindInput:
		return axisVBE, axisIBMicro
	case KindOutput:
		return axisVCE, axisICMilli
	default:
		return axisIBMicro, axisICMilli
	}
}

// FixedAxis returns the quantity held constant during a sweep kind.
func (k Kind) FixedAxis() Axis {
	if k == KindOutput {
		return axisIBMicro
	}
	return axisVCE
}

// Point is one (x, y) sample in the units of its sweep's axes.
type Point struct {
	X float64
	Y float64
}

// Fixed is the held-constant input of a sweep.
type Fixed struct {
	Name  string
	Value float64
	Unit  string
}

// String formats the value as "VCE=5V".
func (f Fixed) String() string {
	return f.Name + "=" + strconv.FormatFloat(f.Value, 'f', -1, 64) + f.Unit
}

// SweepResult is the immutable output of one sweep.
type SweepResult struct {
	Kind   Kind
	Device string
	Data   []Point
	Fixed  Fixed
}

// Label returns "Input (VCE=5V)".
func (s SweepResult) Label() string {
	return fmt.Sprintf("%s (%s)", s.Kind.Title(), s.Fixed)
}

// Xs returns the x values in sample order.
func (s SweepResult) Xs() []float64 {
	out := make([]float64, len(s.Data))
	for i, pt := range s.Data {
		out[i] = pt.X
	}
	return out
}

// Ys returns the y values in sample order.
func (s SweepResult) Ys() []float64 {
	out := make([]float64, len(s.Data))
	for i, pt := range s.Data {
		out[i] = pt.Y
	}
	return out
}

type sweepRange struct {
	start float64
	stop  float64
	step  float64
}

// values computes start+i*step from an integer index so float accumulation
// cannot drop the final sample.
func (r sweepRange) values() []float64 {
	n := int((r.stop-r.start)/r.step+0.5) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = r.start + float64(i)*r.step
	}
	return out
}

var (
	inputRange    = sweepRange{start: 0, stop: 1.0, step: 0.05}
	outputRange   = sweepRange{start: 0, stop: 20, step: 0.5}
	transferRange = sweepRange{start: 0, stop: 200, step: 10}
)

// saturationVCE is the collector voltage below which the output sweep
// reports zero collector current.
const saturationVCE = 0.1

// Sweep dispatches to the sweep for kind. fixed is VCE in volts for the input
// and transfer curves and IB in microamps for the output curve.
func Sweep(kind Kind, fixed float64, name string) (SweepResult, error) {
	switch kind {
	case KindInput:
		return InputCharacteristics(fixed, name)
	case KindOutput:
		return OutputCharacteristics(fixed, name)
	case KindTransfer:
		return TransferCharacteristics(fixed, name)
	default:
		return SweepResult{}, fmt.Errorf("unknown sweep kind %d", int(kind))
	}
}

// InputCharacteristics sweeps VBE over 0..1 V at a fixed VCE and reports the
// base current in microamps.
func InputCharacteristics(vce float64, name string) (SweepResult, error) {
	p, err := device.Lookup(name)
	if err != nil {
		return SweepResult{}, err
	}
	vbes := inputRange.values()
	data := make([]Point, 0, len(vbes))
	for _, vbe := range vbes {
		ic := CollectorCurrent(vbe, vce, p)
		ib := BaseCurrent(ic, p)
		data = append(data, Point{
			X: round(vbe, 3),
			Y: round(ib*1e6, 2),
		})
	}
	return SweepResult{
		Kind:   KindInput,
		Device: p.Name,
		Data:   data,
		Fixed:  Fixed{Name: axisVCE.Name, Value: vce, Unit: axisVCE.Unit},
	}, nil
}

// OutputCharacteristics sweeps VCE over 0..20 V at a fixed base current given
// in microamps and reports the collector current in milliamps.
func OutputCharacteristics(ibMicro float64, name string) (SweepResult, error) {
	p, err := device.Lookup(name)
	if err != nil {
		return SweepResult{}, err
	}
	ib := ibMicro * 1e-6
	vces := outputRange.values()
	data := make([]Point, 0, len(vces))
	for _, vce := range vces {
		if vce < saturationVCE {
			data = append(data, Point{X: round(vce, 2), Y: 0})
			continue
		}
		vbe := BaseEmitterVoltage(ib, vce, p)
		ic := CollectorCurrent(vbe, vce, p)
		data = append(data, Point{
			X: round(vce, 2),
			Y: round(ic*1000, 2),
		})
	}
	return SweepResult{
		Kind:   KindOutput,
		Device: p.Name,
		Data:   data,
		Fixed:  Fixed{Name: axisIBMicro.Name, Value: ibMicro, Unit: axisIBMicro.Unit},
	}, nil
}

// TransferCharacteristics sweeps IB over 0..200 μA at a fixed VCE and
// reports the collector current in milliamps.
func TransferCharacteristics(vce float64, name string) (SweepResult, error) {
	p, err := device.Lookup(name)
	if err != nil {
		return SweepResult{}, err
	}
	ibs := transferRange.values()
	data := make([]Point, 0, len(ibs))
	for _, ibMicro := range ibs {
		vbe := BaseEmitterVoltage(ibMicro*1e-6, vce, p)
		ic := CollectorCurrent(vbe, vce, p)
		data = append(data, Point{
			X: round(ibMicro, 1),
			Y: round(ic*1000, 2),
		})
	}
	return SweepResult{
		Kind:   KindTransfer,
		Device: p.Name,
		Data:   data,
		Fixed:  Fixed{Name: axisVCE.Name, Value: vce, Unit: axisVCE.Unit},
	}, nil
}

// Package bench keeps the host-side state of a simulation session: the
// selected part, the held-constant inputs and the latest sweep of each kind.
//
// Derived parameters are recomputed explicitly whenever a sweep is stored or
// cleared. A Session is not safe for concurrent mutation.
package bench

import (
	"fmt"
	"math"

	"github.com/verte-zerg/bjtsim/internal/bjt"
	"github.com/verte-zerg/bjtsim/internal/device"
)

// Defaults for the held-constant inputs.
const (
	DefaultVCEInput    = 5.0
	DefaultIBOutput    = 50.0
	DefaultVCETransfer = 5.0
)

// Inputs are the held-constant values of the three sweeps.
type Inputs struct {
	VCEInput    float64 // volts
	IBOutput    float64 // microamps
	VCETransfer float64 // volts
}

// DefaultInputs returns the held-constant values a new session starts with.
func DefaultInputs() Inputs {
	return Inputs{
		VCEInput:    DefaultVCEInput,
		IBOutput:    DefaultIBOutput,
		VCETransfer: DefaultVCETransfer,
	}
}

// Validate rejects values the sweeps cannot sensibly use.
func (in Inputs) Validate() error {
	if err := checkValue("VCE (input)", in.VCEInput); err != nil {
		return err
	}
	if err := checkValue("IB (output)", in.IBOutput); err != nil {
		return err
	}
	return checkValue("VCE (transfer)", in.VCETransfer)
}

// Fixed returns the held value for a sweep kind.
func (in Inputs) Fixed(kind bjt.Kind) float64 {
	switch kind {
	case bjt.KindOutput:
		return in.IBOutput
	case bjt.KindTransfer:
		return in.VCETransfer
	default:
		return in.VCEInput
	}
}

func checkValue(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a finite number", name)
	}
	if v < 0 {
		return fmt.Errorf("%s must be >= 0", name)
	}
	return nil
}

// Session tracks one device and its most recent sweeps.
type Session struct {
	device string
	inputs Inputs

	sweeps     [3]*bjt.SweepResult
	params     bjt.Parameters
	hasParams  bool
	generation uint64
}

// New returns a session for the named part.
func New(name string, inputs Inputs) (*Session, error) {
	p, err := device.Lookup(name)
	if err != nil {
		return nil, err
	}
	if err := inputs.Validate(); err != nil {
		return nil, err
	}
	return &Session{device: p.Name, inputs: inputs}, nil
}

// Device returns the canonical name of the selected part.
func (s *Session) Device() string {
	return s.device
}

// Inputs returns the held-constant values.
func (s *Session) Inputs() Inputs {
	return s.inputs
}

// SetDevice selects another part. Switching parts discards every stored
// sweep and the derived parameters.
func (s *Session) SetDevice(name string) error {
	p, err := device.Lookup(name)
	if err != nil {
		return err
	}
	if p.Name == s.device {
		return nil
	}
	s.device = p.Name
	s.Reset()
	return nil
}

// SetInputs replaces the held-constant values. Changing any value discards
// every stored sweep and the derived parameters.
func (s *Session) SetInputs(in Inputs) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if in == s.inputs {
		return nil
	}
	s.inputs = in
	s.Reset()
	return nil
}

// Reset drops all sweeps and derived parameters and starts a new generation.
func (s *Session) Reset() {
	s.sweeps = [3]*bjt.SweepResult{}
	s.generation++
	s.recompute()
}

// Generation counts resets. A result computed under an older generation
// belongs to state that has since been discarded.
func (s *Session) Generation() uint64 {
	return s.generation
}

// Run executes one sweep with the session's held value and stores it.
func (s *Session) Run(kind bjt.Kind) (bjt.SweepResult, error) {
	res, err := bjt.Sweep(kind, s.inputs.Fixed(kind), s.device)
	if err != nil {
		return bjt.SweepResult{}, err
	}
	if err := s.Store(res); err != nil {
		return bjt.SweepResult{}, err
	}
	return res, nil
}

// RunAll executes the input, output and transfer sweeps in order.
func (s *Session) RunAll() error {
	for _, kind := range bjt.Kinds {
		if _, err := s.Run(kind); err != nil {
			return fmt.Errorf("failed to run %s sweep: %w", kind, err)
		}
	}
	return nil
}

// Store records a sweep computed elsewhere, for example off the UI loop.
// Results for another part are rejected.
func (s *Session) Store(res bjt.SweepResult) error {
	if res.Device != s.device {
		return fmt.Errorf("sweep for %s does not match selected device %s", res.Device, s.device)
	}
	idx, err := slot(res.Kind)
	if err != nil {
		return err
	}
	stored := res
	s.sweeps[idx] = &stored
	s.recompute()
	return nil
}

// Sweep returns the stored sweep of a kind.
func (s *Session) Sweep(kind bjt.Kind) (bjt.SweepResult, bool) {
	idx, err := slot(kind)
	if err != nil || s.sweeps[idx] == nil {
		return bjt.SweepResult{}, false
	}
	return *s.sweeps[idx], true
}

// Sweeps returns the stored sweeps in input, output, transfer order.
func (s *Session) Sweeps() []bjt.SweepResult {
	out := make([]bjt.SweepResult, 0, len(s.sweeps))
	for _, sw := range s.sweeps {
		if sw != nil {
			out = append(out, *sw)
		}
	}
	return out
}

// Parameters returns the derived parameters once at least one sweep exists.
func (s *Session) Parameters() (bjt.Parameters, bool) {
	return s.params, s.hasParams
}

func (s *Session) recompute() {
	in, out, tr := s.sweeps[bjt.KindInput], s.sweeps[bjt.KindOutput], s.sweeps[bjt.KindTransfer]
	if in == nil && out == nil && tr == nil {
		s.params = bjt.Parameters{}
		s.hasParams = false
		return
	}
	params, err := bjt.ExtractParameters(in, out, tr, s.device)
	if err != nil {
		// The device was validated on selection.
		s.params = bjt.Parameters{}
		s.hasParams = false
		return
	}
	s.params = params
	s.hasParams = true
}

func slot(kind bjt.Kind) (int, error) {
	switch kind {
	case bjt.KindInput, bjt.KindOutput, bjt.KindTransfer:
		return int(kind), nil
	default:
		return 0, fmt.Errorf("unknown sweep kind %d", int(kind))
	}
}

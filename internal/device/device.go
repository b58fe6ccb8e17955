// Package device holds the static transistor parameter registry.
package device

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownDevice is returned when a part name is not registered.
var ErrUnknownDevice = errors.New("unknown device")

// Default is the part selected when nothing else is configured.
const Default = "SL100"

// Polarity is the transistor type.
type Polarity int

const (
	NPN Polarity = iota
	PNP
)

func (p Polarity) String() string {
	switch p {
	case NPN:
		return "NPN"
	case PNP:
		return "PNP"
	default:
		return fmt.Sprintf("Polarity(%d)", int(p))
	}
}

// Params describes one transistor part. Values are never mutated after init.
type Params struct {
	Name    string
	Type    Polarity
	Package string

	IS   float64 // saturation current (A)
	VT   float64 // thermal voltage (V)
	VA   float64 // Early voltage (V)
	Beta float64 // forward current gain

	VCEO float64 // breakdown voltages (V)
	VCBO float64
	VEBO float64

	ICMax float64 // maximum collector current (mA)
	VBEOn float64 // nominal turn-on voltage (V)
}

// ICMaxAmps returns the collector current ceiling in amps.
func (p Params) ICMaxAmps() float64 {
	return p.ICMax * 1e-3
}

var registry = map[string]Params{
	"SL100": {
		Name:    "SL100",
		Type:    NPN,
		Package: "TO-39",
		IS:      1e-14,
		VT:      0.026,
		VA:      100,
		Beta:    150,
		VCEO:    50,
		VCBO:    60,
		VEBO:    5,
		ICMax:   500,
		VBEOn:   0.65,
	},
	"BC107": {
		Name:    "BC107",
		Type:    NPN,
		Package: "TO-18",
		IS:      5e-15,
		VT:      0.026,
		VA:      80,
		Beta:    250,
		VCEO:    45,
		VCBO:    50,
		VEBO:    6,
		ICMax:   100,
		VBEOn:   0.6,
	},
}

// Lookup returns the parameters for a part name. Matching ignores case and
// surrounding spaces.
func Lookup(name string) (Params, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	p, ok := registry[key]
	if !ok {
		return Params{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownDevice, name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names returns the registered part names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered part sorted by name.
func All() []Params {
	names := Names()
	out := make([]Params, 0, len(names))
	for _, name := range names {
		out = append(out, registry[name])
	}
	return out
}

// Next returns the part that follows name in sorted order, wrapping around.
// Negative delta walks backwards.
func Next(name string, delta int) string {
	names := Names()
	if len(names) == 0 {
		return name
	}
	idx := 0
	key := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range names {
		if n == key {
			idx = i
			break
		}
	}
	idx = ((idx+delta)%len(names) + len(names)) % len(names)
	return names[idx]
}

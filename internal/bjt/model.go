// Package bjt implements the large-signal BJT model, the characteristic
// sweeps built on it and small-signal parameter extraction.
//
// Every function that takes device.Params directly is total: degenerate
// numeric cases (exponential overflow, non-positive logarithm arguments)
// collapse to 0 instead of surfacing an error.
package bjt

import (
	"math"

	"github.com/verte-zerg/bjtsim/internal/device"
)

// cutoffVBE is the base-emitter voltage below which the collector is off.
const cutoffVBE = 0.1

// CollectorCurrent evaluates the Shockley law with Early-effect scaling:
//
//	IC = IS * (exp(VBE/VT) - 1) * (1 + VCE/VA)
//
// The result is in amps and clamped to [0, ICMax]. The ceiling is a numeric
// guard, not a saturation model.
func CollectorCurrent(vbe, vce float64, p device.Params) float64 {
	if vbe < cutoffVBE {
		return 0
	}
	ic := p.IS * (math.Exp(vbe/p.VT) - 1) * (1 + vce/p.VA)
	if math.IsNaN(ic) {
		return 0
	}
	return math.Max(0, math.Min(ic, p.ICMaxAmps()))
}

// BaseCurrent returns IC/beta in amps, or 0 when the collector is off.
func BaseCurrent(ic float64, p device.Params) float64 {
	if ic <= 0 {
		return 0
	}
	return ic / p.Beta
}

// BaseEmitterVoltage inverts CollectorCurrent for a target base current:
// it returns the VBE that drives IB*beta through the collector at vce.
// Targets at or below IS are below forward conduction and yield 0.
func BaseEmitterVoltage(ib, vce float64, p device.Params) float64 {
	ic := ib * p.Beta
	if ic <= p.IS || ic <= 0 {
		return 0
	}
	arg := ic/(p.IS*(1+vce/p.VA)) + 1
	vbe := p.VT * math.Log(math.Max(1, arg))
	if math.IsNaN(vbe) || math.IsInf(vbe, 0) {
		return 0
	}
	return vbe
}

// round rounds half away from zero to the given number of decimals.
func round(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	scale := math.Pow(10, float64(decimals))
	out := math.Round(v*scale) / scale
	if out == 0 {
		return 0
	}
	return out
}

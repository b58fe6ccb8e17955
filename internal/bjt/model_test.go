package bjt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/bjtsim/internal/device"
)

func TestCollectorCurrentCutoff(t *testing.T) {
	for _, p := range device.All() {
		assert.Equal(t, 0.0, CollectorCurrent(0.099, 5, p), p.Name)
		assert.Equal(t, 0.0, CollectorCurrent(-3, 5, p), p.Name)
	}
}

func TestCollectorCurrentMonotonicInVBE(t *testing.T) {
	for _, p := range device.All() {
		for _, vce := range []float64{0, 1, 5, 20} {
			prev := CollectorCurrent(0.1, vce, p)
			for vbe := 0.1; vbe <= 2.0; vbe += 0.005 {
				ic := CollectorCurrent(vbe, vce, p)
				require.GreaterOrEqual(t, ic, prev, "%s vbe=%v vce=%v", p.Name, vbe, vce)
				prev = ic
			}
		}
	}
}

func TestCollectorCurrentMonotonicInVCE(t *testing.T) {
	for _, p := range device.All() {
		for _, vbe := range []float64{0.3, 0.6, 0.7, 0.9} {
			prev := CollectorCurrent(vbe, 0, p)
			for vce := 0.0; vce <= 50; vce += 0.25 {
				ic := CollectorCurrent(vbe, vce, p)
				require.GreaterOrEqual(t, ic, prev, "%s vbe=%v vce=%v", p.Name, vbe, vce)
				prev = ic
			}
		}
	}
}

func TestCollectorCurrentBounded(t *testing.T) {
	inputs := []float64{-1e6, -250, -100, -80, -1, 0, 0.1, 0.65, 1, 20, 100, 1e6}
	for _, p := range device.All() {
		for _, vbe := range inputs {
			for _, vce := range inputs {
				ic := CollectorCurrent(vbe, vce, p)
				require.False(t, math.IsNaN(ic), "%s vbe=%v vce=%v", p.Name, vbe, vce)
				require.GreaterOrEqual(t, ic, 0.0, "%s vbe=%v vce=%v", p.Name, vbe, vce)
				require.LessOrEqual(t, ic, p.ICMax*1e-3, "%s vbe=%v vce=%v", p.Name, vbe, vce)
			}
		}
	}
}

func TestCollectorCurrentOverflowHitsCeiling(t *testing.T) {
	p, err := device.Lookup("SL100")
	require.NoError(t, err)
	assert.Equal(t, p.ICMaxAmps(), CollectorCurrent(50, 5, p))
}

func TestBaseCurrent(t *testing.T) {
	p, err := device.Lookup("SL100")
	require.NoError(t, err)
	assert.Equal(t, 0.0, BaseCurrent(0, p))
	assert.Equal(t, 0.0, BaseCurrent(-1e-3, p))
	assert.InDelta(t, 1e-5, BaseCurrent(1.5e-3, p), 1e-18)
}

func TestBaseEmitterVoltageBelowThreshold(t *testing.T) {
	for _, p := range device.All() {
		assert.Equal(t, 0.0, BaseEmitterVoltage(0, 5, p))
		assert.Equal(t, 0.0, BaseEmitterVoltage(-1e-6, 5, p))
		assert.Equal(t, 0.0, BaseEmitterVoltage(p.IS/p.Beta/2, 5, p))
	}
}

func TestBaseEmitterVoltageDegenerateVCE(t *testing.T) {
	p, err := device.Lookup("BC107")
	require.NoError(t, err)
	// 1+VCE/VA == 0 divides by zero inside the logarithm.
	assert.Equal(t, 0.0, BaseEmitterVoltage(1e-5, -p.VA, p))
	// A negative scale pushes the argument below one.
	assert.Equal(t, 0.0, BaseEmitterVoltage(1e-5, -2*p.VA, p))
}

func TestRoundTrip(t *testing.T) {
	for _, p := range device.All() {
		for _, vce := range []float64{1, 5, 12} {
			for _, ib := range []float64{1e-8, 1e-6, 1e-5, 5e-5, 1e-4, 2e-4} {
				if ib*p.Beta >= p.ICMaxAmps() {
					continue
				}
				vbe := BaseEmitterVoltage(ib, vce, p)
				got := BaseCurrent(CollectorCurrent(vbe, vce, p), p)
				require.InEpsilon(t, ib, got, 0.01, "%s ib=%v vce=%v", p.Name, ib, vce)
			}
		}
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.35, round(0.35000000000000003, 3))
	assert.Equal(t, 1.24, round(1.2351, 2))
	assert.Equal(t, 0.0, round(-0.001, 2))
	assert.Equal(t, 0.0, round(math.Inf(1), 2))
}

func TestRoundUsesScaledBinaryValue(t *testing.T) {
	// 2.675*100 rounds to exactly 267.5 in binary, so the tie goes away
	// from zero even though the decimal expansion of 2.675 is below it.
	assert.Equal(t, 2.68, round(2.675, 2))
	// 1.005*100 stays below 100.5.
	assert.Equal(t, 1.0, round(1.005, 2))
	assert.Equal(t, -1.24, round(-1.235, 2))
}

package bjt

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/bjtsim/internal/device"
)

func TestExtractParametersFromAllSweeps(t *testing.T) {
	input, err := InputCharacteristics(5, "SL100")
	require.NoError(t, err)
	output, err := OutputCharacteristics(50, "SL100")
	require.NoError(t, err)
	transfer, err := TransferCharacteristics(5, "BC107")
	require.NoError(t, err)

	params, err := ExtractParameters(&input, &output, &transfer, "SL100")
	require.NoError(t, err)

	for _, v := range []float64{params.InputImpedance, params.OutputImpedance, params.CurrentGain} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	assert.GreaterOrEqual(t, params.InputImpedance, 0.0)
	assert.GreaterOrEqual(t, params.OutputImpedance, 0.0)
	// ΔVBE 0.1 V over ΔIB 0.11 μA.
	assert.InDelta(t, 909.09, params.InputImpedance, 0.02)
	// Constant collector current at fixed IB leaves no slope to invert.
	assert.Equal(t, 0.0, params.OutputImpedance)
	assert.Greater(t, params.CurrentGain, 15.0)
	assert.Less(t, params.CurrentGain, 1500.0)
	assert.Equal(t, 250.0, params.CurrentGain)
}

func TestExtractParametersDefaults(t *testing.T) {
	params, err := ExtractParameters(nil, nil, nil, "SL100")
	require.NoError(t, err)
	assert.Equal(t, Parameters{InputImpedance: 0, OutputImpedance: 0, CurrentGain: 150}, params)
}

func TestExtractParametersShortSweeps(t *testing.T) {
	one := &SweepResult{Kind: KindInput, Data: []Point{{X: 0.5, Y: 1}}}
	two := &SweepResult{Kind: KindOutput, Data: []Point{{X: 1, Y: 1}, {X: 2, Y: 2}}}
	params, err := ExtractParameters(one, two, one, "BC107")
	require.NoError(t, err)
	assert.Equal(t, Parameters{CurrentGain: 250}, params)
}

func TestExtractParametersOutputSlope(t *testing.T) {
	output := &SweepResult{Kind: KindOutput, Data: []Point{
		{X: 1, Y: 1.0},
		{X: 2, Y: 1.1},
		{X: 3, Y: 1.2},
	}}
	params, err := ExtractParameters(nil, output, nil, "SL100")
	require.NoError(t, err)
	// 2 V over 0.2 mA.
	assert.Equal(t, 10.0, params.OutputImpedance)
}

func TestExtractParametersGainNeedsBaseCurrent(t *testing.T) {
	transfer := &SweepResult{Kind: KindTransfer, Data: []Point{
		{X: 0, Y: 0},
		{X: 0, Y: 0},
		{X: 0, Y: 0},
	}}
	params, err := ExtractParameters(nil, nil, transfer, "SL100")
	require.NoError(t, err)
	assert.Equal(t, 150.0, params.CurrentGain)
}

func TestExtractParametersUnknownDevice(t *testing.T) {
	_, err := ExtractParameters(nil, nil, nil, "nope")
	assert.True(t, errors.Is(err, device.ErrUnknownDevice))
}

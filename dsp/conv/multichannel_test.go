package conv

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-convolve/internal/testutil"
)

// deltaIR returns an impulse response that is a unit delta at the given
// offset.
func deltaIR(offset int) []float64 {
	h := make([]float64, offset+1)
	h[offset] = 1
	return h
}

// TestMatrixFourToTwo is the matrix scenario: four inputs with a distinct
// delta impulse per cell, each input a unit impulse at a unique offset.
// Every output is then the sum of its four impulses at the combined
// offsets.
func TestMatrixFourToTwo(t *testing.T) {
	const numSamples = 512

	irOffsets := [2][4]int{
		{3, 17, 40, 90},
		{5, 23, 51, 77},
	}
	inputOffsets := [4]int{0, 11, 29, 60}

	m, err := NewMatrix(4, 2, LatencyZero)
	require.NoError(t, err)

	for out := 0; out < 2; out++ {
		for in := 0; in < 4; in++ {
			h := deltaIR(irOffsets[out][in])
			require.NoError(t, m.Set(in, out, h, len(h), false))
		}
	}

	ins := make([][]float64, 4)
	for i := range ins {
		ins[i] = testutil.Impulse(numSamples, inputOffsets[i])
	}
	outs := [][]float64{make([]float64, numSamples), make([]float64, numSamples)}

	m.Process(ins, outs, numSamples)

	for out := 0; out < 2; out++ {
		want := make([]float64, numSamples)
		for in := 0; in < 4; in++ {
			want[inputOffsets[in]+irOffsets[out][in]]++
		}
		testutil.RequireSliceNearlyEqual(t, outs[out], want, 1e-10)
	}
}

func TestParallelRoutesPerChannel(t *testing.T) {
	const numSamples = 256

	m, err := NewParallel(2, LatencyZero)
	require.NoError(t, err)

	require.NoError(t, m.Set(0, 0, deltaIR(4), 5, false))
	require.NoError(t, m.Set(1, 1, deltaIR(9), 10, false))

	ins := [][]float64{testutil.Impulse(numSamples, 0), testutil.Impulse(numSamples, 0)}
	outs := [][]float64{make([]float64, numSamples), make([]float64, numSamples)}

	m.Process(ins, outs, numSamples)

	testutil.RequireSliceNearlyEqual(t, outs[0], testutil.Impulse(numSamples, 4), 1e-10)
	testutil.RequireSliceNearlyEqual(t, outs[1], testutil.Impulse(numSamples, 9), 1e-10)
}

func TestParallelRejectsOffDiagonal(t *testing.T) {
	m, err := NewParallel(2, LatencyZero)
	require.NoError(t, err)

	require.ErrorIs(t, m.Set(0, 1, deltaIR(0), 1, false), ErrInChannelOutOfRange)
	require.ErrorIs(t, m.Set(1, 0, deltaIR(0), 1, false), ErrInChannelOutOfRange)
}

func TestMultichannelChannelRange(t *testing.T) {
	m, err := NewMatrix(2, 2, LatencyLow)
	require.NoError(t, err)

	h := testutil.Ones(8)

	require.ErrorIs(t, m.Set(0, 2, h, len(h), false), ErrOutChannelOutOfRange)
	require.ErrorIs(t, m.Set(2, 0, h, len(h), false), ErrInChannelOutOfRange)
	require.ErrorIs(t, m.Reset(0, 5), ErrOutChannelOutOfRange)
	require.ErrorIs(t, m.Resize(0, 5, 1024), ErrOutChannelOutOfRange)
}

func TestMultichannelFloorsChannelCounts(t *testing.T) {
	m, err := NewMatrix(0, 0, LatencyMedium)
	require.NoError(t, err)
	require.Equal(t, 1, m.NumIns())
	require.Equal(t, 1, m.NumOuts())
}

func TestMultichannelClearAndReset(t *testing.T) {
	m, err := NewMatrix(2, 1, LatencyZero)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 0, testutil.Ones(4), 4, false))
	require.NoError(t, m.Set(1, 0, testutil.Ones(4), 4, false))

	m.ResetAll()
	m.ClearAll(false)

	x := testutil.Ones(64)
	outs := [][]float64{make([]float64, 64)}
	for i := range outs[0] {
		outs[0][i] = 7
	}

	m.Process([][]float64{x, x}, outs, 64)
	testutil.RequireSliceNearlyEqual(t, outs[0], make([]float64, 64), 0)
}

func TestMultichannelProcessDoesNotAllocate(t *testing.T) {
	m, err := NewMatrix(2, 2, LatencyZero)
	require.NoError(t, err)

	h := testutil.DeterministicNoise(61, 1, 2000)
	for out := 0; out < 2; out++ {
		for in := 0; in < 2; in++ {
			require.NoError(t, m.Set(in, out, h, len(h), false))
		}
	}

	x := testutil.DeterministicNoise(62, 1, 256)
	ins := [][]float64{x, x}
	outs := [][]float64{make([]float64, 256), make([]float64, 256)}

	m.Process(ins, outs, 256) // settle armed resets

	allocs := testing.AllocsPerRun(32, func() {
		m.Process(ins, outs, 256)
	})
	require.Zero(t, allocs, "Process must not touch the heap")
}

func TestMultichannel32(t *testing.T) {
	m, err := NewMatrix32(1, 1, LatencyZero)
	require.NoError(t, err)

	require.NoError(t, m.Set(0, 0, []float32{0.5}, 1, false))

	ins := [][]float32{testutil.ToFloat32(testutil.Ones(64))}
	outs := [][]float32{make([]float32, 64)}
	m.Process(ins, outs, 64)

	for i, v := range outs[0] {
		require.InDelta(t, 0.5, v, 1e-6, "sample %d", i)
	}
}

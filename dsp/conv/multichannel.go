package conv

import (
	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-convolve/internal/denormal"
)

// initialMaxLength sizes each channel's resizable partition before the
// first explicit resize.
const initialMaxLength = 16384

// MultichannelT routes audio through a bank of fan-in convolvers in one
// of two shapes fixed at construction: a full input-by-output matrix, or
// parallel channels where output i reads only input i.
type MultichannelT[T, IO algofft.Float] struct {
	parallel   bool
	convolvers []*NToMonoT[T, IO]
}

// Multichannel is the float64 specialization.
type Multichannel = MultichannelT[float64, float64]

// Multichannel32 is the float32 specialization.
type Multichannel32 = MultichannelT[float32, float32]

// NewMatrixT creates a full matrix convolver: every output channel owns a
// fan-in convolver over all input channels. Channel counts are floored at
// one so a degenerate configuration still owns a convolver.
func NewMatrixT[T, IO algofft.Float](numIns, numOuts int, latency LatencyMode) (*MultichannelT[T, IO], error) {
	m := &MultichannelT[T, IO]{}

	for i := 0; i < max(numOuts, 1); i++ {
		n, err := NewNToMonoT[T, IO](max(numIns, 1), initialMaxLength, latency)
		if err != nil {
			return nil, err
		}
		m.convolvers = append(m.convolvers, n)
	}

	return m, nil
}

// NewParallelT creates a parallel convolver: output channel i convolves
// input channel i only.
func NewParallelT[T, IO algofft.Float](numIO int, latency LatencyMode) (*MultichannelT[T, IO], error) {
	m := &MultichannelT[T, IO]{parallel: true}

	for i := 0; i < max(numIO, 1); i++ {
		n, err := NewNToMonoT[T, IO](1, initialMaxLength, latency)
		if err != nil {
			return nil, err
		}
		m.convolvers = append(m.convolvers, n)
	}

	return m, nil
}

// NewMatrix creates a float64 matrix convolver.
func NewMatrix(numIns, numOuts int, latency LatencyMode) (*Multichannel, error) {
	return NewMatrixT[float64, float64](numIns, numOuts, latency)
}

// NewMatrix32 creates a float32 matrix convolver.
func NewMatrix32(numIns, numOuts int, latency LatencyMode) (*Multichannel32, error) {
	return NewMatrixT[float32, float32](numIns, numOuts, latency)
}

// NewParallel creates a float64 parallel convolver.
func NewParallel(numIO int, latency LatencyMode) (*Multichannel, error) {
	return NewParallelT[float64, float64](numIO, latency)
}

// NewParallel32 creates a float32 parallel convolver.
func NewParallel32(numIO int, latency LatencyMode) (*Multichannel32, error) {
	return NewParallelT[float32, float32](numIO, latency)
}

// NumIns returns the number of input channels.
func (m *MultichannelT[T, IO]) NumIns() int {
	if m.parallel {
		return len(m.convolvers)
	}
	return m.convolvers[0].NumIns()
}

// NumOuts returns the number of output channels.
func (m *MultichannelT[T, IO]) NumOuts() int {
	return len(m.convolvers)
}

// Set installs an impulse for one matrix cell. In parallel mode the input
// and output channel must match.
func (m *MultichannelT[T, IO]) Set(inChan, outChan int, input []T, length int, resize bool) error {
	if outChan < 0 || outChan >= m.NumOuts() {
		return ErrOutChannelOutOfRange
	}
	return m.convolvers[outChan].Set(m.offsetInput(inChan, outChan), input, length, resize)
}

// Clear removes the impulse of one matrix cell.
func (m *MultichannelT[T, IO]) Clear(inChan, outChan int, resize bool) error {
	return m.Set(inChan, outChan, nil, 0, resize)
}

// ClearAll removes every impulse.
func (m *MultichannelT[T, IO]) ClearAll(resize bool) {
	m.forAll(func(in, out int) {
		_ = m.Clear(in, out, resize)
	})
}

// Reset arms a reset of one matrix cell.
func (m *MultichannelT[T, IO]) Reset(inChan, outChan int) error {
	if outChan < 0 || outChan >= m.NumOuts() {
		return ErrOutChannelOutOfRange
	}
	return m.convolvers[outChan].Reset(m.offsetInput(inChan, outChan))
}

// ResetAll arms a reset of every cell.
func (m *MultichannelT[T, IO]) ResetAll() {
	m.forAll(func(in, out int) {
		_ = m.Reset(in, out)
	})
}

// Resize adjusts one cell's impulse capacity. Not real-time safe.
func (m *MultichannelT[T, IO]) Resize(inChan, outChan, length int) error {
	if outChan < 0 || outChan >= m.NumOuts() {
		return ErrOutChannelOutOfRange
	}
	return m.convolvers[outChan].Resize(m.offsetInput(inChan, outChan), length)
}

// Process convolves numSamples samples from ins into outs with denormals
// flushed to zero for the duration. Channel counts clamp to the
// configuration and to the slices passed. Output channels past the clamped
// count, and in parallel mode outputs whose input is not supplied, are left
// untouched.
func (m *MultichannelT[T, IO]) Process(ins, outs [][]IO, numSamples int) {
	state := denormal.Disable()
	defer state.Restore()

	numIns := min(len(ins), m.NumIns())
	numOuts := min(len(outs), m.NumOuts())
	if m.parallel {
		numOuts = min(numOuts, numIns)
	}

	for i := 0; i < numOuts; i++ {
		if m.parallel {
			m.convolvers[i].Process(ins[i:i+1], outs[i][:numSamples], false)
		} else {
			m.convolvers[i].Process(ins[:numIns], outs[i][:numSamples], false)
		}
	}
}

// offsetInput maps a matrix cell to the owning fan-in channel. Parallel
// cells only exist on the diagonal, so off-diagonal requests map outside
// the valid range and fail the channel check.
func (m *MultichannelT[T, IO]) offsetInput(inChan, outChan int) int {
	if m.parallel {
		return inChan - outChan
	}
	return inChan
}

func (m *MultichannelT[T, IO]) forAll(fn func(in, out int)) {
	if m.parallel {
		for i := 0; i < m.NumOuts(); i++ {
			fn(i, i)
		}
		return
	}
	for out := 0; out < m.NumOuts(); out++ {
		for in := 0; in < m.NumIns(); in++ {
			fn(in, out)
		}
	}
}

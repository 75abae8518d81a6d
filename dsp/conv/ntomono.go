package conv

import (
	algofft "github.com/MeKo-Christian/algo-fft"
)

// NToMonoT owns one mono convolver per input channel, all summing into a
// single output.
type NToMonoT[T, IO algofft.Float] struct {
	convolvers []*MonoT[T, IO]
}

// NToMono is the float64 specialization.
type NToMono = NToMonoT[float64, float64]

// NToMono32 is the float32 specialization.
type NToMono32 = NToMonoT[float32, float32]

// NewNToMonoT creates a fan-in convolver with inChans independent mono
// convolvers sized for impulses up to maxLength samples.
func NewNToMonoT[T, IO algofft.Float](inChans, maxLength int, latency LatencyMode) (*NToMonoT[T, IO], error) {
	n := &NToMonoT[T, IO]{}

	for i := 0; i < inChans; i++ {
		mono, err := NewMonoT[T, IO](maxLength, latency)
		if err != nil {
			return nil, err
		}
		n.convolvers = append(n.convolvers, mono)
	}

	return n, nil
}

// NewNToMono creates a float64 fan-in convolver.
func NewNToMono(inChans, maxLength int, latency LatencyMode) (*NToMono, error) {
	return NewNToMonoT[float64, float64](inChans, maxLength, latency)
}

// NewNToMono32 creates a float32 fan-in convolver.
func NewNToMono32(inChans, maxLength int, latency LatencyMode) (*NToMono32, error) {
	return NewNToMonoT[float32, float32](inChans, maxLength, latency)
}

// NumIns returns the number of input channels.
func (n *NToMonoT[T, IO]) NumIns() int {
	return len(n.convolvers)
}

// Set installs an impulse for one input channel.
func (n *NToMonoT[T, IO]) Set(inChan int, input []T, length int, resize bool) error {
	if inChan < 0 || inChan >= n.NumIns() {
		return ErrInChannelOutOfRange
	}
	return n.convolvers[inChan].Set(input, length, resize)
}

// Clear removes the impulse of one input channel.
func (n *NToMonoT[T, IO]) Clear(inChan int, resize bool) error {
	return n.Set(inChan, nil, 0, resize)
}

// ClearAll removes every impulse.
func (n *NToMonoT[T, IO]) ClearAll(resize bool) {
	for i := range n.convolvers {
		_ = n.Clear(i, resize)
	}
}

// Reset arms a reset of one input channel's convolver.
func (n *NToMonoT[T, IO]) Reset(inChan int) error {
	if inChan < 0 || inChan >= n.NumIns() {
		return ErrInChannelOutOfRange
	}
	return n.convolvers[inChan].Reset()
}

// ResetAll arms a reset of every convolver.
func (n *NToMonoT[T, IO]) ResetAll() {
	for i := range n.convolvers {
		_ = n.Reset(i)
	}
}

// Resize adjusts one input channel's impulse capacity.
func (n *NToMonoT[T, IO]) Resize(inChan, length int) error {
	if inChan < 0 || inChan >= n.NumIns() {
		return ErrInChannelOutOfRange
	}
	return n.convolvers[inChan].Resize(length)
}

// Process convolves len(out) samples from each input channel into out.
// Channel zero initializes out (unless accumulate is set); the remaining
// channels accumulate.
func (n *NToMonoT[T, IO]) Process(ins [][]IO, out []IO, accumulate bool) {
	numIns := min(len(ins), n.NumIns())
	numSamples := len(out)

	for i := 0; i < numIns; i++ {
		n.convolvers[i].Process(ins[i][:numSamples], out, accumulate || i > 0)
	}
}

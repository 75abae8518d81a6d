package conv

import (
	"fmt"
	"math/rand/v2"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-convolve/dsp/fft"
	"github.com/cwbudde/algo-convolve/internal/vecmath"
)

const (
	// fixedMinFFTSizeLog2 keeps every partition large enough for the
	// unrolled spectrum kernels.
	fixedMinFFTSizeLog2 = 5

	// fixedMaxFFTSizeLog2 bounds the twiddle tables.
	fixedMaxFFTSizeLog2 = 20
)

// PartitionedT convolves against one uniform partition size using
// overlap-save FFT convolution. The impulse is stored as a sequence of
// precomputed half-FFT spectra; each processed block multiplies the input
// spectrum history against them, spreading the tail partitions across the
// samples between FFT boundaries so the per-sample cost stays flat.
type PartitionedT[T, IO algofft.Float] struct {
	offset           int
	length           int
	maxImpulseLength int

	setup *fft.Setup[T]

	maxFFTSizeLog2 int
	fftSizeLog2    int
	rwCounter      int

	// Scheduling state.
	inputPosition   int
	partitionsDone  int
	lastPartition   int
	numPartitions   int
	validPartitions int

	// fftBuffers hold the double-buffered input (0, 1), the inverse
	// transform scratch (2) and the overlap-save output (3).
	fftBuffers [4][]T

	impulseBuffer fft.Split[T]
	inputBuffer   fft.Split[T]
	accumBuffer   fft.Split[T]

	ops *vecmath.Kernels[T]

	resetOffset int
	resetFlag   bool
}

// Partitioned is the float64 specialization.
type Partitioned = PartitionedT[float64, float64]

// Partitioned32 is the float32 specialization.
type Partitioned32 = PartitionedT[float32, float32]

// NewPartitionedT creates a partitioned convolver with the given FFT size
// covering up to maxLength impulse samples starting at offset. A non-zero
// length clamps the impulse range below the capacity.
func NewPartitionedT[T, IO algofft.Float](fftSize, maxLength, offset, length int) (*PartitionedT[T, IO], error) {
	log2 := ilog2(fftSize)
	if log2 < fixedMinFFTSizeLog2 || log2 > fixedMaxFFTSizeLog2 {
		return nil, fmt.Errorf("%w: %d", ErrFFTSizeOutOfRange, fftSize)
	}
	if !isPow2(fftSize) {
		return nil, fmt.Errorf("%w: %d", ErrFFTSizeNotPow2, fftSize)
	}

	setup, err := fft.NewSetup[T](log2)
	if err != nil {
		return nil, err
	}

	// Round the capacity up to a whole number of partitions so any
	// impulse up to maxLength loads regardless of where it ends.
	half := fftSize >> 1
	if maxLength%half != 0 {
		maxLength = (maxLength/half + 1) * half
	}

	c := &PartitionedT[T, IO]{
		offset:           offset,
		maxImpulseLength: maxLength,
		setup:            setup,
		maxFFTSizeLog2:   log2,
		fftSizeLog2:      log2,
		impulseBuffer:    fft.NewSplit[T](maxLength),
		inputBuffer:      fft.NewSplit[T](maxLength),
		accumBuffer:      fft.NewSplit[T](half),
		ops:              vecmath.For[T](),
		resetOffset:      -1,
		resetFlag:        true,
	}

	for i := range c.fftBuffers {
		c.fftBuffers[i] = make([]T, fftSize)
	}

	if err := c.SetLength(length); err != nil {
		return nil, err
	}

	return c, nil
}

// NewPartitioned creates a float64 partitioned convolver.
func NewPartitioned(fftSize, maxLength, offset, length int) (*Partitioned, error) {
	return NewPartitionedT[float64, float64](fftSize, maxLength, offset, length)
}

// NewPartitioned32 creates a float32 partitioned convolver.
func NewPartitioned32(fftSize, maxLength, offset, length int) (*Partitioned32, error) {
	return NewPartitionedT[float32, float32](fftSize, maxLength, offset, length)
}

// FFTSize returns the partition FFT size.
func (c *PartitionedT[T, IO]) FFTSize() int { return 1 << c.fftSizeLog2 }

// MaxImpulseLength returns the rounded-up impulse capacity in samples.
func (c *PartitionedT[T, IO]) MaxImpulseLength() int { return c.maxImpulseLength }

// SetLength clamps the impulse range to length samples. Zero removes the
// clamp.
func (c *PartitionedT[T, IO]) SetLength(length int) error {
	c.length = min(length, c.maxImpulseLength)

	if length > c.maxImpulseLength {
		return fmt.Errorf("%w: %d > %d", ErrPartitionLengthTooLarge, length, c.maxImpulseLength)
	}
	return nil
}

// SetOffset sets the impulse offset applied by the next Set.
func (c *PartitionedT[T, IO]) SetOffset(offset int) {
	c.offset = offset
}

// SetResetOffset pins the read/write counter seeded by the next reset.
// A negative offset restores the default: a uniform draw over the half
// FFT size, decorrelating FFT boundaries between convolver instances.
func (c *PartitionedT[T, IO]) SetResetOffset(offset int) {
	c.resetOffset = offset
}

// Set partitions the impulse into spectra: each half-FFT stride of the
// configured range is zero-padded and forward-transformed straight into
// its slot. A nil input clears the engine.
func (c *PartitionedT[T, IO]) Set(input []T, length int) error {
	half := 1 << (c.fftSizeLog2 - 1)

	c.numPartitions = 0

	if input == nil || length <= c.offset {
		length = 0
	} else {
		length -= c.offset
	}
	if c.length != 0 && c.length < length {
		length = c.length
	}

	var err error
	if length > c.maxImpulseLength {
		length = c.maxImpulseLength
		err = fmt.Errorf("%w: clamped to %d samples", ErrMemoryAllocTooSmall, c.maxImpulseLength)
	}

	numPartitions := 0
	bufferPosition := c.offset

	for length > 0 {
		numSamples := min(half, length)
		length -= numSamples

		slot := c.impulseBuffer.Sub(numPartitions*half, half)
		fft.RFFTFrom(c.setup, slot, input[bufferPosition:bufferPosition+numSamples], c.fftSizeLog2)

		bufferPosition += half
		numPartitions++
	}

	c.Reset()
	c.numPartitions = numPartitions

	return err
}

// Reset arms a one-shot clear of all processing state, applied by the
// next Process call before any audio is produced.
func (c *PartitionedT[T, IO]) Reset() {
	c.resetFlag = true
}

// Process convolves len(in) samples. With accumulate the result is added
// into out, otherwise out is overwritten. With no impulse loaded the
// engine is silent: out is zeroed, or left untouched when accumulating.
func (c *PartitionedT[T, IO]) Process(in, out []IO, accumulate bool) {
	fftSize := 1 << c.fftSizeLog2
	half := fftSize >> 1
	hopMask := half - 1

	numSamples := len(in)

	if c.numPartitions == 0 {
		if !accumulate {
			zeroSamples(out[:numSamples])
		}
		return
	}

	rw := c.rwCounter

	if c.resetFlag {
		for i := range c.fftBuffers {
			clear(c.fftBuffers[i])
		}
		clear(c.accumBuffer.Re)
		clear(c.accumBuffer.Im)

		if c.resetOffset < 0 {
			rw = rand.IntN(half)
		} else {
			rw = c.resetOffset % half
		}

		c.inputPosition = 0
		c.partitionsDone = 0
		c.lastPartition = 0
		c.validPartitions = 1

		c.resetFlag = false
	}

	done := 0
	for done < numSamples {
		// Samples until the next FFT boundary bound this pass.
		tillNextFFT := half - (rw & hopMask)
		loopSize := min(numSamples-done, tillNextFFT)
		hiCounter := (rw + half) & (fftSize - 1)

		// Stage the input twice so a contiguous FFT frame is always
		// available, and emit the scheduled overlap-save output.
		copySamples(c.fftBuffers[0][rw:rw+loopSize], in[done:done+loopSize])
		copySamples(c.fftBuffers[1][hiCounter:hiCounter+loopSize], in[done:done+loopSize])

		if accumulate {
			addSamples(out[done:done+loopSize], c.fftBuffers[3][rw:rw+loopSize])
		} else {
			copySamples(out[done:done+loopSize], c.fftBuffers[3][rw:rw+loopSize])
		}

		done += loopSize
		rw += loopSize

		fftCounter := rw & hopMask
		fftNow := fftCounter == 0

		// Proportional share of the tail partitions so every valid
		// partition beyond the first is multiplied in by the time the
		// boundary arrives.
		var partitionsToDo int
		if fftNow {
			partitionsToDo = c.validPartitions - c.partitionsDone - 1
		} else {
			partitionsToDo = (c.validPartitions-1)*fftCounter/half - c.partitionsDone
		}

		for partitionsToDo > 0 {
			nextPartition := c.lastPartition
			if nextPartition >= c.numPartitions {
				nextPartition = 0
			}
			c.lastPartition = min(c.numPartitions, nextPartition+partitionsToDo)
			partitionsToDo -= c.lastPartition - nextPartition

			irOffset := (c.partitionsDone + 1) * half
			inOffset := nextPartition * half

			for i := nextPartition; i < c.lastPartition; i++ {
				c.processPartition(inOffset, irOffset)
				irOffset += half
				inOffset += half
				c.partitionsDone++
			}
		}

		if fftNow {
			// Transform the completed frame, fold in partition zero
			// (only now available), inverse-transform the accumulator
			// and store the scaled overlap-save half.
			fftInput := c.fftBuffers[0]
			if rw == fftSize {
				fftInput = c.fftBuffers[1]
			}

			slot := c.inputBuffer.Sub(c.inputPosition*half, half)
			fft.RFFTFrom(c.setup, slot, fftInput, c.fftSizeLog2)

			c.processPartition(c.inputPosition*half, 0)

			fft.RIFFTTo(c.setup, c.accumBuffer, c.fftBuffers[2], c.fftSizeLog2)

			outOffset := 0
			if rw != fftSize {
				outOffset = half
			}
			scale := T(1) / T(fftSize<<2)
			c.ops.ScaleBlock(c.fftBuffers[3][outOffset:outOffset+half], c.fftBuffers[2][:half], scale)

			clear(c.accumBuffer.Re)
			clear(c.accumBuffer.Im)

			rw &= fftSize - 1

			c.validPartitions = min(c.numPartitions, c.validPartitions+1)
			if c.inputPosition == 0 {
				c.inputPosition = c.numPartitions - 1
			} else {
				c.inputPosition--
			}
			c.lastPartition = c.inputPosition + 1
			c.partitionsDone = 0
		}
	}

	c.rwCounter = rw
}

// processPartition multiply-accumulates one input spectrum against one
// impulse spectrum. Both follow the packed layout with the Nyquist bin in
// Im[0]: the Nyquist product accumulates separately while the bins are
// temporarily zeroed so the complex kernel leaves them untouched.
func (c *PartitionedT[T, IO]) processPartition(inOffset, irOffset int) {
	half := 1 << (c.fftSizeLog2 - 1)

	aIm := c.inputBuffer.Im[inOffset : inOffset+half]
	bIm := c.impulseBuffer.Im[irOffset : irOffset+half]

	nyquistA := aIm[0]
	nyquistB := bIm[0]

	c.accumBuffer.Im[0] += nyquistA * nyquistB
	aIm[0] = 0
	bIm[0] = 0

	c.ops.ComplexMulAdd(
		c.accumBuffer.Re, c.accumBuffer.Im,
		c.inputBuffer.Re[inOffset:inOffset+half], aIm,
		c.impulseBuffer.Re[irOffset:irOffset+half], bIm,
	)

	aIm[0] = nyquistA
	bIm[0] = nyquistB
}

package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-convolve/internal/vecmath"
)

const (
	// timeMaxImpulse is the capacity of the reversed-impulse buffer.
	timeMaxImpulse = 2048

	// timeMaxUsable is the longest impulse the engine accepts: the
	// kernel pads the impulse up to timePadResolution, which must still
	// fit the buffer.
	timeMaxUsable = timeMaxImpulse - 4

	// timeMaxBuffer is the input ring length; the ring is stored twice
	// back-to-back so any window up to timeMaxImpulse samples ending at
	// the write position reads contiguously.
	timeMaxBuffer = 4096
	timeAlloc     = timeMaxBuffer * 2

	// timePadResolution aligns the reversed impulse for the unrolled
	// dot-product kernel.
	timePadResolution = 16
)

// TimeDomainT convolves directly in the time domain against a reversed
// impulse of up to timeMaxUsable samples. It serves as the zero-latency
// head of a mono convolver and as a reference engine for short impulses.
type TimeDomainT[T, IO algofft.Float] struct {
	impulseBuffer []T
	inputBuffer   []T

	inputPosition int
	impulseLength int

	offset int
	length int

	ops *vecmath.Kernels[T]

	reset bool
}

// TimeDomain is the float64 specialization.
type TimeDomain = TimeDomainT[float64, float64]

// TimeDomain32 is the float32 specialization.
type TimeDomain32 = TimeDomainT[float32, float32]

// NewTimeDomainT creates a time-domain convolver reading the impulse from
// the given offset, clamped to length samples when length is non-zero.
func NewTimeDomainT[T, IO algofft.Float](offset, length int) (*TimeDomainT[T, IO], error) {
	c := &TimeDomainT[T, IO]{
		impulseBuffer: make([]T, timeMaxImpulse),
		inputBuffer:   make([]T, timeAlloc),
		offset:        offset,
		ops:           vecmath.For[T](),
	}

	if err := c.SetLength(length); err != nil {
		return nil, err
	}

	return c, nil
}

// NewTimeDomain creates a float64 time-domain convolver.
func NewTimeDomain(offset, length int) (*TimeDomain, error) {
	return NewTimeDomainT[float64, float64](offset, length)
}

// NewTimeDomain32 creates a float32 time-domain convolver.
func NewTimeDomain32(offset, length int) (*TimeDomain32, error) {
	return NewTimeDomainT[float32, float32](offset, length)
}

// SetLength clamps the impulse range to length samples. Zero removes the
// clamp.
func (c *TimeDomainT[T, IO]) SetLength(length int) error {
	c.length = min(length, timeMaxUsable)

	if length > timeMaxUsable {
		return fmt.Errorf("%w: %d > %d", ErrTimeLengthOutOfRange, length, timeMaxUsable)
	}
	return nil
}

// SetOffset sets the impulse offset applied by the next Set.
func (c *TimeDomainT[T, IO]) SetOffset(offset int) {
	c.offset = offset
}

// Set installs the impulse: the configured range is copied reversed, with
// a leading zero pad up to the kernel alignment. A nil input clears the
// engine.
func (c *TimeDomainT[T, IO]) Set(input []T, length int) error {
	c.impulseLength = 0
	newLength := 0

	if input != nil && length > c.offset {
		newLength = length - c.offset
		limit := c.length
		if limit == 0 {
			limit = timeMaxUsable
		}
		newLength = min(newLength, limit)

		pad := paddedImpulseLength(newLength) - newLength
		clear(c.impulseBuffer[:pad])
		for i := 0; i < newLength; i++ {
			c.impulseBuffer[pad+i] = input[c.offset+newLength-1-i]
		}
	}

	c.Reset()
	c.impulseLength = newLength

	if c.length == 0 && length-c.offset > timeMaxUsable {
		return fmt.Errorf("%w: %d samples from offset %d", ErrTimeImpulseTooLong, length-c.offset, c.offset)
	}
	return nil
}

// Reset arms a one-shot clear of the input history, applied by the next
// Process call before any audio is produced.
func (c *TimeDomainT[T, IO]) Reset() {
	c.reset = true
}

// Process convolves len(in) samples. With accumulate the result is added
// into out, otherwise out is overwritten. out must hold at least len(in)
// samples.
func (c *TimeDomainT[T, IO]) Process(in, out []IO, accumulate bool) {
	if c.reset {
		clear(c.inputBuffer)
		c.reset = false
	}

	numSamples := len(in)

	if c.impulseLength == 0 && !accumulate {
		zeroSamples(out[:numSamples])
		return
	}

	pos := c.inputPosition
	done := 0

	for done < numSamples {
		remaining := numSamples - done

		var cur int
		if pos+remaining > timeMaxBuffer {
			cur = min(timeMaxImpulse, timeMaxBuffer-pos)
		} else {
			cur = min(timeMaxImpulse, remaining)
		}

		// Write the chunk into the ring and its mirror so the
		// convolution window reads in one shot.
		copySamples(c.inputBuffer[pos:pos+cur], in[done:done+cur])
		copySamples(c.inputBuffer[timeMaxBuffer+pos:timeMaxBuffer+pos+cur], in[done:done+cur])

		pos += cur
		if pos >= timeMaxBuffer {
			pos -= timeMaxBuffer
		}

		c.convolve(timeMaxBuffer+pos-cur, out[done:done+cur], accumulate)

		done += cur
	}

	c.inputPosition = pos
}

// convolve emits len(out) samples for the window ending at base+len(out)-1
// in the mirrored input buffer.
func (c *TimeDomainT[T, IO]) convolve(base int, out []IO, accumulate bool) {
	padded := paddedImpulseLength(c.impulseLength)
	impulse := c.impulseBuffer[:padded]

	for i := range out {
		start := base + i - padded + 1
		sum := c.ops.DotProduct(impulse, c.inputBuffer[start:start+padded])

		if accumulate {
			out[i] += IO(sum)
		} else {
			out[i] = IO(sum)
		}
	}
}

func paddedImpulseLength(length int) int {
	return (length + timePadResolution - 1) &^ (timePadResolution - 1)
}

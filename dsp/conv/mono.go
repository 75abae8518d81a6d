package conv

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-convolve/internal/memswap"
)

// MonoT composes a non-uniform partition ladder: optionally a time-domain
// head, up to three fixed partitioned engines with strictly increasing FFT
// sizes, and one resizable engine at the largest size. Each stage covers
// the impulse range between the cumulative coverage of its predecessors
// and its own capacity, so the union covers the impulse with no gap or
// overlap.
//
// The resizable stage lives behind a memory swap: Set and Resize replace
// it from the control thread while Process acquires it non-blocking and
// falls back to silence when the lock is contended. The published length
// doubles as the gate — it is zeroed before any stage is touched and
// restored once every stage carries the new impulse, so the audio thread
// renders exactly one impulse, or silence, never a mix.
type MonoT[T, IO algofft.Float] struct {
	allocator memswap.AllocFunc[PartitionedT[T, IO]]

	sizes []int

	time  *TimeDomainT[T, IO]
	part1 *PartitionedT[T, IO]
	part2 *PartitionedT[T, IO]
	part3 *PartitionedT[T, IO]
	part4 *memswap.Swap[PartitionedT[T, IO]]

	length atomic.Int64
	reset  atomic.Bool

	resetOffset int
}

// Mono is the float64 specialization.
type Mono = MonoT[float64, float64]

// Mono32 is the float32 specialization.
type Mono32 = MonoT[float32, float32]

// NewMonoT creates a mono convolver sized for impulses up to maxLength
// samples using the given latency mode's partition ladder.
func NewMonoT[T, IO algofft.Float](maxLength int, latency LatencyMode) (*MonoT[T, IO], error) {
	sizes, zeroLatency := latency.partitionSizes()
	return NewMonoSizesT[T, IO](maxLength, zeroLatency, sizes...)
}

// NewMono creates a float64 mono convolver.
func NewMono(maxLength int, latency LatencyMode) (*Mono, error) {
	return NewMonoT[float64, float64](maxLength, latency)
}

// NewMono32 creates a float32 mono convolver.
func NewMono32(maxLength int, latency LatencyMode) (*Mono32, error) {
	return NewMonoT[float32, float32](maxLength, latency)
}

// NewMonoSizesT creates a mono convolver from an explicit ladder of one to
// four FFT sizes, each a power of two in [32, 2^20] and strictly
// increasing. With zeroLatency a time-domain head covers the first half of
// the smallest size.
func NewMonoSizesT[T, IO algofft.Float](maxLength int, zeroLatency bool, sizes ...int) (*MonoT[T, IO], error) {
	m := &MonoT[T, IO]{resetOffset: -1}

	if err := m.setPartitions(maxLength, zeroLatency, sizes...); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MonoT[T, IO]) setPartitions(maxLength int, zeroLatency bool, sizes ...int) error {
	if len(sizes) == 0 || len(sizes) > 4 {
		return fmt.Errorf("%w: need one to four FFT sizes, got %d", ErrFFTSizeOutOfRange, len(sizes))
	}

	prev := 0
	for _, size := range sizes {
		if size < 1<<fixedMinFFTSizeLog2 || size > 1<<fixedMaxFFTSizeLog2 || size <= prev {
			return fmt.Errorf("%w: size ladder %v", ErrFFTSizeOutOfRange, sizes)
		}
		if !isPow2(size) {
			return fmt.Errorf("%w: %d", ErrFFTSizeNotPow2, size)
		}
		prev = size
	}

	m.sizes = append([]int(nil), sizes...)
	ns := len(sizes)

	offset := 0
	if zeroLatency {
		offset = sizes[0] >> 1
	}
	finalSize := sizes[ns-1]

	createPart := func(size, next int) (*PartitionedT[T, IO], error) {
		capacity := (next - size) >> 1
		p, err := NewPartitionedT[T, IO](size, capacity, offset, capacity)
		if err != nil {
			return nil, err
		}
		offset += capacity
		return p, nil
	}

	var err error
	if zeroLatency {
		if m.time, err = NewTimeDomainT[T, IO](0, sizes[0]>>1); err != nil {
			return err
		}
	}
	if ns == 4 {
		if m.part1, err = createPart(sizes[0], sizes[1]); err != nil {
			return err
		}
	}
	if ns > 2 {
		if m.part2, err = createPart(sizes[ns-3], sizes[ns-2]); err != nil {
			return err
		}
	}
	if ns > 1 {
		if m.part3, err = createPart(sizes[ns-2], sizes[ns-1]); err != nil {
			return err
		}
	}

	// The resizable stage covers from the fixed stages' coverage up to
	// the requested maximum; its allocator is replayed on every resize.
	finalOffset := offset
	m.allocator = func(size int) *PartitionedT[T, IO] {
		p, allocErr := NewPartitionedT[T, IO](finalSize, max(size, finalSize)-finalOffset, finalOffset, 0)
		if allocErr != nil {
			return nil
		}
		return p
	}

	m.part4 = memswap.New(m.allocator, partitionedFree[T, IO], maxLength)

	h := m.part4.Access()
	m.setResetOffsetLocked(&h, -1)
	h.Release()

	return nil
}

// SetResetOffset pins the FFT-boundary phase of every partitioned stage.
// A negative offset draws a fresh random phase, the default, so FFT load
// spikes of concurrent convolvers spread out in time.
func (m *MonoT[T, IO]) SetResetOffset(offset int) {
	h := m.part4.Access()
	m.setResetOffsetLocked(&h, offset)
	h.Release()
}

func (m *MonoT[T, IO]) setResetOffsetLocked(part4 *memswap.Ptr[PartitionedT[T, IO]], offset int) {
	ns := len(m.sizes)

	if offset < 0 {
		offset = rand.IntN(m.sizes[ns-1] >> 1)
	}

	// Stagger the stages so their FFT boundaries interleave.
	if m.part1 != nil {
		m.part1.SetResetOffset(offset + m.sizes[ns-3]>>3)
	}
	if m.part2 != nil {
		m.part2.SetResetOffset(offset + m.sizes[ns-2]>>3)
	}
	if m.part3 != nil {
		m.part3.SetResetOffset(offset + m.sizes[ns-1]>>3)
	}
	if p := part4.Get(); p != nil {
		p.SetResetOffset(offset)
	}

	m.resetOffset = offset
}

// Resize reallocates the resizable stage for impulses up to length
// samples. The impulse is dropped; the audio path emits silence until the
// next Set. Not safe to call from the audio thread.
func (m *MonoT[T, IO]) Resize(length int) error {
	m.length.Store(0)

	h := m.part4.Equal(m.allocator, partitionedFree[T, IO], length)
	defer h.Release()

	if p := h.Get(); p != nil {
		p.SetResetOffset(m.resetOffset)
	}

	if h.Size() != length {
		return fmt.Errorf("%w: resize to %d samples", ErrMemoryUnavailable, length)
	}
	return nil
}

// Set installs a new impulse across every stage, resizing the largest
// stage first when requestResize is set. A nil input clears the convolver.
func (m *MonoT[T, IO]) Set(input []T, length int, requestResize bool) error {
	// Gate the audio path before touching any stage.
	m.length.Store(0)

	var h memswap.Ptr[PartitionedT[T, IO]]
	if requestResize {
		h = m.part4.Equal(m.allocator, partitionedFree[T, IO], length)
	} else {
		h = m.part4.Access()
	}
	defer h.Release()

	if p := h.Get(); p != nil {
		if m.time != nil {
			_ = m.time.Set(input, length)
		}
		if m.part1 != nil {
			_ = m.part1.Set(input, length)
		}
		if m.part2 != nil {
			_ = m.part2.Set(input, length)
		}
		if m.part3 != nil {
			_ = m.part3.Set(input, length)
		}
		_ = p.Set(input, length)

		p.SetResetOffset(m.resetOffset)
		m.length.Store(int64(length))
		_ = m.Reset()
	}

	if length > 0 && h.Get() == nil {
		return fmt.Errorf("%w: no resizable partition", ErrMemoryUnavailable)
	}
	if length > h.Size() {
		return fmt.Errorf("%w: %d > %d", ErrMemoryAllocTooSmall, length, h.Size())
	}
	return nil
}

// Reset arms a one-shot reset of every stage, applied by the next Process
// call.
func (m *MonoT[T, IO]) Reset() error {
	m.reset.Store(true)
	return nil
}

// Process convolves len(in) samples into out. The first stage initializes
// out unless accumulate is set; later stages accumulate. When the
// resizable stage is locked by the control thread, or no impulse is
// published, the call is silent.
func (m *MonoT[T, IO]) Process(in, out []IO, accumulate bool) {
	h := m.part4.Attempt()

	length := int(m.length.Load())

	if length != 0 && length <= h.Size() {
		if m.reset.CompareAndSwap(true, false) {
			if m.time != nil {
				m.time.Reset()
			}
			if m.part1 != nil {
				m.part1.Reset()
			}
			if m.part2 != nil {
				m.part2.Reset()
			}
			if m.part3 != nil {
				m.part3.Reset()
			}
			if p := h.Get(); p != nil {
				p.Reset()
			}
		}

		acc := accumulate
		if m.time != nil {
			m.time.Process(in, out, acc)
			acc = true
		}
		if m.part1 != nil {
			m.part1.Process(in, out, acc)
			acc = true
		}
		if m.part2 != nil {
			m.part2.Process(in, out, acc)
			acc = true
		}
		if m.part3 != nil {
			m.part3.Process(in, out, acc)
			acc = true
		}
		if p := h.Get(); p != nil {
			p.Process(in, out, acc)
		}
	} else if !accumulate {
		zeroSamples(out[:len(in)])
	}

	h.Release()
}

// Latency returns the output delay in samples: zero with a time-domain
// head, otherwise half the smallest FFT size.
func (m *MonoT[T, IO]) Latency() int {
	if m.time != nil {
		return 0
	}
	return m.sizes[0] >> 1
}

// MaxLength returns the current capacity of the resizable stage.
func (m *MonoT[T, IO]) MaxLength() int {
	h := m.part4.Access()
	defer h.Release()
	return h.Size()
}

func partitionedFree[T, IO algofft.Float](*PartitionedT[T, IO]) {}

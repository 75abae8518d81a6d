// Package fft implements an in-place split-complex Fast Fourier Transform
// for power-of-two sizes, generic over float32/float64.
//
// Complex data is stored as two parallel real slices (a [Split]) rather
// than interleaved, which keeps the butterfly loops free of shuffles. Real
// transforms operate on the packed half-length layout with the Nyquist bin
// stored in Im[0], compatible with the vDSP zrip convention, and share the
// vDSP scaling: FFT and RFFT are unscaled (RFFT carries a factor of two),
// the inverse transforms are unscaled, so IFFT(FFT(x)) = N*x and
// RIFFT(RFFT(x)) = 2N*x.
//
// Twiddle factors live in an immutable [Setup], shared and safe for
// concurrent use. Transforms whose size exceeds the setup are silent
// no-ops; sizes below the general machinery are computed by unrolled
// special cases.
package fft

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// MaxLog2 is the largest supported transform size exponent.
const MaxLog2 = 24

// minTableLog2 is the smallest pass driven from the twiddle tables.
const minTableLog2 = 3

// ErrMaxLog2OutOfRange is returned by NewSetup for an unusable size bound.
var ErrMaxLog2OutOfRange = errors.New("fft: max log2 out of range")

// Split is complex data split across two parallel real slices.
type Split[T algofft.Float] struct {
	Re []T
	Im []T
}

// NewSplit allocates a zeroed split buffer of n bins.
func NewSplit[T algofft.Float](n int) Split[T] {
	return Split[T]{Re: make([]T, n), Im: make([]T, n)}
}

// Sub returns the view covering bins [offset, offset+length).
func (s Split[T]) Sub(offset, length int) Split[T] {
	return Split[T]{Re: s.Re[offset : offset+length], Im: s.Im[offset : offset+length]}
}

type twiddle[T algofft.Float] struct {
	re []T
	im []T
}

// Setup holds the twiddle tables for transforms up to a maximum size.
// Immutable after construction and safe for concurrent use.
type Setup[T algofft.Float] struct {
	maxLog2 int
	tables  []twiddle[T]
}

// NewSetup creates a setup for transforms of up to 2^maxLog2 points.
func NewSetup[T algofft.Float](maxLog2 int) (*Setup[T], error) {
	if maxLog2 < 0 || maxLog2 > MaxLog2 {
		return nil, fmt.Errorf("%w: %d", ErrMaxLog2OutOfRange, maxLog2)
	}

	s := &Setup[T]{
		maxLog2: maxLog2,
		tables:  make([]twiddle[T], maxLog2+1),
	}

	// One table per size 2^m holding W^j = e^(-2*pi*i*j/2^m) for the
	// first half-circle. The table for a given size serves both the
	// complex butterfly pass of that size and the real-transform
	// combine pass of the same overall length.
	for m := minTableLog2; m <= maxLog2; m++ {
		half := 1 << (m - 1)
		tw := twiddle[T]{re: make([]T, half), im: make([]T, half)}
		for j := 0; j < half; j++ {
			phase := -2 * math.Pi * float64(j) / float64(int(1)<<m)
			tw.re[j] = T(math.Cos(phase))
			tw.im[j] = T(math.Sin(phase))
		}
		s.tables[m] = tw
	}

	return s, nil
}

// MaxLog2 returns the size bound the setup was created with.
func (s *Setup[T]) MaxLog2() int { return s.maxLog2 }

// FFT performs an unscaled in-place complex transform of 2^log2n points.
func FFT[T algofft.Float](setup *Setup[T], x Split[T], log2n int) {
	if log2n < 0 || log2n > setup.maxLog2 {
		return
	}
	transform(setup, x.Re, x.Im, log2n, false)
}

// IFFT performs an unscaled in-place inverse complex transform; the caller
// owns the 1/N normalization.
func IFFT[T algofft.Float](setup *Setup[T], x Split[T], log2n int) {
	if log2n < 0 || log2n > setup.maxLog2 {
		return
	}
	transform(setup, x.Re, x.Im, log2n, true)
}

func transform[T algofft.Float](setup *Setup[T], re, im []T, log2n int, inverse bool) {
	switch log2n {
	case 0:
		return
	case 1:
		butterfly2(re, im)
		return
	case 2:
		re[1], re[2] = re[2], re[1]
		im[1], im[2] = im[2], im[1]
		butterfly4(re, im, 0, inverse)
		return
	}

	n := 1 << log2n

	bitReverse(re, im, log2n)

	// Passes one and two fused over the digit-reversed quads.
	for base := 0; base < n; base += 4 {
		butterfly4(re, im, base, inverse)
	}

	// Pass three with its twiddles held in registers.
	for base := 0; base < n; base += 8 {
		butterfly8(re, im, base, inverse)
	}

	// Remaining passes read the setup tables.
	for m := minTableLog2 + 1; m <= log2n; m++ {
		passTable(re, im, n, m, setup.tables[m], inverse)
	}
}

func butterfly2[T algofft.Float](re, im []T) {
	r0, r1 := re[0], re[1]
	i0, i1 := im[0], im[1]
	re[0], re[1] = r0+r1, r0-r1
	im[0], im[1] = i0+i1, i0-i1
}

// butterfly4 fuses the first two radix-2 passes over one quad.
func butterfly4[T algofft.Float](re, im []T, base int, inverse bool) {
	r0, r1, r2, r3 := re[base], re[base+1], re[base+2], re[base+3]
	i0, i1, i2, i3 := im[base], im[base+1], im[base+2], im[base+3]

	ar, ai := r0+r1, i0+i1
	br, bi := r0-r1, i0-i1
	cr, ci := r2+r3, i2+i3
	dr, di := r2-r3, i2-i3

	// Twiddle for the odd pair is -i (forward) or +i (inverse).
	var tr, ti T
	if inverse {
		tr, ti = -di, dr
	} else {
		tr, ti = di, -dr
	}

	re[base], im[base] = ar+cr, ai+ci
	re[base+2], im[base+2] = ar-cr, ai-ci
	re[base+1], im[base+1] = br+tr, bi+ti
	re[base+3], im[base+3] = br-tr, bi-ti
}

// butterfly8 is the size-8 pass with hard-coded twiddles
// {1, sqrt2/2*(1-i), -i, -sqrt2/2*(1+i)}.
func butterfly8[T algofft.Float](re, im []T, base int, inverse bool) {
	const root2over2 = 0.70710678118654752440084436210485

	sign := T(1)
	if inverse {
		sign = -1
	}

	// j = 0: unit twiddle.
	{
		i0, i1 := base, base+4
		tr, ti := re[i1], im[i1]
		re[i1], im[i1] = re[i0]-tr, im[i0]-ti
		re[i0], im[i0] = re[i0]+tr, im[i0]+ti
	}
	// j = 1: (sqrt2/2)*(1 -/+ i).
	{
		i0, i1 := base+1, base+5
		wr, wi := T(root2over2), -sign*T(root2over2)
		tr := re[i1]*wr - im[i1]*wi
		ti := re[i1]*wi + im[i1]*wr
		re[i1], im[i1] = re[i0]-tr, im[i0]-ti
		re[i0], im[i0] = re[i0]+tr, im[i0]+ti
	}
	// j = 2: -/+ i.
	{
		i0, i1 := base+2, base+6
		tr, ti := sign*im[i1], -sign*re[i1]
		re[i1], im[i1] = re[i0]-tr, im[i0]-ti
		re[i0], im[i0] = re[i0]+tr, im[i0]+ti
	}
	// j = 3: (sqrt2/2)*(-1 -/+ i).
	{
		i0, i1 := base+3, base+7
		wr, wi := T(-root2over2), -sign*T(root2over2)
		tr := re[i1]*wr - im[i1]*wi
		ti := re[i1]*wi + im[i1]*wr
		re[i1], im[i1] = re[i0]-tr, im[i0]-ti
		re[i0], im[i0] = re[i0]+tr, im[i0]+ti
	}
}

func passTable[T algofft.Float](re, im []T, n, m int, tw twiddle[T], inverse bool) {
	size := 1 << m
	half := size >> 1

	sign := T(1)
	if inverse {
		sign = -1
	}

	for base := 0; base < n; base += size {
		for j := 0; j < half; j++ {
			wr := tw.re[j]
			wi := sign * tw.im[j]

			i0 := base + j
			i1 := i0 + half

			tr := re[i1]*wr - im[i1]*wi
			ti := re[i1]*wi + im[i1]*wr
			re[i1], im[i1] = re[i0]-tr, im[i0]-ti
			re[i0], im[i0] = re[i0]+tr, im[i0]+ti
		}
	}
}

func bitReverse[T algofft.Float](re, im []T, log2n int) {
	n := 1 << log2n
	shift := 64 - log2n

	for i := 0; i < n; i++ {
		j := int(bits.Reverse64(uint64(i)) >> shift)
		if j > i {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}
}

// Package ir provides buffer-level impulse response utilities: fades,
// silence trimming, normalization, and magnitude spectra. These run on the
// control side when preparing an impulse for a convolver; nothing here is
// real-time safe.
package ir

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-convolve/dsp/fft"
)

// FadeShape selects the fade envelope.
type FadeShape int

const (
	// FadeLinear ramps amplitude linearly.
	FadeLinear FadeShape = iota

	// FadeCosine ramps along a raised-cosine, flat at both ends.
	FadeCosine
)

// FadeIn applies an onset envelope over the first samples of buf in place.
// Longer fades than the buffer clamp to its length.
func FadeIn(buf []float64, samples int, shape FadeShape) {
	samples = min(samples, len(buf))
	if samples <= 0 {
		return
	}

	env := envelope(samples, shape, false)
	vecmath.MulBlockInPlace(buf[:samples], env)
}

// FadeOut applies a decay envelope over the last samples of buf in place.
func FadeOut(buf []float64, samples int, shape FadeShape) {
	samples = min(samples, len(buf))
	if samples <= 0 {
		return
	}

	env := envelope(samples, shape, true)
	vecmath.MulBlockInPlace(buf[len(buf)-samples:], env)
}

func envelope(samples int, shape FadeShape, decay bool) []float64 {
	env := make([]float64, samples)
	for i := range env {
		x := float64(i) / float64(samples)
		if decay {
			x = 1 - x
		}
		switch shape {
		case FadeCosine:
			env[i] = 0.5 - 0.5*math.Cos(math.Pi*x)
		default:
			env[i] = x
		}
	}
	return env
}

// Trim returns the subslice of buf with leading and trailing samples
// below threshold (absolute value) removed. An all-quiet buffer trims to
// an empty slice.
func Trim(buf []float64, threshold float64) []float64 {
	start := 0
	for start < len(buf) && math.Abs(buf[start]) < threshold {
		start++
	}

	end := len(buf)
	for end > start && math.Abs(buf[end-1]) < threshold {
		end--
	}

	return buf[start:end]
}

// NormalizePeak scales buf in place so its absolute peak is one and
// returns the gain applied. A silent buffer is left untouched with unit
// gain.
func NormalizePeak(buf []float64) float64 {
	peak := 0.0
	for _, v := range buf {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return 1
	}

	gain := 1 / peak
	scaleInPlace(buf, gain)
	return gain
}

// NormalizeEnergy scales buf in place to unit energy (sum of squares) and
// returns the gain applied.
func NormalizeEnergy(buf []float64) float64 {
	energy := 0.0
	for _, v := range buf {
		energy += v * v
	}
	if energy == 0 {
		return 1
	}

	gain := 1 / math.Sqrt(energy)
	scaleInPlace(buf, gain)
	return gain
}

func scaleInPlace(buf []float64, gain float64) {
	for i := range buf {
		buf[i] *= gain
	}
}

// Magnitude returns the magnitude spectrum of buf: N/2+1 bins where N is
// the smallest power of two holding the buffer (at least two).
func Magnitude(buf []float64) ([]float64, error) {
	log2n := 1
	for 1<<log2n < len(buf) {
		log2n++
	}
	n := 1 << log2n
	m := n / 2

	setup, err := fft.NewSetup[float64](log2n)
	if err != nil {
		return nil, err
	}

	split := fft.NewSplit[float64](m)
	fft.UnzipZero(buf, split, len(buf), log2n)
	fft.RFFT(setup, split, log2n)

	// The packed spectrum carries a factor of two and the Nyquist bin
	// in Im[0]; unpack into plain magnitudes.
	dc := split.Re[0]
	nyquist := split.Im[0]
	split.Re[0] = 0
	split.Im[0] = 0

	out := make([]float64, m+1)
	vecmath.Magnitude(out[:m], split.Re, split.Im)
	out[0] = math.Abs(dc)
	out[m] = math.Abs(nyquist)

	for i := range out {
		out[i] *= 0.5
	}

	return out, nil
}

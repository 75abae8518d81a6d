package conv

import (
	algofft "github.com/MeKo-Christian/algo-fft"
)

// copySamples converts src into dst element-wise. Lengths must match.
func copySamples[Dst, Src algofft.Float](dst []Dst, src []Src) {
	for i, v := range src {
		dst[i] = Dst(v)
	}
}

// addSamples accumulates src into dst element-wise. Lengths must match.
func addSamples[Dst, Src algofft.Float](dst []Dst, src []Src) {
	for i, v := range src {
		dst[i] += Dst(v)
	}
}

// zeroSamples writes silence.
func zeroSamples[F algofft.Float](dst []F) {
	clear(dst)
}

// ilog2 returns ceil(log2(x)) for x >= 1: the exponent of the smallest
// power of two >= x.
func ilog2(x int) int {
	count := 0
	for x>>count != 0 {
		count++
	}
	if x == 1<<(count-1) {
		return count - 1
	}
	return count
}

// isPow2 reports whether x is a power of two.
func isPow2(x int) bool {
	return x > 0 && x&(x-1) == 0
}

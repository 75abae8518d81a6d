package vecmath

import "github.com/cwbudde/algo-convolve/internal/cpu"

// Unrolled kernels: four independent accumulator chains so the loop body
// issues without a dependency on the previous iteration. The convolution
// engines size and align their buffers to multiples of four, so the tail
// loops below rarely run on the hot path.

const unrollWidth = 4

func dotProductUnrolled[F Float](a, b []F) F {
	n := min(len(a), len(b))

	var s0, s1, s2, s3 F
	i := 0
	for ; i+unrollWidth <= n; i += unrollWidth {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	for ; i < n; i++ {
		s0 += a[i] * b[i]
	}
	return (s0 + s1) + (s2 + s3)
}

func scaleBlockUnrolled[F Float](dst, src []F, s F) {
	n := min(len(dst), len(src))

	i := 0
	for ; i+unrollWidth <= n; i += unrollWidth {
		dst[i] = src[i] * s
		dst[i+1] = src[i+1] * s
		dst[i+2] = src[i+2] * s
		dst[i+3] = src[i+3] * s
	}
	for ; i < n; i++ {
		dst[i] = src[i] * s
	}
}

func addBlockInPlaceUnrolled[F Float](dst, src []F) {
	n := min(len(dst), len(src))

	i := 0
	for ; i+unrollWidth <= n; i += unrollWidth {
		dst[i] += src[i]
		dst[i+1] += src[i+1]
		dst[i+2] += src[i+2]
		dst[i+3] += src[i+3]
	}
	for ; i < n; i++ {
		dst[i] += src[i]
	}
}

func complexMulAddUnrolled[F Float](accRe, accIm, aRe, aIm, bRe, bIm []F) {
	n := len(accRe)

	i := 0
	for ; i+unrollWidth <= n; i += unrollWidth {
		ar0, ai0, br0, bi0 := aRe[i], aIm[i], bRe[i], bIm[i]
		ar1, ai1, br1, bi1 := aRe[i+1], aIm[i+1], bRe[i+1], bIm[i+1]
		ar2, ai2, br2, bi2 := aRe[i+2], aIm[i+2], bRe[i+2], bIm[i+2]
		ar3, ai3, br3, bi3 := aRe[i+3], aIm[i+3], bRe[i+3], bIm[i+3]

		accRe[i] += ar0*br0 - ai0*bi0
		accIm[i] += ar0*bi0 + ai0*br0
		accRe[i+1] += ar1*br1 - ai1*bi1
		accIm[i+1] += ar1*bi1 + ai1*br1
		accRe[i+2] += ar2*br2 - ai2*bi2
		accIm[i+2] += ar2*bi2 + ai2*br2
		accRe[i+3] += ar3*br3 - ai3*bi3
		accIm[i+3] += ar3*bi3 + ai3*br3
	}
	for ; i < n; i++ {
		accRe[i] += aRe[i]*bRe[i] - aIm[i]*bIm[i]
		accIm[i] += aRe[i]*bIm[i] + aIm[i]*bRe[i]
	}
}

func unrolledKernels[F Float]() *Kernels[F] {
	return &Kernels[F]{
		Name:            "unroll4",
		Level:           cpu.SIMDNone,
		Priority:        10,
		DotProduct:      dotProductUnrolled[F],
		ScaleBlock:      scaleBlockUnrolled[F],
		AddBlockInPlace: addBlockInPlaceUnrolled[F],
		ComplexMulAdd:   complexMulAddUnrolled[F],
	}
}

func init() {
	registry64.register(unrolledKernels[float64]())
	registry32.register(unrolledKernels[float32]())
}

package vecmath

import "github.com/cwbudde/algo-convolve/internal/cpu"

// Scalar reference kernels. Always registered; selected when the unrolled
// variants are disabled via cpu.Features.ForceGeneric.

func dotProductScalar[F Float](a, b []F) F {
	n := min(len(a), len(b))

	var sum F
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func scaleBlockScalar[F Float](dst, src []F, s F) {
	for i := range src {
		dst[i] = src[i] * s
	}
}

func addBlockInPlaceScalar[F Float](dst, src []F) {
	for i := range src {
		dst[i] += src[i]
	}
}

func complexMulAddScalar[F Float](accRe, accIm, aRe, aIm, bRe, bIm []F) {
	for i := range accRe {
		accRe[i] += aRe[i]*bRe[i] - aIm[i]*bIm[i]
		accIm[i] += aRe[i]*bIm[i] + aIm[i]*bRe[i]
	}
}

func scalarKernels[F Float]() *Kernels[F] {
	return &Kernels[F]{
		Name:            "scalar",
		Level:           cpu.SIMDNone,
		Priority:        0,
		DotProduct:      dotProductScalar[F],
		ScaleBlock:      scaleBlockScalar[F],
		AddBlockInPlace: addBlockInPlaceScalar[F],
		ComplexMulAdd:   complexMulAddScalar[F],
	}
}

func init() {
	registry64.register(scalarKernels[float64]())
	registry32.register(scalarKernels[float32]())
}

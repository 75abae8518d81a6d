// Package vecmath provides the math kernels used on the convolution hot
// paths: dot products for the time-domain engine, split-complex
// multiply-accumulates for the partitioned engine, and block scale/add
// operations.
//
// Kernel variants register themselves per precision with a small registry;
// the best variant compatible with the detected CPU is selected once, on
// first use. All kernels are generic over float32/float64 so both engine
// precisions share one implementation.
package vecmath

import (
	"sort"
	"sync"

	"github.com/cwbudde/algo-convolve/internal/cpu"
)

// Float constrains the sample types the kernels operate on.
type Float interface {
	~float32 | ~float64
}

// Kernels is one registered set of kernel implementations for precision F.
//
// DotProduct returns sum(a[i] * b[i]) over the shorter of the two slices.
//
// ScaleBlock computes dst[i] = src[i] * s.
//
// AddBlockInPlace computes dst[i] += src[i].
//
// ComplexMulAdd performs a split-complex multiply-accumulate over equal
// length bins: accRe[i] += aRe[i]*bRe[i] - aIm[i]*bIm[i] and
// accIm[i] += aRe[i]*bIm[i] + aIm[i]*bRe[i].
type Kernels[F Float] struct {
	Name     string
	Level    cpu.SIMDLevel
	Priority int

	DotProduct      func(a, b []F) F
	ScaleBlock      func(dst, src []F, s F)
	AddBlockInPlace func(dst, src []F)
	ComplexMulAdd   func(accRe, accIm, aRe, aIm, bRe, bIm []F)
}

type registry[F Float] struct {
	mu      sync.Mutex
	entries []*Kernels[F]

	selectOnce sync.Once
	selected   *Kernels[F]
}

// register runs from init functions only, strictly before the first
// lookup selects an entry.
func (r *registry[F]) register(k *Kernels[F]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, k)
}

func (r *registry[F]) lookup() *Kernels[F] {
	r.selectOnce.Do(func() {
		features := cpu.DetectFeatures()

		r.mu.Lock()
		defer r.mu.Unlock()

		sort.SliceStable(r.entries, func(i, j int) bool {
			return r.entries[i].Priority > r.entries[j].Priority
		})
		for _, e := range r.entries {
			if features.ForceGeneric && e.Priority > 0 {
				continue
			}
			if cpu.Supports(features, e.Level) {
				r.selected = e
				return
			}
		}
	})
	if r.selected == nil {
		panic("vecmath: no compatible kernel set registered")
	}
	return r.selected
}

var (
	registry64 registry[float64]
	registry32 registry[float32]
)

// For returns the kernel set selected for precision F on this CPU.
// Engines fetch the set once at construction and call through the
// function fields directly.
func For[F Float]() *Kernels[F] {
	var zero F
	switch any(zero).(type) {
	case float64:
		return any(registry64.lookup()).(*Kernels[F])
	default:
		return any(registry32.lookup()).(*Kernels[F])
	}
}

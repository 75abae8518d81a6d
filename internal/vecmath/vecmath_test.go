package vecmath

import (
	"math"
	"math/rand"
	"testing"
)

func randomSlice(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

func TestDotProductMatchesScalar(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, n := range []int{0, 1, 3, 4, 7, 16, 63, 256, 1023} {
		a := randomSlice(rng, n)
		b := randomSlice(rng, n)

		want := dotProductScalar(a, b)
		got := dotProductUnrolled(a, b)

		if math.Abs(got-want) > 1e-12*float64(n+1) {
			t.Errorf("n=%d: got %v, want %v", n, got, want)
		}
	}
}

func TestScaleBlockMatchesScalar(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	for _, n := range []int{1, 5, 64, 250} {
		src := randomSlice(rng, n)
		want := make([]float64, n)
		got := make([]float64, n)

		scaleBlockScalar(want, src, 0.25)
		scaleBlockUnrolled(got, src, 0.25)

		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("n=%d index %d: got %v, want %v", n, i, got[i], want[i])
			}
		}
	}
}

func TestAddBlockInPlaceMatchesScalar(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for _, n := range []int{1, 6, 128, 129} {
		src := randomSlice(rng, n)
		want := randomSlice(rng, n)
		got := append([]float64(nil), want...)

		addBlockInPlaceScalar(want, src)
		addBlockInPlaceUnrolled(got, src)

		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("n=%d index %d: got %v, want %v", n, i, got[i], want[i])
			}
		}
	}
}

func TestComplexMulAddMatchesScalar(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	for _, n := range []int{1, 4, 17, 128} {
		aRe, aIm := randomSlice(rng, n), randomSlice(rng, n)
		bRe, bIm := randomSlice(rng, n), randomSlice(rng, n)

		wantRe, wantIm := randomSlice(rng, n), randomSlice(rng, n)
		gotRe := append([]float64(nil), wantRe...)
		gotIm := append([]float64(nil), wantIm...)

		complexMulAddScalar(wantRe, wantIm, aRe, aIm, bRe, bIm)
		complexMulAddUnrolled(gotRe, gotIm, aRe, aIm, bRe, bIm)

		for i := range wantRe {
			if math.Abs(gotRe[i]-wantRe[i]) > 1e-15 || math.Abs(gotIm[i]-wantIm[i]) > 1e-15 {
				t.Fatalf("n=%d index %d: got (%v,%v), want (%v,%v)",
					n, i, gotRe[i], gotIm[i], wantRe[i], wantIm[i])
			}
		}
	}
}

func TestForSelectsUnrolledByDefault(t *testing.T) {
	k := For[float64]()
	if k.Name != "unroll4" {
		t.Errorf("selected %q, want unroll4", k.Name)
	}

	k32 := For[float32]()
	if k32.Name != "unroll4" {
		t.Errorf("selected %q, want unroll4 (float32)", k32.Name)
	}
}

func BenchmarkDotProduct1024(b *testing.B) {
	rng := rand.New(rand.NewSource(5))
	x := randomSlice(rng, 1024)
	y := randomSlice(rng, 1024)
	k := For[float64]()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = k.DotProduct(x, y)
	}
}

func BenchmarkComplexMulAdd512(b *testing.B) {
	rng := rand.New(rand.NewSource(6))
	aRe, aIm := randomSlice(rng, 512), randomSlice(rng, 512)
	bRe, bIm := randomSlice(rng, 512), randomSlice(rng, 512)
	accRe, accIm := make([]float64, 512), make([]float64, 512)
	k := For[float64]()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k.ComplexMulAdd(accRe, accIm, aRe, aIm, bRe, bIm)
	}
}

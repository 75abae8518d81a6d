package conv

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cwbudde/algo-convolve/internal/testutil"
)

func processAll(t *testing.T, process func(in, out []float64, accumulate bool), input []float64, blockSize int) []float64 {
	t.Helper()

	out := make([]float64, len(input))
	for pos := 0; pos < len(input); pos += blockSize {
		end := min(pos+blockSize, len(input))
		process(input[pos:end], out[pos:end], false)
	}
	return out
}

func TestTimeDomainBoxcar(t *testing.T) {
	c, err := NewTimeDomain(0, 0)
	require.NoError(t, err)

	// Sixteen ones against a unit impulse: sixteen ones out, then zeros.
	require.NoError(t, c.Set(testutil.Ones(16), 16))

	input := testutil.Impulse(64, 0)
	out := make([]float64, 64)
	c.Process(input, out, false)

	want := make([]float64, 64)
	copy(want, testutil.Ones(16))
	testutil.RequireSliceNearlyEqual(t, out, want, 1e-12)
}

func TestTimeDomainMatchesDirect(t *testing.T) {
	for _, irLen := range []int{1, 3, 16, 100, 515, 2044} {
		h := testutil.DeterministicNoise(int64(irLen), 1, irLen)
		x := testutil.DeterministicNoise(77, 1, 1000)

		c, err := NewTimeDomain(0, 0)
		require.NoError(t, err)
		require.NoError(t, c.Set(h, irLen))

		out := make([]float64, len(x))
		c.Process(x, out, false)

		want := testutil.DirectConvolve(x, h)[:len(x)]
		testutil.RequireSliceNearlyEqual(t, out, want, 1e-10*float64(irLen))
	}
}

// TestTimeDomainBlockInvariance verifies that splitting the input into
// arbitrary blocks does not change the output.
func TestTimeDomainBlockInvariance(t *testing.T) {
	h := testutil.DeterministicNoise(5, 1, 300)
	x := testutil.DeterministicNoise(6, 1, 2000)

	reference, err := NewTimeDomain(0, 0)
	require.NoError(t, err)
	require.NoError(t, reference.Set(h, len(h)))
	want := make([]float64, len(x))
	reference.Process(x, want, false)

	for _, blockSize := range []int{1, 7, 64, 128, 333, 2000} {
		c, err := NewTimeDomain(0, 0)
		require.NoError(t, err)
		require.NoError(t, c.Set(h, len(h)))

		got := processAll(t, c.Process, x, blockSize)
		testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
	}
}

func TestTimeDomainOffsetAndLength(t *testing.T) {
	// Offset 2, length 3 exposes h[2:5] only.
	h := []float64{9, 9, 1, 2, 3, 9, 9}

	c, err := NewTimeDomain(2, 3)
	require.NoError(t, err)
	require.NoError(t, c.Set(h, len(h)))

	x := testutil.Impulse(16, 0)
	out := make([]float64, 16)
	c.Process(x, out, false)

	want := make([]float64, 16)
	copy(want, []float64{1, 2, 3})
	testutil.RequireSliceNearlyEqual(t, out, want, 1e-12)
}

func TestTimeDomainAccumulate(t *testing.T) {
	h := []float64{1, 1}

	c, err := NewTimeDomain(0, 0)
	require.NoError(t, err)
	require.NoError(t, c.Set(h, len(h)))

	x := testutil.Impulse(8, 0)
	out := testutil.Ones(8)
	c.Process(x, out, true)

	want := []float64{2, 2, 1, 1, 1, 1, 1, 1}
	testutil.RequireSliceNearlyEqual(t, out, want, 1e-12)
}

func TestTimeDomainLengthErrors(t *testing.T) {
	_, err := NewTimeDomain(0, 4096)
	require.ErrorIs(t, err, ErrTimeLengthOutOfRange)

	c, err := NewTimeDomain(0, 0)
	require.NoError(t, err)

	tooLong := testutil.DeterministicNoise(1, 1, 3000)
	err = c.Set(tooLong, len(tooLong))
	require.ErrorIs(t, err, ErrTimeImpulseTooLong)

	// The clamped impulse still convolves.
	x := testutil.Impulse(8, 0)
	out := make([]float64, 8)
	c.Process(x, out, false)
	testutil.RequireSliceNearlyEqual(t, out, tooLong[:8], 1e-12)
}

func TestTimeDomainClearSilences(t *testing.T) {
	c, err := NewTimeDomain(0, 0)
	require.NoError(t, err)
	require.NoError(t, c.Set(testutil.Ones(8), 8))

	x := testutil.Ones(16)
	out := make([]float64, 16)
	c.Process(x, out, false)

	require.NoError(t, c.Set(nil, 0))
	c.Process(x, out, false)
	testutil.RequireSliceNearlyEqual(t, out, make([]float64, 16), 0)
}

// TestTimeDomainLinearity checks conv(a*h1 + b*h2, x) against the
// combination of the individual outputs.
func TestTimeDomainLinearity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		irLen := rapid.IntRange(1, 64).Draw(rt, "irLen")
		alpha := rapid.Float64Range(-2, 2).Draw(rt, "alpha")
		beta := rapid.Float64Range(-2, 2).Draw(rt, "beta")

		rng := rand.New(rand.NewSource(int64(irLen)))
		h1 := make([]float64, irLen)
		h2 := make([]float64, irLen)
		for i := range h1 {
			h1[i] = rng.Float64()*2 - 1
			h2[i] = rng.Float64()*2 - 1
		}

		combined := make([]float64, irLen)
		for i := range combined {
			combined[i] = alpha*h1[i] + beta*h2[i]
		}

		x := testutil.DeterministicNoise(99, 1, 256)

		run := func(h []float64) []float64 {
			c, err := NewTimeDomain(0, 0)
			if err != nil {
				rt.Fatal(err)
			}
			if err := c.Set(h, len(h)); err != nil {
				rt.Fatal(err)
			}
			out := make([]float64, len(x))
			c.Process(x, out, false)
			return out
		}

		outCombined := run(combined)
		out1 := run(h1)
		out2 := run(h2)

		for i := range outCombined {
			want := alpha*out1[i] + beta*out2[i]
			if diff := outCombined[i] - want; diff > 1e-9 || diff < -1e-9 {
				rt.Fatalf("index %d: got %v, want %v", i, outCombined[i], want)
			}
		}
	})
}

func BenchmarkTimeDomain2048(b *testing.B) {
	h := testutil.DeterministicNoise(1, 1, 2044)
	x := testutil.DeterministicNoise(2, 1, 256)

	c, _ := NewTimeDomain(0, 0)
	_ = c.Set(h, len(h))
	out := make([]float64, len(x))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Process(x, out, false)
	}
}

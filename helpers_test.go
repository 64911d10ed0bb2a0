package chanmix

import (
	"math/rand/v2"
	"testing"
)

// mixersUnderTest returns one Mixer per kernel this CPU can run, keyed by
// kernel name.
func mixersUnderTest(t testing.TB) map[string]*Mixer {
	mixers := make(map[string]*Mixer)
	for _, name := range Kernels() {
		m, err := New(WithKernel(name))
		if err != nil {
			t.Fatalf("Could not create mixer for kernel %s: %v", name, err)
		}
		mixers[name] = m
	}
	if _, ok := mixers["scalar"]; !ok {
		t.Fatal("scalar kernel is not registered")
	}
	return mixers
}

func randomSource(rng *rand.Rand, n int) []int8 {
	src := make([]int8, n)
	for i := range src {
		src[i] = int8(rng.IntN(256) - 128)
	}
	return src
}

func randomOutput(rng *rand.Rand, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		// Bias towards the rails half of the time so saturation gets exercised
		if rng.IntN(2) == 0 {
			out[i] = int16(rng.IntN(65536) - 32768)
		} else if rng.IntN(2) == 0 {
			out[i] = 32767 - int16(rng.IntN(200))
		} else {
			out[i] = -32768 + int16(rng.IntN(200))
		}
	}
	return out
}

func fill16(n int, v int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func fill8(n int, v int8) []int8 {
	src := make([]int8, n)
	for i := range src {
		src[i] = v
	}
	return src
}

//go:build cgo && arm64 && !purego

package neon

import (
	"math/rand/v2"
	"testing"

	"github.com/chriskillpack/chanmix/fixedpoint"
	"github.com/chriskillpack/chanmix/internal/kernel/generic"
	"github.com/google/go-cmp/cmp"
)

func TestMixBlockMatchesScalar(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	for _, n := range []int{0, 8, 24, 512} {
		for trial := 0; trial < 20; trial++ {
			src := make([]int8, n)
			for i := range src {
				src[i] = int8(rng.IntN(256) - 128)
			}
			base := make([]int16, n*2)
			for i := range base {
				base[i] = int16(rng.IntN(65536) - 32768)
			}
			lf := fixedpoint.NewScaleFactor(uint8(rng.IntN(256)))
			rf := fixedpoint.NewScaleFactor(uint8(rng.IntN(256)))

			want := append([]int16(nil), base...)
			got := append([]int16(nil), base...)
			generic.MixBlock(want, src, lf, rf)
			if err := MixBlock(got, src, lf, rf); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("n=%d mismatch (-scalar +neon):\n%s", n, diff)
			}
		}
	}
}

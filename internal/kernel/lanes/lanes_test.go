//go:build !purego

package lanes

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/chriskillpack/chanmix/fixedpoint"
	"github.com/chriskillpack/chanmix/internal/kernel/generic"
	"github.com/chriskillpack/chanmix/internal/kernel/registry"
	"github.com/google/go-cmp/cmp"
)

func TestMixBlockMatchesScalar(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, n := range []int{0, 8, 16, 64, 256} {
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
			if err := generic.MixBlock(want, src, lf, rf); err != nil {
				t.Fatal(err)
			}
			if err := MixBlock(got, src, lf, rf); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("n=%d lf=%d rf=%d mismatch (-scalar +lanes):\n%s", n, lf, rf, diff)
			}
		}
	}
}

func TestMixBlockRejectsPartialVector(t *testing.T) {
	out := make([]int16, 10)
	out[0] = 123
	err := MixBlock(out, make([]int8, 5), fixedpoint.NewScaleFactor(255), fixedpoint.NewScaleFactor(255))
	if !errors.Is(err, registry.ErrUnsupportedWidth) {
		t.Fatalf("Expected ErrUnsupportedWidth, got %v", err)
	}
	if out[0] != 123 {
		t.Error("Output was modified by a rejected call")
	}
}

func TestLaneOps(t *testing.T) {
	data := movl(int8x8{-128, -1, 0, 1, 127, 100, -100, 50})
	if data[0] != -128 || data[4] != 127 {
		t.Errorf("movl did not sign extend: %v", data)
	}

	mixed := shrn(mull(data, dup(fixedpoint.NewScaleFactor(255))))
	want := int16x8{-128, -1, 0, 0, 126, 99, -100, 49}
	if mixed != want {
		t.Errorf("Expected %v, got %v", want, mixed)
	}

	sum := qadd(int16x8{32767, -32768, 1}, int16x8{1, -1, 1})
	if sum[0] != 32767 || sum[1] != -32768 || sum[2] != 2 {
		t.Errorf("qadd did not saturate: %v", sum)
	}
}

func TestQaddMatchesSaturatingAdd(t *testing.T) {
	edges := []int16{-32768, -32767, -16384, -129, -1, 0, 1, 128, 16384, 32766, 32767}
	for _, x := range edges {
		var a, b int16x8
		for i := range a {
			a[i] = x
			b[i] = edges[(i*3)%len(edges)]
		}
		sum := qadd(a, b)
		for i := range sum {
			if want := fixedpoint.SaturatingAdd(a[i], b[i]); sum[i] != want {
				t.Errorf("qadd(%d, %d) = %d, expected %d", a[i], b[i], sum[i], want)
			}
		}
	}
}

func BenchmarkMixBlock(b *testing.B) {
	src := make([]int8, 1024)
	for i := range src {
		src[i] = int8(i)
	}
	out := make([]int16, 2048)
	lf, rf := fixedpoint.NewScaleFactor(200), fixedpoint.NewScaleFactor(60)

	b.SetBytes(int64(len(src)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MixBlock(out, src, lf, rf)
	}
}

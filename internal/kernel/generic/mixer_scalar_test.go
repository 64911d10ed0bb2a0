package generic

import (
	"testing"

	"github.com/chriskillpack/chanmix/fixedpoint"
)

// Every sample value at every volume, on top of outputs near both rails.
func TestMixBlockIsFixedpointMix(t *testing.T) {
	src := make([]int8, 256)
	for i := range src {
		src[i] = int8(i - 128)
	}

	for _, base := range []int16{-32768, -32700, 0, 32700, 32767} {
		for v := 0; v <= 255; v++ {
			lf := fixedpoint.NewScaleFactor(uint8(v))
			rf := fixedpoint.NewScaleFactor(uint8(255 - v))

			out := make([]int16, len(src)*2)
			for i := range out {
				out[i] = base
			}
			if err := MixBlock(out, src, lf, rf); err != nil {
				t.Fatal(err)
			}

			for i, s := range src {
				wantL, wantR := fixedpoint.Mix(base, s, lf), fixedpoint.Mix(base, s, rf)
				if out[i*2] != wantL || out[i*2+1] != wantR {
					t.Fatalf("base %d vol %d sample %d: expected (%d, %d), got (%d, %d)",
						base, v, s, wantL, wantR, out[i*2], out[i*2+1])
				}
			}
		}
	}
}

func TestMixBlockLengthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected a panic for a short output block")
		}
	}()
	MixBlock(make([]int16, 3), make([]int8, 2), 1, 1)
}

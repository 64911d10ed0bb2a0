// Package generic is the scalar mixing kernel. In this context scalar means
// non-SIMD and implemented in Go, one sample at a time.
//
// It is used when the CPU has nothing better, and by every vector kernel for
// the trailing samples that do not fill a whole vector. All other kernels are
// tested against it.
package generic

import (
	"github.com/chriskillpack/chanmix/fixedpoint"
	"github.com/chriskillpack/chanmix/internal/kernel/registry"
	"github.com/chriskillpack/chanmix/stereo"
	"github.com/cwbudde/algo-vecmath/cpu"
)

// Width of the scalar kernel, it accepts any length.
const Width = 1

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:      "scalar",
		SIMDLevel: cpu.SIMDNone,
		Priority:  0,
		Width:     Width,
		MixBlock:  MixBlock,
	})
}

// MixBlock mixes src into the interleaved stereo block out. out must hold
// exactly 2*len(src) samples.
func MixBlock(out []int16, src []int8, lf, rf fixedpoint.ScaleFactor) error {
	if len(out) != len(src)*2 {
		panic("generic: output block does not match source length")
	}

	buf := stereo.Buffer(out)
	for i, s := range src {
		l, r := buf.Frame(i)
		buf.SetFrame(i, fixedpoint.Mix(l, s, lf), fixedpoint.Mix(r, s, rf))
	}
	return nil
}

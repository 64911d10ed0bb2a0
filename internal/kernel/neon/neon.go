//go:build cgo && arm64 && !purego

package neon

// #include "mixer_neon.h"
import "C"

import (
	"unsafe"

	"github.com/chriskillpack/chanmix/fixedpoint"
	"github.com/chriskillpack/chanmix/internal/kernel/registry"
	"github.com/cwbudde/algo-vecmath/cpu"
)

// Width is the number of samples the NEON loop consumes per iteration.
const Width = 8

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:      "neon",
		SIMDLevel: cpu.SIMDNEON,
		Priority:  15,
		Width:     Width,
		MixBlock:  MixBlock,
	})
}

// MixBlock mixes src into the interleaved stereo block out. len(src) must be
// a multiple of Width and out must hold exactly 2*len(src) samples.
func MixBlock(out []int16, src []int8, lf, rf fixedpoint.ScaleFactor) error {
	if len(src)%Width != 0 {
		return registry.ErrUnsupportedWidth
	}
	if len(out) != len(src)*2 {
		panic("neon: output block does not match source length")
	}
	if len(src) == 0 {
		return nil
	}

	C.MixChannels_NEON(
		(*C.int16_t)(unsafe.Pointer(&out[0])),
		(*C.int8_t)(unsafe.Pointer(&src[0])),
		C.int16_t(lf),
		C.int16_t(rf),
		C.int(len(src)),
	)
	return nil
}

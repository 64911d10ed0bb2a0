//go:build !purego

// Package lanes is a portable 8-wide mixing kernel.
//
// It follows the NEON instruction sequence step for step using fixed size
// arrays as registers, so the Go compiler can keep the loop free of bounds
// checks and the structure matches the arm64 kernel. Blocks must be a multiple
// of Width samples long; the mixer hands the remainder to the scalar kernel.
package lanes

import (
	"github.com/chriskillpack/chanmix/fixedpoint"
	"github.com/chriskillpack/chanmix/internal/kernel/registry"
	"github.com/chriskillpack/chanmix/stereo"
	"github.com/cwbudde/algo-vecmath/cpu"
)

// Width is the number of samples processed per step.
const Width = 8

type (
	int8x8  [Width]int8
	int16x8 [Width]int16
	int32x8 [Width]int32 // a pair of int32x4 registers on NEON
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:      "lanes",
		SIMDLevel: cpu.SIMDNone,
		Priority:  5,
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
		panic("lanes: output block does not match source length")
	}

	// The scale factors are broadcast once for the whole block.
	scaleL := dup(lf)
	scaleR := dup(rf)

	buf := stereo.Buffer(out)
	var left, right int16x8
	for i := 0; i < len(src); i += Width {
		data := movl(load(src[i : i+Width]))

		mixedL := shrn(mull(data, scaleL))
		mixedR := shrn(mull(data, scaleR))

		buf.Deinterleave(i, left[:], right[:])
		left = qadd(mixedL, left)
		right = qadd(mixedR, right)
		buf.Interleave(i, left[:], right[:])
	}
	return nil
}

// dup broadcasts a scale factor into every lane (vmovl_u8(vdup_n_u8)).
func dup(f fixedpoint.ScaleFactor) (v int16x8) {
	s := int16(f)
	for i := range v {
		v[i] = s
	}
	return v
}

// load reads Width samples (vld1_s8).
func load(src []int8) (v int8x8) {
	copy(v[:], src[:Width])
	return v
}

// movl sign extends each lane to 16 bits (vmovl_s8).
func movl(v int8x8) (w int16x8) {
	for i := range v {
		w[i] = int16(v[i])
	}
	return w
}

// mull multiplies lane by lane into 32-bit products (vmull_s16 on each half).
func mull(a, b int16x8) (p int32x8) {
	for i := range a {
		p[i] = int32(a[i]) * int32(b[i])
	}
	return p
}

// shrn shifts each product right by the fixed point base and narrows back to
// 16 bits (vshrq_n_s32 then vmovn_s32). The shifted value always fits.
func shrn(p int32x8) (r int16x8) {
	for i := range p {
		r[i] = int16(p[i] >> fixedpoint.Shift)
	}
	return r
}

// qadd is a saturating lane-wise add (vqaddq_s16).
func qadd(a, b int16x8) (r int16x8) {
	for i := range a {
		r[i] = fixedpoint.SaturatingAdd(a[i], b[i])
	}
	return r
}

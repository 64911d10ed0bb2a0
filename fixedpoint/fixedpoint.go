// Package fixedpoint holds the base-256 fixed point arithmetic used by the
// channel mixer. A volume is an unsigned byte v meaning a gain of v/256, so 255
// is just under unity and 0 is silence.
//
// Every kernel in the mixer, scalar or vector, must produce exactly what these
// functions produce.
package fixedpoint

const (
	// Shift is the number of fractional bits in a volume.
	Shift = 8

	// Base is the fixed point denominator, 1<<Shift.
	Base = 1 << Shift
)

// ScaleFactor is a volume widened so it can take part in a signed multiply.
type ScaleFactor int32

// NewScaleFactor widens vol. The conversion is a zero extension, a volume of
// 255 is +255. Treating the byte as signed would turn it into -1 and invert
// the sample.
func NewScaleFactor(vol uint8) ScaleFactor {
	return ScaleFactor(uint32(vol))
}

// Unpack sign extends an 8-bit sample. The value is unchanged.
func Unpack(s int8) int32 {
	return int32(s)
}

// ScaleShift multiplies a widened sample by f and drops the fractional bits.
//
// The multiply happens in 32 bits. The shift is arithmetic, so negative
// products round towards minus infinity (-1*128>>8 == -1), which is what the
// NEON vshr instruction does. For any int8 sample and any ScaleFactor the
// result lies in [-128, 127], so the narrowing conversion never loses bits.
func ScaleShift(s int32, f ScaleFactor) int16 {
	return int16((s * int32(f)) >> Shift)
}

// SaturatingAdd returns a+b clamped to the int16 range. Audio that wraps
// around on overflow produces a loud click, clamping only clips.
func SaturatingAdd(a, b int16) int16 {
	s := int32(a) + int32(b)
	if s > 32767 {
		return 32767
	} else if s < -32768 {
		return -32768
	}
	return int16(s)
}

// AccumulateBlock adds src into dst with saturation. Only the first
// min(len(dst), len(src)) samples are touched.
func AccumulateBlock(dst, src []int16) {
	n := min(len(dst), len(src))
	for i, s := range src[:n] {
		dst[i] = SaturatingAdd(dst[i], s)
	}
}

// Clamp16 narrows a wide accumulator value to int16 with saturation.
func Clamp16(s int) int16 {
	if s > 32767 {
		s = 32767
	} else if s < -32768 {
		s = -32768
	}
	return int16(s)
}

// Mix returns out plus the scaled contribution of s, saturated. It is the
// whole per-sample transform for one output channel.
func Mix(out int16, s int8, f ScaleFactor) int16 {
	return SaturatingAdd(out, ScaleShift(Unpack(s), f))
}

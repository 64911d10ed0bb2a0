package source

import (
	"encoding/binary"
	"math"
)

// pcmVolume is the volume given to decoded PCM samples.
const pcmVolume = 64

// monoFromInts downmixes interleaved integer samples of the given bit depth
// and quantizes them to 8 bits. 8-bit input is expected to be unsigned, as
// stored in WAV files.
func monoFromInts(data []int, channels, bitDepth int, unsigned8 bool) []int8 {
	if channels < 1 {
		return nil
	}
	frames := len(data) / channels
	out := make([]int8, frames)
	shift := bitDepth - 8

	for i := range out {
		sum := 0
		for c := 0; c < channels; c++ {
			s := data[i*channels+c]
			if bitDepth == 8 && unsigned8 {
				s -= 128
			}
			sum += s
		}
		// floor, like the shift below
		avg := floorDiv(sum, channels)
		if shift > 0 {
			avg >>= shift
		} else if shift < 0 {
			avg <<= -shift
		}
		out[i] = clamp8(avg)
	}
	return out
}

// monoFromFloats downmixes interleaved samples in [-1, 1].
func monoFromFloats(data []float32, channels int) []int8 {
	if channels < 1 {
		return nil
	}
	frames := len(data) / channels
	out := make([]int8, frames)

	for i := range out {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(data[i*channels+c])
		}
		out[i] = clamp8(int(math.Floor(sum / float64(channels) * 128)))
	}
	return out
}

// monoFromPCM16 downmixes interleaved little endian 16-bit samples.
func monoFromPCM16(b []byte, channels int) []int8 {
	samples := make([]int, len(b)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(b[i*2:])))
	}
	return monoFromInts(samples, channels, 16, false)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func clamp8(s int) int8 {
	if s > 127 {
		return 127
	} else if s < -128 {
		return -128
	}
	return int8(s)
}

// pcmBank wraps decoded PCM data in a single sample bank.
func pcmBank(data []int8, rate int) (*Bank, error) {
	if len(data) == 0 || rate <= 0 {
		return nil, ErrNoAudio
	}
	return &Bank{
		Samples: []Sample{{
			Data:   data,
			Rate:   uint(rate),
			Volume: pcmVolume,
		}},
	}, nil
}

package comb

import (
	"github.com/chriskillpack/chanmix/fixedpoint"
)

// CombFixed is a stereo feedback comb filter (an echo) in integer
// arithmetic. Each output sample is the input plus the output from delayMs
// earlier scaled by decay/256. The addition saturates, so a loud feedback
// loop clips instead of wrapping around.
type CombFixed struct {
	decay fixedpoint.ScaleFactor
	delay []int16 // ring of the last delay frames of output
	pos   int

	out     *PassThrough
	scratch []int16
}

var _ Reverber = &CombFixed{}

// NewCombFixed returns a comb filter buffering up to bufSize sample pairs of
// processed audio. The delay is at least one frame.
func NewCombFixed(bufSize int, decay uint8, delayMs, sampleRate int) *CombFixed {
	frames := max(delayMs*sampleRate/1000, 1)
	return &CombFixed{
		decay: fixedpoint.NewScaleFactor(decay),
		delay: make([]int16, frames*2),
		out:   NewPassThrough(bufSize * 2),
	}
}

// InputSamples filters as many whole sample pairs of in as fit in the output
// buffer and returns the number of samples consumed.
func (c *CombFixed) InputSamples(in []int16) int {
	n := min(len(in), c.out.Free()) &^ 1
	if n == 0 {
		return 0
	}

	if cap(c.scratch) < n {
		c.scratch = make([]int16, n)
	}
	filtered := c.scratch[:n]
	for i, s := range in[:n] {
		echo := fixedpoint.ScaleShift(int32(c.delay[c.pos]), c.decay)
		y := fixedpoint.SaturatingAdd(s, echo)
		c.delay[c.pos] = y
		filtered[i] = y

		c.pos++
		if c.pos == len(c.delay) {
			c.pos = 0
		}
	}

	return c.out.InputSamples(filtered)
}

// GetAudio puts processed audio data into the out slice. It returns the number
// of samples put into out.
func (c *CombFixed) GetAudio(out []int16) int {
	return c.out.GetAudio(out)
}

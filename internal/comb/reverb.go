package comb

import (
	"github.com/chriskillpack/chanmix/fixedpoint"
)

// Freeverb tunings at 44.1kHz, in samples
var (
	combTuning    = []int{1116, 1188, 1277, 1356}
	allpassTuning = []int{556, 441}
)

const (
	stereoSpread = 23
	tuningRate   = 44100
	inputGain    = 0.05
	allpassGain  = 0.5
)

// combFilter is a feedback comb with a one pole low pass filter in the
// feedback path.
type combFilter struct {
	buf      []int32
	pos      int
	feedback float32
	damping  float32
	store    float32
}

func newCombFilter(delay int, feedback, damping float32) *combFilter {
	return &combFilter{
		buf:      make([]int32, delay),
		feedback: feedback,
		damping:  damping,
	}
}

func (c *combFilter) process(in int32) int32 {
	out := c.buf[c.pos]
	c.store = float32(out)*(1-c.damping) + c.store*c.damping
	c.buf[c.pos] = in + int32(c.store*c.feedback)

	c.pos++
	if c.pos == len(c.buf) {
		c.pos = 0
	}
	return out
}

// allpass diffuses the comb output without colouring it.
type allpass struct {
	buf []int32
	pos int
}

func newAllpass(delay int) *allpass {
	return &allpass{buf: make([]int32, delay)}
}

func (a *allpass) process(in int32) int32 {
	bufout := a.buf[a.pos]
	out := bufout - in
	a.buf[a.pos] = in + int32(float32(bufout)*allpassGain)

	a.pos++
	if a.pos == len(a.buf) {
		a.pos = 0
	}
	return out
}

// channelReverb is the filter network for one output channel.
type channelReverb struct {
	combs     []*combFilter
	allpasses []*allpass
}

func newChannelReverb(spread, sampleRate int, feedback, damping float32) *channelReverb {
	scale := func(n int) int {
		return max((n+spread)*sampleRate/tuningRate, 1)
	}

	cr := &channelReverb{}
	for _, n := range combTuning {
		cr.combs = append(cr.combs, newCombFilter(scale(n), feedback, damping))
	}
	for _, n := range allpassTuning {
		cr.allpasses = append(cr.allpasses, newAllpass(scale(n)))
	}
	return cr
}

func (cr *channelReverb) process(in int32) int32 {
	in = int32(float32(in) * inputGain)

	var wet int32
	for _, c := range cr.combs {
		wet += c.process(in)
	}
	for _, a := range cr.allpasses {
		wet = a.process(wet)
	}
	return wet
}

// StereoReverb is a Schroeder style reverb: parallel comb filters followed by
// allpass filters, one network per channel with slightly different delays.
// Memory use is bounded by the buffer size given to NewStereoReverb.
type StereoReverb struct {
	left, right *channelReverb
	wet, dry    float32

	out     *PassThrough
	scratch []int16
}

var _ Reverber = &StereoReverb{}

// NewStereoReverb returns a reverb buffering up to bufSize sample pairs.
// decay sets the room size, damping how quickly high frequencies die away
// and mix the wet/dry balance. All three are in the range 0-1.
func NewStereoReverb(bufSize int, decay, damping, mix float32, sampleRate int) *StereoReverb {
	feedback := 0.7 + 0.28*clamp01(decay)
	damp := 0.4 * clamp01(damping)
	mix = clamp01(mix)

	return &StereoReverb{
		left:  newChannelReverb(0, sampleRate, feedback, damp),
		right: newChannelReverb(stereoSpread, sampleRate, feedback, damp),
		wet:   mix,
		dry:   1 - mix,
		out:   NewPassThrough(bufSize * 2),
	}
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

// InputSamples applies reverb to as many whole sample pairs of in as fit in
// the output buffer and returns the number of samples consumed.
func (r *StereoReverb) InputSamples(in []int16) int {
	n := min(len(in), r.out.Free()) &^ 1
	if n == 0 {
		return 0
	}

	if cap(r.scratch) < n {
		r.scratch = make([]int16, n)
	}
	processed := r.scratch[:n]
	for i := 0; i < n; i += 2 {
		l, rt := int32(in[i]), int32(in[i+1])
		wl := r.left.process(l)
		wr := r.right.process(rt)
		processed[i] = fixedpoint.Clamp16(int(float32(l)*r.dry + float32(wl)*r.wet))
		processed[i+1] = fixedpoint.Clamp16(int(float32(rt)*r.dry + float32(wr)*r.wet))
	}

	return r.out.InputSamples(processed)
}

// GetAudio puts processed audio data into the out slice. It returns the number
// of samples put into out.
func (r *StereoReverb) GetAudio(out []int16) int {
	return r.out.GetAudio(out)
}

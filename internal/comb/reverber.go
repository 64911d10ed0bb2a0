// Package comb holds reverb post-processing stages for interleaved stereo
// audio.
package comb

// Reverber processes interleaved stereo audio. Audio is pushed in with
// InputSamples and the processed audio is pulled out with GetAudio. Both
// return the number of int16 samples handled, which may be fewer than asked
// for when the internal buffer is full or empty.
type Reverber interface {
	InputSamples(in []int16) int
	GetAudio(out []int16) int
}

// PassThrough implements Reverber but does nothing to the audio data. It is a
// fixed size ring buffer, also used as the output stage of the other
// reverbs.
type PassThrough struct {
	audio             []int16
	readPos, writePos int
	n                 int
}

var _ Reverber = &PassThrough{}

// NewPassThrough creates a PassThrough holding up to bufferSize samples.
func NewPassThrough(bufferSize int) *PassThrough {
	return &PassThrough{audio: make([]int16, bufferSize)}
}

// Len returns the number of samples waiting to be read.
func (r *PassThrough) Len() int { return r.n }

// Free returns the number of samples that can be written.
func (r *PassThrough) Free() int { return len(r.audio) - r.n }

func (r *PassThrough) InputSamples(in []int16) int {
	n := min(len(in), r.Free())
	// If the buffer is full then stop
	if n == 0 {
		return 0
	}

	// Would adding this data run past the end of the buffer?
	if r.writePos+n >= len(r.audio) {
		// Yes, do it in two parts (n1 to end of buffer, n2 the remainder)
		n1 := len(r.audio) - r.writePos
		n2 := n - n1
		copy(r.audio[r.writePos:], in[:n1])
		copy(r.audio[:n2], in[n1:n])
		r.writePos = n2
	} else {
		copy(r.audio[r.writePos:r.writePos+n], in[:n])
		r.writePos += n
	}
	r.n += n

	return n
}

func (r *PassThrough) GetAudio(out []int16) int {
	n := min(len(out), r.n)
	// If the buffer is empty then stop
	if n == 0 {
		return 0
	}

	if r.readPos+n > len(r.audio) {
		n1 := len(r.audio) - r.readPos
		n2 := n - n1
		copy(out[:n1], r.audio[r.readPos:])
		copy(out[n1:n], r.audio[:n2])
		r.readPos = n2
	} else {
		copy(out[:n], r.audio[r.readPos:r.readPos+n])
		r.readPos += n
	}
	r.n -= n

	return n
}

// Package stereo provides a view over interleaved stereo sample buffers
// (LRLRLR...) so mixing code can work on left and right lanes without doing
// offset and stride arithmetic itself.
package stereo

// Buffer is an interleaved stereo buffer. Even indices hold the left channel,
// odd indices the right. A Buffer does not own its samples, it is a view over
// a slice supplied by the caller.
type Buffer []int16

// Frames returns the number of complete left/right pairs in the buffer. A
// trailing unpaired sample is not part of any frame.
func (b Buffer) Frames() int {
	return len(b) / 2
}

// Frame returns the left and right samples of frame i.
func (b Buffer) Frame(i int) (l, r int16) {
	return b[i*2+0], b[i*2+1]
}

// SetFrame stores the left and right samples of frame i.
func (b Buffer) SetFrame(i int, l, r int16) {
	b[i*2+0] = l
	b[i*2+1] = r
}

// Slice returns the frames [from, to) as a Buffer sharing storage with b.
func (b Buffer) Slice(from, to int) Buffer {
	return b[from*2 : to*2]
}

// Deinterleave copies len(left) frames starting at frame start into the two
// lane slices. left and right must be the same length.
func (b Buffer) Deinterleave(start int, left, right []int16) {
	if len(left) != len(right) {
		panic("stereo: lane length mismatch")
	}
	src := b[start*2 : (start+len(left))*2]
	for i := range left {
		left[i] = src[i*2+0]
		right[i] = src[i*2+1]
	}
}

// Interleave writes the two lanes back into their even and odd slots starting
// at frame start. Samples outside those frames are not touched.
func (b Buffer) Interleave(start int, left, right []int16) {
	if len(left) != len(right) {
		panic("stereo: lane length mismatch")
	}
	dst := b[start*2 : (start+len(left))*2]
	for i := range left {
		dst[i*2+0] = left[i]
		dst[i*2+1] = right[i]
	}
}

package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	maxVolume = 64  // voice and global maximum volume
	maxPan    = 127 // full right
	centerPan = 64
)

var (
	// ErrInvalidVoice is returned by AddVoice for a voice that cannot be
	// played.
	ErrInvalidVoice = errors.New("invalid voice")

	// ErrUnknownVoice is returned when an id does not name a voice in the
	// engine.
	ErrUnknownVoice = errors.New("unknown voice")
)

// Voice is a sample to be played by the engine.
type Voice struct {
	Name string
	Data []int8

	Rate   uint // playback rate of Data in Hz
	Volume int  // 0-64
	Pan    int  // 0=Full Left, 127=Full Right

	// Loop region in samples. LoopLen 0 plays the sample once.
	LoopStart int
	LoopLen   int
}

func (v *Voice) validate() error {
	switch {
	case len(v.Data) == 0:
		return fmt.Errorf("%w: %q has no sample data", ErrInvalidVoice, v.Name)
	case v.Rate == 0:
		return fmt.Errorf("%w: %q has no playback rate", ErrInvalidVoice, v.Name)
	case v.Volume < 0 || v.Volume > maxVolume:
		return fmt.Errorf("%w: %q volume %d out of range 0-%d", ErrInvalidVoice, v.Name, v.Volume, maxVolume)
	case v.Pan < 0 || v.Pan > maxPan:
		return fmt.Errorf("%w: %q pan %d out of range 0-%d", ErrInvalidVoice, v.Name, v.Pan, maxPan)
	case v.LoopStart < 0 || v.LoopLen < 0 || v.LoopStart+v.LoopLen > len(v.Data):
		return fmt.Errorf("%w: %q loop %d+%d overruns %d samples", ErrInvalidVoice, v.Name, v.LoopStart, v.LoopLen, len(v.Data))
	}
	return nil
}

// VoiceState is a snapshot of one voice.
type VoiceState struct {
	ID uuid.UUID
	Voice

	Position int // current sample index
	Muted    bool
}

// State is a snapshot of the engine and its voices in the order they were
// added.
type State struct {
	Rate         uint
	GlobalVolume int
	Kernel       string
	Voices       []VoiceState
}

type voice struct {
	id uuid.UUID
	Voice

	position uint // 16.16 fixed point index into Data
	muted    bool
	stopped  bool
}

// resample fills dst with the voice's samples stepping through Data by step,
// a 16.16 fixed point increment. The nearest earlier sample is used, no
// interpolation. Once a non-looping voice runs off the end of its data the
// rest of dst is silence and the voice is marked stopped.
func (v *voice) resample(dst []int8, step uint) {
	var sampEnd uint
	if v.LoopLen > 0 {
		sampEnd = uint(v.LoopStart+v.LoopLen) << 16
	} else {
		sampEnd = uint(len(v.Data)) << 16
	}

	pos := v.position
	for i := range dst {
		if pos >= sampEnd {
			if v.LoopLen == 0 {
				v.stopped = true
				clear(dst[i:])
				break
			}
			loopLen := uint(v.LoopLen) << 16
			pos = uint(v.LoopStart)<<16 + (pos-sampEnd)%loopLen
		}
		dst[i] = v.Data[pos>>16]
		pos += step
	}
	v.position = pos
}

// skip advances the voice as if n samples had been played.
func (v *voice) skip(n int, step uint) {
	pos := v.position + step*uint(n)

	if v.LoopLen == 0 {
		if pos >= uint(len(v.Data))<<16 {
			v.stopped = true
		}
	} else if end := uint(v.LoopStart+v.LoopLen) << 16; pos >= end {
		pos = uint(v.LoopStart)<<16 + (pos-end)%(uint(v.LoopLen)<<16)
	}
	v.position = pos
}

// channelVolumes converts a voice volume and pan into the left and right mix
// volumes. globalVolume is 0-64.
func channelVolumes(volume, pan, globalVolume int) (lvol, rvol uint8) {
	vol := (volume * globalVolume) >> 6
	if vol >= maxVolume {
		vol = maxVolume
	}
	if vol <= 0 {
		return 0, 0
	}
	vol = vol * 255 / maxVolume // 0-255

	return uint8(((maxPan - pan) * vol) >> 7), uint8((pan * vol) >> 7)
}

package source

import (
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

func decodeMP3(r io.Reader) (*Bank, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}

	// go-mp3 always produces 16-bit little endian stereo
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}

	return pcmBank(monoFromPCM16(pcm, 2), dec.SampleRate())
}

func decodeVorbis(r io.Reader) (*Bank, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return pcmBank(monoFromFloats(samples, format.Channels), format.SampleRate)
}

func decodeFLAC(r io.Reader) (*Bank, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	bitDepth := int(stream.Info.BitsPerSample)
	if channels < 1 {
		return nil, fmt.Errorf("%w: FLAC stream has no channels", ErrInvalidFile)
	}

	var samples []int
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}

		// Subframes are per channel, interleave them
		for i := 0; i < int(frame.BlockSize); i++ {
			for c := 0; c < channels; c++ {
				samples = append(samples, int(frame.Subframes[c].Samples[i]))
			}
		}
	}

	return pcmBank(monoFromInts(samples, channels, bitDepth, false), int(stream.Info.SampleRate))
}

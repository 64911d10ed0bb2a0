package source

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/aiff"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// readSeeker returns r as an io.ReadSeeker, reading it into memory if it is
// not one already. The go-audio decoders need to seek.
func readSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func decodeWAV(r io.Reader) (*Bank, error) {
	rs, err := readSeeker(r)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a WAV file", ErrInvalidFile)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: WAV audio format %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}

	data := monoFromInts(buf.Data, int(dec.NumChans), int(dec.BitDepth), true)
	return pcmBank(data, int(dec.SampleRate))
}

func decodeAIFF(r io.Reader) (*Bank, error) {
	rs, err := readSeeker(r)
	if err != nil {
		return nil, err
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not an AIFF file", ErrInvalidFile)
	}
	dec.ReadInfo()

	format := dec.Format()
	if format == nil {
		return nil, fmt.Errorf("%w: AIFF has no format", ErrInvalidFile)
	}

	var samples []int
	buf := &goaudio.IntBuffer{Data: make([]int, 4096), Format: format}
	for {
		n, err := dec.PCMBuffer(buf)
		samples = append(samples, buf.Data[:n]...)
		if err != nil && err != io.EOF {
			return nil, err
		}
		if n == 0 || err == io.EOF {
			break
		}
	}

	data := monoFromInts(samples, format.NumChannels, int(dec.BitDepth), false)
	return pcmBank(data, format.SampleRate)
}

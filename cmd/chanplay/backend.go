package main

import (
	"fmt"

	"github.com/ebitengine/oto/v3"
	"github.com/gordonklaus/portaudio"
)

// backend plays a stream on the audio device.
type backend interface {
	Start() error
	Close() error
}

func newBackend(name string, s *stream, hz int) (backend, error) {
	switch name {
	case "portaudio":
		return &portaudioBackend{s: s, hz: hz}, nil
	case "oto":
		return &otoBackend{s: s, hz: hz}, nil
	}
	return nil, fmt.Errorf("unrecognized backend %q", name)
}

type portaudioBackend struct {
	s      *stream
	hz     int
	stream *portaudio.Stream
}

func (b *portaudioBackend) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}

	var err error
	b.stream, err = portaudio.OpenDefaultStream(0, 2, float64(b.hz), 756/2, b.s.fill)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	return b.stream.Start()
}

func (b *portaudioBackend) Close() error {
	if b.stream != nil {
		b.stream.Stop()
		b.stream.Close()
	}
	return portaudio.Terminate()
}

type otoBackend struct {
	s      *stream
	hz     int
	player *oto.Player
}

func (b *otoBackend) Start() error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   b.hz,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("creating oto context: %w", err)
	}
	<-ready

	b.player = ctx.NewPlayer(b.s)
	b.player.Play()
	return nil
}

func (b *otoBackend) Close() error {
	if b.player == nil {
		return nil
	}
	return b.player.Close()
}

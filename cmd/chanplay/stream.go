package main

import (
	"encoding/binary"
	"log/slog"
	"sync"

	"github.com/chriskillpack/chanmix/engine"
	"github.com/chriskillpack/chanmix/internal/comb"
	"github.com/chriskillpack/chanmix/internal/meter"
)

// stream pulls audio from the engine through the reverb for an audio
// backend. The backend calls fill (or Read) from its own goroutine.
type stream struct {
	eng    *engine.Engine
	reverb comb.Reverber
	logger *slog.Logger

	scratch []int16
	pcm     []int16
	meter   meter.Meter

	mu     sync.Mutex
	levels meter.Levels

	doneOnce sync.Once
	done     chan struct{}
}

func newStream(eng *engine.Engine, reverb comb.Reverber, logger *slog.Logger) *stream {
	return &stream{
		eng:     eng,
		reverb:  reverb,
		logger:  logger,
		scratch: make([]int16, 10*1024),
		done:    make(chan struct{}),
	}
}

// fill renders into out. The part of out the reverb could not supply is
// silent. Once the voices have finished and the reverb is drained, done is
// closed.
func (s *stream) fill(out []int16) {
	if cap(s.scratch) < len(out) {
		s.scratch = make([]int16, len(out))
	}
	sc := s.scratch[:len(out)&^1]

	frames, err := s.eng.Render(sc)
	if err != nil {
		s.logger.Error("render failed", "err", err)
	}
	s.reverb.InputSamples(sc[:frames*2])
	n := s.reverb.GetAudio(out)
	clear(out[n:])

	levels := s.meter.Measure(out[:n&^1])
	s.mu.Lock()
	s.levels = levels
	s.mu.Unlock()

	if n == 0 {
		s.doneOnce.Do(func() { close(s.done) })
	}
}

// Read implements io.Reader, producing signed 16-bit little endian stereo.
func (s *stream) Read(p []byte) (int, error) {
	n := len(p) / 2
	if cap(s.pcm) < n {
		s.pcm = make([]int16, n)
	}
	pcm := s.pcm[:n]
	s.fill(pcm)

	for i, v := range pcm {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(v))
	}
	return n * 2, nil
}

// Levels returns the levels of the last block played.
func (s *stream) Levels() meter.Levels {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels
}

// Done is closed when there is nothing left to play.
func (s *stream) Done() <-chan struct{} {
	return s.done
}

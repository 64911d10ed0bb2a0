// Package engine plays a set of voices into interleaved 16-bit stereo blocks.
//
// Each call to Render resamples every voice to the output rate and mixes it
// into the block with a chanmix.Mixer. Voices are added and controlled while
// the engine is rendering, typically from a UI goroutine while an audio
// callback calls Render.
package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/chriskillpack/chanmix"
	"github.com/chriskillpack/chanmix/stereo"
	"github.com/google/uuid"
	clone "github.com/huandu/go-clone/generic"
	"golang.org/x/sync/errgroup"
)

// minSliceFrames is the smallest run of frames given to a worker.
const minSliceFrames = 256

// Engine mixes voices. It must be created with New.
type Engine struct {
	mu sync.Mutex

	rate         uint
	globalVolume int
	workers      int
	mixer        *chanmix.Mixer
	logger       *slog.Logger

	voices  []*voice
	scratch [][]int8 // resampled voice data for the current block
}

type options struct {
	mixer        *chanmix.Mixer
	workers      int
	logger       *slog.Logger
	globalVolume int
}

// Option configures New.
type Option func(*options)

// WithMixer mixes with m instead of the default chanmix mixer.
func WithMixer(m *chanmix.Mixer) Option {
	return func(o *options) { o.mixer = m }
}

// WithWorkers mixes each block with up to n goroutines working on different
// parts of the block. The output does not depend on n.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger logs voice lifecycle events to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithGlobalVolume sets the initial global volume, 0-64. The default is 64.
func WithGlobalVolume(vol int) Option {
	return func(o *options) { o.globalVolume = vol }
}

// New returns an engine producing audio at rate Hz.
func New(rate uint, opts ...Option) (*Engine, error) {
	o := options{workers: 1, globalVolume: maxVolume}
	for _, opt := range opts {
		opt(&o)
	}

	if rate == 0 {
		return nil, fmt.Errorf("engine: invalid output rate %d", rate)
	}
	if o.workers < 1 {
		return nil, fmt.Errorf("engine: invalid worker count %d", o.workers)
	}
	if o.globalVolume < 0 || o.globalVolume > maxVolume {
		return nil, fmt.Errorf("engine: global volume %d out of range 0-%d", o.globalVolume, maxVolume)
	}
	if o.mixer == nil {
		m, err := chanmix.Default()
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		o.mixer = m
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	return &Engine{
		rate:         rate,
		globalVolume: o.globalVolume,
		workers:      o.workers,
		mixer:        o.mixer,
		logger:       o.logger,
	}, nil
}

// AddVoice starts playing v from its first sample and returns its id.
func (e *Engine) AddVoice(v Voice) (uuid.UUID, error) {
	if err := v.validate(); err != nil {
		return uuid.Nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	nv := &voice{id: uuid.New(), Voice: v}
	e.voices = append(e.voices, nv)
	e.logger.Debug("voice added", "id", nv.id, "name", v.Name, "samples", len(v.Data), "rate", v.Rate)

	return nv.id, nil
}

// RemoveVoice stops a voice.
func (e *Engine) RemoveVoice(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.find(id)
	if i < 0 {
		return fmt.Errorf("engine: %w %s", ErrUnknownVoice, id)
	}
	e.logger.Debug("voice removed", "id", id, "name", e.voices[i].Name)
	e.voices = slices.Delete(e.voices, i, i+1)

	return nil
}

// SetVolume sets a voice's volume, 0-64.
func (e *Engine) SetVolume(id uuid.UUID, vol int) error {
	if vol < 0 || vol > maxVolume {
		return fmt.Errorf("engine: %w: volume %d out of range 0-%d", ErrInvalidVoice, vol, maxVolume)
	}
	return e.update(id, func(v *voice) { v.Volume = vol })
}

// SetPan sets a voice's pan position, 0 (left) to 127 (right).
func (e *Engine) SetPan(id uuid.UUID, pan int) error {
	if pan < 0 || pan > maxPan {
		return fmt.Errorf("engine: %w: pan %d out of range 0-%d", ErrInvalidVoice, pan, maxPan)
	}
	return e.update(id, func(v *voice) { v.Pan = pan })
}

// SetMute mutes or unmutes a voice. A muted voice keeps its place in the
// sample so unmuting it resumes where it would have been.
func (e *Engine) SetMute(id uuid.UUID, mute bool) error {
	return e.update(id, func(v *voice) { v.muted = mute })
}

// SetGlobalVolume scales every voice, 0-64.
func (e *Engine) SetGlobalVolume(vol int) error {
	if vol < 0 || vol > maxVolume {
		return fmt.Errorf("engine: global volume %d out of range 0-%d", vol, maxVolume)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.globalVolume = vol

	return nil
}

func (e *Engine) update(id uuid.UUID, fn func(*voice)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.find(id)
	if i < 0 {
		return fmt.Errorf("engine: %w %s", ErrUnknownVoice, id)
	}
	fn(e.voices[i])

	return nil
}

func (e *Engine) find(id uuid.UUID) int {
	return slices.IndexFunc(e.voices, func(v *voice) bool { return v.id == id })
}

// Voices returns the ids of the playing voices in the order they were added.
func (e *Engine) Voices() []uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]uuid.UUID, len(e.voices))
	for i, v := range e.voices {
		ids[i] = v.id
	}
	return ids
}

// State returns a snapshot of the engine. The snapshot shares no memory with
// the engine.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := State{
		Rate:         e.rate,
		GlobalVolume: e.globalVolume,
		Kernel:       e.mixer.Kernel().Name(),
		Voices:       make([]VoiceState, len(e.voices)),
	}
	for i, v := range e.voices {
		state.Voices[i] = VoiceState{
			ID:       v.id,
			Voice:    v.Voice,
			Position: int(v.position >> 16),
			Muted:    v.muted,
		}
	}

	return clone.Clone(state)
}

// mixJob is one voice's contribution to a block.
type mixJob struct {
	src        []int8
	lvol, rvol uint8
}

// Render fills out with interleaved stereo audio (LRLRLR...) and returns the
// number of stereo frames generated, 0 if no voices are playing. out is
// overwritten, not added to. Voices that reach the end of their data are
// removed.
func (e *Engine) Render(out []int16) (int, error) {
	if len(out)%2 != 0 {
		return 0, fmt.Errorf("engine: odd output length %d: %w", len(out), chanmix.ErrLengthMismatch)
	}
	clear(out)

	e.mu.Lock()
	defer e.mu.Unlock()

	frames := len(out) / 2
	if len(e.voices) == 0 || frames == 0 {
		return 0, nil
	}

	jobs := e.resample(frames)
	if err := e.mix(out, frames, jobs); err != nil {
		return 0, err
	}
	e.removeStopped()

	return frames, nil
}

// resample steps every voice through the block and returns the ones that
// contribute sound.
func (e *Engine) resample(frames int) []mixJob {
	for len(e.scratch) < len(e.voices) {
		e.scratch = append(e.scratch, nil)
	}

	var jobs []mixJob
	for i, v := range e.voices {
		step := uint(v.Rate<<16) / e.rate

		lvol, rvol := channelVolumes(v.Volume, v.Pan, e.globalVolume)
		if v.muted || (lvol == 0 && rvol == 0) {
			v.skip(frames, step)
			continue
		}

		if cap(e.scratch[i]) < frames {
			e.scratch[i] = make([]int8, frames)
		}
		src := e.scratch[i][:frames]
		v.resample(src, step)

		jobs = append(jobs, mixJob{src: src, lvol: lvol, rvol: rvol})
	}
	return jobs
}

// mix adds every job into out. The block is cut into runs of frames that are
// mixed concurrently, each run applying the jobs in voice order, so the
// result is the same as mixing the whole block in one goroutine.
func (e *Engine) mix(out []int16, frames int, jobs []mixJob) error {
	workers := min(e.workers, (frames+minSliceFrames-1)/minSliceFrames)
	if workers <= 1 {
		return e.mixSlice(out, 0, frames, jobs)
	}

	per := (frames + workers - 1) / workers
	var g errgroup.Group
	for from := 0; from < frames; from += per {
		to := min(from+per, frames)
		g.Go(func() error {
			return e.mixSlice(out, from, to, jobs)
		})
	}
	return g.Wait()
}

func (e *Engine) mixSlice(out []int16, from, to int, jobs []mixJob) error {
	block := stereo.Buffer(out).Slice(from, to)
	for _, job := range jobs {
		err := e.mixer.Mix(block, job.src[from:to], job.lvol, job.rvol, to-from)
		if err != nil {
			return fmt.Errorf("engine: mixing frames %d-%d: %w", from, to, err)
		}
	}
	return nil
}

func (e *Engine) removeStopped() {
	e.voices = slices.DeleteFunc(e.voices, func(v *voice) bool {
		if v.stopped {
			e.logger.Debug("voice finished", "id", v.id, "name", v.Name)
		}
		return v.stopped
	})
}

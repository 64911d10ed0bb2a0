// Package chanmix mixes mono 8-bit sample blocks into interleaved 16-bit
// stereo buffers.
//
// Each output channel has its own volume, an unsigned byte meaning v/256. The
// source sample is scaled by each volume and added into the existing output
// with saturation, so mixing several voices into the same buffer clips instead
// of wrapping around.
//
// The work is done by a kernel picked once, when a Mixer is created, from the
// kernels built into the binary and supported by the CPU: NEON on arm64, a
// portable 8-lane kernel elsewhere, and a scalar kernel that handles whatever
// does not fill a whole vector. All kernels produce bit-identical output.
//
// A Mixer holds no state between calls and may be used from several
// goroutines at once as long as they write to different parts of the output.
package chanmix

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chriskillpack/chanmix/fixedpoint"
	"github.com/chriskillpack/chanmix/internal/kernel/registry"
	"github.com/cwbudde/algo-vecmath/cpu"
)

// Kernel mixes a block of samples into an interleaved stereo block. out holds
// exactly 2*len(src) samples. Kernels with Width greater than one reject
// blocks that are not a multiple of it with ErrUnsupportedWidth, before
// touching out.
type Kernel interface {
	Name() string
	Width() int
	MixBlock(out []int16, src []int8, lf, rf fixedpoint.ScaleFactor) error
}

// registered adapts a registry entry to Kernel.
type registered struct {
	entry *registry.OpEntry
}

func (k registered) Name() string { return k.entry.Name }
func (k registered) Width() int   { return k.entry.Width }
func (k registered) MixBlock(out []int16, src []int8, lf, rf fixedpoint.ScaleFactor) error {
	return k.entry.MixBlock(out, src, lf, rf)
}

// Mixer applies the mix transform using a vector kernel for whole vectors and
// the scalar kernel for the remainder.
type Mixer struct {
	vector Kernel
	scalar Kernel
}

type options struct {
	name     string
	features *cpu.Features
	kernel   Kernel
}

// Option configures New.
type Option func(*options)

// WithKernel selects a kernel by name ("scalar", "lanes", "neon") instead of
// picking the best one for the CPU.
func WithKernel(name string) Option {
	return func(o *options) { o.name = name }
}

// WithFeatures makes kernel selection use f instead of the detected CPU
// features.
func WithFeatures(f cpu.Features) Option {
	return func(o *options) { o.features = &f }
}

// WithVectorKernel uses k for whole vectors. The scalar kernel still handles
// remainders.
func WithVectorKernel(k Kernel) Option {
	return func(o *options) { o.kernel = k }
}

// New returns a Mixer with its kernel selected.
func New(opts ...Option) (*Mixer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	features := cpu.DetectFeatures()
	if o.features != nil {
		features = *o.features
	}

	scalar := registry.Global.Scalar()
	if scalar == nil {
		return nil, &MixError{Op: "new", Kernel: "scalar", Err: ErrUnknownKernel}
	}

	m := &Mixer{scalar: registered{scalar}}
	switch {
	case o.kernel != nil:
		if o.kernel.Width() < 1 {
			return nil, fmt.Errorf("chanmix: kernel %s has invalid width %d", o.kernel.Name(), o.kernel.Width())
		}
		m.vector = o.kernel
	case o.name != "":
		entry, ok := registry.Global.Get(o.name, features)
		if !ok {
			return nil, &MixError{Op: "new", Kernel: o.name, Err: ErrUnknownKernel}
		}
		m.vector = registered{entry}
	default:
		entry := registry.Global.Lookup(features)
		if entry == nil {
			return nil, &MixError{Op: "new", Err: ErrUnknownKernel}
		}
		m.vector = registered{entry}
	}

	return m, nil
}

// Kernel returns the kernel used for whole vectors.
func (m *Mixer) Kernel() Kernel {
	return m.vector
}

// Mix adds the first length samples of source into output, scaled by
// leftVolume into the even (left) slots and by rightVolume into the odd
// (right) slots, with saturation.
//
// source must hold exactly length samples and output at least 2*length. A
// call that breaks this returns an error wrapping ErrLengthMismatch and
// leaves output untouched. Samples of output beyond 2*length are never read or
// written.
func (m *Mixer) Mix(output []int16, source []int8, leftVolume, rightVolume uint8, length int) error {
	if err := validate(output, source, length); err != nil {
		return err
	}
	if length == 0 || (leftVolume == 0 && rightVolume == 0) {
		// Silence adds nothing
		return nil
	}

	lf := fixedpoint.NewScaleFactor(leftVolume)
	rf := fixedpoint.NewScaleFactor(rightVolume)

	w := m.vector.Width()
	body := length - length%w
	if body > 0 {
		if err := m.vector.MixBlock(output[:body*2], source[:body], lf, rf); err != nil {
			return m.kernelError(err, body)
		}
	}
	if body < length {
		if err := m.scalar.MixBlock(output[body*2:length*2], source[body:length], lf, rf); err != nil {
			return m.kernelError(err, length-body)
		}
	}

	return nil
}

func (m *Mixer) kernelError(err error, n int) error {
	if errors.Is(err, ErrUnsupportedWidth) {
		return &MixError{
			Op:     "mix",
			Kernel: m.vector.Name(),
			Length: n,
			Width:  m.vector.Width(),
			Err:    ErrUnsupportedWidth,
		}
	}
	return fmt.Errorf("chanmix: kernel %s: %w", m.vector.Name(), err)
}

var (
	defaultMixer *Mixer
	defaultErr   error
	defaultOnce  sync.Once
)

// Default returns the process wide Mixer using the best kernel for the CPU.
func Default() (*Mixer, error) {
	defaultOnce.Do(func() {
		defaultMixer, defaultErr = New()
	})
	return defaultMixer, defaultErr
}

// MixChannels mixes with the default Mixer. See Mixer.Mix.
func MixChannels(output []int16, source []int8, leftVolume, rightVolume uint8, length int) error {
	m, err := Default()
	if err != nil {
		return err
	}
	return m.Mix(output, source, leftVolume, rightVolume, length)
}

// Kernels returns the names of the kernels this binary can run on this CPU,
// best first.
func Kernels() []string {
	features := cpu.DetectFeatures()

	var names []string
	for _, entry := range registry.Global.ListEntries() {
		if _, ok := registry.Global.Get(entry.Name, features); ok {
			names = append(names, entry.Name)
		}
	}
	return names
}

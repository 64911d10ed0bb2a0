package chanmix

import (
	"errors"
	"fmt"

	"github.com/chriskillpack/chanmix/internal/kernel/registry"
)

var (
	// ErrLengthMismatch means the source does not hold length samples, or
	// the output cannot hold 2*length samples.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrUnsupportedWidth means a vector kernel was given a block that is
	// not a multiple of its width. The Mixer splits off remainders before
	// calling a kernel so this points at a broken Kernel implementation.
	ErrUnsupportedWidth = registry.ErrUnsupportedWidth

	// ErrUnknownKernel means WithKernel named a kernel that is not built
	// into this binary or that the CPU cannot run.
	ErrUnknownKernel = errors.New("unknown kernel")
)

// MixError describes a rejected mix call. It unwraps to one of the sentinel
// errors above so callers can test it with errors.Is.
type MixError struct {
	Op     string // "mix" or "new"
	Kernel string // kernel name, if one was involved

	Length int // requested length in samples
	Source int // len(source)
	Output int // len(output)
	Width  int // kernel width for ErrUnsupportedWidth

	Err error
}

func (e *MixError) Error() string {
	switch e.Err {
	case ErrLengthMismatch:
		return fmt.Sprintf("chanmix: %s: %v: length %d, source %d, output %d (need %d)",
			e.Op, e.Err, e.Length, e.Source, e.Output, 2*e.Length)
	case ErrUnsupportedWidth:
		return fmt.Sprintf("chanmix: %s: kernel %s: %v: length %d, width %d",
			e.Op, e.Kernel, e.Err, e.Length, e.Width)
	default:
		if e.Kernel != "" {
			return fmt.Sprintf("chanmix: %s: %v %q", e.Op, e.Err, e.Kernel)
		}
		return fmt.Sprintf("chanmix: %s: %v", e.Op, e.Err)
	}
}

func (e *MixError) Unwrap() error { return e.Err }

// validate checks the buffer contract before anything is read or written.
func validate(output []int16, source []int8, length int) error {
	if length < 0 || len(source) != length || len(output) < 2*length {
		return &MixError{
			Op:     "mix",
			Length: length,
			Source: len(source),
			Output: len(output),
			Err:    ErrLengthMismatch,
		}
	}
	return nil
}

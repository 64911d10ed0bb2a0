// Package registry keeps the mixing kernels available to this build.
//
// Kernels register themselves from init functions in their own packages. The
// mixer looks up the best kernel for the running CPU once, when it is created,
// rather than testing CPU features on every call.
package registry

import (
	"errors"
	"sync"

	"github.com/chriskillpack/chanmix/fixedpoint"
	"github.com/cwbudde/algo-vecmath/cpu"
)

// ErrUnsupportedWidth is returned by a kernel handed a block whose length is
// not a multiple of its width. The mixer routes remainders to the scalar
// kernel so callers should never see it.
var ErrUnsupportedWidth = errors.New("block length is not a multiple of the kernel width")

// MixBlockFn mixes len(src) mono samples into the interleaved stereo block
// out. out must hold exactly 2*len(src) samples and len(src) must be a
// multiple of the kernel width.
type MixBlockFn func(out []int16, src []int8, lf, rf fixedpoint.ScaleFactor) error

// OpEntry is one registered kernel.
type OpEntry struct {
	// Name identifies the kernel, e.g. "scalar", "lanes", "neon".
	Name string

	// SIMDLevel is the instruction set the kernel needs.
	SIMDLevel cpu.SIMDLevel

	// Priority orders compatible kernels, highest wins.
	//   scalar: 0
	//   portable lanes: 5
	//   NEON: 15
	Priority int

	// Width is the number of samples the kernel consumes per step.
	Width int

	MixBlock MixBlockFn
}

// OpRegistry holds kernel entries.
type OpRegistry struct {
	mu      sync.RWMutex
	entries []OpEntry
	sorted  bool
}

// Global is the registry the mixer uses.
var Global = &OpRegistry{}

// Register adds a kernel. It is meant to be called from init.
func (r *OpRegistry) Register(entry OpEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	r.sorted = false
}

// Lookup returns the highest priority kernel the CPU supports, or nil if there
// is none (only possible if the scalar kernel was not registered).
func (r *OpRegistry) Lookup(features cpu.Features) *OpEntry {
	r.sort()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		entry := &r.entries[i]
		if supports(features, entry.SIMDLevel) {
			return entry
		}
	}

	return nil
}

// Get returns the kernel called name if it is registered and the CPU supports
// it.
func (r *OpRegistry) Get(name string, features cpu.Features) (*OpEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		entry := &r.entries[i]
		if entry.Name == name {
			return entry, supports(features, entry.SIMDLevel)
		}
	}
	return nil, false
}

// Scalar returns the lowest priority width-1 kernel, the reference every
// other kernel has to agree with.
func (r *OpRegistry) Scalar() *OpEntry {
	r.sort()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].Width == 1 {
			return &r.entries[i]
		}
	}
	return nil
}

// supports reports whether features can run a kernel built for level.
// ForceGeneric limits the choice to kernels written in plain Go.
func supports(features cpu.Features, level cpu.SIMDLevel) bool {
	if features.ForceGeneric {
		return level == cpu.SIMDNone
	}

	switch level {
	case cpu.SIMDNone:
		return true
	case cpu.SIMDSSE2:
		return features.HasSSE2
	case cpu.SIMDAVX2:
		return features.HasAVX2
	case cpu.SIMDNEON:
		return features.HasNEON
	default:
		return false
	}
}

func (r *OpRegistry) sort() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sorted {
		return
	}
	// Insertion sort, descending priority. There are only a handful of kernels.
	for i := 1; i < len(r.entries); i++ {
		key := r.entries[i]
		j := i - 1
		for j >= 0 && r.entries[j].Priority < key.Priority {
			r.entries[j+1] = r.entries[j]
			j--
		}
		r.entries[j+1] = key
	}
	r.sorted = true
}

// ListEntries returns a copy of the entries sorted by priority.
func (r *OpRegistry) ListEntries() []OpEntry {
	r.sort()

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]OpEntry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Reset clears all entries. Intended for tests.
func (r *OpRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.sorted = false
}

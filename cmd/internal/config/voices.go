package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chriskillpack/chanmix/engine"
	"github.com/chriskillpack/chanmix/source"
)

// VoiceSpec is a -voice flag value: path[:volume[:pan]]. Volume and Pan are
// -1 when not given.
type VoiceSpec struct {
	Path   string
	Volume int
	Pan    int
}

// ParseVoiceSpec parses a -voice flag value.
func ParseVoiceSpec(spec string) (VoiceSpec, error) {
	vs := VoiceSpec{Volume: -1, Pan: -1}

	parts := strings.Split(spec, ":")
	if len(parts) > 3 || parts[0] == "" {
		return vs, fmt.Errorf("bad voice %q, expected path[:volume[:pan]]", spec)
	}
	vs.Path = parts[0]

	for i, dst := range []*int{&vs.Volume, &vs.Pan} {
		if len(parts) <= i+1 {
			break
		}
		v, err := strconv.Atoi(parts[i+1])
		if err != nil || v < 0 {
			return vs, fmt.Errorf("bad voice %q: %q is not a level", spec, parts[i+1])
		}
		*dst = v
	}
	return vs, nil
}

// VoiceList collects repeated -voice flags.
type VoiceList []VoiceSpec

func (l *VoiceList) String() string {
	var s []string
	for _, v := range *l {
		s = append(s, v.Path)
	}
	return strings.Join(s, ",")
}

func (l *VoiceList) Set(value string) error {
	vs, err := ParseVoiceSpec(value)
	if err != nil {
		return err
	}
	*l = append(*l, vs)
	return nil
}

// Voices loads the file named by vs and returns a voice for every playable
// sample in it. Samples in a multi sample bank are panned left, right, right,
// left like the Amiga's channels unless vs sets a pan position.
func (vs VoiceSpec) Voices() ([]engine.Voice, error) {
	bank, err := source.Load(vs.Path)
	if err != nil {
		return nil, err
	}
	samples := bank.Playable()
	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: %w", vs.Path, source.ErrNoAudio)
	}

	voices := make([]engine.Voice, len(samples))
	for i, s := range samples {
		v := engine.Voice{
			Name:      s.Name,
			Data:      s.Data,
			Rate:      s.Rate,
			Volume:    s.Volume,
			Pan:       64,
			LoopStart: s.LoopStart,
			LoopLen:   s.LoopLen,
		}
		if len(samples) > 1 {
			switch i & 3 {
			case 0, 3:
				v.Pan = 0
			case 1, 2:
				v.Pan = 127
			}
		}
		if vs.Volume >= 0 {
			v.Volume = vs.Volume
		}
		if vs.Pan >= 0 {
			v.Pan = vs.Pan
		}
		if v.Name == "" {
			v.Name = fmt.Sprintf("%s#%d", bank.Title, i+1)
		}
		voices[i] = v
	}
	return voices, nil
}

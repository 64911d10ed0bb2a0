package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chriskillpack/chanmix/engine"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/go-cmp/cmp"
)

func TestParseVoiceSpec(t *testing.T) {
	tests := []struct {
		in   string
		want VoiceSpec
	}{
		{"kick.wav", VoiceSpec{Path: "kick.wav", Volume: -1, Pan: -1}},
		{"kick.wav:32", VoiceSpec{Path: "kick.wav", Volume: 32, Pan: -1}},
		{"kick.wav:32:0", VoiceSpec{Path: "kick.wav", Volume: 32, Pan: 0}},
	}
	for _, tt := range tests {
		got, err := ParseVoiceSpec(tt.in)
		if err != nil {
			t.Errorf("ParseVoiceSpec(%q) failed: %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseVoiceSpec(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestParseVoiceSpecErrors(t *testing.T) {
	for _, in := range []string{"", ":32", "kick.wav:loud", "kick.wav:32:-1", "kick.wav:1:2:3"} {
		if _, err := ParseVoiceSpec(in); err == nil {
			t.Errorf("Expected an error parsing %q", in)
		}
	}
}

func TestVoiceList(t *testing.T) {
	var l VoiceList
	for _, v := range []string{"a.wav", "b.mod:16"} {
		if err := l.Set(v); err != nil {
			t.Fatal(err)
		}
	}
	if len(l) != 2 || l[1].Volume != 16 {
		t.Errorf("Unexpected voice list %+v", l)
	}
	if s := l.String(); s != "a.wav,b.mod" {
		t.Errorf("Expected a.wav,b.mod, got %q", s)
	}
	if err := l.Set("c.wav:x"); err == nil {
		t.Error("Expected an error for a bad volume")
	}
}

func writeMonoWAV(t *testing.T, name string, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVoiceSpecVoices(t *testing.T) {
	path := writeMonoWAV(t, "tone.wav", []int{256, -256, 32767})

	voices, err := VoiceSpec{Path: path, Volume: 40, Pan: 10}.Voices()
	if err != nil {
		t.Fatal(err)
	}

	want := []engine.Voice{{
		Name:   "tone#1",
		Data:   []int8{1, -1, 127},
		Rate:   8000,
		Volume: 40,
		Pan:    10,
	}}
	if diff := cmp.Diff(want, voices); diff != "" {
		t.Errorf("Voices() mismatch (-want +got):\n%s", diff)
	}
}

func TestVoiceSpecDefaults(t *testing.T) {
	path := writeMonoWAV(t, "tone.wav", []int{256})

	voices, err := VoiceSpec{Path: path, Volume: -1, Pan: -1}.Voices()
	if err != nil {
		t.Fatal(err)
	}
	if voices[0].Volume != 64 || voices[0].Pan != 64 {
		t.Errorf("Expected full volume in the centre, got volume %d pan %d", voices[0].Volume, voices[0].Pan)
	}
}

func TestVoiceSpecMissingFile(t *testing.T) {
	vs := VoiceSpec{Path: filepath.Join(t.TempDir(), "missing.wav")}
	if _, err := vs.Voices(); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

package source

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/go-cmp/cmp"
)

type testModSample struct {
	name      string
	data      []int8
	finetune  uint8
	volume    uint8
	loopStart int // in bytes
	loopLen   int // in bytes
}

// buildMOD returns a 4 channel M.K. module with one pattern and the given
// samples.
func buildMOD(title string, samples []testModSample) []byte {
	var b bytes.Buffer
	name := make([]byte, 20)
	copy(name, title)
	b.Write(name)

	for i := 0; i < modSamples; i++ {
		var s testModSample
		if i < len(samples) {
			s = samples[i]
		}
		sname := make([]byte, 22)
		copy(sname, s.name)
		b.Write(sname)
		binary.Write(&b, binary.BigEndian, uint16(len(s.data)/2))
		b.WriteByte(s.finetune)
		b.WriteByte(s.volume)
		binary.Write(&b, binary.BigEndian, uint16(s.loopStart/2))
		binary.Write(&b, binary.BigEndian, uint16(s.loopLen/2))
	}

	b.WriteByte(1) // orders
	b.WriteByte(0)
	b.Write(make([]byte, 128)) // all order entries are pattern 0
	b.WriteString("M.K.")
	b.Write(make([]byte, modRows*4*modBytesPerNote))

	for _, s := range samples {
		binary.Write(&b, binary.LittleEndian, s.data)
	}
	return b.Bytes()
}

func TestDecodeMOD(t *testing.T) {
	mod := buildMOD("testsong", []testModSample{
		{name: "kick", data: []int8{1, 2, 3, 4, 5, 6, 7, 8}, volume: 64},
		{name: "pad", data: []int8{-1, -2, -3, -4, -5, -6}, finetune: 1, volume: 40, loopStart: 2, loopLen: 4},
	})

	bank, err := Decode("mod", bytes.NewReader(mod))
	if err != nil {
		t.Fatal(err)
	}
	if bank.Title != "testsong" || bank.Format != "mod" {
		t.Errorf("Unexpected bank header %q %q", bank.Title, bank.Format)
	}
	if len(bank.Samples) != modSamples {
		t.Fatalf("Expected %d samples, got %d", modSamples, len(bank.Samples))
	}

	want := []Sample{
		{Name: "kick", Data: []int8{1, 2, 3, 4, 5, 6, 7, 8}, Rate: 8363, Volume: 64},
		{Name: "pad", Data: []int8{-1, -2, -3, -4, -5, -6}, Rate: 8413, Volume: 40, LoopStart: 2, LoopLen: 4},
	}
	if diff := cmp.Diff(want, bank.Playable()); diff != "" {
		t.Errorf("Decode() samples mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMODTruncatedSample(t *testing.T) {
	mod := buildMOD("short", []testModSample{
		{name: "cut", data: []int8{1, 2, 3, 4, 5, 6, 7, 8}, volume: 64, loopStart: 4, loopLen: 4},
	})
	mod = mod[:len(mod)-3]

	bank, err := Decode("mod", bytes.NewReader(mod))
	if err != nil {
		t.Fatal(err)
	}
	s := bank.Samples[0]
	if len(s.Data) != 5 {
		t.Errorf("Expected 5 samples of data, got %d", len(s.Data))
	}
	if s.LoopStart+s.LoopLen > len(s.Data) {
		t.Errorf("Loop %d+%d overruns %d samples", s.LoopStart, s.LoopLen, len(s.Data))
	}
}

func TestDecodeMODBadSignature(t *testing.T) {
	mod := buildMOD("bad", nil)
	copy(mod[1080:], "NOPE")

	_, err := Decode("mod", bytes.NewReader(mod))
	if !errors.Is(err, ErrInvalidMOD) {
		t.Errorf("Expected ErrInvalidMOD, got %v", err)
	}
	if _, err := Decode("mod", strings.NewReader("tiny")); !errors.Is(err, ErrInvalidMOD) {
		t.Errorf("Expected ErrInvalidMOD for a short file, got %v", err)
	}
}

func TestModChannels(t *testing.T) {
	tests := []struct {
		sig      string
		channels int
	}{
		{"M.K.", 4},
		{"M!K!", 4},
		{"6CHN", 6},
		{"8CHN", 8},
		{"16CH", 16},
		{"32CH", 32},
	}
	for _, tt := range tests {
		n, err := modChannels([]byte(tt.sig))
		if err != nil || n != tt.channels {
			t.Errorf("%s: expected %d channels, got %d (%v)", tt.sig, tt.channels, n, err)
		}
	}
	if _, err := modChannels([]byte("xxCH")); !errors.Is(err, ErrInvalidMOD) {
		t.Errorf("Expected ErrInvalidMOD for xxCH, got %v", err)
	}
}

// buildS3M returns a module with a single unsigned 8-bit looping instrument.
func buildS3M(data []byte, loopBegin, loopEnd uint16) []byte {
	const (
		instPara = 7  // 0x70, after the header, 2 orders and 1 parapointer
		dataPara = 12 // 0xC0, after the 80 byte instrument header
	)
	b := make([]byte, dataPara*16+len(data))

	copy(b, "s3mtest")
	b[0x1C] = 0x1A
	b[0x1D] = 16
	binary.LittleEndian.PutUint16(b[0x20:], 2) // orders
	binary.LittleEndian.PutUint16(b[0x22:], 1) // instruments
	binary.LittleEndian.PutUint16(b[0x24:], 0) // patterns
	binary.LittleEndian.PutUint16(b[0x2A:], 2) // unsigned samples
	copy(b[0x2C:], "SCRM")
	b[0x31] = 6
	b[0x32] = 125
	for i := 0; i < 32; i++ {
		b[0x40+i] = 255
	}
	b[0x60], b[0x61] = 0, 255
	binary.LittleEndian.PutUint16(b[0x62:], instPara)

	inst := b[instPara*16:]
	inst[0] = 1 // PCM
	binary.LittleEndian.PutUint16(inst[0x0E:], dataPara)
	binary.LittleEndian.PutUint16(inst[0x10:], uint16(len(data)))
	binary.LittleEndian.PutUint16(inst[0x14:], loopBegin)
	binary.LittleEndian.PutUint16(inst[0x18:], loopEnd)
	inst[0x1C] = 48 // volume
	inst[0x1F] = 1  // loop
	binary.LittleEndian.PutUint16(inst[0x20:], 8363)
	copy(inst[0x30:], "lead")
	copy(inst[0x4C:], "SCRS")

	copy(b[dataPara*16:], data)
	return b
}

func TestDecodeS3M(t *testing.T) {
	s3m := buildS3M([]byte{128, 129, 127, 0, 255, 200}, 2, 6)

	bank, err := Decode("s3m", bytes.NewReader(s3m))
	if err != nil {
		t.Fatal(err)
	}
	if bank.Title != "s3mtest" {
		t.Errorf("Expected title s3mtest, got %q", bank.Title)
	}

	want := []Sample{
		{Name: "lead", Data: []int8{0, 1, -1, -128, 127, 72}, Rate: 8363, Volume: 48, LoopStart: 2, LoopLen: 4},
	}
	if diff := cmp.Diff(want, bank.Samples); diff != "" {
		t.Errorf("Decode() samples mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeS3MNotS3M(t *testing.T) {
	if _, err := Decode("s3m", bytes.NewReader(make([]byte, 100))); !errors.Is(err, ErrInvalidS3M) {
		t.Errorf("Expected ErrInvalidS3M, got %v", err)
	}
}

func writeTestWAV(t *testing.T, path string, rate, channels, bitDepth int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, bitDepth, channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadWAVStereo16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice.wav")
	writeTestWAV(t, path, 22050, 2, 16, []int{
		32767, 32767,
		-32768, -32768,
		256, 512,
		-256, 0,
	})

	bank, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if bank.Title != "voice" || bank.Format != "wav" {
		t.Errorf("Unexpected bank header %q %q", bank.Title, bank.Format)
	}

	want := []Sample{{Data: []int8{127, -128, 1, -1}, Rate: 22050, Volume: pcmVolume}}
	if diff := cmp.Diff(want, bank.Samples); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadWAVMono8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blip.wav")
	writeTestWAV(t, path, 8000, 1, 8, []int{128, 255, 0, 100})

	bank, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int8{0, 127, -128, -28}, bank.Samples[0].Data); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeWAVInvalid(t *testing.T) {
	if _, err := Decode("wav", strings.NewReader("RIFF but not really")); !errors.Is(err, ErrInvalidFile) {
		t.Errorf("Expected ErrInvalidFile, got %v", err)
	}
}

func TestDecodeUnsupported(t *testing.T) {
	if _, err := Decode("xm", strings.NewReader("")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("Expected an error loading a missing file")
	}
}

func TestRegistry(t *testing.T) {
	want := []string{"aiff", "flac", "mod", "mp3", "ogg", "s3m", "wav"}
	if diff := cmp.Diff(want, Formats()); diff != "" {
		t.Errorf("Formats() mismatch (-want +got):\n%s", diff)
	}

	r := NewRegistry()
	r.Register("raw", DecoderFunc(func(r io.Reader) (*Bank, error) {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		data := make([]int8, len(b))
		for i := range b {
			data[i] = int8(b[i])
		}
		return pcmBank(data, 8000)
	}))
	d, ok := r.Get("raw")
	if !ok {
		t.Fatal("Registered decoder not found")
	}
	bank, err := d.Decode(bytes.NewReader([]byte{1, 255}))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int8{1, -1}, bank.Samples[0].Data); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
	if _, err := pcmBank(nil, 8000); !errors.Is(err, ErrNoAudio) {
		t.Errorf("Expected ErrNoAudio, got %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"a/b/song.MOD":  "mod",
		"drums.aif":     "aiff",
		"drums.aiff":    "aiff",
		"voice.ogg":     "ogg",
		"voice.oga":     "ogg",
		"loop.flac":     "flac",
		"noext":         "",
		"tune.s3m":      "s3m",
		"speech.v1.mp3": "mp3",
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, expected %q", path, got, want)
		}
	}
}

func TestMonoConversion(t *testing.T) {
	if diff := cmp.Diff([]int8{-1, 0, 127}, monoFromFloats([]float32{-0.004, -0.004, 0, 0.005, 1, 1}, 2)); diff != "" {
		t.Errorf("monoFromFloats() mismatch (-want +got):\n%s", diff)
	}
	// 24-bit input
	if diff := cmp.Diff([]int8{-128, 64}, monoFromInts([]int{-8388608, 4194304}, 1, 24, false)); diff != "" {
		t.Errorf("monoFromInts() mismatch (-want +got):\n%s", diff)
	}
	pcm := []byte{0x00, 0x80, 0xff, 0x7f}
	if diff := cmp.Diff([]int8{-1}, monoFromPCM16(pcm, 2)); diff != "" {
		t.Errorf("monoFromPCM16() mismatch (-want +got):\n%s", diff)
	}
}

func TestBankDump(t *testing.T) {
	bank := &Bank{Title: "t", Format: "mod", Samples: []Sample{{Name: "s", Data: []int8{1}, Rate: 8363}}}
	var b strings.Builder
	if err := bank.Dump(&b); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "Rate:\t\t8363") {
		t.Errorf("Dump output missing sample rate:\n%s", b.String())
	}
}

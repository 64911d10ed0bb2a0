// Package source loads 8-bit mono samples for the engine.
//
// PCM formats (WAV, AIFF, MP3, Ogg Vorbis, FLAC) are downmixed to a single
// channel and quantized to signed 8 bits. Tracker formats (MOD, S3M) return
// their instrument bank; pattern data is skipped.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidMOD        = errors.New("invalid MOD file")
	ErrInvalidS3M        = errors.New("invalid S3M file")
	ErrInvalidFile       = errors.New("invalid file")
	ErrNoAudio           = errors.New("no audio data")
)

// Sample holds 8-bit sample data and how to play it.
type Sample struct {
	Name string
	Data []int8

	Rate      uint // playback rate in Hz at the sample's natural pitch
	Volume    int  // 0-64
	LoopStart int
	LoopLen   int // 0 = no loop
}

func (s Sample) String() string {
	return fmt.Sprintf(
		"\tName:\t\t%s\n"+
			"\tLength:\t\t%d\n"+
			"\tRate:\t\t%d\n"+
			"\tVolume:\t\t%d\n"+
			"\tLoop Start:\t%d\n"+
			"\tLoop Len:\t%d\n", s.Name, len(s.Data), s.Rate, s.Volume, s.LoopStart, s.LoopLen,
	)
}

// Bank is the result of decoding one file.
type Bank struct {
	Title   string
	Format  string
	Samples []Sample
}

// Dump writes a description of the bank and its samples to w.
func (b *Bank) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Title:\t\t%s\nFormat:\t\t%s\nSamples:\t%d\n\n", b.Title, b.Format, len(b.Samples)); err != nil {
		return err
	}
	for i, s := range b.Samples {
		if _, err := fmt.Fprintf(w, "Sample %d x%02X\n%s\n", i, i, s); err != nil {
			return err
		}
	}
	return nil
}

// Playable returns the samples that have data.
func (b *Bank) Playable() []Sample {
	var out []Sample
	for _, s := range b.Samples {
		if len(s.Data) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Decoder turns a file into a Bank.
type Decoder interface {
	Decode(r io.Reader) (*Bank, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(r io.Reader) (*Bank, error)

func (f DecoderFunc) Decode(r io.Reader) (*Bank, error) { return f(r) }

// Registry maps format names ("wav", "mod", ...) to decoders.
type Registry struct {
	mu     sync.Mutex
	codecs map[string]Decoder
}

func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

func (r *Registry) Register(format string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.codecs[format] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.codecs[format]
	return d, ok
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	formats := make([]string, 0, len(r.codecs))
	for f := range r.codecs {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

var defaultRegistry = NewRegistry()

func init() {
	defaultRegistry.Register("wav", DecoderFunc(decodeWAV))
	defaultRegistry.Register("aiff", DecoderFunc(decodeAIFF))
	defaultRegistry.Register("mp3", DecoderFunc(decodeMP3))
	defaultRegistry.Register("ogg", DecoderFunc(decodeVorbis))
	defaultRegistry.Register("flac", DecoderFunc(decodeFLAC))
	defaultRegistry.Register("mod", DecoderFunc(decodeMOD))
	defaultRegistry.Register("s3m", DecoderFunc(decodeS3M))
}

// Register adds or replaces a decoder in the default registry.
func Register(format string, d Decoder) { defaultRegistry.Register(format, d) }

// Lookup returns the decoder for format from the default registry.
func Lookup(format string) (Decoder, bool) { return defaultRegistry.Get(format) }

// Formats lists the formats of the default registry.
func Formats() []string { return defaultRegistry.Formats() }

// Decode reads r as format.
func Decode(format string, r io.Reader) (*Bank, error) {
	d, ok := Lookup(format)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}

	bank, err := d.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", format, err)
	}
	bank.Format = format
	return bank, nil
}

// FormatFromPath guesses a format name from a file extension.
func FormatFromPath(path string) string {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".aif", ".aiff":
		return "aiff"
	case ".oga":
		return "ogg"
	default:
		return strings.TrimPrefix(ext, ".")
	}
}

// Load decodes the file at path, picking the format from its extension.
func Load(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bank, err := Decode(FormatFromPath(path), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if bank.Title == "" {
		bank.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return bank, nil
}

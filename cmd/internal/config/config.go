// Package config holds the settings shared by the chanmix commands.
package config

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/chriskillpack/chanmix"
	"github.com/chriskillpack/chanmix/engine"
	"github.com/chriskillpack/chanmix/internal/comb"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// bufFrames is the size of the reverb output buffer in stereo frames.
const bufFrames = 10 * 1024

// Settings are read from the environment (and a .env file) and can then be
// overridden on the command line.
type Settings struct {
	Hz      int    `env:"CHANMIX_HZ, default=44100"`
	Reverb  string `env:"CHANMIX_REVERB, default=light"`
	Kernel  string `env:"CHANMIX_KERNEL"`
	Generic bool   `env:"CHANMIX_GENERIC"`
	Workers int    `env:"CHANMIX_WORKERS, default=1"`
	Volume  int    `env:"CHANMIX_VOLUME, default=64"`
	Debug   bool   `env:"CHANMIX_DEBUG"`
}

// Load returns the settings from the environment. Variables in a .env file in
// the working directory are added to the environment first, if the file
// exists.
func Load(ctx context.Context) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return lookup(ctx, envconfig.OsLookuper())
}

func lookup(ctx context.Context, l envconfig.Lookuper) (*Settings, error) {
	var s Settings
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &s, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	return &s, nil
}

// RegisterFlags adds a flag for each setting to flags, defaulting to the
// current value.
func (s *Settings) RegisterFlags(flags *flag.FlagSet) {
	flags.IntVar(&s.Hz, "hz", s.Hz, "output hz")
	flags.StringVar(&s.Reverb, "reverb", s.Reverb, "choose from light, medium, hall, echo or none")
	flags.StringVar(&s.Kernel, "kernel", s.Kernel, "mix kernel to use, empty picks the fastest available")
	flags.BoolVar(&s.Generic, "generic", s.Generic, "only use the scalar mix kernel")
	flags.IntVar(&s.Workers, "workers", s.Workers, "goroutines mixing each block")
	flags.IntVar(&s.Volume, "volume", s.Volume, "global volume, an integer between 0 and 64")
	flags.BoolVar(&s.Debug, "debug", s.Debug, "log voice events")
}

// Logger returns a text logger writing to w, at debug level if Debug is set.
func (s *Settings) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if s.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Mixer returns the mixer selected by Kernel and Generic.
func (s *Settings) Mixer() (*chanmix.Mixer, error) {
	var opts []chanmix.Option
	if s.Kernel != "" {
		opts = append(opts, chanmix.WithKernel(s.Kernel))
	}
	if s.Generic {
		opts = append(opts, chanmix.WithKernel("scalar"))
	}
	return chanmix.New(opts...)
}

// Engine returns an engine configured by s that logs to logger.
func (s *Settings) Engine(logger *slog.Logger) (*engine.Engine, error) {
	if s.Hz <= 0 {
		return nil, fmt.Errorf("invalid output rate %d", s.Hz)
	}
	mixer, err := s.Mixer()
	if err != nil {
		return nil, err
	}
	return engine.New(uint(s.Hz),
		engine.WithMixer(mixer),
		engine.WithWorkers(s.Workers),
		engine.WithGlobalVolume(s.Volume),
		engine.WithLogger(logger),
	)
}

// ReverbFromFlag initializes an instance of comb.Reverber according to the
// command line flag value.
func ReverbFromFlag(reverb string, sampleRate int) (r comb.Reverber, err error) {
	switch reverb {
	case "light":
		// Small room (bedroom/studio booth)
		r = comb.NewStereoReverb(bufFrames, 0.5, 0.5, 0.3, sampleRate)
	case "medium":
		// Living room/small hall
		r = comb.NewStereoReverb(bufFrames, 0.7, 0.6, 0.5, sampleRate)
	case "hall":
		// Concert hall
		r = comb.NewStereoReverb(bufFrames, 0.9, 0.7, 0.7, sampleRate)
	case "echo":
		// Slap back echo at half volume
		r = comb.NewCombFixed(bufFrames, 128, 120, sampleRate)
	case "none":
		r = comb.NewPassThrough(bufFrames * 2)
	default:
		err = fmt.Errorf("unrecognized reverb setting %q", reverb)
	}

	return r, err
}

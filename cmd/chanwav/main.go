// chanwav mixes samples with the chanmix engine and writes the result to a
// 16-bit stereo WAV file.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chriskillpack/chanmix/cmd/internal/config"
	"github.com/chriskillpack/chanmix/engine"
	"github.com/chriskillpack/chanmix/internal/comb"
	"github.com/chriskillpack/chanmix/internal/meter"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const blockFrames = 1024

func main() {
	log.SetFlags(0)
	log.SetPrefix("chanwav: ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT)
	defer stop()

	settings, err := config.Load(ctx)
	if err != nil {
		log.Fatal(err)
	}

	var voices config.VoiceList
	wavOut := flag.String("wav", "", "output to a WAVE file")
	seconds := flag.Float64("seconds", 30, "stop after this many seconds, looped samples never end")
	flag.Var(&voices, "voice", "sample file to play as path[:volume[:pan]], may be repeated")
	settings.RegisterFlags(flag.CommandLine)
	flag.Parse()

	for _, arg := range flag.Args() {
		if err := voices.Set(arg); err != nil {
			log.Fatal(err)
		}
	}
	if len(voices) == 0 {
		log.Fatal("Missing sample filename")
	}
	if *wavOut == "" {
		log.Fatal("No -wav option provided")
	}

	eng, err := settings.Engine(settings.Logger(os.Stderr))
	if err != nil {
		log.Fatal(err)
	}
	for _, vs := range voices {
		if err := addVoices(eng, vs); err != nil {
			log.Fatal(err)
		}
	}

	rvb, err := config.ReverbFromFlag(settings.Reverb, settings.Hz)
	if err != nil {
		log.Fatal(err)
	}

	wavF, err := os.Create(*wavOut)
	if err != nil {
		log.Fatal(err)
	}
	defer wavF.Close()

	enc := wav.NewEncoder(wavF, settings.Hz, 16, 2, 1)
	w := &wavWriter{enc: enc, format: &audio.Format{NumChannels: 2, SampleRate: settings.Hz}}

	frames, levels, err := render(ctx, eng, rvb, w, int(*seconds*float64(settings.Hz)))
	if err != nil {
		log.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		log.Fatal(err)
	}

	log.Printf("%s: %d frames, %s", *wavOut, frames, levels)
}

func addVoices(eng *engine.Engine, vs config.VoiceSpec) error {
	vv, err := vs.Voices()
	if err != nil {
		return err
	}
	for _, v := range vv {
		if _, err := eng.AddVoice(v); err != nil {
			return err
		}
	}
	return nil
}

type frameWriter interface {
	WriteFrames(samples []int16) error
}

type wavWriter struct {
	enc    *wav.Encoder
	format *audio.Format
	buf    audio.IntBuffer
}

func (w *wavWriter) WriteFrames(samples []int16) error {
	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		w.buf.Data[i] = int(s)
	}
	w.buf.Format = w.format
	w.buf.SourceBitDepth = 16

	return w.enc.Write(&w.buf)
}

// render plays the engine through the reverb into w until every voice has
// finished, maxFrames have been written or ctx is cancelled. It returns the
// number of frames written and the loudest levels seen.
func render(ctx context.Context, eng *engine.Engine, rvb comb.Reverber, w frameWriter, maxFrames int) (int, meter.Levels, error) {
	var (
		m       meter.Meter
		levels  meter.Levels
		written int
	)

	block := make([]int16, blockFrames*2)
	out := make([]int16, blockFrames*2)

	flush := func() error {
		for written < maxFrames {
			n := rvb.GetAudio(out[:min(len(out), (maxFrames-written)*2)])
			if n == 0 {
				return nil
			}
			if err := w.WriteFrames(out[:n]); err != nil {
				return err
			}
			levels = levels.Max(m.Measure(out[:n]))
			written += n / 2
		}
		return nil
	}

	for written < maxFrames && ctx.Err() == nil {
		n, err := eng.Render(block)
		if err != nil {
			return written, levels, err
		}
		if n == 0 {
			break
		}

		for in := block[:n*2]; len(in) > 0; {
			used := rvb.InputSamples(in)
			in = in[used:]
			if err := flush(); err != nil {
				return written, levels, err
			}
			if used == 0 && written >= maxFrames {
				break
			}
		}
	}

	return written, levels, flush()
}

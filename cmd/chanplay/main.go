// chanplay plays samples through the chanmix engine on the sound card.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"github.com/chriskillpack/chanmix/cmd/internal/config"
)

var (
	flagBackend = flag.String("backend", "portaudio", "audio output, portaudio or oto")
	flagNoUI    = flag.Bool("noui", false, "turn off all UI, mostly useful in development")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("chanplay: ")

	settings, err := config.Load(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	var voices config.VoiceList
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

	var logw io.Writer = os.Stderr
	if !*flagNoUI {
		// Log lines would scroll the display away
		logw = io.Discard
	}
	logger := settings.Logger(logw)

	eng, err := settings.Engine(logger)
	if err != nil {
		log.Fatal(err)
	}
	for _, vs := range voices {
		vv, err := vs.Voices()
		if err != nil {
			log.Fatal(err)
		}
		for _, v := range vv {
			if _, err := eng.AddVoice(v); err != nil {
				log.Fatal(err)
			}
		}
	}

	rvb, err := config.ReverbFromFlag(settings.Reverb, settings.Hz)
	if err != nil {
		log.Fatal(err)
	}

	s := newStream(eng, rvb, logger)
	out, err := newBackend(*flagBackend, s, settings.Hz)
	if err != nil {
		log.Fatal(err)
	}

	play(eng, s, out)
}

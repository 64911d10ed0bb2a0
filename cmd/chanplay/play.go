package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/chriskillpack/chanmix/engine"
	"github.com/chriskillpack/chanmix/internal/meter"
	"github.com/fatih/color"
)

var (
	white   = color.New(color.FgWhite).SprintfFunc()
	cyan    = color.New(color.FgCyan).SprintfFunc()
	magenta = color.New(color.FgMagenta).SprintfFunc()
	yellow  = color.New(color.FgYellow).SprintfFunc()
	blue    = color.New(color.FgHiBlue).SprintFunc()
	green   = color.New(color.FgGreen).SprintfFunc()
	red     = color.New(color.FgRed).SprintfFunc()
)

const (
	escape     = "\x1b["
	hideCursor = escape + "?25l"
	showCursor = escape + "?25h"
	clearLine  = escape + "2K"
	clearDown  = escape + "J"

	maxShownVoices = 16
	meterWidth     = 40
	refresh        = 50 * time.Millisecond
)

func play(eng *engine.Engine, s *stream, out backend) {
	if err := out.Start(); err != nil {
		log.Fatal(err)
	}
	defer out.Close()

	var uiw io.Writer = os.Stdout
	if *flagNoUI {
		uiw = io.Discard
	}

	quit := make(chan struct{}, 1)
	stop := func() {
		select {
		case quit <- struct{}{}:
		default:
		}
	}

	sigch := make(chan os.Signal, 5)
	signal.Notify(sigch, syscall.SIGINT)
	go func() {
		<-sigch
		stop()
	}()

	ctl := &controls{eng: eng}
	if !*flagNoUI {
		go func() {
			keyboard.Listen(func(key keys.Key) (bool, error) {
				q, err := ctl.handle(key)
				if err != nil {
					log.Print(err)
				}
				if q {
					stop()
				}
				return q, nil
			})
		}()
	}

	// Hide the cursor
	fmt.Fprint(uiw, hideCursor)
	defer fmt.Fprint(uiw, showCursor)

	tick := time.NewTicker(refresh)
	defer tick.Stop()

	lines := 0
	for {
		select {
		case <-quit:
			return
		case <-s.Done():
			return
		case <-tick.C:
		}

		if lines > 0 {
			fmt.Fprintf(uiw, escape+"%dF", lines) // back to the top of the display
		}
		lines = draw(uiw, eng.State(), ctl.Selected(), s.Levels())
	}
}

// draw prints the engine state, a level meter and one line per voice, and
// returns the number of lines printed.
func draw(w io.Writer, state engine.State, selected int, levels meter.Levels) int {
	lines := 0
	line := func(format string, a ...any) {
		fmt.Fprintf(w, clearLine+format+"\n", a...)
		lines++
	}

	line("%s %s %s %s %d | %s", white("%dHz", state.Rate), blue("kernel"), cyan("%s", state.Kernel), blue("vol"), state.GlobalVolume, levels)
	line("")
	line(" L %s", bar(levels.PeakL))
	line(" R %s", bar(levels.PeakR))
	line("")

	for i, v := range state.Voices {
		if i == maxShownVoices {
			line("    ... %d more", len(state.Voices)-maxShownVoices)
			break
		}

		cursor := "  "
		if i == selected {
			cursor = ">>"
		}
		mute := " "
		if v.Muted {
			mute = red("M")
		}
		name := fmt.Sprintf("%-22.22s", v.Name)
		if i == selected {
			name = green("%s", name)
		}
		line("%s %2d %s  %s %s %s %s %s %8d", cursor, i+1, mute, name,
			blue("vol"), magenta("%2d", v.Volume), blue("pan"), yellow("%3d", v.Pan), v.Position)
	}

	// Erase whatever is left of a longer display
	fmt.Fprint(w, clearDown)
	return lines
}

// bar draws a level as a horizontal bar.
func bar(level float64) string {
	n := int(min(max(level, 0), 1) * meterWidth)
	s := strings.Repeat("#", n) + strings.Repeat(" ", meterWidth-n)
	switch {
	case level >= 0.99:
		return red("%s", s)
	case level >= 0.5:
		return yellow("%s", s)
	}
	return green("%s", s)
}

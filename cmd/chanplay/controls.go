package main

import (
	"errors"
	"sync"

	"atomicgo.dev/keyboard/keys"
	"github.com/chriskillpack/chanmix/engine"
	"github.com/google/uuid"
)

// controls applies key presses to the engine's voices.
type controls struct {
	eng *engine.Engine

	mu       sync.Mutex
	selected int
	solo     uuid.UUID // uuid.Nil when no voice is soloed
}

// handle applies key and reports whether the player should quit.
func (c *controls) handle(key keys.Key) (quit bool, err error) {
	switch key.Code {
	case keys.CtrlC, keys.Escape:
		return true, nil
	case keys.Left:
		c.move(-1)
	case keys.Right:
		c.move(1)
	case keys.Up:
		err = c.nudgeVolume(4)
	case keys.Down:
		err = c.nudgeVolume(-4)
	case keys.RuneKey:
		switch key.Runes[0] {
		case 'q':
			err = c.toggleMute()
		case 's':
			err = c.toggleSolo()
		}
	}
	return false, err
}

// Selected returns the index of the selected voice.
func (c *controls) Selected() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

func (c *controls) move(delta int) {
	n := len(c.eng.Voices())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = max(min(c.selected+delta, n-1), 0)
}

// current returns the selected voice, clamping the selection to the voices
// still playing.
func (c *controls) current() (engine.VoiceState, bool) {
	state := c.eng.State()

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(state.Voices) == 0 {
		return engine.VoiceState{}, false
	}
	c.selected = min(c.selected, len(state.Voices)-1)
	return state.Voices[c.selected], true
}

func (c *controls) toggleMute() error {
	v, ok := c.current()
	if !ok {
		return nil
	}
	return gone(c.eng.SetMute(v.ID, !v.Muted))
}

// toggleSolo mutes every voice but the selected one, or unmutes them all if
// it is already soloed.
func (c *controls) toggleSolo() error {
	v, ok := c.current()
	if !ok {
		return nil
	}

	c.mu.Lock()
	unsolo := c.solo == v.ID
	if unsolo {
		c.solo = uuid.Nil
	} else {
		c.solo = v.ID
	}
	c.mu.Unlock()

	for _, id := range c.eng.Voices() {
		if err := gone(c.eng.SetMute(id, !unsolo && id != v.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (c *controls) nudgeVolume(delta int) error {
	v, ok := c.current()
	if !ok {
		return nil
	}
	return gone(c.eng.SetVolume(v.ID, max(min(v.Volume+delta, 64), 0)))
}

// gone drops the error for a voice that finished while a key was handled.
func gone(err error) error {
	if errors.Is(err, engine.ErrUnknownVoice) {
		return nil
	}
	return err
}

package tts

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeEngine struct {
	spoken []string
	err    error
}

func (f *fakeEngine) Synthesize(text string) error {
	f.spoken = append(f.spoken, text)
	return f.err
}

func TestSpeaker_SynthesizesWhenRunning(t *testing.T) {
	eng := &fakeEngine{}
	var down atomic.Bool

	s := NewSpeaker("Aria", eng, &down)
	s.Say("hello")

	assert.Equal(t, []string{"hello"}, eng.spoken)
}

func TestSpeaker_SkipsSynthesisDuringShutdown(t *testing.T) {
	eng := &fakeEngine{}
	var down atomic.Bool
	down.Store(true)

	s := NewSpeaker("Aria", eng, &down)
	s.Say("goodbye")

	assert.Empty(t, eng.spoken)
}

func TestSpeaker_NilEngineIsLogOnly(t *testing.T) {
	var down atomic.Bool
	s := NewSpeaker("Aria", nil, &down)

	assert.NotPanics(t, func() { s.Say("just logging") })
}

func TestSpeaker_EngineErrorDoesNotPropagate(t *testing.T) {
	eng := &fakeEngine{err: errors.New("device busy")}
	var down atomic.Bool

	s := NewSpeaker("Aria", eng, &down)
	assert.NotPanics(t, func() { s.Say("hello") })
}

func TestSpeaker_PublishHook(t *testing.T) {
	var got []string
	var down atomic.Bool

	s := NewSpeaker("Aria", nil, &down)
	s.OnSay(func(kind, text string) { got = append(got, kind+":"+text) })
	s.Say("hi there")
	s.Say("")

	assert.Equal(t, []string{"said:hi there"}, got)
}

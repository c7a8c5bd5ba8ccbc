package tts

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Engine turns text into audible speech.
type Engine interface {
	Synthesize(text string) error
}

// Speaker is the single spoken-output path of the assistant. Every
// utterance is logged even when no engine is available or the process
// is shutting down; audible synthesis is best-effort and its errors
// never propagate to handlers.
type Speaker struct {
	name         string
	engine       Engine // nil = log-only
	shuttingDown *atomic.Bool
	publish      func(kind, text string) // optional console hook
	log          *slog.Logger

	// espeak-ng init/terminate is not thread-safe; one utterance at a
	// time regardless of which goroutine asks
	mu sync.Mutex
}

func NewSpeaker(name string, engine Engine, shuttingDown *atomic.Bool) *Speaker {
	return &Speaker{
		name:         name,
		engine:       engine,
		shuttingDown: shuttingDown,
		log:          slog.Default().With("who", name),
	}
}

// OnSay registers a hook invoked for every utterance (used by the
// websocket console).
func (s *Speaker) OnSay(fn func(kind, text string)) {
	s.publish = fn
}

func (s *Speaker) Say(text string) {
	if text == "" {
		return
	}

	s.log.Info(text)
	if s.publish != nil {
		s.publish("said", text)
	}

	if s.engine == nil {
		return
	}
	if s.shuttingDown != nil && s.shuttingDown.Load() {
		s.log.Debug("synthesis skipped, shutting down")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.Synthesize(text); err != nil {
		s.log.Error("speech synthesis failed", "err", err)
	}
}

package speech

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"aria/internal/audio"
	"aria/pkg/audioconv"
	"aria/pkg/stt"
)

// Transcriber is what the listener needs from the whisper wrapper.
type Transcriber interface {
	TranscribePCM(ctx context.Context, pcm []float32, opt stt.Options) (stt.Result, error)
}

// Capturer records one phrase from the microphone.
type Capturer interface {
	Capture(p audio.CaptureParams) ([]float32, error)
}

type Listener struct {
	cap          Capturer
	tr           Transcriber
	params       audio.CaptureParams
	language     string
	chime        func()                         // optional pre-listen cue
	duck         func(ctx context.Context) func() // optional; returns restore
	shuttingDown *atomic.Bool
	log          *slog.Logger
}

type ListenerConfig struct {
	Capturer     Capturer
	Transcriber  Transcriber
	Params       audio.CaptureParams
	Language     string
	Chime        func()
	Duck         func(ctx context.Context) func()
	ShuttingDown *atomic.Bool
}

func NewListener(cfg ListenerConfig) *Listener {
	return &Listener{
		cap:          cfg.Capturer,
		tr:           cfg.Transcriber,
		params:       cfg.Params,
		language:     cfg.Language,
		chime:        cfg.Chime,
		duck:         cfg.Duck,
		shuttingDown: cfg.ShuttingDown,
		log:          slog.Default().With("part", "listen"),
	}
}

// Listen blocks for one phrase and returns lowercase recognized text,
// or a sentinel code. It never panics and never returns an error
// across this boundary.
func (l *Listener) Listen(ctx context.Context) string {
	if l.shuttingDown != nil && l.shuttingDown.Load() {
		return Shutdown
	}

	if l.chime != nil {
		l.chime()
	}
	if l.duck != nil {
		restore := l.duck(ctx)
		defer restore()
	}

	l.log.Info("listening",
		"onset_timeout", l.params.OnsetTimeout,
		"phrase_limit", l.params.PhraseLimit)

	pcm, err := l.cap.Capture(l.params)
	if err != nil {
		if errors.Is(err, audio.ErrNoSpeech) {
			l.log.Info("no speech detected before timeout")
			return Timeout
		}
		l.log.Error("audio capture failed", "err", err)
		return AudioError
	}

	return l.recognize(ctx, pcm)
}

// ListenFile decodes a pre-recorded audio file and transcribes it.
// Used by the control-socket inject path and handy for testing without
// a microphone.
func (l *Listener) ListenFile(ctx context.Context, path string) string {
	pcm, err := audioconv.DecodeFile(path, audioconv.Options{})
	if err != nil {
		l.log.Error("decode audio file failed", "path", path, "err", err)
		return AudioError
	}
	return l.recognize(ctx, pcm)
}

func (l *Listener) recognize(ctx context.Context, pcm []float32) string {
	l.log.Debug("recognizing", "samples", len(pcm))

	tctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	res, err := l.tr.TranscribePCM(tctx, pcm, stt.Options{Language: l.language})
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) {
			l.log.Error("recognition network error", "err", err)
			return NetworkError
		}
		l.log.Error("recognition failed", "err", err)
		return RecognitionError
	}

	text := strings.ToLower(strings.TrimSpace(res.Text))
	if text == "" {
		l.log.Info("recognition produced no text")
		return RecognitionError
	}

	l.log.Info("heard", "text", text, "lang", res.Language)
	return text
}

package audio

import (
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

// ErrNoSpeech is returned when no speech onset is detected before the
// configured timeout elapses.
var ErrNoSpeech = errors.New("no speech detected")

const (
	sampleRate    = 16000
	frameSize     = 320 // 20ms
	frameDuration = 20 * time.Millisecond

	// floor for the energy gate when the room is very quiet
	baseThreshRMS = 0.015
)

type CaptureParams struct {
	Calibration  time.Duration // ambient noise measurement window
	OnsetTimeout time.Duration // max wait for speech to start
	PhraseLimit  time.Duration // max capture length once speaking
	Pause        time.Duration // silence run that ends the phrase
}

type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Capture blocks until a phrase has been recorded or the onset timeout
// fires. The first Calibration worth of frames is used to measure
// ambient noise; the energy gate is set above that measurement so a
// noisy room does not trigger endless phantom speech.
func (r *Recorder) Capture(p CaptureParams) ([]float32, error) {
	if p.OnsetTimeout <= 0 {
		p.OnsetTimeout = 5 * time.Second
	}
	if p.PhraseLimit <= 0 {
		p.PhraseLimit = 10 * time.Second
	}
	if p.Pause <= 0 {
		p.Pause = 800 * time.Millisecond
	}

	buf := make([]float32, frameSize)
	out := make([]float32, 0, sampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	thresh := baseThreshRMS
	if p.Calibration > 0 {
		calFrames := int(p.Calibration / frameDuration)
		var ambient float64
		for i := 0; i < calFrames; i++ {
			if err := stream.Read(); err != nil {
				return nil, err
			}
			if rms := frameRMS(buf); rms > ambient {
				ambient = rms
			}
		}
		if t := ambient * 1.5; t > thresh {
			thresh = t
		}
	}

	var (
		speaking      bool
		silenceFrames int
		onsetFrames   = int(p.OnsetTimeout / frameDuration)
		maxFrames     = int(p.PhraseLimit / frameDuration)
		pauseFrames   = int(p.Pause / frameDuration)
	)

	for i := 0; ; i++ {
		if !speaking && i >= onsetFrames {
			return nil, ErrNoSpeech
		}
		if speaking && len(out) >= maxFrames*frameSize {
			break
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}

		if frameRMS(buf) > thresh {
			speaking = true
			silenceFrames = 0
			out = append(out, buf...)
		} else if speaking {
			silenceFrames++
			if silenceFrames >= pauseFrames {
				break
			}
			out = append(out, buf...)
		}
	}

	if len(out) == 0 {
		return nil, ErrNoSpeech
	}
	return out, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}

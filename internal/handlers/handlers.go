// Package handlers implements the behavior behind every trigger
// phrase. All external collaborators are injected so each handler is
// testable without a microphone, a browser or live services.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"os/exec"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"aria/internal/config"
)

type Voice interface {
	Say(text string)
}

// Set holds every command handler plus the seams the tests override.
type Set struct {
	voice    Voice
	cfg      *config.Config
	http     *http.Client
	followUp func(ctx context.Context) string // second listen for "take note"
	now      func() time.Time
	sleep    func(time.Duration)
	log      *slog.Logger

	weatherURL string
	wikiURL    string
	jokeURL    string

	lookPath func(name string) (string, error)
	startCmd func(name string, args ...string) error
	openURL  func(url string) error

	hostInfo   func(ctx context.Context) (*host.InfoStat, error)
	cpuPercent func(ctx context.Context) ([]float64, error)
	vmStat     func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

// capitalize upper-cases the first rune, for speaking city and site
// names the recognizer lowercased.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func NewSet(cfg *config.Config, voice Voice, httpClient *http.Client, followUp func(ctx context.Context) string) *Set {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Set{
		voice:    voice,
		cfg:      cfg,
		http:     httpClient,
		followUp: followUp,
		now:      time.Now,
		sleep:    time.Sleep,
		log:      slog.Default().With("part", "handlers"),

		weatherURL: "https://api.openweathermap.org/data/2.5/weather",
		wikiURL:    "https://en.wikipedia.org/api/rest_v1/page/summary",
		jokeURL:    "https://v2.jokeapi.dev/joke/Any?safe-mode",

		lookPath: exec.LookPath,
		startCmd: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
		openURL: browser.OpenURL,

		hostInfo: host.InfoWithContext,
		cpuPercent: func(ctx context.Context) ([]float64, error) {
			return cpu.PercentWithContext(ctx, 500*time.Millisecond, false)
		},
		vmStat: mem.VirtualMemoryWithContext,
	}
}

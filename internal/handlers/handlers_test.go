package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aria/internal/config"
	"aria/internal/speech"
)

type spokenLog struct {
	lines []string
}

func (s *spokenLog) Say(text string) { s.lines = append(s.lines, text) }

func (s *spokenLog) joined() string { return strings.Join(s.lines, "\n") }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("OPENWEATHERMAP_API_KEY", "")
	t.Setenv("LLM_API_KEY", "")
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(""), 0o644))
	cfg, err := config.Load(cfgPath, "")
	require.NoError(t, err)
	cfg.General.NotesFile = filepath.Join(t.TempDir(), "notes.txt")
	return cfg
}

func newTestSet(t *testing.T, cfg *config.Config) (*Set, *spokenLog) {
	t.Helper()
	voice := &spokenLog{}
	s := NewSet(cfg, voice, &http.Client{Timeout: 5 * time.Second}, nil)
	s.sleep = func(time.Duration) {}
	return s, voice
}

func TestGreeting(t *testing.T) {
	cfg := testConfig(t)
	cfg.General.UserName = "Ada"
	s, voice := newTestSet(t, cfg)

	require.NoError(t, s.Greeting(context.Background(), "hello"))
	assert.Contains(t, voice.joined(), "Hello Ada!")
}

func TestPersonalInfo(t *testing.T) {
	cfg := testConfig(t)
	cfg.General.UserName = "Ada"
	cfg.General.DeveloperName = "Grace"
	cfg.General.AssistantName = "Aria"

	cases := map[string]string{
		"what is my name": "Ada",
		"who made you":    "Grace",
		"your name":       "Aria",
		"my hobby":        cfg.General.UserHobby,
	}
	for cmd, want := range cases {
		s, voice := newTestSet(t, cfg)
		require.NoError(t, s.PersonalInfo(context.Background(), cmd))
		assert.Contains(t, voice.joined(), want, cmd)
	}
}

func TestTimeAndDate(t *testing.T) {
	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)
	s.now = func() time.Time {
		return time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)
	}

	require.NoError(t, s.Time(context.Background(), "what time is it"))
	require.NoError(t, s.Date(context.Background(), "today's date"))

	assert.Contains(t, voice.joined(), "2:30 PM")
	assert.Contains(t, voice.joined(), "March 5, 2024")
}

func TestWeather_ParisScenario(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "paris", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Write([]byte(`{
			"name": "Paris",
			"main": {"temp": 18.0, "feels_like": 17.0, "humidity": 60},
			"weather": [{"description": "clear sky"}]
		}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Keys.OpenWeatherMap = "test-key"
	s, voice := newTestSet(t, cfg)
	s.weatherURL = srv.URL

	require.NoError(t, s.Weather(context.Background(), "weather in paris"))

	out := voice.joined()
	assert.Contains(t, out, "Paris")
	assert.Contains(t, out, "clear sky")
	assert.Contains(t, out, "18.0")
}

func TestWeather_MissingKeyDisablesFeature(t *testing.T) {
	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)
	s.weatherURL = "http://127.0.0.1:1" // must never be contacted

	require.NoError(t, s.Weather(context.Background(), "weather in paris"))
	assert.Contains(t, voice.joined(), "API key missing")
}

func TestWeather_CityNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod": "404", "message": "city not found"}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Keys.OpenWeatherMap = "test-key"
	s, voice := newTestSet(t, cfg)
	s.weatherURL = srv.URL

	require.NoError(t, s.Weather(context.Background(), "weather in atlantis"))
	assert.Contains(t, voice.joined(), "couldn't find weather data")
}

func TestWeather_NoCity(t *testing.T) {
	cfg := testConfig(t)
	cfg.Keys.OpenWeatherMap = "test-key"
	s, voice := newTestSet(t, cfg)

	require.NoError(t, s.Weather(context.Background(), "weather in"))
	assert.Contains(t, voice.joined(), "Which city")
}

func TestWikipedia_Summary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "Go_(programming_language)")
		w.Write([]byte(`{"type": "standard", "title": "Go", "extract": "Go is a statically typed language."}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)
	s.wikiURL = srv.URL

	require.NoError(t, s.Wikipedia(context.Background(), "tell me about Go_(programming_language)"))
	assert.Contains(t, voice.joined(), "statically typed")
}

func TestWikipedia_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)
	s.wikiURL = srv.URL

	require.NoError(t, s.Wikipedia(context.Background(), "wikipedia gibberish topic"))
	assert.Contains(t, voice.joined(), "couldn't find a Wikipedia page")
}

func TestWikipedia_Disambiguation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type": "disambiguation", "title": "Mercury"}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)
	s.wikiURL = srv.URL

	require.NoError(t, s.Wikipedia(context.Background(), "wikipedia mercury"))
	assert.Contains(t, voice.joined(), "could mean several things")
}

func TestJoke_Single(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": false, "type": "single", "joke": "A classic one-liner."}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)
	s.jokeURL = srv.URL

	require.NoError(t, s.Joke(context.Background(), "tell me a joke"))
	assert.Contains(t, voice.joined(), "A classic one-liner.")
}

func TestJoke_TwoPart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": false, "type": "twopart", "setup": "The setup.", "delivery": "The punchline."}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)
	s.jokeURL = srv.URL

	require.NoError(t, s.Joke(context.Background(), "say a joke"))
	require.Len(t, voice.lines, 3) // announcement, setup, delivery
	assert.Equal(t, "The setup.", voice.lines[1])
	assert.Equal(t, "The punchline.", voice.lines[2])
}

func TestOpen_KnownWebsite(t *testing.T) {
	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)

	var opened string
	s.openURL = func(u string) error { opened = u; return nil }

	require.NoError(t, s.Open(context.Background(), "open youtube"))
	assert.Equal(t, "https://www.youtube.com", opened)
	assert.Contains(t, voice.joined(), "Opening Youtube")
}

func TestOpen_NoMatchingAppReportsFailure(t *testing.T) {
	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)

	// platform lacking any matching editor: nothing resolves, nothing starts
	s.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	s.startCmd = func(string, ...string) error { return errors.New("no such app") }

	require.NoError(t, s.Open(context.Background(), "open notepad"))
	assert.Contains(t, voice.joined(), "couldn't find or open 'notepad'")
}

func TestOpen_LaunchesFirstAvailableCandidate(t *testing.T) {
	cfg := testConfig(t)
	s, _ := newTestSet(t, cfg)

	var started []string
	s.lookPath = func(name string) (string, error) {
		if name == "kate" || name == "calc" || name == "gnome-calculator" || name == "notepad" || name == "gedit" {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}
	s.startCmd = func(name string, args ...string) error {
		started = append(started, name)
		return nil
	}

	require.NoError(t, s.Open(context.Background(), "open text editor"))
	require.NotEmpty(t, started)
}

func TestOpen_EmptyTarget(t *testing.T) {
	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)

	require.NoError(t, s.Open(context.Background(), "open"))
	assert.Contains(t, voice.joined(), "What should I open?")
}

func TestWebSearch_OpensBrowser(t *testing.T) {
	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)

	var opened string
	s.openURL = func(u string) error { opened = u; return nil }

	require.NoError(t, s.WebSearch(context.Background(), "search for go closures"))
	assert.Equal(t, "https://www.google.com/search?q=go+closures", opened)
	assert.Contains(t, voice.joined(), "go closures")
}

func TestWebSearch_EmptyTerm(t *testing.T) {
	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)

	require.NoError(t, s.WebSearch(context.Background(), "search for "))
	assert.Contains(t, voice.joined(), "What should I search")
}

func readNotes(t *testing.T, cfg *config.Config) []string {
	t.Helper()
	data, err := os.ReadFile(cfg.General.NotesFile)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestTakeNote_InlineAppendsExactlyOneLine(t *testing.T) {
	cfg := testConfig(t)
	s, _ := newTestSet(t, cfg)
	s.now = func() time.Time {
		return time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)
	}

	require.NoError(t, s.TakeNote(context.Background(), "take note buy milk"))

	lines := readNotes(t, cfg)
	require.Len(t, lines, 1)
	assert.Equal(t, "[2024-03-05 14:30:00] buy milk", lines[0])
}

func TestTakeNote_FollowUpAppendsOneLine(t *testing.T) {
	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)
	s.followUp = func(ctx context.Context) string { return "water the plants" }

	require.NoError(t, s.TakeNote(context.Background(), "take note"))

	lines := readNotes(t, cfg)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "water the plants")
	assert.Contains(t, voice.joined(), "What note should I take?")
}

func TestTakeNote_SentinelFollowUpCancels(t *testing.T) {
	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)
	s.followUp = func(ctx context.Context) string { return speech.Timeout }

	require.NoError(t, s.TakeNote(context.Background(), "take note"))

	assert.Empty(t, readNotes(t, cfg))
	assert.Contains(t, voice.joined(), "cancelling")
}

func TestTakeNote_EmptyFollowUpCancels(t *testing.T) {
	cfg := testConfig(t)
	s, _ := newTestSet(t, cfg)
	s.followUp = func(ctx context.Context) string { return "   " }

	require.NoError(t, s.TakeNote(context.Background(), "take note"))
	assert.Empty(t, readNotes(t, cfg))
}

func TestSystemInfo_Report(t *testing.T) {
	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)
	s.hostInfo = func(ctx context.Context) (*host.InfoStat, error) {
		return &host.InfoStat{Platform: "arch", PlatformVersion: "rolling", KernelArch: "x86_64"}, nil
	}
	s.cpuPercent = func(ctx context.Context) ([]float64, error) { return []float64{42.4}, nil }
	s.vmStat = func(ctx context.Context) (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{UsedPercent: 61.0, Available: 8 << 30}, nil
	}

	require.NoError(t, s.SystemInfo(context.Background(), "system information"))

	out := voice.joined()
	assert.Contains(t, out, "arch rolling")
	assert.Contains(t, out, "CPU at 42 percent")
	assert.Contains(t, out, "8.00 gigabytes free")
}

func TestSystemInfo_EmptyCPUSampleIsAnError(t *testing.T) {
	cfg := testConfig(t)
	s, voice := newTestSet(t, cfg)
	s.hostInfo = func(ctx context.Context) (*host.InfoStat, error) {
		return &host.InfoStat{Platform: "arch"}, nil
	}
	s.cpuPercent = func(ctx context.Context) ([]float64, error) { return nil, nil }
	s.vmStat = func(ctx context.Context) (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{}, nil
	}

	err := s.SystemInfo(context.Background(), "system status")
	require.Error(t, err, "an empty sample must surface to the dispatch boundary")
	assert.Contains(t, voice.joined(), "couldn't retrieve system details")
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Paris", capitalize("paris"))
	assert.Equal(t, "New york", capitalize("new york"))
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "École", capitalize("école"))
}

func TestWeatherCity(t *testing.T) {
	assert.Equal(t, "paris", weatherCity("weather in paris"))
	assert.Equal(t, "new york", weatherCity("weather for new york?"))
	assert.Equal(t, "", weatherCity("weather"))
}

func TestNormalizeApp(t *testing.T) {
	assert.Equal(t, "notepad", normalizeApp("text editor"))
	assert.Equal(t, "calculator", normalizeApp("calc"))
	assert.Equal(t, "spotify", normalizeApp("spotify"))
}

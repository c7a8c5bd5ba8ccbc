package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config is loaded once at startup and treated as immutable afterwards.
// A missing config file is fatal; missing individual keys only disable
// the dependent feature (the accessors below report availability).
type Config struct {
	General General `toml:"general"`
	Keys    Keys    `toml:"api_keys"`
	LLM     LLM     `toml:"llm"`
	Scrape  Scrape  `toml:"scrape"`
	Speech  Speech  `toml:"speech"`
	Audio   Audio   `toml:"audio"`
	Net     Net     `toml:"net"`
}

type General struct {
	AssistantName string `toml:"assistant_name"`
	UserName      string `toml:"user_name"`
	UserHobby     string `toml:"user_hobby"`
	DeveloperName string `toml:"developer_name"`
	NotesFile     string `toml:"notes_file"`
	LogFile       string `toml:"log_file"`
}

type Keys struct {
	OpenWeatherMap string `toml:"openweathermap"`
	LLM            string `toml:"llm"`
}

type LLM struct {
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

type Scrape struct {
	MaxChars    int  `toml:"max_chars"`
	TimeoutSecs int  `toml:"timeout_seconds"`
	Headless    bool `toml:"headless"`
}

type Speech struct {
	ModelPath      string  `toml:"whisper_model"`
	Language       string  `toml:"language"`
	MicTimeoutSecs int     `toml:"mic_timeout_seconds"`
	PhraseLimit    int     `toml:"phrase_limit_seconds"`
	PauseThreshold float64 `toml:"pause_threshold_seconds"`
}

type Audio struct {
	ChimeFile  string  `toml:"chime_file"`
	Duck       bool    `toml:"duck"`
	DuckFactor float64 `toml:"duck_factor"`
}

type Net struct {
	SocksProxy  string `toml:"socks_proxy"`
	ConsoleAddr string `toml:"console_addr"`
	SocketPath  string `toml:"socket_path"`
}

// Load reads the TOML config at path, then overlays API keys from the
// environment (optionally seeded from envFile). The file itself being
// absent or unparseable is an error; everything inside it has a default.
func Load(path, envFile string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if envFile != "" {
		godotenv.Load(envFile)
	}
	if k := os.Getenv("OPENWEATHERMAP_API_KEY"); k != "" {
		cfg.Keys.OpenWeatherMap = k
	}
	if k := os.Getenv("LLM_API_KEY"); k != "" {
		cfg.Keys.LLM = k
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		General: General{
			AssistantName: "Aria",
			UserName:      "User",
			UserHobby:     "exploring",
			DeveloperName: "Developer",
			NotesFile:     "notes.txt",
			LogFile:       "aria.log",
		},
		LLM: LLM{
			BaseURL:     "",
			Model:       "llama3-8b-8192",
			MaxTokens:   200,
			Temperature: 0.7,
		},
		Scrape: Scrape{
			MaxChars:    6000,
			TimeoutSecs: 15,
			Headless:    true,
		},
		Speech: Speech{
			ModelPath:      "models/ggml-base.en.bin",
			Language:       "en",
			MicTimeoutSecs: 5,
			PhraseLimit:    10,
			PauseThreshold: 0.8,
		},
		Audio: Audio{
			Duck:       false,
			DuckFactor: 0.3,
		},
		Net: Net{
			SocketPath: "/tmp/aria.sock",
		},
	}
}

func (c *Config) WeatherEnabled() bool { return c.Keys.OpenWeatherMap != "" }
func (c *Config) LLMEnabled() bool     { return c.Keys.LLM != "" }

func (c *Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutSecs) * time.Second
}

func (c *Config) MicTimeout() time.Duration {
	return time.Duration(c.Speech.MicTimeoutSecs) * time.Second
}

func (c *Config) PhraseLimit() time.Duration {
	return time.Duration(c.Speech.PhraseLimit) * time.Second
}

func (c *Config) PauseThreshold() time.Duration {
	return time.Duration(c.Speech.PauseThreshold * float64(time.Second))
}

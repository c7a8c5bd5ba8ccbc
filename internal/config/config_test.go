package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileIsFatal(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), "")
	require.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""), "")
	require.NoError(t, err)

	assert.Equal(t, "Aria", cfg.General.AssistantName)
	assert.Equal(t, "notes.txt", cfg.General.NotesFile)
	assert.Equal(t, 6000, cfg.Scrape.MaxChars)
	assert.True(t, cfg.Scrape.Headless)
	assert.Equal(t, 5*time.Second, cfg.MicTimeout())
	assert.Equal(t, 800*time.Millisecond, cfg.PauseThreshold())
}

func TestLoad_MissingKeysDisableFeatures(t *testing.T) {
	os.Unsetenv("OPENWEATHERMAP_API_KEY")
	os.Unsetenv("LLM_API_KEY")

	cfg, err := Load(writeConfig(t, ""), "")
	require.NoError(t, err)

	assert.False(t, cfg.WeatherEnabled())
	assert.False(t, cfg.LLMEnabled())
}

func TestLoad_FileValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[general]
assistant_name = "Jarvis"
user_name = "Tony"

[api_keys]
openweathermap = "owm-key"

[llm]
model = "mixtral-8x7b"
max_tokens = 512

[scrape]
max_chars = 2000
headless = false
`), "")
	require.NoError(t, err)

	assert.Equal(t, "Jarvis", cfg.General.AssistantName)
	assert.Equal(t, "Tony", cfg.General.UserName)
	assert.True(t, cfg.WeatherEnabled())
	assert.Equal(t, "mixtral-8x7b", cfg.LLM.Model)
	assert.Equal(t, 512, cfg.LLM.MaxTokens)
	assert.Equal(t, 2000, cfg.Scrape.MaxChars)
	assert.False(t, cfg.Scrape.Headless)
}

func TestLoad_EnvOverlay(t *testing.T) {
	t.Setenv("LLM_API_KEY", "gsk-test")

	cfg, err := Load(writeConfig(t, ""), "")
	require.NoError(t, err)

	assert.True(t, cfg.LLMEnabled())
	assert.Equal(t, "gsk-test", cfg.Keys.LLM)
}

func TestLoad_BadTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[general\nbroken"), "")
	require.Error(t, err)
}

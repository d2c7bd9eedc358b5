package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "player.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NotNil(t, cfg.Player.Volume)
	assert.Equal(t, 0.8, *cfg.Player.Volume)
	assert.Equal(t, "off", cfg.Player.Repeat)
	assert.False(t, cfg.Player.Shuffle)
	assert.Equal(t, "beep", cfg.Output.Type)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
player:
  volume: 0.5
  repeat: all
  shuffle: true
  state_file: /tmp/musila-state.json
library:
  path: /music
  extensions: [".mp3", ".flac"]
output:
  type: beep
  settings:
    sample_rate: 48000
    buffer_ms: 50
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	require.NotNil(t, cfg.Player.Volume)
	assert.Equal(t, 0.5, *cfg.Player.Volume)
	assert.Equal(t, "all", cfg.Player.Repeat)
	assert.True(t, cfg.Player.Shuffle)
	assert.Equal(t, "/tmp/musila-state.json", cfg.Player.StateFile)
	assert.Equal(t, "/music", cfg.Library.Path)
	assert.Equal(t, []string{".mp3", ".flac"}, cfg.Library.Extensions)
}

func TestLoad_ExplicitZeroVolume(t *testing.T) {
	path := writeConfig(t, "player:\n  volume: 0\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Player.Volume)
	assert.Equal(t, 0.0, *cfg.Player.Volume, "an explicit zero must not fall back to the default")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "player: [not a map")
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "volume above one",
			content: "player:\n  volume: 1.5\n",
			errMsg:  "Volume",
		},
		{
			name:    "invalid repeat mode",
			content: "player:\n  repeat: sometimes\n",
			errMsg:  "Repeat",
		},
		{
			name:    "unknown output type",
			content: "output:\n  type: pulseaudio\n",
			errMsg:  "Type",
		},
		{
			name:    "invalid log level",
			content: "logging:\n  level: loud\n",
			errMsg:  "Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
library:
  path: /from-file
player:
  state_file: /from-file.json
`)

	t.Setenv("MUSILA_LIBRARY_PATH", "/from-env")
	t.Setenv("MUSILA_STATE_FILE", "/from-env.json")
	t.Setenv("MUSILA_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/from-env", cfg.Library.Path)
	assert.Equal(t, "/from-env.json", cfg.Player.StateFile)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestOutputConfig_DecodeSettings(t *testing.T) {
	type beepSettings struct {
		SampleRate int `mapstructure:"sample_rate"`
		BufferMs   int `mapstructure:"buffer_ms"`
	}

	oc := OutputConfig{
		Type: "beep",
		Settings: map[string]any{
			"sample_rate": 48000,
			"buffer_ms":   50,
		},
	}

	var s beepSettings
	require.NoError(t, oc.DecodeSettings(&s))
	assert.Equal(t, 48000, s.SampleRate)
	assert.Equal(t, 50, s.BufferMs)

	// Empty settings decode to zero values.
	var empty beepSettings
	require.NoError(t, (&OutputConfig{Type: "beep"}).DecodeSettings(&empty))
	assert.Zero(t, empty.SampleRate)
}

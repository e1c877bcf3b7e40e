package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Analysis.Segments)
	assert.Equal(t, 64, cfg.Analysis.MaxSegments)
	assert.Equal(t, 5, cfg.Analysis.TopN)
	assert.Equal(t, "en-US", cfg.Analysis.Language)
	assert.Equal(t, ProviderMock, cfg.Emotion.Provider)
	assert.Equal(t, ProviderNone, cfg.TTS.Provider)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.Emotion.Hume.Timeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
analysis:
  segments: 4
emotion:
  provider: hume
llm:
  provider: gemini
  gemini:
    model: gemini-2.5-flash
`), 0o600))

	t.Setenv("SIKAP_ANALYSIS_SEGMENTS", "8")
	t.Setenv("HUME_API_KEY", "hume-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Analysis.Segments, "environment overrides the file")
	assert.Equal(t, "hume-key", cfg.Emotion.Hume.APIKey)
	assert.Equal(t, "gemini-key", cfg.LLM.Gemini.APIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Gemini.Model)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero segments", func(c *Config) { c.Analysis.Segments = 0 }},
		{"segments above max", func(c *Config) { c.Analysis.MaxSegments = c.Analysis.Segments - 1 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown emotion provider", func(c *Config) { c.Emotion.Provider = "openai" }},
		{"hume without key", func(c *Config) { c.Emotion.Provider = ProviderHume; c.Emotion.Hume.APIKey = "" }},
		{"gemini without key", func(c *Config) { c.LLM.Provider = ProviderGemini; c.LLM.Gemini.APIKey = "" }},
		{"elevenlabs without key", func(c *Config) { c.TTS.Provider = ProviderElevenLabs; c.TTS.ElevenLabs.APIKey = "" }},
		{"unknown stt provider", func(c *Config) { c.STT.Provider = "whisper" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

// chdir moves into dir so no stray config.yaml is picked up
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	t.Setenv("MINIO_SECRET_KEY", "minioadmin")
	t.Setenv("SPEECH_API_KEY", "key123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "mp3", cfg.Storage.Bucket)
	assert.Equal(t, "eastus", cfg.Speech.Region)
	assert.Equal(t, "3.2", cfg.Speech.APIVersion)
	assert.Equal(t, "he-IL", cfg.Speech.Locale)
	assert.Equal(t, "./temp_audio", cfg.Local.TempAudioDir)
	assert.Equal(t, "./transcripts", cfg.Local.TranscriptDir)
	assert.Equal(t, 60, cfg.Timeouts.ConnectTimeoutSec)
	assert.Equal(t, 1900, cfg.Timeouts.ReadTimeoutSec)
	assert.Equal(t, 1800, cfg.Timeouts.FFmpegTimeoutSec)
	assert.Equal(t, 30, cfg.Timeouts.PollIntervalSec)
	assert.Equal(t, 120, cfg.Timeouts.MaxPollAttempts)
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "")
	t.Setenv("MINIO_ACCESS_KEY", "")
	t.Setenv("MINIO_SECRET_KEY", "")
	t.Setenv("SPEECH_API_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MINIO_ENDPOINT")
	assert.Contains(t, err.Error(), "SPEECH_API_KEY")
}

func TestLoadSpeech_IgnoresStorageCredentials(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "")
	t.Setenv("MINIO_ACCESS_KEY", "")
	t.Setenv("MINIO_SECRET_KEY", "")
	t.Setenv("SPEECH_API_KEY", "key123")

	cfg, err := LoadSpeech("")
	require.NoError(t, err)
	assert.Equal(t, "key123", cfg.Speech.APIKey)

	t.Setenv("SPEECH_API_KEY", "")
	_, err = LoadSpeech("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPEECH_API_KEY")
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MINIO_BUCKET", "audio-in")
	t.Setenv("SPEECH_LOCALE", "en-US")
	t.Setenv("POLLING_INTERVAL_SECONDS", "5")
	t.Setenv("MAX_POLLING_ATTEMPTS", "10")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "audio-in", cfg.Storage.Bucket)
	assert.Equal(t, "en-US", cfg.Speech.Locale)
	assert.Equal(t, 5, cfg.Timeouts.PollIntervalSec)
	assert.Equal(t, 10, cfg.Timeouts.MaxPollAttempts)
}

func TestLoad_SettingsFileThenEnvWins(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SPEECH_LOCALE", "fr-FR")

	settings := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
storage:
  bucket: yaml-bucket
speech:
  locale: de-DE
timeouts:
  poll_interval_sec: 7
`
	require.NoError(t, os.WriteFile(settings, []byte(content), 0o644))

	cfg, err := Load(settings)
	require.NoError(t, err)

	assert.Equal(t, "yaml-bucket", cfg.Storage.Bucket)
	// Env takes precedence over the settings file.
	assert.Equal(t, "fr-FR", cfg.Speech.Locale)
	assert.Equal(t, 7, cfg.Timeouts.PollIntervalSec)
}

func TestSpeechBaseURL(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "https://eastus.api.cognitive.microsoft.com/speechtotext/3.2", cfg.SpeechBaseURL())

	cfg.Speech.Endpoint = "http://localhost:8080/speechtotext/3.2/"
	assert.Equal(t, "http://localhost:8080/speechtotext/3.2", cfg.SpeechBaseURL())
}

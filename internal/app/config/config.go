// Package config loads the full configuration surface of s2t: storage
// credentials, speech service settings, local working directories and
// the timeout/polling knobs. Values come from defaults, then an
// optional YAML settings file, then environment variables (highest
// precedence). Credentials are accepted from the environment only.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage holds the object-store connection settings.
type Storage struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Speech holds the transcription service settings.
type Speech struct {
	APIKey     string `yaml:"-"`
	Region     string `yaml:"region"`
	APIVersion string `yaml:"api_version"`
	Locale     string `yaml:"locale"`
	// Endpoint overrides the regional endpoint when set.
	Endpoint string `yaml:"endpoint"`
}

// Local holds the working directories.
type Local struct {
	TempAudioDir  string `yaml:"temp_audio_dir"`
	TranscriptDir string `yaml:"transcript_dir"`
}

// Timeouts holds the timeout and polling knobs, in seconds where the
// knob is exposed to configuration.
type Timeouts struct {
	ConnectTimeoutSec int `yaml:"connect_timeout_sec"`
	ReadTimeoutSec    int `yaml:"read_timeout_sec"`
	FFmpegTimeoutSec  int `yaml:"ffmpeg_timeout_sec"`
	PollIntervalSec   int `yaml:"poll_interval_sec"`
	MaxPollAttempts   int `yaml:"max_poll_attempts"`
}

func (t Timeouts) ConnectTimeout() time.Duration {
	return time.Duration(t.ConnectTimeoutSec) * time.Second
}

func (t Timeouts) ReadTimeout() time.Duration {
	return time.Duration(t.ReadTimeoutSec) * time.Second
}

func (t Timeouts) FFmpegTimeout() time.Duration {
	return time.Duration(t.FFmpegTimeoutSec) * time.Second
}

func (t Timeouts) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalSec) * time.Second
}

// Config is the root configuration value threaded into every
// component constructor.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Speech   Speech   `yaml:"speech"`
	Local    Local    `yaml:"local"`
	Timeouts Timeouts `yaml:"timeouts"`
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		Storage: Storage{
			Bucket: "mp3",
		},
		Speech: Speech{
			Region:     "eastus",
			APIVersion: "3.2",
			Locale:     "he-IL",
		},
		Local: Local{
			TempAudioDir:  "./temp_audio",
			TranscriptDir: "./transcripts",
		},
		Timeouts: Timeouts{
			ConnectTimeoutSec: 60,
			ReadTimeoutSec:    1900,
			FFmpegTimeoutSec:  1800,
			PollIntervalSec:   30,
			MaxPollAttempts:   120,
		},
	}
}

// LoadEnv loads environment variables from a .env file if one exists
// nearby. Missing files are not an error; system-wide env still applies.
func LoadEnv() error {
	envPaths := []string{".env", ".env.local", "../.env"}
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			break
		}
	}
	return nil
}

// Load builds the configuration: defaults, then the optional YAML
// settings file, then environment overrides, then validation.
func Load(settingsPath string) (Config, error) {
	return load(settingsPath, Config.Validate)
}

// LoadSpeech is Load without the object-store credential checks, for
// commands that only talk to the transcription service.
func LoadSpeech(settingsPath string) (Config, error) {
	return load(settingsPath, Config.ValidateSpeech)
}

func load(settingsPath string, validate func(Config) error) (Config, error) {
	if err := LoadEnv(); err != nil {
		return Config{}, err
	}

	cfg := Default()

	if settingsPath != "" {
		data, err := os.ReadFile(settingsPath)
		if err != nil {
			return Config{}, fmt.Errorf("read settings file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse settings file %s: %w", settingsPath, err)
		}
	}

	applyEnv(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Storage.Endpoint, "MINIO_ENDPOINT")
	setString(&cfg.Storage.AccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.Storage.Bucket, "MINIO_BUCKET")
	setBool(&cfg.Storage.UseSSL, "MINIO_USE_SSL")

	setString(&cfg.Speech.APIKey, "SPEECH_API_KEY")
	setString(&cfg.Speech.Region, "SPEECH_REGION")
	setString(&cfg.Speech.APIVersion, "SPEECH_API_VERSION")
	setString(&cfg.Speech.Locale, "SPEECH_LOCALE")
	setString(&cfg.Speech.Endpoint, "SPEECH_ENDPOINT")

	setString(&cfg.Local.TempAudioDir, "LOCAL_TEMP_AUDIO_DIR")
	setString(&cfg.Local.TranscriptDir, "LOCAL_TRANSCRIPT_OUTPUT_DIR")

	setInt(&cfg.Timeouts.ConnectTimeoutSec, "CLIENT_CONNECTION_TIMEOUT_SECONDS")
	setInt(&cfg.Timeouts.ReadTimeoutSec, "CLIENT_READ_TIMEOUT_SECONDS")
	setInt(&cfg.Timeouts.FFmpegTimeoutSec, "FFMPEG_TIMEOUT_SECONDS")
	setInt(&cfg.Timeouts.PollIntervalSec, "POLLING_INTERVAL_SECONDS")
	setInt(&cfg.Timeouts.MaxPollAttempts, "MAX_POLLING_ATTEMPTS")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

// Validate fails fast on missing mandatory credentials, before any
// item is processed.
func (c Config) Validate() error {
	var missing []string
	if c.Storage.Endpoint == "" {
		missing = append(missing, "MINIO_ENDPOINT")
	}
	if c.Storage.AccessKey == "" {
		missing = append(missing, "MINIO_ACCESS_KEY")
	}
	if c.Storage.SecretKey == "" {
		missing = append(missing, "MINIO_SECRET_KEY")
	}
	missing = append(missing, c.missingSpeech()...)
	if len(missing) > 0 {
		return fmt.Errorf("missing mandatory configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateSpeech checks only the transcription service settings.
func (c Config) ValidateSpeech() error {
	if missing := c.missingSpeech(); len(missing) > 0 {
		return fmt.Errorf("missing mandatory configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) missingSpeech() []string {
	var missing []string
	if c.Speech.APIKey == "" {
		missing = append(missing, "SPEECH_API_KEY")
	}
	if c.Speech.Region == "" && c.Speech.Endpoint == "" {
		missing = append(missing, "SPEECH_REGION")
	}
	return missing
}

// SpeechBaseURL resolves the transcription service base URL.
func (c Config) SpeechBaseURL() string {
	if c.Speech.Endpoint != "" {
		return strings.TrimSuffix(c.Speech.Endpoint, "/")
	}
	return fmt.Sprintf("https://%s.api.cognitive.microsoft.com/speechtotext/%s", c.Speech.Region, c.Speech.APIVersion)
}

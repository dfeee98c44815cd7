// Package app assembles configuration into the concrete components
// the CLI commands run.
package app

import (
	"context"

	"go.uber.org/zap"

	"stream2text/internal/app/audio"
	"stream2text/internal/app/config"
	"stream2text/internal/app/httpx"
	"stream2text/internal/app/pipeline"
	"stream2text/internal/app/retry"
	"stream2text/internal/app/speech"
	"stream2text/internal/app/storage"
	"stream2text/internal/app/transcript"
)

func newSpeechClient(cfg config.Config, log *zap.Logger) *speech.Client {
	hc := httpx.New(cfg.Timeouts.ConnectTimeout(), cfg.Timeouts.ReadTimeout(), retry.DefaultPolicy(), log)
	return speech.NewClient(speech.Config{
		BaseURL:         cfg.SpeechBaseURL(),
		APIKey:          cfg.Speech.APIKey,
		Locale:          cfg.Speech.Locale,
		PollInterval:    cfg.Timeouts.PollInterval(),
		MaxPollAttempts: cfg.Timeouts.MaxPollAttempts,
	}, hc, log)
}

// InitializePipeline builds the full batch pipeline: ffmpeg transcoder,
// blob store, transcription client and transcript writer. Fails when
// the object store is unreachable or the bucket cannot be ensured.
func InitializePipeline(ctx context.Context, cfg config.Config, showProgress bool, log *zap.Logger) (*pipeline.Pipeline, error) {
	store, err := storage.New(ctx, cfg.Storage, retry.DefaultPolicy(), log)
	if err != nil {
		return nil, err
	}
	return pipeline.New(
		audio.NewTranscoder(cfg.Timeouts.FFmpegTimeout(), log),
		store,
		newSpeechClient(cfg, log),
		transcript.NewWriter(cfg.Local.TranscriptDir, log),
		pipeline.Options{TempAudioDir: cfg.Local.TempAudioDir, ShowProgress: showProgress},
		log,
	), nil
}

// InitializeCollector builds the reduced wiring for fetching the
// result of an already-submitted job. No storage or ffmpeg involved.
func InitializeCollector(cfg config.Config, log *zap.Logger) (*pipeline.Pipeline, *speech.Client) {
	sc := newSpeechClient(cfg, log)
	p := pipeline.New(nil, nil, sc,
		transcript.NewWriter(cfg.Local.TranscriptDir, log),
		pipeline.Options{}, log)
	return p, sc
}

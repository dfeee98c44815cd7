// Package audio adapts the external ffmpeg executable for stream
// capture: one bounded-duration process per conversion, with the
// outcome classified for the orchestrator.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrFFmpegNotFound reports that the ffmpeg executable is not
// installed or not on PATH.
var ErrFFmpegNotFound = errors.New("ffmpeg executable not found in PATH")

// Transcoder converts streaming-media URLs to local mp3 files by
// shelling out to ffmpeg. It applies no retry: conversion is expensive
// and the retry decision belongs to the caller.
type Transcoder struct {
	binary  string
	timeout time.Duration
	log     *zap.Logger
}

func NewTranscoder(timeout time.Duration, log *zap.Logger) *Transcoder {
	return &Transcoder{
		binary:  "ffmpeg",
		timeout: timeout,
		log:     log,
	}
}

// Convert captures sourceURL into an mp3 at destPath. The process is
// killed once the configured timeout elapses. Failures are classified:
// missing executable, deadline exceeded, non-zero exit (with captured
// stderr) or any other launch error.
func (t *Transcoder) Convert(ctx context.Context, sourceURL, destPath string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	t.log.Info("starting ffmpeg conversion",
		zap.String("source", sourceURL),
		zap.String("dest", destPath))

	args := []string{
		"-protocol_whitelist", "file,http,https,tcp,tls,crypto",
		"-i", sourceURL,
		"-acodec", "mp3", "-ab", "128k",
		"-vn", "-y",
		"-loglevel", "error",
		destPath,
	}
	cmd := exec.CommandContext(ctx, t.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		t.log.Info("ffmpeg conversion successful", zap.String("dest", destPath))
		return nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("ffmpeg timed out after %s: %w", t.timeout, context.DeadlineExceeded)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return ErrFFmpegNotFound
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("ffmpeg exited with code %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
	}
	return fmt.Errorf("ffmpeg failed to start: %w", err)
}

package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeStub writes an executable shell script standing in for ffmpeg.
func writeStub(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg-stub")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestConvert_Success(t *testing.T) {
	tr := NewTranscoder(10*time.Second, zap.NewNop())
	tr.binary = writeStub(t, "exit 0")

	err := tr.Convert(context.Background(), "http://example.com/stream.m3u8", filepath.Join(t.TempDir(), "out.mp3"))
	assert.NoError(t, err)
}

func TestConvert_NonZeroExitCapturesStderr(t *testing.T) {
	tr := NewTranscoder(10*time.Second, zap.NewNop())
	tr.binary = writeStub(t, `echo "stream not found" >&2; exit 1`)

	err := tr.Convert(context.Background(), "http://example.com/stream.m3u8", filepath.Join(t.TempDir(), "out.mp3"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with code 1")
	assert.Contains(t, err.Error(), "stream not found")
}

func TestConvert_Timeout(t *testing.T) {
	tr := NewTranscoder(100*time.Millisecond, zap.NewNop())
	tr.binary = writeStub(t, "sleep 5")

	err := tr.Convert(context.Background(), "http://example.com/stream.m3u8", filepath.Join(t.TempDir(), "out.mp3"))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConvert_ExecutableMissing(t *testing.T) {
	tr := NewTranscoder(10*time.Second, zap.NewNop())
	tr.binary = "ffmpeg-definitely-not-installed"

	err := tr.Convert(context.Background(), "http://example.com/stream.m3u8", filepath.Join(t.TempDir(), "out.mp3"))

	assert.True(t, errors.Is(err, ErrFFmpegNotFound))
}

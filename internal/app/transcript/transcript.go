// Package transcript turns a raw transcription result payload into
// the persisted output text. When no text can be extracted the raw
// payload is preserved on disk instead, so a failed item always
// leaves something to inspect.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"stream2text/internal/app/speech"
)

// Extract pulls the transcript text out of a result payload: the
// lexical fields of the combined phrases joined in order by single
// spaces. If that yields nothing, the top-level display text is used
// instead. An empty string means extraction failed.
func Extract(payload *speech.ResultPayload) string {
	if payload == nil {
		return ""
	}
	parts := lo.FilterMap(payload.CombinedRecognizedPhrases, func(p speech.CombinedPhrase, _ int) (string, bool) {
		return p.Lexical, p.Lexical != ""
	})
	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		text = strings.TrimSpace(payload.DisplayText)
	}
	return text
}

// Writer persists extracted transcripts under a fixed output
// directory, one text file per work item.
type Writer struct {
	outputDir string
	log       *zap.Logger
}

func NewWriter(outputDir string, log *zap.Logger) *Writer {
	return &Writer{outputDir: outputDir, log: log}
}

// Persist writes the transcript for outputName and returns the output
// path. When extraction yields no text, the raw payload is written
// pretty-printed to a sibling .raw.json path and an error is
// returned; exactly one of the two files is produced.
func (w *Writer) Persist(payload *speech.ResultPayload, outputName string) (string, error) {
	outPath := filepath.Join(w.outputDir, outputName+".txt")

	text := Extract(payload)
	if text == "" {
		rawPath := outPath + ".raw.json"
		if err := w.writeRaw(payload, rawPath); err != nil {
			return "", fmt.Errorf("no text extracted and saving raw payload failed: %w", err)
		}
		w.log.Error("no text extracted from transcript payload, raw payload saved for inspection",
			zap.String("rawPath", rawPath))
		return "", fmt.Errorf("no text extracted from transcript payload (raw payload at %s)", rawPath)
	}

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write transcript file: %w", err)
	}

	w.log.Info("transcript saved",
		zap.String("path", outPath),
		zap.Int("chars", len(text)))
	return outPath, nil
}

func (w *Writer) writeRaw(payload *speech.ResultPayload, rawPath string) error {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return err
	}

	var pretty bytes.Buffer
	if payload != nil && len(payload.Raw) > 0 {
		if err := json.Indent(&pretty, payload.Raw, "", "  "); err != nil {
			// Keep the bytes verbatim if they turn out not to be JSON.
			pretty.Reset()
			pretty.Write(payload.Raw)
		}
	} else {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		pretty.Write(data)
	}
	return os.WriteFile(rawPath, pretty.Bytes(), 0o644)
}

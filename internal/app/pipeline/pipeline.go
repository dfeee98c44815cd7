// Package pipeline drives each work item through the full processing
// sequence: transcode, upload, issue read URL, submit job, poll, fetch
// result, persist transcript. Compensating cleanup of the local audio
// file and the remote blob runs on every exit path. Items are
// processed strictly one at a time; one item's failure never aborts
// the batch.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stream2text/internal/app/speech"
)

// WorkItem is one output-name / source-URL pair from the input list.
type WorkItem struct {
	OutputName string
	SourceURL  string
}

// ParseInput reads the alternating-line input list: output name, then
// source URL, two lines per item. Blank lines are skipped; a trailing
// unpaired line is ignored with a warning.
func ParseInput(r io.Reader, log *zap.Logger) ([]WorkItem, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input list: %w", err)
	}

	if len(lines)%2 != 0 {
		log.Warn("input list has an odd number of lines, ignoring the trailing line",
			zap.String("line", lines[len(lines)-1]))
	}

	items := make([]WorkItem, 0, len(lines)/2)
	for i := 0; i+1 < len(lines); i += 2 {
		items = append(items, WorkItem{OutputName: lines[i], SourceURL: lines[i+1]})
	}
	return items, nil
}

// Transcoder converts a streaming-media URL to a local audio file.
type Transcoder interface {
	Convert(ctx context.Context, sourceURL, destPath string) error
}

// BlobStore is the object-store surface the pipeline needs.
type BlobStore interface {
	Upload(ctx context.Context, localPath, objectName string) error
	PresignedReadURL(ctx context.Context, objectName string, validity time.Duration) (string, error)
	Remove(ctx context.Context, objectName string) error
}

// JobClient is the transcription service surface the pipeline needs.
type JobClient interface {
	Submit(ctx context.Context, contentURL, jobBaseName string) (string, error)
	Poll(ctx context.Context, jobURL string) (speech.JobStatus, *speech.Transcription)
	TranscriptFileURL(ctx context.Context, job *speech.Transcription) (string, error)
	FetchResult(ctx context.Context, url string) (*speech.ResultPayload, error)
}

// TranscriptWriter persists a result payload as the item's output.
type TranscriptWriter interface {
	Persist(payload *speech.ResultPayload, outputName string) (string, error)
}

// Options holds the orchestrator knobs.
type Options struct {
	TempAudioDir string
	// ReadURLValidity bounds the signed read URL handed to the
	// transcription service. Defaults to 3 hours.
	ReadURLValidity time.Duration
	// ShowProgress renders a batch progress bar on stderr.
	ShowProgress bool
}

// Pipeline processes work items sequentially.
type Pipeline struct {
	transcoder Transcoder
	store      BlobStore
	jobs       JobClient
	writer     TranscriptWriter
	opts       Options
	log        *zap.Logger
}

func New(transcoder Transcoder, store BlobStore, jobs JobClient, writer TranscriptWriter, opts Options, log *zap.Logger) *Pipeline {
	if opts.ReadURLValidity == 0 {
		opts.ReadURLValidity = 3 * time.Hour
	}
	return &Pipeline{
		transcoder: transcoder,
		store:      store,
		jobs:       jobs,
		writer:     writer,
		opts:       opts,
		log:        log,
	}
}

// Summary tallies one batch run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

// Run processes the items strictly in input order and returns the
// final tally. Per-item failures are recorded, never propagated.
func (p *Pipeline) Run(ctx context.Context, items []WorkItem) Summary {
	summary := Summary{Total: len(items)}

	progress := newProgress(p.opts.ShowProgress, len(items))
	defer progress.Wait()

	for i, item := range items {
		p.log.Info("processing item",
			zap.Int("item", i+1),
			zap.Int("total", len(items)),
			zap.String("name", item.OutputName),
			zap.String("source", item.SourceURL))

		if err := p.ProcessItem(ctx, item); err != nil {
			summary.Failed++
			p.log.Error("item failed",
				zap.String("name", item.OutputName),
				zap.Error(err))
		} else {
			summary.Succeeded++
		}
		progress.Increment()
	}

	p.log.Info("batch complete",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))
	return summary
}

// runState tracks which side effects exist for one item, so cleanup
// knows what to reverse.
type runState struct {
	audioPath  string
	blobName   string
	jobURL     string
	transcoded bool
	uploaded   bool
}

// ProcessItem drives one work item through the full sequence. Any
// step's failure short-circuits the remaining forward steps; the
// cleanup phase runs exactly once regardless of the outcome.
func (p *Pipeline) ProcessItem(ctx context.Context, item WorkItem) error {
	name := fmt.Sprintf("%s_%s.mp3", uuid.NewString()[:8], item.OutputName)
	st := &runState{
		audioPath: filepath.Join(p.opts.TempAudioDir, name),
		blobName:  name,
	}
	defer p.cleanup(ctx, st)

	if err := p.transcoder.Convert(ctx, item.SourceURL, st.audioPath); err != nil {
		return fmt.Errorf("transcode: %w", err)
	}
	st.transcoded = true

	if err := p.store.Upload(ctx, st.audioPath, st.blobName); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	st.uploaded = true

	readURL, err := p.store.PresignedReadURL(ctx, st.blobName, p.opts.ReadURLValidity)
	if err != nil {
		return fmt.Errorf("issue read URL: %w", err)
	}

	jobURL, err := p.jobs.Submit(ctx, readURL, "transcript_"+item.OutputName)
	if err != nil {
		return fmt.Errorf("submit job: %w", err)
	}
	st.jobURL = jobURL

	status, job := p.jobs.Poll(ctx, jobURL)
	switch status {
	case speech.StatusSucceeded:
		// Fall through to result retrieval.
	case speech.StatusFailed:
		detail := ""
		if job != nil && job.Error != nil {
			detail = fmt.Sprintf(": %s (%s)", job.Error.Message, job.Error.Code)
		}
		return fmt.Errorf("transcription job failed%s", detail)
	default:
		return fmt.Errorf("transcription job did not complete: %s", status)
	}

	resultURL, err := p.jobs.TranscriptFileURL(ctx, job)
	if err != nil {
		return fmt.Errorf("locate result file: %w", err)
	}

	payload, err := p.jobs.FetchResult(ctx, resultURL)
	if err != nil {
		return fmt.Errorf("fetch result: %w", err)
	}

	outPath, err := p.writer.Persist(payload, item.OutputName)
	if err != nil {
		return fmt.Errorf("persist transcript: %w", err)
	}

	p.log.Info("item complete",
		zap.String("name", item.OutputName),
		zap.String("output", outPath))
	return nil
}

// CollectJob retrieves the transcript of an already-submitted job: the
// poll / fetch / persist tail of the sequence, with no local or remote
// artifacts to clean up.
func (p *Pipeline) CollectJob(ctx context.Context, jobURL, outputName string) error {
	status, job := p.jobs.Poll(ctx, jobURL)
	switch status {
	case speech.StatusSucceeded:
	case speech.StatusFailed:
		detail := ""
		if job != nil && job.Error != nil {
			detail = fmt.Sprintf(": %s (%s)", job.Error.Message, job.Error.Code)
		}
		return fmt.Errorf("transcription job failed%s", detail)
	default:
		return fmt.Errorf("transcription job did not complete: %s", status)
	}

	resultURL, err := p.jobs.TranscriptFileURL(ctx, job)
	if err != nil {
		return fmt.Errorf("locate result file: %w", err)
	}
	payload, err := p.jobs.FetchResult(ctx, resultURL)
	if err != nil {
		return fmt.Errorf("fetch result: %w", err)
	}
	outPath, err := p.writer.Persist(payload, outputName)
	if err != nil {
		return fmt.Errorf("persist transcript: %w", err)
	}

	p.log.Info("transcript collected",
		zap.String("jobURL", jobURL),
		zap.String("output", outPath))
	return nil
}

// cleanup reverses the item's side effects. Steps that never ran are
// skipped with a log note; cleanup failures are logged but do not
// change the item's outcome. Runs even when the batch context has
// been cancelled.
func (p *Pipeline) cleanup(ctx context.Context, st *runState) {
	ctx = context.WithoutCancel(ctx)

	if st.uploaded {
		if err := p.store.Remove(ctx, st.blobName); err != nil {
			p.log.Error("blob cleanup failed, object may be left behind",
				zap.String("object", st.blobName),
				zap.Error(err))
		} else {
			p.log.Info("blob deleted", zap.String("object", st.blobName))
		}
	} else {
		p.log.Info("skipping blob cleanup, upload never completed",
			zap.String("object", st.blobName))
	}

	if st.transcoded {
		if err := os.Remove(st.audioPath); err != nil && !os.IsNotExist(err) {
			p.log.Error("local audio cleanup failed, file may be left behind",
				zap.String("path", st.audioPath),
				zap.Error(err))
		} else {
			p.log.Info("local audio deleted", zap.String("path", st.audioPath))
		}
	} else {
		p.log.Info("skipping local audio cleanup, transcoding never completed",
			zap.String("path", st.audioPath))
	}
}
